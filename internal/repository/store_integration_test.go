//go:build integration

package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/query"
)

// Run with: MONGO_TEST_URI=mongodb://localhost:27017 go test -tags integration ./internal/repository/
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("artwork_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func insertArtwork(t *testing.T, repo *ArtworkRepository, title, artist, category string, likes int64) *models.Artwork {
	t.Helper()
	a := &models.Artwork{
		ImageURL:    "https://i.ibb.co/x/a.png",
		Title:       title,
		Category:    category,
		Visibility:  models.VisibilityPublic,
		ArtistEmail: artist,
		ArtistName:  artist,
		Likes:       likes,
		LikedBy:     []string{},
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(context.Background(), a))
	return a
}

func TestArtworkRepository_LikeAgainstStore(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	repo := NewArtworkRepository(db, query.NewBuilder(12, 100, 100), 5*time.Second)
	require.NoError(t, repo.EnsureIndexes(ctx))

	a := insertArtwork(t, repo, "Sunrise", "ana@example.com", "Painting", 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.ApplyLike(ctx, a.ID, "ben@example.com", models.ActionLike)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)
	assert.Equal(t, []string{"ben@example.com"}, got.LikedBy)

	got, changed, err := repo.ApplyLike(ctx, a.ID, "ben@example.com", models.ActionUnlike)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(0), got.Likes)
	assert.Empty(t, got.LikedBy)

	got, changed, err = repo.ApplyLike(ctx, a.ID, "ben@example.com", models.ActionUnlike)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(0), got.Likes)

	_, _, err = repo.ApplyLike(ctx, primitive.NewObjectID(), "ben@example.com", models.ActionLike)
	assert.ErrorIs(t, err, ErrArtworkNotFound)
}

func TestArtworkRepository_AggregatesAgainstStore(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	repo := NewArtworkRepository(db, query.NewBuilder(12, 100, 100), 5*time.Second)

	insertArtwork(t, repo, "One", "ana@example.com", "Painting", 3)
	insertArtwork(t, repo, "Two", "ana@example.com", "Painting", 2)
	insertArtwork(t, repo, "Three", "ben@example.com", "Painting", 1)
	insertArtwork(t, repo, "Four", "ben@example.com", "Sculpture", 0)

	counts, err := repo.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryCount{
		{Category: "Painting", Count: 3},
		{Category: "Sculpture", Count: 1},
	}, counts)

	artists, err := repo.TopArtists(ctx, 1)
	require.NoError(t, err)
	require.Len(t, artists, 1)
	assert.Equal(t, "ana@example.com", artists[0].ArtistEmail)
	assert.Equal(t, int64(5), artists[0].TotalLikes)
	assert.Equal(t, int64(2), artists[0].TotalArtworks)

	found, err := repo.List(ctx, query.ArtworkFilter{Search: "(one", PublicOnly: true}, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFavoriteRepository_UniqueAgainstStore(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	repo := NewFavoriteRepository(db, 5*time.Second)
	require.NoError(t, repo.EnsureIndexes(ctx))

	fav := func() *models.Favorite {
		return &models.Favorite{UserEmail: "ben@example.com", ArtworkID: "64b7f0c2a1b2c3d4e5f60718", AddedAt: time.Now().UTC()}
	}
	require.NoError(t, repo.Insert(ctx, fav()))
	assert.ErrorIs(t, repo.Insert(ctx, fav()), ErrFavoriteExists)

	require.NoError(t, repo.Delete(ctx, "ben@example.com", "64b7f0c2a1b2c3d4e5f60718"))
	assert.ErrorIs(t, repo.Delete(ctx, "ben@example.com", "64b7f0c2a1b2c3d4e5f60718"), ErrFavoriteNotFound)
}
