package repository

import (
	"context"
	"errors"
	"time"

	"github.com/artisans-echo/artwork-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrFavoriteExists   = errors.New("artwork already in favorites")
)

type FavoriteRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewFavoriteRepository(db *mongo.Database, timeout time.Duration) *FavoriteRepository {
	return &FavoriteRepository{
		collection: db.Collection("favorites"),
		timeout:    timeout,
	}
}

// EnsureIndexes creates the unique (user, artwork) index that makes
// concurrent duplicate adds fail in the store instead of both inserting.
func (r *FavoriteRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userEmail", Value: 1},
				{Key: "artworkId", Value: 1},
			},
			Options: options.Index().SetName("user_artwork_idx").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "userEmail", Value: 1},
				{Key: "addedAt", Value: -1},
			},
			Options: options.Index().SetName("user_added_idx"),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *FavoriteRepository) Insert(ctx context.Context, favorite *models.Favorite) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	favorite.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, favorite)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrFavoriteExists
		}
		return wrapStoreError(err)
	}
	return nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, userEmail, artworkID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{
		"userEmail": userEmail,
		"artworkId": artworkID,
	})
	if err != nil {
		return wrapStoreError(err)
	}
	if result.DeletedCount == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userEmail, artworkID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"userEmail": userEmail,
		"artworkId": artworkID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrapStoreError(err)
	}
	return count > 0, nil
}

// ListByUser returns the user's favorites, most recently added first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userEmail string) ([]*models.Favorite, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx,
		bson.M{"userEmail": userEmail},
		options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}}),
	)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	defer cursor.Close(ctx)

	favorites := []*models.Favorite{}
	if err = cursor.All(ctx, &favorites); err != nil {
		return nil, wrapStoreError(err)
	}
	return favorites, nil
}
