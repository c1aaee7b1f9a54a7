package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrArtworkNotFound  = errors.New("artwork not found")
	ErrStoreUnavailable = errors.New("document store unavailable")
)

type ArtworkRepository struct {
	collection *mongo.Collection
	builder    *query.Builder
	timeout    time.Duration
}

func NewArtworkRepository(db *mongo.Database, builder *query.Builder, timeout time.Duration) *ArtworkRepository {
	return &ArtworkRepository{
		collection: db.Collection("artworks"),
		builder:    builder,
		timeout:    timeout,
	}
}

// EnsureIndexes creates the indexes backing listings and aggregates
func (r *ArtworkRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "visibility", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("visibility_created_idx"),
		},
		{
			Keys: bson.D{
				{Key: "artistEmail", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("artist_created_idx"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "visibility", Value: 1},
			},
			Options: options.Index().SetName("category_visibility_idx"),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *ArtworkRepository) Insert(ctx context.Context, artwork *models.Artwork) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	artwork.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, artwork)
	return wrapStoreError(err)
}

func (r *ArtworkRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Artwork, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var artwork models.Artwork
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&artwork)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrArtworkNotFound
		}
		return nil, wrapStoreError(err)
	}
	return normalize(&artwork), nil
}

// FindByIDs resolves many identifiers in one round trip. Missing ids are
// simply absent from the result.
func (r *ArtworkRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Artwork, error) {
	if len(ids) == 0 {
		return []*models.Artwork{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, query.FindOptions(nil))
}

// List returns artworks matching f, one page of them when p is non-nil.
func (r *ArtworkRepository) List(ctx context.Context, f query.ArtworkFilter, p *query.Pagination) ([]*models.Artwork, error) {
	return r.find(ctx, r.builder.Predicate(f), query.FindOptions(p))
}

// Latest returns the n most recent artworks matching f.
func (r *ArtworkRepository) Latest(ctx context.Context, f query.ArtworkFilter, n int) ([]*models.Artwork, error) {
	return r.find(ctx, r.builder.Predicate(f), query.LimitOptions(n))
}

func (r *ArtworkRepository) Count(ctx context.Context, f query.ArtworkFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	total, err := r.collection.CountDocuments(ctx, r.builder.Predicate(f))
	if err != nil {
		return 0, wrapStoreError(err)
	}
	return total, nil
}

func (r *ArtworkRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Artwork, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	defer cursor.Close(ctx)

	artworks := []*models.Artwork{}
	if err = cursor.All(ctx, &artworks); err != nil {
		return nil, wrapStoreError(err)
	}
	for _, a := range artworks {
		normalize(a)
	}
	return artworks, nil
}

// Update merges fields into the artwork and stamps updatedAt, returning the
// record as stored afterwards.
func (r *ArtworkRepository) Update(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}, updatedAt time.Time) (*models.Artwork, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{"updatedAt": updatedAt}
	for k, v := range fields {
		set[k] = v
	}

	var artwork models.Artwork
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&artwork)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrArtworkNotFound
		}
		return nil, wrapStoreError(err)
	}
	return normalize(&artwork), nil
}

func (r *ArtworkRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapStoreError(err)
	}
	if result.DeletedCount == 0 {
		return ErrArtworkNotFound
	}
	return nil
}

// ApplyLike performs the like/unlike transition as one atomic document
// update gated on liked-by membership. changed is false when the user was
// already in (like) or absent from (unlike) the set.
func (r *ArtworkRepository) ApplyLike(ctx context.Context, id primitive.ObjectID, email string, action models.LikeAction) (*models.Artwork, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var filter bson.M
	var update interface{}
	switch action {
	case models.ActionLike:
		filter, update = LikeMutation(id, email)
	case models.ActionUnlike:
		filter, update = UnlikeMutation(id, email)
	default:
		return nil, false, errors.New("unknown like action")
	}

	var artwork models.Artwork
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&artwork)
	if err == nil {
		return normalize(&artwork), true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, wrapStoreError(err)
	}

	// No transition happened: either the artwork is gone or the membership
	// already matches the requested state.
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// LikeMutation matches the artwork only while email has not liked it, so a
// repeated like never increments the counter twice.
func LikeMutation(id primitive.ObjectID, email string) (bson.M, bson.M) {
	filter := bson.M{
		"_id":     id,
		"likedBy": bson.M{"$ne": email},
	}
	update := bson.M{
		"$inc":      bson.M{"likes": 1},
		"$addToSet": bson.M{"likedBy": email},
	}
	return filter, update
}

// UnlikeMutation matches only while email is in the set and floors the
// counter at zero within the same pipeline update.
func UnlikeMutation(id primitive.ObjectID, email string) (bson.M, mongo.Pipeline) {
	filter := bson.M{
		"_id":     id,
		"likedBy": email,
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$likes", 1}}}},
			"likedBy": bson.M{"$setDifference": bson.A{
				bson.M{"$ifNull": bson.A{"$likedBy", bson.A{}}},
				bson.A{email},
			}},
		}}},
	}
	return filter, update
}

// CategoryCounts groups public artworks by category, largest first.
func (r *ArtworkRepository) CategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, CategoryCountsPipeline())
	if err != nil {
		return nil, wrapStoreError(err)
	}
	defer cursor.Close(ctx)

	counts := []models.CategoryCount{}
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, wrapStoreError(err)
	}
	return counts, nil
}

func CategoryCountsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"visibility": models.VisibilityPublic}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "category": "$_id", "count": 1}}},
	}
}

// TopArtists ranks artists across all artworks by total likes, then by
// number of artworks.
func (r *ArtworkRepository) TopArtists(ctx context.Context, limit int) ([]models.ArtistSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, TopArtistsPipeline(limit))
	if err != nil {
		return nil, wrapStoreError(err)
	}
	defer cursor.Close(ctx)

	artists := []models.ArtistSummary{}
	if err = cursor.All(ctx, &artists); err != nil {
		return nil, wrapStoreError(err)
	}
	return artists, nil
}

func TopArtistsPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		// Oldest first so $last carries the most recently seen profile.
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$artistEmail",
			"artistName":    bson.M{"$last": "$artistName"},
			"artistPhoto":   bson.M{"$last": "$artistPhoto"},
			"totalLikes":    bson.M{"$sum": "$likes"},
			"totalArtworks": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "totalLikes", Value: -1},
			{Key: "totalArtworks", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: bson.M{
			"_id":           0,
			"artistEmail":   "$_id",
			"artistName":    1,
			"artistPhoto":   1,
			"totalLikes":    1,
			"totalArtworks": 1,
		}}},
	}
}

// DistinctCategories lists the categories used by public artworks, sorted.
func (r *ArtworkRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, "category", bson.M{"visibility": models.VisibilityPublic})
	if err != nil {
		return nil, wrapStoreError(err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// normalize replaces a missing liked-by set with an empty one so records
// written by the count-only variant serialize consistently.
func normalize(a *models.Artwork) *models.Artwork {
	if a.LikedBy == nil {
		a.LikedBy = []string{}
	}
	return a
}

// wrapStoreError tags connectivity failures so callers can answer 503.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}

// IsUnavailable reports whether err means the store cannot be reached.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
