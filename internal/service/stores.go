// Package service implements the artwork, like, favorite, user and upload
// operations on top of the document store.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/cache"
	"github.com/artisans-echo/artwork-service/internal/events"
	"github.com/artisans-echo/artwork-service/internal/metrics"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/query"
	"github.com/artisans-echo/artwork-service/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ArtworkStore is implemented by repository.ArtworkRepository.
type ArtworkStore interface {
	Insert(ctx context.Context, artwork *models.Artwork) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Artwork, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Artwork, error)
	List(ctx context.Context, f query.ArtworkFilter, p *query.Pagination) ([]*models.Artwork, error)
	Latest(ctx context.Context, f query.ArtworkFilter, n int) ([]*models.Artwork, error)
	Count(ctx context.Context, f query.ArtworkFilter) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}, updatedAt time.Time) (*models.Artwork, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ApplyLike(ctx context.Context, id primitive.ObjectID, email string, action models.LikeAction) (*models.Artwork, bool, error)
	CategoryCounts(ctx context.Context) ([]models.CategoryCount, error)
	TopArtists(ctx context.Context, limit int) ([]models.ArtistSummary, error)
	DistinctCategories(ctx context.Context) ([]string, error)
}

// FavoriteStore is implemented by repository.FavoriteRepository.
type FavoriteStore interface {
	Insert(ctx context.Context, favorite *models.Favorite) error
	Delete(ctx context.Context, userEmail, artworkID string) error
	Exists(ctx context.Context, userEmail, artworkID string) (bool, error)
	ListByUser(ctx context.Context, userEmail string) ([]*models.Favorite, error)
}

// UserStore is implemented by repository.UserRepository.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// StatsCache is implemented by cache.RedisCache.
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

// storeFailure classifies an unexpected store error.
func storeFailure(err error, message string) error {
	if repository.IsUnavailable(err) {
		return &apperr.Error{Kind: apperr.KindStoreUnavailable, Message: "document store unavailable", Err: err}
	}
	return apperr.Internal(message, err)
}

func artworkLookupError(err error) error {
	if errors.Is(err, repository.ErrArtworkNotFound) {
		return apperr.NotFound("artwork not found")
	}
	return storeFailure(err, "failed to load artwork")
}

// notifier bundles the side effects shared by the services: activity events
// and stats cache invalidation. Neither may fail a request.
type notifier struct {
	cache     StatsCache
	publisher events.Publisher
	logger    *logrus.Logger
}

func (n *notifier) publish(ctx context.Context, event events.ArtworkEvent) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		metrics.RecordEventPublishError(string(event.Type))
		n.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.Type,
			"event_id":   event.EventID,
		}).Warn("Failed to publish artwork event (circuit breaker may be open)")
	}
}

func (n *notifier) invalidate(ctx context.Context, keys ...string) {
	if n.cache == nil {
		return
	}
	if err := n.cache.Invalidate(ctx, keys...); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		n.logger.WithError(err).Warn("Failed to invalidate stats cache")
	}
}

// cached fills dest from key. It returns false on a miss, when the cache is
// disabled or when the read fails.
func (n *notifier) cached(ctx context.Context, key string, dest interface{}) bool {
	if n.cache == nil {
		return false
	}
	err := n.cache.GetJSON(ctx, key, dest)
	if errors.Is(err, cache.ErrCacheDisabled) {
		return false
	}
	metrics.RecordCacheLookup(key, err == nil)
	return err == nil
}

func (n *notifier) store(ctx context.Context, key string, value interface{}) {
	if n.cache == nil {
		return
	}
	if err := n.cache.SetJSON(ctx, key, value); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		n.logger.WithError(err).WithField("key", key).Debug("Failed to cache stats")
	}
}
