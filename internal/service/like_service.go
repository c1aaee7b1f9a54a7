package service

import (
	"context"
	"strings"

	"github.com/artisans-echo/artwork-service/internal/access"
	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/cache"
	"github.com/artisans-echo/artwork-service/internal/events"
	"github.com/artisans-echo/artwork-service/internal/logger"
	"github.com/artisans-echo/artwork-service/internal/metrics"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/validation"
	"github.com/sirupsen/logrus"
)

// LikeService toggles per-user likes on artworks
type LikeService struct {
	artworks ArtworkStore
	guard    *access.Guard
	logger   *logrus.Logger
	notifier
}

func NewLikeService(artworks ArtworkStore, guard *access.Guard, statsCache StatsCache, publisher events.Publisher, logger *logrus.Logger) *LikeService {
	return &LikeService{
		artworks: artworks,
		guard:    guard,
		logger:   logger,
		notifier: notifier{cache: statsCache, publisher: publisher, logger: logger},
	}
}

// Toggle likes or unlikes an artwork for the acting user. Repeating an
// action is a no-op reported with Changed false.
func (s *LikeService) Toggle(ctx context.Context, identity, artworkID string, req *models.LikeRequest) (*models.LikeResult, error) {
	oid, err := validation.ParseObjectID(artworkID)
	if err != nil {
		return nil, apperr.NotFound("artwork not found")
	}

	action := models.LikeAction(strings.ToLower(strings.TrimSpace(string(req.Action))))
	if action != models.ActionLike && action != models.ActionUnlike {
		return nil, apperr.Validation("action must be like or unlike")
	}

	email, err := resolveActor(s.guard, identity, req.UserEmail, "userEmail")
	if err != nil {
		return nil, err
	}

	artwork, changed, err := s.artworks.ApplyLike(ctx, oid, email, action)
	if err != nil {
		return nil, artworkLookupError(err)
	}

	metrics.RecordLike(string(action), changed)

	result := &models.LikeResult{
		ArtworkID: artworkID,
		Likes:     artwork.Likes,
		Liked:     artwork.LikedByUser(email),
		Changed:   changed,
	}

	if changed {
		logger.WithArtworkID(s.logger, artworkID).WithFields(logrus.Fields{
			"action": action,
			"likes":  artwork.Likes,
		}).Debug("Like toggled")

		s.invalidate(ctx, cache.TopArtistsKey)
		s.publish(ctx, events.NewLikeEvent(action == models.ActionLike, artworkID, email, artwork.Likes))
	}
	return result, nil
}
