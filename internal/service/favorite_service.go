package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/artisans-echo/artwork-service/internal/access"
	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/events"
	"github.com/artisans-echo/artwork-service/internal/metrics"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/repository"
	"github.com/artisans-echo/artwork-service/internal/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FavoriteService maintains users' saved artworks
type FavoriteService struct {
	favorites FavoriteStore
	artworks  ArtworkStore
	guard     *access.Guard
	logger    *logrus.Logger
	notifier
}

func NewFavoriteService(favorites FavoriteStore, artworks ArtworkStore, guard *access.Guard, publisher events.Publisher, logger *logrus.Logger) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		artworks:  artworks,
		guard:     guard,
		logger:    logger,
		notifier:  notifier{publisher: publisher, logger: logger},
	}
}

// Add saves an existing artwork for the acting user. When the pair is
// already saved it returns a nil favorite and created false.
func (s *FavoriteService) Add(ctx context.Context, identity string, req *models.FavoriteRequest) (*models.Favorite, bool, error) {
	email, err := resolveActor(s.guard, identity, req.UserEmail, "userEmail")
	if err != nil {
		return nil, false, err
	}

	oid, err := validation.ParseObjectID(strings.TrimSpace(req.ArtworkID))
	if err != nil {
		return nil, false, apperr.NotFound("artwork not found")
	}
	if _, err := s.artworks.FindByID(ctx, oid); err != nil {
		return nil, false, artworkLookupError(err)
	}

	favorite := &models.Favorite{
		UserEmail: email,
		ArtworkID: oid.Hex(),
		AddedAt:   time.Now().UTC(),
	}
	if err := s.favorites.Insert(ctx, favorite); err != nil {
		if errors.Is(err, repository.ErrFavoriteExists) {
			metrics.RecordFavorite("add", "exists")
			return nil, false, nil
		}
		return nil, false, storeFailure(err, "failed to add favorite")
	}

	metrics.RecordFavorite("add", "created")
	s.publish(ctx, events.NewArtworkEvent(events.EventFavoriteAdded, favorite.ArtworkID, email))
	return favorite, true, nil
}

// Remove deletes the acting user's favorite for an artwork.
func (s *FavoriteService) Remove(ctx context.Context, identity string, req *models.FavoriteRequest) error {
	email, err := resolveActor(s.guard, identity, req.UserEmail, "userEmail")
	if err != nil {
		return err
	}

	oid, err := validation.ParseObjectID(strings.TrimSpace(req.ArtworkID))
	if err != nil {
		return apperr.NotFound("favorite not found")
	}

	if err := s.favorites.Delete(ctx, email, oid.Hex()); err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			metrics.RecordFavorite("remove", "not_found")
			return apperr.NotFound("favorite not found")
		}
		return storeFailure(err, "failed to remove favorite")
	}

	metrics.RecordFavorite("remove", "deleted")
	s.publish(ctx, events.NewArtworkEvent(events.EventFavoriteRemoved, oid.Hex(), email))
	return nil
}

// List resolves a user's favorites into artworks, most recently saved
// first. Favorites whose artwork no longer exists are skipped, and private
// artworks are only returned to their artist.
func (s *FavoriteService) List(ctx context.Context, identity, email string) ([]*models.Artwork, error) {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperr.Validation("email must be a valid email address")
	}

	favorites, err := s.favorites.ListByUser(ctx, email)
	if err != nil {
		return nil, storeFailure(err, "failed to list favorites")
	}

	ids := make([]primitive.ObjectID, 0, len(favorites))
	seen := make(map[primitive.ObjectID]bool, len(favorites))
	for _, f := range favorites {
		oid, err := validation.ParseObjectID(f.ArtworkID)
		if err != nil || seen[oid] {
			continue
		}
		seen[oid] = true
		ids = append(ids, oid)
	}

	found, err := s.artworks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeFailure(err, "failed to resolve favorites")
	}

	byID := make(map[primitive.ObjectID]*models.Artwork, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	artworks := make([]*models.Artwork, 0, len(found))
	hidden := 0
	for _, oid := range ids {
		a, ok := byID[oid]
		if !ok {
			continue
		}
		if a.Visibility == models.VisibilityPrivate && (identity == "" || a.ArtistEmail != identity) {
			hidden++
			continue
		}
		artworks = append(artworks, a)
	}

	if orphans := len(ids) - len(artworks) - hidden; orphans > 0 {
		s.logger.WithFields(logrus.Fields{
			"user_email": email,
			"orphans":    orphans,
		}).Debug("Skipped favorites of deleted artworks")
	}
	return artworks, nil
}

// IsFavorite reports whether email saved the artwork. Malformed artwork
// identifiers are never saved.
func (s *FavoriteService) IsFavorite(ctx context.Context, email, artworkID string) (bool, error) {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return false, apperr.Validation("email must be a valid email address")
	}

	oid, err := validation.ParseObjectID(strings.TrimSpace(artworkID))
	if err != nil {
		return false, nil
	}

	exists, err := s.favorites.Exists(ctx, email, oid.Hex())
	if err != nil {
		return false, storeFailure(err, "failed to check favorite")
	}
	return exists, nil
}
