package service

import (
	"context"
	"strings"
	"time"

	"github.com/artisans-echo/artwork-service/internal/access"
	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/cache"
	"github.com/artisans-echo/artwork-service/internal/events"
	"github.com/artisans-echo/artwork-service/internal/logger"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/query"
	"github.com/artisans-echo/artwork-service/internal/validation"
	"github.com/sirupsen/logrus"
)

// ArtworkService handles artwork listing, submission and owner edits
type ArtworkService struct {
	artworks        ArtworkStore
	builder         *query.Builder
	guard           *access.Guard
	images          *validation.ImageURLValidator
	featuredLimit   int
	topArtistsLimit int
	logger          *logrus.Logger
	notifier
}

// NewArtworkService creates a new artwork service
func NewArtworkService(
	artworks ArtworkStore,
	builder *query.Builder,
	guard *access.Guard,
	images *validation.ImageURLValidator,
	statsCache StatsCache,
	publisher events.Publisher,
	featuredLimit, topArtistsLimit int,
	logger *logrus.Logger,
) *ArtworkService {
	return &ArtworkService{
		artworks:        artworks,
		builder:         builder,
		guard:           guard,
		images:          images,
		featuredLimit:   featuredLimit,
		topArtistsLimit: topArtistsLimit,
		logger:          logger,
		notifier:        notifier{cache: statsCache, publisher: publisher, logger: logger},
	}
}

// Create validates a submission and stores it with no likes. The artist
// defaults to the caller when the payload leaves it out.
func (s *ArtworkService) Create(ctx context.Context, identity string, req *models.CreateArtworkRequest) (*models.Artwork, error) {
	artwork := &models.Artwork{
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Title:       strings.TrimSpace(req.Title),
		Category:    strings.TrimSpace(req.Category),
		Medium:      strings.TrimSpace(req.Medium),
		Description: strings.TrimSpace(req.Description),
		Dimensions:  strings.TrimSpace(req.Dimensions),
		Price:       strings.TrimSpace(req.Price),
		Visibility:  req.Visibility,
		ArtistEmail: strings.TrimSpace(req.ArtistEmail),
		ArtistName:  strings.TrimSpace(req.ArtistName),
		ArtistPhoto: strings.TrimSpace(req.ArtistPhoto),
		Likes:       0,
		LikedBy:     []string{},
		CreatedAt:   time.Now().UTC(),
	}
	if artwork.ArtistEmail == "" {
		artwork.ArtistEmail = identity
	}
	if artwork.Visibility == "" {
		artwork.Visibility = models.VisibilityPublic
	}

	if err := s.validateArtwork(artwork); err != nil {
		return nil, err
	}
	if err := s.guard.CheckSelf(identity, artwork.ArtistEmail); err != nil {
		return nil, err
	}

	if err := s.artworks.Insert(ctx, artwork); err != nil {
		return nil, storeFailure(err, "failed to create artwork")
	}

	logger.WithArtworkID(s.logger, artwork.ID.Hex()).WithField("artist_email", artwork.ArtistEmail).Info("Artwork created")

	s.invalidate(ctx, cache.StatsKeys...)
	s.publish(ctx, events.NewArtworkEvent(events.EventArtworkCreated, artwork.ID.Hex(), artwork.ArtistEmail))
	return artwork, nil
}

func (s *ArtworkService) validateArtwork(a *models.Artwork) error {
	required := []struct {
		field string
		value string
	}{
		{"imageUrl", a.ImageURL},
		{"title", a.Title},
		{"category", a.Category},
		{"artistEmail", a.ArtistEmail},
		{"artistName", a.ArtistName},
	}
	for _, r := range required {
		if r.value == "" {
			return apperr.Validation(r.field + " is required")
		}
	}

	if err := validation.ValidateEmail(a.ArtistEmail); err != nil {
		return apperr.Validation("artistEmail must be a valid email address")
	}
	if err := s.images.Validate(a.ImageURL); err != nil {
		return apperr.Validation("imageUrl must be an image URL")
	}
	if !a.Visibility.Valid() {
		return apperr.Validation("visibility must be Public or Private")
	}
	return nil
}

// Get returns one artwork. Malformed identifiers are reported as not found
// without querying the store.
func (s *ArtworkService) Get(ctx context.Context, id string) (*models.Artwork, error) {
	oid, err := validation.ParseObjectID(id)
	if err != nil {
		return nil, apperr.NotFound("artwork not found")
	}

	artwork, err := s.artworks.FindByID(ctx, oid)
	if err != nil {
		return nil, artworkLookupError(err)
	}
	return artwork, nil
}

// ListPage returns one page of public artworks matching f.
func (s *ArtworkService) ListPage(ctx context.Context, f query.ArtworkFilter, page, limit int) (*models.ArtworkPage, error) {
	f.PublicOnly = true
	f.ArtistEmail = ""
	p := s.builder.Paginate(page, limit)

	total, err := s.artworks.Count(ctx, f)
	if err != nil {
		return nil, storeFailure(err, "failed to count artworks")
	}

	artworks, err := s.artworks.List(ctx, f, &p)
	if err != nil {
		return nil, storeFailure(err, "failed to list artworks")
	}

	return &models.ArtworkPage{
		Artworks:   artworks,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages(total),
	}, nil
}

// ListAll returns every public artwork matching f.
func (s *ArtworkService) ListAll(ctx context.Context, f query.ArtworkFilter) ([]*models.Artwork, error) {
	f.PublicOnly = true
	f.ArtistEmail = ""

	artworks, err := s.artworks.List(ctx, f, nil)
	if err != nil {
		return nil, storeFailure(err, "failed to list artworks")
	}
	return artworks, nil
}

// Latest returns the most recent public artworks.
func (s *ArtworkService) Latest(ctx context.Context) ([]*models.Artwork, error) {
	artworks, err := s.artworks.Latest(ctx, query.ArtworkFilter{PublicOnly: true}, s.featuredLimit)
	if err != nil {
		return nil, storeFailure(err, "failed to list latest artworks")
	}
	return artworks, nil
}

// ListByArtist returns all of an artist's artworks regardless of
// visibility. Only the artist may see them when the caller is known.
func (s *ArtworkService) ListByArtist(ctx context.Context, identity, email string) ([]*models.Artwork, error) {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperr.Validation("email must be a valid email address")
	}
	if err := s.guard.CheckSelf(identity, email); err != nil {
		return nil, err
	}

	artworks, err := s.artworks.List(ctx, query.ArtworkFilter{ArtistEmail: email}, nil)
	if err != nil {
		return nil, storeFailure(err, "failed to list artist artworks")
	}
	return artworks, nil
}

// Search matches term literally against titles, artist names and
// categories of public artworks.
func (s *ArtworkService) Search(ctx context.Context, term string) ([]*models.Artwork, error) {
	if strings.TrimSpace(term) == "" {
		return nil, apperr.Validation("search term is required")
	}
	return s.ListAll(ctx, query.ArtworkFilter{Search: term})
}

// ByCategory lists public artworks of one category; "all" lists every one.
func (s *ArtworkService) ByCategory(ctx context.Context, category string) ([]*models.Artwork, error) {
	return s.ListAll(ctx, query.ArtworkFilter{Category: category})
}

// Update applies a partial edit. The owner check runs before the patch is
// validated so non-owners learn nothing about it.
func (s *ArtworkService) Update(ctx context.Context, identity, id string, req *models.UpdateArtworkRequest) (*models.Artwork, error) {
	oid, err := validation.ParseObjectID(id)
	if err != nil {
		return nil, apperr.NotFound("artwork not found")
	}

	existing, err := s.artworks.FindByID(ctx, oid)
	if err != nil {
		return nil, artworkLookupError(err)
	}
	if err := s.guard.CheckOwner(identity, existing); err != nil {
		return nil, err
	}

	fields, err := s.patchFields(req)
	if err != nil {
		return nil, err
	}

	updated, err := s.artworks.Update(ctx, oid, fields, time.Now().UTC())
	if err != nil {
		return nil, artworkLookupError(err)
	}

	logger.WithArtworkID(s.logger, id).WithField("fields", len(fields)).Info("Artwork updated")

	s.invalidate(ctx, cache.StatsKeys...)
	s.publish(ctx, events.NewArtworkEvent(events.EventArtworkUpdated, id, updated.ArtistEmail))
	return updated, nil
}

func (s *ArtworkService) patchFields(req *models.UpdateArtworkRequest) (map[string]interface{}, error) {
	fields := req.Fields()
	if len(fields) == 0 {
		return nil, apperr.Validation("no updatable fields supplied")
	}

	for key, value := range fields {
		if str, ok := value.(string); ok {
			str = strings.TrimSpace(str)
			fields[key] = str
			switch key {
			case "imageUrl", "title", "category", "artistName":
				if str == "" {
					return nil, apperr.Validation(key + " cannot be empty")
				}
			}
		}
	}

	if imageURL, ok := fields["imageUrl"].(string); ok {
		if err := s.images.Validate(imageURL); err != nil {
			return nil, apperr.Validation("imageUrl must be an image URL")
		}
	}
	if visibility, ok := fields["visibility"].(models.Visibility); ok && !visibility.Valid() {
		return nil, apperr.Validation("visibility must be Public or Private")
	}
	return fields, nil
}

// Delete removes an artwork. Favorites pointing at it are left in place and
// dropped when favorites are listed.
func (s *ArtworkService) Delete(ctx context.Context, identity, id string) error {
	oid, err := validation.ParseObjectID(id)
	if err != nil {
		return apperr.NotFound("artwork not found")
	}

	existing, err := s.artworks.FindByID(ctx, oid)
	if err != nil {
		return artworkLookupError(err)
	}
	if err := s.guard.CheckOwner(identity, existing); err != nil {
		return err
	}

	if err := s.artworks.Delete(ctx, oid); err != nil {
		return artworkLookupError(err)
	}

	logger.WithArtworkID(s.logger, id).Info("Artwork deleted")

	s.invalidate(ctx, cache.StatsKeys...)
	s.publish(ctx, events.NewArtworkEvent(events.EventArtworkDeleted, id, existing.ArtistEmail))
	return nil
}

// TotalPublic counts public artworks.
func (s *ArtworkService) TotalPublic(ctx context.Context) (int64, error) {
	var total int64
	if s.cached(ctx, cache.TotalArtworksKey, &total) {
		return total, nil
	}

	total, err := s.artworks.Count(ctx, query.ArtworkFilter{PublicOnly: true})
	if err != nil {
		return 0, storeFailure(err, "failed to count artworks")
	}
	s.store(ctx, cache.TotalArtworksKey, total)
	return total, nil
}

// CategoryCounts groups public artworks by category, largest first.
func (s *ArtworkService) CategoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	var counts []models.CategoryCount
	if s.cached(ctx, cache.CategoryCountsKey, &counts) {
		return counts, nil
	}

	counts, err := s.artworks.CategoryCounts(ctx)
	if err != nil {
		return nil, storeFailure(err, "failed to aggregate categories")
	}
	s.store(ctx, cache.CategoryCountsKey, counts)
	return counts, nil
}

func (s *ArtworkService) TopArtists(ctx context.Context) ([]models.ArtistSummary, error) {
	var artists []models.ArtistSummary
	if s.cached(ctx, cache.TopArtistsKey, &artists) {
		return artists, nil
	}

	artists, err := s.artworks.TopArtists(ctx, s.topArtistsLimit)
	if err != nil {
		return nil, storeFailure(err, "failed to aggregate top artists")
	}
	s.store(ctx, cache.TopArtistsKey, artists)
	return artists, nil
}

// Categories lists the distinct categories in use by public artworks.
func (s *ArtworkService) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if s.cached(ctx, cache.CategoriesKey, &categories) {
		return categories, nil
	}

	categories, err := s.artworks.DistinctCategories(ctx)
	if err != nil {
		return nil, storeFailure(err, "failed to list categories")
	}
	s.store(ctx, cache.CategoriesKey, categories)
	return categories, nil
}
