// Package servicetest provides in-memory stores with the same semantics as
// the MongoDB repositories, for tests of the service and HTTP layers.
package servicetest

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artisans-echo/artwork-service/internal/cache"
	"github.com/artisans-echo/artwork-service/internal/events"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/query"
	"github.com/artisans-echo/artwork-service/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Logger discards everything.
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Artworks is an in-memory ArtworkStore with the same filter and
// like semantics as the Mongo repository.
type Artworks struct {
	mu    sync.Mutex
	docs  map[primitive.ObjectID]*models.Artwork
	clock time.Time
	Err   error
}

func NewArtworks() *Artworks {
	return &Artworks{
		docs:  make(map[primitive.ObjectID]*models.Artwork),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func clone(a *models.Artwork) *models.Artwork {
	c := *a
	c.LikedBy = append([]string{}, a.LikedBy...)
	return &c
}

func (m *Artworks) Insert(_ context.Context, a *models.Artwork) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a.ID = primitive.NewObjectID()
	// Distinct creation times keep the listing order deterministic.
	m.clock = m.clock.Add(time.Second)
	a.CreatedAt = m.clock
	m.docs[a.ID] = clone(a)
	return nil
}

func (m *Artworks) FindByID(_ context.Context, id primitive.ObjectID) (*models.Artwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrArtworkNotFound
	}
	return clone(a), nil
}

func (m *Artworks) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Artwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Artwork{}
	for _, id := range ids {
		if a, ok := m.docs[id]; ok {
			out = append(out, clone(a))
		}
	}
	return out, nil
}

func (m *Artworks) matching(f query.ArtworkFilter) []*models.Artwork {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.TrimSpace(f.Category)
	if strings.EqualFold(category, query.CategoryAll) {
		category = ""
	}

	out := []*models.Artwork{}
	for _, a := range m.docs {
		if f.PublicOnly && a.Visibility != models.VisibilityPublic {
			continue
		}
		if f.ArtistEmail != "" && a.ArtistEmail != f.ArtistEmail {
			continue
		}
		if category != "" && a.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(a.Title), term) &&
			!strings.Contains(strings.ToLower(a.ArtistName), term) &&
			!strings.Contains(strings.ToLower(a.Category), term) {
			continue
		}
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out
}

func (m *Artworks) List(_ context.Context, f query.ArtworkFilter, p *query.Pagination) ([]*models.Artwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	all := m.matching(f)
	if p == nil {
		return all, nil
	}
	start := int(p.Skip())
	if start >= len(all) {
		return []*models.Artwork{}, nil
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *Artworks) Latest(_ context.Context, f query.ArtworkFilter, n int) ([]*models.Artwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(f)
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (m *Artworks) Count(_ context.Context, f query.ArtworkFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.matching(f))), nil
}

func (m *Artworks) Update(_ context.Context, id primitive.ObjectID, fields map[string]interface{}, updatedAt time.Time) (*models.Artwork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrArtworkNotFound
	}
	for k, v := range fields {
		switch k {
		case "imageUrl":
			a.ImageURL = v.(string)
		case "title":
			a.Title = v.(string)
		case "category":
			a.Category = v.(string)
		case "medium":
			a.Medium = v.(string)
		case "description":
			a.Description = v.(string)
		case "dimensions":
			a.Dimensions = v.(string)
		case "price":
			a.Price = v.(string)
		case "artistName":
			a.ArtistName = v.(string)
		case "artistPhoto":
			a.ArtistPhoto = v.(string)
		case "visibility":
			a.Visibility = v.(models.Visibility)
		}
	}
	a.UpdatedAt = &updatedAt
	return clone(a), nil
}

func (m *Artworks) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return repository.ErrArtworkNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *Artworks) ApplyLike(_ context.Context, id primitive.ObjectID, email string, action models.LikeAction) (*models.Artwork, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.docs[id]
	if !ok {
		return nil, false, repository.ErrArtworkNotFound
	}

	liked := a.LikedByUser(email)
	switch {
	case action == models.ActionLike && !liked:
		a.Likes++
		a.LikedBy = append(a.LikedBy, email)
	case action == models.ActionUnlike && liked:
		if a.Likes > 0 {
			a.Likes--
		}
		kept := a.LikedBy[:0]
		for _, e := range a.LikedBy {
			if e != email {
				kept = append(kept, e)
			}
		}
		a.LikedBy = kept
	default:
		return clone(a), false, nil
	}
	return clone(a), true, nil
}

func (m *Artworks) CategoryCounts(_ context.Context) ([]models.CategoryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, a := range m.matching(query.ArtworkFilter{PublicOnly: true}) {
		counts[a.Category]++
	}
	out := []models.CategoryCount{}
	for c, n := range counts {
		out = append(out, models.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (m *Artworks) TopArtists(_ context.Context, limit int) ([]models.ArtistSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(query.ArtworkFilter{})
	byArtist := map[string]*models.ArtistSummary{}
	// matching is newest first, so walk backwards to let the newest name win.
	for i := len(all) - 1; i >= 0; i-- {
		a := all[i]
		s, ok := byArtist[a.ArtistEmail]
		if !ok {
			s = &models.ArtistSummary{ArtistEmail: a.ArtistEmail}
			byArtist[a.ArtistEmail] = s
		}
		s.ArtistName = a.ArtistName
		s.ArtistPhoto = a.ArtistPhoto
		s.TotalLikes += a.Likes
		s.TotalArtworks++
	}
	out := []models.ArtistSummary{}
	for _, s := range byArtist {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalLikes != out[j].TotalLikes {
			return out[i].TotalLikes > out[j].TotalLikes
		}
		if out[i].TotalArtworks != out[j].TotalArtworks {
			return out[i].TotalArtworks > out[j].TotalArtworks
		}
		return out[i].ArtistEmail < out[j].ArtistEmail
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Artworks) DistinctCategories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, a := range m.matching(query.ArtworkFilter{PublicOnly: true}) {
		if !seen[a.Category] {
			seen[a.Category] = true
			out = append(out, a.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Favorites enforces the (user, artwork) uniqueness of the store index.
type Favorites struct {
	mu   sync.Mutex
	docs []*models.Favorite
}

func (m *Favorites) Insert(_ context.Context, f *models.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.UserEmail == f.UserEmail && d.ArtworkID == f.ArtworkID {
			return repository.ErrFavoriteExists
		}
	}
	f.ID = primitive.NewObjectID()
	c := *f
	m.docs = append(m.docs, &c)
	return nil
}

func (m *Favorites) Delete(_ context.Context, userEmail, artworkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.UserEmail == userEmail && d.ArtworkID == artworkID {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return repository.ErrFavoriteNotFound
}

func (m *Favorites) Exists(_ context.Context, userEmail, artworkID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.UserEmail == userEmail && d.ArtworkID == artworkID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Favorites) ListByUser(_ context.Context, userEmail string) ([]*models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Favorite{}
	for i := len(m.docs) - 1; i >= 0; i-- {
		if m.docs[i].UserEmail == userEmail {
			c := *m.docs[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

// Seed stores f as is, bypassing the uniqueness check.
func (m *Favorites) Seed(f *models.Favorite) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, f)
}

// Count returns the number of stored favorites.
func (m *Favorites) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

type Users struct {
	mu   sync.Mutex
	docs map[string]*models.User
}

func (m *Users) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = map[string]*models.User{}
	}
	if _, ok := m.docs[u.Email]; ok {
		return repository.ErrUserAlreadyExists
	}
	u.ID = primitive.NewObjectID()
	c := *u
	m.docs[u.Email] = &c
	return nil
}

func (m *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.docs[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// Publisher keeps published events for assertions.
type Publisher struct {
	mu     sync.Mutex
	events []events.ArtworkEvent
}

func (p *Publisher) Publish(_ context.Context, e events.ArtworkEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *Publisher) Close() error { return nil }

// Types returns the types of the published events in order.
func (p *Publisher) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// Cache is a StatsCache backed by a map of already-encoded values.
type Cache struct {
	mu          sync.Mutex
	Values      map[string]interface{}
	Invalidated []string
}

func NewCache() *Cache {
	return &Cache{Values: map[string]interface{}{}}
}

func (c *Cache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.Values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *int64:
		*d = v.(int64)
	case *[]models.CategoryCount:
		*d = v.([]models.CategoryCount)
	case *[]models.ArtistSummary:
		*d = v.([]models.ArtistSummary)
	case *[]string:
		*d = v.([]string)
	}
	return nil
}

func (c *Cache) SetJSON(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Values[key] = value
	return nil
}

func (c *Cache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.Values, k)
		c.Invalidated = append(c.Invalidated, k)
	}
	return nil
}

