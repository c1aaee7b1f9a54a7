package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisans-echo/artwork-service/internal/access"
	"github.com/artisans-echo/artwork-service/internal/auth"
	"github.com/artisans-echo/artwork-service/internal/breaker"
	"github.com/artisans-echo/artwork-service/internal/middleware"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/query"
	"github.com/artisans-echo/artwork-service/internal/service"
	"github.com/artisans-echo/artwork-service/internal/service/servicetest"
	"github.com/artisans-echo/artwork-service/internal/validation"
)

const testSecret = "test-secret"

type readyFlag struct{ ready atomic.Bool }

func (f *readyFlag) Ready() bool { return f.ready.Load() }

type testServer struct {
	router    *gin.Engine
	verifier  *auth.JWTVerifier
	store     *readyFlag
	favorites *servicetest.Favorites
}

func newTestServer(t *testing.T, authRequired bool) *testServer {
	t.Helper()
	return buildTestServer(t, authRequired, nil)
}

func buildTestServer(t *testing.T, authRequired bool, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := servicetest.Logger()
	artworks := servicetest.NewArtworks()
	favorites := &servicetest.Favorites{}
	publisher := &servicetest.Publisher{}
	guard := access.NewGuard()
	images := validation.NewImageURLValidator([]string{"i.ibb.co"})

	artworkSvc := service.NewArtworkService(artworks, query.NewBuilder(12, 100, 100), guard, images, servicetest.NewCache(), publisher, 6, 4, logger)
	likeSvc := service.NewLikeService(artworks, guard, servicetest.NewCache(), publisher, logger)
	favoriteSvc := service.NewFavoriteService(favorites, artworks, guard, publisher, logger)
	userSvc := service.NewUserService(&servicetest.Users{}, guard, publisher, logger)
	uploadSvc := service.NewUploadService(nil, breaker.New("storage", 1, time.Minute, logger), 1<<20, logger)

	store := &readyFlag{}
	store.ready.Store(true)

	verifier := auth.NewJWTVerifier(testSecret)
	h := NewHandlers(artworkSvc, likeSvc, favoriteSvc, userSvc, uploadSvc, store, 1<<20, true, logger)
	router := NewRouter(h, verifier, middleware.NewStoreGate(store, true), limiter, RouterOptions{
		AuthRequired: authRequired,
		CORSOrigins:  []string{"*"},
	}, logger)

	return &testServer{router: router, verifier: verifier, store: store, favorites: favorites}
}

func (s *testServer) token(t *testing.T, email string) string {
	t.Helper()
	token, err := s.verifier.Sign(auth.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, email string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, email))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func newArtworkBody(title string) gin.H {
	return gin.H{
		"imageUrl":   "https://i.ibb.co/x/art.png",
		"title":      title,
		"category":   "Painting",
		"artistName": "Ana",
	}
}

func (s *testServer) createArtwork(t *testing.T, email, title string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/artworks", email, newArtworkBody(title))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		InsertedID string `json:"insertedId"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.InsertedID)
	return resp.InsertedID
}

func TestArtworkLifecycle(t *testing.T) {
	s := newTestServer(t, true)
	id := s.createArtwork(t, "ana@example.com", "Sunrise")

	w := s.do(t, http.MethodGet, "/artwork/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var artwork models.Artwork
	decode(t, w, &artwork)
	assert.Equal(t, "ana@example.com", artwork.ArtistEmail)
	assert.Equal(t, int64(0), artwork.Likes)
	assert.Equal(t, []string{}, artwork.LikedBy)

	w = s.do(t, http.MethodPatch, "/artwork/"+id, "ana@example.com", gin.H{"title": "Sunset"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &artwork)
	assert.Equal(t, "Sunset", artwork.Title)

	w = s.do(t, http.MethodDelete, "/artwork/"+id, "ana@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/artwork/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMutationsRequireAuth(t *testing.T) {
	s := newTestServer(t, true)
	id := s.createArtwork(t, "ana@example.com", "Sunrise")

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, "/artworks", newArtworkBody("x")},
		{http.MethodPatch, "/artwork/" + id, gin.H{"title": "x"}},
		{http.MethodDelete, "/artwork/" + id, nil},
		{http.MethodPatch, "/artwork/" + id + "/like", gin.H{"action": "like"}},
		{http.MethodPost, "/favorites", gin.H{"artworkId": id}},
		{http.MethodDelete, "/favorites", gin.H{"artworkId": id}},
		{http.MethodPost, "/users", gin.H{"email": "ana@example.com"}},
		{http.MethodGet, "/my-artworks/ana@example.com", nil},
	}

	for _, tt := range tests {
		w := s.do(t, tt.method, tt.path, "", tt.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	s := newTestServer(t, true)
	id := s.createArtwork(t, "ana@example.com", "Sunrise")

	w := s.do(t, http.MethodPatch, "/artwork/"+id, "ben@example.com", gin.H{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/artwork/"+id, "ben@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/my-artworks/ana@example.com", "ben@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestErrorShape(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodGet, "/artwork/not-an-id", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"artwork not found"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/artworks", "ana@example.com", gin.H{"title": "No image"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"imageUrl is required"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/artworks?page=two", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaginatedListing(t *testing.T) {
	s := newTestServer(t, true)
	for i := 0; i < 25; i++ {
		s.createArtwork(t, "ana@example.com", "Piece")
	}

	w := s.do(t, http.MethodGet, "/artworks?page=3&limit=12", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page models.ArtworkPage
	decode(t, w, &page)
	assert.Len(t, page.Artworks, 1)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 12, page.Limit)
	assert.Equal(t, int64(3), page.TotalPages)

	w = s.do(t, http.MethodGet, "/featured-artworks", "", nil)
	var latest []models.Artwork
	decode(t, w, &latest)
	assert.Len(t, latest, 6)
}

func TestLikeEndpoint(t *testing.T) {
	s := newTestServer(t, true)
	id := s.createArtwork(t, "ana@example.com", "Sunrise")

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPatch, "/artwork/"+id+"/like", "ben@example.com", gin.H{"action": "like"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := s.do(t, http.MethodPatch, "/artwork/"+id+"/like", "ben@example.com", gin.H{"action": "unlike"})
	require.Equal(t, http.StatusOK, w.Code)
	var result models.LikeResult
	decode(t, w, &result)
	assert.Equal(t, int64(0), result.Likes)
	assert.False(t, result.Liked)
	assert.True(t, result.Changed)

	w = s.do(t, http.MethodPatch, "/artwork/"+id+"/like", "ben@example.com", gin.H{"userEmail": "cara@example.com", "action": "like"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFavoritesEndpoints(t *testing.T) {
	s := newTestServer(t, true)
	id := s.createArtwork(t, "ana@example.com", "Sunrise")
	body := gin.H{"userEmail": "ben@example.com", "artworkId": id}

	w := s.do(t, http.MethodPost, "/favorites", "ben@example.com", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/favorites", "ben@example.com", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Artwork already in favorites","created":false}`, w.Body.String())
	assert.Equal(t, 1, s.favorites.Count())

	w = s.do(t, http.MethodGet, "/favorites/ben@example.com/"+id, "", nil)
	assert.JSONEq(t, `{"isFavorite":true}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/favorites/ben@example.com", "", nil)
	var listed []models.Artwork
	decode(t, w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "Sunrise", listed[0].Title)

	w = s.do(t, http.MethodDelete, "/favorites?userEmail=ben@example.com&artworkId="+id, "ben@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/favorites", "ben@example.com", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersEndpoint(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/users", "ana@example.com", gin.H{"email": "ana@example.com", "name": "Ana"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/users", "ana@example.com", gin.H{"email": "ana@example.com", "name": "Ana"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/users/ana@example.com", "", nil)
	var user models.User
	decode(t, w, &user)
	assert.Equal(t, "Ana", user.Name)
}

func TestAggregatesAndSearch(t *testing.T) {
	s := newTestServer(t, true)
	s.createArtwork(t, "ana@example.com", "Blue Hour")
	s.createArtwork(t, "ana@example.com", "Red Square")

	w := s.do(t, http.MethodGet, "/stats/total-artworks", "", nil)
	assert.JSONEq(t, `{"total":2}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/stats/by-category", "", nil)
	assert.JSONEq(t, `[{"category":"Painting","count":2}]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/categories", "", nil)
	assert.JSONEq(t, `["Painting"]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/top-artists", "", nil)
	var artists []models.ArtistSummary
	decode(t, w, &artists)
	require.Len(t, artists, 1)
	assert.Equal(t, int64(2), artists[0].TotalArtworks)

	w = s.do(t, http.MethodGet, "/artworks/search/blue", "", nil)
	var found []models.Artwork
	decode(t, w, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "Blue Hour", found[0].Title)

	w = s.do(t, http.MethodGet, "/artworks/category/all", "", nil)
	decode(t, w, &found)
	assert.Len(t, found, 2)
}

func TestDegradedReadsBeforeStoreReady(t *testing.T) {
	s := newTestServer(t, true)
	s.store.ready.Store(false)

	w := s.do(t, http.MethodGet, "/all-artworks", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/artworks", "", nil)
	assert.JSONEq(t, `{"artworks":[],"total":0,"page":1,"limit":0,"totalPages":0}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/artworks", "ana@example.com", newArtworkBody("x"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/health", "", nil)
	assert.JSONEq(t, `{"status":"ok","database":"connecting"}`, w.Body.String())
}

func TestOptionalAuthMode(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(t, http.MethodPost, "/artworks", "", gin.H{
		"imageUrl":    "https://i.ibb.co/x/art.png",
		"title":       "Anonymous",
		"category":    "Painting",
		"artistEmail": "ana@example.com",
		"artistName":  "Ana",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/artworks", "ben@example.com", gin.H{
		"imageUrl":    "https://i.ibb.co/x/art.png",
		"title":       "Impersonation",
		"category":    "Painting",
		"artistEmail": "ana@example.com",
		"artistName":  "Ana",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadsDisabled(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodPost, "/uploads", "ana@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRootAndMetrics(t *testing.T) {
	s := newTestServer(t, true)

	w := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "artwork_http_requests_total")
}

func TestHugePageIsNotAnError(t *testing.T) {
	s := newTestServer(t, true)
	s.createArtwork(t, "ana@example.com", "Sunrise")

	w := s.do(t, http.MethodGet, "/artworks?page=9223372036854775807&limit=100", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page models.ArtworkPage
	decode(t, w, &page)
	assert.Empty(t, page.Artworks)
	assert.Equal(t, int64(1), page.Total)
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1, time.Minute)
	defer limiter.Close()
	s := buildTestServer(t, true, limiter)

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
}

func TestFavoritesHidePrivateArtworks(t *testing.T) {
	s := newTestServer(t, true)

	body := newArtworkBody("Sketchbook")
	body["visibility"] = "Private"
	w := s.do(t, http.MethodPost, "/artworks", "ana@example.com", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		InsertedID string `json:"insertedId"`
	}
	decode(t, w, &created)
	s.favorites.Seed(&models.Favorite{UserEmail: "ben@example.com", ArtworkID: created.InsertedID})

	w = s.do(t, http.MethodGet, "/favorites/ben@example.com", "", nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/favorites/ben@example.com", "ana@example.com", nil)
	var listed []models.Artwork
	decode(t, w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "Sketchbook", listed[0].Title)
}
