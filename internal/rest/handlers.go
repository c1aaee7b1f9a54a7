package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/artisans-echo/artwork-service/internal/middleware"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/query"
	"github.com/artisans-echo/artwork-service/internal/service"
)

// Handlers serves the artwork REST endpoints
type Handlers struct {
	artworks      *service.ArtworkService
	likes         *service.LikeService
	favorites     *service.FavoriteService
	users         *service.UserService
	uploads       *service.UploadService
	store         middleware.ReadinessChecker
	maxUploadSize int64
	production    bool
	logger        *logrus.Logger
}

// NewHandlers creates the REST handlers
func NewHandlers(
	artworks *service.ArtworkService,
	likes *service.LikeService,
	favorites *service.FavoriteService,
	users *service.UserService,
	uploads *service.UploadService,
	store middleware.ReadinessChecker,
	maxUploadSize int64,
	production bool,
	logger *logrus.Logger,
) *Handlers {
	return &Handlers{
		artworks:      artworks,
		likes:         likes,
		favorites:     favorites,
		users:         users,
		uploads:       uploads,
		store:         store,
		maxUploadSize: maxUploadSize,
		production:    production,
		logger:        logger,
	}
}

// Root answers a plain banner
// GET /
func (h *Handlers) Root(c *gin.Context) {
	c.String(http.StatusOK, "Artisan's Echo server is running")
}

// Health reports liveness and whether the store is connected
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	database := "connecting"
	if h.store.Ready() {
		database = "connected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": database,
	})
}

// CreateUser returns the caller's profile, creating it on first login
// POST /users
func (h *Handlers) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	user, created, err := h.users.CreateOrFetch(c.Request.Context(), middleware.Identity(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// GetUser returns a profile
// GET /users/:email
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListArtworks returns one page of public artworks
// GET /artworks?page=&limit=&search=&category=
func (h *Handlers) ListArtworks(c *gin.Context) {
	page, ok := h.intQuery(c, "page")
	if !ok {
		return
	}
	limit, ok := h.intQuery(c, "limit")
	if !ok {
		return
	}

	result, err := h.artworks.ListPage(c.Request.Context(), listingFilter(c), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAllArtworks returns every public artwork
// GET /all-artworks?search=&category=
func (h *Handlers) ListAllArtworks(c *gin.Context) {
	artworks, err := h.artworks.ListAll(c.Request.Context(), listingFilter(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artworks)
}

// LatestArtworks returns the most recent public artworks
// GET /latest-artworks, GET /featured-artworks
func (h *Handlers) LatestArtworks(c *gin.Context) {
	artworks, err := h.artworks.Latest(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artworks)
}

// MyArtworks returns all of an artist's artworks
// GET /my-artworks/:email
func (h *Handlers) MyArtworks(c *gin.Context) {
	artworks, err := h.artworks.ListByArtist(c.Request.Context(), middleware.Identity(c), c.Param("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artworks)
}

// GetArtwork returns one artwork
// GET /artwork/:id
func (h *Handlers) GetArtwork(c *gin.Context) {
	artwork, err := h.artworks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artwork)
}

// CreateArtwork stores a new artwork
// POST /artworks
func (h *Handlers) CreateArtwork(c *gin.Context) {
	var req models.CreateArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	artwork, err := h.artworks.Create(c.Request.Context(), middleware.Identity(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"insertedId": artwork.ID.Hex(),
		"artwork":    artwork,
	})
}

// UpdateArtwork applies an owner edit
// PATCH /artwork/:id
func (h *Handlers) UpdateArtwork(c *gin.Context) {
	var req models.UpdateArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	artwork, err := h.artworks.Update(c.Request.Context(), middleware.Identity(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artwork)
}

// DeleteArtwork removes an artwork
// DELETE /artwork/:id
func (h *Handlers) DeleteArtwork(c *gin.Context) {
	id := c.Param("id")
	if err := h.artworks.Delete(c.Request.Context(), middleware.Identity(c), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Artwork deleted successfully",
		"deletedId": id,
	})
}

// ToggleLike likes or unlikes an artwork
// PATCH /artwork/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
	var req models.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	result, err := h.likes.Toggle(c.Request.Context(), middleware.Identity(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchArtworks matches public artworks against a term
// GET /artworks/search/:term
func (h *Handlers) SearchArtworks(c *gin.Context) {
	artworks, err := h.artworks.Search(c.Request.Context(), c.Param("term"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artworks)
}

// ArtworksByCategory lists public artworks of a category
// GET /artworks/category/:category
func (h *Handlers) ArtworksByCategory(c *gin.Context) {
	artworks, err := h.artworks.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artworks)
}

// TotalArtworks counts public artworks
// GET /stats/total-artworks
func (h *Handlers) TotalArtworks(c *gin.Context) {
	total, err := h.artworks.TotalPublic(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// CategoryStats counts public artworks per category
// GET /stats/by-category
func (h *Handlers) CategoryStats(c *gin.Context) {
	counts, err := h.artworks.CategoryCounts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// TopArtists ranks artists by likes
// GET /top-artists
func (h *Handlers) TopArtists(c *gin.Context) {
	artists, err := h.artworks.TopArtists(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artists)
}

// Categories lists categories in use
// GET /categories
func (h *Handlers) Categories(c *gin.Context) {
	categories, err := h.artworks.Categories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListFavorites returns a user's saved artworks
// GET /favorites/:email
func (h *Handlers) ListFavorites(c *gin.Context) {
	artworks, err := h.favorites.List(c.Request.Context(), middleware.Identity(c), c.Param("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artworks)
}

// FavoriteStatus reports whether a user saved an artwork
// GET /favorites/:email/:artworkId
func (h *Handlers) FavoriteStatus(c *gin.Context) {
	ok, err := h.favorites.IsFavorite(c.Request.Context(), c.Param("email"), c.Param("artworkId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isFavorite": ok})
}

// AddFavorite saves an artwork for the caller
// POST /favorites
func (h *Handlers) AddFavorite(c *gin.Context) {
	var req models.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	favorite, created, err := h.favorites.Add(c.Request.Context(), middleware.Identity(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{
			"message": "Artwork already in favorites",
			"created": false,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Added to favorites",
		"created":  true,
		"favorite": favorite,
	})
}

// RemoveFavorite deletes a saved artwork. The pair may be sent as a JSON
// body or as query parameters.
// DELETE /favorites
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	var req models.FavoriteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "Invalid request body")
			return
		}
	} else {
		req.UserEmail = c.Query("userEmail")
		req.ArtworkID = c.Query("artworkId")
	}

	if err := h.favorites.Remove(c.Request.Context(), middleware.Identity(c), &req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}

// UploadImage stores an image and returns its URL
// POST /uploads
func (h *Handlers) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		h.badRequest(c, "Multipart field 'image' is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.badRequest(c, "Image could not be read")
		return
	}
	defer file.Close()

	url, err := h.uploads.Upload(c.Request.Context(), middleware.Identity(c), file, fileHeader.Size)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func listingFilter(c *gin.Context) query.ArtworkFilter {
	return query.ArtworkFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
}

// intQuery parses an optional integer query parameter. It writes a 400 and
// returns false when the value is not a number.
func (h *Handlers) intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.badRequest(c, name+" must be a number")
		return 0, false
	}
	return n, true
}
