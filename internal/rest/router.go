package rest

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/artisans-echo/artwork-service/internal/auth"
	"github.com/artisans-echo/artwork-service/internal/middleware"
	"github.com/artisans-echo/artwork-service/internal/models"
)

// RouterOptions carries the HTTP policy knobs from the configuration
type RouterOptions struct {
	AuthRequired bool
	CORSOrigins  []string
	// TrustedProxies may set the client address through X-Forwarded-For.
	// With none, the rate limiter keys on the connection address.
	TrustedProxies []string
	Production     bool
}

// NewRouter builds the engine with the full route table.
func NewRouter(h *Handlers, verifier auth.Verifier, gate *middleware.StoreGate, limiter *middleware.RateLimiter, opts RouterOptions, logger *logrus.Logger) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.WithError(err).Warn("Invalid trusted proxies, forwarded headers are ignored")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(router, verifier, gate, opts.AuthRequired)
	return router
}

// RegisterRoutes mounts the artwork, favorite and user endpoints.
func (h *Handlers) RegisterRoutes(r gin.IRoutes, verifier auth.Verifier, gate *middleware.StoreGate, authRequired bool) {
	optional := middleware.OptionalAuth(verifier)
	protected := optional
	if authRequired {
		protected = middleware.RequireAuth(verifier)
	}

	emptyList := []interface{}{}
	emptyPage := &models.ArtworkPage{Artworks: []*models.Artwork{}, Page: 1}

	read := gate.Read
	write := gate.Require()

	// Users
	r.POST("/users", protected, write, h.CreateUser)
	r.GET("/users/:email", optional, write, h.GetUser)

	// Listings
	r.GET("/artworks", optional, read(emptyPage), h.ListArtworks)
	r.GET("/all-artworks", optional, read(emptyList), h.ListAllArtworks)
	r.GET("/latest-artworks", optional, read(emptyList), h.LatestArtworks)
	r.GET("/featured-artworks", optional, read(emptyList), h.LatestArtworks)
	r.GET("/my-artworks/:email", protected, read(emptyList), h.MyArtworks)
	r.GET("/artworks/search/:term", optional, read(emptyList), h.SearchArtworks)
	r.GET("/artworks/category/:category", optional, read(emptyList), h.ArtworksByCategory)

	// Single artwork
	r.GET("/artwork/:id", optional, write, h.GetArtwork)
	r.POST("/artworks", protected, write, h.CreateArtwork)
	r.PATCH("/artwork/:id", protected, write, h.UpdateArtwork)
	r.DELETE("/artwork/:id", protected, write, h.DeleteArtwork)
	r.PATCH("/artwork/:id/like", protected, write, h.ToggleLike)

	// Aggregates
	r.GET("/stats/total-artworks", optional, read(gin.H{"total": 0}), h.TotalArtworks)
	r.GET("/stats/by-category", optional, read(emptyList), h.CategoryStats)
	r.GET("/top-artists", optional, read(emptyList), h.TopArtists)
	r.GET("/categories", optional, read(emptyList), h.Categories)

	// Favorites
	r.GET("/favorites/:email", optional, read(emptyList), h.ListFavorites)
	r.GET("/favorites/:email/:artworkId", optional, read(gin.H{"isFavorite": false}), h.FavoriteStatus)
	r.POST("/favorites", protected, write, h.AddFavorite)
	r.DELETE("/favorites", protected, write, h.RemoveFavorite)

	// Uploads
	r.POST("/uploads", protected, h.uploadsEnabled, h.UploadImage)
}

func (h *Handlers) uploadsEnabled(c *gin.Context) {
	if !h.uploads.Enabled() {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Image uploads are not enabled"})
		return
	}
	c.Next()
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
