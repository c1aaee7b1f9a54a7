package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/artisans-echo/artwork-service/internal/access"
	"github.com/artisans-echo/artwork-service/internal/auth"
	"github.com/artisans-echo/artwork-service/internal/breaker"
	"github.com/artisans-echo/artwork-service/internal/cache"
	"github.com/artisans-echo/artwork-service/internal/config"
	"github.com/artisans-echo/artwork-service/internal/database"
	"github.com/artisans-echo/artwork-service/internal/events"
	"github.com/artisans-echo/artwork-service/internal/logger"
	"github.com/artisans-echo/artwork-service/internal/metrics"
	"github.com/artisans-echo/artwork-service/internal/middleware"
	"github.com/artisans-echo/artwork-service/internal/query"
	"github.com/artisans-echo/artwork-service/internal/repository"
	"github.com/artisans-echo/artwork-service/internal/rest"
	"github.com/artisans-echo/artwork-service/internal/service"
	"github.com/artisans-echo/artwork-service/internal/storage"
	"github.com/artisans-echo/artwork-service/internal/validation"
)

const rateLimitIdle = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)

	// The client is created right away; the server starts accepting
	// requests before the deployment answers.
	mongodb, err := database.NewMongoDB(cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		log.Fatalf("Failed to create MongoDB client: %v", err)
	}

	// Initialize repositories
	builder := query.NewBuilder(cfg.DefaultPageSize, cfg.MaxPageSize, cfg.MaxSearchLength)
	artworkRepo := repository.NewArtworkRepository(mongodb.Database, builder, cfg.QueryTimeout)
	favoriteRepo := repository.NewFavoriteRepository(mongodb.Database, cfg.QueryTimeout)
	userRepo := repository.NewUserRepository(mongodb.Database, cfg.QueryTimeout)

	// Initialize Redis cache
	var redisCache *cache.RedisCache
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			cfg.RedisCacheTTL,
			cfg.RedisMaxRetries,
			cfg.RedisPoolSize,
			cfg.RedisMinIdleConns,
			log,
			true,
		)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Info("Redis connected successfully")
	} else {
		log.Warn("Redis caching is disabled")
		redisCache, _ = cache.NewRedisCache("", "", 0, 0, 0, 0, 0, log, false)
	}

	// Initialize Kafka producer
	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		log.WithFields(logrus.Fields{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaTopic,
			"retries": cfg.KafkaRetries,
		}).Info("Initializing Kafka producer...")
		publisher = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaRetries, cfg.BreakerMaxReq, cfg.BreakerTimeout, log)
	} else {
		log.Warn("Kafka brokers not configured, artwork events are disabled")
	}

	// Image references and uploads
	images := validation.NewImageURLValidator(cfg.AllowedImageHosts)
	imageStore := newImageStore(cfg, images, log)

	// Initialize services
	guard := access.NewGuard()
	artworkService := service.NewArtworkService(
		artworkRepo,
		builder,
		guard,
		images,
		redisCache,
		publisher,
		cfg.FeaturedLimit,
		cfg.TopArtistsLimit,
		log,
	)
	likeService := service.NewLikeService(artworkRepo, guard, redisCache, publisher, log)
	favoriteService := service.NewFavoriteService(favoriteRepo, artworkRepo, guard, publisher, log)
	userService := service.NewUserService(userRepo, guard, publisher, log)
	uploadService := service.NewUploadService(
		imageStore,
		breaker.New("image-storage", cfg.BreakerMaxReq, cfg.BreakerTimeout, log),
		cfg.MaxUploadSize,
		log,
	)

	// HTTP layer
	handlers := rest.NewHandlers(
		artworkService,
		likeService,
		favoriteService,
		userService,
		uploadService,
		mongodb,
		cfg.MaxUploadSize,
		cfg.IsProduction(),
		log,
	)
	limiter := middleware.NewRateLimiter(cfg.RatePerMinute, cfg.RateBurst, rateLimitIdle)
	router := rest.NewRouter(
		handlers,
		auth.NewJWTVerifier(cfg.JWTSecret),
		middleware.NewStoreGate(mongodb, cfg.DegradedReads),
		limiter,
		rest.RouterOptions{
			AuthRequired:   cfg.AuthRequired,
			CORSOrigins:    cfg.CORSOrigins,
			TrustedProxies: cfg.TrustedProxies,
			Production:     cfg.IsProduction(),
		},
		log,
	)

	// Connect to MongoDB in the background and prepare indexes
	readyCtx, cancelReady := context.WithCancel(context.Background())
	go func() {
		err := mongodb.WaitReady(readyCtx, cfg.ConnectBackoff, cfg.ConnectMaxWait, func(ctx context.Context) error {
			if err := artworkRepo.EnsureIndexes(ctx); err != nil {
				return err
			}
			if err := favoriteRepo.EnsureIndexes(ctx); err != nil {
				return err
			}
			return userRepo.EnsureIndexes(ctx)
		})
		if err != nil {
			log.WithError(err).Info("Stopped waiting for MongoDB")
			return
		}
		metrics.SetStoreReady(true)
	}()

	httpAddr := fmt.Sprintf("%s:%s", cfg.ServiceHost, cfg.ServicePort)
	httpServer := &http.Server{
		Addr:         httpAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("address", httpAddr).Info("Artwork service REST API starting...")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down artwork service...")
	cancelReady()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
	}
	limiter.Close()

	if err := publisher.Close(); err != nil {
		log.Errorf("Error closing Kafka producer: %v", err)
	}
	if err := redisCache.Close(); err != nil {
		log.Errorf("Error closing Redis: %v", err)
	}
	metrics.SetStoreReady(false)
	if err := mongodb.Close(shutdownCtx); err != nil {
		log.Errorf("Error closing MongoDB: %v", err)
	}

	log.Info("Artwork service stopped successfully")
}

// newImageStore returns the configured upload backend, or nil when uploads
// are disabled or the backend could not be reached.
func newImageStore(cfg *config.Config, images *validation.ImageURLValidator, log *logrus.Logger) storage.ImageStore {
	switch cfg.ImageStorage {
	case config.ImageStorageMinio:
		var minioStorage *storage.MinioStorage
		var minioErr error

		// Try to connect to MinIO with retries
		for i := 0; i < 3; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			minioStorage, minioErr = storage.NewMinioStorage(ctx, cfg.MinioEndpoint, cfg.MinioPublicURL, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, log)
			cancel()
			if minioErr == nil {
				break
			}
			log.Warnf("Failed to initialize MinIO storage (attempt %d/3): %v", i+1, minioErr)
			if i < 2 {
				time.Sleep(5 * time.Second)
			}
		}
		if minioErr != nil {
			log.Warnf("Failed to initialize MinIO storage after 3 attempts: %v", minioErr)
			log.Warn("Image uploads will be disabled")
			return nil
		}

		if u, err := url.Parse(cfg.MinioPublicURL); err == nil {
			images.AllowHost(u.Host)
		}
		log.Info("MinIO storage initialized successfully")
		return minioStorage

	case config.ImageStorageCloudinary:
		cloudinaryStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			log.Warnf("Failed to initialize Cloudinary storage: %v", err)
			log.Warn("Image uploads will be disabled")
			return nil
		}
		log.Info("Cloudinary storage initialized successfully")
		return cloudinaryStorage

	default:
		log.Info("Image uploads are disabled")
		return nil
	}
}
