package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Service configuration constants
const (
	DefaultPageSize         = 12
	DefaultMaxPageSize      = 100
	DefaultFeaturedLimit    = 6
	DefaultTopArtistsLimit  = 4
	DefaultMaxSearchLength  = 100
	DefaultQueryTimeout     = 5 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultConnectBackoff   = 3 * time.Second
	DefaultConnectMaxWait   = time.Minute
	DefaultRatePerMinute    = 120
	DefaultRateBurst        = 40
	DefaultMaxUploadSize    = 10 * 1024 * 1024 // 10MB
	DefaultBreakerMaxReq    = 3
	DefaultBreakerTimeout   = 30 * time.Second
	DefaultRedisCacheTTL    = 2 * time.Minute
	DefaultRedisMaxRetries  = 3
	DefaultRedisPoolSize    = 10
	DefaultRedisMinIdleConn = 2
)

// Image storage backends
const (
	ImageStorageNone       = "none"
	ImageStorageMinio      = "minio"
	ImageStorageCloudinary = "cloudinary"
)

type Config struct {
	ServiceHost     string
	ServicePort     string
	Environment     string
	LogLevel        string
	MongoURI        string
	MongoDatabase   string
	JWTSecret       string
	AuthRequired    bool
	CORSOrigins     []string
	TrustedProxies  []string
	DegradedReads   bool
	DefaultPageSize int
	MaxPageSize     int
	FeaturedLimit   int
	TopArtistsLimit int
	MaxSearchLength int
	QueryTimeout    time.Duration
	ShutdownTimeout time.Duration
	ConnectBackoff  time.Duration
	ConnectMaxWait  time.Duration
	// Rate limiting
	RatePerMinute int
	RateBurst     int
	// Image validation / uploads
	AllowedImageHosts []string
	ImageStorage      string
	MaxUploadSize     int64
	// MinIO
	MinioEndpoint  string
	MinioPublicURL string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	// Cloudinary
	CloudinaryURL    string
	CloudinaryFolder string
	// Redis
	RedisEnabled      bool
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisCacheTTL     time.Duration
	RedisMaxRetries   int
	RedisPoolSize     int
	RedisMinIdleConns int
	// Kafka
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaRetries   int
	BreakerMaxReq  uint32
	BreakerTimeout time.Duration
}

func Load() (*Config, error) {
	// A missing .env file is fine, the process environment still applies.
	_ = godotenv.Load()

	mongoURI, err := mongoURIFromEnv()
	if err != nil {
		return nil, err
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	authRequired := getEnvBool("AUTH_REQUIRED", true)
	if authRequired && jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required when AUTH_REQUIRED is enabled")
	}

	cfg := &Config{
		ServiceHost:       getEnv("SERVICE_HOST", "0.0.0.0"),
		ServicePort:       getEnv("PORT", "3000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MongoURI:          mongoURI,
		MongoDatabase:     getEnv("MONGO_DATABASE", "artisans_echo_db"),
		JWTSecret:         jwtSecret,
		AuthRequired:      authRequired,
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"*"}),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES", nil),
		DegradedReads:     getEnvBool("DEGRADED_READS", true),
		DefaultPageSize:   getEnvInt("DEFAULT_PAGE_SIZE", DefaultPageSize),
		MaxPageSize:       getEnvInt("MAX_PAGE_SIZE", DefaultMaxPageSize),
		FeaturedLimit:     getEnvInt("FEATURED_LIMIT", DefaultFeaturedLimit),
		TopArtistsLimit:   getEnvInt("TOP_ARTISTS_LIMIT", DefaultTopArtistsLimit),
		MaxSearchLength:   getEnvInt("MAX_SEARCH_LENGTH", DefaultMaxSearchLength),
		QueryTimeout:      getEnvDuration("QUERY_TIMEOUT", DefaultQueryTimeout),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
		ConnectBackoff:    getEnvDuration("MONGO_CONNECT_BACKOFF", DefaultConnectBackoff),
		ConnectMaxWait:    getEnvDuration("MONGO_CONNECT_MAX_BACKOFF", DefaultConnectMaxWait),
		RatePerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", DefaultRatePerMinute),
		RateBurst:         getEnvInt("RATE_LIMIT_BURST", DefaultRateBurst),
		AllowedImageHosts: getEnvList("ALLOWED_IMAGE_HOSTS", []string{"i.ibb.co", "res.cloudinary.com", "images.unsplash.com"}),
		ImageStorage:      strings.ToLower(getEnv("IMAGE_STORAGE", ImageStorageNone)),
		MaxUploadSize:     getEnvInt64("MAX_UPLOAD_SIZE", DefaultMaxUploadSize),
		MinioEndpoint:     getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioPublicURL:    getEnv("MINIO_PUBLIC_URL", "http://localhost:9000"),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getEnv("MINIO_BUCKET", "artworks"),
		MinioUseSSL:       getEnvBool("MINIO_USE_SSL", false),
		CloudinaryURL:     getEnv("CLOUDINARY_URL", ""),
		CloudinaryFolder:  getEnv("CLOUDINARY_FOLDER", "artisans-echo"),
		RedisEnabled:      getEnvBool("REDIS_ENABLED", false),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisCacheTTL:     getEnvDuration("REDIS_CACHE_TTL", DefaultRedisCacheTTL),
		RedisMaxRetries:   getEnvInt("REDIS_MAX_RETRIES", DefaultRedisMaxRetries),
		RedisPoolSize:     getEnvInt("REDIS_POOL_SIZE", DefaultRedisPoolSize),
		RedisMinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", DefaultRedisMinIdleConn),
		KafkaBrokers:      getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "artwork-events"),
		KafkaRetries:      getEnvInt("KAFKA_RETRIES", 3),
		BreakerMaxReq:     uint32(getEnvInt("CIRCUIT_BREAKER_MAX_REQ", DefaultBreakerMaxReq)),
		BreakerTimeout:    getEnvDuration("CIRCUIT_BREAKER_TIMEOUT", DefaultBreakerTimeout),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("MAX_PAGE_SIZE (%d) must not be smaller than DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	switch c.ImageStorage {
	case ImageStorageNone:
	case ImageStorageMinio:
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for IMAGE_STORAGE=minio")
		}
	case ImageStorageCloudinary:
		if c.CloudinaryURL == "" {
			return errors.New("CLOUDINARY_URL is required for IMAGE_STORAGE=cloudinary")
		}
	default:
		return fmt.Errorf("unknown IMAGE_STORAGE %q", c.ImageStorage)
	}
	return nil
}

// IsProduction reports whether error details should be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// mongoURIFromEnv prefers MONGO_URI and falls back to an Atlas URI built
// from DB_USER / DB_PASS / MONGO_CLUSTER.
func mongoURIFromEnv() (string, error) {
	if uri := getEnv("MONGO_URI", ""); uri != "" {
		return uri, nil
	}

	user := getEnv("DB_USER", "")
	pass := getEnv("DB_PASS", "")
	if user == "" || pass == "" {
		return "", errors.New("MONGO_URI or DB_USER and DB_PASS are required environment variables")
	}

	cluster := getEnv("MONGO_CLUSTER", "cluster0.sqaw1iw.mongodb.net")
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?appName=Cluster0",
		url.QueryEscape(user), url.QueryEscape(pass), cluster), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
