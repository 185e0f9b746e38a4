package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	ProviderDeepFace = "deepface"
	ProviderMock     = "mock"
	ProviderDlib     = "dlib"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"8001"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Storage
	StoreBackend   string `envconfig:"STORE_BACKEND" default:"file"`
	DataDir        string `envconfig:"DATA_DIR" default:"data"`
	EmbeddingsDir  string `envconfig:"EMBEDDINGS_DIR"`
	FacesDir       string `envconfig:"FACES_DIR"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	AutoMigrate    bool   `envconfig:"AUTO_MIGRATE" default:"true"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	RedisNamespace string `envconfig:"REDIS_NAMESPACE" default:"facematch:enrollments"`

	// Provider
	ProviderType     string        `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL      string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string        `envconfig:"DEEPFACE_MODEL" default:"Facenet512"`
	DeepFaceDetector string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceTimeout  time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	ModelsDir        string        `envconfig:"MODELS_DIR" default:"models"`
	// DescriptorDim of 0 means the provider's native size.
	DescriptorDim int `envconfig:"DESCRIPTOR_DIM" default:"0"`

	// Matching
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.4"`
	MinFaceConfidence   float64 `envconfig:"MIN_FACE_CONFIDENCE" default:"0"`

	// Uploads
	MaxFileSize    int64 `envconfig:"MAX_FILE_SIZE" default:"5242880"`
	MinImageSide   int   `envconfig:"MIN_IMAGE_SIDE" default:"50"`
	MaxImagePixels int64 `envconfig:"MAX_IMAGE_PIXELS" default:"40000000"`
	ArchiveMaxSide uint  `envconfig:"ARCHIVE_MAX_SIDE" default:"640"`

	// Security
	APIKey          string        `envconfig:"API_KEY"`
	AllowedOrigins  string        `envconfig:"ALLOWED_ORIGINS" default:"*"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.EmbeddingsDir == "" {
		cfg.EmbeddingsDir = filepath.Join(cfg.DataDir, "embeddings")
	}
	if cfg.FacesDir == "" {
		cfg.FacesDir = filepath.Join(cfg.DataDir, "faces")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1], got %v", c.SimilarityThreshold))
	}
	if c.MinFaceConfidence < 0 || c.MinFaceConfidence > 1 {
		errs = append(errs, fmt.Errorf("MIN_FACE_CONFIDENCE must be in [0, 1], got %v", c.MinFaceConfidence))
	}
	if c.DescriptorDim < 0 {
		errs = append(errs, fmt.Errorf("DESCRIPTOR_DIM must not be negative"))
	}

	switch c.StoreBackend {
	case StoreFile, StoreMemory, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.ProviderType {
	case ProviderDeepFace, ProviderMock, ProviderDlib:
	default:
		errs = append(errs, fmt.Errorf("unknown PROVIDER_TYPE %q", c.ProviderType))
	}

	if c.RateLimitMax < 0 || (c.RateLimitMax > 0 && c.RateLimitWindow <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_MAX is set"))
	}

	return errors.Join(errs...)
}

// Dimension is the descriptor size stores enforce.
func (c *Config) Dimension() int {
	if c.DescriptorDim > 0 {
		return c.DescriptorDim
	}
	switch c.ProviderType {
	case ProviderDlib:
		return 128
	default:
		return 512
	}
}

// Origins splits ALLOWED_ORIGINS into the comma form fiber's CORS expects.
func (c *Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return "*"
	}
	return strings.Join(cleaned, ",")
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
