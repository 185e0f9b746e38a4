// Package face wires configuration into the concrete extractor, store and
// matching service used by the binaries.
package face

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/faceimage"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/dlib"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facematch/internal/service"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store/filestore"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store/memstore"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store/pgstore"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store/redisstore"
)

// NewExtractor creates the extractor selected by PROVIDER_TYPE
func NewExtractor(cfg *config.Config, logger *slog.Logger) (provider.Extractor, error) {
	switch cfg.ProviderType {
	case config.ProviderDeepFace, "":
		dfConfig := deepface.DefaultConfig()
		if cfg.DeepFaceURL != "" {
			dfConfig.BaseURL = cfg.DeepFaceURL
		}
		if cfg.DeepFaceModel != "" {
			dfConfig.Model = cfg.DeepFaceModel
		}
		if cfg.DeepFaceDetector != "" {
			dfConfig.Detector = cfg.DeepFaceDetector
		}
		if cfg.DeepFaceTimeout > 0 {
			dfConfig.Timeout = cfg.DeepFaceTimeout
		}
		return deepface.NewExtractor(dfConfig, logger), nil

	case config.ProviderMock:
		return mock.New(cfg.Dimension()), nil

	case config.ProviderDlib:
		return dlib.NewExtractor(cfg.ModelsDir, logger), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, config.ProviderDeepFace, config.ProviderMock, config.ProviderDlib)
	}
}

// NewStore opens the backend selected by STORE_BACKEND. The returned func
// releases its connections and is never nil.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.EmbeddingStore, func(), error) {
	dim := cfg.Dimension()
	noop := func() {}

	switch cfg.StoreBackend {
	case config.StoreFile, "":
		return filestore.New(cfg.EmbeddingsDir, dim, logger), noop, nil

	case config.StoreMemory:
		return memstore.New(dim), noop, nil

	case config.StorePostgres:
		if cfg.AutoMigrate {
			if err := database.MigrateUp(ctx, cfg.DatabaseURL, logger); err != nil {
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		return pgstore.New(pool, dim, logger), pool.Close, nil

	case config.StoreRedis:
		client, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Close() }
		return redisstore.New(redisstore.NewClientHash(client), cfg.RedisNamespace, dim, logger), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

// Components is everything a binary needs to serve matching requests.
type Components struct {
	Runtime *provider.Runtime
	Store   store.EmbeddingStore
	Service *service.MatchingService
	Archive *faceimage.Archive
	Limits  faceimage.Limits

	closeStore func()
}

// Build creates all components. The runtime is returned uninitialized;
// callers decide whether to block on Init or retry in the background.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	extractor, err := NewExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}

	embeddings, closeStore, err := NewStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	runtime := provider.NewRuntime(extractor, logger)
	svc := service.NewMatchingService(runtime, embeddings, logger).
		WithThreshold(cfg.SimilarityThreshold).
		WithMinConfidence(cfg.MinFaceConfidence).
		WithAuditor(audit.NewSlogLogger(logger, cfg.ProviderType))

	return &Components{
		Runtime:    runtime,
		Store:      embeddings,
		Service:    svc,
		Archive:    faceimage.NewArchive(cfg.FacesDir, cfg.ArchiveMaxSide, logger),
		Limits:     faceimage.Limits{MaxBytes: cfg.MaxFileSize, MinSide: cfg.MinImageSide, MaxPixels: cfg.MaxImagePixels},
		closeStore: closeStore,
	}, nil
}

func (c *Components) Close() error {
	c.closeStore()
	return c.Runtime.Close()
}
