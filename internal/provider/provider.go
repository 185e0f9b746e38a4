package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Extractor turns an encoded still image into zero or more face detections,
// each carrying the descriptor of that face.
type Extractor interface {
	// Extract returns every face found, in the extractor's own order.
	// An image without faces yields an empty slice and no error.
	Extract(ctx context.Context, image []byte) ([]domain.Detection, error)
}

// Initializer is implemented by extractors with an expensive one-time setup
// (model load, remote warm-up). Runtime calls it before serving.
type Initializer interface {
	Init(ctx context.Context) error
}

// Closer is implemented by extractors holding native resources.
type Closer interface {
	Close() error
}
