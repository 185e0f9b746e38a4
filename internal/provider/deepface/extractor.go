// Package deepface extracts face descriptors through a DeepFace REST service.
package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// noFaceMessage is how DeepFace reports enforce_detection failures.
const noFaceMessage = "could not be detected"

type Extractor struct {
	client *Client
	logger *slog.Logger
}

func NewExtractor(config Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		client: NewClient(config),
		logger: logger.With(slog.String("component", "deepface")),
	}
}

// Init succeeds once the service answers its root endpoint.
func (e *Extractor) Init(ctx context.Context) error {
	if err := e.client.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDeepFaceUnavailable, err)
	}
	return nil
}

func (e *Extractor) Extract(ctx context.Context, image []byte) ([]domain.Detection, error) {
	resp, err := e.client.Represent(ctx, dataURI(image))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && strings.Contains(statusErr.Body, noFaceMessage) {
			return []domain.Detection{}, nil
		}
		return nil, fmt.Errorf("represent: %w", err)
	}

	detections := make([]domain.Detection, 0, len(resp.Results))
	for _, result := range resp.Results {
		box := domain.BoundingBox{
			X:      float64(result.FacialArea.X),
			Y:      float64(result.FacialArea.Y),
			Width:  float64(result.FacialArea.W),
			Height: float64(result.FacialArea.H),
		}

		confidence := estimateConfidence(box.Area())
		if result.FaceConfidence != nil {
			confidence = clamp01(*result.FaceConfidence)
		}

		detections = append(detections, domain.Detection{
			Descriptor:  domain.Descriptor(result.Embedding),
			BoundingBox: box,
			Confidence:  confidence,
		})
	}

	e.logger.Debug("faces extracted", slog.Int("count", len(detections)))
	return detections, nil
}

func dataURI(image []byte) string {
	return "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// estimateConfidence stands in for detectors that report no score.
// Larger faces are more likely to be accurately detected.
func estimateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

var (
	_ provider.Extractor   = (*Extractor)(nil)
	_ provider.Initializer = (*Extractor)(nil)
)
