package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/store"
)

const DefaultThreshold = 0.4

// MatchingService enrolls identities and recognizes faces against every
// enrollment in the store. It holds no mutable state of its own.
type MatchingService struct {
	extractor     provider.Extractor
	store         store.EmbeddingStore
	logger        *slog.Logger
	auditor       audit.Logger
	threshold     float64
	minConfidence float64
}

func NewMatchingService(extractor provider.Extractor, embeddings store.EmbeddingStore, logger *slog.Logger) *MatchingService {
	return &MatchingService{
		extractor: extractor,
		store:     embeddings,
		logger:    logger.With(slog.String("component", "matching")),
		auditor:   &audit.NoOpLogger{},
		threshold: DefaultThreshold,
	}
}

func (s *MatchingService) WithThreshold(threshold float64) *MatchingService {
	s.threshold = threshold
	return s
}

// WithMinConfidence discards detections scoring below min before a face is
// chosen. 0 disables the filter.
func (s *MatchingService) WithMinConfidence(min float64) *MatchingService {
	s.minConfidence = min
	return s
}

// WithAuditor records every registration and recognition outcome.
func (s *MatchingService) WithAuditor(auditor audit.Logger) *MatchingService {
	s.auditor = auditor
	return s
}

func (s *MatchingService) Threshold() float64 {
	return s.threshold
}

// Register enrolls the largest face in image under key, replacing any
// previous enrollment, and returns the detection that was stored.
func (s *MatchingService) Register(ctx context.Context, key string, image []byte) (*domain.Detection, error) {
	detection, err := s.detect(ctx, image)
	if err == nil {
		err = s.store.Put(ctx, key, detection.Descriptor)
	}
	if err != nil {
		s.audit(ctx, audit.Event{
			EventType:   audit.EventFaceRegistered,
			IdentityKey: key,
			Error:       err.Error(),
		})
		return nil, fmt.Errorf("register %s: %w", key, err)
	}
	s.audit(ctx, audit.Event{
		EventType:   audit.EventFaceRegistered,
		IdentityKey: key,
		Success:     true,
	})

	s.logger.Info("face registered",
		slog.String("identity_key", key),
		slog.Float64("confidence", detection.Confidence),
	)
	return detection, nil
}

// Recognize compares the largest face in image with every enrollment. A
// result without IdentityKey means nobody reached the threshold; its Score
// is still the best one seen.
func (s *MatchingService) Recognize(ctx context.Context, image []byte) (*domain.MatchResult, error) {
	detection, err := s.detect(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	candidates, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	result, err := matcher.BestMatch(detection.Descriptor, candidates, s.threshold)
	if err != nil {
		s.logger.Error("descriptor comparison failed",
			slog.Int("candidates", len(candidates)),
			slog.Int("query_dimension", detection.Descriptor.Dimension()),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("recognize: %w", err)
	}
	result.DetectionConfidence = detection.Confidence

	s.logger.Info("face recognized",
		slog.Bool("match", result.IsMatch),
		slog.String("identity_key", result.IdentityKey),
		slog.Float64("similarity", result.Score),
		slog.Int("candidates", len(candidates)),
	)

	event := audit.Event{
		EventType:   audit.EventFaceUnrecognized,
		IdentityKey: result.IdentityKey,
		Success:     true,
		Similarity:  &result.Score,
	}
	if result.IsMatch {
		event.EventType = audit.EventFaceRecognized
	}
	s.audit(ctx, event)

	return &result, nil
}

// audit never fails the operation it records
func (s *MatchingService) audit(ctx context.Context, event audit.Event) {
	if err := s.auditor.Log(ctx, event); err != nil {
		s.logger.Warn("audit event dropped",
			slog.String("event_type", string(event.EventType)),
			slog.Any("error", err),
		)
	}
}

// Enrollment returns the stored descriptor for key.
func (s *MatchingService) Enrollment(ctx context.Context, key string) (domain.Descriptor, error) {
	return s.store.Get(ctx, key)
}

func (s *MatchingService) EnrolledCount(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *MatchingService) detect(ctx context.Context, image []byte) (*domain.Detection, error) {
	detections, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	detection, ok := selectLargest(detections, s.minConfidence)
	if !ok {
		return nil, domain.ErrNoFaceDetected
	}
	if len(detections) > 1 {
		s.logger.Warn("multiple faces detected, using the largest",
			slog.Int("faces", len(detections)),
			slog.Float64("area", detection.BoundingBox.Area()),
		)
	}
	return &detection, nil
}

// selectLargest picks the detection with the largest bounding box among
// those at or above minConfidence. On equal areas the earlier one wins.
func selectLargest(detections []domain.Detection, minConfidence float64) (domain.Detection, bool) {
	var (
		best  domain.Detection
		found bool
	)
	for _, d := range detections {
		if d.Confidence < minConfidence {
			continue
		}
		if !found || d.BoundingBox.Area() > best.BoundingBox.Area() {
			best, found = d, true
		}
	}
	return best, found
}
