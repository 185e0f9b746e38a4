package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventFaceRegistered   EventType = "FACE_REGISTERED"
	EventFaceRecognized   EventType = "FACE_RECOGNIZED"
	EventFaceUnrecognized EventType = "FACE_UNRECOGNIZED"
)

// Event records one use of biometric data
type Event struct {
	ID          uuid.UUID         `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	EventType   EventType         `json:"event_type"`
	IdentityKey string            `json:"identity_key,omitempty"`
	Provider    string            `json:"provider"`
	Success     bool              `json:"success"`
	Similarity  *float64          `json:"similarity,omitempty"`
	Error       string            `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// Origin describes who triggered an operation
type Origin struct {
	RequestID string
	IPAddress string
	UserAgent string
}

type originKey struct{}

// WithOrigin attaches o to ctx so events logged under it carry the caller.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

func OriginFrom(ctx context.Context) (Origin, bool) {
	o, ok := ctx.Value(originKey{}).(Origin)
	return o, ok
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger   *slog.Logger
	provider string
}

// NewSlogLogger creates an audit logger stamping every event with provider
func NewSlogLogger(logger *slog.Logger, provider string) *SlogLogger {
	return &SlogLogger{
		logger:   logger.With("component", "audit"),
		provider: provider,
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Provider == "" {
		event.Provider = l.provider
	}
	if o, ok := OriginFrom(ctx); ok {
		if event.RequestID == "" {
			event.RequestID = o.RequestID
		}
		if event.IPAddress == "" {
			event.IPAddress = o.IPAddress
		}
		if event.UserAgent == "" {
			event.UserAgent = o.UserAgent
		}
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("identity_key", event.IdentityKey),
		slog.String("provider", event.Provider),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
