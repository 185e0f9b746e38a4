package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const Version = "0.1.0"

// Readiness reports whether the extractor finished initializing
type Readiness interface {
	Ready() bool
}

// EnrollmentCounter reports how many identities are enrolled
type EnrollmentCounter interface {
	EnrolledCount(ctx context.Context) (int, error)
}

type HealthHandler struct {
	readiness Readiness
	counter   EnrollmentCounter
}

func NewHealthHandler(readiness Readiness, counter EnrollmentCounter) *HealthHandler {
	return &HealthHandler{
		readiness: readiness,
		counter:   counter,
	}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Enrolled *int   `json:"enrolled,omitempty"`
	Error    string `json:"error,omitempty"`
}

type RootResponse struct {
	Message string `json:"message"`
}

func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(RootResponse{Message: "Face Recognition API Running"})
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// Ready answers 503 until the extractor is loaded and the store answers.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.readiness != nil && !h.readiness.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "loading",
		})
	}

	if h.counter == nil {
		return c.JSON(HealthResponse{Status: "ready"})
	}

	count, err := h.counter.EnrolledCount(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "unavailable",
			Error:  "embedding store unreachable",
		})
	}

	return c.JSON(HealthResponse{
		Status:   "ready",
		Enrolled: &count,
	})
}
