package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/faceimage"
)

const (
	formFieldEmployeeID = "employee_id"
	formFieldFile       = "file"
)

// FaceService is what the face endpoints need from the matching layer
type FaceService interface {
	Register(ctx context.Context, key string, image []byte) (*domain.Detection, error)
	Recognize(ctx context.Context, image []byte) (*domain.MatchResult, error)
	Enrollment(ctx context.Context, key string) (domain.Descriptor, error)
}

// PhotoArchive keeps a copy of each registration photo
type PhotoArchive interface {
	SaveBestEffort(key string, data []byte)
}

type FaceHandler struct {
	service FaceService
	archive PhotoArchive
	limits  faceimage.Limits
}

// NewFaceHandler creates a FaceHandler. archive may be nil.
func NewFaceHandler(service FaceService, archive PhotoArchive, limits faceimage.Limits) *FaceHandler {
	return &FaceHandler{
		service: service,
		archive: archive,
		limits:  limits,
	}
}

type RegisterResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	EmployeeID string     `json:"employee_id"`
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

type RecognizeResponse struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	EmployeeID string  `json:"employee_id,omitempty"`
	NIK        string  `json:"nik,omitempty"`
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"confidence"`
}

type EnrollmentResponse struct {
	EmployeeID string `json:"employee_id"`
	Registered bool   `json:"registered"`
	Dimension  int    `json:"dimension"`
}

// Register POST /api/face/register - enroll or replace an employee's face
func (h *FaceHandler) Register(c *fiber.Ctx) error {
	key, err := identityKey(c.FormValue(formFieldEmployeeID))
	if err != nil {
		return err
	}

	imageBytes, err := h.readImage(c)
	if err != nil {
		return fmt.Errorf("register face: %w", err)
	}

	detection, err := h.service.Register(requestContext(c), key, imageBytes)
	if err != nil {
		return err
	}

	if h.archive != nil {
		h.archive.SaveBestEffort(key, imageBytes)
	}

	return c.JSON(RegisterResponse{
		Success:    true,
		Message:    "Face registered",
		EmployeeID: key,
		BBox:       detection.BoundingBox.Corners(),
		Confidence: detection.Confidence,
	})
}

// Recognize POST /recognize - identify the face in the uploaded still
func (h *FaceHandler) Recognize(c *fiber.Ctx) error {
	imageBytes, err := h.readImage(c)
	if err != nil {
		return fmt.Errorf("recognize face: %w", err)
	}

	result, err := h.service.Recognize(requestContext(c), imageBytes)
	if errors.Is(err, domain.ErrNoFaceDetected) {
		return c.JSON(RecognizeResponse{
			Success: false,
			Message: domain.ErrNoFaceDetected.Message,
		})
	}
	if err != nil {
		return err
	}

	if !result.IsMatch {
		return c.JSON(RecognizeResponse{
			Success:    false,
			Message:    "Face not recognized",
			Similarity: result.Score,
			Confidence: result.DetectionConfidence,
		})
	}

	return c.JSON(RecognizeResponse{
		Success:    true,
		Message:    "Face recognized",
		EmployeeID: result.IdentityKey,
		NIK:        result.IdentityKey,
		Similarity: result.Score,
		Confidence: result.DetectionConfidence,
	})
}

// Get GET /api/face/:employee_id - enrollment status for one employee
func (h *FaceHandler) Get(c *fiber.Ctx) error {
	key, err := identityKey(c.Params(formFieldEmployeeID))
	if err != nil {
		return err
	}

	descriptor, err := h.service.Enrollment(c.UserContext(), key)
	if err != nil {
		return err
	}

	return c.JSON(EnrollmentResponse{
		EmployeeID: key,
		Registered: true,
		Dimension:  descriptor.Dimension(),
	})
}

// requestContext tags the request context with its origin for the audit trail
func requestContext(c *fiber.Ctx) context.Context {
	return audit.WithOrigin(c.UserContext(), audit.Origin{
		RequestID: middleware.GetRequestID(c),
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
}

// identityKey trims raw and rejects values that cannot name an enrollment
func identityKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", domain.ErrValidationFailed.WithError(errors.New("employee_id is required"))
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." || strings.ContainsRune(key, 0) {
		return "", domain.ErrValidationFailed.WithError(fmt.Errorf("employee_id %q contains invalid characters", key))
	}
	return key, nil
}

// readImage pulls the uploaded still from the form and validates it
func (h *FaceHandler) readImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile(formFieldFile)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("%s is required: %w", formFieldFile, err))
	}

	if h.limits.MaxBytes > 0 && file.Size > h.limits.MaxBytes {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image is %d bytes, limit %d", file.Size, h.limits.MaxBytes))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	if _, err := h.limits.Validate(imageBytes, file.Header.Get(fiber.HeaderContentType)); err != nil {
		return nil, err
	}

	return imageBytes, nil
}
