package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code, so a sentinel still matches after WithError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API key",
		StatusCode: 401,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Matching errors

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrInvalidDescriptor = &AppError{
		Code:       "INVALID_DESCRIPTOR",
		Message:    "Descriptor is empty, zero-norm or has mismatched dimensionality",
		StatusCode: 500,
	}

	ErrExtractorNotReady = &AppError{
		Code:       "EXTRACTOR_NOT_READY",
		Message:    "Face recognition model is still loading",
		StatusCode: 503,
	}

	// Store errors

	ErrEnrollmentNotFound = &AppError{
		Code:       "ENROLLMENT_NOT_FOUND",
		Message:    "No face enrolled for this identity",
		StatusCode: 404,
	}

	ErrStoreReadCorruption = &AppError{
		Code:       "STORE_READ_CORRUPTION",
		Message:    "Stored descriptor could not be decoded",
		StatusCode: 500,
	}

	ErrStoreWriteFailure = &AppError{
		Code:       "STORE_WRITE_FAILURE",
		Message:    "Failed to persist enrollment",
		StatusCode: 500,
	}
)
