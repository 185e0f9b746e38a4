package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// RegisterFaceResponse represents a successful registration
type RegisterFaceResponse struct {
	Success    bool       `json:"success" example:"true"`
	Message    string     `json:"message" example:"Face registered"`
	EmployeeID string     `json:"employee_id" example:"EMP001"`
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence" example:"0.99"`
}

// RecognizeFaceResponse represents the outcome of a recognition attempt
type RecognizeFaceResponse struct {
	Success    bool    `json:"success" example:"true"`
	Message    string  `json:"message" example:"Face recognized"`
	EmployeeID string  `json:"employee_id,omitempty" example:"EMP001"`
	NIK        string  `json:"nik,omitempty" example:"EMP001"`
	Similarity float64 `json:"similarity" example:"0.83"`
	Confidence float64 `json:"confidence" example:"0.99"`
}

// EnrollmentResponse represents the enrollment status of one employee
type EnrollmentResponse struct {
	EmployeeID string `json:"employee_id" example:"EMP001"`
	Registered bool   `json:"registered" example:"true"`
	Dimension  int    `json:"dimension" example:"512"`
}

// HealthResponse represents liveness and readiness probes
type HealthResponse struct {
	Status   string `json:"status" example:"ready"`
	Version  string `json:"version,omitempty" example:"0.1.0"`
	Enrolled int    `json:"enrolled,omitempty" example:"42"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

var (
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized")
	errRateLimited  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errNotReady     = response.New(ErrorResponse{Code: "EXTRACTOR_NOT_READY", Message: "Face recognition model is still loading"}, "503", "Service Unavailable")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger(host string) *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Face Match API",
		Version:     "v1.0.0",
		Description: "Face enrollment and recognition for attendance clients",
		Host:        host,
		Path:        "/",
	})

	security := []map[string][]string{{"ApiKeyAuth": {}}}

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.POST,
			"/api/face/register",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Register a face"),
			endpoint.WithDescription("Multipart form with employee_id and file. Enrolls the largest face in the photo, replacing any previous enrollment for the same employee_id."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RegisterFaceResponse{}, "200", "Face registered"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "employee_id is required"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity"),
				errRateLimited,
				errInternal,
				errNotReady,
			}),
			endpoint.WithSecurity(security),
		),

		endpoint.New(
			endpoint.POST,
			"/recognize",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Recognize a face"),
			endpoint.WithDescription("Multipart form with file. Compares the largest face against every enrollment. No face or no match answers 200 with success=false."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognizeFaceResponse{}, "200", "Recognition completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				errRateLimited,
				errInternal,
				errNotReady,
			}),
			endpoint.WithSecurity(security),
		),

		endpoint.New(
			endpoint.GET,
			"/api/face/{employee_id}",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Get enrollment status"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("employee_id", parameter.Path, parameter.WithDescription("Employee identifier used at registration")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollmentResponse{}, "200", "Employee is enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "ENROLLMENT_NOT_FOUND", Message: "No face enrolled for this identity"}, "404", "Not Found"),
				errInternal,
			}),
			endpoint.WithSecurity(security),
		),

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Process is up"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("503 until the face model is loaded and the embedding store answers"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Ready to serve"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "loading"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
