package errors

import (
	"fmt"
	"net/http"
)

// StatusClientClosedRequest is reported when the caller went away before a result existed.
const StatusClientClosedRequest = 499

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Transcription backend errors ---

// BackendUnavailable reports a transcription backend that could not serve the request.
func BackendUnavailable(backend string) *AppError {
	return &AppError{
		Code: ErrCodeBackendUnavailable, Message: fmt.Sprintf("The %s backend is unavailable.", backend),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"backend": backend},
	}
}

// BackendTimeout reports a transcription backend call that exceeded its deadline.
func BackendTimeout(backend string) *AppError {
	return &AppError{
		Code: ErrCodeBackendTimeout, Message: fmt.Sprintf("The %s backend did not respond in time.", backend),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"backend": backend},
	}
}

// RateLimited creates a new AppError for too many requests.
func RateLimited(backend string) *AppError {
	e := &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
	if backend != "" {
		e.Details = map[string]any{"backend": backend}
	}
	return e
}

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// --- Input errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// ChunkingError reports an audio asset that cannot be decoded for splitting.
func ChunkingError(format, reason string) *AppError {
	return &AppError{
		Code: ErrCodeChunking, Message: fmt.Sprintf("Audio could not be split: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"format": format},
	}
}

// UnsupportedLanguage reports a language none of the viable backends can transcribe.
func UnsupportedLanguage(language, backend string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedLanguage, Message: fmt.Sprintf("Language %q is not supported by %s.", language, backend),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"language": language, "backend": backend},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// --- Speaker errors ---

// NoVoicePrint reports an identity without an enrolled voiceprint.
func NoVoicePrint(userID string) *AppError {
	return &AppError{
		Code: ErrCodeNoVoicePrint, Message: "No voiceprint is enrolled for this user.",
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"user_id": userID},
	}
}

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Forbidden reports an authenticated caller without the required permission.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return &AppError{
		Code: ErrCodeForbidden, Message: reason,
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// SpeakerMismatch is the Unauthorized outcome of a mandatory speaker check.
func SpeakerMismatch(score, threshold float64) *AppError {
	return Unauthorized("Speaker verification failed.").WithDetails(map[string]any{
		"speaker_match": score,
		"threshold":     threshold,
	})
}

// --- Internal errors ---

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// AggregationInconsistency reports a broken segment sequence during reassembly.
func AggregationInconsistency(reason string, index int) *AppError {
	return &AppError{
		Code: ErrCodeAggregationInconsistency, Message: fmt.Sprintf("Segment reassembly failed: %s", reason),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"segment_index": index},
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// Canceled reports a request abandoned by its caller.
func Canceled(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: "The request was canceled.",
		HTTPStatus: StatusClientClosedRequest, Retryable: false, Cause: cause,
	}
}
