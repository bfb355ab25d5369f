package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Backend availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service itself cannot take the request right now.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeBackendUnavailable indicates a transcription backend could not be reached.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// ErrCodeBackendTimeout indicates a transcription backend did not answer in time.
	ErrCodeBackendTimeout ErrorCode = "BACKEND_TIMEOUT"
	// ErrCodeRateLimited indicates a backend or the caller is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeChunking indicates the audio asset could not be decoded for splitting.
	ErrCodeChunking ErrorCode = "CHUNKING_ERROR"
	// ErrCodeUnsupportedLanguage indicates no viable backend serves the requested language.
	ErrCodeUnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Speaker errors
const (
	// ErrCodeNoVoicePrint indicates the identity has never enrolled a voiceprint.
	ErrCodeNoVoicePrint ErrorCode = "NO_VOICEPRINT"
	// ErrCodeUnauthorized indicates failed authentication or a rejected speaker.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates an authenticated caller acting on another identity.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeAggregationInconsistency indicates a missing or duplicate segment during reassembly.
	ErrCodeAggregationInconsistency ErrorCode = "AGGREGATION_INCONSISTENCY"
	// ErrCodeExternalService indicates an error from an auxiliary external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeCanceled indicates the caller abandoned the request.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeBackendUnavailable: true,
	ErrCodeBackendTimeout:     true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
