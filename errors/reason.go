package errors

// Failure reasons reported by transcription backends. They appear verbatim as
// the debug fallback_reason.
const (
	ReasonRateLimited        = "rate_limited"
	ReasonTimeout            = "timeout"
	ReasonServiceUnavailable = "service_unavailable"
	ReasonInvalidInput       = "invalid_input"
)

// FromReason converts a backend failure reason into the fatal error surfaced
// when no further backend can absorb it.
func FromReason(reason, backend string, cause error) *AppError {
	var e *AppError
	switch reason {
	case ReasonRateLimited:
		e = RateLimited(backend)
	case ReasonTimeout:
		e = BackendTimeout(backend)
	case ReasonInvalidInput:
		e = InvalidInput("audio", "rejected by "+backend)
	default:
		e = BackendUnavailable(backend)
	}
	if cause != nil {
		e.Cause = cause
	}
	return e
}
