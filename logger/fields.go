package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldBackend   = "backend"
	FieldSegment   = "segment_index"
	FieldSegments  = "segments"
	FieldState     = "state"
	FieldSource    = "source"
	FieldReason    = "reason"
	FieldBytes     = "bytes"
	FieldLanguage  = "language"
	FieldScore     = "score"
	FieldThreshold = "threshold"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Info("segment done", logger.Fields(logger.FieldSegment, 2, logger.FieldBackend, "openai"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}
