package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeBackendTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("BACKEND_TIMEOUT should be retryable")
	}
	err = New(ErrCodeChunking, "bad header", http.StatusUnprocessableEntity)
	if err.Retryable {
		t.Error("CHUNKING_ERROR should not be retryable")
	}
}

func TestTaxonomy_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"chunking", ChunkingError("wav", "corrupt header"), ErrCodeChunking, http.StatusUnprocessableEntity},
		{"timeout", BackendTimeout("openai"), ErrCodeBackendTimeout, http.StatusGatewayTimeout},
		{"unavailable", BackendUnavailable("whisper-local"), ErrCodeBackendUnavailable, http.StatusServiceUnavailable},
		{"rate limited", RateLimited("openai"), ErrCodeRateLimited, http.StatusTooManyRequests},
		{"language", UnsupportedLanguage("xx", "whisper-local"), ErrCodeUnsupportedLanguage, http.StatusUnprocessableEntity},
		{"no voiceprint", NoVoicePrint("u1"), ErrCodeNoVoicePrint, http.StatusNotFound},
		{"speaker mismatch", SpeakerMismatch(0.4, 0.9), ErrCodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden(""), ErrCodeForbidden, http.StatusForbidden},
		{"aggregation", AggregationInconsistency("duplicate", 2), ErrCodeAggregationInconsistency, http.StatusInternalServerError},
		{"canceled", Canceled(nil), ErrCodeCanceled, StatusClientClosedRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.HTTPStatus)
			}
		})
	}
}

func TestSpeakerMismatch_NotServerError(t *testing.T) {
	err := SpeakerMismatch(0.5, 0.9)
	if err.HTTPStatus >= 500 {
		t.Errorf("speaker mismatch must not be a 5xx, got %d", err.HTTPStatus)
	}
	if err.Details["speaker_match"] != 0.5 {
		t.Errorf("expected speaker_match detail, got %v", err.Details)
	}
}

func TestFromReason(t *testing.T) {
	cause := fmt.Errorf("boom")
	tests := []struct {
		reason string
		code   ErrorCode
	}{
		{ReasonRateLimited, ErrCodeRateLimited},
		{ReasonTimeout, ErrCodeBackendTimeout},
		{ReasonServiceUnavailable, ErrCodeBackendUnavailable},
		{ReasonInvalidInput, ErrCodeInvalidInput},
		{"", ErrCodeBackendUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			err := FromReason(tt.reason, "whisper-local", cause)
			if err.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, err.Code)
			}
			if !stderrors.Is(err, cause) {
				t.Error("expected cause to be wrapped")
			}
		})
	}
}

func TestAppError_Is_MatchesCode(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", NoVoicePrint("u1"))
	if !stderrors.Is(wrapped, NoVoicePrint("")) {
		t.Error("expected errors.Is to match on code")
	}
	if stderrors.Is(wrapped, Unauthorized("")) {
		t.Error("expected different codes not to match")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Internal(fmt.Errorf("db connection lost"))
	if !strings.Contains(err.Error(), "db connection lost") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	plain := InvalidInput("language", "too long")
	if strings.Contains(plain.Error(), "cause") {
		t.Errorf("unexpected cause in %q", plain.Error())
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := BackendUnavailable("openai").WithDetails(map[string]any{"status": 503}).WithDetail("segment", 1)
	if err.Details["backend"] != "openai" || err.Details["status"] != 503 || err.Details["segment"] != 1 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestToResponse(t *testing.T) {
	resp := NoVoicePrint("u1").ToResponse()
	if resp.Error.Code != ErrCodeNoVoicePrint {
		t.Errorf("expected NO_VOICEPRINT, got %s", resp.Error.Code)
	}
	if resp.Error.Details["user_id"] != "u1" {
		t.Errorf("expected user_id detail, got %v", resp.Error.Details)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", RateLimited(""))
	appErr, ok := AsAppError(wrapped)
	if !ok || appErr.Code != ErrCodeRateLimited {
		t.Errorf("expected RATE_LIMITED app error, got %v", appErr)
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("plain error should not convert")
	}
	if IsAppError(nil) {
		t.Error("nil is not an app error")
	}
}
