package transcription

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/httpclient"
	"github.com/kbukum/hybridstt/resilience"
)

// Failed builds an unsuccessful attempt classified from err.
func Failed(b Backend, req *Request, start time.Time, err error) *Attempt {
	return &Attempt{
		Backend:        b.Name(),
		Kind:           b.Kind(),
		SegmentIndex:   segmentIndex(req),
		ProcessingTime: time.Since(start),
		Reason:         Classify(err),
		Err:            err,
	}
}

func segmentIndex(req *Request) int {
	if req == nil || req.Segment == nil {
		return 0
	}
	return req.Segment.Index
}

// Classify maps a call error onto a failure reason:
//
//	429 or local limiter                  rate_limited
//	deadline or client timeout            timeout
//	rejected input, other 4xx             invalid_input
//	everything else (5xx, auth, network)  service_unavailable
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), httpclient.IsTimeout(err):
		return apperrors.ReasonTimeout
	case httpclient.IsRateLimit(err), errors.Is(err, resilience.ErrRateLimited):
		return apperrors.ReasonRateLimited
	}

	if appErr, ok := apperrors.AsAppError(err); ok {
		switch appErr.Code {
		case apperrors.ErrCodeRateLimited:
			return apperrors.ReasonRateLimited
		case apperrors.ErrCodeBackendTimeout:
			return apperrors.ReasonTimeout
		case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeChunking, apperrors.ErrCodeUnsupportedLanguage:
			return apperrors.ReasonInvalidInput
		}
		return apperrors.ReasonServiceUnavailable
	}

	var he *httpclient.Error
	if errors.As(err, &he) && (he.Code == httpclient.ErrCodeValidation || he.Code == httpclient.ErrCodeNotFound) {
		return apperrors.ReasonInvalidInput
	}
	return apperrors.ReasonServiceUnavailable
}

// CountsAgainstCircuit reports whether err reflects backend health rather
// than a bad request or a quota.
func CountsAgainstCircuit(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch Classify(err) {
	case apperrors.ReasonTimeout, apperrors.ReasonServiceUnavailable:
		return true
	}
	return false
}

// SupportsLanguage matches lang against a configured list by primary
// subtag. An empty list or an empty lang matches.
func SupportsLanguage(languages []string, lang string) bool {
	if len(languages) == 0 || lang == "" {
		return true
	}
	base := primaryTag(lang)
	for _, l := range languages {
		if primaryTag(l) == base {
			return true
		}
	}
	return false
}

func primaryTag(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
