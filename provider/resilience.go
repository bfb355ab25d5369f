package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/resilience"
)

// ResilienceConfig bundles optional resilience policies for a provider.
// Nil fields are skipped.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig
	Retry          *resilience.RetryConfig
	RateLimiter    *resilience.RateLimiterConfig
}

// IsEmpty returns true if no resilience policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.RateLimiter == nil
}

// ResilienceState holds the primitives built from a ResilienceConfig.
type ResilienceState struct {
	cb       *resilience.CircuitBreaker
	rl       *resilience.RateLimiter
	retryCfg *resilience.RetryConfig
}

// BuildResilience creates resilience primitives from config. It returns nil
// for an empty config.
func BuildResilience(cfg ResilienceConfig) *ResilienceState {
	if cfg.IsEmpty() {
		return nil
	}
	s := &ResilienceState{retryCfg: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		s.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		s.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	return s
}

// CircuitState reports the breaker state, closed when none is configured.
func (s *ResilienceState) CircuitState() resilience.State {
	if s == nil || s.cb == nil {
		return resilience.StateClosed
	}
	return s.cb.State()
}

// WithResilience wraps a RequestResponse provider with the resilience chain.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &resilientRR[I, O]{inner: p, state: BuildResilience(cfg)}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	state *ResilienceState
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return ExecuteWithResilience(ctx, r.state, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
}

// ExecuteWithResilience runs fn through RateLimiter.Wait → CircuitBreaker →
// Retry → fn. Errors produced by the primitives themselves are converted to
// AppError; errors from fn pass through untouched.
func ExecuteWithResilience[T any](ctx context.Context, s *ResilienceState, fn func() (T, error)) (T, error) {
	if s == nil {
		return fn()
	}

	if s.rl != nil {
		if err := s.rl.Wait(ctx); err != nil {
			var zero T
			return zero, wrapResilienceError(err)
		}
	}

	call := fn
	if s.retryCfg != nil {
		retryCfg := *s.retryCfg
		call = func() (T, error) {
			return resilience.Retry(ctx, retryCfg, fn)
		}
	}

	if s.cb == nil {
		return call()
	}

	var result T
	var resultErr error
	cbErr := s.cb.Execute(func() error {
		result, resultErr = call()
		return resultErr
	})
	if cbErr != nil && resultErr == nil {
		return result, wrapResilienceError(cbErr)
	}
	return result, resultErr
}

func wrapResilienceError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable("provider").WithCause(err).WithDetail("reason", "circuit open")
	case errors.Is(err, resilience.ErrRateLimited):
		return apperrors.RateLimited("").WithCause(err)
	case errors.Is(err, context.Canceled):
		return apperrors.Canceled(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.BackendTimeout("provider").WithCause(err)
	default:
		return err
	}
}
