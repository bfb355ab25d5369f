package process

import (
	"context"
	"time"

	"github.com/kbukum/hybridstt/provider"
)

// Runner applies a default timeout and resilience policy to every Run.
// Circuit breaker state persists across calls, so a binary that keeps
// crashing trips the breaker.
type Runner struct {
	name    string
	timeout time.Duration
	state   *provider.ResilienceState
}

var _ provider.RequestResponse[Command, *Result] = (*Runner)(nil)

// NewRunner creates a Runner. A zero timeout means none.
func NewRunner(name string, timeout time.Duration, cfg provider.ResilienceConfig) *Runner {
	r := &Runner{name: name, timeout: timeout}
	if !cfg.IsEmpty() {
		r.state = provider.BuildResilience(cfg)
	}
	return r
}

func (r *Runner) Name() string { return r.name }

func (r *Runner) IsAvailable(context.Context) bool { return true }

// Execute runs cmd within the runner's timeout and resilience policy.
func (r *Runner) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if r.state == nil {
		return Run(ctx, cmd)
	}
	return provider.ExecuteWithResilience(ctx, r.state, func() (*Result, error) {
		return Run(ctx, cmd)
	})
}
