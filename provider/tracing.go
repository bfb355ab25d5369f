package provider

import (
	"context"

	"github.com/kbukum/hybridstt/observability"
)

// WithTracing wraps each Execute call in a span named "provider.<name>".
func WithTracing[I, O any]() Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &tracingRR[I, O]{inner: inner}
	}
}

type tracingRR[I, O any] struct {
	inner RequestResponse[I, O]
}

func (t *tracingRR[I, O]) Name() string                         { return t.inner.Name() }
func (t *tracingRR[I, O]) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

func (t *tracingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	ctx, span := observability.StartSpan(ctx, "provider."+t.inner.Name())
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrProvider, t.inner.Name())

	output, err := t.inner.Execute(ctx, input)
	observability.SetSpanError(ctx, err)
	return output, err
}
