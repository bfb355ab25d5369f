// Package observability wires OpenTelemetry tracing and metrics.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "hybridstt", version.Version, env)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanRemote)
//	defer span.End()
package observability
