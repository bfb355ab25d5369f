// Package provider is the generic capability framework shared by every
// external collaborator: transcription backends, embedding services and
// voice-embedding extractors.
//
//   - Provider: name plus availability probe.
//   - Registry[T]: named factories, the registered-capability table.
//   - RequestResponse[I, O]: one input, one output, wrapped by Middleware
//     (logging, metrics, tracing) and WithResilience.
//   - ContextStore[C]: typed key-value persistence (MemoryStore here,
//     redis.TypedStore for production).
//
//	embedder := provider.Chain(
//	    provider.WithLogging[[]string, [][]float64](log),
//	    provider.WithMetrics[[]string, [][]float64](metrics),
//	)(provider.WithResilience(raw, resilienceCfg))
package provider
