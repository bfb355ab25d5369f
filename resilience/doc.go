// Package resilience provides the fault-tolerance primitives used around
// backend calls: a bulkhead for admission control, a circuit breaker and a
// token-bucket rate limiter for the remote API, and retry with exponential
// backoff for auxiliary sidecars.
package resilience
