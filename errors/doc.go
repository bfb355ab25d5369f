// Package errors provides the structured error type shared by every layer of
// the service. Each AppError carries a machine-readable code, an HTTP status
// and a retryable flag, and renders to a stable JSON body.
package errors
