// Package server runs the hybridstt HTTP API on Gin behind an h2c handler so
// HTTP/1.1 and cleartext HTTP/2 clients share one port.
//
// # Middleware
//
// Handler-level middleware (server/middleware) wraps every route:
//
//   - RequestID: X-Request-Id generation, propagated into the request context
//   - RequestLogger: one log line per request with duration
//   - CORS: cross-origin headers and preflight handling
//   - BodySizeLimit: upload cap from server.max_body_size
//
// Gin-level middleware covers panic recovery, API-key/JWT authentication and
// per-caller rate limiting.
//
// # Endpoints
//
// Built-in endpoints (server/endpoint): /health, /ready, /info and /metrics.
package server
