// Package logger provides structured logging on top of zerolog.
//
// Loggers carry the service name, can be scoped to a component and pick up
// request, user and trace ids from a context:
//
//	log := logger.Get("hybrid").WithContext(ctx)
//	log.Info("fallback", logger.Fields(logger.FieldReason, "rate_limited"))
package logger
