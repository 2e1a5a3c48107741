// Package logging builds the structured log/slog.Logger granite's
// components log through, and carries a request ID across a request's
// lifetime via context.Context.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	ctx := logging.WithRequestID(r.Context(), requestID)
//	logger.InfoContext(ctx, "request completed", "status", 200)
package logging
