// Package middleware provides HTTP middleware for cross-cutting concerns on
// the admin ConfigApi listener: request ID propagation, structured logging,
// panic recovery, and request timeouts.
//
// # Middleware Chain
//
// Middleware functions are chained in a specific order:
//
//	handler = TimeoutMiddleware(t)(RecoveryMiddleware(RequestIDMiddleware(LoggingMiddleware(handler))))
//
// # Request ID
//
// RequestIDMiddleware generates a unique ID for each request (or reuses the
// client-supplied X-Request-ID):
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// # Logging
//
// LoggingMiddleware uses log/slog to record request details:
//
//	{"time":"2026-08-06T10:30:00Z","level":"INFO","msg":"request completed",
//	 "method":"POST","path":"/route/add","status":200,"latency_ms":4,
//	 "request_id":"550e8400-...","remote_addr":"10.0.0.5:54321"}
//
// # Recovery
//
// RecoveryMiddleware catches panics in handlers and converts them to HTTP 500
// responses, logging the stack trace but never exposing it to the client.
//
// # Timeout
//
// TimeoutMiddleware enforces a per-request deadline via context.WithTimeout;
// exceeding it yields a 504 Gateway Timeout response.
package middleware
