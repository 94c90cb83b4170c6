// Package middleware provides built-in [client.Middleware] implementations.
//
//   - [NewTimeoutMiddleware] bounds the whole life of a stream with a
//     deadline.
//   - [NewLoggingMiddleware] writes structured slog entries when a stream
//     opens and when it ends.
//
// Usage:
//
//	c := client.New(
//	    client.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(2*time.Minute),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// The first middleware is the outermost wrapper:
//
//	Timeout → Logging → adapter
package middleware
