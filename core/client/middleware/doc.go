// Package middleware provides the stock middlewares for the completion
// client. Each constructor returns a [client.Middleware] ready to be passed
// to [client.WithMiddleware].
//
//   - [NewTimeoutMiddleware]: a per-request deadline covering the whole
//     stream lifetime (default 2m).
//   - [NewRetryMiddleware]: retries failures to open a stream (429, 5xx,
//     refused connections) with exponential backoff and jitter. Streams that
//     already started are never restarted.
//   - [NewLoggingMiddleware]: slog entries for each request, at three
//     verbosity levels.
//
// Middlewares execute outermost-first:
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(2*time.Minute),
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 2}),
//	        middleware.NewLoggingMiddleware(logger, middleware.LogLevelStandard),
//	    ),
//	)
//
// A request travels Timeout → Retry → Logging → Provider, so the deadline
// also bounds the time spent waiting between retries.
package middleware
