package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when all attempts
// failed before a stream could be opened. The error also wraps the last
// provider error, so errors.Is(err, ai.ErrTransport) still holds.
//
//	if errors.Is(err, middleware.ErrRetryExhausted) {
//	    // all retries failed
//	}
var ErrRetryExhausted = errors.New("all retry attempts exhausted")
