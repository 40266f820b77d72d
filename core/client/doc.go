// Package client sits between the chat session and a completion provider.
//
// A [Client] holds the fixed request parameters (model, system prompt,
// generation config) and threads every request through a [Middleware]
// chain. Middlewares wrap the returned [ai.ChatStream] so they can observe
// the whole stream lifetime, not just the time to first byte. Ready-made
// middlewares for timeouts, retries and logging live in the middleware
// subpackage; [WithObserver] adds tracing and metrics as the outermost layer.
package client
