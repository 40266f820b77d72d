// Package memory defines the Provider interface for conversation history.
//
// History is append-only: a session commits each completed turn as one
// batch with [Provider.AppendMessages], so readers never observe half of a
// turn. There is no way to clear or rewrite history; it lives for the
// lifetime of the process.
// The bundled implementation lives in the sibling package
// [github.com/leofalp/mathchat/providers/memory/inmemory].
package memory
