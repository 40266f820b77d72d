// Package inmemory provides a concurrency-safe, slice-backed implementation
// of the [memory.Provider] interface. History is kept in process memory and
// is lost when the process exits.
// The main entry point is [New], which returns a ready-to-use [ArrayMemory].
package inmemory
