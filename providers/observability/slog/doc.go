// Package slog provides an observability.Provider backed by the standard
// log/slog package, plus helpers to build the process logger from a level
// and format string.
package slog
