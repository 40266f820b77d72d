// Package errorsx attaches short machine-readable reason codes to errors.
//
// Reason codes travel with an error through %w wrapping, so log records and
// tool results can report a stable code while callers keep matching the
// underlying sentinel with errors.Is.
package errorsx
