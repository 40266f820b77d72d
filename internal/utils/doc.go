// Package utils provides the low-level HTTP helpers shared by the completion
// providers: a synchronous JSON round-trip ([DoPostSync]), a streaming POST
// whose body is left open for Server-Sent Events ([DoPostStream] with
// [SSEScanner]), a typed [StatusError] for non-2xx answers, and small string
// and pointer helpers.
package utils
