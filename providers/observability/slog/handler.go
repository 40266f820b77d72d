package slog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
)

// CompactHandler is a slog.Handler writing one line per record:
//
//	2025-11-03 10:40:35  WARN Span ended → {"duration":"1.2s","span":"session.turn"}
//
// Attributes are JSON-encoded with sorted keys. Levels are colored when
// colors are enabled.
type CompactHandler struct {
	level  slog.Leveler
	output io.Writer
	colors bool
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// CompactHandlerOptions configures a CompactHandler.
type CompactHandlerOptions struct {
	// Level is the minimum level to output. Nil means INFO.
	Level slog.Leveler
	// Output defaults to os.Stderr.
	Output io.Writer
	// Colors enables colored level names.
	Colors bool
}

// NewCompactHandler creates a CompactHandler.
func NewCompactHandler(opts *CompactHandlerOptions) *CompactHandler {
	if opts == nil {
		opts = &CompactHandlerOptions{}
	}
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	return &CompactHandler{
		level:  level,
		output: output,
		colors: opts.Colors,
		mu:     &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record.
func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)

	buf = append(buf, r.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, ' ')
	buf = append(buf, h.levelColor(r.Level).Sprintf("%5s", levelString(r.Level))...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	if attrs := h.collectAttrs(r); len(attrs) > 0 {
		buf = append(buf, " → "...)
		jsonData, err := json.Marshal(attrs)
		if err != nil {
			buf = append(buf, "[json-error]"...)
		} else {
			buf = append(buf, jsonData...)
		}
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.output.Write(buf)
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup returns a new handler that prefixes later attribute keys with name.
func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *CompactHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	qualified := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		key := attr.Key
		for i := len(h.groups) - 1; i >= 0; i-- {
			key = h.groups[i] + "." + key
		}
		qualified = append(qualified, slog.Attr{Key: key, Value: attr.Value})
	}
	return qualified
}

func (h *CompactHandler) collectAttrs(r slog.Record) map[string]any {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		attrs[attr.Key] = attrValue(attr.Value)
	}

	var recordAttrs []slog.Attr
	r.Attrs(func(attr slog.Attr) bool {
		recordAttrs = append(recordAttrs, attr)
		return true
	})
	for _, attr := range h.qualify(recordAttrs) {
		attrs[attr.Key] = attrValue(attr.Value)
	}
	return attrs
}

// attrValue renders values that do not encode well as JSON as strings.
func attrValue(value slog.Value) any {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().Format("2006-01-02T15:04:05.000Z07:00")
	case slog.KindAny:
		switch v := value.Any().(type) {
		case error:
			return v.Error()
		case fmt.Stringer:
			return v.String()
		}
	}
	return value.Any()
}

func (h *CompactHandler) levelColor(level slog.Level) *color.Color {
	var c *color.Color
	switch {
	case level < slog.LevelDebug:
		c = color.New(color.FgHiBlack)
	case level < slog.LevelInfo:
		c = color.New(color.FgBlue)
	case level < slog.LevelWarn:
		c = color.New(color.FgGreen)
	case level < slog.LevelError:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}
	if h.colors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
