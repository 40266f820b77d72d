package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/leofalp/mathchat/providers/ai"
)

const (
	userPrefix      = "User > "
	assistantPrefix = "Assistant > "
)

// Console writes the conversation to a terminal. The user prompt is green,
// the assistant prefix blue and errors red.
type Console struct {
	out       io.Writer
	user      *color.Color
	assistant *color.Color
	failure   *color.Color
	open      bool
}

// Option configures a Console.
type Option func(*Console)

// WithColors forces colored output on or off. By default fatih/color decides
// based on whether stdout is a terminal.
func WithColors(enabled bool) Option {
	return func(c *Console) {
		for _, col := range []*color.Color{c.user, c.assistant, c.failure} {
			if enabled {
				col.EnableColor()
			} else {
				col.DisableColor()
			}
		}
	}
}

// New creates a Console writing to out (os.Stdout when nil).
func New(out io.Writer, opts ...Option) *Console {
	if out == nil {
		out = os.Stdout
	}
	c := &Console{
		out:       out,
		user:      color.New(color.FgGreen),
		assistant: color.New(color.FgBlue),
		failure:   color.New(color.FgRed),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) Prompt() {
	_, _ = c.user.Fprint(c.out, userPrefix)
}

func (c *Console) StartMessage(role ai.MessageRole) {
	c.open = true
	switch role {
	case "", ai.RoleAssistant:
		_, _ = c.assistant.Fprint(c.out, assistantPrefix)
	default:
		_, _ = c.assistant.Fprintf(c.out, "%s > ", role)
	}
}

func (c *Console) Emit(text string) {
	if !c.open {
		c.StartMessage(ai.RoleAssistant)
	}
	_, _ = fmt.Fprint(c.out, text)
}

func (c *Console) EndMessage() {
	if !c.open {
		return
	}
	c.open = false
	_, _ = fmt.Fprintln(c.out)
}

func (c *Console) ReportError(err error) {
	if err == nil {
		return
	}
	if c.open {
		c.open = false
		_, _ = fmt.Fprintln(c.out)
	}
	_, _ = c.failure.Fprintf(c.out, "Error: %v\n", err)
}
