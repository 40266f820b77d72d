package display

import "github.com/leofalp/mathchat/providers/ai"

// Sink renders a conversation to the user. The session calls these methods
// strictly sequentially from a single goroutine.
type Sink interface {
	// Prompt signals that the session is waiting for the next user line.
	Prompt()
	// StartMessage switches the display to the given role. It is called once
	// per turn, on the first role-marked stream event.
	StartMessage(role ai.MessageRole)
	// Emit writes a content fragment as soon as it arrives.
	Emit(text string)
	// EndMessage terminates the current message.
	EndMessage()
	// ReportError shows a turn failure to the user.
	ReportError(err error)
}

// Discard is a Sink that renders nothing.
var Discard Sink = discard{}

type discard struct{}

func (discard) Prompt()                     {}
func (discard) StartMessage(ai.MessageRole) {}
func (discard) Emit(string)                 {}
func (discard) EndMessage()                 {}
func (discard) ReportError(error)           {}
