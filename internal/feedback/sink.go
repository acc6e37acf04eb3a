// Package feedback defines the user-facing feedback channel of the voice
// pipeline: non-visual screen-reader announcements and transient status
// events for the UI overlay.
//
// The pipeline only emits semantic events through [Sink]; rendering them is
// the job of the surrounding application (the WebSocket bridge, the console
// adapter). [Fanout] delivers to several sinks, [LogSink] mirrors events to
// slog and [Journal] appends them to a JSON lines file.
package feedback

import (
	"fmt"
	"log/slog"
)

// StatusKind classifies a status event.
type StatusKind int

const (
	// StatusListening is emitted when capture starts.
	StatusListening StatusKind = iota + 1

	// StatusProcessing is emitted when a command matched and is about to run.
	StatusProcessing

	// StatusReceived is emitted when a final transcript arrives.
	StatusReceived

	// StatusError is emitted for unsupported capture, unrecognised commands,
	// recognition errors and failed actions.
	StatusError
)

// String returns the lower-case kind name used on the wire and in logs.
func (k StatusKind) String() string {
	switch k {
	case StatusListening:
		return "listening"
	case StatusProcessing:
		return "processing"
	case StatusReceived:
		return "received"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// Status is a transient UI status event.
type Status struct {
	Kind StatusKind

	// Detail is optional context (the command description, the transcript,
	// "not recognized").
	Detail string
}

// Sink receives feedback events. Implementations must not block for long:
// the pipeline calls them from its event loop.
type Sink interface {
	// Announce publishes a screen-reader announcement.
	Announce(message string)

	// Status publishes a transient status event.
	Status(s Status)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Announce(string) {}
func (discard) Status(Status)   {}

// Fanout delivers every event to all of its sinks in order.
type Fanout []Sink

// Announce implements [Sink].
func (f Fanout) Announce(message string) {
	for _, s := range f {
		if s != nil {
			s.Announce(message)
		}
	}
}

// Status implements [Sink].
func (f Fanout) Status(st Status) {
	for _, s := range f {
		if s != nil {
			s.Status(st)
		}
	}
}

// LogSink mirrors feedback events to a structured logger at debug level.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Announce implements [Sink].
func (l LogSink) Announce(message string) {
	l.logger().Debug("feedback: announce", "message", message)
}

// Status implements [Sink].
func (l LogSink) Status(s Status) {
	l.logger().Debug("feedback: status", "kind", s.Kind.String(), "detail", s.Detail)
}

var (
	_ Sink = Fanout(nil)
	_ Sink = LogSink{}
)
