// Package stt defines the Recognizer interface for speech capture backends.
//
// A Recognizer wraps a speech recognition capability (the browser Web Speech
// API behind a WebSocket, a terminal line reader, or a test double) and
// exposes a uniform callback interface. A listening session is opened with
// Start; from then on the recognizer reports lifecycle and recognition
// [Event] values to the supplied [EventHandler] until it emits [EventEnd].
//
// The voice pipeline consumes only the fixed-shape [Event] and [Result]
// types; it never sees driver-specific payloads.
package stt

import (
	"context"
	"time"
)

// Options configures a single listening session.
type Options struct {
	// Continuous keeps the session open after the first final result. The
	// voice pipeline uses single-utterance sessions (false).
	Continuous bool

	// InterimResults requests partial transcripts while the user is still
	// speaking. Partials are surfaced as [Result] values with IsFinal=false.
	InterimResults bool

	// Language is the BCP-47 language tag for recognition (e.g., "en-US").
	Language string

	// Timeout caps the listening duration. Zero means no cap. The pipeline
	// also enforces the cap itself, so recognizers may treat it as a hint.
	Timeout time.Duration
}

// EventHandler receives the events of one listening session. Implementations
// of [Recognizer] may call it from any goroutine, including synchronously
// from within Start.
type EventHandler func(Event)

// Recognizer is the abstraction over any speech capture backend.
//
// At most one listening session is active at a time. Calling Start while a
// session is active is implementation-defined; the pipeline never does so.
type Recognizer interface {
	// Supported reports whether the capture capability is available at all
	// (e.g., the browser exposes a speech recognition API and a microphone).
	Supported() bool

	// Start opens a listening session. Events for this session are delivered
	// to h until an [EventEnd] has been delivered.
	//
	// Returns an error if the session cannot be opened; in that case no
	// events are delivered.
	Start(ctx context.Context, opts Options, h EventHandler) error

	// Stop ends the active session, discarding any partial audio. Recognizers
	// normally follow up with an [EventEnd]. Calling Stop with no active
	// session is a no-op and returns nil.
	Stop() error
}
