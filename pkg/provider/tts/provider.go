// Package tts defines the Speaker interface for speech synthesis backends.
//
// A Speaker reads a complete sentence aloud: the browser's speechSynthesis
// behind a WebSocket, a terminal printer, or a test double. The voice
// pipeline uses it for spoken replies ("You are now on the wallet page") and
// for the prompts of guided dialogues.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Speaker is the abstraction over any speech synthesis backend.
type Speaker interface {
	// Speak queues text for synthesis and returns once it has been handed to
	// the backend. It does not wait for playback to finish.
	//
	// Returns an error if the backend cannot accept the text or ctx is
	// cancelled. Callers treat failures as non-fatal.
	Speak(ctx context.Context, text string) error
}

// SpeakerFunc adapts an ordinary function to the [Speaker] interface.
type SpeakerFunc func(ctx context.Context, text string) error

// Speak calls f(ctx, text).
func (f SpeakerFunc) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Discard is a Speaker that drops everything. Useful when speech output is
// disabled.
var Discard Speaker = SpeakerFunc(func(context.Context, string) error { return nil })
