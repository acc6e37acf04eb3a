// Package mock provides a test double for the tts.Speaker interface.
//
// Use Speaker to verify which sentences the pipeline read aloud.
//
// Example:
//
//	sp := &mock.Speaker{}
//	d := dispatch.New(dispatch.Capabilities{Speaker: sp, ...})
//	// ...
//	if got := sp.Texts(); len(got) != 1 { ... }
package mock

import (
	"context"
	"sync"

	"github.com/Kingvic300/Inkluziv--wallet/pkg/provider/tts"
)

// SpeakCall records a single invocation of Speaker.Speak.
type SpeakCall struct {
	// Ctx is the context passed to Speak.
	Ctx context.Context
	// Text is the text passed to Speak.
	Text string
}

// Speaker is a mock implementation of tts.Speaker.
type Speaker struct {
	mu sync.Mutex

	// SpeakErr, if non-nil, is returned by every Speak call.
	SpeakErr error

	// SpeakCalls records every call to Speak in order.
	SpeakCalls []SpeakCall
}

// Speak records the call and returns SpeakErr.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakCalls = append(s.SpeakCalls, SpeakCall{Ctx: ctx, Text: text})
	return s.SpeakErr
}

// Texts returns the spoken texts in order. Thread-safe.
func (s *Speaker) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.SpeakCalls))
	for i, c := range s.SpeakCalls {
		out[i] = c.Text
	}
	return out
}

// Last returns the most recently spoken text, or "" if nothing was spoken.
func (s *Speaker) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.SpeakCalls) == 0 {
		return ""
	}
	return s.SpeakCalls[len(s.SpeakCalls)-1].Text
}

// Reset clears all recorded calls. Thread-safe.
func (s *Speaker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakCalls = nil
}

// Ensure Speaker implements tts.Speaker at compile time.
var _ tts.Speaker = (*Speaker)(nil)
