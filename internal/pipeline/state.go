package pipeline

import (
	"fmt"
	"time"

	"github.com/Kingvic300/Inkluziv--wallet/internal/dialogue"
)

// Phase is the coarse controller state.
type Phase int

const (
	// PhaseIdle: not capturing, nothing pending.
	PhaseIdle Phase = iota

	// PhaseListening: a capture session is open.
	PhaseListening

	// PhaseProcessing: a final transcript is being acted on.
	PhaseProcessing
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseListening:
		return "listening"
	case PhaseProcessing:
		return "processing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is a snapshot of the pipeline state owned by a [Controller].
type State struct {
	// Listening is true while a capture session is open.
	Listening bool

	// Processing is true between a matched final transcript and the end of
	// its dispatch.
	Processing bool

	// Transcript is the latest partial or final transcript. Cleared after
	// dispatch, after the not-recognized display delay, and on stop.
	Transcript string

	// Confidence is the recogniser confidence of Transcript, 0 if unknown.
	Confidence float64

	// LastError is the user-readable text of the most recent recognition
	// error. Cleared when a new session starts.
	LastError string

	// Dialogue is the active transfer session. Its step is
	// dialogue.StepNone when no dialogue is in progress.
	Dialogue dialogue.Session

	// Enabled mirrors the voice-commands setting.
	Enabled bool
}

// Phase derives the coarse phase from the flags.
func (s State) Phase() Phase {
	switch {
	case s.Processing:
		return PhaseProcessing
	case s.Listening:
		return PhaseListening
	default:
		return PhaseIdle
	}
}

// DialogueActive reports whether a dialogue session is in progress.
func (s State) DialogueActive() bool {
	return s.Dialogue.Step.Active()
}

// Config holds the controller's tuning knobs.
type Config struct {
	// Language is passed to the recogniser. Default: "en-US".
	Language string

	// Continuous keeps capture sessions open after a final result.
	Continuous bool

	// InterimResults requests partial transcripts.
	InterimResults bool

	// ListenTimeout caps a capture session. Default: 8s.
	ListenTimeout time.Duration

	// FeedbackDelay is the pause between announcing a matched command and
	// executing it. Default: 600ms.
	FeedbackDelay time.Duration

	// ClearDelay is how long an unrecognised transcript stays visible.
	// Default: 2s.
	ClearDelay time.Duration
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		Language:       "en-US",
		InterimResults: true,
		ListenTimeout:  8 * time.Second,
		FeedbackDelay:  600 * time.Millisecond,
		ClearDelay:     2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.ListenTimeout <= 0 {
		c.ListenTimeout = d.ListenTimeout
	}
	if c.FeedbackDelay < 0 {
		c.FeedbackDelay = 0
	}
	if c.ClearDelay <= 0 {
		c.ClearDelay = d.ClearDelay
	}
	return c
}
