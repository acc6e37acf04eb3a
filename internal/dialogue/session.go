package dialogue

import "fmt"

// Step is the position of a [Session] in the transfer flow.
type Step int

const (
	// StepNone is the zero value; no session is active.
	StepNone Step = iota

	// StepAwaitingRecipient waits for the name or address of the recipient.
	StepAwaitingRecipient

	// StepAwaitingAmount waits for a positive numeric amount.
	StepAwaitingAmount

	// StepAwaitingCurrency waits for the token ticker.
	StepAwaitingCurrency

	// StepCompleted is terminal: all fields are collected and a transfer is
	// requested.
	StepCompleted

	// StepAborted is terminal: the user cancelled or the transfer failed.
	StepAborted
)

// String returns the step name used in logs, metrics and the UI state.
func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepAwaitingRecipient:
		return "awaiting_recipient"
	case StepAwaitingAmount:
		return "awaiting_amount"
	case StepAwaitingCurrency:
		return "awaiting_currency"
	case StepCompleted:
		return "completed"
	case StepAborted:
		return "aborted"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Terminal reports whether s ends the session.
func (s Step) Terminal() bool {
	return s == StepCompleted || s == StepAborted
}

// Active reports whether s expects another answer from the user.
func (s Step) Active() bool {
	return s >= StepAwaitingRecipient && s <= StepAwaitingCurrency
}

// Session is the state of one guided transfer. It is a plain value: the
// [Machine] returns updated copies and never retains one.
type Session struct {
	Step Step

	// Recipient is set once the session moves past StepAwaitingRecipient.
	Recipient string

	// Amount is set (> 0) once the session moves past StepAwaitingAmount.
	Amount float64

	// Currency is set once the session moves past StepAwaitingCurrency.
	Currency string
}

// Prompt returns the question for the session's current step, or "" for a
// step that asks nothing.
func (s Session) Prompt() string {
	switch s.Step {
	case StepAwaitingRecipient:
		return PromptRecipient
	case StepAwaitingAmount:
		return PromptAmount
	case StepAwaitingCurrency:
		return PromptCurrency
	default:
		return ""
	}
}

// TransferRequest is the composite action produced when a session completes.
type TransferRequest struct {
	Recipient string
	Amount    float64
	Currency  string
}
