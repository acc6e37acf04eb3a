// Package dialogue implements the guided token-transfer conversation.
//
// The flow asks three questions in order (recipient, amount, currency) and
// then emits a [TransferRequest]. A cancel phrase aborts the flow from any
// step. An answer that cannot be used (an empty transcript, an amount with no
// valid number) re-prompts the same question instead of advancing.
//
// [Machine] is pure: it holds configuration only, and every call takes the
// current [Session] and returns the next one inside an [Outcome]. The caller
// owns the session and is responsible for dropping it once its step is
// terminal.
package dialogue

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Prompts spoken at each step.
const (
	PromptRecipient = "Who would you like to send tokens to?"
	PromptAmount    = "How much would you like to send?"
	PromptCurrency  = "Which currency? For example, USDT or ETH."

	// MessageCanceled is spoken when the user cancels the flow.
	MessageCanceled = "Transfer canceled."
)

var (
	// ErrInvalidAmount is reported when an amount answer contains no
	// positive number.
	ErrInvalidAmount = errors.New("dialogue: invalid amount")

	// ErrEmptyAnswer is reported when an answer is blank.
	ErrEmptyAnswer = errors.New("dialogue: empty answer")

	// ErrNoSession is reported when Advance is called without an active
	// session.
	ErrNoSession = errors.New("dialogue: no active session")
)

// DefaultCancelPhrases are used when no phrases are configured.
var DefaultCancelPhrases = []string{"cancel", "never mind"}

// CurrencyResolver maps a spoken currency answer to a ticker. matched is
// informational; the returned ticker is always used.
type CurrencyResolver interface {
	Resolve(spoken string) (ticker string, matched bool)
}

// Outcome is the result of feeding one answer to the machine.
type Outcome struct {
	// Session is the updated session. Its step may be terminal.
	Session Session

	// Prompt is the next question to speak. On a re-prompt it repeats the
	// current question. Empty once the session is terminal.
	Prompt string

	// Err explains a re-prompt (ErrInvalidAmount, ErrEmptyAnswer) or is
	// ErrNoSession. Nil when the session advanced.
	Err error

	// Transfer is set when the session reached StepCompleted.
	Transfer *TransferRequest

	// Canceled reports that a cancel phrase aborted the session.
	Canceled bool
}

// Option is a functional option for configuring a [Machine].
type Option func(*Machine)

// WithCancelPhrases replaces the cancel phrases. Phrases are matched as whole
// words, case-insensitively. An empty list keeps the defaults.
func WithCancelPhrases(phrases []string) Option {
	return func(m *Machine) {
		var out []string
		for _, p := range phrases {
			if p = normalizeWords(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			m.cancelPhrases = out
		}
	}
}

// WithCurrencyResolver sets the resolver used for the currency answer. Without
// one the answer is trimmed and upper-cased.
func WithCurrencyResolver(r CurrencyResolver) Option {
	return func(m *Machine) {
		m.currency = r
	}
}

// Machine drives transfer sessions. It is immutable after construction and
// safe for concurrent use.
type Machine struct {
	cancelPhrases []string
	currency      CurrencyResolver
}

// New returns a Machine with the given options applied.
func New(opts ...Option) *Machine {
	m := &Machine{}
	for _, p := range DefaultCancelPhrases {
		m.cancelPhrases = append(m.cancelPhrases, normalizeWords(p))
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start opens a new session in StepAwaitingRecipient and returns it with the
// first prompt.
func (m *Machine) Start() (Session, string) {
	s := Session{Step: StepAwaitingRecipient}
	return s, s.Prompt()
}

// Advance feeds one transcript to the session.
func (m *Machine) Advance(s Session, transcript string) Outcome {
	if !s.Step.Active() {
		return Outcome{Session: s, Err: ErrNoSession}
	}
	if m.IsCancel(transcript) {
		return Outcome{Session: m.Abort(s), Canceled: true}
	}

	answer := trimAnswer(transcript)
	if answer == "" {
		return Outcome{Session: s, Prompt: s.Prompt(), Err: ErrEmptyAnswer}
	}

	switch s.Step {
	case StepAwaitingRecipient:
		s.Recipient = answer
		s.Step = StepAwaitingAmount

	case StepAwaitingAmount:
		amount, err := ParseAmount(answer)
		if err != nil {
			return Outcome{Session: s, Prompt: s.Prompt(), Err: err}
		}
		s.Amount = amount
		s.Step = StepAwaitingCurrency

	case StepAwaitingCurrency:
		s.Currency = m.resolveCurrency(answer)
		if s.Currency == "" {
			return Outcome{Session: s, Prompt: s.Prompt(), Err: ErrEmptyAnswer}
		}
		s.Step = StepCompleted
		return Outcome{
			Session:  s,
			Transfer: &TransferRequest{Recipient: s.Recipient, Amount: s.Amount, Currency: s.Currency},
		}
	}
	return Outcome{Session: s, Prompt: s.Prompt()}
}

// Abort moves s to StepAborted, keeping the collected fields for logging.
func (m *Machine) Abort(s Session) Session {
	s.Step = StepAborted
	return s
}

// IsCancel reports whether transcript contains a cancel phrase as whole words.
func (m *Machine) IsCancel(transcript string) bool {
	padded := " " + normalizeWords(transcript) + " "
	if padded == "  " {
		return false
	}
	for _, p := range m.cancelPhrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

func (m *Machine) resolveCurrency(answer string) string {
	if m.currency != nil {
		t, _ := m.currency.Resolve(answer)
		return t
	}
	return strings.ToUpper(answer)
}

// ParseAmount extracts a positive number from s by discarding every rune that
// is not a digit or a decimal point. "10.5 tokens" yields 10.5; "banana",
// "0" and "1.2.3" yield ErrInvalidAmount.
func ParseAmount(s string) (float64, error) {
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// trimAnswer strips surrounding whitespace and the trailing punctuation that
// recognisers append to utterances.
func trimAnswer(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".,!?;:"))
}

// normalizeWords lower-cases s, turns punctuation into spaces and collapses
// runs of whitespace.
func normalizeWords(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
