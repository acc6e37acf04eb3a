package stt

import "fmt"

// EventKind enumerates the callbacks a recognizer may deliver.
type EventKind int

const (
	// EventStart signals that the recognizer is capturing audio.
	EventStart EventKind = iota

	// EventResult carries a partial or final [Result].
	EventResult

	// EventError carries a [RecognitionError]. An EventEnd normally follows.
	EventError

	// EventEnd signals that the listening session is over.
	EventEnd
)

// String returns the lower-case name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is a single callback from a listening session.
type Event struct {
	Kind EventKind

	// Result is set for EventResult.
	Result Result

	// Err is set for EventError.
	Err *RecognitionError
}

// Result is the outcome of one utterance.
type Result struct {
	// Transcript is the recognised text. May be empty.
	Transcript string

	// Confidence is the recogniser's confidence (0.0–1.0). Zero when the
	// backend does not report one.
	Confidence float64

	// IsFinal marks the terminal result of a listening session.
	IsFinal bool
}

// Error codes reported by the Web Speech API. Other backends map their
// failures onto the closest code or pass a free-form one.
const (
	CodeNoSpeech             = "no-speech"
	CodeAudioCapture         = "audio-capture"
	CodeNotAllowed           = "not-allowed"
	CodeNetwork              = "network"
	CodeServiceNotAllowed    = "service-not-allowed"
	CodeBadGrammar           = "bad-grammar"
	CodeLanguageNotSupported = "language-not-supported"
	CodeAborted              = "aborted"
)

// RecognitionError is an adapter-level failure (no speech, permission denied,
// network, ...). Message is suitable for reading out to the user.
type RecognitionError struct {
	Code    string
	Message string
}

// NewRecognitionError builds a RecognitionError whose Message is the
// user-readable text for code.
func NewRecognitionError(code string) *RecognitionError {
	return &RecognitionError{Code: code, Message: MessageFor(code)}
}

// Error implements error.
func (e *RecognitionError) Error() string {
	return fmt.Sprintf("stt: recognition error %q: %s", e.Code, e.Message)
}

// MessageFor converts a recognition error code into a user-friendly message.
func MessageFor(code string) string {
	switch code {
	case CodeNoSpeech:
		return "No speech detected. Please try speaking again."
	case CodeAudioCapture:
		return "Microphone not accessible. Please check your microphone connection."
	case CodeNotAllowed:
		return "Microphone permission denied. Please allow microphone access."
	case CodeNetwork:
		return "Network error occurred. Please check your internet connection."
	case CodeServiceNotAllowed:
		return "Speech recognition service not allowed. Please try again."
	case CodeBadGrammar:
		return "Speech recognition grammar error."
	case CodeLanguageNotSupported:
		return "Language not supported for speech recognition."
	default:
		return "Speech recognition error: " + code
	}
}
