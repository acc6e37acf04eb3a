// Package voicecmd resolves final speech transcripts into command definitions.
//
// Matching is deliberately simple: the transcript and every pattern are
// normalised (lower-cased, trimmed) and a command matches when any of its
// patterns is a substring of the transcript or the transcript is a substring
// of the pattern. Commands are tried in declaration order and the first match
// wins, so specific commands must be declared before generic ones.
//
// [Match] is a pure function. [Registry] holds the active command set and
// allows it to be swapped atomically on config reload.
package voicecmd

import "strings"

// Flow names a multi-turn dialogue a command can start.
type Flow string

const (
	// FlowNone marks a one-shot command.
	FlowNone Flow = ""

	// FlowTransfer starts the guided token transfer dialogue.
	FlowTransfer Flow = "transfer"
)

// IsValid reports whether f is a recognised flow.
func (f Flow) IsValid() bool {
	return f == FlowNone || f == FlowTransfer
}

// Action is the effect a command triggers. It is declarative so that command
// tables can be loaded from configuration; the dispatcher interprets it.
type Action struct {
	// Route is the navigation target (e.g., "/wallet"). Empty means no
	// navigation.
	Route string

	// Reply is read aloud after the action ran. Ignored for flow commands,
	// which speak the first dialogue prompt instead.
	Reply string

	// Flow, when set, starts a dialogue session after navigating.
	Flow Flow
}

// StartsFlow reports whether the action opens a dialogue session.
func (a Action) StartsFlow() bool {
	return a.Flow != FlowNone
}

// Command is a single voice command definition.
type Command struct {
	// Name is a short identifier used in logs and metrics.
	Name string

	// Patterns are the phrases that trigger the command. Compared
	// case-insensitively. Must be non-empty.
	Patterns []string

	// Action is executed when the command matches.
	Action Action

	// Description is used in announcements ("Command recognized: ...").
	Description string
}

// Normalize lower-cases and trims s. No stemming or fuzzy folding is applied.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Matches reports whether the normalised transcript matches any of c's
// patterns in either substring direction. An empty transcript never matches.
func (c Command) Matches(normalized string) bool {
	if normalized == "" {
		return false
	}
	for _, p := range c.Patterns {
		np := Normalize(p)
		if np == "" {
			continue
		}
		if strings.Contains(normalized, np) || strings.Contains(np, normalized) {
			return true
		}
	}
	return false
}

// Match returns the first command in commands that matches transcript.
// ok is false when nothing matches.
func Match(transcript string, commands []Command) (cmd Command, ok bool) {
	normalized := Normalize(transcript)
	for _, c := range commands {
		if c.Matches(normalized) {
			return c, true
		}
	}
	return Command{}, false
}
