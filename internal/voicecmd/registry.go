package voicecmd

import (
	"sync/atomic"
)

// Registry holds the active command set. Readers always see a complete,
// immutable snapshot; Replace swaps the whole set at once.
//
// All methods are safe for concurrent use.
type Registry struct {
	commands atomic.Pointer[[]Command]
}

// NewRegistry returns a Registry holding a copy of commands. A nil or empty
// slice installs [Defaults].
func NewRegistry(commands []Command) *Registry {
	r := &Registry{}
	r.Replace(commands)
	return r
}

// Commands returns the current snapshot. Callers must not modify it.
func (r *Registry) Commands() []Command {
	p := r.commands.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Replace installs a copy of commands. A nil or empty slice installs
// [Defaults].
func (r *Registry) Replace(commands []Command) {
	if len(commands) == 0 {
		commands = Defaults()
	}
	cp := make([]Command, len(commands))
	for i, c := range commands {
		c.Patterns = append([]string(nil), c.Patterns...)
		cp[i] = c
	}
	r.commands.Store(&cp)
}

// Match resolves transcript against the current snapshot.
func (r *Registry) Match(transcript string) (Command, bool) {
	return Match(transcript, r.Commands())
}
