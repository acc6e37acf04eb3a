// Package mock provides a test double for the feedback.Sink interface.
package mock

import (
	"sync"

	"github.com/Kingvic300/Inkluziv--wallet/internal/feedback"
)

// Sink is a mock implementation of feedback.Sink that records every event.
type Sink struct {
	mu sync.Mutex

	// Announcements records every Announce message in order.
	Announcements []string

	// Statuses records every Status event in order.
	Statuses []feedback.Status
}

// Announce records the message.
func (s *Sink) Announce(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Announcements = append(s.Announcements, message)
}

// Status records the event.
func (s *Sink) Status(st feedback.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Statuses = append(s.Statuses, st)
}

// Announced returns a copy of the recorded announcements. Thread-safe.
func (s *Sink) Announced() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Announcements...)
}

// StatusEvents returns a copy of the recorded status events. Thread-safe.
func (s *Sink) StatusEvents() []feedback.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feedback.Status(nil), s.Statuses...)
}

// CountAnnounced returns how many announcements equal message.
func (s *Sink) CountAnnounced(message string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.Announcements {
		if m == message {
			n++
		}
	}
	return n
}

// LastStatus returns the most recent status event and whether one exists.
func (s *Sink) LastStatus() (feedback.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Statuses) == 0 {
		return feedback.Status{}, false
	}
	return s.Statuses[len(s.Statuses)-1], true
}

// Reset clears all recorded events. Thread-safe.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Announcements = nil
	s.Statuses = nil
}

var _ feedback.Sink = (*Sink)(nil)
