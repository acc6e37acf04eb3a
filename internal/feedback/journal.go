package feedback

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	journalMaxSizeMB  = 10
	journalMaxBackups = 5
)

// Record is a single feedback event written to the journal.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// journalFile is the rotating file shared by a journal and its session
// views.
type journalFile struct {
	mu sync.Mutex
	w  *lumberjack.Logger
}

// Journal appends feedback events as JSON lines to a local file, one line per
// event. The file rotates at 10 MB and keeps five compressed backups. It is
// meant for accessibility audits of demo sessions.
// Thread-safe for concurrent use.
type Journal struct {
	file      *journalFile
	sessionID string
	now       func() time.Time
}

// NewJournal creates a Journal that writes to the given path. The file and
// its directory are created on first write.
func NewJournal(path string) *Journal {
	return &Journal{
		file: &journalFile{w: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    journalMaxSizeMB,
			MaxBackups: journalMaxBackups,
			Compress:   true,
			LocalTime:  true,
		}},
		now: time.Now,
	}
}

// ForSession returns a Journal writing to the same file that tags every
// record with sessionID.
func (j *Journal) ForSession(sessionID string) *Journal {
	return &Journal{file: j.file, sessionID: sessionID, now: j.now}
}

// Announce implements [Sink]. Write errors are logged, not returned.
func (j *Journal) Announce(message string) {
	j.log(Record{Type: "announce", Message: message})
}

// Status implements [Sink]. Write errors are logged, not returned.
func (j *Journal) Status(s Status) {
	j.log(Record{Type: "status", Kind: s.Kind.String(), Detail: s.Detail})
}

func (j *Journal) log(r Record) {
	if err := j.Append(r); err != nil {
		slog.Warn("feedback: journal write failed", "path", j.file.w.Filename, "err", err)
	}
}

// Append writes r to the file, filling in the timestamp and session ID.
func (j *Journal) Append(r Record) error {
	r.Timestamp = j.now().UTC()
	if r.SessionID == "" {
		r.SessionID = j.sessionID
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("feedback: marshal: %w", err)
	}
	data = append(data, '\n')

	j.file.mu.Lock()
	defer j.file.mu.Unlock()
	if _, err := j.file.w.Write(data); err != nil {
		return fmt.Errorf("feedback: write: %w", err)
	}
	return nil
}

// Close closes the underlying file. Session views share it, so close only
// the root journal. A later write reopens the file.
func (j *Journal) Close() error {
	j.file.mu.Lock()
	defer j.file.mu.Unlock()
	return j.file.w.Close()
}

var _ Sink = (*Journal)(nil)
