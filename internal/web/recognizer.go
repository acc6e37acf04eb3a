package web

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Kingvic300/Inkluziv--wallet/pkg/provider/stt"
)

// errSessionGone is returned when a frame cannot be queued because the
// connection is closing.
var errSessionGone = errors.New("web: session closed")

// remoteRecognizer drives the browser's speech recognition API over the
// session's WebSocket. Start and Stop become listen / stop_listening frames;
// result, error, end and speech_start frames from the browser become
// [stt.Event] values for the active handler.
type remoteRecognizer struct {
	send      func(v any) bool
	supported atomic.Bool

	mu      sync.Mutex
	handler stt.EventHandler
	active  bool
}

var _ stt.Recognizer = (*remoteRecognizer)(nil)

func newRemoteRecognizer(send func(v any) bool) *remoteRecognizer {
	return &remoteRecognizer{send: send}
}

// Supported reports what the browser declared in its hello frame.
func (r *remoteRecognizer) Supported() bool {
	return r.supported.Load()
}

// Start asks the browser to begin recognition.
func (r *remoteRecognizer) Start(_ context.Context, opts stt.Options, h stt.EventHandler) error {
	r.mu.Lock()
	r.handler = h
	r.active = true
	r.mu.Unlock()

	if !r.send(listenFrame{
		Type:           TypeListen,
		Continuous:     opts.Continuous,
		InterimResults: opts.InterimResults,
		Language:       opts.Language,
		TimeoutMS:      opts.Timeout.Milliseconds(),
	}) {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
		return errSessionGone
	}
	return nil
}

// Stop asks the browser to abort recognition. The handler is kept: the
// browser may still deliver its end event.
func (r *remoteRecognizer) Stop() error {
	r.mu.Lock()
	wasActive := r.active
	r.active = false
	r.mu.Unlock()

	if !wasActive {
		return nil
	}
	if !r.send(typeFrame{Type: TypeStopListening}) {
		return errSessionGone
	}
	return nil
}

// deliver forwards ev to the handler of the most recent session.
func (r *remoteRecognizer) deliver(ev stt.Event) {
	r.mu.Lock()
	h := r.handler
	if ev.Kind == stt.EventEnd {
		r.active = false
	}
	r.mu.Unlock()

	if h != nil {
		h(ev)
	}
}
