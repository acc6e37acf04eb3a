// Package mock provides a test double for the stt.Recognizer interface.
//
// Recognizer records Start/Stop calls and keeps the handler of the active
// session so tests can drive it with Emit (or the Final/Fail/End helpers).
//
// Example:
//
//	rec := &mock.Recognizer{SupportedValue: true}
//	_ = ctrl.Start(ctx)
//	rec.Final("go to wallet", 0.92)
package mock

import (
	"context"
	"sync"

	"github.com/Kingvic300/Inkluziv--wallet/pkg/provider/stt"
)

// StartCall records a single invocation of Recognizer.Start.
type StartCall struct {
	// Ctx is the context passed to Start.
	Ctx context.Context
	// Opts is the Options value passed to Start.
	Opts stt.Options
}

// Recognizer is a mock implementation of stt.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// SupportedValue is returned by Supported.
	SupportedValue bool

	// StartErr, if non-nil, is returned by Start and no session is opened.
	StartErr error

	// StopErr, if non-nil, is returned by Stop.
	StopErr error

	// EmitStartEvent makes Start deliver an EventStart synchronously before
	// returning, like browsers that fire onstart immediately.
	EmitStartEvent bool

	// --- Call records ---

	// StartCalls records every call to Start in order.
	StartCalls []StartCall

	// StopCallCount is the number of times Stop was called.
	StopCallCount int

	handler stt.EventHandler
}

// Supported returns SupportedValue.
func (r *Recognizer) Supported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.SupportedValue
}

// Start records the call and remembers h as the active handler.
func (r *Recognizer) Start(ctx context.Context, opts stt.Options, h stt.EventHandler) error {
	r.mu.Lock()
	r.StartCalls = append(r.StartCalls, StartCall{Ctx: ctx, Opts: opts})
	if r.StartErr != nil {
		err := r.StartErr
		r.mu.Unlock()
		return err
	}
	r.handler = h
	emit := r.EmitStartEvent
	r.mu.Unlock()

	if emit {
		h(stt.Event{Kind: stt.EventStart})
	}
	return nil
}

// Stop records the call and returns StopErr. The handler is kept so tests can
// verify that late events from a stopped session are ignored.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StopCallCount++
	return r.StopErr
}

// Emit delivers ev to the handler of the most recent session. It is a no-op
// when Start has never succeeded.
func (r *Recognizer) Emit(ev stt.Event) {
	r.mu.Lock()
	h := r.handler
	r.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// Partial emits a non-final result.
func (r *Recognizer) Partial(text string) {
	r.Emit(stt.Event{Kind: stt.EventResult, Result: stt.Result{Transcript: text}})
}

// Final emits a final result followed by the end of the session.
func (r *Recognizer) Final(text string, confidence float64) {
	r.Emit(stt.Event{Kind: stt.EventResult, Result: stt.Result{Transcript: text, Confidence: confidence, IsFinal: true}})
	r.End()
}

// Fail emits a recognition error for code followed by the end of the session.
func (r *Recognizer) Fail(code string) {
	r.Emit(stt.Event{Kind: stt.EventError, Err: stt.NewRecognitionError(code)})
	r.End()
}

// End emits the end of the session.
func (r *Recognizer) End() {
	r.Emit(stt.Event{Kind: stt.EventEnd})
}

// StartCallCount returns the number of Start calls. Thread-safe.
func (r *Recognizer) StartCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.StartCalls)
}

// StopCalls returns the number of Stop calls. Thread-safe.
func (r *Recognizer) StopCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.StopCallCount
}

// ResetCalls clears all recorded calls. Thread-safe.
func (r *Recognizer) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartCalls = nil
	r.StopCallCount = 0
}

// Ensure Recognizer implements stt.Recognizer at compile time.
var _ stt.Recognizer = (*Recognizer)(nil)
