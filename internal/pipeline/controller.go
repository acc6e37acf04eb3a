// Package pipeline wires speech capture to command matching, the transfer
// dialogue and the dispatcher.
//
// A [Controller] owns the pipeline state of one UI session. All state lives
// on a single event-loop goroutine: public methods, recogniser callbacks and
// timer callbacks are posted to an unbounded FIFO mailbox and run there one
// at a time, so no state is ever touched concurrently and posting never
// blocks (recognisers may call back synchronously from inside Start).
//
// Every capture session and every scheduled timer carries a token. Events
// from a stopped session and timers that were superseded are recognised by
// their stale token and ignored.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kingvic300/Inkluziv--wallet/internal/dialogue"
	"github.com/Kingvic300/Inkluziv--wallet/internal/dispatch"
	"github.com/Kingvic300/Inkluziv--wallet/internal/feedback"
	"github.com/Kingvic300/Inkluziv--wallet/internal/observe"
	"github.com/Kingvic300/Inkluziv--wallet/internal/voicecmd"
	"github.com/Kingvic300/Inkluziv--wallet/pkg/provider/stt"
)

// Announcements emitted by the controller.
const (
	MessageUnsupported = "Voice commands not supported in this browser"
	MessageDisabled    = "Voice commands are disabled. Enable them in settings."
	MessageListening   = "Listening for voice command"
	MessageStopped     = "Voice command stopped"
	MessageTimedOut    = "Voice recognition timed out"
)

var (
	// ErrClosed is returned by every method once the controller is closed.
	ErrClosed = errors.New("pipeline: controller closed")

	// ErrUnsupported is returned by Start when the recogniser reports no
	// capture capability.
	ErrUnsupported = errors.New("pipeline: speech recognition not supported")

	// ErrDisabled is returned by Start when voice commands are disabled.
	ErrDisabled = errors.New("pipeline: voice commands disabled")

	// ErrBusy is returned by Execute while a previous command is still being
	// processed.
	ErrBusy = errors.New("pipeline: busy processing a command")
)

// CommandSet resolves transcripts to commands. Implemented by
// [*voicecmd.Registry].
type CommandSet interface {
	Match(transcript string) (voicecmd.Command, bool)
	Commands() []voicecmd.Command
}

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithConfig sets the controller configuration. Zero fields take defaults.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg.withDefaults()
	}
}

// WithClock sets the clock used for all delays. Default: [RealClock].
func WithClock(clk Clock) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

// WithFeedback sets the sink for controller announcements. It should be the
// same sink the dispatcher uses. Default: feedback.Discard.
func WithFeedback(s feedback.Sink) Option {
	return func(c *Controller) {
		c.feedback = s
	}
}

// WithMetrics sets the metrics sink. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithEnabled sets the initial voice-commands setting. Default: true.
func WithEnabled(enabled bool) Option {
	return func(c *Controller) {
		c.state.Enabled = enabled
	}
}

// WithStateObserver registers fn to receive a snapshot after every state
// change. fn runs on the event loop and must not call back into the
// controller.
func WithStateObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// Controller owns the pipeline state of one UI session.
type Controller struct {
	rec      stt.Recognizer
	commands CommandSet
	disp     *dispatch.Dispatcher
	feedback feedback.Sink
	metrics  *observe.Metrics
	clock    Clock
	cfg      Config
	observer func(State)
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// Mailbox.
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	snapshot  atomic.Pointer[State]

	// --- Owned by the event loop ---
	state     State
	stopping  bool
	session   uint64
	listenSeq uint64
	actionSeq uint64
	clearSeq  uint64
	listenTmr Timer
	actionTmr Timer
	clearTmr  Timer
}

// New creates a Controller and starts its event loop. Call Close to release
// it.
func New(rec stt.Recognizer, commands CommandSet, disp *dispatch.Dispatcher, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		rec:      rec,
		commands: commands,
		disp:     disp,
		feedback: feedback.Discard,
		clock:    RealClock{},
		cfg:      DefaultConfig(),
		log:      slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		state:    State{Enabled: true},
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	snap := c.state
	c.snapshot.Store(&snap)

	go c.loop()
	return c
}

// ─── Mailbox ─────────────────────────────────────────────────────────────────

func (c *Controller) loop() {
	defer close(c.done)
	for {
		fn, ok := c.next()
		if !ok {
			return
		}
		fn()
		if c.stopping {
			return
		}
	}
}

func (c *Controller) next() (func(), bool) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			fn := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return fn, true
		}
		c.mu.Unlock()
		<-c.wake
	}
}

// post enqueues fn for the event loop. It never blocks and reports false once
// the controller is closed.
func (c *Controller) post(fn func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, fn)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

// call runs fn on the event loop and waits for its result.
func (c *Controller) call(ctx context.Context, fn func() error) error {
	var err error
	ran := make(chan struct{})
	if !c.post(func() {
		err = fn()
		close(ran)
	}) {
		return ErrClosed
	}

	select {
	case <-ran:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		select {
		case <-ran:
			return err
		default:
			return ErrClosed
		}
	}
}

// schedule arms a timer whose callback runs on the event loop.
func (c *Controller) schedule(d time.Duration, fire func()) Timer {
	return c.clock.AfterFunc(d, func() { c.post(fire) })
}

// ─── Public API ──────────────────────────────────────────────────────────────

// Start opens a capture session. It is a no-op while already listening or
// processing. It returns [ErrUnsupported] or [ErrDisabled] after reporting
// the condition through the feedback sink.
func (c *Controller) Start(ctx context.Context) error {
	return c.call(ctx, c.start)
}

// Stop ends the capture session and discards any partial transcript. The
// dispatcher is never invoked for a stopped session. No-op when idle.
func (c *Controller) Stop(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.state.Listening {
			c.stopSession(MessageStopped)
		}
		return nil
	})
}

// Toggle stops a listening controller and starts an idle one.
func (c *Controller) Toggle(ctx context.Context) error {
	return c.call(ctx, func() error {
		if c.state.Listening {
			c.stopSession(MessageStopped)
			return nil
		}
		return c.start()
	})
}

// Execute runs text through the same path as a final transcript, dialogue
// routing included. An open capture session is closed first. Returns
// [ErrBusy] while a command is being processed.
func (c *Controller) Execute(ctx context.Context, text string) error {
	return c.call(ctx, func() error {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		if c.state.Processing {
			c.metrics.RecordDropped(c.ctx)
			return ErrBusy
		}
		if c.state.Listening {
			c.stopSession("")
		}
		c.state.Transcript = text
		c.state.Confidence = 0
		c.handleTranscript(text)
		return nil
	})
}

// SetEnabled changes the voice-commands setting. Disabling stops an open
// capture session.
func (c *Controller) SetEnabled(ctx context.Context, enabled bool) error {
	return c.call(ctx, func() error {
		c.state.Enabled = enabled
		if !enabled && c.state.Listening {
			c.stopSession(MessageStopped)
			return nil
		}
		c.publish()
		return nil
	})
}

// State returns a snapshot of the pipeline state after every event queued
// before the call has been handled.
func (c *Controller) State(ctx context.Context) (State, error) {
	var s State
	err := c.call(ctx, func() error {
		s = c.state
		return nil
	})
	if errors.Is(err, ErrClosed) {
		return c.Snapshot(), err
	}
	return s, err
}

// Snapshot returns the most recently published state without waiting for
// the event loop.
func (c *Controller) Snapshot() State {
	return *c.snapshot.Load()
}

// Commands returns the active command set.
func (c *Controller) Commands() []voicecmd.Command {
	return c.commands.Commands()
}

// Close cancels all timers, stops an open capture session and terminates the
// event loop. Safe to call more than once.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		posted := c.post(func() {
			c.cancelTimers()
			if c.state.Listening {
				c.session++
				if err := c.rec.Stop(); err != nil {
					c.log.Warn("pipeline: stop recognizer on close", "err", err)
				}
			}
			c.state.Listening = false
			c.state.Processing = false
			c.state.Dialogue = dialogue.Session{}
			c.publish()

			c.mu.Lock()
			c.closed = true
			c.queue = nil
			c.mu.Unlock()
			c.stopping = true
		})
		if posted {
			<-c.done
		}
		c.cancel()
	})
	return nil
}

// ─── Event-loop handlers ─────────────────────────────────────────────────────

func (c *Controller) start() error {
	if !c.rec.Supported() {
		c.feedback.Announce(MessageUnsupported)
		c.feedback.Status(feedback.Status{Kind: feedback.StatusError, Detail: MessageUnsupported})
		return ErrUnsupported
	}
	if !c.state.Enabled {
		c.feedback.Announce(MessageDisabled)
		c.feedback.Status(feedback.Status{Kind: feedback.StatusError, Detail: MessageDisabled})
		return ErrDisabled
	}
	if c.state.Listening || c.state.Processing {
		c.log.Debug("pipeline: start ignored", "phase", c.state.Phase().String())
		return nil
	}

	c.session++
	token := c.session
	c.state.Listening = true
	c.state.Transcript = ""
	c.state.Confidence = 0
	c.state.LastError = ""
	c.cancelClear()

	opts := stt.Options{
		Continuous:     c.cfg.Continuous,
		InterimResults: c.cfg.InterimResults,
		Language:       c.cfg.Language,
		Timeout:        c.cfg.ListenTimeout,
	}
	if err := c.rec.Start(c.ctx, opts, c.handler(token)); err != nil {
		c.session++
		c.state.Listening = false
		c.state.LastError = err.Error()
		c.feedback.Announce("Voice recognition error: " + err.Error())
		c.feedback.Status(feedback.Status{Kind: feedback.StatusError, Detail: err.Error()})
		c.publish()
		return fmt.Errorf("pipeline: start recognizer: %w", err)
	}

	c.feedback.Announce(MessageListening)
	c.feedback.Status(feedback.Status{Kind: feedback.StatusListening})
	c.armListenTimeout(token)
	c.publish()
	return nil
}

// handler returns the recogniser callback for the session with token.
func (c *Controller) handler(token uint64) stt.EventHandler {
	return func(ev stt.Event) {
		c.post(func() { c.handleEvent(token, ev) })
	}
}

func (c *Controller) handleEvent(token uint64, ev stt.Event) {
	if token != c.session {
		c.log.Debug("pipeline: stale recognizer event ignored", "kind", ev.Kind.String())
		return
	}

	switch ev.Kind {
	case stt.EventStart:
		// Listening was already set by start.

	case stt.EventResult:
		if !c.state.Listening {
			return
		}
		c.onResult(ev.Result)

	case stt.EventError:
		c.onError(ev.Err)

	case stt.EventEnd:
		if c.state.Listening {
			c.state.Listening = false
			c.cancelListen()
			c.publish()
		}
	}
}

func (c *Controller) onResult(r stt.Result) {
	if !r.IsFinal {
		c.state.Transcript = r.Transcript
		c.state.Confidence = r.Confidence
		c.publish()
		return
	}

	text := strings.TrimSpace(r.Transcript)
	if text == "" {
		return
	}
	c.cancelListen()
	if !c.cfg.Continuous {
		c.state.Listening = false
	}
	if c.state.Processing {
		c.log.Debug("pipeline: final transcript dropped while processing", "transcript", text)
		c.metrics.RecordDropped(c.ctx)
		c.publish()
		return
	}

	c.state.Transcript = text
	c.state.Confidence = r.Confidence
	c.handleTranscript(text)
}

func (c *Controller) onError(e *stt.RecognitionError) {
	if e == nil {
		e = stt.NewRecognitionError("unknown")
	}
	c.cancelListen()
	c.state.Listening = false
	c.state.LastError = e.Message
	c.metrics.RecordRecognitionError(c.ctx, e.Code)
	c.log.Info("pipeline: recognition error", "code", e.Code)

	c.feedback.Announce("Voice recognition error: " + e.Message)
	c.feedback.Status(feedback.Status{Kind: feedback.StatusError, Detail: e.Message})
	c.publish()
}

// handleTranscript routes a final transcript to the active dialogue or the
// command matcher.
func (c *Controller) handleTranscript(text string) {
	c.feedback.Announce("Voice input received: " + text)
	c.feedback.Status(feedback.Status{Kind: feedback.StatusReceived, Detail: text})

	if c.state.DialogueActive() {
		c.state.Processing = true
		c.publish()

		next := c.disp.Answer(c.ctx, c.state.Dialogue, text)
		if next.Step.Terminal() {
			next = dialogue.Session{}
		}
		c.state.Dialogue = next
		c.state.Processing = false
		c.state.Transcript = ""
		c.rearmListen()
		c.publish()
		return
	}

	cmd, ok := c.commands.Match(text)
	if !ok {
		c.disp.NotRecognized(c.ctx, text)
		c.armClear(text)
		c.rearmListen()
		c.publish()
		return
	}

	c.state.Processing = true
	c.disp.Acknowledge(cmd)

	c.actionSeq++
	token := c.actionSeq
	c.actionTmr = c.schedule(c.cfg.FeedbackDelay, func() {
		if token != c.actionSeq {
			return
		}
		c.actionTmr = nil
		c.runAction(cmd)
	})
	c.publish()
}

func (c *Controller) runAction(cmd voicecmd.Command) {
	session := c.disp.Execute(c.ctx, cmd)
	if session.Step.Active() {
		c.state.Dialogue = session
	}
	c.state.Processing = false
	c.state.Transcript = ""
	c.rearmListen()
	c.publish()
}

// stopSession closes the capture session. An empty message suppresses the
// announcement.
func (c *Controller) stopSession(message string) {
	c.session++
	c.cancelListen()
	c.state.Listening = false
	c.state.Transcript = ""
	c.state.Confidence = 0
	if err := c.rec.Stop(); err != nil {
		c.log.Warn("pipeline: stop recognizer", "err", err)
	}
	if message != "" {
		c.feedback.Announce(message)
	}
	c.publish()
}

// ─── Timers ──────────────────────────────────────────────────────────────────

func (c *Controller) armListenTimeout(session uint64) {
	c.cancelListen()
	c.listenSeq++
	token := c.listenSeq
	c.listenTmr = c.schedule(c.cfg.ListenTimeout, func() {
		if token != c.listenSeq || session != c.session || !c.state.Listening {
			return
		}
		c.listenTmr = nil
		c.log.Debug("pipeline: listen timeout")
		c.stopSession(MessageTimedOut)
	})
}

// rearmListen restarts the listen timeout of a continuous session that is
// still open once a transcript has been handled.
func (c *Controller) rearmListen() {
	if c.state.Listening {
		c.armListenTimeout(c.session)
	}
}

func (c *Controller) armClear(text string) {
	c.cancelClear()
	c.clearSeq++
	token := c.clearSeq
	c.clearTmr = c.schedule(c.cfg.ClearDelay, func() {
		if token != c.clearSeq {
			return
		}
		c.clearTmr = nil
		if c.state.Transcript == text {
			c.state.Transcript = ""
			c.state.Confidence = 0
			c.publish()
		}
	})
}

func (c *Controller) cancelListen() {
	c.listenSeq++
	if c.listenTmr != nil {
		c.listenTmr.Stop()
		c.listenTmr = nil
	}
}

func (c *Controller) cancelClear() {
	c.clearSeq++
	if c.clearTmr != nil {
		c.clearTmr.Stop()
		c.clearTmr = nil
	}
}

func (c *Controller) cancelTimers() {
	c.cancelListen()
	c.cancelClear()
	c.actionSeq++
	if c.actionTmr != nil {
		c.actionTmr.Stop()
		c.actionTmr = nil
	}
}

// publish stores a snapshot and notifies the observer.
func (c *Controller) publish() {
	snap := c.state
	c.snapshot.Store(&snap)
	if c.observer != nil {
		c.observer(snap)
	}
}
