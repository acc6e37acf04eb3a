// Package console runs a voice pipeline session in a terminal.
//
// Every input line stands in for one spoken utterance: the session opens a
// capture session and delivers the line as a final result, so it takes
// exactly the path a recognised transcript would. Lines starting with ':'
// are control commands (:stop, :toggle, :help, :quit). Speech output,
// navigation and announcements are printed.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Kingvic300/Inkluziv--wallet/internal/dialogue"
	"github.com/Kingvic300/Inkluziv--wallet/internal/dispatch"
	"github.com/Kingvic300/Inkluziv--wallet/internal/feedback"
	"github.com/Kingvic300/Inkluziv--wallet/internal/observe"
	"github.com/Kingvic300/Inkluziv--wallet/internal/pipeline"
	"github.com/Kingvic300/Inkluziv--wallet/pkg/provider/stt"
)

// ErrQuit is returned by Run when the user typed :quit.
var ErrQuit = errors.New("console: quit")

// ─── Recognizer ──────────────────────────────────────────────────────────────

// Recognizer turns typed lines into recognition results. It is always
// supported.
type Recognizer struct {
	mu      sync.Mutex
	handler stt.EventHandler
	active  bool
}

var _ stt.Recognizer = (*Recognizer)(nil)

// Supported implements [stt.Recognizer].
func (r *Recognizer) Supported() bool { return true }

// Start implements [stt.Recognizer].
func (r *Recognizer) Start(_ context.Context, _ stt.Options, h stt.EventHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
	r.active = true
	return nil
}

// Stop implements [stt.Recognizer].
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	return nil
}

// Deliver emits text as the final result of the open session followed by the
// end of the session. It reports false when no session is open.
func (r *Recognizer) Deliver(text string) bool {
	r.mu.Lock()
	h, active := r.handler, r.active
	r.active = false
	r.mu.Unlock()

	if !active || h == nil {
		return false
	}
	h(stt.Event{Kind: stt.EventResult, Result: stt.Result{Transcript: text, Confidence: 1, IsFinal: true}})
	h(stt.Event{Kind: stt.EventEnd})
	return true
}

// ─── Terminal output ─────────────────────────────────────────────────────────

// Terminal prints pipeline output. It is the session's speaker, navigator
// and feedback sink.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

// Speak implements tts.Speaker.
func (t *Terminal) Speak(_ context.Context, text string) error {
	t.printf("[speak] %s\n", text)
	return nil
}

// Navigate implements dispatch.Navigator.
func (t *Terminal) Navigate(_ context.Context, route string) error {
	t.printf("[navigate] %s\n", route)
	return nil
}

// Announce implements [feedback.Sink].
func (t *Terminal) Announce(message string) {
	t.printf("[announce] %s\n", message)
}

// Status implements [feedback.Sink]. Only errors are printed; the other
// kinds duplicate announcements.
func (t *Terminal) Status(s feedback.Status) {
	if s.Kind == feedback.StatusError && s.Detail != "" {
		t.printf("[error] %s\n", s.Detail)
	}
}

// ─── Session ─────────────────────────────────────────────────────────────────

// Option is a functional option for configuring a [Session].
type Option func(*Session)

// WithMachine sets the dialogue machine.
func WithMachine(m *dialogue.Machine) Option {
	return func(s *Session) { s.machine = m }
}

// WithPipelineConfig sets the controller configuration.
func WithPipelineConfig(cfg pipeline.Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithExtraSink adds a feedback sink next to the terminal (e.g. a journal).
func WithExtraSink(sink feedback.Sink) Option {
	return func(s *Session) { s.extra = append(s.extra, sink) }
}

// WithEnabled sets the initial voice-commands setting. Default: true.
func WithEnabled(enabled bool) Option {
	return func(s *Session) { s.enabled = enabled }
}

// WithClock sets the controller clock.
func WithClock(c pipeline.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// Session is one terminal UI session.
type Session struct {
	rec  *Recognizer
	term *Terminal
	ctrl *pipeline.Controller

	machine *dialogue.Machine
	cfg     pipeline.Config
	metrics *observe.Metrics
	clock   pipeline.Clock
	enabled bool
	extra   []feedback.Sink
}

// New creates a Session printing to out. commands and w may be shared with
// other sessions.
func New(out io.Writer, commands pipeline.CommandSet, w dispatch.Wallet, opts ...Option) *Session {
	s := &Session{
		rec:     &Recognizer{},
		term:    NewTerminal(out),
		cfg:     pipeline.DefaultConfig(),
		enabled: true,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	sinks := append(feedback.Fanout{s.term}, s.extra...)
	dispOpts := []dispatch.Option{dispatch.WithMetrics(s.metrics)}
	if s.machine != nil {
		dispOpts = append(dispOpts, dispatch.WithMachine(s.machine))
	}
	disp := dispatch.New(dispatch.Capabilities{
		Navigator: s.term,
		Wallet:    w,
		Speaker:   s.term,
		Feedback:  sinks,
	}, dispOpts...)

	ctrlOpts := []pipeline.Option{
		pipeline.WithConfig(s.cfg),
		pipeline.WithEnabled(s.enabled),
		pipeline.WithFeedback(sinks),
		pipeline.WithMetrics(s.metrics),
	}
	if s.clock != nil {
		ctrlOpts = append(ctrlOpts, pipeline.WithClock(s.clock))
	}
	s.ctrl = pipeline.New(s.rec, commands, disp, ctrlOpts...)
	return s
}

// Controller returns the session's controller.
func (s *Session) Controller() *pipeline.Controller {
	return s.ctrl
}

// Run reads lines from in until EOF, :quit or ctx cancellation. It returns
// nil on EOF and cancellation and [ErrQuit] on :quit.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	s.term.printf("Type what you would say. :help lists commands.\n")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("console: read input: %w", err)
			}
			return nil
		case line := <-lines:
			if err := s.handleLine(ctx, strings.TrimSpace(line)); err != nil {
				return err
			}
		}
	}
}

// HandleLine processes one input line.
func (s *Session) HandleLine(ctx context.Context, line string) error {
	return s.handleLine(ctx, strings.TrimSpace(line))
}

func (s *Session) handleLine(ctx context.Context, line string) error {
	switch line {
	case "":
		return nil
	case ":quit", ":q":
		return ErrQuit
	case ":stop":
		return s.ctrl.Stop(ctx)
	case ":toggle":
		return s.ctrl.Toggle(ctx)
	case ":help":
		s.printHelp()
		return nil
	}

	if err := s.ctrl.Start(ctx); err != nil {
		if errors.Is(err, pipeline.ErrDisabled) || errors.Is(err, pipeline.ErrUnsupported) {
			return nil
		}
		return err
	}
	if !s.rec.Deliver(line) {
		s.term.printf("[busy] still processing the previous command\n")
	}
	return nil
}

func (s *Session) printHelp() {
	s.term.printf("Control: :stop :toggle :help :quit\n")
	for _, c := range s.ctrl.Commands() {
		s.term.printf("  %-18s %s (say: %s)\n", c.Name, c.Description, strings.Join(c.Patterns, ", "))
	}
}

// Close releases the session's controller.
func (s *Session) Close() error {
	return s.ctrl.Close()
}
