// Package web bridges browser UI sessions to the voice pipeline.
//
// Each WebSocket connection on /ws is one UI session with its own
// [pipeline.Controller]. The browser performs speech capture and synthesis
// (Web Speech API) and renders announcements; the server owns matching,
// the transfer dialogue and the wallet. Frames are JSON objects with a
// "type" field; see protocol.go for the full set.
//
// The package also serves two read-only JSON endpoints: /api/commands lists
// the active command table and /api/wallet returns balances and history.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Kingvic300/Inkluziv--wallet/internal/dialogue"
	"github.com/Kingvic300/Inkluziv--wallet/internal/dispatch"
	"github.com/Kingvic300/Inkluziv--wallet/internal/feedback"
	"github.com/Kingvic300/Inkluziv--wallet/internal/observe"
	"github.com/Kingvic300/Inkluziv--wallet/internal/pipeline"
	"github.com/Kingvic300/Inkluziv--wallet/internal/wallet"
)

// WalletView exposes wallet data for /api/wallet. Implemented by
// [*wallet.Memory].
type WalletView interface {
	Balances() []wallet.Balance
	Transactions() []wallet.Transaction
}

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithWalletView enables /api/wallet.
func WithWalletView(v WalletView) Option {
	return func(s *Server) {
		s.view = v
	}
}

// WithMachine sets the dialogue machine shared by all sessions.
func WithMachine(m *dialogue.Machine) Option {
	return func(s *Server) {
		s.machine = func() *dialogue.Machine { return m }
	}
}

// WithMachineSource sets the source of the dialogue machine. Like
// [WithPipelineConfig] it is consulted once per new connection.
func WithMachineSource(fn func() *dialogue.Machine) Option {
	return func(s *Server) {
		s.machine = fn
	}
}

// WithPipelineConfig sets the source of per-session pipeline settings. It is
// called for every new connection so that reloaded settings apply to new
// sessions.
func WithPipelineConfig(fn func() pipeline.Config) Option {
	return func(s *Server) {
		s.pipelineCfg = fn
	}
}

// WithVoiceEnabled sets the source of the initial voice-commands setting for
// new sessions. Default: enabled.
func WithVoiceEnabled(fn func() bool) Option {
	return func(s *Server) {
		s.enabled = fn
	}
}

// WithJournal records every session's feedback to j.
func WithJournal(j *feedback.Journal) Option {
	return func(s *Server) {
		s.journal = j
	}
}

// WithMetrics sets the metrics sink. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithOriginPatterns sets the host patterns accepted for cross-origin
// WebSocket upgrades (see [websocket.AcceptOptions]).
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) {
		s.origins = patterns
	}
}

// WithFrameRate limits the frames one connection may send. Frames over the
// limit are answered with an error frame and dropped. Default: 20/s with a
// burst of 40.
func WithFrameRate(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.frameRate = limit
		s.frameBurst = burst
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// Server serves the voice bridge and the JSON API.
type Server struct {
	commands    pipeline.CommandSet
	wallet      dispatch.Wallet
	view        WalletView
	machine     func() *dialogue.Machine
	pipelineCfg func() pipeline.Config
	enabled     func() bool
	journal     *feedback.Journal
	metrics     *observe.Metrics
	origins     []string
	frameRate   rate.Limit
	frameBurst  int
	log         *slog.Logger
}

// New creates a Server. commands and w are shared by every session.
func New(commands pipeline.CommandSet, w dispatch.Wallet, opts ...Option) *Server {
	s := &Server{
		commands:    commands,
		wallet:      w,
		pipelineCfg: pipeline.DefaultConfig,
		enabled:     func() bool { return true },
		frameRate:   20,
		frameBurst:  40,
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.machine == nil {
		m := dialogue.New()
		s.machine = func() *dialogue.Machine { return m }
	}
	return s
}

// Register adds the bridge and API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/commands", s.handleCommands)
	mux.HandleFunc("GET /api/wallet", s.handleWallet)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.log.Warn("web: websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	id := uuid.NewString()
	sess := newSession(id, conn, s.log, rate.NewLimiter(s.frameRate, s.frameBurst))

	sinks := feedback.Fanout{sess, feedback.LogSink{Logger: sess.log}}
	if s.journal != nil {
		sinks = append(sinks, s.journal.ForSession(id))
	}
	disp := dispatch.New(dispatch.Capabilities{
		Navigator: sess,
		Wallet:    s.wallet,
		Speaker:   sess,
		Feedback:  sinks,
	}, dispatch.WithMachine(s.machine()), dispatch.WithMetrics(s.metrics))

	sess.ctrl = pipeline.New(sess.rec, s.commands, disp,
		pipeline.WithConfig(s.pipelineCfg()),
		pipeline.WithEnabled(s.enabled()),
		pipeline.WithFeedback(sinks),
		pipeline.WithMetrics(s.metrics),
		pipeline.WithStateObserver(sess.observe),
		pipeline.WithLogger(sess.log),
	)

	// Detached from the request so that metric updates on teardown are not
	// lost to a cancelled context.
	mctx := context.WithoutCancel(r.Context())
	s.metrics.ActiveSessions.Add(mctx, 1)
	defer s.metrics.ActiveSessions.Add(mctx, -1)
	sess.log.Info("web: session opened", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sess.writeLoop(ctx)
	}()

	readErr := sess.readLoop(ctx)

	_ = sess.ctrl.Close()
	sess.close()
	cancel()
	<-writerDone

	if readErr != nil {
		sess.log.Info("web: session closed", "err", readErr)
		conn.Close(websocket.StatusInternalError, "read failed")
		return
	}
	sess.log.Info("web: session closed")
	conn.Close(websocket.StatusNormalClosure, "")
}

type commandInfo struct {
	Name        string   `json:"name"`
	Patterns    []string `json:"patterns"`
	Description string   `json:"description"`
	Route       string   `json:"route,omitempty"`
	Flow        string   `json:"flow,omitempty"`
}

func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	cmds := s.commands.Commands()
	out := make([]commandInfo, len(cmds))
	for i, c := range cmds {
		out[i] = commandInfo{
			Name:        c.Name,
			Patterns:    c.Patterns,
			Description: c.Description,
			Route:       c.Action.Route,
			Flow:        string(c.Action.Flow),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": out})
}

func (s *Server) handleWallet(w http.ResponseWriter, _ *http.Request) {
	if s.view == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "wallet view not configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balances":     s.view.Balances(),
		"transactions": s.view.Transactions(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
