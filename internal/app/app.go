// Package app wires all Inkluziv subsystems into a running application.
//
// The App struct owns the full lifecycle: New builds the wallet, command
// table, dialogue machine and HTTP surface from the config, Run serves until
// the context is cancelled, and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithConsoleIO,
// WithLevelVar, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/Kingvic300/Inkluziv--wallet/internal/config"
	"github.com/Kingvic300/Inkluziv--wallet/internal/console"
	"github.com/Kingvic300/Inkluziv--wallet/internal/dialogue"
	"github.com/Kingvic300/Inkluziv--wallet/internal/feedback"
	"github.com/Kingvic300/Inkluziv--wallet/internal/health"
	"github.com/Kingvic300/Inkluziv--wallet/internal/observe"
	"github.com/Kingvic300/Inkluziv--wallet/internal/pipeline"
	"github.com/Kingvic300/Inkluziv--wallet/internal/resilience"
	"github.com/Kingvic300/Inkluziv--wallet/internal/ticker"
	"github.com/Kingvic300/Inkluziv--wallet/internal/voicecmd"
	"github.com/Kingvic300/Inkluziv--wallet/internal/wallet"
	"github.com/Kingvic300/Inkluziv--wallet/internal/web"
)

const (
	drainTimeout      = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// App owns all subsystem lifetimes.
type App struct {
	cfg        *config.Config
	configPath string
	level      *slog.LevelVar
	registry   *prometheus.Registry

	// Subsystems, initialised in New and torn down in Shutdown.
	telemetry *observe.Provider
	metrics   *observe.Metrics
	wallet    *wallet.Memory
	guarded   *wallet.Guarded
	commands  *voicecmd.Registry
	resolver  *ticker.Resolver
	journal   *feedback.Journal
	web       *web.Server
	health    *health.Handler
	httpSrv   *http.Server
	console   *console.Session
	watcher   *config.Watcher

	consoleIn  io.Reader
	consoleOut io.Writer

	newMetrics func(metric.MeterProvider) (*observe.Metrics, error)

	// Reloadable voice settings, read once per new session.
	voice   atomic.Pointer[config.VoiceConfig]
	machine atomic.Pointer[dialogue.Machine]

	addr  atomic.Pointer[net.Addr]
	ready chan struct{}

	// endSessions cancels the request context of every open WebSocket
	// session; http.Server.Shutdown does not wait for hijacked connections.
	endSessions context.CancelFunc

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithConfigPath enables hot reload of the file at path.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithLevelVar sets the level variable adjusted when the log level is
// reloaded. Default: a private variable that nothing reads.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithConsoleIO attaches the terminal session to in and out instead of
// stdin and stdout. It implies the console is enabled.
func WithConsoleIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.consoleIn = in
		a.consoleOut = out
	}
}

// WithPrometheusRegistry sets the registry that /metrics serves.
func WithPrometheusRegistry(r *prometheus.Registry) Option {
	return func(a *App) { a.registry = r }
}

// withMetricsFactory replaces the metrics constructor.
func withMetricsFactory(fn func(metric.MeterProvider) (*observe.Metrics, error)) Option {
	return func(a *App) { a.newMetrics = fn }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. It performs all
// initialisation synchronously; nothing listens until [App.Run].
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:   cfg,
		ready: make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	if a.level == nil {
		a.level = new(slog.LevelVar)
	}
	if a.newMetrics == nil {
		a.newMetrics = observe.NewMetrics
	}
	a.level.Set(cfg.Server.LogLevel.SlogLevel())

	// ── Telemetry ────────────────────────────────────────────────────────────
	tp, err := observe.InitProvider(ctx, observe.ProviderConfig{Registry: a.registry})
	if err != nil {
		return nil, fmt.Errorf("app: init telemetry: %w", err)
	}
	a.telemetry = tp
	a.metrics, err = a.newMetrics(otel.GetMeterProvider())
	if err != nil {
		return a.abort(ctx, fmt.Errorf("app: create metrics: %w", err))
	}

	// ── Wallet ───────────────────────────────────────────────────────────────
	balances := cfg.Wallet.Balances
	var walletOpts []wallet.Option
	if len(balances) == 0 {
		// The demo holdings come with a matching demo history.
		balances = nil
		walletOpts = append(walletOpts, wallet.WithTransactions(wallet.DemoTransactions(time.Now())))
	}
	a.wallet = wallet.NewMemory(balances, walletOpts...)
	a.guarded = wallet.NewGuarded(a.wallet, resilience.CircuitBreakerConfig{
		Name:         "wallet-transfer",
		MaxFailures:  cfg.Wallet.Breaker.MaxFailures,
		ResetTimeout: cfg.Wallet.Breaker.ResetTimeout,
		OnStateChange: func(name string, from, to resilience.State) {
			slog.Warn("app: circuit breaker state changed", "breaker", name, "from", from, "to", to)
		},
	})

	// ── Commands and dialogue ────────────────────────────────────────────────
	a.commands = voicecmd.NewRegistry(cfg.VoiceCommands())
	a.resolver = ticker.New(a.wallet.Symbols(), ticker.WithAliases(cfg.Wallet.Aliases))
	a.storeVoice(cfg.Voice)

	if cfg.Voice.JournalPath != "" {
		a.journal = feedback.NewJournal(cfg.Voice.JournalPath)
		slog.Info("app: feedback journal enabled", "path", cfg.Voice.JournalPath)
	}

	// ── HTTP surface ─────────────────────────────────────────────────────────
	webOpts := []web.Option{
		web.WithWalletView(a.wallet),
		web.WithMachineSource(a.machine.Load),
		web.WithPipelineConfig(a.pipelineConfig),
		web.WithVoiceEnabled(func() bool { return a.voice.Load().Enabled }),
		web.WithMetrics(a.metrics),
	}
	if a.journal != nil {
		webOpts = append(webOpts, web.WithJournal(a.journal))
	}
	a.web = web.New(a.commands, a.guarded, webOpts...)
	a.health = health.New(health.BreakerChecker("wallet", a.guarded.State))

	mux := http.NewServeMux()
	a.web.Register(mux)
	a.health.Register(mux)
	mux.Handle("GET /metrics", a.telemetry.MetricsHandler())
	baseCtx, endSessions := context.WithCancel(context.Background())
	a.endSessions = endSessions
	a.httpSrv = &http.Server{
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	// ── Console (optional) ───────────────────────────────────────────────────
	if cfg.Console.Enabled && a.consoleIn == nil {
		a.consoleIn, a.consoleOut = os.Stdin, os.Stdout
	}
	if a.consoleIn != nil {
		consoleOpts := []console.Option{
			console.WithMachine(a.machine.Load()),
			console.WithPipelineConfig(a.pipelineConfig()),
			console.WithMetrics(a.metrics),
			console.WithEnabled(a.voice.Load().Enabled),
		}
		if a.journal != nil {
			consoleOpts = append(consoleOpts, console.WithExtraSink(a.journal.ForSession("console")))
		}
		a.console = console.New(a.consoleOut, a.commands, a.guarded, consoleOpts...)
		a.closers = append(a.closers, a.console.Close)
	}
	if a.journal != nil {
		a.closers = append(a.closers, a.journal.Close)
	}

	// ── Hot reload (optional) ────────────────────────────────────────────────
	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.applyConfig)
		if err != nil {
			return a.abort(ctx, fmt.Errorf("app: start config watcher: %w", err))
		}
		a.watcher = w
		a.closers = append(a.closers, func() error { w.Stop(); return nil })
	}

	a.closers = append(a.closers, func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.telemetry.Shutdown(sctx)
	})

	slog.Info("app: initialised",
		"commands", len(a.commands.Commands()),
		"tokens", len(a.wallet.Symbols()),
		"console", a.console != nil,
		"hot_reload", a.watcher != nil,
	)
	return a, nil
}

// abort releases everything New created so far and returns err.
func (a *App) abort(ctx context.Context, err error) (*App, error) {
	for _, c := range a.closers {
		_ = c()
	}
	// The telemetry closer is only appended at the end of New.
	if shutdownErr := a.telemetry.Shutdown(ctx); shutdownErr != nil {
		slog.Warn("app: telemetry shutdown after failed start", "err", shutdownErr)
	}
	return nil, err
}

// storeVoice publishes v and the dialogue machine derived from it.
func (a *App) storeVoice(v config.VoiceConfig) {
	a.voice.Store(&v)
	a.machine.Store(dialogue.New(
		dialogue.WithCancelPhrases(v.CancelPhrases),
		dialogue.WithCurrencyResolver(a.resolver),
	))
}

// pipelineConfig returns the controller settings for a new session.
func (a *App) pipelineConfig() pipeline.Config {
	v := a.voice.Load()
	return pipeline.Config{
		Language:       v.Language,
		Continuous:     v.Continuous,
		InterimResults: v.InterimResults,
		ListenTimeout:  v.ListenTimeout,
		FeedbackDelay:  v.FeedbackDelay,
		ClearDelay:     v.ClearDelay,
	}
}

// applyConfig is the watcher callback. Reloadable sections apply in place;
// the rest are logged.
func (a *App) applyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if !d.Changed() {
		return
	}
	if d.LogLevelChanged {
		a.level.Set(d.NewLogLevel.SlogLevel())
		slog.Info("app: log level changed", "level", d.NewLogLevel)
	}
	if d.CommandsChanged {
		a.commands.Replace(new.VoiceCommands())
		slog.Info("app: command table reloaded", "commands", len(a.commands.Commands()))
	}
	if d.VoiceChanged {
		a.storeVoice(new.Voice)
		slog.Info("app: voice settings reloaded; applies to new sessions")
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("app: config changes require a restart", "sections", d.RestartRequired)
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// errQuit ends Run when the console user quits.
var errQuit = errors.New("app: console quit")

// Run serves HTTP (and the console, when enabled) until ctx is cancelled,
// the console user quits, or the listener fails. A clean stop returns nil.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen on %s: %w", a.cfg.Server.ListenAddr, err)
	}
	addr := ln.Addr()
	a.addr.Store(&addr)
	close(a.ready)
	slog.Info("app: listening", "addr", addr.String(), "tls", a.cfg.Server.TLS != nil)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.httpSrv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = a.httpSrv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		a.health.Drain()
		sctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := a.httpSrv.Shutdown(sctx); err != nil {
			slog.Warn("app: http shutdown", "err", err)
		}
		a.endSessions()
		return nil
	})

	if a.console != nil {
		g.Go(func() error {
			err := a.console.Run(gctx, a.consoleIn)
			if errors.Is(err, console.ErrQuit) {
				return errQuit
			}
			return err
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

// Ready is closed once Run is listening.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Addr returns the listener address, or nil before [App.Run] is listening.
func (a *App) Addr() net.Addr {
	if p := a.addr.Load(); p != nil {
		return *p
	}
	return nil
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("app: shutting down", "closers", len(a.closers))
		a.health.Drain()
		a.endSessions()

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("app: shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("app: closer error", "index", i, "err", err)
			}
		}

		slog.Info("app: shutdown complete")
	})
	return shutdownErr
}
