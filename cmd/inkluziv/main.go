// Command inkluziv is the main entry point for the Inkluziv voice wallet
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kingvic300/Inkluziv--wallet/internal/app"
	"github.com/Kingvic300/Inkluziv--wallet/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file (empty: built-in defaults)")
	consoleMode := flag.Bool("console", false, "read spoken commands from stdin in addition to serving the browser bridge")
	watch := flag.Bool("watch", true, "reload the configuration file when it changes")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "inkluziv: config file %q not found; copy configs/example.yaml or pass -config \"\"\n", *configPath)
			} else {
				fmt.Fprintf(os.Stderr, "inkluziv: %v\n", err)
			}
			return 1
		}
	}
	if *consoleMode {
		cfg.Console.Enabled = true
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.SlogLevel())
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("inkluziv starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printStartupSummary(cfg)

	opts := []app.Option{app.WithLevelVar(level)}
	if *configPath != "" && *watch {
		opts = append(opts, app.WithConfigPath(*configPath))
	}
	application, err := app.New(ctx, cfg, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready, press Ctrl+C to shut down")

	runErr := application.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("stopping")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	commands := "built-in"
	if n := len(cfg.Commands); n > 0 {
		commands = fmt.Sprintf("%d configured", n)
	}
	tokens := "demo"
	if n := len(cfg.Wallet.Balances); n > 0 {
		tokens = fmt.Sprintf("%d configured", n)
	}
	voice := "enabled"
	if !cfg.Voice.Enabled {
		voice = "disabled"
	}
	console := "(disabled)"
	if cfg.Console.Enabled {
		console = "stdin"
	}

	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Inkluziv — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Listen addr", cfg.Server.ListenAddr)
	printRow("Voice", voice+" / "+cfg.Voice.Language)
	printRow("Commands", commands)
	printRow("Wallet tokens", tokens)
	printRow("Console", console)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-15s : %-19s ║\n", label, value)
}
