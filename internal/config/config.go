// Package config provides the configuration schema, loader, and hot-reload
// watcher for the Inkluziv voice wallet server.
package config

import (
	"log/slog"
	"time"

	"github.com/Kingvic300/Inkluziv--wallet/internal/voicecmd"
	"github.com/Kingvic300/Inkluziv--wallet/internal/wallet"
)

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l onto a [slog.Level]. Unknown and empty levels map to
// [slog.LevelInfo].
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Voice    VoiceConfig     `yaml:"voice"`
	Commands []CommandConfig `yaml:"commands"`
	Wallet   WalletConfig    `yaml:"wallet"`
	Console  ConsoleConfig   `yaml:"console"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// VoiceConfig tunes the voice pipeline. Durations use Go duration syntax
// ("8s", "600ms").
type VoiceConfig struct {
	// Enabled is the initial voice-commands setting for new sessions.
	Enabled bool `yaml:"enabled"`

	// Language is the BCP-47 tag passed to recognisers.
	Language string `yaml:"language"`

	// Continuous keeps capture sessions open after a final result.
	Continuous bool `yaml:"continuous"`

	// InterimResults requests partial transcripts.
	InterimResults bool `yaml:"interim_results"`

	ListenTimeout time.Duration `yaml:"listen_timeout"`
	FeedbackDelay time.Duration `yaml:"feedback_delay"`
	ClearDelay    time.Duration `yaml:"clear_delay"`

	// CancelPhrases abort the transfer dialogue. Empty keeps the built-in
	// phrases.
	CancelPhrases []string `yaml:"cancel_phrases"`

	// JournalPath, when set, appends every announcement and status event to
	// a JSONL file.
	JournalPath string `yaml:"journal_path"`
}

// CommandConfig declares a voice command. An empty command list installs the
// built-in command table.
type CommandConfig struct {
	Name        string   `yaml:"name"`
	Patterns    []string `yaml:"patterns"`
	Description string   `yaml:"description"`
	Route       string   `yaml:"route"`
	Reply       string   `yaml:"reply"`
	Flow        string   `yaml:"flow"`
}

// Command converts c to a [voicecmd.Command].
func (c CommandConfig) Command() voicecmd.Command {
	return voicecmd.Command{
		Name:        c.Name,
		Patterns:    append([]string(nil), c.Patterns...),
		Description: c.Description,
		Action: voicecmd.Action{
			Route: c.Route,
			Reply: c.Reply,
			Flow:  voicecmd.Flow(c.Flow),
		},
	}
}

// VoiceCommands returns the configured command table, or nil when the
// built-ins should be used.
func (c *Config) VoiceCommands() []voicecmd.Command {
	if len(c.Commands) == 0 {
		return nil
	}
	out := make([]voicecmd.Command, len(c.Commands))
	for i, cc := range c.Commands {
		out[i] = cc.Command()
	}
	return out
}

// WalletConfig configures the mocked wallet service.
type WalletConfig struct {
	// Balances seeds the wallet. Empty installs the demo balances.
	Balances []wallet.Balance `yaml:"balances"`

	// Aliases maps spoken currency names to tickers (e.g., bitcoin: BTC).
	// Merged over the built-in aliases.
	Aliases map[string]string `yaml:"aliases"`

	// Breaker configures the circuit breaker around transfers.
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the transfer circuit breaker.
type BreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// ConsoleConfig enables the terminal capture adapter.
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used for every field the YAML file does
// not set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Voice: VoiceConfig{
			Enabled:        true,
			Language:       "en-US",
			InterimResults: true,
			ListenTimeout:  8 * time.Second,
			FeedbackDelay:  600 * time.Millisecond,
			ClearDelay:     2 * time.Second,
		},
		Wallet: WalletConfig{
			Breaker: BreakerConfig{
				MaxFailures:  5,
				ResetTimeout: 30 * time.Second,
			},
		},
	}
}
