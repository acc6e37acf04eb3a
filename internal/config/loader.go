package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Kingvic300/Inkluziv--wallet/internal/voicecmd"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Voice
	if cfg.Voice.ListenTimeout < 0 {
		errs = append(errs, fmt.Errorf("voice.listen_timeout %s must not be negative", cfg.Voice.ListenTimeout))
	}
	if cfg.Voice.FeedbackDelay < 0 {
		errs = append(errs, fmt.Errorf("voice.feedback_delay %s must not be negative", cfg.Voice.FeedbackDelay))
	}
	if cfg.Voice.ClearDelay < 0 {
		errs = append(errs, fmt.Errorf("voice.clear_delay %s must not be negative", cfg.Voice.ClearDelay))
	}
	// Continuous capture availability warning
	if cfg.Voice.Continuous {
		slog.Warn("voice.continuous is enabled; final transcripts arriving while a command runs are dropped")
	}
	for i, p := range cfg.Voice.CancelPhrases {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("voice.cancel_phrases[%d] is empty", i))
		}
	}

	// Commands, with duplicate name detection
	namesSeen := make(map[string]int, len(cfg.Commands))
	for i, c := range cfg.Commands {
		prefix := fmt.Sprintf("commands[%d]", i)
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := namesSeen[c.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of commands[%d]", prefix, c.Name, prev))
			}
			namesSeen[c.Name] = i
		}
		if len(c.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("%s.patterns must not be empty", prefix))
		}
		for j, p := range c.Patterns {
			if voicecmd.Normalize(p) == "" {
				errs = append(errs, fmt.Errorf("%s.patterns[%d] is empty", prefix, j))
			}
		}
		if !voicecmd.Flow(c.Flow).IsValid() {
			errs = append(errs, fmt.Errorf("%s.flow %q is invalid; valid values: transfer", prefix, c.Flow))
		}
		if c.Route == "" && c.Reply == "" && c.Flow == "" {
			slog.Warn("command has no route, reply or flow; it will only be acknowledged", "command", c.Name)
		}
	}

	// Wallet
	symbolsSeen := make(map[string]int, len(cfg.Wallet.Balances))
	for i, b := range cfg.Wallet.Balances {
		prefix := fmt.Sprintf("wallet.balances[%d]", i)
		sym := strings.ToUpper(strings.TrimSpace(b.Symbol))
		if sym == "" {
			errs = append(errs, fmt.Errorf("%s.symbol is required", prefix))
		} else {
			if prev, ok := symbolsSeen[sym]; ok {
				errs = append(errs, fmt.Errorf("%s.symbol %q is a duplicate of wallet.balances[%d]", prefix, sym, prev))
			}
			symbolsSeen[sym] = i
		}
		if b.Balance < 0 {
			errs = append(errs, fmt.Errorf("%s.balance %v must not be negative", prefix, b.Balance))
		}
	}
	// Alias ↔ balance cross-validation
	for spoken, ticker := range cfg.Wallet.Aliases {
		if strings.TrimSpace(spoken) == "" || strings.TrimSpace(ticker) == "" {
			errs = append(errs, fmt.Errorf("wallet.aliases entry %q: %q must have a name and a ticker", spoken, ticker))
			continue
		}
		if len(symbolsSeen) > 0 {
			if _, ok := symbolsSeen[strings.ToUpper(ticker)]; !ok {
				slog.Warn("wallet alias points to a ticker with no balance", "alias", spoken, "ticker", ticker)
			}
		}
	}
	if cfg.Wallet.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("wallet.breaker.max_failures %d must not be negative", cfg.Wallet.Breaker.MaxFailures))
	}
	if cfg.Wallet.Breaker.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("wallet.breaker.reset_timeout %s must not be negative", cfg.Wallet.Breaker.ResetTimeout))
	}

	return errors.Join(errs...)
}
