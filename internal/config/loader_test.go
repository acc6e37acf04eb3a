package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kingvic300/Inkluziv--wallet/internal/config"
	"github.com/Kingvic300/Inkluziv--wallet/internal/voicecmd"
)

const fullYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
voice:
  enabled: false
  language: en-GB
  continuous: false
  interim_results: false
  listen_timeout: 5s
  feedback_delay: 250ms
  clear_delay: 1s
  cancel_phrases: [cancel, stop that]
  journal_path: /tmp/feedback.jsonl
commands:
  - name: send
    patterns: [send tokens, send]
    description: Send tokens
    route: /wallet?action=send
    flow: transfer
  - name: wallet
    patterns: [wallet]
    description: Navigate to wallet page
    route: /wallet
    reply: You are now on the wallet page
wallet:
  balances:
    - {symbol: eth, balance: 1.5, usd_value: 3000}
    - {symbol: USDT, balance: 50, usd_value: 50}
  aliases:
    ether: ETH
  breaker:
    max_failures: 3
    reset_timeout: 10s
console:
  enabled: true
`

func TestLoadFromReader_Full(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" || cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server = %+v", cfg.Server)
	}
	v := cfg.Voice
	if v.Enabled || v.Language != "en-GB" || v.InterimResults {
		t.Errorf("voice flags = %+v", v)
	}
	if v.ListenTimeout != 5*time.Second || v.FeedbackDelay != 250*time.Millisecond || v.ClearDelay != time.Second {
		t.Errorf("voice durations = %v %v %v", v.ListenTimeout, v.FeedbackDelay, v.ClearDelay)
	}
	if len(v.CancelPhrases) != 2 || v.CancelPhrases[1] != "stop that" {
		t.Errorf("cancel_phrases = %v", v.CancelPhrases)
	}
	if len(cfg.Wallet.Balances) != 2 || cfg.Wallet.Balances[0].USDValue != 3000 {
		t.Errorf("balances = %+v", cfg.Wallet.Balances)
	}
	if cfg.Wallet.Aliases["ether"] != "ETH" {
		t.Errorf("aliases = %v", cfg.Wallet.Aliases)
	}
	if cfg.Wallet.Breaker.MaxFailures != 3 || cfg.Wallet.Breaker.ResetTimeout != 10*time.Second {
		t.Errorf("breaker = %+v", cfg.Wallet.Breaker)
	}
	if !cfg.Console.Enabled {
		t.Error("console.enabled should be true")
	}

	cmds := cfg.VoiceCommands()
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want 2", len(cmds))
	}
	if cmds[0].Action.Flow != voicecmd.FlowTransfer || !cmds[0].Action.StartsFlow() {
		t.Errorf("send action = %+v", cmds[0].Action)
	}
	if got, ok := voicecmd.Match("open my wallet", cmds); !ok || got.Name != "wallet" {
		t.Errorf("Match = %q, %v", got.Name, ok)
	}
}

func TestLoadFromReader_EmptyUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := config.Default()
	if cfg.Server != def.Server {
		t.Errorf("server = %+v, want %+v", cfg.Server, def.Server)
	}
	if !cfg.Voice.Enabled || cfg.Voice.ListenTimeout != 8*time.Second || cfg.Voice.FeedbackDelay != 600*time.Millisecond {
		t.Errorf("voice = %+v", cfg.Voice)
	}
	if cfg.VoiceCommands() != nil {
		t.Error("empty command list should fall back to the built-ins")
	}
}

func TestLoadFromReader_PartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader("voice:\n  clear_delay: 3s\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Voice.ClearDelay != 3*time.Second {
		t.Errorf("clear_delay = %v", cfg.Voice.ClearDelay)
	}
	if cfg.Voice.Language != "en-US" || cfg.Voice.FeedbackDelay != 600*time.Millisecond {
		t.Errorf("defaults lost: %+v", cfg.Voice)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("voice:\n  langauge: en-US\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{
			name: "bad log level",
			yaml: "server:\n  log_level: loud\n",
			want: []string{"server.log_level"},
		},
		{
			name: "negative durations",
			yaml: "voice:\n  feedback_delay: -1s\n  clear_delay: -2s\n",
			want: []string{"voice.feedback_delay", "voice.clear_delay"},
		},
		{
			name: "blank cancel phrase",
			yaml: "voice:\n  cancel_phrases: [\"  \"]\n",
			want: []string{"voice.cancel_phrases[0]"},
		},
		{
			name: "duplicate command",
			yaml: `
commands:
  - {name: a, patterns: [x], route: /x}
  - {name: a, patterns: [y], route: /y}
`,
			want: []string{"duplicate"},
		},
		{
			name: "command without patterns",
			yaml: "commands:\n  - {name: a, route: /x}\n",
			want: []string{"commands[0].patterns"},
		},
		{
			name: "unknown flow",
			yaml: "commands:\n  - {name: a, patterns: [x], flow: swap}\n",
			want: []string{"commands[0].flow"},
		},
		{
			name: "wallet balances",
			yaml: `
wallet:
  balances:
    - {symbol: eth, balance: 1}
    - {symbol: ETH, balance: -1}
    - {balance: 1}
`,
			want: []string{"duplicate", "must not be negative", "wallet.balances[2].symbol"},
		},
		{
			name: "tls half configured",
			yaml: "server:\n  tls:\n    cert_file: cert.pem\n",
			want: []string{"server.tls"},
		},
		{
			name: "negative breaker",
			yaml: "wallet:\n  breaker:\n    max_failures: -1\n",
			want: []string{"wallet.breaker.max_failures"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			for _, w := range tc.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q should mention %q", err, w)
				}
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "inkluziv.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join("..", "..", "configs", "example.yaml"))
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	if cfg.VoiceCommands() != nil {
		t.Error("example should keep the built-in command table")
	}
	if len(cfg.Wallet.Balances) != 3 || cfg.Wallet.Aliases["ether"] != "ETH" {
		t.Errorf("wallet = %+v", cfg.Wallet)
	}
	if len(cfg.Voice.CancelPhrases) != 3 {
		t.Errorf("cancel_phrases = %v", cfg.Voice.CancelPhrases)
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   config.LogLevel
		want slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := tc.in.SlogLevel(); got != tc.want {
			t.Errorf("%q.SlogLevel() = %v, want %v", tc.in, got, tc.want)
		}
	}
}
