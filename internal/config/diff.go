package config

import (
	"maps"
	"slices"
)

// ConfigDiff describes what changed between two configs.
// Reloadable changes are applied in place; the rest take effect on restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// CommandsChanged is true if the command table differs. Applied to every
	// session at once.
	CommandsChanged bool

	// VoiceChanged is true if any voice setting differs. Applied to sessions
	// opened after the reload.
	VoiceChanged bool

	// RestartRequired lists the top-level sections that changed but cannot
	// be reloaded.
	RestartRequired []string
}

// Changed reports whether d contains any change.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.CommandsChanged || d.VoiceChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.CommandsChanged = !slices.EqualFunc(old.Commands, new.Commands, commandEqual)
	d.VoiceChanged = !voiceEqual(old.Voice, new.Voice)

	if old.Server.ListenAddr != new.Server.ListenAddr || !tlsEqual(old.Server.TLS, new.Server.TLS) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if !walletEqual(old.Wallet, new.Wallet) {
		d.RestartRequired = append(d.RestartRequired, "wallet")
	}
	if old.Console != new.Console {
		d.RestartRequired = append(d.RestartRequired, "console")
	}
	return d
}

func commandEqual(a, b CommandConfig) bool {
	return a.Name == b.Name &&
		a.Description == b.Description &&
		a.Route == b.Route &&
		a.Reply == b.Reply &&
		a.Flow == b.Flow &&
		slices.Equal(a.Patterns, b.Patterns)
}

func voiceEqual(a, b VoiceConfig) bool {
	if !slices.Equal(a.CancelPhrases, b.CancelPhrases) {
		return false
	}
	a.CancelPhrases, b.CancelPhrases = nil, nil
	return a == b
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func walletEqual(a, b WalletConfig) bool {
	return slices.Equal(a.Balances, b.Balances) &&
		maps.Equal(a.Aliases, b.Aliases) &&
		a.Breaker == b.Breaker
}
