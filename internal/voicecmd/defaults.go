package voicecmd

// Defaults returns the built-in command table.
//
// Order matters: the transfer flow and "receive payment" come before the
// generic wallet command, and two-word phrases come before the single words
// that could otherwise shadow them.
func Defaults() []Command {
	return []Command{
		{
			Name:        "send-tokens",
			Patterns:    []string{"send tokens", "send", "transfer"},
			Action:      Action{Route: "/wallet?action=send", Flow: FlowTransfer},
			Description: "Send tokens",
		},
		{
			Name:        "receive-payment",
			Patterns:    []string{"receive payment", "receive"},
			Action:      Action{Route: "/wallet?action=receive", Reply: "Showing your receive address"},
			Description: "Show receive address",
		},
		{
			Name:        "wallet",
			Patterns:    []string{"check balance", "my wallet", "wallet", "balance"},
			Action:      Action{Route: "/wallet", Reply: "You are now on the wallet page"},
			Description: "Navigate to wallet page",
		},
		{
			Name:        "transactions",
			Patterns:    []string{"view transactions", "transactions", "history"},
			Action:      Action{Route: "/transactions", Reply: "You are now on the transactions page"},
			Description: "View transaction history",
		},
		{
			Name:        "swap",
			Patterns:    []string{"swap tokens", "swap"},
			Action:      Action{Route: "/swap", Reply: "You are now on the swap page"},
			Description: "Open token swap interface",
		},
		{
			Name:        "staking",
			Patterns:    []string{"stake tokens", "staking", "stake"},
			Action:      Action{Route: "/staking", Reply: "You are now on the staking dashboard"},
			Description: "Open staking dashboard",
		},
		{
			Name:        "buy-crypto",
			Patterns:    []string{"buy crypto", "buy"},
			Action:      Action{Route: "/fiat", Reply: "You are now on the buy and sell page"},
			Description: "Open fiat on/off ramp",
		},
		{
			Name:        "sell-crypto",
			Patterns:    []string{"sell crypto", "sell"},
			Action:      Action{Route: "/fiat", Reply: "You are now on the buy and sell page"},
			Description: "Open fiat on/off ramp",
		},
		{
			Name:        "dashboard",
			Patterns:    []string{"go to dashboard", "dashboard", "home"},
			Action:      Action{Route: "/", Reply: "You are now on the dashboard"},
			Description: "Return to main dashboard",
		},
		{
			Name:        "settings",
			Patterns:    []string{"open settings", "settings"},
			Action:      Action{Route: "/settings", Reply: "You are now on the settings page"},
			Description: "Open settings page",
		},
	}
}
