package ticker

import "testing"

var walletTickers = []string{"ETH", "USDC", "BTC", "MATIC", "USDT"}

func TestResolve(t *testing.T) {
	t.Parallel()

	r := New(walletTickers)

	tests := []struct {
		name        string
		spoken      string
		want        string
		wantMatched bool
	}{
		{"exact upper", "ETH", "ETH", true},
		{"exact lower", "usdt", "USDT", true},
		{"trailing punctuation", "btc.", "BTC", true},
		{"surrounding whitespace", "  matic  ", "MATIC", true},
		{"alias", "bitcoin", "BTC", true},
		{"alias mixed case", "Ethereum", "ETH", true},
		{"alias plural", "bitcoins", "BTC", true},
		{"multi-word alias", "usd coin", "USDC", true},
		{"spelled out", "u s d t", "USDT", true},
		{"spelled with dots", "E.T.H.", "ETH", true},
		{"phonetic", "eath", "ETH", true},
		{"phonetic consonant spelling", "matik", "MATIC", true},
		{"unknown falls back to upper-case", "banana", "BANANA", false},
		{"empty", "", "", false},
		{"punctuation only", "?!", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, matched := r.Resolve(tc.spoken)
			if got != tc.want || matched != tc.wantMatched {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tc.spoken, got, matched, tc.want, tc.wantMatched)
			}
		})
	}
}

func TestResolve_UnknownTickerKeepsLiteral(t *testing.T) {
	t.Parallel()

	// A ticker the resolver does not hold is upper-cased and left alone so
	// the transfer reaches the wallet, which rejects unknown tokens. Tickers
	// that sound like held ones must not be rewritten into them.
	r := New(walletTickers)

	tests := []struct {
		spoken string
		want   string
	}{
		{"doge", "DOGE"},
		{"wbtc", "WBTC"},
		{"weth", "WETH"},
		{"usdd", "USDD"},
		{"usd", "USD"},
		{"steth", "STETH"},
	}
	for _, tc := range tests {
		t.Run(tc.spoken, func(t *testing.T) {
			t.Parallel()
			got, matched := r.Resolve(tc.spoken)
			if got != tc.want || matched {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, false)", tc.spoken, got, matched, tc.want)
			}
		})
	}
}

func TestSkeleton(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"eath", "t"},
		{"eth", "t"},
		{"matik", "mtk"},
		{"matic", "mtk"},
		{"wbtc", "wbtk"},
		{"usdd", "sd"},
		{"usdt", "sdt"},
	}
	for _, tc := range tests {
		if got := skeleton(tc.in); got != tc.want {
			t.Errorf("skeleton(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWithAliases(t *testing.T) {
	t.Parallel()

	r := New(walletTickers, WithAliases(map[string]string{
		" Dollar ": "usdt",
		"bitcoin":  "wbtc",
	}))

	if got, _ := r.Resolve("dollar"); got != "USDT" {
		t.Errorf("Resolve(dollar) = %q, want USDT", got)
	}
	if got, _ := r.Resolve("bitcoin"); got != "WBTC" {
		t.Errorf("Resolve(bitcoin) = %q, want override WBTC", got)
	}
}

func TestWithPhoneticThreshold(t *testing.T) {
	t.Parallel()

	strict := New(walletTickers, WithPhoneticThreshold(1.01))
	if got, matched := strict.Resolve("eath"); matched {
		t.Errorf("strict resolver matched %q, want no phonetic match", got)
	}
}

func TestNew_DeduplicatesKnown(t *testing.T) {
	t.Parallel()

	r := New([]string{"eth", "ETH", " ", "btc"})
	if len(r.order) != 2 {
		t.Errorf("known tickers = %v, want [ETH BTC]", r.order)
	}
}
