// Package ticker resolves a spoken currency answer into a token ticker.
//
// Speech recognisers rarely produce clean tickers: users say "bitcoin"
// instead of BTC, spell out "u s d t", or the recogniser hears "eath" for
// ETH. Resolution proceeds in four stages and stops at the first hit:
//
//  1. Exact: the upper-cased answer is a known ticker.
//  2. Alias: the lower-cased answer (or its singular form) is a configured
//     alias such as "tether" → USDT.
//  3. Spelled: the answer with spaces, dots and hyphens removed is a known
//     ticker ("u s d c" → USDC).
//  4. Phonetic: Double Metaphone codes of the answer overlap with a known
//     ticker's codes, the Jaro-Winkler similarity clears the threshold and
//     both share the same consonant skeleton. A near-miss may differ in its
//     vowels ("eath", "matik") but never in its consonants, so distinct
//     tickers such as WBTC, WETH or USDD are not folded into held ones.
//
// When no stage matches, the upper-cased answer is returned unchanged with
// matched=false, so callers keep the literal behaviour for unknown tokens.
package ticker

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const defaultPhoneticThreshold = 0.80

// DefaultAliases maps common spoken names to tickers.
var DefaultAliases = map[string]string{
	"bitcoin":  "BTC",
	"ether":    "ETH",
	"ethereum": "ETH",
	"tether":   "USDT",
	"usd coin": "USDC",
	"polygon":  "MATIC",
}

// Option is a functional option for configuring a [Resolver].
type Option func(*Resolver)

// WithAliases adds spoken-name aliases. Keys are compared lower-cased, values
// are upper-cased. Entries override [DefaultAliases].
func WithAliases(aliases map[string]string) Option {
	return func(r *Resolver) {
		for k, v := range aliases {
			r.aliases[strings.ToLower(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
		}
	}
}

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a phonetic
// match. Default: 0.80.
func WithPhoneticThreshold(threshold float64) Option {
	return func(r *Resolver) {
		r.threshold = threshold
	}
}

// Resolver maps spoken answers to tickers. It is read-only after
// construction and safe for concurrent use.
type Resolver struct {
	known     map[string]struct{}
	order     []string
	aliases   map[string]string
	threshold float64
}

// New returns a Resolver for the given known tickers.
func New(known []string, opts ...Option) *Resolver {
	r := &Resolver{
		known:     make(map[string]struct{}, len(known)),
		aliases:   make(map[string]string, len(DefaultAliases)),
		threshold: defaultPhoneticThreshold,
	}
	for _, k := range known {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := r.known[k]; dup {
			continue
		}
		r.known[k] = struct{}{}
		r.order = append(r.order, k)
	}
	for k, v := range DefaultAliases {
		r.aliases[k] = v
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the ticker for spoken. matched reports whether one of the
// resolution stages succeeded; when false, ticker is the upper-cased answer.
func (r *Resolver) Resolve(spoken string) (ticker string, matched bool) {
	clean := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(spoken), ".,!?;:"))
	upper := strings.ToUpper(clean)
	if clean == "" {
		return upper, false
	}

	if _, ok := r.known[upper]; ok {
		return upper, true
	}

	lower := strings.ToLower(clean)
	if t, ok := r.aliases[lower]; ok {
		return t, true
	}
	if t, ok := r.aliases[strings.TrimSuffix(lower, "s")]; ok {
		return t, true
	}

	collapsed := strings.NewReplacer(" ", "", ".", "", "-", "").Replace(upper)
	if _, ok := r.known[collapsed]; ok {
		return collapsed, true
	}

	if t, ok := r.phonetic(strings.ToLower(collapsed)); ok {
		return t, true
	}
	return upper, false
}

// phonetic picks the known ticker with the best Jaro-Winkler score among
// those whose Double Metaphone codes overlap with word's.
func (r *Resolver) phonetic(word string) (string, bool) {
	if len(word) < 3 {
		return "", false
	}
	wordCodes := codes(word)
	if len(wordCodes) == 0 {
		return "", false
	}

	wordSkel := skeleton(word)
	best, bestScore := "", 0.0
	for _, t := range r.order {
		lt := strings.ToLower(t)
		if skeleton(lt) != wordSkel || !overlap(wordCodes, codes(lt)) {
			continue
		}
		score := matchr.JaroWinkler(word, lt, false)
		if score >= r.threshold && score > bestScore {
			best, bestScore = t, score
		}
	}
	return best, best != ""
}

// codes returns the non-empty Double Metaphone codes of w.
func codes(w string) map[string]struct{} {
	out := make(map[string]struct{}, 2)
	p, s := matchr.DoubleMetaphone(w)
	if p != "" {
		out[p] = struct{}{}
	}
	if s != "" {
		out[s] = struct{}{}
	}
	return out
}

// skeleton reduces w to its consonants: vowels, y and h are dropped, c and q
// read as k, and repeated letters collapse.
func skeleton(w string) string {
	var b strings.Builder
	var last rune
	for _, c := range w {
		switch c {
		case 'a', 'e', 'i', 'o', 'u', 'y', 'h':
			continue
		case 'c', 'q':
			c = 'k'
		}
		if c == last {
			continue
		}
		b.WriteRune(c)
		last = c
	}
	return b.String()
}

func overlap(a, b map[string]struct{}) bool {
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}
