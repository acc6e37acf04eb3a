// Package wallet is the mocked wallet application service behind the voice
// transfer flow. It keeps token balances and a transaction history in memory;
// nothing touches a real chain.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientFunds is returned when the balance is lower than the
	// requested amount.
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")

	// ErrUnknownToken is returned for a currency the wallet does not hold.
	ErrUnknownToken = errors.New("wallet: unknown token")

	// ErrInvalidTransfer is returned for an empty recipient or a non-positive
	// amount.
	ErrInvalidTransfer = errors.New("wallet: invalid transfer")
)

// IsRejection reports whether err is a business rejection rather than a
// backend fault.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrUnknownToken) ||
		errors.Is(err, ErrInvalidTransfer)
}

// Balance is the holding of one token.
type Balance struct {
	Symbol   string  `json:"symbol"   yaml:"symbol"`
	Balance  float64 `json:"balance"  yaml:"balance"`
	USDValue float64 `json:"usd_value" yaml:"usd_value"`
}

// TxType classifies a transaction.
type TxType string

const (
	TxSend    TxType = "send"
	TxReceive TxType = "receive"
	TxSwap    TxType = "swap"
	TxStake   TxType = "stake"
	TxUnstake TxType = "unstake"
)

// TxStatus is the settlement state of a transaction.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Transaction is one entry of the history.
type Transaction struct {
	ID        string    `json:"id"`
	Type      TxType    `json:"type"`
	Amount    float64   `json:"amount"`
	Token     string    `json:"token"`
	Status    TxStatus  `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
}

// TransferResult is the outcome of a successful transfer.
type TransferResult struct {
	Success    bool    `json:"success"`
	NewBalance float64 `json:"new_balance"`
	TxID       string  `json:"tx_id"`
}

// Transferer sends tokens. Implemented by [*Memory] and [*Guarded].
type Transferer interface {
	Transfer(ctx context.Context, recipient string, amount float64, currency string) (TransferResult, error)
}

// DefaultBalances returns the demo holdings.
func DefaultBalances() []Balance {
	return []Balance{
		{Symbol: "ETH", Balance: 0.25, USDValue: 12.55},
		{Symbol: "USDC", Balance: 120.75, USDValue: 20.75},
		{Symbol: "BTC", Balance: 0.005, USDValue: 84.73},
		{Symbol: "MATIC", Balance: 10.0, USDValue: 8.95},
		{Symbol: "USDT", Balance: 1000, USDValue: 1000},
	}
}

// DemoTransactions returns the history shown next to [DefaultBalances],
// newest first, with timestamps relative to now.
func DemoTransactions(now time.Time) []Transaction {
	return []Transaction{
		{ID: "demo-4", Type: TxSwap, Amount: 0.1, Token: "ETH", Status: TxPending, Timestamp: now.Add(-time.Hour)},
		{ID: "demo-3", Type: TxReceive, Amount: 0.5, Token: "ETH", Status: TxConfirmed, Timestamp: now.Add(-24 * time.Hour),
			From: "0x742d35Cc6558Fb8c2D7ab2b5b0F5C8061bb6C87d"},
		{ID: "demo-2", Type: TxSend, Amount: 100, Token: "USDC", Status: TxConfirmed, Timestamp: now.Add(-48 * time.Hour),
			To: "0x8ba1f109551bD432803012645Hac136c30493c4"},
		{ID: "demo-1", Type: TxUnstake, Amount: 2, Token: "MATIC", Status: TxConfirmed, Timestamp: now.Add(-72 * time.Hour)},
		{ID: "demo-0", Type: TxStake, Amount: 5, Token: "MATIC", Status: TxConfirmed, Timestamp: now.Add(-96 * time.Hour)},
	}
}

// Option is a functional option for configuring a [Memory] wallet.
type Option func(*Memory)

// WithClock sets the time source for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// WithIDGenerator sets the transaction ID generator. Default: random UUIDs.
func WithIDGenerator(gen func() string) Option {
	return func(m *Memory) {
		m.newID = gen
	}
}

// WithTransactions seeds the history. Entries are kept in the given order
// (newest first).
func WithTransactions(txs []Transaction) Option {
	return func(m *Memory) {
		m.txs = append([]Transaction(nil), txs...)
	}
}

// Memory is an in-memory wallet. All methods are safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	balances []Balance
	index    map[string]int
	txs      []Transaction
	now      func() time.Time
	newID    func() string
}

// NewMemory creates a wallet holding a copy of balances. A nil slice seeds
// [DefaultBalances]. Symbols are upper-cased; later duplicates overwrite
// earlier ones.
func NewMemory(balances []Balance, opts ...Option) *Memory {
	if balances == nil {
		balances = DefaultBalances()
	}
	m := &Memory{
		index: make(map[string]int, len(balances)),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, b := range balances {
		b.Symbol = strings.ToUpper(strings.TrimSpace(b.Symbol))
		if i, ok := m.index[b.Symbol]; ok {
			m.balances[i] = b
			continue
		}
		m.index[b.Symbol] = len(m.balances)
		m.balances = append(m.balances, b)
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Symbols returns the held token symbols in seed order.
func (m *Memory) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.balances))
	for i, b := range m.balances {
		out[i] = b.Symbol
	}
	return out
}

// Balances returns a snapshot of all balances.
func (m *Memory) Balances() []Balance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Balance(nil), m.balances...)
}

// Balance returns the balance of symbol.
func (m *Memory) Balance(symbol string) (Balance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[strings.ToUpper(symbol)]
	if !ok {
		return Balance{}, false
	}
	return m.balances[i], true
}

// Transactions returns a snapshot of the history, newest first.
func (m *Memory) Transactions() []Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Transaction(nil), m.txs...)
}

// Transfer debits amount of currency and records a send transaction.
// Rejected transfers are recorded with status failed when the token is known.
func (m *Memory) Transfer(ctx context.Context, recipient string, amount float64, currency string) (TransferResult, error) {
	if err := ctx.Err(); err != nil {
		return TransferResult{}, err
	}
	recipient = strings.TrimSpace(recipient)
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if recipient == "" || amount <= 0 {
		return TransferResult{}, fmt.Errorf("%w: recipient %q amount %v", ErrInvalidTransfer, recipient, amount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[currency]
	if !ok {
		return TransferResult{}, fmt.Errorf("%w: %s", ErrUnknownToken, currency)
	}
	b := &m.balances[i]

	tx := Transaction{
		ID:        m.newID(),
		Type:      TxSend,
		Amount:    amount,
		Token:     currency,
		Timestamp: m.now(),
		To:        recipient,
	}
	if b.Balance < amount {
		tx.Status = TxFailed
		m.txs = append([]Transaction{tx}, m.txs...)
		return TransferResult{}, fmt.Errorf("%w: have %v %s, need %v", ErrInsufficientFunds, b.Balance, currency, amount)
	}

	if b.Balance > 0 {
		b.USDValue = b.USDValue * (b.Balance - amount) / b.Balance
	}
	b.Balance -= amount
	tx.Status = TxConfirmed
	m.txs = append([]Transaction{tx}, m.txs...)

	return TransferResult{Success: true, NewBalance: b.Balance, TxID: tx.ID}, nil
}

var _ Transferer = (*Memory)(nil)
