package wallet

import (
	"context"
	"errors"

	"github.com/Kingvic300/Inkluziv--wallet/internal/resilience"
)

// Guarded wraps a [Transferer] with a circuit breaker. Business rejections
// (see [IsRejection]) pass through without counting as failures.
type Guarded struct {
	next Transferer
	cb   *resilience.CircuitBreaker
}

// NewGuarded returns a Guarded transferer. cfg.IsFailure is overridden.
func NewGuarded(next Transferer, cfg resilience.CircuitBreakerConfig) *Guarded {
	if cfg.Name == "" {
		cfg.Name = "wallet-transfer"
	}
	cfg.IsFailure = func(err error) bool {
		return err != nil && !IsRejection(err) && !errors.Is(err, context.Canceled)
	}
	return &Guarded{next: next, cb: resilience.NewCircuitBreaker(cfg)}
}

// Transfer forwards to the wrapped transferer unless the breaker is open, in
// which case it returns [resilience.ErrCircuitOpen].
func (g *Guarded) Transfer(ctx context.Context, recipient string, amount float64, currency string) (TransferResult, error) {
	var res TransferResult
	err := g.cb.Execute(func() error {
		var err error
		res, err = g.next.Transfer(ctx, recipient, amount, currency)
		return err
	})
	return res, err
}

// State returns the breaker state, used by the readiness check.
func (g *Guarded) State() resilience.State {
	return g.cb.State()
}

var _ Transferer = (*Guarded)(nil)
