package driven

import (
	"context"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// LedgerStore defines the driven port for account balances.
type LedgerStore interface {
	// Balance returns the identity's balance; unknown identities hold 0.
	Balance(ctx context.Context, id model.Identity) (uint64, error)

	// Transfer moves amount from one identity to another. It returns
	// model.ErrInsufficientFunds when from holds less than amount and
	// model.ErrBalanceOverflow when the credit would overflow. Neither side
	// changes on error.
	Transfer(ctx context.Context, from, to model.Identity, amount uint64) error

	// Credit adds amount to the identity's balance and returns the new balance.
	Credit(ctx context.Context, id model.Identity, amount uint64) (uint64, error)
}
