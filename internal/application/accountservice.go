package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// AccountService exposes ledger balances, settlement history and the
// development faucet.
type AccountService struct {
	tx          driven.Transactor
	ledger      driven.LedgerStore
	settlements driven.SettlementStore
}

// NewAccountService creates a new AccountService. ledger and settlements are
// used for reads outside a unit of work.
func NewAccountService(tx driven.Transactor, ledger driven.LedgerStore, settlements driven.SettlementStore) *AccountService {
	return &AccountService{tx: tx, ledger: ledger, settlements: settlements}
}

// Balance returns the balance held by id.
func (s *AccountService) Balance(ctx context.Context, id model.Identity) (uint64, error) {
	return s.ledger.Balance(ctx, id)
}

// History returns every settlement id paid or received, newest first.
func (s *AccountService) History(ctx context.Context, id model.Identity) ([]model.Settlement, error) {
	return s.settlements.ListByParty(ctx, id)
}

// Airdrop credits amount to id and returns the new balance.
func (s *AccountService) Airdrop(ctx context.Context, id model.Identity, amount uint64) (uint64, error) {
	if id.IsZero() {
		return 0, fmt.Errorf("airdrop: %w", model.ErrInvalidIdentity)
	}

	var balance uint64
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx driven.Tx) error {
		var err error
		balance, err = tx.Ledger().Credit(ctx, id, amount)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("airdrop %d to %s: %w", amount, id, err)
	}

	slog.Info("airdrop credited", "identity", id, "amount", amount, "balance", balance)
	return balance, nil
}
