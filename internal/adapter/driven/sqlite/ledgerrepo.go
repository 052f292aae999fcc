package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LedgerStore = (*LedgerRepo)(nil)

// LedgerRepo is the SQLite implementation of the LedgerStore port interface.
// Outside a Store unit, Transfer and Credit open their own transaction on the
// writer connection, so each call is still all-or-nothing.
type LedgerRepo struct {
	reader querier
	db     *DB     // nil inside a unit of work
	tx     *sql.Tx // nil outside a unit of work
}

// NewLedgerRepo creates a new LedgerRepo backed by the given DB.
func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{reader: db.Reader, db: db}
}

// Balance returns the identity's balance; identities without a row hold 0.
func (r *LedgerRepo) Balance(ctx context.Context, id model.Identity) (uint64, error) {
	return balanceOf(ctx, r.reader, id)
}

// Transfer moves amount from one identity to another.
func (r *LedgerRepo) Transfer(ctx context.Context, from, to model.Identity, amount uint64) error {
	if amount == 0 {
		return nil
	}

	return r.withTx(ctx, func(q querier) error {
		fromBalance, err := balanceOf(ctx, q, from)
		if err != nil {
			return err
		}
		if fromBalance < amount {
			return fmt.Errorf("transfer %d from %s (balance %d): %w", amount, from, fromBalance, model.ErrInsufficientFunds)
		}
		if from == to {
			return nil
		}

		toBalance, err := balanceOf(ctx, q, to)
		if err != nil {
			return err
		}
		if toBalance > math.MaxUint64-amount {
			return fmt.Errorf("transfer %d to %s: %w", amount, to, model.ErrBalanceOverflow)
		}

		if err := setBalance(ctx, q, from, fromBalance-amount); err != nil {
			return err
		}
		return setBalance(ctx, q, to, toBalance+amount)
	})
}

// Credit adds amount to the identity's balance and returns the new balance.
func (r *LedgerRepo) Credit(ctx context.Context, id model.Identity, amount uint64) (uint64, error) {
	var balance uint64
	err := r.withTx(ctx, func(q querier) error {
		current, err := balanceOf(ctx, q, id)
		if err != nil {
			return err
		}
		if current > math.MaxUint64-amount {
			return fmt.Errorf("credit %d to %s: %w", amount, id, model.ErrBalanceOverflow)
		}
		balance = current + amount
		return setBalance(ctx, q, id, balance)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *LedgerRepo) withTx(ctx context.Context, fn func(q querier) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return runTx(ctx, r.db.Writer, func(tx *sql.Tx) error {
		return fn(tx)
	})
}

func balanceOf(ctx context.Context, q querier, id model.Identity) (uint64, error) {
	const query = `SELECT amount FROM balances WHERE identity = ?`

	var amount string
	err := q.QueryRowContext(ctx, query, id[:]).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance %s: %w", id, err)
	}
	return parseAmount(amount)
}

func setBalance(ctx context.Context, q querier, id model.Identity, amount uint64) error {
	const query = `INSERT INTO balances (identity, amount, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`

	if _, err := q.ExecContext(ctx, query, id[:], formatAmount(amount), formatTime(time.Now())); err != nil {
		return fmt.Errorf("set balance %s: %w", id, err)
	}
	return nil
}
