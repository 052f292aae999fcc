package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Transactor = (*Store)(nil)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite unit of work. Units run on the single writer
// connection, so they never interleave.
type Store struct {
	db *DB
}

// NewStore creates a new Store backed by the given DB.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn in one transaction and commits only if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx driven.Tx) error) error {
	return runTx(ctx, s.db.Writer, func(tx *sql.Tx) error {
		return fn(ctx, txStores{tx: tx})
	})
}

// runTx begins a transaction on db, runs fn, and commits. Any error or panic
// from fn rolls the transaction back. fn's error is returned unwrapped so
// callers can match sentinels.
func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// txStores binds every repo to the same *sql.Tx.
type txStores struct {
	tx *sql.Tx
}

func (t txStores) Services() driven.ServiceStore {
	return &ServiceRepo{reader: t.tx, writer: t.tx}
}

func (t txStores) AccessKeys() driven.AccessKeyStore {
	return &AccessKeyRepo{reader: t.tx, writer: t.tx}
}

func (t txStores) Ledger() driven.LedgerStore {
	return &LedgerRepo{reader: t.tx, tx: t.tx}
}

func (t txStores) Invocations() driven.InvocationStore {
	return &InvocationRepo{reader: t.tx, writer: t.tx}
}

func (t txStores) Settlements() driven.SettlementStore {
	return &SettlementRepo{reader: t.tx, writer: t.tx}
}
