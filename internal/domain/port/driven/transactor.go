// Package driven defines secondary port interfaces for external adapters.
package driven

import "context"

// Tx exposes the stores bound to a single unit of work. Every mutation made
// through a Tx commits together or not at all.
type Tx interface {
	Services() ServiceStore
	AccessKeys() AccessKeyStore
	Ledger() LedgerStore
	Invocations() InvocationStore
	Settlements() SettlementStore
}

// Transactor runs fn as one atomic, serialized unit of work. If fn returns an
// error (or ctx is cancelled) nothing fn did is persisted, and the error is
// returned unchanged.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
