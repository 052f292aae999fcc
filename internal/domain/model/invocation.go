package model

import (
	"time"

	"github.com/google/uuid"
)

// Invocation is the audit record written alongside each successful invoke.
type Invocation struct {
	ID        uuid.UUID
	ServiceID uuid.UUID
	Caller    Identity
	Owner     Identity
	Amount    uint64
	CreatedAt time.Time
}

// Account is the ledger view of a single identity.
type Account struct {
	Identity Identity
	Balance  uint64
}
