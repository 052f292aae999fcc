package model

import (
	"time"

	"github.com/google/uuid"
)

// SettlementKind names the operation that moved funds.
type SettlementKind string

const (
	SettlementInvoke SettlementKind = "invoke"
	SettlementRedeem SettlementKind = "redeem"
)

// Settlement is one ledger movement from a payer to a payee. Reference is the
// invocation ID for invoke and the access key ID for redeem.
type Settlement struct {
	ID        uuid.UUID
	Kind      SettlementKind
	ServiceID uuid.UUID
	Reference uuid.UUID
	Payer     Identity
	Payee     Identity
	Amount    uint64
	CreatedAt time.Time
}
