package driven

import (
	"context"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// SettlementStore defines the driven port for the per-identity transaction
// history. ListByParty returns settlements where id is payer or payee,
// newest first.
type SettlementStore interface {
	Record(ctx context.Context, s model.Settlement) error
	ListByParty(ctx context.Context, id model.Identity) ([]model.Settlement, error)
}
