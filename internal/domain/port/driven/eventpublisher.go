package driven

import (
	"context"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// EventPublisher delivers issuance events to external observers.
type EventPublisher interface {
	PublishAccessRequested(ctx context.Context, evt model.AccessRequested) error
}
