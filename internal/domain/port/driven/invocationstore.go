package driven

import (
	"context"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// InvocationStore defines the driven port for the invocation audit log.
// ListByService returns newest first.
type InvocationStore interface {
	Append(ctx context.Context, inv model.Invocation) error
	ListByService(ctx context.Context, serviceID uuid.UUID) ([]model.Invocation, error)
}
