package driven

import (
	"context"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// ServiceStore defines the driven port for service record persistence.
// GetByID returns nil, nil when the service does not exist.
type ServiceStore interface {
	Create(ctx context.Context, svc model.Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	ListAll(ctx context.Context) ([]model.Service, error)
	ListByOwner(ctx context.Context, owner model.Identity) ([]model.Service, error)
}
