package driven

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
)

// AccessKeyStore defines the driven port for access key persistence.
type AccessKeyStore interface {
	Create(ctx context.Context, key model.AccessKey) error

	// GetByID returns nil, nil when the key does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.AccessKey, error)

	// MarkUsed flips used from false to true. It returns model.ErrAlreadyUsed
	// when the key is already used and model.ErrAccessKeyNotFound when it
	// does not exist. There is no way back to false.
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error

	ListByRequester(ctx context.Context, requester model.Identity) ([]model.AccessKey, error)
}
