package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
	"github.com/ericfisherdev/agentmarket/internal/metrics"
)

// RegisterRequest is the caller-supplied metadata for a new service. It has
// no owner field: the owner always comes from the verified caller.
type RegisterRequest struct {
	Name        string
	Description string
	Endpoint    string
	Price       uint64
}

// RegistryService creates service records and serves the read side of the registry.
type RegistryService struct {
	tx       driven.Transactor
	services driven.ServiceStore
	now      func() time.Time
	newID    func() uuid.UUID
}

// NewRegistryService creates a new RegistryService. services is used for
// reads outside a unit of work.
func NewRegistryService(tx driven.Transactor, services driven.ServiceStore) *RegistryService {
	return &RegistryService{
		tx:       tx,
		services: services,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.New,
	}
}

// Register validates capacities, then creates a Service owned by caller.
// Nothing is persisted when validation fails.
func (s *RegistryService) Register(ctx context.Context, caller model.Identity, req RegisterRequest) (*model.Service, error) {
	defer observe("register", time.Now())

	if caller.IsZero() {
		metrics.ServicesRegistered.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, fmt.Errorf("register service: %w", model.ErrInvalidIdentity)
	}
	if err := model.ValidateServiceFields(req.Name, req.Description, req.Endpoint); err != nil {
		metrics.ServicesRegistered.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, fmt.Errorf("register service: %w", err)
	}

	svc := model.Service{
		ID:          s.newID(),
		Name:        req.Name,
		Description: req.Description,
		Endpoint:    req.Endpoint,
		Price:       req.Price,
		Owner:       caller,
		CreatedAt:   s.now(),
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx driven.Tx) error {
		return tx.Services().Create(ctx, svc)
	})
	if err != nil {
		metrics.ServicesRegistered.WithLabelValues(resultFor(err)).Inc()
		return nil, fmt.Errorf("register service %q: %w", req.Name, err)
	}

	metrics.ServicesRegistered.WithLabelValues(metrics.ResultOK).Inc()
	slog.Info("service registered",
		"service_id", svc.ID,
		"name", svc.Name,
		"owner", svc.Owner,
		"price", svc.Price,
	)
	return &svc, nil
}

// Get returns the service with the given ID or model.ErrServiceNotFound.
func (s *RegistryService) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, fmt.Errorf("get service %s: %w", id, model.ErrServiceNotFound)
	}
	return svc, nil
}

// List returns all registered services.
func (s *RegistryService) List(ctx context.Context) ([]model.Service, error) {
	return s.services.ListAll(ctx)
}

// ListByOwner returns the services registered by owner.
func (s *RegistryService) ListByOwner(ctx context.Context, owner model.Identity) ([]model.Service, error) {
	return s.services.ListByOwner(ctx, owner)
}
