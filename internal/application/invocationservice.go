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

// InvocationService bills callers for invoking a registered service.
type InvocationService struct {
	tx          driven.Transactor
	invocations driven.InvocationStore
	now         func() time.Time
	newID       func() uuid.UUID
}

// NewInvocationService creates a new InvocationService. invocations is used
// for reads outside a unit of work.
func NewInvocationService(tx driven.Transactor, invocations driven.InvocationStore) *InvocationService {
	return &InvocationService{
		tx:          tx,
		invocations: invocations,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.New,
	}
}

// Invoke checks claimedOwner against the stored owner and, only if they
// match, transfers the service price from caller to claimedOwner and records
// the invocation and its settlement. All of it commits together or not at
// all. Repeated calls are billed again.
func (s *InvocationService) Invoke(ctx context.Context, serviceID uuid.UUID, caller, claimedOwner model.Identity) (*model.Invocation, error) {
	defer observe("invoke", time.Now())

	if caller.IsZero() {
		metrics.Invocations.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, fmt.Errorf("invoke service %s: %w", serviceID, model.ErrInvalidIdentity)
	}

	var inv model.Invocation
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx driven.Tx) error {
		svc, err := tx.Services().GetByID(ctx, serviceID)
		if err != nil {
			return err
		}
		if svc == nil {
			return model.ErrServiceNotFound
		}

		// Compare before any transfer.
		if claimedOwner != svc.Owner {
			return fmt.Errorf("claimed owner %s is not the owner of service %s: %w", claimedOwner, svc.ID, model.ErrUnauthorized)
		}

		if err := tx.Ledger().Transfer(ctx, caller, claimedOwner, svc.Price); err != nil {
			return err
		}

		inv = model.Invocation{
			ID:        s.newID(),
			ServiceID: svc.ID,
			Caller:    caller,
			Owner:     svc.Owner,
			Amount:    svc.Price,
			CreatedAt: s.now(),
		}
		if err := tx.Invocations().Append(ctx, inv); err != nil {
			return err
		}
		return tx.Settlements().Record(ctx, model.Settlement{
			ID:        s.newID(),
			Kind:      model.SettlementInvoke,
			ServiceID: inv.ServiceID,
			Reference: inv.ID,
			Payer:     inv.Caller,
			Payee:     inv.Owner,
			Amount:    inv.Amount,
			CreatedAt: inv.CreatedAt,
		})
	})
	metrics.Invocations.WithLabelValues(resultFor(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("invoke service %s: %w", serviceID, err)
	}

	metrics.SettledUnits.WithLabelValues("invoke").Add(float64(inv.Amount))
	slog.Info("service invoked",
		"service_id", inv.ServiceID,
		"caller", inv.Caller,
		"owner", inv.Owner,
		"amount", inv.Amount,
	)
	return &inv, nil
}

// ListByService returns the invocation log of a service, newest first.
func (s *InvocationService) ListByService(ctx context.Context, serviceID uuid.UUID) ([]model.Invocation, error) {
	return s.invocations.ListByService(ctx, serviceID)
}
