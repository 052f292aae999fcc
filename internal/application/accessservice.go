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

// AccessService issues single-use access keys and redeems them.
type AccessService struct {
	tx        driven.Transactor
	keys      driven.AccessKeyStore
	publisher driven.EventPublisher
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewAccessService creates a new AccessService. keys is used for reads
// outside a unit of work.
func NewAccessService(tx driven.Transactor, keys driven.AccessKeyStore, publisher driven.EventPublisher) *AccessService {
	return &AccessService{
		tx:        tx,
		keys:      keys,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.New,
	}
}

// RequestAccess issues an unused key for serviceID to caller. The service
// must exist; its name and current price are bound into the key. An
// AccessRequested event is published after the key is committed.
func (s *AccessService) RequestAccess(ctx context.Context, caller model.Identity, serviceID uuid.UUID) (*model.AccessKey, error) {
	defer observe("request_access", time.Now())

	if caller.IsZero() {
		metrics.AccessKeysIssued.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, fmt.Errorf("request access: %w", model.ErrInvalidIdentity)
	}

	var key model.AccessKey
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx driven.Tx) error {
		svc, err := tx.Services().GetByID(ctx, serviceID)
		if err != nil {
			return err
		}
		if svc == nil {
			return model.ErrServiceNotFound
		}

		key = model.AccessKey{
			ID:          s.newID(),
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Requester:   caller,
			Price:       svc.Price,
			Used:        false,
			CreatedAt:   s.now(),
		}
		return tx.AccessKeys().Create(ctx, key)
	})
	metrics.AccessKeysIssued.WithLabelValues(resultFor(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("request access to service %s: %w", serviceID, err)
	}

	slog.Info("access key issued",
		"key_id", key.ID,
		"service_id", key.ServiceID,
		"service_name", key.ServiceName,
		"requester", key.Requester,
	)

	evt := model.AccessRequested{
		KeyID:       key.ID,
		ServiceID:   key.ServiceID,
		ServiceName: key.ServiceName,
		Requester:   key.Requester,
		Price:       key.Price,
		RequestedAt: key.CreatedAt,
	}
	if err := s.publisher.PublishAccessRequested(ctx, evt); err != nil {
		// The key is committed; observers can still discover it by listing.
		metrics.EventPublishErrors.Inc()
		slog.Error("publish access requested event failed", "key_id", key.ID, "error", err)
	}

	return &key, nil
}

// MarkUsed redeems a key exactly once. The caller must be the key's requester
// or the service owner. Redemption settles the bound price from the requester
// to the service owner in the same unit that flips the used flag, so a failed
// settlement leaves the key unused.
func (s *AccessService) MarkUsed(ctx context.Context, keyID uuid.UUID, caller model.Identity) (*model.AccessKey, error) {
	defer observe("mark_used", time.Now())

	var key *model.AccessKey
	var owner model.Identity
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx driven.Tx) error {
		var err error
		key, err = tx.AccessKeys().GetByID(ctx, keyID)
		if err != nil {
			return err
		}
		if key == nil {
			return model.ErrAccessKeyNotFound
		}
		if key.Used {
			return model.ErrAlreadyUsed
		}

		svc, err := tx.Services().GetByID(ctx, key.ServiceID)
		if err != nil {
			return err
		}
		if svc == nil {
			return model.ErrServiceNotFound
		}
		owner = svc.Owner

		if caller != key.Requester && caller != svc.Owner {
			return fmt.Errorf("caller %s may not redeem key %s: %w", caller, key.ID, model.ErrUnauthorized)
		}

		if err := tx.Ledger().Transfer(ctx, key.Requester, svc.Owner, key.Price); err != nil {
			return err
		}

		usedAt := s.now()
		if err := tx.AccessKeys().MarkUsed(ctx, key.ID, usedAt); err != nil {
			return err
		}
		key.Used = true
		key.UsedAt = &usedAt

		return tx.Settlements().Record(ctx, model.Settlement{
			ID:        s.newID(),
			Kind:      model.SettlementRedeem,
			ServiceID: key.ServiceID,
			Reference: key.ID,
			Payer:     key.Requester,
			Payee:     svc.Owner,
			Amount:    key.Price,
			CreatedAt: usedAt,
		})
	})
	metrics.AccessKeysRedeemed.WithLabelValues(resultFor(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("mark access key %s used: %w", keyID, err)
	}

	metrics.SettledUnits.WithLabelValues("redeem").Add(float64(key.Price))
	slog.Info("access key redeemed",
		"key_id", key.ID,
		"service_id", key.ServiceID,
		"requester", key.Requester,
		"owner", owner,
		"amount", key.Price,
	)
	return key, nil
}

// GetKey returns the key with the given ID or model.ErrAccessKeyNotFound.
func (s *AccessService) GetKey(ctx context.Context, id uuid.UUID) (*model.AccessKey, error) {
	key, err := s.keys.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("get access key %s: %w", id, model.ErrAccessKeyNotFound)
	}
	return key, nil
}

// ListByRequester returns the keys issued to requester.
func (s *AccessService) ListByRequester(ctx context.Context, requester model.Identity) ([]model.AccessKey, error) {
	return s.keys.ListByRequester(ctx, requester)
}
