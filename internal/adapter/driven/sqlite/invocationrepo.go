package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.InvocationStore = (*InvocationRepo)(nil)

// InvocationRepo is the SQLite implementation of the InvocationStore port interface.
type InvocationRepo struct {
	reader querier
	writer querier
}

// NewInvocationRepo creates a new InvocationRepo backed by the given DB.
func NewInvocationRepo(db *DB) *InvocationRepo {
	return &InvocationRepo{reader: db.Reader, writer: db.Writer}
}

// Append records one invocation.
func (r *InvocationRepo) Append(ctx context.Context, inv model.Invocation) error {
	const query = `INSERT INTO invocations (id, service_id, caller, owner, amount, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.writer.ExecContext(ctx, query,
		inv.ID.String(),
		inv.ServiceID.String(),
		inv.Caller[:],
		inv.Owner[:],
		formatAmount(inv.Amount),
		formatTime(inv.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append invocation %s: %w", inv.ID, err)
	}
	return nil
}

// ListByService returns the invocations of a service, newest first.
func (r *InvocationRepo) ListByService(ctx context.Context, serviceID uuid.UUID) ([]model.Invocation, error) {
	const query = `SELECT id, service_id, caller, owner, amount, created_at
		FROM invocations WHERE service_id = ? ORDER BY created_at DESC, rowid DESC`

	rows, err := r.reader.QueryContext(ctx, query, serviceID.String())
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var invocations []model.Invocation
	for rows.Next() {
		var (
			inv       model.Invocation
			id        string
			svcID     string
			caller    []byte
			owner     []byte
			amount    string
			createdAt string
		)
		if err := rows.Scan(&id, &svcID, &caller, &owner, &amount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if inv.ID, err = parseUUID(id); err != nil {
			return nil, err
		}
		if inv.ServiceID, err = parseUUID(svcID); err != nil {
			return nil, err
		}
		if inv.Caller, err = parseIdentity(caller); err != nil {
			return nil, err
		}
		if inv.Owner, err = parseIdentity(owner); err != nil {
			return nil, err
		}
		if inv.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if inv.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		invocations = append(invocations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}

	return invocations, nil
}
