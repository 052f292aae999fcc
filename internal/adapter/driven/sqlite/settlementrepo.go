package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SettlementStore = (*SettlementRepo)(nil)

// SettlementRepo is the SQLite implementation of the SettlementStore port interface.
type SettlementRepo struct {
	reader querier
	writer querier
}

// NewSettlementRepo creates a new SettlementRepo backed by the given DB.
func NewSettlementRepo(db *DB) *SettlementRepo {
	return &SettlementRepo{reader: db.Reader, writer: db.Writer}
}

// Record appends one settlement.
func (r *SettlementRepo) Record(ctx context.Context, s model.Settlement) error {
	const query = `INSERT INTO settlements (id, kind, service_id, reference, payer, payee, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.writer.ExecContext(ctx, query,
		s.ID.String(),
		string(s.Kind),
		s.ServiceID.String(),
		s.Reference.String(),
		s.Payer[:],
		s.Payee[:],
		formatAmount(s.Amount),
		formatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record settlement %s: %w", s.ID, err)
	}
	return nil
}

// ListByParty returns the settlements id paid or received, newest first.
func (r *SettlementRepo) ListByParty(ctx context.Context, id model.Identity) ([]model.Settlement, error) {
	const query = `SELECT id, kind, service_id, reference, payer, payee, amount, created_at
		FROM settlements WHERE payer = ? OR payee = ? ORDER BY created_at DESC, rowid DESC`

	rows, err := r.reader.QueryContext(ctx, query, id[:], id[:])
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []model.Settlement
	for rows.Next() {
		var (
			s         model.Settlement
			sid       string
			kind      string
			serviceID string
			reference string
			payer     []byte
			payee     []byte
			amount    string
			createdAt string
		)
		if err := rows.Scan(&sid, &kind, &serviceID, &reference, &payer, &payee, &amount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		s.Kind = model.SettlementKind(kind)
		if s.ID, err = parseUUID(sid); err != nil {
			return nil, err
		}
		if s.ServiceID, err = parseUUID(serviceID); err != nil {
			return nil, err
		}
		if s.Reference, err = parseUUID(reference); err != nil {
			return nil, err
		}
		if s.Payer, err = parseIdentity(payer); err != nil {
			return nil, err
		}
		if s.Payee, err = parseIdentity(payee); err != nil {
			return nil, err
		}
		if s.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		settlements = append(settlements, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}

	return settlements, nil
}
