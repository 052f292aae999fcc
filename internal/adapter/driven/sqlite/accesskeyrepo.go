package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccessKeyStore = (*AccessKeyRepo)(nil)

// AccessKeyRepo is the SQLite implementation of the AccessKeyStore port interface.
type AccessKeyRepo struct {
	reader querier
	writer querier
}

// NewAccessKeyRepo creates a new AccessKeyRepo backed by the given DB.
func NewAccessKeyRepo(db *DB) *AccessKeyRepo {
	return &AccessKeyRepo{reader: db.Reader, writer: db.Writer}
}

const accessKeyColumns = `id, service_id, service_name, requester, price, used, created_at, used_at`

// Create inserts a new access key. The service must exist.
func (r *AccessKeyRepo) Create(ctx context.Context, key model.AccessKey) error {
	const query = `INSERT INTO access_keys (` + accessKeyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var usedAt any
	if key.UsedAt != nil {
		usedAt = formatTime(*key.UsedAt)
	}

	_, err := r.writer.ExecContext(ctx, query,
		key.ID.String(),
		key.ServiceID.String(),
		key.ServiceName,
		key.Requester[:],
		formatAmount(key.Price),
		key.Used,
		formatTime(key.CreatedAt),
		usedAt,
	)
	if err != nil {
		switch {
		case isConstraintError(err, "FOREIGN KEY"):
			return fmt.Errorf("create access key %s: %w", key.ID, model.ErrServiceNotFound)
		case isConstraintError(err, "CHECK"):
			return fmt.Errorf("create access key %s: %w: %v", key.ID, model.ErrCapacityExceeded, err)
		}
		return fmt.Errorf("create access key %s: %w", key.ID, err)
	}

	return nil
}

// GetByID retrieves an access key by ID. Returns nil, nil if it does not exist.
func (r *AccessKeyRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.AccessKey, error) {
	const query = `SELECT ` + accessKeyColumns + ` FROM access_keys WHERE id = ?`

	key, err := scanAccessKey(r.reader.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get access key %s: %w", id, err)
	}

	return key, nil
}

// MarkUsed flips used to true only if it is currently false. The guard is
// part of the UPDATE, so two redemptions can never both succeed.
func (r *AccessKeyRepo) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	const query = `UPDATE access_keys SET used = 1, used_at = ? WHERE id = ? AND used = 0`

	result, err := r.writer.ExecContext(ctx, query, formatTime(usedAt), id.String())
	if err != nil {
		return fmt.Errorf("mark access key %s used: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var count int
	const exists = `SELECT COUNT(*) FROM access_keys WHERE id = ?`
	if err := r.writer.QueryRowContext(ctx, exists, id.String()).Scan(&count); err != nil {
		return fmt.Errorf("check access key %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("mark access key %s used: %w", id, model.ErrAccessKeyNotFound)
	}
	return fmt.Errorf("mark access key %s used: %w", id, model.ErrAlreadyUsed)
}

// ListByRequester returns the keys issued to requester, newest first.
func (r *AccessKeyRepo) ListByRequester(ctx context.Context, requester model.Identity) ([]model.AccessKey, error) {
	const query = `SELECT ` + accessKeyColumns + ` FROM access_keys WHERE requester = ? ORDER BY created_at DESC, id`

	rows, err := r.reader.QueryContext(ctx, query, requester[:])
	if err != nil {
		return nil, fmt.Errorf("list access keys: %w", err)
	}
	defer rows.Close()

	var keys []model.AccessKey
	for rows.Next() {
		key, err := scanAccessKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access key: %w", err)
		}
		keys = append(keys, *key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access keys: %w", err)
	}

	return keys, nil
}

func scanAccessKey(s scanner) (*model.AccessKey, error) {
	var (
		key       model.AccessKey
		id        string
		serviceID string
		requester []byte
		price     string
		createdAt string
		usedAt    sql.NullString
	)

	err := s.Scan(&id, &serviceID, &key.ServiceName, &requester, &price, &key.Used, &createdAt, &usedAt)
	if err != nil {
		return nil, err
	}

	if key.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	if key.ServiceID, err = parseUUID(serviceID); err != nil {
		return nil, err
	}
	if key.Requester, err = parseIdentity(requester); err != nil {
		return nil, err
	}
	if key.Price, err = parseAmount(price); err != nil {
		return nil, err
	}
	if key.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if usedAt.Valid {
		t, err := parseTime(usedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse used_at: %w", err)
		}
		key.UsedAt = &t
	}

	return &key, nil
}
