package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ServiceStore = (*ServiceRepo)(nil)

// ErrServiceAlreadyExists indicates a service with the same ID already exists.
var ErrServiceAlreadyExists = errors.New("service already exists")

// ServiceRepo is the SQLite implementation of the ServiceStore port interface.
type ServiceRepo struct {
	reader querier
	writer querier
}

// NewServiceRepo creates a new ServiceRepo backed by the given DB.
func NewServiceRepo(db *DB) *ServiceRepo {
	return &ServiceRepo{reader: db.Reader, writer: db.Writer}
}

const serviceColumns = `id, name, description, endpoint, price, owner, created_at`

// Create inserts a new service record.
func (r *ServiceRepo) Create(ctx context.Context, svc model.Service) error {
	const query = `INSERT INTO services (` + serviceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.writer.ExecContext(ctx, query,
		svc.ID.String(),
		svc.Name,
		svc.Description,
		svc.Endpoint,
		formatAmount(svc.Price),
		svc.Owner[:],
		formatTime(svc.CreatedAt),
	)
	if err != nil {
		switch {
		case isConstraintError(err, "UNIQUE"):
			return fmt.Errorf("create service %s: %w", svc.ID, ErrServiceAlreadyExists)
		case isConstraintError(err, "CHECK"):
			return fmt.Errorf("create service %s: %w: %v", svc.ID, model.ErrCapacityExceeded, err)
		}
		return fmt.Errorf("create service %s: %w", svc.ID, err)
	}

	return nil
}

// GetByID retrieves a service by ID. Returns nil, nil if it does not exist.
func (r *ServiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	const query = `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`

	svc, err := scanService(r.reader.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}

	return svc, nil
}

// ListAll returns all services ordered by creation time.
func (r *ServiceRepo) ListAll(ctx context.Context) ([]model.Service, error) {
	const query = `SELECT ` + serviceColumns + ` FROM services ORDER BY created_at, id`
	return r.list(ctx, "list services", query)
}

// ListByOwner returns the services owned by owner ordered by creation time.
func (r *ServiceRepo) ListByOwner(ctx context.Context, owner model.Identity) ([]model.Service, error) {
	const query = `SELECT ` + serviceColumns + ` FROM services WHERE owner = ? ORDER BY created_at, id`
	return r.list(ctx, "list services by owner", query, owner[:])
}

func (r *ServiceRepo) list(ctx context.Context, op, query string, args ...any) ([]model.Service, error) {
	rows, err := r.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, *svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return services, nil
}

func scanService(s scanner) (*model.Service, error) {
	var (
		svc       model.Service
		id        string
		price     string
		owner     []byte
		createdAt string
	)

	err := s.Scan(&id, &svc.Name, &svc.Description, &svc.Endpoint, &price, &owner, &createdAt)
	if err != nil {
		return nil, err
	}

	if svc.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	if svc.Price, err = parseAmount(price); err != nil {
		return nil, err
	}
	if svc.Owner, err = parseIdentity(owner); err != nil {
		return nil, err
	}
	if svc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &svc, nil
}
