package model

import (
	"time"

	"github.com/google/uuid"
)

// AccessKey is a single-use credential binding a requester to a service.
// Used transitions from false to true exactly once.
type AccessKey struct {
	ID          uuid.UUID
	ServiceID   uuid.UUID
	ServiceName string // Snapshot of the service name at issuance.
	Requester   Identity
	Price       uint64 // Bound at issuance, settled on redemption.
	Used        bool
	CreatedAt   time.Time
	UsedAt      *time.Time
}

// AccessRequested is published after an access key is issued so off-core
// fulfillment can react to it.
type AccessRequested struct {
	KeyID       uuid.UUID
	ServiceID   uuid.UUID
	ServiceName string
	Requester   Identity
	Price       uint64
	RequestedAt time.Time
}
