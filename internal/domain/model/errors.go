package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the application layer and its adapters. Callers
// match them with errors.Is; adapters wrap them with context.
var (
	// ErrUnauthorized indicates the claimed owner or redeemer does not match
	// the stored identity for the record.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyUsed indicates an access key has already been redeemed.
	ErrAlreadyUsed = errors.New("access key already used")

	// ErrInsufficientFunds indicates the payer's balance is below the amount
	// being transferred.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCapacityExceeded indicates a text field is longer than its fixed capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrServiceNotFound indicates the referenced service does not exist.
	ErrServiceNotFound = errors.New("service not found")

	// ErrAccessKeyNotFound indicates the referenced access key does not exist.
	ErrAccessKeyNotFound = errors.New("access key not found")

	// ErrBalanceOverflow indicates a credit would overflow the payee's balance.
	ErrBalanceOverflow = errors.New("balance overflow")

	// ErrInvalidIdentity indicates a malformed or zero identity.
	ErrInvalidIdentity = errors.New("invalid identity")
)

// CapacityError reports which field exceeded its capacity.
type CapacityError struct {
	Field string
	Len   int
	Max   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s is %d bytes, max %d: %s", e.Field, e.Len, e.Max, ErrCapacityExceeded)
}

// Is lets errors.Is(err, ErrCapacityExceeded) match a *CapacityError.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// CheckCapacity returns a *CapacityError when value is longer than max bytes.
func CheckCapacity(field, value string, max int) error {
	if len(value) > max {
		return &CapacityError{Field: field, Len: len(value), Max: max}
	}
	return nil
}
