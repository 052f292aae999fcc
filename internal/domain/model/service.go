package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Fixed field capacities in bytes. They bound the stored record layout and
// are enforced before any record is created.
const (
	MaxServiceNameLen = 64
	MaxDescriptionLen = 256
	MaxEndpointLen    = 256
)

// ErrEmptyServiceName is returned when a service is registered without a name.
var ErrEmptyServiceName = errors.New("service name is required")

// Service is a callable resource (agent or API) offered at a fixed price.
type Service struct {
	ID          uuid.UUID
	Name        string
	Description string
	Endpoint    string
	Price       uint64   // Units moved from caller to owner per invocation; may be 0.
	Owner       Identity // Set once from the registering caller.
	CreatedAt   time.Time
}

// ValidateServiceFields checks the metadata capacities shared by registration
// and record encoding.
func ValidateServiceFields(name, description, endpoint string) error {
	if name == "" {
		return ErrEmptyServiceName
	}
	if err := CheckCapacity("name", name, MaxServiceNameLen); err != nil {
		return err
	}
	if err := CheckCapacity("description", description, MaxDescriptionLen); err != nil {
		return err
	}
	return CheckCapacity("endpoint", endpoint, MaxEndpointLen)
}
