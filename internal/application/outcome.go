// Package application contains the marketplace use cases. Services depend
// only on driven ports; every mutation runs inside one Transactor unit.
package application

import (
	"errors"
	"time"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/metrics"
)

// resultFor maps an operation error onto a metrics result label.
func resultFor(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, model.ErrUnauthorized):
		return metrics.ResultUnauthorized
	case errors.Is(err, model.ErrInsufficientFunds):
		return metrics.ResultInsufficientFunds
	case errors.Is(err, model.ErrAlreadyUsed):
		return metrics.ResultAlreadyUsed
	case errors.Is(err, model.ErrServiceNotFound), errors.Is(err, model.ErrAccessKeyNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, model.ErrCapacityExceeded), errors.Is(err, model.ErrInvalidIdentity), errors.Is(err, model.ErrEmptyServiceName):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}

func observe(operation string, start time.Time) {
	metrics.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
