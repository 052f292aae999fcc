// Package eventlog writes marketplace events to the structured log. It is the
// publisher used when no broker is configured.
package eventlog

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EventPublisher = (*Publisher)(nil)

// Publisher logs each event at info level.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher creates a Publisher writing to logger.
func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// PublishAccessRequested logs evt. It never fails.
func (p *Publisher) PublishAccessRequested(ctx context.Context, evt model.AccessRequested) error {
	p.logger.LogAttrs(ctx, slog.LevelInfo, "access requested",
		slog.String("event", "AccessRequested"),
		slog.String("key_id", evt.KeyID.String()),
		slog.String("service_id", evt.ServiceID.String()),
		slog.String("service_name", evt.ServiceName),
		slog.String("requester", evt.Requester.String()),
		slog.Uint64("price", evt.Price),
		slog.Time("requested_at", evt.RequestedAt),
	)
	return nil
}
