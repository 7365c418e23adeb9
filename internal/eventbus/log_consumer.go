package eventbus

import (
	"context"

	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/event"
)

// LogConsumer logs all domain events for observability.
type LogConsumer struct {
	logger *zap.Logger
}

func NewLogConsumer(logger *zap.Logger) *LogConsumer {
	return &LogConsumer{logger: logger.Named("events")}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.logger.Info(evt.Summary,
		zap.String("event_type", evt.EventType),
		zap.String("event_id", evt.ID),
		zap.Int("person_id", evt.PersonID),
		zap.Time("occurred_at", evt.OccurredAt))
	return nil
}
