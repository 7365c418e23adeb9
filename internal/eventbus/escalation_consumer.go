package eventbus

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/event"
	"github.com/matthewbaird/signify/internal/metrics"
	"github.com/matthewbaird/signify/internal/types"
)

// EscalationConsumer watches risk category changes and raises a warning
// whenever a person enters red, from either the signal flags or the
// signal log.
type EscalationConsumer struct {
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu          sync.Mutex
	escalations map[int]int
}

// NewEscalationConsumer creates the consumer. m may be nil.
func NewEscalationConsumer(logger *zap.Logger, m *metrics.Metrics) *EscalationConsumer {
	return &EscalationConsumer{
		logger:      logger.Named("escalation"),
		metrics:     m,
		escalations: make(map[int]int),
	}
}

func (c *EscalationConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	if evt.EventType != event.TypeRiskCategoryChanged {
		return nil
	}
	var p event.RiskCategoryChangedPayload
	if err := event.DecodePayload(evt, &p); err != nil {
		return err
	}

	switch {
	case p.To == types.RiskRed && p.From != types.RiskRed:
		c.mu.Lock()
		c.escalations[p.PersonID]++
		n := c.escalations[p.PersonID]
		c.mu.Unlock()

		c.metrics.Escalation(p.Source)
		c.logger.Warn("person entered high risk",
			zap.Int("person_id", p.PersonID),
			zap.String("source", p.Source),
			zap.String("from", string(p.From)),
			zap.Int("times_escalated", n))
	case p.From == types.RiskRed:
		c.logger.Info("person left high risk",
			zap.Int("person_id", p.PersonID),
			zap.String("source", p.Source),
			zap.String("to", string(p.To)))
	}
	return nil
}

// Escalations returns how many times the person has entered red.
func (c *EscalationConsumer) Escalations(personID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.escalations[personID]
}
