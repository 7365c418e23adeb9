package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matthewbaird/signify/internal/event"
	"github.com/matthewbaird/signify/internal/metrics"
	"github.com/matthewbaird/signify/internal/types"
)

type collector struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (c *collector) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *collector) eventTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.EventType
	}
	return out
}

func changed(personID int, from, to types.RiskCategory) event.DomainEvent {
	return event.NewRiskCategoryChanged(event.RiskCategoryChangedPayload{
		PersonID: personID, Source: event.SourceSignalLog, From: from, To: to,
	})
}

func TestBus_DispatchesInOrderAndDrainsOnStop(t *testing.T) {
	bus := New(16, zap.NewNop(), nil)
	c := &collector{}
	bus.Subscribe("collector", c)
	bus.Start(context.Background())

	bus.Publish(context.Background(), event.NewSignalsCleared(event.SignalsClearedPayload{PersonID: 1}))
	bus.Publish(context.Background(), changed(1, types.RiskAmber, types.RiskGreen))
	bus.Stop()

	assert.Equal(t, []string{event.TypeSignalsCleared, event.TypeRiskCategoryChanged}, c.eventTypes())
}

func TestBus_StopWithoutStartAndTwice(t *testing.T) {
	bus := New(1, nil, nil)
	done := make(chan struct{})
	go func() {
		bus.Stop()
		bus.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked")
	}

	// Publishing after Stop is dropped rather than panicking.
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), changed(1, types.RiskGreen, types.RiskRed))
	})
}

func TestBus_DropsWhenFull(t *testing.T) {
	m := metrics.New()
	core, logs := observer.New(zap.WarnLevel)
	bus := New(1, zap.New(core), m)

	bus.Publish(context.Background(), changed(1, types.RiskGreen, types.RiskAmber))
	bus.Publish(context.Background(), changed(1, types.RiskAmber, types.RiskRed))

	assert.Equal(t, 1, logs.FilterMessage("buffer full, dropping event").Len())
	bus.Stop()
}

func TestBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := New(4, zap.New(core), nil)
	c := &collector{}
	bus.Subscribe("failing", HandlerFunc(func(context.Context, event.DomainEvent) error {
		return errors.New("boom")
	}))
	bus.Subscribe("collector", c)
	bus.Start(context.Background())

	bus.Publish(context.Background(), changed(2, types.RiskGreen, types.RiskAmber))
	bus.Stop()

	assert.Len(t, c.eventTypes(), 1)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failing", logs.All()[0].ContextMap()["handler"])
}

func TestEscalationConsumer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := NewEscalationConsumer(zap.New(core), metrics.New())
	ctx := context.Background()

	require.NoError(t, c.HandleEvent(ctx, changed(101, types.RiskGreen, types.RiskAmber)))
	require.NoError(t, c.HandleEvent(ctx, changed(101, types.RiskAmber, types.RiskRed)))
	require.NoError(t, c.HandleEvent(ctx, changed(101, types.RiskRed, types.RiskAmber)))
	require.NoError(t, c.HandleEvent(ctx, changed(101, types.RiskGreen, types.RiskRed)))
	require.NoError(t, c.HandleEvent(ctx, event.NewSignalsCleared(event.SignalsClearedPayload{PersonID: 101})))

	assert.Equal(t, 2, c.Escalations(101))
	assert.Equal(t, 0, c.Escalations(102))
	assert.Equal(t, 2, logs.FilterMessage("person entered high risk").Len())
	assert.Equal(t, 1, logs.FilterMessage("person left high risk").Len())
}

func TestEscalationConsumer_BadPayload(t *testing.T) {
	c := NewEscalationConsumer(zap.NewNop(), nil)
	err := c.HandleEvent(context.Background(), event.DomainEvent{
		EventType: event.TypeRiskCategoryChanged,
		Payload:   []byte("not json"),
	})
	assert.Error(t, err)
}

func TestLogConsumer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := NewLogConsumer(zap.New(core))

	evt := changed(7, types.RiskAmber, types.RiskRed)
	require.NoError(t, c.HandleEvent(context.Background(), evt))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, evt.Summary, entry.Message)
	assert.Equal(t, int64(7), entry.ContextMap()["person_id"])
}
