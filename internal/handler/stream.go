package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/engine"
	"github.com/matthewbaird/signify/internal/event"
	"github.com/matthewbaird/signify/internal/metrics"
)

const (
	// streamBuffer is the number of events held per client before new
	// ones are dropped for that client.
	streamBuffer = 16

	streamWriteTimeout = 5 * time.Second
)

// StreamMessage is one frame on the timeline stream. The first frame is
// "timeline" with the current recomputed log; every later frame is "event"
// with a domain event for the person.
type StreamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StreamHub fans domain events out to websocket clients watching a
// person's timeline. It is subscribed to the event bus as a handler.
type StreamHub struct {
	engine  *engine.Engine
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	subs map[int]map[chan event.DomainEvent]struct{}
}

func NewStreamHub(e *engine.Engine, logger *zap.Logger, m *metrics.Metrics) *StreamHub {
	return &StreamHub{
		engine:  e,
		logger:  logger.Named("stream"),
		metrics: m,
		subs:    make(map[int]map[chan event.DomainEvent]struct{}),
	}
}

// HandleEvent delivers evt to every client watching its person. Slow
// clients miss events rather than blocking the bus.
func (h *StreamHub) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[evt.PersonID] {
		select {
		case ch <- evt:
		default:
			h.logger.Warn("stream client too slow, dropping event",
				zap.Int("person_id", evt.PersonID), zap.String("event_type", evt.EventType))
		}
	}
	return nil
}

// Clients returns the number of clients watching the person.
func (h *StreamHub) Clients(personID int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[personID])
}

func (h *StreamHub) subscribe(personID int) chan event.DomainEvent {
	ch := make(chan event.DomainEvent, streamBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[personID] == nil {
		h.subs[personID] = make(map[chan event.DomainEvent]struct{})
	}
	h.subs[personID][ch] = struct{}{}
	return ch
}

func (h *StreamHub) unsubscribe(personID int, ch chan event.DomainEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[personID], ch)
	if len(h.subs[personID]) == 0 {
		delete(h.subs, personID)
	}
}

// ServeHTTP upgrades to a websocket and streams the person's timeline.
// GET /v1/people/{id}/signal-log/stream
func (h *StreamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	personID, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.engine.GetPerson(r.Context(), personID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// Subscribe before reading the snapshot so no write falls between them.
	ch := h.subscribe(personID)
	defer h.unsubscribe(personID, ch)
	h.metrics.StreamConnected()
	defer h.metrics.StreamDisconnected()

	ctx := conn.CloseRead(r.Context())

	tl, err := h.engine.Timeline(ctx, personID)
	if err != nil {
		h.logger.Error("loading timeline for stream", zap.Int("person_id", personID), zap.Error(err))
		conn.Close(websocket.StatusInternalError, "timeline unavailable")
		return
	}
	if err := h.send(ctx, conn, StreamMessage{Type: "timeline", Data: tl}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case evt := <-ch:
			if err := h.send(ctx, conn, StreamMessage{Type: "event", Data: evt}); err != nil {
				return
			}
		}
	}
}

func (h *StreamHub) send(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		if websocket.CloseStatus(err) == -1 {
			h.logger.Debug("stream write failed", zap.Error(err))
		}
		return err
	}
	return nil
}
