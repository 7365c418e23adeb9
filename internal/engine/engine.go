// Package engine coordinates the people store, the signal log store and
// the pure risk functions in package signals. Every log mutation is a
// whole-log transaction: load, transform, refold, write back at the version
// that was read.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/cache"
	"github.com/matthewbaird/signify/internal/event"
	"github.com/matthewbaird/signify/internal/metrics"
	"github.com/matthewbaird/signify/internal/people"
	"github.com/matthewbaird/signify/internal/signallog"
	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

// AnyVersion skips the caller's version check. The engine still writes at
// the version it read and retries on conflict.
const AnyVersion int64 = -1

const maxRetries = 3

var (
	ErrPersonNotFound = errors.New("person not found")
	ErrInvalidEvent   = errors.New("invalid signal log event")
	ErrUnknownSignal  = errors.New("unknown signal")
	ErrInvalidAction  = errors.New("invalid remediation action")
)

// Timeline is a person's recomputed signal log.
type Timeline struct {
	PersonID int                `json:"person_id"`
	Version  int64              `json:"version"`
	Current  types.RiskCategory `json:"current"`
	Entries  []signals.Entry    `json:"entries"`
	Actions  []EventAction      `json:"actions"`
	Summary  signals.Summary    `json:"summary"`
}

// EventAction is the catalog view of the action recorded on one event.
type EventAction struct {
	EventID int `json:"event_id"`
	signals.ResolvedAction
}

// PersonRisk is a person with the category derived from their signals.
type PersonRisk struct {
	types.Person
	RiskScore         types.RiskCategory `json:"risk_score"`
	RiskLabel         string             `json:"risk_label"`
	RiskColor         string             `json:"risk_color"`
	ActiveSignalCount int                `json:"active_signal_count"`
}

func newPersonRisk(p types.Person) PersonRisk {
	category := signals.ClassifyBySignals(p.Signals)
	return PersonRisk{
		Person:            p,
		RiskScore:         category,
		RiskLabel:         category.Label(),
		RiskColor:         category.Color(),
		ActiveSignalCount: p.Signals.Count(),
	}
}

// Engine runs every read and mutation of people and signal logs. Log
// mutations are load, pure transform, then versioned Replace; derived risk
// is always recomputed from the stored events.
type Engine struct {
	logs      signallog.Store
	people    people.Store
	cache     *cache.TimelineCache
	publisher event.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache enables the timeline JSON cache.
func WithCache(c *cache.TimelineCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithPublisher sets where domain events go after a committed change.
func WithPublisher(p event.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics records recomputations, mutations and cache use.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger. The engine names it "engine".
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the source of "today" for recorded actions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over the two stores. Without options it has no
// cache, discards events and logs nowhere.
func New(logs signallog.Store, ps people.Store, opts ...Option) *Engine {
	e := &Engine{
		logs:      logs,
		people:    ps,
		publisher: event.Discard,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	return e
}

// ── Reads ───────────────────────────────────────────────────────────────────

// Timeline loads and refolds a person's log.
func (e *Engine) Timeline(ctx context.Context, personID int) (Timeline, error) {
	if err := e.ensurePerson(ctx, personID); err != nil {
		return Timeline{}, err
	}
	snap, err := e.logs.Load(ctx, personID)
	if err != nil {
		return Timeline{}, fmt.Errorf("loading signal log for person %d: %w", personID, err)
	}
	return e.build(personID, snap.Version, snap.Events), nil
}

// CachedTimelineJSON returns the encoded timeline and its version, serving
// from the cache when one is configured. Entries are keyed by log version,
// so a cached body is never older than the log it was read against.
func (e *Engine) CachedTimelineJSON(ctx context.Context, personID int) ([]byte, int64, error) {
	if err := e.ensurePerson(ctx, personID); err != nil {
		return nil, 0, err
	}
	snap, err := e.logs.Load(ctx, personID)
	if err != nil {
		return nil, 0, fmt.Errorf("loading signal log for person %d: %w", personID, err)
	}

	if e.cache != nil {
		data, err := e.cache.Get(ctx, personID, snap.Version)
		if err == nil {
			e.metrics.CacheHit()
			return data, snap.Version, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn("timeline cache read failed", zap.Int("person_id", personID), zap.Error(err))
		}
		e.metrics.CacheMiss()
	}

	data, err := json.Marshal(e.build(personID, snap.Version, snap.Events))
	if err != nil {
		return nil, 0, fmt.Errorf("encoding timeline for person %d: %w", personID, err)
	}
	if e.cache != nil {
		if err := e.cache.Put(ctx, personID, snap.Version, data); err != nil {
			e.logger.Warn("timeline cache write failed", zap.Int("person_id", personID), zap.Error(err))
		}
	}
	return data, snap.Version, nil
}

// Summary returns the aggregated view of a person's timeline.
func (e *Engine) Summary(ctx context.Context, personID int) (signals.Summary, error) {
	tl, err := e.Timeline(ctx, personID)
	if err != nil {
		return signals.Summary{}, err
	}
	return tl.Summary, nil
}

func (e *Engine) build(personID int, version int64, events []types.SignalLogEvent) Timeline {
	entries := signals.Recompute(events)
	e.metrics.Recomputed()

	actions := []EventAction{}
	for _, entry := range entries {
		if resolved, ok := signals.ResolveAction(entry.EventType, entry.ActionTaken); ok {
			actions = append(actions, EventAction{EventID: entry.ID, ResolvedAction: resolved})
		}
	}
	return Timeline{
		PersonID: personID,
		Version:  version,
		Current:  signals.Current(entries),
		Entries:  entries,
		Actions:  actions,
		Summary:  signals.Summarize(personID, entries),
	}
}

// ── Log mutations ───────────────────────────────────────────────────────────

// change is the result of a transform: the complete new log, the metric
// label for the operation and the domain event to publish once it commits.
type change struct {
	op     string
	events []types.SignalLogEvent
	notify func(version int64) event.DomainEvent
}

// transform returns false when there is nothing to write.
type transform func(events []types.SignalLogEvent) (change, bool)

// UpdateImpact sets one event's impact. An unknown event id, or an
// unchanged value, writes nothing and returns the current timeline.
func (e *Engine) UpdateImpact(ctx context.Context, personID int, expectedVersion int64, eventID, impact int) (Timeline, error) {
	return e.mutate(ctx, personID, expectedVersion, func(events []types.SignalLogEvent) (change, bool) {
		return setImpact(personID, events, eventID, func(int) int { return impact })
	})
}

// UpdateImpactInput is UpdateImpact for raw numeric-field input. Empty or
// unparseable input sets the impact to 0.
func (e *Engine) UpdateImpactInput(ctx context.Context, personID int, expectedVersion int64, eventID int, raw string) (Timeline, error) {
	return e.UpdateImpact(ctx, personID, expectedVersion, eventID, signals.ParseImpact(raw))
}

// AdjustImpact adds delta to one event's impact against the stored value.
func (e *Engine) AdjustImpact(ctx context.Context, personID int, expectedVersion int64, eventID, delta int) (Timeline, error) {
	return e.mutate(ctx, personID, expectedVersion, func(events []types.SignalLogEvent) (change, bool) {
		return setImpact(personID, events, eventID, func(old int) int { return signals.AddImpact(old, delta) })
	})
}

func setImpact(personID int, events []types.SignalLogEvent, eventID int, next func(old int) int) (change, bool) {
	var old int
	found := false
	for _, ev := range events {
		if ev.ID == eventID {
			old, found = ev.RiskScoreImpact, true
			break
		}
	}
	if !found {
		return change{}, false
	}
	impact := next(old)
	if impact == old {
		return change{}, false
	}
	updated, _ := signals.SetImpact(events, eventID, impact)
	return change{
		op:     "update_impact",
		events: updated,
		notify: func(version int64) event.DomainEvent {
			return event.NewRiskImpactUpdated(event.RiskImpactUpdatedPayload{
				PersonID:  personID,
				EventID:   eventID,
				OldImpact: old,
				NewImpact: impact,
				Version:   version,
			})
		},
	}, true
}

// AddEvent logs a new life event. The event id is assigned from the log;
// the person id is taken from the path, not from ev.
func (e *Engine) AddEvent(ctx context.Context, personID int, expectedVersion int64, ev types.SignalLogEvent) (Timeline, types.SignalLogEvent, error) {
	if !ev.EventType.IsValid() {
		return Timeline{}, types.SignalLogEvent{}, fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, ev.EventType)
	}
	if ev.Date.IsZero() {
		return Timeline{}, types.SignalLogEvent{}, fmt.Errorf("%w: date is required", ErrInvalidEvent)
	}
	ev.PersonID = personID
	ev.Description = strings.TrimSpace(ev.Description)

	var added types.SignalLogEvent
	tl, err := e.mutate(ctx, personID, expectedVersion, func(events []types.SignalLogEvent) (change, bool) {
		added = ev
		added.ID = signals.NextEventID(events)
		return change{
			op:     "add_event",
			events: signals.AddEvent(events, added),
			notify: func(version int64) event.DomainEvent {
				return event.NewSignalLogEventAdded(event.SignalLogEventAddedPayload{
					PersonID:        personID,
					EventID:         added.ID,
					Date:            added.Date,
					EventType:       added.EventType,
					RiskScoreImpact: added.RiskScoreImpact,
					Version:         version,
				})
			},
		}, true
	})
	if err != nil {
		return Timeline{}, types.SignalLogEvent{}, err
	}
	return tl, added, nil
}

// DeleteEvent removes one event and refolds. An unknown id writes nothing.
func (e *Engine) DeleteEvent(ctx context.Context, personID int, expectedVersion int64, eventID int) (Timeline, error) {
	return e.mutate(ctx, personID, expectedVersion, func(events []types.SignalLogEvent) (change, bool) {
		remaining, found := signals.DeleteEvent(events, eventID)
		if !found {
			return change{}, false
		}
		return change{
			op:     "delete_event",
			events: remaining,
			notify: func(version int64) event.DomainEvent {
				return event.NewSignalLogEventDeleted(event.SignalLogEventDeletedPayload{
					PersonID: personID,
					EventID:  eventID,
					Version:  version,
				})
			},
		}, true
	})
}

// RecordAction attaches a remediation action dated today, replacing any
// earlier one. Action ids missing from the catalog are stored as given.
func (e *Engine) RecordAction(ctx context.Context, personID int, expectedVersion int64, eventID int, actionID, notes string) (Timeline, error) {
	actionID = strings.TrimSpace(actionID)
	if actionID == "" {
		return Timeline{}, fmt.Errorf("%w: action_id is required", ErrInvalidAction)
	}
	today := types.DateOf(e.now())

	return e.mutate(ctx, personID, expectedVersion, func(events []types.SignalLogEvent) (change, bool) {
		var target *types.SignalLogEvent
		for i := range events {
			if events[i].ID == eventID {
				target = &events[i]
				break
			}
		}
		if target == nil {
			return change{}, false
		}
		replaced := ""
		if target.ActionTaken != nil {
			replaced = target.ActionTaken.ActionID
		}
		eventType := target.EventType
		return change{
			op:     "record_action",
			events: signals.RecordAction(events, eventID, actionID, today, notes),
			notify: func(version int64) event.DomainEvent {
				resolved, _ := signals.ResolveAction(eventType, &types.ActionTaken{ActionID: actionID})
				return event.NewRemediationActionRecorded(event.RemediationActionRecordedPayload{
					PersonID:  personID,
					EventID:   eventID,
					ActionID:  actionID,
					Category:  resolved.Category,
					DateTaken: today,
					Replaced:  replaced,
					Version:   version,
				})
			},
		}, true
	})
}

func (e *Engine) mutate(ctx context.Context, personID int, expectedVersion int64, fn transform) (Timeline, error) {
	if err := e.ensurePerson(ctx, personID); err != nil {
		return Timeline{}, err
	}

	for attempt := 0; ; attempt++ {
		snap, err := e.logs.Load(ctx, personID)
		if err != nil {
			return Timeline{}, fmt.Errorf("loading signal log for person %d: %w", personID, err)
		}
		if expectedVersion != AnyVersion && snap.Version != expectedVersion {
			e.metrics.VersionConflict()
			return Timeline{}, fmt.Errorf("person %d at version %d, expected %d: %w",
				personID, snap.Version, expectedVersion, signallog.ErrVersionConflict)
		}

		c, ok := fn(snap.Events)
		if !ok {
			return e.build(personID, snap.Version, snap.Events), nil
		}

		version, err := e.logs.Replace(ctx, personID, snap.Version, c.events)
		if errors.Is(err, signallog.ErrVersionConflict) {
			e.metrics.VersionConflict()
			if expectedVersion == AnyVersion && attempt < maxRetries {
				e.logger.Debug("signal log moved, retrying",
					zap.Int("person_id", personID), zap.Int("attempt", attempt+1))
				continue
			}
			return Timeline{}, fmt.Errorf("writing signal log for person %d: %w", personID, err)
		}
		if err != nil {
			return Timeline{}, fmt.Errorf("writing signal log for person %d: %w", personID, err)
		}

		before := signals.Current(signals.Recompute(snap.Events))
		tl := e.build(personID, version, c.events)
		e.committed(ctx, personID, snap.Version, c, tl, before)
		return tl, nil
	}
}

func (e *Engine) committed(ctx context.Context, personID int, oldVersion int64, c change, tl Timeline, before types.RiskCategory) {
	e.metrics.LogMutation(c.op)
	if e.cache != nil {
		if err := e.cache.Invalidate(ctx, personID, oldVersion); err != nil {
			e.logger.Warn("timeline cache invalidate failed", zap.Int("person_id", personID), zap.Error(err))
		}
	}

	e.logger.Info("signal log updated",
		zap.Int("person_id", personID),
		zap.String("op", c.op),
		zap.Int64("version", tl.Version),
		zap.String("current", string(tl.Current)))

	e.publisher.Publish(ctx, c.notify(tl.Version))
	if before != tl.Current {
		e.categoryChanged(ctx, personID, event.SourceSignalLog, before, tl.Current, tl.Version)
	}
}

func (e *Engine) categoryChanged(ctx context.Context, personID int, source string, from, to types.RiskCategory, version int64) {
	e.metrics.CategoryTransition(source, string(from), string(to))
	e.publisher.Publish(ctx, event.NewRiskCategoryChanged(event.RiskCategoryChangedPayload{
		PersonID: personID,
		Source:   source,
		From:     from,
		To:       to,
		Version:  version,
	}))
}

// ── People ──────────────────────────────────────────────────────────────────

func (e *Engine) ListPeople(ctx context.Context) ([]PersonRisk, error) {
	list, err := e.people.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	out := make([]PersonRisk, len(list))
	for i, p := range list {
		out[i] = newPersonRisk(p)
	}
	return out, nil
}

func (e *Engine) GetPerson(ctx context.Context, id int) (PersonRisk, error) {
	p, err := e.people.Get(ctx, id)
	if err != nil {
		return PersonRisk{}, mapPeopleErr(id, err)
	}
	return newPersonRisk(p), nil
}

func (e *Engine) CreatePerson(ctx context.Context, p types.Person) (PersonRisk, error) {
	created, err := e.people.Create(ctx, p)
	if err != nil {
		return PersonRisk{}, fmt.Errorf("creating person: %w", err)
	}
	e.logger.Info("person created", zap.Int("person_id", created.ID))
	return newPersonRisk(created), nil
}

func (e *Engine) UpdatePerson(ctx context.Context, id int, patch people.Patch) (PersonRisk, error) {
	p, err := e.people.Update(ctx, id, patch)
	if err != nil {
		return PersonRisk{}, mapPeopleErr(id, err)
	}
	return newPersonRisk(p), nil
}

// DeletePerson removes the person and their connections. The signal log is
// kept but unreachable: the person store never hands the id out again.
func (e *Engine) DeletePerson(ctx context.Context, id int) error {
	if err := e.people.Delete(ctx, id); err != nil {
		return mapPeopleErr(id, err)
	}
	e.logger.Info("person deleted", zap.Int("person_id", id))
	return nil
}

// ToggleSignal flips one signal and reclassifies. An unknown key is
// rejected with ErrUnknownSignal before the store is touched.
func (e *Engine) ToggleSignal(ctx context.Context, id int, key types.SignalKey) (PersonRisk, error) {
	if !key.IsValid() {
		return PersonRisk{}, fmt.Errorf("%w: %q", ErrUnknownSignal, key)
	}
	p, toggled, err := e.people.ToggleSignal(ctx, id, key)
	if err != nil {
		return PersonRisk{}, mapPeopleErr(id, err)
	}
	pr := newPersonRisk(p)
	if !toggled {
		return pr, nil
	}

	previous := p.Signals
	previous.Toggle(key)
	before := signals.ClassifyBySignals(previous)

	e.publisher.Publish(ctx, event.NewSignalToggled(event.SignalToggledPayload{
		PersonID:  id,
		Signal:    key,
		Value:     p.Signals.Get(key),
		RiskScore: pr.RiskScore,
	}))
	if before != pr.RiskScore {
		e.categoryChanged(ctx, id, event.SourceSignals, before, pr.RiskScore, 0)
	}
	return pr, nil
}

// ClearSignals resets every signal; the person becomes green.
func (e *Engine) ClearSignals(ctx context.Context, id int) (PersonRisk, error) {
	p, previous, err := e.people.ClearSignals(ctx, id)
	if err != nil {
		return PersonRisk{}, mapPeopleErr(id, err)
	}
	pr := newPersonRisk(p)
	before := signals.ClassifyBySignals(previous)

	e.publisher.Publish(ctx, event.NewSignalsCleared(event.SignalsClearedPayload{
		PersonID:  id,
		RiskScore: pr.RiskScore,
	}))
	if before != pr.RiskScore {
		e.categoryChanged(ctx, id, event.SourceSignals, before, pr.RiskScore, 0)
	}
	return pr, nil
}

func (e *Engine) Connections(ctx context.Context) ([]types.Connection, error) {
	return e.people.Connections(ctx)
}

func (e *Engine) AddConnection(ctx context.Context, c types.Connection) (types.Connection, error) {
	return e.people.AddConnection(ctx, c)
}

func (e *Engine) Network(ctx context.Context) (types.NetworkData, error) {
	return e.people.Network(ctx)
}

func (e *Engine) ensurePerson(ctx context.Context, id int) error {
	if _, err := e.people.Get(ctx, id); err != nil {
		return mapPeopleErr(id, err)
	}
	return nil
}

func mapPeopleErr(id int, err error) error {
	if errors.Is(err, people.ErrNotFound) {
		return fmt.Errorf("person %d: %w", id, ErrPersonNotFound)
	}
	return err
}
