package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/signify/internal/types"
)

// Event types.
const (
	TypeSignalLogEventAdded       = "signal_log_event_added"
	TypeSignalLogEventDeleted     = "signal_log_event_deleted"
	TypeRiskImpactUpdated         = "risk_impact_updated"
	TypeRemediationActionRecorded = "remediation_action_recorded"
	TypeSignalToggled             = "signal_toggled"
	TypeSignalsCleared            = "signals_cleared"
	TypeRiskCategoryChanged       = "risk_category_changed"
)

// Sources of a risk category change.
const (
	SourceSignalLog = "signal_log"
	SourceSignals   = "signals"
)

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	PersonID   int             `json:"person_id"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func newEvent(eventType string, personID int, summary string, payload any) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		PersonID:   personID,
		Summary:    summary,
		Payload:    mustJSON(payload),
	}
}

// ── Signal log events ───────────────────────────────────────────────────────

// SignalLogEventAddedPayload carries event-specific data for SignalLogEventAdded.
type SignalLogEventAddedPayload struct {
	PersonID        int             `json:"person_id"`
	EventID         int             `json:"event_id"`
	Date            types.Date      `json:"date"`
	EventType       types.EventType `json:"event_type"`
	RiskScoreImpact int             `json:"risk_score_impact"`
	Version         int64           `json:"version"`
}

func NewSignalLogEventAdded(p SignalLogEventAddedPayload) DomainEvent {
	return newEvent(TypeSignalLogEventAdded, p.PersonID,
		fmt.Sprintf("Logged %s on %s (impact %+d)", p.EventType, p.Date, p.RiskScoreImpact), p)
}

type SignalLogEventDeletedPayload struct {
	PersonID int   `json:"person_id"`
	EventID  int   `json:"event_id"`
	Version  int64 `json:"version"`
}

func NewSignalLogEventDeleted(p SignalLogEventDeletedPayload) DomainEvent {
	return newEvent(TypeSignalLogEventDeleted, p.PersonID,
		fmt.Sprintf("Removed event %d from the signal log", p.EventID), p)
}

// RiskImpactUpdatedPayload carries event-specific data for RiskImpactUpdated.
type RiskImpactUpdatedPayload struct {
	PersonID  int   `json:"person_id"`
	EventID   int   `json:"event_id"`
	OldImpact int   `json:"old_impact"`
	NewImpact int   `json:"new_impact"`
	Version   int64 `json:"version"`
}

func NewRiskImpactUpdated(p RiskImpactUpdatedPayload) DomainEvent {
	return newEvent(TypeRiskImpactUpdated, p.PersonID,
		fmt.Sprintf("Impact of event %d changed from %+d to %+d", p.EventID, p.OldImpact, p.NewImpact), p)
}

type RemediationActionRecordedPayload struct {
	PersonID  int                  `json:"person_id"`
	EventID   int                  `json:"event_id"`
	ActionID  string               `json:"action_id"`
	Category  types.ActionCategory `json:"category"`
	DateTaken types.Date           `json:"date_taken"`
	Replaced  string               `json:"replaced,omitempty"`
	Version   int64                `json:"version"`
}

func NewRemediationActionRecorded(p RemediationActionRecordedPayload) DomainEvent {
	return newEvent(TypeRemediationActionRecorded, p.PersonID,
		fmt.Sprintf("Recorded %s action %q against event %d", p.Category, p.ActionID, p.EventID), p)
}

// ── Signal events ───────────────────────────────────────────────────────────

type SignalToggledPayload struct {
	PersonID  int                `json:"person_id"`
	Signal    types.SignalKey    `json:"signal"`
	Value     bool               `json:"value"`
	RiskScore types.RiskCategory `json:"risk_score"`
}

func NewSignalToggled(p SignalToggledPayload) DomainEvent {
	state := "cleared"
	if p.Value {
		state = "set"
	}
	return newEvent(TypeSignalToggled, p.PersonID,
		fmt.Sprintf("Signal %s %s", p.Signal, state), p)
}

type SignalsClearedPayload struct {
	PersonID  int                `json:"person_id"`
	RiskScore types.RiskCategory `json:"risk_score"`
}

func NewSignalsCleared(p SignalsClearedPayload) DomainEvent {
	return newEvent(TypeSignalsCleared, p.PersonID, "All signals cleared", p)
}

// ── Risk events ─────────────────────────────────────────────────────────────

// RiskCategoryChangedPayload is emitted when a person's current category
// moves, either from the signal flags or from the signal log.
type RiskCategoryChangedPayload struct {
	PersonID int                `json:"person_id"`
	Source   string             `json:"source"`
	From     types.RiskCategory `json:"from"`
	To       types.RiskCategory `json:"to"`
	Version  int64              `json:"version,omitempty"`
}

// Escalated reports whether the change raised the risk level.
func (p RiskCategoryChangedPayload) Escalated() bool {
	return p.From.Less(p.To)
}

func NewRiskCategoryChanged(p RiskCategoryChangedPayload) DomainEvent {
	return newEvent(TypeRiskCategoryChanged, p.PersonID,
		fmt.Sprintf("Risk (%s) moved from %s to %s", p.Source, p.From.Label(), p.To.Label()), p)
}

// DecodePayload unmarshals the payload of evt into v.
func DecodePayload(evt DomainEvent, v any) error {
	if err := json.Unmarshal(evt.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", evt.EventType, err)
	}
	return nil
}
