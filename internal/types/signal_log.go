package types

// EventType is the category of a dated life event on a person's signal log.
type EventType string

const (
	EventMovingHouse            EventType = "moving_house"
	EventTemporaryAccommodation EventType = "temporary_accommodation"
	EventBereavement            EventType = "bereavement"
	EventSchoolExpulsion        EventType = "school_expulsion"
	EventArrest                 EventType = "arrest"
	EventFamilyBreakdown        EventType = "family_breakdown"
	EventJobLoss                EventType = "job_loss"
	EventMentalHealthCrisis     EventType = "mental_health_crisis"
	EventSubstanceAbuse         EventType = "substance_abuse_incident"
	EventCarePlacementChange    EventType = "care_placement_change"
)

// EventTypes lists every event type in display order.
var EventTypes = []EventType{
	EventMovingHouse,
	EventTemporaryAccommodation,
	EventBereavement,
	EventSchoolExpulsion,
	EventArrest,
	EventFamilyBreakdown,
	EventJobLoss,
	EventMentalHealthCrisis,
	EventSubstanceAbuse,
	EventCarePlacementChange,
}

// IsValid returns true if the event type is a known value.
func (t EventType) IsValid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SignalLogEvent is one dated life event on a person's signal log.
// It carries only input state: the risk category after the event is a
// projection computed by signals.Recompute and is never stored here.
type SignalLogEvent struct {
	ID              int          `json:"id"`
	PersonID        int          `json:"person_id"`
	Date            Date         `json:"date"`
	EventType       EventType    `json:"event_type"`
	Description     string       `json:"description"`
	RiskScoreImpact int          `json:"risk_score_impact"`
	ActionTaken     *ActionTaken `json:"action_taken,omitempty"`
}

// Clone returns a copy of the event that shares no pointers with e.
func (e SignalLogEvent) Clone() SignalLogEvent {
	if e.ActionTaken != nil {
		at := *e.ActionTaken
		e.ActionTaken = &at
	}
	return e
}

// ActionTaken records the remediation action taken against an event.
// ActionID references the catalog; an unknown id is tolerated.
type ActionTaken struct {
	ActionID  string `json:"action_id"`
	DateTaken Date   `json:"date_taken"`
	Notes     string `json:"notes,omitempty"`
}

// ActionCategory groups remediation actions for presentation.
type ActionCategory string

const (
	ActionSupport      ActionCategory = "support"
	ActionReferral     ActionCategory = "referral"
	ActionIntervention ActionCategory = "intervention"
	ActionMonitoring   ActionCategory = "monitoring"
	// ActionUnknown is used only when an event references an action id
	// that is not in the catalog.
	ActionUnknown ActionCategory = "unknown"
)

// ActionCategories lists the catalog categories in display order.
var ActionCategories = []ActionCategory{
	ActionSupport,
	ActionReferral,
	ActionIntervention,
	ActionMonitoring,
}

// RemediationAction is a catalog-defined intervention a caseworker can
// record against a logged event.
type RemediationAction struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Icon     string         `json:"icon"`
	Category ActionCategory `json:"category"`
}
