// Package signals provides the risk classifiers, the signal log
// recomputation engine, the remediation action registry and the timeline
// aggregator. Everything here is pure: no I/O, no errors, no shared
// mutable state.
package signals

import (
	"github.com/matthewbaird/signify/internal/types"
)

// SignalInfo is the display metadata of a signal.
type SignalInfo struct {
	Key   types.SignalKey `json:"key"`
	Label string          `json:"label"`
	Icon  string          `json:"icon"`
}

// EventTypeInfo is the display metadata of a life-event type.
type EventTypeInfo struct {
	Type  types.EventType `json:"type"`
	Label string          `json:"label"`
	Icon  string          `json:"icon"`
}

// CategoryStyle is the presentation of an action category.
type CategoryStyle struct {
	Category types.ActionCategory `json:"category"`
	Label    string               `json:"label"`
	Color    string               `json:"color"`
}

// ResolvedAction is the action recorded on an event, looked up in the
// catalog. Unknown ids resolve to the unknown category with a generic icon.
type ResolvedAction struct {
	types.RemediationAction
	Known     bool       `json:"known"`
	DateTaken types.Date `json:"date_taken"`
	Notes     string     `json:"notes,omitempty"`
	Color     string     `json:"color"`
}

const genericActionIcon = "📋"

// SignalRegistry lists every signal with its display label.
var SignalRegistry = []SignalInfo{
	{Key: types.SignalPreviousHomelessness, Label: "Previous Homelessness", Icon: "🏠"},
	{Key: types.SignalTemporaryAccommodation, Label: "Temporary Accommodation", Icon: "🏨"},
	{Key: types.SignalCareStatus, Label: "Care Status", Icon: "👶"},
	{Key: types.SignalParentalSubstanceAbuse, Label: "Parental Substance Abuse", Icon: "⚠️"},
	{Key: types.SignalParentalCrimes, Label: "Parental Crimes", Icon: "🚨"},
	{Key: types.SignalYouthJustice, Label: "Youth Justice", Icon: "⚖️"},
	{Key: types.SignalEducationStatus, Label: "Education Status", Icon: "📚"},
}

// EventTypeRegistry lists every life-event type with its display label.
var EventTypeRegistry = []EventTypeInfo{
	{Type: types.EventMovingHouse, Label: "Moving House", Icon: "📦"},
	{Type: types.EventTemporaryAccommodation, Label: "Temporary Accommodation", Icon: "🏨"},
	{Type: types.EventBereavement, Label: "Bereavement", Icon: "🕯️"},
	{Type: types.EventSchoolExpulsion, Label: "School Expulsion", Icon: "🏫"},
	{Type: types.EventArrest, Label: "Arrest", Icon: "🚔"},
	{Type: types.EventFamilyBreakdown, Label: "Family Breakdown", Icon: "💔"},
	{Type: types.EventJobLoss, Label: "Job Loss", Icon: "💼"},
	{Type: types.EventMentalHealthCrisis, Label: "Mental Health Crisis", Icon: "🧠"},
	{Type: types.EventSubstanceAbuse, Label: "Substance Abuse Incident", Icon: "💊"},
	{Type: types.EventCarePlacementChange, Label: "Care Placement Change", Icon: "🔄"},
}

// CategoryStyles is the colour and label table for action categories.
var CategoryStyles = []CategoryStyle{
	{Category: types.ActionSupport, Label: "Support", Color: "#48bb78"},
	{Category: types.ActionReferral, Label: "Referral", Color: "#4299e1"},
	{Category: types.ActionIntervention, Label: "Intervention", Color: "#ed8936"},
	{Category: types.ActionMonitoring, Label: "Monitoring", Color: "#9f7aea"},
}

var unknownStyle = CategoryStyle{Category: types.ActionUnknown, Label: "Unknown", Color: "#718096"}

// ActionCatalog holds the permissible remediation actions per event type.
var ActionCatalog = map[types.EventType][]types.RemediationAction{
	types.EventMovingHouse: {
		{ID: "housing_support_visit", Label: "Housing support visit", Icon: "🏡", Category: types.ActionSupport},
		{ID: "school_transfer_liaison", Label: "School transfer liaison", Icon: "🏫", Category: types.ActionReferral},
		{ID: "address_check_in", Label: "Check-in at new address", Icon: "📍", Category: types.ActionMonitoring},
	},
	types.EventTemporaryAccommodation: {
		{ID: "housing_options_referral", Label: "Housing options referral", Icon: "🏢", Category: types.ActionReferral},
		{ID: "tenancy_sustainment", Label: "Tenancy sustainment support", Icon: "🔑", Category: types.ActionSupport},
		{ID: "emergency_placement_review", Label: "Emergency placement review", Icon: "🚨", Category: types.ActionIntervention},
		{ID: "weekly_welfare_call", Label: "Weekly welfare call", Icon: "📞", Category: types.ActionMonitoring},
	},
	types.EventBereavement: {
		{ID: "bereavement_counselling", Label: "Bereavement counselling referral", Icon: "🤝", Category: types.ActionReferral},
		{ID: "key_worker_support", Label: "Key worker support sessions", Icon: "🫂", Category: types.ActionSupport},
		{ID: "wellbeing_check", Label: "Wellbeing check", Icon: "💬", Category: types.ActionMonitoring},
	},
	types.EventSchoolExpulsion: {
		{ID: "alternative_provision", Label: "Alternative provision placement", Icon: "📚", Category: types.ActionIntervention},
		{ID: "education_welfare_referral", Label: "Education welfare referral", Icon: "🎓", Category: types.ActionReferral},
		{ID: "mentoring", Label: "Mentoring programme", Icon: "🧭", Category: types.ActionSupport},
		{ID: "attendance_monitoring", Label: "Attendance monitoring", Icon: "📅", Category: types.ActionMonitoring},
	},
	types.EventArrest: {
		{ID: "youth_offending_referral", Label: "Youth offending team referral", Icon: "⚖️", Category: types.ActionReferral},
		{ID: "appropriate_adult", Label: "Appropriate adult support", Icon: "🧑‍⚖️", Category: types.ActionSupport},
		{ID: "diversion_programme", Label: "Diversion programme", Icon: "🛤️", Category: types.ActionIntervention},
	},
	types.EventFamilyBreakdown: {
		{ID: "family_mediation", Label: "Family mediation", Icon: "👪", Category: types.ActionIntervention},
		{ID: "early_help_assessment", Label: "Early help assessment", Icon: "📝", Category: types.ActionReferral},
		{ID: "respite_support", Label: "Respite support", Icon: "🛏️", Category: types.ActionSupport},
		{ID: "home_visit_schedule", Label: "Scheduled home visits", Icon: "🏠", Category: types.ActionMonitoring},
	},
	types.EventJobLoss: {
		{ID: "employment_support", Label: "Employment support referral", Icon: "💼", Category: types.ActionReferral},
		{ID: "benefits_advice", Label: "Benefits advice", Icon: "💷", Category: types.ActionSupport},
		{ID: "rent_arrears_watch", Label: "Rent arrears watch", Icon: "👀", Category: types.ActionMonitoring},
	},
	types.EventMentalHealthCrisis: {
		{ID: "camhs_referral", Label: "CAMHS referral", Icon: "🧠", Category: types.ActionReferral},
		{ID: "crisis_team_contact", Label: "Crisis team contact", Icon: "🚑", Category: types.ActionIntervention},
		{ID: "safety_plan", Label: "Safety plan agreed", Icon: "🛟", Category: types.ActionSupport},
		{ID: "daily_check_in", Label: "Daily check-in", Icon: "📆", Category: types.ActionMonitoring},
	},
	types.EventSubstanceAbuse: {
		{ID: "substance_misuse_service", Label: "Substance misuse service referral", Icon: "💊", Category: types.ActionReferral},
		{ID: "harm_reduction_session", Label: "Harm reduction session", Icon: "🩹", Category: types.ActionSupport},
		{ID: "treatment_review", Label: "Treatment review", Icon: "🔍", Category: types.ActionMonitoring},
	},
	types.EventCarePlacementChange: {
		{ID: "placement_stability_meeting", Label: "Placement stability meeting", Icon: "🤝", Category: types.ActionIntervention},
		{ID: "independent_visitor", Label: "Independent visitor", Icon: "🧑‍🤝‍🧑", Category: types.ActionSupport},
		{ID: "pathway_plan_review", Label: "Pathway plan review", Icon: "🗺️", Category: types.ActionMonitoring},
	},
}

// ActionsFor returns the catalog actions for an event type. Unknown types
// get an empty, non-nil list. The returned slice is a copy.
func ActionsFor(eventType types.EventType) []types.RemediationAction {
	actions := ActionCatalog[eventType]
	out := make([]types.RemediationAction, len(actions))
	copy(out, actions)
	return out
}

// ActionByID looks up one catalog action for an event type.
func ActionByID(eventType types.EventType, actionID string) (types.RemediationAction, bool) {
	for _, a := range ActionCatalog[eventType] {
		if a.ID == actionID {
			return a, true
		}
	}
	return types.RemediationAction{}, false
}

// ResolveAction looks up the action recorded on an event. It returns false
// only when taken is nil; an id missing from the catalog resolves to the
// unknown category rather than failing.
func ResolveAction(eventType types.EventType, taken *types.ActionTaken) (ResolvedAction, bool) {
	if taken == nil {
		return ResolvedAction{}, false
	}
	action, known := ActionByID(eventType, taken.ActionID)
	if !known {
		action = types.RemediationAction{
			ID:       taken.ActionID,
			Label:    "Unknown action",
			Icon:     genericActionIcon,
			Category: types.ActionUnknown,
		}
	}
	return ResolvedAction{
		RemediationAction: action,
		Known:             known,
		DateTaken:         taken.DateTaken,
		Notes:             taken.Notes,
		Color:             StyleFor(action.Category).Color,
	}, true
}

// StyleFor returns the presentation of an action category. Unknown
// categories get the "Unknown" style.
func StyleFor(category types.ActionCategory) CategoryStyle {
	for _, s := range CategoryStyles {
		if s.Category == category {
			return s
		}
	}
	return unknownStyle
}

// EventTypeLabel returns the display metadata of an event type, falling
// back to the raw type name.
func EventTypeLabel(eventType types.EventType) EventTypeInfo {
	for _, info := range EventTypeRegistry {
		if info.Type == eventType {
			return info
		}
	}
	return EventTypeInfo{Type: eventType, Label: string(eventType), Icon: genericActionIcon}
}

// SignalLabel returns the display metadata of a signal.
func SignalLabel(key types.SignalKey) (SignalInfo, bool) {
	for _, info := range SignalRegistry {
		if info.Key == key {
			return info, true
		}
	}
	return SignalInfo{}, false
}
