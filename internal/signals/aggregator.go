package signals

import (
	"github.com/matthewbaird/signify/internal/types"
)

// Trend values reported by Summarize.
const (
	TrendEscalating   = "escalating"
	TrendDeEscalating = "de-escalating"
	TrendStable       = "stable"
)

// Transition marks an event at which the derived category changed.
type Transition struct {
	EventID int                `json:"event_id"`
	Date    types.Date         `json:"date"`
	From    types.RiskCategory `json:"from"`
	To      types.RiskCategory `json:"to"`
}

// Summary is a pre-aggregated view of one person's timeline.
type Summary struct {
	PersonID         int                          `json:"person_id"`
	EventCount       int                          `json:"event_count"`
	CumulativeImpact int                          `json:"cumulative_impact"`
	Current          types.RiskCategory           `json:"current"`
	Peak             types.RiskCategory           `json:"peak"`
	FirstEvent       types.Date                   `json:"first_event"`
	LastEvent        types.Date                   `json:"last_event"`
	ByEventType      map[types.EventType]int      `json:"by_event_type"`
	ActionsRecorded  int                          `json:"actions_recorded"`
	UnactionedEvents int                          `json:"unactioned_events"`
	ByActionCategory map[types.ActionCategory]int `json:"by_action_category"`
	Transitions      []Transition                 `json:"transitions"`
	Trend            string                       `json:"trend"`
}

// Summarize aggregates recomputed entries (chronological, as returned by
// Recompute). The log starts from green: a first event that lands in amber
// or red counts as a transition.
func Summarize(personID int, entries []Entry) Summary {
	s := Summary{
		PersonID:         personID,
		EventCount:       len(entries),
		Current:          Current(entries),
		Peak:             types.RiskGreen,
		ByEventType:      make(map[types.EventType]int),
		ByActionCategory: make(map[types.ActionCategory]int),
		Transitions:      []Transition{},
		Trend:            TrendStable,
	}
	if len(entries) == 0 {
		return s
	}

	s.FirstEvent = entries[0].Date
	s.LastEvent = entries[len(entries)-1].Date
	s.CumulativeImpact = entries[len(entries)-1].cumulative

	prev := types.RiskGreen
	for _, e := range entries {
		s.ByEventType[e.EventType]++
		s.Peak = types.MaxCategory(s.Peak, e.after)

		if resolved, ok := ResolveAction(e.EventType, e.ActionTaken); ok {
			s.ActionsRecorded++
			s.ByActionCategory[resolved.Category]++
		} else {
			s.UnactionedEvents++
		}

		if e.after != prev {
			s.Transitions = append(s.Transitions, Transition{
				EventID: e.ID,
				Date:    e.Date,
				From:    prev,
				To:      e.after,
			})
			prev = e.after
		}
	}

	s.Trend = computeTrend(s.Transitions)
	return s
}

// computeTrend looks at the direction of the most recent transition.
func computeTrend(transitions []Transition) string {
	if len(transitions) == 0 {
		return TrendStable
	}
	last := transitions[len(transitions)-1]
	if last.From.Less(last.To) {
		return TrendEscalating
	}
	return TrendDeEscalating
}
