package signals

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matthewbaird/signify/internal/types"
)

// Entry is a signal log event together with the state derived from the
// chronological fold of its log: the cumulative impact up to and including
// the event, and the risk category that sum classifies to.
//
// Derived fields are unexported so that only Recompute can produce them.
type Entry struct {
	types.SignalLogEvent
	cumulative int
	after      types.RiskCategory
}

// CumulativeImpact returns the running impact sum at this event.
func (e Entry) CumulativeImpact() int { return e.cumulative }

// RiskScoreAfter returns the risk category after this event.
func (e Entry) RiskScoreAfter() types.RiskCategory { return e.after }

// MarshalJSON flattens the event and adds the derived fields.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		types.SignalLogEvent
		CumulativeImpact int                `json:"cumulative_impact"`
		RiskScoreAfter   types.RiskCategory `json:"risk_score_after"`
		RiskRank         int                `json:"risk_rank"`
	}{
		SignalLogEvent:   e.SignalLogEvent,
		CumulativeImpact: e.cumulative,
		RiskScoreAfter:   e.after,
		RiskRank:         e.after.Rank(),
	})
}

// Recompute sorts a copy of events by date (stable, so same-day events keep
// their relative order) and folds the running impact sum over it, deriving
// every entry's category with ClassifyByCumulativeImpact. The input is not
// modified.
func Recompute(events []types.SignalLogEvent) []Entry {
	sorted := cloneEvents(events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	entries := make([]Entry, len(sorted))
	cumulative := 0
	for i, ev := range sorted {
		cumulative = AddImpact(cumulative, ev.RiskScoreImpact)
		entries[i] = Entry{
			SignalLogEvent: ev,
			cumulative:     cumulative,
			after:          ClassifyByCumulativeImpact(cumulative),
		}
	}
	return entries
}

// Events strips the derived state from entries.
func Events(entries []Entry) []types.SignalLogEvent {
	events := make([]types.SignalLogEvent, len(entries))
	for i, e := range entries {
		events[i] = e.SignalLogEvent.Clone()
	}
	return events
}

// Reverse returns entries in the opposite order, for newest-first display.
func Reverse(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// Current returns the category after the latest event, or green for an
// empty log.
func Current(entries []Entry) types.RiskCategory {
	if len(entries) == 0 {
		return types.RiskGreen
	}
	return entries[len(entries)-1].after
}

// ParseImpact converts raw numeric-field input into an impact the way a
// browser's parseInt(raw, 10) reads it: leading whitespace, an optional
// sign, then the leading run of digits ("2.5" is 2, "3abc" is 3). Input with
// no leading digits is 0. Values beyond the int range saturate.
func ParseImpact(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, strconv.IntSize)
	if err != nil {
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	return int(n)
}

// AddImpact adds two impacts, saturating at the int bounds instead of
// wrapping.
func AddImpact(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

// SetImpact returns a copy of events with the named event's impact
// replaced. If no event has that id the input is returned as-is and found
// is false.
func SetImpact(events []types.SignalLogEvent, eventID, impact int) (out []types.SignalLogEvent, found bool) {
	idx := indexOf(events, eventID)
	if idx < 0 {
		return events, false
	}
	out = cloneEvents(events)
	out[idx].RiskScoreImpact = impact
	return out, true
}

// UpdateImpact replaces the named event's impact and refolds the whole log.
// An unknown event id leaves the events untouched.
func UpdateImpact(events []types.SignalLogEvent, eventID, newImpact int) []Entry {
	updated, _ := SetImpact(events, eventID, newImpact)
	return Recompute(updated)
}

// UpdateImpactInput is UpdateImpact for raw numeric-field input.
func UpdateImpactInput(events []types.SignalLogEvent, eventID int, raw string) []Entry {
	return UpdateImpact(events, eventID, ParseImpact(raw))
}

// IncrementImpact raises the named event's impact by one and refolds.
func IncrementImpact(events []types.SignalLogEvent, eventID int) []Entry {
	return adjustImpact(events, eventID, 1)
}

// DecrementImpact lowers the named event's impact by one and refolds.
func DecrementImpact(events []types.SignalLogEvent, eventID int) []Entry {
	return adjustImpact(events, eventID, -1)
}

func adjustImpact(events []types.SignalLogEvent, eventID, delta int) []Entry {
	idx := indexOf(events, eventID)
	if idx < 0 {
		return Recompute(events)
	}
	return UpdateImpact(events, eventID, AddImpact(events[idx].RiskScoreImpact, delta))
}

// NextEventID returns an id one greater than the largest id in events.
func NextEventID(events []types.SignalLogEvent) int {
	next := 1
	for _, ev := range events {
		if ev.ID >= next {
			next = ev.ID + 1
		}
	}
	return next
}

// AddEvent appends ev to a copy of events. An event with id 0 is given
// NextEventID. Insertion order is kept; Recompute places the event by date.
func AddEvent(events []types.SignalLogEvent, ev types.SignalLogEvent) []types.SignalLogEvent {
	if ev.ID == 0 {
		ev.ID = NextEventID(events)
	}
	out := make([]types.SignalLogEvent, 0, len(events)+1)
	out = append(out, cloneEvents(events)...)
	return append(out, ev.Clone())
}

// DeleteEvent returns a copy of events without the named event. An unknown
// id returns the input as-is with found false.
func DeleteEvent(events []types.SignalLogEvent, eventID int) (out []types.SignalLogEvent, found bool) {
	idx := indexOf(events, eventID)
	if idx < 0 {
		return events, false
	}
	out = make([]types.SignalLogEvent, 0, len(events)-1)
	for i, ev := range events {
		if i != idx {
			out = append(out, ev.Clone())
		}
	}
	return out, true
}

// RecordAction attaches a remediation action to the named event, replacing
// any action recorded before. Impacts are not touched, so the derived
// categories are unchanged. An unknown event id returns the input as-is.
func RecordAction(events []types.SignalLogEvent, eventID int, actionID string, today types.Date, notes string) []types.SignalLogEvent {
	idx := indexOf(events, eventID)
	if idx < 0 {
		return events
	}
	out := cloneEvents(events)
	out[idx].ActionTaken = &types.ActionTaken{
		ActionID:  actionID,
		DateTaken: today,
		Notes:     notes,
	}
	return out
}

// indexOf returns the position of the first event with the given id, or -1.
func indexOf(events []types.SignalLogEvent, eventID int) int {
	for i, ev := range events {
		if ev.ID == eventID {
			return i
		}
	}
	return -1
}

func cloneEvents(events []types.SignalLogEvent) []types.SignalLogEvent {
	out := make([]types.SignalLogEvent, len(events))
	for i, ev := range events {
		out[i] = ev.Clone()
	}
	return out
}
