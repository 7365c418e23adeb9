package signallog

import (
	"context"
	"fmt"

	"github.com/matthewbaird/signify/internal/types"
)

// DemoLogs returns the demo signal logs keyed by person id. Person ids
// match people.DemoPeople.
func DemoLogs() map[int][]types.SignalLogEvent {
	ev := func(personID, id int, date string, et types.EventType, impact int, desc string) types.SignalLogEvent {
		return types.SignalLogEvent{
			ID:              id,
			PersonID:        personID,
			Date:            types.MustDate(date),
			EventType:       et,
			Description:     desc,
			RiskScoreImpact: impact,
		}
	}
	withAction := func(e types.SignalLogEvent, actionID, taken, notes string) types.SignalLogEvent {
		e.ActionTaken = &types.ActionTaken{ActionID: actionID, DateTaken: types.MustDate(taken), Notes: notes}
		return e
	}

	return map[int][]types.SignalLogEvent{
		// Tommy Wilson: steady escalation through a house move.
		101: {
			withAction(
				ev(101, 1, "2023-01-15", types.EventMovingHouse, 2, "Family moved out of the borough after eviction notice"),
				"school_transfer_liaison", "2023-01-20", "Liaised with receiving school",
			),
			ev(101, 2, "2023-03-22", types.EventSchoolExpulsion, 2, "Permanently excluded following repeated incidents"),
			ev(101, 3, "2023-05-10", types.EventFamilyBreakdown, 1, "Parents separated; Tommy living with mother"),
		},
		// Emma Davis: amber, then stabilised by housing support.
		102: {
			ev(102, 1, "2023-02-01", types.EventBereavement, 1, "Death of grandparent and primary carer"),
			ev(102, 2, "2023-06-14", types.EventTemporaryAccommodation, 1, "Placed in temporary accommodation"),
			withAction(
				ev(102, 3, "2023-09-03", types.EventMovingHouse, -2, "Moved into permanent social housing"),
				"housing_support_visit", "2023-09-10", "",
			),
		},
		// Lucas Brown: a single serious event, recorded after the fact.
		103: {
			ev(103, 1, "2024-04-02", types.EventSubstanceAbuse, 1, "Found in possession at school"),
			ev(103, 2, "2024-02-19", types.EventArrest, 2, "Arrested for shoplifting with older peers"),
		},
		// Margaret Thompson: crisis then recovery.
		201: {
			ev(201, 1, "2023-11-30", types.EventJobLoss, 1, "Made redundant"),
			withAction(
				ev(201, 2, "2024-01-08", types.EventMentalHealthCrisis, 2, "Presented at A&E in crisis"),
				"crisis_team_contact", "2024-01-08", "Home treatment team assigned",
			),
			withAction(
				ev(201, 3, "2024-03-15", types.EventMentalHealthCrisis, -3, "Discharged from home treatment, stable"),
				"daily_check_in", "2024-03-16", "",
			),
		},
		// Max Parker: two events on the same day.
		301: {
			ev(301, 1, "2024-01-10", types.EventCarePlacementChange, 1, "Emergency move to a new foster placement"),
			ev(301, 2, "2024-01-10", types.EventSchoolExpulsion, 1, "Fixed-term exclusion on the day of the move"),
		},
	}
}

// SeedDemoData writes the demo logs into store. People that already have a
// log are left alone, so seeding twice is harmless.
func SeedDemoData(ctx context.Context, store Store) error {
	for personID, events := range DemoLogs() {
		snap, err := store.Load(ctx, personID)
		if err != nil {
			return fmt.Errorf("loading log for person %d: %w", personID, err)
		}
		if snap.Version != 0 {
			continue
		}
		if _, err := store.Replace(ctx, personID, snap.Version, events); err != nil {
			return fmt.Errorf("seeding log for person %d: %w", personID, err)
		}
	}
	return nil
}
