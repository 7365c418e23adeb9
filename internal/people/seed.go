package people

import (
	"context"
	"errors"
	"fmt"

	"github.com/matthewbaird/signify/internal/types"
)

func signalSet(keys ...types.SignalKey) types.SignalSet {
	var s types.SignalSet
	for _, k := range keys {
		s.Toggle(k)
	}
	return s
}

// DemoPeople returns the demo caseload: three professionals and the
// children and adults connected to them.
func DemoPeople() []types.Person {
	return []types.Person{
		{ID: 1, Name: "Sarah Mitchell", Email: "sarah.mitchell@school.edu", Department: "Class 5A", Role: "Teacher"},
		{ID: 2, Name: "Dr. James Chen", Email: "james.chen@hospital.org", Department: "Primary Care", Role: "Doctor"},
		{ID: 3, Name: "Emily Parker", Email: "emily.parker@email.com", Department: "Family", Role: "Parent"},

		{ID: 101, Name: "Tommy Wilson", Email: "tommy.w@school.edu", Department: "Class 5A", Role: "Student", Age: 10, Ward: "Northgate",
			Signals: signalSet(types.SignalPreviousHomelessness, types.SignalEducationStatus, types.SignalParentalSubstanceAbuse)},
		{ID: 102, Name: "Emma Davis", Email: "emma.d@school.edu", Department: "Class 5A", Role: "Student", Age: 10, Ward: "Northgate",
			Signals: signalSet(types.SignalTemporaryAccommodation)},
		{ID: 103, Name: "Lucas Brown", Email: "lucas.b@school.edu", Department: "Class 5A", Role: "Student", Age: 11, Ward: "Riverside",
			Signals: signalSet(types.SignalYouthJustice, types.SignalParentalCrimes)},
		{ID: 104, Name: "Sophia Martinez", Email: "sophia.m@school.edu", Department: "Class 5A", Role: "Student", Age: 10, Ward: "Riverside"},
		{ID: 105, Name: "Oliver Johnson", Email: "oliver.j@school.edu", Department: "Class 5A", Role: "Student", Age: 11, Ward: "Eastfield"},

		{ID: 201, Name: "Margaret Thompson", Email: "margaret.t@email.com", Department: "Primary Care", Role: "Patient", Age: 47, Ward: "Eastfield",
			Signals: signalSet(types.SignalParentalSubstanceAbuse)},
		{ID: 202, Name: "Robert Anderson", Email: "robert.a@email.com", Department: "Primary Care", Role: "Patient", Age: 52, Ward: "Northgate"},
		{ID: 203, Name: "Jennifer Lee", Email: "jennifer.l@email.com", Department: "Primary Care", Role: "Patient", Age: 34, Ward: "Riverside",
			Signals: signalSet(types.SignalPreviousHomelessness, types.SignalTemporaryAccommodation)},
		{ID: 204, Name: "William Garcia", Email: "william.g@email.com", Department: "Primary Care", Role: "Patient", Age: 61, Ward: "Eastfield"},

		{ID: 301, Name: "Max Parker", Email: "max.p@school.edu", Department: "Class 3B", Role: "Child", Age: 8, Ward: "Northgate",
			Signals: signalSet(types.SignalCareStatus, types.SignalEducationStatus, types.SignalYouthJustice, types.SignalTemporaryAccommodation)},
	}
}

// DemoConnections returns the relationships between DemoPeople.
func DemoConnections() []types.Connection {
	link := func(source, target int, relation, desc string) types.Connection {
		return types.Connection{SourcePersonID: source, TargetPersonID: target, RelationType: relation, Description: desc}
	}
	var conns []types.Connection
	for _, student := range []int{101, 102, 103, 104, 105} {
		conns = append(conns, link(1, student, "Teacher", "Class teacher"))
	}
	for _, patient := range []int{201, 202, 203, 204} {
		conns = append(conns, link(2, patient, "Doctor", "Registered GP"))
	}
	conns = append(conns,
		link(3, 101, "Parent", "Mother"),
		link(3, 301, "Parent", "Foster parent"),
		link(101, 103, "Friend", "Same class, often together outside school"),
	)
	return conns
}

// SeedDemoData loads DemoPeople and DemoConnections into store. People
// already present are kept as they are.
func SeedDemoData(ctx context.Context, store Store) error {
	seeded := 0
	for _, p := range DemoPeople() {
		_, err := store.Create(ctx, p)
		if errors.Is(err, ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding person %d: %w", p.ID, err)
		}
		seeded++
	}
	if seeded == 0 {
		return nil
	}
	for _, c := range DemoConnections() {
		if _, err := store.AddConnection(ctx, c); err != nil {
			return fmt.Errorf("seeding connection %d-%d: %w", c.SourcePersonID, c.TargetPersonID, err)
		}
	}
	return nil
}
