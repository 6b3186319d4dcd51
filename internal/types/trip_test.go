package types

import "testing"

func TestNewParsedTripRenumbersAndTotals(t *testing.T) {
	trip := NewParsedTrip([]ParsedDestination{
		{Name: "Paris", Duration: 3, Order: 7},
		{Name: "Rome", Duration: 2},
	}, "London")
	if trip.TotalDays != 5 {
		t.Fatalf("total = %d, want 5", trip.TotalDays)
	}
	for i, d := range trip.Destinations {
		if d.Order != i+1 {
			t.Errorf("order[%d] = %d", i, d.Order)
		}
	}
	if err := trip.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := NewParsedTrip([]ParsedDestination{{Name: "Paris", Duration: 3}}, "")
	c := orig.Clone()
	c.Destinations[0].Duration = 9
	if orig.Destinations[0].Duration != 3 {
		t.Fatal("clone aliases the original destinations")
	}
}

func TestFind(t *testing.T) {
	trip := NewParsedTrip([]ParsedDestination{{Name: "New York", Duration: 3}, {Name: "Rome", Duration: 2}}, "")
	if i, ok := trip.Find("york"); !ok || i != 0 {
		t.Errorf("Find(york) = %d, %v", i, ok)
	}
	if i, ok := trip.Find("ROME"); !ok || i != 1 {
		t.Errorf("Find(ROME) = %d, %v", i, ok)
	}
	if _, ok := trip.Find("Oslo"); ok {
		t.Error("Find(Oslo) should miss")
	}
}

func TestFindDoesNotMatchLongerQuery(t *testing.T) {
	trip := NewParsedTrip([]ParsedDestination{{Name: "Nice", Duration: 3}, {Name: "Paris", Duration: 2}}, "")
	if i, ok := trip.Find("Venice"); ok {
		t.Errorf("Find(Venice) matched %q", trip.Destinations[i].Name)
	}
	if i, ok := trip.Find("nice"); !ok || i != 0 {
		t.Errorf("Find(nice) = %d, %v", i, ok)
	}
}

func TestValidateRejectsBrokenTotals(t *testing.T) {
	trip := NewParsedTrip([]ParsedDestination{{Name: "Paris", Duration: 3}}, "")
	trip.TotalDays = 4
	if err := trip.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestItineraryTripAndShift(t *testing.T) {
	it := Itinerary{Days: []Day{
		{Day: 1, Date: "2026-05-01", Destination: "Paris"},
		{Day: 2, Date: "2026-05-02", Destination: "Paris"},
		{Day: 3, Date: "2026-05-03", Destination: "Rome"},
	}}
	trip := it.Trip("")
	if len(trip.Destinations) != 2 || trip.Destinations[0].Duration != 2 || trip.TotalDays != 3 {
		t.Fatalf("unexpected trip %+v", trip)
	}
	shifted := it.ShiftDates(2)
	if shifted.Days[0].Date != "2026-05-03" || it.Days[0].Date != "2026-05-01" {
		t.Fatalf("shift mutated or miscomputed: %s / %s", shifted.Days[0].Date, it.Days[0].Date)
	}
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{"Travel": CategoryTravel, "dining": CategoryFood, "Hotel": CategoryAccommodation} {
		got, err := ParseCategory(in)
		if err != nil || got != want {
			t.Errorf("ParseCategory(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCategory("spaceflight"); err == nil {
		t.Error("expected unknown category error")
	}
}
