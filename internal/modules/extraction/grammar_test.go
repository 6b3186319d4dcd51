// README: Extraction grammar tests (pattern families, invariants, round-trip).
package extraction

import (
	"testing"

	"voyage/internal/types"
)

type wantDest struct {
	name string
	days int
}

func TestExtract(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		want       []wantDest
		origin     string
		unassigned int
	}{
		{name: "days in city", in: "5 days in Paris", want: []wantDest{{"Paris", 5}}},
		{
			name: "compound list with per-city overrides",
			in:   "2 weeks in Lisbon and Granada, 10 days lisbon, 4 granada",
			want: []wantDest{{"Lisbon", 10}, {"Granada", 4}},
		},
		{name: "city for days", in: "Rome for 3 days", want: []wantDest{{"Rome", 3}}},
		{name: "a week in city", in: "a week in Lisbon", want: []wantDest{{"Lisbon", 7}}},
		{name: "weekend", in: "weekend in Porto", want: []wantDest{{"Porto", 2}}},
		{name: "n weeks", in: "3 weeks in Japan", want: []wantDest{{"Japan", 21}}},
		{name: "number word", in: "three days in Rome", want: []wantDest{{"Rome", 3}}},
		{name: "lowercase city is title-cased", in: "4 days in lisbon", want: []wantDest{{"Lisbon", 4}}},
		{
			name: "overall duration split across a list",
			in:   "I want to visit Rome and Florence for 10 days",
			want: []wantDest{{"Rome", 5}, {"Florence", 5}},
		},
		{
			name: "two city-for-days clauses",
			in:   "Paris for 3 days and Rome for 2 days",
			want: []wantDest{{"Paris", 3}, {"Rome", 2}},
		},
		{
			name: "explicit counts win over overall duration",
			in:   "1 week in Lisbon and Porto, 5 days lisbon, 4 porto",
			want: []wantDest{{"Lisbon", 5}, {"Porto", 4}},
		},
		{name: "origin", in: "5 days in Paris from London", want: []wantDest{{"Paris", 5}}, origin: "London"},
		{
			name:   "multi-word origin",
			in:     "from New York to Tokyo for a week",
			want:   []wantDest{{"Tokyo", 7}},
			origin: "New York",
		},
		{name: "city without duration", in: "I want to go to Barcelona", want: []wantDest{{"Barcelona", 0}}},
		{name: "duration without city", in: "I have a week off", want: nil, unassigned: 7},
		{name: "nothing", in: "hello there", want: nil},
		{name: "Nice is a city", in: "5 days in Nice", want: []wantDest{{"Nice", 5}}},
		{
			name: "Nice and Venice stay distinct",
			in:   "3 days in Nice and 2 days in Venice",
			want: []wantDest{{"Nice", 3}, {"Venice", 2}},
		},
		{name: "lowercase nice in cased text is an adjective", in: "Looking for a nice week in Rome", want: []wantDest{{"Rome", 7}}},
		{name: "all lowercase nice", in: "4 days in nice", want: []wantDest{{"Nice", 4}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(tc.in)
			if len(got.Destinations) != len(tc.want) {
				t.Fatalf("destinations = %+v, want %+v", got.Destinations, tc.want)
			}
			for i, w := range tc.want {
				d := got.Destinations[i]
				if d.Name != w.name || d.Duration != w.days || d.Order != i+1 {
					t.Errorf("destination %d = %+v, want %s/%d/order %d", i, d, w.name, w.days, i+1)
				}
			}
			if got.Origin != tc.origin {
				t.Errorf("origin = %q, want %q", got.Origin, tc.origin)
			}
			if got.UnassignedDays != tc.unassigned {
				t.Errorf("unassigned = %d, want %d", got.UnassignedDays, tc.unassigned)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("invariants broken: %v", err)
			}
		})
	}
}

func TestExtractScenarioTotals(t *testing.T) {
	if got := Extract("5 days in Paris"); got.TotalDays != 5 {
		t.Errorf("total = %d, want 5", got.TotalDays)
	}
	if got := Extract("2 weeks in Lisbon and Granada, 10 days lisbon, 4 granada"); got.TotalDays != 14 {
		t.Errorf("total = %d, want 14", got.TotalDays)
	}
	if got := Extract("1 week in Lisbon and Porto, 5 days lisbon, 4 porto"); got.TotalDays != 9 {
		t.Errorf("total = %d, want 9 (recomputed from explicit counts)", got.TotalDays)
	}
}

func TestExtractEmptyTrip(t *testing.T) {
	got := Extract("")
	if len(got.Destinations) != 0 || got.TotalDays != 0 || got.Origin != "" {
		t.Fatalf("expected empty trip, got %+v", got)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	inputs := []string{
		"5 days in Paris",
		"2 weeks in Lisbon and Granada, 10 days lisbon, 4 granada",
		"I want to visit Rome and Florence for 10 days",
		"Paris for 3 days and Rome for 2 days",
		"from New York to Tokyo for a week",
		"1 day in Porto",
	}
	for _, in := range inputs {
		first := Extract(in)
		rendered := Render(first)
		second := Extract(rendered)
		if !sameDestinations(first, second) {
			t.Errorf("round-trip %q -> %q: %+v != %+v", in, rendered, first.Destinations, second.Destinations)
		}
		if first.Origin != second.Origin {
			t.Errorf("round-trip %q lost origin: %q != %q", in, first.Origin, second.Origin)
		}
	}
}

func TestRender(t *testing.T) {
	trip := types.NewParsedTrip([]types.ParsedDestination{
		{Name: "Paris", Duration: 3},
		{Name: "Rome", Duration: 1},
	}, "London")
	if got, want := Render(trip), "3 days in Paris, 1 day in Rome from London"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestCityName(t *testing.T) {
	cases := map[string]string{
		"rome":                 "Rome",
		"the Amalfi Coast":     "Amalfi Coast",
		"visit new york":       "New York",
		"for a few days":       "",
		"Barcelona for 3 days": "Barcelona",
		"Nice for 2 days":      "Nice",
		"a nice Paris":         "Paris",
	}
	for in, want := range cases {
		if got := CityName(in); got != want {
			t.Errorf("CityName(%q) = %q, want %q", in, got, want)
		}
	}
}

func sameDestinations(a, b types.ParsedTrip) bool {
	if len(a.Destinations) != len(b.Destinations) {
		return false
	}
	for i := range a.Destinations {
		if a.Destinations[i].Name != b.Destinations[i].Name || a.Destinations[i].Duration != b.Destinations[i].Duration {
			return false
		}
	}
	return true
}
