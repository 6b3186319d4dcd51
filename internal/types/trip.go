// README: Trip value objects shared across modules (destinations, parsed trips).
package types

import "strings"

// MaxDestinations is the default cap on cities per trip.
const MaxDestinations = 5

// ParsedDestination is one city with its stay length. Order is 1-based.
type ParsedDestination struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	Order    int    `json:"order"`
}

// ParsedTrip is the structured form of a trip request.
// TotalDays always equals the sum of destination durations and Order always
// matches the slice position; build values with NewParsedTrip to keep that true.
type ParsedTrip struct {
	Destinations []ParsedDestination `json:"destinations"`
	TotalDays    int                 `json:"totalDays"`
	Origin       string              `json:"origin,omitempty"`
	// UnassignedDays is a stated trip length that no city claimed yet ("a week away").
	UnassignedDays int `json:"unassignedDays,omitempty"`
}

// NewParsedTrip copies dests, renumbers Order and recomputes TotalDays.
func NewParsedTrip(dests []ParsedDestination, origin string) ParsedTrip {
	out := make([]ParsedDestination, len(dests))
	total := 0
	for i, d := range dests {
		d.Order = i + 1
		out[i] = d
		total += d.Duration
	}
	return ParsedTrip{Destinations: out, TotalDays: total, Origin: origin}
}

// Clone returns a deep copy.
func (t ParsedTrip) Clone() ParsedTrip {
	c := NewParsedTrip(t.Destinations, t.Origin)
	c.UnassignedDays = t.UnassignedDays
	return c
}

func (t ParsedTrip) IsEmpty() bool {
	return len(t.Destinations) == 0 && t.UnassignedDays == 0 && t.Origin == ""
}

// Names returns destination names in order.
func (t ParsedTrip) Names() []string {
	names := make([]string, len(t.Destinations))
	for i, d := range t.Destinations {
		names[i] = d.Name
	}
	return names
}

// Find looks up a destination by name: an exact case-insensitive match first,
// then the first destination whose name contains the query.
func (t ParsedTrip) Find(name string) (int, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return -1, false
	}
	for i, d := range t.Destinations {
		if strings.EqualFold(d.Name, needle) {
			return i, true
		}
	}
	for i, d := range t.Destinations {
		have := strings.ToLower(d.Name)
		if strings.Contains(have, needle) {
			return i, true
		}
	}
	return -1, false
}

// Complete reports whether every destination has a positive duration.
func (t ParsedTrip) Complete() bool {
	if len(t.Destinations) == 0 {
		return false
	}
	for _, d := range t.Destinations {
		if d.Duration <= 0 {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants.
func (t ParsedTrip) Validate() error {
	sum := 0
	for i, d := range t.Destinations {
		if strings.TrimSpace(d.Name) == "" {
			return &ValidationError{Field: "destination", Reason: "destination name is required"}
		}
		if d.Order != i+1 {
			return &ValidationError{Field: "order", Reason: "destination order must be contiguous from 1"}
		}
		if d.Duration < 0 {
			return &ValidationError{Field: "duration", Reason: "duration cannot be negative"}
		}
		sum += d.Duration
	}
	if sum != t.TotalDays {
		return &ValidationError{Field: "total_days", Reason: "total days must equal the sum of destination durations"}
	}
	return nil
}
