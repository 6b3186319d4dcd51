// README: Itinerary value objects (itinerary, day, activity) and category parsing.
package types

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date used on Day.Date.
const DateLayout = "2006-01-02"

type Category string

const (
	CategoryWork          Category = "Work"
	CategoryLeisure       Category = "Leisure"
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryAccommodation Category = "Accommodation"
)

var ErrUnknownCategory = errors.New("unknown activity category")

var categorySynonyms = map[string]Category{
	"work":           CategoryWork,
	"business":       CategoryWork,
	"meeting":        CategoryWork,
	"leisure":        CategoryLeisure,
	"sightseeing":    CategoryLeisure,
	"culture":        CategoryLeisure,
	"activity":       CategoryLeisure,
	"entertainment":  CategoryLeisure,
	"shopping":       CategoryLeisure,
	"nature":         CategoryLeisure,
	"food":           CategoryFood,
	"dining":         CategoryFood,
	"restaurant":     CategoryFood,
	"meal":           CategoryFood,
	"drinks":         CategoryFood,
	"travel":         CategoryTravel,
	"transport":      CategoryTravel,
	"transportation": CategoryTravel,
	"transit":        CategoryTravel,
	"accommodation":  CategoryAccommodation,
	"hotel":          CategoryAccommodation,
	"lodging":        CategoryAccommodation,
	"check-in":       CategoryAccommodation,
}

// ParseCategory maps a loosely written category onto the closed set.
func ParseCategory(s string) (Category, error) {
	if c, ok := categorySynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", ErrUnknownCategory
}

type Activity struct {
	Time        string   `json:"time"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Address     string   `json:"address"`
}

// NewActivity validates the required fields of an activity.
func NewActivity(at, description, category, address string) (Activity, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Activity{}, &ValidationError{Field: "description", Reason: "activity description is required"}
	}
	c, err := ParseCategory(category)
	if err != nil {
		return Activity{}, &ValidationError{Field: "category", Reason: "unknown activity category " + category}
	}
	return Activity{
		Time:        strings.TrimSpace(at),
		Description: description,
		Category:    c,
		Address:     strings.TrimSpace(address),
	}, nil
}

type Day struct {
	Day         int        `json:"day"`
	Date        string     `json:"date"`
	Title       string     `json:"title"`
	Destination string     `json:"destination"`
	Activities  []Activity `json:"activities"`
}

type Itinerary struct {
	Title       string   `json:"title"`
	Destination string   `json:"destination"`
	Days        []Day    `json:"days"`
	QuickTips   []string `json:"quickTips"`
}

// Clone returns a deep copy so modifications never alias the caller's value.
func (it Itinerary) Clone() Itinerary {
	out := it
	out.Days = make([]Day, len(it.Days))
	for i, d := range it.Days {
		d.Activities = append([]Activity(nil), d.Activities...)
		out.Days[i] = d
	}
	out.QuickTips = append([]string(nil), it.QuickTips...)
	return out
}

// StartDate returns the date of day 1.
func (it Itinerary) StartDate() (time.Time, bool) {
	if len(it.Days) == 0 {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, it.Days[0].Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ShiftDates returns a copy with every day moved by n calendar days.
func (it Itinerary) ShiftDates(n int) Itinerary {
	out := it.Clone()
	for i := range out.Days {
		if t, err := time.Parse(DateLayout, out.Days[i].Date); err == nil {
			out.Days[i].Date = t.AddDate(0, 0, n).Format(DateLayout)
		}
	}
	return out
}

// Trip rebuilds the ParsedTrip snapshot from the destination tags on each day.
// Consecutive days with the same tag form one destination.
func (it Itinerary) Trip(origin string) ParsedTrip {
	var dests []ParsedDestination
	for _, d := range it.Days {
		name := d.Destination
		if name == "" {
			name = it.Destination
		}
		if n := len(dests); n > 0 && strings.EqualFold(dests[n-1].Name, name) {
			dests[n-1].Duration++
			continue
		}
		dests = append(dests, ParsedDestination{Name: name, Duration: 1})
	}
	return NewParsedTrip(dests, origin)
}

// Validate checks day numbering and activity categories.
func (it Itinerary) Validate() error {
	for i, d := range it.Days {
		if d.Day != i+1 {
			return &ValidationError{Field: "day", Reason: "day numbers must be contiguous from 1"}
		}
		for _, a := range d.Activities {
			if _, err := ParseCategory(string(a.Category)); err != nil {
				return &ValidationError{Field: "category", Reason: "unknown activity category " + string(a.Category)}
			}
		}
	}
	return nil
}
