// README: Modification request/result records, diff entries and validation limits.
package modification

import "voyage/internal/types"

type Type string

const (
	TypeAddDestination     Type = "add_destination"
	TypeRemoveDestination  Type = "remove_destination"
	TypeChangeDuration     Type = "change_duration"
	TypeReplaceDestination Type = "replace_destination"
	TypeUpdatePreferences  Type = "update_preferences"
	TypeAdjustDates        Type = "adjust_dates"
)

// Request is a detected modification. Value holds the raw value (new city,
// preference, date); Days is the numeric value when one was given.
type Request struct {
	Type    Type   `json:"type"`
	Target  string `json:"target,omitempty"`
	Value   string `json:"value,omitempty"`
	Days    int    `json:"days,omitempty"`
	Context string `json:"context"`

	// Relative marks Days as a delta ("extend Paris by 2 days").
	Relative bool `json:"relative,omitempty"`
	// Placement is "after" or "before" Anchor for add_destination.
	Placement string `json:"placement,omitempty"`
	Anchor    string `json:"anchor,omitempty"`

	verbCue bool
	// vague is set when the phrasing named no day count ("stay longer in Paris").
	vague bool
}

func (r Request) hasValue() bool {
	return r.Value != "" || r.Days != 0
}

type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

type DiffField string

const (
	FieldDestination DiffField = "destination"
	FieldDuration    DiffField = "duration"
	FieldOrder       DiffField = "order"
	FieldTotalDays   DiffField = "total_days"
)

type Diff struct {
	Type        DiffType  `json:"type"`
	Field       DiffField `json:"field"`
	Before      any       `json:"before,omitempty"`
	After       any       `json:"after,omitempty"`
	Description string    `json:"description"`
}

type Changes struct {
	Before  types.ParsedTrip `json:"before"`
	After   types.ParsedTrip `json:"after"`
	Summary string           `json:"summary"`
	Diff    []Diff           `json:"diff"`
}

type Metadata struct {
	ProcessingTimeMs     int64    `json:"processingTimeMs"`
	AffectedDestinations []string `json:"affectedDestinations"`
	TotalDaysChange      int      `json:"totalDaysChange"`
}

type Result struct {
	Success              bool     `json:"success"`
	Changes              Changes  `json:"changes"`
	Confidence           float64  `json:"confidence"`
	RequiresConfirmation bool     `json:"requiresConfirmation"`
	ConfirmationPrompt   string   `json:"confirmationPrompt,omitempty"`
	Metadata             Metadata `json:"metadata"`

	// Reason explains a failed validation.
	Reason  string   `json:"reason,omitempty"`
	Request *Request `json:"request,omitempty"`
	// Preferences is the preference state after update_preferences.
	Preferences map[string]string `json:"preferences,omitempty"`
	// Itinerary is set when the new itinerary can be derived without
	// regeneration (adjust_dates) and echoes the original on failure.
	Itinerary *types.Itinerary `json:"itinerary,omitempty"`
	// Regenerate is set when the itinerary body must be generated again
	// (destinations, durations or preferences changed).
	Regenerate bool `json:"regenerate"`
}

// Limits are the modification-time rules. They are configured separately from
// the planning-time limits used while gathering a new trip.
type Limits struct {
	MaxDestinations int
	MinDays         int
	MaxDays         int
	// ConfirmDayDelta is the total-day change above which confirmation is asked.
	ConfirmDayDelta int
	DefaultAddDays  int
}

func DefaultLimits() Limits {
	return Limits{
		MaxDestinations: types.MaxDestinations,
		MinDays:         1,
		MaxDays:         15,
		ConfirmDayDelta: 3,
		DefaultAddDays:  3,
	}
}
