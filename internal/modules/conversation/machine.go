// README: Conversation state machine; merge rules, readiness and the next question.
package conversation

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voyage/internal/ai"
	"voyage/internal/modules/extraction"
	"voyage/internal/modules/intent"
	"voyage/internal/observability"
	"voyage/internal/types"
)

const OriginQuestion = "Where are you traveling from?"

// Limits are the planning-time rules, configured separately from the
// modification limits.
type Limits struct {
	MaxDestinations int
	MaxDaysPerCity  int
}

func DefaultLimits() Limits {
	return Limits{MaxDestinations: types.MaxDestinations, MaxDaysPerCity: 30}
}

type Machine struct {
	limits Limits
	logger *slog.Logger
}

func NewMachine(limits Limits, logger *slog.Logger) *Machine {
	def := DefaultLimits()
	if limits.MaxDestinations <= 0 {
		limits.MaxDestinations = def.MaxDestinations
	}
	if limits.MaxDaysPerCity <= 0 {
		limits.MaxDaysPerCity = def.MaxDaysPerCity
	}
	return &Machine{limits: limits, logger: observability.Component(logger, "conversation")}
}

// MergeTrip folds newly extracted facts into the session. A limit breach
// returns a *types.ValidationError and leaves the state untouched.
func (m *Machine) MergeTrip(st *State, in types.ParsedTrip) error {
	dests := append([]types.ParsedDestination(nil), st.Context.Destinations...)
	current := types.NewParsedTrip(dests, "")

	for _, d := range in.Destinations {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		if d.Duration > m.limits.MaxDaysPerCity {
			return &types.ValidationError{
				Field:  "duration",
				Reason: fmt.Sprintf("Each destination can be at most %d days while planning; how long would you like to stay in %s?", m.limits.MaxDaysPerCity, name),
			}
		}
		if i, found := current.Find(name); found {
			// a zero duration never overwrites a known one
			if d.Duration > 0 {
				dests[i].Duration = d.Duration
			}
		} else {
			if len(dests) >= m.limits.MaxDestinations {
				return &types.ValidationError{
					Field:  "destinations",
					Reason: fmt.Sprintf("You can plan up to %d destinations per trip. Which ones should we keep?", m.limits.MaxDestinations),
				}
			}
			dests = append(dests, types.ParsedDestination{Name: name, Duration: max(d.Duration, 0)})
		}
		current = types.NewParsedTrip(dests, "")
	}

	unassigned := st.Context.UnassignedDays
	if in.UnassignedDays > 0 {
		unassigned = in.UnassignedDays
	}
	unassigned = fillUnassigned(dests, unassigned, in.UnassignedDays > 0)
	for _, d := range dests {
		if d.Duration > m.limits.MaxDaysPerCity {
			return &types.ValidationError{
				Field:  "duration",
				Reason: fmt.Sprintf("Each destination can be at most %d days while planning; how long would you like to stay in %s?", m.limits.MaxDaysPerCity, d.Name),
			}
		}
	}

	st.Context.Destinations = types.NewParsedTrip(dests, "").Destinations
	st.Context.UnassignedDays = unassigned
	if o := strings.TrimSpace(in.Origin); o != "" {
		st.Context.Origin = o
	}
	return nil
}

// fillUnassigned spends a city-less duration on destinations that lack days
// and returns what is still unassigned. With a single destination a freshly
// stated duration restates its length.
func fillUnassigned(dests []types.ParsedDestination, days int, fresh bool) int {
	if days <= 0 || len(dests) == 0 {
		return max(days, 0)
	}
	if len(dests) == 1 {
		if dests[0].Duration == 0 || fresh {
			dests[0].Duration = days
		}
		return 0
	}
	var open []int
	known := 0
	for i, d := range dests {
		if d.Duration > 0 {
			known += d.Duration
			continue
		}
		open = append(open, i)
	}
	if len(open) == 0 {
		return 0
	}
	remaining := days - known
	if remaining < len(open) {
		return days
	}
	share, extra := remaining/len(open), remaining%len(open)
	for k, i := range open {
		dests[i].Duration = share
		if k < extra {
			dests[i].Duration++
		}
	}
	return 0
}

// MergeFacts folds the conversational fallback's facts into the session.
func (m *Machine) MergeFacts(st *State, f *ai.Facts, now time.Time) error {
	if f == nil {
		return nil
	}
	dests := make([]types.ParsedDestination, 0, len(f.Destinations))
	for _, d := range f.Destinations {
		dests = append(dests, types.ParsedDestination{Name: d.Name, Duration: d.Days})
	}
	in := types.NewParsedTrip(dests, f.Origin)
	if err := m.MergeTrip(st, in); err != nil {
		return err
	}
	for k, v := range f.Preferences {
		k, v = strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)
		if k != "" && v != "" {
			st.Context.Preferences[k] = v
		}
	}
	for _, c := range f.Constraints {
		m.addConstraint(st, c, now)
	}
	return nil
}

func (m *Machine) addConstraint(st *State, text string, now time.Time) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, c := range st.Context.Constraints {
		if strings.EqualFold(c.Description, text) {
			return
		}
	}
	st.Context.Constraints = append(st.Context.Constraints, Constraint{Description: text, AddedAt: now})
}

// Ready reports whether every gathered destination has a positive duration.
func (m *Machine) Ready(st *State) bool {
	return st.Trip().Complete()
}

// NextQuestion returns the targeted question for the first missing field, or
// "" when the trip can be generated.
func (m *Machine) NextQuestion(st *State) (string, string) {
	trip := st.Trip()
	if len(trip.Destinations) == 0 {
		if trip.UnassignedDays > 0 {
			return fmt.Sprintf("Where would you like to spend your %d days?", trip.UnassignedDays), FieldDestinations
		}
		return "Where would you like to go?", FieldDestinations
	}
	var open []string
	for _, d := range trip.Destinations {
		if d.Duration <= 0 {
			open = append(open, d.Name)
		}
	}
	if len(open) > 0 {
		return intent.DurationQuestion(open), FieldDuration
	}
	if st.Context.Origin == "" && !st.OriginAsked {
		return OriginQuestion, FieldOrigin
	}
	return "", ""
}

// Advance moves the session to clarifying with the next question, or to
// ready when nothing is missing. It returns the question asked.
func (m *Machine) Advance(st *State) (string, error) {
	if st.Status == StatusFailed {
		if err := st.Transition(StatusGathering); err != nil {
			return "", err
		}
	}
	q, field := m.NextQuestion(st)
	if q == "" {
		st.ClearQuestion()
		return "", st.Transition(StatusReady)
	}
	if err := st.Transition(StatusClarifying); err != nil {
		return "", err
	}
	st.SetQuestion(q, field)
	if field == FieldOrigin {
		st.OriginAsked = true
	}
	m.logger.Debug("asking", "session_id", st.SessionID, "field", field)
	return q, nil
}

var skipOrigin = []string{"skip", "anywhere", "doesn't matter", "does not matter", "doesnt matter", "no idea", "not sure", "none", "whatever", "no"}

// AnswerOrigin handles a reply to the origin question. It reports false when
// the text is not an answer and should be classified normally.
func (m *Machine) AnswerOrigin(st *State, text string) bool {
	if st.PendingField != FieldOrigin {
		return false
	}
	clean := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!?"))
	for _, s := range skipOrigin {
		if clean == s || strings.HasPrefix(clean, s+" ") {
			st.ClearQuestion()
			return true
		}
	}
	origin := extraction.Origin(text)
	if origin == "" && len(strings.Fields(text)) <= 4 && len(extraction.Extract(text).Destinations) == 0 {
		origin = extraction.CityName(text)
	}
	if origin == "" {
		return false
	}
	st.Context.Origin = origin
	st.ClearQuestion()
	return true
}

// AnswerDuration handles a bare number sent in reply to a duration question
// about a single city ("4", "four days").
func (m *Machine) AnswerDuration(st *State, text string) (bool, error) {
	if st.PendingField != FieldDuration {
		return false, nil
	}
	var open []int
	for i, d := range st.Context.Destinations {
		if d.Duration <= 0 {
			open = append(open, i)
		}
	}
	if len(open) != 1 {
		return false, nil
	}
	fields := strings.Fields(strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!?")))
	if len(fields) == 0 || len(fields) > 2 {
		return false, nil
	}
	if len(fields) == 2 && !strings.HasPrefix(fields[1], "day") && !strings.HasPrefix(fields[1], "night") {
		return false, nil
	}
	n, ok := extraction.ParseNumber(fields[0])
	if !ok || n <= 0 {
		return false, nil
	}
	if n > m.limits.MaxDaysPerCity {
		return true, &types.ValidationError{Field: "duration", Reason: fmt.Sprintf("Each destination can be at most %d days while planning.", m.limits.MaxDaysPerCity)}
	}
	st.Context.Destinations[open[0]].Duration = n
	st.Context.Destinations = types.NewParsedTrip(st.Context.Destinations, "").Destinations
	st.ClearQuestion()
	return true, nil
}

// ResetTrip clears the gathered trip after a failure or a fresh start while
// keeping preferences and history.
func (m *Machine) ResetTrip(st *State) {
	st.Context.Destinations = []types.ParsedDestination{}
	st.Context.UnassignedDays = 0
	st.ClearQuestion()
	st.PendingModification = nil
}
