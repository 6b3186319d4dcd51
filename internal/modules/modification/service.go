// README: Modification engine; DETECT -> VALIDATE -> APPLY -> DIFF -> DECIDE_CONFIRMATION.
package modification

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"voyage/internal/observability"
	"voyage/internal/types"
)

const (
	noChangesSummary  = "No changes were made to your itinerary."
	failureConfidence = 0.1
	baseConfidence    = 0.7
	maxConfidence     = 0.95
)

type Engine struct {
	limits  Limits
	now     func() time.Time
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewEngine(limits Limits, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	def := DefaultLimits()
	if limits.MaxDestinations <= 0 {
		limits.MaxDestinations = def.MaxDestinations
	}
	if limits.MinDays <= 0 {
		limits.MinDays = def.MinDays
	}
	if limits.MaxDays < limits.MinDays {
		limits.MaxDays = def.MaxDays
	}
	if limits.ConfirmDayDelta <= 0 {
		limits.ConfirmDayDelta = def.ConfirmDayDelta
	}
	if limits.DefaultAddDays <= 0 {
		limits.DefaultAddDays = def.DefaultAddDays
	}
	return &Engine{
		limits:  limits,
		now:     time.Now,
		logger:  observability.Component(logger, "modification"),
		metrics: metrics,
	}
}

// Confidence scores a detected request: 0.7 base, +0.1 each for a target, a
// value and an explicit verb cue, capped at 0.95.
func Confidence(req Request) float64 {
	c := baseConfidence
	if req.Target != "" {
		c += 0.1
	}
	if req.hasValue() {
		c += 0.1
	}
	if req.verbCue {
		c += 0.1
	}
	return math.Min(math.Round(c*100)/100, maxConfidence)
}

// Apply runs the pipeline for text against trip. prefs is the current
// preference state; it is never modified.
func (e *Engine) Apply(text string, trip types.ParsedTrip, prefs map[string]string) Result {
	req, ok := Detect(text)
	if !ok {
		return e.fail(time.Now(), Request{Context: text}, trip, nil, "I couldn't tell what to change. Try \"add Rome for 3 days\" or \"remove Paris\".")
	}
	return e.Execute(req, trip, nil, prefs)
}

// ApplyToItinerary derives the trip snapshot from the itinerary's day tags and
// runs the pipeline. The itinerary is never modified.
func (e *Engine) ApplyToItinerary(text string, it types.Itinerary, origin string, prefs map[string]string) Result {
	trip := it.Trip(origin)
	req, ok := Detect(text)
	if !ok {
		return e.fail(time.Now(), Request{Context: text}, trip, &it, "I couldn't tell what to change. Try \"add Rome for 3 days\" or \"remove Paris\".")
	}
	return e.Execute(req, trip, &it, prefs)
}

// Execute validates and applies an already detected request.
func (e *Engine) Execute(req Request, trip types.ParsedTrip, it *types.Itinerary, prefs map[string]string) Result {
	start := time.Now()

	if reason := e.validate(&req, trip, it); reason != "" {
		return e.fail(start, req, trip, it, reason)
	}

	before := trip.Clone()
	after, newPrefs, newIt := e.apply(req, trip, prefs, it)

	diff := Compute(before, after)
	res := Result{
		Success:    true,
		Confidence: Confidence(req),
		Request:    &req,
		Changes: Changes{
			Before: before,
			After:  after,
			Diff:   diff,
		},
		Metadata: Metadata{
			AffectedDestinations: affected(diff),
			TotalDaysChange:      after.TotalDays - before.TotalDays,
		},
	}

	switch req.Type {
	case TypeUpdatePreferences:
		res.Preferences = newPrefs
		if prefs[req.Target] == newPrefs[req.Target] {
			res.Changes.Summary = noChangesSummary
		} else {
			res.Changes.Summary = fmt.Sprintf("Updated your preferences: %s is now %q", req.Target, newPrefs[req.Target])
			res.Regenerate = true
		}
	case TypeAdjustDates:
		res.Itinerary = newIt
		res.Changes.Summary = datesSummary(req, newIt)
	default:
		res.Changes.Summary = Summarize(diff)
		res.Regenerate = len(diff) > 0
	}

	res.RequiresConfirmation, res.ConfirmationPrompt = e.decideConfirmation(req, before, after)
	res.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()

	e.metrics.ObserveModification(string(req.Type), true)
	e.logger.Debug("modification applied",
		"type", req.Type,
		"target", req.Target,
		"total_days_change", res.Metadata.TotalDaysChange,
		"confirm", res.RequiresConfirmation,
	)
	return res
}

func (e *Engine) validate(req *Request, trip types.ParsedTrip, it *types.Itinerary) string {
	count := len(trip.Destinations)
	switch req.Type {
	case TypeAddDestination:
		if req.Target == "" {
			return "Cannot add destination - no destination specified"
		}
		if count >= e.limits.MaxDestinations {
			return fmt.Sprintf("Cannot add destination - maximum of %d cities allowed", e.limits.MaxDestinations)
		}
		if _, found := trip.Find(req.Target); found {
			return fmt.Sprintf("Cannot add destination - %s is already in your itinerary", req.Target)
		}
		if req.Days != 0 && !e.inRange(req.Days) {
			return e.durationMessage()
		}
		if req.Anchor != "" {
			if _, found := trip.Find(req.Anchor); !found {
				return fmt.Sprintf("Cannot add destination - %s is not in your itinerary", req.Anchor)
			}
		}
	case TypeRemoveDestination:
		if count <= 1 {
			return "Cannot remove destination - at least one destination required"
		}
		if req.Target == "" {
			return "Cannot remove destination - no destination specified"
		}
		if _, found := trip.Find(req.Target); !found {
			return fmt.Sprintf("Cannot remove destination - %s is not in your itinerary", req.Target)
		}
	case TypeChangeDuration:
		if req.Target == "" || req.vague || (req.Relative && req.Days == 0) {
			return "Cannot change duration - tell me which city and how many days"
		}
		i, found := trip.Find(req.Target)
		if !found {
			return fmt.Sprintf("Cannot change duration - %s is not in your itinerary", req.Target)
		}
		days := req.Days
		if req.Relative {
			days = trip.Destinations[i].Duration + req.Days
		}
		if !e.inRange(days) {
			return e.durationMessage()
		}
	case TypeReplaceDestination:
		if req.Target == "" || req.Value == "" {
			return "Cannot replace destination - both the current and the new destination are required"
		}
		i, found := trip.Find(req.Target)
		if !found {
			return fmt.Sprintf("Cannot replace destination - %s is not in your itinerary", req.Target)
		}
		if j, dup := trip.Find(req.Value); dup && j != i {
			return fmt.Sprintf("Cannot replace destination - %s is already in your itinerary", req.Value)
		}
	case TypeUpdatePreferences:
		if req.Value == "" {
			return "Cannot update preferences - no preference given"
		}
	case TypeAdjustDates:
		if req.Value == "" && req.Days == 0 {
			return "Cannot adjust dates - no new start date or shift given"
		}
		if it == nil {
			return "Cannot adjust dates - there is no itinerary to move yet"
		}
		if req.Value != "" && !req.Relative {
			shift, err := e.shiftTo(req.Value, *it)
			if err != nil {
				return fmt.Sprintf("Cannot adjust dates - I couldn't read the date %q", req.Value)
			}
			req.Days, req.Relative = shift, true
		}
	default:
		return "Cannot modify itinerary - unsupported change"
	}
	return ""
}

func (e *Engine) inRange(days int) bool {
	return days >= e.limits.MinDays && days <= e.limits.MaxDays
}

func (e *Engine) durationMessage() string {
	return fmt.Sprintf("Duration must be between %d and %d days per city", e.limits.MinDays, e.limits.MaxDays)
}

// apply never touches its inputs; every return value is a fresh copy.
func (e *Engine) apply(req Request, trip types.ParsedTrip, prefs map[string]string, it *types.Itinerary) (types.ParsedTrip, map[string]string, *types.Itinerary) {
	dests := append([]types.ParsedDestination(nil), trip.Destinations...)
	newPrefs := copyPrefs(prefs)
	var newIt *types.Itinerary

	switch req.Type {
	case TypeAddDestination:
		days := req.Days
		if days == 0 {
			days = e.limits.DefaultAddDays
		}
		d := types.ParsedDestination{Name: req.Target, Duration: days}
		at := len(dests)
		if req.Anchor != "" {
			i, _ := trip.Find(req.Anchor)
			at = i + 1
			if req.Placement == "before" {
				at = i
			}
		}
		dests = append(dests[:at], append([]types.ParsedDestination{d}, dests[at:]...)...)
	case TypeRemoveDestination:
		i, _ := trip.Find(req.Target)
		dests = append(dests[:i], dests[i+1:]...)
	case TypeChangeDuration:
		i, _ := trip.Find(req.Target)
		if req.Relative {
			dests[i].Duration += req.Days
		} else {
			dests[i].Duration = req.Days
		}
	case TypeReplaceDestination:
		i, _ := trip.Find(req.Target)
		dests[i].Name = req.Value
		if req.Days > 0 {
			dests[i].Duration = req.Days
		}
	case TypeUpdatePreferences:
		newPrefs[req.Target] = req.Value
	case TypeAdjustDates:
		if it != nil {
			shifted := it.ShiftDates(req.Days)
			newIt = &shifted
		}
	}

	return types.NewParsedTrip(dests, trip.Origin), newPrefs, newIt
}

func (e *Engine) decideConfirmation(req Request, before, after types.ParsedTrip) (bool, string) {
	delta := after.TotalDays - before.TotalDays
	if req.Type == TypeRemoveDestination {
		i, _ := before.Find(req.Target)
		return true, fmt.Sprintf("Remove %s from your trip? That drops %s and leaves %s in total. Reply yes to confirm.",
			before.Destinations[i].Name, dayCount(before.Destinations[i].Duration), dayCount(after.TotalDays))
	}
	if abs(delta) > e.limits.ConfirmDayDelta {
		return true, fmt.Sprintf("This changes your trip from %s to %s. Reply yes to confirm.",
			dayCount(before.TotalDays), dayCount(after.TotalDays))
	}
	return false, ""
}

func (e *Engine) fail(start time.Time, req Request, trip types.ParsedTrip, it *types.Itinerary, reason string) Result {
	e.metrics.ObserveModification(string(req.Type), false)
	e.logger.Debug("modification rejected", "type", req.Type, "reason", reason)

	res := Result{
		Success:    false,
		Confidence: failureConfidence,
		Reason:     reason,
		Request:    &req,
		Changes: Changes{
			Before:  trip.Clone(),
			After:   trip.Clone(),
			Summary: reason,
			Diff:    []Diff{},
		},
		Metadata: Metadata{
			ProcessingTimeMs:     time.Since(start).Milliseconds(),
			AffectedDestinations: []string{},
		},
	}
	if it != nil {
		echo := it.Clone()
		res.Itinerary = &echo
	}
	return res
}

// shiftTo returns how many days the itinerary must move to start on value.
func (e *Engine) shiftTo(value string, it types.Itinerary) (int, error) {
	start, ok := it.StartDate()
	if !ok {
		return 0, fmt.Errorf("itinerary has no start date")
	}
	target, err := parseDate(value, e.now())
	if err != nil {
		return 0, err
	}
	return int(target.Sub(start).Hours() / 24), nil
}

var ordinalRe = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)

var dateLayouts = []string{"January 2", "Jan 2", "2 January", "2 Jan", "January 2 2006", "Jan 2 2006"}

func parseDate(value string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(types.DateLayout, value); err == nil {
		return t, nil
	}
	clean := ordinalRe.ReplaceAllString(value, "$1")
	clean = strings.NewReplacer(" of ", " ", ".", "").Replace(clean)
	clean = strings.Join(strings.Fields(clean), " ")
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, titleMonth(clean))
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = t.AddDate(now.Year(), 0, 0)
			if t.Before(now.AddDate(0, 0, -1)) {
				t = t.AddDate(1, 0, 0)
			}
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// titleMonth upper-cases the first letter of each word so time.Parse accepts "march 3".
func titleMonth(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func datesSummary(req Request, it *types.Itinerary) string {
	if req.Days == 0 {
		return noChangesSummary
	}
	dir := "later"
	if req.Days < 0 {
		dir = "earlier"
	}
	s := fmt.Sprintf("Moved your trip %s %s", dayCount(abs(req.Days)), dir)
	if it != nil && len(it.Days) > 0 {
		s += fmt.Sprintf(" (now starting %s)", it.Days[0].Date)
	}
	return s
}

func copyPrefs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
