// README: Extraction grammar; pulls destinations, per-city durations and origin out of free text.
package extraction

import (
	"regexp"
	"sort"
	"strings"

	"voyage/internal/types"
)

const durationUnit = `(days?|nights?|weeks?|weekend|fortnight)`

var (
	// "from London"
	originRe = regexp.MustCompile(`(?i)\bfrom\s+` + CityPattern)

	// "5 days in Paris", "a week in Rome", "weekend in Porto"
	daysInCityRe = regexp.MustCompile(`(?i)\b(?:` + NumberPattern + `[ \t-]*)?` + durationUnit +
		`\s+(?:in|at|around|exploring|visiting)\s+` + CityPattern)

	// "Paris for 5 days", "Rome for a week", "Porto for the weekend"
	cityForDaysRe = regexp.MustCompile(`(?i)\b` + CityPattern + `\s+for\s+(?:the\s+|a\s+long\s+|a\s+(?:full\s+)?)?(?:` +
		NumberPattern + `[ \t-]*)?` + durationUnit + `\b`)

	// "10 days lisbon", "4 granada"
	countCityRe = regexp.MustCompile(`(?i)\b` + strictNumberPattern + `[ \t-]*(?:(days?|nights?)[ \t]+)?` + CityPattern)

	// "in Lisbon and Granada", "visiting Rome, Florence & Venice"
	listRe = regexp.MustCompile(`\b(?i:in|to|visit|visiting|explore|exploring|see|seeing|between|across|through)\s+([^.;:!?\d\n]+)`)

	listSepRe = regexp.MustCompile(`(?i)\s*(?:,|&|/|\band\b|\bthen\b|\bplus\b)\s*`)

	// any stated duration: "2 weeks", "10-day", "weekend"
	durationRe = regexp.MustCompile(`(?i)\b(?:` + NumberPattern + `[ \t-]*)?` + durationUnit + `\b`)

	continuesListRe = regexp.MustCompile(`(?i)^\s*(?:,|&|\band\b)\s*(\p{L}[\p{L}'’\-]*)`)
	endsListRe      = regexp.MustCompile(`(?i)(\p{L}[\p{L}'’\-]*)\s*(?:,|&|\band)\s*$`)
)

type mention struct {
	name     string
	days     int
	explicit bool
}

type candidate struct {
	pos, days int
}

// extraction accumulates facts while the pattern families run.
type extraction struct {
	text     string
	lower    string
	explicit []mention
	listed   []string
	spans    [][2]int
	overall  []candidate
}

// Extract turns free text into a ParsedTrip. It never fails; text with no
// recognisable facts yields an empty trip.
func Extract(text string) types.ParsedTrip {
	origin, blanked := extractOrigin(text)
	e := &extraction{text: blanked, lower: strings.ToLower(blanked)}

	e.matchDaysInCity()
	e.matchCityForDays()
	overrides := e.matchCountCity()
	e.matchLists(!hasUpper(blanked))
	e.applyOverrides(overrides)
	e.matchOverallDurations()

	trip := e.build()
	trip.Origin = origin
	return trip
}

// Origin returns the city named in a "from <city>" phrase, or "".
func Origin(text string) string {
	origin, _ := extractOrigin(text)
	return origin
}

func extractOrigin(text string) (string, string) {
	for _, m := range originRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[2]:m[3]]
		s := head(raw, true)
		if !s.ok() {
			continue
		}
		end := m[2] + s.end
		blanked := text[:m[0]] + strings.Repeat(" ", end-m[0]) + text[end:]
		return display(s.name), blanked
	}
	return "", text
}

func (e *extraction) matchDaysInCity() {
	for _, m := range daysInCityRe.FindAllStringSubmatchIndex(e.text, -1) {
		s := head(e.text[m[6]:m[7]], false)
		if !s.ok() {
			continue
		}
		days, ok := unitDays(group(e.text, m, 1), group(e.text, m, 2), previousWord(e.text, m[0]))
		if !ok || days <= 0 {
			continue
		}
		cityEnd := m[6] + s.end
		if continuesListRe.MatchString(e.text[cityEnd:]) && !isStopword(continuesListRe.FindStringSubmatch(e.text[cityEnd:])[1]) {
			// "5 days in Paris and Rome" states the whole trip, not Paris alone.
			e.overall = append(e.overall, candidate{pos: m[0], days: days})
			continue
		}
		e.addExplicit(s.name, days, m[0], cityEnd)
	}
}

func (e *extraction) matchCityForDays() {
	for _, m := range cityForDaysRe.FindAllStringSubmatchIndex(e.text, -1) {
		s := tail(e.text[m[2]:m[3]])
		if !s.ok() {
			continue
		}
		days, ok := unitDays(group(e.text, m, 2), group(e.text, m, 3), previousWord(e.text, m[6]))
		if !ok || days <= 0 {
			continue
		}
		cityStart := m[2] + s.start
		if prev := endsListRe.FindStringSubmatch(e.text[:cityStart]); prev != nil && !isStopword(prev[1]) {
			// "Rome and Paris for 10 days"
			e.overall = append(e.overall, candidate{pos: cityStart, days: days})
			continue
		}
		e.addExplicit(s.name, days, cityStart, m[1])
	}
}

type override struct {
	name       string
	days       int
	start, end int
}

// matchCountCity handles "10 days lisbon" directly and keeps bare "4 granada"
// as an override that only applies to cities named elsewhere.
func (e *extraction) matchCountCity() []override {
	var out []override
	for _, m := range countCityRe.FindAllStringSubmatchIndex(e.text, -1) {
		s := head(e.text[m[6]:m[7]], true)
		if !s.ok() {
			continue
		}
		n, ok := ParseNumber(group(e.text, m, 1))
		if !ok || n <= 0 {
			continue
		}
		end := m[6] + s.end
		if group(e.text, m, 2) != "" {
			e.addExplicit(s.name, n, m[0], end)
			continue
		}
		out = append(out, override{name: s.name, days: n, start: m[0], end: end})
	}
	return out
}

func (e *extraction) matchLists(allLower bool) {
	for _, m := range listRe.FindAllStringSubmatchIndex(e.text, -1) {
		for _, part := range listSepRe.Split(e.text[m[2]:m[3]], -1) {
			for _, r := range runs(part) {
				if allLower || capitalized(r.name) {
					e.listed = append(e.listed, r.name)
					break
				}
			}
		}
	}
}

func (e *extraction) applyOverrides(overrides []override) {
	for _, o := range overrides {
		if !e.known(o.name) {
			continue
		}
		e.addExplicit(o.name, o.days, o.start, o.end)
	}
}

func (e *extraction) matchOverallDurations() {
	for _, m := range durationRe.FindAllStringSubmatchIndex(e.text, -1) {
		if e.covered(m[0], m[1]) {
			continue
		}
		days, ok := unitDays(group(e.text, m, 1), group(e.text, m, 2), previousWord(e.text, m[0]))
		if !ok || days <= 0 {
			continue
		}
		e.overall = append(e.overall, candidate{pos: m[0], days: days})
	}
}

func (e *extraction) addExplicit(name string, days, start, end int) {
	e.spans = append(e.spans, [2]int{start, end})
	for i := range e.explicit {
		if sameCity(e.explicit[i].name, name) {
			e.explicit[i].days = days
			return
		}
	}
	e.explicit = append(e.explicit, mention{name: name, days: days, explicit: true})
}

func (e *extraction) known(name string) bool {
	for _, m := range e.explicit {
		if sameCity(m.name, name) {
			return true
		}
	}
	for _, l := range e.listed {
		if sameCity(l, name) {
			return true
		}
	}
	return false
}

func (e *extraction) covered(start, end int) bool {
	for _, s := range e.spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}

func (e *extraction) build() types.ParsedTrip {
	all := append([]mention(nil), e.explicit...)
	for _, name := range e.listed {
		dup := false
		for _, m := range all {
			if sameCity(m.name, name) {
				dup = true
				break
			}
		}
		if !dup {
			all = append(all, mention{name: name})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return e.position(all[i].name) < e.position(all[j].name)
	})

	overall := 0
	if len(e.overall) > 0 {
		first := e.overall[0]
		for _, c := range e.overall[1:] {
			if c.pos < first.pos {
				first = c
			}
		}
		overall = first.days
	}

	if len(all) == 0 {
		return types.ParsedTrip{Destinations: []types.ParsedDestination{}, UnassignedDays: overall}
	}

	distribute(all, overall)

	dests := make([]types.ParsedDestination, len(all))
	for i, m := range all {
		dests[i] = types.ParsedDestination{Name: display(m.name), Duration: m.days}
	}
	return types.NewParsedTrip(dests, "")
}

// distribute spreads what is left of the overall duration across cities with
// no explicit count. Explicit counts always win.
func distribute(all []mention, overall int) {
	var open []int
	assigned := 0
	for i, m := range all {
		if m.explicit {
			assigned += m.days
			continue
		}
		open = append(open, i)
	}
	remaining := overall - assigned
	if len(open) == 0 || remaining <= 0 {
		return
	}
	share, extra := remaining/len(open), remaining%len(open)
	for k, i := range open {
		all[i].days = share
		if k < extra {
			all[i].days++
		}
	}
}

func (e *extraction) position(name string) int {
	if i := strings.Index(e.lower, strings.ToLower(name)); i >= 0 {
		return i
	}
	return len(e.lower)
}

// sameCity treats "New York" and "New York City" as one place but keeps
// "Nice" and "Venice" apart: the shorter name must match whole words.
func sameCity(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if len(a) < len(b) {
		a, b = b, a
	}
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+" ") || strings.HasSuffix(a, " "+b) || strings.Contains(a, " "+b+" ")
}

func group(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}
