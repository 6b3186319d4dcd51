// README: DETECT step; maps modification phrasing onto a typed Request.
package modification

import (
	"regexp"
	"strings"

	"voyage/internal/modules/extraction"
)

const (
	city     = extraction.CityPattern
	num      = extraction.NumberPattern
	dayUnit  = `[ \t-]*(?:days?|nights?)`
	monthPat = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`
)

var (
	replaceRe        = regexp.MustCompile(`(?i)\b(?:replace|swap)\s+` + city + `\s+(?:with|for)\s+` + city)
	replaceInsteadRe = regexp.MustCompile(`(?i)\b(?:go\s+to|visit|do|see)\s+` + city + `\s+instead\s+of\s+` + city)
	replaceChangeRe  = regexp.MustCompile(`(?i)\bchange\s+` + city + `\s+to\s+` + city)

	addDaysRe    = regexp.MustCompile(`(?i)\b(?:add|give)\s+` + num + `(?:\s+more)?` + dayUnit + `\s+(?:more\s+)?(?:to|in|for)\s+` + city)
	removeDaysRe = regexp.MustCompile(`(?i)\b(?:remove|take|cut|drop|subtract)\s+` + num + dayUnit + `\s+(?:from|off|in)\s+` + city)
	changeRe     = regexp.MustCompile(`(?i)\b(change|make|set|extend|shorten|adjust|update|increase|reduce|cut|lengthen)\s+(?:the\s+)?(?:(?:stay|time|days?|visit)\s+(?:in|at)\s+)?` +
		city + `\s+(to|for|by)\s+` + num + dayUnit)
	spendRe     = regexp.MustCompile(`(?i)\b(?:spend|stay)\s+(?:only\s+|just\s+)?` + num + dayUnit + `\s+in\s+` + city)
	changeVague = regexp.MustCompile(`(?i)\b(?:stay\s+longer|more\s+time|less\s+time|fewer\s+days|more\s+days|shorter\s+stay|longer\s+stay)\s+(?:in|at)\s+` + city)

	removeRe = regexp.MustCompile(`(?i)\b(?:remove|drop|skip|delete|cut\s+out|take\s+out|exclude|get\s+rid\s+of|no\s+longer\s+(?:visit|go\s+to))\s+` + city)
	addRe    = regexp.MustCompile(`(?i)\b(?:add|include|also\s+visit|throw\s+in|squeeze\s+in)\s+` + city)

	addDaysValueRe = regexp.MustCompile(`(?i)\b` + num + dayUnit)
	placementRe    = regexp.MustCompile(`(?i)\b(after|before)\s+` + city)

	prefMakeRe   = regexp.MustCompile(`(?i)\bmake\s+(?:it|the\s+trip|the\s+itinerary|things|everything|the\s+plan)\s+(more|less)\s+(\p{L}+(?:-\p{L}+)?)`)
	prefPreferRe = regexp.MustCompile(`(?i)\b(?:i(?:'d)?\s+(?:prefer|like|want)|let'?s\s+have)\s+(?:a\s+)?(more|less)\s+(\p{L}+(?:-\p{L}+)?)\s+(?:trip|pace|itinerary|vibe|plan)`)
	prefBareRe   = regexp.MustCompile(`(?i)\b(more|less)\s+(relaxed|relaxing|adventurous|active|cultural|romantic|luxurious|budget-friendly|family-friendly|outdoorsy|laid-back|packed|touristy|chill)\b`)

	datesAbsRe = regexp.MustCompile(`(?i)\b(?:start|begin|leave|depart)(?:ing)?\s+(?:the\s+trip\s+)?(?:on\s+)?(\d{4}-\d{2}-\d{2}|` +
		monthPat + `\s+\d{1,2}(?:st|nd|rd|th)?|\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPat + `)`)
	datesRelRe = regexp.MustCompile(`(?i)\b(push|move|shift|delay|postpone|bring)\s+(?:the\s+)?(?:trip|dates|itinerary|everything|it|whole\s+thing)\s+` +
		`(back|forward|later|earlier|ahead)?\s*(?:by\s+)?` + num + `[ \t-]*(days?|weeks?)\s*(later|earlier|back|forward)?`)

	verbCueRe = regexp.MustCompile(`(?i)\b(?:add|remove|change)\b`)
)

// Detect classifies text as a modification. ok is false when no modification
// family matches.
func Detect(text string) (Request, bool) {
	req, ok := detect(text)
	if !ok {
		return Request{}, false
	}
	req.Context = text
	req.verbCue = verbCueRe.MatchString(text)
	return req, true
}

func detect(text string) (Request, bool) {
	if m := replaceRe.FindStringSubmatch(text); m != nil {
		return replaceRequest(m[1], m[2])
	}
	if m := replaceInsteadRe.FindStringSubmatch(text); m != nil {
		return replaceRequest(m[2], m[1])
	}
	if m := replaceChangeRe.FindStringSubmatch(text); m != nil {
		if r, ok := replaceRequest(m[1], m[2]); ok && r.Value != "" {
			return r, true
		}
	}

	if m := addDaysRe.FindStringSubmatch(text); m != nil {
		if n, ok := extraction.ParseNumber(m[1]); ok {
			return Request{Type: TypeChangeDuration, Target: extraction.CityName(m[2]), Days: n, Relative: true}, true
		}
	}
	if m := removeDaysRe.FindStringSubmatch(text); m != nil {
		if n, ok := extraction.ParseNumber(m[1]); ok {
			return Request{Type: TypeChangeDuration, Target: extraction.CityName(m[2]), Days: -n, Relative: true}, true
		}
	}
	if m := changeRe.FindStringSubmatch(text); m != nil {
		if n, ok := extraction.ParseNumber(m[4]); ok {
			req := Request{Type: TypeChangeDuration, Target: extraction.CityName(m[2]), Days: n}
			if strings.EqualFold(m[3], "by") {
				req.Relative = true
				switch strings.ToLower(m[1]) {
				case "shorten", "reduce", "cut":
					req.Days = -n
				}
			}
			return req, true
		}
	}
	if m := spendRe.FindStringSubmatch(text); m != nil {
		if n, ok := extraction.ParseNumber(m[1]); ok {
			return Request{Type: TypeChangeDuration, Target: extraction.CityName(m[2]), Days: n}, true
		}
	}
	if m := changeVague.FindStringSubmatch(text); m != nil {
		return Request{Type: TypeChangeDuration, Target: extraction.CityName(m[1]), vague: true}, true
	}

	if m := removeRe.FindStringSubmatch(text); m != nil {
		return Request{Type: TypeRemoveDestination, Target: extraction.CityName(m[1])}, true
	}
	if m := addRe.FindStringSubmatch(text); m != nil {
		return addRequest(text, m[1]), true
	}

	for _, re := range []*regexp.Regexp{prefMakeRe, prefPreferRe, prefBareRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return Request{
				Type:   TypeUpdatePreferences,
				Target: preferenceKey,
				Value:  strings.ToLower(m[1] + " " + m[2]),
			}, true
		}
	}

	if m := datesAbsRe.FindStringSubmatch(text); m != nil {
		return Request{Type: TypeAdjustDates, Value: strings.TrimSpace(m[1])}, true
	}
	if m := datesRelRe.FindStringSubmatch(text); m != nil {
		return datesShiftRequest(m), true
	}
	return Request{}, false
}

const preferenceKey = "style"

func replaceRequest(oldRaw, newRaw string) (Request, bool) {
	return Request{
		Type:   TypeReplaceDestination,
		Target: extraction.CityName(oldRaw),
		Value:  extraction.CityName(newRaw),
	}, true
}

func addRequest(text, raw string) Request {
	req := Request{Type: TypeAddDestination, Target: extraction.CityName(raw)}
	if m := addDaysValueRe.FindStringSubmatch(text); m != nil {
		if n, ok := extraction.ParseNumber(m[1]); ok {
			req.Days = n
		}
	}
	if m := placementRe.FindStringSubmatch(text); m != nil {
		if anchor := extraction.CityName(m[2]); anchor != "" {
			req.Placement = strings.ToLower(m[1])
			req.Anchor = anchor
		}
	}
	return req
}

func datesShiftRequest(m []string) Request {
	n, ok := extraction.ParseNumber(m[3])
	if !ok {
		return Request{Type: TypeAdjustDates}
	}
	if strings.HasPrefix(strings.ToLower(m[4]), "week") {
		n *= 7
	}
	direction := strings.ToLower(m[2] + m[5])
	sign := 1
	switch {
	case strings.Contains(direction, "earlier"), strings.Contains(direction, "forward"), strings.Contains(direction, "ahead"):
		sign = -1
	case direction == "" && strings.EqualFold(m[1], "bring"):
		sign = -1
	}
	return Request{Type: TypeAdjustDates, Days: sign * n, Relative: true}
}
