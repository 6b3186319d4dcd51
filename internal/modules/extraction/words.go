// README: Word-level helpers for city names and number words.
package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NumberPattern matches a day count written as digits or a number word.
const NumberPattern = `(\d{1,3}|an?|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty|thirty)`

// strictNumberPattern excludes the articles so "a friend" is never a count.
const strictNumberPattern = `(\d{1,3}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty|thirty)`

// CityPattern captures up to three letter-only words; callers trim it with
// the stopword list.
const CityPattern = `(\p{L}[\p{L}'’\-]*(?:[ \t]+\p{L}[\p{L}'’\-]*){0,2})`

const maxCityWords = 3

var (
	wordRe = regexp.MustCompile(`\p{L}[\p{L}'’\-]*`)
	titler = cases.Title(language.English)
)

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20, "thirty": 30,
}

var stopwords = toSet(`a an the and or to in at on for from of with by via then plus into onto
around across through between over near after before
visit visiting visited explore exploring see seeing go going head heading fly flying travel
traveling travelling trip trips vacation holiday holidays getaway tour journey itinerary
day days night nights week weeks weekend fortnight month months year
i i'm im we we're me my our us you your he she they them it its is be am are was were
want wanna would like love plan planning spend spending stay staying also each both some few
couple next this last first second please city cities country place places about maybe really
just can could should will how what where when which long short total overall straight
there here home work office somewhere anywhere abroad away off
beach beaches food museums museum art relaxing relaxed relax budget cheap luxury great
add adding remove removing drop skip delete cut change make set replace swap instead more
less extend shorten include exclude keep let let's lets do get take put move push shift
start starting begin beginning leave leaving return returning back later earlier
january february march april may june july august september october november december
monday tuesday wednesday thursday friday saturday sunday today tomorrow tonight
one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen
sixteen seventeen eighteen nineteen twenty thirty`)

func toSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

// placeWords are everyday words that are also city names. They count as
// stopwords only when written in lowercase inside text that uses capitals.
var placeWords = toSet(`nice`)

func isStopword(w string) bool {
	_, ok := stopwords[strings.ToLower(w)]
	return ok
}

func isFiller(w string, cased bool) bool {
	if _, ok := placeWords[strings.ToLower(w)]; ok {
		return cased && w == strings.ToLower(w)
	}
	return isStopword(w)
}

type word struct {
	text       string
	start, end int
}

func splitWords(s string) []word {
	idx := wordRe.FindAllStringIndex(s, -1)
	out := make([]word, len(idx))
	for i, p := range idx {
		out[i] = word{text: s[p[0]:p[1]], start: p[0], end: p[1]}
	}
	return out
}

func onlySpace(s string) bool {
	return strings.TrimSpace(s) == ""
}

// span is a run of city words inside some larger string.
type span struct {
	name       string
	start, end int
}

func (s span) ok() bool { return s.name != "" }

// runs returns every maximal run of non-stopwords, each capped at three words.
func runs(raw string) []span {
	ws := splitWords(raw)
	cased := hasUpper(raw)
	var out []span
	for i := 0; i < len(ws); {
		if isFiller(ws[i].text, cased) {
			i++
			continue
		}
		j := i + 1
		for j < len(ws) && j-i < maxCityWords && !isFiller(ws[j].text, cased) && onlySpace(raw[ws[j-1].end:ws[j].start]) {
			j++
		}
		out = append(out, span{name: joinWords(ws[i:j]), start: ws[i].start, end: ws[j-1].end})
		i = j
	}
	return out
}

// head returns the first city run. With strict set the very first word must
// already be a city word.
func head(raw string, strict bool) span {
	ws := splitWords(raw)
	if len(ws) == 0 {
		return span{}
	}
	if strict && isFiller(ws[0].text, hasUpper(raw)) {
		return span{}
	}
	rs := runs(raw)
	if len(rs) == 0 {
		return span{}
	}
	if strict && rs[0].start != ws[0].start {
		return span{}
	}
	// A run must not be separated from the words before it by punctuation.
	if !strict && rs[0].start > 0 && strings.ContainsAny(raw[:rs[0].start], ",;:&") {
		return span{}
	}
	return rs[0]
}

// tail returns the trailing city run, i.e. the words right before a following keyword.
func tail(raw string) span {
	ws := splitWords(raw)
	cased := hasUpper(raw)
	if len(ws) == 0 || isFiller(ws[len(ws)-1].text, cased) {
		return span{}
	}
	if !onlySpace(raw[ws[len(ws)-1].end:]) {
		return span{}
	}
	i := len(ws) - 1
	for i > 0 && len(ws)-i < maxCityWords && !isFiller(ws[i-1].text, cased) && onlySpace(raw[ws[i-1].end:ws[i].start]) {
		i--
	}
	return span{name: joinWords(ws[i:]), start: ws[i].start, end: ws[len(ws)-1].end}
}

func joinWords(ws []word) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.text
	}
	return strings.Join(parts, " ")
}

// display title-cases names typed in lowercase and leaves other casing alone
// so "UK" and "New York" survive.
func display(name string) string {
	if name == strings.ToLower(name) {
		return titler.String(name)
	}
	return name
}

func capitalized(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// ParseNumber converts digits or a number word to an int.
func ParseNumber(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CityName trims a loosely captured phrase down to its city name, e.g.
// "visit new york please" becomes "New York". It returns "" when nothing
// in the phrase looks like a city.
func CityName(raw string) string {
	s := head(raw, false)
	if !s.ok() {
		return ""
	}
	return display(s.name)
}

// unitDays converts a count and unit keyword to days. A missing count means one
// unit, except for bare "days" which carries no length.
func unitDays(count, unit string, prevWord string) (int, bool) {
	n := 1
	if count != "" {
		v, ok := ParseNumber(count)
		if !ok {
			return 0, false
		}
		n = v
	}
	unit = strings.ToLower(unit)
	switch {
	case strings.HasPrefix(unit, "day"), strings.HasPrefix(unit, "night"):
		if count == "" {
			return 0, false
		}
		return n, true
	case unit == "weekend":
		if strings.EqualFold(prevWord, "long") {
			return 3, true
		}
		return 2, true
	case unit == "fortnight":
		return n * 14, true
	case strings.HasPrefix(unit, "week"):
		if count == "" {
			switch strings.ToLower(prevWord) {
			case "next", "last", "per", "every":
				return 0, false
			}
		}
		return n * 7, true
	}
	return 0, false
}

// previousWord returns the word ending right before offset in s.
func previousWord(s string, offset int) string {
	ws := splitWords(s[:offset])
	if len(ws) == 0 {
		return ""
	}
	return ws[len(ws)-1].text
}
