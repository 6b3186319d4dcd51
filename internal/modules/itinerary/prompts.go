// README: Prompt text for chunk and tips generation.
package itinerary

import (
	"fmt"
	"sort"
	"strings"

	"voyage/internal/modules/extraction"
	"voyage/internal/types"
)

const chunkSystemPrompt = `You are a travel planner writing one part of a multi-city itinerary.
Return ONLY a JSON object:
{
  "days": [
    {
      "day": integer,
      "title": "short day title",
      "activities": [
        {"time": "HH:MM", "description": "what to do", "category": "Work|Leisure|Food|Travel|Accommodation", "address": "street address or empty"}
      ]
    }
  ]
}
Rules:
- Return exactly the number of days requested, in order.
- 3 to 6 activities per day, including meals.
- category must be one of Work, Leisure, Food, Travel, Accommodation.
- Do not plan travel between cities; it is added separately.`

const tipsSystemPrompt = `You give short practical travel tips.
Return ONLY a JSON object: {"tips": ["tip", ...]} with 3 to 5 tips of one sentence each.`

var fallbackTips = []string{
	"Book accommodation and intercity transport early for better prices.",
	"Keep digital and paper copies of your passport and bookings.",
	"Check opening days for museums and major sights before you go.",
	"Carry a little local currency for small shops and transit.",
}

func buildChunkPrompt(trip types.ParsedTrip, c chunk, startDate string, opts Options) string {
	var b strings.Builder
	if len(trip.Destinations) > 0 {
		fmt.Fprintf(&b, "Full trip: %s.\n", extraction.Render(trip))
	}
	if c.Days == 1 {
		fmt.Fprintf(&b, "Plan day %d (1 day) in %s, on %s.\n", c.StartDay, c.Destination, startDate)
	} else {
		fmt.Fprintf(&b, "Plan days %d-%d (%d days) in %s, starting %s.\n", c.StartDay, c.EndDay(), c.Days, c.Destination, startDate)
	}
	if c.Previous != "" {
		fmt.Fprintf(&b, "The traveller arrives from %s on the first of these days.\n", c.Previous)
	}
	writeTravellerNotes(&b, opts)
	return b.String()
}

// buildTipsPrompt takes the day count from the generated chunks; a trip made
// only of unassigned days has TotalDays 0.
func buildTipsPrompt(trip types.ParsedTrip, total int, names []string, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trip: %d days visiting %s", total, strings.Join(names, ", "))
	if trip.Origin != "" {
		fmt.Fprintf(&b, ", starting from %s", trip.Origin)
	}
	b.WriteString(".\n")
	writeTravellerNotes(&b, opts)
	return b.String()
}

func writeTravellerNotes(b *strings.Builder, opts Options) {
	if len(opts.Preferences) > 0 {
		keys := make([]string, 0, len(opts.Preferences))
		for k := range opts.Preferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Traveller preferences:")
		for _, k := range keys {
			fmt.Fprintf(b, " %s: %s;", k, opts.Preferences[k])
		}
		b.WriteString("\n")
	}
	if len(opts.Constraints) > 0 {
		fmt.Fprintf(b, "Constraints: %s.\n", strings.Join(opts.Constraints, "; "))
	}
}
