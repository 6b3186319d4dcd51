// README: Canonical text rendering of a parsed trip.
package extraction

import (
	"fmt"
	"strings"

	"voyage/internal/types"
)

// Render writes a trip back as canonical text ("3 days in Paris, 2 days in Rome
// from London"). Extract(Render(t)) yields the same destinations and durations.
func Render(t types.ParsedTrip) string {
	parts := make([]string, 0, len(t.Destinations))
	for _, d := range t.Destinations {
		parts = append(parts, fmt.Sprintf("%s in %s", pluralDays(d.Duration), d.Name))
	}
	if len(parts) == 0 && t.UnassignedDays > 0 {
		parts = append(parts, pluralDays(t.UnassignedDays))
	}
	out := strings.Join(parts, ", ")
	if t.Origin != "" {
		out += " from " + t.Origin
	}
	return strings.TrimSpace(out)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
