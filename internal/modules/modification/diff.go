// README: DIFF step; structured before/after comparison and the human summary.
package modification

import (
	"fmt"
	"strings"

	"voyage/internal/types"
)

// Compute lists removed destinations first (in their old order), then added and
// modified ones in the new order, then the total length change.
func Compute(before, after types.ParsedTrip) []Diff {
	out := []Diff{}

	for _, d := range before.Destinations {
		if _, found := exactFind(after, d.Name); !found {
			out = append(out, Diff{
				Type:        DiffRemoved,
				Field:       FieldDestination,
				Before:      d.Name,
				Description: "Removed " + d.Name,
			})
		}
	}

	reordered := orderChanged(before, after)
	for _, d := range after.Destinations {
		i, found := exactFind(before, d.Name)
		if !found {
			out = append(out, Diff{
				Type:        DiffAdded,
				Field:       FieldDestination,
				After:       d.Name,
				Description: fmt.Sprintf("Added %s (%s)", d.Name, dayCount(d.Duration)),
			})
			continue
		}
		old := before.Destinations[i]
		if old.Duration != d.Duration {
			out = append(out, Diff{
				Type:        DiffModified,
				Field:       FieldDuration,
				Before:      old.Duration,
				After:       d.Duration,
				Description: fmt.Sprintf("Changed %s from %d to %d days", d.Name, old.Duration, d.Duration),
			})
		}
		if reordered && old.Order != d.Order {
			out = append(out, Diff{
				Type:        DiffModified,
				Field:       FieldOrder,
				Before:      old.Order,
				After:       d.Order,
				Description: fmt.Sprintf("Moved %s from stop %d to stop %d", d.Name, old.Order, d.Order),
			})
		}
	}

	if before.TotalDays != after.TotalDays {
		out = append(out, Diff{
			Type:        DiffModified,
			Field:       FieldTotalDays,
			Before:      before.TotalDays,
			After:       after.TotalDays,
			Description: fmt.Sprintf("Total trip length changed from %d to %d days", before.TotalDays, after.TotalDays),
		})
	}
	return out
}

// Summarize joins the diff descriptions into one sentence.
func Summarize(diff []Diff) string {
	if len(diff) == 0 {
		return noChangesSummary
	}
	parts := make([]string, len(diff))
	for i, d := range diff {
		parts[i] = d.Description
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func affected(diff []Diff) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, d := range diff {
		var name string
		switch {
		case d.Field == FieldDestination && d.Type == DiffRemoved:
			name, _ = d.Before.(string)
		case d.Field == FieldDestination:
			name, _ = d.After.(string)
		case d.Field == FieldDuration, d.Field == FieldOrder:
			name = subject(d.Description)
		}
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// subject pulls the city out of "Changed X from ..." and "Moved X from ...".
func subject(desc string) string {
	_, rest, ok := strings.Cut(desc, " ")
	if !ok {
		return ""
	}
	name, _, ok := strings.Cut(rest, " from ")
	if !ok {
		return ""
	}
	return name
}

// orderChanged reports whether destinations present in both trips appear in a
// different relative order. Inserting or removing a stop alone is not a reorder.
func orderChanged(before, after types.ParsedTrip) bool {
	var a, b []string
	for _, d := range before.Destinations {
		if _, ok := exactFind(after, d.Name); ok {
			a = append(a, strings.ToLower(d.Name))
		}
	}
	for _, d := range after.Destinations {
		if _, ok := exactFind(before, d.Name); ok {
			b = append(b, strings.ToLower(d.Name))
		}
	}
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

func exactFind(trip types.ParsedTrip, name string) (int, bool) {
	for i, d := range trip.Destinations {
		if strings.EqualFold(d.Name, name) {
			return i, true
		}
	}
	return -1, false
}
