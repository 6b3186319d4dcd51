package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"voyage/internal/modules/intent"
	"voyage/internal/modules/modification"
	"voyage/internal/service"
	"voyage/internal/types"
)

type renderer struct {
	w io.Writer
}

func newRenderer(w io.Writer) *renderer {
	if noColor {
		color.NoColor = true
	}
	return &renderer{w: w}
}

func (r *renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *renderer) prompt() {
	fmt.Fprint(r.w, color.CyanString("you> "))
}

func (r *renderer) failure(err error) {
	fmt.Fprintln(r.w, color.RedString("error: %v", err))
}

func (r *renderer) trip(t types.ParsedTrip) {
	if len(t.Destinations) == 0 {
		fmt.Fprintln(r.w, color.YellowString("No destinations found"))
	}
	for _, d := range t.Destinations {
		days := color.GreenString("%d days", d.Duration)
		if d.Duration == 0 {
			days = color.YellowString("days unknown")
		}
		fmt.Fprintf(r.w, "%d. %s (%s)\n", d.Order, d.Name, days)
	}
	if t.TotalDays > 0 {
		fmt.Fprintf(r.w, "Total: %d days\n", t.TotalDays)
	}
	if t.UnassignedDays > 0 {
		fmt.Fprintf(r.w, "Unassigned: %d days\n", t.UnassignedDays)
	}
	if t.Origin != "" {
		fmt.Fprintf(r.w, "From: %s\n", t.Origin)
	}
}

func (r *renderer) intent(res intent.Result) {
	fmt.Fprintf(r.w, "Intent: %s (%.2f via %s)\n", color.MagentaString(string(res.Type)), res.Confidence, res.Strategy)
	if res.Question != "" {
		fmt.Fprintf(r.w, "Question: %s\n", res.Question)
	}
}

func (r *renderer) response(resp *service.Response) {
	switch resp.ResponseType {
	case service.ResponseError:
		fmt.Fprintln(r.w, color.RedString(resp.Message))
	case service.ResponseClarification, service.ResponseConfirmation:
		if resp.Message != "" {
			fmt.Fprintln(r.w, resp.Message)
		}
		fmt.Fprintln(r.w, color.YellowString(resp.Question))
	default:
		if resp.Message != "" {
			fmt.Fprintln(r.w, resp.Message)
		}
	}
	if resp.ResponseType == service.ResponseItinerary && resp.Itinerary != nil {
		r.itinerary(*resp.Itinerary)
	}
}

func (r *renderer) itinerary(it types.Itinerary) {
	fmt.Fprintln(r.w, color.CyanString(it.Title))
	fmt.Fprintln(r.w, strings.Repeat("─", 60))
	for _, d := range it.Days {
		fmt.Fprintf(r.w, "%s %s  %s\n", color.GreenString("Day %d", d.Day), d.Date, d.Title)
		for _, a := range d.Activities {
			line := fmt.Sprintf("  %s  %-13s %s", a.Time, "["+string(a.Category)+"]", a.Description)
			if a.Address != "" {
				line += " (" + a.Address + ")"
			}
			fmt.Fprintln(r.w, line)
		}
	}
	for _, tip := range it.QuickTips {
		fmt.Fprintf(r.w, "• %s\n", tip)
	}
}

func (r *renderer) modification(res modification.Result) {
	if !res.Success {
		fmt.Fprintln(r.w, color.RedString("✗ %s", res.Reason))
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", color.GreenString("✓"), res.Changes.Summary)
	for _, d := range res.Changes.Diff {
		fmt.Fprintf(r.w, "  %-8s %s\n", d.Type, d.Description)
	}
	if res.RequiresConfirmation {
		fmt.Fprintln(r.w, color.YellowString(res.ConfirmationPrompt))
	}
	if res.Itinerary != nil {
		r.itinerary(*res.Itinerary)
	}
}
