package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"voyage/internal/modules/extraction"
	"voyage/internal/modules/intent"
	"voyage/internal/observability"
)

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Show what the extraction grammar and classifier make of a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			trip := extraction.Extract(text)
			res := intent.NewClassifier(nil, intent.DefaultThreshold, observability.Discard()).
				Classify(context.Background(), text, intent.SessionContext{})

			out := newRenderer(cmd.OutOrStdout())
			if jsonOut {
				return out.json(map[string]any{"trip": trip, "intent": res})
			}
			out.trip(trip)
			out.intent(res)
			return nil
		},
	}
}
