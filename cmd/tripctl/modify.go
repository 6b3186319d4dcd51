package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voyage/internal/app"
	"voyage/internal/config"
	"voyage/internal/observability"
	"voyage/internal/types"
)

func modifyCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "modify <itinerary.json> <request>",
		Short: "Apply a plain-language change to a saved itinerary",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var it types.Itinerary
			if err := json.Unmarshal(b, &it); err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(observability.LogConfig{Level: "warn", Format: "text", Output: cmd.ErrOrStderr()})
			a, err := app.Build(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Planner.ApplyModification(cmd.Context(), strings.Join(args[1:], " "), it)
			if err != nil {
				return err
			}

			out := newRenderer(cmd.OutOrStdout())
			if jsonOut {
				if err := out.json(res); err != nil {
					return err
				}
			} else {
				out.modification(res)
			}

			if write && res.Success && res.Itinerary != nil && !res.RequiresConfirmation {
				updated, err := json.MarshalIndent(res.Itinerary, "", "  ")
				if err != nil {
					return err
				}
				return os.WriteFile(path, append(updated, '\n'), 0o644)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the updated itinerary back to the file")
	return cmd
}
