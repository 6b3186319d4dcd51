package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voyage/internal/app"
	"voyage/internal/config"
	"voyage/internal/observability"
)

func chatCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Hold a planning conversation on stdin",
		Long: `Reads one message per line and prints the planner's reply.
The session backend and text-generation provider come from the usual
configuration (.env, VOYAGE_CONFIG, environment). Type "quit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := observability.NewLogger(observability.LogConfig{Level: "warn", Format: "text", Output: cmd.ErrOrStderr()})
			a, err := app.Build(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			out := newRenderer(cmd.OutOrStdout())
			scanner := bufio.NewScanner(cmd.InOrStdin())
			out.prompt()
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					out.prompt()
					continue
				case "quit", "exit":
					return nil
				}
				resp, err := a.Planner.ClassifyAndRespond(ctx, line, sessionID)
				if err != nil {
					out.failure(err)
					out.prompt()
					continue
				}
				sessionID = resp.ConversationState.SessionID
				if jsonOut {
					if err := out.json(resp); err != nil {
						return err
					}
				} else {
					out.response(resp)
				}
				out.prompt()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Resume an existing session id")
	return cmd
}
