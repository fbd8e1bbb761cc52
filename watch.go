package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/satriahrh/diet-coach/domain"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the member's food record events as they happen",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(settings)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := newAPIClient(cfg.Client.Server)
			if err := client.login(ctx, cfg.Client.MemberID, cfg.Client.Password); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Watching food records (Ctrl+C to quit)...")
			return client.watch(ctx, func(message []byte) {
				fmt.Fprintln(out, formatEvent(message))
			})
		},
	}
	addClientFlags(cmd)
	return cmd
}

func formatEvent(message []byte) string {
	var evt domain.FoodRecordEvent
	if err := json.Unmarshal(message, &evt); err != nil || evt.Type == "" {
		return fmt.Sprintf("Received: %s", message)
	}
	ts := evt.Timestamp.Local().Format(time.TimeOnly)
	switch evt.Type {
	case domain.FoodRecordAdded:
		return fmt.Sprintf("[%s] + #%d %s (food %d)", ts, evt.RecordID, evt.FoodName, evt.FoodID)
	case domain.FoodRecordDeleted:
		return fmt.Sprintf("[%s] - #%d removed", ts, evt.RecordID)
	default:
		return fmt.Sprintf("[%s] %s #%d", ts, evt.Type, evt.RecordID)
	}
}
