package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: "Log in to a running server and stream a coaching reply to stdout",
		Args:  cobra.MinimumNArgs(1),
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
			err = client.streamChat(ctx, strings.Join(args, " "), func(fragment string) {
				fmt.Fprint(out, fragment)
			})
			fmt.Fprintln(out)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	addClientFlags(cmd)
	return cmd
}

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", "", "Server base URL (defaults to http://localhost:8080).")
	cmd.Flags().String("member", "", "Member id to log in as.")
	cmd.Flags().String("password", "", "Password; prefer DIET_CLIENT_PASSWORD.")
	_ = settings.BindPFlag("client.server", cmd.Flags().Lookup("server"))
	_ = settings.BindPFlag("client.member_id", cmd.Flags().Lookup("member"))
	_ = settings.BindPFlag("client.password", cmd.Flags().Lookup("password"))
}
