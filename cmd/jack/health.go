package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comigor/jack-go/internal/health"
)

var flagWatch bool

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "keep polling and print every status change")
}

var errOffline = errors.New("backend is offline")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if !flagWatch {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Health.Timeout)
			defer cancel()
			if !client.CheckHealth(ctx) {
				fmt.Fprintf(out, "Backend: Offline (%s)\n", client.BaseURL())
				return errOffline
			}
			fmt.Fprintf(out, "Backend: Online (%s)\n", client.BaseURL())
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		monitor := health.NewMonitor(client, cfg.Health)
		unsubscribe := monitor.Subscribe(func(s health.Status) {
			fmt.Fprintf(out, "%s  Backend: %s\n", time.Now().Format(time.TimeOnly), s)
		})
		defer unsubscribe()

		fmt.Fprintf(out, "Watching %s every %s (ctrl+c to stop)\n", client.BaseURL(), cfg.Health.Interval)
		if err := monitor.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
