package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
	"github.com/angeloszaimis/api-health-checker/internal/healthcheck"
	"github.com/angeloszaimis/api-health-checker/internal/report"
	"github.com/angeloszaimis/api-health-checker/internal/resolver"
)

func newWatchCommand(a *app) *cobra.Command {
	var rounds int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Probe an environment repeatedly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd, rounds)
		},
	}

	cmd.Flags().String("interval", "", "time between rounds (default 30s)")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "stop after this many rounds (0 runs until interrupted)")
	mustBindFlags(cmd.Flags(), a.v, map[string]string{
		"interval": "watch.interval",
	})

	return cmd
}

func (a *app) watch(cmd *cobra.Command, rounds int) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	session := resolver.New(a.doc, a.log)
	session.SetEnvironment(a.cfg.Settings.Environment)

	var env string
	resolve := func() []endpoint.Endpoint {
		res := session.Resolve()
		env = res.Environment
		return res.Endpoints
	}

	out := cmd.OutOrStdout()
	var writeErr error
	a.newEngine(nil).Watch(ctx, a.cfg.WatchInterval(), resolve, func(round int, events <-chan healthcheck.Event) {
		fmt.Fprintf(out, "round %d\n", round)

		summary, err := report.Stream(out, events)
		if err == nil {
			err = report.Write(out, report.FormatTable, env, summary)
		}
		if err != nil {
			writeErr = err
			cancel()
			return
		}

		a.log.Info("Watch round completed",
			slog.Int("round", round),
			slog.String("environment", env),
			slog.Int("unhealthy", summary.Unhealthy))

		if rounds > 0 && round >= rounds {
			cancel()
		}
	})

	return writeErr
}
