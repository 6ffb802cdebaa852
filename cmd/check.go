package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/api-health-checker/internal/report"
	"github.com/angeloszaimis/api-health-checker/internal/resolver"
)

func newCheckCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe every endpoint of an environment once",
		Long: "Probe every endpoint of an environment once, printing each result as it\n" +
			"completes followed by a summary. Exits 1 if any endpoint is unhealthy.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}
			return a.check(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", report.FormatTable,
		"summary format: "+strings.Join(report.Formats, ", "))

	return cmd
}

func (a *app) check(cmd *cobra.Command, format string) error {
	session := resolver.New(a.doc, a.log)
	session.SetEnvironment(a.cfg.Settings.Environment)
	res := session.Resolve()

	// Machine-readable output keeps stdout clean of progress lines.
	var progress io.Writer = cmd.OutOrStdout()
	if format != report.FormatTable {
		progress = cmd.ErrOrStderr()
	}

	summary, err := report.Stream(progress, a.newEngine(nil).RunAll(cmd.Context(), res.Endpoints))
	if err != nil {
		return err
	}

	if format == report.FormatTable {
		_, _ = io.WriteString(cmd.OutOrStdout(), "\n")
	}
	if err := report.Write(cmd.OutOrStdout(), format, res.Environment, summary); err != nil {
		return err
	}

	a.log.Info("Health check completed",
		slog.String("environment", res.Environment),
		slog.Int("total", summary.Total),
		slog.Int("unhealthy", summary.Unhealthy))

	if !summary.AllHealthy() {
		return errUnhealthy
	}
	return nil
}
