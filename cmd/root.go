package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/api-health-checker/config"
	"github.com/angeloszaimis/api-health-checker/internal/healthcheck"
	"github.com/angeloszaimis/api-health-checker/internal/settings"
	"github.com/angeloszaimis/api-health-checker/pkg/logger"
)

// errUnhealthy signals a completed run with at least one unhealthy
// endpoint. It maps to exit code 1 without further logging.
var errUnhealthy = errors.New("unhealthy endpoints")

// app carries what every command needs once configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg    *config.Config
	log    *slog.Logger
	doc    *settings.Document
	client healthcheck.Doer
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New(), client: &http.Client{}}

	root := &cobra.Command{
		Use:               "apihealth",
		Short:             "Check the health of the API endpoints configured for an environment",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "app config file (default is config.yaml in ./config or .)")
	root.PersistentFlags().String("settings", "", "endpoint settings document, JSON or YAML (default appsettings.json)")
	root.PersistentFlags().String("env", "", "environment to check (default from the settings document)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default info)")
	mustBindFlags(root.PersistentFlags(), a.v, map[string]string{
		"settings":  "settings.path",
		"env":       "settings.environment",
		"log-level": "logging.level",
	})

	root.AddCommand(
		newCheckCommand(a),
		newEnvsCommand(a),
		newWatchCommand(a),
		newServeCommand(a),
	)

	return root
}

// setup loads the app config and the settings document.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.log = logger.New(cmd.ErrOrStderr(), cfg.Logging.Level, false, cfg.Server.Environment)

	doc, err := settings.Load(cfg.Settings.Path)
	if err != nil {
		return fmt.Errorf("load settings %s: %w", cfg.Settings.Path, err)
	}
	a.doc = doc

	a.log.Debug("Configuration loaded",
		slog.String("settings", cfg.Settings.Path),
		slog.String("environment", cfg.Settings.Environment),
		slog.String("probe_timeout", cfg.Probe.Timeout))

	return nil
}

func (a *app) newEngine(observer func(healthcheck.Event)) *healthcheck.Engine {
	return healthcheck.NewEngine(a.client,
		healthcheck.WithMethod(a.cfg.Probe.Method),
		healthcheck.WithTimeout(a.cfg.ProbeTimeout()),
		healthcheck.WithMaxConcurrency(a.cfg.Probe.MaxConcurrency),
		healthcheck.WithLogger(a.log),
		healthcheck.WithObserver(observer),
	)
}

// mustBindFlags binds each named flag to its config key so flags override
// config files and environment variables.
func mustBindFlags(flags *pflag.FlagSet, v *viper.Viper, keys map[string]string) {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag --%s: %v", name, err))
		}
	}
}
