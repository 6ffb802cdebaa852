package config

import (
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// EnvPrefix namespaces environment variable overrides, e.g.
// APIHEALTH_PROBE_TIMEOUT.
const EnvPrefix = "APIHEALTH"

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type ServerConfig struct {
	Address     string          `mapstructure:"address"`
	Environment string          `mapstructure:"environment"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

type ProbeConfig struct {
	Method         string `mapstructure:"method"`
	Timeout        string `mapstructure:"timeout"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

type SettingsConfig struct {
	Path        string `mapstructure:"path"`
	Environment string `mapstructure:"environment"`
}

type WatchConfig struct {
	Interval string `mapstructure:"interval"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Probe    ProbeConfig    `mapstructure:"probe"`
	Settings SettingsConfig `mapstructure:"settings"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ProbeTimeout returns the parsed probe timeout. Call after Validate.
func (c *Config) ProbeTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Probe.Timeout)
	return d
}

// WatchInterval returns the parsed watch interval. Call after Validate.
func (c *Config) WatchInterval() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Interval)
	return d
}

// New returns a viper instance carrying the defaults and environment
// bindings. Callers may bind command-line flags to it before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.rate_limit.rps", 5.0)
	v.SetDefault("server.rate_limit.burst", 10)
	v.SetDefault("probe.method", http.MethodGet)
	v.SetDefault("probe.timeout", "10s")
	v.SetDefault("probe.max_concurrency", 0)
	v.SetDefault("settings.path", "appsettings.json")
	v.SetDefault("settings.environment", "")
	v.SetDefault("watch.interval", "30s")
	v.SetDefault("metrics.buffer_size", 1000)
	v.SetDefault("logging.level", LogLevelInfo)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the configuration into v. With an empty path, config.yaml is
// searched in ./config and the working directory; a missing file falls
// back to defaults and environment variables.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Debug("config file not found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(ValidateHostPort),
					),
					validation.Field(&sc.RateLimit,
						validation.By(validateRateLimit),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Probe,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProbeConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProbeConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Method,
						validation.Required,
						validation.In(http.MethodGet, http.MethodHead, http.MethodOptions),
					),
					validation.Field(&pc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&pc.MaxConcurrency,
						validation.Min(0),
					),
				)
			}),
		),
		validation.Field(&c.Settings,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(SettingsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a SettingsConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Path,
						validation.Required,
						validation.Match(settingsFilePattern).Error("must be a .json, .yaml or .yml file"),
					),
				)
			}),
		),
		validation.Field(&c.Watch,
			validation.Required,
			validation.By(func(value interface{}) error {
				wc, ok := value.(WatchConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a WatchConfig")
				}
				return validation.ValidateStruct(&wc,
					validation.Field(&wc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
	)
}

// ValidateHostPort checks a listen address of the form [host]:port.
func ValidateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d <= 0 {
		return validation.NewError("validation_nonpositive_duration", "must be greater than zero")
	}

	return nil
}

func validateRateLimit(value interface{}) error {
	rl, ok := value.(RateLimitConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a RateLimitConfig")
	}

	if rl.RPS < 0 {
		return validation.NewError("validation_invalid_rps", "rps must be >= 0")
	}

	if rl.Burst < 0 {
		return validation.NewError("validation_invalid_burst", "burst must be >= 0")
	}

	return nil
}

var settingsFilePattern = regexp.MustCompile(`(?i)\.(json|ya?ml)$`)
