package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/api-health-checker/config"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
		os.Unsetenv("APIHEALTH_PROBE_TIMEOUT")
		os.Unsetenv("APIHEALTH_SETTINGS_ENVIRONMENT")
	})

	writeConfig := func(content string) string {
		configPath := filepath.Join(tempDir, "config.yaml")
		Expect(os.WriteFile(configPath, []byte(content), 0644)).To(Succeed())
		return configPath
	}

	Describe("Load", func() {
		Context("with valid config file", func() {
			var configPath string

			BeforeEach(func() {
				configPath = writeConfig(`
server:
  address: ":9090"
  environment: "prod"
  rate_limit:
    rps: 2
    burst: 4

probe:
  method: "HEAD"
  timeout: "3s"
  max_concurrency: 8

settings:
  path: "environments.yaml"
  environment: "UAT"

watch:
  interval: "1m"

logging:
  level: "debug"
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load(config.New(), configPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse probe settings", func() {
				cfg, _ := config.Load(config.New(), configPath)
				Expect(cfg.Probe.Method).To(Equal("HEAD"))
				Expect(cfg.ProbeTimeout()).To(Equal(3 * time.Second))
				Expect(cfg.Probe.MaxConcurrency).To(Equal(8))
			})

			It("should parse settings location and environment", func() {
				cfg, _ := config.Load(config.New(), configPath)
				Expect(cfg.Settings.Path).To(Equal("environments.yaml"))
				Expect(cfg.Settings.Environment).To(Equal("UAT"))
			})

			It("should parse server settings", func() {
				cfg, _ := config.Load(config.New(), configPath)
				Expect(cfg.Server.Address).To(Equal(":9090"))
				Expect(cfg.Server.RateLimit.RPS).To(Equal(2.0))
				Expect(cfg.Server.RateLimit.Burst).To(Equal(4))
			})

			It("should parse the watch interval", func() {
				cfg, _ := config.Load(config.New(), configPath)
				Expect(cfg.WatchInterval()).To(Equal(time.Minute))
			})

			It("should let environment variables override the file", func() {
				os.Setenv("APIHEALTH_PROBE_TIMEOUT", "7s")
				cfg, err := config.Load(config.New(), configPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.ProbeTimeout()).To(Equal(7 * time.Second))
			})
		})

		Context("without a config file", func() {
			BeforeEach(func() {
				Expect(os.Chdir(tempDir)).To(Succeed())
			})

			It("should use defaults", func() {
				cfg, err := config.Load(config.New(), "")
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Probe.Method).To(Equal("GET"))
				Expect(cfg.ProbeTimeout()).To(Equal(10 * time.Second))
				Expect(cfg.Settings.Path).To(Equal("appsettings.json"))
				Expect(cfg.Settings.Environment).To(BeEmpty())
				Expect(cfg.WatchInterval()).To(Equal(30 * time.Second))
				Expect(cfg.Metrics.BufferSize).To(Equal(1000))
				Expect(cfg.Logging.Level).To(Equal("info"))
			})

			It("should read environment variables", func() {
				os.Setenv("APIHEALTH_SETTINGS_ENVIRONMENT", "dev")
				cfg, err := config.Load(config.New(), "")
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Settings.Environment).To(Equal("dev"))
			})
		})

		Context("with an explicit path that does not exist", func() {
			It("should fail", func() {
				_, err := config.Load(config.New(), filepath.Join(tempDir, "nope.yaml"))
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with invalid values", func() {
			It("should reject an unknown probe method", func() {
				path := writeConfig("probe:\n  method: POST\n")
				_, err := config.Load(config.New(), path)
				Expect(err).To(HaveOccurred())
			})

			It("should reject a malformed timeout", func() {
				path := writeConfig("probe:\n  timeout: soon\n")
				_, err := config.Load(config.New(), path)
				Expect(err).To(HaveOccurred())
			})

			It("should reject a negative concurrency limit", func() {
				path := writeConfig("probe:\n  max_concurrency: -1\n")
				_, err := config.Load(config.New(), path)
				Expect(err).To(HaveOccurred())
			})

			It("should reject an unsupported settings file", func() {
				path := writeConfig("settings:\n  path: appsettings.ini\n")
				_, err := config.Load(config.New(), path)
				Expect(err).To(HaveOccurred())
			})

			It("should reject an unknown deployment environment", func() {
				path := writeConfig("server:\n  environment: qa\n")
				_, err := config.Load(config.New(), path)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = &config.Config{
				Server:   config.ServerConfig{Address: "localhost:8080", Environment: config.EnvDev},
				Probe:    config.ProbeConfig{Method: "GET", Timeout: "5s"},
				Settings: config.SettingsConfig{Path: "appsettings.json"},
				Watch:    config.WatchConfig{Interval: "30s"},
				Metrics:  config.MetricsConfig{BufferSize: 10},
				Logging:  config.LoggingConfig{Level: config.LogLevelWarn},
			}
		})

		It("should accept a complete configuration", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should reject a zero watch interval", func() {
			cfg.Watch.Interval = "0s"
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("should reject a negative rate limit", func() {
			cfg.Server.RateLimit.RPS = -1
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("should reject an invalid address", func() {
			cfg.Server.Address = "invalid:host:port"
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("should reject an unknown log level", func() {
			cfg.Logging.Level = "verbose"
			Expect(cfg.Validate()).To(HaveOccurred())
		})
	})

	Describe("ValidateHostPort", func() {
		It("should accept port-only addresses", func() {
			Expect(config.ValidateHostPort(":8080")).To(Succeed())
		})

		It("should accept IP addresses", func() {
			Expect(config.ValidateHostPort("127.0.0.1:8080")).To(Succeed())
		})

		It("should reject non-strings", func() {
			Expect(config.ValidateHostPort(8080)).To(HaveOccurred())
		})
	})
})
