package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileConfig defines the structure loaded from the YAML configuration file.
// Secrets never come from the file; they are env-only.
type FileConfig struct {
	ListenAddr        string `yaml:"listen_addr,omitempty"`
	SiteURL           string `yaml:"site_url,omitempty"`
	GeminiModel       string `yaml:"gemini_model,omitempty"`
	DefaultWindowDays int    `yaml:"default_window_days,omitempty"`
	MaxReportRows     int    `yaml:"max_report_rows,omitempty"`
	MaxReportBytes    int    `yaml:"max_report_bytes,omitempty"`
}

// Config holds the final application configuration, merged from file and
// environment variables. Fields are loaded from environment variables with
// the prefix "QUERYLENS_", overriding file settings. It is read-only after
// process start.
type Config struct {
	// Config File Path (loaded first from env). Optional; when unset or the
	// default file is absent, env vars and defaults apply alone.
	ConfigFilePath string `envconfig:"CONFIG_FILE" default:"configs/querylens.yaml"`

	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`

	// AuthToken is the shared bearer secret every inbound call must present.
	AuthToken string `envconfig:"AUTH_TOKEN" required:"true"`

	// Translation service (Gemini).
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`

	// Analytics provider (Google Search Console). SiteURL may come from the
	// config file instead of the environment.
	SiteURL              string `envconfig:"SITE_URL"` // e.g. sc-domain:www.example.com
	SearchConsoleToken   string `envconfig:"SEARCH_CONSOLE_TOKEN" required:"true"`
	SearchConsoleBaseURL string `envconfig:"SEARCH_CONSOLE_BASE_URL" default:"https://www.googleapis.com"`

	HTTPClientTimeout  time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	ServerReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	ServerWriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"90s"`
	ServerIdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`

	// Report shaping.
	DefaultWindowDays int `envconfig:"DEFAULT_WINDOW_DAYS" default:"28"`
	MaxReportRows     int `envconfig:"MAX_REPORT_ROWS" default:"25"`
	MaxReportBytes    int `envconfig:"MAX_REPORT_BYTES" default:"16384"`

	OtelExporterOtlpEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string `envconfig:"LOG_LEVEL" default:"info"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration first from environment variables (to get the file
// path), then from the specified YAML file, and finally processes environment
// variables again so they override file settings.
func Load() (*Config, error) {
	var initialCfg Config
	if err := envconfig.Process("querylens", &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		switch {
		case os.IsNotExist(err):
			slog.Info("No config file found, using defaults/env vars only.", "path", initialCfg.ConfigFilePath)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		default:
			if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
			}
			slog.Info("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)
		}
	}

	// File values apply only where the corresponding env var is unset;
	// the environment always wins.
	finalCfg := initialCfg
	if fileCfg.ListenAddr != "" && !envSet("LISTEN_ADDR") {
		finalCfg.ListenAddr = fileCfg.ListenAddr
	}
	if fileCfg.SiteURL != "" && !envSet("SITE_URL") {
		finalCfg.SiteURL = fileCfg.SiteURL
	}
	if fileCfg.GeminiModel != "" && !envSet("GEMINI_MODEL") {
		finalCfg.GeminiModel = fileCfg.GeminiModel
	}
	if fileCfg.DefaultWindowDays > 0 && !envSet("DEFAULT_WINDOW_DAYS") {
		finalCfg.DefaultWindowDays = fileCfg.DefaultWindowDays
	}
	if fileCfg.MaxReportRows > 0 && !envSet("MAX_REPORT_ROWS") {
		finalCfg.MaxReportRows = fileCfg.MaxReportRows
	}
	if fileCfg.MaxReportBytes > 0 && !envSet("MAX_REPORT_BYTES") {
		finalCfg.MaxReportBytes = fileCfg.MaxReportBytes
	}

	if finalCfg.SiteURL == "" {
		return nil, fmt.Errorf("site URL not configured (set QUERYLENS_SITE_URL or site_url in %s)", initialCfg.ConfigFilePath)
	}

	return &finalCfg, nil
}

func envSet(key string) bool {
	_, ok := os.LookupEnv("QUERYLENS_" + key)
	return ok
}
