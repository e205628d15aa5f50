package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"production"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Registry struct {
		Path string `yaml:"path" default:"marketplaces.jsonl"`
	} `yaml:"registry"`
	// CredsFile is an optional dotenv file with backend credentials.
	// Credentials never live in the YAML config itself.
	CredsFile string `yaml:"creds_file" default:"creds.env"`
	Dashboard struct {
		BaseURL     string        `yaml:"base_url"`
		Login       string        `yaml:"-"`
		Password    string        `yaml:"-"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
		SessionFile string        `yaml:"session_file" default:".session.json"`
		// Windows is the expanding lookback sweep for activity probes,
		// in minutes, smallest first.
		Windows []int `yaml:"windows"`
	} `yaml:"dashboard"`
	Jobs struct {
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"-"`
		Timeout      time.Duration `yaml:"timeout" default:"30s"`
		PollInterval time.Duration `yaml:"poll_interval" default:"5s"`
		MaxPolls     int           `yaml:"max_polls" default:"60"`
		Queries      struct {
			HistoryID           int `yaml:"history_id" default:"9018"`
			ProblemRegionsID    int `yaml:"problem_regions_id" default:"9021"`
			SchedulesID         int `yaml:"schedules_id" default:"886"`
			DiscrepancySourceID int `yaml:"discrepancy_source_id" default:"24"`
		} `yaml:"queries"`
	} `yaml:"jobs"`
	SessionStore struct {
		Type  string `yaml:"type" default:"file"` // file, redis or memory
		Redis struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"-"`
			DB       int    `yaml:"db" default:"0"`
		} `yaml:"redis"`
	} `yaml:"session_store"`
}

// DefaultWindows is the lookback sweep used when the config does not
// override it: 5 minutes up to 24 hours, strictly increasing.
var DefaultWindows = []int{5, 10, 15, 30, 60, 120, 240, 360, 720, 1440}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Dashboard.Windows) == 0 {
		c.Dashboard.Windows = append([]int(nil), DefaultWindows...)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Credentials are taken from the environment only, optionally
// seeded from the dotenv file named in creds_file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if c.CredsFile != "" {
		// Missing creds file is fine; env vars may be set directly.
		_ = godotenv.Load(c.CredsFile)
	}

	if v := os.Getenv("GRAFANA_LOGIN"); v != "" {
		c.Dashboard.Login = v
	}
	if v := os.Getenv("GRAFANA_PASSWORD"); v != "" {
		c.Dashboard.Password = v
	}
	if v := os.Getenv("GRAFANA_URL"); v != "" {
		c.Dashboard.BaseURL = v
	}
	if v := os.Getenv("REDASH_API_KEY"); v != "" {
		c.Jobs.APIKey = v
	}
	if v := os.Getenv("REDASH_URL"); v != "" {
		c.Jobs.BaseURL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.SessionStore.Redis.Password = v
	}
	if v := os.Getenv("PROBE_WINDOWS"); v != "" {
		windows, err := parseWindows(v)
		if err != nil {
			return nil, fmt.Errorf("PROBE_WINDOWS: %w", err)
		}
		c.Dashboard.Windows = windows
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Dashboard.BaseURL == "" {
		return fmt.Errorf("dashboard.base_url is required")
	}
	if c.Jobs.BaseURL == "" {
		return fmt.Errorf("jobs.base_url is required")
	}
	if c.Jobs.PollInterval <= 0 {
		return fmt.Errorf("jobs.poll_interval must be positive")
	}
	if c.Jobs.MaxPolls <= 0 {
		return fmt.Errorf("jobs.max_polls must be positive")
	}
	switch c.SessionStore.Type {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("session_store.type must be 'file', 'redis' or 'memory', got '%s'", c.SessionStore.Type)
	}
	if len(c.Dashboard.Windows) == 0 {
		return fmt.Errorf("dashboard.windows cannot be empty")
	}
	for i := 1; i < len(c.Dashboard.Windows); i++ {
		if c.Dashboard.Windows[i] <= c.Dashboard.Windows[i-1] {
			return fmt.Errorf("dashboard.windows must be strictly increasing, got %v", c.Dashboard.Windows)
		}
	}
	if c.Dashboard.Windows[0] <= 0 {
		return fmt.Errorf("dashboard.windows must be positive minutes, got %v", c.Dashboard.Windows)
	}
	return nil
}

func parseWindows(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	windows := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid window %q", p)
		}
		windows = append(windows, v)
	}
	return windows, nil
}
