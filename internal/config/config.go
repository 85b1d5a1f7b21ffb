package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr            string        `yaml:"addr"`
	TurnSeconds     int           `yaml:"turn_seconds"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"` // "console" or "json"
	ClientRate      float64       `yaml:"client_rate"`
	ClientBurst     int           `yaml:"client_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default matches the original draft board: 30s per turn plus a 5s buffer.
func Default() Config {
	return Config{
		Addr:            ":3002",
		TurnSeconds:     35,
		TickInterval:    time.Second,
		AllowedOrigins:  []string{"*"},
		LogLevel:        "info",
		LogFormat:       "console",
		ClientRate:      10,
		ClientBurst:     20,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the config from defaults, then the YAML file named by
// DRAFT_CONFIG, then environment variables (a .env file is read first if present).
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("DRAFT_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from lookup. All malformed values are reported together.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs error

	if v, ok := lookup("ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("TURN_SECONDS"); ok {
		n, err := strconv.Atoi(v)
		errs = multierr.Append(errs, wrapEnv("TURN_SECONDS", err))
		if err == nil {
			c.TurnSeconds = n
		}
	}
	if v, ok := lookup("TICK_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		errs = multierr.Append(errs, wrapEnv("TICK_INTERVAL", err))
		if err == nil {
			c.TickInterval = d
		}
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		c.LogFormat = v
	}
	if v, ok := lookup("CLIENT_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		errs = multierr.Append(errs, wrapEnv("CLIENT_RATE", err))
		if err == nil {
			c.ClientRate = f
		}
	}
	if v, ok := lookup("CLIENT_BURST"); ok {
		n, err := strconv.Atoi(v)
		errs = multierr.Append(errs, wrapEnv("CLIENT_BURST", err))
		if err == nil {
			c.ClientBurst = n
		}
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		errs = multierr.Append(errs, wrapEnv("SHUTDOWN_TIMEOUT", err))
		if err == nil {
			c.ShutdownTimeout = d
		}
	}
	return errs
}

func (c Config) Validate() error {
	var errs error
	if c.Addr == "" {
		errs = multierr.Append(errs, errors.New("addr must be set"))
	}
	if c.TurnSeconds <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("turn_seconds must be positive, got %d", c.TurnSeconds))
	}
	if c.TickInterval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.ClientRate <= 0 || c.ClientBurst <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("client_rate and client_burst must be positive, got %v/%d", c.ClientRate, c.ClientBurst))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = multierr.Append(errs, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}
	return errs
}

func wrapEnv(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", key, err)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
