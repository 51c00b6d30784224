// Package config handles loading and validating DevPulse configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/akvarma/devpulse/internal/model"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} placeholders in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ErrConfigFileNotFound is returned by Load when the specified config file does not exist.
var ErrConfigFileNotFound = errors.New("config file not found")

// DefaultRefreshInterval is the sampling interval, in seconds, used when none
// is configured or when a settings update cannot be parsed.
const DefaultRefreshInterval = 2

// Config is the top-level DevPulse configuration. It is read once at process
// start; runtime-mutable values (theme, alert destination, refresh interval)
// seed the settings record and change through the settings endpoint.
type Config struct {
	Listen          string               `yaml:"listen"`
	DBPath          string               `yaml:"db_path"`
	LogLevel        string               `yaml:"log_level"`
	LogFormat       string               `yaml:"log_format"`
	Theme           string               `yaml:"theme"`
	RefreshInterval int                  `yaml:"refresh_interval"` // seconds
	SnapshotTTL     Duration             `yaml:"snapshot_ttl"`
	AlertLogTTL     Duration             `yaml:"alert_log_ttl"`
	Devices         []model.Device       `yaml:"devices"`
	SMTP            SMTPConfig           `yaml:"smtp"`
	AlertEmailTo    string               `yaml:"alert_email_to"`
	Notifications   []NotificationConfig `yaml:"notifications"`
}

// SMTPConfig describes the email transport. The transport is considered
// configured only when host, username, and password are all present.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Configured reports whether the SMTP transport is fully configured.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

// NotificationConfig describes an additional notification target.
type NotificationConfig struct {
	Type     string            `yaml:"type"`              // "webhook" or "mqtt"
	URL      string            `yaml:"url,omitempty"`     // webhook only
	Method   string            `yaml:"method,omitempty"`  // webhook only
	Headers  map[string]string `yaml:"headers,omitempty"` // webhook only
	Broker   string            `yaml:"broker,omitempty"`  // mqtt only
	Topic    string            `yaml:"topic,omitempty"`   // mqtt only
	ClientID string            `yaml:"client_id,omitempty"`
	Username string            `yaml:"username,omitempty"`
	Password string            `yaml:"password,omitempty"`
}

// Duration wraps time.Duration with YAML string parsing support.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Load reads configuration from a YAML file. If no path is given, it falls
// back to environment variables. If a path is given and the file does not
// exist, ErrConfigFileNotFound is returned.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(expandEnvVars(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("log_format must be one of: text, json")
	}
	if c.Theme != "light" && c.Theme != "dark" {
		return fmt.Errorf("theme must be light or dark")
	}
	if c.RefreshInterval < 1 {
		return fmt.Errorf("refresh_interval must be >= 1")
	}
	if c.SnapshotTTL.Duration < time.Hour {
		return fmt.Errorf("snapshot_ttl must be >= 1h")
	}
	if c.AlertLogTTL.Duration < time.Hour {
		return fmt.Errorf("alert_log_ttl must be >= 1h")
	}

	if len(c.Devices) == 0 {
		return fmt.Errorf("at least one device is required")
	}
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.ID == "" {
			return fmt.Errorf("devices[%d]: id is required", i)
		}
		if d.Name == "" {
			return fmt.Errorf("devices[%d]: name is required", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("devices[%d]: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = true
	}

	if c.SMTP.Host != "" && (c.SMTP.Port < 1 || c.SMTP.Port > 65535) {
		return fmt.Errorf("smtp: port must be 1-65535")
	}

	for i, n := range c.Notifications {
		switch n.Type {
		case "webhook":
			if n.URL == "" {
				return fmt.Errorf("notifications[%d]: url is required for webhook", i)
			}
		case "mqtt":
			if n.Broker == "" {
				return fmt.Errorf("notifications[%d]: broker is required for mqtt", i)
			}
			if n.Topic == "" {
				return fmt.Errorf("notifications[%d]: topic is required for mqtt", i)
			}
		default:
			return fmt.Errorf("notifications[%d]: unknown type %q (expected webhook or mqtt)", i, n.Type)
		}
	}

	return nil
}

// DefaultDevices returns the built-in five-device fleet.
func DefaultDevices() []model.Device {
	devices := make([]model.Device, 0, 5)
	for i := 1; i <= 5; i++ {
		devices = append(devices, model.Device{
			ID:   fmt.Sprintf("DEV%d", i),
			Name: fmt.Sprintf("Device-%d", i),
		})
	}
	return devices
}

func defaults() *Config {
	return &Config{
		Listen:          ":5000",
		DBPath:          "device_data.db",
		LogLevel:        "info",
		LogFormat:       "text",
		Theme:           "light",
		RefreshInterval: DefaultRefreshInterval,
		SnapshotTTL:     Duration{30 * 24 * time.Hour},
		AlertLogTTL:     Duration{30 * 24 * time.Hour},
		Devices:         DefaultDevices(),
		SMTP:            SMTPConfig{Port: 587},
	}
}

// expandEnvVars replaces ${VAR_NAME} placeholders in raw YAML with the
// corresponding environment variable values. Unset variables are replaced
// with an empty string, which will then fail validation with a clear error.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		key := string(match[2 : len(match)-1]) // strip ${ and }
		return []byte(os.Getenv(key))
	})
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DEVPULSE_LISTEN"); v != "" {
		cfg.Listen = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}
	if v := os.Getenv("DEVPULSE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DEVPULSE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DEVPULSE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("DEVPULSE_REFRESH_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RefreshInterval = n
		}
	}

	// SMTP transport from env vars (only if not configured in YAML).
	if cfg.SMTP.Host == "" {
		if host := os.Getenv("SMTP_HOST"); host != "" {
			cfg.SMTP.Host = host
			cfg.SMTP.Username = os.Getenv("SMTP_USER")
			cfg.SMTP.Password = os.Getenv("SMTP_PASS")
			if p := os.Getenv("SMTP_PORT"); p != "" {
				if n, err := strconv.Atoi(p); err == nil {
					cfg.SMTP.Port = n
				}
			}
		}
	}
	if v := os.Getenv("ALERT_EMAIL_TO"); v != "" {
		cfg.AlertEmailTo = v
	}
}
