// Package config loads server settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks variables that override any key. Nested keys use a
// double underscore: PORTFOLIO_SMTP__HOST sets smtp.host.
const EnvPrefix = "PORTFOLIO_"

type Config struct {
	Port     string `koanf:"port"`
	DataFile string `koanf:"data_file"`
	DBPath   string `koanf:"db_path"`
	Debug    bool   `koanf:"debug"`
	// Watch reloads the data file when it changes on disk.
	Watch bool `koanf:"watch"`

	Typewriter TypewriterConfig `koanf:"typewriter"`
	Scroll     ScrollConfig     `koanf:"scroll"`
	SMTP       SMTPConfig       `koanf:"smtp"`
	Admin      AdminConfig      `koanf:"admin"`
	Contact    ContactConfig    `koanf:"contact"`

	// VisitorRetention is how long visitor records are kept.
	VisitorRetention time.Duration `koanf:"visitor_retention"`
}

type TypewriterConfig struct {
	TypingSpeed   time.Duration `koanf:"typing_speed"`
	DeletingSpeed time.Duration `koanf:"deleting_speed"`
	PauseDuration time.Duration `koanf:"pause_duration"`
}

type ScrollConfig struct {
	Threshold     int           `koanf:"threshold"`
	ScrolledAfter int           `koanf:"scrolled_after"`
	FrameInterval time.Duration `koanf:"frame_interval"`
	HeroHeight    int           `koanf:"hero_height"`
}

type SMTPConfig struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	User string `koanf:"user"`
	Pass string `koanf:"pass"`
	To   string `koanf:"to"`
}

// Configured reports whether mail can be sent.
func (s SMTPConfig) Configured() bool {
	return s.User != "" && s.Pass != ""
}

type AdminConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type ContactConfig struct {
	// RatePerMinute is the sustained number of messages one client may send.
	RatePerMinute float64 `koanf:"rate_per_minute"`
	Burst         int     `koanf:"burst"`
	MaxClients    int     `koanf:"max_clients"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Port:     "8080",
		DataFile: "content/portfolio.yaml",
		DBPath:   "data/portfolio.db",
		Watch:    true,
		Typewriter: TypewriterConfig{
			TypingSpeed:   70 * time.Millisecond,
			DeletingSpeed: 40 * time.Millisecond,
			PauseDuration: 2500 * time.Millisecond,
		},
		Scroll: ScrollConfig{
			Threshold:     100,
			ScrolledAfter: 50,
			FrameInterval: time.Second / 60,
			HeroHeight:    900,
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: "587",
		},
		Contact: ContactConfig{
			RatePerMinute: 2,
			Burst:         3,
			MaxClients:    10000,
		},
		VisitorRetention: 365 * 24 * time.Hour,
	}
}

// legacyEnv maps the unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"PORT":           "port",
	"SMTP_HOST":      "smtp.host",
	"SMTP_PORT":      "smtp.port",
	"SMTP_USER":      "smtp.user",
	"SMTP_PASS":      "smtp.pass",
	"TO_EMAIL":       "smtp.to",
	"ADMIN_USERNAME": "admin.username",
	"ADMIN_PASSWORD": "admin.password",
}

// Load reads configuration from the given YAML file when it exists, then
// overlays the legacy variables and finally PORTFOLIO_* overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading legacy env: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.DataFile == "" {
		return fmt.Errorf("data_file is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Typewriter.TypingSpeed <= 0 || c.Typewriter.DeletingSpeed <= 0 || c.Typewriter.PauseDuration <= 0 {
		return fmt.Errorf("typewriter durations must be positive")
	}
	if c.Scroll.Threshold < 0 {
		return fmt.Errorf("scroll.threshold must be non-negative")
	}
	if c.Scroll.FrameInterval <= 0 {
		return fmt.Errorf("scroll.frame_interval must be positive")
	}
	if c.Contact.RatePerMinute <= 0 || c.Contact.Burst <= 0 {
		return fmt.Errorf("contact rate_per_minute and burst must be positive")
	}
	if c.VisitorRetention <= 0 {
		return fmt.Errorf("visitor_retention must be positive")
	}
	return nil
}
