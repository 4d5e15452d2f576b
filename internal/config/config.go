package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Scoring ScoringConfig `yaml:"scoring"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" env:"SCANRALLY_HOST"`
	Port           int      `yaml:"port" env:"SCANRALLY_PORT"`
	BroadcastScope string   `yaml:"broadcast_scope" env:"SCANRALLY_BROADCAST_SCOPE"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"SCANRALLY_ALLOWED_ORIGINS" envSeparator:","`
	MaxConnections int      `yaml:"max_connections" env:"SCANRALLY_MAX_CONNECTIONS"`
}

type SessionConfig struct {
	GracePeriod time.Duration `yaml:"grace_period" env:"SCANRALLY_GRACE_PERIOD"`
}

type ScoringConfig struct {
	DefaultPoints int            `yaml:"default_points" env:"SCANRALLY_DEFAULT_POINTS"`
	Items         map[string]int `yaml:"items"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			BroadcastScope: "global",
		},
		Session: SessionConfig{
			GracePeriod: 30 * time.Second,
		},
		Scoring: ScoringConfig{
			DefaultPoints: 10,
		},
	}
}

// Load reads the yaml file at path over built-in defaults, then applies
// SCANRALLY_* environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.BroadcastScope {
	case "global", "session":
	default:
		return fmt.Errorf("broadcast_scope %q: must be \"global\" or \"session\"", c.Server.BroadcastScope)
	}
	if c.Session.GracePeriod < 0 {
		return fmt.Errorf("grace_period %s: must not be negative", c.Session.GracePeriod)
	}
	return nil
}
