// Package config loads app config from env and an optional .env file
// using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `mapstructure:"PORT"`
	// BaseURL is the public prefix put in front of room ids in share
	// links (e.g. https://codedrop.example.com).
	BaseURL string `mapstructure:"BASE_URL"`
	// RoomTTL is how long a room lives after creation (e.g. "24h").
	RoomTTL string `mapstructure:"ROOM_TTL"`
	// SweepInterval is how often the background sweeper runs (e.g. "1h").
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`
	// AllowedOrigin is the CORS origin allowed on the HTTP surface.
	AllowedOrigin string `mapstructure:"ALLOWED_ORIGIN"`
}

// Load reads .env (if present), then builds and validates Config from
// the environment. Missing .env is ignored; env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("ROOM_TTL", "24h")
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("ALLOWED_ORIGIN", "*")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Port == "" {
		return nil, errors.New("config: PORT must be set")
	}
	if d, err := time.ParseDuration(cfg.RoomTTL); err != nil || d <= 0 {
		return nil, errors.New("config: ROOM_TTL must be a positive duration")
	}
	if d, err := time.ParseDuration(cfg.SweepInterval); err != nil || d <= 0 {
		return nil, errors.New("config: SWEEP_INTERVAL must be a positive duration")
	}

	return &cfg, nil
}

// RoomTTLDuration returns RoomTTL as a time.Duration.
func (c *Config) RoomTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.RoomTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// SweepIntervalDuration returns SweepInterval as a time.Duration.
func (c *Config) SweepIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
