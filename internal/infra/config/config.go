// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvCatalog     = "VINYLBOX_CATALOG"
	EnvRemoteToken = "VINYLBOX_REMOTE_TOKEN"
	EnvDownloadDir = "VINYLBOX_DOWNLOAD_DIR"
)

// Config represents the application configuration.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog"`
	Player   PlayerConfig   `yaml:"player"`
	Remote   RemoteConfig   `yaml:"remote"`
	Download DownloadConfig `yaml:"download"`
	UI       UIConfig       `yaml:"ui"`
}

// CatalogConfig represents track catalog configuration.
type CatalogConfig struct {
	Source    string `yaml:"source" default:"songs.json" validate:"required"`
	TimeoutMs int    `yaml:"timeout_ms" default:"10000" validate:"gte=100,lte=120000"`
}

// PlayerConfig represents playback configuration.
type PlayerConfig struct {
	InitialVolume       float64 `yaml:"initial_volume" default:"0.7" validate:"gte=0,lte=1"`
	SeekStepSec         float64 `yaml:"seek_step_sec" default:"5" validate:"gt=0,lte=600"`
	VolumeStep          float64 `yaml:"volume_step" default:"0.1" validate:"gt=0,lte=1"`
	RestartThresholdSec float64 `yaml:"restart_threshold_sec" default:"3" validate:"gte=0"`
	TickMs              int     `yaml:"tick_ms" default:"250" validate:"gte=50,lte=5000"`
}

// RemoteConfig represents remote control configuration.
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" default:"127.0.0.1:7019" validate:"required,hostname_port"`
	Token   string `yaml:"token" validate:"required_if=Enabled true"`
}

// DownloadConfig represents the download side channel configuration.
type DownloadConfig struct {
	Dir     string `yaml:"dir" default:"." validate:"required"`
	Confirm *bool  `yaml:"confirm" default:"true"`
}

// UIConfig represents display configuration.
type UIConfig struct {
	Icons string `yaml:"icons" default:"unicode" validate:"oneof=unicode ascii"`
}

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	var cfg Config
	return finish(&cfg)
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults. Environment variables take precedence
// over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv(EnvCatalog); v != "" {
		c.Catalog.Source = v
	}
	if v := os.Getenv(EnvRemoteToken); v != "" {
		c.Remote.Token = v
	}
	if v := os.Getenv(EnvDownloadDir); v != "" {
		c.Download.Dir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// CatalogTimeout returns the catalog request timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutMs) * time.Millisecond
}

// Tick returns the time-update cadence of the audio element.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.Player.TickMs) * time.Millisecond
}

// ConfirmDownloads reports whether downloads ask for confirmation.
func (c *Config) ConfirmDownloads() bool {
	return c.Download.Confirm == nil || *c.Download.Confirm
}

// ASCIIIcons reports whether the display avoids non-ASCII glyphs.
func (c *Config) ASCIIIcons() bool {
	return c.UI.Icons == "ascii"
}
