// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the daemon. Values come from SAHAYAK_*
// environment variables.
type Config struct {
	// Port is the HTTP server port.
	Port int `envconfig:"PORT" default:"3000"`

	// RemoteURL is the base URL of the remote document store.
	RemoteURL string `envconfig:"REMOTE_URL" required:"true"`

	// RemoteAPIKey authenticates against the remote document store.
	RemoteAPIKey string `envconfig:"REMOTE_API_KEY" required:"true"`

	// PushURL is the websocket endpoint of the push stream.
	PushURL string `envconfig:"PUSH_URL" required:"true"`

	// DataDir is where the offline cache database lives.
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	// ProbeURL is hit periodically to refresh the connectivity flag.
	ProbeURL string `envconfig:"PROBE_URL" default:"https://clients3.google.com/generate_204"`

	// ProbeInterval is how often the connectivity probe runs.
	ProbeInterval time.Duration `envconfig:"PROBE_INTERVAL" default:"15s"`

	// PageSize is the feed page size requested from the remote.
	PageSize int `envconfig:"PAGE_SIZE" default:"20"`

	// HistoryLimit is how many messages seed a chat subscription.
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"50"`
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads configuration from SAHAYAK_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("sahayak", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}
