// Package config loads the router and dispatch defaults a host can
// override via a YAML file, instead of hand-wiring router.Config and
// agentmanager options at the call site.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/ctxforge/ctxforge/pkg/router"
)

// Config is the on-disk shape of a ctxforge host's settings file.
type Config struct {
	Router              RouterConfig `yaml:"router"`
	MaxConcurrentAgents int          `yaml:"maxConcurrentAgents"`
	TaskTimeoutSeconds  int          `yaml:"taskTimeoutSeconds"`
}

// RouterConfig mirrors router.Config's fields for YAML decoding.
type RouterConfig struct {
	Enabled             bool `yaml:"enabled"`
	TokenThreshold      int  `yaml:"tokenThreshold"`
	FileSizeKbThreshold int  `yaml:"fileSizeKbThreshold"`
	FileCountThreshold  int  `yaml:"fileCountThreshold"`
	MaxConcurrentAgents int  `yaml:"maxConcurrentAgents"`
	ContextWindowTokens int  `yaml:"contextWindowTokens"`
}

// Default returns the baseline configuration used when no file is loaded.
func Default() Config {
	rc := router.DefaultConfig()
	return Config{
		Router: RouterConfig{
			Enabled:             rc.Enabled,
			TokenThreshold:      rc.TokenThreshold,
			FileSizeKbThreshold: rc.FileSizeKbThreshold,
			FileCountThreshold:  rc.FileCountThreshold,
			MaxConcurrentAgents: rc.MaxConcurrentAgents,
			ContextWindowTokens: rc.ContextWindowTokens,
		},
		MaxConcurrentAgents: rc.MaxConcurrentAgents,
		TaskTimeoutSeconds:  60,
	}
}

// Load reads and strictly parses a YAML config file at path, failing on
// unknown fields rather than silently ignoring typos.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// ToRouterConfig converts the loaded settings into a router.Config.
func (c Config) ToRouterConfig() router.Config {
	return router.Config{
		Enabled:             c.Router.Enabled,
		TokenThreshold:      c.Router.TokenThreshold,
		FileSizeKbThreshold: c.Router.FileSizeKbThreshold,
		FileCountThreshold:  c.Router.FileCountThreshold,
		MaxConcurrentAgents: c.Router.MaxConcurrentAgents,
		ContextWindowTokens: c.Router.ContextWindowTokens,
	}
}

// TaskTimeout converts TaskTimeoutSeconds into a time.Duration, falling
// back to agentmanager's default when unset.
func (c Config) TaskTimeout() time.Duration {
	if c.TaskTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}
