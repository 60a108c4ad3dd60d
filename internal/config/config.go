// Package config loads the client configuration from YAML with environment
// overrides for values that should not live in a file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the workboard client.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Chat    ChatConfig    `yaml:"chat"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	// BaseURL is the HTTP API root, e.g. http://localhost:8080/api.
	BaseURL string `yaml:"base_url"`
	// WSURL is the realtime channel endpoint. Derived from BaseURL when
	// empty.
	WSURL string `yaml:"ws_url"`
	// Timeout bounds each HTTP call.
	Timeout Duration `yaml:"timeout"`
}

// ChatConfig tunes the realtime channel.
type ChatConfig struct {
	// ReconnectMaxAttempts bounds reconnects per outage.
	ReconnectMaxAttempts int `yaml:"reconnect_max_attempts"`
	// ReconnectInitialDelay is the first reconnect delay.
	ReconnectInitialDelay Duration `yaml:"reconnect_initial_delay"`
	// ReconnectMaxDelay caps the backoff.
	ReconnectMaxDelay Duration `yaml:"reconnect_max_delay"`
	// RosterRefresh is a cron spec for periodic roster refetches.
	RosterRefresh string `yaml:"roster_refresh"`
}

// HistoryConfig controls the local transcript archive.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: Duration(10 * time.Second),
		},
		Chat: ChatConfig{
			ReconnectMaxAttempts:  5,
			ReconnectInitialDelay: Duration(2 * time.Second),
			ReconnectMaxDelay:     Duration(30 * time.Second),
			RosterRefresh:         "@every 30s",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path, applies defaults for unset
// fields, then environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORKBOARD_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("WORKBOARD_WS_URL"); v != "" {
		cfg.Server.WSURL = v
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = def.Server.BaseURL
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = def.Server.Timeout
	}
	if cfg.Server.WSURL == "" {
		cfg.Server.WSURL = deriveWSURL(cfg.Server.BaseURL)
	}
	if cfg.Chat.ReconnectMaxAttempts == 0 {
		cfg.Chat.ReconnectMaxAttempts = def.Chat.ReconnectMaxAttempts
	}
	if cfg.Chat.ReconnectInitialDelay <= 0 {
		cfg.Chat.ReconnectInitialDelay = def.Chat.ReconnectInitialDelay
	}
	if cfg.Chat.ReconnectMaxDelay <= 0 {
		cfg.Chat.ReconnectMaxDelay = def.Chat.ReconnectMaxDelay
	}
	if cfg.Chat.RosterRefresh == "" {
		cfg.Chat.RosterRefresh = def.Chat.RosterRefresh
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}

// deriveWSURL maps the HTTP API root onto the chat websocket endpoint.
func deriveWSURL(baseURL string) string {
	ws := baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return ws + "/chat/ws"
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("server.base_url must be an http(s) URL, got %q", c.Server.BaseURL)
	}
	if !strings.HasPrefix(c.Server.WSURL, "ws://") && !strings.HasPrefix(c.Server.WSURL, "wss://") {
		return fmt.Errorf("server.ws_url must be a ws(s) URL, got %q", c.Server.WSURL)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
