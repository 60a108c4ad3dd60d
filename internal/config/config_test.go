package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8080/api" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.WSURL != "ws://localhost:8080/api/chat/ws" {
		t.Errorf("WSURL = %q", cfg.Server.WSURL)
	}
	if cfg.Chat.ReconnectMaxAttempts != 5 {
		t.Errorf("ReconnectMaxAttempts = %d", cfg.Chat.ReconnectMaxAttempts)
	}
	if cfg.Chat.RosterRefresh != "@every 30s" {
		t.Errorf("RosterRefresh = %q", cfg.Chat.RosterRefresh)
	}
}

func TestLoadFileWithPartialValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workboard.yaml")
	content := `
server:
  base_url: https://hr.example.com/api/
  timeout: 3s
chat:
  reconnect_max_attempts: 2
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "https://hr.example.com/api" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.Server.BaseURL)
	}
	if cfg.Server.WSURL != "wss://hr.example.com/api/chat/ws" {
		t.Errorf("WSURL = %q, want wss derived from https base", cfg.Server.WSURL)
	}
	if cfg.Server.Timeout.Std() != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Server.Timeout)
	}
	if cfg.Chat.ReconnectMaxAttempts != 2 {
		t.Errorf("ReconnectMaxAttempts = %d", cfg.Chat.ReconnectMaxAttempts)
	}
	// Unset fields keep defaults.
	if cfg.Chat.ReconnectInitialDelay.Std() != 2*time.Second {
		t.Errorf("ReconnectInitialDelay = %v", cfg.Chat.ReconnectInitialDelay)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WORKBOARD_BASE_URL", "http://10.0.0.5:9000/api")
	t.Setenv("WORKBOARD_WS_URL", "ws://10.0.0.5:9000/api/chat/ws")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "http://10.0.0.5:9000/api" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.WSURL != "ws://10.0.0.5:9000/api/chat/ws" {
		t.Errorf("WSURL = %q", cfg.Server.WSURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad base url", func(c *Config) { c.Server.BaseURL = "ftp://x" }},
		{"bad ws url", func(c *Config) { c.Server.WSURL = "http://x" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.WSURL = deriveWSURL(cfg.Server.BaseURL)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}
