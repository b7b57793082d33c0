package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", cfg.Version)
	}
	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("Expected default base URL, got %s", cfg.Server.BaseURL)
	}
	if cfg.Server.AnalyzePath != "/api/analyze-report" {
		t.Errorf("Expected analyze path /api/analyze-report, got %s", cfg.Server.AnalyzePath)
	}
	if cfg.Server.UploadTimeout != 10*time.Minute {
		t.Errorf("Expected upload timeout 10m, got %v", cfg.Server.UploadTimeout)
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected output format text, got %s", cfg.Output.DefaultFormat)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected debounce 500ms, got %v", cfg.Watch.Debounce)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing base url",
			modify:  func(c *Config) { c.Server.BaseURL = "" },
			wantErr: true,
			errMsg:  "server.base_url failed 'required' check",
		},
		{
			name:    "malformed base url",
			modify:  func(c *Config) { c.Server.BaseURL = "localhost" },
			wantErr: true,
			errMsg:  "server.base_url failed 'url' check",
		},
		{
			name:    "relative analyze path",
			modify:  func(c *Config) { c.Server.AnalyzePath = "api/analyze-report" },
			wantErr: true,
			errMsg:  "server.analyze_path failed 'startswith' check",
		},
		{
			name:    "zero upload timeout",
			modify:  func(c *Config) { c.Server.UploadTimeout = 0 },
			wantErr: true,
			errMsg:  "server.upload_timeout failed 'gt' check",
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
			errMsg:  "watch.debounce failed 'gte' check",
		},
		{
			name:    "invalid output format",
			modify:  func(c *Config) { c.Output.DefaultFormat = "yaml" },
			wantErr: true,
			errMsg:  "invalid output format: yaml (must be one of: json, text, markdown, csv)",
		},
		{
			name:    "invalid color mode",
			modify:  func(c *Config) { c.Output.ColorMode = "sometimes" },
			wantErr: true,
			errMsg:  "invalid color mode: sometimes (must be one of: auto, always, never)",
		},
		{
			name:    "invalid theme",
			modify:  func(c *Config) { c.Output.Theme = "neon" },
			wantErr: true,
			errMsg:  "invalid theme: neon (must be one of: default, high-contrast, minimal)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestClientConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BaseURL = "https://reports.example.com"
	cfg.Server.ChatTimeout = 30 * time.Second

	cc := cfg.ClientConfig()
	if cc.BaseURL != "https://reports.example.com" {
		t.Errorf("Expected base URL to carry over, got %s", cc.BaseURL)
	}
	if cc.ChatTimeout != 30*time.Second {
		t.Errorf("Expected chat timeout 30s, got %v", cc.ChatTimeout)
	}
	if err := cc.Validate(); err != nil {
		t.Errorf("Client config should be valid: %v", err)
	}
}

func TestYamlPath(t *testing.T) {
	tests := map[string]string{
		"Config.Server.BaseURL":       "server.base_url",
		"Config.Server.UploadTimeout": "server.upload_timeout",
		"Config.Watch.Debounce":       "watch.debounce",
		"Version":                     "version",
	}
	for in, want := range tests {
		if got := yamlPath(in); got != want {
			t.Errorf("yamlPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSampleConfigsParse(t *testing.T) {
	for name, sample := range map[string]string{"full": SampleConfig, "minimal": MinimalSampleConfig} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := yaml.Unmarshal([]byte(sample), cfg); err != nil {
				t.Fatalf("Sample config does not parse: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Sample config is invalid: %v", err)
			}
			if cfg.Server.UploadTimeout != 10*time.Minute {
				t.Errorf("Expected upload timeout 10m, got %v", cfg.Server.UploadTimeout)
			}
		})
	}
}
