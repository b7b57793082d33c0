package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yildizm/ReportLens/internal/client"
)

// Config holds the complete application configuration
type Config struct {
	Version string       `yaml:"version" json:"version"`
	Server  ServerConfig `yaml:"server" json:"server"`
	Output  OutputConfig `yaml:"output" json:"output"`
	Watch   WatchConfig  `yaml:"watch" json:"watch"`
}

// ServerConfig configures the analysis service connection
type ServerConfig struct {
	BaseURL       string        `yaml:"base_url" json:"base_url" validate:"required,url"`
	AnalyzePath   string        `yaml:"analyze_path" json:"analyze_path" validate:"required,startswith=/"`
	ChatPath      string        `yaml:"chat_path" json:"chat_path" validate:"required,startswith=/"`
	UploadTimeout time.Duration `yaml:"upload_timeout" json:"upload_timeout" validate:"gt=0"` // whole analyze-report call
	ChatTimeout   time.Duration `yaml:"chat_timeout" json:"chat_timeout" validate:"gt=0"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // text|json|markdown|csv
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Theme         string `yaml:"theme" json:"theme"`                   // default|high-contrast|minimal
	Verbose       bool   `yaml:"verbose" json:"verbose"`
	ShowProgress  bool   `yaml:"show_progress" json:"show_progress"`
}

// WatchConfig configures directory watching
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" json:"debounce" validate:"gte=0"` // wait after the last write before uploading
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	svc := client.DefaultConfig()
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			BaseURL:       svc.BaseURL,
			AnalyzePath:   svc.AnalyzePath,
			ChatPath:      svc.ChatPath,
			UploadTimeout: svc.UploadTimeout,
			ChatTimeout:   svc.ChatTimeout,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			Theme:         "default",
			Verbose:       false,
			ShowProgress:  true,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// ClientConfig converts the server section into a client configuration
func (c *Config) ClientConfig() *client.Config {
	return &client.Config{
		BaseURL:       c.Server.BaseURL,
		AnalyzePath:   c.Server.AnalyzePath,
		ChatPath:      c.Server.ChatPath,
		UploadTimeout: c.Server.UploadTimeout,
		ChatTimeout:   c.Server.ChatTimeout,
	}
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describeValidationError(err)
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	if c.Output.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.Output.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.Output.Theme)
		}
	}
	return nil
}

// describeValidationError turns validator output into yaml-keyed messages
func describeValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed '%s' check", yamlPath(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// yamlPath converts "Config.Server.BaseURL" into "server.base_url"
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snakeCase(p)
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
