package client

import (
	"net/url"
	"time"
)

// Config holds analysis service connection settings
type Config struct {
	// BaseURL is the analysis service root
	BaseURL string

	// AnalyzePath is the multipart upload endpoint
	AnalyzePath string

	// ChatPath is the question answering endpoint
	ChatPath string

	// UploadTimeout bounds a whole analyze-report call, processing included
	UploadTimeout time.Duration

	// ChatTimeout bounds a chat-with-report call
	ChatTimeout time.Duration
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "http://localhost:8000",
		AnalyzePath:   "/api/analyze-report",
		ChatPath:      "/api/chat-with-report",
		UploadTimeout: 10 * time.Minute,
		ChatTimeout:   2 * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return NewError(ErrTypeConfiguration, "base URL is required", "")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return NewErrorWithCause(ErrTypeConfiguration, "invalid base URL", c.BaseURL, err)
	}
	if c.AnalyzePath == "" || c.ChatPath == "" {
		return NewError(ErrTypeConfiguration, "endpoint paths are required", "")
	}
	if c.UploadTimeout <= 0 {
		return NewError(ErrTypeConfiguration, "upload timeout must be positive", "")
	}
	if c.ChatTimeout <= 0 {
		return NewError(ErrTypeConfiguration, "chat timeout must be positive", "")
	}
	return nil
}
