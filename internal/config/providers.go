package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DiscoveryConfig configures the email discovery and verification provider.
// The free tier is quota-limited (roughly 25 domain searches and 50
// verifications per period), so the key is required before the pipeline
// will attempt discovery at all.
type DiscoveryConfig struct {
	APIKey  string
	BaseURL string
}

// NewDiscoveryConfig reads HUNTER_API_KEY (required) and HUNTER_BASE_URL
// (optional override, mainly for tests).
func NewDiscoveryConfig() (*DiscoveryConfig, error) {
	cfg := &DiscoveryConfig{
		APIKey:  os.Getenv("HUNTER_API_KEY"),
		BaseURL: os.Getenv("HUNTER_BASE_URL"),
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("HUNTER_API_KEY is required but not set")
	}
	return cfg, nil
}

// JobSearchConfig configures the job-search provider.
type JobSearchConfig struct {
	APIKey  string
	BaseURL string
}

// NewJobSearchConfig reads JSEARCH_API_KEY (required) and JSEARCH_BASE_URL
// (optional override).
func NewJobSearchConfig() (*JobSearchConfig, error) {
	cfg := &JobSearchConfig{
		APIKey:  os.Getenv("JSEARCH_API_KEY"),
		BaseURL: os.Getenv("JSEARCH_BASE_URL"),
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("JSEARCH_API_KEY is required but not set")
	}
	return cfg, nil
}

// SMTPConfig configures outbound email. All fields are required; without
// them the sending stage records every row as failed instead of guessing.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPConfig reads SMTP_HOST, SMTP_PORT (default 587), SMTP_USERNAME,
// SMTP_PASSWORD and SMTP_FROM. Returns nil without error when SMTP_HOST is
// unset so the caller can run in draft-only mode.
func NewSMTPConfig() (*SMTPConfig, error) {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil, nil
	}

	port := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 65535 {
			return nil, fmt.Errorf("invalid SMTP_PORT: %q", v)
		}
		port = parsed
	}

	cfg := &SMTPConfig{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	return cfg, nil
}

// ChatConfig configures the local chat-completion service.
type ChatConfig struct {
	BaseURL      string
	DefaultModel string
}

// NewChatConfig reads CHAT_BASE_URL (default http://localhost:11434) and
// CHAT_DEFAULT_MODEL (default llama3).
func NewChatConfig() *ChatConfig {
	cfg := &ChatConfig{
		BaseURL:      os.Getenv("CHAT_BASE_URL"),
		DefaultModel: os.Getenv("CHAT_DEFAULT_MODEL"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "llama3"
	}
	return cfg
}

// PipelineConfig holds pipeline-level tunables.
type PipelineConfig struct {
	OutputDir string
	// GateTTL expires unanswered approval gates; zero disables expiry.
	GateTTL time.Duration
}

// NewPipelineConfig reads OUTPUT_DIR (default ./output) and
// APPROVAL_GATE_TTL (Go duration string, default disabled).
func NewPipelineConfig() (*PipelineConfig, error) {
	cfg := &PipelineConfig{OutputDir: os.Getenv("OUTPUT_DIR")}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}

	if v := os.Getenv("APPROVAL_GATE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid APPROVAL_GATE_TTL: %v", err)
		}
		if ttl < 0 {
			return nil, fmt.Errorf("APPROVAL_GATE_TTL must not be negative, got: %s", v)
		}
		cfg.GateTTL = ttl
	}
	return cfg, nil
}
