// SPDX-License-Identifier: MIT

// Package config provides configuration management for imgcapt.
// Defaults are overridden by an optional YAML file, which is in turn
// overridden by IMGCAPT_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the effective daemon configuration.
type Config struct {
	Listen      string `yaml:"listen,omitempty"`
	DataDir     string `yaml:"dataDir,omitempty"`
	FrontendDir string `yaml:"frontendDir,omitempty"`
	LogLevel    string `yaml:"logLevel,omitempty"`

	Ollama OllamaConfig `yaml:"ollama"`
	Stream StreamConfig `yaml:"stream,omitempty"`
	API    APIConfig    `yaml:"api,omitempty"`
}

// OllamaConfig holds the captioning model client configuration.
type OllamaConfig struct {
	BaseURL string `yaml:"baseUrl,omitempty"`
	Model   string `yaml:"model,omitempty"`
	// Timeout bounds one caption generation call.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// ProbeTimeout bounds the liveness probe against the model service.
	ProbeTimeout time.Duration `yaml:"probeTimeout,omitempty"`
}

// StreamConfig holds the SSE subsystem configuration.
type StreamConfig struct {
	// QueueSize bounds each subscriber's pending-message queue.
	QueueSize int `yaml:"queueSize,omitempty"`
	// Keepalive is the idle interval between synthetic keepalive frames.
	Keepalive time.Duration `yaml:"keepalive,omitempty"`
}

// APIConfig holds HTTP ingress configuration.
type APIConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	// RateLimitRPM limits requests per client IP per minute. 0 disables.
	RateLimitRPM int `yaml:"rateLimitRPM,omitempty"`
	// MaxUploadBytes bounds a single multipart upload.
	MaxUploadBytes int64 `yaml:"maxUploadBytes,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:   ":8000",
		DataDir:  "data",
		LogLevel: "info",
		Ollama: OllamaConfig{
			BaseURL:      "http://localhost:11434",
			Model:        "llava:7b",
			Timeout:      120 * time.Second,
			ProbeTimeout: 5 * time.Second,
		},
		Stream: StreamConfig{
			QueueSize: 100,
			Keepalive: 30 * time.Second,
		},
		API: APIConfig{
			RateLimitRPM:   0,
			MaxUploadBytes: 64 << 20,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty or missing), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		switch {
		case os.IsNotExist(err):
			// Optional file; fall through to env overrides.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Listen, "IMGCAPT_LISTEN")
	setString(&cfg.DataDir, "IMGCAPT_DATA")
	setString(&cfg.FrontendDir, "IMGCAPT_FRONTEND")
	setString(&cfg.LogLevel, "IMGCAPT_LOG_LEVEL")
	setString(&cfg.Ollama.BaseURL, "IMGCAPT_OLLAMA_URL")
	setString(&cfg.Ollama.Model, "IMGCAPT_OLLAMA_MODEL")
	setDuration(&cfg.Ollama.Timeout, "IMGCAPT_OLLAMA_TIMEOUT")
	setDuration(&cfg.Ollama.ProbeTimeout, "IMGCAPT_OLLAMA_PROBE_TIMEOUT")
	setInt(&cfg.Stream.QueueSize, "IMGCAPT_STREAM_QUEUE_SIZE")
	setDuration(&cfg.Stream.Keepalive, "IMGCAPT_STREAM_KEEPALIVE")
	setInt(&cfg.API.RateLimitRPM, "IMGCAPT_RATE_LIMIT_RPM")

	if v := os.Getenv("IMGCAPT_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.API.AllowedOrigins = origins
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data directory is empty")
	}
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address is empty")
	}

	base := strings.TrimSpace(c.Ollama.BaseURL)
	if base == "" {
		return fmt.Errorf("ollama base URL is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid ollama base URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported ollama base URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("ollama base URL %q is missing host", base)
	}

	if c.Ollama.Model == "" {
		return fmt.Errorf("ollama model is empty")
	}
	if c.Stream.QueueSize < 0 {
		return fmt.Errorf("stream queue size must be >= 0")
	}
	if c.Stream.Keepalive < 0 {
		return fmt.Errorf("stream keepalive must be >= 0")
	}
	return nil
}
