package types

import (
	"fmt"
	"strings"
)

// Config represents the overall application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Reviser   ReviserConfig   `yaml:"reviser" json:"reviser"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// PathsConfig holds the project folders. Relative folders are resolved
// against RootDir when the configuration is loaded.
type PathsConfig struct {
	RootDir       string `yaml:"root_dir" json:"root_dir"`
	CacheDir      string `yaml:"cache_dir" json:"cache_dir"`
	DataDir       string `yaml:"data_dir" json:"data_dir"`
	StaticDir     string `yaml:"static_dir" json:"static_dir"`
	SampleEpubDir string `yaml:"sample_epub_dir" json:"sample_epub_dir"`
	DumpDir       string `yaml:"dump_dir" json:"dump_dir"`
}

// String renders the folders one per line, aligned on the colon
func (p PathsConfig) String() string {
	rows := [][2]string{
		{"root_dir", p.RootDir},
		{"cache_dir", p.CacheDir},
		{"data_dir", p.DataDir},
		{"static_dir", p.StaticDir},
		{"sample_epub_dir", p.SampleEpubDir},
		{"dump_dir", p.DumpDir},
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}

	var sb strings.Builder
	sb.WriteString("Paths:\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("  %*s: %s\n", width, r[0], r[1]))
	}
	return sb.String()
}

// StorageConfig defines storage adapter settings
type StorageConfig struct {
	Adapter string            `yaml:"adapter" json:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts  `yaml:"local" json:"local"`
	S3      S3StorageOpts     `yaml:"s3" json:"s3"`
	Options map[string]string `yaml:"options" json:"options"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
}

// ProvidersConfig holds all provider configurations
type ProvidersConfig struct {
	LLM []LLMProviderConfig `yaml:"llm" json:"llm"`
}

// LLMProviderConfig configures an LLM provider
type LLMProviderConfig struct {
	Name         string            `yaml:"name" json:"name"`
	Enabled      bool              `yaml:"enabled" json:"enabled"`
	Endpoint     string            `yaml:"endpoint" json:"endpoint"`
	APIKey       string            `yaml:"api_key" json:"api_key"`
	Model        string            `yaml:"model" json:"model"`
	RateLimitQPS float64           `yaml:"rate_limit_qps" json:"rate_limit_qps"`
	Options      map[string]string `yaml:"options" json:"options"` // timeout, temperature, max_tokens, json_mode
}

// ReviserConfig holds chapter revision settings
type ReviserConfig struct {
	Provider       string `yaml:"provider" json:"provider"` // LLM provider name; empty picks the only one registered
	Concurrency    int    `yaml:"concurrency" json:"concurrency"`
	MaxRetries     int    `yaml:"max_retries" json:"max_retries"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms" json:"retry_backoff_ms"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"` // debug, info, warn, error
	Development bool   `yaml:"development" json:"development"`
}
