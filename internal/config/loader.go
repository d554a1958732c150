package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "ES_"

// Load reads and parses the configuration file on top of the defaults.
// An empty path loads the defaults alone. Environment variables prefixed
// with ES_ override file values.
func Load(configPath string) (*types.Config, error) {
	cfg := GetDefault()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid. It resolves relative project
// folders and fills in defaults for unset tuning values. Local storage without
// a base path writes to the dump folder.
func Validate(cfg *types.Config) error {
	if cfg.Paths.RootDir == "" {
		return fmt.Errorf("paths root_dir is required")
	}
	resolvePaths(&cfg.Paths)

	if cfg.Storage.Adapter != "local" && cfg.Storage.Adapter != "s3" {
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	if cfg.Storage.Adapter == "local" {
		if cfg.Storage.Local.BasePath == "" {
			cfg.Storage.Local.BasePath = cfg.Paths.DumpDir
		}
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		cfg.Storage.Local.BasePath = expandHome(cfg.Storage.Local.BasePath)
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	}

	if cfg.Storage.Adapter == "s3" {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	}

	seen := make(map[string]bool)
	for _, llm := range cfg.Providers.LLM {
		if llm.Name == "" {
			return fmt.Errorf("llm provider name is required")
		}
		if seen[llm.Name] {
			return fmt.Errorf("duplicate llm provider: %s", llm.Name)
		}
		seen[llm.Name] = true
		if llm.RateLimitQPS < 0 {
			return fmt.Errorf("llm provider %s: rate_limit_qps must not be negative", llm.Name)
		}
	}

	if cfg.Reviser.Concurrency <= 0 {
		cfg.Reviser.Concurrency = 3 // default
	}
	if cfg.Reviser.MaxRetries < 0 {
		cfg.Reviser.MaxRetries = 2 // default
	}
	if cfg.Reviser.RetryBackoffMs <= 0 {
		cfg.Reviser.RetryBackoffMs = 2000 // default
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if _, err := zapcore.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	return nil
}

// resolvePaths expands a leading ~ and anchors relative folders at RootDir
func resolvePaths(p *types.PathsConfig) {
	p.RootDir = expandHome(p.RootDir)
	for _, dir := range []*string{&p.CacheDir, &p.DataDir, &p.StaticDir, &p.SampleEpubDir, &p.DumpDir} {
		if *dir == "" {
			continue
		}
		*dir = expandHome(*dir)
		if !filepath.IsAbs(*dir) {
			*dir = filepath.Join(p.RootDir, *dir)
		}
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// applyEnvOverrides applies environment variable overrides
// Environment variables should be prefixed with ES_ (EpubSummary)
func applyEnvOverrides(cfg *types.Config) {
	// Paths overrides
	if val := os.Getenv(EnvPrefix + "PATHS_ROOT"); val != "" {
		cfg.Paths.RootDir = val
	}

	// Storage overrides
	if val := os.Getenv(EnvPrefix + "STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv(EnvPrefix + "STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv(EnvPrefix + "STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv(EnvPrefix + "STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv(EnvPrefix + "STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv(EnvPrefix + "STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv(EnvPrefix + "STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}

	// Reviser overrides
	if val := os.Getenv(EnvPrefix + "REVISER_PROVIDER"); val != "" {
		cfg.Reviser.Provider = val
	}
	if val := os.Getenv(EnvPrefix + "REVISER_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Reviser.Concurrency = n
		}
	}

	// Logging overrides
	if val := os.Getenv(EnvPrefix + "LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}

	applyProviderEnvOverrides(cfg)
}

// applyProviderEnvOverrides applies provider-specific env vars
func applyProviderEnvOverrides(cfg *types.Config) {
	for i := range cfg.Providers.LLM {
		prefix := fmt.Sprintf("%sLLM_%s_", EnvPrefix, envName(cfg.Providers.LLM[i].Name))
		if val := os.Getenv(prefix + "API_KEY"); val != "" {
			cfg.Providers.LLM[i].APIKey = val
		}
		if val := os.Getenv(prefix + "ENDPOINT"); val != "" {
			cfg.Providers.LLM[i].Endpoint = val
		}
		if val := os.Getenv(prefix + "MODEL"); val != "" {
			cfg.Providers.LLM[i].Model = val
		}
	}
}

// envName upper-cases a provider name and maps characters that are not
// valid in variable names to underscores
func envName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, name)
}

// GetDefault returns a default configuration rooted at the user's home
func GetDefault() *types.Config {
	root := "."
	if home, err := os.UserHomeDir(); err == nil {
		root = filepath.Join(home, ".epubsummary")
	}

	return &types.Config{
		Paths: types.PathsConfig{
			RootDir:       root,
			CacheDir:      "cache",
			DataDir:       "data",
			StaticDir:     "static",
			SampleEpubDir: "~/repos/snippet/datasets/ebook",
			DumpDir:       "~/ephem/epub/dump",
		},
		Storage: types.StorageConfig{
			Adapter: "local", // base_path defaults to the dump folder
		},
		Reviser: types.ReviserConfig{
			Concurrency:    3,
			MaxRetries:     2,
			RetryBackoffMs: 2000,
		},
		Logging: types.LoggingConfig{
			Level: "info",
		},
	}
}
