package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ScraperFileConfig represents scraper settings from the config file.
// Durations are expressed as Go duration strings ("10s", "1m30s").
type ScraperFileConfig struct {
	MinViableRecords  int    `yaml:"min_viable_records"`
	MinRepeatedBlocks int    `yaml:"min_repeated_blocks"`
	Concurrency       int    `yaml:"concurrency"`
	StaticTimeout     string `yaml:"static_timeout"`
	RenderTimeout     string `yaml:"render_timeout"`
	ProbeTimeout      string `yaml:"probe_timeout"`
	MaxResults        int    `yaml:"max_results"`
	UserAgent         string `yaml:"user_agent"`
}

// StorageFileConfig represents storage settings from the config file.
type StorageFileConfig struct {
	DSN string `yaml:"dsn"`
}

// FileConfig represents the structure of ~/.dirscout/config.yaml.
type FileConfig struct {
	Scraper ScraperFileConfig `yaml:"scraper"`
	Storage StorageFileConfig `yaml:"storage"`
}

// LoadConfigFile loads configuration from ~/.dirscout/config.yaml. Returns
// nil if the file doesn't exist (not an error). Returns error if the file
// exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	return LoadConfigFileFrom(filepath.Join(homeDir, ".dirscout", "config.yaml"))
}

// LoadConfigFileFrom loads configuration from an explicit path, with the
// same missing-file semantics as LoadConfigFile.
func LoadConfigFileFrom(configPath string) (*FileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Apply overlays non-zero file values onto a Config. Unset fields keep the
// values already present on cfg.
func (fc *FileConfig) Apply(cfg *Config) error {
	if fc == nil {
		return nil
	}

	s := fc.Scraper
	if s.MinViableRecords > 0 {
		cfg.MinViableRecords = s.MinViableRecords
	}
	if s.MinRepeatedBlocks > 0 {
		cfg.MinRepeatedBlocks = s.MinRepeatedBlocks
	}
	if s.Concurrency > 0 {
		cfg.Concurrency = s.Concurrency
	}
	if s.MaxResults > 0 {
		cfg.MaxResults = s.MaxResults
	}
	if s.UserAgent != "" {
		cfg.UserAgent = s.UserAgent
	}

	for _, d := range []struct {
		raw  string
		dest *time.Duration
	}{
		{s.StaticTimeout, &cfg.StaticTimeout},
		{s.RenderTimeout, &cfg.RenderTimeout},
		{s.ProbeTimeout, &cfg.ProbeTimeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q in config file: %w", d.raw, err)
		}
		*d.dest = parsed
	}

	return nil
}
