package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database      string `yaml:"database"`
	CheckpointDir string `yaml:"checkpoint_dir"`
	LogLevel      string `yaml:"log_level"`
	MetricsAddr   string `yaml:"metrics_addr"`
	Batch         Batch  `yaml:"batch"`
}

// Batch represents batch-run configuration
type Batch struct {
	Size          int  `yaml:"size"`
	Workers       int  `yaml:"workers"`
	MaxRetries    int  `yaml:"max_retries"`
	RetryDelayMs  int  `yaml:"retry_delay_ms"`
	ItemTimeoutMs int  `yaml:"item_timeout_ms"`
	Resume        bool `yaml:"resume"`
}

// Load loads configuration from file and command line flags
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{
		Database:      "./biblos.db",
		CheckpointDir: "./checkpoints",
		LogLevel:      "info",
		Batch: Batch{
			Size:          50,
			Workers:       4,
			MaxRetries:    3,
			RetryDelayMs:  2000,
			ItemTimeoutMs: 30000,
			Resume:        true,
		},
	}

	// Load from YAML file if provided
	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with command line flags
	if err := loadFromFlags(cfg, flags); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func loadFromFlags(cfg *Config, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}

	if flags.Changed("db") {
		cfg.Database, _ = flags.GetString("db")
	}
	if flags.Changed("checkpoint-dir") {
		cfg.CheckpointDir, _ = flags.GetString("checkpoint-dir")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("batch-size") {
		cfg.Batch.Size, _ = flags.GetInt("batch-size")
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("retries") {
		cfg.Batch.MaxRetries, _ = flags.GetInt("retries")
	}
	if flags.Changed("retry-delay-ms") {
		cfg.Batch.RetryDelayMs, _ = flags.GetInt("retry-delay-ms")
	}
	if flags.Changed("item-timeout-ms") {
		cfg.Batch.ItemTimeoutMs, _ = flags.GetInt("item-timeout-ms")
	}
	if flags.Changed("resume") {
		cfg.Batch.Resume, _ = flags.GetBool("resume")
	}

	return nil
}

func (c *Config) validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path is required")
	}

	if c.CheckpointDir == "" {
		return fmt.Errorf("checkpoint directory is required")
	}

	if c.Batch.Size <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}

	if c.Batch.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}

	return nil
}
