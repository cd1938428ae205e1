// Package config loads and validates the mover configuration file.
//
// The file is YAML with environment variable expansion; a .env file next to
// the process is loaded first so ${AWS_SECRET...} style references resolve.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/beetmover/internal/errors"
)

// Config represents the application configuration
type Config struct {
	// WorkDir is the scratch root: task.json lives here and downloads land
	// beneath it. The source validator never lets a path escape it.
	WorkDir string `yaml:"work_dir"`

	// ArtifactRoot is the base URL of the upstream artifact store used to
	// recognize trusted source URLs.
	ArtifactRoot string `yaml:"artifact_root"`

	S3          S3Config      `yaml:"s3"`
	Retry       RetryConfig   `yaml:"retry"`
	Concurrency int           `yaml:"concurrency"`
	URLExpiry   time.Duration `yaml:"url_expiry"`

	// VerifyChecksums enables digest verification of downloads when the task
	// payload carries expected digests.
	VerifyChecksums bool `yaml:"verify_checksums"`

	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// S3Config identifies the destination bucket and the credentials used to
// presign PUT URLs. The transfer primitive itself never sees the credentials.
type S3Config struct {
	Bucket      string      `yaml:"bucket"`
	Region      string      `yaml:"region"`
	Credentials Credentials `yaml:"credentials"`
}

// Credentials are the static access keys for URL signing.
type Credentials struct {
	ID  string `yaml:"id"`
	Key string `yaml:"key"`
}

// RetryConfig carries raw retry/backoff settings; retry.NewPolicy normalizes them.
type RetryConfig struct {
	MaxAttempts int              `yaml:"max_attempts"`
	Backoff     RetryBackoffMode `yaml:"backoff"`
	Initial     time.Duration    `yaml:"initial"`
	Max         time.Duration    `yaml:"max"`
	MaxElapsed  time.Duration    `yaml:"max_elapsed"`
}

// LoggingConfig selects slog level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the Prometheus recorder and its listen address.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just note it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to unmarshal config")
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.URLExpiry <= 0 {
		// presigned PUT URLs in the reference deployment expire in ~30s
		c.URLExpiry = 30 * time.Second
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 5
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = RetryBackoffExponential
	}
	if c.Retry.Initial <= 0 {
		c.Retry.Initial = time.Second
	}
	if c.Retry.Max <= 0 {
		c.Retry.Max = 30 * time.Second
	}
	if c.Retry.MaxElapsed <= 0 {
		c.Retry.MaxElapsed = 5 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9464"
	}
}

// Validate checks required fields. Missing storage or work dir settings are
// fatal before any job runs.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return errors.ConfigRequired("work_dir")
	}
	if c.ArtifactRoot == "" {
		return errors.ConfigRequired("artifact_root")
	}
	if c.S3.Bucket == "" {
		return errors.ConfigRequired("s3.bucket")
	}
	if c.S3.Region == "" {
		return errors.ConfigRequired("s3.region")
	}
	if c.S3.Credentials.ID == "" || c.S3.Credentials.Key == "" {
		return errors.ConfigRequired("s3.credentials")
	}
	if NormalizeRetryBackoff(string(c.Retry.Backoff)) == "" {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal, "unknown retry backoff mode").
			WithContext("backoff", string(c.Retry.Backoff))
	}
	return nil
}
