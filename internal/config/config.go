package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chriserin/retrygen/internal/policy"
)

// FileName is the configuration file created by init.
const FileName = ".retrygen.yaml"

// Config is the project configuration read from .retrygen.yaml.
type Config struct {
	// Features is the doublestar pattern used when no files are given.
	Features  string `yaml:"features"`
	OutputDir string `yaml:"output_dir"`
	Manifest  string `yaml:"manifest"`
	Namespace string `yaml:"namespace"`
	Workers   int    `yaml:"workers"`

	// AllowRowTests emits outline variants as rows of one row test instead
	// of one method per example row.
	AllowRowTests     bool   `yaml:"allow_row_tests"`
	ParallelExecution bool   `yaml:"parallel_execution"`
	TestRunnerField   string `yaml:"test_runner_field"`

	Tags TagConfig `yaml:"tags"`
}

// TagConfig names the tags the generator reacts to.
type TagConfig struct {
	Retry       string `yaml:"retry"`
	RetryExcept string `yaml:"retry_except"`
	Ignore      string `yaml:"ignore"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Features:        "features/**/*.feature",
		OutputDir:       "generated",
		Manifest:        ".retrygen/manifest.db",
		Namespace:       "Features",
		Workers:         runtime.NumCPU(),
		TestRunnerField: "testRunner",
		Tags: TagConfig{
			Retry:       policy.DefaultRetryTag,
			RetryExcept: policy.DefaultRetryExceptTag,
			Ignore:      "ignore",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("RETRYGEN_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if ns := os.Getenv("RETRYGEN_NAMESPACE"); ns != "" {
		c.Namespace = ns
	}
}

// Validate checks the configuration for values the generator cannot use.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Features) == "" {
		errs = append(errs, errors.New("features pattern is empty"))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if strings.TrimSpace(c.TestRunnerField) == "" {
		errs = append(errs, errors.New("test_runner_field is empty"))
	}
	if c.Tags.Retry == "" || c.Tags.RetryExcept == "" {
		errs = append(errs, errors.New("tags.retry and tags.retry_except must be set"))
	} else if strings.EqualFold(c.Tags.Retry, c.Tags.RetryExcept) {
		errs = append(errs, fmt.Errorf("tags.retry and tags.retry_except are both %q", c.Tags.Retry))
	}
	return errors.Join(errs...)
}

// Resolver returns the tag policy resolver for the configured tag names.
func (c *Config) Resolver() policy.Resolver {
	return policy.Resolver{RetryTag: c.Tags.Retry, RetryExceptTag: c.Tags.RetryExcept}
}
