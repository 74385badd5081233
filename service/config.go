package service

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration. Timeouts and intervals are in
// seconds, matching the wire-facing YAML file.
type Config struct {
	// HTTP configuration
	ListenAddr string `yaml:"listenAddr"`

	// Downstream collaborators
	ClientID        string `yaml:"clientId"`
	SMPCURL         string `yaml:"smpcUrl"`
	OrchestratorURL string `yaml:"orchestratorUrl"`

	// Dataset fetching
	FetchTimeout int      `yaml:"fetchTimeout"` // Seconds
	SearchRoots  []string `yaml:"searchRoots"`  // Relative-path candidates, in order

	// Output artifacts
	OutputDir         string `yaml:"outputDir"`  // "" disables persistence
	ResultsDir        string `yaml:"resultsDir"` // Poller snapshots
	CompressArtifacts bool   `yaml:"compressArtifacts"`

	// Downstream POSTs
	PostTimeout int `yaml:"postTimeout"` // Seconds

	// Result polling
	PollResults  bool `yaml:"pollResults"`
	PollInterval int  `yaml:"pollInterval"` // Seconds
	PollTimeout  int  `yaml:"pollTimeout"`  // Seconds, whole polling loop

	// Logging
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"` // "" = stdout only
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:   ":5001",
		FetchTimeout: 30,
		SearchRoots:  []string{".", "/app", "..", "./app"},
		OutputDir:    "output",
		ResultsDir:   "results",
		PostTimeout:  30,
		PollInterval: 10,
		PollTimeout:  1200,
		LogLevel:     "INFO",
	}
}

// Option is a functional option for configuration.
type Option func(*Config)

// WithOutputDir sets the artifact output directory; "" disables persistence.
func WithOutputDir(dir string) Option {
	return func(c *Config) { c.OutputDir = dir }
}

// WithCompression toggles zstd compression of persisted artifacts.
func WithCompression(enabled bool) Option {
	return func(c *Config) { c.CompressArtifacts = enabled }
}

// WithPolling enables background result polling with the given interval and
// timeout, both in seconds.
func WithPolling(interval, timeout int) Option {
	return func(c *Config) {
		c.PollResults = true
		c.PollInterval = interval
		c.PollTimeout = timeout
	}
}

// LoadConfig reads a YAML config file over the defaults and then applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides config fields from the environment. The variable names
// match the deployment contract: ID, SMPC_URL, ORCHESTRATOR_URL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("SMPC_URL"); v != "" {
		c.SMPCURL = v
	}
	if v := os.Getenv("ORCHESTRATOR_URL"); v != "" {
		c.OrchestratorURL = v
	}
}
