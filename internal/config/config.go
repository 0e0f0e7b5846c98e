package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"

	"github.com/VikingOwl91/witness/internal/resolution"
	"github.com/VikingOwl91/witness/internal/supply"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for the configuration file.
const DefaultPath = "witness.yaml"

var configurationPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

type VerificationConfig struct {
	Configuration string   `yaml:"configuration,omitempty"`
	Verify        []string `yaml:"verify,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty"`
}

type SupplyChainConfig struct {
	Repository   string   `yaml:"repository,omitempty"`
	AllowedPaths []string `yaml:"allowed_paths,omitempty"`
}

type Config struct {
	DependencyVerification VerificationConfig `yaml:"dependency_verification"`
	SupplyChain            SupplyChainConfig  `yaml:"supply_chain,omitempty"`
	LogLevel               string             `yaml:"log_level"`
	LogFormat              string             `yaml:"log_format"`

	policy supply.Policy
}

// gradleConfig detects the build-script spelling "dependencyVerification:".
type gradleConfig struct {
	DependencyVerification *VerificationConfig `yaml:"dependencyVerification"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var old gradleConfig
	if err := yaml.Unmarshal(data, &old); err == nil && old.DependencyVerification != nil {
		return nil, fmt.Errorf("parsing config %s: 'dependencyVerification:' is not a config key, use 'dependency_verification:'", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate fills defaults and parses the verify and exclude entries.
func (c *Config) Validate() error {
	if c.DependencyVerification.Configuration == "" {
		c.DependencyVerification.Configuration = resolution.DefaultConfiguration
	}
	if !configurationPattern.MatchString(c.DependencyVerification.Configuration) {
		return fmt.Errorf("configuration name %q must match [a-zA-Z0-9_.-]+", c.DependencyVerification.Configuration)
	}

	policy, err := supply.ParsePolicy(c.DependencyVerification.Verify, c.DependencyVerification.Exclude)
	if err != nil {
		return err
	}
	c.policy = policy

	if c.SupplyChain.Repository != "" {
		c.SupplyChain.Repository = supply.ExpandTilde(c.SupplyChain.Repository)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	if c.LogFormat == "" {
		c.LogFormat = "auto"
	}
	switch c.LogFormat {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("log_format must be one of auto, json, text, got %q", c.LogFormat)
	}

	return nil
}

// Policy returns a copy of the entries parsed by Validate.
func (c *Config) Policy() supply.Policy {
	return supply.Policy{
		Excludes: slices.Clone(c.policy.Excludes),
		Pins:     slices.Clone(c.policy.Pins),
	}
}
