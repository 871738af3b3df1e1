// Package config holds pyretscan's constants and its YAML configuration.
//
// A pyretscan.yaml file looks like:
//
//	externals: [paren_no_space, paren_space, paren_after_brace]
//	candidates: [ParenNoSpace, ParenAfterSpace, OpenAngle, CloseAngle]
//	advisories: false
//	checkpoints: .pyretscan/checkpoints.db
//	listen: 127.0.0.1:7411
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/pyretscan/internal/scanner"
)

// Config represents the top-level pyretscan.yaml configuration.
type Config struct {
	// Externals is the order of the grammar's external symbols, i.e. the
	// layout of the engine's valid-symbols array. Defaults to the full
	// scanner symbol order.
	Externals []string `yaml:"externals,omitempty"`

	// Candidates is the set offered at every position by `pyretscan trace`.
	// Defaults to every symbol except ErrorSentinel.
	Candidates []string `yaml:"candidates,omitempty"`

	// Advisories controls the scanner's advisory log lines. Defaults to true.
	Advisories *bool `yaml:"advisories,omitempty"`

	// Checkpoints is a SQLite file for scanner checkpoints. Empty keeps
	// them in memory.
	Checkpoints string `yaml:"checkpoints,omitempty"`

	// Listen is the gRPC listen address for `pyretscan serve`.
	Listen string `yaml:"listen,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a pyretscan.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses pyretscan.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) validate(path string) error {
	seen := make(map[scanner.Symbol]bool)
	for i, name := range c.Externals {
		sym, ok := scanner.ParseSymbol(name)
		if !ok {
			return fmt.Errorf("%s: externals[%d]: unknown symbol %q", path, i, name)
		}
		if seen[sym] {
			return fmt.Errorf("%s: externals[%d]: duplicate symbol %q", path, i, name)
		}
		seen[sym] = true
	}
	if _, unknown := scanner.ParseCandidates(c.Candidates); len(unknown) > 0 {
		return fmt.Errorf("%s: candidates: unknown symbols %s", path, strings.Join(unknown, ", "))
	}
	return nil
}

func (c *Config) setDefaults() {
	if len(c.Externals) == 0 {
		for _, s := range scanner.DefaultLayout {
			c.Externals = append(c.Externals, s.String())
		}
	}
	if len(c.Candidates) == 0 {
		for _, s := range scanner.Symbols() {
			if s != scanner.ErrorSentinel {
				c.Candidates = append(c.Candidates, s.String())
			}
		}
	}
	if c.Advisories == nil {
		on := true
		c.Advisories = &on
	}
	if c.Listen == "" {
		c.Listen = DefaultListenAddr
	}
}

// Layout returns the engine symbol layout. The config must have been
// validated.
func (c *Config) Layout() scanner.Layout {
	layout := make(scanner.Layout, 0, len(c.Externals))
	for _, name := range c.Externals {
		if sym, ok := scanner.ParseSymbol(name); ok {
			layout = append(layout, sym)
		}
	}
	return layout
}

func (c *Config) CandidateSet() scanner.CandidateSet {
	set, _ := scanner.ParseCandidates(c.Candidates)
	return set
}

// AdvisoriesEnabled reports the effective advisories setting.
func (c *Config) AdvisoriesEnabled() bool {
	return c.Advisories == nil || *c.Advisories
}

// Resolve finds the config file to use: an explicit path wins, then the
// environment variable, then DefaultConfigFile in the working directory.
// It returns Default() when none exists.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		return LoadConfig(explicit)
	}
	if env := os.Getenv(ConfigEnvVar); env != "" {
		return LoadConfig(env)
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return LoadConfig(DefaultConfigFile)
	}
	return Default(), nil
}
