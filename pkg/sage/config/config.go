// Package config loads runtime configuration for the command-line
// drivers: where the knowledge-base text lives, where transcripts are
// audited, and interactive defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/sage/pkg/sage/internalerr"
)

// Config is the YAML configuration for the CLI drivers.
type Config struct {
	// KnowledgePath points at the knowledge-base source text.
	KnowledgePath string `yaml:"knowledge_path"`

	// AuditDBPath is the SQLite transcript database; empty disables
	// audit persistence.
	AuditDBPath string `yaml:"audit_db_path"`

	// DefaultTarget is the category resolved when none is given on the
	// command line; empty means best-conclusion mode.
	DefaultTarget string `yaml:"default_target"`

	// InitialFacts seed working memory for every session.
	InitialFacts map[string]string `yaml:"initial_facts"`
}

// Load reads a Config from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.KnowledgePath) == "" {
		return fmt.Errorf("knowledge_path is required: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
