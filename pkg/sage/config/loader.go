package config

import (
	"context"
	"fmt"
	"os"

	"github.com/cognicore/sage/pkg/sage/dsl"
	"github.com/cognicore/sage/pkg/sage/kb"
	"github.com/cognicore/sage/pkg/sage/store"
	"github.com/cognicore/sage/pkg/sage/store/sqlite"
)

// Loader reads the configuration and constructs the components it
// names.
type Loader struct {
	Path string
}

// Components holds everything a driver needs for a loaded domain.
type Components struct {
	Config *Config
	Base   *kb.KB
	Audit  store.Store // nil when audit persistence is disabled
}

// Load reads the config file, loads and validates the knowledge base,
// and opens the audit store when one is configured. The caller owns
// Audit and must close it.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg, err := Load(l.Path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	text, err := os.ReadFile(cfg.KnowledgePath)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	nodes, err := dsl.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	base, err := kb.Build(nodes)
	if err != nil {
		return nil, fmt.Errorf("build knowledge base: %w", err)
	}

	comp := &Components{Config: cfg, Base: base}

	if cfg.AuditDBPath != "" {
		audit, err := sqlite.Open(ctx, cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		comp.Audit = audit
	}

	return comp, nil
}
