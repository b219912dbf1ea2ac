package usecase

import (
	"errors"
	"fmt"

	"gdmigrate/config"
	"gdmigrate/internal/adapter/canon"
	"gdmigrate/internal/adapter/classify"
	"gdmigrate/internal/adapter/indent"
	"gdmigrate/internal/adapter/orphan"
	"gdmigrate/internal/adapter/rewrite"
	"gdmigrate/internal/domain"
	"gdmigrate/internal/port"
)

// Pipeline runs the fixed stage sequence over one file:
// classify, rewrite, indent repair, orphan repair, canonicalize.
type Pipeline struct {
	stages   []port.Stage
	counters []string
}

// NewPipeline builds the stage sequence from cfg. Unknown rule names in
// rules.disabled are rejected so a typo does not silently run every rule.
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	known := make(map[string]bool)
	for _, r := range rewrite.DefaultRules() {
		known[r.Name] = true
	}
	for _, name := range cfg.Rules.Disabled {
		if !known[name] {
			return nil, fmt.Errorf("unknown rule in rules.disabled: %q", name)
		}
	}

	engine := rewrite.NewEngine(cfg.Rules.Disabled)
	stages := []port.Stage{
		classify.Stage{IndentStyle: cfg.Indent.Style, IndentWidth: cfg.Indent.Width},
		engine,
		indent.Repairer{},
		orphan.Repairer{WrapperName: cfg.Orphan.WrapperName},
	}
	counters := append(engine.Names(), indent.CounterRepair, orphan.CounterWrap, orphan.CounterSuppress)
	if cfg.Canonical.Enabled {
		stages = append(stages, canon.Canonicalizer{})
		counters = append(counters, canon.CounterReorder)
	}
	return &Pipeline{stages: stages, counters: counters}, nil
}

// NewPipelineWith runs an explicit stage list. Tests use it to drive
// partial pipelines.
func NewPipelineWith(stages ...port.Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Counters lists every counter the pipeline reports, fired or not.
func (p *Pipeline) Counters() []string {
	return append([]string(nil), p.counters...)
}

// Run transforms content and returns the resulting file. It stops at the
// first stage error, which is always returned as a FileError.
func (p *Pipeline) Run(path, content string) (*domain.SourceFile, error) {
	sf := domain.NewSourceFile(path, content)
	sf.Report.Register(p.counters...)
	for _, st := range p.stages {
		if err := st.Apply(sf); err != nil {
			var fe *domain.FileError
			if errors.As(err, &fe) {
				return sf, err
			}
			return sf, &domain.FileError{
				Kind: domain.PreconditionViolation,
				Path: path,
				Err:  fmt.Errorf("stage %s: %w", st.Name(), err),
			}
		}
	}
	return sf, nil
}
