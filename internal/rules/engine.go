package rules

import (
	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
	"github.com/bfv/temporallint/internal/schema"
)

// Engine evaluates an explicit, ordered rule list. It holds no state between
// runs.
type Engine struct {
	rules []Rule
	cfg   *Config
}

// NewEngine builds an engine over list. Disabled rules are dropped up front;
// a nil cfg means NewConfig().
func NewEngine(list []Rule, cfg *Config) *Engine {
	if cfg == nil {
		cfg = NewConfig()
	}
	e := &Engine{cfg: cfg}
	for _, r := range list {
		if !cfg.IsDisabled(r) {
			e.rules = append(e.rules, r)
		}
	}
	return e
}

// Policy returns the naming policy the engine classifies with.
func (e *Engine) Policy() classify.Policy {
	return e.cfg.Policy
}

// Run evaluates every enabled rule against m in registration order. Tables
// missing from classes are classified with the engine's policy. Run never
// mutates the model.
func (e *Engine) Run(m *schema.Model, classes map[string]classify.Classification) []finding.Finding {
	var out []finding.Finding
	for _, r := range e.rules {
		sev := e.cfg.GetSeverity(r)
		if r.CheckModel != nil {
			for _, f := range r.CheckModel(m) {
				if f.Severity != finding.SeverityInfo {
					f.Severity = sev
				}
				out = append(out, f)
			}
			continue
		}
		if r.CheckTable == nil {
			continue
		}
		m.Each(func(t *ddl.TableDecl) {
			cls, ok := classes[t.Name]
			if !ok {
				cls = e.cfg.Policy.Classify(t)
			}
			ctx := &TableContext{
				Table:    t,
				Classes:  cls,
				Policy:   e.cfg.Policy,
				rule:     r.ID,
				severity: sev,
			}
			out = append(out, r.CheckTable(ctx)...)
		})
	}
	return out
}
