// Package rules holds the temporal-column conventions and the engine that
// evaluates them against a schema model.
package rules

import (
	"fmt"
	"strings"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
	"github.com/bfv/temporallint/internal/schema"
)

// Rule is a self-contained convention check. Exactly one of CheckTable and
// CheckModel is set: table rules see one table at a time, model rules see
// the whole schema.
type Rule struct {
	ID          string           // e.g. "R1-TypeAffinity"
	Name        string           // e.g. "type-affinity"
	Description string           // one-line summary
	Severity    finding.Severity // default severity

	Rationale   string
	BadExample  string
	GoodExample string

	CheckTable func(ctx *TableContext) []finding.Finding
	CheckModel func(m *schema.Model) []finding.Finding
}

// Short returns the numeric part of the ID, e.g. "R1".
func (r Rule) Short() string {
	short, _, _ := strings.Cut(r.ID, "-")
	return short
}

// Matches reports whether key names this rule, either by full ID or by its
// short form. The comparison is case-insensitive.
func (r Rule) Matches(key string) bool {
	key = strings.TrimSpace(key)
	return strings.EqualFold(key, r.ID) || strings.EqualFold(key, r.Short())
}

// TableContext is what a table rule sees.
type TableContext struct {
	Table   *ddl.TableDecl
	Classes classify.Classification
	Policy  classify.Policy

	rule     string
	severity finding.Severity
}

// Columns returns the table's columns of the given categories in
// declaration order.
func (ctx *TableContext) Columns(cats ...classify.Category) []*ddl.ColumnDecl {
	var out []*ddl.ColumnDecl
	for _, c := range ctx.Table.Columns {
		cat, ok := ctx.Classes.Of(c.Name)
		if !ok {
			continue
		}
		for _, want := range cats {
			if cat == want {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Has reports whether any column has the given category.
func (ctx *TableContext) Has(cat classify.Category) bool {
	return len(ctx.Columns(cat)) > 0
}

// Violation builds a finding at the rule's effective severity. A nil column
// attaches it to the table.
func (ctx *TableContext) Violation(col *ddl.ColumnDecl, format string, args ...any) finding.Finding {
	return ctx.build(ctx.severity, col, fmt.Sprintf(format, args...))
}

// Review builds an Info finding for a check the rule could not decide.
func (ctx *TableContext) Review(col *ddl.ColumnDecl, format string, args ...any) finding.Finding {
	return ctx.build(finding.SeverityInfo, col, "needs manual review: "+fmt.Sprintf(format, args...))
}

func (ctx *TableContext) build(sev finding.Severity, col *ddl.ColumnDecl, msg string) finding.Finding {
	f := finding.Finding{
		RuleID:   ctx.rule,
		Severity: sev,
		Table:    ctx.Table.Name,
		Message:  msg,
		Evidence: finding.Excerpt(ctx.Table.Raw),
	}
	if col != nil {
		f.Column = col.Name
		f.Evidence = finding.Excerpt(col.Raw)
	}
	return f
}

// Default returns the built-in rules in registration order.
func Default() []Rule {
	return []Rule{
		typeAffinity,
		auditPresence,
		defaultPresence,
		softDeleteNullable,
		chronologyConstraint,
		validityPairing,
		indexCoverage,
		triggerForUpdatedAt,
		structuralIntegrity,
		unclassified,
	}
}

// Lookup finds a rule by full or short ID.
func Lookup(list []Rule, key string) (Rule, bool) {
	for _, r := range list {
		if r.Matches(key) {
			return r, true
		}
	}
	return Rule{}, false
}
