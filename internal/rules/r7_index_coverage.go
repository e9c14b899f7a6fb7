package rules

import (
	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
)

var indexCoverage = Rule{
	ID:          finding.RuleIndexCoverage,
	Name:        "index-coverage",
	Description: "created_at and scheduling columns lead at least one index",
	Severity:    finding.SeverityWarning,
	CheckTable:  checkIndexCoverage,

	Rationale: `Creation times drive "newest first" listings and retention jobs; scheduling columns drive
the queries that pick up due work. Both need an index with the column as its leading key.`,

	BadExample: `CREATE TABLE jobs (id bigint PRIMARY KEY, scheduled_for timestamptz NOT NULL);`,
	GoodExample: `CREATE TABLE jobs (id bigint PRIMARY KEY, scheduled_for timestamptz NOT NULL);
CREATE INDEX idx_jobs_scheduled_for ON jobs (scheduled_for);`,
}

// leadsIndex reports whether column is the first key of an index or of a
// PRIMARY KEY or UNIQUE constraint on t.
func leadsIndex(t *ddl.TableDecl, column string) bool {
	for _, idx := range t.Indexes {
		if len(idx.Columns) > 0 && idx.Columns[0] == column {
			return true
		}
	}
	for _, k := range t.Keys {
		if len(k.Columns) > 0 && k.Columns[0] == column {
			return true
		}
	}
	return false
}

func checkIndexCoverage(ctx *TableContext) []finding.Finding {
	var out []finding.Finding
	for _, c := range ctx.Columns(classify.AuditCreated, classify.Scheduling) {
		if !leadsIndex(ctx.Table, c.Name) {
			out = append(out, ctx.Violation(c, "no index has %s as its leading key", c.Name))
		}
	}
	return out
}
