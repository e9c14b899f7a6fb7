package rules

import (
	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/finding"
)

var auditPresence = Rule{
	ID:          finding.RuleAuditPresence,
	Name:        "audit-presence",
	Description: "Tables carry created_at and updated_at audit columns unless they are logs",
	Severity:    finding.SeverityWarning,
	CheckTable:  checkAuditPresence,

	Rationale: `Creation and modification times answer the first questions asked during an incident.
Append-only tables named *_log or *_history record a single event per row and are exempt.`,

	BadExample: `CREATE TABLE orders (id bigint PRIMARY KEY, total numeric);`,
	GoodExample: `CREATE TABLE orders (
  id bigint PRIMARY KEY,
  created_at timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
}

func checkAuditPresence(ctx *TableContext) []finding.Finding {
	if ctx.Policy.IsLogTable(ctx.Table.Name) {
		return nil
	}
	var out []finding.Finding
	if !ctx.Has(classify.AuditCreated) {
		if c := ctx.Table.Column("created_at"); c != nil && c.IsTemporal() {
			out = append(out, ctx.Violation(c,
				"created_at has no CURRENT_TIMESTAMP or now() default, so the table has no creation audit column"))
		} else {
			out = append(out, ctx.Violation(nil, "table %s has no created_at audit column", ctx.Table.Name))
		}
	}
	if !ctx.Has(classify.AuditUpdated) {
		out = append(out, ctx.Violation(nil, "table %s has no updated_at audit column", ctx.Table.Name))
	}
	return out
}
