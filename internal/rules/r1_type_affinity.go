package rules

import (
	"github.com/bfv/temporallint/internal/finding"
)

var typeAffinity = Rule{
	ID:          finding.RuleTypeAffinity,
	Name:        "type-affinity",
	Description: "Temporal columns use timestamptz; timestamp and time without zone are flagged",
	Severity:    finding.SeverityError,
	CheckTable:  checkTypeAffinity,

	Rationale: `A timestamp without time zone stores wall-clock digits with no offset, so the same value
means different instants depending on the session that wrote it. timestamptz normalises to UTC on
write. time with time zone, interval and date are accepted for durations and calendar dates.`,

	BadExample:  `CREATE TABLE users (created_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP);`,
	GoodExample: `CREATE TABLE users (created_at timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP);`,
}

func checkTypeAffinity(ctx *TableContext) []finding.Finding {
	var out []finding.Finding
	for _, c := range ctx.Table.TemporalColumns() {
		switch c.Type {
		case "timestamp":
			out = append(out, ctx.Violation(c, "%s is declared %s without time zone; use timestamptz", c.Name, c.RawType))
		case "time":
			out = append(out, ctx.Violation(c, "%s is declared %s without time zone; use timestamptz, or timetz for a time of day", c.Name, c.RawType))
		}
	}
	return out
}
