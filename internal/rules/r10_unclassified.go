package rules

import (
	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/finding"
)

var unclassified = Rule{
	ID:          finding.RuleUnclassified,
	Name:        "unclassified",
	Description: "Temporal columns that match no naming convention are listed for review",
	Severity:    finding.SeverityInfo,
	CheckTable:  checkUnclassified,

	Rationale: `A name outside the conventions hides the column's role from every other rule. A
COMMENT ON COLUMN documents the intent and silences this rule.`,

	BadExample:  `last_seen timestamptz`,
	GoodExample: `COMMENT ON COLUMN users.last_seen IS 'Updated by the session tracker';`,
}

func checkUnclassified(ctx *TableContext) []finding.Finding {
	var out []finding.Finding
	for _, c := range ctx.Columns(classify.Unclassified) {
		if c.Comment != "" {
			continue
		}
		out = append(out, ctx.Violation(c, "%s (%s) matches no temporal naming convention; rename it or document it with COMMENT ON COLUMN", c.Name, c.Type))
	}
	return out
}
