package rules

import (
	"strings"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/finding"
)

var defaultPresence = Rule{
	ID:          finding.RuleDefaultPresence,
	Name:        "default-presence",
	Description: "Audit columns are NOT NULL with a CURRENT_TIMESTAMP/now() default",
	Severity:    finding.SeverityError,
	CheckTable:  checkDefaultPresence,

	Rationale: `An audit column that the application has to fill in will eventually be left empty.
Let the database stamp it.`,

	BadExample:  `updated_at timestamptz`,
	GoodExample: `updated_at timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP`,
}

func checkDefaultPresence(ctx *TableContext) []finding.Finding {
	var out []finding.Finding
	for _, c := range ctx.Columns(classify.AuditCreated, classify.AuditUpdated) {
		var missing []string
		if c.Nullable {
			missing = append(missing, "NOT NULL")
		}
		if c.Default == nil || !ctx.Policy.IsNow(*c.Default) {
			missing = append(missing, "DEFAULT CURRENT_TIMESTAMP")
		}
		if len(missing) > 0 {
			out = append(out, ctx.Violation(c, "audit column %s lacks %s", c.Name, strings.Join(missing, " and ")))
		}
	}
	return out
}
