package rules

import (
	"strings"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/finding"
)

var softDeleteNullable = Rule{
	ID:          finding.RuleSoftDeleteNullable,
	Name:        "soft-delete-nullable",
	Description: "deleted_at is nullable and defaults to NULL",
	Severity:    finding.SeverityError,
	CheckTable:  checkSoftDeleteNullable,

	Rationale: `NULL in a soft-delete column means "not deleted". A NOT NULL column or a non-null default
marks every new row as deleted from the moment it is inserted.`,

	BadExample:  `deleted_at timestamptz NOT NULL DEFAULT now()`,
	GoodExample: `deleted_at timestamptz DEFAULT NULL`,
}

func checkSoftDeleteNullable(ctx *TableContext) []finding.Finding {
	var out []finding.Finding
	for _, c := range ctx.Columns(classify.SoftDelete) {
		switch def := strings.TrimSpace(c.DefaultExpr()); {
		case !c.Nullable:
			out = append(out, ctx.Violation(c, "soft-delete column %s must be nullable; NULL marks a live row", c.Name))
		case c.Default != nil && !isNullLiteral(def):
			out = append(out, ctx.Violation(c, "soft-delete column %s must default to NULL, not %s", c.Name, def))
		}
	}
	return out
}

func isNullLiteral(expr string) bool {
	expr = strings.ToUpper(strings.Join(strings.Fields(expr), ""))
	if i := strings.Index(expr, "::"); i >= 0 {
		expr = expr[:i]
	}
	return strings.Trim(expr, "()") == "NULL"
}
