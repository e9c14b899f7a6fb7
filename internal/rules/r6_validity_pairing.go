package rules

import (
	"strings"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
)

var validityPairing = Rule{
	ID:          finding.RuleValidityPairing,
	Name:        "validity-pairing",
	Description: "Every validity start has a matching end and a CHECK (end > start)",
	Severity:    finding.SeverityError,
	CheckTable:  checkValidityPairing,

	Rationale: `A validity period is only meaningful as a pair. Without an end column the period never
closes, and without a strict CHECK an empty or inverted period can be stored.`,

	BadExample: `CREATE TABLE prices (
  valid_from timestamptz NOT NULL,
  valid_to   timestamptz
);`,
	GoodExample: `CREATE TABLE prices (
  valid_from timestamptz NOT NULL,
  valid_to   timestamptz NOT NULL DEFAULT 'infinity',
  CHECK (valid_to > valid_from)
);`,
}

// endCandidates returns the names a validity end column may have for start.
func endCandidates(start string) []string {
	lower := strings.ToLower(start)
	i := strings.LastIndex(lower, "_from")
	if i < 0 {
		return nil
	}
	head, tail := start[:i], start[i+len("_from"):]
	return []string{head + "_to" + tail, head + "_until" + tail}
}

func checkValidityPairing(ctx *TableContext) []finding.Finding {
	var out []finding.Finding
	for _, start := range ctx.Columns(classify.ValidityStart) {
		candidates := endCandidates(start.Name)
		var end *ddl.ColumnDecl
		for _, name := range candidates {
			if c := ctx.Table.Column(name); c != nil {
				if cat, _ := ctx.Classes.Of(name); cat == classify.ValidityEnd {
					end = c
					break
				}
			}
		}
		if end == nil {
			out = append(out, ctx.Violation(start, "validity start %s has no matching end column (expected %s)",
				start.Name, strings.Join(candidates, " or ")))
			continue
		}

		verdict, chk := ordering(ctx.Table, end.Name, start.Name)
		switch verdict {
		case orderingFound:
		case orderingFoundNonStrict:
			out = append(out, ctx.Violation(end, "CHECK (%s) allows an empty period; use %s > %s", chk.Expr, end.Name, start.Name))
		case orderingReversed:
			out = append(out, ctx.Violation(end, "CHECK (%s) places %s before %s", chk.Expr, end.Name, start.Name))
		case orderingUndecided:
			out = append(out, ctx.Review(end, "CHECK (%s) mentions %s and %s but their order could not be determined", chk.Expr, end.Name, start.Name))
		default:
			out = append(out, ctx.Violation(end, "no CHECK constraint ensures %s > %s", end.Name, start.Name))
		}
	}
	return out
}
