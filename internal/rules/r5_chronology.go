package rules

import (
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
)

var chronologyConstraint = Rule{
	ID:          finding.RuleChronology,
	Name:        "chronology-constraint",
	Description: "Event columns that follow each other in a lifecycle are ordered by a CHECK",
	Severity:    finding.SeverityWarning,
	CheckTable:  checkChronology,

	Rationale: `An order cannot ship before it was placed. When two event columns belong to the same
lifecycle chain, a CHECK constraint keeps the later event from predating the earlier one.`,

	BadExample: `CREATE TABLE orders (
  placed_at  timestamptz NOT NULL,
  shipped_at timestamptz
);`,
	GoodExample: `CREATE TABLE orders (
  placed_at  timestamptz NOT NULL,
  shipped_at timestamptz,
  CHECK (shipped_at IS NULL OR shipped_at >= placed_at)
);`,
}

// orderingVerdict is the outcome of looking for "later >= earlier" among a
// table's CHECK constraints.
type orderingVerdict int

const (
	orderingMissing orderingVerdict = iota
	orderingFound
	orderingFoundNonStrict
	orderingReversed
	orderingUndecided
)

// ordering searches the table's checks for a comparison placing later after
// earlier.
func ordering(t *ddl.TableDecl, later, earlier string) (orderingVerdict, *ddl.CheckConstraint) {
	verdict := orderingMissing
	var evidence *ddl.CheckConstraint
	for _, chk := range t.Checks {
		for _, cmp := range chk.Comparisons {
			l, e, strict := cmp.Oriented()
			switch {
			case l == later && e == earlier && strict:
				return orderingFound, chk
			case l == later && e == earlier:
				verdict, evidence = orderingFoundNonStrict, chk
			case l == earlier && e == later && verdict != orderingFoundNonStrict:
				verdict, evidence = orderingReversed, chk
			}
		}
		if verdict == orderingMissing && mentions(chk, later, earlier) {
			verdict, evidence = orderingUndecided, chk
		}
	}
	return verdict, evidence
}

// mentions reports whether chk refers to both columns, or to either of them
// when the expression could not be fully analysed.
func mentions(chk *ddl.CheckConstraint, a, b string) bool {
	if chk.References(a, b) {
		return true
	}
	return chk.Unparsed && (chk.References(a) || chk.References(b))
}

func checkChronology(ctx *TableContext) []finding.Finding {
	// Group event columns by noun prefix: order_placed_at and
	// order_shipped_at belong together, placed_at and order_shipped_at do not.
	groups := map[string]map[string]*ddl.ColumnDecl{}
	var nouns []string
	for _, c := range ctx.Table.Columns {
		cat, ok := ctx.Classes.Of(c.Name)
		if !ok || !cat.IsEvent() {
			continue
		}
		noun, verb, ok := ctx.Policy.SplitEvent(c.Name)
		if !ok {
			continue
		}
		if groups[noun] == nil {
			groups[noun] = map[string]*ddl.ColumnDecl{}
			nouns = append(nouns, noun)
		}
		groups[noun][verb] = c
	}

	var out []finding.Finding
	seen := map[[2]string]bool{}
	for _, noun := range nouns {
		cols := groups[noun]
		for _, chain := range ctx.Policy.Chains {
			var prev *ddl.ColumnDecl
			for _, verb := range chain {
				c, ok := cols[verb]
				if !ok {
					continue
				}
				if prev != nil && !seen[[2]string{prev.Name, c.Name}] {
					seen[[2]string{prev.Name, c.Name}] = true
					if f, bad := chronologyPair(ctx, c, prev); bad {
						out = append(out, f)
					}
				}
				prev = c
			}
		}
	}
	return out
}

func chronologyPair(ctx *TableContext, later, earlier *ddl.ColumnDecl) (finding.Finding, bool) {
	verdict, chk := ordering(ctx.Table, later.Name, earlier.Name)
	switch verdict {
	case orderingFound, orderingFoundNonStrict:
		return finding.Finding{}, false
	case orderingReversed:
		return ctx.Violation(later, "CHECK (%s) places %s before %s; the lifecycle runs the other way", chk.Expr, later.Name, earlier.Name), true
	case orderingUndecided:
		return ctx.Review(later, "CHECK (%s) mentions %s and %s but their order could not be determined", chk.Expr, later.Name, earlier.Name), true
	default:
		return ctx.Violation(later, "no CHECK constraint ensures %s >= %s", later.Name, earlier.Name), true
	}
}
