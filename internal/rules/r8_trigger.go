package rules

import (
	"slices"
	"strings"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
)

var triggerForUpdatedAt = Rule{
	ID:          finding.RuleTriggerForUpdatedAt,
	Name:        "trigger-for-updated-at",
	Description: "Tables with updated_at have a BEFORE UPDATE row trigger",
	Severity:    finding.SeverityWarning,
	CheckTable:  checkTriggerForUpdatedAt,

	Rationale: `A default only fires on INSERT. Without a BEFORE UPDATE ... FOR EACH ROW trigger that sets
NEW.updated_at, the column keeps its insertion time forever.`,

	BadExample: `CREATE TABLE orders (updated_at timestamptz NOT NULL DEFAULT now());`,
	GoodExample: `CREATE TRIGGER orders_set_updated_at BEFORE UPDATE ON orders
  FOR EACH ROW EXECUTE FUNCTION set_updated_at();`,
}

func checkTriggerForUpdatedAt(ctx *TableContext) []finding.Finding {
	cols := ctx.Columns(classify.AuditUpdated)
	if len(cols) == 0 {
		return nil
	}
	var statementLevel, columnLimited *ddl.TriggerDecl
	for _, tr := range ctx.Table.Triggers {
		if !tr.Fires(ddl.TimingBefore, ddl.EventUpdate) {
			continue
		}
		switch {
		case !tr.ForEachRow:
			statementLevel = tr
		case len(uncovered(ctx.Table, tr, cols)) > 0:
			columnLimited = tr
		default:
			return nil
		}
	}
	switch {
	case columnLimited != nil:
		return []finding.Finding{ctx.Violation(cols[0],
			"trigger %s fires only on UPDATE OF %s; updates to %s leave %s stale",
			columnLimited.Name, strings.Join(columnLimited.UpdateColumns, ", "),
			strings.Join(uncovered(ctx.Table, columnLimited, cols), ", "), cols[0].Name)}
	case statementLevel != nil:
		return []finding.Finding{ctx.Violation(cols[0],
			"trigger %s is FOR EACH STATEMENT and cannot set %s; use FOR EACH ROW", statementLevel.Name, cols[0].Name)}
	}
	return []finding.Finding{ctx.Violation(cols[0],
		"table %s has %s but no BEFORE UPDATE trigger maintaining it", ctx.Table.Name, cols[0].Name)}
}

// uncovered lists the columns whose updates an UPDATE OF trigger misses.
// The maintained columns themselves do not count.
func uncovered(t *ddl.TableDecl, tr *ddl.TriggerDecl, maintained []*ddl.ColumnDecl) []string {
	if len(tr.UpdateColumns) == 0 {
		return nil
	}
	var out []string
	for _, c := range t.Columns {
		if slices.Contains(tr.UpdateColumns, c.Name) || slices.Contains(maintained, c) {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}
