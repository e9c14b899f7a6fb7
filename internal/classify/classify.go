package classify

import (
	"slices"
	"strings"

	"github.com/bfv/temporallint/internal/ddl"
)

// Classify categorises the temporal columns of t using DefaultPolicy.
func Classify(t *ddl.TableDecl) Classification {
	return DefaultPolicy().Classify(t)
}

// Classify categorises every temporal column of t. Non-temporal columns are
// absent from the result. The function is pure.
func (p Policy) Classify(t *ddl.TableDecl) Classification {
	out := Classification{}
	for _, c := range t.Columns {
		if c.IsTemporal() {
			out[c.Name] = p.Column(c)
		}
	}
	return out
}

// Column returns the category of a single column; the first matching rule
// wins.
func (p Policy) Column(c *ddl.ColumnDecl) Category {
	name := strings.ToLower(c.Name)
	switch {
	case name == "created_at" && c.Default != nil && p.IsNow(*c.Default):
		return AuditCreated
	case name == "updated_at":
		return AuditUpdated
	case name == "deleted_at":
		return SoftDelete
	}

	switch {
	case strings.HasSuffix(name, "_from"),
		strings.HasPrefix(name, "valid_from"),
		strings.HasPrefix(name, "effective_from"):
		return ValidityStart
	case strings.HasSuffix(name, "_to"),
		strings.HasSuffix(name, "_until"),
		strings.HasPrefix(name, "effective_to"):
		return ValidityEnd
	}

	if slices.Contains(p.SchedulingNames, name) {
		return Scheduling
	}
	for _, suffix := range p.SchedulingSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return Scheduling
		}
	}

	if noun, _, ok := p.SplitEvent(name); ok {
		if noun != "" {
			return BusinessEvent
		}
		return LifecycleEvent
	}
	return Unclassified
}
