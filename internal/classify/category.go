// Package classify assigns a semantic category to every temporal column of a
// table from its name and default expression.
package classify

import "fmt"

// Category is the semantic role of a temporal column.
type Category int

// Column categories.
const (
	Unclassified Category = iota
	AuditCreated
	AuditUpdated
	SoftDelete
	LifecycleEvent
	BusinessEvent
	ValidityStart
	ValidityEnd
	Scheduling
)

var categoryNames = [...]string{
	Unclassified:   "Unclassified",
	AuditCreated:   "AuditCreated",
	AuditUpdated:   "AuditUpdated",
	SoftDelete:     "SoftDelete",
	LifecycleEvent: "LifecycleEvent",
	BusinessEvent:  "BusinessEvent",
	ValidityStart:  "ValidityStart",
	ValidityEnd:    "ValidityEnd",
	Scheduling:     "Scheduling",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// MarshalText renders the category name in YAML and JSON output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a category name as written by MarshalText.
func (c *Category) UnmarshalText(text []byte) error {
	for i, name := range categoryNames {
		if name == string(text) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", string(text))
}

// IsEvent reports whether the category records a state transition.
func (c Category) IsEvent() bool {
	return c == LifecycleEvent || c == BusinessEvent
}

// Classification maps column name to category for the temporal columns of
// one table.
type Classification map[string]Category

// Of returns the category of a column and whether the column was classified.
func (c Classification) Of(column string) (Category, bool) {
	cat, ok := c[column]
	return cat, ok
}
