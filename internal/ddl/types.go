package ddl

import (
	"fmt"
	"regexp"
	"strings"
)

// Decl is a parsed statement. The set of implementations is closed:
// *TableDecl, *IndexDecl, *TriggerDecl, *AlterDecl and *CommentDecl.
type Decl interface {
	// Pos returns the absolute offset of the statement in its source.
	Pos() int
	// Source returns the raw statement text.
	Source() string
	decl()
}

// ParseError reports a statement whose top-level grammar was not recognised.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Reason, e.Offset)
}

// ColumnDecl is one column definition.
type ColumnDecl struct {
	Name       string
	Type       string // normalised, see NormalizeType
	RawType    string // as written
	Nullable   bool
	Default    *string // verbatim, never evaluated
	PrimaryKey bool
	Unique     bool
	Identity   bool
	Generated  string // expression of GENERATED ALWAYS AS (...)
	Comment    string

	// Inline constraints. They are also recorded on the owning table.
	Checks     []*CheckConstraint
	References *ForeignKey

	Raw    string
	Offset int
}

// IsTemporal reports whether the column stores date, time or duration data.
func (c *ColumnDecl) IsTemporal() bool {
	return IsTemporalType(c.Type)
}

// DefaultExpr returns the default expression or "" when none is declared.
func (c *ColumnDecl) DefaultExpr() string {
	if c.Default == nil {
		return ""
	}
	return *c.Default
}

// Comparison is an ordering atom found in a CHECK expression. Left and Right
// hold column names, or "" when that side is not a plain column reference.
type Comparison struct {
	Left  string
	Op    string
	Right string
}

// Oriented returns the comparison as "later is after earlier".
func (c Comparison) Oriented() (later, earlier string, strict bool) {
	switch c.Op {
	case ">", ">=":
		return c.Left, c.Right, c.Op == ">"
	default:
		return c.Right, c.Left, c.Op == "<"
	}
}

// CheckConstraint is a table or column CHECK constraint.
type CheckConstraint struct {
	Name        string
	Expr        string
	Columns     []string // referenced columns, sorted and unique
	Comparisons []Comparison
	// Unparsed marks expressions that could not be fully analysed; Columns
	// and Comparisons may be incomplete.
	Unparsed bool
	Offset   int
}

// References reports whether the expression mentions every given column.
func (c *CheckConstraint) References(cols ...string) bool {
	for _, want := range cols {
		found := false
		for _, have := range c.Columns {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// KeyConstraint is a PRIMARY KEY or UNIQUE constraint.
type KeyConstraint struct {
	Name    string
	Columns []string
	Primary bool
}

// ForeignKey is a REFERENCES constraint.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
}

// TableDecl is a CREATE TABLE statement plus everything later attached to it.
type TableDecl struct {
	Name        string
	Schema      string
	Columns     []*ColumnDecl
	Checks      []*CheckConstraint
	Keys        []*KeyConstraint
	ForeignKeys []*ForeignKey
	Indexes     []*IndexDecl
	Triggers    []*TriggerDecl
	Settings    map[string]string
	Comment     string

	Raw    string
	Offset int
}

func (*TableDecl) decl()            {}
func (t *TableDecl) Pos() int       { return t.Offset }
func (t *TableDecl) Source() string { return t.Raw }

// Column returns the named column or nil.
func (t *TableDecl) Column(name string) *ColumnDecl {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// TemporalColumns returns the temporal columns in declaration order.
func (t *TableDecl) TemporalColumns() []*ColumnDecl {
	var out []*ColumnDecl
	for _, c := range t.Columns {
		if c.IsTemporal() {
			out = append(out, c)
		}
	}
	return out
}

// addColumn appends c and lifts its inline constraints to the table.
func (t *TableDecl) addColumn(c *ColumnDecl) {
	t.Columns = append(t.Columns, c)
	t.Checks = append(t.Checks, c.Checks...)
	if c.References != nil {
		t.ForeignKeys = append(t.ForeignKeys, c.References)
	}
	if c.PrimaryKey {
		t.Keys = append(t.Keys, &KeyConstraint{Columns: []string{c.Name}, Primary: true})
	} else if c.Unique {
		t.Keys = append(t.Keys, &KeyConstraint{Columns: []string{c.Name}})
	}
}

// markPrimaryKeys applies table-level PRIMARY KEY constraints to columns.
func (t *TableDecl) markPrimaryKeys() {
	for _, k := range t.Keys {
		if !k.Primary {
			continue
		}
		for _, name := range k.Columns {
			if c := t.Column(name); c != nil {
				c.PrimaryKey = true
				c.Nullable = false
			}
		}
	}
}

// IndexDecl is a CREATE INDEX statement. Expression elements are kept as
// their source text.
type IndexDecl struct {
	Name      string
	Table     string
	Columns   []string
	Unique    bool
	Partial   bool
	Predicate string
	Method    string

	Raw    string
	Offset int
}

func (*IndexDecl) decl()            {}
func (i *IndexDecl) Pos() int       { return i.Offset }
func (i *IndexDecl) Source() string { return i.Raw }

// Timing is when a trigger fires relative to its event.
type Timing int

// Trigger timings.
const (
	TimingBefore Timing = iota
	TimingAfter
)

func (t Timing) String() string {
	if t == TimingBefore {
		return "BEFORE"
	}
	return "AFTER"
}

// Event is a data-modifying operation a trigger listens to.
type Event int

// Trigger events.
const (
	EventInsert Event = iota
	EventUpdate
	EventDelete
)

func (e Event) String() string {
	switch e {
	case EventInsert:
		return "INSERT"
	case EventUpdate:
		return "UPDATE"
	default:
		return "DELETE"
	}
}

// TriggerDecl is a CREATE TRIGGER statement.
type TriggerDecl struct {
	Name          string
	Table         string
	Timing        Timing
	Events        []Event
	UpdateColumns []string
	ForEachRow    bool
	Function      string

	Raw    string
	Offset int
}

func (*TriggerDecl) decl()            {}
func (t *TriggerDecl) Pos() int       { return t.Offset }
func (t *TriggerDecl) Source() string { return t.Raw }

// Fires reports whether the trigger runs at the given timing for event e.
func (t *TriggerDecl) Fires(timing Timing, e Event) bool {
	if t.Timing != timing {
		return false
	}
	for _, have := range t.Events {
		if have == e {
			return true
		}
	}
	return false
}

// ActionKind enumerates supported ALTER TABLE actions.
type ActionKind int

// ALTER TABLE actions.
const (
	ActionUnsupported ActionKind = iota
	ActionAddColumn
	ActionAddCheck
	ActionAddKey
	ActionAddForeignKey
	ActionSetDefault
	ActionDropDefault
	ActionSetNotNull
	ActionDropNotNull
	ActionSetType
	ActionDropColumn
	ActionRenameColumn
	ActionDropConstraint
	ActionSetOption
	ActionRenameTable
)

// AlterAction is one comma-separated action of an ALTER TABLE statement.
type AlterAction struct {
	Kind       ActionKind
	Column     *ColumnDecl // ActionAddColumn
	ColumnName string
	NewName    string // ActionRenameColumn, ActionRenameTable
	Check      *CheckConstraint
	Key        *KeyConstraint
	ForeignKey *ForeignKey
	Default    string
	Type       string
	RawType    string
	Option     string // ActionSetOption key, ActionDropConstraint name
	Value      string
	Raw        string
}

// AlterDecl is an ALTER TABLE statement.
type AlterDecl struct {
	Table   string
	Actions []AlterAction

	Raw    string
	Offset int
}

func (*AlterDecl) decl()            {}
func (a *AlterDecl) Pos() int       { return a.Offset }
func (a *AlterDecl) Source() string { return a.Raw }

// Apply patches t with the statement's actions. It returns the names of
// columns the statement referred to that do not exist on t.
func (a *AlterDecl) Apply(t *TableDecl) []string {
	var missing []string
	for _, act := range a.Actions {
		switch act.Kind {
		case ActionAddColumn:
			if t.Column(act.Column.Name) == nil {
				t.addColumn(act.Column)
			}
		case ActionAddCheck:
			t.Checks = append(t.Checks, act.Check)
		case ActionAddKey:
			t.Keys = append(t.Keys, act.Key)
			t.markPrimaryKeys()
		case ActionAddForeignKey:
			t.ForeignKeys = append(t.ForeignKeys, act.ForeignKey)
		case ActionSetOption:
			if t.Settings == nil {
				t.Settings = map[string]string{}
			}
			t.Settings[act.Option] = act.Value
		case ActionDropConstraint:
			t.dropConstraint(act.Option)
		case ActionSetDefault, ActionDropDefault, ActionSetNotNull, ActionDropNotNull,
			ActionSetType, ActionDropColumn, ActionRenameColumn:
			c := t.Column(act.ColumnName)
			if c == nil {
				missing = append(missing, act.ColumnName)
				continue
			}
			applyColumnAction(t, c, act)
		}
	}
	return missing
}

func applyColumnAction(t *TableDecl, c *ColumnDecl, act AlterAction) {
	switch act.Kind {
	case ActionSetDefault:
		def := act.Default
		c.Default = &def
	case ActionDropDefault:
		c.Default = nil
	case ActionSetNotNull:
		c.Nullable = false
	case ActionDropNotNull:
		c.Nullable = true
	case ActionSetType:
		c.Type = act.Type
		c.RawType = act.RawType
	case ActionDropColumn:
		for i, have := range t.Columns {
			if have == c {
				t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
				break
			}
		}
	case ActionRenameColumn:
		c.Name = act.NewName
	}
}

func (t *TableDecl) dropConstraint(name string) {
	checks := t.Checks[:0]
	for _, c := range t.Checks {
		if c.Name != name {
			checks = append(checks, c)
		}
	}
	t.Checks = checks

	keys := t.Keys[:0]
	for _, k := range t.Keys {
		if k.Name != name {
			keys = append(keys, k)
		}
	}
	t.Keys = keys

	fks := t.ForeignKeys[:0]
	for _, fk := range t.ForeignKeys {
		if fk.Name != name {
			fks = append(fks, fk)
		}
	}
	t.ForeignKeys = fks
}

// CommentTarget is the object kind of a COMMENT ON statement.
type CommentTarget int

// Comment targets.
const (
	CommentTable CommentTarget = iota
	CommentColumn
)

// CommentDecl is a COMMENT ON TABLE or COMMENT ON COLUMN statement.
type CommentDecl struct {
	Target CommentTarget
	Table  string
	Column string
	Text   string

	Raw    string
	Offset int
}

func (*CommentDecl) decl()            {}
func (c *CommentDecl) Pos() int       { return c.Offset }
func (c *CommentDecl) Source() string { return c.Raw }

var (
	rePrecision = regexp.MustCompile(`\s*\(\s*\d+\s*\)`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

// NormalizeType maps a declared type to a canonical lower-case spelling:
// "timestamp with time zone" becomes "timestamptz", precision is dropped and
// interval field qualifiers are removed.
func NormalizeType(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = reSpaces.ReplaceAllString(s, " ")
	s = strings.TrimPrefix(s, "pg_catalog.")
	if strings.Contains(s, "[") || strings.HasSuffix(s, " array") {
		return s
	}
	if name, ok := temporalName(s); ok {
		return name
	}
	s = rePrecision.ReplaceAllString(s, "")

	switch s {
	case "timestamptz", "timestamp with time zone":
		return "timestamptz"
	case "timestamp", "timestamp without time zone":
		return "timestamp"
	case "timetz", "time with time zone":
		return "timetz"
	case "time", "time without time zone":
		return "time"
	}
	if s == "interval" || strings.HasPrefix(s, "interval ") {
		return "interval"
	}
	return s
}

// IsTemporalType reports whether a normalised type is date, time or duration.
func IsTemporalType(t string) bool {
	switch t {
	case "timestamp", "timestamptz", "date", "time", "timetz", "interval":
		return true
	}
	return false
}
