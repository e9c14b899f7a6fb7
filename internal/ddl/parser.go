// Package ddl parses individual DDL statements into declarations.
//
// The parser is a best-effort scanner for the statements the linter cares
// about (CREATE TABLE, CREATE INDEX, CREATE TRIGGER, ALTER TABLE and
// COMMENT ON). It is not a SQL compiler: default expressions and CHECK
// bodies are captured verbatim and only scanned for identifiers and simple
// ordering comparisons.
package ddl

import (
	"fmt"
	"strings"

	"github.com/bfv/temporallint/internal/splitter"
)

// Parse turns one statement into a declaration. Statements of kind Other,
// and recognised forms the linter does not model (CREATE TABLE ... AS,
// partitions, comments on non-table objects), yield a nil Decl and a nil
// error.
func Parse(st splitter.Statement) (Decl, error) {
	body, off := st.Body()
	switch st.Kind {
	case splitter.KindCreateTable:
		t, err := parseCreateTable(body, off)
		if err != nil || t == nil {
			return nil, err
		}
		return t, nil
	case splitter.KindCreateIndex:
		idx, err := parseCreateIndex(body, off)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case splitter.KindCreateTrigger:
		tr, err := parseCreateTrigger(body, off)
		if err != nil {
			return nil, err
		}
		return tr, nil
	case splitter.KindAlterTable:
		a, err := parseAlterTable(body, off)
		if err != nil {
			return nil, err
		}
		return a, nil
	case splitter.KindComment:
		c, err := parseComment(body, off)
		if err != nil || c == nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, nil
	}
}

// columnStop lists keywords that end a column's type or default expression.
var columnStop = map[string]bool{
	"NOT": true, "NULL": true, "DEFAULT": true, "PRIMARY": true, "UNIQUE": true,
	"CHECK": true, "REFERENCES": true, "CONSTRAINT": true, "COLLATE": true,
	"GENERATED": true, "DEFERRABLE": true, "INITIALLY": true,
}

var tableConstraintStart = map[string]bool{
	"CONSTRAINT": true, "CHECK": true, "FOREIGN": true, "PRIMARY": true,
	"UNIQUE": true, "EXCLUDE": true,
}

type parser struct {
	toks []token
	i    int
	src  string // statement text
	base int    // absolute offset of src[0]
}

func newParser(text string, base int) (*parser, error) {
	toks, err := lex(text, base)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks, src: text, base: base}, nil
}

// sub returns a parser over a slice of the current token stream.
func (p *parser) sub(toks []token) *parser {
	return &parser{toks: toks, src: p.src, base: p.base}
}

func (p *parser) eof() bool { return p.i >= len(p.toks) }

func (p *parser) peek() token {
	if p.eof() {
		return token{pos: p.base + len(p.src), end: p.base + len(p.src)}
	}
	return p.toks[p.i]
}

func (p *parser) peekAt(n int) token {
	if p.i+n >= len(p.toks) {
		return token{}
	}
	return p.toks[p.i+n]
}

func (p *parser) next() token {
	t := p.peek()
	if !p.eof() {
		p.i++
	}
	return t
}

// isKeyword reports whether the upcoming tokens spell the given keywords.
func (p *parser) isKeyword(words ...string) bool {
	for n, w := range words {
		if p.peekAt(n).upper() != w {
			return false
		}
	}
	return true
}

func (p *parser) acceptKeyword(words ...string) bool {
	if !p.isKeyword(words...) {
		return false
	}
	p.i += len(words)
	return true
}

func (p *parser) expectKeyword(words ...string) error {
	if !p.acceptKeyword(words...) {
		return p.errorf("expected %s", strings.Join(words, " "))
	}
	return nil
}

func (p *parser) isPunct(s string) bool {
	return !p.eof() && p.peek().is(s)
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	got := "end of statement"
	if !p.eof() {
		got = fmt.Sprintf("%q", p.peek().text)
	}
	return &ParseError{
		Reason: fmt.Sprintf(format, args...) + ", found " + got,
		Offset: p.peek().pos,
	}
}

// ident consumes one identifier and returns its folded value.
func (p *parser) ident() (string, error) {
	if p.eof() || !p.peek().isName() {
		return "", p.errorf("expected identifier")
	}
	return p.next().val, nil
}

// qualifiedName consumes a dotted name and returns the schema part (if any)
// and the final part.
func (p *parser) qualifiedName() (schema, name string, err error) {
	parts := []string{}
	for {
		part, err := p.ident()
		if err != nil {
			return "", "", err
		}
		parts = append(parts, part)
		if !p.isPunct(".") {
			break
		}
		p.next()
	}
	name = parts[len(parts)-1]
	if len(parts) > 1 {
		schema = parts[len(parts)-2]
	}
	return schema, name, nil
}

// text returns the source text spanned by toks.
func (p *parser) text(toks []token) string {
	if len(toks) == 0 {
		return ""
	}
	return p.src[toks[0].pos-p.base : toks[len(toks)-1].end-p.base]
}

// rest returns the source text from the current token to the end.
func (p *parser) rest() string {
	return p.text(p.toks[min(p.i, len(p.toks)):])
}

// group consumes a parenthesised group and returns its inner tokens.
func (p *parser) group() ([]token, error) {
	if !p.isPunct("(") {
		return nil, p.errorf("expected (")
	}
	open := p.i
	depth := 0
	for j := p.i; j < len(p.toks); j++ {
		switch {
		case p.toks[j].is("("):
			depth++
		case p.toks[j].is(")"):
			depth--
			if depth == 0 {
				p.i = j + 1
				return p.toks[open+1 : j], nil
			}
		}
	}
	return nil, &ParseError{Reason: "unbalanced parentheses", Offset: p.toks[open].pos}
}

// splitTopLevel splits toks on commas that are not nested in parentheses or
// brackets.
func splitTopLevel(toks []token) [][]token {
	var out [][]token
	depth, start := 0, 0
	for i, t := range toks {
		switch {
		case t.is("(") || t.is("["):
			depth++
		case t.is(")") || t.is("]"):
			depth--
		case t.is(",") && depth == 0:
			out = append(out, toks[start:i])
			start = i + 1
		}
	}
	if start < len(toks) {
		out = append(out, toks[start:])
	}
	return out
}

// skipUntil advances past balanced tokens until stop reports true for a
// token at nesting depth zero, consuming at least one token.
func (p *parser) skipUntil(stop func(token) bool) []token {
	start := p.i
	depth := 0
	for !p.eof() {
		t := p.peek()
		if depth == 0 && p.i > start && stop(t) {
			break
		}
		switch {
		case t.is("(") || t.is("["):
			depth++
		case t.is(")") || t.is("]"):
			depth--
		}
		p.i++
	}
	return p.toks[start:p.i]
}

// nameList parses "(a, b, c)" into folded names. Elements that are not a
// plain name keep their source text.
func (p *parser) nameList() ([]string, error) {
	inner, err := p.group()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, elem := range splitTopLevel(inner) {
		if len(elem) > 0 && elem[0].isName() {
			names = append(names, elem[0].val)
		} else {
			names = append(names, p.text(elem))
		}
	}
	return names, nil
}

func parseCreateTable(text string, base int) (*TableDecl, error) {
	p, err := newParser(text, base)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	for _, modifier := range []string{"GLOBAL", "LOCAL", "TEMP", "TEMPORARY", "UNLOGGED"} {
		p.acceptKeyword(modifier)
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	p.acceptKeyword("IF", "NOT", "EXISTS")
	schema, name, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	// CREATE TABLE ... AS, OF type and PARTITION OF carry no column list to check.
	if p.isKeyword("AS") || p.isKeyword("OF") || p.isKeyword("PARTITION", "OF") {
		return nil, nil
	}
	inner, err := p.group()
	if err != nil {
		return nil, err
	}

	t := &TableDecl{Name: name, Schema: schema, Raw: text, Offset: base}
	for _, elem := range splitTopLevel(inner) {
		if len(elem) == 0 {
			return nil, &ParseError{Reason: "empty table element", Offset: p.peek().pos}
		}
		e := p.sub(elem)
		if kw := e.peek().upper(); tableConstraintStart[kw] {
			if err := e.tableConstraint(t); err != nil {
				return nil, err
			}
			continue
		} else if kw == "LIKE" {
			continue
		}
		col, err := e.columnDef()
		if err != nil {
			return nil, err
		}
		t.addColumn(col)
	}
	t.markPrimaryKeys()
	return t, nil
}

// columnDef parses "name type [constraint ...]".
func (p *parser) columnDef() (*ColumnDecl, error) {
	first := p.i
	start := p.peek()
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	typeToks := p.skipUntil(func(t token) bool { return columnStop[t.upper()] })
	if len(typeToks) == 0 {
		return nil, p.errorf("column %s has no type", name)
	}
	raw := p.text(typeToks)
	col := &ColumnDecl{
		Name:     name,
		RawType:  raw,
		Type:     NormalizeType(raw),
		Nullable: true,
		Offset:   start.pos,
	}

	constraint := ""
	for !p.eof() {
		switch p.peek().upper() {
		case "CONSTRAINT":
			p.next()
			if constraint, err = p.ident(); err != nil {
				return nil, err
			}
			continue
		case "NOT":
			p.next()
			switch {
			case p.acceptKeyword("NULL"):
				col.Nullable = false
			case p.acceptKeyword("DEFERRABLE"):
			default:
				return nil, p.errorf("expected NULL after NOT")
			}
		case "NULL":
			p.next()
			col.Nullable = true
		case "DEFAULT":
			p.next()
			def := p.text(p.skipUntil(func(t token) bool { return columnStop[t.upper()] }))
			col.Default = &def
		case "PRIMARY":
			p.next()
			if err := p.expectKeyword("KEY"); err != nil {
				return nil, err
			}
			col.PrimaryKey = true
			col.Nullable = false
		case "UNIQUE":
			p.next()
			p.acceptKeyword("NULLS", "NOT", "DISTINCT")
			p.acceptKeyword("NULLS", "DISTINCT")
			col.Unique = true
		case "CHECK":
			p.next()
			chk, err := p.checkBody(constraint)
			if err != nil {
				return nil, err
			}
			col.Checks = append(col.Checks, chk)
		case "REFERENCES":
			p.next()
			fk, err := p.references()
			if err != nil {
				return nil, err
			}
			fk.Name = constraint
			fk.Columns = []string{name}
			col.References = fk
		case "GENERATED":
			p.next()
			if err := p.generated(col); err != nil {
				return nil, err
			}
		case "COLLATE":
			p.next()
			if _, _, err := p.qualifiedName(); err != nil {
				return nil, err
			}
		case "DEFERRABLE", "INITIALLY", "IMMEDIATE", "DEFERRED":
			p.next()
		default:
			return nil, p.errorf("unexpected token in column %s", name)
		}
		constraint = ""
	}
	col.Raw = p.text(p.toks[first:])
	return col, nil
}

func (p *parser) generated(col *ColumnDecl) error {
	if !p.acceptKeyword("ALWAYS") && !p.acceptKeyword("BY", "DEFAULT") {
		return p.errorf("expected ALWAYS or BY DEFAULT")
	}
	if err := p.expectKeyword("AS"); err != nil {
		return err
	}
	if p.acceptKeyword("IDENTITY") {
		col.Identity = true
		col.Nullable = false
		if p.isPunct("(") {
			_, err := p.group()
			return err
		}
		return nil
	}
	inner, err := p.group()
	if err != nil {
		return err
	}
	col.Generated = p.text(inner)
	if !p.acceptKeyword("STORED") {
		p.acceptKeyword("VIRTUAL")
	}
	return nil
}

// checkBody parses "(expr) [NO INHERIT] [NOT VALID]" after CHECK.
func (p *parser) checkBody(name string) (*CheckConstraint, error) {
	open := p.peek().pos
	inner, err := p.group()
	if err != nil {
		return nil, err
	}
	chk := analyzeCheck(inner, p.text(inner))
	chk.Name = name
	chk.Offset = open
	p.acceptKeyword("NO", "INHERIT")
	p.acceptKeyword("NOT", "VALID")
	return chk, nil
}

func (p *parser) references() (*ForeignKey, error) {
	_, table, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	fk := &ForeignKey{RefTable: table}
	if p.isPunct("(") {
		if fk.RefColumns, err = p.nameList(); err != nil {
			return nil, err
		}
	}
	for {
		switch {
		case p.acceptKeyword("MATCH"):
			p.next()
		case p.acceptKeyword("ON"):
			p.next() // DELETE or UPDATE
			switch {
			case p.acceptKeyword("CASCADE"), p.acceptKeyword("RESTRICT"), p.acceptKeyword("NO", "ACTION"):
			case p.acceptKeyword("SET"):
				p.next() // NULL or DEFAULT
				if p.isPunct("(") {
					if _, err := p.group(); err != nil {
						return nil, err
					}
				}
			default:
				return nil, p.errorf("expected referential action")
			}
		default:
			return fk, nil
		}
	}
}

// tableConstraint parses a table-level constraint into t.
func (p *parser) tableConstraint(t *TableDecl) error {
	name := ""
	if p.acceptKeyword("CONSTRAINT") {
		var err error
		if name, err = p.ident(); err != nil {
			return err
		}
	}
	switch {
	case p.acceptKeyword("CHECK"):
		chk, err := p.checkBody(name)
		if err != nil {
			return err
		}
		t.Checks = append(t.Checks, chk)
	case p.acceptKeyword("PRIMARY", "KEY"):
		cols, err := p.nameList()
		if err != nil {
			return err
		}
		t.Keys = append(t.Keys, &KeyConstraint{Name: name, Columns: cols, Primary: true})
	case p.acceptKeyword("UNIQUE"):
		p.acceptKeyword("NULLS", "NOT", "DISTINCT")
		p.acceptKeyword("NULLS", "DISTINCT")
		cols, err := p.nameList()
		if err != nil {
			return err
		}
		t.Keys = append(t.Keys, &KeyConstraint{Name: name, Columns: cols})
	case p.acceptKeyword("FOREIGN", "KEY"):
		cols, err := p.nameList()
		if err != nil {
			return err
		}
		if err := p.expectKeyword("REFERENCES"); err != nil {
			return err
		}
		fk, err := p.references()
		if err != nil {
			return err
		}
		fk.Name = name
		fk.Columns = cols
		t.ForeignKeys = append(t.ForeignKeys, fk)
	case p.acceptKeyword("EXCLUDE"):
		// Exclusion constraints are kept out of the model.
	default:
		return p.errorf("unrecognised table constraint")
	}
	return nil
}

func parseCreateIndex(text string, base int) (*IndexDecl, error) {
	p, err := newParser(text, base)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	idx := &IndexDecl{Raw: text, Offset: base}
	idx.Unique = p.acceptKeyword("UNIQUE")
	if err := p.expectKeyword("INDEX"); err != nil {
		return nil, err
	}
	p.acceptKeyword("CONCURRENTLY")
	if !p.isKeyword("ON") {
		p.acceptKeyword("IF", "NOT", "EXISTS")
		if _, idx.Name, err = p.qualifiedName(); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	p.acceptKeyword("ONLY")
	if _, idx.Table, err = p.qualifiedName(); err != nil {
		return nil, err
	}
	if p.acceptKeyword("USING") {
		if idx.Method, err = p.ident(); err != nil {
			return nil, err
		}
	}
	inner, err := p.group()
	if err != nil {
		return nil, err
	}
	for _, elem := range splitTopLevel(inner) {
		idx.Columns = append(idx.Columns, indexElement(p, elem))
	}

	for !p.eof() {
		switch {
		case p.acceptKeyword("INCLUDE"), p.acceptKeyword("WITH"):
			if _, err := p.group(); err != nil {
				return nil, err
			}
		case p.acceptKeyword("TABLESPACE"):
			if _, err := p.ident(); err != nil {
				return nil, err
			}
		case p.acceptKeyword("NULLS", "NOT", "DISTINCT"), p.acceptKeyword("NULLS", "DISTINCT"):
		case p.acceptKeyword("WHERE"):
			idx.Partial = true
			idx.Predicate = p.rest()
			p.i = len(p.toks)
		default:
			return nil, p.errorf("unexpected token after index columns")
		}
	}
	return idx, nil
}

// indexElement returns the column name of a plain element, or the source
// text of an expression element.
func indexElement(p *parser, elem []token) string {
	if len(elem) == 0 {
		return ""
	}
	if elem[0].isName() && (len(elem) == 1 || !elem[1].is("(")) {
		return elem[0].val
	}
	return p.text(elem)
}

func parseCreateTrigger(text string, base int) (*TriggerDecl, error) {
	p, err := newParser(text, base)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	p.acceptKeyword("OR", "REPLACE")
	p.acceptKeyword("CONSTRAINT")
	if err := p.expectKeyword("TRIGGER"); err != nil {
		return nil, err
	}
	tr := &TriggerDecl{Raw: text, Offset: base}
	if tr.Name, err = p.ident(); err != nil {
		return nil, err
	}
	switch {
	case p.acceptKeyword("BEFORE"):
		tr.Timing = TimingBefore
	case p.acceptKeyword("AFTER"):
		tr.Timing = TimingAfter
	case p.isKeyword("INSTEAD", "OF"):
		return nil, p.errorf("INSTEAD OF triggers are not supported")
	default:
		return nil, p.errorf("expected BEFORE or AFTER")
	}

	for {
		switch {
		case p.acceptKeyword("INSERT"):
			tr.Events = append(tr.Events, EventInsert)
		case p.acceptKeyword("DELETE"):
			tr.Events = append(tr.Events, EventDelete)
		case p.acceptKeyword("TRUNCATE"):
		case p.acceptKeyword("UPDATE"):
			tr.Events = append(tr.Events, EventUpdate)
			if p.acceptKeyword("OF") {
				for {
					col, err := p.ident()
					if err != nil {
						return nil, err
					}
					tr.UpdateColumns = append(tr.UpdateColumns, col)
					if !p.isPunct(",") {
						break
					}
					p.next()
				}
			}
		default:
			return nil, p.errorf("expected trigger event")
		}
		if !p.acceptKeyword("OR") {
			break
		}
	}

	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	if _, tr.Table, err = p.qualifiedName(); err != nil {
		return nil, err
	}

	for !p.eof() {
		switch {
		case p.acceptKeyword("FOR"):
			p.acceptKeyword("EACH")
			tr.ForEachRow = p.acceptKeyword("ROW")
			if !tr.ForEachRow {
				p.acceptKeyword("STATEMENT")
			}
		case p.acceptKeyword("WHEN"):
			if _, err := p.group(); err != nil {
				return nil, err
			}
		case p.acceptKeyword("EXECUTE"):
			if !p.acceptKeyword("FUNCTION") && !p.acceptKeyword("PROCEDURE") {
				return nil, p.errorf("expected FUNCTION or PROCEDURE")
			}
			if _, tr.Function, err = p.qualifiedName(); err != nil {
				return nil, err
			}
			return tr, nil
		default:
			p.next()
		}
	}
	return nil, p.errorf("expected EXECUTE FUNCTION")
}

func parseAlterTable(text string, base int) (*AlterDecl, error) {
	p, err := newParser(text, base)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ALTER", "TABLE"); err != nil {
		return nil, err
	}
	p.acceptKeyword("IF", "EXISTS")
	p.acceptKeyword("ONLY")
	a := &AlterDecl{Raw: text, Offset: base}
	if _, a.Table, err = p.qualifiedName(); err != nil {
		return nil, err
	}
	if p.isPunct("*") {
		p.next()
	}
	if p.eof() {
		return nil, p.errorf("expected ALTER TABLE action")
	}
	for _, elem := range splitTopLevel(p.toks[p.i:]) {
		act, err := p.sub(elem).alterAction()
		if err != nil {
			return nil, err
		}
		act.Raw = p.text(elem)
		a.Actions = append(a.Actions, act)
	}
	return a, nil
}

func (p *parser) alterAction() (AlterAction, error) {
	var act AlterAction
	var err error
	switch {
	case p.acceptKeyword("ADD"):
		if p.acceptKeyword("COLUMN") || !tableConstraintStart[p.peek().upper()] {
			p.acceptKeyword("IF", "NOT", "EXISTS")
			act.Kind = ActionAddColumn
			act.Column, err = p.columnDef()
			return act, err
		}
		scratch := &TableDecl{}
		if err := p.tableConstraint(scratch); err != nil {
			return act, err
		}
		switch {
		case len(scratch.Checks) > 0:
			act.Kind, act.Check = ActionAddCheck, scratch.Checks[0]
		case len(scratch.Keys) > 0:
			act.Kind, act.Key = ActionAddKey, scratch.Keys[0]
		case len(scratch.ForeignKeys) > 0:
			act.Kind, act.ForeignKey = ActionAddForeignKey, scratch.ForeignKeys[0]
		}
		return act, nil

	case p.acceptKeyword("ALTER"):
		p.acceptKeyword("COLUMN")
		if act.ColumnName, err = p.ident(); err != nil {
			return act, err
		}
		switch {
		case p.acceptKeyword("SET", "DEFAULT"):
			act.Kind = ActionSetDefault
			act.Default = p.rest()
		case p.acceptKeyword("DROP", "DEFAULT"):
			act.Kind = ActionDropDefault
		case p.acceptKeyword("SET", "NOT", "NULL"):
			act.Kind = ActionSetNotNull
		case p.acceptKeyword("DROP", "NOT", "NULL"):
			act.Kind = ActionDropNotNull
		case p.acceptKeyword("SET", "DATA", "TYPE"), p.acceptKeyword("TYPE"):
			act.Kind = ActionSetType
			act.RawType = p.text(p.skipUntil(func(t token) bool {
				return t.upper() == "USING" || t.upper() == "COLLATE"
			}))
			act.Type = NormalizeType(act.RawType)
		}
		return act, nil

	case p.acceptKeyword("DROP", "CONSTRAINT"):
		p.acceptKeyword("IF", "EXISTS")
		act.Kind = ActionDropConstraint
		act.Option, err = p.ident()
		return act, err

	case p.acceptKeyword("DROP"):
		p.acceptKeyword("COLUMN")
		p.acceptKeyword("IF", "EXISTS")
		act.Kind = ActionDropColumn
		act.ColumnName, err = p.ident()
		return act, err

	case p.acceptKeyword("RENAME"):
		if p.acceptKeyword("TO") {
			act.Kind = ActionRenameTable
			act.NewName, err = p.ident()
			return act, err
		}
		if p.isKeyword("CONSTRAINT") {
			return act, nil
		}
		p.acceptKeyword("COLUMN")
		if act.ColumnName, err = p.ident(); err != nil {
			return act, err
		}
		if err := p.expectKeyword("TO"); err != nil {
			return act, err
		}
		act.Kind = ActionRenameColumn
		act.NewName, err = p.ident()
		return act, err

	case p.acceptKeyword("SET"):
		return p.setOption()
	}
	return act, nil
}

// setOption handles "SET (key = value, ...)" and "SET key [TO|=] value".
// Only the first storage parameter of a list is recorded.
func (p *parser) setOption() (AlterAction, error) {
	act := AlterAction{Kind: ActionSetOption}
	if p.isPunct("(") {
		inner, err := p.group()
		if err != nil {
			return act, err
		}
		elems := splitTopLevel(inner)
		if len(elems) == 0 || len(elems[0]) == 0 {
			return act, p.errorf("empty option list")
		}
		e := p.sub(elems[0])
		act.Option = e.next().val
		if e.isPunct("=") {
			e.next()
		}
		act.Value = optionValue(e)
		return act, nil
	}
	switch p.peek().upper() {
	case "SCHEMA", "LOGGED", "UNLOGGED", "TABLESPACE", "WITHOUT", "ACCESS", "WITH":
		return AlterAction{}, nil
	}
	key, err := p.ident()
	if err != nil {
		return act, err
	}
	act.Option = key
	if !p.acceptKeyword("TO") && p.isPunct("=") {
		p.next()
	}
	act.Value = optionValue(p)
	return act, nil
}

func optionValue(p *parser) string {
	if p.eof() {
		return ""
	}
	if p.peek().kind == tokString {
		return p.next().val
	}
	return p.rest()
}

func parseComment(text string, base int) (*CommentDecl, error) {
	p, err := newParser(text, base)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("COMMENT", "ON"); err != nil {
		return nil, err
	}
	c := &CommentDecl{Raw: text, Offset: base}
	switch {
	case p.acceptKeyword("TABLE"):
		c.Target = CommentTable
		if _, c.Table, err = p.qualifiedName(); err != nil {
			return nil, err
		}
	case p.acceptKeyword("COLUMN"):
		c.Target = CommentColumn
		var parts []string
		for {
			part, err := p.ident()
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
			if !p.isPunct(".") {
				break
			}
			p.next()
		}
		if len(parts) < 2 {
			return nil, p.errorf("expected table.column")
		}
		c.Table, c.Column = parts[len(parts)-2], parts[len(parts)-1]
	default:
		return nil, nil
	}
	if err := p.expectKeyword("IS"); err != nil {
		return nil, err
	}
	if p.acceptKeyword("NULL") {
		return c, nil
	}
	if p.peek().kind != tokString {
		return nil, p.errorf("expected comment text")
	}
	c.Text = p.next().val
	return c, nil
}
