package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
)

// Build aggregates decls into a Model in two passes. Pass 1 registers every
// CREATE TABLE and applies ALTER TABLE ... RENAME TO in source order; pass 2
// attaches indexes, triggers, ALTER patches and comments, so they may precede
// the table they target. The returned findings are also stored in
// Model.Issues.
func Build(decls []ddl.Decl) (*Model, []finding.Finding) {
	m := NewModel()

	for _, d := range decls {
		if a, ok := d.(*ddl.AlterDecl); ok {
			m.rename(a)
			continue
		}
		t, ok := d.(*ddl.TableDecl)
		if !ok {
			continue
		}
		if first, dup := m.Tables[t.Name]; dup {
			m.issue(finding.RuleDuplicateTable, t.Name, "",
				fmt.Sprintf("table %s is declared more than once (first declaration at offset %d is kept)", t.Name, first.Offset),
				t.Raw)
			continue
		}
		m.Tables[t.Name] = t
		m.Order = append(m.Order, t.Name)
	}

	for _, d := range decls {
		switch d := d.(type) {
		case *ddl.IndexDecl:
			t := m.target(d.Table, "index "+nameOr(d.Name, "(unnamed)"), d.Raw)
			if t != nil {
				t.Indexes = append(t.Indexes, d)
			}
		case *ddl.TriggerDecl:
			t := m.target(d.Table, "trigger "+d.Name, d.Raw)
			if t != nil {
				t.Triggers = append(t.Triggers, d)
			}
		case *ddl.AlterDecl:
			t := m.target(d.Table, "ALTER TABLE", d.Raw)
			if t == nil {
				continue
			}
			for _, col := range d.Apply(t) {
				m.issue(finding.RuleDanglingReference, t.Name, col,
					fmt.Sprintf("ALTER TABLE %s refers to unknown column %s", t.Name, col), d.Raw)
			}
		case *ddl.CommentDecl:
			m.comment(d)
		}
	}
	return m, m.Issues
}

func (m *Model) issue(rule, table, column, msg, raw string) {
	m.Issues = append(m.Issues, finding.Finding{
		RuleID:   rule,
		Severity: finding.SeverityError,
		Table:    table,
		Column:   column,
		Message:  msg,
		Evidence: finding.Excerpt(raw),
	})
}

// rename moves a table to its new name. The old name keeps resolving so
// statements written before the rename still find the table. A rename of a
// table not declared yet is left to pass 2, which reports it.
func (m *Model) rename(a *ddl.AlterDecl) {
	for _, act := range a.Actions {
		if act.Kind != ddl.ActionRenameTable {
			continue
		}
		t := m.resolve(a.Table)
		if t == nil || t.Name == act.NewName {
			continue
		}
		if _, taken := m.Tables[act.NewName]; taken {
			m.issue(finding.RuleDuplicateTable, t.Name, "",
				fmt.Sprintf("table %s cannot be renamed to %s, which is already declared", t.Name, act.NewName),
				a.Raw)
			continue
		}
		delete(m.Tables, t.Name)
		m.Order[slices.Index(m.Order, t.Name)] = act.NewName
		m.renamed[t.Name] = act.NewName
		t.Name = act.NewName
		m.Tables[t.Name] = t
	}
}

// resolve looks a table up by its current or a former name.
func (m *Model) resolve(name string) *ddl.TableDecl {
	for range len(m.renamed) + 1 {
		if t := m.Tables[name]; t != nil {
			return t
		}
		next, ok := m.renamed[name]
		if !ok {
			break
		}
		name = next
	}
	return nil
}

// target resolves the table a declaration refers to, recording a dangling
// reference when it is missing.
func (m *Model) target(table, what, raw string) *ddl.TableDecl {
	if t := m.resolve(table); t != nil {
		return t
	}
	m.issue(finding.RuleDanglingReference, table, "",
		fmt.Sprintf("%s references table %s, which is not declared", what, table), raw)
	return nil
}

func (m *Model) comment(c *ddl.CommentDecl) {
	t := m.target(c.Table, "COMMENT ON", c.Raw)
	if t == nil {
		return
	}
	if c.Target == ddl.CommentTable {
		t.Comment = c.Text
		return
	}
	col := t.Column(c.Column)
	if col == nil {
		m.issue(finding.RuleDanglingReference, t.Name, c.Column,
			fmt.Sprintf("COMMENT ON COLUMN refers to unknown column %s.%s", t.Name, c.Column), c.Raw)
		return
	}
	col.Comment = strings.TrimSpace(c.Text)
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
