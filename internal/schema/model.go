// Package schema aggregates parsed declarations into a per-table model.
package schema

import (
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
)

// Model is the schema derived from one DDL source. Tables are keyed by their
// unqualified name; Order keeps declaration order for deterministic output.
type Model struct {
	Tables map[string]*ddl.TableDecl
	Order  []string
	// Issues holds the structural findings recorded while building.
	Issues []finding.Finding

	// renamed maps a table's former names to its next name.
	renamed map[string]string
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Tables: map[string]*ddl.TableDecl{}, renamed: map[string]string{}}
}

// Table returns the named table or nil.
func (m *Model) Table(name string) *ddl.TableDecl {
	return m.Tables[name]
}

// Each calls fn for every table in declaration order.
func (m *Model) Each(fn func(t *ddl.TableDecl)) {
	for _, name := range m.Order {
		fn(m.Tables[name])
	}
}

// Len returns the number of tables.
func (m *Model) Len() int {
	return len(m.Order)
}
