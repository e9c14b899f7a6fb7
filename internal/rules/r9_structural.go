package rules

import (
	"github.com/bfv/temporallint/internal/finding"
	"github.com/bfv/temporallint/internal/schema"
)

var structuralIntegrity = Rule{
	ID:          "R9-StructuralIntegrity",
	Name:        "structural-integrity",
	Description: "Table names are unique and indexes, triggers and ALTERs target declared tables",
	Severity:    finding.SeverityError,
	CheckModel:  checkStructure,

	Rationale: `A second CREATE TABLE for the same name, or an index on a misspelled table, means the
script does not describe the schema its author thinks it does.`,

	BadExample:  `CREATE INDEX idx_x ON missing_table (col);`,
	GoodExample: `CREATE TABLE missing_table (col timestamptz);
CREATE INDEX idx_x ON missing_table (col);`,
}

// checkStructure reports the issues recorded while the model was built.
func checkStructure(m *schema.Model) []finding.Finding {
	return append([]finding.Finding(nil), m.Issues...)
}
