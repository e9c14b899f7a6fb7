// Package finding defines the diagnostics produced by the linter: severity
// levels, the Finding record and the stable rule identifiers used by every
// stage of the pipeline.
package finding

import (
	"fmt"
	"strings"
)

// Severity indicates the importance of a finding.
type Severity int

// Severity levels, most severe first so that ascending order sorts errors to
// the top of a report.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Label returns the upper-case form used in text reports.
func (s Severity) Label() string {
	return strings.ToUpper(s.String())
}

// MarshalText renders the severity as its name in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	sev, ok := ParseSeverity(string(text))
	if !ok {
		return fmt.Errorf("unknown severity %q", string(text))
	}
	*s = sev
	return nil
}

// ParseSeverity converts a severity name (case-insensitive) to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, true
	case "warning", "warn":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityInfo, false
	}
}

// Rule identifiers. Structural and lexical findings share the namespace with
// the convention rules so reports can be filtered uniformly.
const (
	RuleTypeAffinity        = "R1-TypeAffinity"
	RuleAuditPresence       = "R2-AuditPresence"
	RuleDefaultPresence     = "R3-DefaultPresence"
	RuleSoftDeleteNullable  = "R4-SoftDeleteNullable"
	RuleChronology          = "R5-ChronologyConstraint"
	RuleValidityPairing     = "R6-ValidityPairing"
	RuleIndexCoverage       = "R7-IndexCoverage"
	RuleTriggerForUpdatedAt = "R8-TriggerForUpdatedAt"
	RuleDuplicateTable      = "R9-DuplicateTable"
	RuleDanglingReference   = "R9-DanglingReference"
	RuleUnclassified        = "R10-Unclassified"
	RuleUnterminatedLiteral = "UnterminatedLiteral"
	RuleParseError          = "ParseError"
)

// Finding is a single diagnostic. Table and Column are empty for findings
// that are not attached to a table (lexical and parse errors) or a column.
type Finding struct {
	Source   string   `json:"source,omitempty"`
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Table    string   `json:"table,omitempty"`
	Column   string   `json:"column,omitempty"`
	Message  string   `json:"message"`
	Evidence string   `json:"evidence,omitempty"`
}

// Location returns "table.column", "table" or "-" for unattached findings.
func (f Finding) Location() string {
	switch {
	case f.Table == "":
		return "-"
	case f.Column == "":
		return f.Table
	default:
		return f.Table + "." + f.Column
	}
}

// Summary counts findings per severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// Summarize tallies findings by severity.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		s.Add(f.Severity)
	}
	return s
}

// Add counts one finding of the given severity.
func (s *Summary) Add(sev Severity) {
	switch sev {
	case SeverityError:
		s.Errors++
	case SeverityWarning:
		s.Warnings++
	case SeverityInfo:
		s.Infos++
	}
}

// Merge adds the counts of o to s.
func (s *Summary) Merge(o Summary) {
	s.Errors += o.Errors
	s.Warnings += o.Warnings
	s.Infos += o.Infos
}

// Excerpt collapses whitespace in raw DDL text and truncates it so it can be
// shown as evidence on a single line.
func Excerpt(raw string) string {
	const maxLen = 120
	s := strings.Join(strings.Fields(raw), " ")
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen-3]) + "..."
	}
	return s
}
