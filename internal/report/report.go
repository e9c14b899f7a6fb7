// Package report orders findings and renders them as text or JSON.
package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/bfv/temporallint/internal/finding"
)

// Section is the findings of one source.
type Section struct {
	Name     string
	Findings []finding.Finding
}

// Options controls text rendering.
type Options struct {
	Evidence bool // print the offending DDL under each finding
	Summary  bool // print a totals line at the end
}

// Sort orders findings by table (findings without a table first), then by
// descending severity, then by column. The sort is stable so findings that
// tie keep rule registration order.
func Sort(findings []finding.Finding) {
	slices.SortStableFunc(findings, func(a, b finding.Finding) int {
		return cmp.Or(
			cmp.Compare(a.Table, b.Table),
			cmp.Compare(a.Severity, b.Severity),
			cmp.Compare(a.Column, b.Column),
		)
	})
}

// WriteText renders one line per finding:
//
//	table.column: [SEVERITY] rule_id: message
//
// A "==> name <==" header precedes each section when there is more than one.
func WriteText(w io.Writer, sections []Section, opts Options) error {
	var total finding.Summary
	for i, s := range sections {
		if len(sections) > 1 {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "==> %s <==\n", s.Name); err != nil {
				return err
			}
		}
		for _, f := range sorted(s.Findings) {
			if _, err := fmt.Fprintf(w, "%s: [%s] %s: %s\n", f.Location(), f.Severity.Label(), f.RuleID, f.Message); err != nil {
				return err
			}
			if opts.Evidence && f.Evidence != "" {
				if _, err := fmt.Fprintf(w, "    %s\n", f.Evidence); err != nil {
					return err
				}
			}
		}
		total.Merge(finding.Summarize(s.Findings))
	}
	if opts.Summary {
		if _, err := fmt.Fprintf(w, "%d error(s), %d warning(s), %d info(s)\n", total.Errors, total.Warnings, total.Infos); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON renders every finding of every section as one JSON array. Each
// object carries the name of its source.
func WriteJSON(w io.Writer, sections []Section) error {
	all := []finding.Finding{}
	for _, s := range sections {
		for _, f := range sorted(s.Findings) {
			f.Source = s.Name
			all = append(all, f)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(all)
}

// ExitCode maps a run to the process exit status: 2 when analysis could not
// happen at all, 1 when an Error was found (or a Warning under strict), 0
// otherwise.
func ExitCode(s finding.Summary, fatal, strict bool) int {
	switch {
	case fatal:
		return 2
	case s.Errors > 0, strict && s.Warnings > 0:
		return 1
	default:
		return 0
	}
}

func sorted(findings []finding.Finding) []finding.Finding {
	out := slices.Clone(findings)
	Sort(out)
	return out
}
