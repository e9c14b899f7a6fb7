package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bfv/temporallint/internal/rules"
)

// NewRulesCmd builds and returns the 'rules' cobra command.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the built-in rules, or document one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := rules.Default()
			if len(args) == 1 {
				r, ok := rules.Lookup(list, args[0])
				if !ok {
					return fmt.Errorf("unknown rule %q", args[0])
				}
				printRuleDoc(cmd.OutOrStdout(), r)
				return nil
			}
			printRuleTable(cmd.OutOrStdout(), list)
			return nil
		},
	}
	return cmd
}

// printRuleTable renders the rules as a fixed-column table.
func printRuleTable(w io.Writer, list []rules.Rule) {
	const (
		hID       = "ID"
		hSeverity = "SEVERITY"
		hName     = "NAME"
		hDesc     = "DESCRIPTION"
	)

	wID := len(hID)
	wSeverity := len(hSeverity)
	wName := len(hName)

	for _, r := range list {
		wID = max(wID, len(r.ID))
		wSeverity = max(wSeverity, len(r.Severity.String()))
		wName = max(wName, len(r.Name))
	}

	// Add padding between columns.
	wID += 2
	wSeverity += 2
	wName += 2

	fmtRow := func(id, sev, name, desc string) {
		fmt.Fprintf(w, "%-*s%-*s%-*s%s\n", wID, id, wSeverity, sev, wName, name, desc)
	}

	fmtRow(hID, hSeverity, hName, hDesc)
	fmtRow(strings.Repeat("-", wID-2), strings.Repeat("-", wSeverity-2), strings.Repeat("-", wName-2), strings.Repeat("-", len(hDesc)))

	for _, r := range list {
		fmtRow(r.ID, r.Severity.String(), r.Name, r.Description)
	}
}

func printRuleDoc(w io.Writer, r rules.Rule) {
	fmt.Fprintf(w, "%s  %s (%s)\n\n", r.ID, r.Name, r.Severity)
	fmt.Fprintf(w, "%s\n", r.Description)
	if r.Rationale != "" {
		fmt.Fprintf(w, "\nWhy: %s\n", r.Rationale)
	}
	if r.BadExample != "" {
		fmt.Fprintf(w, "\nBad:\n%s\n", indent(r.BadExample))
	}
	if r.GoodExample != "" {
		fmt.Fprintf(w, "\nGood:\n%s\n", indent(r.GoodExample))
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
