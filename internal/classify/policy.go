package classify

import (
	"slices"
	"strings"
)

// Policy holds the naming conventions used by the classifier and the rules.
// The zero value matches nothing; start from DefaultPolicy.
type Policy struct {
	// Verbs is the closed list of lifecycle and business event verbs.
	Verbs []string `yaml:"verbs" mapstructure:"verbs"`
	// SchedulingNames are exact names of deadline-style columns.
	SchedulingNames []string `yaml:"scheduling_names" mapstructure:"scheduling_names"`
	// SchedulingSuffixes mark deadline-style columns such as "publish_for".
	SchedulingSuffixes []string `yaml:"scheduling_suffixes" mapstructure:"scheduling_suffixes"`
	// LogSuffixes mark append-only tables exempt from audit columns.
	LogSuffixes []string `yaml:"log_suffixes" mapstructure:"log_suffixes"`
	// Chains are ordered verb sequences whose columns must be chronological.
	Chains [][]string `yaml:"chains" mapstructure:"chains"`
	// NowFunctions are default expressions that stamp the current time.
	NowFunctions []string `yaml:"now_functions" mapstructure:"now_functions"`
}

// DefaultPolicy returns the documented conventions.
func DefaultPolicy() Policy {
	return Policy{
		Verbs: []string{
			"created", "updated", "started", "ended", "confirmed", "shipped",
			"delivered", "cancelled", "published", "archived", "verified",
			"approved", "rejected", "submitted", "completed", "failed", "sent",
			"received", "expired", "placed",
		},
		SchedulingNames:    []string{"scheduled_for", "due_at", "deadline_at"},
		SchedulingSuffixes: []string{"_for"},
		LogSuffixes:        []string{"_log", "_history"},
		Chains: [][]string{
			{"placed", "confirmed", "shipped", "delivered"},
			{"started", "ended"},
			{"started", "completed"},
			{"started", "failed"},
			{"submitted", "approved"},
			{"submitted", "rejected"},
			{"sent", "received"},
			{"published", "archived"},
		},
		NowFunctions: []string{
			"current_timestamp", "now()", "localtimestamp", "transaction_timestamp()",
			"statement_timestamp()", "clock_timestamp()",
		},
	}
}

// IsVerb reports whether v is a known event verb.
func (p Policy) IsVerb(v string) bool {
	return slices.Contains(p.Verbs, v)
}

// IsLogTable reports whether a table name carries a log or history suffix.
func (p Policy) IsLogTable(name string) bool {
	name = strings.ToLower(name)
	for _, s := range p.LogSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// IsNow reports whether a default expression contains a call that stamps
// the current time, such as "now()" or "CURRENT_TIMESTAMP(3)". Entries
// ending in "()" only match when called, so the literal 'now' does not.
func (p Policy) IsNow(expr string) bool {
	e := strings.ToLower(expr)
	for _, fn := range p.NowFunctions {
		name, call := strings.CutSuffix(strings.ToLower(strings.TrimSpace(fn)), "()")
		if name == "" {
			continue
		}
		for i := 0; ; {
			j := strings.Index(e[i:], name)
			if j < 0 {
				break
			}
			start, end := i+j, i+j+len(name)
			i = end
			if (start > 0 && isWordByte(e[start-1])) || (end < len(e) && isWordByte(e[end])) {
				continue
			}
			if !call || strings.HasPrefix(strings.TrimSpace(e[end:]), "(") {
				return true
			}
		}
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// SplitEvent splits an event column name "{noun}_{verb}_at" into its noun
// prefix and verb. The noun is empty for "{verb}_at". ok is false when the
// name does not end in "_at" or the verb is not in the policy.
func (p Policy) SplitEvent(name string) (noun, verb string, ok bool) {
	stem, found := strings.CutSuffix(strings.ToLower(name), "_at")
	if !found || stem == "" {
		return "", "", false
	}
	if i := strings.LastIndexByte(stem, '_'); i >= 0 {
		noun, verb = stem[:i], stem[i+1:]
	} else {
		verb = stem
	}
	if !p.IsVerb(verb) {
		return "", "", false
	}
	return noun, verb, true
}
