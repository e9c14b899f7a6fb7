package rules

import (
	"strings"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/finding"
)

// Config controls which rules run, their severity and the naming policy.
type Config struct {
	// DisabledRules contains rule keys (full or short IDs) to skip.
	DisabledRules map[string]bool

	// SeverityOverrides changes the default severity of rules.
	SeverityOverrides map[string]finding.Severity

	Policy classify.Policy
}

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules:     make(map[string]bool),
		SeverityOverrides: make(map[string]finding.Severity),
		Policy:            classify.DefaultPolicy(),
	}
}

// Disable disables a rule by full or short ID.
func (c *Config) Disable(key string) *Config {
	c.DisabledRules[normalizeKey(key)] = true
	return c
}

// SetSeverity overrides the severity for a rule. An override by full ID
// wins over one by short ID.
func (c *Config) SetSeverity(key string, severity finding.Severity) *Config {
	c.SeverityOverrides[normalizeKey(key)] = severity
	return c
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(r Rule) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[normalizeKey(r.ID)] || c.DisabledRules[normalizeKey(r.Short())]
}

// GetSeverity returns the severity for a rule, applying any override.
func (c *Config) GetSeverity(r Rule) finding.Severity {
	if c != nil {
		for _, key := range []string{r.ID, r.Short()} {
			if sev, ok := c.SeverityOverrides[normalizeKey(key)]; ok {
				return sev
			}
		}
	}
	return r.Severity
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
