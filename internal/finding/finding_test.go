package finding

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		ok   bool
	}{
		{"error", SeverityError, true},
		{" Warning ", SeverityWarning, true},
		{"warn", SeverityWarning, true},
		{"INFO", SeverityInfo, true},
		{"fatal", SeverityInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSeverity(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityText(t *testing.T) {
	assert.Equal(t, "WARNING", SeverityWarning.Label())
	assert.Equal(t, "unknown", Severity(7).String())

	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("error")))
	assert.Equal(t, SeverityError, s)
	assert.Error(t, s.UnmarshalText([]byte("loud")))
}

func TestFindingJSON(t *testing.T) {
	data, err := json.Marshal(Finding{RuleID: RuleTypeAffinity, Severity: SeverityError, Table: "users", Message: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rule_id":"R1-TypeAffinity","severity":"error","table":"users","message":"m"}`, string(data))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "-", Finding{}.Location())
	assert.Equal(t, "users", Finding{Table: "users"}.Location())
	assert.Equal(t, "users.created_at", Finding{Table: "users", Column: "created_at"}.Location())
}

func TestSummary(t *testing.T) {
	s := Summarize([]Finding{{Severity: SeverityError}, {Severity: SeverityInfo}, {Severity: SeverityError}})
	assert.Equal(t, Summary{Errors: 2, Infos: 1}, s)

	s.Merge(Summary{Warnings: 3, Infos: 1})
	assert.Equal(t, Summary{Errors: 2, Warnings: 3, Infos: 2}, s)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "CREATE TABLE t ( id int )", Excerpt("CREATE TABLE t (\n    id int\n)"))

	long := Excerpt(strings.Repeat("é", 200))
	assert.Equal(t, 120, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "..."))
}
