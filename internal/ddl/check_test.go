package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, expr string) *CheckConstraint {
	t.Helper()
	toks, err := lex(expr, 0)
	require.NoError(t, err)
	return analyzeCheck(toks, expr)
}

func TestAnalyzeCheck(t *testing.T) {
	tests := []struct {
		name        string
		expr        string
		columns     []string
		comparisons []Comparison
		unparsed    bool
	}{
		{
			name:        "simple ordering",
			expr:        "ended_at > started_at",
			columns:     []string{"ended_at", "started_at"},
			comparisons: []Comparison{{Left: "ended_at", Op: ">", Right: "started_at"}},
		},
		{
			name:        "nullable end",
			expr:        "ended_at IS NULL OR ended_at >= started_at",
			columns:     []string{"ended_at", "started_at"},
			comparisons: []Comparison{{Left: "ended_at", Op: ">=", Right: "started_at"}},
		},
		{
			name:        "casts and qualifiers",
			expr:        "t.valid_from::date < valid_to::date",
			columns:     []string{"valid_from", "valid_to"},
			comparisons: []Comparison{{Left: "valid_from", Op: "<", Right: "valid_to"}},
		},
		{
			name:        "literal and function operands",
			expr:        "created_at <= now() AND amount > -1 AND due_at > '2000-01-01'",
			columns:     []string{"amount", "created_at", "due_at"},
			comparisons: []Comparison{{Left: "created_at", Op: "<=", Right: ""}, {Left: "amount", Op: ">", Right: ""}, {Left: "due_at", Op: ">", Right: ""}},
		},
		{
			name:        "opaque function call",
			expr:        "COALESCE(ended_at, 'infinity') > started_at",
			columns:     []string{"ended_at", "started_at"},
			comparisons: []Comparison{{Left: "", Op: ">", Right: "started_at"}},
			unparsed:    true,
		},
		{
			name:        "negated comparison",
			expr:        "NOT (ended_at < started_at)",
			columns:     []string{"ended_at", "started_at"},
			comparisons: []Comparison{{Left: "ended_at", Op: ">=", Right: "started_at"}},
		},
		{
			name:        "double negation",
			expr:        "NOT (NOT (valid_to > valid_from))",
			columns:     []string{"valid_from", "valid_to"},
			comparisons: []Comparison{{Left: "valid_to", Op: ">", Right: "valid_from"}},
		},
		{
			name:        "negated conjunction with null guard",
			expr:        "NOT (ended_at IS NOT NULL AND ended_at < started_at)",
			columns:     []string{"ended_at", "started_at"},
			comparisons: []Comparison{{Left: "ended_at", Op: ">=", Right: "started_at"}},
		},
		{
			name:        "negated disjunction",
			expr:        "NOT (valid_to <= valid_from OR valid_from IS NULL)",
			columns:     []string{"valid_from", "valid_to"},
			comparisons: []Comparison{{Left: "valid_to", Op: ">", Right: "valid_from"}},
		},
		{
			name:    "between",
			expr:    "started_at BETWEEN placed_at AND ended_at",
			columns: []string{"ended_at", "placed_at", "started_at"},
			comparisons: []Comparison{
				{Left: "started_at", Op: ">=", Right: "placed_at"},
				{Left: "started_at", Op: "<=", Right: "ended_at"},
			},
		},
		{
			name:     "not between",
			expr:     "started_at NOT BETWEEN placed_at AND ended_at",
			columns:  []string{"ended_at", "placed_at", "started_at"},
			unparsed: true,
		},
		{
			name:     "guard on another column",
			expr:     "deleted_at IS NULL OR ended_at >= started_at",
			columns:  []string{"deleted_at", "ended_at", "started_at"},
			unparsed: true,
		},
		{
			name:     "alternative orderings",
			expr:     "ended_at > started_at OR ended_at < placed_at",
			columns:  []string{"ended_at", "placed_at", "started_at"},
			unparsed: true,
		},
		{
			name:    "disjunction without ordering",
			expr:    "phase = 'open' OR phase = 'closed'",
			columns: []string{"phase"},
		},
		{
			name:     "subquery",
			expr:     "id IN (SELECT id FROM other)",
			columns:  []string{"id", "other"},
			unparsed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chk := check(t, tt.expr)
			assert.Equal(t, tt.columns, chk.Columns)
			assert.Equal(t, tt.comparisons, chk.Comparisons)
			assert.Equal(t, tt.unparsed, chk.Unparsed)
		})
	}
}

func TestScanCheckNegation(t *testing.T) {
	scan := func(expr string) *CheckConstraint {
		toks, err := lex(expr, 0)
		require.NoError(t, err)
		return scanCheck(toks, expr)
	}

	chk := scan("NOT (ended_at < started_at)")
	assert.Empty(t, chk.Comparisons, "a negated comparison is not kept as written")
	assert.True(t, chk.Unparsed)
	assert.Equal(t, []string{"ended_at", "started_at"}, chk.Columns)

	chk = scan("ended_at IS NOT NULL AND id NOT IN (1, 2) AND ended_at > started_at")
	assert.False(t, chk.Unparsed)
	assert.Equal(t, []Comparison{{Left: "ended_at", Op: ">", Right: "started_at"}}, chk.Comparisons)
}

func TestComparisonOriented(t *testing.T) {
	later, earlier, strict := Comparison{Left: "a", Op: "<", Right: "b"}.Oriented()
	assert.Equal(t, "b", later)
	assert.Equal(t, "a", earlier)
	assert.True(t, strict)

	later, earlier, strict = Comparison{Left: "a", Op: ">=", Right: "b"}.Oriented()
	assert.Equal(t, "a", later)
	assert.Equal(t, "b", earlier)
	assert.False(t, strict)
}

func TestCheckReferences(t *testing.T) {
	chk := check(t, "shipped_at >= placed_at")
	assert.True(t, chk.References("placed_at", "shipped_at"))
	assert.False(t, chk.References("placed_at", "delivered_at"))
}
