package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/finding"
	"github.com/bfv/temporallint/internal/schema"
	"github.com/bfv/temporallint/internal/splitter"
)

func model(t *testing.T, src string) *schema.Model {
	t.Helper()
	stmts, errs := splitter.Split([]byte(src))
	require.Empty(t, errs)
	var decls []ddl.Decl
	for _, st := range stmts {
		d, err := ddl.Parse(st)
		require.NoError(t, err, st.Text)
		if d != nil {
			decls = append(decls, d)
		}
	}
	m, _ := schema.Build(decls)
	return m
}

func run(t *testing.T, src string, only ...string) []finding.Finding {
	t.Helper()
	list := Default()
	if len(only) > 0 {
		list = nil
		for _, id := range only {
			r, ok := Lookup(Default(), id)
			require.True(t, ok, id)
			list = append(list, r)
		}
	}
	return NewEngine(list, nil).Run(model(t, src), nil)
}

func byRule(findings []finding.Finding, id string) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.RuleID == id {
			out = append(out, f)
		}
	}
	return out
}

func TestScenarioA(t *testing.T) {
	findings := run(t, `CREATE TABLE users (id bigserial PRIMARY KEY, created_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP);`)

	r1 := byRule(findings, finding.RuleTypeAffinity)
	require.Len(t, r1, 1)
	assert.Equal(t, "users", r1[0].Table)
	assert.Equal(t, "created_at", r1[0].Column)
	assert.Equal(t, finding.SeverityError, r1[0].Severity)
	assert.Equal(t, "created_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP", r1[0].Evidence)

	r2 := byRule(findings, finding.RuleAuditPresence)
	require.Len(t, r2, 1)
	assert.Equal(t, finding.SeverityWarning, r2[0].Severity)
	assert.Contains(t, r2[0].Message, "updated_at")
	assert.Empty(t, r2[0].Column)

	assert.Empty(t, byRule(findings, finding.RuleDefaultPresence))
}

func TestScenarioB(t *testing.T) {
	findings := run(t, `CREATE TABLE jobs (
    id bigint PRIMARY KEY,
    started_at timestamptz NOT NULL,
    ended_at timestamptz NOT NULL,
    CHECK (ended_at > started_at)
);`, "R5")
	assert.Empty(t, findings)
}

func TestCreatedAtNeverFiresR3(t *testing.T) {
	for _, src := range []string{
		`CREATE TABLE a (created_at timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE b (id int, created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP, note text)`,
		`CREATE TABLE c (created_at timestamptz NOT NULL DEFAULT CURRENT_TIMESTAMP, updated_at timestamptz)`,
	} {
		for _, f := range run(t, src, "R3") {
			assert.NotEqual(t, "created_at", f.Column, src)
		}
	}
}

func TestDeletedAtNotNullFiresR1AndR4(t *testing.T) {
	findings := run(t, `CREATE TABLE posts (id int, deleted_at timestamp NOT NULL)`)
	r1 := byRule(findings, finding.RuleTypeAffinity)
	r4 := byRule(findings, finding.RuleSoftDeleteNullable)
	require.Len(t, r1, 1)
	require.Len(t, r4, 1)
	assert.Equal(t, "deleted_at", r1[0].Column)
	assert.Equal(t, "deleted_at", r4[0].Column)
}

func TestTypeAffinity(t *testing.T) {
	findings := run(t, `CREATE TABLE t (
    a timestamptz, b timestamp(3), c time, d timetz, e interval, f date, g TIMESTAMP WITHOUT TIME ZONE
)`, "R1")
	var cols []string
	for _, f := range findings {
		cols = append(cols, f.Column)
	}
	assert.Equal(t, []string{"b", "c", "g"}, cols)
}

func TestAuditPresence(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"both present", `CREATE TABLE t (created_at timestamptz DEFAULT now(), updated_at timestamptz)`, nil},
		{"log table exempt", `CREATE TABLE login_log (at timestamptz)`, nil},
		{"history table exempt", `CREATE TABLE price_history (at timestamptz)`, nil},
		{"both missing", `CREATE TABLE t (id int)`, []string{"", ""}},
		{"created_at without now default", `CREATE TABLE t (created_at timestamptz, updated_at timestamptz)`, []string{"created_at"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cols []string
			for _, f := range run(t, tt.src, "R2") {
				cols = append(cols, f.Column)
			}
			assert.Equal(t, tt.want, cols)
		})
	}
}

func TestDefaultPresence(t *testing.T) {
	findings := run(t, `CREATE TABLE t (
    created_at timestamptz DEFAULT now(),
    updated_at timestamptz
)`, "R3")
	require.Len(t, findings, 2)
	assert.Equal(t, "created_at", findings[0].Column)
	assert.Equal(t, "audit column created_at lacks NOT NULL", findings[0].Message)
	assert.Equal(t, "updated_at", findings[1].Column)
	assert.Equal(t, "audit column updated_at lacks NOT NULL and DEFAULT CURRENT_TIMESTAMP", findings[1].Message)
}

func TestSoftDeleteNullable(t *testing.T) {
	tests := []struct {
		src   string
		fires bool
	}{
		{`CREATE TABLE t (deleted_at timestamptz)`, false},
		{`CREATE TABLE t (deleted_at timestamptz DEFAULT NULL)`, false},
		{`CREATE TABLE t (deleted_at timestamptz DEFAULT NULL::timestamptz)`, false},
		{`CREATE TABLE t (deleted_at timestamptz NOT NULL)`, true},
		{`CREATE TABLE t (deleted_at timestamptz DEFAULT now())`, true},
	}
	for _, tt := range tests {
		findings := run(t, tt.src, "R4")
		assert.Equal(t, tt.fires, len(findings) == 1, tt.src)
	}
}

func TestChronology(t *testing.T) {
	tests := []struct {
		name     string
		checks   string
		severity []finding.Severity
		columns  []string
	}{
		{
			name:     "fully ordered",
			checks:   ", CHECK (confirmed_at >= placed_at), CHECK (shipped_at > confirmed_at), CHECK (delivered_at >= shipped_at)",
			severity: nil,
		},
		{
			name:     "missing every constraint",
			checks:   "",
			severity: []finding.Severity{finding.SeverityWarning, finding.SeverityWarning, finding.SeverityWarning},
			columns:  []string{"confirmed_at", "shipped_at", "delivered_at"},
		},
		{
			name:     "reversed comparison",
			checks:   ", CHECK (confirmed_at >= placed_at), CHECK (shipped_at < confirmed_at), CHECK (delivered_at >= shipped_at)",
			severity: []finding.Severity{finding.SeverityWarning},
			columns:  []string{"shipped_at"},
		},
		{
			name:     "opaque expression degrades to info",
			checks:   ", CHECK (confirmed_at >= placed_at), CHECK (COALESCE(shipped_at, 'infinity') > confirmed_at), CHECK (delivered_at >= shipped_at)",
			severity: []finding.Severity{finding.SeverityInfo},
			columns:  []string{"shipped_at"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := run(t, `CREATE TABLE orders (
    placed_at timestamptz NOT NULL,
    confirmed_at timestamptz,
    shipped_at timestamptz,
    delivered_at timestamptz`+tt.checks+`)`, "R5")
			var sev []finding.Severity
			var cols []string
			for _, f := range findings {
				sev = append(sev, f.Severity)
				cols = append(cols, f.Column)
			}
			assert.Equal(t, tt.severity, sev)
			assert.Equal(t, tt.columns, cols)
		})
	}
}

func TestNegatedChecks(t *testing.T) {
	findings := run(t, `CREATE TABLE s_log (
    id bigint PRIMARY KEY,
    started_at timestamptz NOT NULL,
    ended_at timestamptz,
    CHECK (NOT (ended_at < started_at))
)`, "R5")
	assert.Empty(t, findings, "NOT (ended_at < started_at) orders ended_at after started_at")

	findings = run(t, `CREATE TABLE p (valid_from date, valid_to date, CHECK (NOT (valid_to <= valid_from)))`, "R6")
	assert.Empty(t, findings, "NOT (valid_to <= valid_from) is a strict ordering")

	findings = run(t, `CREATE TABLE p (valid_from date, valid_to date, CHECK (NOT (valid_to > valid_from)))`, "R6")
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "places valid_to before valid_from")
}

func TestChronologySkipsGaps(t *testing.T) {
	findings := run(t, `CREATE TABLE orders (
    placed_at timestamptz NOT NULL,
    delivered_at timestamptz,
    CHECK (delivered_at >= placed_at)
)`, "R5")
	assert.Empty(t, findings)
}

func TestChronologyGroupsByNoun(t *testing.T) {
	findings := run(t, `CREATE TABLE shipments (
    order_placed_at timestamptz,
    order_shipped_at timestamptz,
    invoice_sent_at timestamptz,
    payment_received_at timestamptz
)`, "R5")
	require.Len(t, findings, 1)
	assert.Equal(t, "order_shipped_at", findings[0].Column)
	assert.Contains(t, findings[0].Message, "order_shipped_at >= order_placed_at")
}

func TestValidityPairing(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		severity []finding.Severity
		columns  []string
	}{
		{"paired and strict", `CREATE TABLE p (valid_from date, valid_to date, CHECK (valid_to > valid_from))`, nil, nil},
		{"until suffix", `CREATE TABLE p (effective_from timestamptz, effective_until timestamptz, CHECK (effective_from < effective_until))`, nil, nil},
		{"missing end", `CREATE TABLE p (valid_from date)`, []finding.Severity{finding.SeverityError}, []string{"valid_from"}},
		{"missing check", `CREATE TABLE p (valid_from date, valid_to date)`, []finding.Severity{finding.SeverityError}, []string{"valid_to"}},
		{"non-strict", `CREATE TABLE p (valid_from date, valid_to date, CHECK (valid_to >= valid_from))`, []finding.Severity{finding.SeverityError}, []string{"valid_to"}},
		{"subquery", `CREATE TABLE p (valid_from date, valid_to date, CHECK (valid_to IN (SELECT x FROM y) AND valid_from IS NOT NULL))`, []finding.Severity{finding.SeverityInfo}, []string{"valid_to"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sev []finding.Severity
			var cols []string
			for _, f := range run(t, tt.src, "R6") {
				sev = append(sev, f.Severity)
				cols = append(cols, f.Column)
			}
			assert.Equal(t, tt.severity, sev)
			assert.Equal(t, tt.columns, cols)
		})
	}
}

func TestIndexCoverage(t *testing.T) {
	findings := run(t, `
CREATE TABLE jobs (
    id bigint PRIMARY KEY,
    created_at timestamptz NOT NULL DEFAULT now(),
    scheduled_for timestamptz NOT NULL,
    due_at timestamptz,
    UNIQUE (due_at, id)
);
CREATE INDEX idx_jobs_kind_created ON jobs (id, created_at);
CREATE INDEX idx_jobs_scheduled ON jobs (scheduled_for) WHERE id > 0;
`, "R7")
	require.Len(t, findings, 1)
	assert.Equal(t, "created_at", findings[0].Column)
}

func TestTriggerForUpdatedAt(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		fires bool
	}{
		{"row trigger", `CREATE TABLE t (updated_at timestamptz);
CREATE TRIGGER t_touch BEFORE INSERT OR UPDATE ON t FOR EACH ROW EXECUTE FUNCTION touch();`, false},
		{"after trigger", `CREATE TABLE t (updated_at timestamptz);
CREATE TRIGGER t_touch AFTER UPDATE ON t FOR EACH ROW EXECUTE FUNCTION touch();`, true},
		{"statement trigger", `CREATE TABLE t (updated_at timestamptz);
CREATE TRIGGER t_touch BEFORE UPDATE ON t EXECUTE FUNCTION touch();`, true},
		{"no trigger", `CREATE TABLE t (updated_at timestamptz)`, true},
		{"no updated_at", `CREATE TABLE t (created_at timestamptz)`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := run(t, tt.src, "R8")
			if tt.fires {
				require.Len(t, findings, 1)
				assert.Equal(t, "updated_at", findings[0].Column)
			} else {
				assert.Empty(t, findings)
			}
		})
	}
}

func TestTriggerLimitedToColumns(t *testing.T) {
	findings := run(t, `CREATE TABLE orders (id bigint, status text, total numeric, updated_at timestamptz);
CREATE TRIGGER orders_touch BEFORE UPDATE OF status ON orders FOR EACH ROW EXECUTE FUNCTION touch();`, "R8")
	require.Len(t, findings, 1)
	assert.Equal(t, "updated_at", findings[0].Column)
	assert.Contains(t, findings[0].Message, "fires only on UPDATE OF status")
	assert.Contains(t, findings[0].Message, "id, total")

	findings = run(t, `CREATE TABLE orders (id bigint, status text, updated_at timestamptz);
CREATE TRIGGER orders_touch BEFORE UPDATE OF id, status ON orders FOR EACH ROW EXECUTE FUNCTION touch();`, "R8")
	assert.Empty(t, findings, "a column list naming every other column covers all updates")

	findings = run(t, `CREATE TABLE orders (id bigint, status text, updated_at timestamptz);
CREATE TRIGGER orders_status BEFORE UPDATE OF status ON orders FOR EACH ROW EXECUTE FUNCTION touch();
CREATE TRIGGER orders_touch BEFORE UPDATE ON orders FOR EACH ROW EXECUTE FUNCTION touch();`, "R8")
	assert.Empty(t, findings)
}

func TestRenamedTableKeepsIndexes(t *testing.T) {
	findings := run(t, `
CREATE TABLE session_log (id bigint PRIMARY KEY, created_at timestamptz NOT NULL DEFAULT now());
ALTER TABLE session_log RENAME TO sessions;
CREATE INDEX ON sessions (created_at);
`, "R7", "R9")
	assert.Empty(t, findings)
}

func TestStructuralFindingsPassThrough(t *testing.T) {
	findings := run(t, `CREATE INDEX idx_x ON missing_table (col);`, "R9")
	require.Len(t, findings, 1)
	assert.Equal(t, finding.RuleDanglingReference, findings[0].RuleID)
	assert.Equal(t, finding.SeverityError, findings[0].Severity)
}

func TestUnclassified(t *testing.T) {
	findings := run(t, `
CREATE TABLE users (last_seen timestamptz, birthday date);
COMMENT ON COLUMN users.birthday IS 'calendar date, no zone';
`, "R10")
	require.Len(t, findings, 1)
	assert.Equal(t, "last_seen", findings[0].Column)
	assert.Equal(t, finding.SeverityInfo, findings[0].Severity)
}

func TestConfigDisableAndSeverity(t *testing.T) {
	src := `CREATE TABLE users (id bigserial PRIMARY KEY, created_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP);`

	cfg := NewConfig().Disable("R2").SetSeverity("R1-TypeAffinity", finding.SeverityWarning)
	findings := NewEngine(Default(), cfg).Run(model(t, src), nil)

	assert.Empty(t, byRule(findings, finding.RuleAuditPresence))
	r1 := byRule(findings, finding.RuleTypeAffinity)
	require.Len(t, r1, 1)
	assert.Equal(t, finding.SeverityWarning, r1[0].Severity)
}

func TestEngineKeepsRegistrationOrder(t *testing.T) {
	e := NewEngine(Default(), NewConfig().Disable("r10-unclassified"))
	var ids []string
	for _, r := range e.rules {
		ids = append(ids, r.Short())
	}
	assert.Equal(t, []string{"R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9"}, ids)
}

func TestRunDoesNotMutateModel(t *testing.T) {
	m := model(t, `CREATE TABLE t (created_at timestamp, deleted_at timestamp NOT NULL);`)
	before := len(m.Table("t").Columns)
	first := NewEngine(Default(), nil).Run(m, nil)
	second := NewEngine(Default(), nil).Run(m, nil)
	assert.Equal(t, first, second)
	assert.Len(t, m.Table("t").Columns, before)
}

func TestRuleDocumentation(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Default() {
		assert.False(t, seen[r.ID], "duplicate rule %s", r.ID)
		seen[r.ID] = true
		assert.NotEmpty(t, r.Name, r.ID)
		assert.NotEmpty(t, r.Description, r.ID)
		assert.NotEmpty(t, r.Rationale, r.ID)
		assert.True(t, (r.CheckTable == nil) != (r.CheckModel == nil), r.ID)
	}
}
