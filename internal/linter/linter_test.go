package linter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/finding"
	"github.com/bfv/temporallint/internal/report"
	"github.com/bfv/temporallint/internal/rules"
	"github.com/bfv/temporallint/internal/source"
)

func byRule(findings []finding.Finding, id string) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.RuleID == id {
			out = append(out, f)
		}
	}
	return out
}

func TestScenarioC(t *testing.T) {
	res := New(Options{}).Lint("c.sql", []byte("CREATE INDEX idx_x ON missing_table(col);"))

	dangling := byRule(res.Findings, finding.RuleDanglingReference)
	require.Len(t, dangling, 1)
	assert.Equal(t, "missing_table", dangling[0].Table)
	assert.Equal(t, finding.SeverityError, dangling[0].Severity)
	assert.Contains(t, dangling[0].Evidence, "CREATE INDEX idx_x ON missing_table(col)")

	assert.False(t, res.Fatal)
	assert.Equal(t, 1, report.ExitCode(res.Summary, res.Fatal, false))
}

func TestScenarioD(t *testing.T) {
	src := `
CREATE FUNCTION touch() RETURNS trigger AS $$
BEGIN
    NEW.updated_at = now();
    RETURN NEW;
END;

CREATE TABLE a (id bigint PRIMARY KEY, created_at timestamp NOT NULL DEFAULT now());
CREATE TABLE b (id bigint PRIMARY KEY, deleted_at timestamptz NOT NULL);
CREATE TABLE c (id bigint PRIMARY KEY, valid_from date NOT NULL);
`
	res := New(Options{}).Lint("d.sql", []byte(src))

	lex := byRule(res.Findings, finding.RuleUnterminatedLiteral)
	require.Len(t, lex, 1)
	assert.Equal(t, finding.SeverityError, lex[0].Severity)
	assert.Contains(t, lex[0].Evidence, "$$")

	assert.Equal(t, []string{"a", "b", "c"}, res.Model.Order)

	r1 := byRule(res.Findings, finding.RuleTypeAffinity)
	require.Len(t, r1, 1)
	assert.Equal(t, "a", r1[0].Table)

	r4 := byRule(res.Findings, finding.RuleSoftDeleteNullable)
	require.Len(t, r4, 1)
	assert.Equal(t, "b", r4[0].Table)

	r6 := byRule(res.Findings, finding.RuleValidityPairing)
	require.Len(t, r6, 1)
	assert.Equal(t, "c", r6[0].Table)

	assert.False(t, res.Fatal)
}

func TestParseErrorsAreIsolated(t *testing.T) {
	res := New(Options{}).Lint("p.sql", []byte(`
CREATE TABLE broken (id int;
CREATE TABLE ok (id int, updated_at timestamptz NOT NULL DEFAULT now());
`))
	perr := byRule(res.Findings, finding.RuleParseError)
	require.Len(t, perr, 1)
	assert.Contains(t, perr[0].Evidence, "CREATE TABLE broken")
	assert.NotNil(t, res.Model.Table("ok"))
	assert.False(t, res.Fatal)
}

func TestEveryStatementFailingIsFatal(t *testing.T) {
	res := New(Options{}).Lint("f.sql", []byte("CREATE TABLE broken;\nCREATE INDEX ON;"))
	assert.True(t, res.Fatal)
	assert.Len(t, byRule(res.Findings, finding.RuleParseError), 2)
	assert.Equal(t, 2, report.ExitCode(res.Summary, res.Fatal, false))
}

func TestEmptyInputIsClean(t *testing.T) {
	res := New(Options{}).Lint("empty.sql", []byte("-- nothing here\n"))
	assert.Empty(t, res.Findings)
	assert.False(t, res.Fatal)
	assert.Equal(t, 0, res.Model.Len())
}

func TestLintIsIdempotent(t *testing.T) {
	src := []byte(`CREATE TABLE users (id bigserial PRIMARY KEY, created_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP, last_seen timestamptz);`)
	l := New(Options{Logger: zerolog.Nop()})
	first, second := l.Lint("u.sql", src), l.Lint("u.sql", src)
	assert.Equal(t, first.Findings, second.Findings)
}

func TestPackageLevelEntryPoints(t *testing.T) {
	m, findings := Lint(`CREATE TABLE users (id bigserial PRIMARY KEY, created_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP);`)
	require.NotNil(t, m.Table("users"))
	assert.Len(t, byRule(findings, finding.RuleTypeAffinity), 1)
	assert.Len(t, byRule(findings, finding.RuleAuditPresence), 1)

	cls := Classify(m.Table("users"))
	assert.Equal(t, classify.Classification{"created_at": classify.AuditCreated}, cls)
}

func TestOptionsConfig(t *testing.T) {
	cfg := rules.NewConfig().Disable("R1").Disable("R2").Disable("R7")
	res := New(Options{Config: cfg}).Lint("x.sql", []byte(`CREATE TABLE users (created_at timestamp NOT NULL DEFAULT now());`))
	assert.Empty(t, res.Findings)
}

func TestLintBatch(t *testing.T) {
	var sources []source.Source
	for i := range 12 {
		sources = append(sources, source.Source{
			Name: fmt.Sprintf("s%02d.sql", i),
			Text: fmt.Appendf(nil, "CREATE TABLE t%d (id int, created_at timestamp NOT NULL DEFAULT now());", i),
		})
	}
	l := New(Options{Workers: 3})
	results, err := l.LintBatch(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, results, len(sources))
	for i, res := range results {
		assert.Equal(t, sources[i].Name, res.Source)
		assert.Equal(t, []string{fmt.Sprintf("t%d", i)}, res.Model.Order)
		assert.Len(t, byRule(res.Findings, finding.RuleTypeAffinity), 1)
	}
}

func TestLintBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{Workers: 1}).LintBatch(ctx, []source.Source{{Name: "a.sql", Text: []byte("SELECT 1;")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLintBatchUnreadableSource(t *testing.T) {
	sources := []source.Source{
		{Name: "ok.sql", Text: []byte("CREATE TABLE t (id int);")},
		{Name: "gone.sql", Err: errors.New("reading gone.sql: file does not exist")},
	}
	results, err := New(Options{Workers: 2}).LintBatch(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Fatal)
	assert.True(t, results[1].Fatal)
	assert.Equal(t, "gone.sql", results[1].Source)
	require.Len(t, results[1].Findings, 1)
	assert.Equal(t, finding.RuleParseError, results[1].Findings[0].RuleID)
	assert.Contains(t, results[1].Findings[0].Message, "file does not exist")
}

func TestFatalResult(t *testing.T) {
	res := FatalResult("missing.sql", errors.New("open missing.sql: no such file"))
	assert.True(t, res.Fatal)
	assert.Equal(t, 1, res.Summary.Errors)
	assert.Equal(t, 0, res.Model.Len())
}
