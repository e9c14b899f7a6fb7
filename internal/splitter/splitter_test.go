package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(stmts []Statement) []string {
	out := make([]string, len(stmts))
	for i, st := range stmts {
		body, _ := st.Body()
		out[i] = body
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "simple statements",
			src:  "CREATE TABLE a (x int);\nCREATE TABLE b (y int);",
			want: []string{"CREATE TABLE a (x int)", "CREATE TABLE b (y int)"},
		},
		{
			name: "semicolon in string literal",
			src:  "CREATE TABLE a (x text DEFAULT 'a;b');",
			want: []string{"CREATE TABLE a (x text DEFAULT 'a;b')"},
		},
		{
			name: "doubled quote escape",
			src:  "COMMENT ON TABLE a IS 'it''s; fine';SELECT 1;",
			want: []string{"COMMENT ON TABLE a IS 'it''s; fine'", "SELECT 1"},
		},
		{
			name: "escape string literal",
			src:  `COMMENT ON TABLE a IS E'back\'slash;';SELECT 1;`,
			want: []string{`COMMENT ON TABLE a IS E'back\'slash;'`, "SELECT 1"},
		},
		{
			name: "quoted identifier",
			src:  `CREATE TABLE "odd;name" (x int);`,
			want: []string{`CREATE TABLE "odd;name" (x int)`},
		},
		{
			name: "line comment",
			src:  "-- note; still comment\nCREATE TABLE a (x int);",
			want: []string{"CREATE TABLE a (x int)"},
		},
		{
			name: "nested block comment",
			src:  "/* outer /* inner; */ still; */ CREATE TABLE a (x int);",
			want: []string{"CREATE TABLE a (x int)"},
		},
		{
			name: "dollar quoted body",
			src:  "CREATE FUNCTION f() RETURNS trigger AS $$ BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;\nCREATE TABLE a (x int);",
			want: []string{
				"CREATE FUNCTION f() RETURNS trigger AS $$ BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql",
				"CREATE TABLE a (x int)",
			},
		},
		{
			name: "tagged dollar block with inner double dollar",
			src:  "DO $fn$ SELECT '$$'; SELECT 1; $fn$;SELECT 2;",
			want: []string{"DO $fn$ SELECT '$$'; SELECT 1; $fn$", "SELECT 2"},
		},
		{
			name: "positional parameter is not a tag",
			src:  "PREPARE p AS SELECT $1;SELECT 2;",
			want: []string{"PREPARE p AS SELECT $1", "SELECT 2"},
		},
		{
			name: "trailing statement without semicolon",
			src:  "CREATE TABLE a (x int);\nCREATE TABLE b (y int)\n",
			want: []string{"CREATE TABLE a (x int)", "CREATE TABLE b (y int)"},
		},
		{
			name: "blank statements skipped",
			src:  ";;  \n-- only a comment\n;",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, errs := Split([]byte(tt.src))
			assert.Empty(t, errs)
			if tt.want == nil {
				assert.Empty(t, stmts)
				return
			}
			assert.Equal(t, tt.want, texts(stmts))
		})
	}
}

func TestKinds(t *testing.T) {
	tests := []struct {
		src  string
		want Kind
	}{
		{"CREATE TABLE a (x int)", KindCreateTable},
		{"create unlogged table a (x int)", KindCreateTable},
		{"CREATE TEMPORARY TABLE a (x int)", KindCreateTable},
		{"CREATE UNIQUE INDEX i ON a (x)", KindCreateIndex},
		{"CREATE INDEX CONCURRENTLY i ON a (x)", KindCreateIndex},
		{"CREATE OR REPLACE TRIGGER t BEFORE UPDATE ON a EXECUTE FUNCTION f()", KindCreateTrigger},
		{"CREATE CONSTRAINT TRIGGER t AFTER INSERT ON a EXECUTE FUNCTION f()", KindCreateTrigger},
		{"ALTER TABLE a ADD COLUMN b int", KindAlterTable},
		{"ALTER DATABASE d SET timezone TO 'UTC'", KindOther},
		{"COMMENT ON COLUMN a.b IS 'x'", KindComment},
		{"CREATE OR REPLACE FUNCTION f() RETURNS int AS 'select 1'", KindOther},
		{"/* lead */ -- x\n CREATE TABLE a (x int)", KindCreateTable},
		{"SELECT 1", KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts, _ := Split([]byte(tt.src))
			require.Len(t, stmts, 1)
			assert.Equal(t, tt.want, stmts[0].Kind)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	src := "CREATE TABLE a (x int);\nCREATE INDEX i ON a (x);\n-- c\nALTER TABLE a ADD COLUMN y text DEFAULT ';';"
	stmts, errs := Split([]byte(src))
	require.Empty(t, errs)
	require.Len(t, stmts, 3)

	parts := make([]string, len(stmts))
	for i, st := range stmts {
		assert.Equal(t, src[st.Start:st.End], st.Text)
		parts[i] = st.Text
	}
	assert.Equal(t, src, strings.Join(parts, ";")+";")
}

func TestLazyAndRestartable(t *testing.T) {
	s := New([]byte("CREATE TABLE a (x int); CREATE TABLE b (x int); SELECT 1;"))

	first, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, KindCreateTable, first.Kind)

	s.Reset()
	again, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, first, again)

	var kinds []Kind
	for st := range s.All() {
		kinds = append(kinds, st.Kind)
	}
	assert.Equal(t, []Kind{KindCreateTable, KindCreateTable, KindOther}, kinds)

	_, ok = s.Next()
	assert.False(t, ok)
}

func TestUnterminatedDollarBlockSalvage(t *testing.T) {
	src := `CREATE FUNCTION touch() RETURNS trigger AS $$
BEGIN
  NEW.updated_at = now();
  RETURN NEW;
END;
LANGUAGE plpgsql;

CREATE TABLE a (id bigint);
CREATE TABLE b (id bigint);
CREATE TABLE c (id bigint);
`
	stmts, errs := Split([]byte(src))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Reason, "dollar-quoted")
	assert.Equal(t, strings.Index(src, "$$"), errs[0].Offset)

	var tables []string
	for _, st := range stmts {
		if st.Kind == KindCreateTable {
			body, _ := st.Body()
			tables = append(tables, body)
		}
	}
	assert.Equal(t, []string{
		"CREATE TABLE a (id bigint)",
		"CREATE TABLE b (id bigint)",
		"CREATE TABLE c (id bigint)",
	}, tables)
}

func TestUnterminatedString(t *testing.T) {
	stmts, errs := Split([]byte("CREATE TABLE a (x text DEFAULT 'open);"))
	require.Len(t, errs, 1)
	assert.Equal(t, "unterminated string literal", errs[0].Reason)
	require.Len(t, stmts, 1)
	assert.Equal(t, KindCreateTable, stmts[0].Kind)
}

func TestBodyOffset(t *testing.T) {
	src := "SELECT 1;\n  -- lead\n  CREATE TABLE a (x int);"
	stmts, _ := Split([]byte(src))
	require.Len(t, stmts, 2)
	body, off := stmts[1].Body()
	assert.Equal(t, "CREATE TABLE a (x int)", body)
	assert.Equal(t, strings.Index(src, "CREATE"), off)
}
