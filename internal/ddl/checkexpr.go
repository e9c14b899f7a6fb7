package ddl

import (
	"sort"

	"github.com/auxten/postgresql-parser/pkg/sql/parser"
	"github.com/auxten/postgresql-parser/pkg/sql/sem/tree"
)

var orderingOps = map[tree.ComparisonOperator]string{
	tree.LT: "<",
	tree.LE: "<=",
	tree.GT: ">",
	tree.GE: ">=",
}

// negatedOps maps an ordering operator to the one that holds when it fails.
var negatedOps = map[string]string{"<": ">=", "<=": ">", ">": "<=", ">=": "<"}

// parseCheck analyses a CHECK body with the PostgreSQL expression grammar.
// ok is false when the grammar rejects the body or it holds a subquery; the
// caller then falls back to the token scanner.
func parseCheck(expr string) (*CheckConstraint, bool) {
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, false
	}
	cols := &columnCollector{seen: map[string]bool{}}
	tree.WalkExprConst(cols, e)
	if cols.subquery {
		return nil, false
	}

	chk := &CheckConstraint{Expr: expr, Columns: cols.names}
	sort.Strings(chk.Columns)
	w := &checkWalker{chk: chk}
	w.walk(e, false)
	return chk, true
}

// columnCollector gathers the column references of an expression.
type columnCollector struct {
	seen     map[string]bool
	names    []string
	subquery bool
}

func (c *columnCollector) VisitPre(e tree.Expr) (bool, tree.Expr) {
	switch n := e.(type) {
	case *tree.Subquery:
		c.subquery = true
		return false, e
	case *tree.UnresolvedName:
		if name := columnOf(n); name != "" && !c.seen[name] {
			c.seen[name] = true
			c.names = append(c.names, name)
		}
	}
	return true, e
}

func (c *columnCollector) VisitPost(e tree.Expr) tree.Expr { return e }

// columnOf returns the column part of a possibly qualified name.
func columnOf(n *tree.UnresolvedName) string {
	if n.Star || n.NumParts == 0 {
		return ""
	}
	return n.Parts[0]
}

// checkWalker records the ordering comparisons a CHECK body guarantees.
type checkWalker struct {
	chk *CheckConstraint
}

// walk records what e guarantees when it holds, or when it fails if
// negated is set.
func (w *checkWalker) walk(e tree.Expr, negated bool) {
	switch n := e.(type) {
	case *tree.ParenExpr:
		w.walk(n.Expr, negated)
	case *tree.NotExpr:
		w.walk(n.Expr, !negated)
	case *tree.AndExpr:
		if negated {
			w.disjunction(terms(n, true), true)
			return
		}
		w.walk(n.Left, false)
		w.walk(n.Right, false)
	case *tree.OrExpr:
		if negated {
			w.walk(n.Left, true)
			w.walk(n.Right, true)
			return
		}
		w.disjunction(terms(n, false), false)
	case *tree.ComparisonExpr:
		w.compare(n, negated)
	case *tree.RangeCond:
		w.between(n, negated)
	}
}

func (w *checkWalker) compare(n *tree.ComparisonExpr, negated bool) {
	op, ok := orderingOps[n.Operator]
	if !ok {
		return
	}
	if negated {
		op = negatedOps[op]
	}
	w.record(n.Left, op, n.Right)
}

// between expands "x BETWEEN a AND b" into x >= a and x <= b. Negated and
// symmetric ranges are disjunctions and stay undecided.
func (w *checkWalker) between(n *tree.RangeCond, negated bool) {
	if n.Not != negated || n.Symmetric {
		w.chk.Unparsed = true
		return
	}
	w.record(n.Left, ">=", n.From)
	w.record(n.Left, "<=", n.To)
}

func (w *checkWalker) record(left tree.Expr, op string, right tree.Expr) {
	l, lok := operand(left)
	r, rok := operand(right)
	if !lok || !rok {
		w.chk.Unparsed = true
	}
	w.chk.Comparisons = append(w.chk.Comparisons, Comparison{Left: l, Op: op, Right: r})
}

// disjunction handles "a IS NULL OR <cmp>": the comparison is guaranteed
// only when every null-tested column takes part in it. Any other
// alternative containing an ordering leaves the check undecided.
func (w *checkWalker) disjunction(alts []tree.Expr, negated bool) {
	nulls := map[string]bool{}
	var rest []*checkWalker
	for _, alt := range alts {
		if col, ok := nullTest(alt, negated); ok {
			nulls[col] = true
			continue
		}
		sub := &checkWalker{chk: &CheckConstraint{}}
		sub.walk(alt, negated)
		rest = append(rest, sub)
	}

	ordered := 0
	for _, sub := range rest {
		if len(sub.chk.Comparisons) > 0 || sub.chk.Unparsed {
			ordered++
		}
	}
	if ordered == 0 {
		return
	}
	if len(rest) > 1 {
		w.chk.Unparsed = true
		return
	}
	sub := rest[0]
	for col := range nulls {
		if !sub.compares(col) {
			w.chk.Unparsed = true
			return
		}
	}
	w.chk.Comparisons = append(w.chk.Comparisons, sub.chk.Comparisons...)
	w.chk.Unparsed = w.chk.Unparsed || sub.chk.Unparsed
}

func (w *checkWalker) compares(col string) bool {
	for _, c := range w.chk.Comparisons {
		if c.Left == col || c.Right == col {
			return true
		}
	}
	return false
}

// terms flattens nested AND (and=true) or OR operands.
func terms(e tree.Expr, and bool) []tree.Expr {
	switch n := e.(type) {
	case *tree.ParenExpr:
		return terms(n.Expr, and)
	case *tree.AndExpr:
		if and {
			return append(terms(n.Left, and), terms(n.Right, and)...)
		}
	case *tree.OrExpr:
		if !and {
			return append(terms(n.Left, and), terms(n.Right, and)...)
		}
	}
	return []tree.Expr{e}
}

// nullTest reports whether e, under the given polarity, asserts that a
// column IS NULL.
func nullTest(e tree.Expr, negated bool) (string, bool) {
	switch n := e.(type) {
	case *tree.ParenExpr:
		return nullTest(n.Expr, negated)
	case *tree.NotExpr:
		return nullTest(n.Expr, !negated)
	case *tree.ComparisonExpr:
		if n.Right != tree.DNull {
			return "", false
		}
		isNull := n.Operator == tree.IsNotDistinctFrom
		if !isNull && n.Operator != tree.IsDistinctFrom {
			return "", false
		}
		if isNull == negated {
			return "", false
		}
		col, ok := operand(n.Left)
		return col, ok && col != ""
	}
	return "", false
}

// operand returns the column name of a plain (possibly cast) column, "" for
// constants, and ok=false for expressions it cannot see through.
func operand(e tree.Expr) (string, bool) {
	switch n := e.(type) {
	case *tree.ParenExpr:
		return operand(n.Expr)
	case *tree.CastExpr:
		return operand(n.Expr)
	case *tree.UnresolvedName:
		name := columnOf(n)
		return name, name != ""
	case *tree.UnaryExpr:
		name, ok := operand(n.Expr)
		return "", ok && name == ""
	case *tree.FuncExpr:
		// now() and friends are constants; other calls are opaque.
		return "", len(n.Exprs) == 0
	case *tree.Placeholder, tree.Constant, tree.Datum:
		return "", true
	}
	return "", false
}
