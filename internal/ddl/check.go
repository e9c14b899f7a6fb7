package ddl

import "sort"

// exprKeywords are words that never name a column inside a CHECK body.
var exprKeywords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NULL": true, "IS": true, "TRUE": true,
	"FALSE": true, "BETWEEN": true, "SYMMETRIC": true, "IN": true, "LIKE": true,
	"ILIKE": true, "SIMILAR": true, "TO": true, "ESCAPE": true, "CASE": true,
	"WHEN": true, "THEN": true, "ELSE": true, "END": true, "INTERVAL": true,
	"CURRENT_TIMESTAMP": true, "CURRENT_DATE": true, "CURRENT_TIME": true,
	"LOCALTIMESTAMP": true, "LOCALTIME": true, "AT": true, "TIME": true,
	"ZONE": true, "WITH": true, "WITHOUT": true, "ANY": true, "ALL": true,
	"SOME": true, "EXISTS": true, "DISTINCT": true, "FROM": true, "ARRAY": true,
	"CAST": true, "AS": true, "UNKNOWN": true, "OVERLAPS": true, "SELECT": true,
	"WHERE": true,
}

var comparisonOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true}

// analyzeCheck finds the columns a CHECK body references and the ordering
// comparisons it guarantees.
func analyzeCheck(toks []token, expr string) *CheckConstraint {
	if chk, ok := parseCheck(expr); ok {
		return chk
	}
	return scanCheck(toks, expr)
}

// scanCheck is the token-level fallback for bodies the expression grammar
// rejects. A prefix NOT flips what the comparisons under it mean, so such
// bodies keep no comparisons and are left undecided.
func scanCheck(toks []token, expr string) *CheckConstraint {
	chk := &CheckConstraint{Expr: expr}
	seen := map[string]bool{}
	negated := false

	for i, t := range toks {
		switch {
		case t.upper() == "SELECT":
			chk.Unparsed = true
		case isPrefixNot(toks, i):
			negated = true
		}
		if isColumnRef(toks, i) && !seen[t.val] {
			seen[t.val] = true
			chk.Columns = append(chk.Columns, t.val)
		}
		if t.kind == tokOp && comparisonOps[t.text] {
			left, lok := operandBefore(toks, i)
			right, rok := operandAfter(toks, i)
			if !lok || !rok {
				chk.Unparsed = true
			}
			chk.Comparisons = append(chk.Comparisons, Comparison{Left: left, Op: t.text, Right: right})
		}
	}
	sort.Strings(chk.Columns)
	if negated && len(chk.Comparisons) > 0 {
		chk.Comparisons = nil
		chk.Unparsed = true
	}
	return chk
}

// isPrefixNot reports whether toks[i] is a logical NOT rather than part of
// IS NOT, NOT NULL, NOT IN, NOT LIKE and similar.
func isPrefixNot(toks []token, i int) bool {
	if toks[i].kind != tokIdent || toks[i].upper() != "NOT" {
		return false
	}
	if i > 0 && toks[i-1].kind == tokIdent && toks[i-1].upper() == "IS" {
		return false
	}
	if i+1 < len(toks) && toks[i+1].kind == tokIdent {
		switch toks[i+1].upper() {
		case "NULL", "IN", "LIKE", "ILIKE", "SIMILAR", "BETWEEN", "DISTINCT":
			return false
		}
	}
	return true
}

// isColumnRef reports whether toks[i] names a column: a non-keyword name
// that is not a function, not a type after "::" and not a qualifier.
func isColumnRef(toks []token, i int) bool {
	t := toks[i]
	if !t.isName() || (t.kind == tokIdent && exprKeywords[t.upper()]) {
		return false
	}
	if i+1 < len(toks) && (toks[i+1].is("(") || toks[i+1].is(".")) {
		return false
	}
	if i > 0 && toks[i-1].is("::") {
		return false
	}
	return true
}

// operandBefore inspects the operand ending just before the operator at i.
// It returns the column name when the operand is a plain column, "" for
// literals, and ok=false for expressions it cannot see through.
func operandBefore(toks []token, i int) (string, bool) {
	j := i - 1
	// Skip a trailing cast such as col::timestamptz.
	if j >= 2 && toks[j].isName() && toks[j-1].is("::") {
		j -= 2
	}
	if j < 0 {
		return "", false
	}
	t := toks[j]
	switch {
	case t.isName():
		if isColumnRef(toks, j) {
			return t.val, true
		}
		return "", t.kind == tokIdent && exprKeywords[t.upper()]
	case t.kind == tokString || t.kind == tokNumber || t.kind == tokParam:
		return "", true
	case t.is(")"):
		// now() and friends are constants; other groups are opaque.
		if j >= 2 && toks[j-1].is("(") && toks[j-2].isName() {
			return "", true
		}
	}
	return "", false
}

// operandAfter inspects the operand starting just after the operator at i.
func operandAfter(toks []token, i int) (string, bool) {
	j := i + 1
	if j >= len(toks) {
		return "", false
	}
	t := toks[j]
	switch {
	case t.isName():
		// Walk a qualified name to its last part.
		for j+2 < len(toks) && toks[j+1].is(".") && toks[j+2].isName() {
			j += 2
		}
		if isColumnRef(toks, j) {
			return toks[j].val, true
		}
		if j+2 < len(toks) && toks[j+1].is("(") && toks[j+2].is(")") {
			return "", true
		}
		return "", t.kind == tokIdent && exprKeywords[t.upper()]
	case t.kind == tokString || t.kind == tokNumber || t.kind == tokParam:
		return "", true
	case (t.is("-") || t.is("+")) && j+1 < len(toks) && toks[j+1].kind == tokNumber:
		return "", true
	}
	return "", false
}
