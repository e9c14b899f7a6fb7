package ddl

import (
	"strings"
)

type tokKind int

const (
	tokIdent tokKind = iota
	tokQuoted
	tokString
	tokNumber
	tokPunct
	tokOp
	tokParam
)

// token is a lexical unit of one statement. pos and end are absolute byte
// offsets into the original source.
type token struct {
	kind tokKind
	text string // raw source text
	val  string // folded identifier, unquoted identifier or string contents
	pos  int
	end  int
}

// upper returns the keyword spelling of an unquoted identifier, or "" for
// anything else. Quoted identifiers are never keywords.
func (t token) upper() string {
	if t.kind != tokIdent {
		return ""
	}
	return strings.ToUpper(t.text)
}

func (t token) is(punct string) bool {
	return (t.kind == tokPunct || t.kind == tokOp) && t.text == punct
}

func (t token) isName() bool {
	return t.kind == tokIdent || t.kind == tokQuoted
}

var twoCharOps = map[string]bool{
	"::": true, "<=": true, ">=": true, "<>": true, "!=": true, "||": true, "->": true, "=>": true,
}

// lex tokenizes text, whose first byte sits at offset base in the source.
func lex(text string, base int) ([]token, error) {
	var toks []token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			i++

		case strings.HasPrefix(text[i:], "--"):
			if n := strings.IndexByte(text[i:], '\n'); n >= 0 {
				i += n + 1
			} else {
				i = len(text)
			}

		case strings.HasPrefix(text[i:], "/*"):
			j, ok := skipComment(text, i)
			if !ok {
				return nil, &ParseError{Reason: "unterminated block comment", Offset: base + i}
			}
			i = j

		case (c == 'E' || c == 'e') && i+1 < len(text) && text[i+1] == '\'':
			j, val, ok := quoted(text, i+1, '\'', true)
			if !ok {
				return nil, &ParseError{Reason: "unterminated string literal", Offset: base + i}
			}
			toks = append(toks, token{kind: tokString, text: text[i:j], val: val, pos: base + i, end: base + j})
			i = j

		case c == '\'':
			j, val, ok := quoted(text, i, '\'', false)
			if !ok {
				return nil, &ParseError{Reason: "unterminated string literal", Offset: base + i}
			}
			toks = append(toks, token{kind: tokString, text: text[i:j], val: val, pos: base + i, end: base + j})
			i = j

		case c == '"':
			j, val, ok := quoted(text, i, '"', false)
			if !ok {
				return nil, &ParseError{Reason: "unterminated quoted identifier", Offset: base + i}
			}
			toks = append(toks, token{kind: tokQuoted, text: text[i:j], val: val, pos: base + i, end: base + j})
			i = j

		case c == '$':
			if tag, ok := dollarTag(text, i); ok {
				n := strings.Index(text[i+len(tag):], tag)
				if n < 0 {
					return nil, &ParseError{Reason: "unterminated dollar-quoted string", Offset: base + i}
				}
				j := i + len(tag) + n + len(tag)
				toks = append(toks, token{kind: tokString, text: text[i:j], val: text[i+len(tag) : j-len(tag)], pos: base + i, end: base + j})
				i = j
				continue
			}
			j := i + 1
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			toks = append(toks, token{kind: tokParam, text: text[i:j], pos: base + i, end: base + j})
			i = j

		case isIdentStart(c):
			j := i + 1
			for j < len(text) && (isIdentPart(text[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: text[i:j], val: strings.ToLower(text[i:j]), pos: base + i, end: base + j})
			i = j

		case c >= '0' && c <= '9' || (c == '.' && i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9'):
			j := i + 1
			for j < len(text) && (text[j] >= '0' && text[j] <= '9' || text[j] == '.' || text[j] == 'e' || text[j] == 'E') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: text[i:j], val: text[i:j], pos: base + i, end: base + j})
			i = j

		case strings.ContainsRune("(),.;[]", rune(c)):
			toks = append(toks, token{kind: tokPunct, text: text[i : i+1], pos: base + i, end: base + i + 1})
			i++

		default:
			n := 1
			if i+1 < len(text) && twoCharOps[text[i:i+2]] {
				n = 2
			}
			toks = append(toks, token{kind: tokOp, text: text[i : i+n], pos: base + i, end: base + i + n})
			i += n
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 0x80 || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '$'
}

func skipComment(text string, i int) (int, bool) {
	depth := 0
	for j := i; j+1 < len(text); {
		switch {
		case text[j] == '/' && text[j+1] == '*':
			depth++
			j += 2
		case text[j] == '*' && text[j+1] == '/':
			depth--
			j += 2
			if depth == 0 {
				return j, true
			}
		default:
			j++
		}
	}
	return len(text), false
}

// quoted scans a quoted token starting at the opening quote and returns the
// position after it together with the unescaped contents.
func quoted(text string, i int, q byte, backslash bool) (int, string, bool) {
	var b strings.Builder
	for j := i + 1; j < len(text); j++ {
		c := text[j]
		switch {
		case backslash && c == '\\' && j+1 < len(text):
			j++
			b.WriteByte(text[j])
		case c == q:
			if j+1 < len(text) && text[j+1] == q {
				b.WriteByte(q)
				j++
				continue
			}
			return j + 1, b.String(), true
		default:
			b.WriteByte(c)
		}
	}
	return len(text), "", false
}

func dollarTag(text string, i int) (string, bool) {
	if i > 0 && isIdentPart(text[i-1]) {
		return "", false
	}
	j := i + 1
	if j < len(text) && text[j] == '$' {
		return "$$", true
	}
	if j >= len(text) || !isIdentStart(text[j]) {
		return "", false
	}
	for j < len(text) && text[j] != '$' && isIdentPart(text[j]) {
		j++
	}
	if j >= len(text) || text[j] != '$' {
		return "", false
	}
	return text[i : j+1], true
}
