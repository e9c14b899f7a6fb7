// Package splitter breaks a DDL script into top-level statements.
//
// Statements end at a semicolon that is not inside a string literal, a
// quoted identifier, a comment or a dollar-quoted block. The splitter is
// lazy: statements are produced one at a time by Next, and Reset rewinds to
// the start of the buffer.
package splitter

import (
	"bytes"
	"fmt"
	"iter"
	"strings"
)

// Kind tags a statement by its leading keywords.
type Kind int

// Statement kinds.
const (
	KindOther Kind = iota
	KindCreateTable
	KindAlterTable
	KindCreateIndex
	KindCreateTrigger
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindCreateTable:
		return "CreateTable"
	case KindAlterTable:
		return "AlterTable"
	case KindCreateIndex:
		return "CreateIndex"
	case KindCreateTrigger:
		return "CreateTrigger"
	case KindComment:
		return "Comment"
	default:
		return "Other"
	}
}

// Statement is one top-level statement. Text is src[Start:End]; the
// terminating semicolon, when present, sits at src[End].
type Statement struct {
	Kind  Kind
	Start int
	End   int
	Text  string
}

// Body returns the statement text without leading whitespace and comments,
// and the absolute offset at which it begins.
func (s Statement) Body() (string, int) {
	n := leadingTrivia(s.Text)
	return strings.TrimRight(s.Text[n:], " \t\r\n"), s.Start + n
}

// LexError reports a literal, comment or dollar-quoted block left open at the
// end of input.
type LexError struct {
	Reason string
	Offset int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Reason, e.Offset)
}

// Splitter yields statements from a source buffer.
type Splitter struct {
	src  []byte
	pos  int
	errs []*LexError
}

// New returns a splitter positioned at the start of src.
func New(src []byte) *Splitter {
	return &Splitter{src: src}
}

// Reset rewinds the splitter and discards accumulated errors.
func (s *Splitter) Reset() {
	s.pos = 0
	s.errs = nil
}

// Errors returns the lexical errors seen so far.
func (s *Splitter) Errors() []*LexError {
	return append([]*LexError(nil), s.errs...)
}

// Next returns the next non-blank statement. The second result is false once
// the input is exhausted.
func (s *Splitter) Next() (Statement, bool) {
	for s.pos < len(s.src) {
		start := s.pos
		end, next := s.scan(start)
		s.pos = next

		text := string(s.src[start:end])
		if leadingTrivia(text) == len(text) {
			continue
		}
		return Statement{
			Kind:  kindOf(text),
			Start: start,
			End:   end,
			Text:  text,
		}, true
	}
	return Statement{}, false
}

// All rewinds the splitter and iterates over every statement.
func (s *Splitter) All() iter.Seq[Statement] {
	return func(yield func(Statement) bool) {
		s.Reset()
		for {
			st, ok := s.Next()
			if !ok || !yield(st) {
				return
			}
		}
	}
}

// Split collects every statement of src along with any lexical errors.
func Split(src []byte) ([]Statement, []*LexError) {
	s := New(src)
	var stmts []Statement
	for st := range s.All() {
		stmts = append(stmts, st)
	}
	return stmts, s.Errors()
}

// scan walks from i to the next top-level semicolon. It returns the end of the
// statement span and the position to resume from.
//
// An opener that is never closed is recorded as a LexError and then treated
// as ordinary text, so the rest of the buffer is still split.
func (s *Splitter) scan(i int) (end, next int) {
	src := s.src
	for i < len(src) {
		c := src[i]
		switch {
		case c == ';':
			return i, i + 1

		case c == '\'':
			j, ok := skipQuoted(src, i, '\'', isEscapeString(src, i))
			if !ok {
				s.fail("unterminated string literal", i)
				i++
				continue
			}
			i = j

		case c == '"':
			j, ok := skipQuoted(src, i, '"', false)
			if !ok {
				s.fail("unterminated quoted identifier", i)
				i++
				continue
			}
			i = j

		case c == '-' && peek(src, i+1) == '-':
			i = skipLine(src, i)

		case c == '/' && peek(src, i+1) == '*':
			j, ok := skipBlockComment(src, i)
			if !ok {
				s.fail("unterminated block comment", i)
				i += 2
				continue
			}
			i = j

		case c == '$':
			tag, ok := dollarTag(src, i)
			if !ok {
				i++
				continue
			}
			j, ok := skipDollar(src, i, tag)
			if !ok {
				s.fail("unterminated dollar-quoted block "+tag, i)
				i += len(tag)
				continue
			}
			i = j

		default:
			i++
		}
	}
	return len(src), len(src)
}

func (s *Splitter) fail(reason string, offset int) {
	s.errs = append(s.errs, &LexError{Reason: reason, Offset: offset})
}

func peek(src []byte, i int) byte {
	if i < len(src) {
		return src[i]
	}
	return 0
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 0x80 || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isEscapeString reports whether the quote at i opens an E'...' literal.
func isEscapeString(src []byte, i int) bool {
	if i == 0 || (src[i-1] != 'E' && src[i-1] != 'e') {
		return false
	}
	return i < 2 || !isIdentByte(src[i-2])
}

// skipQuoted returns the position after the closing quote. A doubled quote is
// an escaped quote; with backslash set, a backslash escapes the next byte.
func skipQuoted(src []byte, i int, q byte, backslash bool) (int, bool) {
	for j := i + 1; j < len(src); j++ {
		switch {
		case backslash && src[j] == '\\':
			j++
		case src[j] == q:
			if peek(src, j+1) == q {
				j++
				continue
			}
			return j + 1, true
		}
	}
	return len(src), false
}

func skipLine(src []byte, i int) int {
	if n := bytes.IndexByte(src[i:], '\n'); n >= 0 {
		return i + n + 1
	}
	return len(src)
}

// skipBlockComment honours nested comments the way PostgreSQL does.
func skipBlockComment(src []byte, i int) (int, bool) {
	depth := 0
	for j := i; j+1 < len(src); {
		switch {
		case src[j] == '/' && src[j+1] == '*':
			depth++
			j += 2
		case src[j] == '*' && src[j+1] == '/':
			depth--
			j += 2
			if depth == 0 {
				return j, true
			}
		default:
			j++
		}
	}
	return len(src), false
}

// dollarTag recognises $$ or $tag$ at i. Tags follow identifier rules and
// cannot start with a digit, so $1 is a parameter reference.
func dollarTag(src []byte, i int) (string, bool) {
	if i > 0 && isIdentByte(src[i-1]) {
		return "", false
	}
	j := i + 1
	if peek(src, j) == '$' {
		return "$$", true
	}
	if j >= len(src) || !isIdentStart(src[j]) {
		return "", false
	}
	for j < len(src) && isIdentByte(src[j]) {
		j++
	}
	if peek(src, j) != '$' {
		return "", false
	}
	return string(src[i : j+1]), true
}

// skipDollar finds the matching closing tag. Tags do not nest: any other
// dollar sequence inside the block is plain text.
func skipDollar(src []byte, i int, tag string) (int, bool) {
	body := i + len(tag)
	n := bytes.Index(src[body:], []byte(tag))
	if n < 0 {
		return len(src), false
	}
	return body + n + len(tag), true
}

// leadingTrivia returns the length of the whitespace and comment prefix of s.
func leadingTrivia(s string) int {
	i := 0
	for i < len(s) {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' || s[i] == '\f':
			i++
		case strings.HasPrefix(s[i:], "--"):
			i = skipLine([]byte(s), i)
		case strings.HasPrefix(s[i:], "/*"):
			j, _ := skipBlockComment([]byte(s), i)
			i = j
		default:
			return i
		}
	}
	return i
}

var createModifiers = map[string]bool{
	"OR": true, "REPLACE": true, "GLOBAL": true, "LOCAL": true,
	"TEMP": true, "TEMPORARY": true, "UNLOGGED": true, "UNIQUE": true,
	"CONSTRAINT": true,
}

// kindOf classifies a statement by its first keywords.
func kindOf(text string) Kind {
	words := headWords(text[leadingTrivia(text):], 8)
	if len(words) < 2 {
		return KindOther
	}
	switch words[0] {
	case "CREATE":
		for _, w := range words[1:] {
			if createModifiers[w] {
				continue
			}
			switch w {
			case "TABLE":
				return KindCreateTable
			case "INDEX":
				return KindCreateIndex
			case "TRIGGER":
				return KindCreateTrigger
			}
			return KindOther
		}
	case "ALTER":
		if words[1] == "TABLE" {
			return KindAlterTable
		}
	case "COMMENT":
		if words[1] == "ON" {
			return KindComment
		}
	}
	return KindOther
}

// headWords returns up to n leading upper-cased words, stopping at the first
// byte that is neither a letter, an underscore nor whitespace.
func headWords(s string, n int) []string {
	var words []string
	i := 0
	for i < len(s) && len(words) < n {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
			i++
		}
		j := i
		for j < len(s) && (s[j] == '_' || (s[j] >= 'a' && s[j] <= 'z') || (s[j] >= 'A' && s[j] <= 'Z')) {
			j++
		}
		if j == i {
			break
		}
		words = append(words, strings.ToUpper(s[i:j]))
		i = j
	}
	return words
}
