// internal/query/lexer.go
package query

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokName
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return fmt.Sprintf("%q", t.text)
	default:
		return fmt.Sprintf("'%s'", t.text)
	}
}

// longest operators first
var operators = []string{
	"**", "//", "==", "!=", "<=", ">=",
	"+", "-", "*", "/", "%", "<", ">", "&", "|", "~",
	"(", ")", "[", "]", ",", ".", ":", "=",
}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '_') {
				i++
			}
			if i < len(rs) && rs[i] == '.' {
				i++
				for i < len(rs) && unicode.IsDigit(rs[i]) {
					i++
				}
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					i = j
					for i < len(rs) && unicode.IsDigit(rs[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNumber, text: strings.ReplaceAll(string(rs[start:i]), "_", ""), pos: start})

		case r == '\'' || r == '"':
			start := i
			quote := r
			i++
			var b strings.Builder
			closed := false
			for i < len(rs) {
				c := rs[i]
				if c == '\\' && i+1 < len(rs) {
					i++
					switch rs[i] {
					case 'n':
						b.WriteRune('\n')
					case 't':
						b.WriteRune('\t')
					default:
						b.WriteRune(rs[i])
					}
					i++
					continue
				}
				if c == quote {
					closed = true
					i++
					break
				}
				b.WriteRune(c)
				i++
			}
			if !closed {
				return nil, &Error{Msg: fmt.Sprintf("SyntaxError: unterminated string literal at position %d", start)}
			}
			toks = append(toks, token{kind: tokString, text: b.String(), pos: start})

		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(rs) && (rs[i] == '_' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			toks = append(toks, token{kind: tokName, text: string(rs[start:i]), pos: start})

		default:
			matched := false
			rest := string(rs[i:])
			for _, op := range operators {
				if strings.HasPrefix(rest, op) {
					toks = append(toks, token{kind: tokOp, text: op, pos: i})
					i += len([]rune(op))
					matched = true
					break
				}
			}
			if !matched {
				return nil, &Error{Msg: fmt.Sprintf("SyntaxError: invalid character '%c' at position %d", r, i)}
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(rs)})
	return toks, nil
}
