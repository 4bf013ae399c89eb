// internal/query/parser.go
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDepth bounds expression nesting.
const MaxDepth = 64

type parser struct {
	toks  []token
	pos   int
	depth int
}

// Parse turns a single expression into an AST.
func Parse(src string) (Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &Error{Msg: "SyntaxError: empty expression"}
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t)
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokName && t.text == word
}

func (p *parser) expect(op string) error {
	if !p.isOp(op) {
		return p.unexpected(p.peek())
	}
	p.next()
	return nil
}

func (p *parser) unexpected(t token) error {
	return &Error{Msg: fmt.Sprintf("SyntaxError: unexpected %s at position %d", t, t.pos)}
}

func (p *parser) expr() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return nil, &Error{Msg: "SyntaxError: expression nested too deeply"}
	}
	return p.or()
}

func (p *parser) or() (Node, error) {
	x, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		t := p.next()
		y, err := p.and()
		if err != nil {
			return nil, err
		}
		x = &Binary{At: t.pos, Op: "or", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) and() (Node, error) {
	x, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		t := p.next()
		y, err := p.not()
		if err != nil {
			return nil, err
		}
		x = &Binary{At: t.pos, Op: "and", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) not() (Node, error) {
	if p.isKeyword("not") {
		t := p.next()
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return &Unary{At: t.pos, Op: "not", X: x}, nil
	}
	return p.comparison()
}

func (p *parser) comparison() (Node, error) {
	x, err := p.bitOr()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		var op string
		switch {
		case t.kind == tokOp && (t.text == "==" || t.text == "!=" || t.text == "<" ||
			t.text == "<=" || t.text == ">" || t.text == ">="):
			op = t.text
			p.next()
		case t.kind == tokName && t.text == "in":
			op = "in"
			p.next()
		case t.kind == tokName && t.text == "not" && p.toks[p.pos+1].kind == tokName && p.toks[p.pos+1].text == "in":
			op = "not in"
			p.next()
			p.next()
		default:
			return x, nil
		}
		y, err := p.bitOr()
		if err != nil {
			return nil, err
		}
		x = &Binary{At: t.pos, Op: op, X: x, Y: y}
	}
}

func (p *parser) bitOr() (Node, error) {
	x, err := p.bitAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("|") {
		t := p.next()
		y, err := p.bitAnd()
		if err != nil {
			return nil, err
		}
		x = &Binary{At: t.pos, Op: "|", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) bitAnd() (Node, error) {
	x, err := p.arith()
	if err != nil {
		return nil, err
	}
	for p.isOp("&") {
		t := p.next()
		y, err := p.arith()
		if err != nil {
			return nil, err
		}
		x = &Binary{At: t.pos, Op: "&", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) arith() (Node, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		t := p.next()
		y, err := p.term()
		if err != nil {
			return nil, err
		}
		x = &Binary{At: t.pos, Op: t.text, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) term() (Node, error) {
	x, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("//") || p.isOp("%") {
		t := p.next()
		y, err := p.factor()
		if err != nil {
			return nil, err
		}
		x = &Binary{At: t.pos, Op: t.text, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) factor() (Node, error) {
	if p.isOp("-") || p.isOp("+") || p.isOp("~") {
		t := p.next()
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > MaxDepth {
			return nil, &Error{Msg: "SyntaxError: expression nested too deeply"}
		}
		x, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &Unary{At: t.pos, Op: t.text, X: x}, nil
	}
	return p.power()
}

// power is right associative and binds tighter than a unary minus on its left.
func (p *parser) power() (Node, error) {
	x, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		t := p.next()
		y, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &Binary{At: t.pos, Op: "**", X: x, Y: y}, nil
	}
	return x, nil
}

func (p *parser) postfix() (Node, error) {
	x, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokOp && t.text == ".":
			p.next()
			name := p.next()
			if name.kind != tokName {
				return nil, p.unexpected(name)
			}
			x = &Attr{At: name.pos, X: x, Name: name.text}

		case t.kind == tokOp && t.text == "(":
			p.next()
			call, err := p.callArgs(x, t.pos)
			if err != nil {
				return nil, err
			}
			x = call

		case t.kind == tokOp && t.text == "[":
			p.next()
			idx, err := p.subscript()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &Subscript{At: t.pos, X: x, Index: idx}

		default:
			return x, nil
		}
	}
}

func (p *parser) callArgs(fn Node, at int) (Node, error) {
	call := &Call{At: at, Fn: fn}
	for !p.isOp(")") {
		if t := p.peek(); t.kind == tokName && p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == "=" {
			p.next()
			p.next()
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			for _, kw := range call.Kwargs {
				if kw.Name == t.text {
					return nil, &Error{Msg: fmt.Sprintf("SyntaxError: keyword argument repeated: %s", t.text)}
				}
			}
			call.Kwargs = append(call.Kwargs, Keyword{Name: t.text, Value: v})
		} else {
			if len(call.Kwargs) > 0 {
				return nil, &Error{Msg: "SyntaxError: positional argument follows keyword argument"}
			}
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, v)
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) subscript() (Node, error) {
	at := p.peek().pos
	var lo Node
	if !p.isOp(":") {
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if !p.isOp(":") {
			return x, nil
		}
		lo = x
	}
	p.next() // ':'
	var hi Node
	if !p.isOp("]") {
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		hi = x
	}
	return &Slice{At: at, Lo: lo, Hi: hi}, nil
}

func (p *parser) atom() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return parseNumber(t)

	case tokString:
		s := t.text
		// adjacent literals concatenate
		for p.peek().kind == tokString {
			s += p.next().text
		}
		return &StringLit{At: t.pos, Value: s}, nil

	case tokName:
		switch t.text {
		case "and", "or", "not", "in", "lambda", "import", "def", "class", "for", "while", "if", "else":
			return nil, p.unexpected(t)
		}
		return &Name{At: t.pos, ID: t.text}, nil

	case tokOp:
		switch t.text {
		case "(":
			if p.isOp(")") {
				p.next()
				return &TupleLit{At: t.pos}, nil
			}
			x, err := p.expr()
			if err != nil {
				return nil, err
			}
			if p.isOp(",") {
				tuple := &TupleLit{At: t.pos, Elems: []Node{x}}
				for p.isOp(",") {
					p.next()
					if p.isOp(")") {
						break
					}
					e, err := p.expr()
					if err != nil {
						return nil, err
					}
					tuple.Elems = append(tuple.Elems, e)
				}
				x = tuple
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return x, nil

		case "[":
			list := &ListLit{At: t.pos}
			for !p.isOp("]") {
				e, err := p.expr()
				if err != nil {
					return nil, err
				}
				list.Elems = append(list.Elems, e)
				if !p.isOp(",") {
					break
				}
				p.next()
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			return list, nil
		}
	}
	return nil, p.unexpected(t)
}

func parseNumber(t token) (Node, error) {
	if !strings.ContainsAny(t.text, ".eE") {
		if i, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return &NumberLit{At: t.pos, Int: i, IsInt: true}, nil
		}
	}
	f, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return nil, &Error{Msg: fmt.Sprintf("SyntaxError: invalid number %s at position %d", t.text, t.pos)}
	}
	return &NumberLit{At: t.pos, Float: f}, nil
}
