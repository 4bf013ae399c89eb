// internal/query/engine.go
package query

import (
	"fmt"

	"titanic-agent/internal/dataset"
)

// Engine evaluates expressions against one read-only frame bound to df.
type Engine struct {
	df *Frame
}

func NewEngine(t *dataset.Table) *Engine {
	return &Engine{df: FromTable(t)}
}

// Eval parses and evaluates src.
func (e *Engine) Eval(src string) (Value, error) {
	node, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return e.eval(node)
}

// Evaluate returns the printed form of the result.
func (e *Engine) Evaluate(src string) (string, error) {
	v, err := e.Eval(src)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}

// Mask evaluates a boolean row filter and returns one flag per table row.
func (e *Engine) Mask(src string) ([]bool, error) {
	v, err := e.Eval(src)
	if err != nil {
		return nil, err
	}
	s, ok := v.(*Series)
	if !ok || s.DType != "bool" {
		return nil, fmt.Errorf("filter must be a boolean expression over df rows, got %s", v.TypeName())
	}
	mask := make([]bool, e.df.Len())
	for i, label := range s.Index {
		row, ok := label.(Int)
		if !ok || int(row) < 0 || int(row) >= len(mask) {
			return nil, fmt.Errorf("filter result is not indexed by df rows")
		}
		mask[row] = bool(s.Values[i].(Bool))
	}
	return mask, nil
}

func (e *Engine) lookup(n *Name) (Value, error) {
	switch n.ID {
	case "df":
		return e.df, nil
	case "pd":
		return &Module{Name: "pd"}, nil
	case "True":
		return Bool(true), nil
	case "False":
		return Bool(false), nil
	case "None":
		return None, nil
	}
	if b, ok := builtins[n.ID]; ok {
		return b, nil
	}
	return nil, errorf("name '%s' is not defined", n.ID)
}

func (e *Engine) eval(n Node) (Value, error) {
	switch n := n.(type) {
	case *NumberLit:
		if n.IsInt {
			return Int(n.Int), nil
		}
		return Float(n.Float), nil

	case *StringLit:
		return Str(n.Value), nil

	case *Name:
		return e.lookup(n)

	case *ListLit:
		vals, err := e.evalAll(n.Elems)
		if err != nil {
			return nil, err
		}
		return &List{Items: vals, Kind: pyList}, nil

	case *TupleLit:
		vals, err := e.evalAll(n.Elems)
		if err != nil {
			return nil, err
		}
		return Tuple(vals), nil

	case *Unary:
		x, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, x)

	case *Binary:
		return e.evalBinary(n)

	case *Attr:
		x, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		return getAttr(x, n.Name)

	case *Subscript:
		x, err := e.eval(n.X)
		if err != nil {
			return nil, err
		}
		key, err := e.evalKey(n.Index)
		if err != nil {
			return nil, err
		}
		return subscript(x, key)

	case *Call:
		return e.evalCall(n)

	case *Slice:
		return nil, errorf("SyntaxError: slice outside of subscript at position %d", n.At)
	}
	return nil, errorf("SyntaxError: unsupported expression at position %d", n.Pos())
}

func (e *Engine) evalAll(nodes []Node) ([]Value, error) {
	out := make([]Value, len(nodes))
	for i, n := range nodes {
		v, err := e.eval(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Engine) evalBinary(n *Binary) (Value, error) {
	x, err := e.eval(n.X)
	if err != nil {
		return nil, err
	}
	if n.Op == "and" || n.Op == "or" {
		t, err := truthy(x)
		if err != nil {
			return nil, err
		}
		if (n.Op == "and" && !t) || (n.Op == "or" && t) {
			return x, nil
		}
		return e.eval(n.Y)
	}
	y, err := e.eval(n.Y)
	if err != nil {
		return nil, err
	}
	return binary(n.Op, x, y)
}

func (e *Engine) evalKey(n Node) (Value, error) {
	sl, ok := n.(*Slice)
	if !ok {
		return e.eval(n)
	}
	var out sliceValue
	bound := func(b Node) (int, error) {
		v, err := e.eval(b)
		if err != nil {
			return 0, err
		}
		i, ok := v.(Int)
		if !ok {
			return 0, errorf("TypeError: slice indices must be integers or None")
		}
		return int(i), nil
	}
	if sl.Lo != nil {
		lo, err := bound(sl.Lo)
		if err != nil {
			return nil, err
		}
		out.lo, out.hasLo = lo, true
	}
	if sl.Hi != nil {
		hi, err := bound(sl.Hi)
		if err != nil {
			return nil, err
		}
		out.hi, out.hasHi = hi, true
	}
	return out, nil
}

func (e *Engine) evalCall(n *Call) (Value, error) {
	fn, err := e.eval(n.Fn)
	if err != nil {
		return nil, err
	}
	a := args{}
	if a.pos, err = e.evalAll(n.Args); err != nil {
		return nil, err
	}
	if len(n.Kwargs) > 0 {
		a.kw = make(map[string]Value, len(n.Kwargs))
		for _, kw := range n.Kwargs {
			v, err := e.eval(kw.Value)
			if err != nil {
				return nil, err
			}
			a.kw[kw.Name] = v
		}
	}
	switch f := fn.(type) {
	case *Method:
		a.fn = f.Name
		return f.fn(a)
	case *Builtin:
		a.fn = f.Name
		return f.fn(a)
	}
	return nil, errorf("TypeError: '%s' object is not callable", fn.TypeName())
}

func getAttr(x Value, name string) (Value, error) {
	switch v := x.(type) {
	case *Frame:
		return frameAttr(v, name)
	case *Series:
		return seriesAttr(v, name)
	case *GroupBy:
		return groupByAttr(v, name)
	case *StringMethods:
		return stringAttr(v, name)
	case *Module:
		return moduleAttr(v, name)
	case *List:
		if name == "tolist" {
			return &Method{Owner: v.TypeName(), Name: name, fn: func(a args) (Value, error) {
				if err := a.check(0); err != nil {
					return nil, err
				}
				return &List{Items: v.Items, Kind: pyList}, nil
			}}, nil
		}
	}
	return nil, attrError(x, name)
}

func subscript(x, key Value) (Value, error) {
	switch v := x.(type) {
	case *Frame:
		if _, ok := key.(sliceValue); ok {
			return nil, errorf("TypeError: use df.iloc[a:b] or df.head(n) to slice rows")
		}
		return frameIndex(v, key)

	case *Series:
		switch k := key.(type) {
		case *Series:
			return filterSeries(v, k)
		case sliceValue:
			return v.take(k.positions(v.Len())), nil
		case *List:
			var index, values []Value
			for _, label := range k.Items {
				val, ok := v.lookup(label)
				if !ok {
					return nil, keyError(label)
				}
				index = append(index, label)
				values = append(values, val)
			}
			out := newSeries(v.Name, v.HasName, index, values)
			out.IndexNames = v.IndexNames
			return out, nil
		}
		if val, ok := v.lookup(key); ok {
			return val, nil
		}
		return nil, keyError(key)

	case *GroupBy:
		return v.index(key)

	case *Indexer:
		return v.index(key)

	case *List:
		return sequenceIndex(v.Items, key, func(items []Value) Value {
			return &List{Items: items, Kind: v.Kind, DType: v.DType}
		})

	case Tuple:
		return sequenceIndex(v, key, func(items []Value) Value { return Tuple(items) })

	case Str:
		r := []rune(string(v))
		chars := make([]Value, len(r))
		for i, c := range r {
			chars[i] = Str(string(c))
		}
		return sequenceIndex(chars, key, func(items []Value) Value {
			var s string
			for _, c := range items {
				s += string(c.(Str))
			}
			return Str(s)
		})
	}
	return nil, errorf("TypeError: '%s' object is not subscriptable", x.TypeName())
}

func sequenceIndex(values []Value, key Value, wrap func([]Value) Value) (Value, error) {
	if sl, ok := key.(sliceValue); ok {
		pos := sl.positions(len(values))
		out := make([]Value, len(pos))
		for i, p := range pos {
			out[i] = values[p]
		}
		return wrap(out), nil
	}
	k, ok := key.(Int)
	if !ok {
		return nil, errorf("TypeError: indices must be integers or slices, not %s", key.TypeName())
	}
	i := int(k)
	if i < 0 {
		i += len(values)
	}
	if i < 0 || i >= len(values) {
		return nil, errorf("IndexError: index out of range")
	}
	return values[i], nil
}
