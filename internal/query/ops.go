// internal/query/ops.go
package query

import (
	"math"
	"strings"
)

func isComparison(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func binary(op string, x, y Value) (Value, error) {
	if op == "in" || op == "not in" {
		found, err := contains(y, x)
		if err != nil {
			return nil, err
		}
		if op == "not in" {
			found = !found
		}
		return Bool(found), nil
	}

	xs, xSeries := x.(*Series)
	ys, ySeries := y.(*Series)
	switch {
	case xSeries && ySeries:
		aligned, err := xs.alignTo(ys)
		if err != nil {
			return nil, err
		}
		return elementwise(op, xs, xs.Values, aligned, sameName(xs, ys))
	case xSeries:
		return broadcast(op, xs, y, false)
	case ySeries:
		return broadcast(op, ys, x, true)
	}

	if _, ok := x.(*Frame); ok {
		return nil, errorf("TypeError: unsupported operand type(s) for %s: 'DataFrame' and '%s'", op, y.TypeName())
	}
	if _, ok := y.(*Frame); ok {
		return nil, errorf("TypeError: unsupported operand type(s) for %s: '%s' and 'DataFrame'", op, x.TypeName())
	}
	return scalarBinary(op, x, y)
}

func sameName(a, b *Series) *Series {
	if a.HasName && b.HasName && a.Name == b.Name {
		return a
	}
	return &Series{}
}

func broadcast(op string, s *Series, scalar Value, reversed bool) (Value, error) {
	other := make([]Value, len(s.Values))
	for i := range other {
		other[i] = scalar
	}
	if reversed {
		return elementwise(op, s, other, s.Values, s)
	}
	return elementwise(op, s, s.Values, other, s)
}

// elementwise applies op per row. Missing operands give NaN for arithmetic,
// False for comparisons (True for !=).
func elementwise(op string, shape *Series, xs, ys []Value, naming *Series) (Value, error) {
	out := make([]Value, len(xs))
	for i := range xs {
		a, b := xs[i], ys[i]
		if isMissing(a) || isMissing(b) {
			switch {
			case op == "!=":
				out[i] = Bool(true)
			case isComparison(op) || op == "&" || op == "|":
				out[i] = Bool(false)
			default:
				out[i] = nan()
			}
			continue
		}
		r, err := scalarBinary(op, a, b)
		if err != nil {
			if zero, ok := err.(*zeroDivision); ok {
				out[i] = zero.seriesResult()
				continue
			}
			return nil, err
		}
		out[i] = r
	}
	res := newSeries(naming.Name, naming.HasName, shape.Index, out)
	res.IndexNames = shape.IndexNames
	return res, nil
}

type zeroDivision struct {
	msg       string
	numerator float64
}

func (z *zeroDivision) Error() string { return "ZeroDivisionError: " + z.msg }

func (z *zeroDivision) seriesResult() Value {
	switch {
	case z.numerator > 0:
		return Float(math.Inf(1))
	case z.numerator < 0:
		return Float(math.Inf(-1))
	}
	return nan()
}

func scalarBinary(op string, x, y Value) (Value, error) {
	if isComparison(op) {
		return compare(op, x, y)
	}

	if op == "&" || op == "|" {
		bx, xb := x.(Bool)
		by, yb := y.(Bool)
		if xb && yb {
			if op == "&" {
				return Bool(bx && by), nil
			}
			return Bool(bx || by), nil
		}
		ix, xi := asInt(x)
		iy, yi := asInt(y)
		if xi && yi {
			if op == "&" {
				return Int(ix & iy), nil
			}
			return Int(ix | iy), nil
		}
		return nil, operandError(op, x, y)
	}

	if sx, ok := x.(Str); ok {
		if sy, ok := y.(Str); ok && op == "+" {
			return sx + sy, nil
		}
		return nil, operandError(op, x, y)
	}

	fx, xNum := number(x)
	fy, yNum := number(y)
	if !xNum || !yNum {
		return nil, operandError(op, x, y)
	}
	ix, xInt := asInt(x)
	iy, yInt := asInt(y)
	ints := xInt && yInt

	switch op {
	case "+":
		if ints {
			return Int(ix + iy), nil
		}
		return Float(fx + fy), nil
	case "-":
		if ints {
			return Int(ix - iy), nil
		}
		return Float(fx - fy), nil
	case "*":
		if ints {
			return Int(ix * iy), nil
		}
		return Float(fx * fy), nil
	case "/":
		if fy == 0 {
			msg := "division by zero"
			if !ints {
				msg = "float division by zero"
			}
			return nil, &zeroDivision{msg: msg, numerator: fx}
		}
		return Float(fx / fy), nil
	case "//":
		if fy == 0 {
			msg := "integer division or modulo by zero"
			if !ints {
				msg = "float floor division by zero"
			}
			return nil, &zeroDivision{msg: msg, numerator: fx}
		}
		if ints {
			q := ix / iy
			if (ix%iy != 0) && ((ix < 0) != (iy < 0)) {
				q--
			}
			return Int(q), nil
		}
		return Float(math.Floor(fx / fy)), nil
	case "%":
		if fy == 0 {
			msg := "integer modulo by zero"
			if !ints {
				msg = "float modulo"
			}
			return nil, &zeroDivision{msg: msg}
		}
		if ints {
			r := ix % iy
			if r != 0 && ((r < 0) != (iy < 0)) {
				r += iy
			}
			return Int(r), nil
		}
		r := math.Mod(fx, fy)
		if r != 0 && ((r < 0) != (fy < 0)) {
			r += fy
		}
		return Float(r), nil
	case "**":
		if ints && iy >= 0 {
			if r, ok := intPow(ix, iy); ok {
				return Int(r), nil
			}
		}
		return Float(math.Pow(fx, fy)), nil
	}
	return nil, errorf("SyntaxError: unknown operator %s", op)
}

func asInt(v Value) (int64, bool) {
	switch x := v.(type) {
	case Int:
		return int64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// intPow reports false on overflow. Unit bases never overflow, so their
// exponent may be arbitrarily large.
func intPow(base, exp int64) (int64, bool) {
	switch base {
	case 0:
		if exp == 0 {
			return 1, true
		}
		return 0, true
	case 1:
		return 1, true
	case -1:
		if exp%2 == 0 {
			return 1, true
		}
		return -1, true
	}
	// |base| >= 2 overflows int64 past 2**63.
	if exp > 63 {
		return 0, false
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			next := result * base
			if next/base != result {
				return 0, false
			}
			result = next
		}
		exp >>= 1
		if exp > 0 {
			sq := base * base
			if sq/base != base {
				return 0, false
			}
			base = sq
		}
	}
	return result, true
}

func compare(op string, x, y Value) (Value, error) {
	if op == "==" {
		return Bool(scalarEqual(x, y)), nil
	}
	if op == "!=" {
		return Bool(!scalarEqual(x, y)), nil
	}
	if isMissing(x) || isMissing(y) {
		if _, ok := x.(NoneType); ok {
			return nil, orderError(op, x, y)
		}
		if _, ok := y.(NoneType); ok {
			return nil, orderError(op, x, y)
		}
		return Bool(false), nil
	}
	_, xNum := number(x)
	_, yNum := number(y)
	_, xStr := x.(Str)
	_, yStr := y.(Str)
	if !(xNum && yNum) && !(xStr && yStr) {
		return nil, orderError(op, x, y)
	}
	c := compareScalars(x, y)
	switch op {
	case "<":
		return Bool(c < 0), nil
	case "<=":
		return Bool(c <= 0), nil
	case ">":
		return Bool(c > 0), nil
	}
	return Bool(c >= 0), nil
}

func operandError(op string, x, y Value) error {
	return errorf("TypeError: unsupported operand type(s) for %s: '%s' and '%s'", op, x.TypeName(), y.TypeName())
}

func orderError(op string, x, y Value) error {
	return errorf("TypeError: '%s' not supported between instances of '%s' and '%s'", op, x.TypeName(), y.TypeName())
}

func contains(container, needle Value) (bool, error) {
	switch c := container.(type) {
	case Str:
		s, ok := needle.(Str)
		if !ok {
			return false, errorf("TypeError: 'in <string>' requires string as left operand, not %s", needle.TypeName())
		}
		return strings.Contains(string(c), string(s)), nil
	case *List:
		for _, e := range c.Items {
			if scalarEqual(e, needle) {
				return true, nil
			}
		}
		return false, nil
	case Tuple:
		for _, e := range c {
			if scalarEqual(e, needle) {
				return true, nil
			}
		}
		return false, nil
	case *Series:
		_, ok := c.lookup(needle)
		return ok, nil
	case *Frame:
		s, ok := needle.(Str)
		if !ok {
			return false, nil
		}
		_, found := c.column(string(s))
		return found, nil
	}
	return false, errorf("TypeError: argument of type '%s' is not iterable", container.TypeName())
}

func unary(op string, x Value) (Value, error) {
	if op == "not" {
		t, err := truthy(x)
		if err != nil {
			return nil, err
		}
		return Bool(!t), nil
	}
	if s, ok := x.(*Series); ok {
		return s.mapValues(func(v Value) (Value, error) {
			if isMissing(v) {
				if op == "~" {
					return nil, errorf("TypeError: bad operand type for unary ~: 'float'")
				}
				return nan(), nil
			}
			return unary(op, v)
		})
	}
	switch v := x.(type) {
	case Int:
		switch op {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		case "~":
			return ^v, nil
		}
	case Float:
		switch op {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		}
	case Bool:
		switch op {
		case "~":
			return !v, nil
		case "-":
			if v {
				return Int(-1), nil
			}
			return Int(0), nil
		case "+":
			if v {
				return Int(1), nil
			}
			return Int(0), nil
		}
	}
	return nil, errorf("TypeError: bad operand type for unary %s: '%s'", op, x.TypeName())
}
