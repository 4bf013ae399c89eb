// internal/query/builtins.go
package query

import (
	"math"
	"strconv"
	"strings"
)

var builtins map[string]*Builtin

func init() {
	builtins = map[string]*Builtin{
		"len":   {Name: "len", fn: builtinLen},
		"round": {Name: "round", fn: builtinRound},
		"abs":   {Name: "abs", fn: builtinAbs},
		"min":   {Name: "min", fn: func(a args) (Value, error) { return builtinExtreme(a, -1) }},
		"max":   {Name: "max", fn: func(a args) (Value, error) { return builtinExtreme(a, 1) }},
		"sum":   {Name: "sum", fn: builtinSum},
		"int":   {Name: "int", fn: func(a args) (Value, error) { return builtinConvert(a, toInt) }},
		"float": {Name: "float", fn: func(a args) (Value, error) { return builtinConvert(a, toFloat) }},
		"str":   {Name: "str", fn: func(a args) (Value, error) { return builtinConvert(a, toStr) }},
	}
}

func one(a args) (Value, error) {
	if len(a.pos) != 1 || len(a.kw) > 0 {
		return nil, errorf("TypeError: %s() takes exactly one argument (%d given)", a.fn, len(a.pos)+len(a.kw))
	}
	return a.pos[0], nil
}

func builtinLen(a args) (Value, error) {
	v, err := one(a)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case *Frame:
		return Int(x.Len()), nil
	case *Series:
		return Int(x.Len()), nil
	case *List:
		return Int(len(x.Items)), nil
	case Tuple:
		return Int(len(x)), nil
	case Str:
		return Int(len([]rune(string(x)))), nil
	case *GroupBy:
		return Int(len(x.labels)), nil
	}
	return nil, errorf("TypeError: object of type '%s' has no len()", v.TypeName())
}

func builtinRound(a args) (Value, error) {
	if err := a.check(2, "ndigits"); err != nil {
		return nil, err
	}
	v, ok := a.get(0, "number")
	if !ok {
		return nil, errorf("TypeError: round() missing required argument 'number' (pos 1)")
	}
	digits, hasDigits := a.get(1, "ndigits")
	if s, ok := v.(*Series); ok {
		inner := args{fn: "round"}
		if hasDigits {
			inner.pos = []Value{digits}
		}
		return seriesRound(s, inner)
	}
	f, isNum := number(v)
	if !isNum {
		return nil, errorf("TypeError: type %s doesn't define __round__ method", v.TypeName())
	}
	if !hasDigits || digits == None {
		if i, ok := v.(Int); ok {
			return i, nil
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errorf("ValueError: cannot convert float %s to integer", pyFloat(f))
		}
		return Int(math.RoundToEven(f)), nil
	}
	n, err := a.intArg(1, "ndigits", 0)
	if err != nil {
		return nil, err
	}
	if i, ok := v.(Int); ok && n >= 0 {
		return i, nil
	}
	return Float(roundHalfEven(f, n)), nil
}

func builtinAbs(a args) (Value, error) {
	v, err := one(a)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(*Series); ok {
		return s.mapValues(absValue)
	}
	return absValue(v)
}

func builtinExtreme(a args, dir int) (Value, error) {
	if len(a.kw) > 0 {
		return nil, errorf("TypeError: %s() takes no keyword arguments", a.fn)
	}
	var candidates []Value
	switch len(a.pos) {
	case 0:
		return nil, errorf("TypeError: %s expected at least 1 argument, got 0", a.fn)
	case 1:
		if s, ok := a.pos[0].(*Series); ok {
			return aggExtreme(s, dir)
		}
		list, ok := items(a.pos[0])
		if !ok {
			return nil, errorf("TypeError: '%s' object is not iterable", a.pos[0].TypeName())
		}
		candidates = list
	default:
		candidates = a.pos
	}
	if len(candidates) == 0 {
		return nil, errorf("ValueError: %s() arg is an empty sequence", a.fn)
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		op := ">"
		if dir < 0 {
			op = "<"
		}
		better, err := compare(op, c, best)
		if err != nil {
			return nil, err
		}
		if better.(Bool) {
			best = c
		}
	}
	return best, nil
}

func builtinSum(a args) (Value, error) {
	if err := a.check(2, "start"); err != nil {
		return nil, err
	}
	v, ok := a.get(0, "iterable")
	if !ok {
		return nil, errorf("TypeError: sum() takes at least 1 positional argument (0 given)")
	}
	if s, ok := v.(*Series); ok {
		return aggSum(s)
	}
	list, ok := items(v)
	if !ok {
		return nil, errorf("TypeError: '%s' object is not iterable", v.TypeName())
	}
	var total Value = Int(0)
	if start, ok := a.get(1, "start"); ok {
		total = start
	}
	for _, item := range list {
		next, err := scalarBinary("+", total, item)
		if err != nil {
			return nil, err
		}
		total = next
	}
	return total, nil
}

func builtinConvert(a args, fn func(Value) (Value, error)) (Value, error) {
	if len(a.pos) == 0 && len(a.kw) == 0 {
		switch a.fn {
		case "int":
			return Int(0), nil
		case "float":
			return Float(0), nil
		}
		return Str(""), nil
	}
	v, err := one(a)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(*Series); ok && a.fn != "str" {
		if s.Len() != 1 {
			return nil, errorf("TypeError: cannot convert the series to <class '%s'>", a.fn)
		}
		v = s.Values[0]
	}
	return fn(v)
}

func toInt(v Value) (Value, error) {
	switch x := v.(type) {
	case Int:
		return x, nil
	case Bool:
		if x {
			return Int(1), nil
		}
		return Int(0), nil
	case Float:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errorf("ValueError: cannot convert float %s to integer", pyFloat(f))
		}
		return Int(int64(math.Trunc(f))), nil
	case Str:
		i, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
		if err != nil {
			return nil, errorf("ValueError: invalid literal for int() with base 10: %s", repr(x))
		}
		return Int(i), nil
	}
	return nil, errorf("TypeError: int() argument must be a string or a real number, not '%s'", v.TypeName())
}

func toFloat(v Value) (Value, error) {
	switch x := v.(type) {
	case Int, Bool, Float:
		f, _ := number(x)
		return Float(f), nil
	case Str:
		s := strings.ToLower(strings.TrimSpace(string(x)))
		switch s {
		case "nan":
			return nan(), nil
		case "inf", "infinity":
			return Float(math.Inf(1)), nil
		case "-inf", "-infinity":
			return Float(math.Inf(-1)), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errorf("ValueError: could not convert string to float: %s", repr(x))
		}
		return Float(f), nil
	}
	return nil, errorf("TypeError: float() argument must be a string or a real number, not '%s'", v.TypeName())
}

func toStr(v Value) (Value, error) {
	return Str(Format(v)), nil
}

// pd namespace
func moduleAttr(m *Module, name string) (Value, error) {
	switch name {
	case "isna", "isnull", "notna", "notnull":
		want := name == "isna" || name == "isnull"
		return &Builtin{Name: m.Name + "." + name, fn: func(a args) (Value, error) {
			v, err := one(a)
			if err != nil {
				return nil, err
			}
			if s, ok := v.(*Series); ok {
				return s.boolMap(func(x Value) bool { return isMissing(x) == want }), nil
			}
			return Bool(isMissing(v) == want), nil
		}}, nil
	}
	return nil, errorf("AttributeError: module '%s' has no attribute '%s'", m.Name, name)
}
