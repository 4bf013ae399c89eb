// internal/query/value.go
package query

import (
	"fmt"
	"math"
	"strconv"
)

// Error is an evaluation or syntax failure with a Python-style message.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func errorf(format string, args ...interface{}) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

func keyError(key Value) error {
	return errorf("KeyError: %s", repr(key))
}

func attrError(v Value, name string) error {
	return errorf("'%s' object has no attribute '%s'", v.TypeName(), name)
}

// Value is anything an expression can evaluate to.
type Value interface {
	TypeName() string
}

type (
	Int   int64
	Float float64
	Str   string
	Bool  bool

	NoneType struct{}

	// Tuple prints like a Python tuple, e.g. df.shape.
	Tuple []Value
)

var None = NoneType{}

func (Int) TypeName() string      { return "int" }
func (Float) TypeName() string    { return "float" }
func (Str) TypeName() string      { return "str" }
func (Bool) TypeName() string     { return "bool" }
func (NoneType) TypeName() string { return "NoneType" }
func (Tuple) TypeName() string    { return "tuple" }

type listKind int

const (
	pyList listKind = iota
	ndArray
	indexList
)

// List is a Python list, a NumPy array or a pandas Index depending on Kind.
type List struct {
	Items []Value
	Kind  listKind
	DType string
}

func (l *List) TypeName() string {
	switch l.Kind {
	case ndArray:
		return "ndarray"
	case indexList:
		return "Index"
	}
	return "list"
}

// Method is an attribute bound to its receiver, waiting to be called.
type Method struct {
	Owner string
	Name  string
	fn    func(a args) (Value, error)
}

func (m *Method) TypeName() string { return "method" }

// Builtin is one of the whitelisted global functions.
type Builtin struct {
	Name string
	fn   func(a args) (Value, error)
}

func (b *Builtin) TypeName() string { return "builtin_function_or_method" }

// Module stands in for the pd namespace.
type Module struct {
	Name string
}

func (m *Module) TypeName() string { return "module" }

func isMissing(v Value) bool {
	switch x := v.(type) {
	case NoneType:
		return true
	case Float:
		return math.IsNaN(float64(x))
	}
	return false
}

func nan() Float { return Float(math.NaN()) }

// number extracts a numeric value; bools count as 0/1.
func number(v Value) (float64, bool) {
	switch x := v.(type) {
	case Int:
		return float64(x), true
	case Float:
		return float64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func isNumeric(v Value) bool {
	_, ok := number(v)
	return ok
}

func truthy(v Value) (bool, error) {
	switch x := v.(type) {
	case Bool:
		return bool(x), nil
	case Int:
		return x != 0, nil
	case Float:
		return x != 0, nil
	case Str:
		return x != "", nil
	case NoneType:
		return false, nil
	case Tuple:
		return len(x) > 0, nil
	case *List:
		if x.Kind == pyList {
			return len(x.Items) > 0, nil
		}
		return false, errorf("The truth value of an array with more than one element is ambiguous. Use a.any() or a.all()")
	case *Series:
		return false, errorf("The truth value of a Series is ambiguous. Use a.empty, a.bool(), a.item(), a.any() or a.all().")
	case *Frame:
		return false, errorf("The truth value of a DataFrame is ambiguous. Use a.empty, a.bool(), a.item(), a.any() or a.all().")
	}
	return true, nil
}

// hashKey identifies equal scalars; 1, 1.0 and True share a key like in Python.
func hashKey(v Value) string {
	switch x := v.(type) {
	case Int, Float, Bool:
		f, _ := number(x)
		if math.IsNaN(f) {
			return "nan"
		}
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	case Str:
		return "s:" + string(x)
	case NoneType:
		return "nan"
	case Tuple:
		k := "t:"
		for _, e := range x {
			k += hashKey(e) + "\x00"
		}
		return k
	}
	return fmt.Sprintf("%T:%p", v, v)
}

// compareScalars orders numbers numerically and strings lexically. Mixed
// kinds order numbers first so sorts stay total.
func compareScalars(a, b Value) int {
	fa, aNum := number(a)
	fb, bNum := number(b)
	switch {
	case aNum && bNum:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}
	sa, aStr := a.(Str)
	sb, bStr := b.(Str)
	if aStr && bStr {
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	}
	ta, aTup := a.(Tuple)
	tb, bTup := b.(Tuple)
	if aTup && bTup {
		for i := 0; i < len(ta) && i < len(tb); i++ {
			if c := compareScalars(ta[i], tb[i]); c != 0 {
				return c
			}
		}
		return len(ta) - len(tb)
	}
	switch {
	case aStr:
		return -1
	case bStr:
		return 1
	}
	return 0
}

func scalarEqual(a, b Value) bool {
	if isMissing(a) || isMissing(b) {
		_, an := a.(NoneType)
		_, bn := b.(NoneType)
		return an && bn
	}
	return hashKey(a) == hashKey(b)
}

// inferDType picks the pandas dtype for a column of scalars.
func inferDType(values []Value) string {
	if len(values) == 0 {
		return "object"
	}
	allBool, allInt, allNum, anyMissing := true, true, true, false
	for _, v := range values {
		switch v.(type) {
		case Bool:
			allInt = false
		case Int:
			allBool = false
		case Float:
			allBool = false
			allInt = false
			if isMissing(v) {
				anyMissing = true
			}
		case NoneType:
			anyMissing = true
			allBool, allInt, allNum = false, false, false
		default:
			allBool, allInt, allNum = false, false, false
		}
	}
	switch {
	case allBool:
		return "bool"
	case allInt:
		return "int64"
	case allNum && !hasBool(values):
		return "float64"
	case anyMissing && onlyMissingOrNumber(values):
		return "float64"
	}
	return "object"
}

func hasBool(values []Value) bool {
	for _, v := range values {
		if _, ok := v.(Bool); ok {
			return true
		}
	}
	return false
}

func onlyMissingOrNumber(values []Value) bool {
	for _, v := range values {
		if isMissing(v) {
			continue
		}
		switch v.(type) {
		case Int, Float:
		default:
			return false
		}
	}
	return true
}

// normalize converts values to the representation their dtype implies.
func normalize(values []Value, dtype string) []Value {
	if dtype != "float64" {
		return values
	}
	out := make([]Value, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case Int:
			out[i] = Float(x)
		case NoneType:
			out[i] = nan()
		default:
			out[i] = v
		}
	}
	return out
}
