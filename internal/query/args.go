// internal/query/args.go
package query

import "math"

// args carries the evaluated arguments of one call.
type args struct {
	fn  string
	pos []Value
	kw  map[string]Value
}

// get returns the argument at position i or, failing that, keyword name.
func (a args) get(i int, name string) (Value, bool) {
	if i >= 0 && i < len(a.pos) {
		return a.pos[i], true
	}
	if v, ok := a.kw[name]; ok {
		return v, true
	}
	return nil, false
}

// check rejects extra positional arguments and unknown keywords.
func (a args) check(maxPos int, keywords ...string) error {
	if len(a.pos) > maxPos {
		return errorf("TypeError: %s() takes at most %d positional arguments but %d were given", a.fn, maxPos, len(a.pos))
	}
	for k := range a.kw {
		known := false
		for _, want := range keywords {
			if k == want {
				known = true
				break
			}
		}
		if !known {
			return errorf("TypeError: %s() got an unexpected keyword argument '%s'", a.fn, k)
		}
	}
	return nil
}

func (a args) intArg(i int, name string, def int) (int, error) {
	v, ok := a.get(i, name)
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case Int:
		return int(x), nil
	case Bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case Float:
		if float64(x) == math.Trunc(float64(x)) {
			return int(x), nil
		}
	}
	return 0, errorf("TypeError: %s() argument '%s' must be an integer, not %s", a.fn, name, v.TypeName())
}

func (a args) boolArg(i int, name string, def bool) (bool, error) {
	v, ok := a.get(i, name)
	if !ok {
		return def, nil
	}
	if b, ok := v.(Bool); ok {
		return bool(b), nil
	}
	return false, errorf("TypeError: %s() argument '%s' must be a bool, not %s", a.fn, name, v.TypeName())
}

func (a args) strArg(i int, name string, def string) (string, error) {
	v, ok := a.get(i, name)
	if !ok {
		return def, nil
	}
	if s, ok := v.(Str); ok {
		return string(s), nil
	}
	return "", errorf("TypeError: %s() argument '%s' must be a string, not %s", a.fn, name, v.TypeName())
}

// strList accepts a single name or a list of names.
func (a args) strList(i int, name string) ([]string, bool, error) {
	v, ok := a.get(i, name)
	if !ok {
		return nil, false, nil
	}
	names, err := asNames(v)
	return names, true, err
}

func asNames(v Value) ([]string, error) {
	switch x := v.(type) {
	case Str:
		return []string{string(x)}, nil
	case *List:
		return listNames(x.Items)
	case Tuple:
		return listNames(x)
	}
	return nil, errorf("TypeError: expected a column name or list of names, got %s", v.TypeName())
}

func listNames(items []Value) ([]string, error) {
	out := make([]string, len(items))
	for i, e := range items {
		s, ok := e.(Str)
		if !ok {
			return nil, errorf("TypeError: column names must be strings, got %s", e.TypeName())
		}
		out[i] = string(s)
	}
	return out, nil
}

// items flattens list-like values for isin and builtins.
func items(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case *List:
		return x.Items, true
	case Tuple:
		return x, true
	case *Series:
		return x.Values, true
	}
	return nil, false
}
