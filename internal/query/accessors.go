// internal/query/accessors.go
package query

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// StringMethods is the .str accessor of a text series.
type StringMethods struct {
	s *Series
}

func (m *StringMethods) TypeName() string { return "StringMethods" }

func stringAttr(m *StringMethods, name string) (Value, error) {
	var fn func(a args) (Value, error)
	switch name {
	case "lower":
		fn = m.transform(strings.ToLower)
	case "upper":
		fn = m.transform(strings.ToUpper)
	case "strip":
		fn = m.transform(strings.TrimSpace)
	case "title":
		fn = m.transform(titleCase)
	case "len":
		fn = func(a args) (Value, error) {
			if err := a.check(0); err != nil {
				return nil, err
			}
			return m.each(func(s string) Value { return Int(utf8.RuneCountInString(s)) }, nan())
		}
	case "startswith":
		fn = m.predicate(func(s, pat string) bool { return strings.HasPrefix(s, pat) })
	case "endswith":
		fn = m.predicate(func(s, pat string) bool { return strings.HasSuffix(s, pat) })
	case "contains":
		fn = m.contains
	default:
		return nil, attrError(m, name)
	}
	return &Method{Owner: "StringMethods", Name: name, fn: fn}, nil
}

// each maps every text value; missing or non-text values give missing.
func (m *StringMethods) each(fn func(string) Value, missing Value) (Value, error) {
	out := make([]Value, m.s.Len())
	for i, v := range m.s.Values {
		if s, ok := v.(Str); ok {
			out[i] = fn(string(s))
		} else {
			out[i] = missing
		}
	}
	return m.s.derive(out), nil
}

func (m *StringMethods) transform(fn func(string) string) func(a args) (Value, error) {
	return func(a args) (Value, error) {
		if err := a.check(0); err != nil {
			return nil, err
		}
		return m.each(func(s string) Value { return Str(fn(s)) }, None)
	}
}

func (m *StringMethods) predicate(fn func(s, pat string) bool) func(a args) (Value, error) {
	return func(a args) (Value, error) {
		if err := a.check(1, "pat", "na"); err != nil {
			return nil, err
		}
		pat, err := a.strArg(0, "pat", "")
		if err != nil {
			return nil, err
		}
		return m.each(func(s string) Value { return Bool(fn(s, pat)) }, Bool(false))
	}
}

func (m *StringMethods) contains(a args) (Value, error) {
	if err := a.check(1, "pat", "case", "regex", "na"); err != nil {
		return nil, err
	}
	pat, err := a.strArg(0, "pat", "")
	if err != nil {
		return nil, err
	}
	caseSensitive, err := a.boolArg(-1, "case", true)
	if err != nil {
		return nil, err
	}
	useRegex, err := a.boolArg(-1, "regex", true)
	if err != nil {
		return nil, err
	}
	if !useRegex {
		pat = regexp.QuoteMeta(pat)
	}
	if !caseSensitive {
		pat = "(?i)" + pat
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, errorf("error: bad pattern %s: %v", repr(Str(pat)), err)
	}
	return m.each(func(s string) Value { return Bool(re.MatchString(s)) }, Bool(false))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Indexer implements .iloc (by position) and .loc (by label).
type Indexer struct {
	target  Value
	byLabel bool
}

func (ix *Indexer) TypeName() string {
	if ix.byLabel {
		return "_LocIndexer"
	}
	return "_iLocIndexer"
}

func (ix *Indexer) index(key Value) (Value, error) {
	switch t := ix.target.(type) {
	case *Series:
		if ix.byLabel {
			if mask, ok := key.(*Series); ok {
				return filterSeries(t, mask)
			}
			if v, ok := t.lookup(key); ok {
				return v, nil
			}
			return nil, keyError(key)
		}
		if sl, ok := key.(sliceValue); ok {
			return t.take(sl.positions(t.Len())), nil
		}
		i, err := position(key, t.Len())
		if err != nil {
			return nil, err
		}
		return t.Values[i], nil

	case *Frame:
		if ix.byLabel {
			if mask, ok := key.(*Series); ok {
				return t.filter(mask)
			}
			for i, l := range t.Index {
				if scalarEqual(l, key) {
					return t.row(i), nil
				}
			}
			return nil, keyError(key)
		}
		if sl, ok := key.(sliceValue); ok {
			return t.take(sl.positions(t.Len())), nil
		}
		i, err := position(key, t.Len())
		if err != nil {
			return nil, err
		}
		return t.row(i), nil
	}
	return nil, errorf("TypeError: '%s' object is not subscriptable", ix.target.TypeName())
}

func position(key Value, n int) (int, error) {
	k, ok := key.(Int)
	if !ok {
		return 0, errorf("TypeError: Cannot index by location index with a non-integer key")
	}
	i := int(k)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, errorf("IndexError: single positional indexer is out-of-bounds")
	}
	return i, nil
}

// sliceValue is an evaluated lo:hi subscript.
type sliceValue struct {
	lo, hi       int
	hasLo, hasHi bool
}

func (sliceValue) TypeName() string { return "slice" }

func (s sliceValue) positions(n int) []int {
	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		if i < 0 {
			return 0
		}
		if i > n {
			return n
		}
		return i
	}
	lo, hi := 0, n
	if s.hasLo {
		lo = clamp(s.lo)
	}
	if s.hasHi {
		hi = clamp(s.hi)
	}
	var out []int
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

func filterSeries(s, mask *Series) (Value, error) {
	if mask.DType != "bool" {
		return nil, errorf("KeyError: boolean index required, got %s series", mask.DType)
	}
	aligned, err := (&Series{Index: s.Index, Values: s.Index}).alignTo(mask)
	if err != nil {
		return nil, err
	}
	var keep []int
	for i, v := range aligned {
		b, ok := v.(Bool)
		if !ok {
			return nil, errorf("IndexingError: Unalignable boolean Series provided as indexer")
		}
		if b {
			keep = append(keep, i)
		}
	}
	return s.take(keep), nil
}
