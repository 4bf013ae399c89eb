// internal/query/series.go
package query

import (
	"math"
	"sort"
)

// Series is a labelled one-dimensional column of scalars.
type Series struct {
	Name       string
	HasName    bool
	Index      []Value
	IndexNames []string
	Values     []Value
	DType      string
}

func (s *Series) TypeName() string { return "Series" }

func newSeries(name string, hasName bool, index []Value, values []Value) *Series {
	dtype := inferDType(values)
	return &Series{
		Name:    name,
		HasName: hasName,
		Index:   index,
		Values:  normalize(values, dtype),
		DType:   dtype,
	}
}

func rangeIndex(n int) []Value {
	idx := make([]Value, n)
	for i := range idx {
		idx[i] = Int(i)
	}
	return idx
}

func (s *Series) Len() int { return len(s.Values) }

// derive builds a series that keeps this one's name and index labels.
func (s *Series) derive(values []Value) *Series {
	out := newSeries(s.Name, s.HasName, s.Index, values)
	out.IndexNames = s.IndexNames
	return out
}

// take selects rows by position, keeping their labels.
func (s *Series) take(positions []int) *Series {
	index := make([]Value, len(positions))
	values := make([]Value, len(positions))
	for i, p := range positions {
		index[i] = s.Index[p]
		values[i] = s.Values[p]
	}
	out := &Series{Name: s.Name, HasName: s.HasName, Index: index, IndexNames: s.IndexNames, Values: values, DType: s.DType}
	return out
}

func (s *Series) labelPositions() map[string][]int {
	m := make(map[string][]int, len(s.Index))
	for i, l := range s.Index {
		k := hashKey(l)
		m[k] = append(m[k], i)
	}
	return m
}

// lookup finds the value stored under label.
func (s *Series) lookup(label Value) (Value, bool) {
	k := hashKey(label)
	for i, l := range s.Index {
		if hashKey(l) == k {
			return s.Values[i], true
		}
	}
	return nil, false
}

// present returns the positions of non-missing values.
func (s *Series) present() []int {
	out := make([]int, 0, len(s.Values))
	for i, v := range s.Values {
		if !isMissing(v) {
			out = append(out, i)
		}
	}
	return out
}

func (s *Series) numbers() ([]float64, error) {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if isMissing(v) {
			continue
		}
		f, ok := number(v)
		if !ok {
			return nil, errorf("TypeError: could not convert %s to numeric for dtype %s", repr(v), s.DType)
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Series) isNumeric() bool {
	return s.DType == "int64" || s.DType == "float64" || s.DType == "bool"
}

// sortedPositions orders positions by value; missing values go last.
func (s *Series) sortedPositions(ascending bool) []int {
	pos := make([]int, len(s.Values))
	for i := range pos {
		pos[i] = i
	}
	sort.SliceStable(pos, func(a, b int) bool {
		va, vb := s.Values[pos[a]], s.Values[pos[b]]
		ma, mb := isMissing(va), isMissing(vb)
		if ma || mb {
			return !ma && mb
		}
		c := compareScalars(va, vb)
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return pos
}

func (s *Series) headTail(n int, head bool) *Series {
	if n < 0 {
		n = len(s.Values) + n
		if n < 0 {
			n = 0
		}
	}
	if n > len(s.Values) {
		n = len(s.Values)
	}
	pos := make([]int, n)
	for i := range pos {
		if head {
			pos[i] = i
		} else {
			pos[i] = len(s.Values) - n + i
		}
	}
	return s.take(pos)
}

func (s *Series) mapValues(fn func(Value) (Value, error)) (*Series, error) {
	out := make([]Value, len(s.Values))
	for i, v := range s.Values {
		r, err := fn(v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return s.derive(out), nil
}

func (s *Series) boolMap(fn func(Value) bool) *Series {
	out := make([]Value, len(s.Values))
	for i, v := range s.Values {
		out[i] = Bool(fn(v))
	}
	return s.derive(out)
}

// valueCounts counts distinct non-missing values, most frequent first.
func (s *Series) valueCounts(normalize, ascending, dropna bool) *Series {
	type bucket struct {
		value Value
		count int
	}
	buckets := make(map[string]*bucket)
	var order []*bucket
	total := 0
	for _, v := range s.Values {
		if isMissing(v) && dropna {
			continue
		}
		k := hashKey(v)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{value: v}
			buckets[k] = b
			order = append(order, b)
		}
		b.count++
		total++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if ascending {
			return order[i].count < order[j].count
		}
		return order[i].count > order[j].count
	})

	index := make([]Value, len(order))
	values := make([]Value, len(order))
	for i, b := range order {
		index[i] = b.value
		if normalize {
			values[i] = Float(float64(b.count) / float64(total))
		} else {
			values[i] = Int(b.count)
		}
	}
	name := "count"
	if normalize {
		name = "proportion"
	}
	out := newSeries(name, true, index, values)
	if s.HasName {
		out.IndexNames = []string{s.Name}
	}
	return out
}

func (s *Series) unique() []Value {
	seen := make(map[string]bool)
	var out []Value
	for _, v := range s.Values {
		k := hashKey(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// quantile uses linear interpolation between the closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func variance(xs []float64, ddof int) float64 {
	n := len(xs)
	if n-ddof <= 0 {
		return math.NaN()
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return ss / float64(n-ddof)
}

// alignTo maps other's values onto s's labels. Identical labels align by
// position; otherwise each label is looked up, missing labels giving NaN.
func (s *Series) alignTo(other *Series) ([]Value, error) {
	if len(s.Index) == len(other.Index) {
		same := true
		for i := range s.Index {
			if hashKey(s.Index[i]) != hashKey(other.Index[i]) {
				same = false
				break
			}
		}
		if same {
			return other.Values, nil
		}
	}
	positions := other.labelPositions()
	out := make([]Value, len(s.Index))
	for i, l := range s.Index {
		p, ok := positions[hashKey(l)]
		switch {
		case !ok:
			out[i] = nan()
		case len(p) > 1:
			return nil, errorf("ValueError: cannot reindex on an axis with duplicate labels")
		default:
			out[i] = other.Values[p[0]]
		}
	}
	return out, nil
}
