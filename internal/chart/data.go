// internal/chart/data.go
package chart

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"titanic-agent/internal/dataset"
)

var ErrNoData = errors.New("no data to plot")

// key is a category label with its numeric value when the column is numeric.
type key struct {
	label   string
	num     float64
	numeric bool
}

func less(a, b key) bool {
	if a.numeric && b.numeric {
		return a.num < b.num
	}
	return a.label < b.label
}

func cellKey(c *dataset.Column, i int) key {
	if c.Kind == dataset.KindNumeric {
		return key{label: dataset.FormatNumber(c.Numbers[i], c.Integral()), num: c.Numbers[i], numeric: true}
	}
	return key{label: c.Texts[i]}
}

// groups holds per-hue, per-category samples. When no value column is given,
// each row contributes a 1 so that len(bucket) is the row count.
type groups struct {
	cats    []key
	hues    []key
	buckets [][][]float64 // [hue][category]
}

func (g *groups) labels() []string {
	out := make([]string, len(g.cats))
	for i, k := range g.cats {
		out[i] = k.label
	}
	return out
}

// aggregate reduces each bucket. Empty buckets become 0.
func (g *groups) aggregate(agg Agg) [][]float64 {
	out := make([][]float64, len(g.hues))
	for h := range g.hues {
		out[h] = make([]float64, len(g.cats))
		for c := range g.cats {
			out[h][c] = reduce(agg, g.buckets[h][c])
		}
	}
	return out
}

// order sorts categories in place; values must be the aggregate of g.
func (g *groups) order(mode string, values [][]float64) {
	idx := make([]int, len(g.cats))
	for i := range idx {
		idx[i] = i
	}
	total := func(c int) float64 {
		var t float64
		for h := range values {
			t += values[h][c]
		}
		return t
	}
	switch mode {
	case SortLabel:
		sort.SliceStable(idx, func(a, b int) bool { return less(g.cats[idx[a]], g.cats[idx[b]]) })
	case SortValue:
		sort.SliceStable(idx, func(a, b int) bool { return total(idx[a]) < total(idx[b]) })
	case SortValueDesc:
		sort.SliceStable(idx, func(a, b int) bool { return total(idx[a]) > total(idx[b]) })
	default:
		return
	}

	cats := make([]key, len(idx))
	for i, j := range idx {
		cats[i] = g.cats[j]
	}
	g.cats = cats
	for h := range g.buckets {
		buckets := make([][]float64, len(idx))
		vals := make([]float64, len(idx))
		for i, j := range idx {
			buckets[i] = g.buckets[h][j]
			vals[i] = values[h][j]
		}
		g.buckets[h] = buckets
		values[h] = vals
	}
}

func (r *Renderer) column(name string) (*dataset.Column, error) {
	c, ok := r.table.Column(name)
	if !ok {
		return nil, fmt.Errorf("unknown column '%s'", name)
	}
	return c, nil
}

func (r *Renderer) numericColumn(name string) (*dataset.Column, error) {
	c, err := r.column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("column '%s' is not numeric", name)
	}
	return c, nil
}

// rows returns the row positions selected by the spec's filter.
func (r *Renderer) rows(spec Spec) ([]int, error) {
	n := r.table.Len()
	if spec.Filter == "" {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	mask, err := r.engine.Mask(spec.Filter)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	var out []int
	for i, keep := range mask {
		if keep {
			out = append(out, i)
		}
	}
	return out, nil
}

// group buckets the value column (spec.Y) by spec.X and spec.Hue.
func (r *Renderer) group(spec Spec, rows []int) (*groups, error) {
	xcol, err := r.column(spec.X)
	if err != nil {
		return nil, err
	}
	var ycol, huecol *dataset.Column
	if spec.Y != "" {
		if ycol, err = r.numericColumn(spec.Y); err != nil {
			return nil, err
		}
	}
	if spec.Hue != "" {
		if huecol, err = r.column(spec.Hue); err != nil {
			return nil, err
		}
	}

	g := &groups{}
	catIndex := map[string]int{}
	hueIndex := map[string]int{}
	if huecol == nil {
		g.hues = []key{{}}
		g.buckets = [][][]float64{nil}
		hueIndex[""] = 0
	}

	for _, i := range rows {
		if xcol.IsMissing(i) || (huecol != nil && huecol.IsMissing(i)) || (ycol != nil && ycol.IsMissing(i)) {
			continue
		}
		v := 1.0
		if ycol != nil {
			v = ycol.Numbers[i]
		}

		ck := cellKey(xcol, i)
		c, ok := catIndex[ck.label]
		if !ok {
			c = len(g.cats)
			catIndex[ck.label] = c
			g.cats = append(g.cats, ck)
			for h := range g.buckets {
				g.buckets[h] = append(g.buckets[h], nil)
			}
		}

		h := 0
		if huecol != nil {
			hk := cellKey(huecol, i)
			if h, ok = hueIndex[hk.label]; !ok {
				h = len(g.hues)
				hueIndex[hk.label] = h
				g.hues = append(g.hues, hk)
				g.buckets = append(g.buckets, make([][]float64, len(g.cats)))
			}
		}
		g.buckets[h][c] = append(g.buckets[h][c], v)
	}

	if len(g.cats) == 0 {
		return nil, ErrNoData
	}
	if huecol != nil {
		sortHues(g)
	}
	return g, nil
}

func sortHues(g *groups) {
	idx := make([]int, len(g.hues))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return less(g.hues[idx[a]], g.hues[idx[b]]) })
	hues := make([]key, len(idx))
	buckets := make([][][]float64, len(idx))
	for i, j := range idx {
		hues[i] = g.hues[j]
		buckets[i] = g.buckets[j]
	}
	g.hues, g.buckets = hues, buckets
}

// values returns the present numbers of a column over rows.
func (r *Renderer) values(name string, rows []int) ([]float64, error) {
	c, err := r.numericColumn(name)
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, i := range rows {
		if !c.IsMissing(i) {
			out = append(out, c.Numbers[i])
		}
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

func reduce(agg Agg, xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	switch agg {
	case AggSum:
		return sum(xs)
	case AggMean:
		return sum(xs) / float64(len(xs))
	case AggMedian:
		s := append([]float64(nil), xs...)
		sort.Float64s(s)
		m := len(s) / 2
		if len(s)%2 == 1 {
			return s[m]
		}
		return (s[m-1] + s[m]) / 2
	case AggMin:
		m := math.Inf(1)
		for _, x := range xs {
			m = math.Min(m, x)
		}
		return m
	case AggMax:
		m := math.Inf(-1)
		for _, x := range xs {
			m = math.Max(m, x)
		}
		return m
	default:
		return float64(len(xs))
	}
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}
