// internal/query/frame.go
package query

import (
	"math"

	"titanic-agent/internal/dataset"
)

// Frame is a set of equally indexed columns.
type Frame struct {
	Names      []string
	Cols       []*Series
	Index      []Value
	IndexNames []string
}

func (f *Frame) TypeName() string { return "DataFrame" }

// FromTable converts the dataset into the frame bound to df.
func FromTable(t *dataset.Table) *Frame {
	index := rangeIndex(t.Len())
	f := &Frame{Index: index}
	for _, c := range t.Columns() {
		values := make([]Value, c.Len())
		for i := range values {
			switch {
			case c.Kind == dataset.KindText && c.Missing[i]:
				values[i] = None
			case c.Kind == dataset.KindText:
				values[i] = Str(c.Texts[i])
			case math.IsNaN(c.Numbers[i]):
				values[i] = nan()
			case c.Integral():
				values[i] = Int(int64(c.Numbers[i]))
			default:
				values[i] = Float(c.Numbers[i])
			}
		}
		dtype := "object"
		if c.Kind == dataset.KindNumeric {
			dtype = "float64"
			if c.Integral() {
				dtype = "int64"
			}
		}
		f.Names = append(f.Names, c.Name)
		f.Cols = append(f.Cols, &Series{Name: c.Name, HasName: true, Index: index, Values: values, DType: dtype})
	}
	return f
}

func (f *Frame) Len() int { return len(f.Index) }

func (f *Frame) column(name string) (*Series, bool) {
	for i, n := range f.Names {
		if n == name {
			return f.Cols[i], true
		}
	}
	return nil, false
}

// take selects rows by position.
func (f *Frame) take(positions []int) *Frame {
	out := &Frame{Names: f.Names, IndexNames: f.IndexNames, Index: make([]Value, len(positions))}
	for i, p := range positions {
		out.Index[i] = f.Index[p]
	}
	for _, c := range f.Cols {
		col := c.take(positions)
		col.Index = out.Index
		out.Cols = append(out.Cols, col)
	}
	return out
}

func (f *Frame) selectColumns(names []string) (*Frame, error) {
	out := &Frame{Index: f.Index, IndexNames: f.IndexNames}
	for _, n := range names {
		c, ok := f.column(n)
		if !ok {
			return nil, keyError(Str(n))
		}
		out.Names = append(out.Names, n)
		out.Cols = append(out.Cols, c)
	}
	return out, nil
}

// filter keeps rows whose mask label maps to True.
func (f *Frame) filter(mask *Series) (*Frame, error) {
	if mask.DType != "bool" {
		return nil, errorf("KeyError: boolean index required, got %s series", mask.DType)
	}
	frameIndex := &Series{Index: f.Index, Values: f.Index}
	aligned, err := frameIndex.alignTo(mask)
	if err != nil {
		return nil, err
	}
	var keep []int
	for i, v := range aligned {
		if b, ok := v.(Bool); ok && bool(b) {
			keep = append(keep, i)
		} else if !ok {
			return nil, errorf("IndexingError: Unalignable boolean Series provided as indexer")
		}
	}
	return f.take(keep), nil
}

func (f *Frame) headTail(n int, head bool) *Frame {
	if n < 0 {
		n = f.Len() + n
		if n < 0 {
			n = 0
		}
	}
	if n > f.Len() {
		n = f.Len()
	}
	pos := make([]int, n)
	for i := range pos {
		if head {
			pos[i] = i
		} else {
			pos[i] = f.Len() - n + i
		}
	}
	return f.take(pos)
}

func (f *Frame) mapColumns(fn func(*Series) *Series) *Frame {
	out := &Frame{Names: f.Names, Index: f.Index, IndexNames: f.IndexNames}
	for _, c := range f.Cols {
		out.Cols = append(out.Cols, fn(c))
	}
	return out
}

// row returns row i as an object series indexed by column name.
func (f *Frame) row(i int) *Series {
	index := make([]Value, len(f.Names))
	values := make([]Value, len(f.Names))
	for j, n := range f.Names {
		index[j] = Str(n)
		values[j] = f.Cols[j].Values[i]
	}
	s := newSeries(labelName(f.Index[i]), true, index, values)
	return s
}

func labelName(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return repr(v)
}
