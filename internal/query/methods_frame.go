// internal/query/methods_frame.go
package query

type frameMethod func(f *Frame, a args) (Value, error)

var frameMethods map[string]frameMethod

func init() {
	frameMethods = map[string]frameMethod{
		"head":        func(f *Frame, a args) (Value, error) { return frameHeadTail(f, a, true) },
		"tail":        func(f *Frame, a args) (Value, error) { return frameHeadTail(f, a, false) },
		"groupby":     frameGroupBy,
		"sort_values": frameSortValues,
		"isnull":      frameIsNull(true),
		"isna":        frameIsNull(true),
		"notnull":     frameIsNull(false),
		"notna":       frameIsNull(false),
		"describe":    frameDescribe,
		"dropna":      frameDropNA,
		"nlargest":    func(f *Frame, a args) (Value, error) { return frameNExtreme(f, a, false) },
		"nsmallest":   func(f *Frame, a args) (Value, error) { return frameNExtreme(f, a, true) },
	}
	for _, name := range []string{"sum", "mean", "median", "min", "max", "count", "nunique", "std", "var"} {
		name := name
		frameMethods[name] = func(f *Frame, a args) (Value, error) {
			if err := a.check(0, "numeric_only", "skipna"); err != nil {
				return nil, err
			}
			return frameReduce(f, name)
		}
	}
}

func frameAttr(f *Frame, name string) (Value, error) {
	switch name {
	case "shape":
		return Tuple{Int(f.Len()), Int(len(f.Names))}, nil
	case "columns":
		return &List{Items: strValues(f.Names), Kind: indexList, DType: "object"}, nil
	case "index":
		return &List{Items: f.Index, Kind: indexList, DType: inferDType(f.Index)}, nil
	case "size":
		return Int(f.Len() * len(f.Names)), nil
	case "empty":
		return Bool(f.Len() == 0 || len(f.Names) == 0), nil
	case "dtypes":
		values := make([]Value, len(f.Cols))
		for i, c := range f.Cols {
			values[i] = Str(c.DType)
		}
		out := newSeries("", false, strValues(f.Names), values)
		return out, nil
	case "iloc":
		return &Indexer{target: f}, nil
	case "loc":
		return &Indexer{target: f, byLabel: true}, nil
	}
	if m, ok := frameMethods[name]; ok {
		return &Method{Owner: "DataFrame", Name: name, fn: func(a args) (Value, error) { return m(f, a) }}, nil
	}
	if c, ok := f.column(name); ok {
		return c, nil
	}
	return nil, attrError(f, name)
}

// frameIndex handles df[...]: a column, a list of columns or a boolean mask.
func frameIndex(f *Frame, key Value) (Value, error) {
	switch k := key.(type) {
	case Str:
		c, ok := f.column(string(k))
		if !ok {
			return nil, keyError(k)
		}
		return c, nil
	case *List:
		names, err := listNames(k.Items)
		if err != nil {
			return nil, err
		}
		return f.selectColumns(names)
	case *Series:
		return f.filter(k)
	}
	return nil, keyError(key)
}

func frameHeadTail(f *Frame, a args, head bool) (Value, error) {
	if err := a.check(1, "n"); err != nil {
		return nil, err
	}
	n, err := a.intArg(0, "n", 5)
	if err != nil {
		return nil, err
	}
	return f.headTail(n, head), nil
}

func frameGroupBy(f *Frame, a args) (Value, error) {
	if err := a.check(1, "by", "as_index", "sort", "dropna", "observed"); err != nil {
		return nil, err
	}
	keys, ok, err := a.strList(0, "by")
	if err != nil {
		return nil, err
	}
	if !ok || len(keys) == 0 {
		return nil, errorf("TypeError: You have to supply one of 'by' and 'level'")
	}
	for _, k := range keys {
		if _, found := f.column(k); !found {
			return nil, keyError(Str(k))
		}
	}
	return newGroupBy(f, keys), nil
}

func frameSortValues(f *Frame, a args) (Value, error) {
	if err := a.check(1, "by", "ascending"); err != nil {
		return nil, err
	}
	by, ok, err := a.strList(0, "by")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorf("TypeError: sort_values() missing 1 required positional argument: 'by'")
	}
	ascending, err := a.boolArg(-1, "ascending", true)
	if err != nil {
		return nil, err
	}
	cols := make([]*Series, len(by))
	for i, name := range by {
		c, found := f.column(name)
		if !found {
			return nil, keyError(Str(name))
		}
		cols[i] = c
	}
	// a stable sort per key, last key first, gives lexicographic order
	pos := make([]int, f.Len())
	for i := range pos {
		pos[i] = i
	}
	for i := len(cols) - 1; i >= 0; i-- {
		reordered := cols[i].take(pos)
		order := reordered.sortedPositions(ascending)
		next := make([]int, len(pos))
		for j, p := range order {
			next[j] = pos[p]
		}
		pos = next
	}
	return f.take(pos), nil
}

func frameIsNull(missing bool) frameMethod {
	return func(f *Frame, a args) (Value, error) {
		if err := a.check(0); err != nil {
			return nil, err
		}
		return f.mapColumns(func(s *Series) *Series {
			return s.boolMap(func(v Value) bool { return isMissing(v) == missing })
		}), nil
	}
}

// frameReduce aggregates every column into a series indexed by column name.
// Statistics that need numbers skip text columns.
func frameReduce(f *Frame, name string) (Value, error) {
	numericOnly := name == "mean" || name == "median" || name == "std" || name == "var" || name == "sum"
	var index, values []Value
	for i, c := range f.Cols {
		if numericOnly && !c.isNumeric() {
			continue
		}
		v, err := aggregate(name, c)
		if err != nil {
			return nil, err
		}
		index = append(index, Str(f.Names[i]))
		values = append(values, v)
	}
	return newSeries("", false, index, values), nil
}

func frameDescribe(f *Frame, a args) (Value, error) {
	if err := a.check(0); err != nil {
		return nil, err
	}
	out := &Frame{}
	for i, c := range f.Cols {
		if !c.isNumeric() || c.DType == "bool" {
			continue
		}
		d, err := describeSeries(c)
		if err != nil {
			return nil, err
		}
		out.Index = d.Index
		out.Names = append(out.Names, f.Names[i])
		out.Cols = append(out.Cols, d)
	}
	if len(out.Cols) == 0 {
		return nil, errorf("ValueError: Cannot describe a DataFrame without numeric columns")
	}
	return out, nil
}

func frameDropNA(f *Frame, a args) (Value, error) {
	if err := a.check(0, "subset"); err != nil {
		return nil, err
	}
	cols := f.Cols
	if subset, ok, err := a.strList(-1, "subset"); err != nil {
		return nil, err
	} else if ok {
		sel, err := f.selectColumns(subset)
		if err != nil {
			return nil, err
		}
		cols = sel.Cols
	}
	var keep []int
	for i := 0; i < f.Len(); i++ {
		complete := true
		for _, c := range cols {
			if isMissing(c.Values[i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	return f.take(keep), nil
}

func frameNExtreme(f *Frame, a args, ascending bool) (Value, error) {
	if err := a.check(2, "n", "columns"); err != nil {
		return nil, err
	}
	n, err := a.intArg(0, "n", 5)
	if err != nil {
		return nil, err
	}
	column, err := a.strArg(1, "columns", "")
	if err != nil {
		return nil, err
	}
	c, ok := f.column(column)
	if !ok {
		return nil, keyError(Str(column))
	}
	var pos []int
	for _, p := range c.sortedPositions(ascending) {
		if !isMissing(c.Values[p]) {
			pos = append(pos, p)
		}
	}
	if n < len(pos) {
		pos = pos[:n]
	}
	return f.take(pos), nil
}
