// internal/query/groupby.go
package query

import "sort"

// GroupBy is the result of df.groupby(keys), optionally narrowed to columns.
type GroupBy struct {
	frame     *Frame
	keys      []string
	selection []string
	single    bool
	labels    []Value
	groups    [][]int
}

func (g *GroupBy) TypeName() string {
	if g.single {
		return "SeriesGroupBy"
	}
	return "DataFrameGroupBy"
}

// newGroupBy partitions rows by key values, sorted by key. Rows with a
// missing key are dropped.
func newGroupBy(f *Frame, keys []string) *GroupBy {
	g := &GroupBy{frame: f, keys: keys}
	cols := make([]*Series, len(keys))
	for i, k := range keys {
		cols[i], _ = f.column(k)
	}
	positions := make(map[string]int)
	for row := 0; row < f.Len(); row++ {
		var label Value
		missing := false
		if len(cols) == 1 {
			label = cols[0].Values[row]
			missing = isMissing(label)
		} else {
			t := make(Tuple, len(cols))
			for i, c := range cols {
				t[i] = c.Values[row]
				missing = missing || isMissing(t[i])
			}
			label = t
		}
		if missing {
			continue
		}
		k := hashKey(label)
		i, ok := positions[k]
		if !ok {
			i = len(g.labels)
			positions[k] = i
			g.labels = append(g.labels, label)
			g.groups = append(g.groups, nil)
		}
		g.groups[i] = append(g.groups[i], row)
	}

	order := make([]int, len(g.labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return compareScalars(g.labels[order[a]], g.labels[order[b]]) < 0
	})
	labels := make([]Value, len(order))
	groups := make([][]int, len(order))
	for i, o := range order {
		labels[i] = g.labels[o]
		groups[i] = g.groups[o]
	}
	g.labels, g.groups = labels, groups
	return g
}

func (g *GroupBy) narrow(selection []string, single bool) *GroupBy {
	out := *g
	out.selection = selection
	out.single = single
	return &out
}

// index handles gb['col'] and gb[['a', 'b']].
func (g *GroupBy) index(key Value) (Value, error) {
	switch k := key.(type) {
	case Str:
		if _, ok := g.frame.column(string(k)); !ok {
			return nil, errorf("KeyError: 'Column not found: %s'", string(k))
		}
		return g.narrow([]string{string(k)}, true), nil
	case *List:
		names, err := listNames(k.Items)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if _, ok := g.frame.column(n); !ok {
				return nil, errorf("KeyError: 'Columns not found: %s'", n)
			}
		}
		return g.narrow(names, false), nil
	}
	return nil, keyError(key)
}

// valueColumns are the selected columns, or every non-key column.
func (g *GroupBy) valueColumns() []string {
	if g.selection != nil {
		return g.selection
	}
	var out []string
	for _, n := range g.frame.Names {
		isKey := false
		for _, k := range g.keys {
			if n == k {
				isKey = true
				break
			}
		}
		if !isKey {
			out = append(out, n)
		}
	}
	return out
}

func groupByAttr(g *GroupBy, name string) (Value, error) {
	switch name {
	case "size", "count", "sum", "mean", "median", "min", "max", "std", "var", "nunique", "first":
		return &Method{Owner: g.TypeName(), Name: name, fn: func(a args) (Value, error) {
			if err := a.check(0, "numeric_only", "dropna"); err != nil {
				return nil, err
			}
			return g.aggregate(name)
		}}, nil
	case "agg", "aggregate":
		return &Method{Owner: g.TypeName(), Name: name, fn: func(a args) (Value, error) {
			if err := a.check(1, "func"); err != nil {
				return nil, err
			}
			fn, err := a.strArg(0, "func", "")
			if err != nil {
				return nil, err
			}
			return g.aggregate(fn)
		}}, nil
	case "value_counts":
		return &Method{Owner: g.TypeName(), Name: name, fn: func(a args) (Value, error) {
			if err := a.check(0, "normalize"); err != nil {
				return nil, err
			}
			normalize, err := a.boolArg(-1, "normalize", false)
			if err != nil {
				return nil, err
			}
			return g.valueCounts(normalize)
		}}, nil
	case "ngroups":
		return Int(len(g.labels)), nil
	}
	if _, ok := g.frame.column(name); ok && g.selection == nil {
		return g.narrow([]string{name}, true), nil
	}
	return nil, attrError(g, name)
}

func (g *GroupBy) indexNames() []string {
	return append([]string(nil), g.keys...)
}

func (g *GroupBy) aggregate(name string) (Value, error) {
	if name == "size" {
		values := make([]Value, len(g.groups))
		for i, rows := range g.groups {
			values[i] = Int(len(rows))
		}
		out := newSeries("size", false, g.labels, values)
		out.IndexNames = g.indexNames()
		return out, nil
	}
	if _, ok := aggregations[name]; !ok {
		return nil, errorf("AttributeError: '%s' is not a valid function for aggregation", name)
	}

	numericOnly := name == "mean" || name == "median" || name == "std" || name == "var" || name == "sum"
	result := &Frame{Index: g.labels, IndexNames: g.indexNames()}
	for _, col := range g.valueColumns() {
		c, _ := g.frame.column(col)
		if numericOnly && !c.isNumeric() {
			if g.single {
				return nil, errorf("TypeError: agg function failed [how->%s,dtype->%s]", name, c.DType)
			}
			continue
		}
		values := make([]Value, len(g.groups))
		for i, rows := range g.groups {
			v, err := aggregate(name, c.take(rows))
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		s := newSeries(col, true, g.labels, values)
		s.IndexNames = g.indexNames()
		if g.single {
			return s, nil
		}
		result.Names = append(result.Names, col)
		result.Cols = append(result.Cols, s)
	}
	return result, nil
}

// valueCounts counts values of the selected column within each group.
func (g *GroupBy) valueCounts(normalize bool) (Value, error) {
	if !g.single {
		return nil, errorf("AttributeError: 'DataFrameGroupBy' object has no attribute 'value_counts'")
	}
	c, _ := g.frame.column(g.selection[0])
	var index, values []Value
	for i, rows := range g.groups {
		counts := c.take(rows).valueCounts(normalize, false, true)
		for j, v := range counts.Index {
			label := Tuple{}
			if t, ok := g.labels[i].(Tuple); ok {
				label = append(label, t...)
			} else {
				label = append(label, g.labels[i])
			}
			index = append(index, append(label, v))
			values = append(values, counts.Values[j])
		}
	}
	name := "count"
	if normalize {
		name = "proportion"
	}
	out := newSeries(name, true, index, values)
	out.IndexNames = append(g.indexNames(), c.Name)
	return out, nil
}
