// internal/query/methods_series.go
package query

import (
	"math"
	"sort"
)

type seriesMethod func(s *Series, a args) (Value, error)

var seriesMethods map[string]seriesMethod

func init() {
	seriesMethods = map[string]seriesMethod{
		"head":         func(s *Series, a args) (Value, error) { return seriesHeadTail(s, a, true) },
		"tail":         func(s *Series, a args) (Value, error) { return seriesHeadTail(s, a, false) },
		"value_counts": seriesValueCounts,
		"unique":       seriesUnique,
		"mode":         seriesMode,
		"round":        seriesRound,
		"abs":          seriesAbs,
		"isnull":       seriesIsNull(true),
		"isna":         seriesIsNull(true),
		"notnull":      seriesIsNull(false),
		"notna":        seriesIsNull(false),
		"isin":         seriesIsIn,
		"between":      seriesBetween,
		"idxmax":       func(s *Series, a args) (Value, error) { return seriesIdx(s, a, 1) },
		"idxmin":       func(s *Series, a args) (Value, error) { return seriesIdx(s, a, -1) },
		"sort_values":  seriesSortValues,
		"sort_index":   seriesSortIndex,
		"get":          seriesGet,
		"describe":     seriesDescribe,
		"astype":       seriesAsType,
		"tolist":       seriesToList,
		"to_list":      seriesToList,
		"dropna":       seriesDropNA,
		"fillna":       seriesFillNA,
		"quantile":     seriesQuantile,
		"nlargest":     func(s *Series, a args) (Value, error) { return seriesNExtreme(s, a, false) },
		"nsmallest":    func(s *Series, a args) (Value, error) { return seriesNExtreme(s, a, true) },
		"corr":         seriesCorr,
		"cumsum":       seriesCumSum,
		"item":         seriesItem,
	}
	for name := range aggregations {
		name := name
		seriesMethods[name] = func(s *Series, a args) (Value, error) {
			if err := a.check(0, "skipna", "numeric_only", "ddof"); err != nil {
				return nil, err
			}
			if name == "std" || name == "var" {
				ddof, err := a.intArg(-1, "ddof", 1)
				if err != nil {
					return nil, err
				}
				if ddof != 1 {
					xs, err := s.numbers()
					if err != nil {
						return nil, err
					}
					v := variance(xs, ddof)
					if name == "std" {
						v = math.Sqrt(v)
					}
					return Float(v), nil
				}
			}
			return aggregate(name, s)
		}
	}
}

func seriesAttr(s *Series, name string) (Value, error) {
	switch name {
	case "index":
		return &List{Items: s.Index, Kind: indexList, DType: inferDType(s.Index)}, nil
	case "values":
		return &List{Items: s.Values, Kind: ndArray, DType: s.DType}, nil
	case "size":
		return Int(s.Len()), nil
	case "shape":
		return Tuple{Int(s.Len())}, nil
	case "empty":
		return Bool(s.Len() == 0), nil
	case "name":
		if !s.HasName {
			return None, nil
		}
		return Str(s.Name), nil
	case "dtype":
		return Str(s.DType), nil
	case "str":
		return &StringMethods{s: s}, nil
	case "iloc":
		return &Indexer{target: s}, nil
	case "loc":
		return &Indexer{target: s, byLabel: true}, nil
	}
	if m, ok := seriesMethods[name]; ok {
		return &Method{Owner: "Series", Name: name, fn: func(a args) (Value, error) { return m(s, a) }}, nil
	}
	return nil, attrError(s, name)
}

func seriesHeadTail(s *Series, a args, head bool) (Value, error) {
	if err := a.check(1, "n"); err != nil {
		return nil, err
	}
	n, err := a.intArg(0, "n", 5)
	if err != nil {
		return nil, err
	}
	return s.headTail(n, head), nil
}

func seriesValueCounts(s *Series, a args) (Value, error) {
	if err := a.check(0, "normalize", "ascending", "dropna", "sort"); err != nil {
		return nil, err
	}
	normalize, err := a.boolArg(-1, "normalize", false)
	if err != nil {
		return nil, err
	}
	ascending, err := a.boolArg(-1, "ascending", false)
	if err != nil {
		return nil, err
	}
	dropna, err := a.boolArg(-1, "dropna", true)
	if err != nil {
		return nil, err
	}
	return s.valueCounts(normalize, ascending, dropna), nil
}

func seriesUnique(s *Series, a args) (Value, error) {
	if err := a.check(0); err != nil {
		return nil, err
	}
	u := s.unique()
	return &List{Items: u, Kind: ndArray, DType: s.DType}, nil
}

func seriesMode(s *Series, a args) (Value, error) {
	if err := a.check(0, "dropna"); err != nil {
		return nil, err
	}
	counts := s.valueCounts(false, false, true)
	var modes []Value
	for i, v := range counts.Values {
		if v.(Int) == counts.Values[0].(Int) {
			modes = append(modes, counts.Index[i])
		}
	}
	sort.SliceStable(modes, func(i, j int) bool { return compareScalars(modes[i], modes[j]) < 0 })
	return newSeries(s.Name, s.HasName, rangeIndex(len(modes)), modes), nil
}

func roundHalfEven(f float64, decimals int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(f*scale) / scale
}

func seriesRound(s *Series, a args) (Value, error) {
	if err := a.check(1, "decimals"); err != nil {
		return nil, err
	}
	decimals, err := a.intArg(0, "decimals", 0)
	if err != nil {
		return nil, err
	}
	return s.mapValues(func(v Value) (Value, error) {
		switch x := v.(type) {
		case Float:
			return Float(roundHalfEven(float64(x), decimals)), nil
		case Int, Bool, NoneType:
			return v, nil
		}
		return nil, errorf("TypeError: cannot round a %s value", v.TypeName())
	})
}

func seriesAbs(s *Series, a args) (Value, error) {
	if err := a.check(0); err != nil {
		return nil, err
	}
	return s.mapValues(absValue)
}

func absValue(v Value) (Value, error) {
	switch x := v.(type) {
	case Int:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case Float:
		return Float(math.Abs(float64(x))), nil
	case Bool:
		if x {
			return Int(1), nil
		}
		return Int(0), nil
	case NoneType:
		return nan(), nil
	}
	return nil, errorf("TypeError: bad operand type for abs(): '%s'", v.TypeName())
}

func seriesIsNull(missing bool) seriesMethod {
	return func(s *Series, a args) (Value, error) {
		if err := a.check(0); err != nil {
			return nil, err
		}
		return s.boolMap(func(v Value) bool { return isMissing(v) == missing }), nil
	}
}

func seriesIsIn(s *Series, a args) (Value, error) {
	if err := a.check(1, "values"); err != nil {
		return nil, err
	}
	v, ok := a.get(0, "values")
	if !ok {
		return nil, errorf("TypeError: isin() missing required argument 'values'")
	}
	candidates, ok := items(v)
	if !ok {
		return nil, errorf("TypeError: only list-like objects are allowed to be passed to isin(), you passed a '%s'", v.TypeName())
	}
	keys := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		keys[hashKey(c)] = true
	}
	return s.boolMap(func(v Value) bool { return !isMissing(v) && keys[hashKey(v)] }), nil
}

func seriesBetween(s *Series, a args) (Value, error) {
	if err := a.check(3, "left", "right", "inclusive"); err != nil {
		return nil, err
	}
	left, ok1 := a.get(0, "left")
	right, ok2 := a.get(1, "right")
	if !ok1 || !ok2 {
		return nil, errorf("TypeError: between() missing required arguments 'left' and 'right'")
	}
	inclusive, err := a.strArg(2, "inclusive", "both")
	if err != nil {
		return nil, err
	}
	lo, hi := ">=", "<="
	switch inclusive {
	case "both":
	case "neither":
		lo, hi = ">", "<"
	case "left":
		hi = "<"
	case "right":
		lo = ">"
	default:
		return nil, errorf("ValueError: Inclusive has to be either string of 'both', 'left', 'right', or 'neither'.")
	}
	out := make([]Value, s.Len())
	for i, v := range s.Values {
		if isMissing(v) {
			out[i] = Bool(false)
			continue
		}
		above, err := compare(lo, v, left)
		if err != nil {
			return nil, err
		}
		below, err := compare(hi, v, right)
		if err != nil {
			return nil, err
		}
		out[i] = Bool(bool(above.(Bool)) && bool(below.(Bool)))
	}
	return s.derive(out), nil
}

func seriesIdx(s *Series, a args, dir int) (Value, error) {
	if err := a.check(0, "skipna"); err != nil {
		return nil, err
	}
	best := -1
	for _, i := range s.present() {
		if best < 0 || compareScalars(s.Values[i], s.Values[best])*dir > 0 {
			best = i
		}
	}
	if best < 0 {
		return nil, errorf("ValueError: attempt to get argmax of an empty sequence")
	}
	return s.Index[best], nil
}

func seriesSortValues(s *Series, a args) (Value, error) {
	if err := a.check(0, "ascending"); err != nil {
		return nil, err
	}
	ascending, err := a.boolArg(-1, "ascending", true)
	if err != nil {
		return nil, err
	}
	return s.take(s.sortedPositions(ascending)), nil
}

func seriesSortIndex(s *Series, a args) (Value, error) {
	if err := a.check(0, "ascending"); err != nil {
		return nil, err
	}
	ascending, err := a.boolArg(-1, "ascending", true)
	if err != nil {
		return nil, err
	}
	byIndex := &Series{Index: s.Index, Values: s.Index}
	return s.take(byIndex.sortedPositions(ascending)), nil
}

func seriesGet(s *Series, a args) (Value, error) {
	if err := a.check(2, "key", "default"); err != nil {
		return nil, err
	}
	key, ok := a.get(0, "key")
	if !ok {
		return nil, errorf("TypeError: get() missing required argument 'key'")
	}
	if v, found := s.lookup(key); found {
		return v, nil
	}
	if def, ok := a.get(1, "default"); ok {
		return def, nil
	}
	return None, nil
}

func seriesDescribe(s *Series, a args) (Value, error) {
	if err := a.check(0); err != nil {
		return nil, err
	}
	return describeSeries(s)
}

// dtypeName resolves astype arguments: int, float, str, bool or their names.
func dtypeName(v Value) (string, error) {
	switch x := v.(type) {
	case *Builtin:
		switch x.Name {
		case "int":
			return "int64", nil
		case "float":
			return "float64", nil
		case "str":
			return "object", nil
		}
	case Str:
		switch x {
		case "int", "int64", "int32":
			return "int64", nil
		case "float", "float64", "float32":
			return "float64", nil
		case "str", "object", "string", "category":
			return "object", nil
		case "bool":
			return "bool", nil
		}
	}
	return "", errorf("TypeError: data type %s not understood", repr(v))
}

func seriesAsType(s *Series, a args) (Value, error) {
	if err := a.check(1, "dtype"); err != nil {
		return nil, err
	}
	v, ok := a.get(0, "dtype")
	if !ok {
		return nil, errorf("TypeError: astype() missing required argument 'dtype'")
	}
	dtype, err := dtypeName(v)
	if err != nil {
		return nil, err
	}
	return s.mapValues(func(v Value) (Value, error) { return convert(v, dtype) })
}

func convert(v Value, dtype string) (Value, error) {
	switch dtype {
	case "int64":
		if isMissing(v) {
			return nil, errorf("IntCastingNaNError: Cannot convert non-finite values (NA or inf) to integer")
		}
		return toInt(v)
	case "float64":
		if isMissing(v) {
			return nan(), nil
		}
		return toFloat(v)
	case "bool":
		t, err := truthy(v)
		return Bool(t), err
	}
	if isMissing(v) {
		return v, nil
	}
	return Str(Format(v)), nil
}

func seriesToList(s *Series, a args) (Value, error) {
	if err := a.check(0); err != nil {
		return nil, err
	}
	out := make([]Value, len(s.Values))
	copy(out, s.Values)
	return &List{Items: out, Kind: pyList}, nil
}

func seriesDropNA(s *Series, a args) (Value, error) {
	if err := a.check(0); err != nil {
		return nil, err
	}
	return s.take(s.present()), nil
}

func seriesFillNA(s *Series, a args) (Value, error) {
	if err := a.check(1, "value"); err != nil {
		return nil, err
	}
	fill, ok := a.get(0, "value")
	if !ok {
		return nil, errorf("ValueError: Must specify a fill 'value'")
	}
	return s.mapValues(func(v Value) (Value, error) {
		if isMissing(v) {
			return fill, nil
		}
		return v, nil
	})
}

func seriesQuantile(s *Series, a args) (Value, error) {
	if err := a.check(1, "q"); err != nil {
		return nil, err
	}
	q := 0.5
	if v, ok := a.get(0, "q"); ok {
		f, isNum := number(v)
		if !isNum {
			return nil, errorf("TypeError: quantile() q must be a number")
		}
		q = f
	}
	if q < 0 || q > 1 {
		return nil, errorf("ValueError: percentiles should all be in the interval [0, 1]")
	}
	xs, err := s.numbers()
	if err != nil {
		return nil, err
	}
	sort.Float64s(xs)
	return Float(quantile(xs, q)), nil
}

func seriesNExtreme(s *Series, a args, ascending bool) (Value, error) {
	if err := a.check(1, "n"); err != nil {
		return nil, err
	}
	n, err := a.intArg(0, "n", 5)
	if err != nil {
		return nil, err
	}
	sorted := s.take(s.sortedPositions(ascending))
	return sorted.take(sorted.present()).headTail(n, true), nil
}

func seriesCorr(s *Series, a args) (Value, error) {
	if err := a.check(1, "other"); err != nil {
		return nil, err
	}
	v, ok := a.get(0, "other")
	other, isSeries := v.(*Series)
	if !ok || !isSeries {
		return nil, errorf("TypeError: corr() requires another Series")
	}
	aligned, err := s.alignTo(other)
	if err != nil {
		return nil, err
	}
	var xs, ys []float64
	for i, x := range s.Values {
		if isMissing(x) || isMissing(aligned[i]) {
			continue
		}
		fx, ok1 := number(x)
		fy, ok2 := number(aligned[i])
		if !ok1 || !ok2 {
			return nil, errorf("TypeError: corr() requires numeric data")
		}
		xs = append(xs, fx)
		ys = append(ys, fy)
	}
	if len(xs) < 2 {
		return nan(), nil
	}
	mx, my := 0.0, 0.0
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(len(xs))
	my /= float64(len(ys))
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	return Float(sxy / math.Sqrt(sxx*syy)), nil
}

func seriesCumSum(s *Series, a args) (Value, error) {
	if err := a.check(0); err != nil {
		return nil, err
	}
	var acc Value = Int(0)
	out := make([]Value, s.Len())
	for i, v := range s.Values {
		if isMissing(v) {
			out[i] = nan()
			continue
		}
		next, err := scalarBinary("+", acc, v)
		if err != nil {
			return nil, err
		}
		acc = next
		out[i] = acc
	}
	return s.derive(out), nil
}

func seriesItem(s *Series, a args) (Value, error) {
	if err := a.check(0); err != nil {
		return nil, err
	}
	if s.Len() != 1 {
		return nil, errorf("ValueError: can only convert an array of size 1 to a Python scalar")
	}
	return s.Values[0], nil
}
