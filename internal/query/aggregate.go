// internal/query/aggregate.go
package query

import (
	"math"
	"sort"
)

// aggregations reduce a series to one scalar; missing values are skipped.
var aggregations = map[string]func(s *Series) (Value, error){
	"sum":     aggSum,
	"mean":    aggMean,
	"median":  aggMedian,
	"min":     func(s *Series) (Value, error) { return aggExtreme(s, -1) },
	"max":     func(s *Series) (Value, error) { return aggExtreme(s, 1) },
	"count":   func(s *Series) (Value, error) { return Int(len(s.present())), nil },
	"nunique": aggNunique,
	"std":     func(s *Series) (Value, error) { return aggSpread(s, true) },
	"var":     func(s *Series) (Value, error) { return aggSpread(s, false) },
	"size":    func(s *Series) (Value, error) { return Int(s.Len()), nil },
	"first":   aggFirst,
	"any":     func(s *Series) (Value, error) { return aggTruth(s, true) },
	"all":     func(s *Series) (Value, error) { return aggTruth(s, false) },
}

func aggregate(name string, s *Series) (Value, error) {
	fn, ok := aggregations[name]
	if !ok {
		return nil, errorf("AttributeError: '%s' is not a valid function for aggregation", name)
	}
	return fn(s)
}

func aggSum(s *Series) (Value, error) {
	if s.DType == "object" {
		for _, i := range s.present() {
			if !isNumeric(s.Values[i]) {
				return nil, errorf("TypeError: cannot sum a column containing %s values", s.Values[i].TypeName())
			}
		}
	}
	xs, err := s.numbers()
	if err != nil {
		return nil, err
	}
	if s.DType == "int64" || s.DType == "bool" {
		var total int64
		for _, x := range xs {
			total += int64(x)
		}
		return Int(total), nil
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return Float(total), nil
}

func aggMean(s *Series) (Value, error) {
	xs, err := s.numbers()
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nan(), nil
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return Float(total / float64(len(xs))), nil
}

func aggMedian(s *Series) (Value, error) {
	xs, err := s.numbers()
	if err != nil {
		return nil, err
	}
	sort.Float64s(xs)
	return Float(quantile(xs, 0.5)), nil
}

func aggSpread(s *Series, std bool) (Value, error) {
	xs, err := s.numbers()
	if err != nil {
		return nil, err
	}
	v := variance(xs, 1)
	if std {
		v = math.Sqrt(v)
	}
	return Float(v), nil
}

// aggExtreme finds the min (dir -1) or max (dir 1) as the column's own kind.
func aggExtreme(s *Series, dir int) (Value, error) {
	var best Value
	for _, i := range s.present() {
		v := s.Values[i]
		if best == nil {
			best = v
			continue
		}
		_, vStr := v.(Str)
		_, bStr := best.(Str)
		if vStr != bStr {
			return nil, orderError(map[int]string{-1: "<", 1: ">"}[dir], v, best)
		}
		if compareScalars(v, best)*dir > 0 {
			best = v
		}
	}
	if best == nil {
		return nan(), nil
	}
	return best, nil
}

func aggNunique(s *Series) (Value, error) {
	seen := make(map[string]bool)
	for _, i := range s.present() {
		seen[hashKey(s.Values[i])] = true
	}
	return Int(len(seen)), nil
}

func aggFirst(s *Series) (Value, error) {
	if p := s.present(); len(p) > 0 {
		return s.Values[p[0]], nil
	}
	return nan(), nil
}

func aggTruth(s *Series, any bool) (Value, error) {
	for _, i := range s.present() {
		t, err := truthy(s.Values[i])
		if err != nil {
			return nil, err
		}
		if any && t {
			return Bool(true), nil
		}
		if !any && !t {
			return Bool(false), nil
		}
	}
	return Bool(!any), nil
}

// describeSeries summarises a numeric or text column.
func describeSeries(s *Series) (*Series, error) {
	if s.isNumeric() && s.DType != "bool" {
		xs, err := s.numbers()
		if err != nil {
			return nil, err
		}
		sort.Float64s(xs)
		mean, _ := aggMean(s)
		std, _ := aggSpread(s, true)
		minV, maxV := math.NaN(), math.NaN()
		if len(xs) > 0 {
			minV, maxV = xs[0], xs[len(xs)-1]
		}
		index := strValues([]string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"})
		values := []Value{
			Float(len(xs)), mean, std, Float(minV),
			Float(quantile(xs, 0.25)), Float(quantile(xs, 0.5)), Float(quantile(xs, 0.75)),
			Float(maxV),
		}
		return newSeries(s.Name, s.HasName, index, values), nil
	}

	counts := s.valueCounts(false, false, true)
	var top, freq Value = nan(), nan()
	if counts.Len() > 0 {
		top, freq = counts.Index[0], counts.Values[0]
	}
	index := strValues([]string{"count", "unique", "top", "freq"})
	values := []Value{Int(len(s.present())), Int(counts.Len()), top, freq}
	out := newSeries(s.Name, s.HasName, index, values)
	out.DType = "object"
	return out, nil
}
