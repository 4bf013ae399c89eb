// internal/chart/spec.go
package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindBar     Kind = "bar"
	KindBarH    Kind = "barh"
	KindHist    Kind = "hist"
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
	KindBox     Kind = "box"
)

type Agg string

const (
	AggCount  Agg = "count"
	AggSum    Agg = "sum"
	AggMean   Agg = "mean"
	AggMedian Agg = "median"
	AggMin    Agg = "min"
	AggMax    Agg = "max"
)

const (
	SortNone      = "none"
	SortLabel     = "label"
	SortValue     = "value"
	SortValueDesc = "value_desc"
)

const (
	DefaultBins = 20
	MaxBins     = 100
	MinInches   = 2.0
	MaxInches   = 20.0
)

// Spec is a declarative chart request.
type Spec struct {
	Kind   Kind    `json:"kind"`
	X      string  `json:"x"`
	Y      string  `json:"y,omitempty"`
	Agg    Agg     `json:"agg,omitempty"`
	Hue    string  `json:"hue,omitempty"`
	Filter string  `json:"filter,omitempty"`
	Bins   int     `json:"bins,omitempty"`
	Sort   string  `json:"sort,omitempty"`
	Title  string  `json:"title"`
	XLabel string  `json:"xlabel"`
	YLabel string  `json:"ylabel"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

var ErrInvalidSpec = errors.New("invalid plot spec")

// Parse decodes a JSON spec, rejecting unknown fields, and validates it.
func Parse(data []byte) (Spec, error) {
	var s Spec
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if dec.More() {
		return Spec{}, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidSpec)
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// Validate checks field combinations that a schema cannot express.
func (s *Spec) Validate() error {
	var problems []string
	switch s.Kind {
	case KindBar, KindBarH, KindHist, KindLine, KindScatter, KindBox:
	case "":
		problems = append(problems, "kind is required")
	default:
		problems = append(problems, fmt.Sprintf("unsupported kind %q", s.Kind))
	}
	if strings.TrimSpace(s.X) == "" {
		problems = append(problems, "x is required")
	}
	if strings.TrimSpace(s.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(s.XLabel) == "" {
		problems = append(problems, "xlabel is required")
	}
	if strings.TrimSpace(s.YLabel) == "" {
		problems = append(problems, "ylabel is required")
	}

	switch s.Agg {
	case "", AggCount:
	case AggSum, AggMean, AggMedian, AggMin, AggMax:
		if s.Y == "" && (s.Kind == KindBar || s.Kind == KindBarH || s.Kind == KindLine) {
			problems = append(problems, fmt.Sprintf("agg %q needs a y column", s.Agg))
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported agg %q", s.Agg))
	}

	switch s.Sort {
	case "", SortNone, SortLabel, SortValue, SortValueDesc:
	default:
		problems = append(problems, fmt.Sprintf("unsupported sort %q", s.Sort))
	}

	if s.Hue != "" && s.Kind != KindBar && s.Kind != KindBarH {
		problems = append(problems, "hue is only supported for bar and barh charts")
	}
	if s.Kind == KindScatter && s.Y == "" {
		problems = append(problems, "scatter charts need a y column")
	}
	if s.Bins < 0 || s.Bins > MaxBins {
		problems = append(problems, fmt.Sprintf("bins must be between 1 and %d", MaxBins))
	}
	for _, dim := range []struct {
		name string
		v    float64
	}{{"width", s.Width}, {"height", s.Height}} {
		if dim.v != 0 && (dim.v < MinInches || dim.v > MaxInches) {
			problems = append(problems, fmt.Sprintf("%s must be between %g and %g inches", dim.name, MinInches, MaxInches))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSpec, strings.Join(problems, "; "))
	}
	return nil
}

func (s *Spec) agg() Agg {
	if s.Agg == "" {
		return AggCount
	}
	return s.Agg
}

func (s *Spec) sortOrder() string {
	if s.Sort == "" {
		return SortLabel
	}
	return s.Sort
}

func (s *Spec) bins() int {
	if s.Bins == 0 {
		return DefaultBins
	}
	return s.Bins
}
