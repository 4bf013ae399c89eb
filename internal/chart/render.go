// internal/chart/render.go
package chart

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"titanic-agent/internal/dataset"
	"titanic-agent/internal/query"
)

const (
	DefaultWidth  = 6.4
	DefaultHeight = 4.8
)

// Renderer draws specs over one table. Every call builds its own plot, so a
// Renderer is safe for concurrent use.
type Renderer struct {
	table  *dataset.Table
	engine *query.Engine
	width  float64
	height float64
}

type Option func(*Renderer)

// WithSize sets the default figure size in inches.
func WithSize(width, height float64) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
		if height > 0 {
			r.height = height
		}
	}
}

func NewRenderer(t *dataset.Table, opts ...Option) *Renderer {
	r := &Renderer{
		table:  t,
		engine: query.NewEngine(t),
		width:  DefaultWidth,
		height: DefaultHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws spec and returns the PNG bytes.
func (r *Renderer) Render(spec Spec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rows, err := r.rows(spec)
	if err != nil {
		return nil, err
	}

	width, height := r.width, r.height
	if spec.Width > 0 {
		width = spec.Width
	}
	if spec.Height > 0 {
		height = spec.Height
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel

	switch spec.Kind {
	case KindBar, KindBarH:
		err = r.bar(p, spec, rows, width, height)
	case KindHist:
		err = r.hist(p, spec, rows)
	case KindLine:
		err = r.line(p, spec, rows)
	case KindScatter:
		err = r.scatter(p, spec, rows)
	case KindBox:
		err = r.box(p, spec, rows, width)
	}
	if err != nil {
		return nil, err
	}

	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) bar(p *plot.Plot, spec Spec, rows []int, width, height float64) error {
	g, err := r.group(spec, rows)
	if err != nil {
		return err
	}
	values := g.aggregate(spec.agg())
	g.order(spec.sortOrder(), values)

	horizontal := spec.Kind == KindBarH
	extent := width
	if horizontal {
		extent = height
	}
	barWidth := barWidthFor(extent, len(g.cats)*len(g.hues))

	for h := range g.hues {
		bars, err := plotter.NewBarChart(plotter.Values(values[h]), barWidth)
		if err != nil {
			return fmt.Errorf("bar chart: %w", err)
		}
		bars.Horizontal = horizontal
		bars.Color = plotutil.Color(h)
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(h)-float64(len(g.hues)-1)/2) * barWidth
		p.Add(bars)
		if spec.Hue != "" {
			p.Legend.Add(fmt.Sprintf("%s=%s", spec.Hue, g.hues[h].label), bars)
		}
	}
	if spec.Hue != "" {
		p.Legend.Top = true
	}
	if horizontal {
		p.NominalY(g.labels()...)
	} else {
		p.NominalX(g.labels()...)
	}
	return nil
}

// barWidthFor spreads n bars over most of an axis extent given in inches.
func barWidthFor(extent float64, n int) vg.Length {
	w := vg.Length(extent) * vg.Inch * 0.6 / vg.Length(n)
	switch {
	case w < vg.Points(1):
		return vg.Points(1)
	case w > vg.Points(48):
		return vg.Points(48)
	}
	return w
}

func (r *Renderer) hist(p *plot.Plot, spec Spec, rows []int) error {
	vals, err := r.values(spec.X, rows)
	if err != nil {
		return err
	}
	h, err := plotter.NewHist(plotter.Values(vals), spec.bins())
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	return nil
}

func (r *Renderer) line(p *plot.Plot, spec Spec, rows []int) error {
	g, err := r.group(spec, rows)
	if err != nil {
		return err
	}
	values := g.aggregate(spec.agg())
	g.order(SortLabel, values)

	numeric := true
	for _, k := range g.cats {
		numeric = numeric && k.numeric
	}
	xys := make(plotter.XYs, len(g.cats))
	for i, k := range g.cats {
		xys[i].X = float64(i)
		if numeric {
			xys[i].X = k.num
		}
		xys[i].Y = values[0][i]
	}

	l, pts, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("line chart: %w", err)
	}
	l.Color = plotutil.Color(0)
	pts.GlyphStyle.Color = plotutil.Color(0)
	p.Add(l, pts)
	if !numeric {
		p.NominalX(g.labels()...)
	}
	return nil
}

func (r *Renderer) scatter(p *plot.Plot, spec Spec, rows []int) error {
	xcol, err := r.numericColumn(spec.X)
	if err != nil {
		return err
	}
	ycol, err := r.numericColumn(spec.Y)
	if err != nil {
		return err
	}
	var xys plotter.XYs
	for _, i := range rows {
		if xcol.IsMissing(i) || ycol.IsMissing(i) {
			continue
		}
		xys = append(xys, plotter.XY{X: xcol.Numbers[i], Y: ycol.Numbers[i]})
	}
	if len(xys) == 0 {
		return ErrNoData
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("scatter chart: %w", err)
	}
	s.GlyphStyle.Color = plotutil.Color(0)
	s.GlyphStyle.Radius = vg.Points(2)
	p.Add(s)
	return nil
}

// box draws one box of spec.Y per spec.X category, or a single box of spec.X
// when no y column is given.
func (r *Renderer) box(p *plot.Plot, spec Spec, rows []int, width float64) error {
	if spec.Y == "" {
		vals, err := r.values(spec.X, rows)
		if err != nil {
			return err
		}
		b, err := plotter.NewBoxPlot(barWidthFor(width, 2), 0, plotter.Values(vals))
		if err != nil {
			return fmt.Errorf("box plot: %w", err)
		}
		b.FillColor = plotutil.Color(0)
		p.Add(b)
		p.NominalX(spec.X)
		return nil
	}

	g, err := r.group(spec, rows)
	if err != nil {
		return err
	}
	medians := g.aggregate(AggMedian)
	g.order(spec.sortOrder(), medians)

	w := barWidthFor(width, len(g.cats))
	for c := range g.cats {
		b, err := plotter.NewBoxPlot(w, float64(c), plotter.Values(g.buckets[0][c]))
		if err != nil {
			return fmt.Errorf("box plot: %w", err)
		}
		b.FillColor = plotutil.Color(0)
		p.Add(b)
	}
	p.NominalX(g.labels()...)
	return nil
}
