package chart

import (
	"math"
	"time"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/ticks"
	"github.com/raykavin/chartcore/pkg/transform"
	"github.com/samber/lo"
)

// SeriesID identifies a series for the lifetime of a chart
type SeriesID int

// SeriesKind is the closed set of series data variants
type SeriesKind int

const (
	KindCandlestick SeriesKind = iota
	KindLine
	KindHistogram
)

func (k SeriesKind) String() string {
	switch k {
	case KindCandlestick:
		return "candlestick"
	case KindLine:
		return "line"
	case KindHistogram:
		return "histogram"
	}
	return "unknown"
}

// LineStyle is the dash pattern of a line
type LineStyle int

const (
	LineSolid LineStyle = iota
	LineDotted
	LineDashed
	LineLargeDashed
	LineSparseDotted
)

// MarkerPosition places a marker relative to its bar
type MarkerPosition int

const (
	MarkerAboveBar MarkerPosition = iota
	MarkerBelowBar
	MarkerInBar
	MarkerAtPriceTop
	MarkerAtPriceBottom
	MarkerAtPriceMiddle
)

// MarkerShape is the glyph drawn for a marker
type MarkerShape int

const (
	ShapeArrowUp MarkerShape = iota
	ShapeArrowDown
	ShapeCircle
	ShapeSquare
	ShapeDiamond
)

// Marker annotates one bar of a series. Price is required by the AtPrice
// positions and ignored otherwise.
type Marker struct {
	Time     time.Time
	Position MarkerPosition
	Price    *float64
	Shape    MarkerShape
	Color    core.Color
	Size     float64
	Text     string
}

// MarkersOptions control how markers take part in scaling
type MarkersOptions struct {
	AutoScale bool
}

// SeriesOptions are the per series display settings
type SeriesOptions struct {
	Title          string
	ShowPriceLine  bool
	ShowLastValue  bool
	PriceLineColor *core.Color
	PriceLineStyle LineStyle
	PriceLineWidth float64
	PriceFormat    ticks.PriceFormat
	Markers        MarkersOptions
}

// DefaultSeriesOptions shows the price line and last value badge
func DefaultSeriesOptions() SeriesOptions {
	return SeriesOptions{
		ShowPriceLine:  true,
		ShowLastValue:  true,
		PriceLineStyle: LineSolid,
		PriceLineWidth: 1,
		PriceFormat:    ticks.DefaultPriceFormat(),
		Markers:        MarkersOptions{AutoScale: true},
	}
}

// PriceLineOptions describe a horizontal level drawn over a series
type PriceLineOptions struct {
	Price            float64
	Color            core.Color
	LineWidth        float64
	LineStyle        LineStyle
	Opacity          float64
	LineVisible      bool
	AxisLabelVisible bool
	Title            string
}

// DefaultPriceLineOptions returns a visible solid line at price 0
func DefaultPriceLineOptions() PriceLineOptions {
	return PriceLineOptions{
		LineWidth:        1,
		LineStyle:        LineSolid,
		Opacity:          0.6,
		LineVisible:      true,
		AxisLabelVisible: true,
	}
}

// PriceLine is a price level attached to a series
type PriceLine struct {
	ID      int
	Options PriceLineOptions
}

// series holds one of the three data collections, selected by kind
type series struct {
	id      SeriesID
	kind    SeriesKind
	side    Side
	panel   PanelID
	options SeriesOptions
	markers []Marker

	candles   core.Series[core.Candle]
	lines     core.Series[core.LinePoint]
	histogram core.Series[core.HistogramPoint]

	priceLines    []PriceLine
	nextPriceLine int
}

func newSeries(id SeriesID, kind SeriesKind, side Side, panel PanelID) *series {
	return &series{
		id:      id,
		kind:    kind,
		side:    side,
		panel:   panel,
		options: DefaultSeriesOptions(),
	}
}

func (s *series) empty() bool {
	switch s.kind {
	case KindCandlestick:
		return s.candles.Empty()
	case KindLine:
		return s.lines.Empty()
	default:
		return s.histogram.Empty()
	}
}

func (s *series) times() []float64 {
	switch s.kind {
	case KindCandlestick:
		return s.candles.Times()
	case KindLine:
		return s.lines.Times()
	default:
		return s.histogram.Times()
	}
}

// valueRange is the min and max the series contributes to its price scale
// inside [start, end].
func (s *series) valueRange(start, end float64) (float64, float64, bool) {
	switch s.kind {
	case KindCandlestick:
		visible := visibleOnly(s.candles.Values(), start, end)
		if len(visible) == 0 {
			return 0, 0, false
		}
		return lo.MinBy(visible, func(a, b core.Candle) bool { return a.Low < b.Low }).Low,
			lo.MaxBy(visible, func(a, b core.Candle) bool { return a.High > b.High }).High,
			true
	case KindLine:
		values := lo.Map(s.lines.Window(start, end), func(p core.LinePoint, _ int) float64 { return p.Value })
		if len(values) == 0 {
			return 0, 0, false
		}
		return lo.Min(values), lo.Max(values), true
	default:
		values := lo.Map(s.histogram.Window(start, end), func(p core.HistogramPoint, _ int) float64 { return p.Value })
		return transform.HistogramRange(values)
	}
}

// markerRange is the span of the priced markers inside [start, end]
func (s *series) markerRange(start, end float64) (float64, float64, bool) {
	if !s.options.Markers.AutoScale {
		return 0, 0, false
	}

	prices := lo.FilterMap(s.markers, func(m Marker, _ int) (float64, bool) {
		t := core.UnixSeconds(m.Time)
		if m.Price == nil || t < start || t > end {
			return 0, false
		}
		return *m.Price, true
	})
	if len(prices) == 0 {
		return 0, 0, false
	}
	return lo.Min(prices), lo.Max(prices), true
}

// baseValue is the time and close or value of the first bar of the window,
// the reference of the relative scale modes.
func (s *series) baseValue(start, end float64) (float64, float64, bool) {
	switch s.kind {
	case KindCandlestick:
		candle, ok := s.candles.FirstInWindow(start, end)
		return candle.TimeKey(), candle.Close, ok
	case KindLine:
		point, ok := s.lines.FirstInWindow(start, end)
		return point.TimeKey(), point.Value, ok
	default:
		point, ok := s.histogram.FirstInWindow(start, end)
		return point.TimeKey(), point.Value, ok
	}
}

// nearestValue returns the time and value of the point closest to target.
// Candles report their close.
func (s *series) nearestValue(target float64) (float64, float64, bool) {
	switch s.kind {
	case KindCandlestick:
		candle, _, ok := s.candles.Nearest(target)
		return candle.TimeKey(), candle.Close, ok
	case KindLine:
		point, _, ok := s.lines.Nearest(target)
		return point.TimeKey(), point.Value, ok
	default:
		point, _, ok := s.histogram.Nearest(target)
		return point.TimeKey(), point.Value, ok
	}
}

// LastValue is the badge shown on the price axis for a series
type LastValue struct {
	Value   float64
	Bullish bool
	Color   *core.Color
}

func (s *series) lastValue() (LastValue, bool) {
	switch s.kind {
	case KindCandlestick:
		candle, ok := s.candles.Last(0)
		return LastValue{Value: candle.Close, Bullish: candle.IsBullish()}, ok
	case KindLine:
		point, ok := s.lines.Last(0)
		return LastValue{Value: point.Value, Bullish: true, Color: s.options.PriceLineColor}, ok
	default:
		point, ok := s.histogram.Last(0)
		return LastValue{Value: point.Value, Bullish: point.Value >= 0, Color: point.Color}, ok
	}
}

// visibleOnly keeps the candles inside [start, end] without falling back
func visibleOnly(candles []core.Candle, start, end float64) []core.Candle {
	return lo.Filter(candles, func(c core.Candle, _ int) bool {
		t := c.TimeKey()
		return t >= start && t <= end
	})
}

// mergeRange widens (min, max) by another contribution
func mergeRange(min, max float64, found bool, otherMin, otherMax float64) (float64, float64) {
	if !found {
		return otherMin, otherMax
	}
	return math.Min(min, otherMin), math.Max(max, otherMax)
}
