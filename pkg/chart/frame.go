package chart

import (
	"math"
	"slices"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/raykavin/chartcore/pkg/ticks"
	"github.com/raykavin/chartcore/pkg/transform"
	"github.com/samber/lo"
)

// Frame is everything a renderer needs to draw one pass of the chart, in
// pixels. Building it advances the chart state the same way drawing does:
// auto scaled axes follow the visible data and the toolbar hit boxes are
// refreshed.
type Frame struct {
	Layout    *layout.ChartLayout
	TimeAxes  []TimeAxisFrame
	Panels    []PanelFrame
	Crosshair *CrosshairFrame
	Controls  []PanelControlHit
}

// TimeAxisFrame holds the visible window and labelled ticks of a group
type TimeAxisFrame struct {
	Group   GroupID
	Start   float64
	End     float64
	Step    int64
	Ticks   []TimeTick
	Visible bool
}

// TimeTick is one labelled time axis position
type TimeTick struct {
	Time  float64
	X     float64
	Label string
}

// PriceTick is one labelled price axis position. Value is the tick in the
// axis transform; Price is the raw price at that height.
type PriceTick struct {
	Value float64
	Price float64
	Y     float64
	Label string
}

// AxisFrame is a resolved price axis of a panel
type AxisFrame struct {
	Side      Side
	Visible   bool
	Aligned   bool
	Scale     transform.Scale
	Precision int
	Ticks     []PriceTick
}

// PanelFrame is the drawable content of one panel
type PanelFrame struct {
	ID         PanelID
	Title      string
	Layout     layout.PanelLayout
	Axes       []AxisFrame
	Series     []SeriesFrame
	Oscillator []PixelPoint
}

// Axis returns the axis on side, if it resolved
func (p PanelFrame) Axis(side Side) (AxisFrame, bool) {
	return lo.Find(p.Axes, func(a AxisFrame) bool { return a.Side == side })
}

// PixelPoint is a data point mapped to the plot
type PixelPoint struct {
	Time float64
	X, Y float64
}

// CandleFrame is a candle mapped to the plot
type CandleFrame struct {
	Time    float64
	X       float64
	Open    float64
	High    float64
	Low     float64
	Close   float64
	Bullish bool
}

// BarFrame is a histogram bar. Y is its top and Height reaches the strip bottom.
type BarFrame struct {
	Time   float64
	X      float64
	Y      float64
	Height float64
	Color  *core.Color
}

// MarkerFrame is a marker anchored on the plot
type MarkerFrame struct {
	Marker Marker
	X, Y   float64
}

// PriceLineFrame is a horizontal level and its axis label
type PriceLineFrame struct {
	ID      int
	Y       float64
	Label   string
	Options PriceLineOptions
}

// LastValueFrame is the badge of the latest value of a series
type LastValueFrame struct {
	LastValue
	Y         float64
	Label     string
	PriceLine bool
}

// SeriesFrame is the drawable content of one series
type SeriesFrame struct {
	ID         SeriesID
	Kind       SeriesKind
	Side       Side
	BarWidth   float64
	Candles    []CandleFrame
	Points     []PixelPoint
	Bars       []BarFrame
	Markers    []MarkerFrame
	PriceLines []PriceLineFrame
	LastValue  *LastValueFrame
}

// CrosshairFrame is the crosshair with its axis labels
type CrosshairFrame struct {
	CrosshairPoint
	TimeLabel  string
	PriceLabel string
	Tooltip    []string
}

// Frame lays the chart out for vp and maps every visible element to pixels.
// It returns nil when there is nothing to draw.
func (c *Chart) Frame(vp layout.Viewport) *Frame {
	c.controls = nil
	if !c.HasData() || vp.Empty() {
		return nil
	}

	l := c.Layout(vp)
	if !l.Valid() {
		return nil
	}
	c.prepareGroups(l)

	f := &Frame{Layout: l}
	for _, g := range c.groups {
		if axis, ok := c.timeAxisFrame(l, g); ok {
			f.TimeAxes = append(f.TimeAxes, axis)
		}
	}
	for _, pl := range l.Panels {
		if p, ok := c.panel(PanelID(pl.ID)); ok {
			f.Panels = append(f.Panels, c.panelFrame(pl, p))
		}
	}

	if c.crosshair != nil && c.options.Crosshair.Mode != CrosshairHidden {
		if point, ok := c.crosshairIn(l, c.crosshair.x, c.crosshair.y); ok {
			f.Crosshair = c.crosshairFrame(point)
		}
	}

	c.controls = c.panelControls(l)
	f.Controls = slices.Clone(c.controls)
	return f
}

// prepareGroups applies the bar spacing on the first frame of a group and
// whenever its plot width changes, unless the window is locked on resize.
func (c *Chart) prepareGroups(l *layout.ChartLayout) {
	for _, g := range c.groups {
		width, ok := groupPlotWidth(l, g.id)
		if !ok {
			continue
		}

		first := g.framedWidth <= core.Epsilon
		changed := math.Abs(width-g.framedWidth) > core.Epsilon
		g.framedWidth, g.plotWidth = width, width

		if first || (changed && !c.options.TimeScale.LockVisibleTimeRangeOnResize) {
			g.scale.ApplyBarSpacing(width, 1)
		}
	}
}

func (c *Chart) timeAxisFrame(l *layout.ChartLayout, g *timeGroup) (TimeAxisFrame, bool) {
	axis, visible := l.TimeAxis(int(g.id))
	left, width := axis.PlotLeft, axis.PlotWidth
	if !visible {
		panel, ok := lo.Find(l.Panels, func(p layout.PanelLayout) bool { return p.Group == int(g.id) })
		if !ok {
			return TimeAxisFrame{}, false
		}
		left, width = panel.PlotLeft, panel.PlotWidth
	}

	start, end := g.scale.Start, g.scale.End
	options := c.options.TimeScale
	built := ticks.BuildTimeTicks(start, end, width, options.UniformDistribution)
	labels := options.LabelOptions()

	frame := TimeAxisFrame{
		Group:   g.id,
		Start:   start,
		End:     end,
		Step:    built.Step,
		Visible: visible && options.Visible,
	}
	frame.Ticks = lo.Map(built.Ticks, func(t float64, _ int) TimeTick {
		return TimeTick{
			Time:  t,
			X:     transform.TimeToX(t, start, end, left, width),
			Label: ticks.FormatTimeLabel(t, built.Step, labels),
		}
	})
	return frame, true
}

func (c *Chart) panelFrame(pl layout.PanelLayout, p *panel) PanelFrame {
	frame := PanelFrame{ID: p.id, Title: p.title, Layout: pl}
	if !p.drawn() || pl.MainHeight <= 0 {
		return frame
	}
	g, ok := c.group(p.group)
	if !ok {
		return frame
	}
	start, end := g.scale.Start, g.scale.End

	frame.Axes = c.panelAxes(pl, p, start, end)
	for _, s := range c.orderedSeries() {
		if s.panel != p.id {
			continue
		}
		axis, ok := frame.Axis(s.side)
		if !ok {
			continue
		}
		frame.Series = append(frame.Series, c.seriesFrame(s, pl, axis, start, end))
	}

	if c.rsi != nil && c.rsi.panel == p.id {
		if axis, ok := frame.Axis(SideRight); ok {
			frame.Oscillator = lo.Map(c.rsi.data.Window(start, end), func(point core.LinePoint, _ int) PixelPoint {
				t := point.TimeKey()
				return PixelPoint{
					Time: t,
					X:    transform.TimeToX(t, start, end, pl.PlotLeft, pl.PlotWidth),
					Y:    transform.PriceToYScaled(point.Value, axis.Scale, pl.MainTop, pl.MainHeight),
				}
			})
		}
	}
	return frame
}

// panelAxes resolves both price axes of a panel. The secondary axis takes
// its ticks from the primary one when it aligns its labels.
func (c *Chart) panelAxes(pl layout.PanelLayout, p *panel, start, end float64) []AxisFrame {
	sides := []Side{SideRight, SideLeft}
	if c.rsi != nil && c.rsi.panel == p.id {
		sides = []Side{SideRight}
	}

	scales := make(map[Side]transform.Scale, len(sides))
	for _, side := range sides {
		if sc, ok := c.resolveScale(p, side, start, end); ok {
			scales[side] = sc
		}
	}

	primary := SideLeft
	if _, ok := scales[SideRight]; ok {
		primary = SideRight
	}
	primaryScale, hasPrimary := scales[primary]
	var primaryTicks ticks.PriceTicks
	if hasPrimary {
		primaryTicks = c.priceTicks(primaryScale, pl, c.scaleOptions(p, primary))
	}

	var axes []AxisFrame
	for _, side := range sides {
		sc, ok := scales[side]
		if !ok {
			continue
		}
		options := c.scaleOptions(p, side)

		built, aligned := primaryTicks, false
		if side != primary {
			if options.AlignLabels && hasPrimary {
				built, aligned = alignedTicks(primaryTicks, primaryScale, sc, pl), true
			} else {
				built = c.priceTicks(sc, pl, options)
			}
		}

		axes = append(axes, AxisFrame{
			Side:      side,
			Visible:   c.axisVisible(p, side),
			Aligned:   aligned,
			Scale:     sc,
			Precision: built.Precision,
			Ticks:     c.labelTicks(built, sc, pl, options, c.sideFormat(p, side)),
		})
	}
	return axes
}

// priceTicks builds the ticks of a scale in its transformed space, sized
// to the area left inside the margins.
func (c *Chart) priceTicks(sc transform.Scale, pl layout.PanelLayout, options PriceScaleOptions) ticks.PriceTicks {
	_, height := transform.ScaleArea(pl.MainTop, pl.MainHeight, sc.Margins)
	low := transform.Price(sc.Min, sc.Mode, sc.Base)
	high := transform.Price(sc.Max, sc.Mode, sc.Base)
	if low > high {
		low, high = high, low
	}

	built := ticks.BuildPriceTicks(low, high, height)
	if options.EnsureEdgeTickMarks {
		ticks.EnsureEdgeTicks(&built, low, high)
	}
	return built
}

// alignedTicks projects the primary ticks onto the secondary scale through
// their pixel height.
func alignedTicks(primary ticks.PriceTicks, primaryScale, secondary transform.Scale, pl layout.PanelLayout) ticks.PriceTicks {
	return ticks.PriceTicks{
		Ticks: lo.Map(primary.Ticks, func(tick float64, _ int) float64 {
			raw := transform.InversePrice(tick, primaryScale.Mode, primaryScale.Base)
			y := transform.PriceToYScaled(raw, primaryScale, pl.MainTop, pl.MainHeight)
			price := transform.YToPriceScaled(y, secondary, pl.MainTop, pl.MainHeight)
			return transform.Price(price, secondary.Mode, secondary.Base)
		}),
		Precision: primary.Precision,
	}
}

// labelTicks maps transformed ticks to pixels. Log axes are labelled with
// raw prices, relative axes with the transformed value.
func (c *Chart) labelTicks(built ticks.PriceTicks, sc transform.Scale, pl layout.PanelLayout, options PriceScaleOptions, format ticks.PriceFormat) []PriceTick {
	halfText := c.options.Style.AxisFontSize / 2

	return lo.FilterMap(built.Ticks, func(tick float64, _ int) (PriceTick, bool) {
		raw := transform.InversePrice(tick, sc.Mode, sc.Base)
		y := transform.PriceToYScaled(raw, sc, pl.MainTop, pl.MainHeight)
		if options.EntireTextOnly && (y-halfText < pl.MainTop || y+halfText > pl.MainBottom) {
			return PriceTick{}, false
		}

		label := raw
		if sc.Mode.IsRelative() {
			label = tick
		}
		return PriceTick{
			Value: tick,
			Price: raw,
			Y:     y,
			Label: ticks.FormatPrice(label, format, built.Precision, sc.Mode),
		}, true
	})
}

// sideFormat is the price format of the first series drawn on side
func (c *Chart) sideFormat(p *panel, side Side) ticks.PriceFormat {
	if s, ok := lo.Find(c.orderedSeries(), func(s *series) bool { return s.panel == p.id && s.side == side }); ok {
		return s.options.PriceFormat
	}
	return ticks.DefaultPriceFormat()
}

// axisLabel prints a raw price the way the axis labels it
func axisLabel(price float64, sc transform.Scale, format ticks.PriceFormat, precision int) string {
	if sc.Mode.IsRelative() {
		price = transform.Price(price, sc.Mode, sc.Base)
	}
	return ticks.FormatPrice(price, format, precision, sc.Mode)
}

func (c *Chart) seriesFrame(s *series, pl layout.PanelLayout, axis AxisFrame, start, end float64) SeriesFrame {
	sc := axis.Scale
	x := func(t float64) float64 { return transform.TimeToX(t, start, end, pl.PlotLeft, pl.PlotWidth) }
	y := func(price float64) float64 { return transform.PriceToYScaled(price, sc, pl.MainTop, pl.MainHeight) }

	frame := SeriesFrame{ID: s.id, Kind: s.kind, Side: s.side}

	switch s.kind {
	case KindCandlestick:
		visible := visibleOnly(s.candles.Values(), start, end)
		times := lo.Map(visible, func(candle core.Candle, _ int) float64 { return candle.TimeKey() })
		frame.BarWidth = transform.BarWidth(times, start, end, pl.PlotWidth)
		frame.Candles = lo.Map(visible, func(candle core.Candle, _ int) CandleFrame {
			return CandleFrame{
				Time:    candle.TimeKey(),
				X:       x(candle.TimeKey()),
				Open:    y(candle.Open),
				High:    y(candle.High),
				Low:     y(candle.Low),
				Close:   y(candle.Close),
				Bullish: candle.IsBullish(),
			}
		})
	case KindLine:
		frame.Points = lo.Map(s.lines.Window(start, end), func(point core.LinePoint, _ int) PixelPoint {
			return PixelPoint{Time: point.TimeKey(), X: x(point.TimeKey()), Y: y(point.Value)}
		})
	case KindHistogram:
		frame.BarWidth, frame.Bars = histogramBars(s.histogram.Window(start, end), pl, start, end)
	}

	frame.Markers = c.markerFrames(s, x, y, start, end)
	frame.PriceLines = lo.Map(s.priceLines, func(line PriceLine, _ int) PriceLineFrame {
		return PriceLineFrame{
			ID:      line.ID,
			Y:       y(line.Options.Price),
			Label:   axisLabel(line.Options.Price, sc, s.options.PriceFormat, axis.Precision),
			Options: line.Options,
		}
	})

	if s.options.ShowLastValue || s.options.ShowPriceLine {
		if last, ok := s.lastValue(); ok {
			frame.LastValue = &LastValueFrame{
				LastValue: last,
				Y:         y(last.Value),
				Label:     axisLabel(last.Value, sc, s.options.PriceFormat, axis.Precision),
				PriceLine: s.options.ShowPriceLine,
			}
		}
	}
	return frame
}

// histogramBars scales the bars to their own range inside the histogram
// strip. Nothing is drawn when the panel has no strip.
func histogramBars(points []core.HistogramPoint, pl layout.PanelLayout, start, end float64) (float64, []BarFrame) {
	if len(points) == 0 || pl.HistHeight <= 0 {
		return 0, nil
	}

	values := lo.Map(points, func(p core.HistogramPoint, _ int) float64 { return p.Value })
	low, high, ok := transform.HistogramRange(values)
	if !ok {
		return 0, nil
	}
	times := lo.Map(points, func(p core.HistogramPoint, _ int) float64 { return p.TimeKey() })
	width := transform.BarWidth(times, start, end, pl.PlotWidth)

	return width, lo.Map(points, func(p core.HistogramPoint, _ int) BarFrame {
		top := transform.PriceToY(p.Value, low, high, pl.HistTop, pl.HistHeight)
		return BarFrame{
			Time:   p.TimeKey(),
			X:      transform.TimeToX(p.TimeKey(), start, end, pl.PlotLeft, pl.PlotWidth),
			Y:      top,
			Height: math.Max(pl.HistBottom-top, 1),
			Color:  p.Color,
		}
	})
}

// markerFrames anchors the markers inside the window on their own price or
// on the nearest bar: its high above, its low below, its close in the bar.
func (c *Chart) markerFrames(s *series, x, y func(float64) float64, start, end float64) []MarkerFrame {
	if len(s.markers) == 0 || s.empty() {
		return nil
	}

	return lo.FilterMap(s.markers, func(m Marker, _ int) (MarkerFrame, bool) {
		t := core.UnixSeconds(m.Time)
		if t < start || t > end {
			return MarkerFrame{}, false
		}

		var price float64
		if m.Price != nil {
			price = *m.Price
		} else {
			high, low, last, ok := s.anchorValues(t)
			if !ok {
				return MarkerFrame{}, false
			}
			switch m.Position {
			case MarkerAboveBar, MarkerAtPriceTop:
				price = high
			case MarkerBelowBar, MarkerAtPriceBottom:
				price = low
			case MarkerAtPriceMiddle:
				price = (high + low) / 2
			default:
				price = last
			}
		}
		return MarkerFrame{Marker: m, X: x(t), Y: y(price)}, true
	})
}

// anchorValues returns the high, low and close of the point nearest t.
// Single value series report their value three times.
func (s *series) anchorValues(t float64) (float64, float64, float64, bool) {
	if s.kind == KindCandlestick {
		candle, _, ok := s.candles.Nearest(t)
		return candle.High, candle.Low, candle.Close, ok
	}
	_, value, ok := s.nearestValue(t)
	return value, value, value, ok
}

func (c *Chart) crosshairFrame(point CrosshairPoint) *CrosshairFrame {
	frame := &CrosshairFrame{
		CrosshairPoint: point,
		TimeLabel:      ticks.FormatDateTime(point.Time),
	}

	if p, ok := c.panel(point.Panel); ok && point.HasPrice {
		if sc, ok := c.sideScale(p, point.Side); ok {
			frame.PriceLabel = axisLabel(point.Price, sc, c.sideFormat(p, point.Side), ticks.DefaultPriceFormat().Precision)
		}
	}
	if c.options.Tooltip.Enabled {
		frame.Tooltip = c.tooltipLines(point)
	}
	return frame
}
