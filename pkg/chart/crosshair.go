package chart

import (
	"math"
	"strconv"

	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/raykavin/chartcore/pkg/ticks"
	"github.com/raykavin/chartcore/pkg/transform"
)

const tooltipInset = 8.0
const tooltipFollowGap = 12.0

// CrosshairPoint is the resolved crosshair position. X and Y are snapped
// when Snapped is set; Time and Price are the values under the crosshair.
type CrosshairPoint struct {
	X, Y        float64
	Time        float64
	Price       float64
	HasPrice    bool
	Panel       PanelID
	Side        Side
	Snapped     bool
	InHistogram bool
}

// SetCrosshair records the pointer position
func (c *Chart) SetCrosshair(x, y float64) {
	c.crosshair = &pointer{x: x, y: y}
}

// ClearCrosshair forgets the pointer position
func (c *Chart) ClearCrosshair() {
	c.crosshair = nil
}

// Crosshair resolves the pointer position into a crosshair for vp, snapping
// to the nearest OHLC value or series point according to the crosshair mode.
// It reports false when the crosshair is hidden or outside every plot.
func (c *Chart) Crosshair(vp layout.Viewport) (CrosshairPoint, bool) {
	if c.crosshair == nil || c.options.Crosshair.Mode == CrosshairHidden || vp.Empty() {
		return CrosshairPoint{}, false
	}
	l := c.Layout(vp)
	if !l.Valid() {
		return CrosshairPoint{}, false
	}
	return c.crosshairIn(l, c.crosshair.x, c.crosshair.y)
}

func (c *Chart) crosshairIn(l *layout.ChartLayout, x, y float64) (CrosshairPoint, bool) {
	pl, ok := l.PanelAt(y)
	if !ok || !pl.InPlot(x) || pl.Collapsed {
		return CrosshairPoint{}, false
	}
	p, ok := c.panel(PanelID(pl.ID))
	if !ok {
		return CrosshairPoint{}, false
	}
	g, ok := c.group(p.group)
	if !ok {
		return CrosshairPoint{}, false
	}

	start, end := g.scale.Start, g.scale.End
	side := c.sideForPosition(x, pl, p)
	point := CrosshairPoint{
		X:           x,
		Y:           y,
		Time:        transform.XToTime(x, start, end, pl.PlotLeft, pl.PlotWidth),
		Panel:       p.id,
		Side:        side,
		InHistogram: pl.InHistogram(y),
	}
	if !pl.InMain(y) || !p.drawn() {
		return point, true
	}

	sc, ok := c.resolveScale(p, side, start, end)
	if !ok {
		return point, true
	}
	point.Price = transform.YToPriceScaled(y, sc, pl.MainTop, pl.MainHeight)
	point.HasPrice = true

	snapTime, snapPrice, snapped := c.snap(p, side, point)
	if !snapped {
		return point, true
	}

	point.Snapped = true
	point.Time, point.Price = snapTime, snapPrice
	point.X = transform.TimeToX(snapTime, start, end, pl.PlotLeft, pl.PlotWidth)
	point.Y = transform.PriceToYScaled(snapPrice, sc, pl.MainTop, pl.MainHeight)
	return point, true
}

// snap picks, among the OHLC values of the primary candle nearest in time
// and the nearest points of the panel's series on side, the one closest in
// price to the cursor.
func (c *Chart) snap(p *panel, side Side, cursor CrosshairPoint) (float64, float64, bool) {
	snapOHLC, snapSeries := c.options.Crosshair.snapping()

	if c.rsi != nil && c.rsi.panel == p.id {
		if !snapSeries {
			return 0, 0, false
		}
		nearest, _, ok := c.rsi.data.Nearest(cursor.Time)
		return nearest.TimeKey(), nearest.Value, ok
	}

	var (
		bestTime, bestPrice float64
		found               bool
	)
	bestDist := math.Inf(1)
	consider := func(t, price float64) {
		if dist := math.Abs(cursor.Price - price); dist < bestDist {
			bestDist, bestTime, bestPrice, found = dist, t, price, true
		}
	}

	if snapOHLC {
		if primary, ok := c.primaryCandles(); ok && primary.panel == p.id && primary.side == side {
			if candle, _, ok := primary.candles.Nearest(cursor.Time); ok {
				for _, value := range candle.OHLC() {
					consider(candle.TimeKey(), value)
				}
			}
		}
	}

	if snapSeries {
		for _, s := range c.orderedSeries() {
			if s.panel != p.id || s.side != side || s.kind == KindCandlestick {
				continue
			}
			if c.options.Crosshair.DoNotSnapToHiddenSeries && s.empty() {
				continue
			}
			if t, value, ok := s.nearestValue(cursor.Time); ok {
				consider(t, value)
			}
		}
	}

	return bestTime, bestPrice, found
}

// Rect is an axis aligned rectangle in pixels
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) is inside the rectangle
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// TooltipHit is the tooltip icon rectangle drawn for a panel
type TooltipHit struct {
	Panel PanelID
	Rect  Rect
}

// SetTooltipHitBox stores the tooltip icon drawn by the last render pass.
// Input handlers read it on the next event, one frame late.
func (c *Chart) SetTooltipHitBox(hit *TooltipHit) {
	c.tooltip = hit
}

// TooltipHitAt returns the panel whose tooltip icon contains (x, y)
func (c *Chart) TooltipHitAt(x, y float64) (PanelID, bool) {
	if c.tooltip == nil || !c.tooltip.Rect.Contains(x, y) {
		return 0, false
	}
	return c.tooltip.Panel, true
}

// TooltipOrigin places a width x height tooltip box inside a plot. Follow
// keeps the box next to the pointer and flips it at the plot edges.
func TooltipOrigin(position TooltipPosition, plot layout.PanelLayout, x, y, width, height float64) (float64, float64) {
	left, right := plot.PlotLeft, plot.PlotRight
	top, bottom := plot.MainTop, plot.MainBottom

	switch position {
	case TooltipTopRight:
		return right - width - tooltipInset, top + tooltipInset
	case TooltipBottomLeft:
		return left + tooltipInset, bottom - height - tooltipInset
	case TooltipBottomRight:
		return right - width - tooltipInset, bottom - height - tooltipInset
	case TooltipFollow:
		boxX := x + tooltipFollowGap
		boxY := y - height - tooltipFollowGap
		if boxX+width > right {
			boxX = x - width - tooltipFollowGap
		}
		if boxY < top {
			boxY = y + tooltipFollowGap
		}
		return boxX, boxY
	default:
		return left + tooltipInset, top + tooltipInset
	}
}

// Tooltip renders the tooltip lines for the crosshair: the primary candle
// first, then one line per line or histogram series of the panel.
func (c *Chart) Tooltip(vp layout.Viewport) ([]string, bool) {
	if !c.options.Tooltip.Enabled {
		return nil, false
	}
	point, ok := c.Crosshair(vp)
	if !ok {
		return nil, false
	}
	lines := c.tooltipLines(point)
	return lines, len(lines) > 0
}

func (c *Chart) tooltipLines(point CrosshairPoint) []string {
	p, ok := c.panel(point.Panel)
	if !ok {
		return nil
	}

	var lines []string
	if primary, ok := c.primaryCandles(); ok && primary.panel == p.id {
		if candle, _, found := primary.candles.Nearest(point.Time); found {
			format := primary.options.PriceFormat
			mode := c.scaleOptions(p, primary.side).Mode
			lines = append(lines, ticks.FormatTooltip(c.options.Tooltip.Format, candle, format.Precision, format, mode))
		}
	}

	for _, s := range c.orderedSeries() {
		if s.panel != p.id || s.kind == KindCandlestick {
			continue
		}
		t, value, found := s.nearestValue(point.Time)
		if !found {
			continue
		}
		template := c.options.Tooltip.LineFormat
		if s.kind == KindHistogram {
			template = c.options.Tooltip.HistogramFormat
		}
		name := s.options.Title
		if name == "" {
			name = seriesName(s.id)
		}
		format := s.options.PriceFormat
		mode := c.scaleOptions(p, s.side).Mode
		lines = append(lines, ticks.FormatSeriesTooltip(template, name, t, value, format.Precision, format, mode))
	}

	return lines
}

func seriesName(id SeriesID) string {
	return "#" + strconv.Itoa(int(id))
}
