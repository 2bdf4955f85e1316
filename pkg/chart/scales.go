package chart

import (
	"fmt"
	"math"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/raykavin/chartcore/pkg/scale"
	"github.com/raykavin/chartcore/pkg/transform"
	"github.com/samber/lo"
)

const (
	rsiFloor   = 0.0
	rsiCeiling = 100.0
)

// groupTimes collects the timestamps of every series drawn in the group
func (c *Chart) groupTimes(g *timeGroup) []float64 {
	var times []float64
	for _, s := range c.orderedSeries() {
		if p, ok := c.panel(s.panel); ok && p.group == g.id {
			times = append(times, s.times()...)
		}
	}
	if c.rsi != nil {
		if p, ok := c.panel(c.rsi.panel); ok && p.group == g.id {
			times = append(times, c.rsi.data.Times()...)
		}
	}
	return times
}

// follows reports whether a right pinned window slides with new bars
func (c *Chart) follows() bool {
	return c.options.TimeScale.RightBarStaysOnScroll && c.options.TimeScale.ShiftVisibleRangeOnNewBar
}

// recalculateAfterDataUpdate refreshes every time scale after a data change.
// A group receiving its first data shows the latest bars at the configured
// spacing; otherwise the user's window is kept.
func (c *Chart) recalculateAfterDataUpdate() {
	for _, g := range c.groups {
		times := c.groupTimes(g)
		if !g.hasData {
			g.scale.Recalculate(times)
			g.scale.ApplyBarSpacing(g.plotWidth, 1)
		} else {
			g.scale.AfterDataUpdate(times, g.plotWidth, c.follows())
		}
		g.hasData = len(times) > 0
	}
}

// TimeScale returns a copy of a group's time scale
func (c *Chart) TimeScale(id GroupID) (scale.TimeScale, bool) {
	g, ok := c.group(id)
	if !ok {
		return scale.TimeScale{}, false
	}
	return *g.scale, true
}

// VisibleRange returns the window of the default group
func (c *Chart) VisibleRange() (float64, float64) {
	ts := c.groups[0].scale
	return ts.Start, ts.End
}

// FitContent shows every bar of every group
func (c *Chart) FitContent() {
	for _, g := range c.groups {
		g.scale.FitContent(c.groupTimes(g), g.plotWidth)
	}
}

func (c *Chart) applyBarSpacing(anchor float64) {
	for _, g := range c.groups {
		g.scale.ApplyBarSpacing(g.plotWidth, anchor)
	}
}

// SetTimeScaleOptions replaces the time axis options and re-derives every window
func (c *Chart) SetTimeScaleOptions(options TimeScaleOptions) {
	c.options.TimeScale = options
	for _, g := range c.groups {
		c.configureTimeScale(g.scale)
	}
	c.applyBarSpacing(1)
}

// SetRightOffset reserves bars to the right of the last bar
func (c *Chart) SetRightOffset(bars float64) {
	c.options.TimeScale.RightOffset = math.Max(bars, 0)
	c.options.TimeScale.RightOffsetPixels = 0
	for _, g := range c.groups {
		g.scale.SetRightOffset(bars)
	}
	c.FitContent()
}

// SetRightOffsetPixels reserves pixels to the right of the last bar
func (c *Chart) SetRightOffsetPixels(pixels float64) {
	c.options.TimeScale.RightOffsetPixels = math.Max(pixels, 0)
	c.options.TimeScale.RightOffset = 0
	for _, g := range c.groups {
		g.scale.SetRightOffsetPixels(pixels)
	}
	c.FitContent()
}

// SetBarSpacing sets the pixels per bar
func (c *Chart) SetBarSpacing(spacing float64) {
	c.options.TimeScale.BarSpacing = spacing
	for _, g := range c.groups {
		g.scale.SetBarSpacing(spacing)
	}
	c.applyBarSpacing(1)
}

// SetMinBarSpacing sets the smallest allowed bar spacing
func (c *Chart) SetMinBarSpacing(spacing float64) {
	c.options.TimeScale.MinBarSpacing = spacing
	for _, g := range c.groups {
		g.scale.SetMinBarSpacing(spacing)
	}
	c.applyBarSpacing(1)
}

// SetMaxBarSpacing sets the largest allowed bar spacing, 0 for the default
func (c *Chart) SetMaxBarSpacing(spacing float64) {
	c.options.TimeScale.MaxBarSpacing = spacing
	for _, g := range c.groups {
		g.scale.SetMaxBarSpacing(spacing)
	}
	c.applyBarSpacing(1)
}

// SetFixLeftEdge forbids scrolling before the first bar
func (c *Chart) SetFixLeftEdge(enabled bool) {
	c.options.TimeScale.FixLeftEdge = enabled
	for _, g := range c.groups {
		g.scale.SetFixLeftEdge(enabled)
	}
	c.applyBarSpacing(1)
}

// SetFixRightEdge forbids scrolling past the last bar and its offset
func (c *Chart) SetFixRightEdge(enabled bool) {
	c.options.TimeScale.FixRightEdge = enabled
	for _, g := range c.groups {
		g.scale.SetFixRightEdge(enabled)
	}
	c.applyBarSpacing(1)
}

// SetUniformDistribution switches time ticks to a fixed stride
func (c *Chart) SetUniformDistribution(enabled bool) {
	c.options.TimeScale.UniformDistribution = enabled
}

// SetRightBarStaysOnScroll lets a right pinned window follow new bars,
// together with SetShiftVisibleRangeOnNewBar.
func (c *Chart) SetRightBarStaysOnScroll(enabled bool) {
	c.options.TimeScale.RightBarStaysOnScroll = enabled
}

// SetShiftVisibleRangeOnNewBar see SetRightBarStaysOnScroll
func (c *Chart) SetShiftVisibleRangeOnNewBar(enabled bool) {
	c.options.TimeScale.ShiftVisibleRangeOnNewBar = enabled
}

// SetLockVisibleTimeRangeOnResize keeps the window when the width changes
func (c *Chart) SetLockVisibleTimeRangeOnResize(enabled bool) {
	c.options.TimeScale.LockVisibleTimeRangeOnResize = enabled
}

// PriceScaleOptions returns the options of a main panel price axis
func (c *Chart) PriceScaleOptions(side Side) PriceScaleOptions {
	return *c.options.priceScale(side)
}

// SetPriceScaleOptions replaces the options of a main panel price axis
func (c *Chart) SetPriceScaleOptions(side Side, options PriceScaleOptions) {
	*c.options.priceScale(side) = options
	if p, ok := c.panel(c.MainPanel()); ok && options.AutoScale {
		p.state(side).ResetAutoScale()
	}
}

// SetPriceScaleMode selects the transform of a main panel price axis
func (c *Chart) SetPriceScaleMode(side Side, mode transform.Mode) {
	c.options.priceScale(side).Mode = mode
}

// SetPriceScaleAutoScale toggles tracking of a main panel price axis
func (c *Chart) SetPriceScaleAutoScale(side Side, enabled bool) {
	c.options.priceScale(side).AutoScale = enabled
	if p, ok := c.panel(c.MainPanel()); ok {
		p.state(side).Auto = enabled
	}
}

// SetPriceScaleVisible shows or hides a main panel price axis
func (c *Chart) SetPriceScaleVisible(side Side, visible bool) {
	c.options.priceScale(side).Visible = visible
}

// SetPriceScaleMargins sets the top and bottom margin fractions
func (c *Chart) SetPriceScaleMargins(side Side, margins transform.Margins) {
	c.options.priceScale(side).Margins = margins
}

// SetPriceScaleInvert flips a price axis upside down
func (c *Chart) SetPriceScaleInvert(side Side, invert bool) {
	c.options.priceScale(side).Invert = invert
}

// SetPriceScaleAlignLabels aligns the secondary axis ticks to the primary
func (c *Chart) SetPriceScaleAlignLabels(side Side, align bool) {
	c.options.priceScale(side).AlignLabels = align
}

// SetPriceScaleEnsureEdgeTicks forces ticks at the exact visible bounds
func (c *Chart) SetPriceScaleEnsureEdgeTicks(side Side, enabled bool) {
	c.options.priceScale(side).EnsureEdgeTickMarks = enabled
}

// SetPriceScaleMinimumWidth sets the narrowest width of a price axis
func (c *Chart) SetPriceScaleMinimumWidth(side Side, width float64) {
	c.options.priceScale(side).MinimumWidth = math.Max(width, 0)
}

// ResetAutoScale re-enables tracking on a main panel price axis
func (c *Chart) ResetAutoScale(side Side) {
	_ = c.ResetPanelAutoScale(c.MainPanel(), side)
}

// ResetPanelAutoScale re-enables tracking on one axis of a panel
func (c *Chart) ResetPanelAutoScale(id PanelID, side Side) error {
	p, ok := c.panel(id)
	if !ok {
		return fmt.Errorf("reset panel %d: %w", id, ErrUnknownPanel)
	}
	if c.rsi != nil && c.rsi.panel == id {
		c.rsi.state.ResetAutoScale()
		c.rsi.options.AutoScale = true
		return nil
	}
	p.state(side).ResetAutoScale()
	if p.role == layout.RoleMain {
		c.options.priceScale(side).AutoScale = true
	}
	return nil
}

// PriceScaleState returns a copy of a panel's scale state
func (c *Chart) PriceScaleState(id PanelID, side Side) (scale.PriceScaleState, bool) {
	if c.rsi != nil && c.rsi.panel == id {
		return c.rsi.state, true
	}
	p, ok := c.panel(id)
	if !ok {
		return scale.PriceScaleState{}, false
	}
	return *p.state(side), true
}

// scaleOptions resolves the options governing one axis of a panel. Indicator
// panels track their own auto flag.
func (c *Chart) scaleOptions(p *panel, side Side) PriceScaleOptions {
	if p.role == layout.RoleMain {
		return *c.options.priceScale(side)
	}
	if c.rsi != nil && c.rsi.panel == p.id {
		return c.rsi.options
	}
	options := DefaultPriceScaleOptions()
	options.AutoScale = p.state(side).Auto
	return options
}

// disableAutoScale records a manual pan or zoom on one axis of a panel
func (c *Chart) disableAutoScale(p *panel, side Side) {
	if p.role == layout.RoleMain {
		c.options.priceScale(side).AutoScale = false
	}
	if c.rsi != nil && c.rsi.panel == p.id {
		c.rsi.options.AutoScale = false
	}
}

// stateFor is the scale state one axis of a panel is drawn with
func (c *Chart) stateFor(p *panel, side Side) *scale.PriceScaleState {
	if c.rsi != nil && c.rsi.panel == p.id {
		return &c.rsi.state
	}
	return p.state(side)
}

// dataRange merges what the panel's series on side contribute inside the
// window and reports the base of the relative modes.
func (c *Chart) dataRange(p *panel, side Side, start, end float64) (min, max, base float64, ok bool) {
	base = 1
	baseTime := math.Inf(1)

	for _, s := range c.orderedSeries() {
		if s.panel != p.id || s.side != side {
			continue
		}
		if low, high, found := s.valueRange(start, end); found {
			min, max = mergeRange(min, max, ok, low, high)
			ok = true
		}
		if low, high, found := s.markerRange(start, end); found {
			min, max = mergeRange(min, max, ok, low, high)
			ok = true
		}
		if t, value, found := s.baseValue(start, end); found && t < baseTime {
			baseTime, base = t, value
		}
	}
	return min, max, base, ok
}

// resolveScale updates the scale state of one axis of a panel from the
// visible data and returns the mapping. It reports false when the axis has
// nothing to show.
func (c *Chart) resolveScale(p *panel, side Side, start, end float64) (transform.Scale, bool) {
	if !p.drawn() {
		return transform.Scale{}, false
	}
	if c.rsi != nil && c.rsi.panel == p.id {
		return c.resolveRSIScale(start, end)
	}

	min, max, base, ok := c.dataRange(p, side, start, end)
	if !ok {
		return transform.Scale{}, false
	}

	options := c.scaleOptions(p, side)
	state := p.state(side)
	state.Update(min, max, options.AutoScale, options.Mode, base)
	return state.Resolve(options.Mode, base, options.Invert, options.Margins), true
}

// resolveRSIScale keeps [0,100] inside the oscillator range
func (c *Chart) resolveRSIScale(start, end float64) (transform.Scale, bool) {
	rsi := c.rsi
	visible := rsi.data.Window(start, end)
	if len(visible) == 0 {
		return transform.Scale{}, false
	}

	values := lo.Map(visible, func(p core.LinePoint, _ int) float64 { return p.Value })
	min, max := scale.BoundedRange(lo.Min(values), lo.Max(values), rsiFloor, rsiCeiling)
	rsi.state.Update(min, max, rsi.options.AutoScale, transform.Normal, 1)
	return rsi.state.Resolve(transform.Normal, 1, rsi.options.Invert, rsi.options.Margins), true
}

// sideScale resolves the scale of one axis of a panel for its group window
func (c *Chart) sideScale(p *panel, side Side) (transform.Scale, bool) {
	g, ok := c.group(p.group)
	if !ok {
		return transform.Scale{}, false
	}
	return c.resolveScale(p, side, g.scale.Start, g.scale.End)
}

// primarySide is the side whose ticks the other axis aligns to
func (c *Chart) primarySide(p *panel) Side {
	if _, ok := c.sideScale(p, SideRight); ok {
		return SideRight
	}
	return SideLeft
}

// sideForPosition picks the price axis a pointer at x addresses: the axis
// strip under it, the nearer half of the plot when both axes are shown, or
// the only visible one.
func (c *Chart) sideForPosition(x float64, pl layout.PanelLayout, p *panel) Side {
	left := c.axisVisible(p, SideLeft)
	right := c.axisVisible(p, SideRight)

	switch {
	case left && x >= pl.AxisLeft && x < pl.PlotLeft:
		return SideLeft
	case right && x > pl.PlotRight && x <= pl.AxisRight:
		return SideRight
	case left && right:
		if x < pl.PlotLeft+pl.PlotWidth/2 {
			return SideLeft
		}
		return SideRight
	case right:
		return SideRight
	case left:
		return SideLeft
	}
	return SideRight
}

// syncPlotWidths stores the per group plot widths of a layout
func (c *Chart) syncPlotWidths(l *layout.ChartLayout) {
	for _, g := range c.groups {
		if width, ok := groupPlotWidth(l, g.id); ok {
			g.plotWidth = width
		}
	}
}

// groupPlotWidth reads the plot width of a group from its time axis strip,
// or from its first panel when the time axis is hidden.
func groupPlotWidth(l *layout.ChartLayout, id GroupID) (float64, bool) {
	if axis, ok := l.TimeAxis(int(id)); ok {
		return axis.PlotWidth, true
	}
	if panel, ok := lo.Find(l.Panels, func(p layout.PanelLayout) bool { return p.Group == int(id) }); ok {
		return panel.PlotWidth, true
	}
	return 0, false
}
