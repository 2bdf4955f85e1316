package chart

import (
	"math"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/raykavin/chartcore/pkg/scale"
	"github.com/raykavin/chartcore/pkg/transform"
)

const (
	wheelPixelsPerStep = 40.0
	minGestureFactor   = 0.3
	maxGestureFactor   = 3.0
	resizeHandleReach  = 4.0
)

// PanResult tells the caller what a drag changed. PriceAxisZoomed is set
// when a main panel price axis was zoomed; Side names it.
type PanResult struct {
	PriceAxisZoomed bool
	Side            Side
	TimePanned      bool
}

// target is what a pointer position addresses in a layout
type target struct {
	panel      *panel
	geometry   layout.PanelLayout
	group      *timeGroup
	axis       layout.AxisHit
	inTimeAxis bool

	plotLeft  float64
	plotWidth float64
}

// resolve lays the chart out for vp and returns the layout when it can be
// interacted with.
func (c *Chart) resolve(vp layout.Viewport) (*layout.ChartLayout, bool) {
	if vp.Empty() {
		return nil, false
	}
	l := c.Layout(vp)
	if !l.Valid() {
		return nil, false
	}
	c.syncPlotWidths(l)
	return l, true
}

// hitTest finds the panel, group and axis strip under (x, y). Positions
// outside every panel fall back to the main panel.
func (c *Chart) hitTest(l *layout.ChartLayout, x, y float64) (target, bool) {
	var t target

	if axis, ok := l.TimeAxisAt(y); ok {
		t.inTimeAxis = true
		t.plotLeft, t.plotWidth = axis.PlotLeft, axis.PlotWidth
		t.group, _ = c.group(GroupID(axis.Group))
		if pl, found := lastPanelOfGroup(l, axis.Group); found {
			t.geometry = pl
			t.panel, _ = c.panel(PanelID(pl.ID))
		}
	} else {
		pl, ok := l.PanelAt(y)
		if !ok {
			if pl, ok = l.Main(); !ok {
				return t, false
			}
		}
		t.geometry = pl
		t.panel, _ = c.panel(PanelID(pl.ID))
		t.plotLeft, t.plotWidth = pl.PlotLeft, pl.PlotWidth
		if t.panel != nil {
			t.group, _ = c.group(t.panel.group)
		}
		t.axis = pl.AxisAt(x)
	}

	return t, t.panel != nil && t.group != nil && t.plotWidth > 0
}

func lastPanelOfGroup(l *layout.ChartLayout, group int) (layout.PanelLayout, bool) {
	for i := len(l.Panels) - 1; i >= 0; i-- {
		if l.Panels[i].Group == group {
			return l.Panels[i], true
		}
	}
	return layout.PanelLayout{}, false
}

// xFraction is the position of x across the plot, in [0,1]
func (t target) xFraction(x float64) float64 {
	return core.Clamp((x-t.plotLeft)/t.plotWidth, 0, 1)
}

// yFraction is the position of y down the panel's main region, in [0,1]
func (t target) yFraction(y float64) float64 {
	return core.Clamp((y-t.geometry.MainTop)/math.Max(t.geometry.MainHeight, 1), 0, 1)
}

// side is the price axis the pointer addresses
func (c *Chart) side(t target, x float64) Side {
	return c.sideForPosition(x, t.geometry, t.panel)
}

// clampRight applies the right edge rule when the right bar stays on scroll
func (c *Chart) clampRight(g *timeGroup) {
	if c.options.TimeScale.RightBarStaysOnScroll {
		g.scale.ClampRightEdge()
	}
}

func (c *Chart) zoomTime(t target, factor, anchor float64) {
	t.group.scale.ZoomByFactor(factor, anchor, t.plotWidth)
	c.clampRight(t.group)
}

func (c *Chart) panTime(t target, dx float64) {
	ts := t.group.scale
	ts.PanBy(-dx / t.plotWidth * ts.VisibleRange())
	c.clampRight(t.group)
}

// modeBase returns the transform of one axis of a panel for its current window
func (c *Chart) modeBase(p *panel, side Side) (transform.Mode, float64) {
	if c.rsi != nil && c.rsi.panel == p.id {
		return transform.Normal, 1
	}
	base := 1.0
	if g, ok := c.group(p.group); ok {
		_, _, base, _ = c.dataRange(p, side, g.scale.Start, g.scale.End)
	}
	return c.scaleOptions(p, side).Mode, base
}

// zoomPrice scales one axis of a panel around anchor and stops auto scaling
func (c *Chart) zoomPrice(p *panel, side Side, factor, anchor float64) {
	mode, base := c.modeBase(p, side)
	c.stateFor(p, side).Zoom(factor, anchor, mode, base)
	c.disableAutoScale(p, side)
}

// panPrice shifts one axis of a panel by dy pixels of a region height pixels tall
func (c *Chart) panPrice(p *panel, side Side, dy, height float64) {
	mode, base := c.modeBase(p, side)
	state := c.stateFor(p, side)
	state.Pan(dy/math.Max(height, 1)*state.TransformedRange(mode, base), mode, base)
	c.disableAutoScale(p, side)
}

// PanByPixels applies a mouse drag of (dx, dy) with the pointer at (x, y).
// Dragging a time axis zooms time, dragging a price axis zooms price and
// dragging inside a plot pans.
func (c *Chart) PanByPixels(dx, dy, x, y float64, vp layout.Viewport) PanResult {
	var result PanResult
	if c.tracking {
		return result
	}
	l, ok := c.resolve(vp)
	if !ok {
		return result
	}
	t, ok := c.hitTest(l, x, y)
	if !ok {
		return result
	}

	handle := c.options.HandleScale
	scroll := c.options.HandleScroll
	sensitivity := c.options.Sensitivity

	if t.inTimeAxis && handle.AxisPressedMouseMoveTime && math.Abs(dx) > core.Epsilon {
		c.zoomTime(t, scale.ZoomFactor(-dx, sensitivity.AxisDragTime), t.xFraction(x))
		return result
	}

	if t.axis != layout.AxisNone && handle.AxisPressedMouseMovePrice && math.Abs(dy) > core.Epsilon {
		side := c.side(t, x)
		c.zoomPrice(t.panel, side, scale.ZoomFactor(dy, sensitivity.AxisDragPrice), t.yFraction(y))
		if t.panel.role == layout.RoleMain {
			result.PriceAxisZoomed, result.Side = true, side
		}
		return result
	}

	if scroll.PressedMouseMove && math.Abs(dx) > core.Epsilon && !(t.inTimeAxis && handle.AxisPressedMouseMoveTime) {
		c.panTime(t, dx)
		result.TimePanned = true
	}

	if scroll.PressedMouseMove && scroll.VertTouchDrag && math.Abs(dy) > core.Epsilon && !t.inTimeAxis {
		c.panPrice(t.panel, c.side(t, x), dy, t.geometry.MainHeight)
	}

	return result
}

// PanByPixelsTouch applies a touch drag. It reports whether time was panned.
func (c *Chart) PanByPixelsTouch(dx, dy, x, y float64, vp layout.Viewport) bool {
	if c.tracking {
		return false
	}
	l, ok := c.resolve(vp)
	if !ok {
		return false
	}
	t, ok := c.hitTest(l, x, y)
	if !ok {
		return false
	}

	var panned bool
	scroll := c.options.HandleScroll
	if scroll.HorzTouchDrag && math.Abs(dx) > core.Epsilon {
		c.panTime(t, dx)
		panned = true
	}
	if scroll.VertTouchDrag && math.Abs(dy) > core.Epsilon && !t.inTimeAxis {
		c.panPrice(t.panel, c.side(t, x), dy, t.geometry.MainHeight)
	}
	return panned
}

// gestureFactor converts a wheel or pinch delta into a bounded zoom factor
func gestureFactor(delta, sensitivity float64) float64 {
	return core.Clamp(scale.ZoomFactor(delta, sensitivity), minGestureFactor, maxGestureFactor)
}

// zoomAt zooms whatever (x, y) addresses. It reports the main panel side
// when a price axis was zoomed.
func (c *Chart) zoomAt(t target, factor, x, y float64) (Side, bool) {
	if t.inTimeAxis || t.axis == layout.AxisNone {
		c.zoomTime(t, factor, t.xFraction(x))
		return 0, false
	}

	side := SideRight
	if t.axis == layout.AxisLeft {
		side = SideLeft
	}
	c.zoomPrice(t.panel, side, factor, t.yFraction(y))
	return side, t.panel.role == layout.RoleMain
}

// ZoomByDelta applies a wheel step. With wheel zoom disabled the wheel pans
// time instead, when wheel scrolling is allowed.
func (c *Chart) ZoomByDelta(delta, x, y float64, vp layout.Viewport) (Side, bool) {
	if c.tracking {
		return 0, false
	}
	l, ok := c.resolve(vp)
	if !ok {
		return 0, false
	}
	t, ok := c.hitTest(l, x, y)
	if !ok {
		return 0, false
	}

	if !c.options.HandleScale.MouseWheel {
		if c.options.HandleScroll.MouseWheel {
			c.panTime(t, delta*wheelPixelsPerStep)
		}
		return 0, false
	}

	return c.zoomAt(t, gestureFactor(delta, c.options.Sensitivity.Wheel), x, y)
}

// ZoomByPinch applies a pinch step
func (c *Chart) ZoomByPinch(delta, x, y float64, vp layout.Viewport) (Side, bool) {
	if c.tracking || !c.options.HandleScale.Pinch {
		return 0, false
	}
	l, ok := c.resolve(vp)
	if !ok {
		return 0, false
	}
	t, ok := c.hitTest(l, x, y)
	if !ok {
		return 0, false
	}
	return c.zoomAt(t, gestureFactor(delta, c.options.Sensitivity.Pinch), x, y)
}

// DoubleClick resets the axis under the pointer: the time axis fits the
// content and a price axis returns to auto scale.
func (c *Chart) DoubleClick(x, y float64, vp layout.Viewport) {
	l, ok := c.resolve(vp)
	if !ok {
		return
	}
	t, ok := c.hitTest(l, x, y)
	if !ok {
		return
	}

	handle := c.options.HandleScale
	if t.inTimeAxis && handle.AxisDoubleClickResetTime {
		t.group.scale.FitContent(c.groupTimes(t.group), t.plotWidth)
		return
	}
	if !handle.AxisDoubleClickResetPrice {
		return
	}
	switch t.axis {
	case layout.AxisLeft:
		_ = c.ResetPanelAutoScale(t.panel.id, SideLeft)
	case layout.AxisRight:
		_ = c.ResetPanelAutoScale(t.panel.id, SideRight)
	}
}

// ResizeHandle is the boundary between two adjacent panels
type ResizeHandle struct {
	Upper PanelID
	Lower PanelID
}

// PanelResizeHandleAt returns the panel boundary within reach of y
func (c *Chart) PanelResizeHandleAt(y float64, vp layout.Viewport) (ResizeHandle, bool) {
	if vp.Empty() {
		return ResizeHandle{}, false
	}
	handle, ok := c.Layout(vp).ResizeHandleAt(y, resizeHandleReach)
	if !ok {
		return ResizeHandle{}, false
	}
	return ResizeHandle{Upper: PanelID(handle.Upper), Lower: PanelID(handle.Lower)}, true
}

// ResizePanelsByPixels moves dy pixels of height from the lower panel of a
// handle to the upper one. It reports whether anything changed.
func (c *Chart) ResizePanelsByPixels(handle ResizeHandle, dy float64, vp layout.Viewport) bool {
	if math.Abs(dy) <= core.Epsilon || vp.Empty() {
		return false
	}
	upper, ok := c.panel(handle.Upper)
	if !ok {
		return false
	}
	lower, ok := c.panel(handle.Lower)
	if !ok || upper.collapsed || lower.collapsed {
		return false
	}

	l := c.Layout(vp)
	if !l.Adjacent(int(upper.id), int(lower.id)) {
		return false
	}

	style := c.options.layoutStyle()
	unit := layout.UnitHeight(c.layoutSpecs(), vp.Height, style)
	up, low, changed := layout.ResizeWeights(upper.weight, lower.weight, dy, unit, style.MinResizePixels())
	if !changed {
		return false
	}
	upper.weight, lower.weight = up, low
	return true
}

// PanelAt returns the panel under y
func (c *Chart) PanelAt(y float64, vp layout.Viewport) (PanelID, bool) {
	if vp.Empty() {
		return 0, false
	}
	pl, ok := c.Layout(vp).PanelAt(y)
	if !ok {
		return 0, false
	}
	return PanelID(pl.ID), true
}
