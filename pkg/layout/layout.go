// Package layout computes panel and axis rectangles for a viewport.
package layout

import (
	"math"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/samber/lo"
)

const (
	minWeight          = 0.1
	minCollapsedHeight = 18.0
	minResizePixels    = 24.0
)

// Role distinguishes the main price panel from indicator panels
type Role int

const (
	RoleMain Role = iota
	RoleIndicator
)

// AxisHit tells which price axis strip an x coordinate falls in
type AxisHit int

const (
	AxisNone AxisHit = iota
	AxisLeft
	AxisRight
)

// Viewport is the drawable area in pixels
type Viewport struct {
	Width  float64
	Height float64
}

// Empty reports whether the viewport has no area
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Style carries the sizing constants the layout depends on
type Style struct {
	Padding           float64
	AxisHeight        float64
	PriceAxisWidth    float64
	HistogramRatio    float64
	ToolbarHeight     float64
	TimeAxisVisible   bool
	TimeAxisMinHeight float64
	LeftAxisMinWidth  float64
	RightAxisMinWidth float64
}

// CollapsedHeight is the fixed height of a collapsed panel
func (s Style) CollapsedHeight() float64 {
	return math.Max(s.ToolbarHeight, minCollapsedHeight)
}

// TimeAxisHeight is the height of one time axis strip, 0 when hidden
func (s Style) TimeAxisHeight() float64 {
	if !s.TimeAxisVisible {
		return 0
	}
	return math.Max(s.AxisHeight, s.TimeAxisMinHeight)
}

// MinResizePixels is the smallest height a drag may leave a panel with
func (s Style) MinResizePixels() float64 {
	return math.Max(s.ToolbarHeight, minResizePixels)
}

// PanelSpec is the layout relevant state of one panel
type PanelSpec struct {
	ID             int
	Group          int
	Role           Role
	Weight         float64
	Collapsed      bool
	ContentVisible bool
	LeftAxis       bool
	RightAxis      bool
	Histogram      bool
}

// PanelLayout is the computed geometry of one panel
type PanelLayout struct {
	ID             int
	Group          int
	Role           Role
	ContentVisible bool
	Collapsed      bool

	Top    float64
	Bottom float64
	Height float64

	PlotLeft  float64
	PlotRight float64
	PlotWidth float64

	MainTop    float64
	MainBottom float64
	MainHeight float64

	HistTop    float64
	HistBottom float64
	HistHeight float64

	AxisLeft  float64
	AxisRight float64
}

// Contains reports whether y is inside the panel
func (p PanelLayout) Contains(y float64) bool {
	return y >= p.Top && y <= p.Bottom
}

// InMain reports whether y is inside the candle/line region
func (p PanelLayout) InMain(y float64) bool {
	return y >= p.MainTop && y <= p.MainBottom
}

// InHistogram reports whether y is inside the histogram strip
func (p PanelLayout) InHistogram(y float64) bool {
	return p.HistHeight > 0 && y >= p.HistTop && y <= p.HistBottom
}

// InPlot reports whether x is between the price axes
func (p PanelLayout) InPlot(x float64) bool {
	return x >= p.PlotLeft && x <= p.PlotRight
}

// AxisAt tells which price axis strip x falls in
func (p PanelLayout) AxisAt(x float64) AxisHit {
	switch {
	case x < p.PlotLeft:
		return AxisLeft
	case x > p.PlotRight:
		return AxisRight
	default:
		return AxisNone
	}
}

// TimeAxisLayout is the geometry of a group's time axis strip
type TimeAxisLayout struct {
	Group     int
	Top       float64
	Bottom    float64
	Height    float64
	PlotLeft  float64
	PlotRight float64
	PlotWidth float64
	AxisLeft  float64
	AxisRight float64
}

// Contains reports whether y is inside the strip
func (a TimeAxisLayout) Contains(y float64) bool {
	return y >= a.Top && y <= a.Bottom
}

// ChartLayout is the full geometry for one viewport
type ChartLayout struct {
	Panels     []PanelLayout
	TimeAxes   []TimeAxisLayout
	Width      float64
	Height     float64
	Padding    float64
	UnitHeight float64
}

// UnitHeight returns the pixels per weight unit for panels in viewport height
func UnitHeight(panels []PanelSpec, height float64, style Style) float64 {
	groups := lo.Uniq(lo.Map(panels, func(p PanelSpec, _ int) int { return p.Group }))

	var collapsed, weight float64
	for _, panel := range panels {
		if panel.Collapsed {
			collapsed += style.CollapsedHeight()
			continue
		}
		weight += math.Max(panel.Weight, minWeight)
	}
	if weight <= 0 {
		return 0
	}

	available := height - style.Padding*2 - style.TimeAxisHeight()*float64(len(groups)) - collapsed
	return math.Max(available, 1) / weight
}

// Compute lays panels out top to bottom, groups in order of first appearance
// and each group followed by its time axis strip.
func Compute(panels []PanelSpec, viewport Viewport, style Style) *ChartLayout {
	out := &ChartLayout{
		Width:      viewport.Width,
		Height:     viewport.Height,
		Padding:    style.Padding,
		UnitHeight: UnitHeight(panels, viewport.Height, style),
	}

	axisHeight := style.TimeAxisHeight()
	histRatio := math.Min(math.Max(style.HistogramRatio, 0), 1)
	groups := lo.Uniq(lo.Map(panels, func(p PanelSpec, _ int) int { return p.Group }))

	cursor := style.Padding
	for _, group := range groups {
		members := lo.Filter(panels, func(p PanelSpec, _ int) bool { return p.Group == group })

		var leftWidth, rightWidth float64
		if lo.SomeBy(members, func(p PanelSpec) bool { return p.LeftAxis }) {
			leftWidth = math.Max(style.PriceAxisWidth, style.LeftAxisMinWidth)
		}
		if lo.SomeBy(members, func(p PanelSpec) bool { return p.RightAxis }) {
			rightWidth = math.Max(style.PriceAxisWidth, style.RightAxisMinWidth)
		}

		plotLeft := style.Padding + leftWidth
		plotRight := math.Max(viewport.Width-style.Padding-rightWidth, plotLeft+1)
		axisLeft := style.Padding
		axisRight := math.Max(viewport.Width-style.Padding, plotRight+1)

		for _, panel := range members {
			height := style.CollapsedHeight()
			if !panel.Collapsed {
				height = math.Max(math.Max(panel.Weight, minWeight)*out.UnitHeight, 1)
			}

			var hist float64
			if panel.Histogram && !panel.Collapsed {
				hist = math.Min(height*histRatio, height)
			}

			top := cursor
			bottom := top + height
			mainBottom := bottom - hist

			out.Panels = append(out.Panels, PanelLayout{
				ID:             panel.ID,
				Group:          panel.Group,
				Role:           panel.Role,
				ContentVisible: panel.ContentVisible,
				Collapsed:      panel.Collapsed,
				Top:            top,
				Bottom:         bottom,
				Height:         height,
				PlotLeft:       plotLeft,
				PlotRight:      plotRight,
				PlotWidth:      plotRight - plotLeft,
				MainTop:        top,
				MainBottom:     mainBottom,
				MainHeight:     mainBottom - top,
				HistTop:        mainBottom,
				HistBottom:     bottom,
				HistHeight:     hist,
				AxisLeft:       axisLeft,
				AxisRight:      axisRight,
			})
			cursor = bottom
		}

		if axisHeight > 0 {
			out.TimeAxes = append(out.TimeAxes, TimeAxisLayout{
				Group:     group,
				Top:       cursor,
				Bottom:    cursor + axisHeight,
				Height:    axisHeight,
				PlotLeft:  plotLeft,
				PlotRight: plotRight,
				PlotWidth: plotRight - plotLeft,
				AxisLeft:  axisLeft,
				AxisRight: axisRight,
			})
			cursor += axisHeight
		}
	}

	return out
}

// Main returns the main panel, or the first panel when there is none
func (l *ChartLayout) Main() (PanelLayout, bool) {
	if panel, ok := lo.Find(l.Panels, func(p PanelLayout) bool { return p.Role == RoleMain }); ok {
		return panel, true
	}
	if len(l.Panels) > 0 {
		return l.Panels[0], true
	}
	return PanelLayout{}, false
}

// Valid reports whether the layout has a drawable main plot
func (l *ChartLayout) Valid() bool {
	if l.Width <= 0 || l.Height <= 0 {
		return false
	}
	main, ok := l.Main()
	return ok && main.PlotWidth > 0 && main.Height > 0
}

// Panel returns the layout of the panel with the given id
func (l *ChartLayout) Panel(id int) (PanelLayout, bool) {
	return lo.Find(l.Panels, func(p PanelLayout) bool { return p.ID == id })
}

// PanelAt returns the panel containing y
func (l *ChartLayout) PanelAt(y float64) (PanelLayout, bool) {
	return lo.Find(l.Panels, func(p PanelLayout) bool { return p.Contains(y) })
}

// TimeAxis returns the time axis strip of a group
func (l *ChartLayout) TimeAxis(group int) (TimeAxisLayout, bool) {
	return lo.Find(l.TimeAxes, func(a TimeAxisLayout) bool { return a.Group == group })
}

// TimeAxisAt returns the time axis strip containing y
func (l *ChartLayout) TimeAxisAt(y float64) (TimeAxisLayout, bool) {
	return lo.Find(l.TimeAxes, func(a TimeAxisLayout) bool { return a.Contains(y) })
}

// InTimeAxis reports whether y is inside any time axis strip
func (l *ChartLayout) InTimeAxis(y float64) bool {
	_, ok := l.TimeAxisAt(y)
	return ok
}

// AxisSide tells which price axis of a panel x falls in
func (l *ChartLayout) AxisSide(panelID int, x float64) AxisHit {
	panel, ok := l.Panel(panelID)
	if !ok {
		return AxisNone
	}
	return panel.AxisAt(x)
}

// Adjacent reports whether lower directly follows upper in the same group
func (l *ChartLayout) Adjacent(upper, lower int) bool {
	for i := 1; i < len(l.Panels); i++ {
		a, b := l.Panels[i-1], l.Panels[i]
		if a.ID == upper && b.ID == lower {
			return a.Group == b.Group
		}
	}
	return false
}

// ResizeHandle identifies the boundary between two adjacent panels
type ResizeHandle struct {
	Upper int
	Lower int
}

// ResizeHandleAt returns the handle whose boundary is within threshold of y
func (l *ChartLayout) ResizeHandleAt(y, threshold float64) (ResizeHandle, bool) {
	for i := 1; i < len(l.Panels); i++ {
		upper, lower := l.Panels[i-1], l.Panels[i]
		if upper.Group != lower.Group {
			continue
		}
		if math.Abs(y-upper.Bottom) <= threshold {
			return ResizeHandle{Upper: upper.ID, Lower: lower.ID}, true
		}
	}
	return ResizeHandle{}, false
}

// ResizeWeights moves deltaPixels worth of weight from lower to upper. Neither
// panel may shrink below minPixels. It reports false when nothing changes.
func ResizeWeights(upper, lower, deltaPixels, unitHeight, minPixels float64) (float64, float64, bool) {
	if unitHeight <= 0 || math.Abs(deltaPixels) <= core.Epsilon {
		return upper, lower, false
	}

	floor := math.Max(minPixels/unitHeight, minWeight)
	delta := deltaPixels / unitHeight
	upper = math.Max(upper, minWeight)
	lower = math.Max(lower, minWeight)

	if upper+delta < floor {
		delta = floor - upper
	}
	if lower-delta < floor {
		delta = lower - floor
	}

	return math.Max(upper+delta, minWeight), math.Max(lower-delta, minWeight), true
}
