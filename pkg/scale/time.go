package scale

import (
	"math"
	"slices"

	"github.com/raykavin/chartcore/pkg/core"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultMaxBarSpacing bounds bar spacing when no maximum is configured
	DefaultMaxBarSpacing = 40.0

	panExtraFraction = 0.25
	minZoomFraction  = 1.0 / 200
	absMinBarSpacing = 0.1
	minSensitivity   = 0.0001
)

// TimeScale is the horizontal axis state shared by the panels of a time
// scale group. Times are unix seconds.
type TimeScale struct {
	Min   float64 // earliest data time
	Max   float64 // latest data time
	Start float64 // visible window start
	End   float64 // visible window end

	BarSpacing    float64 // pixels per bar
	MinBarSpacing float64
	MaxBarSpacing float64 // 0 means unbounded

	FixLeftEdge  bool
	FixRightEdge bool

	RightOffset       float64 // bars
	RightOffsetPixels float64 // pixels, takes precedence when positive

	barTime float64
}

// NewTimeScale returns a time scale with the default window [0,1]
func NewTimeScale() *TimeScale {
	ts := &TimeScale{BarSpacing: 6, MinBarSpacing: 0.5}
	ts.resetWindow()
	return ts
}

// resetWindow restores the data derived fields. Spacing, offset and edge
// settings survive.
func (ts *TimeScale) resetWindow() {
	ts.Min, ts.Max = 0, 1
	ts.Start, ts.End = 0, 1
	ts.barTime = 1
}

// Recalculate derives the data bounds and bar time from times and resets the
// window to show everything. Without data the window returns to [0,1].
func (ts *TimeScale) Recalculate(times []float64) {
	if len(times) == 0 {
		ts.resetWindow()
		return
	}

	sorted := slices.Clone(times)
	slices.Sort(sorted)

	min, max := sorted[0], sorted[len(sorted)-1]
	if core.Degenerate(min, max) {
		max += 1
	}

	ts.barTime = averageBarTime(sorted)
	ts.Min = min
	ts.Max = max
	ts.Start = min
	ts.End = ts.MaxEnd()
}

// averageBarTime is the mean of the nonzero deltas of sorted times, at least 1
func averageBarTime(sorted []float64) float64 {
	if len(sorted) < 2 {
		return 1
	}

	deltas := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		if delta := sorted[i] - sorted[i-1]; delta > core.Epsilon {
			deltas = append(deltas, delta)
		}
	}
	if len(deltas) == 0 {
		return 1
	}

	return math.Max(stat.Mean(deltas, nil), 1)
}

// BarTime is the average duration of one bar, at least one second
func (ts *TimeScale) BarTime() float64 {
	return math.Max(ts.barTime, 1)
}

// VisibleRange is the window length, at least one second
func (ts *TimeScale) VisibleRange() float64 {
	return math.Max(ts.End-ts.Start, 1)
}

// MaxEnd is the latest time the window may end at before the pan allowance
func (ts *TimeScale) MaxEnd() float64 {
	return ts.Max + ts.EffectiveRightOffset()*ts.BarTime()
}

// EffectiveRightOffset is the right offset in bars
func (ts *TimeScale) EffectiveRightOffset() float64 {
	if ts.RightOffsetPixels > 0 {
		return math.Max(ts.RightOffsetPixels/math.Max(ts.BarSpacing, 1), 0)
	}
	return ts.RightOffset
}

// SetRightOffset sets the offset in bars and clears the pixel offset
func (ts *TimeScale) SetRightOffset(bars float64) {
	ts.RightOffset = math.Max(bars, 0)
	ts.RightOffsetPixels = 0
}

// SetRightOffsetPixels sets the offset in pixels and clears the bar offset
func (ts *TimeScale) SetRightOffsetPixels(pixels float64) {
	ts.RightOffsetPixels = math.Max(pixels, 0)
	ts.RightOffset = 0
}

// SetBarSpacing stores spacing within the configured bounds
func (ts *TimeScale) SetBarSpacing(spacing float64) {
	value := math.Max(spacing, ts.MinBarSpacing)
	if ts.MaxBarSpacing > 0 {
		value = math.Min(value, ts.MaxBarSpacing)
	}
	ts.BarSpacing = value
}

func (ts *TimeScale) SetMinBarSpacing(value float64) {
	ts.MinBarSpacing = math.Max(value, absMinBarSpacing)
	ts.SetBarSpacing(ts.BarSpacing)
}

func (ts *TimeScale) SetMaxBarSpacing(value float64) {
	ts.MaxBarSpacing = math.Max(value, 0)
	ts.SetBarSpacing(ts.BarSpacing)
}

// SetFixLeftEdge forbids scrolling before the first bar
func (ts *TimeScale) SetFixLeftEdge(enabled bool) {
	ts.FixLeftEdge = enabled
}

// SetFixRightEdge forbids scrolling past MaxEnd
func (ts *TimeScale) SetFixRightEdge(enabled bool) {
	ts.FixRightEdge = enabled
}

// maxSpacing is MaxBarSpacing, or DefaultMaxBarSpacing when unbounded
func (ts *TimeScale) maxSpacing() float64 {
	if ts.MaxBarSpacing > 0 {
		return ts.MaxBarSpacing
	}
	return DefaultMaxBarSpacing
}

// PanLimits returns the interval a window of length span must stay inside
func (ts *TimeScale) PanLimits(span, maxEnd float64) (float64, float64) {
	extra := span * panExtraFraction

	lo := ts.Min - extra
	if ts.FixLeftEdge {
		lo = ts.Min
	}

	hi := maxEnd + extra
	if ts.FixRightEdge {
		hi = maxEnd
	}

	return lo, hi
}

// MaxWindow is the longest window that fits inside its own pan limits. Each
// free edge lets the limits grow by a quarter of the window.
func (ts *TimeScale) MaxWindow() float64 {
	free := 0.0
	if !ts.FixLeftEdge {
		free += panExtraFraction
	}
	if !ts.FixRightEdge {
		free += panExtraFraction
	}
	return math.Max(ts.MaxEnd()-ts.Min, 1) / (1 - free)
}

// clampWindow moves [start, start+span] inside the pan limits. Spans longer
// than MaxWindow are shortened first.
func (ts *TimeScale) clampWindow(start, span float64) (float64, float64) {
	span = math.Min(span, ts.MaxWindow())
	lo, hi := ts.PanLimits(span, ts.MaxEnd())
	end := start + span
	if start < lo {
		start = lo
		end = start + span
	}
	if end > hi {
		end = hi
		start = end - span
	}
	return start, end
}

// PanBy shifts the window by delta seconds
func (ts *TimeScale) PanBy(delta float64) {
	ts.Start, ts.End = ts.clampWindow(ts.Start+delta, ts.VisibleRange())
}

// ZoomBy scales the window by factor around the fractional anchor position.
// The resulting range stays within [1/200 of the data span, the data span].
func (ts *TimeScale) ZoomBy(factor, anchor float64) {
	span := ts.VisibleRange()
	maxRange := math.Max(ts.MaxEnd()-ts.Min, 1)
	minRange := math.Max(maxRange*minZoomFraction, 1)

	newSpan := core.Clamp(span*factor, minRange, maxRange)
	anchorTime := ts.Start + anchor*span
	ts.Start, ts.End = ts.clampWindow(anchorTime-anchor*newSpan, newSpan)
}

// ApplyBarSpacing re-derives the window length from the bar spacing and the
// plot width, holding the time at anchor within the previous window.
func (ts *TimeScale) ApplyBarSpacing(plotWidth, anchor float64) {
	if plotWidth <= 0 {
		return
	}

	spacing := math.Max(ts.BarSpacing, ts.MinBarSpacing)
	visibleBars := math.Max(plotWidth/spacing, 1)
	span := ts.BarTime() * visibleBars

	anchor = core.Clamp(anchor, 0, 1)
	anchorTime := ts.Start + anchor*ts.VisibleRange()

	start, end := ts.clampWindow(anchorTime-anchor*span, span)
	ts.Start = start
	ts.End = math.Max(end, start+1)
}

// ZoomByFactor divides the bar spacing by factor and re-derives the window
// around anchor.
func (ts *TimeScale) ZoomByFactor(factor, anchor, plotWidth float64) {
	minSpacing := math.Max(ts.MinBarSpacing, absMinBarSpacing)
	ts.SetBarSpacing(core.Clamp(ts.BarSpacing/factor, minSpacing, ts.maxSpacing()))
	ts.ApplyBarSpacing(plotWidth, anchor)
}

// FitContent recalculates from times and picks the bar spacing that shows
// every bar in plotWidth.
func (ts *TimeScale) FitContent(times []float64, plotWidth float64) {
	ts.Recalculate(times)
	if plotWidth > 0 {
		totalBars := math.Max((ts.Max-ts.Min)/ts.BarTime(), 1)
		ts.SetBarSpacing(core.Clamp(plotWidth/totalBars, ts.MinBarSpacing, ts.maxSpacing()))
	}
	ts.ApplyBarSpacing(plotWidth, 1)
}

// IsPinnedRight reports whether the window ends within one bar of MaxEnd
func (ts *TimeScale) IsPinnedRight() bool {
	return math.Abs(ts.End-ts.MaxEnd()) <= ts.BarTime()
}

// AfterDataUpdate recalculates from times while keeping the user's window.
// When follow is set and the window was pinned to the latest bar it slides to
// the new MaxEnd; otherwise the previous end time is kept.
func (ts *TimeScale) AfterDataUpdate(times []float64, plotWidth float64, follow bool) {
	prevEnd := ts.End
	prevRange := ts.VisibleRange()
	wasPinned := ts.IsPinnedRight()

	ts.Recalculate(times)
	if plotWidth <= 0 {
		return
	}

	end := prevEnd
	if wasPinned && follow {
		end = ts.MaxEnd()
	}

	start, end := ts.clampWindow(end-prevRange, prevRange)
	ts.Start = start
	ts.End = math.Max(end, start+1)
}

// ClampRightEdge pulls the window back so it never ends after MaxEnd
func (ts *TimeScale) ClampRightEdge() {
	maxEnd := ts.MaxEnd()
	span := ts.VisibleRange()
	if ts.End > maxEnd {
		ts.End = maxEnd
		ts.Start = maxEnd - span
	}
}

// ZoomFactor converts a signed gesture delta into a zoom factor
// (1+sensitivity)^delta with sensitivity at least 0.0001.
func ZoomFactor(delta, sensitivity float64) float64 {
	return math.Pow(1+math.Max(sensitivity, minSensitivity), delta)
}

// Bars is the number of bars spanned by the current window
func (ts *TimeScale) Bars() float64 {
	return ts.VisibleRange() / ts.BarTime()
}
