// Package scale holds the price and time axis state machines.
package scale

import (
	"math"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/transform"
)

const minTransformedRange = 1e-9

// PriceScaleState tracks the data and visible bounds of one price axis.
// Auto means the visible bounds follow the data bounds.
type PriceScaleState struct {
	DataMin float64
	DataMax float64
	ViewMin float64
	ViewMax float64
	Auto    bool
}

// NewPriceScaleState returns a [0,1] auto scaled state
func NewPriceScaleState() PriceScaleState {
	return PriceScaleState{DataMin: 0, DataMax: 1, ViewMin: 0, ViewMax: 1, Auto: true}
}

// Update stores the data bounds. With autoScale the view becomes the data
// bounds padded in transformed space; otherwise the view is left alone.
func (s *PriceScaleState) Update(dataMin, dataMax float64, autoScale bool, mode transform.Mode, base float64) {
	s.DataMin = dataMin
	s.DataMax = dataMax
	if !autoScale {
		s.Auto = false
		return
	}

	tMin, tMax := transform.ExpandRange(
		transform.Price(dataMin, mode, base),
		transform.Price(dataMax, mode, base),
	)
	s.ViewMin = transform.InversePrice(tMin, mode, base)
	s.ViewMax = transform.InversePrice(tMax, mode, base)
	s.Auto = true
}

// Pan shifts the view by delta transformed units
func (s *PriceScaleState) Pan(delta float64, mode transform.Mode, base float64) {
	switch mode {
	case transform.Logarithmic:
		tMin := transform.Price(s.ViewMin, mode, base) + delta
		tMax := transform.Price(s.ViewMax, mode, base) + delta
		s.setView(transform.InversePrice(tMin, mode, base), transform.InversePrice(tMax, mode, base))
	case transform.Percentage, transform.IndexedTo100:
		var raw float64
		if math.Abs(base) >= core.Epsilon {
			raw = delta * base / 100
		}
		s.setView(s.ViewMin+raw, s.ViewMax+raw)
	default:
		s.setView(s.ViewMin+delta, s.ViewMax+delta)
	}
}

// Zoom scales the transformed view range by factor while holding the value at
// anchor fixed. anchor 0 is the top of the axis and 1 the bottom; factor below
// 1 zooms in.
func (s *PriceScaleState) Zoom(factor, anchor float64, mode transform.Mode, base float64) {
	tMin := transform.Price(s.ViewMin, mode, base)
	tMax := transform.Price(s.ViewMax, mode, base)
	span := math.Max(tMax-tMin, minTransformedRange)
	anchorValue := tMax - anchor*span
	newSpan := math.Max(span*factor, minTransformedRange)

	tMax = anchorValue + anchor*newSpan
	tMin = tMax - newSpan
	s.setView(transform.InversePrice(tMin, mode, base), transform.InversePrice(tMax, mode, base))
}

// setView applies a manual view. Bounds that left the float range keep the
// previous view.
func (s *PriceScaleState) setView(viewMin, viewMax float64) {
	s.Auto = false
	if !core.Finite(viewMin) || !core.Finite(viewMax) || viewMax <= viewMin {
		return
	}
	s.ViewMin = viewMin
	s.ViewMax = viewMax
}

// ResetAutoScale re-enables tracking. The next Update recomputes the view.
func (s *PriceScaleState) ResetAutoScale() {
	s.Auto = true
}

// TransformedRange is the absolute visible range in transformed units
func (s PriceScaleState) TransformedRange(mode transform.Mode, base float64) float64 {
	tMin := transform.Price(s.ViewMin, mode, base)
	tMax := transform.Price(s.ViewMax, mode, base)
	return math.Max(math.Abs(tMax-tMin), minTransformedRange)
}

// Resolve returns the mapping scale for the current view
func (s PriceScaleState) Resolve(mode transform.Mode, base float64, invert bool, margins transform.Margins) transform.Scale {
	return transform.Scale{
		Min:     s.ViewMin,
		Max:     s.ViewMax,
		Mode:    mode,
		Base:    base,
		Invert:  invert,
		Margins: margins,
	}
}

// BoundedRange widens a data range so it always covers [lo, hi]
func BoundedRange(min, max, lo, hi float64) (float64, float64) {
	return math.Min(lo, min), math.Max(hi, max)
}
