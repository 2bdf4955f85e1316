// Package transform holds the pure coordinate mapping functions shared by the
// scales, the layout and the interaction code.
package transform

import (
	"math"

	"github.com/raykavin/chartcore/pkg/core"
)

const (
	logFloor        = 1e-9
	maxMargin       = 0.49
	maxMarginSum    = 0.98
	minUsableBand   = 0.02
	rangePadding    = 0.02
	histogramHeadUp = 0.05
)

// Price converts a raw price into transformed space
func Price(value float64, mode Mode, base float64) float64 {
	switch mode {
	case Logarithmic:
		if value <= 0 {
			value = logFloor
		}
		return math.Log(value)
	case Percentage:
		if math.Abs(base) < core.Epsilon {
			return 0
		}
		return (value/base - 1) * 100
	case IndexedTo100:
		if math.Abs(base) < core.Epsilon {
			return 0
		}
		return value / base * 100
	default:
		return value
	}
}

// InversePrice converts a transformed value back to a raw price
func InversePrice(value float64, mode Mode, base float64) float64 {
	switch mode {
	case Logarithmic:
		return math.Exp(value)
	case Percentage:
		return base * (value/100 + 1)
	case IndexedTo100:
		return base * (value / 100)
	default:
		return value
	}
}

// ScaleArea shrinks a vertical band by its margins and returns the usable top
// and height. Each margin is capped at 49% and at least 2% of the band stays
// usable.
func ScaleArea(top, height float64, margins Margins) (float64, float64) {
	topMargin := core.Clamp(margins.Top, 0, maxMargin)
	bottomMargin := core.Clamp(margins.Bottom, 0, maxMargin)
	if sum := topMargin + bottomMargin; sum >= maxMarginSum {
		excess := sum - maxMarginSum
		topMargin -= excess * 0.5
		bottomMargin -= excess * 0.5
	}

	usable := math.Max(1-topMargin-bottomMargin, minUsableBand)
	return top + topMargin*height, height * usable
}

// PriceToY maps a price linearly into [top, top+height], max at the top
func PriceToY(price, min, max, top, height float64) float64 {
	norm := (price - min) / (max - min)
	return top + (1-norm)*height
}

// YToPrice is the inverse of PriceToY
func YToPrice(y, min, max, top, height float64) float64 {
	norm := ((top + height) - y) / height
	return min + norm*(max-min)
}

// PriceToYScaled maps a price to a pixel row through margins, the scale mode
// and the invert flag.
func PriceToYScaled(price float64, scale Scale, top, height float64) float64 {
	scaleTop, scaleHeight := ScaleArea(top, height, scale.Margins)
	tPrice := Price(price, scale.Mode, scale.Base)
	tMin := Price(scale.Min, scale.Mode, scale.Base)
	tMax := Price(scale.Max, scale.Mode, scale.Base)

	norm := 0.5
	if !core.Degenerate(tMin, tMax) {
		norm = (tPrice - tMin) / (tMax - tMin)
	}

	if scale.Invert {
		return scaleTop + norm*scaleHeight
	}
	return scaleTop + (1-norm)*scaleHeight
}

// YToPriceScaled is the inverse of PriceToYScaled
func YToPriceScaled(y float64, scale Scale, top, height float64) float64 {
	scaleTop, scaleHeight := ScaleArea(top, height, scale.Margins)
	tMin := Price(scale.Min, scale.Mode, scale.Base)
	tMax := Price(scale.Max, scale.Mode, scale.Base)

	var norm float64
	if scale.Invert {
		norm = (y - scaleTop) / scaleHeight
	} else {
		norm = ((scaleTop + scaleHeight) - y) / scaleHeight
	}

	return InversePrice(tMin+norm*(tMax-tMin), scale.Mode, scale.Base)
}

// TimeToX maps a timestamp linearly into [left, left+width]
func TimeToX(t, start, end, left, width float64) float64 {
	norm := (t - start) / (end - start)
	return left + norm*width
}

// XToTime is the inverse of TimeToX
func XToTime(x, start, end, left, width float64) float64 {
	if width <= 0 {
		return start
	}
	return start + (x-left)/width*(end-start)
}

// ExpandRange pads a range by 2% on each side, or by 1.0 when it is degenerate
func ExpandRange(min, max float64) (float64, float64) {
	if core.Degenerate(min, max) {
		return min - 1, max + 1
	}
	padding := (max - min) * rangePadding
	return min - padding, max + padding
}

// HistogramRange returns a range that always includes zero with 5% headroom
// above the tallest bar. It reports false for no values.
func HistogramRange(values []float64) (float64, float64, bool) {
	if len(values) == 0 {
		return 0, 0, false
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	min = math.Min(min, 0)
	max = math.Max(max, 0)
	if core.Degenerate(min, max) {
		max = min + 1
	} else {
		max += (max - min) * histogramHeadUp
	}

	return min, max, true
}

// BarWidth estimates a candle body width in pixels from the average spacing
// of the given times.
func BarWidth(times []float64, start, end, plotWidth float64) float64 {
	switch len(times) {
	case 0:
		return 3
	case 1:
		return math.Max(plotWidth*0.08, 3)
	}

	var total float64
	for i := 1; i < len(times); i++ {
		total += math.Abs(times[i] - times[i-1])
	}

	avg := total / float64(len(times)-1)
	width := avg / math.Max(end-start, 1) * plotWidth * 0.7
	return core.Clamp(width, 2, plotWidth*0.5)
}
