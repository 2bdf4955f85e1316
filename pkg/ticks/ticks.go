// Package ticks generates axis tick values for the time and price scales.
package ticks

import (
	"math"

	"github.com/raykavin/chartcore/pkg/core"
)

const (
	timeTickSpacing  = 110.0
	priceTickSpacing = 60.0
	edgeTolerance    = 1e-9
	maxPrecision     = 6
	maxTicks         = 64
)

// TimeStepCandidates are the calendar steps, in seconds, a time axis may use
var TimeStepCandidates = []int64{
	1,
	5,
	10,
	15,
	30,
	60,
	5 * 60,
	15 * 60,
	30 * 60,
	60 * 60,
	2 * 60 * 60,
	4 * 60 * 60,
	6 * 60 * 60,
	12 * 60 * 60,
	24 * 60 * 60,
	2 * 24 * 60 * 60,
	7 * 24 * 60 * 60,
	30 * 24 * 60 * 60,
	90 * 24 * 60 * 60,
	365 * 24 * 60 * 60,
}

// TimeTicks are tick timestamps in unix seconds and the step between them
type TimeTicks struct {
	Ticks []float64
	Step  int64
}

// PriceTicks are tick values and the decimals needed to print them
type PriceTicks struct {
	Ticks     []float64
	Precision int
}

// BuildTimeTicks places ticks inside [start, end]. Calendar mode aligns ticks
// to multiples of the chosen step; uniform mode strides from start.
func BuildTimeTicks(start, end, plotWidth float64, uniform bool) TimeTicks {
	if !core.Finite(end - start) {
		return TimeTicks{Step: TimeStepCandidates[0]}
	}
	span := math.Max(end-start, 1)
	target := core.Clamp(plotWidth/timeTickSpacing, 3, 10)

	var (
		step  int64
		ticks []float64
	)

	if uniform {
		step = int64(math.Round(math.Max(span/target, 1)))
		for current := start; current <= end && len(ticks) < maxTicks; current += float64(step) {
			ticks = append(ticks, current)
		}
	} else {
		step = ChooseTimeStep(span, target)
		first := (int64(start) / step) * step
		if float64(first) < start {
			first += step
		}
		for current := first; float64(current) <= end && len(ticks) < maxTicks; current += step {
			ticks = append(ticks, float64(current))
		}
	}

	if len(ticks) == 0 {
		ticks = []float64{start, end}
	}

	return TimeTicks{Ticks: ticks, Step: step}
}

// ChooseTimeStep returns the smallest candidate producing at most target ticks
func ChooseTimeStep(span, target float64) int64 {
	for _, step := range TimeStepCandidates {
		if span/float64(step) <= target {
			return step
		}
	}
	return TimeStepCandidates[len(TimeStepCandidates)-1]
}

// BuildPriceTicks places ticks at multiples of a nice step spanning [min, max].
// Bounds whose span is not finite yield no ticks.
func BuildPriceTicks(min, max, plotHeight float64) PriceTicks {
	if !core.Finite(max-min) || !core.Finite(plotHeight) {
		return PriceTicks{}
	}
	span := math.Max(max-min, 1)
	target := core.Clamp(plotHeight/priceTickSpacing, 4, 8)
	step := NiceStep(span / (target - 1))

	niceMin := math.Floor(min/step) * step
	niceMax := math.Ceil(max/step) * step
	limit := niceMax + step*0.5

	ticks := make([]float64, 0, int(target)+2)
	for i := 0; i < maxTicks; i++ {
		value := niceMin + float64(i)*step
		if value > limit {
			break
		}
		ticks = append(ticks, value)
	}

	return PriceTicks{Ticks: ticks, Precision: Precision(step)}
}

// NiceStep snaps a raw step to 1, 2, 2.5, 5 or 10 times a power of ten
func NiceStep(raw float64) float64 {
	base := math.Pow(10, math.Floor(math.Log10(raw)))
	fraction := raw / base

	switch {
	case fraction <= 1:
		return base
	case fraction <= 2:
		return 2 * base
	case fraction <= 2.5:
		return 2.5 * base
	case fraction <= 5:
		return 5 * base
	default:
		return 10 * base
	}
}

// Precision returns the decimals needed to print multiples of step
func Precision(step float64) int {
	if step >= 1 {
		return 0
	}
	digits := int(math.Ceil(-math.Log10(step)))
	return core.Clamp(digits, 0, maxPrecision)
}

// EnsureEdgeTicks inserts min and max when the ticks do not already start and
// end there.
func EnsureEdgeTicks(ticks *PriceTicks, min, max float64) {
	if !core.Finite(min) || !core.Finite(max) {
		return
	}
	if len(ticks.Ticks) == 0 {
		ticks.Ticks = append(ticks.Ticks, min, max)
		return
	}

	if math.Abs(ticks.Ticks[0]-min) > edgeTolerance {
		ticks.Ticks = append([]float64{min}, ticks.Ticks...)
	}
	if math.Abs(ticks.Ticks[len(ticks.Ticks)-1]-max) > edgeTolerance {
		ticks.Ticks = append(ticks.Ticks, max)
	}
}
