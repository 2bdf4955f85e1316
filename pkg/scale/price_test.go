package scale

import (
	"math"
	"testing"

	"github.com/raykavin/chartcore/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allModes = []transform.Mode{transform.Normal, transform.Logarithmic, transform.Percentage, transform.IndexedTo100}

func TestPriceScaleState_UpdateAuto(t *testing.T) {
	state := NewPriceScaleState()
	state.Update(100, 200, true, transform.Normal, 1)

	require.True(t, state.Auto)
	require.InDelta(t, 98, state.ViewMin, 1e-9)
	require.InDelta(t, 202, state.ViewMax, 1e-9)
	require.Equal(t, 100.0, state.DataMin)
	require.Equal(t, 200.0, state.DataMax)
}

func TestPriceScaleState_UpdateLogExpandsInTransformedSpace(t *testing.T) {
	state := NewPriceScaleState()
	state.Update(10, 1000, true, transform.Logarithmic, 1)

	pad := (math.Log(1000) - math.Log(10)) * 0.02
	require.InDelta(t, math.Exp(math.Log(10)-pad), state.ViewMin, 1e-9)
	require.InDelta(t, math.Exp(math.Log(1000)+pad), state.ViewMax, 1e-6)
}

func TestPriceScaleState_UpdateManualKeepsView(t *testing.T) {
	state := PriceScaleState{ViewMin: 5, ViewMax: 6, Auto: true}
	state.Update(100, 200, false, transform.Normal, 1)

	require.False(t, state.Auto)
	require.Equal(t, 5.0, state.ViewMin)
	require.Equal(t, 6.0, state.ViewMax)
}

func TestPriceScaleState_UpdateDegenerate(t *testing.T) {
	state := NewPriceScaleState()
	state.Update(50, 50, true, transform.Normal, 1)
	require.Equal(t, 49.0, state.ViewMin)
	require.Equal(t, 51.0, state.ViewMax)
}

func TestPriceScaleState_Pan(t *testing.T) {
	state := PriceScaleState{ViewMin: 100, ViewMax: 200, Auto: true}
	state.Pan(10, transform.Normal, 1)
	require.False(t, state.Auto)
	require.Equal(t, 110.0, state.ViewMin)
	require.Equal(t, 210.0, state.ViewMax)

	state = PriceScaleState{ViewMin: 100, ViewMax: 200}
	state.Pan(10, transform.Percentage, 150)
	require.InDelta(t, 115, state.ViewMin, 1e-9)
	require.InDelta(t, 215, state.ViewMax, 1e-9)

	state = PriceScaleState{ViewMin: 100, ViewMax: 200}
	state.Pan(10, transform.IndexedTo100, 0)
	require.Equal(t, 100.0, state.ViewMin)

	state = PriceScaleState{ViewMin: 10, ViewMax: 100}
	state.Pan(math.Log(2), transform.Logarithmic, 1)
	require.InDelta(t, 20, state.ViewMin, 1e-9)
	require.InDelta(t, 200, state.ViewMax, 1e-9)
}

func TestPriceScaleState_ZoomAnchorInvariant(t *testing.T) {
	for _, mode := range allModes {
		for _, factor := range []float64{0.25, 0.9, 1, 1.5, 4} {
			for _, anchor := range []float64{0, 0.3, 0.5, 1} {
				state := PriceScaleState{ViewMin: 80, ViewMax: 120, Auto: true}
				base := 95.0

				tMin := transform.Price(state.ViewMin, mode, base)
				tMax := transform.Price(state.ViewMax, mode, base)
				before := tMax - anchor*(tMax-tMin)

				state.Zoom(factor, anchor, mode, base)

				tMin = transform.Price(state.ViewMin, mode, base)
				tMax = transform.Price(state.ViewMax, mode, base)
				after := tMax - anchor*(tMax-tMin)

				assert.InDelta(t, before, after, 1e-9, "mode %s factor %v anchor %v", mode, factor, anchor)
				assert.InDelta(t, factor*40*scaleOf(mode, base), tMax-tMin, 1e-6*scaleOf(mode, base)*40)
				assert.False(t, state.Auto)
			}
		}
	}
}

// scaleOf converts a raw 40 point range at base 95 to transformed units for
// the linear modes; log is handled separately.
func scaleOf(mode transform.Mode, base float64) float64 {
	switch mode {
	case transform.Percentage, transform.IndexedTo100:
		return 100 / base
	case transform.Logarithmic:
		return (math.Log(120) - math.Log(80)) / 40
	default:
		return 1
	}
}

func TestPriceScaleState_ZoomFloor(t *testing.T) {
	state := PriceScaleState{ViewMin: 1, ViewMax: 2}
	state.Zoom(0, 0.5, transform.Normal, 1)
	require.InDelta(t, 1e-9, state.ViewMax-state.ViewMin, 1e-12)
}

func TestPriceScaleState_LogZoomOutStaysFinite(t *testing.T) {
	state := PriceScaleState{ViewMin: 10, ViewMax: 100}
	for i := 0; i < 400; i++ {
		state.Zoom(2, 0.5, transform.Logarithmic, 1)
		require.False(t, math.IsNaN(state.ViewMin) || math.IsInf(state.ViewMin, 0), "step %d", i)
		require.False(t, math.IsNaN(state.ViewMax) || math.IsInf(state.ViewMax, 0), "step %d", i)
		require.Less(t, state.ViewMin, state.ViewMax)
	}

	before := state
	state.Pan(1e6, transform.Logarithmic, 1)
	require.Equal(t, before.ViewMin, state.ViewMin)
	require.Equal(t, before.ViewMax, state.ViewMax)
	require.False(t, state.Auto)
}

func TestPriceScaleState_ResetAutoScale(t *testing.T) {
	state := PriceScaleState{ViewMin: 1, ViewMax: 2}
	state.ResetAutoScale()
	require.True(t, state.Auto)

	state.Update(0, 10, true, transform.Normal, 1)
	require.InDelta(t, -0.2, state.ViewMin, 1e-9)
}

func TestBoundedRange(t *testing.T) {
	min, max := BoundedRange(30, 70, 0, 100)
	require.Equal(t, 0.0, min)
	require.Equal(t, 100.0, max)

	min, max = BoundedRange(-5, 120, 0, 100)
	require.Equal(t, -5.0, min)
	require.Equal(t, 120.0, max)
}
