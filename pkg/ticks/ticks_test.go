package ticks

import (
	"math"
	"testing"
	"time"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/transform"
	"github.com/stretchr/testify/require"
)

func TestBuildPriceTicks(t *testing.T) {
	ticks := BuildPriceTicks(0, 100, 300)
	require.Equal(t, []float64{0, 25, 50, 75, 100}, ticks.Ticks)
	require.Equal(t, 0, ticks.Precision)

	small := BuildPriceTicks(1.0, 1.5, 480)
	require.LessOrEqual(t, small.Ticks[0], 1.0)
	require.GreaterOrEqual(t, small.Ticks[len(small.Ticks)-1], 1.5)
	require.Equal(t, 1, small.Precision)
}

func TestBuildPriceTicks_NonFinite(t *testing.T) {
	require.Empty(t, BuildPriceTicks(math.NaN(), math.NaN(), 400).Ticks)
	require.Empty(t, BuildPriceTicks(0, math.Inf(1), 400).Ticks)
	require.Empty(t, BuildPriceTicks(math.Inf(-1), 10, 400).Ticks)

	require.Empty(t, BuildPriceTicks(-1e308, 1e308, 400).Ticks)

	huge := BuildPriceTicks(-1e300, 1e300, 400)
	require.NotEmpty(t, huge.Ticks)
	require.LessOrEqual(t, len(huge.Ticks), maxTicks)

	edges := PriceTicks{}
	EnsureEdgeTicks(&edges, math.NaN(), 1)
	require.Empty(t, edges.Ticks)
}

func TestBuildTimeTicks_NonFinite(t *testing.T) {
	require.Empty(t, BuildTimeTicks(math.NaN(), 100, 800, false).Ticks)
	require.Empty(t, BuildTimeTicks(0, math.Inf(1), 800, true).Ticks)
}

func TestDefaultPriceFormat(t *testing.T) {
	format := DefaultPriceFormat()
	require.Equal(t, FormatKindPrice, format.Kind)
	require.Equal(t, 2, format.Precision)
}

func TestNiceStep(t *testing.T) {
	tests := map[float64]float64{
		0.9:  1,
		1.5:  2,
		2.3:  2.5,
		4:    5,
		7:    10,
		23:   25,
		0.03: 0.05,
	}
	for raw, want := range tests {
		require.InDelta(t, want, NiceStep(raw), 1e-12, "raw %v", raw)
	}
}

func TestPrecision(t *testing.T) {
	require.Equal(t, 0, Precision(5))
	require.Equal(t, 1, Precision(0.5))
	require.Equal(t, 2, Precision(0.05))
	require.Equal(t, 6, Precision(1e-9))
}

func TestBuildTimeTicks_CalendarStep(t *testing.T) {
	ticks := BuildTimeTicks(0, 3600, 550, false)
	require.Contains(t, TimeStepCandidates, ticks.Step)
	require.Equal(t, int64(900), ticks.Step)
	require.Equal(t, []float64{0, 900, 1800, 2700, 3600}, ticks.Ticks)

	for _, span := range []float64{10, 500, 86400 * 3, 86400 * 5000} {
		got := BuildTimeTicks(1000, 1000+span, 800, false)
		require.Contains(t, TimeStepCandidates, got.Step)
		for _, tick := range got.Ticks {
			require.Zero(t, int64(tick)%got.Step)
		}
	}
}

func TestBuildTimeTicks_Uniform(t *testing.T) {
	ticks := BuildTimeTicks(7, 107, 330, true)
	require.Equal(t, int64(33), ticks.Step)
	require.Equal(t, []float64{7, 40, 73, 106}, ticks.Ticks)
}

func TestBuildTimeTicks_Fallback(t *testing.T) {
	ticks := BuildTimeTicks(10.2, 10.4, 330, false)
	require.Equal(t, []float64{10.2, 10.4}, ticks.Ticks)
}

func TestEnsureEdgeTicks(t *testing.T) {
	ticks := PriceTicks{Ticks: []float64{25, 50, 75}}
	EnsureEdgeTicks(&ticks, 12, 80)
	require.Equal(t, []float64{12, 25, 50, 75, 80}, ticks.Ticks)

	ticks = PriceTicks{Ticks: []float64{0, 50, 100}}
	EnsureEdgeTicks(&ticks, 0, 100)
	require.Equal(t, []float64{0, 50, 100}, ticks.Ticks)

	empty := PriceTicks{}
	EnsureEdgeTicks(&empty, 1, 2)
	require.Equal(t, []float64{1, 2}, empty.Ticks)
}

func TestFormatTimeLabel(t *testing.T) {
	ts := core.UnixSeconds(time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC))

	require.Equal(t, "14:05", FormatTimeLabel(ts, 3600, DefaultLabelOptions()))
	require.Equal(t, "03-09", FormatTimeLabel(ts, 86400, DefaultLabelOptions()))
	require.Equal(t, "2024-03", FormatTimeLabel(ts, 90*86400, DefaultLabelOptions()))
	require.Equal(t, "14:05:07", FormatTimeLabel(ts, 5, LabelOptions{TimeVisible: true, SecondsVisible: true}))
	require.Equal(t, "2024-03-09", FormatTimeLabel(ts, 60, LabelOptions{Mode: LabelDate}))
	require.Equal(t, "24/03/09 14h", FormatTimeLabel(ts, 60, LabelOptions{Mode: LabelCustom, Custom: "{YY}/{MM}/{DD} {HH}h"}))
	require.Equal(t, "2024", FormatTimeLabel(ts, 60, LabelOptions{TickMarkFormat: "{YYYY}-{MM}", MaxLength: 4}))
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "101.50", FormatPrice(101.5, DefaultPriceFormat(), 0, transform.Normal))
	require.Equal(t, "1.500", FormatPrice(1.5, DefaultPriceFormat(), 3, transform.Normal))
	require.Equal(t, "12.00%", FormatPrice(12, DefaultPriceFormat(), 0, transform.Percentage))
	require.Equal(t, "3%", FormatPrice(3, PriceFormat{Kind: FormatPercent}, 0, transform.Normal))

	candle := core.Candle{Time: time.Unix(0, 0), Open: 1, High: 2, Low: 0.5, Close: 1.5}
	require.Equal(t, "1970-01-01 00:00 O 1.00 C 1.50",
		FormatTooltip("{time} O {open} C {close}", candle, 2, DefaultPriceFormat(), transform.Normal))
}
