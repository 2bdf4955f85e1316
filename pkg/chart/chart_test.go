package chart

import (
	"testing"
	"time"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/logger/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestChart(t *testing.T, options ...Option) *Chart {
	t.Helper()
	return New(zerolog.NewNop(), options...)
}

// minuteCandles returns n one minute candles starting at the epoch. Candle i
// opens at 10+i, reaches 12+i, dips to 9+i and closes at 11+i.
func minuteCandles(n int) []core.Candle {
	candles := make([]core.Candle, 0, n)
	for i := 0; i < n; i++ {
		base := float64(i)
		candles = append(candles, core.Candle{
			Time:  time.Unix(int64(i*60), 0),
			Open:  10 + base,
			High:  12 + base,
			Low:   9 + base,
			Close: 11 + base,
		})
	}
	return candles
}

func linePoints(values ...float64) []core.LinePoint {
	points := make([]core.LinePoint, 0, len(values))
	for i, v := range values {
		points = append(points, core.LinePoint{Time: time.Unix(int64(i*60), 0), Value: v})
	}
	return points
}

func TestChart_Defaults(t *testing.T) {
	c := newTestChart(t)

	require.Equal(t, PanelID(1), c.MainPanel())
	require.Len(t, c.Panels(), 1)
	require.False(t, c.HasData())

	candles := c.AddCandlestickSeries()
	line := c.AddLineSeries()
	hist := c.AddHistogramSeries()

	for id, want := range map[SeriesID]Side{candles: SideRight, line: SideLeft, hist: SideLeft} {
		side, ok := c.SeriesScale(id)
		require.True(t, ok)
		require.Equal(t, want, side)
	}
	require.Equal(t, []SeriesID{candles, line, hist}, c.SeriesIDs())

	kind, ok := c.SeriesKind(hist)
	require.True(t, ok)
	require.Equal(t, KindHistogram, kind)

	_, ok = c.SeriesKind(99)
	require.False(t, ok)
}

func TestChart_SetCandlesRecalculatesTimeScale(t *testing.T) {
	c := newTestChart(t)
	id := c.AddCandlestickSeries()

	require.NoError(t, c.SetCandles(id, minuteCandles(3)))
	require.True(t, c.HasData())

	ts, ok := c.TimeScale(defaultGroupID)
	require.True(t, ok)
	require.Equal(t, 60.0, ts.BarTime())
	require.Equal(t, 0.0, ts.Start)
	require.Equal(t, 120.0, ts.End)

	first, ok := c.FirstTime()
	require.True(t, ok)
	require.Equal(t, 0.0, first)
}

func TestChart_WrongSeriesKind(t *testing.T) {
	c := newTestChart(t)
	line := c.AddLineSeries()

	err := c.SetCandles(line, minuteCandles(2))
	require.ErrorIs(t, err, ErrSeriesKind)

	err = c.SetLinePoints(42, linePoints(1))
	require.ErrorIs(t, err, ErrUnknownSeries)
}

func TestChart_UpdateCandleKeepsOrder(t *testing.T) {
	c := newTestChart(t)
	id := c.AddCandlestickSeries()
	require.NoError(t, c.SetCandles(id, minuteCandles(3)))

	require.NoError(t, c.UpdateCandle(id, core.Candle{Time: time.Unix(30, 0), Open: 1, High: 2, Low: 0.5, Close: 1.5}))
	require.NoError(t, c.UpdateCandle(id, core.Candle{Time: time.Unix(120, 0), Open: 5, High: 6, Low: 4, Close: 5.5}))

	candles, err := c.Candles(id)
	require.NoError(t, err)
	require.Len(t, candles, 4)

	times := make([]int64, 0, len(candles))
	for _, candle := range candles {
		times = append(times, candle.Time.Unix())
	}
	require.Equal(t, []int64{0, 30, 60, 120}, times)
	require.Equal(t, 5.5, candles[3].Close)
}

func TestChart_PrependKeepsStoredPoints(t *testing.T) {
	c := newTestChart(t)
	id := c.AddLineSeries()
	require.NoError(t, c.SetLinePoints(id, []core.LinePoint{
		{Time: time.Unix(120, 0), Value: 3},
		{Time: time.Unix(180, 0), Value: 4},
	}))

	require.NoError(t, c.PrependLinePoints(id, []core.LinePoint{
		{Time: time.Unix(60, 0), Value: 2},
		{Time: time.Unix(120, 0), Value: 99},
	}))

	points, err := c.LinePoints(id)
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.Equal(t, 2.0, points[0].Value)
	require.Equal(t, 3.0, points[1].Value)

	first, ok := c.FirstTime()
	require.True(t, ok)
	require.Equal(t, 60.0, first)
}

func TestChart_SetCandlesFromBarsIsAllOrNothing(t *testing.T) {
	c := newTestChart(t)
	id := c.AddCandlestickSeries()

	good := core.Bar{
		Time:  time.Unix(0, 0),
		Open:  decimal.NewFromFloat(1.5),
		High:  decimal.NewFromFloat(2),
		Low:   decimal.NewFromFloat(1),
		Close: decimal.NewFromFloat(1.75),
	}
	huge := good
	huge.Time = time.Unix(60, 0)
	huge.High = decimal.New(1, 400)

	err := c.SetCandlesFromBars(id, []core.Bar{good, huge})
	require.ErrorIs(t, err, core.ErrNonFiniteBar)

	candles, err := c.Candles(id)
	require.NoError(t, err)
	require.Empty(t, candles)

	require.NoError(t, c.SetCandlesFromBars(id, []core.Bar{good}))
	candles, err = c.Candles(id)
	require.NoError(t, err)
	require.Equal(t, 1.75, candles[0].Close)
}

func TestChart_IndicatorPanels(t *testing.T) {
	c := newTestChart(t)
	main := c.MainPanel()

	id, err := c.AddIndicatorPanel("MACD", 0.1, 0, &main)
	require.NoError(t, err)

	info, ok := c.Panel(id)
	require.True(t, ok)
	require.Equal(t, minIndicatorSize, info.Weight)
	require.Equal(t, defaultGroupID, info.Group)
	require.True(t, info.RightVisible)
	require.False(t, info.LeftVisible)

	require.NoError(t, c.SetIndicatorPanelData(id, linePoints(1, 2, 3)))
	require.Len(t, c.SeriesIDs(), 1)

	require.ErrorIs(t, c.RemovePanel(main), ErrMainPanel)
	require.ErrorIs(t, c.RemovePanel(99), ErrUnknownPanel)

	require.NoError(t, c.RemovePanel(id))
	require.Len(t, c.Panels(), 1)
	require.Empty(t, c.SeriesIDs())
	require.False(t, c.HasData())

	_, err = c.AddIndicatorPanel("x", 1, 77, nil)
	require.ErrorIs(t, err, ErrUnknownGroup)
}

func TestChart_TogglePanel(t *testing.T) {
	c := newTestChart(t)
	id, err := c.AddIndicatorPanel("Volume", 1, 0, nil)
	require.NoError(t, err)

	require.NoError(t, c.TogglePanelVisibility(id))
	require.NoError(t, c.TogglePanelCollapsed(id))

	info, _ := c.Panel(id)
	require.False(t, info.ContentVisible)
	require.True(t, info.Collapsed)

	require.ErrorIs(t, c.TogglePanelCollapsed(404), ErrUnknownPanel)
}

func TestChart_RemovePrimaryCandlesPromotesNext(t *testing.T) {
	c := newTestChart(t)
	main := c.MainPanel()
	panel, err := c.AddIndicatorPanel("Compare", 1, 0, &main)
	require.NoError(t, err)

	first := c.AddCandlestickSeries()
	second := c.AddCandlestickSeries()
	require.NoError(t, c.SetSeriesPanel(first, panel))

	primary, ok := c.primaryCandles()
	require.True(t, ok)
	require.Equal(t, first, primary.id)

	require.NoError(t, c.RemovePanel(panel))
	primary, ok = c.primaryCandles()
	require.True(t, ok)
	require.Equal(t, second, primary.id)
}

func TestChart_PriceLines(t *testing.T) {
	c := newTestChart(t)
	id := c.AddCandlestickSeries()

	options := DefaultPriceLineOptions()
	options.Price = 10
	a, err := c.CreatePriceLine(id, options)
	require.NoError(t, err)
	b, err := c.CreatePriceLine(id, options)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.NoError(t, c.SetPriceLinePrice(id, b, 12.5))
	require.NoError(t, c.RemovePriceLine(id, a))

	lines := c.PriceLines(id)
	require.Len(t, lines, 1)
	require.Equal(t, b, lines[0].ID)
	require.Equal(t, 12.5, lines[0].Options.Price)

	require.ErrorIs(t, c.SetPriceLinePrice(id, a, 1), ErrUnknownLine)
	require.ErrorIs(t, c.UpdatePriceLine(99, b, options), ErrUnknownSeries)
}

func TestChart_SeriesOptionsAndMarkers(t *testing.T) {
	c := newTestChart(t)
	id := c.AddLineSeries()

	require.NoError(t, c.UpdateSeriesOptions(id, func(o *SeriesOptions) {
		o.Title = "SMA 20"
		o.PriceLineWidth = 0.1
	}))
	options, ok := c.SeriesOptions(id)
	require.True(t, ok)
	require.Equal(t, "SMA 20", options.Title)
	require.Equal(t, 0.5, options.PriceLineWidth)

	require.NoError(t, c.SetMarkers(id, []Marker{
		{Time: time.Unix(120, 0), Text: "late"},
		{Time: time.Unix(60, 0), Text: "early"},
	}))
	markers := c.Markers(id)
	require.Equal(t, "early", markers[0].Text)
	require.Equal(t, "late", markers[1].Text)
}

func TestChart_LastValue(t *testing.T) {
	c := newTestChart(t)
	candles := c.AddCandlestickSeries()
	hist := c.AddHistogramSeries()

	require.NoError(t, c.SetCandles(candles, []core.Candle{{Time: time.Unix(0, 0), Open: 5, High: 6, Low: 3, Close: 4}}))
	red := core.RGB(255, 0, 0)
	require.NoError(t, c.SetHistogramPoints(hist, []core.HistogramPoint{{Time: time.Unix(0, 0), Value: 7, Color: &red}}))

	last, ok := c.LastValue(candles)
	require.True(t, ok)
	require.Equal(t, 4.0, last.Value)
	require.False(t, last.Bullish)

	last, ok = c.LastValue(hist)
	require.True(t, ok)
	require.Equal(t, 7.0, last.Value)
	require.Equal(t, &red, last.Color)

	_, ok = c.LastValue(c.AddLineSeries())
	require.False(t, ok)
}

func TestChart_RSIPanel(t *testing.T) {
	c := newTestChart(t)
	require.False(t, c.HasRSIPanel())

	c.SetRSIPanel("RSI 14", linePoints(40, 50, 60))
	require.True(t, c.HasRSIPanel())
	require.True(t, c.HasData())

	id, ok := c.RSIPanel()
	require.True(t, ok)
	info, _ := c.Panel(id)
	require.Equal(t, rsiTitle, info.Title)
	require.InDelta(t, 1.0, info.Weight, 1e-9)

	c.SetRSIPanelData(linePoints(10, 20))
	again, _ := c.RSIPanel()
	require.Equal(t, id, again)
	require.Len(t, c.Panels(), 2)

	c.ClearRSIPanel()
	require.False(t, c.HasRSIPanel())
	require.Len(t, c.Panels(), 1)
}

func TestChart_RSIPanelRemovedThenRecreated(t *testing.T) {
	c := newTestChart(t)
	c.SetRSIPanel("RSI 14", linePoints(40, 50, 60))
	id, _ := c.RSIPanel()

	require.NoError(t, c.RemovePanel(id))
	require.False(t, c.HasRSIPanel())
	c.ClearRSIPanel()
	require.Len(t, c.Panels(), 1)

	c.SetRSIPanelData(linePoints(30, 70))
	recreated, ok := c.RSIPanel()
	require.True(t, ok)
	require.NotEqual(t, id, recreated)
	require.Len(t, c.Panels(), 2)
}

func TestChart_TrackingModeGate(t *testing.T) {
	c := newTestChart(t, WithTrackingMode(TrackingMode{Enabled: false}))
	c.SetTrackingMode(true)
	require.False(t, c.TrackingMode())

	c = newTestChart(t)
	c.SetTrackingMode(true)
	require.True(t, c.TrackingMode())
}
