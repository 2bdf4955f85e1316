package chartcore

import (
	"bytes"
	"testing"
	"time"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/feed"
	"github.com/raykavin/chartcore/pkg/indicator"
	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/stretchr/testify/require"
)

func hourly(n int) feed.Batch {
	candles := make([]core.Candle, 0, n)
	volumes := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		price := 100 + float64(i%7)
		candles = append(candles, core.Candle{
			Time:  time.Unix(int64(i*3600), 0).UTC(),
			Open:  price,
			High:  price + 2,
			Low:   price - 2,
			Close: price + 1,
		})
		volumes = append(volumes, float64(10+i))
	}
	return feed.Batch{Candles: candles, Volumes: indicator.Volume(candles, volumes)}
}

func TestNewMarketChart(t *testing.T) {
	c, store := NewMarketChart("ETHUSDT", time.Hour, 0)
	require.NoError(t, store.Replace(hourly(40)))
	require.True(t, c.HasRSIPanel())
	require.Len(t, c.Panels(), 2)

	frame := c.Frame(layout.Viewport{Width: 1000, Height: 700})
	require.NotNil(t, frame)

	buffer := bytes.NewBuffer(nil)
	closes := make([]float64, 0, 40)
	for _, candle := range store.Candles() {
		closes = append(closes, candle.Close)
	}
	require.NoError(t, Summary(buffer, frame, closes))

	out := buffer.String()
	require.Contains(t, out, "PLOT W")
	require.Contains(t, out, "main")
	require.Contains(t, out, "indicator")
	require.Contains(t, out, "RSI")
	require.Contains(t, out, "CLOSE")
}

func TestSummary_EmptyFrame(t *testing.T) {
	c := NewChart()
	require.Nil(t, c.Frame(layout.Viewport{Width: 800, Height: 600}))
	require.ErrorIs(t, Summary(bytes.NewBuffer(nil), nil, nil), ErrEmptyFrame)
}
