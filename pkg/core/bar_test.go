package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBar_ToCandle(t *testing.T) {
	bar := Bar{
		Time:  time.Unix(60, 0),
		Open:  decimal.RequireFromString("100.5"),
		High:  decimal.RequireFromString("101.25"),
		Low:   decimal.RequireFromString("99"),
		Close: decimal.RequireFromString("100"),
	}

	candle, err := bar.ToCandle()
	require.NoError(t, err)
	require.Equal(t, 100.5, candle.Open)
	require.Equal(t, 101.25, candle.High)
	require.Equal(t, 99.0, candle.Low)
	require.Equal(t, 100.0, candle.Close)
	require.Equal(t, 60.0, candle.TimeKey())
}

func TestBarsToCandles_NonFinite(t *testing.T) {
	huge := decimal.New(1, 400)
	bars := []Bar{
		{Time: time.Unix(0, 0), Open: decimal.NewFromInt(1), High: decimal.NewFromInt(1), Low: decimal.NewFromInt(1), Close: decimal.NewFromInt(1)},
		{Time: time.Unix(60, 0), Open: decimal.NewFromInt(1), High: huge, Low: decimal.NewFromInt(1), Close: decimal.NewFromInt(1)},
	}

	candles, err := BarsToCandles(bars)
	require.ErrorIs(t, err, ErrNonFiniteBar)
	require.Nil(t, candles)
}

func TestClamp(t *testing.T) {
	require.Equal(t, 5, Clamp(10, 0, 5))
	require.Equal(t, 0.5, Clamp(0.1, 0.5, 2.0))
	require.Equal(t, 1.5, Clamp(1.5, 0.5, 2.0))
}
