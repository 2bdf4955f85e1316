package core

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is an externally supplied OHLC bar in decimal precision
type Bar struct {
	Time  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// ToCandle converts the bar to a float Candle. It fails with ErrNonFiniteBar
// when any of the four prices does not fit a finite float64.
func (b Bar) ToCandle() (Candle, error) {
	fields := [4]struct {
		name  string
		value decimal.Decimal
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
	}

	var out [4]float64
	for i, field := range fields {
		value, _ := field.value.Float64()
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return Candle{}, fmt.Errorf("%s at %s: %w", field.name, b.Time.UTC().Format(time.RFC3339), ErrNonFiniteBar)
		}
		out[i] = value
	}

	return Candle{Time: b.Time, Open: out[0], High: out[1], Low: out[2], Close: out[3]}, nil
}

// BarsToCandles converts every bar or none of them.
func BarsToCandles(bars []Bar) ([]Candle, error) {
	candles := make([]Candle, 0, len(bars))
	for i, bar := range bars {
		candle, err := bar.ToCandle()
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}
