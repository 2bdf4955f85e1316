package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/raykavin/chartcore/pkg/core"
)

// SuperTrend returns the ATR trailing band that flips between the upper and
// lower bands when the close crosses it.
func SuperTrend(candles []core.Candle, atrPeriod int, factor float64) []core.LinePoint {
	if atrPeriod < 1 || !enough(candles, atrPeriod) {
		return nil
	}
	c := split(candles)
	return linePoints(c.Time, superTrend(c.High, c.Low, c.Close, atrPeriod, factor), atrPeriod)
}

func superTrend(high, low, close []float64, atrPeriod int, factor float64) []float64 {
	length := len(close)
	atr := talib.Atr(high, low, close, atrPeriod)

	upper := make([]float64, length)
	lower := make([]float64, length)
	trend := make([]float64, length)

	for i := 1; i < length; i++ {
		median := (high[i] + low[i]) / 2
		basicUpper := median + atr[i]*factor
		basicLower := median - atr[i]*factor

		upper[i] = upper[i-1]
		if basicUpper < upper[i-1] || close[i-1] > upper[i-1] {
			upper[i] = basicUpper
		}
		lower[i] = lower[i-1]
		if basicLower > lower[i-1] || close[i-1] < lower[i-1] {
			lower[i] = basicLower
		}

		// the trend was down while the previous value sat on the upper band
		if trend[i-1] == upper[i-1] {
			trend[i] = upper[i]
			if close[i] > upper[i] {
				trend[i] = lower[i]
			}
		} else {
			trend[i] = lower[i]
			if close[i] < lower[i] {
				trend[i] = upper[i]
			}
		}
	}
	return trend
}
