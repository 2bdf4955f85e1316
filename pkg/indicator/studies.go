package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/raykavin/chartcore/pkg/core"
)

// RSI returns the relative strength index of the closes
func RSI(candles []core.Candle, period int) []core.LinePoint {
	if period < 1 || !enough(candles, period) {
		return nil
	}
	c := split(candles)
	return linePoints(c.Time, talib.Rsi(c.Close, period), period)
}

// SMA returns the simple moving average of the closes
func SMA(candles []core.Candle, period int) []core.LinePoint {
	return MA(candles, period, TypeSMA)
}

// EMA returns the exponential moving average of the closes
func EMA(candles []core.Candle, period int) []core.LinePoint {
	return MA(candles, period, TypeEMA)
}

// MA returns a moving average of the closes of the given type
func MA(candles []core.Candle, period int, maType MaType) []core.LinePoint {
	if period < 1 || !enough(candles, period-1) {
		return nil
	}
	c := split(candles)
	return linePoints(c.Time, talib.Ma(c.Close, period, maType), period-1)
}

// Bollinger returns the upper, middle and lower Bollinger bands
func Bollinger(candles []core.Candle, period int, deviation float64) (upper, middle, lower []core.LinePoint) {
	if period < 2 || !enough(candles, period-1) {
		return nil, nil, nil
	}
	c := split(candles)
	u, m, l := talib.BBands(c.Close, period, deviation, deviation, TypeSMA)
	return linePoints(c.Time, u, period-1), linePoints(c.Time, m, period-1), linePoints(c.Time, l, period-1)
}

// MACD returns the MACD line, its signal line and their difference as bars
func MACD(candles []core.Candle, fast, slow, signal int) (macd, signalLine []core.LinePoint, hist []core.HistogramPoint) {
	warmup := slow + signal - 2
	if fast < 1 || slow <= fast || signal < 1 || !enough(candles, warmup) {
		return nil, nil, nil
	}
	c := split(candles)
	m, s, h := talib.Macd(c.Close, fast, slow, signal)
	return linePoints(c.Time, m, warmup), linePoints(c.Time, s, warmup), histogramPoints(c.Time, h, warmup)
}

// Stochastic returns the slow %K and %D lines
func Stochastic(candles []core.Candle, fastK, slowK, slowD int) (k, d []core.LinePoint) {
	warmup := fastK + slowK + slowD - 3
	if fastK < 1 || slowK < 1 || slowD < 1 || !enough(candles, warmup) {
		return nil, nil
	}
	c := split(candles)
	kValues, dValues := talib.Stoch(c.High, c.Low, c.Close, fastK, slowK, TypeSMA, slowD, TypeSMA)
	return linePoints(c.Time, kValues, warmup), linePoints(c.Time, dValues, warmup)
}

// CCI returns the commodity channel index
func CCI(candles []core.Candle, period int) []core.LinePoint {
	if period < 2 || !enough(candles, period-1) {
		return nil
	}
	c := split(candles)
	return linePoints(c.Time, talib.Cci(c.High, c.Low, c.Close, period), period-1)
}

// Volume turns per candle volumes into bars colored by the candle direction.
// Extra volumes beyond the candles are ignored.
func Volume(candles []core.Candle, volumes []float64) []core.HistogramPoint {
	n := min(len(candles), len(volumes))
	bars := make([]core.HistogramPoint, 0, n)
	for i := 0; i < n; i++ {
		color := bullishBar
		if !candles[i].IsBullish() {
			color = bearishBar
		}
		bars = append(bars, core.HistogramPoint{Time: candles[i].Time, Value: volumes[i], Color: &color})
	}
	return bars
}
