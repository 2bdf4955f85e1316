package indicator

import (
	"fmt"

	"github.com/raykavin/chartcore/pkg/core"
)

type rsi struct{ period int }

// NewRSI configures a relative strength index drawn in the oscillator panel
func NewRSI(period int) Indicator { return rsi{period: period} }

func (r rsi) Name() string  { return fmt.Sprintf("RSI(%d)", r.period) }
func (r rsi) Warmup() int   { return r.period }
func (r rsi) Overlay() bool { return false }

func (r rsi) Load(candles []core.Candle) []Metric {
	return []Metric{{Name: r.Name(), Lines: RSI(candles, r.period)}}
}

type movingAverage struct {
	period int
	maType MaType
}

// NewSMA configures a simple moving average overlay
func NewSMA(period int) Indicator { return movingAverage{period: period, maType: TypeSMA} }

// NewEMA configures an exponential moving average overlay
func NewEMA(period int) Indicator { return movingAverage{period: period, maType: TypeEMA} }

func (m movingAverage) Name() string {
	if m.maType == TypeEMA {
		return fmt.Sprintf("EMA(%d)", m.period)
	}
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m movingAverage) Warmup() int   { return m.period - 1 }
func (m movingAverage) Overlay() bool { return true }

func (m movingAverage) Load(candles []core.Candle) []Metric {
	return []Metric{{Name: m.Name(), Lines: MA(candles, m.period, m.maType)}}
}

type bollinger struct {
	period    int
	deviation float64
}

// NewBollinger configures Bollinger bands drawn over the candles
func NewBollinger(period int, deviation float64) Indicator {
	return bollinger{period: period, deviation: deviation}
}

func (b bollinger) Name() string  { return fmt.Sprintf("BB(%d, %g)", b.period, b.deviation) }
func (b bollinger) Warmup() int   { return b.period - 1 }
func (b bollinger) Overlay() bool { return true }

func (b bollinger) Load(candles []core.Candle) []Metric {
	upper, middle, lower := Bollinger(candles, b.period, b.deviation)
	return []Metric{
		{Name: "Upper", Lines: upper},
		{Name: "Middle", Lines: middle},
		{Name: "Lower", Lines: lower},
	}
}

type macd struct{ fast, slow, signal int }

// NewMACD configures a MACD panel made of two lines and a histogram
func NewMACD(fast, slow, signal int) Indicator { return macd{fast: fast, slow: slow, signal: signal} }

func (m macd) Name() string  { return fmt.Sprintf("MACD(%d, %d, %d)", m.fast, m.slow, m.signal) }
func (m macd) Warmup() int   { return m.slow + m.signal - 2 }
func (m macd) Overlay() bool { return false }

func (m macd) Load(candles []core.Candle) []Metric {
	line, signal, hist := MACD(candles, m.fast, m.slow, m.signal)
	return []Metric{
		{Name: "MACD", Lines: line},
		{Name: "Signal", Lines: signal},
		{Name: "Hist", Style: StyleHistogram, Bars: hist},
	}
}

type stochastic struct{ fastK, slowK, slowD int }

// NewStochastic configures a slow stochastic oscillator panel
func NewStochastic(fastK, slowK, slowD int) Indicator {
	return stochastic{fastK: fastK, slowK: slowK, slowD: slowD}
}

func (s stochastic) Name() string {
	return fmt.Sprintf("STOCH(%d, %d, %d)", s.fastK, s.slowK, s.slowD)
}
func (s stochastic) Warmup() int   { return s.fastK + s.slowK + s.slowD - 3 }
func (s stochastic) Overlay() bool { return false }

func (s stochastic) Load(candles []core.Candle) []Metric {
	k, d := Stochastic(candles, s.fastK, s.slowK, s.slowD)
	return []Metric{
		{Name: "K", Lines: k},
		{Name: "D", Lines: d},
	}
}

type cci struct{ period int }

// NewCCI configures a commodity channel index panel
func NewCCI(period int) Indicator { return cci{period: period} }

func (c cci) Name() string  { return fmt.Sprintf("CCI(%d)", c.period) }
func (c cci) Warmup() int   { return c.period - 1 }
func (c cci) Overlay() bool { return false }

func (c cci) Load(candles []core.Candle) []Metric {
	return []Metric{{Name: c.Name(), Lines: CCI(candles, c.period)}}
}

type superTrendStudy struct {
	period int
	factor float64
}

// NewSuperTrend configures a SuperTrend overlay
func NewSuperTrend(period int, factor float64) Indicator {
	return superTrendStudy{period: period, factor: factor}
}

func (s superTrendStudy) Name() string  { return fmt.Sprintf("SuperTrend(%d, %g)", s.period, s.factor) }
func (s superTrendStudy) Warmup() int   { return s.period }
func (s superTrendStudy) Overlay() bool { return true }

func (s superTrendStudy) Load(candles []core.Candle) []Metric {
	return []Metric{{Name: s.Name(), Lines: SuperTrend(candles, s.period, s.factor)}}
}
