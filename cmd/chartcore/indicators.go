package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/StudioSol/set"
	"github.com/raykavin/chartcore/pkg/indicator"
)

type studyFactory func(args []float64) (indicator.Indicator, error)

// studies maps indicator names to their constructors and default arguments
var studies = map[string]struct {
	defaults []float64
	build    studyFactory
}{
	"rsi": {[]float64{14}, func(a []float64) (indicator.Indicator, error) { return indicator.NewRSI(int(a[0])), nil }},
	"sma": {[]float64{20}, func(a []float64) (indicator.Indicator, error) { return indicator.NewSMA(int(a[0])), nil }},
	"ema": {[]float64{9}, func(a []float64) (indicator.Indicator, error) { return indicator.NewEMA(int(a[0])), nil }},
	"bb": {[]float64{20, 2}, func(a []float64) (indicator.Indicator, error) {
		return indicator.NewBollinger(int(a[0]), a[1]), nil
	}},
	"macd": {[]float64{12, 26, 9}, func(a []float64) (indicator.Indicator, error) {
		if a[1] <= a[0] {
			return nil, fmt.Errorf("macd slow period must exceed the fast one")
		}
		return indicator.NewMACD(int(a[0]), int(a[1]), int(a[2])), nil
	}},
	"stoch": {[]float64{14, 3, 3}, func(a []float64) (indicator.Indicator, error) {
		return indicator.NewStochastic(int(a[0]), int(a[1]), int(a[2])), nil
	}},
	"cci": {[]float64{20}, func(a []float64) (indicator.Indicator, error) { return indicator.NewCCI(int(a[0])), nil }},
	"supertrend": {[]float64{10, 3}, func(a []float64) (indicator.Indicator, error) {
		return indicator.NewSuperTrend(int(a[0]), a[1]), nil
	}},
}

// parseIndicators turns specs such as rsi:14, sma:20 or bb:20:2 into
// studies. Repeated specs are dropped and the first order is kept.
func parseIndicators(specs []string) ([]indicator.Indicator, error) {
	unique := set.NewLinkedHashSetString()
	for _, spec := range specs {
		if spec = strings.ToLower(strings.TrimSpace(spec)); spec != "" {
			unique.Add(spec)
		}
	}

	var ordered []string
	for spec := range unique.Iter() {
		ordered = append(ordered, spec)
	}

	result := make([]indicator.Indicator, 0, len(ordered))
	for _, spec := range ordered {
		study, err := parseIndicator(spec)
		if err != nil {
			return nil, err
		}
		result = append(result, study)
	}
	return result, nil
}

func parseIndicator(spec string) (indicator.Indicator, error) {
	parts := strings.Split(spec, ":")
	entry, ok := studies[parts[0]]
	if !ok {
		return nil, fmt.Errorf("unknown indicator %q", parts[0])
	}
	if len(parts)-1 > len(entry.defaults) {
		return nil, fmt.Errorf("indicator %q takes at most %d arguments", parts[0], len(entry.defaults))
	}

	args := append([]float64(nil), entry.defaults...)
	for i, raw := range parts[1:] {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			return nil, fmt.Errorf("indicator %q: invalid argument %q", spec, raw)
		}
		args[i] = value
	}
	return entry.build(args)
}
