package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/indicator"
	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"
)

// column order of files without a header row
var defaultColumns = map[string]int{
	"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
}

var requiredColumns = []string{"time", "open", "close", "low", "high"}

// ParseTimeframe reads timeframes such as 1m, 4h or 1d
func ParseTimeframe(timeframe string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(timeframe)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidTimeframe, timeframe)
	}
	return d, nil
}

// CSVSource serves candles read from a CSV file. Rows hold a unix time in
// seconds followed by open, close, low, high and an optional volume, unless
// a header row names the columns.
type CSVSource struct {
	batch     Batch
	timeframe time.Duration
}

// NewCSVSource loads path and resamples it from timeframe to target when
// target is not empty.
func NewCSVSource(path, timeframe, target string) (*CSVSource, error) {
	from, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	batch, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	source := &CSVSource{batch: batch, timeframe: from}
	if target != "" && target != timeframe {
		to, err := ParseTimeframe(target)
		if err != nil {
			return nil, err
		}
		if source.batch, err = Resample(batch, from, to); err != nil {
			return nil, err
		}
		source.timeframe = to
	}
	return source, nil
}

// ReadCSV parses candles and volumes, sorted by time with duplicates removed
func ReadCSV(r io.Reader) (Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	if err != nil {
		return Batch{}, err
	}
	if len(lines) == 0 {
		return Batch{}, core.ErrEmptySource
	}

	columns, header := parseHeader(lines[0])
	if header {
		lines = lines[1:]
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return Batch{}, fmt.Errorf("missing column %q", name)
		}
	}

	var (
		candles = core.NewSeries[core.Candle](nil)
		volumes = make(map[int64]float64, len(lines))
	)
	for i, line := range lines {
		candle, volume, err := parseLine(line, columns)
		if err != nil {
			return Batch{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		candles.Upsert(candle)
		volumes[candle.Time.Unix()] = volume
	}
	if candles.Empty() {
		return Batch{}, core.ErrEmptySource
	}

	return newBatch(candles.Values(), volumes), nil
}

// parseHeader maps column names to indexes. A numeric first cell means
// there is no header.
func parseHeader(first []string) (map[string]int, bool) {
	if _, err := strconv.ParseFloat(first[0], 64); err == nil {
		return defaultColumns, false
	}
	return lo.SliceToMap(lo.Range(len(first)), func(i int) (string, int) { return first[i], i }), true
}

func parseLine(line []string, columns map[string]int) (core.Candle, float64, error) {
	field := func(name string) (float64, error) {
		index, ok := columns[name]
		if !ok || index >= len(line) {
			return 0, nil
		}
		return strconv.ParseFloat(line[index], 64)
	}

	if columns["time"] >= len(line) {
		return core.Candle{}, 0, fmt.Errorf("time: %w", strconv.ErrSyntax)
	}
	seconds, err := strconv.ParseInt(line[columns["time"]], 10, 64)
	if err != nil {
		return core.Candle{}, 0, fmt.Errorf("time: %w", err)
	}
	candle := core.Candle{Time: time.Unix(seconds, 0).UTC()}

	for name, target := range map[string]*float64{
		"open": &candle.Open, "close": &candle.Close, "low": &candle.Low, "high": &candle.High,
	} {
		if *target, err = field(name); err != nil {
			return core.Candle{}, 0, fmt.Errorf("%s: %w", name, err)
		}
	}

	volume, err := field("volume")
	if err != nil {
		return core.Candle{}, 0, fmt.Errorf("volume: %w", err)
	}
	return candle, volume, nil
}

// newBatch pairs sorted candles with their volumes by open time
func newBatch(candles []core.Candle, volumes map[int64]float64) Batch {
	values := lo.Map(candles, func(c core.Candle, _ int) float64 { return volumes[c.Time.Unix()] })
	return Batch{Candles: candles, Volumes: indicator.Volume(candles, values)}
}

// Resample merges candles of duration from into candles of duration to.
// Buckets follow time.Time.Truncate, so timeframes dividing a day align on
// UTC boundaries. The last bucket may be partial.
func Resample(batch Batch, from, to time.Duration) (Batch, error) {
	if to < from || to%from != 0 {
		return Batch{}, fmt.Errorf("%w: cannot resample %s to %s", core.ErrInvalidTimeframe, from, to)
	}
	if to == from || batch.Empty() {
		return batch, nil
	}

	volumeAt := lo.SliceToMap(batch.Volumes, func(v core.HistogramPoint) (int64, float64) { return v.Time.Unix(), v.Value })

	var (
		candles []core.Candle
		volumes = make(map[int64]float64)
	)
	for _, candle := range batch.Candles {
		bucket := candle.Time.Truncate(to)
		volume := volumeAt[candle.Time.Unix()]

		if n := len(candles); n > 0 && candles[n-1].Time.Equal(bucket) {
			current := &candles[n-1]
			current.High = math.Max(current.High, candle.High)
			current.Low = math.Min(current.Low, candle.Low)
			current.Close = candle.Close
			volumes[bucket.Unix()] += volume
			continue
		}

		candle.Time = bucket
		candles = append(candles, candle)
		volumes[bucket.Unix()] = volume
	}
	return newBatch(candles, volumes), nil
}

// Timeframe is the bar duration of the served candles
func (s *CSVSource) Timeframe() time.Duration { return s.timeframe }

// Batch returns everything the file holds
func (s *CSVSource) Batch() Batch { return s.batch }

// Latest returns the last limit bars, or all of them when limit is not positive
func (s *CSVSource) Latest(limit int) Batch {
	return s.slice(len(s.batch.Candles), limit)
}

// CandlesBefore implements HistorySource
func (s *CSVSource) CandlesBefore(ctx context.Context, end time.Time, limit int) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	index, _ := slices.BinarySearchFunc(s.batch.Candles, end, func(c core.Candle, t time.Time) int {
		return c.Time.Compare(t)
	})
	return s.slice(index, limit), nil
}

// slice returns up to limit bars ending before index
func (s *CSVSource) slice(index, limit int) Batch {
	start := 0
	if limit > 0 {
		start = max(index-limit, 0)
	}
	return Batch{
		Candles: slices.Clone(s.batch.Candles[start:index]),
		Volumes: slices.Clone(s.batch.Volumes[start:index]),
	}
}
