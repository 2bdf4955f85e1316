package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raykavin/chartcore/pkg/chart"
	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/indicator"
	"github.com/raykavin/chartcore/pkg/logger/zerolog"
	"github.com/stretchr/testify/require"
)

// batchAt builds n one minute bars starting at start seconds
func batchAt(start int64, n int) Batch {
	candles := make([]core.Candle, 0, n)
	volumes := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		price := float64(10 + i%5)
		candles = append(candles, core.Candle{
			Time:  time.Unix(start+int64(i*60), 0).UTC(),
			Open:  price,
			High:  price + 1,
			Low:   price - 1,
			Close: price + 0.5,
		})
		volumes = append(volumes, float64(i+1))
	}
	return Batch{Candles: candles, Volumes: indicator.Volume(candles, volumes)}
}

func newStore(t *testing.T, rsiPeriod int) (*chart.Chart, *Store) {
	t.Helper()
	c := chart.New(zerolog.NewNop())
	return c, NewStore(c, zerolog.NewNop(), StoreOptions{Symbol: "BTCUSDT", RSIPeriod: rsiPeriod})
}

type fixedWindow struct{ start, end float64 }

func (w fixedWindow) VisibleRange() (float64, float64) { return w.start, w.end }

type fakeSource struct {
	mu    sync.Mutex
	batch Batch
	err   error
	end   time.Time
	limit int
}

func (f *fakeSource) CandlesBefore(_ context.Context, end time.Time, limit int) (Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.end, f.limit = end, limit
	return f.batch, f.err
}

func (f *fakeSource) request() (time.Time, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.end, f.limit
}

func waitEvent(t *testing.T, queue *Queue) Event {
	t.Helper()
	select {
	case event := <-queue.Events():
		return event
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return Event{}
	}
}

func TestQueue(t *testing.T) {
	queue := NewQueue(zerolog.NewNop(), 2)

	require.True(t, queue.Publish(Event{Kind: EventKline}))
	require.True(t, queue.Publish(Event{Kind: EventReplace}))
	require.False(t, queue.Publish(Event{Kind: EventPrepend}), "full queue drops")

	var kinds []EventKind
	require.Equal(t, 2, queue.Drain(func(e Event) { kinds = append(kinds, e.Kind) }))
	require.Equal(t, []EventKind{EventKline, EventReplace}, kinds)
	require.Zero(t, queue.Drain(func(Event) {}))

	require.True(t, queue.Publish(Event{Kind: EventKline}))
	queue.Close()
	queue.Close()
	require.False(t, queue.Publish(Event{Kind: EventKline}))
	require.Equal(t, 1, queue.Drain(func(Event) {}), "pending events survive close")
	require.Zero(t, queue.Drain(func(Event) {}))
}

func TestQueue_ConcurrentPublishers(t *testing.T) {
	queue := NewQueue(zerolog.NewNop(), 100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				queue.Publish(Event{Kind: EventKline})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 100, queue.Drain(func(Event) {}))
}

func TestEventKindString(t *testing.T) {
	require.Equal(t, "replace", EventReplace.String())
	require.Equal(t, "kline", EventKline.String())
	require.Equal(t, "prepend", EventPrepend.String())
	require.Equal(t, "load_failed", EventLoadFailed.String())
}

func TestParseTimeframe(t *testing.T) {
	d, err := ParseTimeframe("1d")
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, d)

	d, err = ParseTimeframe("15m")
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, d)

	_, err = ParseTimeframe("soon")
	require.ErrorIs(t, err, core.ErrInvalidTimeframe)
}

func TestReadCSV(t *testing.T) {
	t.Run("default columns", func(t *testing.T) {
		batch, err := ReadCSV(strings.NewReader("60,1,2,0.5,2.5,10\n0,1,1.5,0.5,2,5\n60,1,3,0.5,3.5,7\n"))
		require.NoError(t, err)
		require.Len(t, batch.Candles, 2)
		require.Len(t, batch.Volumes, 2)

		require.Equal(t, int64(0), batch.Candles[0].Time.Unix())
		require.Equal(t, 1.5, batch.Candles[0].Close)
		require.Equal(t, 3.0, batch.Candles[1].Close, "later duplicate wins")
		require.Equal(t, 3.5, batch.Candles[1].High)
		require.Equal(t, 5.0, batch.Volumes[0].Value)
		require.Equal(t, 7.0, batch.Volumes[1].Value)
	})

	t.Run("header", func(t *testing.T) {
		batch, err := ReadCSV(strings.NewReader("time,high,low,open,close\n120,12,9,10,11\n"))
		require.NoError(t, err)
		require.Len(t, batch.Candles, 1)

		candle := batch.Candles[0]
		require.Equal(t, core.Candle{Time: time.Unix(120, 0).UTC(), Open: 10, High: 12, Low: 9, Close: 11}, candle)
		require.Zero(t, batch.Volumes[0].Value)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		require.ErrorIs(t, err, core.ErrEmptySource)

		_, err = ReadCSV(strings.NewReader("time,open,close,low,high\n"))
		require.ErrorIs(t, err, core.ErrEmptySource)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("0,1,x,0.5,2\n"))
		require.ErrorContains(t, err, "line 1")

		_, err = ReadCSV(strings.NewReader("time,open,close\n0,1,2\n"))
		require.ErrorContains(t, err, "missing column")
	})
}

func TestResample(t *testing.T) {
	batch := batchAt(0, 10)

	resampled, err := Resample(batch, time.Minute, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, resampled.Candles, 2)

	first := resampled.Candles[0]
	require.Equal(t, int64(0), first.Time.Unix())
	require.Equal(t, batch.Candles[0].Open, first.Open)
	require.Equal(t, batch.Candles[4].Close, first.Close)
	require.Equal(t, 15.0, first.High)
	require.Equal(t, 9.0, first.Low)
	require.Equal(t, 15.0, resampled.Volumes[0].Value)
	require.Equal(t, int64(300), resampled.Candles[1].Time.Unix())
	require.Equal(t, 40.0, resampled.Volumes[1].Value)

	same, err := Resample(batch, time.Minute, time.Minute)
	require.NoError(t, err)
	require.Equal(t, batch, same)

	_, err = Resample(batch, 2*time.Minute, 3*time.Minute)
	require.ErrorIs(t, err, core.ErrInvalidTimeframe)
	_, err = Resample(batch, 5*time.Minute, time.Minute)
	require.ErrorIs(t, err, core.ErrInvalidTimeframe)
}

func TestCSVSource(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, strings.Join([]string{
			strconv.Itoa(i * 60), "10", "11", "9", "12", "1",
		}, ","))
	}
	path := filepath.Join(t.TempDir(), "btc-1m.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))

	source, err := NewCSVSource(path, "1m", "5m")
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, source.Timeframe())
	require.Len(t, source.Batch().Candles, 2)
	require.Equal(t, 5.0, source.Batch().Volumes[0].Value)

	latest := source.Latest(1)
	require.Len(t, latest.Candles, 1)
	require.Equal(t, int64(300), latest.Candles[0].Time.Unix())

	older, err := source.CandlesBefore(context.Background(), time.Unix(300, 0), 10)
	require.NoError(t, err)
	require.Len(t, older.Candles, 1)
	require.Equal(t, int64(0), older.Candles[0].Time.Unix())

	none, err := source.CandlesBefore(context.Background(), time.Unix(0, 0), 10)
	require.NoError(t, err)
	require.True(t, none.Empty())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = source.CandlesBefore(ctx, time.Unix(600, 0), 10)
	require.ErrorIs(t, err, context.Canceled)

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), "1m", "")
	require.Error(t, err)
	_, err = NewCSVSource(path, "1m", "30s")
	require.ErrorIs(t, err, core.ErrInvalidTimeframe)
}

func TestStore(t *testing.T) {
	c, store := newStore(t, 0)
	require.Equal(t, time.Minute, store.Interval())

	_, ok := store.Earliest()
	require.False(t, ok)

	require.NoError(t, store.Replace(batchAt(6000, 30)))
	require.Len(t, store.Candles(), 30)
	require.True(t, c.HasRSIPanel())

	earliest, ok := store.Earliest()
	require.True(t, ok)
	require.Equal(t, int64(6000), earliest.Unix())

	options, ok := c.SeriesOptions(store.CandleSeries())
	require.True(t, ok)
	require.Equal(t, "BTCUSDT", options.Title)
	side, ok := c.SeriesScale(store.VolumeSeries())
	require.True(t, ok)
	require.Equal(t, chart.SideLeft, side)

	t.Run("prepend", func(t *testing.T) {
		loaded, err := store.Prepend(Batch{})
		require.NoError(t, err)
		require.False(t, loaded)

		loaded, err = store.Prepend(batchAt(6000-600, 11))
		require.NoError(t, err)
		require.True(t, loaded)
		require.Len(t, store.Candles(), 40, "overlapping bar is kept from the store")

		earliest, _ := store.Earliest()
		require.Equal(t, int64(5400), earliest.Unix())
	})

	t.Run("kline", func(t *testing.T) {
		last, _ := store.Latest()
		next := Kline{OpenTime: last.Add(time.Minute), Open: 20, High: 21, Low: 15, Close: 16, Volume: 42}

		candle, volume, err := store.ApplyKline(next)
		require.NoError(t, err)
		require.Equal(t, next.Candle(), candle)
		require.Equal(t, 42.0, volume.Value)
		require.Equal(t, indicator.Volume([]core.Candle{candle}, []float64{42})[0].Color, volume.Color)

		latest, _ := store.Latest()
		require.Equal(t, next.OpenTime, latest)

		bars, err := c.HistogramPoints(store.VolumeSeries())
		require.NoError(t, err)
		require.Equal(t, volume, bars[len(bars)-1])
	})
}

func TestStore_WithoutRSI(t *testing.T) {
	c, store := newStore(t, -1)
	require.NoError(t, store.Replace(batchAt(0, 30)))
	require.False(t, c.HasRSIPanel())
}

func TestStore_Handle(t *testing.T) {
	_, store := newStore(t, -1)
	loader := NewLazyLoader(&fakeSource{}, 0, 0)

	require.NoError(t, store.Handle(Event{Kind: EventReplace, Batch: batchAt(600, 5)}, loader))
	require.Len(t, store.Candles(), 5)

	require.NoError(t, store.Handle(Event{Kind: EventKline, Kline: Kline{OpenTime: time.Unix(900, 0).UTC(), Open: 1, High: 2, Low: 1, Close: 2}}, nil))
	require.Len(t, store.Candles(), 6)

	failure := errors.New("exchange down")
	err := store.Handle(Event{Kind: EventLoadFailed, Err: failure}, loader)
	require.ErrorIs(t, err, failure)
	require.False(t, loader.Loading())
	require.False(t, loader.Exhausted())
}

func TestLazyLoader(t *testing.T) {
	_, store := newStore(t, -1)
	require.NoError(t, store.Replace(batchAt(60000, 10)))
	earliest, _ := store.Earliest()

	source := &fakeSource{batch: batchAt(60000-300, 5)}
	loader := NewLazyLoader(source, 100, 5)
	queue := NewQueue(zerolog.NewNop(), 0)
	ctx := context.Background()

	far := fixedWindow{start: float64(earliest.Unix()) + 3600, end: float64(earliest.Unix()) + 7200}
	require.False(t, loader.MaybeRequest(ctx, far, store, queue), "window far from the left edge")

	near := fixedWindow{start: float64(earliest.Unix()) + 120, end: float64(earliest.Unix()) + 600}
	require.True(t, loader.MaybeRequest(ctx, near, store, queue))
	require.True(t, loader.Loading())
	require.False(t, loader.MaybeRequest(ctx, near, store, queue), "one request at a time")

	event := waitEvent(t, queue)
	require.Equal(t, EventPrepend, event.Kind)
	end, limit := source.request()
	require.Equal(t, earliest.Add(-time.Millisecond), end)
	require.Equal(t, 100, limit)

	require.NoError(t, store.Handle(event, loader))
	require.False(t, loader.Loading())
	require.Len(t, store.Candles(), 15)

	t.Run("exhausted", func(t *testing.T) {
		source.mu.Lock()
		source.batch = Batch{}
		source.mu.Unlock()

		earliest, _ := store.Earliest()
		near := fixedWindow{start: float64(earliest.Unix()), end: float64(earliest.Unix()) + 600}
		require.True(t, loader.MaybeRequest(ctx, near, store, queue))
		require.NoError(t, store.Handle(waitEvent(t, queue), loader))

		require.True(t, loader.Exhausted())
		require.False(t, loader.MaybeRequest(ctx, near, store, queue))
	})
}

func TestLazyLoader_Failure(t *testing.T) {
	_, store := newStore(t, -1)
	require.NoError(t, store.Replace(batchAt(60000, 10)))
	earliest, _ := store.Earliest()

	failure := errors.New("rate limited")
	clock := time.Unix(1000, 0)
	loader := NewLazyLoader(&fakeSource{err: failure}, 0, 0)
	loader.now = func() time.Time { return clock }
	queue := NewQueue(zerolog.NewNop(), 0)
	near := fixedWindow{start: float64(earliest.Unix()), end: float64(earliest.Unix()) + 600}

	require.True(t, loader.MaybeRequest(context.Background(), near, store, queue))
	event := waitEvent(t, queue)
	require.Equal(t, EventLoadFailed, event.Kind)
	require.ErrorIs(t, event.Err, failure)

	require.ErrorIs(t, store.Handle(event, loader), failure)
	require.False(t, loader.Loading())
	require.False(t, loader.Exhausted())
	require.Equal(t, clock.Add(500*time.Millisecond), loader.RetryAt())
	require.False(t, loader.MaybeRequest(context.Background(), near, store, queue), "waits for the backoff delay")

	clock = clock.Add(time.Second)
	require.True(t, loader.MaybeRequest(context.Background(), near, store, queue), "failed loads can retry")
	require.ErrorIs(t, store.Handle(waitEvent(t, queue), loader), failure)
	require.Equal(t, clock.Add(time.Second), loader.RetryAt(), "delay doubles")

	loader.FinishSuccess(true)
	require.True(t, loader.RetryAt().IsZero())
	require.True(t, loader.MaybeRequest(context.Background(), near, store, queue))
}

func TestLazyLoader_DroppedEventAllowsRetry(t *testing.T) {
	_, store := newStore(t, -1)
	require.NoError(t, store.Replace(batchAt(60000, 10)))
	earliest, _ := store.Earliest()

	clock := time.Unix(1000, 0)
	loader := NewLazyLoader(&fakeSource{batch: batchAt(60000-300, 5)}, 0, 0)
	loader.now = func() time.Time { return clock }

	queue := NewQueue(zerolog.NewNop(), 1)
	require.True(t, queue.Publish(Event{Kind: EventKline}))
	near := fixedWindow{start: float64(earliest.Unix()), end: float64(earliest.Unix()) + 600}

	require.True(t, loader.MaybeRequest(context.Background(), near, store, queue))
	require.Eventually(t, func() bool { return !loader.Loading() }, time.Second, time.Millisecond)
	require.Equal(t, 1, queue.Drain(func(Event) {}))

	clock = clock.Add(time.Second)
	require.True(t, loader.MaybeRequest(context.Background(), near, store, queue))
	event := waitEvent(t, queue)
	require.Equal(t, EventPrepend, event.Kind)
	require.NoError(t, store.Handle(event, loader))
	require.Len(t, store.Candles(), 15)
}

func TestLazyLoader_EmptyStore(t *testing.T) {
	_, store := newStore(t, -1)
	loader := NewLazyLoader(&fakeSource{}, 0, 0)
	require.False(t, loader.MaybeRequest(context.Background(), fixedWindow{}, store, NewQueue(zerolog.NewNop(), 0)))
}
