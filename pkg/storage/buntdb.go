// Package storage caches candle history in BuntDB so charts can page older
// bars without going back to the original source.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/feed"
	"github.com/raykavin/chartcore/pkg/indicator"
	"github.com/shopspring/decimal"
	"github.com/tidwall/buntdb"
)

// ErrBeforeEpoch is returned for candles opened before 1970, which the key
// layout cannot order
var ErrBeforeEpoch = errors.New("candle opened before the unix epoch")

// record is the stored form of a candle and its volume
type record struct {
	Time   int64           `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

func newRecord(candle core.Candle, volume float64) record {
	return record{
		Time:   candle.Time.Unix(),
		Open:   decimal.NewFromFloat(candle.Open),
		High:   decimal.NewFromFloat(candle.High),
		Low:    decimal.NewFromFloat(candle.Low),
		Close:  decimal.NewFromFloat(candle.Close),
		Volume: decimal.NewFromFloat(volume),
	}
}

func (r record) candle() core.Candle {
	return core.Candle{
		Time:  time.Unix(r.Time, 0).UTC(),
		Open:  r.Open.InexactFloat64(),
		High:  r.High.InexactFloat64(),
		Low:   r.Low.InexactFloat64(),
		Close: r.Close.InexactFloat64(),
	}
}

// CandleStore keeps the candles of one symbol. Keys embed the zero padded
// open time so key order is time order.
type CandleStore struct {
	db     *buntdb.DB
	symbol string
}

// FromMemory creates an in-memory store
func FromMemory(symbol string) (*CandleStore, error) {
	return NewCandleStore(":memory:", symbol)
}

// FromFile creates a file-based store
func FromFile(file, symbol string) (*CandleStore, error) {
	return NewCandleStore(file, symbol)
}

// NewCandleStore opens a BuntDB database for symbol
func NewCandleStore(sourceFile, symbol string) (*CandleStore, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, errors.New("candle store needs a symbol")
	}

	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}
	return &CandleStore{db: db, symbol: symbol}, nil
}

// Symbol is the symbol the stored candles belong to
func (s *CandleStore) Symbol() string { return s.symbol }

func (s *CandleStore) prefix() string {
	return "candle:" + s.symbol + ":"
}

func (s *CandleStore) key(seconds int64) string {
	return fmt.Sprintf("%s%020d", s.prefix(), seconds)
}

// Save upserts every candle of the batch with its volume and returns how
// many were written
func (s *CandleStore) Save(batch feed.Batch) (int, error) {
	volumes := make(map[int64]float64, len(batch.Volumes))
	for _, v := range batch.Volumes {
		volumes[v.Time.Unix()] = v.Value
	}

	err := s.db.Update(func(tx *buntdb.Tx) error {
		for _, candle := range batch.Candles {
			if candle.Time.Unix() < 0 {
				return fmt.Errorf("%s: %w", candle.Time.Format(time.RFC3339), ErrBeforeEpoch)
			}

			content, err := json.Marshal(newRecord(candle, volumes[candle.Time.Unix()]))
			if err != nil {
				return fmt.Errorf("failed to marshal candle: %w", err)
			}
			if _, _, err := tx.Set(s.key(candle.Time.Unix()), string(content), nil); err != nil {
				return fmt.Errorf("failed to store candle: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(batch.Candles), nil
}

// Range returns the candles opened in [start, end)
func (s *CandleStore) Range(start, end time.Time) (feed.Batch, error) {
	var records []record
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendRange("", s.key(max(ceilSeconds(start), 0)), s.key(ceilSeconds(end)), collect(&records))
	})
	if err != nil {
		return feed.Batch{}, fmt.Errorf("failed to read candles: %w", err)
	}
	return toBatch(records), nil
}

// CandlesBefore implements feed.HistorySource
func (s *CandleStore) CandlesBefore(ctx context.Context, end time.Time, limit int) (feed.Batch, error) {
	if err := ctx.Err(); err != nil {
		return feed.Batch{}, err
	}
	last := ceilSeconds(end) - 1
	if last < 0 {
		return feed.Batch{}, nil
	}
	return s.descend(s.key(last), limit)
}

// Latest returns the newest limit candles, or all when limit is not positive
func (s *CandleStore) Latest(limit int) (feed.Batch, error) {
	return s.descend(s.prefix()+"~", limit)
}

// Count is the number of stored candles
func (s *CandleStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(s.prefix()+"*", func(_, _ string) bool {
			count++
			return true
		})
	})
	return count, err
}

// descend walks keys from pivot down to the oldest candle
func (s *CandleStore) descend(pivot string, limit int) (feed.Batch, error) {
	var records []record
	err := s.db.View(func(tx *buntdb.Tx) error {
		iterate := collect(&records)
		return tx.DescendRange("", pivot, s.prefix(), func(key, value string) bool {
			if !iterate(key, value) {
				return false
			}
			return limit <= 0 || len(records) < limit
		})
	})
	if err != nil {
		return feed.Batch{}, fmt.Errorf("failed to read candles: %w", err)
	}
	slices.Reverse(records)
	return toBatch(records), nil
}

// collect decodes visited values into records, skipping unreadable ones
func collect(records *[]record) func(key, value string) bool {
	return func(_, value string) bool {
		var r record
		if err := json.Unmarshal([]byte(value), &r); err != nil {
			return true
		}
		*records = append(*records, r)
		return true
	}
}

func toBatch(records []record) feed.Batch {
	candles := make([]core.Candle, 0, len(records))
	volumes := make([]float64, 0, len(records))
	for _, r := range records {
		candles = append(candles, r.candle())
		volumes = append(volumes, r.Volume.InexactFloat64())
	}
	return feed.Batch{Candles: candles, Volumes: indicator.Volume(candles, volumes)}
}

// ceilSeconds is the first whole second at or after t
func ceilSeconds(t time.Time) int64 {
	seconds := t.Unix()
	if t.Nanosecond() > 0 {
		seconds++
	}
	return seconds
}

// Close closes the database connection
func (s *CandleStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
