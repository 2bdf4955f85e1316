package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/raykavin/chartcore"
	"github.com/raykavin/chartcore/pkg/chart"
	"github.com/raykavin/chartcore/pkg/core"
	"github.com/raykavin/chartcore/pkg/feed"
	"github.com/raykavin/chartcore/pkg/indicator"
	"github.com/raykavin/chartcore/pkg/storage"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	configPath string

	file      string
	database  string
	symbol    string
	timeframe string
	resample  string

	rsiPeriod  int
	indicators []string
	history    int
	pages      int
	batchSize  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "chartcore",
		Short:   "Chart engine utilities",
		Version: "1.0.0",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (e.g. ./chartcore.yaml)")
	rootCmd.PersistentFlags().StringVarP(&symbol, "symbol", "p", "BTCUSDT", "Symbol of the candles")
	rootCmd.PersistentFlags().StringVarP(&timeframe, "timeframe", "t", "1m", "Timeframe of the source (e.g. 1h)")
	rootCmd.PersistentFlags().StringVarP(&resample, "resample", "r", "", "Resample CSV candles to this timeframe")

	rootCmd.AddCommand(buildInspectCmd(), buildCacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Compute a chart frame and print its layout and axes",
		RunE:  runInspect,
	}

	inspectCmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with candles (e.g. ./btc.csv)")
	inspectCmd.Flags().StringVarP(&database, "db", "d", "", "BuntDB cache written by the cache command")
	inspectCmd.Flags().Float64("width", 1200, "Viewport width in pixels")
	inspectCmd.Flags().Float64("height", 800, "Viewport height in pixels")
	inspectCmd.Flags().String("mode", "", "Main price scale mode (normal, log, percentage, indexed)")
	inspectCmd.Flags().IntVar(&rsiPeriod, "rsi", 14, "RSI period, negative to hide the oscillator")
	inspectCmd.Flags().StringSliceVarP(&indicators, "indicator", "i", nil, "Indicators to attach (e.g. sma:20,macd,bb:20:2)")
	inspectCmd.Flags().IntVar(&history, "history", 0, "Bars loaded up front, 0 for all")
	inspectCmd.Flags().IntVar(&pages, "pages", 0, "Older pages the lazy loader may fetch")
	inspectCmd.Flags().IntVar(&batchSize, "batch", 500, "Bars per lazily loaded page")
	inspectCmd.MarkFlagsMutuallyExclusive("file", "db")

	return inspectCmd
}

func buildCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Import CSV candles into a BuntDB cache",
		RunE:  runCache,
	}

	cacheCmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with candles (e.g. ./btc.csv)")
	cacheCmd.Flags().StringVarP(&database, "db", "d", "", "Cache file path (e.g. ./btc.db)")
	cacheCmd.Flags().IntVar(&batchSize, "batch", 500, "Candles written per transaction")

	cacheCmd.MarkFlagRequired("file")
	cacheCmd.MarkFlagRequired("db")

	return cacheCmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	studies, err := parseIndicators(indicators)
	if err != nil {
		return err
	}

	source, initial, interval, closeSource, err := openSource()
	if err != nil {
		return err
	}
	defer closeSource()

	c, store := chartcore.NewMarketChart(symbol, interval, rsiPeriod, chart.WithOptions(config.Chart))
	if err := store.Replace(initial); err != nil {
		return err
	}

	if err := loadHistory(cmd.Context(), c, store, source, config); err != nil {
		return err
	}

	for _, study := range studies {
		if _, err := indicator.Attach(c, store.Candles(), study); err != nil {
			chartcore.DefaultLog.WithError(err).Warnf("indicator %s skipped", study.Name())
		}
	}

	frame := c.Frame(config.Viewport)
	closes := lo.Map(store.Candles(), func(candle core.Candle, _ int) float64 { return candle.Close })
	return chartcore.Summary(cmd.OutOrStdout(), frame, closes)
}

// openSource opens the CSV file or the cache and returns its latest bars
func openSource() (feed.HistorySource, feed.Batch, time.Duration, func(), error) {
	noop := func() {}
	if database != "" {
		tf, err := feed.ParseTimeframe(timeframe)
		if err != nil {
			return nil, feed.Batch{}, 0, noop, err
		}
		cache, err := storage.FromFile(database, symbol)
		if err != nil {
			return nil, feed.Batch{}, 0, noop, err
		}
		latest, err := cache.Latest(history)
		if err != nil {
			cache.Close()
			return nil, feed.Batch{}, 0, noop, err
		}
		return cache, latest, tf, func() { cache.Close() }, nil
	}

	if file == "" {
		return nil, feed.Batch{}, 0, noop, fmt.Errorf("one of --file or --db is required")
	}
	csvSource, err := feed.NewCSVSource(file, timeframe, resample)
	if err != nil {
		return nil, feed.Batch{}, 0, noop, err
	}
	return csvSource, csvSource.Latest(history), csvSource.Timeframe(), noop, nil
}

// loadHistory lets the lazy loader page older bars while the window stays
// near the earliest loaded one, up to the configured number of pages
func loadHistory(ctx context.Context, c *chart.Chart, store *feed.Store, source feed.HistorySource, config *Config) error {
	if pages <= 0 {
		return nil
	}

	queue := feed.NewQueue(chartcore.DefaultLog, 0)
	defer queue.Close()
	loader := feed.NewLazyLoader(source, batchSize, 0)

	for page := 0; page < pages; page++ {
		c.Frame(config.Viewport)
		if !loader.MaybeRequest(ctx, c, store, queue) {
			return nil
		}

		select {
		case event := <-queue.Events():
			if err := store.Handle(event, loader); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func runCache(_ *cobra.Command, _ []string) error {
	source, err := feed.NewCSVSource(file, timeframe, resample)
	if err != nil {
		return err
	}

	cache, err := storage.FromFile(database, symbol)
	if err != nil {
		return err
	}
	defer cache.Close()

	batch := source.Batch()
	progressBar := progressbar.Default(int64(len(batch.Candles)))
	for _, chunk := range chunks(batch, batchSize) {
		saved, err := cache.Save(chunk)
		if err != nil {
			return err
		}
		if err := progressBar.Add(saved); err != nil {
			chartcore.DefaultLog.Warnf("update progressbar fail: %v", err)
		}
	}

	count, err := cache.Count()
	if err != nil {
		return err
	}
	chartcore.DefaultLog.WithFields(map[string]any{
		"symbol":    symbol,
		"timeframe": source.Timeframe().String(),
		"candles":   count,
	}).Info("cache updated")
	return nil
}

// chunks splits a batch into pieces of at most size candles
func chunks(batch feed.Batch, size int) []feed.Batch {
	if size <= 0 {
		size = len(batch.Candles)
	}
	candles := lo.Chunk(batch.Candles, max(size, 1))
	volumes := lo.Chunk(batch.Volumes, max(size, 1))
	return lo.Map(candles, func(part []core.Candle, i int) feed.Batch {
		b := feed.Batch{Candles: part}
		if i < len(volumes) {
			b.Volumes = volumes[i]
		}
		return b
	})
}
