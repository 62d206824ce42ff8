package producer

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"github.com/Chinedu-E/tradetrail/internal/marketdata"
	"github.com/Chinedu-E/tradetrail/internal/obs"
	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

const defaultWorkers = 16

// QuoteSource provides the upstream market data the producers fan over.
type QuoteSource interface {
	LatestBar(ctx context.Context, symbol string) (marketdata.Bar, error)
	LiveQuote(ctx context.Context, symbol string) (marketdata.Quote, error)
}

// Sink receives produced messages; the broker publisher satisfies it.
type Sink interface {
	Publish(ctx context.Context, key string, value any) error
}

// Daily publishes the latest daily bar for every symbol in the universe.
type Daily struct {
	source   QuoteSource
	sink     Sink
	universe *marketdata.Universe
	workers  int
	metrics  *obs.Metrics
}

// NewDaily builds the daily bar producer.
func NewDaily(source QuoteSource, sink Sink, universe *marketdata.Universe, workers int, metrics *obs.Metrics) (*Daily, error) {
	if source == nil || sink == nil {
		return nil, exception.ErrNilInstance
	}
	if universe == nil || universe.Len() == 0 {
		return nil, exception.ErrEmptyUniverse
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Daily{
		source:   source,
		sink:     sink,
		universe: universe,
		workers:  workers,
		metrics:  metrics,
	}, nil
}

// Run fans the universe over the worker pool once. A failed symbol is logged
// and skipped; the error return covers broker-level failure only.
func (d *Daily) Run(ctx context.Context) error {
	symbols := make(chan string)
	var publishErr error
	var errOnce sync.Once
	var wg sync.WaitGroup

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbols {
				start := time.Now()
				bar, err := d.source.LatestBar(ctx, symbol)
				d.metrics.ObserveFetch(time.Since(start))
				if err != nil {
					logs.Warnf("fetch daily bar for %s, err: %+v", symbol, err)
					continue
				}
				if err := d.sink.Publish(ctx, symbol, bar); err != nil {
					d.metrics.IncPublishFailure()
					logs.Errorf("publish daily bar for %s, err: %+v", symbol, err)
					errOnce.Do(func() { publishErr = err })
				}
			}
		}()
	}

feed:
	for _, symbol := range d.universe.Symbols() {
		select {
		case <-ctx.Done():
			break feed
		case symbols <- symbol:
		}
	}
	close(symbols)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return publishErr
}
