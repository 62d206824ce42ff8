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

const (
	idleSleep = time.Minute
	passPause = 5 * time.Second
)

// Window is the weekday exchange window the streamer runs inside.
type Window struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

// Contains reports whether t falls inside the weekday trading window.
func (w Window) Contains(t time.Time) bool {
	local := t.In(w.Location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return local.Hour() >= w.OpenHour && local.Hour() < w.CloseHour
}

// Quotes streams live quotes for the universe while the market is open.
type Quotes struct {
	source   QuoteSource
	sink     Sink
	universe *marketdata.Universe
	window   Window
	workers  int
	metrics  *obs.Metrics
}

// NewQuotes builds the live quote streamer.
func NewQuotes(source QuoteSource, sink Sink, universe *marketdata.Universe, window Window, workers int, metrics *obs.Metrics) (*Quotes, error) {
	if source == nil || sink == nil {
		return nil, exception.ErrNilInstance
	}
	if universe == nil || universe.Len() == 0 {
		return nil, exception.ErrEmptyUniverse
	}
	if window.Location == nil {
		window.Location = time.UTC
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Quotes{
		source:   source,
		sink:     sink,
		universe: universe,
		window:   window,
		workers:  workers,
		metrics:  metrics,
	}, nil
}

// Run loops until the context is canceled: inside the trading window it
// publishes a full universe pass then pauses briefly, outside it sleeps.
func (q *Quotes) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !q.window.Contains(time.Now()) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idleSleep):
			}
			continue
		}

		q.pass(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(passPause):
		}
	}
}

func (q *Quotes) pass(ctx context.Context) {
	symbols := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbols {
				start := time.Now()
				quote, err := q.source.LiveQuote(ctx, symbol)
				q.metrics.ObserveFetch(time.Since(start))
				if err != nil {
					logs.Warnf("fetch live quote for %s, err: %+v", symbol, err)
					continue
				}
				if err := q.sink.Publish(ctx, symbol, quote); err != nil {
					q.metrics.IncPublishFailure()
					logs.Errorf("publish live quote for %s, err: %+v", symbol, err)
				}
			}
		}()
	}

feed:
	for _, symbol := range q.universe.Symbols() {
		select {
		case <-ctx.Done():
			break feed
		case symbols <- symbol:
		}
	}
	close(symbols)
	wg.Wait()
}
