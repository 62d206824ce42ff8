package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/Chinedu-E/tradetrail/internal/marketdata"
	"github.com/Chinedu-E/tradetrail/internal/storage"
	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

// BarWriter persists validated bars; the storage layer satisfies it.
type BarWriter interface {
	UpsertBar(ctx context.Context, bar storage.DailyBar) error
}

// Consumer reads price messages from the broker and persists them.
type Consumer struct {
	reader *kafka.Reader
	store  BarWriter
	dedupe *cache

	malformed uint64
	persisted uint64
	duplicate uint64
}

// NewConsumer wires a kafka reader to the bar store.
func NewConsumer(reader *kafka.Reader, store BarWriter) (*Consumer, error) {
	if reader == nil || store == nil {
		return nil, exception.ErrNilInstance
	}
	return &Consumer{
		reader: reader,
		store:  store,
		dedupe: newCache(20000, 48*time.Hour),
	}, nil
}

// Run consumes until the context is canceled. Messages are committed after a
// successful persist (at-least-once); malformed messages are committed and
// counted so they are never retried.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logs.Errorf("fetch message, err: %+v", err)
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			if errors.Is(err, exception.ErrMalformedMessage) {
				c.malformed++
				logs.Warnf("skip malformed message at offset %d, err: %+v", msg.Offset, err)
			} else {
				// persistence failure: leave uncommitted, reprocess after restart
				logs.Errorf("persist message at offset %d, err: %+v", msg.Offset, err)
				continue
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logs.Errorf("commit message, err: %+v", err)
		}
	}
}

// Stats reports how many messages were persisted, deduplicated, and skipped.
func (c *Consumer) Stats() (persisted, duplicate, malformed uint64) {
	return c.persisted, c.duplicate, c.malformed
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var bar marketdata.Bar
	if err := json.Unmarshal(msg.Value, &bar); err != nil {
		return errors.Wrap(exception.ErrMalformedMessage, err.Error())
	}
	if bar.Symbol == "" || bar.Date == "" {
		return errors.Wrap(exception.ErrMalformedMessage, "empty symbol or date")
	}
	if _, err := time.Parse("2006-01-02", bar.Date); err != nil {
		return errors.Wrapf(exception.ErrMalformedMessage, "bad date %q", bar.Date)
	}

	key := bar.Symbol + "|" + bar.Date
	if c.dedupe.seen(key) {
		c.duplicate++
		return nil
	}

	open, high, low, closing := bar.Floats()
	if closing <= 0 {
		return errors.Wrapf(exception.ErrMalformedMessage, "bad close for %s", bar.Symbol)
	}

	row := storage.DailyBar{
		Symbol: bar.Symbol,
		Date:   bar.Date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closing,
		Volume: bar.Volume,
	}
	if err := c.store.UpsertBar(ctx, row); err != nil {
		return err
	}

	c.dedupe.mark(key)
	c.persisted++
	return nil
}
