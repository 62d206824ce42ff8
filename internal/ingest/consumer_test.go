package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yanun0323/errors"

	"github.com/Chinedu-E/tradetrail/internal/storage"
	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

type fakeBarWriter struct {
	bars []storage.DailyBar
	err  error
}

func (f *fakeBarWriter) UpsertBar(ctx context.Context, bar storage.DailyBar) error {
	if f.err != nil {
		return f.err
	}
	f.bars = append(f.bars, bar)
	return nil
}

func testConsumer(t *testing.T, store BarWriter) *Consumer {
	t.Helper()
	return &Consumer{
		store:  store,
		dedupe: newCache(100, time.Hour),
	}
}

func message(value string) kafka.Message {
	return kafka.Message{Value: []byte(value)}
}

func TestConsumerHandle(t *testing.T) {
	store := &fakeBarWriter{}
	c := testConsumer(t, store)

	body := `{"symbol":"AAPL","date":"2024-03-04","open":"186","high":"189.5","low":"185.5","close":"187.5","volume":2000}`
	if err := c.handle(context.Background(), message(body)); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	if len(store.bars) != 1 {
		t.Fatalf("bar count mismatch! should be 1 but got %d", len(store.bars))
	}
	bar := store.bars[0]
	if bar.Symbol != "AAPL" || bar.Date != "2024-03-04" {
		t.Fatalf("bar identity mismatch: %+v", bar)
	}
	if bar.Close != 187.5 || bar.Volume != 2000 {
		t.Fatalf("bar values mismatch: %+v", bar)
	}

	persisted, duplicate, malformed := c.Stats()
	if persisted != 1 || duplicate != 0 || malformed != 0 {
		t.Fatalf("stats mismatch: %d %d %d", persisted, duplicate, malformed)
	}
}

func TestConsumerHandleDuplicate(t *testing.T) {
	store := &fakeBarWriter{}
	c := testConsumer(t, store)

	body := `{"symbol":"AAPL","date":"2024-03-04","close":"187.5"}`
	for i := 0; i < 3; i++ {
		if err := c.handle(context.Background(), message(body)); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
	}

	if len(store.bars) != 1 {
		t.Fatalf("duplicates should not persist: got %d bars", len(store.bars))
	}
	persisted, duplicate, _ := c.Stats()
	if persisted != 1 || duplicate != 2 {
		t.Fatalf("stats mismatch: persisted=%d duplicate=%d", persisted, duplicate)
	}
}

func TestConsumerHandleMalformed(t *testing.T) {
	store := &fakeBarWriter{}
	c := testConsumer(t, store)

	testCases := []struct {
		desc string
		body string
	}{
		{"not json", "not json"},
		{"numeric close", `{"symbol":"AAPL","date":"2024-03-04","close":187.5}`},
		{"missing symbol", `{"date":"2024-03-04","close":"1"}`},
		{"missing date", `{"symbol":"AAPL","close":"1"}`},
		{"bad date", `{"symbol":"AAPL","date":"03/04/2024","close":"1"}`},
		{"zero close", `{"symbol":"AAPL","date":"2024-03-04","close":"0"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			err := c.handle(context.Background(), message(tc.body))
			if !errors.Is(err, exception.ErrMalformedMessage) {
				t.Fatalf("expected ErrMalformedMessage, got %+v", err)
			}
		})
	}

	if len(store.bars) != 0 {
		t.Fatalf("malformed messages should not persist: got %d bars", len(store.bars))
	}
}

func TestConsumerHandlePersistFailure(t *testing.T) {
	store := &fakeBarWriter{err: errors.New("db down")}
	c := testConsumer(t, store)

	body := `{"symbol":"AAPL","date":"2024-03-04","close":"187.5"}`
	err := c.handle(context.Background(), message(body))
	if err == nil || errors.Is(err, exception.ErrMalformedMessage) {
		t.Fatalf("persist failure should surface as its own error, got %+v", err)
	}

	// the bar is not marked seen, a retry persists it
	store.err = nil
	if err := c.handle(context.Background(), message(body)); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if len(store.bars) != 1 {
		t.Fatalf("retry should persist the bar: got %d", len(store.bars))
	}
}

func TestNewConsumerValidation(t *testing.T) {
	if _, err := NewConsumer(nil, &fakeBarWriter{}); !errors.Is(err, exception.ErrNilInstance) {
		t.Fatalf("expected ErrNilInstance, got %+v", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newCache(10, 10*time.Millisecond)
	c.mark("AAPL|2024-03-04")
	if !c.seen("AAPL|2024-03-04") {
		t.Fatal("fresh key should be seen")
	}

	time.Sleep(20 * time.Millisecond)
	if c.seen("AAPL|2024-03-04") {
		t.Fatal("expired key should not be seen")
	}
}
