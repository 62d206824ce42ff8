package marketdata

import "testing"

func TestFeedDeterminism(t *testing.T) {
	cfg := FeedConfig{Symbol: "AAPL", BasePrice: 100, Seed: 42}

	a, err := NewFeed(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	b, err := NewFeed(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	for i := 0; i < 100; i++ {
		ta, tb := a.Next(), b.Next()
		if ta.Price != tb.Price {
			t.Fatalf("same seed diverged at tick %d: %f vs %f", i, ta.Price, tb.Price)
		}
		if ta.Seq != uint64(i+1) {
			t.Fatalf("seq mismatch! should be %d but got %d", i+1, ta.Seq)
		}
	}
}

func TestFeedMinPriceFloor(t *testing.T) {
	feed, err := NewFeed(FeedConfig{
		Symbol:     "AAPL",
		BasePrice:  100,
		Drift:      -0.5,
		Volatility: 0.001,
		MinPrice:   10,
		Seed:       7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	for i := 0; i < 50; i++ {
		if tick := feed.Next(); tick.Price < 10 {
			t.Fatalf("price fell through the floor: %f", tick.Price)
		}
	}
}

func TestFeedValidation(t *testing.T) {
	if _, err := NewFeed(FeedConfig{BasePrice: 100}); err == nil {
		t.Fatal("empty symbol should fail")
	}
	if _, err := NewFeed(FeedConfig{Symbol: "AAPL"}); err == nil {
		t.Fatal("zero base price should fail")
	}
}
