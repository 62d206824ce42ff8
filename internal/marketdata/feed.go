package marketdata

import (
	"math/rand"
	"time"

	"github.com/yanun0323/errors"
)

// FeedConfig bounds the synthetic session price walk.
type FeedConfig struct {
	Symbol     string
	BasePrice  float64
	Volatility float64 // max fractional move per tick
	Drift      float64 // fractional bias per tick
	MinPrice   float64
	Seed       int64
}

// Feed generates synthetic session ticks as a seeded random walk.
type Feed struct {
	cfg   FeedConfig
	rng   *rand.Rand
	price float64
	seq   uint64
}

// NewFeed validates the config and creates a generator. A zero seed falls back
// to the current time, so tests fix the seed explicitly.
func NewFeed(cfg FeedConfig) (*Feed, error) {
	if cfg.Symbol == "" {
		return nil, errors.New("feed symbol is empty")
	}
	if cfg.BasePrice <= 0 {
		return nil, errors.Errorf("feed base price must be > 0, got %f", cfg.BasePrice)
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.002
	}
	if cfg.MinPrice <= 0 {
		cfg.MinPrice = cfg.BasePrice * 0.01
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Feed{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		price: cfg.BasePrice,
	}, nil
}

// Next advances the walk and returns the new tick.
func (f *Feed) Next() Tick {
	move := (f.rng.Float64()*2 - 1) * f.cfg.Volatility
	f.price *= 1 + move + f.cfg.Drift
	if f.price < f.cfg.MinPrice {
		f.price = f.cfg.MinPrice
	}
	f.seq++
	return Tick{
		Symbol: f.cfg.Symbol,
		Seq:    f.seq,
		Price:  f.price,
		TsNano: time.Now().UTC().UnixNano(),
	}
}

// Price returns the current walk price without advancing.
func (f *Feed) Price() float64 {
	return f.price
}
