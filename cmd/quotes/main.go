package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Chinedu-E/tradetrail/internal/broker"
	"github.com/Chinedu-E/tradetrail/internal/marketdata"
	"github.com/Chinedu-E/tradetrail/internal/obs"
	"github.com/Chinedu-E/tradetrail/internal/ops"
	"github.com/Chinedu-E/tradetrail/internal/producer"
	"github.com/Chinedu-E/tradetrail/pkg/conn"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("quotes: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	workers := flag.Int("workers", 0, "Fetch worker count (default 16)")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	universe, err := loadUniverse(cfg.Universe.File)
	if err != nil {
		return err
	}

	writer := conn.NewKafkaWriter(cfg.Broker.Brokers, broker.TopicLatestPrices)
	publisher := broker.NewPublisher(writer)
	defer publisher.Close()

	metrics := obs.NewMetrics()
	source := marketdata.NewClient(cfg.MarketData.BaseURL, nil)
	window := producer.Window{
		Location:  cfg.MarketData.Location(),
		OpenHour:  cfg.MarketData.OpenHour,
		CloseHour: cfg.MarketData.CloseHour,
	}

	quotes, err := producer.NewQuotes(source, publisher, universe, window, *workers, metrics)
	if err != nil {
		return err
	}

	log.Printf("streaming quotes for %d symbols between %d:00 and %d:00 %s",
		universe.Len(), window.OpenHour, window.CloseHour, cfg.MarketData.Timezone)
	return quotes.Run(ctx)
}

func loadUniverse(path string) (*marketdata.Universe, error) {
	if path == "" {
		return marketdata.DefaultUniverse(), nil
	}
	return marketdata.LoadUniverse(path)
}
