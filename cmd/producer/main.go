package main

import (
	"context"
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
	if err := run(); err != nil {
		log.Printf("producer: %v", err)
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

	writer := conn.NewKafkaWriter(cfg.Broker.Brokers, broker.TopicPrices)
	publisher := broker.NewPublisher(writer)
	defer publisher.Close()

	metrics := obs.NewMetrics()
	source := marketdata.NewClient(cfg.MarketData.BaseURL, nil)

	daily, err := producer.NewDaily(source, publisher, universe, *workers, metrics)
	if err != nil {
		return err
	}

	if err := daily.Run(ctx); err != nil {
		return err
	}

	snap := metrics.Snapshot()
	log.Printf("published daily bars for %d symbols, fetch avg %s, %d publish failures",
		universe.Len(), snap.FetchLatency.Avg, snap.PublishFailures)
	return nil
}

func loadUniverse(path string) (*marketdata.Universe, error) {
	if path == "" {
		return marketdata.DefaultUniverse(), nil
	}
	return marketdata.LoadUniverse(path)
}
