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
	"github.com/Chinedu-E/tradetrail/internal/ingest"
	"github.com/Chinedu-E/tradetrail/internal/ops"
	"github.com/Chinedu-E/tradetrail/internal/storage"
	"github.com/Chinedu-E/tradetrail/pkg/conn"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("ingest: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := conn.NewPostgres(conn.PostgresOption{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	defer pg.Close()

	store, err := storage.New(pg.DB())
	if err != nil {
		return err
	}

	reader := conn.NewKafkaReader(cfg.Broker.Brokers, broker.TopicPrices, cfg.Broker.ConsumerGroup)
	defer reader.Close()

	consumer, err := ingest.NewConsumer(reader, store)
	if err != nil {
		return err
	}

	log.Printf("consuming %s as group %s", broker.TopicPrices, cfg.Broker.ConsumerGroup)
	err = consumer.Run(ctx)

	persisted, duplicate, malformed := consumer.Stats()
	log.Printf("persisted %d bars, skipped %d duplicates, %d malformed", persisted, duplicate, malformed)
	return err
}
