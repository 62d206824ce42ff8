package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Chinedu-E/tradetrail/internal/clustering"
	"github.com/Chinedu-E/tradetrail/internal/marketdata"
	"github.com/Chinedu-E/tradetrail/internal/ops"
	"github.com/Chinedu-E/tradetrail/internal/storage"
	"github.com/Chinedu-E/tradetrail/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		log.Printf("cluster: %v", err)
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

	universe, err := loadUniverse(cfg.Universe.File)
	if err != nil {
		return err
	}

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

	closes := map[string][]float64{}
	sectors := map[string]string{}
	for _, symbol := range universe.Symbols() {
		bars, err := store.BarsBySymbol(ctx, symbol, cfg.Clustering.BarWindow)
		if err != nil {
			return err
		}
		if len(bars) < 2 {
			log.Printf("skipping %s: only %d bars stored", symbol, len(bars))
			continue
		}
		series := make([]float64, len(bars))
		for i, bar := range bars {
			series[i] = bar.Close
		}
		closes[symbol] = series
		if sector, ok := universe.Sector(symbol); ok {
			sectors[symbol] = sector
		}
	}

	rows := clustering.FormFeatures(closes)
	clusters, err := clustering.Build(rows, cfg.Clustering.K, cfg.Clustering.Seed, sectors)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	records := make([]storage.ClusterAssignment, 0, len(rows))
	for _, a := range clusters.Assignments() {
		records = append(records, storage.ClusterAssignment{
			Symbol:   a.Symbol,
			Cluster:  a.Cluster,
			Returns:  a.Returns,
			Variance: a.Variance,
			Sector:   a.Sector,
			RunAt:    now,
		})
	}
	if err := store.ReplaceAssignments(ctx, records); err != nil {
		return err
	}

	if err := clusters.Export(cfg.Clustering.ExportPath); err != nil {
		return err
	}

	log.Printf("clustered %d symbols into %d clusters, export written to %s",
		len(records), clusters.K(), cfg.Clustering.ExportPath)
	return nil
}

func loadUniverse(path string) (*marketdata.Universe, error) {
	if path == "" {
		return marketdata.DefaultUniverse(), nil
	}
	return marketdata.LoadUniverse(path)
}
