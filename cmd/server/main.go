package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"gorm.io/gorm"

	"github.com/Chinedu-E/tradetrail/internal/broker"
	"github.com/Chinedu-E/tradetrail/internal/marketdata"
	"github.com/Chinedu-E/tradetrail/internal/obs"
	"github.com/Chinedu-E/tradetrail/internal/ops"
	"github.com/Chinedu-E/tradetrail/internal/server"
	"github.com/Chinedu-E/tradetrail/internal/session"
	"github.com/Chinedu-E/tradetrail/internal/storage"
	"github.com/Chinedu-E/tradetrail/internal/trading"
	"github.com/Chinedu-E/tradetrail/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		log.Printf("server: %v", err)
		os.Exit(1)
	}
}

type modelSource interface {
	LatestModel(ctx context.Context) (storage.ModelMetadata, error)
}

// resolveModel prefers an explicit artifact path, falling back to the newest
// training run on record. A missing record means the server runs without bots.
func resolveModel(ctx context.Context, path string, source modelSource) (*trading.Model, error) {
	if path != "" {
		return trading.LoadModel(path)
	}
	if source == nil {
		return nil, nil
	}
	meta, err := source.LatestModel(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if meta.ArtifactPath == "" {
		return nil, nil
	}
	return trading.LoadModel(meta.ArtifactPath)
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	modelPath := flag.String("model", "", "Trained model artifact for server bots (optional)")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.ProfileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "tradetrail/server",
			ServerAddress:   cfg.Server.ProfileAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return fmt.Errorf("pyroscope start failed: %w", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	metrics := obs.NewMetrics()

	quotes := marketdata.NewClient(cfg.MarketData.BaseURL, nil)
	manager := session.NewManager(
		session.WithTickInterval(cfg.Server.TickInterval()),
		session.WithMetrics(metrics),
		session.WithBasePrice(func(ctx context.Context, symbol string) (float64, error) {
			quote, err := quotes.LiveQuote(ctx, symbol)
			if err != nil {
				return 0, err
			}
			return quote.PriceFloat(), nil
		}),
	)

	opts := []server.Option{server.WithMetrics(metrics)}

	writer := conn.NewKafkaWriter(cfg.Broker.Brokers, broker.TopicSession)
	publisher := broker.NewPublisher(writer)
	defer publisher.Close()
	opts = append(opts, server.WithResultSink(publisher))

	var source modelSource
	if cfg.Database.Host != "" {
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
		opts = append(opts, server.WithResultStore(store))
		source = store
	}

	model, err := resolveModel(ctx, *modelPath, source)
	if err != nil {
		return err
	}
	if model != nil {
		log.Printf("loaded bot model %s trained on %s", model.Name, model.Symbol)
		opts = append(opts, server.WithModel(model))
	}

	srv := server.New(manager, opts...)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	snap := metrics.Snapshot()
	log.Printf("served %d broadcasts, %d messages, %d rejects",
		snap.TicksBroadcast, snap.MessagesHandled, snap.ParseRejects)
	return nil
}
