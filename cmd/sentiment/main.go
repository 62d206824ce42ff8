package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Chinedu-E/tradetrail/internal/marketdata"
	"github.com/Chinedu-E/tradetrail/internal/ops"
	"github.com/Chinedu-E/tradetrail/internal/sentiment"
	"github.com/Chinedu-E/tradetrail/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		log.Printf("sentiment: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	newsOnly := flag.Bool("news-only", false, "Run the news pipeline only")
	socialOnly := flag.Bool("social-only", false, "Run the social pipeline only")
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
	tickers := universe.Symbols()

	es, err := conn.NewElasticsearch(cfg.Documents.Addr)
	if err != nil {
		return err
	}
	store := sentiment.NewStore(es, cfg.Documents.NewsIndex, cfg.Documents.SocialIndex)
	if err := store.Ping(ctx); err != nil {
		return err
	}

	if !*socialOnly {
		scraper := sentiment.NewScraper(cfg.Sentiment.SearchURL, nil)
		news := sentiment.NewNewsPipeline(sentiment.NewsConfig{
			Workers:        cfg.Sentiment.Workers,
			SymbolLimit:    cfg.Sentiment.SymbolLimit,
			ArticlesPerRun: cfg.Sentiment.ArticlesPerRun,
		}, scraper, store)
		news.Run(ctx, tickers)
	}

	if !*newsOnly {
		source := sentiment.NewHTTPPostSource(cfg.Sentiment.SocialURL, nil)
		social := sentiment.NewSocialPipeline(sentiment.SocialConfig{
			Workers:        cfg.Sentiment.Workers,
			Sample:         cfg.Sentiment.SocialSample,
			PostsPerSymbol: cfg.Sentiment.PostsPerSymbol,
		}, source, store)
		social.Run(ctx, tickers)
	}

	return ctx.Err()
}

func loadUniverse(path string) (*marketdata.Universe, error) {
	if path == "" {
		return marketdata.DefaultUniverse(), nil
	}
	return marketdata.LoadUniverse(path)
}
