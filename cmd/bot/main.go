package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Chinedu-E/tradetrail/internal/trading"
)

func main() {
	if err := run(); err != nil {
		log.Printf("bot: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "ws://localhost:8000", "Session server base URL")
	sessionID := flag.Int64("session", 0, "Session id to join")
	clientID := flag.Int64("client", 0, "Client id to join as")
	balance := flag.Float64("balance", 10000, "Starting balance for the local book")
	modelPath := flag.String("model", "", "Trained model artifact (optional)")
	flag.Parse()

	if *sessionID == 0 {
		return fmt.Errorf("missing session id; use -session")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var model *trading.Model
	if *modelPath != "" {
		loaded, err := trading.LoadModel(*modelPath)
		if err != nil {
			return err
		}
		model = loaded
		log.Printf("loaded model %s trained on %s", model.Name, model.Symbol)
	}

	url := fmt.Sprintf("%s/ws/join?session_id=%d&client_id=%d", *server, *sessionID, *clientID)
	trader := trading.NewTrader(ctx, url, *balance, model)
	defer trader.Close()

	if err := trader.Run(ctx); err != nil {
		return err
	}

	book := trader.Book()
	log.Printf("session over: balance=%.2f shares=%.2f trades=%d profit=%.2f",
		book.Balance, book.AvailableShares, book.NumTrades, book.Profit())
	return nil
}
