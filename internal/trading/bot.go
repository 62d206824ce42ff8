package trading

import (
	"context"
	"math"
	"sync"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"github.com/Chinedu-E/tradetrail/internal/session"
)

const (
	buyThreshold  = 0.55
	sellThreshold = 0.45
	momentumSpan  = 5
	tradeFraction = 0.2
)

// Agent is a server-side participant. It satisfies session.Client so the
// session broadcasts reach it like any websocket connection, and it routes
// its own transactions back through the submit callback.
type Agent struct {
	mu     sync.Mutex
	book   *session.Book
	model  *Model
	submit func(session.Transaction) error
}

// NewAgent builds a bot participant. model may be nil; the agent then falls
// back to a momentum rule.
func NewAgent(startingBalance float64, model *Model, submit func(session.Transaction) error) *Agent {
	return &Agent{
		book:   session.NewBook(startingBalance, true),
		model:  model,
		submit: submit,
	}
}

// Book returns a copy of the agent's book.
func (a *Agent) Book() session.Book {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.book
}

// WriteJSON receives session broadcasts. Ticks drive a trading decision,
// everything else is ignored.
func (a *Agent) WriteJSON(v any) error {
	tick, ok := v.(session.TickMessage)
	if !ok {
		return nil
	}
	return a.OnTick(tick)
}

// OnTick scores the latest price and submits at most one transaction.
func (a *Agent) OnTick(tick session.TickMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	txn, ok := decide(a.model, a.book, tick.History, tick.Price)
	if !ok {
		return nil
	}
	if err := a.submit(txn); err != nil {
		return errors.Wrap(err, "submit agent transaction")
	}
	a.book.Apply(txn)
	return nil
}

// decide maps a price series onto a buy, sell or hold call sized by the book.
func decide(model *Model, book *session.Book, history []float64, price float64) (session.Transaction, bool) {
	if price <= 0 {
		return session.Transaction{}, false
	}

	var up bool
	switch {
	case model != nil && len(history) >= smaPeriod:
		p := model.Probability(tickFeatures(history, price))
		if p < buyThreshold && p > sellThreshold {
			return session.Transaction{}, false
		}
		up = p >= buyThreshold
	case len(history) >= momentumSpan:
		mean := 0.0
		for _, v := range history[len(history)-momentumSpan:] {
			mean += v
		}
		mean /= momentumSpan
		up = price > mean
	default:
		return session.Transaction{}, false
	}

	if up {
		shares := math.Floor(book.Balance * tradeFraction / price)
		if shares < 1 {
			return session.Transaction{}, false
		}
		return session.Transaction{Type: session.TransactionBuy, Shares: shares, Price: price}, true
	}
	if book.AvailableShares < 1 {
		return session.Transaction{}, false
	}
	return session.Transaction{Type: session.TransactionSell, Shares: book.AvailableShares, Price: price}, true
}

// tickFeatures synthesizes a predictor row from a session price series. The
// session has no real candles or volume, so each tick stands in for a candle
// and the volume-driven predictors collapse to zero.
func tickFeatures(history []float64, price float64) []float64 {
	closes := append(append([]float64(nil), history...), price)
	candles := make([]Candle, len(closes))
	prev := closes[0]
	for i, c := range closes {
		candles[i] = Candle{
			Open:  prev,
			High:  math.Max(prev, c),
			Low:   math.Min(prev, c),
			Close: c,
		}
		prev = c
	}
	rows := FeatureMatrix(candles)
	return rows[len(rows)-1]
}

// Trader is a standalone bot that joins a running server over websocket,
// reacts to tick broadcasts and sends its transactions as JSON.
type Trader struct {
	wss   *ws.WebSocket
	model *Model

	mu   sync.Mutex
	book *session.Book
}

// NewTrader dials the join endpoint. model may be nil.
func NewTrader(ctx context.Context, url string, startingBalance float64, model *Model) *Trader {
	return &Trader{
		wss:   ws.New(ctx, url),
		model: model,
		book:  session.NewBook(startingBalance, true),
	}
}

// Book returns a copy of the trader's local book.
func (t *Trader) Book() session.Book {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.book
}

// Close tears the connection down.
func (t *Trader) Close() {
	t.wss.Close()
}

// Run connects and trades until the session or context ends.
func (t *Trader) Run(ctx context.Context) error {
	if err := t.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	ch, cancel := t.wss.Subscribe()
	defer cancel()

	for {
		select {
		case <-sys.Shutdown():
			return nil
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}

			tick, ok := ws.ReadMessage[session.TickMessage](m)
			if !ok || tick.Type != "tick" {
				t.applyBookEcho(m)
				continue
			}
			if err := t.onTick(tick); err != nil {
				logs.Warnf("handle tick for %s, err: %+v", tick.Symbol, err)
			}
		}
	}
}

func (t *Trader) onTick(tick session.TickMessage) error {
	t.mu.Lock()
	txn, ok := decide(t.model, t.book, tick.History, tick.Price)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	if err := t.wss.WriteJSON(txn); err != nil {
		return errors.Wrap(err, "write transaction").With("transaction", txn.String())
	}
	return nil
}

// applyBookEcho replaces the local book with the server's copy after each
// accepted trade, keeping the two in sync.
func (t *Trader) applyBookEcho(m ws.Message) {
	echo, ok := ws.ReadMessage[session.BookMessage](m)
	if !ok || echo.Type != "book" {
		return
	}
	t.mu.Lock()
	*t.book = echo.Book
	t.mu.Unlock()
}

// SpawnBots seats count agents on a session. Agent client ids count down
// from -1 so they never collide with human ids. Submissions route through
// the given sink keyed by agent id.
func SpawnBots(s *session.Session, count int, model *Model, submit func(clientID int64, txn session.Transaction) error) ([]*Agent, error) {
	agents := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		clientID := int64(-(i + 1))
		agent := NewAgent(s.StartingBalance(), model, func(txn session.Transaction) error {
			return submit(clientID, txn)
		})
		if err := s.AddClient(agent, clientID); err != nil {
			return agents, errors.Wrapf(err, "seat agent %d", clientID)
		}
		agents = append(agents, agent)
	}
	return agents, nil
}
