package server

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"

	"github.com/Chinedu-E/tradetrail/internal/broker"
	"github.com/Chinedu-E/tradetrail/internal/session"
	"github.com/Chinedu-E/tradetrail/internal/storage"
	"github.com/Chinedu-E/tradetrail/internal/trading"
)

// wsClient serializes writes to a gorilla connection. The session broadcast
// loop and the per-client read loop both write to it.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn}
}

func (c *wsClient) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// serveClient runs the read loop for one human participant until the session
// finishes or the connection drops, returning their final book.
func (s *Server) serveClient(ctx context.Context, conn *websocket.Conn, client *wsClient, sess *session.Session) *session.Book {
	book := session.NewBook(sess.StartingBalance(), false)

	// unblock the read loop when the session ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-sess.Done():
		case <-done:
			return
		}
		_ = conn.SetReadDeadline(time.Now())
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return book
		}

		txn, err := parseTransactionPayload(payload)
		if err != nil {
			s.metrics.IncParseReject()
			logs.Warnf("reject transaction %q, err: %+v", string(payload), err)
			continue
		}

		book.Apply(txn)
		s.metrics.IncMessageHandled()

		if err := client.WriteJSON(session.BookMessage{Type: "book", Book: *book}); err != nil {
			return book
		}
	}
}

// parseTransactionPayload accepts both the loose text form and its JSON
// rendering.
func parseTransactionPayload(payload []byte) (session.Transaction, error) {
	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "{") {
		var txn session.Transaction
		if err := json.Unmarshal(payload, &txn); err == nil && txn.Type != "" {
			return txn, txn.Validate()
		}
	}
	return session.ParseTransaction(text)
}

// finishParticipant publishes and persists one participant's terminal record.
func (s *Server) finishParticipant(sess *session.Session, clientID int64, book *session.Book) {
	result := session.Result{
		SessionID: sess.ID(),
		ClientID:  clientID,
		Symbol:    sess.Symbol(),
		Book:      *book,
		Profit:    book.Profit(),
		EndedAt:   time.Now().Unix(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.sink != nil {
		key := broker.TopicSession + "/" + sess.Symbol()
		if err := s.sink.Publish(ctx, key, result); err != nil {
			s.metrics.IncPublishFailure()
			logs.Errorf("publish session result, err: %+v", err)
		}
	}
	if s.store != nil {
		record := storage.SessionResult{
			SessionID: result.SessionID,
			ClientID:  result.ClientID,
			Symbol:    result.Symbol,
			Balance:   book.Balance,
			Profit:    result.Profit,
			Shares:    book.AvailableShares,
			NumTrades: book.NumTrades,
			IsAgent:   book.IsAgent,
			EndedAt:   time.Unix(result.EndedAt, 0),
		}
		if err := s.store.SaveSessionResult(ctx, record); err != nil {
			logs.Errorf("save session result, err: %+v", err)
		}
	}
}

// finishAgents records terminal results for the server bots once the session
// is over.
func (s *Server) finishAgents(sess *session.Session, agents []*trading.Agent) {
	for i, agent := range agents {
		book := agent.Book()
		s.finishParticipant(sess, int64(-(i + 1)), &book)
	}
}
