package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chinedu-E/tradetrail/internal/obs"
	"github.com/Chinedu-E/tradetrail/internal/session"
	"github.com/Chinedu-E/tradetrail/internal/storage"
)

type fakeSink struct {
	mu      sync.Mutex
	results []session.Result
	keys    []string
}

func (f *fakeSink) Publish(_ context.Context, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if result, ok := value.(session.Result); ok {
		f.results = append(f.results, result)
	}
	return nil
}

func (f *fakeSink) snapshot() []session.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Result(nil), f.results...)
}

type fakeStore struct {
	mu      sync.Mutex
	records []storage.SessionResult
}

func (f *fakeStore) SaveSessionResult(_ context.Context, result storage.SessionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, result)
	return nil
}

func (f *fakeStore) snapshot() []storage.SessionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.SessionResult(nil), f.records...)
}

func TestParseCreateParams(t *testing.T) {
	valid := "/ws/create?id=7&host_id=1&max_clients=2&duration=60&starting_balance=10000&symbol=AAPL"

	params, ok := parseCreateParams(httptest.NewRequest(http.MethodGet, valid, nil))
	require.True(t, ok)
	assert.Equal(t, int64(7), params.id)
	assert.Equal(t, int64(1), params.hostID)
	assert.Equal(t, 2, params.maxClients)
	assert.Equal(t, time.Minute, params.duration)
	assert.Equal(t, 10000.0, params.startingBalance)
	assert.Equal(t, "AAPL", params.symbol)
	assert.False(t, params.againstServer)

	params, ok = parseCreateParams(httptest.NewRequest(http.MethodGet, valid+"&against_server=true", nil))
	require.True(t, ok)
	assert.True(t, params.againstServer)

	invalid := []struct {
		name  string
		query string
	}{
		{"missing id", "/ws/create?host_id=1&max_clients=2&duration=60&starting_balance=10000&symbol=AAPL"},
		{"zero id", "/ws/create?id=0&host_id=1&max_clients=2&duration=60&starting_balance=10000&symbol=AAPL"},
		{"bad host id", "/ws/create?id=7&host_id=abc&max_clients=2&duration=60&starting_balance=10000&symbol=AAPL"},
		{"zero clients", "/ws/create?id=7&host_id=1&max_clients=0&duration=60&starting_balance=10000&symbol=AAPL"},
		{"zero duration", "/ws/create?id=7&host_id=1&max_clients=2&duration=0&starting_balance=10000&symbol=AAPL"},
		{"zero balance", "/ws/create?id=7&host_id=1&max_clients=2&duration=60&starting_balance=0&symbol=AAPL"},
		{"missing symbol", "/ws/create?id=7&host_id=1&max_clients=2&duration=60&starting_balance=10000"},
		{"bad against flag", "/ws/create?id=7&host_id=1&max_clients=2&duration=60&starting_balance=10000&symbol=AAPL&against_server=maybe"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseCreateParams(httptest.NewRequest(http.MethodGet, tt.query, nil)); ok {
				t.Fatal("invalid params should not parse")
			}
		})
	}
}

func TestParseTransactionPayload(t *testing.T) {
	txn, err := parseTransactionPayload([]byte("type: buy, shares: 2, price: 101.5"))
	require.NoError(t, err)
	assert.Equal(t, session.TransactionBuy, txn.Type)
	assert.Equal(t, 2.0, txn.Shares)
	assert.Equal(t, 101.5, txn.Price)

	txn, err = parseTransactionPayload([]byte(`{"type":"sell","shares":3,"price":99.25}`))
	require.NoError(t, err)
	assert.Equal(t, session.TransactionSell, txn.Type)
	assert.Equal(t, 3.0, txn.Shares)

	_, err = parseTransactionPayload([]byte(`{"type":"hold","shares":1,"price":10}`))
	require.Error(t, err)

	_, err = parseTransactionPayload([]byte("ping"))
	require.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv := New(session.NewManager())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Server running", string(body))
}

func TestCreateRejectsBadParams(t *testing.T) {
	srv := New(session.NewManager())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws/create?id=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinRejectsBeforeUpgrade(t *testing.T) {
	srv := New(session.NewManager())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws/join?session_id=abc&client_id=1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ws/join?session_id=42&client_id=1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSessionRoundTrip(t *testing.T) {
	metrics := obs.NewMetrics()
	manager := session.NewManager(
		session.WithTickInterval(10*time.Millisecond),
		session.WithMetrics(metrics),
	)
	sink := &fakeSink{}
	store := &fakeStore{}
	srv := New(manager, WithResultSink(sink), WithResultStore(store), WithMetrics(metrics))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") +
		"/ws/create?id=11&host_id=5&max_clients=1&duration=1&starting_balance=10000&symbol=AAPL"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// first broadcast proves the session launched
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var tick session.TickMessage
	require.NoError(t, conn.ReadJSON(&tick))
	assert.Equal(t, "tick", tick.Type)
	assert.Equal(t, "AAPL", tick.Symbol)
	assert.Greater(t, tick.Price, 0.0)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("type: buy, shares: 2, price: 100")))

	// the book echo lands between tick broadcasts
	deadline := time.Now().Add(2 * time.Second)
	var book session.BookMessage
	for time.Now().Before(deadline) {
		var probe struct {
			Type string `json:"type"`
		}
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(payload, &probe))
		if probe.Type == "book" {
			require.NoError(t, json.Unmarshal(payload, &book))
			break
		}
	}
	require.Equal(t, "book", book.Type)
	assert.Equal(t, 1, book.Book.NumTrades)
	assert.Equal(t, 2.0, book.Book.AvailableShares)
	assert.Equal(t, 10000.0-200.0, book.Book.Balance)

	// session ends after its one second duration; the handler then records
	// the host's terminal result
	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1 && len(store.snapshot()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	result := sink.snapshot()[0]
	assert.Equal(t, int64(11), result.SessionID)
	assert.Equal(t, int64(5), result.ClientID)
	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, 1, result.Book.NumTrades)

	record := store.snapshot()[0]
	assert.Equal(t, int64(11), record.SessionID)
	assert.Equal(t, 2.0, record.Shares)
	assert.False(t, record.IsAgent)
	assert.True(t, manager.IsDone(11))

	snap := metrics.Snapshot()
	assert.NotZero(t, snap.MessagesHandled)
	assert.NotZero(t, snap.TicksBroadcast)
}
