package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"

	"github.com/Chinedu-E/tradetrail/internal/obs"
	"github.com/Chinedu-E/tradetrail/internal/session"
	"github.com/Chinedu-E/tradetrail/internal/storage"
	"github.com/Chinedu-E/tradetrail/internal/trading"
)

// ResultSink publishes finished participant results to the broker.
type ResultSink interface {
	Publish(ctx context.Context, key string, value any) error
}

// ResultStore persists finished participant results.
type ResultStore interface {
	SaveSessionResult(ctx context.Context, result storage.SessionResult) error
}

// Server exposes the health endpoint and the two session websockets.
type Server struct {
	manager *session.Manager
	sink    ResultSink
	store   ResultStore
	model   *trading.Model
	metrics *obs.Metrics

	upgrader websocket.Upgrader
}

// Option mutates server wiring.
type Option func(*Server)

// WithResultSink attaches the broker publisher for finished results.
func WithResultSink(sink ResultSink) Option {
	return func(s *Server) { s.sink = sink }
}

// WithResultStore attaches the relational store for finished results.
func WithResultStore(store ResultStore) Option {
	return func(s *Server) { s.store = store }
}

// WithModel gives server bots a trained direction model.
func WithModel(model *trading.Model) Option {
	return func(s *Server) { s.model = model }
}

// WithMetrics attaches request and broadcast counters.
func WithMetrics(metrics *obs.Metrics) Option {
	return func(s *Server) { s.metrics = metrics }
}

// New builds a server around a session manager.
func New(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws/create", s.handleCreate)
	r.Get("/ws/join", s.handleJoin)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server running"))
}

type createParams struct {
	id              int64
	symbol          string
	hostID          int64
	maxClients      int
	duration        time.Duration
	startingBalance float64
	againstServer   bool
}

func parseCreateParams(r *http.Request) (createParams, bool) {
	q := r.URL.Query()

	id, err := strconv.ParseInt(q.Get("id"), 10, 64)
	if err != nil || id == 0 {
		return createParams{}, false
	}
	hostID, err := strconv.ParseInt(q.Get("host_id"), 10, 64)
	if err != nil {
		return createParams{}, false
	}
	maxClients, err := strconv.Atoi(q.Get("max_clients"))
	if err != nil || maxClients <= 0 {
		return createParams{}, false
	}
	durationSec, err := strconv.Atoi(q.Get("duration"))
	if err != nil || durationSec <= 0 {
		return createParams{}, false
	}
	startingBalance, err := strconv.ParseFloat(q.Get("starting_balance"), 64)
	if err != nil || startingBalance <= 0 {
		return createParams{}, false
	}
	symbol := q.Get("symbol")
	if symbol == "" {
		return createParams{}, false
	}

	againstServer := false
	if raw := q.Get("against_server"); raw != "" {
		againstServer, err = strconv.ParseBool(raw)
		if err != nil {
			return createParams{}, false
		}
	}

	return createParams{
		id:              id,
		symbol:          symbol,
		hostID:          hostID,
		maxClients:      maxClients,
		duration:        time.Duration(durationSec) * time.Second,
		startingBalance: startingBalance,
		againstServer:   againstServer,
	}, true
}

// handleCreate registers a session with the host as its first client. Bad
// query params fail before the websocket upgrade.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	params, ok := parseCreateParams(r)
	if !ok {
		http.Error(w, "invalid session parameters", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Warnf("upgrade create connection, err: %+v", err)
		return
	}
	defer conn.Close()

	sess, err := s.manager.Create(session.Config{
		ID:              params.id,
		Symbol:          params.symbol,
		StartingBalance: params.startingBalance,
		MaxClients:      params.maxClients,
		Duration:        params.duration,
		AgainstServer:   params.againstServer,
	})
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "create session failed")
		return
	}

	client := newWSClient(conn)
	if err := sess.AddClient(client, params.hostID); err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "session is full")
		return
	}

	var agents []*trading.Agent
	if params.againstServer {
		agents, err = trading.SpawnBots(sess, params.maxClients-1, s.model, func(int64, session.Transaction) error {
			s.metrics.IncMessageHandled()
			return nil
		})
		if err != nil {
			logs.Warnf("spawn bots for session %d, err: %+v", sess.ID(), err)
		}
	}

	ctx := r.Context()
	select {
	case <-ctx.Done():
		return
	case <-sess.Full():
	}

	if err := s.manager.Launch(ctx, sess.ID()); err != nil {
		logs.Errorf("launch session %d, err: %+v", sess.ID(), err)
		return
	}

	book := s.serveClient(ctx, conn, client, sess)
	s.finishParticipant(sess, params.hostID, book)
	s.finishAgents(sess, agents)
}

// handleJoin seats a client on an existing session. Unknown sessions fail
// before the websocket upgrade.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID, err := strconv.ParseInt(q.Get("session_id"), 10, 64)
	if err != nil || sessionID == 0 {
		http.Error(w, "invalid session_id", http.StatusBadRequest)
		return
	}
	clientID, err := strconv.ParseInt(q.Get("client_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid client_id", http.StatusBadRequest)
		return
	}

	sess, ok := s.manager.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Warnf("upgrade join connection, err: %+v", err)
		return
	}
	defer conn.Close()

	client := newWSClient(conn)
	if err := sess.AddClient(client, clientID); err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "session is full")
		return
	}

	book := s.serveClient(r.Context(), conn, client, sess)
	s.finishParticipant(sess, clientID, book)
}

func writeClose(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
