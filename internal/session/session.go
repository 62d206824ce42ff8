package session

import (
	"sync"
	"time"

	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

// Client is the send side of a joined connection. Both gorilla connections
// and in-process bots satisfy it.
type Client interface {
	WriteJSON(v any) error
}

// TickMessage is broadcast to every session client on each generated price.
type TickMessage struct {
	Type    string    `json:"type"`
	Symbol  string    `json:"symbol"`
	Seq     uint64    `json:"seq"`
	Price   float64   `json:"price"`
	History []float64 `json:"history"`
}

// BookMessage echoes a participant's book back after each accepted trade.
type BookMessage struct {
	Type string `json:"type"`
	Book Book   `json:"book"`
}

// Result is the terminal record for one participant, published to the broker
// when their connection finishes.
type Result struct {
	SessionID int64   `json:"session_id"`
	ClientID  int64   `json:"client_id"`
	Symbol    string  `json:"symbol"`
	Book      Book    `json:"book"`
	Profit    float64 `json:"profit"`
	EndedAt   int64   `json:"ended_at"`
}

// Config describes a session to create.
type Config struct {
	ID              int64
	Symbol          string
	StartingBalance float64
	MaxClients      int
	Duration        time.Duration
	AgainstServer   bool
}

type member struct {
	id     int64
	client Client
}

// Session is one live trading round.
type Session struct {
	cfg Config

	mu      sync.Mutex
	members []member
	full    chan struct{}
	done    chan struct{}
}

func newSession(cfg Config) *Session {
	return &Session{
		cfg:  cfg,
		full: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() int64 { return s.cfg.ID }

// Symbol returns the traded symbol.
func (s *Session) Symbol() string { return s.cfg.Symbol }

// StartingBalance returns the balance every participant starts with.
func (s *Session) StartingBalance() float64 { return s.cfg.StartingBalance }

// AgainstServer reports whether server bots fill the remaining seats.
func (s *Session) AgainstServer() bool { return s.cfg.AgainstServer }

// Duration returns the session length.
func (s *Session) Duration() time.Duration { return s.cfg.Duration }

// AddClient registers a client; the session refuses joins once full.
func (s *Session) AddClient(client Client, clientID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.members) >= s.cfg.MaxClients {
		return exception.ErrSessionFull
	}
	s.members = append(s.members, member{id: clientID, client: client})
	if len(s.members) == s.cfg.MaxClients {
		close(s.full)
	}
	return nil
}

// Full returns a channel closed once every seat is taken.
func (s *Session) Full() <-chan struct{} { return s.full }

// Done returns a channel closed when the session price loop finishes.
func (s *Session) Done() <-chan struct{} { return s.done }

// IsFull reports whether all seats are taken.
func (s *Session) IsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members) >= s.cfg.MaxClients
}

func (s *Session) clients() []member {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]member, len(s.members))
	copy(out, s.members)
	return out
}

func (s *Session) finish() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
