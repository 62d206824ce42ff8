package session

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"github.com/Chinedu-E/tradetrail/internal/bus"
	"github.com/Chinedu-E/tradetrail/internal/marketdata"
	"github.com/Chinedu-E/tradetrail/internal/obs"
	"github.com/Chinedu-E/tradetrail/pkg/exception"
)

const (
	defaultTickInterval = 500 * time.Millisecond
	defaultHistoryCap   = 1024
	defaultBasePrice    = 100.0
	tickQueueCapacity   = 1024
)

// BasePriceFunc resolves the opening price for a symbol when a session
// launches. Errors fall back to the default base price.
type BasePriceFunc func(ctx context.Context, symbol string) (float64, error)

// Manager owns the set of live sessions. A session is done exactly when it is
// no longer registered here.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	tickInterval time.Duration
	historyCap   int
	basePrice    BasePriceFunc
	metrics      *obs.Metrics
}

// ManagerOption mutates manager defaults.
type ManagerOption func(*Manager)

// WithTickInterval overrides the price loop pacing.
func WithTickInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		if interval > 0 {
			m.tickInterval = interval
		}
	}
}

// WithBasePrice wires a live opening-price resolver.
func WithBasePrice(fn BasePriceFunc) ManagerOption {
	return func(m *Manager) { m.basePrice = fn }
}

// WithMetrics attaches session counters.
func WithMetrics(metrics *obs.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates an empty session registry.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:     make(map[int64]*Session),
		tickInterval: defaultTickInterval,
		historyCap:   defaultHistoryCap,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a new session. Creating an id that already exists returns
// the existing session.
func (m *Manager) Create(cfg Config) (*Session, error) {
	if cfg.ID == 0 || cfg.Symbol == "" {
		return nil, exception.ErrInvalidArgument
	}
	if cfg.MaxClients <= 0 || cfg.Duration <= 0 || cfg.StartingBalance <= 0 {
		return nil, exception.ErrInvalidArgument
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[cfg.ID]; ok {
		return existing, nil
	}
	s := newSession(cfg)
	m.sessions[cfg.ID] = s
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Join adds a client to a live session.
func (m *Manager) Join(id int64, client Client, clientID int64) (*Session, error) {
	s, ok := m.Get(id)
	if !ok {
		return nil, exception.ErrSessionNotFound
	}
	if err := s.AddClient(client, clientID); err != nil {
		return nil, err
	}
	return s, nil
}

// IsDone reports whether a session has finished. Unknown ids count as done.
func (m *Manager) IsDone(id int64) bool {
	_, ok := m.Get(id)
	return !ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Launch starts the session price loop in its own goroutine. The loop runs
// for the session duration, then removes the session from the registry.
func (m *Manager) Launch(ctx context.Context, id int64) error {
	s, ok := m.Get(id)
	if !ok {
		return exception.ErrSessionNotFound
	}
	go m.run(ctx, s)
	return nil
}

func (m *Manager) run(ctx context.Context, s *Session) {
	defer func() {
		m.remove(s.ID())
		s.finish()
	}()

	base := defaultBasePrice
	if m.basePrice != nil {
		resolved, err := m.basePrice(ctx, s.Symbol())
		if err != nil {
			logs.Warnf("resolve base price for %s, err: %+v", s.Symbol(), err)
		} else if resolved > 0 {
			base = resolved
		}
	}

	feed, err := marketdata.NewFeed(marketdata.FeedConfig{
		Symbol:    s.Symbol(),
		BasePrice: base,
	})
	if err != nil {
		logs.Errorf("create session feed, err: %+v", err)
		return
	}

	queue := bus.NewQueue(tickQueueCapacity)
	history := make([]float64, 0, m.historyCap)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		queue.Run(ctx, func(e bus.Event) {
			history = append(history, e.Tick.Price)
			if len(history) > m.historyCap {
				history = history[len(history)-m.historyCap:]
			}
			m.broadcast(s, e.Tick, history)
		})
	}()

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(s.Duration())
	defer deadline.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline.C:
			break loop
		case <-ticker.C:
			if err := queue.TryPublish(bus.Event{Tick: feed.Next()}); err != nil {
				m.metrics.IncTickDrop()
			}
		}
	}

	queue.Close()
	wg.Wait()
	logs.Infof("session %d finished: symbol=%s ticks=%d", s.ID(), s.Symbol(), len(history))
}

func (m *Manager) broadcast(s *Session, tick marketdata.Tick, history []float64) {
	msg := TickMessage{
		Type:    "tick",
		Symbol:  tick.Symbol,
		Seq:     tick.Seq,
		Price:   tick.Price,
		History: append([]float64(nil), history...),
	}
	for _, member := range s.clients() {
		if err := member.client.WriteJSON(msg); err != nil {
			m.metrics.IncBroadcastError()
			continue
		}
		m.metrics.IncTickBroadcast()
	}
}
