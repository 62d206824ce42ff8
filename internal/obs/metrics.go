package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats across the
// session server and producer jobs. All methods are nil-safe.
type Metrics struct {
	ticksBroadcast  uint64
	tickDrops       uint64
	broadcastErrors uint64
	messagesHandled uint64
	parseRejects    uint64
	publishFailures uint64

	fetchLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	TicksBroadcast  uint64
	TickDrops       uint64
	BroadcastErrors uint64
	MessagesHandled uint64
	ParseRejects    uint64
	PublishFailures uint64
	FetchLatency    LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncTickBroadcast counts one tick delivered to one client.
func (m *Metrics) IncTickBroadcast() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ticksBroadcast, 1)
}

// IncTickDrop counts a tick dropped by a full queue.
func (m *Metrics) IncTickDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tickDrops, 1)
}

// IncBroadcastError counts a failed client write.
func (m *Metrics) IncBroadcastError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.broadcastErrors, 1)
}

// IncMessageHandled counts an accepted inbound client message.
func (m *Metrics) IncMessageHandled() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.messagesHandled, 1)
}

// IncParseReject counts a rejected inbound client message.
func (m *Metrics) IncParseReject() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.parseRejects, 1)
}

// IncPublishFailure counts a failed broker publish.
func (m *Metrics) IncPublishFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.publishFailures, 1)
}

// ObserveFetch records one upstream fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchLatency.Observe(d)
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	ns := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, ns)
	for {
		current := atomic.LoadUint64(&l.min)
		if current != 0 && ns >= current {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, current, ns) {
			break
		}
	}
	for {
		current := atomic.LoadUint64(&l.max)
		if ns <= current {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, current, ns) {
			break
		}
	}
}

func (l *LatencyStats) snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	out := LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
	}
	if count > 0 {
		out.Avg = time.Duration(atomic.LoadUint64(&l.sum) / count)
	}
	return out
}

// Snapshot captures the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		TicksBroadcast:  atomic.LoadUint64(&m.ticksBroadcast),
		TickDrops:       atomic.LoadUint64(&m.tickDrops),
		BroadcastErrors: atomic.LoadUint64(&m.broadcastErrors),
		MessagesHandled: atomic.LoadUint64(&m.messagesHandled),
		ParseRejects:    atomic.LoadUint64(&m.parseRejects),
		PublishFailures: atomic.LoadUint64(&m.publishFailures),
		FetchLatency:    m.fetchLatency.snapshot(),
	}
}
