package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates counters for the reminder sweeper.
type Metrics struct {
	mu sync.Mutex

	// Counters
	ticks       atomic.Int64
	dispatched  atomic.Int64
	delivered   atomic.Int64
	transient   atomic.Int64
	permanent   atomic.Int64
	rescheduled atomic.Int64
	purged      atomic.Int64

	lastTickAt time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordTick records one sweeper tick.
func (m *Metrics) RecordTick() {
	m.ticks.Add(1)
	m.mu.Lock()
	m.lastTickAt = time.Now()
	m.mu.Unlock()
}

// RecordDispatch records one delivery attempt.
func (m *Metrics) RecordDispatch() { m.dispatched.Add(1) }

// RecordDelivered records a successful delivery.
func (m *Metrics) RecordDelivered() { m.delivered.Add(1) }

// RecordTransient records a recoverable delivery failure.
func (m *Metrics) RecordTransient() { m.transient.Add(1) }

// RecordPermanent records an unrecoverable delivery failure.
func (m *Metrics) RecordPermanent() { m.permanent.Add(1) }

// RecordRescheduled records a recurring reminder advanced in place.
func (m *Metrics) RecordRescheduled() { m.rescheduled.Add(1) }

// RecordPurged records terminal records removed by the janitor.
func (m *Metrics) RecordPurged(count int64) { m.purged.Add(count) }

// Snapshot is a point-in-time view of the collected counters.
type Snapshot struct {
	Ticks       int64     `json:"ticks"`
	Dispatched  int64     `json:"dispatched"`
	Delivered   int64     `json:"delivered"`
	Transient   int64     `json:"transient_failures"`
	Permanent   int64     `json:"permanent_failures"`
	Rescheduled int64     `json:"rescheduled"`
	Purged      int64     `json:"purged"`
	LastTickAt  time.Time `json:"last_tick_at"`
}

// GetSnapshot returns the current counter values.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.Lock()
	lastTick := m.lastTickAt
	m.mu.Unlock()

	return Snapshot{
		Ticks:       m.ticks.Load(),
		Dispatched:  m.dispatched.Load(),
		Delivered:   m.delivered.Load(),
		Transient:   m.transient.Load(),
		Permanent:   m.permanent.Load(),
		Rescheduled: m.rescheduled.Load(),
		Purged:      m.purged.Load(),
		LastTickAt:  lastTick,
	}
}
