package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight run observability without external
// dependencies. Counters are atomic so boundary code can record from anywhere.
type Metrics struct {
	pagesFetched   atomic.Uint64
	ordersIngested atomic.Uint64
	ordersMerged   atomic.Uint64
	ordersSkipped  atomic.Uint64

	candidatesGenerated atomic.Uint64
	candidatesRejected  atomic.Uint64

	volumeCacheHits   atomic.Uint64
	volumeCacheMisses atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordPageFetched records one fetched order page.
func (m *Metrics) RecordPageFetched() {
	m.pagesFetched.Add(1)
}

// RecordOrderIngested records one raw record folded into the book.
func (m *Metrics) RecordOrderIngested(merged bool) {
	m.ordersIngested.Add(1)
	if merged {
		m.ordersMerged.Add(1)
	}
}

// RecordOrderSkipped records one malformed record dropped at ingestion.
func (m *Metrics) RecordOrderSkipped() {
	m.ordersSkipped.Add(1)
}

// RecordCandidateGenerated records one candidate surviving the cheap filters.
func (m *Metrics) RecordCandidateGenerated() {
	m.candidatesGenerated.Add(1)
}

// RecordCandidateRejected records a candidate dropped by a filter or at
// scoring.
func (m *Metrics) RecordCandidateRejected() {
	m.candidatesRejected.Add(1)
}

// RecordVolumeLookup records a unit-volume cache access.
func (m *Metrics) RecordVolumeLookup(hit bool) {
	if hit {
		m.volumeCacheHits.Add(1)
	} else {
		m.volumeCacheMisses.Add(1)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	PagesFetched        uint64
	OrdersIngested      uint64
	OrdersMerged        uint64
	OrdersSkipped       uint64
	CandidatesGenerated uint64
	CandidatesRejected  uint64
	VolumeCacheHits     uint64
	VolumeCacheMisses   uint64
	Timestamp           time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		PagesFetched:        m.pagesFetched.Load(),
		OrdersIngested:      m.ordersIngested.Load(),
		OrdersMerged:        m.ordersMerged.Load(),
		OrdersSkipped:       m.ordersSkipped.Load(),
		CandidatesGenerated: m.candidatesGenerated.Load(),
		CandidatesRejected:  m.candidatesRejected.Load(),
		VolumeCacheHits:     m.volumeCacheHits.Load(),
		VolumeCacheMisses:   m.volumeCacheMisses.Load(),
		Timestamp:           time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.pagesFetched.Store(0)
	m.ordersIngested.Store(0)
	m.ordersMerged.Store(0)
	m.ordersSkipped.Store(0)
	m.candidatesGenerated.Store(0)
	m.candidatesRejected.Store(0)
	m.volumeCacheHits.Store(0)
	m.volumeCacheMisses.Store(0)
}
