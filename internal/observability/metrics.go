package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	sweepRuns    int64
	sweepFlagged int64
	payments     map[string]int64
	sideEffects  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		payments:     make(map[string]int64),
		sideEffects:  make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSweep tracks one SLA breach sweep run and how many tickets it flagged.
func (m *Metrics) RecordSweep(flagged int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepRuns++
	m.sweepFlagged += int64(flagged)
}

// RecordPayment tracks a reconciled payment outcome per provider.
func (m *Metrics) RecordPayment(provider, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[provider+"|"+outcome]++
}

// RecordSideEffect tracks best-effort side-effect attempts.
func (m *Metrics) RecordSideEffect(name string, ok bool) {
	if m == nil {
		return
	}
	key := name + "|ok"
	if !ok {
		key = name + "|failed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sideEffects[key]++
}
