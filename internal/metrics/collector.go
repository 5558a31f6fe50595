// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Item counters (pages per crawl, chunks per page, and so on)
	TotalItems int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64

	// Item stats (nil if not applicable)
	TotalItems *int64
	AvgItems   *float64
}

// Snapshot represents the full worker statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	PageFetch     *OperationSnapshot
	Embedding     *OperationSnapshot
	LLMGenerate   *OperationSnapshot
	DBSearch      *OperationSnapshot
	CrawlJob      *OperationSnapshot
}

// Operation names for the collector.
const (
	OpPageFetch   = "page_fetch"
	OpEmbedding   = "embedding"
	OpLLMGenerate = "llm_generate"
	OpDBSearch    = "db_search"
	OpCrawlJob    = "crawl_job"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime: time.Duration(math.MaxInt64),
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordBatch records timing plus how many items the operation handled,
// e.g. pages per crawl job or chunks per embedded page.
func (c *Collector) RecordBatch(op string, duration time.Duration, items int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	m.TotalItems += items

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}

	if m.TotalItems > 0 {
		total := m.TotalItems
		avg := float64(m.TotalItems) / float64(m.Count)
		snap.TotalItems = &total
		snap.AvgItems = &avg
	}

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		PageFetch:     snapshotOp(c.ops[OpPageFetch]),
		Embedding:     snapshotOp(c.ops[OpEmbedding]),
		LLMGenerate:   snapshotOp(c.ops[OpLLMGenerate]),
		DBSearch:      snapshotOp(c.ops[OpDBSearch]),
		CrawlJob:      snapshotOp(c.ops[OpCrawlJob]),
	}
}
