package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpPageFetch, 100*time.Millisecond)
	c.RecordTiming(OpPageFetch, 300*time.Millisecond)

	snap := c.Snapshot()
	if snap.PageFetch == nil {
		t.Fatal("Expected page fetch metrics")
	}
	if snap.PageFetch.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.PageFetch.Count)
	}
	if snap.PageFetch.MinTimeMs != 100 {
		t.Errorf("MinTimeMs = %d, want 100", snap.PageFetch.MinTimeMs)
	}
	if snap.PageFetch.MaxTimeMs != 300 {
		t.Errorf("MaxTimeMs = %d, want 300", snap.PageFetch.MaxTimeMs)
	}
	if snap.PageFetch.AvgTimeMs != 200 {
		t.Errorf("AvgTimeMs = %v, want 200", snap.PageFetch.AvgTimeMs)
	}

	// Untouched operations stay nil
	if snap.CrawlJob != nil {
		t.Error("Expected nil crawl job metrics")
	}
}

func TestRecordBatch(t *testing.T) {
	c := NewCollector()

	c.RecordBatch(OpCrawlJob, 2*time.Second, 10)
	c.RecordBatch(OpCrawlJob, 4*time.Second, 20)

	snap := c.Snapshot()
	if snap.CrawlJob == nil {
		t.Fatal("Expected crawl job metrics")
	}
	if snap.CrawlJob.TotalItems == nil || *snap.CrawlJob.TotalItems != 30 {
		t.Errorf("TotalItems = %v, want 30", snap.CrawlJob.TotalItems)
	}
	if snap.CrawlJob.AvgItems == nil || *snap.CrawlJob.AvgItems != 15 {
		t.Errorf("AvgItems = %v, want 15", snap.CrawlJob.AvgItems)
	}
}

func TestCollectorConcurrency(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpEmbedding, time.Millisecond)
			c.RecordBatch(OpCrawlJob, time.Millisecond, 1)
			_ = c.Snapshot()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.Embedding.Count != 50 {
		t.Errorf("Embedding count = %d, want 50", snap.Embedding.Count)
	}
	if snap.CrawlJob.Count != 50 {
		t.Errorf("CrawlJob count = %d, want 50", snap.CrawlJob.Count)
	}
}
