package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// SourceStatus is the lifecycle state of one crawl job.
type SourceStatus string

const (
	SourceStatusQueued   SourceStatus = "queued"
	SourceStatusCrawling SourceStatus = "crawling"
	SourceStatusComplete SourceStatus = "complete"
	SourceStatusError    SourceStatus = "error"
)

// Source is one crawl job targeting a single seed URL for one bot.
// It is mutated only by the crawl worker; at most one claimant may hold
// it in the crawling state at a time.
type Source struct {
	ID surrealmodels.RecordID `json:"id"`

	Bot      surrealmodels.RecordID `json:"bot"`
	StartURL string                 `json:"start_url"`
	Status   SourceStatus           `json:"status"`

	LastError   *string    `json:"last_error,omitempty"`
	LastCrawlAt *time.Time `json:"last_crawl_at,omitempty"`

	// ClaimedAt is set when a worker claims the source; the poller uses
	// it to requeue jobs abandoned by a crashed worker.
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`

	// Progress counters, written by the orchestrator for status UIs.
	PagesTotal   int `json:"pages_total"`
	PagesCrawled int `json:"pages_crawled"`

	CreatedAt time.Time `json:"created_at"`
}

// SourceInput is the input structure for creating a source.
type SourceInput struct {
	BotID    string `json:"bot_id"`
	StartURL string `json:"start_url"`
}
