package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// BotStatus is the aggregate training state of a bot, derived from the
// states of its sources.
type BotStatus string

const (
	BotStatusTraining BotStatus = "training"
	BotStatusLive     BotStatus = "live"
	BotStatusError    BotStatus = "error"
	BotStatusPaused   BotStatus = "paused"
)

// Bot is one tenant's chatbot configuration. The CRUD layer owns most of
// it; the ingestion pipeline only reads identity and writes status plus
// the last-crawl timestamp.
type Bot struct {
	ID surrealmodels.RecordID `json:"id"`

	WorkspaceID *string   `json:"workspace_id,omitempty"`
	Name        string    `json:"name"`
	EmbedKey    string    `json:"embed_key"`
	Status      BotStatus `json:"status"`

	LastCrawlAt *time.Time `json:"last_crawl_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BotInput is the input structure for creating a bot.
type BotInput struct {
	WorkspaceID *string `json:"workspace_id,omitempty"`
	Name        string  `json:"name"`
	EmbedKey    string  `json:"embed_key"`
	Status      string  `json:"status"`
}
