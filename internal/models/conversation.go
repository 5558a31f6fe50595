package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Conversation channels. Authenticated dashboard chat and the public
// widget keep separate conversations but share the answering policy.
const (
	ChannelChat   = "chat"
	ChannelWidget = "widget"
)

// Conversation groups the messages of one chat session with a bot.
// Scoped to a user id (authenticated) or a visitor id (widget).
type Conversation struct {
	ID surrealmodels.RecordID `json:"id"`

	Bot     surrealmodels.RecordID `json:"bot"`
	Channel string                 `json:"channel"`

	UserID    *string `json:"user_id,omitempty"`
	VisitorID *string `json:"visitor_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Message is one turn in a conversation.
type Message struct {
	ID surrealmodels.RecordID `json:"id"`

	Conversation surrealmodels.RecordID `json:"conversation"`
	Role         string                 `json:"role"` // "user" or "assistant"
	Content      string                 `json:"content"`

	CreatedAt time.Time `json:"created_at"`
}
