package db

import (
	"context"
	"fmt"

	"github.com/sitebotics/sitebot/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// QueryFindConversation looks up an existing conversation for a bot on a
// channel, scoped to a user id or visitor id (whichever is non-nil).
// Returns nil if none exists yet.
func (c *Client) QueryFindConversation(ctx context.Context, botID, channel string, userID, visitorID *string) (*models.Conversation, error) {
	scopeClause := "user_id = $user_id"
	vars := map[string]any{
		"bot_id":  botID,
		"channel": channel,
	}
	if visitorID != nil {
		scopeClause = "visitor_id = $visitor_id"
		vars["visitor_id"] = *visitorID
	} else if userID != nil {
		vars["user_id"] = *userID
	} else {
		return nil, fmt.Errorf("find conversation: user id or visitor id required")
	}

	sql := fmt.Sprintf(`
		SELECT * FROM conversation
		WHERE bot = type::record("bot", $bot_id)
			AND channel = $channel
			AND %s
		ORDER BY created_at DESC
		LIMIT 1
	`, scopeClause)

	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return first(results), nil
}

// QueryCreateConversation starts a new conversation for a bot.
func (c *Client) QueryCreateConversation(ctx context.Context, botID, channel string, userID, visitorID *string) (*models.Conversation, error) {
	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		CREATE conversation SET
			bot = type::record("bot", $bot_id),
			channel = $channel,
			user_id = $user_id,
			visitor_id = $visitor_id
		RETURN AFTER
	`, map[string]any{
		"bot_id":     botID,
		"channel":    channel,
		"user_id":    userID,
		"visitor_id": visitorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", wrapQueryError(err))
	}

	conv := first(results)
	if conv == nil {
		return nil, fmt.Errorf("create conversation: no result returned")
	}
	return conv, nil
}

// QueryAppendMessage appends one turn to a conversation.
func (c *Client) QueryAppendMessage(ctx context.Context, conversationID, role, content string) (*models.Message, error) {
	results, err := surrealdb.Query[[]models.Message](ctx, c.db, `
		CREATE message SET
			conversation = type::record("conversation", $conversation_id),
			role = $role,
			content = $content
		RETURN AFTER
	`, map[string]any{
		"conversation_id": conversationID,
		"role":            role,
		"content":         content,
	})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", wrapQueryError(err))
	}

	msg := first(results)
	if msg == nil {
		return nil, fmt.Errorf("append message: no result returned")
	}
	return msg, nil
}

// QueryRecentMessages returns the last limit messages of a conversation
// in chronological order. The inner query selects newest-first so the
// window is the tail of the conversation, not its head.
func (c *Client) QueryRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	results, err := surrealdb.Query[[]models.Message](ctx, c.db, `
		SELECT * FROM (
			SELECT * FROM message
			WHERE conversation = type::record("conversation", $conversation_id)
			ORDER BY created_at DESC
			LIMIT $limit
		) ORDER BY created_at ASC
	`, map[string]any{
		"conversation_id": conversationID,
		"limit":           limit,
	})
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	return all(results), nil
}
