// Package service implements the application operations on top of the
// store, the crawler, and the grounding engine: bot provisioning,
// retraining, and the two chat surfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sitebotics/sitebot/internal/llm"
	"github.com/sitebotics/sitebot/internal/models"
	"github.com/sitebotics/sitebot/internal/rag"
)

// historyWindow is how many prior turns the model sees.
const historyWindow = 12

var (
	// ErrBotNotFound indicates the bot does not exist or is not visible
	// to the caller.
	ErrBotNotFound = errors.New("bot not found")

	// ErrInvalidEmbedKey indicates no bot matches the widget embed key.
	ErrInvalidEmbedKey = errors.New("invalid embed key")

	// ErrEmptyMessage indicates a chat request without a message.
	ErrEmptyMessage = errors.New("message is required")
)

// ChatStore is the persistence surface chat needs. *db.Client satisfies it.
type ChatStore interface {
	QueryGetBot(ctx context.Context, id string) (*models.Bot, error)
	QueryGetBotByEmbedKey(ctx context.Context, embedKey string) (*models.Bot, error)
	QueryFindConversation(ctx context.Context, botID, channel string, userID, visitorID *string) (*models.Conversation, error)
	QueryCreateConversation(ctx context.Context, botID, channel string, userID, visitorID *string) (*models.Conversation, error)
	QueryAppendMessage(ctx context.Context, conversationID, role, content string) (*models.Message, error)
	QueryRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

// Answerer produces a grounded reply. *rag.Engine satisfies it.
type Answerer interface {
	Answer(ctx context.Context, botID, botName, message string, history []llm.ChatTurn) (*rag.Reply, error)
}

// ChatResult is one answered chat turn.
type ChatResult struct {
	Answer         string       `json:"answer"`
	ConversationID string       `json:"conversationId"`
	Sources        []rag.Source `json:"sources"`
}

// ChatService answers messages on both chat surfaces. The authenticated
// dashboard and the public widget differ only in how the bot is looked
// up and how the conversation is scoped; the answering policy is the
// same engine for both.
type ChatService struct {
	store    ChatStore
	answerer Answerer
	logger   *slog.Logger
}

// NewChatService creates a chat service.
func NewChatService(store ChatStore, answerer Answerer, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{store: store, answerer: answerer, logger: logger}
}

// Chat answers a message on the authenticated surface, scoped to the
// calling user's conversation with the bot.
func (s *ChatService) Chat(ctx context.Context, userID, botID, message string) (*ChatResult, error) {
	bot, err := s.store.QueryGetBot(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("get bot: %w", err)
	}
	if bot == nil {
		return nil, ErrBotNotFound
	}

	return s.reply(ctx, bot, models.ChannelChat, &userID, nil, message)
}

// WidgetChat answers a message from the public website widget. The bot
// is addressed only by its embed key; visitors without an id share the
// anonymous conversation.
func (s *ChatService) WidgetChat(ctx context.Context, embedKey, visitorID, message string) (*ChatResult, error) {
	embedKey = strings.TrimSpace(embedKey)
	if embedKey == "" {
		return nil, ErrInvalidEmbedKey
	}

	bot, err := s.store.QueryGetBotByEmbedKey(ctx, embedKey)
	if err != nil {
		return nil, fmt.Errorf("get bot by embed key: %w", err)
	}
	if bot == nil {
		return nil, ErrInvalidEmbedKey
	}

	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		visitorID = "anon"
	}

	return s.reply(ctx, bot, models.ChannelWidget, nil, &visitorID, message)
}

// reply is the shared turn: persist the user message, load the recent
// window, answer through the engine, persist the assistant message.
func (s *ChatService) reply(ctx context.Context, bot *models.Bot, channel string, userID, visitorID *string, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	botID, err := models.RecordIDString(bot.ID)
	if err != nil {
		return nil, fmt.Errorf("bot id: %w", err)
	}

	conv, err := s.store.QueryFindConversation(ctx, botID, channel, userID, visitorID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if conv == nil {
		conv, err = s.store.QueryCreateConversation(ctx, botID, channel, userID, visitorID)
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
	}
	convID, err := models.RecordIDString(conv.ID)
	if err != nil {
		return nil, fmt.Errorf("conversation id: %w", err)
	}

	if _, err := s.store.QueryAppendMessage(ctx, convID, "user", message); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	recent, err := s.store.QueryRecentMessages(ctx, convID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := make([]llm.ChatTurn, 0, len(recent))
	for _, m := range recent {
		history = append(history, llm.ChatTurn{Role: m.Role, Content: m.Content})
	}

	reply, err := s.answerer.Answer(ctx, botID, bot.Name, message, history)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	if _, err := s.store.QueryAppendMessage(ctx, convID, "assistant", reply.Answer); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	s.logger.Debug("chat turn answered", "bot", botID, "channel", channel, "sources", len(reply.Sources))

	return &ChatResult{
		Answer:         reply.Answer,
		ConversationID: convID,
		Sources:        reply.Sources,
	}, nil
}
