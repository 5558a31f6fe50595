package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sitebotics/sitebot/internal/models"
)

// ErrInvalidInput indicates a missing or malformed bot field.
var ErrInvalidInput = errors.New("invalid input")

// BotStore is the persistence surface bot provisioning needs.
// *db.Client satisfies it.
type BotStore interface {
	QueryGetBot(ctx context.Context, id string) (*models.Bot, error)
	QueryCreateBot(ctx context.Context, input models.BotInput) (*models.Bot, error)
	QueryDeleteBot(ctx context.Context, id string) (int, error)
	QueryCreateSource(ctx context.Context, input models.SourceInput) (*models.Source, error)
	QueryDeleteChunksForBot(ctx context.Context, botID string) (int, error)
	QueryRequeueSourcesForBot(ctx context.Context, botID string) (int, error)
	QuerySetBotStatus(ctx context.Context, id string, status models.BotStatus) error
}

// BotService provisions bots and manages their training lifecycle.
type BotService struct {
	store  BotStore
	logger *slog.Logger
}

// NewBotService creates a bot service.
func NewBotService(store BotStore, logger *slog.Logger) *BotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BotService{store: store, logger: logger}
}

// newEmbedKey mints the public widget key for a bot.
func newEmbedKey() string {
	return "bot_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateBot provisions a bot for a website and enqueues its first crawl.
// domain may be a bare host; it is normalized to an https URL.
func (s *BotService) CreateBot(ctx context.Context, name, domain string, workspaceID *string) (*models.Bot, *models.Source, error) {
	name = strings.TrimSpace(name)
	domain = strings.TrimSpace(domain)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if domain == "" {
		return nil, nil, fmt.Errorf("%w: domain is required", ErrInvalidInput)
	}

	bot, err := s.store.QueryCreateBot(ctx, models.BotInput{
		WorkspaceID: workspaceID,
		Name:        name,
		EmbedKey:    newEmbedKey(),
		Status:      string(models.BotStatusTraining),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create bot: %w", err)
	}
	botID, err := models.RecordIDString(bot.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("bot id: %w", err)
	}

	startURL := domain
	if !strings.HasPrefix(startURL, "http://") && !strings.HasPrefix(startURL, "https://") {
		startURL = "https://" + startURL
	}

	source, err := s.store.QueryCreateSource(ctx, models.SourceInput{
		BotID:    botID,
		StartURL: startURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create source: %w", err)
	}

	s.logger.Info("bot created", "bot", botID, "name", name, "start_url", startURL)
	return bot, source, nil
}

// Retrain drops a bot's indexed chunks, requeues its sources, and puts
// the bot back in training until the fresh crawl completes.
// Returns how many sources were requeued.
func (s *BotService) Retrain(ctx context.Context, botID string) (int, error) {
	bot, err := s.store.QueryGetBot(ctx, botID)
	if err != nil {
		return 0, fmt.Errorf("get bot: %w", err)
	}
	if bot == nil {
		return 0, ErrBotNotFound
	}

	deleted, err := s.store.QueryDeleteChunksForBot(ctx, botID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}

	queued, err := s.store.QueryRequeueSourcesForBot(ctx, botID)
	if err != nil {
		return 0, fmt.Errorf("requeue sources: %w", err)
	}

	if err := s.store.QuerySetBotStatus(ctx, botID, models.BotStatusTraining); err != nil {
		return 0, fmt.Errorf("set bot training: %w", err)
	}

	s.logger.Info("bot retraining", "bot", botID, "chunks_dropped", deleted, "sources_queued", queued)
	return queued, nil
}

// DeleteBot removes a bot and everything it owns.
func (s *BotService) DeleteBot(ctx context.Context, botID string) error {
	count, err := s.store.QueryDeleteBot(ctx, botID)
	if err != nil {
		return fmt.Errorf("delete bot: %w", err)
	}
	if count == 0 {
		return ErrBotNotFound
	}
	s.logger.Info("bot deleted", "bot", botID)
	return nil
}
