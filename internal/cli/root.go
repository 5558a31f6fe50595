// Package cli provides the command-line interface for sitebot.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sitebotics/sitebot/internal/config"
	"github.com/sitebotics/sitebot/internal/db"
	"github.com/sitebotics/sitebot/internal/llm"
	"github.com/sitebotics/sitebot/internal/rag"
	"github.com/sitebotics/sitebot/internal/service"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client

	// Lazy-initialized LLM components
	embedder llm.Embedder
	model    *llm.Model
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sitebot",
	Short: "Website chatbot platform",
	Long: `Sitebot turns a website into a chatbot. A bot is provisioned per site,
its pages are crawled and indexed into a vector store, and questions are
answered strictly from the indexed content.

The crawl itself runs in the sitebot-worker process; this CLI manages
bots, enqueues crawls, and talks to trained bots.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load config
		cfg = config.Load()

		// Connect to database
		ctx := context.Background()
		dbCfg := db.Config{
			URL:            cfg.SurrealDBURL,
			Namespace:      cfg.SurrealDBNamespace,
			Database:       cfg.SurrealDBDatabase,
			Username:       cfg.SurrealDBUser,
			Password:       cfg.SurrealDBPass,
			AuthLevel:      cfg.SurrealDBAuthLevel,
			EmbedDimension: cfg.EmbedDimension,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, nil)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		// Initialize schema
		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Close database connection
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// getBotService creates the bot provisioning service. No LLM needed.
func getBotService() *service.BotService {
	return service.NewBotService(dbClient, nil)
}

// getEngine creates the grounding engine with lazy LLM initialization.
func getEngine() (*rag.Engine, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
		model, err = llm.NewModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
	}

	return rag.NewEngine(dbClient, embedder, model, nil, nil, cfg.MinSimilarity, cfg.MaxContextChunks), nil
}

// getChatService creates the chat service on top of the engine.
func getChatService() (*service.ChatService, error) {
	engine, err := getEngine()
	if err != nil {
		return nil, err
	}
	return service.NewChatService(dbClient, engine, nil), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(botsCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statsCmd)
}
