package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebotics/sitebot/internal/models"
	"github.com/spf13/cobra"
)

var createWorkspace string

var botsCmd = &cobra.Command{
	Use:   "bots",
	Short: "Manage bots",
	Long: `Manage bots: create, list, retrain, and delete.

Subcommands:
  create    Provision a bot for a website and enqueue its first crawl
  list      List bots (default)
  retrain   Drop a bot's index and requeue its sources
  delete    Delete a bot and everything it owns

Examples:
  sitebot bots create "Acme Bot" acme.example.com
  sitebot bots list
  sitebot bots retrain bot123
  sitebot bots delete bot123`,
	RunE: runListBots,
}

var botsCreateCmd = &cobra.Command{
	Use:   "create <name> <domain>",
	Short: "Provision a bot and enqueue its first crawl",
	Args:  cobra.ExactArgs(2),
	RunE:  runCreateBot,
}

var botsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bots",
	RunE:  runListBots,
}

var botsRetrainCmd = &cobra.Command{
	Use:   "retrain <bot-id>",
	Short: "Drop a bot's index and requeue its sources",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrainBot,
}

var botsDeleteCmd = &cobra.Command{
	Use:   "delete <bot-id>",
	Short: "Delete a bot and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteBot,
}

func init() {
	botsCreateCmd.Flags().StringVarP(&createWorkspace, "workspace", "w", "", "workspace id the bot belongs to")

	botsCmd.AddCommand(botsCreateCmd)
	botsCmd.AddCommand(botsListCmd)
	botsCmd.AddCommand(botsRetrainCmd)
	botsCmd.AddCommand(botsDeleteCmd)
}

func runCreateBot(cmd *cobra.Command, args []string) error {
	name, domain := args[0], args[1]
	ctx := context.Background()

	var workspace *string
	if createWorkspace != "" {
		workspace = &createWorkspace
	}

	bot, source, err := getBotService().CreateBot(ctx, name, domain, workspace)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	botID := models.MustRecordIDString(bot.ID)
	fmt.Printf("Created bot %s (%s)\n", bot.Name, botID)
	fmt.Printf("  Embed key: %s\n", bot.EmbedKey)
	fmt.Printf("  Crawl queued for %s\n", source.StartURL)
	fmt.Println("\nThe bot goes live once the worker finishes the crawl.")
	fmt.Printf("Watch it with 'sitebot sources %s'.\n", botID)

	return nil
}

func runListBots(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	bots, err := dbClient.QueryListBots(ctx)
	if err != nil {
		return fmt.Errorf("list bots: %w", err)
	}

	if len(bots) == 0 {
		fmt.Println("No bots found.")
		return nil
	}

	fmt.Printf("Bots (%d):\n\n", len(bots))
	for _, bot := range bots {
		fmt.Printf("- %s [%s] %s\n", bot.Name, bot.Status, models.MustRecordIDString(bot.ID))
		if verbose {
			fmt.Printf("  Embed key: %s\n", bot.EmbedKey)
			if bot.LastCrawlAt != nil {
				fmt.Printf("  Last crawl: %s\n", bot.LastCrawlAt.Format(time.RFC3339))
			}
		}
	}

	return nil
}

func runRetrainBot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	queued, err := getBotService().Retrain(ctx, args[0])
	if err != nil {
		return fmt.Errorf("retrain: %w", err)
	}

	fmt.Printf("Requeued %d source(s); the worker will re-crawl them.\n", queued)
	return nil
}

func runDeleteBot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := getBotService().DeleteBot(ctx, args[0]); err != nil {
		return fmt.Errorf("delete bot: %w", err)
	}

	fmt.Println("Bot deleted.")
	return nil
}
