package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <bot-id>",
	Short: "Show a bot's index statistics",
	Long: `Show a bot's status, its indexed chunk count, and its sources.

Examples:
  sitebot stats bot123`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	botID := args[0]
	ctx := context.Background()

	bot, err := dbClient.QueryGetBot(ctx, botID)
	if err != nil {
		return fmt.Errorf("get bot: %w", err)
	}
	if bot == nil {
		return fmt.Errorf("bot %s not found", botID)
	}

	chunks, err := dbClient.QueryCountChunksForBot(ctx, botID)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}

	sources, err := dbClient.QueryListSourcesForBot(ctx, botID)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	fmt.Printf("%s [%s]\n\n", bot.Name, bot.Status)
	fmt.Printf("  Indexed chunks: %d\n", chunks)
	fmt.Printf("  Sources:        %d\n", len(sources))
	if bot.LastCrawlAt != nil {
		fmt.Printf("  Last crawl:     %s\n", bot.LastCrawlAt.Format(time.RFC3339))
	}

	if len(sources) > 0 {
		fmt.Println()
		for _, source := range sources {
			fmt.Printf("  - %s [%s] %d/%d pages\n",
				source.StartURL, source.Status, source.PagesCrawled, source.PagesTotal)
		}
	}

	return nil
}
