package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitebotics/sitebot/internal/models"
	"github.com/spf13/cobra"
)

var crawlWait bool

var crawlCmd = &cobra.Command{
	Use:   "crawl <bot-id> <url>",
	Short: "Enqueue a crawl of a website for a bot",
	Long: `Enqueue a crawl job. The sitebot-worker process picks it up, crawls
the site, and indexes the pages for the bot.

Use --wait to watch the crawl progress until it finishes.

Examples:
  sitebot crawl bot123 https://acme.example.com
  sitebot crawl bot123 acme.example.com --wait`,
	Args: cobra.ExactArgs(2),
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().BoolVarP(&crawlWait, "wait", "w", false, "watch the crawl until it finishes")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	botID, startURL := args[0], args[1]
	ctx := context.Background()

	bot, err := dbClient.QueryGetBot(ctx, botID)
	if err != nil {
		return fmt.Errorf("get bot: %w", err)
	}
	if bot == nil {
		return fmt.Errorf("bot %s not found", botID)
	}

	if !strings.HasPrefix(startURL, "http://") && !strings.HasPrefix(startURL, "https://") {
		startURL = "https://" + startURL
	}

	source, err := dbClient.QueryCreateSource(ctx, models.SourceInput{
		BotID:    botID,
		StartURL: startURL,
	})
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}

	sourceID := models.MustRecordIDString(source.ID)
	fmt.Printf("Crawl queued for %s (%s)\n", startURL, sourceID)

	if !crawlWait {
		fmt.Printf("Watch it with 'sitebot sources %s'.\n", botID)
		return nil
	}

	return RunCrawlProgress(dbClient, sourceID)
}
