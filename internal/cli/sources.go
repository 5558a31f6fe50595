package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sitebotics/sitebot/internal/models"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources <bot-id>",
	Short: "List a bot's crawl sources",
	Long: `List a bot's crawl sources with their status and progress.

Examples:
  sitebot sources bot123
  sitebot sources bot123 -v`,
	Args: cobra.ExactArgs(1),
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sources, err := dbClient.QueryListSourcesForBot(ctx, args[0])
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if len(sources) == 0 {
		fmt.Println("No sources found.")
		return nil
	}

	fmt.Printf("Sources (%d):\n\n", len(sources))
	for _, source := range sources {
		fmt.Printf("- %s [%s] %s\n", source.StartURL, source.Status, models.MustRecordIDString(source.ID))
		if source.Status == models.SourceStatusCrawling {
			fmt.Printf("  Progress: %d/%d pages\n", source.PagesCrawled, source.PagesTotal)
		}
		if source.LastError != nil {
			fmt.Printf("  Error: %s\n", *source.LastError)
		}
		if verbose && source.LastCrawlAt != nil {
			fmt.Printf("  Last crawl: %s\n", source.LastCrawlAt.Format(time.RFC3339))
		}
	}

	return nil
}
