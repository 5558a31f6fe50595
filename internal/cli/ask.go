package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <bot-id> <question>",
	Short: "Ask a trained bot a single question",
	Long: `Ask a bot one question and print the grounded answer.

The answer is produced strictly from the bot's indexed website content;
questions the content cannot answer are refused. No conversation is
recorded; use 'sitebot chat' for a stateful session.

Examples:
  sitebot ask bot123 "What plans do you offer?"
  sitebot ask bot123 "give me the pricing page url"`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	botID, question := args[0], args[1]
	ctx := context.Background()

	bot, err := dbClient.QueryGetBot(ctx, botID)
	if err != nil {
		return fmt.Errorf("get bot: %w", err)
	}
	if bot == nil {
		return fmt.Errorf("bot %s not found", botID)
	}

	engine, err := getEngine()
	if err != nil {
		return err
	}

	reply, err := engine.Answer(ctx, botID, bot.Name, question, nil)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	fmt.Println(reply.Answer)

	if len(reply.Sources) > 0 {
		fmt.Printf("\nSources (%d):\n", len(reply.Sources))
		for _, source := range reply.Sources {
			fmt.Printf("- %s", source.URL)
			if verbose {
				fmt.Printf(" (%.2f)", source.Similarity)
			}
			fmt.Println()
		}
	}

	return nil
}
