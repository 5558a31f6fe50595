package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sitebotics/sitebot/internal/service"
	"github.com/spf13/cobra"
)

var (
	chatUser     string
	chatEmbedKey string
)

var chatCmd = &cobra.Command{
	Use:   "chat [bot-id]",
	Short: "Start an interactive chat session with a bot",
	Long: `Chat with a bot interactively. The conversation persists, so
follow-up questions see the earlier turns.

By default the bot is addressed by id on the authenticated surface.
With --embed-key the bot is addressed the way the public website widget
does it, by its embed key alone.

Examples:
  sitebot chat bot123
  sitebot chat bot123 --user alice
  sitebot chat --embed-key bot_2f1a...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "local", "user or visitor id scoping the conversation")
	chatCmd.Flags().StringVar(&chatEmbedKey, "embed-key", "", "address the bot by widget embed key instead of id")
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatEmbedKey == "" && len(args) == 0 {
		return fmt.Errorf("a bot id or --embed-key is required")
	}
	var botID string
	if len(args) > 0 {
		botID = args[0]
	}

	chatService, err := getChatService()
	if err != nil {
		return err
	}

	fmt.Println("Chat session started. Type 'exit' or Ctrl+D to quit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		ctx := context.Background()
		var result *service.ChatResult
		if chatEmbedKey != "" {
			result, err = chatService.WidgetChat(ctx, chatEmbedKey, chatUser, message)
		} else {
			result, err = chatService.Chat(ctx, chatUser, botID, message)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		fmt.Printf("\n%s\n", result.Answer)
		if verbose && len(result.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, source := range result.Sources {
				fmt.Printf("- %s (%.2f)\n", source.URL, source.Similarity)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Println("\nBye.")
	return nil
}
