// Command bsky-dm sends and reads Bluesky direct messages from the
// terminal. It keeps no state of its own: every invocation logs in fresh
// with the same credentials the bridge daemon uses.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/LuciG420/bsky-dm-cli/bsky"
	"github.com/LuciG420/bsky-dm-cli/config"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "bsky-dm",
		Short: "Bluesky direct message client",
	}
	root.AddCommand(newSendCommand(), newConvosCommand(), newMessagesCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func login(ctx context.Context) (*bsky.Client, error) {
	cfg, err := config.LoadCLI()
	if err != nil {
		return nil, err
	}
	client := bsky.NewClient(cfg.Host)
	if _, err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return client, nil
}

// newSendCommand constructs the `send` subcommand.
func newSendCommand() *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send a direct message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			to, _ := cmd.Flags().GetString("to")
			text, _ := cmd.Flags().GetString("text")
			if to == "" || text == "" {
				return fmt.Errorf("--to and --text are required")
			}

			ctx := cmd.Context()
			client, err := login(ctx)
			if err != nil {
				return err
			}
			did, err := client.ResolveHandle(ctx, to)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", to, err)
			}
			convo, err := client.ConvoForMembers(ctx, []string{did})
			if err != nil {
				return fmt.Errorf("open conversation: %w", err)
			}
			msg, err := client.SendMessage(ctx, convo.ID, text)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s at %s\n", msg.ID, msg.SentAt)
			return nil
		},
	}
	sendCmd.Flags().String("to", "", "Recipient handle or DID")
	sendCmd.Flags().String("text", "", "Message text")
	return sendCmd
}

// newConvosCommand constructs the `convos` subcommand.
func newConvosCommand() *cobra.Command {
	convosCmd := &cobra.Command{
		Use:   "convos",
		Short: "List recent conversations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()
			client, err := login(ctx)
			if err != nil {
				return err
			}
			convos, err := client.ListConvos(ctx, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, convos)
		},
	}
	convosCmd.Flags().Int("limit", 20, "Maximum conversations to list")
	return convosCmd
}

// newMessagesCommand constructs the `messages` subcommand.
func newMessagesCommand() *cobra.Command {
	messagesCmd := &cobra.Command{
		Use:   "messages",
		Short: "List messages in a conversation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			convoID, _ := cmd.Flags().GetString("convo")
			limit, _ := cmd.Flags().GetInt("limit")
			if convoID == "" {
				return fmt.Errorf("--convo is required")
			}

			ctx := cmd.Context()
			client, err := login(ctx)
			if err != nil {
				return err
			}
			msgs, err := client.Messages(ctx, convoID, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, msgs)
		},
	}
	messagesCmd.Flags().String("convo", "", "Conversation id")
	messagesCmd.Flags().Int("limit", 50, "Maximum messages to list")
	return messagesCmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := sonic.ConfigStd.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
