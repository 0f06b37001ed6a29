package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatThread string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the agents from the terminal",
	Long: `Opens an interactive session against the same supervisor the server
runs. Pass --thread to continue an earlier conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, slog.LevelWarn)
		slog.SetDefault(logger)

		a, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		threadID := chatThread
		if threadID == "" {
			threadID = uuid.NewString()
		}

		printBanner()
		render := newRenderer()
		fmt.Printf("thread %s (type 'exit' to quit)\n\n", threadID)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}

			reply, err := a.supervisor.Process(cmd.Context(), threadID, line)
			if err != nil {
				return err
			}
			fmt.Print(render(reply))
		}
		return scanner.Err()
	},
}

// newRenderer wraps glamour for markdown replies, degrading to plain
// text when the terminal can't be probed.
func newRenderer() func(string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(s string) string { return s + "\n" }
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s + "\n"
		}
		return out
	}
}

func init() {
	chatCmd.Flags().StringVar(&chatThread, "thread", "", "thread id to continue (default: a fresh conversation)")
	rootCmd.AddCommand(chatCmd)
}
