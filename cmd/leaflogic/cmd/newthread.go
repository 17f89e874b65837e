package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leaflogic/leaflogic/internal/client"
)

var newThreadCmd = &cobra.Command{
	Use:   "new-thread",
	Short: "Create a fresh conversation thread on the relay",
	RunE:  runNewThread,
}

func init() {
	newThreadCmd.Flags().StringVar(&chatServerURL, "server", "http://localhost:3000", "Base URL of the relay server")

	rootCmd.AddCommand(newThreadCmd)
}

func runNewThread(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	session := client.NewSession(chatServerURL, nil)
	threadID, err := session.StartNewThread(ctx)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}

	fmt.Println(threadID)
	return nil
}
