package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leaflogic/leaflogic/internal/client"
	"github.com/leaflogic/leaflogic/internal/plant"
	"github.com/leaflogic/leaflogic/internal/plantcontext"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	Long: `Opens an interactive conversation against a running relay server.
When a plant database is given, each message carries a snapshot of the plant
collection as context for the assistant.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "server", "http://localhost:3000", "Base URL of the relay server")
	chatCmd.Flags().StringVar(&chatPlantDB, "plant-db", "", "Path to an sqlite plant database to send as context")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	var provider client.ContextProvider
	if chatPlantDB != "" {
		repo, err := plant.OpenSQLiteRepository(chatPlantDB)
		if err != nil {
			return fmt.Errorf("failed to open plant database: %w", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				log.Printf("Failed to close plant database: %v", err)
			}
		}()
		provider = plantcontext.NewProvider(repo)
	}

	session := client.NewSession(chatServerURL, provider)

	userPrompt := color.New(color.FgGreen, color.Bold)
	assistantPrefix := color.New(color.FgCyan, color.Bold)
	errorText := color.New(color.FgRed)

	fmt.Println("Connected to", chatServerURL)
	fmt.Println("Type a question, 'new' to start a fresh thread, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		userPrompt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "new":
			session.ResetConversation()
			threadID, err := session.StartNewThread(ctx)
			if err != nil {
				errorText.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("Started thread %s\n", threadID)
			continue
		}

		reply, err := session.SendMessage(ctx, line)
		if err != nil {
			errorText.Printf("error: %v\n", err)
			continue
		}
		assistantPrefix.Print("assistant> ")
		fmt.Println(reply)
	}
	return scanner.Err()
}
