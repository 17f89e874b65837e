package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/leaflogic/leaflogic/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "leaflogic",
	Short: "Plant-care assistant relay",
	Long: `Leaf Logic relays chat messages between plant-care front ends and an
upstream conversational assistant, enriching each message with the user's
plant collection.`,
	PersistentPreRunE: loadRootConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
}
