package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/leaflogic/leaflogic/internal/relay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant relay server",
	Long: `Starts the HTTP server that relays chat messages to the upstream
assistant: thread creation, message submission, run polling, and reply
extraction.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	if err := cfg.Validate(); err != nil {
		return err
	}

	telemetryProvider, err := createTelemetryProvider(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	gateway, err := createGateway(ctx)
	if err != nil {
		return err
	}

	server := relay.NewServer(gateway, cfg.AssistantID, relay.PollPolicy{
		Interval: cfg.PollInterval,
		Timeout:  cfg.PollTimeout,
	})

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	log.Printf("Starting Leaf Logic relay on %s", cfg.ListenAddr)
	log.Printf("Assistant backend: %s", cfg.Backend)
	log.Printf("Using assistant ID: %s", cfg.AssistantID)
	log.Printf("Run poll policy: every %s, up to %s", cfg.PollInterval, cfg.PollTimeout)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("HTTP server stopped: %w", err)
	}
}
