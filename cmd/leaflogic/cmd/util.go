package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/leaflogic/leaflogic/internal/assistant"
	"github.com/leaflogic/leaflogic/internal/config"
	"github.com/leaflogic/leaflogic/internal/telemetry"
	"github.com/leaflogic/leaflogic/internal/transport"
)

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}

func createGateway(ctx context.Context) (assistant.Gateway, error) {
	switch cfg.Backend {
	case config.BackendAssistants:
		return assistant.NewAssistantsAPI(ctx, cfg.OpenAIAPIKey), nil
	case config.BackendAnthropic:
		return assistant.NewAnthropicGateway(createAnthropicClient(cfg.AnthropicAPIKey)), nil
	default:
		return nil, fmt.Errorf("unknown assistant backend '%s'", cfg.Backend)
	}
}

func createAnthropicClient(apiKey string) anthropic.Client {
	rateLimitedHTTPClient := &http.Client{
		Transport: transport.WithRateLimitRetries(nil),
	}
	return anthropic.NewClient(
		option.WithHTTPClient(rateLimitedHTTPClient),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(5),
	)
}

func createTelemetryProvider(ctx context.Context) (*telemetry.Provider, error) {
	return telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:      cfg.TelemetryEnabled,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
}
