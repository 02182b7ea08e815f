package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/cchalm/agent-chat/internal/chat"
	"github.com/cchalm/agent-chat/internal/config"
	"github.com/cchalm/agent-chat/internal/langgraph"
	"github.com/cchalm/agent-chat/internal/telemetry"
	"github.com/cchalm/agent-chat/internal/transport"
)

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		zap.S().Infof("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		zap.S().Fatalf("Forcing shutdown")
	}()

	return ctx
}

// createHTTPClient builds the client used to talk to the agent service: rate limit retries, then the
// API key header, then the bearer token
func createHTTPClient(c config.Config) *http.Client {
	var rt http.RoundTripper = transport.WithRateLimiting(nil)
	if c.APIKey != "" {
		rt = transport.WithHeader(rt, "X-Api-Key", c.APIKey)
	}
	if c.BearerToken != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.BearerToken}),
			Base:   rt,
		}
	}
	return &http.Client{Transport: rt}
}

func createClient(c config.Config) *langgraph.Client {
	return langgraph.NewClient(c.APIURL, c.AssistantID, createHTTPClient(c),
		langgraph.WithRequestTimeout(c.RequestTimeout),
	)
}

func createRunner(c config.Config) *chat.Runner {
	return chat.NewRunner(createClient(c))
}

func setupTelemetry(ctx context.Context) (func(), error) {
	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.TelemetryEnabled,
		Endpoint:       cfg.OTLPEndpoint,
		ServiceVersion: versionInfo.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			zap.S().Warnf("Failed to shut down telemetry: %v", err)
		}
	}, nil
}
