// Package server exposes the threat model assistant over A2A
package server

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ethanolivertroy/tmcheck/internal/agent"
	"github.com/ethanolivertroy/tmcheck/internal/llm"
	"go.uber.org/zap"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/web"
	"google.golang.org/adk/cmd/launcher/web/a2a"
	"google.golang.org/adk/session"
)

// DefaultPort is used when neither --port nor A2A_PORT is set
const DefaultPort = 8001

// A2AConfig holds configuration for the A2A server
type A2AConfig struct {
	Port      int
	Host      string
	LLMConfig llm.Config
	Toolset   *agent.Toolset
	Logger    *zap.Logger
}

// RunA2AServer starts the assistant as an A2A server and blocks until ctx is done
func RunA2AServer(ctx context.Context, cfg A2AConfig) error {
	if err := cfg.LLMConfig.Validate(); err != nil {
		return fmt.Errorf("invalid LLM config: %w", err)
	}
	if cfg.Toolset == nil {
		return fmt.Errorf("no toolset configured")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	tmAgent, err := agent.New(ctx, cfg.LLMConfig, cfg.Toolset)
	if err != nil {
		return fmt.Errorf("failed to create assistant: %w", err)
	}

	webLauncher := web.NewLauncher(a2a.NewLauncher())
	if _, err := webLauncher.Parse([]string{"--port", strconv.Itoa(cfg.Port)}); err != nil {
		return fmt.Errorf("failed to parse launcher args: %w", err)
	}

	logger.Info("A2A server starting",
		zap.String("host", host),
		zap.Int("port", cfg.Port),
		zap.String("llm", cfg.LLMConfig.String()))
	fmt.Printf("Threat model assistant (A2A) on port %d\n", cfg.Port)
	fmt.Printf("Agent card: http://%s:%d/.well-known/agent-card.json\n", host, cfg.Port)
	fmt.Printf("A2A endpoint: http://%s:%d/a2a\n", host, cfg.Port)
	fmt.Printf("LLM Provider: %s\n\n", cfg.LLMConfig)

	return webLauncher.Run(ctx, &launcher.Config{
		AgentLoader:    adkagent.NewSingleLoader(tmAgent.Agent()),
		SessionService: session.InMemoryService(),
	})
}

// GetPort returns the server port from A2A_PORT or the default
func GetPort() int {
	port, err := strconv.Atoi(os.Getenv("A2A_PORT"))
	if err != nil || port <= 0 || port > 65535 {
		return DefaultPort
	}
	return port
}
