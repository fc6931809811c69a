package cmd

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethanolivertroy/tmcheck/internal/server"
)

// RunServe starts the A2A server for the threat model assistant
func RunServe(args []string, stdout io.Writer) error {
	var f assistantFlags
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stdout)
	port := fs.Int("port", server.GetPort(), "Port for A2A server")
	host := fs.String("host", "127.0.0.1", "Host to bind (use 0.0.0.0 for all interfaces - INSECURE)")
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	llmCfg, err := llmConfig()
	if err != nil {
		return err
	}
	ts, logger, err := f.toolset()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.RunA2AServer(ctx, server.A2AConfig{
		Port:      *port,
		Host:      *host,
		LLMConfig: llmCfg,
		Toolset:   ts,
		Logger:    logger,
	})
}
