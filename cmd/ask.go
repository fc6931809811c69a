package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ethanolivertroy/tmcheck/internal/agent"
	"github.com/ethanolivertroy/tmcheck/internal/config"
	"github.com/ethanolivertroy/tmcheck/internal/llm"
	"github.com/ethanolivertroy/tmcheck/internal/logging"
	"go.uber.org/zap"
)

const answerWidth = 100

// assistantFlags are shared by ask and serve
type assistantFlags struct {
	configPath string
	threats    string
	controls   string
	verbose    bool
}

func (f *assistantFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Config file (tmcheck.yaml)")
	fs.StringVar(&f.threats, "threats", "", "Threat catalog YAML")
	fs.StringVar(&f.controls, "controls", "", "Security control catalog YAML")
	fs.BoolVar(&f.verbose, "verbose", false, "Log tool activity to stderr")
}

// toolset loads the run settings and builds the assistant's toolset
func (f *assistantFlags) toolset() (*agent.Toolset, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.threats != "" {
		cfg.ThreatsPath = f.threats
	}
	if f.controls != "" {
		cfg.ControlsPath = f.controls
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := zap.NewNop()
	if f.verbose {
		if logger, err = logging.New(true); err != nil {
			return nil, nil, err
		}
	}
	return agent.NewToolset(cfg, logger), logger, nil
}

// llmConfig reads the provider settings and explains how to fix them
func llmConfig() (llm.Config, error) {
	cfg := llm.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("LLM configuration error: %w\n\nSet:\n  %s", err, cfg.SetupHelp())
	}
	return cfg, nil
}

// RunAsk answers a one-shot question, or starts a line-based conversation when no question is given
func RunAsk(args []string, stdin io.Reader, stdout io.Writer) error {
	var f assistantFlags
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stdout)
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

	ctx := context.Background()
	fmt.Fprintf(stdout, "Initializing threat model assistant (%s)...\n", llmCfg)
	tmAgent, err := agent.New(ctx, llmCfg, ts)
	if err != nil {
		return fmt.Errorf("failed to initialize assistant: %w", err)
	}

	if fs.NArg() > 0 {
		query := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if query == "" {
			return fmt.Errorf("query cannot be empty")
		}
		fmt.Fprintf(stdout, "Query: %s\n\n", query)
		response, err := tmAgent.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		fmt.Fprintln(stdout, renderMarkdown(response, answerWidth))
		return nil
	}

	return converse(ctx, tmAgent, stdin, stdout)
}

// converse reads one question per line. /clear starts a new session, exit or quit ends it.
func converse(ctx context.Context, tmAgent *agent.ThreatModelAgent, stdin io.Reader, stdout io.Writer) error {
	fmt.Fprintln(stdout, "Ask about threats, controls, gaps or compliance. /clear resets, exit quits.")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/clear":
			tmAgent.ClearSession()
			fmt.Fprintln(stdout, "Session cleared.")
			continue
		}

		response, err := tmAgent.Chat(ctx, line)
		if err != nil {
			fmt.Fprintf(stdout, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(stdout, renderMarkdown(response, answerWidth))
	}
}

// renderMarkdown styles an answer for the terminal, falling back to the raw text
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
