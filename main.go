package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ethanolivertroy/tmcheck/cmd"
	"github.com/ethanolivertroy/tmcheck/internal/check"
)

const version = "tmcheck v0.1.0"

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `tmcheck - threat model consistency checker for CI

Usage:
  tmcheck [command] [flags] [args...]

Commands:
  browse      Interactive threat and control browser (default)
  check       Validate, score and write report artifacts
  ask         Ask the threat model assistant (interactive without a question)
  serve       Run the assistant as an A2A server

Examples:
  tmcheck                                           # Browse threat-model/*.yaml
  tmcheck check                                     # CI gate with default paths
  tmcheck check --threats t.yaml --controls c.yaml --out reports
  tmcheck check --gap-tolerance 2 --baseline prev/security-metrics.json
  tmcheck check --watch                             # Re-run on every save
  tmcheck ask "which threats have no control?"      # One-shot query
  tmcheck serve --port 9000                         # A2A server on localhost:9000
  tmcheck serve --host 0.0.0.0                      # Bind to all interfaces (INSECURE)

Exit codes (check):
  0  clean
  1  WEAK security posture
  2  FAILED validation
  3  schema error in a catalog
  4  operational error (I/O, configuration, usage)

Environment:
  TMCHECK_THREATS            Threat catalog path (default: threat-model/threats.yaml)
  TMCHECK_CONTROLS           Control catalog path (default: threat-model/controls.yaml)
  TMCHECK_OUTPUT_DIR         Artifact directory (default: reports)
  TMCHECK_GAP_TOLERANCE      Gaps allowed before validation fails (default: 0)
  TMCHECK_MIN_EFFECTIVENESS  Minimum effectiveness for a passing control (default: 5)
  TMCHECK_CONFIG             Config file (tmcheck.yaml)
  TMCHECK_BASELINE           Previous security-metrics.json for the trend
  TMCHECK_THEME              Browser color theme (default, dracula, catppuccin, nord)
  LLM_PROVIDER               Assistant provider: gemini (default), vertex, or ollama
  LLM_MODEL                  Model name (e.g., gemini-2.0-flash, llama3.2)
  GEMINI_API_KEY             Required for Gemini provider
  VERTEX_PROJECT             GCP project ID (required for Vertex AI)
  VERTEX_LOCATION            GCP region (required for Vertex AI, e.g., us-central1)
  OLLAMA_URL                 Ollama server URL (default: http://localhost:11434)
  A2A_PORT                   Default port for serve (default: 8001)

A .env file in the working directory is loaded when present.
`)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// No args = browse
	if len(args) == 0 {
		return exitOnError(stderr, cmd.RunBrowse(nil, stdout))
	}

	switch args[0] {
	case "check":
		return cmd.RunCheck(args[1:], stdout)

	case "browse":
		return exitOnError(stderr, cmd.RunBrowse(args[1:], stdout))

	case "ask":
		return exitOnError(stderr, cmd.RunAsk(args[1:], stdin, stdout))

	case "serve":
		return exitOnError(stderr, cmd.RunServe(args[1:], stdout))

	case "help", "--help", "-h":
		printUsage(stdout)
		return 0

	case "version", "--version":
		fmt.Fprintln(stdout, version)
		return 0

	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return check.OutcomeError.ExitCode()
	}
}

func exitOnError(stderr io.Writer, err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return check.OutcomeError.ExitCode()
}
