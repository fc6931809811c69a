package cmd

import (
	"flag"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethanolivertroy/tmcheck/internal/config"
	"github.com/ethanolivertroy/tmcheck/internal/tui"
	"go.uber.org/zap"
)

// RunBrowse opens the interactive threat and control browser
func RunBrowse(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", "", "Config file (tmcheck.yaml)")
	threats := fs.String("threats", "", "Threat catalog YAML")
	controls := fs.String("controls", "", "Security control catalog YAML")
	out := fs.String("out", "", "Directory for exported artifacts")
	theme := fs.String("theme", "", "Color theme (default, dracula, catppuccin, nord)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *threats != "" {
		cfg.ThreatsPath = *threats
	}
	if *controls != "" {
		cfg.ControlsPath = *controls
	}
	if *out != "" {
		cfg.OutputDir = *out
	}
	if *theme != "" {
		cfg.Theme = *theme
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	name, err := tui.ParseTheme(cfg.Theme)
	if err != nil {
		return err
	}
	tui.SetTheme(name)

	// Logging to stderr would tear the alt screen
	p := tea.NewProgram(tui.NewModel(cfg, zap.NewNop()), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
