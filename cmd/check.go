package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethanolivertroy/tmcheck/internal/catalog"
	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/config"
	"github.com/ethanolivertroy/tmcheck/internal/logging"
	"github.com/ethanolivertroy/tmcheck/internal/report"
	"github.com/ethanolivertroy/tmcheck/internal/tui"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce collapses the burst of events an editor save produces
const watchDebounce = 250 * time.Millisecond

type checkFlags struct {
	threats          string
	controls         string
	out              string
	gapTolerance     int
	minEffectiveness float64
	configPath       string
	baseline         string
	watch            bool
	verbose          bool
	quiet            bool
}

// RunCheck runs the load, validate, score and emit pipeline and returns the process exit code
func RunCheck(args []string, stdout io.Writer) int {
	var f checkFlags
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&f.threats, "threats", "", "Threat catalog YAML")
	fs.StringVar(&f.controls, "controls", "", "Security control catalog YAML")
	fs.StringVar(&f.out, "out", "", "Directory for report artifacts")
	fs.IntVar(&f.gapTolerance, "gap-tolerance", 0, "Gaps allowed before validation fails")
	fs.Float64Var(&f.minEffectiveness, "min-effectiveness", 0, "Minimum effectiveness for an Implemented control to pass (0-10)")
	fs.StringVar(&f.configPath, "config", "", "Config file (tmcheck.yaml)")
	fs.StringVar(&f.baseline, "baseline", "", "Previous security-metrics.json for the score trend")
	fs.BoolVar(&f.watch, "watch", false, "Re-run whenever a catalog file changes")
	fs.BoolVar(&f.verbose, "verbose", false, "Debug logging in console format")
	fs.BoolVar(&f.quiet, "quiet", false, "Only print the artifact list")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return check.OutcomeClean.ExitCode()
		}
		return check.OutcomeError.ExitCode()
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stdout, "Error: unexpected arguments: %v\n", fs.Args())
		return check.OutcomeError.ExitCode()
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return check.OutcomeError.ExitCode()
	}
	applyFlags(&cfg, fs, f)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stdout, "Error: invalid configuration: %v\n", err)
		return check.OutcomeError.ExitCode()
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return check.OutcomeError.ExitCode()
	}
	defer func() { _ = logger.Sync() }()

	if f.watch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchCatalogs(ctx, cfg, logger, stdout, f.quiet).ExitCode()
	}
	return checkOnce(cfg, logger, stdout, f.quiet).ExitCode()
}

// applyFlags overrides config values with the flags actually given
func applyFlags(cfg *config.Config, fs *flag.FlagSet, f checkFlags) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "threats":
			cfg.ThreatsPath = f.threats
		case "controls":
			cfg.ControlsPath = f.controls
		case "out":
			cfg.OutputDir = f.out
		case "gap-tolerance":
			cfg.GapTolerance = f.gapTolerance
		case "min-effectiveness":
			cfg.MinEffectiveness = f.minEffectiveness
		case "baseline":
			cfg.BaselinePath = f.baseline
		case "verbose":
			cfg.Verbose = f.verbose
		}
	})
}

// checkOnce runs one full pass and reports the worst finding
func checkOnce(cfg config.Config, logger *zap.Logger, stdout io.Writer, quiet bool) check.Outcome {
	run, err := check.Execute(cfg, logger)
	if err != nil {
		var schemaErr *catalog.SchemaError
		if errors.As(err, &schemaErr) {
			fmt.Fprintln(stdout, tui.RenderSchemaError(schemaErr))
		} else {
			fmt.Fprintf(stdout, "Error: %v\n", err)
		}
		outcome := check.OutcomeForError(err)
		logger.Error("check aborted", zap.Error(err), zap.Int("exit_code", outcome.ExitCode()))
		return outcome
	}

	if !quiet {
		fmt.Fprintln(stdout, tui.RenderSummary(run))
	}

	results, emitErr := report.NewEmitter(cfg.OutputDir).Emit(run)
	var paths, failures []string
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", r.Artifact, r.Err))
			continue
		}
		paths = append(paths, r.FilePath)
	}
	fmt.Fprint(stdout, tui.RenderArtifacts(paths, failures))

	if emitErr != nil {
		logger.Error("failed to write artifacts", zap.Error(emitErr))
		return check.OutcomeError
	}

	outcome := run.Outcome()
	logger.Info("check complete",
		zap.String("outcome", outcome.String()),
		zap.Int("exit_code", outcome.ExitCode()),
		zap.Int("artifacts", len(paths)))
	return outcome
}

// watchCatalogs re-runs the pass whenever either catalog changes until ctx is done.
// The directories are watched so that editors replacing the file are still seen.
func watchCatalogs(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout io.Writer, quiet bool) check.Outcome {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(stdout, "Error: failed to start watcher: %v\n", err)
		return check.OutcomeError
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	for _, p := range []string{cfg.ThreatsPath, cfg.ControlsPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			fmt.Fprintf(stdout, "Error: %v\n", err)
			return check.OutcomeError
		}
		targets[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			fmt.Fprintf(stdout, "Error: failed to watch %s: %v\n", filepath.Dir(abs), err)
			return check.OutcomeError
		}
	}

	outcome := checkOnce(cfg, logger, stdout, quiet)
	fmt.Fprintf(stdout, "\nWatching %s and %s for changes (Ctrl+C to stop)\n", cfg.ThreatsPath, cfg.ControlsPath)

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return outcome
		case ev, ok := <-watcher.Events:
			if !ok {
				return outcome
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !targets[abs] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("catalog changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			debounce.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return outcome
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-debounce.C:
			fmt.Fprintf(stdout, "\n--- re-running at %s ---\n\n", time.Now().Format(time.TimeOnly))
			outcome = checkOnce(cfg, logger, stdout, quiet)
		}
	}
}
