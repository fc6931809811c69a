// Package check runs the load, validate and score stages and decides the CI outcome
package check

import (
	"errors"
	"fmt"

	"github.com/ethanolivertroy/tmcheck/internal/catalog"
	"github.com/ethanolivertroy/tmcheck/internal/config"
	"github.com/ethanolivertroy/tmcheck/internal/grc"
	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/ethanolivertroy/tmcheck/internal/score"
	"github.com/ethanolivertroy/tmcheck/internal/validate"
	"go.uber.org/zap"
)

// Run is the state of a single pass. Each stage only reads what earlier stages produced.
type Run struct {
	Catalog    *model.Catalog
	Validation model.ValidationReport
	Posture    model.PostureResult
	Compliance []grc.RegulationResult
	Trend      Trend
	Baseline   *float64 // previous overall score, nil without a baseline
	Settings   Settings
}

// Settings records the thresholds a run was evaluated with
type Settings struct {
	GapTolerance     int
	MinEffectiveness float64
	Probabilities    map[model.Level]float64
}

// Execute loads both catalogs from disk and evaluates them
func Execute(cfg config.Config, logger *zap.Logger) (*Run, error) {
	logger.Debug("loading catalogs",
		zap.String("threats", cfg.ThreatsPath),
		zap.String("controls", cfg.ControlsPath))

	cat, err := catalog.LoadFiles(cfg.ThreatsPath, cfg.ControlsPath)
	if err != nil {
		var schemaErr *catalog.SchemaError
		if errors.As(err, &schemaErr) {
			for _, p := range schemaErr.Problems {
				logger.Error("schema problem",
					zap.String("source", p.Source),
					zap.Int("line", p.Line),
					zap.String("record", p.Record),
					zap.String("field", p.Field),
					zap.String("problem", p.Problem))
			}
		}
		return nil, err
	}

	run := Evaluate(cat, cfg, logger)

	if cfg.BaselinePath != "" {
		prev, err := LoadBaseline(cfg.BaselinePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load baseline: %w", err)
		}
		run.Baseline = &prev
		run.Trend = TrendFrom(prev, run.Posture.Score)
		logger.Debug("compared with baseline",
			zap.Float64("previous", prev),
			zap.String("trend", string(run.Trend)))
	}
	return run, nil
}

// Evaluate runs validation, scoring and compliance over an already loaded catalog
func Evaluate(cat *model.Catalog, cfg config.Config, logger *zap.Logger) *Run {
	run := &Run{
		Catalog: cat,
		Trend:   TrendUnknown,
		Settings: Settings{
			GapTolerance:     cfg.GapTolerance,
			MinEffectiveness: cfg.MinEffectiveness,
			Probabilities:    cfg.Probabilities,
		},
	}
	logger.Info("catalogs loaded",
		zap.Int("threats", len(cat.Threats)),
		zap.Int("controls", len(cat.Controls)),
		zap.Int("regulations", len(cat.Mappings)))

	run.Validation = validate.New(cfg.GapTolerance).Validate(cat)
	for _, g := range run.Validation.Gaps {
		logger.Warn("gap",
			zap.String("kind", string(g.Kind)),
			zap.String("subject", g.Subject),
			zap.String("message", g.Message))
	}
	for _, e := range run.Validation.ErrorStrings() {
		logger.Error("record error", zap.String("error", e))
	}
	logger.Info("validation complete",
		zap.String("status", string(run.Validation.Status)),
		zap.Int("gaps", len(run.Validation.Gaps)),
		zap.Int("errors", len(run.Validation.Errors)),
		zap.Int("gap_tolerance", cfg.GapTolerance))

	run.Posture = score.New(cfg.MinEffectiveness, cfg.Probabilities).Score(cat)
	for _, t := range run.Posture.Controls {
		if !t.Passed {
			logger.Warn("control test failed", zap.String("control", t.ID), zap.String("reason", t.Reason))
		}
	}
	logger.Info("scoring complete",
		zap.Float64("score", run.Posture.Score),
		zap.String("posture", string(run.Posture.Posture)),
		zap.Float64("annual_exposure", run.Posture.TotalExposure))

	run.Compliance = grc.NewMapper(cat).EvaluateAll()

	return run
}

// Outcome returns the worst finding of the run
func (r *Run) Outcome() Outcome {
	switch {
	case r.Validation.Status == model.ValidationFailed:
		return OutcomeFailed
	case r.Posture.Posture == model.PostureWeak:
		return OutcomeWeak
	}
	return OutcomeClean
}
