// Package config holds the settings for a check run
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/ethanolivertroy/tmcheck/internal/score"
	"github.com/ethanolivertroy/tmcheck/internal/validate"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load
const (
	EnvThreats          = "TMCHECK_THREATS"
	EnvControls         = "TMCHECK_CONTROLS"
	EnvOutputDir        = "TMCHECK_OUTPUT_DIR"
	EnvGapTolerance     = "TMCHECK_GAP_TOLERANCE"
	EnvMinEffectiveness = "TMCHECK_MIN_EFFECTIVENESS"
	EnvConfig           = "TMCHECK_CONFIG"
	EnvBaseline         = "TMCHECK_BASELINE"
	EnvTheme            = "TMCHECK_THEME"
)

// Config holds the settings for one check run
type Config struct {
	ThreatsPath      string
	ControlsPath     string
	OutputDir        string
	GapTolerance     int
	MinEffectiveness float64
	Probabilities    map[model.Level]float64 // annual likelihood proxies from the business documentation
	BaselinePath     string                  // previous security-metrics.json for the trend
	Theme            string                  // browser color theme
	Verbose          bool
}

// fileConfig is the YAML shape of tmcheck.yaml
type fileConfig struct {
	Threats          string             `yaml:"threats"`
	Controls         string             `yaml:"controls"`
	OutputDir        string             `yaml:"output_dir"`
	GapTolerance     *int               `yaml:"gap_tolerance"`
	MinEffectiveness *float64           `yaml:"min_effectiveness"`
	Baseline         string             `yaml:"baseline"`
	Theme            string             `yaml:"theme"`
	Probabilities    map[string]float64 `yaml:"probabilities"`
}

// Default returns the built-in settings
func Default() Config {
	probs := make(map[model.Level]float64, len(score.DefaultProbabilities))
	for l, p := range score.DefaultProbabilities {
		probs[l] = p
	}
	return Config{
		ThreatsPath:      "threat-model/threats.yaml",
		ControlsPath:     "threat-model/controls.yaml",
		OutputDir:        "reports",
		GapTolerance:     validate.DefaultGapTolerance,
		MinEffectiveness: score.DefaultMinEffectiveness,
		Probabilities:    probs,
	}
}

// Load layers the config file, a .env file and TMCHECK_* variables over the defaults.
// configPath may be empty, in which case TMCHECK_CONFIG is consulted.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if err := loadDotenv(".env"); err != nil {
		return cfg, err
	}

	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	if configPath != "" {
		if err := cfg.applyFile(configPath); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotenv loads a .env file when present. Variables already set win.
func loadDotenv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Threats != "" {
		c.ThreatsPath = fc.Threats
	}
	if fc.Controls != "" {
		c.ControlsPath = fc.Controls
	}
	if fc.OutputDir != "" {
		c.OutputDir = fc.OutputDir
	}
	if fc.Baseline != "" {
		c.BaselinePath = fc.Baseline
	}
	if fc.Theme != "" {
		c.Theme = fc.Theme
	}
	if fc.GapTolerance != nil {
		c.GapTolerance = *fc.GapTolerance
	}
	if fc.MinEffectiveness != nil {
		c.MinEffectiveness = *fc.MinEffectiveness
	}
	for name, p := range fc.Probabilities {
		level, err := model.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("config file %s: probabilities: %w", path, err)
		}
		c.Probabilities[level] = p
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvThreats); v != "" {
		c.ThreatsPath = v
	}
	if v := os.Getenv(EnvControls); v != "" {
		c.ControlsPath = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvBaseline); v != "" {
		c.BaselinePath = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGapTolerance)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvGapTolerance, v, err)
		}
		c.GapTolerance = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvMinEffectiveness)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMinEffectiveness, v, err)
		}
		c.MinEffectiveness = f
	}
	return nil
}

// Validate checks that the settings can drive a run
func (c Config) Validate() error {
	if c.ThreatsPath == "" {
		return fmt.Errorf("threats file path is required")
	}
	if c.ControlsPath == "" {
		return fmt.Errorf("controls file path is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.GapTolerance < 0 {
		return fmt.Errorf("gap tolerance must not be negative (got %d)", c.GapTolerance)
	}
	if !(c.MinEffectiveness >= 0 && c.MinEffectiveness <= 10) {
		return fmt.Errorf("minimum effectiveness must be between 0 and 10 (got %g)", c.MinEffectiveness)
	}
	for _, l := range model.Levels {
		p := c.Probabilities[l]
		if !(p >= 0 && p <= 1) {
			return fmt.Errorf("probability for %s must be between 0 and 1 (got %g)", l, p)
		}
	}
	return nil
}
