package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvThreats, EnvControls, EnvOutputDir, EnvGapTolerance, EnvMinEffectiveness, EnvConfig, EnvBaseline, EnvTheme} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0, cfg.GapTolerance)
	assert.Equal(t, 5.0, cfg.MinEffectiveness)
	assert.Equal(t, 0.6, cfg.Probabilities[model.LevelHigh])
	assert.Equal(t, 0.35, cfg.Probabilities[model.LevelMedium])
	assert.Equal(t, 0.15, cfg.Probabilities[model.LevelLow])
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "tmcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`threats: tm/threats.yaml
gap_tolerance: 2
min_effectiveness: 6
theme: nord
probabilities:
  high: 0.7
`), 0644))

	t.Setenv(EnvGapTolerance, "3")
	t.Setenv(EnvOutputDir, "out")
	t.Setenv(EnvTheme, "dracula")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tm/threats.yaml", cfg.ThreatsPath)
	assert.Equal(t, "threat-model/controls.yaml", cfg.ControlsPath)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 3, cfg.GapTolerance, "environment overrides the config file")
	assert.Equal(t, 6.0, cfg.MinEffectiveness)
	assert.Equal(t, "dracula", cfg.Theme)
	assert.Equal(t, 0.7, cfg.Probabilities[model.LevelHigh])
	assert.Equal(t, 0.35, cfg.Probabilities[model.LevelMedium])
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "tmcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: artifacts\n"), 0644))
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "artifacts", cfg.OutputDir)
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvMinEffectiveness)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TMCHECK_MIN_EFFECTIVENESS=7.5\n"), 0644))
	t.Cleanup(func() { os.Unsetenv(EnvMinEffectiveness) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7.5, cfg.MinEffectiveness)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{"bad env int", "", map[string]string{EnvGapTolerance: "many"}, "invalid TMCHECK_GAP_TOLERANCE"},
		{"bad env float", "", map[string]string{EnvMinEffectiveness: "high"}, "invalid TMCHECK_MIN_EFFECTIVENESS"},
		{"bad yaml", "gap_tolerance: [1\n", nil, "failed to parse config file"},
		{"bad probability level", "probabilities:\n  extreme: 0.9\n", nil, "unknown level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), "tmcheck.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0644))
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no threats", func(c *Config) { c.ThreatsPath = "" }, "threats file path is required"},
		{"no controls", func(c *Config) { c.ControlsPath = "" }, "controls file path is required"},
		{"no output", func(c *Config) { c.OutputDir = "" }, "output directory is required"},
		{"negative tolerance", func(c *Config) { c.GapTolerance = -1 }, "gap tolerance must not be negative"},
		{"effectiveness too high", func(c *Config) { c.MinEffectiveness = 11 }, "minimum effectiveness must be between 0 and 10"},
		{"probability out of range", func(c *Config) { c.Probabilities[model.LevelLow] = 1.5 }, "probability for Low"},
		{"probability not a number", func(c *Config) { c.Probabilities[model.LevelHigh] = math.NaN() }, "probability for High"},
		{"probability infinite", func(c *Config) { c.Probabilities[model.LevelMedium] = math.Inf(1) }, "probability for Medium"},
		{"effectiveness not a number", func(c *Config) { c.MinEffectiveness = math.NaN() }, "minimum effectiveness must be between 0 and 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadNonFiniteProbability(t *testing.T) {
	for _, v := range []string{".nan", ".inf"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())

			path := filepath.Join(t.TempDir(), "tmcheck.yaml")
			require.NoError(t, os.WriteFile(path, []byte("probabilities:\n  high: "+v+"\n"), 0644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.ErrorContains(t, cfg.Validate(), "probability for High")
		})
	}
}
