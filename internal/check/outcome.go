package check

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ethanolivertroy/tmcheck/internal/catalog"
)

// Outcome is the worst finding of a run, ordered by severity
type Outcome int

const (
	OutcomeClean Outcome = iota
	OutcomeWeak
	OutcomeFailed
	OutcomeSchemaError
	OutcomeError
)

// ExitCode is the process exit status reported to the CI caller
func (o Outcome) ExitCode() int {
	return int(o)
}

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeWeak:
		return "WEAK posture"
	case OutcomeFailed:
		return "FAILED validation"
	case OutcomeSchemaError:
		return "schema error"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// OutcomeForError classifies an error returned before a run completed
func OutcomeForError(err error) Outcome {
	if err == nil {
		return OutcomeClean
	}
	var schemaErr *catalog.SchemaError
	if errors.As(err, &schemaErr) {
		return OutcomeSchemaError
	}
	return OutcomeError
}

// Trend compares the overall score with a previous run
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendUnknown   Trend = "unknown"
)

// TrendFrom compares two overall scores at the two-decimal precision they are reported with
func TrendFrom(previous, current float64) Trend {
	diff := math.Round((current-previous)*100) / 100
	switch {
	case diff > 0:
		return TrendImproving
	case diff < 0:
		return TrendDeclining
	}
	return TrendStable
}

// LoadBaseline reads security_score.overall from a previous security-metrics.json
func LoadBaseline(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var metrics struct {
		SecurityScore *struct {
			Overall *float64 `json:"overall"`
		} `json:"security_score"`
	}
	if err := json.Unmarshal(data, &metrics); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if metrics.SecurityScore == nil || metrics.SecurityScore.Overall == nil {
		return 0, fmt.Errorf("%s has no security_score.overall", path)
	}
	return *metrics.SecurityScore.Overall, nil
}
