// Package report serializes a completed check run into the CI artifacts
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ethanolivertroy/tmcheck/internal/check"
)

// Format is the encoding of an artifact
type Format int

const (
	FormatJSON Format = iota
	FormatMarkdown
	FormatCSV
	FormatPrometheus
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatMarkdown:
		return "Markdown"
	case FormatCSV:
		return "CSV"
	case FormatPrometheus:
		return "Prometheus"
	}
	return ""
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatPrometheus:
		return ".prom"
	}
	return ""
}

// Artifact is one of the fixed report files
type Artifact int

const (
	ArtifactValidation Artifact = iota
	ArtifactControlTests
	ArtifactExecutiveSummary
	ArtifactExecutiveMarkdown
	ArtifactTechnical
	ArtifactCompliance
	ArtifactMetrics
	ArtifactMetricsTextfile
	ArtifactRiskRegister
)

// Artifacts lists every artifact in emission order
var Artifacts = []Artifact{
	ArtifactValidation,
	ArtifactControlTests,
	ArtifactExecutiveSummary,
	ArtifactExecutiveMarkdown,
	ArtifactTechnical,
	ArtifactCompliance,
	ArtifactMetrics,
	ArtifactMetricsTextfile,
	ArtifactRiskRegister,
}

func (a Artifact) basename() string {
	switch a {
	case ArtifactValidation:
		return "validation-report"
	case ArtifactControlTests:
		return "control-test-results"
	case ArtifactExecutiveSummary, ArtifactExecutiveMarkdown:
		return "executive-summary"
	case ArtifactTechnical:
		return "technical-report"
	case ArtifactCompliance:
		return "compliance-report"
	case ArtifactMetrics, ArtifactMetricsTextfile:
		return "security-metrics"
	case ArtifactRiskRegister:
		return "risk-register"
	}
	return ""
}

// Format returns how the artifact is encoded
func (a Artifact) Format() Format {
	switch a {
	case ArtifactExecutiveMarkdown:
		return FormatMarkdown
	case ArtifactMetricsTextfile:
		return FormatPrometheus
	case ArtifactRiskRegister:
		return FormatCSV
	}
	return FormatJSON
}

// Filename is the fixed file name downstream automation looks for
func (a Artifact) Filename() string {
	return a.basename() + a.Format().Extension()
}

func (a Artifact) String() string {
	return a.Filename()
}

// Result is the outcome of writing one artifact
type Result struct {
	Artifact Artifact
	FilePath string
	Err      error
}

// Emitter writes artifacts into a directory. Now supplies the timestamp fields.
type Emitter struct {
	OutputDir string
	Now       func() time.Time
}

// NewEmitter creates an emitter using the wall clock
func NewEmitter(outputDir string) *Emitter {
	return &Emitter{OutputDir: outputDir, Now: time.Now}
}

func (e *Emitter) timestamp() string {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return now().UTC().Format(time.RFC3339)
}

// Emit writes every artifact. It only fails on I/O errors; FAILED or WEAK runs are
// reported, not refused. All artifacts are attempted even after a failure.
func (e *Emitter) Emit(run *check.Run) ([]Result, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ts := e.timestamp()
	results := make([]Result, 0, len(Artifacts))
	var errs []error
	for _, a := range Artifacts {
		r := e.write(run, a, ts)
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Filename(), r.Err))
		}
		results = append(results, r)
	}
	return results, errors.Join(errs...)
}

// Write emits a single artifact
func (e *Emitter) Write(run *check.Run, a Artifact) Result {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return Result{Artifact: a, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}
	return e.write(run, a, e.timestamp())
}

func (e *Emitter) write(run *check.Run, a Artifact, ts string) Result {
	path := filepath.Join(e.OutputDir, a.Filename())

	var err error
	switch a {
	case ArtifactValidation:
		err = writeJSON(path, BuildValidationReport(run, ts))
	case ArtifactControlTests:
		err = writeJSON(path, BuildControlTestResults(run, ts))
	case ArtifactExecutiveSummary:
		err = writeJSON(path, BuildExecutiveSummary(run, ts))
	case ArtifactExecutiveMarkdown:
		err = writeExecutiveMarkdown(path, run, ts)
	case ArtifactTechnical:
		err = writeJSON(path, BuildTechnicalReport(run, ts))
	case ArtifactCompliance:
		err = writeJSON(path, BuildComplianceReport(run))
	case ArtifactMetrics:
		err = writeJSON(path, BuildSecurityMetrics(run, ts))
	case ArtifactMetricsTextfile:
		err = writeMetricsTextfile(path, run)
	case ArtifactRiskRegister:
		err = writeRiskRegister(path, run)
	default:
		err = fmt.Errorf("unknown artifact %d", a)
	}

	if err != nil {
		return Result{Artifact: a, Err: err}
	}
	return Result{Artifact: a, FilePath: path}
}

func writeJSON(path string, v any) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(file, &err)

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// closeFile surfaces the close error of a written artifact unless an earlier error is pending
func closeFile(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close artifact: %w", cerr)
	}
}

// strs keeps empty lists as [] in JSON output
func strs(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
