package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validThreats = `threats:
  - id: ML-001
    name: Training Data Poisoning
    category: Data Integrity
    stride_category: Tampering
    likelihood: Medium
    impact: High
    risk_score: 6
    business_impact: "$10M+ fraud losses"
    attack_scenarios:
      - Insert mislabelled transactions
      - Corrupt feature store
    detection_methods: [Statistical drift monitoring]
    recommended_controls: [SC-001]
    owner: fraud-team
  - id: ML-002
    name: Model Extraction
    stride_category: Information Disclosure
    likelihood: Low
    impact: Medium
    business_impact: "$500K"
`

const validControls = `security_controls:
  - id: SC-001
    name: Data Validation Pipeline
    category: Preventive
    threats_addressed: [ML-001]
    implementation_status: Implemented
    technical_details: [Schema checks, Outlier detection]
    effectiveness_score: 8
    maintenance_overhead: Medium
  - id: SC-002
    name: API Rate Limiting
    category: Detective
    threats_addressed: [ML-002]
    implementation_status: Planned
    technical_details: [Token bucket per client]
    effectiveness_score: 6.5
compliance_mapping:
  PCI DSS:
    requirements: [Req 6.5, Req 10.2]
    controls: [SC-001]
  GDPR:
    requirements: [Art 32]
    applicable_controls: [SC-002]
`

func TestParseValid(t *testing.T) {
	cat, err := Parse([]byte(validThreats), []byte(validControls))
	require.NoError(t, err)

	require.Len(t, cat.Threats, 2)
	require.Len(t, cat.Controls, 2)
	require.Len(t, cat.Mappings, 2)

	t1 := cat.Threats[0]
	assert.Equal(t, "ML-001", t1.ID)
	assert.Equal(t, model.StrideTampering, t1.Stride)
	assert.Equal(t, model.LevelMedium, t1.Likelihood)
	assert.Equal(t, model.LevelHigh, t1.Impact)
	assert.Equal(t, 6.0, t1.RiskScore)
	assert.True(t, t1.RiskDeclared)
	assert.Equal(t, []string{"Insert mislabelled transactions", "Corrupt feature store"}, t1.AttackScenarios)
	assert.Equal(t, "fraud-team", t1.Extra["owner"])

	t2 := cat.Threats[1]
	assert.False(t, t2.RiskDeclared)
	assert.Equal(t, 2.0, t2.RiskScore, "absent risk_score falls back to the matrix")

	c2 := cat.Controls[1]
	assert.Equal(t, model.CategoryDetective, c2.Category)
	assert.Equal(t, model.StatusPlanned, c2.Status)
	assert.Equal(t, 6.5, c2.Effectiveness)

	mappings := cat.SortedMappings()
	assert.Equal(t, "GDPR", mappings[0].Regulation)
	assert.Equal(t, []string{"SC-002"}, mappings[0].Controls)
	assert.Equal(t, "PCI DSS", mappings[1].Regulation)
	assert.Equal(t, []string{"Req 6.5", "Req 10.2"}, mappings[1].Requirements)
}

func TestParseMappingList(t *testing.T) {
	controls := `security_controls: []
compliance_mapping:
  - regulation: SOX
    requirements: [Section 404]
    controls: [SC-010]
`
	cat, err := Parse([]byte("threats: []\n"), []byte(controls))
	require.NoError(t, err)
	require.Len(t, cat.Mappings, 1)
	assert.Equal(t, "SOX", cat.Mappings[0].Regulation)
	assert.Equal(t, []string{"SC-010"}, cat.Mappings[0].Controls)
}

func TestParseSchemaErrors(t *testing.T) {
	tests := []struct {
		name     string
		threats  string
		controls string
		want     []string
	}{
		{
			name: "missing required threat field",
			threats: `threats:
  - id: ML-001
    name: Poisoning
    likelihood: High
    business_impact: "$1M"
`,
			controls: "security_controls: []\n",
			want:     []string{"ML-001: impact is required"},
		},
		{
			name: "unknown enum value",
			threats: `threats:
  - id: ML-001
    name: Poisoning
    likelihood: Extreme
    impact: High
    business_impact: "$1M"
`,
			controls: "security_controls: []\n",
			want:     []string{"ML-001: likelihood unknown level"},
		},
		{
			name: "wrong yaml type",
			threats: `threats:
  - id: ML-001
    name: Poisoning
    likelihood: High
    impact: High
    risk_score: very-high
    business_impact: "$1M"
`,
			controls: "security_controls: []\n",
			want:     []string{"ML-001", "cannot unmarshal"},
		},
		{
			name: "duplicate threat id",
			threats: `threats:
  - id: ML-001
    name: A
    likelihood: High
    impact: High
    business_impact: "$1M"
  - id: ML-001
    name: B
    likelihood: Low
    impact: Low
    business_impact: "$1K"
`,
			controls: "security_controls: []\n",
			want:     []string{"threats:7: ML-001: id duplicates the threat defined at line 2"},
		},
		{
			name:    "duplicate control id",
			threats: "threats: []\n",
			controls: `security_controls:
  - id: SC-001
    name: A
    category: Preventive
    threats_addressed: []
    implementation_status: Implemented
    effectiveness_score: 5
  - id: SC-001
    name: B
    category: Preventive
    threats_addressed: []
    implementation_status: Planned
    effectiveness_score: 5
`,
			want: []string{"SC-001: id duplicates the control"},
		},
		{
			name:    "missing control fields",
			threats: "threats: []\n",
			controls: `security_controls:
  - id: SC-001
    name: A
    category: Preventive
    implementation_status: Implemented
`,
			want: []string{"SC-001: threats_addressed is required", "SC-001: effectiveness_score is required"},
		},
		{
			name:     "missing root keys",
			threats:  "items: []\n",
			controls: "controls: []\n",
			want:     []string{"threats: document: threats is missing", "controls: document: security_controls is missing"},
		},
		{
			name:    "mapping without controls",
			threats: "threats: []\n",
			controls: `security_controls: []
compliance_mapping:
  HIPAA:
    requirements: [164.312]
`,
			want: []string{"HIPAA: controls is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Parse([]byte(tt.threats), []byte(tt.controls))
			assert.Nil(t, cat)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected *SchemaError, got %v", err)

			all := strings.Join(schemaErr.Lines(), "\n")
			for _, want := range tt.want {
				assert.Contains(t, all, want)
			}
		})
	}
}

func TestParseScoreValues(t *testing.T) {
	threat := func(risk string) string {
		return `threats:
  - id: ML-001
    name: Poisoning
    likelihood: High
    impact: High
    risk_score: ` + risk + `
    business_impact: "$1M"
`
	}
	control := func(effectiveness string) string {
		return `security_controls:
  - id: SC-001
    name: Validation
    category: Preventive
    threats_addressed: [ML-001]
    implementation_status: Implemented
    technical_details: [Schema checks]
    effectiveness_score: ` + effectiveness + `
`
	}

	tests := []struct {
		name          string
		risk          string
		effectiveness string
		wantProblem   string
	}{
		{"risk nan", ".nan", "8", "ML-001: risk_score must be a finite number"},
		{"risk inf", ".inf", "8", "ML-001: risk_score must be a finite number"},
		{"risk negative inf", "-.inf", "8", "ML-001: risk_score must be a finite number"},
		{"effectiveness nan", "9", ".nan", "SC-001: effectiveness_score must be a finite number"},
		{"effectiveness inf", "9", ".Inf", "SC-001: effectiveness_score must be a finite number"},
		{"lower bounds", "0", "0", ""},
		{"upper bounds", "10", "10", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Parse([]byte(threat(tt.risk)), []byte(control(tt.effectiveness)))
			if tt.wantProblem == "" {
				require.NoError(t, err)
				require.Len(t, cat.Threats, 1)
				require.Len(t, cat.Controls, 1)
				return
			}

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, strings.Join(schemaErr.Lines(), "\n"), tt.wantProblem)
		})
	}
}

func TestParseCollectsEveryProblem(t *testing.T) {
	threats := `threats:
  - id: ML-001
    name: A
    likelihood: High
  - name: B
    likelihood: Low
    impact: Low
    business_impact: "$1K"
`
	_, err := Parse([]byte(threats), []byte("security_controls: []\n"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Len(t, schemaErr.Problems, 3)
	assert.Contains(t, err.Error(), "(and 2 more)")
	assert.Equal(t, "threats[1]", schemaErr.Problems[2].Record)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	threatsPath := filepath.Join(dir, "threats.yaml")
	controlsPath := filepath.Join(dir, "controls.yaml")
	require.NoError(t, os.WriteFile(threatsPath, []byte(validThreats), 0644))
	require.NoError(t, os.WriteFile(controlsPath, []byte(validControls), 0644))

	cat, err := LoadFiles(threatsPath, controlsPath)
	require.NoError(t, err)
	assert.Len(t, cat.Threats, 2)

	_, err = LoadFiles(filepath.Join(dir, "missing.yaml"), controlsPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read threats file")

	var schemaErr *SchemaError
	assert.False(t, errors.As(err, &schemaErr))
}
