package formatters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescreen/internal/jd"
	"resumescreen/internal/types"
)

func ptr(f float64) *float64 { return &f }

func sampleDetail() types.ResumeDetail {
	return types.ResumeDetail{
		ResumeRecord: types.ResumeRecord{
			ID:            "Resume_A1B2",
			CandidateName: "Jane Doe",
			Status:        types.StatusProcessed,
			QualityScore:  ptr(0.74),
			FinalScore:    ptr(67.38),
			Decision:      types.DecisionShortlisted,
			SkillData: &types.SkillData{
				Matched:     []string{"kubernetes"},
				Missing:     []string{"rust"},
				AllJDSkills: []string{"kubernetes", "rust"},
			},
		},
		EngineScores: []types.EngineScore{
			{Engine: types.EngineSkillMatch, Score: 70.95},
			{Engine: types.EngineQualityGate, Score: 74},
		},
		Explanations: []types.Explanation{{Message: "Strong skill alignment"}},
	}
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewFormatterRegistry()
	profile := &jd.Profile{Hash: "abc", MandatorySkills: []string{"go"}}

	tests := []struct {
		name     string
		data     any
		format   string
		contains []string
	}{
		{"detail text", sampleDetail(), "text", []string{"=== SCREENING RESULT ===", "Jane Doe", "67.38", "Skill Match", "1. Strong skill alignment", "Missing: rust"}},
		{"detail markdown", sampleDetail(), "markdown", []string{"# Screening Result: Jane Doe", "| Decision | SHORTLISTED |", "- Strong skill alignment"}},
		{"batch text", types.BatchSummary{JDHash: "abc", Total: 1, Processed: 1, Results: []types.ResumeRecord{sampleDetail().ResumeRecord}}, "text", []string{"Total: 1  Processed: 1", "Resume_A1B2"}},
		{"batch markdown", types.BatchSummary{JDHash: "abc"}, "markdown", []string{"# Batch Summary", "**Total:** 0"}},
		{"profile text", profile, "text", []string{"Mandatory skills:   go", "Optional skills:    none", "not specified"}},
		{"profile markdown", &jd.Profile{Hash: "abc", ExperienceRange: &jd.ExperienceRange{Min: 3, Max: 6}}, "markdown", []string{"`abc`", "_None_", "3-6 years"}},
		{"empty list text", []types.ResumeRecord{}, "text", []string{"No resumes found."}},
		{"list markdown", []types.ResumeRecord{{ID: "Resume_X", Status: types.StatusError}}, "markdown", []string{"| Resume_X | - | ERROR | - | - | - |"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := registry.Format(tt.data, tt.format)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestJSONFallback(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleDetail(), "json")
	require.NoError(t, err)

	var decoded types.ResumeDetail
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Resume_A1B2", decoded.ID)
	assert.Len(t, decoded.EngineScores, 2)
}

func TestUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleDetail(), "xml")
	assert.Error(t, err)

	_, err = GlobalRegistry.Format(map[string]int{"a": 1}, "text")
	assert.ErrorContains(t, err, "no formatter found")
}

func TestFormatterTypeMismatch(t *testing.T) {
	_, err := (&DetailTextFormatter{}).Format(types.BatchSummary{})
	assert.ErrorContains(t, err, "expected ResumeDetail")

	var nilProfile *jd.Profile
	_, err = (&ProfileTextFormatter{}).Format(nilProfile)
	assert.Error(t, err)
}
