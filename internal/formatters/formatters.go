package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumescreen/internal/jd"
	"resumescreen/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ResumeDetail", &DetailTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeDetail", &DetailMarkdownFormatter{})
	registry.RegisterFormatter("text", "BatchSummary", &BatchTextFormatter{})
	registry.RegisterFormatter("markdown", "BatchSummary", &BatchMarkdownFormatter{})
	registry.RegisterFormatter("text", "Profile", &ProfileTextFormatter{})
	registry.RegisterFormatter("markdown", "Profile", &ProfileMarkdownFormatter{})
	registry.RegisterFormatter("text", "RecordList", &RecordListTextFormatter{})
	registry.RegisterFormatter("markdown", "RecordList", &RecordListMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ResumeDetail:
		return "ResumeDetail"
	case types.BatchSummary:
		return "BatchSummary"
	case *jd.Profile:
		return "Profile"
	case []types.ResumeRecord:
		return "RecordList"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *score)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// DetailTextFormatter handles text formatting for a single screened resume
type DetailTextFormatter struct{}

func (dtf *DetailTextFormatter) Format(data any) (string, error) {
	detail, ok := data.(types.ResumeDetail)
	if !ok {
		return "", fmt.Errorf("expected ResumeDetail, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SCREENING RESULT ===\n\n")
	fmt.Fprintf(&output, "Resume ID:     %s\n", detail.ID)
	fmt.Fprintf(&output, "Candidate:     %s\n", orDash(detail.CandidateName))
	fmt.Fprintf(&output, "Status:        %s\n", detail.Status)
	fmt.Fprintf(&output, "Decision:      %s\n", orDash(detail.Decision))
	fmt.Fprintf(&output, "Quality Score: %s\n", formatScore(detail.QualityScore))
	fmt.Fprintf(&output, "Final Score:   %s\n", formatScore(detail.FinalScore))
	if detail.ErrorMessage != "" {
		fmt.Fprintf(&output, "Error:         %s\n", detail.ErrorMessage)
	}

	if len(detail.EngineScores) > 0 {
		output.WriteString("\n=== ENGINE SCORES ===\n")
		for _, s := range detail.EngineScores {
			fmt.Fprintf(&output, "%-15s %6.2f\n", s.Engine, s.Score)
		}
	}

	if detail.SkillData != nil {
		output.WriteString("\n=== SKILLS ===\n")
		fmt.Fprintf(&output, "Matched: %s\n", joinOrNone(detail.SkillData.Matched))
		fmt.Fprintf(&output, "Missing: %s\n", joinOrNone(detail.SkillData.Missing))
	}

	if len(detail.Explanations) > 0 {
		output.WriteString("\n=== EXPLANATIONS ===\n")
		for i, e := range detail.Explanations {
			fmt.Fprintf(&output, "%d. %s\n", i+1, e.Message)
		}
	}

	return output.String(), nil
}

func (dtf *DetailTextFormatter) SupportedType() string {
	return "ResumeDetail"
}

// DetailMarkdownFormatter handles markdown formatting for a single screened resume
type DetailMarkdownFormatter struct{}

func (dmf *DetailMarkdownFormatter) Format(data any) (string, error) {
	detail, ok := data.(types.ResumeDetail)
	if !ok {
		return "", fmt.Errorf("expected ResumeDetail, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "# Screening Result: %s\n\n", orDash(detail.CandidateName))
	output.WriteString("| Field | Value |\n|-------|-------|\n")
	fmt.Fprintf(&output, "| Resume ID | %s |\n", detail.ID)
	fmt.Fprintf(&output, "| Status | %s |\n", detail.Status)
	fmt.Fprintf(&output, "| Decision | %s |\n", orDash(detail.Decision))
	fmt.Fprintf(&output, "| Quality Score | %s |\n", formatScore(detail.QualityScore))
	fmt.Fprintf(&output, "| Final Score | %s |\n", formatScore(detail.FinalScore))
	if detail.ErrorMessage != "" {
		fmt.Fprintf(&output, "| Error | %s |\n", detail.ErrorMessage)
	}
	output.WriteString("\n")

	if len(detail.EngineScores) > 0 {
		output.WriteString("## Engine Scores\n\n| Engine | Score |\n|--------|-------|\n")
		for _, s := range detail.EngineScores {
			fmt.Fprintf(&output, "| %s | %.2f |\n", s.Engine, s.Score)
		}
		output.WriteString("\n")
	}

	if detail.SkillData != nil {
		output.WriteString("## Skills\n\n")
		fmt.Fprintf(&output, "**Matched:** %s\n\n", joinOrNone(detail.SkillData.Matched))
		fmt.Fprintf(&output, "**Missing:** %s\n\n", joinOrNone(detail.SkillData.Missing))
	}

	if len(detail.Explanations) > 0 {
		output.WriteString("## Explanations\n\n")
		for _, e := range detail.Explanations {
			fmt.Fprintf(&output, "- %s\n", e.Message)
		}
	}

	return output.String(), nil
}

func (dmf *DetailMarkdownFormatter) SupportedType() string {
	return "ResumeDetail"
}

// BatchTextFormatter handles text formatting for batch runs
type BatchTextFormatter struct{}

func (btf *BatchTextFormatter) Format(data any) (string, error) {
	summary, ok := data.(types.BatchSummary)
	if !ok {
		return "", fmt.Errorf("expected BatchSummary, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== BATCH SUMMARY ===\n\n")
	fmt.Fprintf(&output, "Job description: %s\n", summary.JDHash)
	fmt.Fprintf(&output, "Total: %d  Processed: %d  Invalid: %d  Errors: %d\n",
		summary.Total, summary.Processed, summary.Invalid, summary.Errors)

	if len(summary.Results) > 0 {
		output.WriteString("\n")
		output.WriteString(recordTable(summary.Results))
	}

	return output.String(), nil
}

func (btf *BatchTextFormatter) SupportedType() string {
	return "BatchSummary"
}

// BatchMarkdownFormatter handles markdown formatting for batch runs
type BatchMarkdownFormatter struct{}

func (bmf *BatchMarkdownFormatter) Format(data any) (string, error) {
	summary, ok := data.(types.BatchSummary)
	if !ok {
		return "", fmt.Errorf("expected BatchSummary, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Batch Summary\n\n")
	fmt.Fprintf(&output, "- **Job description:** `%s`\n", summary.JDHash)
	fmt.Fprintf(&output, "- **Total:** %d\n", summary.Total)
	fmt.Fprintf(&output, "- **Processed:** %d\n", summary.Processed)
	fmt.Fprintf(&output, "- **Invalid:** %d\n", summary.Invalid)
	fmt.Fprintf(&output, "- **Errors:** %d\n\n", summary.Errors)

	if len(summary.Results) > 0 {
		output.WriteString(recordMarkdownTable(summary.Results))
	}

	return output.String(), nil
}

func (bmf *BatchMarkdownFormatter) SupportedType() string {
	return "BatchSummary"
}

// ProfileTextFormatter handles text formatting for analysed job descriptions
type ProfileTextFormatter struct{}

func (ptf *ProfileTextFormatter) Format(data any) (string, error) {
	profile, ok := data.(*jd.Profile)
	if !ok || profile == nil {
		return "", fmt.Errorf("expected *jd.Profile, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== JOB DESCRIPTION PROFILE ===\n\n")
	fmt.Fprintf(&output, "Hash:               %s\n", profile.Hash)
	fmt.Fprintf(&output, "Mandatory skills:   %s\n", joinOrNone(profile.MandatorySkills))
	fmt.Fprintf(&output, "Optional skills:    %s\n", joinOrNone(profile.OptionalSkills))
	fmt.Fprintf(&output, "Experience range:   %s\n", experienceRange(profile.ExperienceRange))
	fmt.Fprintf(&output, "Education required: %t\n", profile.EducationRequired)

	return output.String(), nil
}

func (ptf *ProfileTextFormatter) SupportedType() string {
	return "Profile"
}

// ProfileMarkdownFormatter handles markdown formatting for analysed job descriptions
type ProfileMarkdownFormatter struct{}

func (pmf *ProfileMarkdownFormatter) Format(data any) (string, error) {
	profile, ok := data.(*jd.Profile)
	if !ok || profile == nil {
		return "", fmt.Errorf("expected *jd.Profile, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Description Profile\n\n")
	fmt.Fprintf(&output, "**Hash:** `%s`\n\n", profile.Hash)
	output.WriteString("## Mandatory Skills\n\n")
	writeMarkdownList(&output, profile.MandatorySkills)
	output.WriteString("## Optional Skills\n\n")
	writeMarkdownList(&output, profile.OptionalSkills)
	output.WriteString("## Requirements\n\n")
	fmt.Fprintf(&output, "- **Experience:** %s\n", experienceRange(profile.ExperienceRange))
	fmt.Fprintf(&output, "- **Education required:** %t\n", profile.EducationRequired)

	return output.String(), nil
}

func (pmf *ProfileMarkdownFormatter) SupportedType() string {
	return "Profile"
}

// RecordListTextFormatter handles text formatting for stored resume listings
type RecordListTextFormatter struct{}

func (rtf *RecordListTextFormatter) Format(data any) (string, error) {
	records, ok := data.([]types.ResumeRecord)
	if !ok {
		return "", fmt.Errorf("expected []types.ResumeRecord, got %T", data)
	}
	if len(records) == 0 {
		return "No resumes found.\n", nil
	}
	return recordTable(records), nil
}

func (rtf *RecordListTextFormatter) SupportedType() string {
	return "RecordList"
}

// RecordListMarkdownFormatter handles markdown formatting for stored resume listings
type RecordListMarkdownFormatter struct{}

func (rmf *RecordListMarkdownFormatter) Format(data any) (string, error) {
	records, ok := data.([]types.ResumeRecord)
	if !ok {
		return "", fmt.Errorf("expected []types.ResumeRecord, got %T", data)
	}
	if len(records) == 0 {
		return "_No resumes found._\n", nil
	}
	return recordMarkdownTable(records), nil
}

func (rmf *RecordListMarkdownFormatter) SupportedType() string {
	return "RecordList"
}

func recordTable(records []types.ResumeRecord) string {
	var output strings.Builder
	fmt.Fprintf(&output, "%-12s %-24s %-15s %-12s %8s %8s\n",
		"ID", "CANDIDATE", "STATUS", "DECISION", "QUALITY", "FINAL")
	for _, r := range records {
		fmt.Fprintf(&output, "%-12s %-24s %-15s %-12s %8s %8s\n",
			r.ID, orDash(r.CandidateName), r.Status, orDash(r.Decision),
			formatScore(r.QualityScore), formatScore(r.FinalScore))
	}
	return output.String()
}

func recordMarkdownTable(records []types.ResumeRecord) string {
	var output strings.Builder
	output.WriteString("| ID | Candidate | Status | Decision | Quality | Final |\n")
	output.WriteString("|----|-----------|--------|----------|---------|-------|\n")
	for _, r := range records {
		fmt.Fprintf(&output, "| %s | %s | %s | %s | %s | %s |\n",
			r.ID, orDash(r.CandidateName), r.Status, orDash(r.Decision),
			formatScore(r.QualityScore), formatScore(r.FinalScore))
	}
	return output.String()
}

func writeMarkdownList(output *strings.Builder, items []string) {
	if len(items) == 0 {
		output.WriteString("_None_\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

func experienceRange(r *jd.ExperienceRange) string {
	if r == nil {
		return "not specified"
	}
	return fmt.Sprintf("%d-%d years", r.Min, r.Max)
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
