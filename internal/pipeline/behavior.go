package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"resumescreen/internal/errors"
	"resumescreen/internal/nlp"
)

// Inferred section labels.
const (
	SectionEducation  = "education"
	SectionExperience = "experience"
	SectionSkills     = "skills"
)

var (
	yearPattern            = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	experienceClaimPattern = regexp.MustCompile(`(\d+(\.\d+)?)\s*(\+)?\s*years?`)

	sectionEducationKeywords  = []string{"bachelor", "master", "b.tech", "m.tech", "degree", "university", "college", "education"}
	timelineEducationKeywords = []string{"b.tech", "bachelor", "degree", "university"}
)

// UnitBehavior describes how a unit reads: its verb and noun densities and the
// section it most resembles.
type UnitBehavior struct {
	VerbDensity     float64 `json:"verb_density"`
	NounDensity     float64 `json:"noun_density"`
	InferredSection string  `json:"inferred_section"`
}

// AnalyzeBehavior infers the section a unit behaves like.
func AnalyzeBehavior(u TextUnit) UnitBehavior {
	tokens := 0
	for _, t := range u.Tokens {
		if !t.IsSpace {
			tokens++
		}
	}
	s := nlp.Sentence{Tokens: u.Tokens}
	verbDensity := float64(s.Count(nlp.POSVerb)) / math.Max(float64(tokens), 1)
	nounDensity := float64(s.Count(nlp.POSNoun, nlp.POSPropn)) / math.Max(float64(tokens), 1)

	lower := strings.ToLower(u.Text)
	section := SectionSkills
	switch {
	case yearPattern.MatchString(lower) || containsAny(lower, sectionEducationKeywords):
		section = SectionEducation
	case verbDensity > 0.15:
		section = SectionExperience
	}

	return UnitBehavior{
		VerbDensity:     round2(verbDensity),
		NounDensity:     round2(nounDensity),
		InferredSection: section,
	}
}

// SectionBehaviorScore is one minus the share of units that read as bare skill
// lists, floored at zero.
func SectionBehaviorScore(units []TextUnit) (float64, error) {
	if len(units) == 0 {
		return 0, errors.NewPipelineError(errors.ErrCodeSectionBehavior, "No units available for section behavior analysis", nil)
	}

	mismatches, total := 0, 0
	for _, u := range units {
		if u.Kind != UnitSentence {
			continue
		}
		b := AnalyzeBehavior(u)
		if b.InferredSection == SectionSkills && b.VerbDensity < 0.05 {
			mismatches++
		}
		total++
	}

	score := round2(1 - float64(mismatches)/math.Max(float64(total), 1))
	return math.Max(score, 0), nil
}

// CheckTimeline looks for impossible dates and experience claims. It returns the
// timeline risk score (1 means no issues) and the issues found.
func CheckTimeline(units []TextUnit, currentYear int) (float64, []string, error) {
	if len(units) == 0 {
		return 0, nil, errors.NewPipelineError(errors.ErrCodeConsistency, "No units available for consistency checks", nil)
	}

	var eduYears []int
	var claims []float64
	for _, u := range units {
		lower := strings.ToLower(u.Text)
		if containsAny(lower, timelineEducationKeywords) {
			for _, y := range yearPattern.FindAllString(lower, -1) {
				n, _ := strconv.Atoi(y)
				eduYears = append(eduYears, n)
			}
		}
		claims = append(claims, experienceClaims(lower)...)
	}

	issues := []string{}
	for _, y := range eduYears {
		if y > currentYear {
			issues = append(issues, fmt.Sprintf("Future education year detected: %d", y))
		}
	}
	for _, c := range claims {
		if c > 40 {
			issues = append(issues, fmt.Sprintf("Unrealistic experience claim: %s years", formatYears(c)))
		}
	}
	if len(eduYears) > 0 && len(claims) > 0 {
		if float64(currentYear-minInt(eduYears)) < maxFloat(claims) {
			issues = append(issues, "Experience duration exceeds time since graduation")
		}
	}

	score := math.Max(round2(1-0.25*float64(len(issues))), 0)
	return score, issues, nil
}

// experienceClaims returns every "<n> years" figure in lowercase text.
func experienceClaims(lower string) []float64 {
	var out []float64
	for _, m := range experienceClaimPattern.FindAllStringSubmatch(lower, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func formatYears(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func minInt(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		m = min(m, x)
	}
	return m
}

func maxFloat(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = max(m, x)
	}
	return m
}
