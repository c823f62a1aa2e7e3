package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"resumescreen/internal/errors"
	"resumescreen/internal/nlp"
)

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern      = regexp.MustCompile(`(\+?\d{1,3}[\s-]?)?\d{10}`)
	recentYearPattern = regexp.MustCompile(`\b(20\d{2})\b`)
)

// ExtractEntities collects contact details from the unit text and PERSON, ORG
// and DATE spans from the parse, and estimates years of experience.
func ExtractEntities(doc *nlp.Document, units []TextUnit) (Entities, float64, error) {
	if len(units) == 0 {
		return Entities{}, 0, errors.NewPipelineError(errors.ErrCodeNER, "No units available for NER", nil)
	}

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	full := strings.Join(texts, " ")

	ents := Entities{
		Emails: unique(emailPattern.FindAllString(full, -1)),
		Phones: unique(phonePattern.FindAllString(full, -1)),
	}
	if doc != nil {
		ents.Names = unique(doc.EntitiesByLabel(nlp.LabelPerson))
		ents.Organizations = unique(doc.EntitiesByLabel(nlp.LabelOrg))
		ents.Dates = unique(doc.EntitiesByLabel(nlp.LabelDate))
	}

	return ents, ExperienceYears(texts), nil
}

// ExperienceYears returns the largest "<n> years" claim. Without claims it
// falls back to the span between the earliest and latest 20xx year (at least
// one), and to zero when no such year appears.
func ExperienceYears(texts []string) float64 {
	var claims []float64
	for _, t := range texts {
		claims = append(claims, experienceClaims(strings.ToLower(t))...)
	}
	if len(claims) > 0 {
		return maxFloat(claims)
	}

	var years []int
	for _, y := range recentYearPattern.FindAllString(strings.Join(texts, " "), -1) {
		n, _ := strconv.Atoi(y)
		years = append(years, n)
	}
	if len(years) == 0 {
		return 0
	}
	maxYear := years[0]
	for _, y := range years[1:] {
		maxYear = max(maxYear, y)
	}
	return float64(max(maxYear-minInt(years), 1))
}

func unique(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
