package pipeline

import (
	"math"
	"slices"
	"sort"
	"strings"

	"resumescreen/internal/errors"
	"resumescreen/internal/jd"
	"resumescreen/internal/nlp"
	"resumescreen/internal/types"
)

// Decision thresholds on the 0-100 final score.
const (
	ShortlistThreshold = 60
	ReviewThreshold    = 40
)

// MatchInputs are everything the matching engine scores.
type MatchInputs struct {
	SkillConfidence map[string]float64
	Profile         *jd.Profile
	ExperienceYears float64
	Entities        Entities
	UnitEmbeddings  [][]float32
	Timeline        float64
}

// Match combines skill, experience, education and semantic scores into the
// final score, decision and reasons.
func Match(in MatchInputs) (ScoreBreakdown, error) {
	if in.Profile == nil {
		return ScoreBreakdown{}, errors.NewPipelineError(errors.ErrCodeMatching, "Job description profile not available", nil)
	}
	if in.SkillConfidence == nil {
		return ScoreBreakdown{}, errors.NewPipelineError(errors.ErrCodeMatching, "skill_confidence not available", nil)
	}

	b := ScoreBreakdown{
		SkillScore:      SkillScore(in.SkillConfidence, in.Profile),
		ExperienceScore: ExperienceScore(in.ExperienceYears, in.Profile.ExperienceRange),
		EducationScore:  EducationScore(in.Profile.EducationRequired, in.Entities),
		SemanticScore:   SemanticScore(in.UnitEmbeddings, in.Profile.Embedding),
		TimelineScore:   in.Timeline,
	}

	combined := 0.40*b.SkillScore + 0.30*b.ExperienceScore + 0.15*b.EducationScore + 0.15*b.SemanticScore
	combined = math.Min(math.Max(combined, 0), 1)
	b.FinalScore = round2(100 * combined * in.Timeline)
	b.Decision = Decide(b.FinalScore)
	b.Reasons = reasons(b)
	return b, nil
}

// Decide maps a final score to a decision.
func Decide(score float64) string {
	switch {
	case score >= ShortlistThreshold:
		return types.DecisionShortlisted
	case score >= ReviewThreshold:
		return types.DecisionReview
	default:
		return types.DecisionRejected
	}
}

func reasons(b ScoreBreakdown) []string {
	out := []string{}
	if b.SkillScore < 0.4 {
		out = append(out, "Low relevance of required skills")
	}
	if b.ExperienceScore < 0.4 {
		out = append(out, "Experience below job requirement")
	}
	if b.SemanticScore < 0.3 {
		out = append(out, "Low semantic alignment with job role")
	}
	if b.TimelineScore < 1.0 {
		out = append(out, "Timeline inconsistency detected")
	}
	if b.Decision == types.DecisionShortlisted {
		if b.SkillScore >= 0.7 {
			out = append(out, "Strong skill match with job requirements")
		}
		if b.ExperienceScore >= 0.8 {
			out = append(out, "Experience aligns well with requirements")
		}
		if b.SemanticScore >= 0.6 {
			out = append(out, "Resume content highly relevant to role")
		}
	}
	return out
}

// SkillScore rates the resume's evidence against the mandatory skills and the
// first ten optional skills. Mandatory coverage is boosted in tiers by the share
// of mandatory skills matched.
func SkillScore(confidence map[string]float64, profile *jd.Profile) float64 {
	mandatory := profile.MandatorySkills
	optional := profile.OptionalSkills
	if len(optional) > 10 {
		optional = optional[:10]
	}
	if len(mandatory) == 0 && len(optional) == 0 {
		return 0.7
	}

	evidenced := make([]string, 0, len(confidence))
	for skill := range confidence {
		evidenced = append(evidenced, skill)
	}
	sort.Strings(evidenced)

	var mandatoryScore float64
	if len(mandatory) > 0 {
		matched := 0
		var credit float64
		for _, skill := range mandatory {
			if c := confidence[skill]; c > 0 {
				matched++
				credit += math.Min(2*c, 1)
				continue
			}
			idx := slices.IndexFunc(evidenced, func(e string) bool {
				return strings.Contains(e, skill) || strings.Contains(skill, e)
			})
			if idx >= 0 {
				matched++
				credit += math.Min(1.5*confidence[evidenced[idx]], 1)
			}
		}

		mandatoryScore = credit / float64(len(mandatory))
		switch r := ratio(matched, len(mandatory)); {
		case r >= 0.8:
			mandatoryScore = math.Min(mandatoryScore*1.3, 1)
		case r >= 0.6:
			mandatoryScore = math.Min(mandatoryScore*1.2, 1)
		case r >= 0.4:
			mandatoryScore = math.Min(mandatoryScore*1.1, 1)
		}
	}

	var optionalScore float64
	if len(optional) > 0 {
		for _, skill := range optional {
			if c := confidence[skill]; c > 0 {
				optionalScore += math.Min(1.5*c, 1)
			}
		}
		optionalScore /= float64(len(optional))
	}

	if len(mandatory) > 0 {
		return math.Min(0.75*mandatoryScore+0.25*optionalScore, 1)
	}
	return math.Min(optionalScore, 1)
}

// ExperienceScore rates years of experience against the required range.
func ExperienceScore(years float64, rng *jd.ExperienceRange) float64 {
	switch {
	case rng == nil:
		return 0.8
	case years == 0:
		return 0.3
	case years >= float64(rng.Min) && years <= float64(rng.Max):
		return 1.0
	case years < float64(rng.Min):
		return math.Max(0.5*years/float64(rng.Min), 0.3)
	default:
		return 0.9
	}
}

// EducationScore is 1 when no education is required or when the resume has
// dates or organisations, and 0.6 otherwise.
func EducationScore(required bool, ents Entities) float64 {
	if !required || len(ents.Dates) > 0 || len(ents.Organizations) > 0 {
		return 1.0
	}
	return 0.6
}

// SemanticScore is the mean of the top three cosine similarities between the
// unit embeddings and the job description embedding.
func SemanticScore(units [][]float32, jdEmbedding []float32) float64 {
	if len(units) == 0 {
		return 0
	}
	sims := make([]float64, len(units))
	for i, v := range units {
		sims[i] = nlp.Cosine(v, jdEmbedding)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sims)))

	k := min(3, len(sims))
	var sum float64
	for _, s := range sims[:k] {
		sum += s
	}
	return sum / float64(k)
}
