package pipeline

import (
	"math"
	"strings"

	"resumescreen/internal/errors"
	"resumescreen/internal/jd"
	"resumescreen/internal/nlp"
)

var actionVerbs = map[string]bool{
	"develop": true, "build": true, "implement": true, "design": true,
	"train": true, "deploy": true, "optimize": true, "analyze": true, "create": true,
	"manage": true, "lead": true, "engineer": true, "architect": true,
}

// ScoreSkillEvidence measures how strongly the resume evidences each job
// description skill. A unit mentioning a skill counts towards its frequency and,
// when the unit also uses an action verb, towards its action usage. Skills the
// resume never mentions get no entry.
func ScoreSkillEvidence(units []TextUnit, profile *jd.Profile) (map[string]float64, error) {
	if len(units) == 0 {
		return nil, errors.NewPipelineError(errors.ErrCodeSkill, "No units available for skill intelligence", nil)
	}
	if profile == nil {
		return nil, errors.NewPipelineError(errors.ErrCodeSkill, "Job description profile not available", nil)
	}

	type stats struct{ frequency, actions int }
	skills := profile.Skills()
	evidence := make(map[string]*stats)

	for _, u := range units {
		lower := strings.ToLower(u.Text)
		active := hasActionVerb(u)
		for _, skill := range skills {
			if !strings.Contains(lower, skill) {
				continue
			}
			st, ok := evidence[skill]
			if !ok {
				st = &stats{}
				evidence[skill] = st
			}
			st.frequency++
			if active {
				st.actions++
			}
		}
	}

	confidence := make(map[string]float64, len(evidence))
	for skill, st := range evidence {
		c := 0.5*math.Min(float64(st.frequency)/3, 1) + 0.5*math.Min(float64(st.actions)/2, 1)
		confidence[skill] = round2(c)
	}
	return confidence, nil
}

func hasActionVerb(u TextUnit) bool {
	for _, t := range u.Tokens {
		if t.POS == nlp.POSVerb && actionVerbs[strings.ToLower(t.Lemma)] {
			return true
		}
	}
	return false
}
