package pipeline

import (
	"math"
	"strings"
)

// Quality gate thresholds.
const (
	MinGrammarScore      = 0.20
	MinSemanticRoleScore = 0.50
	MinQualityScore      = 0.45
	MaxFragmentRatio     = 0.60
)

// GateInputs are the linguistic signals the quality gate weighs.
type GateInputs struct {
	Grammar         float64
	SemanticRole    float64
	SectionBehavior float64
	Discourse       float64
	Timeline        float64
	FragmentRatio   float64
}

// EvaluateGate computes the weighted quality score and applies the hard
// rejection rules.
func EvaluateGate(in GateInputs) GateResult {
	penalty := math.Max(0, in.FragmentRatio-MaxFragmentRatio)
	quality := 0.25*in.Grammar +
		0.25*in.SemanticRole +
		0.20*in.SectionBehavior +
		0.20*in.Discourse +
		0.10*in.Timeline -
		penalty
	quality = round2(math.Max(quality, 0))

	res := GateResult{
		Valid: in.Grammar >= MinGrammarScore && in.SemanticRole >= MinSemanticRoleScore && quality >= MinQualityScore,
		Score: quality,
	}

	if in.Grammar < MinGrammarScore {
		res.Reasons = append(res.Reasons, "Poor grammar quality")
	}
	if in.SemanticRole < MinSemanticRoleScore {
		res.Reasons = append(res.Reasons, "Weak sentence structure")
	}
	if in.FragmentRatio > MaxFragmentRatio {
		res.Reasons = append(res.Reasons, "Too many incomplete sentences")
	}
	if quality < MinQualityScore {
		res.Reasons = append(res.Reasons, "Overall quality below threshold")
	}
	return res
}

// FailureMessage is the message stored for a resume the gate rejected.
func (g GateResult) FailureMessage() string {
	if len(g.Reasons) == 0 {
		return "Resume quality below minimum standards"
	}
	return "Quality gate failed: " + strings.Join(g.Reasons, ", ")
}
