package pipeline

import (
	"context"
	"strings"

	"resumescreen/internal/errors"
	"resumescreen/internal/nlp"
)

// Segment turns every non-blank parsed sentence into a unit and reports the
// share of units that are fragments.
func Segment(doc *nlp.Document) ([]TextUnit, float64, error) {
	if doc == nil {
		return nil, 0, errors.NewPipelineError(errors.ErrCodeSegmentation, "Parsed doc not available", nil)
	}

	var units []TextUnit
	fragments := 0
	for _, s := range doc.Sentences {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		frag := isFragment(s)
		if frag {
			fragments++
		}
		units = append(units, TextUnit{Kind: UnitSentence, Text: text, IsFragment: frag, Tokens: s.Tokens})
	}

	if len(units) == 0 {
		return nil, 0, errors.NewPipelineError(errors.ErrCodeSegmentation, "No sentences detected", nil)
	}
	return units, round2(ratio(fragments, len(units))), nil
}

// isFragment reports whether s has fewer than four non-space tokens or no verb.
func isFragment(s nlp.Sentence) bool {
	n := 0
	for _, t := range s.Tokens {
		if !t.IsSpace {
			n++
		}
	}
	if n < 4 {
		return true
	}
	return s.Count(nlp.POSVerb) == 0
}

// GrammarScore is the share of sentences with a subject, a verb and a root.
func GrammarScore(doc *nlp.Document) (float64, error) {
	if doc == nil {
		return 0, errors.NewPipelineError(errors.ErrCodeGrammar, "Parsed doc not available", nil)
	}

	valid, total := 0, 0
	for _, s := range doc.Sentences {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		total++
		if s.HasDep(nlp.DepNsubj, nlp.DepNsubjPass) && s.Count(nlp.POSVerb) > 0 && s.HasDep(nlp.DepRoot) {
			valid++
		}
	}

	if total == 0 {
		return 0, errors.NewPipelineError(errors.ErrCodeGrammar, "No sentences detected", nil)
	}
	return round2(ratio(valid, total)), nil
}

var weakActionLemmas = map[string]bool{"have": true, "know": true, "familiar": true, "experience": true}

// SemanticRoles records which roles a sentence fills.
type SemanticRoles struct {
	Actor   bool `json:"has_actor"`
	Action  bool `json:"has_action"`
	Object  bool `json:"has_object"`
	Context bool `json:"has_context"`
}

// Valid reports whether the sentence has an action and at least one of an
// object, a context or an actor.
func (r SemanticRoles) Valid() bool {
	return r.Action && (r.Object || r.Context || r.Actor)
}

// AnalyzeRoles extracts the semantic roles of s.
func AnalyzeRoles(s nlp.Sentence) SemanticRoles {
	var r SemanticRoles
	for _, t := range s.Tokens {
		switch t.Dep {
		case nlp.DepNsubj, nlp.DepNsubjPass:
			r.Actor = true
		case nlp.DepDobj, nlp.DepPobj, nlp.DepAttr, "obj":
			r.Object = true
		case nlp.DepPrep, nlp.DepAdvcl, nlp.DepXcomp, nlp.DepAcl:
			r.Context = true
		}
		if t.POS == nlp.POSVerb && !weakActionLemmas[strings.ToLower(t.Lemma)] {
			r.Action = true
		}
	}
	return r
}

// SemanticRoleScore is the share of sentences of three or more words whose
// roles are valid.
func SemanticRoleScore(doc *nlp.Document) (float64, error) {
	if doc == nil {
		return 0, errors.NewPipelineError(errors.ErrCodeSemanticRole, "No parsed document available", nil)
	}

	valid, considered := 0, 0
	for _, s := range doc.Sentences {
		if len(strings.Fields(s.Text)) < 3 {
			continue
		}
		considered++
		if AnalyzeRoles(s).Valid() {
			valid++
		}
	}

	if considered == 0 {
		return 0, errors.NewPipelineError(errors.ErrCodeSemanticRole, "No valid sentences available", nil)
	}
	return round2(ratio(valid, considered)), nil
}

// DiscourseScore is the mean cosine similarity of consecutive non-fragment
// units, or 0 when fewer than three such units exist.
func DiscourseScore(ctx context.Context, embedder nlp.Embedder, units []TextUnit) (float64, error) {
	if len(units) == 0 {
		return 0, errors.NewPipelineError(errors.ErrCodeDiscourse, "No units available for discourse analysis", nil)
	}

	var sentences []string
	for _, u := range units {
		if u.Kind == UnitSentence && !u.IsFragment {
			sentences = append(sentences, u.Text)
		}
	}
	if len(sentences) < 3 {
		return 0, nil
	}

	vectors, err := embedder.Embed(ctx, sentences)
	if err != nil {
		return 0, errors.NewPipelineError(errors.ErrCodeDiscourse, "failed to embed sentences", err)
	}
	if len(vectors) != len(sentences) {
		return 0, errors.NewPipelineError(errors.ErrCodeDiscourse, "embedder returned a mismatched number of vectors", nil)
	}

	var sum float64
	for i := 0; i < len(vectors)-1; i++ {
		sum += nlp.Cosine(vectors[i], vectors[i+1])
	}
	return round2(sum / float64(len(vectors)-1)), nil
}
