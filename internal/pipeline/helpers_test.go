package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"resumescreen/internal/nlp"
	"resumescreen/internal/types"
)

// lineParser is a deterministic Parser for tests: every non-blank line is a
// sentence, tags come from a small lexicon and dependencies from word order.
type lineParser struct {
	entities []nlp.Entity
	err      error
}

var testLexicon = map[string][2]string{
	"built":     {nlp.POSVerb, "build"},
	"developed": {nlp.POSVerb, "develop"},
	"led":       {nlp.POSVerb, "lead"},
	"designed":  {nlp.POSVerb, "design"},
	"have":      {nlp.POSVerb, "have"},
	"know":      {nlp.POSVerb, "know"},
	"wrote":     {nlp.POSVerb, "write"},
	"i":         {nlp.POSPron, "i"},
	"with":      {nlp.POSAdp, "with"},
	"at":        {nlp.POSAdp, "at"},
	"for":       {nlp.POSAdp, "for"},
	"of":        {nlp.POSAdp, "of"},
	"to":        {nlp.POSAdp, "to"},
	"in":        {nlp.POSAdp, "in"},
	"and":       {nlp.POSCconj, "and"},
	"the":       {nlp.POSDet, "the"},
}

func (p lineParser) Parse(ctx context.Context, text string) (*nlp.Document, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := &nlp.Document{Text: text, Entities: p.entities}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		doc.Sentences = append(doc.Sentences, nlp.Sentence{Text: line, Tokens: tagLine(line)})
	}
	return doc, nil
}

func tagLine(line string) []nlp.Token {
	var toks []nlp.Token
	for _, field := range strings.Fields(line) {
		word := strings.TrimRight(field, ".,")
		if word != "" {
			toks = append(toks, tagWord(word))
		}
		if strings.HasSuffix(field, ".") || strings.HasSuffix(field, ",") {
			toks = append(toks, nlp.Token{Text: field[len(field)-1:], POS: nlp.POSPunct, Lemma: field[len(field)-1:]})
		}
	}
	labelTestDeps(toks)
	return toks
}

func tagWord(word string) nlp.Token {
	lower := strings.ToLower(word)
	if e, ok := testLexicon[lower]; ok {
		return nlp.Token{Text: word, POS: e[0], Lemma: e[1]}
	}
	pos := nlp.POSNoun
	switch r := []rune(word)[0]; {
	case unicode.IsDigit(r):
		pos = nlp.POSNum
	case unicode.IsUpper(r):
		pos = nlp.POSPropn
	}
	return nlp.Token{Text: word, POS: pos, Lemma: lower}
}

func isTestNominal(pos string) bool {
	return pos == nlp.POSNoun || pos == nlp.POSPropn || pos == nlp.POSPron
}

func labelTestDeps(toks []nlp.Token) {
	for i := range toks {
		toks[i].Dep = nlp.DepDep
	}
	verb := -1
	for i, t := range toks {
		if t.POS == nlp.POSVerb {
			verb = i
			break
		}
	}
	if verb < 0 {
		if len(toks) > 0 {
			toks[0].Dep = nlp.DepRoot
		}
		return
	}
	toks[verb].Dep = nlp.DepRoot
	for i := verb - 1; i >= 0; i-- {
		if isTestNominal(toks[i].POS) {
			toks[i].Dep = nlp.DepNsubj
			break
		}
	}
	object := false
	for i := verb + 1; i < len(toks); i++ {
		switch {
		case toks[i].POS == nlp.POSAdp:
			toks[i].Dep = nlp.DepPrep
			if i+1 < len(toks) && isTestNominal(toks[i+1].POS) {
				toks[i+1].Dep = nlp.DepPobj
				i++
			}
		case !object && isTestNominal(toks[i].POS):
			toks[i].Dep = nlp.DepDobj
			object = true
		}
	}
}

// parseLines parses text with lineParser and returns the document.
func parseLines(text string) *nlp.Document {
	doc, _ := lineParser{}.Parse(context.Background(), text)
	return doc
}

// unitsOf segments text into units with lineParser.
func unitsOf(text string) []TextUnit {
	units, _, _ := Segment(parseLines(text))
	return units
}

// constEmbedder returns the same vector for every text.
type constEmbedder struct {
	err error
}

func (e constEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// mapEmbedder looks vectors up by exact text.
type mapEmbedder map[string][]float32

func (m mapEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m[t]
	}
	return out, nil
}

type checkpoint struct {
	phase  Phase
	status string
}

type recordingCheckpointer struct {
	mu     sync.Mutex
	points []checkpoint
	last   types.ResumeDetail
}

func (c *recordingCheckpointer) Checkpoint(_ context.Context, phase Phase, d *types.ResumeDetail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, checkpoint{phase: phase, status: d.Status})
	c.last = *d
	return nil
}

type recordingRecorder struct {
	mu           sync.Mutex
	stages       []string
	failedStages []string
	outcomes     []string
	gateFailures int
}

func (r *recordingRecorder) RecordStage(_ context.Context, stage string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
	if err != nil {
		r.failedStages = append(r.failedStages, stage)
	}
}

func (r *recordingRecorder) RecordOutcome(_ context.Context, status, _ string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, status)
}

func (r *recordingRecorder) RecordGateFailure(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateFailures++
}
