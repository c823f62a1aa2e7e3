package nlp

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"

	"resumescreen/internal/errors"
)

var (
	orgPattern = regexp.MustCompile(`\b(?:[A-Z][A-Za-z0-9&.\-]*[ \t]+){1,4}(?:Inc|Ltd|LLC|Corp|Corporation|Company|Technologies|Technology|Solutions|Systems|Labs|Software|Consulting|Services|Pvt\.?[ \t]+Ltd|University|College|Institute|School)\b\.?`)
	datePattern = regexp.MustCompile(`(?i)\b(?:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+(?:19|20)\d{2}|(?:19|20)\d{2}\s*[-–]\s*(?:(?:19|20)\d{2}|present|current|now)|(?:19|20)\d{2})\b`)
)

var sentenceEnders = map[string]bool{".": true, "!": true, "?": true}

// ProseParser parses English text with the prose tokenizer, tagger and entity
// model, then labels dependencies with a shallow heuristic pass. Sentence
// boundaries are line breaks and sentence-final punctuation, so resume bullets
// without trailing periods stay separate sentences.
type ProseParser struct {
	logger *errors.Logger
}

// NewProseParser creates a parser. prose documents are built per call, so the
// parser is safe for concurrent use.
func NewProseParser(logger *errors.Logger) *ProseParser {
	return &ProseParser{logger: logger}
}

// Parse implements Parser.
func (p *ProseParser) Parse(ctx context.Context, text string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pd, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeNLPParse, "prose failed to parse text", err)
	}

	raw := pd.Tokens()
	tokens := make([]Token, len(raw))
	for i, t := range raw {
		tokens[i] = Token{Text: t.Text, Tag: t.Tag}
	}

	doc := &Document{Text: text}
	for _, span := range segment(text, tokens) {
		annotate(span.tokens)
		doc.Sentences = append(doc.Sentences, Sentence{Text: span.text, Tokens: span.tokens})
	}

	for _, e := range pd.Entities() {
		doc.Entities = append(doc.Entities, Entity{Text: e.Text, Label: e.Label})
	}
	doc.Entities = dedupeEntities(append(doc.Entities, supplementEntities(text)...))

	if p.logger != nil {
		p.logger.Debug("Parsed document",
			"chars", len(text),
			"tokens", len(tokens),
			"sentences", len(doc.Sentences),
			"entities", len(doc.Entities))
	}
	return doc, nil
}

type span struct {
	text   string
	tokens []Token
}

// segment aligns tokens to text and splits them into sentences at line breaks
// and after sentence-final punctuation.
func segment(text string, tokens []Token) []span {
	var spans []span
	var cur []Token
	start, cursor, end := -1, 0, 0

	flush := func() {
		if len(cur) > 0 && start >= 0 {
			if s := strings.TrimSpace(text[start:end]); s != "" {
				spans = append(spans, span{text: s, tokens: cur})
			}
		}
		cur, start = nil, -1
	}

	for _, t := range tokens {
		pos := strings.Index(text[cursor:], t.Text)
		if pos < 0 {
			cur = append(cur, t)
			continue
		}
		pos += cursor
		if len(cur) > 0 && strings.ContainsRune(text[end:pos], '\n') {
			flush()
		}
		if start < 0 {
			start = pos
		}
		cur = append(cur, t)
		cursor = pos + len(t.Text)
		end = cursor
		if sentenceEnders[t.Text] {
			flush()
		}
	}
	flush()
	return spans
}

func supplementEntities(text string) []Entity {
	var out []Entity
	for _, m := range orgPattern.FindAllString(text, -1) {
		out = append(out, Entity{Text: strings.TrimSpace(m), Label: LabelOrg})
	}
	for _, m := range datePattern.FindAllString(text, -1) {
		out = append(out, Entity{Text: strings.TrimSpace(m), Label: LabelDate})
	}
	return out
}

func dedupeEntities(in []Entity) []Entity {
	seen := make(map[Entity]bool, len(in))
	out := in[:0]
	for _, e := range in {
		e.Text = strings.TrimFunc(e.Text, func(r rune) bool { return unicode.IsSpace(r) || r == ',' })
		if e.Text == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
