// Package nlp holds the linguistic document model the screening pipeline reads,
// together with the parser and embedder capabilities that produce it.
package nlp

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Universal part-of-speech tags used by the pipeline.
const (
	POSNoun  = "NOUN"
	POSPropn = "PROPN"
	POSVerb  = "VERB"
	POSAux   = "AUX"
	POSAdj   = "ADJ"
	POSAdv   = "ADV"
	POSAdp   = "ADP"
	POSSconj = "SCONJ"
	POSCconj = "CCONJ"
	POSDet   = "DET"
	POSPron  = "PRON"
	POSNum   = "NUM"
	POSPart  = "PART"
	POSPunct = "PUNCT"
	POSSym   = "SYM"
	POSIntj  = "INTJ"
	POSSpace = "SPACE"
	POSOther = "X"
)

// Entity labels.
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelDate   = "DATE"
	LabelGPE    = "GPE"
)

// Token is one parsed token. Tag is the Penn Treebank tag, POS the universal tag
// derived from it, and Dep a dependency label relative to the sentence.
type Token struct {
	Text    string `json:"text"`
	Tag     string `json:"tag"`
	POS     string `json:"pos"`
	Dep     string `json:"dep"`
	Head    int    `json:"head"`
	Lemma   string `json:"lemma"`
	IsSpace bool   `json:"is_space,omitempty"`
	IsStop  bool   `json:"is_stop,omitempty"`
}

// Sentence is a parsed sentence span.
type Sentence struct {
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
}

// Entity is a named-entity span.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Document is the result of parsing one text.
type Document struct {
	Text      string     `json:"text"`
	Sentences []Sentence `json:"sentences"`
	Entities  []Entity   `json:"entities"`
}

// Tokens returns every token of the document in order.
func (d *Document) Tokens() []Token {
	var out []Token
	for _, s := range d.Sentences {
		out = append(out, s.Tokens...)
	}
	return out
}

// EntitiesByLabel returns the entity texts carrying label, in document order.
func (d *Document) EntitiesByLabel(label string) []string {
	var out []string
	for _, e := range d.Entities {
		if e.Label == label {
			out = append(out, e.Text)
		}
	}
	return out
}

// Parser turns text into a Document. Implementations must be safe for concurrent use.
type Parser interface {
	Parse(ctx context.Context, text string) (*Document, error)
}

// Embedder maps texts to dense vectors, one per input, in order.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Identifier is implemented by embedders whose vectors are only comparable with
// vectors from the same provider, model and dimensionality.
type Identifier interface {
	Identity() string
}

// EmbedderIdentity names the vector space e produces. Embedders that do not
// implement Identifier are named by their type.
func EmbedderIdentity(e Embedder) string {
	if id, ok := e.(Identifier); ok {
		return id.Identity()
	}
	return fmt.Sprintf("%T", e)
}

// Verbs returns the lowercase lemmas of the VERB tokens in s.
func (s Sentence) Verbs() map[string]bool {
	verbs := make(map[string]bool)
	for _, t := range s.Tokens {
		if t.POS == POSVerb {
			verbs[strings.ToLower(t.Lemma)] = true
		}
	}
	return verbs
}

// Count returns how many tokens of s have one of the given POS tags.
func (s Sentence) Count(pos ...string) int {
	n := 0
	for _, t := range s.Tokens {
		for _, p := range pos {
			if t.POS == p {
				n++
				break
			}
		}
	}
	return n
}

// HasDep reports whether any token in s carries one of deps.
func (s Sentence) HasDep(deps ...string) bool {
	for _, t := range s.Tokens {
		for _, d := range deps {
			if t.Dep == d {
				return true
			}
		}
	}
	return false
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector
// or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
