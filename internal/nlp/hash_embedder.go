package nlp

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder produces deterministic bag-of-words vectors by feature hashing
// lowercase unigrams and bigrams into a fixed number of buckets. Vectors are L2
// normalised and non-negative, so cosine similarity stays within [0,1].
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns an embedder with dims buckets (256 when dims <= 0).
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

// Dimensions returns the vector length.
func (h *HashEmbedder) Dimensions() int { return h.dims }

// Identity implements Identifier.
func (h *HashEmbedder) Identity() string { return fmt.Sprintf("hash:%d", h.dims) }

// Embed implements Embedder.
func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})

	var kept []string
	for _, w := range words {
		if len(w) < 2 || stopWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	for i, w := range kept {
		h.add(v, w, 1)
		if i > 0 {
			h.add(v, kept[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (h *HashEmbedder) add(v []float32, feature string, weight float32) {
	f := fnv.New32a()
	_, _ = f.Write([]byte(feature))
	v[int(f.Sum32()%uint32(h.dims))] += weight
}
