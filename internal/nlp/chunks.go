package nlp

import "strings"

// NounChunks returns the base noun phrases of s: an optional run of determiners and
// modifiers ending in a noun, proper noun or pronoun.
func (s Sentence) NounChunks() []string {
	var chunks []string
	toks := s.Tokens
	for i := 0; i < len(toks); i++ {
		switch toks[i].POS {
		case POSDet, POSAdj, POSNum, POSNoun, POSPropn, POSPron:
		default:
			continue
		}
		h := nounPhraseHead(toks, i)
		if h < 0 {
			continue
		}
		if toks[h].POS == POSNum {
			i = h
			continue
		}
		chunks = append(chunks, joinTokens(toks[i:h+1]))
		i = h
	}
	return chunks
}

// NounChunks returns the noun chunks of every sentence in order.
func (d *Document) NounChunks() []string {
	var out []string
	for _, s := range d.Sentences {
		out = append(out, s.NounChunks()...)
	}
	return out
}

func joinTokens(toks []Token) string {
	var b strings.Builder
	glue := false
	for _, t := range toks {
		if t.IsSpace {
			continue
		}
		attach := t.Text == "-" || t.Text == "/" || t.Tag == "POS"
		if b.Len() > 0 && !attach && !glue {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
		glue = t.Text == "-" || t.Text == "/"
	}
	return b.String()
}
