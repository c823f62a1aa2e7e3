package nlp

import "strings"

// Dependency labels assigned by the labeller.
const (
	DepRoot      = "ROOT"
	DepNsubj     = "nsubj"
	DepNsubjPass = "nsubjpass"
	DepDobj      = "dobj"
	DepPobj      = "pobj"
	DepAttr      = "attr"
	DepPrep      = "prep"
	DepXcomp     = "xcomp"
	DepAdvcl     = "advcl"
	DepAcl       = "acl"
	DepConj      = "conj"
	DepCC        = "cc"
	DepAux       = "aux"
	DepAuxPass   = "auxpass"
	DepMark      = "mark"
	DepDet       = "det"
	DepAmod      = "amod"
	DepAdvmod    = "advmod"
	DepAcomp     = "acomp"
	DepCompound  = "compound"
	DepNummod    = "nummod"
	DepPoss      = "poss"
	DepPunct     = "punct"
	DepDep       = "dep"
)

// annotate fills POS, Lemma, IsStop, Dep and Head for one sentence whose tokens
// carry Text and a Penn Tag. The dependency labels come from a shallow
// left-to-right pass over phrase boundaries, not a trained parser.
func annotate(tokens []Token) {
	for i := range tokens {
		t := &tokens[i]
		t.IsSpace = strings.TrimSpace(t.Text) == ""
		if t.IsSpace {
			t.POS = POSSpace
			t.Lemma = t.Text
			continue
		}
		t.Lemma = Lemmatize(t.Text, t.Tag)
		next := ""
		if j := nextNonSpace(tokens, i); j >= 0 {
			next = tokens[j].Tag
		}
		t.POS = universalPOS(t.Tag, t.Lemma, next)
		t.IsStop = IsStopWord(t.Text)
		t.Head = -1
	}
	labelDependencies(tokens)
}

func nextNonSpace(tokens []Token, i int) int {
	for j := i + 1; j < len(tokens); j++ {
		if !tokens[j].IsSpace {
			return j
		}
	}
	return -1
}

func isNominal(pos string) bool {
	return pos == POSNoun || pos == POSPropn || pos == POSPron || pos == POSNum
}

// nounPhraseHead returns the index of the head of the noun phrase starting at i:
// the last noun or pronoun of the run, or its number when it has no noun.
// It returns -1 when no nominal follows.
func nounPhraseHead(tokens []Token, i int) int {
	head, num := -1, -1
scan:
	for j := i; j < len(tokens); j++ {
		t := tokens[j]
		switch {
		case t.IsSpace, t.Tag == "POS", t.POS == POSPunct && (t.Text == "-" || t.Text == "/"):
		case t.POS == POSNoun || t.POS == POSPropn || t.POS == POSPron:
			head = j
		case t.POS == POSNum:
			if head >= 0 {
				break scan
			}
			num = j
		case (t.POS == POSDet || t.POS == POSAdj) && head < 0:
		default:
			break scan
		}
	}
	if head < 0 {
		return num
	}
	return head
}

func findRoot(tokens []Token) int {
	first := func(pred func(Token) bool) int {
		for i, t := range tokens {
			if pred(t) {
				return i
			}
		}
		return -1
	}
	afterTo := func(i int) bool {
		for j := i - 1; j >= 0; j-- {
			if tokens[j].IsSpace {
				continue
			}
			return tokens[j].Tag == "TO"
		}
		return false
	}
	if r := first(func(t Token) bool {
		return t.POS == POSVerb && (t.Tag == "VBD" || t.Tag == "VBZ" || t.Tag == "VBP")
	}); r >= 0 {
		return r
	}
	for i, t := range tokens {
		if t.POS == POSVerb && !afterTo(i) {
			return i
		}
	}
	if r := first(func(t Token) bool { return t.POS == POSVerb }); r >= 0 {
		return r
	}
	if r := first(func(t Token) bool { return t.POS == POSAux }); r >= 0 {
		return r
	}
	if r := first(func(t Token) bool { return t.POS == POSNoun || t.POS == POSPropn }); r >= 0 {
		return r
	}
	return first(func(t Token) bool { return !t.IsSpace && t.POS != POSPunct })
}

func labelDependencies(tokens []Token) {
	root := findRoot(tokens)
	if root < 0 {
		return
	}
	tokens[root].Dep = DepRoot
	tokens[root].Head = root

	labelRelativeSubjects(tokens)
	labelSubject(tokens, root)

	verb := root
	pendingObject := tokens[root].POS == POSVerb || tokens[root].POS == POSAux
	for i := 0; i < len(tokens); i++ {
		t := &tokens[i]
		if i == root || t.Dep != "" || t.IsSpace {
			continue
		}
		switch t.POS {
		case POSVerb:
			t.Dep = clauseLabel(tokens, i)
			t.Head = verb
			if i > root {
				verb = i
				pendingObject = true
			}
		case POSAux:
			t.Head = verb
			t.Dep = DepAux
			if t.Lemma == "be" {
				if j := nextNonSpace(tokens, i); j >= 0 && tokens[j].Tag == "VBN" {
					t.Dep = DepAuxPass
				}
			}
		case POSAdp:
			t.Dep = DepPrep
			t.Head = verb
			if h := nounPhraseHead(tokens, i+1); h >= 0 && tokens[h].Dep == "" {
				tokens[h].Dep = DepPobj
				tokens[h].Head = i
				labelModifiers(tokens, i+1, h)
				i = h
			}
		case POSNoun, POSPropn, POSPron, POSNum, POSDet, POSAdj:
			h := nounPhraseHead(tokens, i)
			if h < 0 || tokens[h].Dep != "" {
				labelSimple(t, verb)
				continue
			}
			if i > verb && pendingObject {
				if tokens[verb].Lemma == "be" {
					tokens[h].Dep = DepAttr
				} else {
					tokens[h].Dep = DepDobj
				}
				pendingObject = false
			} else {
				tokens[h].Dep = DepConj
				if i < root {
					tokens[h].Dep = DepDep
				}
			}
			tokens[h].Head = verb
			labelModifiers(tokens, i, h)
			i = h
		default:
			labelSimple(t, verb)
		}
	}
}

// labelSubject marks the head of the nearest noun phrase before root that is not
// governed by a preposition.
func labelSubject(tokens []Token, root int) {
	if tokens[root].POS != POSVerb && tokens[root].POS != POSAux {
		return
	}
	passive := tokens[root].Tag == "VBN"
	for j := root - 1; j >= 0; j-- {
		t := tokens[j]
		if t.Dep != "" {
			return
		}
		if t.POS == POSAux && t.Lemma == "be" && tokens[root].Tag == "VBN" {
			passive = true
			continue
		}
		if t.POS == POSAux || t.POS == POSAdv || t.POS == POSSpace || t.POS == POSPart {
			continue
		}
		if !isNominal(t.POS) {
			return
		}
		start := j
		for start > 0 && (isNominal(tokens[start-1].POS) || tokens[start-1].POS == POSDet || tokens[start-1].POS == POSAdj) {
			start--
		}
		if start > 0 && tokens[start-1].POS == POSAdp {
			return
		}
		if passive {
			tokens[j].Dep = DepNsubjPass
		} else {
			tokens[j].Dep = DepNsubj
		}
		tokens[j].Head = root
		labelModifiers(tokens, start, j)
		return
	}
}

var relativePronouns = map[string]bool{"that": true, "which": true, "who": true}

func isRelativePronoun(t Token) bool {
	return t.Tag == "WDT" || t.Tag == "WP" || relativePronouns[strings.ToLower(t.Text)]
}

// labelRelativeSubjects marks a relative pronoun directly before a verb as the
// subject of that verb's clause, as in "a cache that reduced latency".
func labelRelativeSubjects(tokens []Token) {
	for i, t := range tokens {
		if t.IsSpace || t.Dep != "" || !isRelativePronoun(t) {
			continue
		}
		j := nextNonSpace(tokens, i)
		if j < 0 || (tokens[j].POS != POSVerb && tokens[j].POS != POSAux) {
			continue
		}
		tokens[i].Dep = DepNsubj
		if tokens[j].Lemma == "be" {
			if k := nextNonSpace(tokens, j); k >= 0 && tokens[k].Tag == "VBN" {
				tokens[i].Dep = DepNsubjPass
			}
		}
		tokens[i].Head = j
	}
}

func labelModifiers(tokens []Token, from, head int) {
	for k := from; k < head; k++ {
		if tokens[k].Dep != "" || tokens[k].IsSpace {
			continue
		}
		tokens[k].Head = head
		switch tokens[k].POS {
		case POSDet:
			tokens[k].Dep = DepDet
		case POSAdj:
			tokens[k].Dep = DepAmod
		case POSNum:
			tokens[k].Dep = DepNummod
		case POSPron:
			tokens[k].Dep = DepPoss
		case POSNoun, POSPropn:
			tokens[k].Dep = DepCompound
		case POSPunct:
			tokens[k].Dep = DepPunct
		default:
			tokens[k].Dep = DepDep
		}
	}
}

// clauseLabel labels a non-root verb by the marker that introduces it.
func clauseLabel(tokens []Token, i int) string {
	for j := i - 1; j >= 0; j-- {
		p := tokens[j]
		if p.IsSpace || p.POS == POSAux || p.POS == POSAdv {
			continue
		}
		switch {
		case p.Tag == "TO":
			return DepXcomp
		case p.POS == POSSconj:
			return DepAdvcl
		case p.POS == POSCconj, p.POS == POSPunct && p.Text == ",":
			return DepConj
		case (p.POS == POSNoun || p.POS == POSPropn) && (tokens[i].Tag == "VBG" || tokens[i].Tag == "VBN"):
			return DepAcl
		case isRelativePronoun(p):
			return DepAcl
		case p.Tag == "WRB":
			return DepAdvcl
		case tokens[i].Tag == "VBG":
			return DepAdvcl
		}
		return DepConj
	}
	return DepDep
}

func labelSimple(t *Token, head int) {
	t.Head = head
	switch t.POS {
	case POSAdv:
		t.Dep = DepAdvmod
	case POSAdj:
		t.Dep = DepAcomp
	case POSCconj:
		t.Dep = DepCC
	case POSSconj:
		t.Dep = DepMark
	case POSPart:
		t.Dep = DepAux
	case POSPunct, POSSym:
		t.Dep = DepPunct
	default:
		t.Dep = DepDep
	}
}
