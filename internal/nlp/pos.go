package nlp

import "strings"

var pennToUniversal = map[string]string{
	"NN": POSNoun, "NNS": POSNoun, "NNP": POSPropn, "NNPS": POSPropn,
	"VB": POSVerb, "VBD": POSVerb, "VBG": POSVerb, "VBN": POSVerb, "VBP": POSVerb, "VBZ": POSVerb,
	"MD": POSAux,
	"JJ": POSAdj, "JJR": POSAdj, "JJS": POSAdj, "AFX": POSAdj,
	"RB": POSAdv, "RBR": POSAdv, "RBS": POSAdv, "WRB": POSAdv,
	"IN": POSAdp, "RP": POSAdp,
	"TO": POSPart, "POS": POSPart,
	"DT": POSDet, "PDT": POSDet, "WDT": POSDet, "PRP$": POSPron, "WP$": POSPron,
	"PRP": POSPron, "WP": POSPron, "EX": POSPron,
	"CD": POSNum, "CC": POSCconj, "UH": POSIntj,
	"SYM": POSSym, "$": POSSym, "#": POSSym,
	".": POSPunct, ",": POSPunct, ":": POSPunct, "``": POSPunct, "''": POSPunct, "\"": POSPunct,
	"(": POSPunct, ")": POSPunct, "-LRB-": POSPunct, "-RRB-": POSPunct, "HYPH": POSPunct, "NFP": POSPunct,
	"FW": POSOther, "LS": POSOther, "ADD": POSOther, "GW": POSOther, "XX": POSOther,
}

var subordinators = map[string]bool{
	"because": true, "while": true, "although": true, "though": true, "if": true,
	"unless": true, "whereas": true, "since": true, "whether": true, "after": true,
	"before": true, "once": true, "until": true, "when": true, "so": true,
}

// universalPOS maps a Penn tag to the universal tag set. Auxiliary use of
// be/have/do and modal verbs maps to AUX.
func universalPOS(tag, lemma string, next string) string {
	pos, ok := pennToUniversal[tag]
	if !ok {
		if isPunctuation(tag) {
			return POSPunct
		}
		return POSOther
	}
	switch pos {
	case POSVerb:
		switch lemma {
		case "be":
			return POSAux
		case "have", "do":
			if strings.HasPrefix(next, "VB") {
				return POSAux
			}
		}
	case POSAdp:
		if tag == "IN" && subordinators[lemma] {
			return POSSconj
		}
	}
	return pos
}

func isPunctuation(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(".,;:!?-()[]{}\"'`/|•●▪◦", r) {
			return false
		}
	}
	return true
}
