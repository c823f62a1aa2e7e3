package nlp

import "strings"

var irregularLemmas = map[string]string{
	"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"has": "have", "had": "have", "having": "have",
	"does": "do", "did": "do", "done": "do",
	"built": "build", "led": "lead", "ran": "run", "run": "run", "wrote": "write", "written": "write",
	"made": "make", "taught": "teach", "thought": "think", "brought": "bring", "bought": "buy",
	"began": "begin", "begun": "begin", "chose": "choose", "chosen": "choose", "drove": "drive",
	"driven": "drive", "gave": "give", "given": "give", "got": "get", "gotten": "get",
	"grew": "grow", "grown": "grow", "held": "hold", "kept": "keep", "knew": "know",
	"known": "know", "left": "leave", "lent": "lend", "met": "meet", "paid": "pay",
	"said": "say", "saw": "see", "seen": "see", "sent": "send", "set": "set", "shown": "show",
	"sold": "sell", "spent": "spend", "stood": "stand", "took": "take", "taken": "take",
	"told": "tell", "understood": "understand", "went": "go", "gone": "go", "won": "win",
	"oversaw": "oversee", "overseen": "oversee", "rebuilt": "rebuild", "rewrote": "rewrite",
	"rewritten": "rewrite", "spun": "spin", "found": "find", "became": "become", "felt": "feel",
	"children": "child", "people": "person", "men": "man", "women": "woman", "data": "data",
}

// baseVerbs disambiguates suffix stripping for verbs common in resumes and postings.
var baseVerbs = map[string]bool{
	"achieve": true, "analyze": true, "architect": true, "automate": true, "build": true,
	"collaborate": true, "configure": true, "coordinate": true, "create": true, "debug": true,
	"define": true, "deliver": true, "deploy": true, "design": true, "develop": true,
	"drive": true, "engineer": true, "enhance": true, "ensure": true, "establish": true,
	"execute": true, "experience": true, "facilitate": true, "generate": true, "guide": true,
	"handle": true, "identify": true, "implement": true, "improve": true, "increase": true,
	"integrate": true, "introduce": true, "launch": true, "lead": true, "maintain": true,
	"manage": true, "mentor": true, "migrate": true, "monitor": true, "optimize": true,
	"organize": true, "own": true, "plan": true, "produce": true, "provide": true,
	"reduce": true, "refactor": true, "release": true, "require": true, "research": true,
	"resolve": true, "review": true, "scale": true, "serve": true, "ship": true,
	"streamline": true, "support": true, "test": true, "train": true, "troubleshoot": true,
	"use": true, "utilize": true, "work": true, "write": true, "prefer": true, "stop": true,
	"submit": true, "commit": true, "model": true, "program": true, "travel": true,
}

const vowels = "aeiou"

// Lemmatize returns the lowercase base form of word given its Penn tag.
func Lemmatize(word, tag string) string {
	w := strings.ToLower(word)
	if l, ok := irregularLemmas[w]; ok {
		return l
	}
	switch tag {
	case "VBD", "VBN":
		return verbStem(w, "ed")
	case "VBG":
		return verbStem(w, "ing")
	case "VBZ":
		return verbThirdPerson(w)
	case "NNS", "NNPS":
		return singular(w)
	}
	return w
}

func verbStem(w, suffix string) string {
	if !strings.HasSuffix(w, suffix) || len(w) <= len(suffix)+1 {
		return w
	}
	stem := strings.TrimSuffix(w, suffix)
	candidates := []string{stem, stem + "e"}
	if n := len(stem); n >= 2 && stem[n-1] == stem[n-2] {
		candidates = append(candidates, stem[:n-1])
	}
	if suffix == "ed" && strings.HasSuffix(stem, "i") {
		candidates = append(candidates, stem[:len(stem)-1]+"y")
	}
	for _, c := range candidates {
		if baseVerbs[c] {
			return c
		}
	}

	n := len(stem)
	switch {
	case suffix == "ed" && strings.HasSuffix(stem, "i"):
		return stem[:n-1] + "y"
	case n >= 2 && stem[n-1] == stem[n-2] && !strings.ContainsRune("lsz", rune(stem[n-1])):
		return stem[:n-1]
	case n >= 3 && needsSilentE(stem):
		return stem + "e"
	}
	return stem
}

// needsSilentE guesses whether a stripped stem lost a trailing "e" (creat-ed, us-ing).
func needsSilentE(stem string) bool {
	n := len(stem)
	last := stem[n-1]
	if strings.ContainsRune(vowels+"wxy", rune(last)) {
		return false
	}
	for _, end := range []string{"at", "iz", "ys", "ur", "uc", "ag", "iv", "ov", "ud", "bl", "pl", "tl", "dl", "gl", "ns", "rg", "rs", "ct"} {
		if strings.HasSuffix(stem, end) {
			return end != "ct"
		}
	}
	return strings.ContainsRune(vowels, rune(stem[n-2])) && !strings.ContainsRune(vowels, rune(stem[n-3])) && last != 'n' && last != 'r'
}

func verbThirdPerson(w string) string {
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case baseVerbs[strings.TrimSuffix(w, "s")]:
		return strings.TrimSuffix(w, "s")
	case strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"), strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "xes"), strings.HasSuffix(w, "oes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

func singular(w string) string {
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"), strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "xes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s") && len(w) > 3:
		return w[:len(w)-1]
	}
	return w
}
