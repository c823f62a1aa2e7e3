package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"resumescreen/internal/nlp"
)

// UnknownCandidate is the name recorded when none can be found.
const UnknownCandidate = "Unknown"

var nameBlacklist = map[string]bool{
	"linkedin": true, "amazon": true, "google": true, "microsoft": true, "facebook": true, "meta": true, "apple": true,
	"netflix": true, "uber": true, "airbnb": true, "twitter": true, "tesla": true, "oracle": true, "ibm": true, "intel": true,
	"cisco": true, "adobe": true, "salesforce": true, "spotify": true, "github": true, "gitlab": true, "slack": true,
	"zoom": true, "dropbox": true, "reddit": true, "pinterest": true, "snapchat": true, "tiktok": true, "bytedance": true,
	"resume": true, "curriculum vitae": true, "cv": true, "profile": true, "contact": true, "email": true, "phone": true,
	"address": true, "objective": true, "summary": true, "experience": true, "education": true, "skills": true,
	"references": true, "portfolio": true, "website": true, "linkedin profile": true,
	"walmart": true, "target": true, "costco": true, "samsung": true, "sony": true, "panasonic": true, "lg": true,
	"dell": true, "hp": true, "lenovo": true, "asus": true, "acer": true, "nvidia": true, "amd": true, "qualcomm": true,
}

var (
	companyIndicators = []string{"inc", "llc", "ltd", "corp", "corporation", "company",
		"technologies", "systems", "solutions", "services", "group",
		"enterprises", "industries", "international", "global"}
	nameURLMarkers    = []string{"http", "www", ".com", ".org", ".net", "@", "github.com", "linkedin.com"}
	headerLineMarkers = []string{"resume", "curriculum", "contact", "email", "phone", "address", "objective", "summary", "profile"}

	nameLinePunct = regexp.MustCompile(`[|•\-_]`)
	nonLetters    = regexp.MustCompile(`[^a-zA-Z\s]`)
)

// isCompanyOrNoise reports whether a candidate name is more likely a company,
// a section header, a sentence or a link.
func isCompanyOrNoise(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if nameBlacklist[lower] {
		return true
	}
	words := strings.Fields(lower)
	for _, w := range words {
		if nameBlacklist[w] {
			return true
		}
	}
	if containsAny(lower, companyIndicators) {
		return true
	}
	if len(words) > 4 {
		return true
	}
	return containsAny(lower, nameURLMarkers)
}

// ExtractCandidateName returns the first PERSON entity that lies within the
// first headerChars characters of text and is not company noise. Failing that it
// looks for a line of two to four capitalised words among the first eight lines.
func ExtractCandidateName(doc *nlp.Document, text string, headerChars int) string {
	header := text
	if headerChars > 0 && len(header) > headerChars {
		header = header[:headerChars]
	}

	if doc != nil {
		for _, e := range doc.Entities {
			if e.Label != nlp.LabelPerson || !strings.Contains(header, e.Text) {
				continue
			}
			if !isCompanyOrNoise(e.Text) {
				return e.Text
			}
		}
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 8 {
		lines = lines[:8]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || containsAny(strings.ToLower(line), headerLineMarkers) {
			continue
		}
		if strings.IndexFunc(line, unicode.IsDigit) >= 0 {
			continue
		}
		words := strings.Fields(nameLinePunct.ReplaceAllString(line, " "))
		if len(words) < 2 || len(words) > 4 || !allCapitalisedWords(words) {
			continue
		}
		if candidate := strings.Join(words, " "); !isCompanyOrNoise(candidate) {
			return candidate
		}
	}
	return UnknownCandidate
}

func allCapitalisedWords(words []string) bool {
	for _, w := range words {
		for i, r := range w {
			if !unicode.IsLetter(r) || (i == 0 && !unicode.IsUpper(r)) {
				return false
			}
		}
	}
	return true
}

// NewResumeID builds a readable id from the first and last words of name and
// four random hex digits, for example JaneDoe_3FA2.
func NewResumeID(name string) string {
	words := strings.Fields(nonLetters.ReplaceAllString(name, ""))
	var base string
	switch len(words) {
	case 0:
		base = "Resume"
	case 1:
		base = words[0]
	default:
		base = words[0] + words[len(words)-1]
	}
	if len(base) > 20 {
		base = base[:20]
	}

	id := uuid.New()
	return base + "_" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:4])
}
