// Package jd builds job description profiles: required and optional skills, the
// experience range, the education requirement and a document embedding.
package jd

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"resumescreen/internal/errors"
	"resumescreen/internal/nlp"
)

var experienceRangePattern = regexp.MustCompile(`(\d+)\s*[-to]+\s*(\d+)\s*years`)

var (
	mandatoryWords    = []string{"must", "required", "mandatory", "essential", "need", "requires", "require"}
	optionalWords     = []string{"preferred", "plus", "bonus", "nice to have", "optional", "ideal", "stand out"}
	mandatoryHeadings = []string{"basic qualifications", "required qualifications", "requirements",
		"minimum qualifications", "must have", "required skills"}
	optionalHeadings = []string{"preferred qualifications", "nice to have", "bonus", "preferred skills",
		"what makes you stand out", "ideal candidate", "plus"}
)

// ExperienceRange is the years-of-experience band a posting asks for.
type ExperienceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Profile is the analysed form of one job description. It is not modified after
// Analyze returns it.
type Profile struct {
	Hash              string           `json:"hash"`
	MandatorySkills   []string         `json:"mandatory_skills"`
	OptionalSkills    []string         `json:"optional_skills"`
	ExperienceRange   *ExperienceRange `json:"experience_range,omitempty"`
	EducationRequired bool             `json:"education_required"`
	Embedding         []float32        `json:"embedding,omitempty"`
}

// Skills returns the mandatory and optional skills without duplicates, mandatory first.
func (p *Profile) Skills() []string {
	seen := make(map[string]bool, len(p.MandatorySkills)+len(p.OptionalSkills))
	var out []string
	for _, s := range append(slices.Clone(p.MandatorySkills), p.OptionalSkills...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Hash returns the 16 hex character content hash that groups resumes screened
// against the same posting.
func Hash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

// Analyzer turns job description text into a Profile.
type Analyzer struct {
	parser   nlp.Parser
	embedder nlp.Embedder
	space    string
	cache    *Cache
	logger   *errors.Logger
}

// NewAnalyzer creates an Analyzer. cache may be nil. Cached profiles are keyed by
// content hash and embedder identity, so analyzers with different embedders can
// share one cache.
func NewAnalyzer(parser nlp.Parser, embedder nlp.Embedder, cache *Cache, logger *errors.Logger) *Analyzer {
	return &Analyzer{
		parser:   parser,
		embedder: embedder,
		space:    nlp.EmbedderIdentity(embedder),
		cache:    cache,
		logger:   logger,
	}
}

func jdError(message string, cause error) *errors.AppError {
	return errors.NewPipelineError(errors.ErrCodeJD, message, cause)
}

// Analyze builds the profile for text, consulting the cache first when one is set.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Profile, error) {
	if strings.TrimSpace(text) == "" {
		return nil, jdError("Job description text not provided", nil)
	}

	hash := Hash(text)
	key := hash + ":" + a.space
	if profile, ok := a.cache.Get(ctx, key); ok {
		a.logger.Debug("Job description profile served from cache", "jd_hash", hash, "embedder", a.space)
		return profile, nil
	}

	doc, err := a.parser.Parse(ctx, text)
	if err != nil {
		return nil, jdError("failed to parse job description", err)
	}

	skills := ExtractSkills(doc)
	mandatory, optional := ClassifySkills(text, skills)

	profile := &Profile{
		Hash:              hash,
		MandatorySkills:   mandatory,
		OptionalSkills:    optional,
		ExperienceRange:   parseExperienceRange(text),
		EducationRequired: containsAny(strings.ToLower(text), educationKeywords),
	}

	vectors, err := a.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, jdError("failed to embed job description", err)
	}
	if len(vectors) != 1 {
		return nil, jdError("embedder returned no vector for job description", nil)
	}
	profile.Embedding = vectors[0]

	a.logger.Info("Analyzed job description",
		"jd_hash", hash,
		"mandatory_skills", len(mandatory),
		"optional_skills", len(optional),
		"education_required", profile.EducationRequired)

	a.cache.Set(ctx, key, profile)
	return profile, nil
}

// ExtractSkills collects skill candidates from noun chunks and from non-stopword
// noun tokens. The result is lowercase, unique and sorted.
func ExtractSkills(doc *nlp.Document) []string {
	found := make(map[string]bool)
	for _, chunk := range doc.NounChunks() {
		clean := strings.ToLower(strings.TrimSpace(chunk))
		if IsLikelySkill(clean) {
			found[clean] = true
		}
	}
	for _, tok := range doc.Tokens() {
		if tok.IsStop || (tok.POS != nlp.POSNoun && tok.POS != nlp.POSPropn) {
			continue
		}
		text := strings.TrimSpace(tok.Text)
		if IsLikelySkill(text) {
			found[strings.ToLower(text)] = true
		}
	}

	skills := make([]string, 0, len(found))
	for s := range found {
		skills = append(skills, s)
	}
	slices.Sort(skills)
	return skills
}

// ClassifySkills splits skills into mandatory and optional using the section
// heading a line falls under, or keyword cues on the line when no heading applies.
// Heading lines themselves are not scanned. A skill may land in both lists, and
// skills never classified default to optional.
func ClassifySkills(text string, skills []string) (mandatory, optional []string) {
	section := ""
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))

		if containsAny(lower, mandatoryHeadings) {
			section = "mandatory"
			continue
		}
		if containsAny(lower, optionalHeadings) {
			section = "optional"
			continue
		}

		for _, skill := range skills {
			if !strings.Contains(lower, skill) {
				continue
			}
			switch {
			case section == "mandatory":
				mandatory = appendUnique(mandatory, skill)
			case section == "optional":
				optional = appendUnique(optional, skill)
			case containsAny(lower, mandatoryWords):
				mandatory = appendUnique(mandatory, skill)
			case containsAny(lower, optionalWords):
				optional = appendUnique(optional, skill)
			}
		}
	}

	for _, skill := range skills {
		if !slices.Contains(mandatory, skill) && !slices.Contains(optional, skill) {
			optional = append(optional, skill)
		}
	}
	return mandatory, optional
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}

func parseExperienceRange(text string) *ExperienceRange {
	m := experienceRangePattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return nil
	}
	lo, err1 := strconv.Atoi(m[1])
	hi, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return nil
	}
	return &ExperienceRange{Min: lo, Max: hi}
}
