// Package pipeline runs one resume through the screening stages: structure,
// linguistic quality, the quality gate, entity and skill extraction, and job
// description matching.
package pipeline

import (
	"fmt"
	"math"

	"resumescreen/internal/errors"
	"resumescreen/internal/jd"
	"resumescreen/internal/nlp"
)

// BlockKind classifies a non-empty line of the resume.
type BlockKind string

const (
	BlockBullet    BlockKind = "bullet"
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
)

// Block is one non-empty line with its layout kind.
type Block struct {
	Kind BlockKind `json:"type"`
	Text string    `json:"text"`
}

// LayoutSignals summarise the block structure of a resume.
type LayoutSignals struct {
	TotalBlocks    int     `json:"total_blocks"`
	BulletRatio    float64 `json:"bullet_ratio"`
	ParagraphRatio float64 `json:"paragraph_ratio"`
	LowStructure   bool    `json:"low_structure_flag"`
}

// UnitSentence is the only TextUnit kind produced today.
const UnitSentence = "sentence"

// TextUnit is one parsed sentence. Tokens are the parser's tokens for the
// sentence, so later stages read POS and lemmas without parsing again.
type TextUnit struct {
	Kind       string      `json:"unit_type"`
	Text       string      `json:"text"`
	IsFragment bool        `json:"is_fragment"`
	Tokens     []nlp.Token `json:"-"`
}

// Entities are the contact details and named entities found in a resume.
type Entities struct {
	Names         []string `json:"names"`
	Emails        []string `json:"emails"`
	Phones        []string `json:"phones"`
	Organizations []string `json:"organizations"`
	Dates         []string `json:"dates"`
}

// GateResult is the quality gate verdict. Reasons are filled for every run and
// only reported when the gate fails.
type GateResult struct {
	Valid   bool     `json:"is_valid"`
	Score   float64  `json:"quality_score"`
	Reasons []string `json:"reasons,omitempty"`
}

// ScoreBreakdown is the matching engine's result.
type ScoreBreakdown struct {
	SkillScore      float64  `json:"skill_score"`
	ExperienceScore float64  `json:"experience_score"`
	EducationScore  float64  `json:"education_score"`
	SemanticScore   float64  `json:"semantic_score"`
	TimelineScore   float64  `json:"timeline_score"`
	FinalScore      float64  `json:"final_score"`
	Decision        string   `json:"decision"`
	Reasons         []string `json:"reasons"`
}

// slot holds a value that may be written once.
type slot[T any] struct {
	name  string
	value T
	set   bool
}

func (s *slot[T]) put(v T) error {
	if s.set {
		return errors.NewInternalError(errors.ErrCodeContextConflict,
			fmt.Sprintf("pipeline context field %q written twice", s.name), nil)
	}
	s.value, s.set = v, true
	return nil
}

func (s *slot[T]) get() (T, bool) {
	return s.value, s.set
}

// need reads a slot an earlier stage must have filled, failing with the
// reading stage's error code otherwise.
func need[T any](s *slot[T], code string) (T, error) {
	v, ok := s.get()
	if !ok {
		return v, errors.NewPipelineError(code, fmt.Sprintf("%s not available", s.name), nil)
	}
	return v, nil
}

// Context accumulates the outputs of one pipeline run. Every field is written
// at most once and a Context is never reused across runs.
type Context struct {
	rawText           slot[string]
	doc               slot[*nlp.Document]
	blocks            slot[[]Block]
	layout            slot[LayoutSignals]
	units             slot[[]TextUnit]
	fragmentRatio     slot[float64]
	grammarScore      slot[float64]
	semanticRoleScore slot[float64]
	discourseScore    slot[float64]
	sectionScore      slot[float64]
	timelineScore     slot[float64]
	issues            slot[[]string]
	gate              slot[GateResult]
	entities          slot[Entities]
	experienceYears   slot[float64]
	skillConfidence   slot[map[string]float64]
	profile           slot[*jd.Profile]
	breakdown         slot[ScoreBreakdown]
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{
		rawText:           slot[string]{name: "raw_text"},
		doc:               slot[*nlp.Document]{name: "parse_handle"},
		blocks:            slot[[]Block]{name: "blocks"},
		layout:            slot[LayoutSignals]{name: "layout_signals"},
		units:             slot[[]TextUnit]{name: "units"},
		fragmentRatio:     slot[float64]{name: "fragment_ratio"},
		grammarScore:      slot[float64]{name: "grammar_score"},
		semanticRoleScore: slot[float64]{name: "semantic_role_score"},
		discourseScore:    slot[float64]{name: "discourse_score"},
		sectionScore:      slot[float64]{name: "section_behavior_score"},
		timelineScore:     slot[float64]{name: "timeline_risk_score"},
		issues:            slot[[]string]{name: "consistency_issues"},
		gate:              slot[GateResult]{name: "quality_score"},
		entities:          slot[Entities]{name: "entities"},
		experienceYears:   slot[float64]{name: "experience_years"},
		skillConfidence:   slot[map[string]float64]{name: "skill_confidence"},
		profile:           slot[*jd.Profile]{name: "jd_profile"},
		breakdown:         slot[ScoreBreakdown]{name: "final_score"},
	}
}

// Signals is a read-only copy of the quality signals gathered so far.
type Signals struct {
	Layout            LayoutSignals      `json:"layout_signals"`
	FragmentRatio     float64            `json:"fragment_ratio"`
	GrammarScore      float64            `json:"grammar_score"`
	SemanticRoleScore float64            `json:"semantic_role_score"`
	DiscourseScore    float64            `json:"discourse_score"`
	SectionScore      float64            `json:"section_behavior_score"`
	TimelineScore     float64            `json:"timeline_risk_score"`
	Issues            []string           `json:"consistency_issues,omitempty"`
	ExperienceYears   float64            `json:"experience_years"`
	Entities          *Entities          `json:"entities,omitempty"`
	SkillConfidence   map[string]float64 `json:"skill_confidence,omitempty"`
}

// Signals returns the signals recorded in the context. Unset fields are zero.
func (pc *Context) Signals() Signals {
	s := Signals{
		Layout:            pc.layout.value,
		FragmentRatio:     pc.fragmentRatio.value,
		GrammarScore:      pc.grammarScore.value,
		SemanticRoleScore: pc.semanticRoleScore.value,
		DiscourseScore:    pc.discourseScore.value,
		SectionScore:      pc.sectionScore.value,
		TimelineScore:     pc.timelineScore.value,
		Issues:            pc.issues.value,
		ExperienceYears:   pc.experienceYears.value,
		SkillConfidence:   pc.skillConfidence.value,
	}
	if e, ok := pc.entities.get(); ok {
		s.Entities = &e
	}
	return s
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
