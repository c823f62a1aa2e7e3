package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescreen/internal/errors"
	"resumescreen/internal/jd"
	"resumescreen/internal/nlp"
	"resumescreen/internal/types"
)

func TestAnalyzeStructure(t *testing.T) {
	text := "Jane Doe\n\nWork Experience\n• Built payment services\n1. Led migrations\na) Wrote docs\n" +
		"I enjoy building reliable distributed systems in Go every day\n   \n"

	blocks, layout, err := AnalyzeStructure(text)
	require.NoError(t, err)

	assert.Equal(t, []Block{
		{Kind: BlockParagraph, Text: "Jane Doe"},
		{Kind: BlockHeading, Text: "Work Experience"},
		{Kind: BlockBullet, Text: "- Built payment services"},
		{Kind: BlockBullet, Text: "1. Led migrations"},
		{Kind: BlockBullet, Text: "a) Wrote docs"},
		{Kind: BlockParagraph, Text: "I enjoy building reliable distributed systems in Go every day"},
	}, blocks)
	assert.Equal(t, LayoutSignals{TotalBlocks: 6, BulletRatio: 0.5, ParagraphRatio: 0.33, LowStructure: false}, layout)
}

func TestAnalyzeStructureErrors(t *testing.T) {
	for _, text := range []string{"", "\n  \n\t\n"} {
		_, _, err := AnalyzeStructure(text)
		assert.True(t, errors.HasCode(err, errors.ErrCodeStructure), "%q", text)
	}

	_, layout, err := AnalyzeStructure("Skills\nGo")
	require.NoError(t, err)
	assert.True(t, layout.LowStructure)
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want BlockKind
	}{
		{"   ", ""},
		{"- item", BlockBullet},
		{"  12. item", BlockBullet},
		{"b) item", BlockBullet},
		{"EDUCATION", BlockHeading},
		{"Projects and Certifications", BlockHeading},
		{"Five years of relevant experience in fintech", BlockParagraph},
		{"Jane Doe", BlockParagraph},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyLine(tt.line))
		})
	}
}

func TestSegment(t *testing.T) {
	doc := parseLines("Jane Doe\nI built payment services with golang.\nGo Rust SQL Docker")

	units, fragments, err := Segment(doc)
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.True(t, units[0].IsFragment, "too short")
	assert.False(t, units[1].IsFragment)
	assert.True(t, units[2].IsFragment, "no verb")
	assert.Equal(t, UnitSentence, units[1].Kind)
	assert.Equal(t, 0.67, fragments)

	_, _, err = Segment(&nlp.Document{Sentences: []nlp.Sentence{{Text: "  "}}})
	assert.True(t, errors.HasCode(err, errors.ErrCodeSegmentation))
}

func TestGrammarScore(t *testing.T) {
	score, err := GrammarScore(parseLines("I built payment services.\nGo Rust SQL\nI led migrations to postgres."))
	require.NoError(t, err)
	assert.Equal(t, 0.67, score)

	_, err = GrammarScore(&nlp.Document{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeGrammar))
}

func TestSemanticRoleScore(t *testing.T) {
	text := "Jane Doe\n" + // fewer than three words, ignored
		"I built payment services.\n" + // actor, action and object
		"I have golang experience.\n" + // weak verb only
		"Go Rust SQL Docker" // no action
	score, err := SemanticRoleScore(parseLines(text))
	require.NoError(t, err)
	assert.Equal(t, 0.33, score)

	_, err = SemanticRoleScore(parseLines("Jane Doe\nGo"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeSemanticRole))
}

func TestAnalyzeRoles(t *testing.T) {
	roles := AnalyzeRoles(parseLines("I built payment services with golang.").Sentences[0])
	assert.Equal(t, SemanticRoles{Actor: true, Action: true, Object: true, Context: true}, roles)
	assert.True(t, roles.Valid())

	assert.False(t, SemanticRoles{Actor: true, Object: true}.Valid())
	assert.False(t, SemanticRoles{Action: true}.Valid())
}

func TestDiscourseScore(t *testing.T) {
	ctx := context.Background()
	a := "I built payment services with golang."
	b := "I led migrations of billing systems."
	c := "I designed streaming pipelines for fraud models."

	t.Run("fewer than three sentences", func(t *testing.T) {
		score, err := DiscourseScore(ctx, constEmbedder{}, unitsOf(a+"\n"+b+"\nGo Rust"))
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("mean of consecutive similarities", func(t *testing.T) {
		emb := mapEmbedder{
			a: {1, 0},
			b: {1, 0},
			c: {0, 1},
		}
		score, err := DiscourseScore(ctx, emb, unitsOf(a+"\n"+b+"\n"+c))
		require.NoError(t, err)
		assert.Equal(t, 0.5, score)
	})

	t.Run("no units", func(t *testing.T) {
		_, err := DiscourseScore(ctx, constEmbedder{}, nil)
		assert.True(t, errors.HasCode(err, errors.ErrCodeDiscourse))
	})
}

func TestSectionBehavior(t *testing.T) {
	units := unitsOf("Go Rust SQL Docker\n" +
		"I built payment services.\n" +
		"Bachelor of Science\n" +
		"Acme Payments 2019")

	assert.Equal(t, SectionSkills, AnalyzeBehavior(units[0]).InferredSection)
	assert.Equal(t, SectionExperience, AnalyzeBehavior(units[1]).InferredSection)
	assert.Equal(t, SectionEducation, AnalyzeBehavior(units[2]).InferredSection)
	assert.Equal(t, SectionEducation, AnalyzeBehavior(units[3]).InferredSection)
	assert.Equal(t, UnitBehavior{VerbDensity: 0.2, NounDensity: 0.4, InferredSection: SectionExperience}, AnalyzeBehavior(units[1]))

	score, err := SectionBehaviorScore(units)
	require.NoError(t, err)
	assert.Equal(t, 0.75, score)

	_, err = SectionBehaviorScore(nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSectionBehavior))
}

func TestCheckTimeline(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		year       int
		wantScore  float64
		wantIssues []string
	}{
		{
			name:       "consistent",
			text:       "Bachelor of Science, University of Texas 2015\nSenior engineer with 8 years of experience",
			wantScore:  1.0,
			wantIssues: []string{},
		},
		{
			name:       "experience exceeds graduation",
			text:       "Bachelor of Science, University of Texas 2019\nSenior engineer with 8 years of experience",
			wantScore:  0.75,
			wantIssues: []string{"Experience duration exceeds time since graduation"},
		},
		{
			name:       "future graduation only",
			text:       "Bachelor of Science, University of Texas 2030\nBackend engineer building payment services",
			year:       2024,
			wantScore:  0.75,
			wantIssues: []string{"Future education year detected: 2030"},
		},
		{
			name:      "every issue",
			text:      "B.Tech in Computer Science 2030\nOver 45 years of experience",
			wantScore: 0.25,
			wantIssues: []string{
				"Future education year detected: 2030",
				"Unrealistic experience claim: 45 years",
				"Experience duration exceeds time since graduation",
			},
		},
		{
			name:      "floored at zero",
			text:      "Degree 2031 2032 2033\n50 years and 60 years",
			wantScore: 0,
			wantIssues: []string{
				"Future education year detected: 2031",
				"Future education year detected: 2032",
				"Future education year detected: 2033",
				"Unrealistic experience claim: 50 years",
				"Unrealistic experience claim: 60 years",
				"Experience duration exceeds time since graduation",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year := tt.year
			if year == 0 {
				year = 2025
			}
			score, issues, err := CheckTimeline(unitsOf(tt.text), year)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantIssues, issues)
		})
	}

	_, _, err := CheckTimeline(nil, 2025)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConsistency))
}

func TestEvaluateGate(t *testing.T) {
	tests := []struct {
		name        string
		in          GateInputs
		wantValid   bool
		wantScore   float64
		wantReasons []string
	}{
		{
			name:      "strong resume",
			in:        GateInputs{Grammar: 0.9, SemanticRole: 0.9, SectionBehavior: 0.9, Discourse: 0.9, Timeline: 1.0, FragmentRatio: 0.1},
			wantValid: true,
			wantScore: 0.91,
		},
		{
			name:        "poor grammar rejects regardless of score",
			in:          GateInputs{Grammar: 0.15, SemanticRole: 0.9, SectionBehavior: 0.9, Discourse: 0.9, Timeline: 1.0, FragmentRatio: 0.1},
			wantValid:   false,
			wantScore:   0.72,
			wantReasons: []string{"Poor grammar quality"},
		},
		{
			name:        "fragment penalty",
			in:          GateInputs{Grammar: 0.4, SemanticRole: 0.6, SectionBehavior: 0.5, Discourse: 0.5, Timeline: 1.0, FragmentRatio: 0.9},
			wantValid:   false,
			wantScore:   0.25,
			wantReasons: []string{"Too many incomplete sentences", "Overall quality below threshold"},
		},
		{
			name:      "clamped at zero",
			in:        GateInputs{FragmentRatio: 1.0},
			wantValid: false,
			wantScore: 0,
			wantReasons: []string{
				"Poor grammar quality",
				"Weak sentence structure",
				"Too many incomplete sentences",
				"Overall quality below threshold",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateGate(tt.in)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantReasons, got.Reasons)
		})
	}
}

func TestGateFailureMessage(t *testing.T) {
	assert.Equal(t, "Resume quality below minimum standards", GateResult{}.FailureMessage())
	assert.Equal(t, "Quality gate failed: Poor grammar quality, Weak sentence structure",
		GateResult{Reasons: []string{"Poor grammar quality", "Weak sentence structure"}}.FailureMessage())
}

func TestExtractEntities(t *testing.T) {
	doc := &nlp.Document{Entities: []nlp.Entity{
		{Text: "Jane Doe", Label: nlp.LabelPerson},
		{Text: "Acme Inc", Label: nlp.LabelOrg},
		{Text: "Acme Inc", Label: nlp.LabelOrg},
		{Text: "2019", Label: nlp.LabelDate},
		{Text: "Austin", Label: nlp.LabelGPE},
	}}
	units := unitsOf("Jane Doe jane@example.com +91 9876543210\n" +
		"jane@example.com\n" +
		"I built payment services at Acme Inc with 5 years of golang and 6.5 years overall.")

	ents, years, err := ExtractEntities(doc, units)
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com"}, ents.Emails)
	assert.Equal(t, []string{"+91 9876543210"}, ents.Phones)
	assert.Equal(t, []string{"Jane Doe"}, ents.Names)
	assert.Equal(t, []string{"Acme Inc"}, ents.Organizations)
	assert.Equal(t, []string{"2019"}, ents.Dates)
	assert.Equal(t, 6.5, years)

	_, _, err = ExtractEntities(doc, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNER))
}

func TestExperienceYears(t *testing.T) {
	assert.Equal(t, 4.0, ExperienceYears([]string{"Acme 2019 - 2023", "Initech 2021"}))
	assert.Equal(t, 1.0, ExperienceYears([]string{"Graduated 2022"}))
	assert.Equal(t, 0.0, ExperienceYears([]string{"Graduated in 1999"}))
	assert.Equal(t, 3.0, ExperienceYears([]string{"3+ years with Go", "1 year of Rust"}))
}

func TestScoreSkillEvidence(t *testing.T) {
	units := unitsOf("I built payment services with golang and kubernetes.\n" +
		"I developed kubernetes operators.\n" +
		"kubernetes golang postgres\n" +
		"I have golang experience.")
	profile := &jd.Profile{
		MandatorySkills: []string{"kubernetes", "rust"},
		OptionalSkills:  []string{"golang", "kubernetes", "postgres"},
	}

	conf, err := ScoreSkillEvidence(units, profile)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"kubernetes": 1.0,  // 3 mentions, 2 with action verbs
		"golang":     0.75, // 3 mentions, 1 with an action verb
		"postgres":   0.17, // 1 mention, none active
	}, conf)

	_, err = ScoreSkillEvidence(nil, profile)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSkill))
}

func TestSkillScore(t *testing.T) {
	tests := []struct {
		name       string
		confidence map[string]float64
		profile    *jd.Profile
		want       float64
	}{
		{
			name:       "no skills at all",
			confidence: map[string]float64{},
			profile:    &jd.Profile{},
			want:       0.7,
		},
		{
			name:       "every mandatory skill evidenced",
			confidence: map[string]float64{"go": 0.5, "sql": 1.0},
			profile:    &jd.Profile{MandatorySkills: []string{"go", "sql"}},
			want:       0.75,
		},
		{
			name:       "partial match through substring",
			confidence: map[string]float64{"node.js": 0.5},
			profile:    &jd.Profile{MandatorySkills: []string{"node", "rust"}},
			// credit 0.75 over 2 skills, half matched: 0.375 * 1.1 * 0.75
			want: 0.309375,
		},
		{
			name:       "optional only",
			confidence: map[string]float64{"docker": 0.4},
			profile:    &jd.Profile{OptionalSkills: []string{"docker", "helm"}},
			want:       0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SkillScore(tt.confidence, tt.profile), 1e-9)
		})
	}
}

func TestExperienceScore(t *testing.T) {
	rng := &jd.ExperienceRange{Min: 3, Max: 5}
	tests := []struct {
		name  string
		years float64
		rng   *jd.ExperienceRange
		want  float64
	}{
		{"no range", 2, nil, 0.8},
		{"no experience", 0, rng, 0.3},
		{"within range", 4, rng, 1.0},
		{"at minimum", 3, rng, 1.0},
		{"slightly below", 2.4, rng, 0.4},
		{"far below", 1, rng, 0.3},
		{"above range", 9, rng, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ExperienceScore(tt.years, tt.rng), 1e-9)
		})
	}
}

func TestEducationScore(t *testing.T) {
	assert.Equal(t, 1.0, EducationScore(false, Entities{}))
	assert.Equal(t, 1.0, EducationScore(true, Entities{Dates: []string{"2019"}}))
	assert.Equal(t, 1.0, EducationScore(true, Entities{Organizations: []string{"MIT"}}))
	assert.Equal(t, 0.6, EducationScore(true, Entities{}))
}

func TestSemanticScore(t *testing.T) {
	jdVec := []float32{1, 0}
	units := [][]float32{{1, 0}, {0, 1}, {1, 1}, {1, 0}}
	// top three: 1, 1, 0.7071
	assert.InDelta(t, (2+0.70710678)/3, SemanticScore(units, jdVec), 1e-6)
	assert.InDelta(t, 0.0, SemanticScore([][]float32{{0, 1}}, jdVec), 1e-9)
	assert.Equal(t, 0.0, SemanticScore(nil, jdVec))
}

func TestDecide(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, types.DecisionShortlisted},
		{60, types.DecisionShortlisted},
		{59.99, types.DecisionReview},
		{40, types.DecisionReview},
		{39.99, types.DecisionRejected},
		{0, types.DecisionRejected},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decide(tt.score), "score %v", tt.score)
	}
}

func TestMatch(t *testing.T) {
	profile := &jd.Profile{
		MandatorySkills:   []string{"go"},
		ExperienceRange:   &jd.ExperienceRange{Min: 2, Max: 6},
		EducationRequired: true,
		Embedding:         []float32{1, 0},
	}

	t.Run("shortlisted with positive reasons", func(t *testing.T) {
		b, err := Match(MatchInputs{
			SkillConfidence: map[string]float64{"go": 1.0},
			Profile:         profile,
			ExperienceYears: 4,
			Entities:        Entities{Organizations: []string{"Acme"}},
			UnitEmbeddings:  [][]float32{{1, 0}},
			Timeline:        1.0,
		})
		require.NoError(t, err)
		// mandatory-only skill score tops out at 0.75
		assert.Equal(t, 90.0, b.FinalScore)
		assert.Equal(t, types.DecisionShortlisted, b.Decision)
		assert.Equal(t, []string{
			"Strong skill match with job requirements",
			"Experience aligns well with requirements",
			"Resume content highly relevant to role",
		}, b.Reasons)
	})

	t.Run("timeline penalty and negative reasons", func(t *testing.T) {
		b, err := Match(MatchInputs{
			SkillConfidence: map[string]float64{},
			Profile:         profile,
			ExperienceYears: 0,
			UnitEmbeddings:  [][]float32{{0, 1}},
			Timeline:        0.75,
		})
		require.NoError(t, err)
		// 0.40*0 + 0.30*0.3 + 0.15*0.6 + 0.15*0 = 0.18, times 0.75
		assert.Equal(t, 13.5, b.FinalScore)
		assert.Equal(t, types.DecisionRejected, b.Decision)
		assert.Equal(t, []string{
			"Low relevance of required skills",
			"Experience below job requirement",
			"Low semantic alignment with job role",
			"Timeline inconsistency detected",
		}, b.Reasons)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := Match(MatchInputs{SkillConfidence: map[string]float64{}})
		assert.True(t, errors.HasCode(err, errors.ErrCodeMatching))
	})
}

func TestBuildSkillData(t *testing.T) {
	profile := &jd.Profile{
		MandatorySkills: []string{"go", "sql", "rust"},
		OptionalSkills:  []string{"a1", "a2", "a3", "a4", "a5", "a6"},
	}
	sd := BuildSkillData(profile, map[string]float64{"go": 0.83, "sql": 0.3})
	assert.Equal(t, []string{"go"}, sd.Matched)
	assert.Equal(t, []string{"sql", "rust"}, sd.Missing)
	assert.Equal(t, []string{"go", "sql", "rust", "a1", "a2", "a3", "a4", "a5"}, sd.AllJDSkills)
}

func TestContextWriteOnce(t *testing.T) {
	pc := NewContext()
	require.NoError(t, pc.grammarScore.put(0.5))
	err := pc.grammarScore.put(0.6)
	assert.True(t, errors.HasCode(err, errors.ErrCodeContextConflict))

	v, ok := pc.grammarScore.get()
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	_, err = need(&pc.units, errors.ErrCodeNER)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNER))
}
