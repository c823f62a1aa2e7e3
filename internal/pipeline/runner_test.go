package pipeline

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescreen/internal/errors"
	"resumescreen/internal/ingest"
	"resumescreen/internal/jd"
	"resumescreen/internal/nlp"
	"resumescreen/internal/types"
)

const strongResume = `Jane Doe
jane.doe@example.com
Experience
I built payment services with golang and kubernetes at Acme.
I developed kubernetes operators for internal platform teams.
I led migrations of billing systems to postgres databases.
I designed streaming pipelines for fraud detection models.
Education
B.Tech Computer Science 2016`

const skillDumpResume = "Skills\nGo Rust Python Kubernetes\nDocker Terraform AWS GCP\nJane Doe"

func testProfile() *jd.Profile {
	return &jd.Profile{
		Hash:              "abc",
		MandatorySkills:   []string{"kubernetes", "postgres", "rust"},
		OptionalSkills:    []string{"golang"},
		ExperienceRange:   &jd.ExperienceRange{Min: 3, Max: 6},
		EducationRequired: true,
		Embedding:         []float32{1, 0, 0},
	}
}

type runnerFixture struct {
	runner *Runner
	points *recordingCheckpointer
	rec    *recordingRecorder
}

func newFixture(parser nlp.Parser, embedder nlp.Embedder) runnerFixture {
	f := runnerFixture{points: &recordingCheckpointer{}, rec: &recordingRecorder{}}
	f.runner = NewRunner(
		ingest.New(1<<20, 0, errors.NewDiscardLogger()),
		parser,
		embedder,
		errors.NewDiscardLogger(),
		WithCheckpointer(f.points),
		WithRecorder(f.rec),
		WithCurrentYear(2025),
		WithClock(func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return f
}

func janeParser() lineParser {
	return lineParser{entities: []nlp.Entity{
		{Text: "Jane Doe", Label: nlp.LabelPerson},
		{Text: "Acme", Label: nlp.LabelOrg},
	}}
}

func TestRunTextShortlistsStrongResume(t *testing.T) {
	f := newFixture(janeParser(), constEmbedder{})

	out := f.runner.RunText(context.Background(), "jane.txt", strongResume, testProfile())
	require.NoError(t, out.Err)
	require.Equal(t, types.StatusProcessed, out.Status)

	sig := out.Signals
	assert.Equal(t, 0.44, sig.GrammarScore)
	assert.Equal(t, 0.8, sig.SemanticRoleScore)
	assert.Equal(t, 0.56, sig.FragmentRatio)
	assert.Equal(t, 1.0, sig.DiscourseScore)
	assert.Equal(t, 0.67, sig.SectionScore)
	assert.Equal(t, 1.0, sig.TimelineScore)
	assert.Equal(t, 1.0, sig.ExperienceYears)
	assert.Equal(t, map[string]float64{"kubernetes": 0.83, "postgres": 0.42, "golang": 0.42}, sig.SkillConfidence)

	require.NotNil(t, out.Gate)
	assert.True(t, out.Gate.Valid)
	assert.Equal(t, 0.74, out.Gate.Score)

	b := out.Breakdown
	require.NotNil(t, b)
	assert.InDelta(t, 0.7095, b.SkillScore, 1e-9)
	assert.Equal(t, 0.3, b.ExperienceScore)
	assert.Equal(t, 1.0, b.EducationScore)
	assert.InDelta(t, 1.0, b.SemanticScore, 1e-9)
	assert.Equal(t, 67.38, b.FinalScore)
	assert.Equal(t, types.DecisionShortlisted, b.Decision)

	d := out.Detail
	assert.Equal(t, "Jane Doe", d.CandidateName)
	assert.True(t, strings.HasPrefix(d.ID, "JaneDoe_"), d.ID)
	assert.Equal(t, "abc", d.JDHash)
	assert.Equal(t, "jane.txt", d.FilePath)
	assert.Equal(t, strongResume, d.ExtractedText)
	assert.Equal(t, types.StatusProcessed, d.Status)
	assert.Equal(t, types.DecisionShortlisted, d.Decision)
	require.NotNil(t, d.FinalScore)
	assert.Equal(t, 67.38, *d.FinalScore)
	require.NotNil(t, d.QualityScore)
	assert.Equal(t, 0.74, *d.QualityScore)
	assert.Empty(t, d.ErrorMessage)

	assert.Equal(t, &types.SkillData{
		Matched:     []string{"kubernetes", "postgres"},
		Missing:     []string{"rust"},
		AllJDSkills: []string{"kubernetes", "postgres", "rust", "golang"},
	}, d.SkillData)

	engines := map[string]float64{}
	for _, es := range d.EngineScores {
		assert.Equal(t, d.ID, es.ResumeID)
		assert.Len(t, es.ID, 32)
		engines[es.Engine] = es.Score
	}
	assert.Equal(t, map[string]float64{
		types.EngineSkillMatch:    70.95,
		types.EngineExperience:    30,
		types.EngineEducation:     100,
		types.EngineSemanticMatch: 100,
		types.EngineQualityGate:   74,
	}, engines)

	var messages []string
	for _, e := range d.Explanations {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{
		"Experience below job requirement",
		"Strong skill match with job requirements",
		"Resume content highly relevant to role",
	}, messages)

	assert.Equal(t, []checkpoint{
		{PhaseIngested, types.StatusProcessing},
		{PhaseGated, types.StatusProcessing},
		{PhaseScored, types.StatusProcessed},
	}, f.points.points)

	assert.Equal(t, []string{
		"parse", "structure", "segmentation", "grammar", "semantic_roles", "discourse",
		"section_behavior", "consistency", "quality_gate", "ner", "skill_intelligence", "matching",
	}, f.rec.stages)
	assert.Empty(t, f.rec.failedStages)
	assert.Equal(t, []string{types.StatusProcessed}, f.rec.outcomes)
	assert.Zero(t, f.rec.gateFailures)
}

func TestRunTextRejectsAtQualityGate(t *testing.T) {
	f := newFixture(lineParser{}, constEmbedder{})

	out := f.runner.RunText(context.Background(), "dump.txt", skillDumpResume, testProfile())
	require.NoError(t, out.Err)
	assert.Equal(t, types.StatusInvalidResume, out.Status)
	assert.Nil(t, out.Breakdown)

	require.NotNil(t, out.Gate)
	assert.False(t, out.Gate.Valid)
	assert.Equal(t, 0.0, out.Gate.Score)

	d := out.Detail
	assert.Equal(t, types.StatusInvalidResume, d.Status)
	assert.Equal(t, types.DecisionRejected, d.Decision)
	assert.Nil(t, d.FinalScore)
	assert.Nil(t, d.SkillData)
	assert.Empty(t, d.EngineScores)
	assert.Equal(t, "Quality gate failed: Poor grammar quality, Weak sentence structure, "+
		"Too many incomplete sentences, Overall quality below threshold", d.ErrorMessage)
	require.Len(t, d.Explanations, 4)
	assert.Equal(t, "Poor grammar quality", d.Explanations[0].Message)

	assert.Equal(t, []checkpoint{
		{PhaseIngested, types.StatusProcessing},
		{PhaseGated, types.StatusInvalidResume},
	}, f.points.points)
	assert.Equal(t, 1, f.rec.gateFailures)
	assert.NotContains(t, f.rec.stages, "ner")
	assert.Equal(t, []string{types.StatusInvalidResume}, f.rec.outcomes)
}

const bulletResume = `Jane Doe
Backend engineer who builds reliable distributed systems in Go and Python.
Experience
Senior Software Engineer, Acme Corp, 2019 - Present
- Built a caching layer with Redis that reduced checkout latency by 40%.
- Designed event pipelines on Kafka that processed two million messages daily.
- Led five engineers who migrated the billing platform to Kubernetes.
- Wrote integration tests that caught regressions before each release.
- Replaced a legacy cron system with workers that scaled across regions.
- Introduced tracing dashboards that shortened incident response.
Education
Bachelor of Science in Computer Science, University of Texas, 2015 - 2019
Skills
Go, Python, PostgreSQL, Redis, Kafka, Docker, Kubernetes`

func TestRunTextProseParserPassesBulletResume(t *testing.T) {
	ctx := context.Background()
	embedder := nlp.NewHashEmbedder(256)
	f := newFixture(nlp.NewProseParser(errors.NewDiscardLogger()), embedder)

	vecs, err := embedder.Embed(ctx, []string{"Backend engineer building Redis, Kafka and Kubernetes services"})
	require.NoError(t, err)
	profile := &jd.Profile{
		Hash:              "bullets",
		MandatorySkills:   []string{"redis", "kafka", "kubernetes"},
		ExperienceRange:   &jd.ExperienceRange{Min: 2, Max: 8},
		EducationRequired: true,
		Embedding:         vecs[0],
	}

	out := f.runner.RunText(ctx, "bullets.txt", bulletResume, profile)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Gate)
	require.Equal(t, types.StatusProcessed, out.Status, "gate: %+v signals: %+v", *out.Gate, out.Signals)

	assert.True(t, out.Gate.Valid)
	assert.GreaterOrEqual(t, out.Signals.GrammarScore, MinGrammarScore)
	assert.GreaterOrEqual(t, out.Signals.SemanticRoleScore, MinSemanticRoleScore)
	assert.GreaterOrEqual(t, out.Gate.Score, MinQualityScore)
	require.NotNil(t, out.Breakdown)
	assert.NotNil(t, out.Detail.FinalScore)
	assert.Equal(t, []string{types.StatusProcessed}, f.rec.outcomes)
}

func TestRunTextFailures(t *testing.T) {
	boom := stderrors.New("boom")

	tests := []struct {
		name        string
		parser      nlp.Parser
		embedder    nlp.Embedder
		text        string
		wantCode    string
		wantMessage string
		wantStage   string
	}{
		{
			name:        "parser failure",
			parser:      lineParser{err: boom},
			embedder:    constEmbedder{},
			text:        strongResume,
			wantCode:    errors.ErrCodeNLPParse,
			wantMessage: "Text analysis failed. Please ensure the resume contains readable text.",
			wantStage:   "parse",
		},
		{
			name:        "embedder failure",
			parser:      janeParser(),
			embedder:    constEmbedder{err: boom},
			text:        strongResume,
			wantCode:    errors.ErrCodeDiscourse,
			wantMessage: "Processing error: failed to embed sentences",
			wantStage:   "discourse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.parser, tt.embedder)
			out := f.runner.RunText(context.Background(), "x.txt", tt.text, testProfile())

			assert.Equal(t, types.StatusError, out.Status)
			assert.True(t, errors.HasCode(out.Err, tt.wantCode), "%v", out.Err)
			assert.ErrorIs(t, out.Err, boom)
			assert.Equal(t, types.StatusError, out.Detail.Status)
			assert.Equal(t, tt.wantMessage, out.Detail.ErrorMessage)
			assert.Nil(t, out.Breakdown)
			assert.Equal(t, []string{tt.wantStage}, f.rec.failedStages)

			require.NotEmpty(t, f.points.points)
			last := f.points.points[len(f.points.points)-1]
			assert.Equal(t, checkpoint{PhaseFailed, types.StatusError}, last)
		})
	}
}

func TestRunTextCancelled(t *testing.T) {
	f := newFixture(janeParser(), constEmbedder{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := f.runner.RunText(ctx, "x.txt", strongResume, testProfile())
	assert.Equal(t, types.StatusError, out.Status)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, []checkpoint{{PhaseFailed, types.StatusError}}, f.points.points)
}

func TestRunIngestsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jane.txt")
	require.NoError(t, os.WriteFile(path, []byte(strongResume+"\n"), 0o600))

	f := newFixture(janeParser(), constEmbedder{})
	out := f.runner.Run(context.Background(), path, testProfile())

	require.NoError(t, out.Err)
	assert.Equal(t, types.StatusProcessed, out.Status)
	assert.Equal(t, 67.38, out.Breakdown.FinalScore)
	assert.Equal(t, path, out.Detail.FilePath)
	assert.Equal(t, "ingestion", f.rec.stages[0])
}

func TestRunMissingFile(t *testing.T) {
	f := newFixture(janeParser(), constEmbedder{})
	out := f.runner.Run(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), testProfile())

	assert.Equal(t, types.StatusError, out.Status)
	assert.True(t, errors.HasCode(out.Err, errors.ErrCodeIngestion))
	assert.Equal(t, "File processing failed: File not found", out.Detail.ErrorMessage)
	assert.True(t, strings.HasPrefix(out.Detail.ID, "Resume_"), out.Detail.ID)
	assert.Equal(t, UnknownCandidate, out.Detail.CandidateName)
	assert.Equal(t, "abc", out.Detail.JDHash)
	assert.Equal(t, []checkpoint{{PhaseFailed, types.StatusError}}, f.points.points)
	assert.Equal(t, []string{"ingestion"}, f.rec.failedStages)
}

func TestRunTextIsDeterministic(t *testing.T) {
	f := newFixture(janeParser(), constEmbedder{})
	first := f.runner.RunText(context.Background(), "a.txt", strongResume, testProfile())
	second := f.runner.RunText(context.Background(), "a.txt", strongResume, testProfile())

	assert.Equal(t, first.Signals, second.Signals)
	assert.Equal(t, *first.Breakdown, *second.Breakdown)
	assert.Equal(t, first.Detail.SkillData, second.Detail.SkillData)
	assert.NotEqual(t, first.Detail.ID, second.Detail.ID)
}

func TestRunTextTruncatesStoredText(t *testing.T) {
	f := newFixture(janeParser(), constEmbedder{})
	f.runner.textLimit = 8

	out := f.runner.RunText(context.Background(), "a.txt", strongResume, testProfile())
	assert.Equal(t, "Jane Doe", out.Detail.ExtractedText)
	assert.Equal(t, types.StatusProcessed, out.Status)
}

func TestExtractCandidateName(t *testing.T) {
	tests := []struct {
		name     string
		entities []nlp.Entity
		text     string
		want     string
	}{
		{
			name:     "person entity in header",
			entities: []nlp.Entity{{Text: "Priya Raman", Label: nlp.LabelPerson}},
			text:     "Priya Raman\npriya@example.com\nSummary",
			want:     "Priya Raman",
		},
		{
			name: "company entity skipped for capitalised line",
			entities: []nlp.Entity{
				{Text: "Globex Solutions", Label: nlp.LabelPerson},
			},
			text: "Globex Solutions\nRavi Kumar\nI built things",
			want: "Ravi Kumar",
		},
		{
			name: "header markers and digits skipped",
			text: "Curriculum Vitae\nPhone 555 1234\nMaria Lopez Garcia",
			want: "Maria Lopez Garcia",
		},
		{
			name:     "person beyond the header ignored",
			entities: []nlp.Entity{{Text: "Tom Hardy", Label: nlp.LabelPerson}},
			text:     strings.Repeat("x", 900) + "\nworked with Tom Hardy daily",
			want:     UnknownCandidate,
		},
		{
			name: "nothing usable",
			text: "resume\nskills: go, rust",
			want: UnknownCandidate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &nlp.Document{Entities: tt.entities}
			assert.Equal(t, tt.want, ExtractCandidateName(doc, tt.text, 800))
		})
	}
}

func TestNewResumeID(t *testing.T) {
	tests := []struct {
		name       string
		wantPrefix string
	}{
		{"Jane Doe", "JaneDoe_"},
		{"Mary Ann O'Neil", "MaryONeil_"},
		{"Cher", "Cher_"},
		{"", "Resume_"},
		{"Wolfeschlegelsteinhausen Bergerdorff", "WolfeschlegelsteinhausenBergerdorff"[:20] + "_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewResumeID(tt.name)
			assert.True(t, strings.HasPrefix(id, tt.wantPrefix), id)
			assert.Len(t, id, len(tt.wantPrefix)+4)
			assert.Regexp(t, `_[0-9A-F]{4}$`, id)
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Quality check failed: quality_score not available",
		UserMessage(errors.NewPipelineError(errors.ErrCodeQualityGate, "quality_score not available", nil)))
	assert.Equal(t, "Processing error: boom", UserMessage(stderrors.New("boom")))
}
