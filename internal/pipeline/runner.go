package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resumescreen/internal/errors"
	"resumescreen/internal/ingest"
	"resumescreen/internal/jd"
	"resumescreen/internal/nlp"
	"resumescreen/internal/types"
)

// DefaultExplanation is recorded when a processed resume has no reasons.
const DefaultExplanation = "Resume meets all structural and job requirements"

// Phase names a checkpoint in a run.
type Phase string

const (
	PhaseIngested Phase = "ingested"
	PhaseGated    Phase = "gated"
	PhaseScored   Phase = "scored"
	PhaseFailed   Phase = "failed"
)

// Checkpointer persists the resume record as a run progresses.
type Checkpointer interface {
	Checkpoint(ctx context.Context, phase Phase, detail *types.ResumeDetail) error
}

// Recorder receives pipeline metrics.
type Recorder interface {
	RecordStage(ctx context.Context, stage string, duration time.Duration, err error)
	RecordOutcome(ctx context.Context, status, decision string, finalScore float64)
	RecordGateFailure(ctx context.Context)
}

// Outcome is the tagged result of one run. Status is PROCESSED, INVALID_RESUME
// or ERROR; Breakdown is set only for PROCESSED, Err only for ERROR.
type Outcome struct {
	Status    string
	Detail    types.ResumeDetail
	Gate      *GateResult
	Breakdown *ScoreBreakdown
	Signals   Signals
	Err       error
}

// Runner executes the pipeline for one resume at a time. A Runner is safe for
// concurrent use when its parser, embedder, checkpointer and recorder are.
type Runner struct {
	ingester     *ingest.Ingester
	parser       nlp.Parser
	embedder     nlp.Embedder
	checkpointer Checkpointer
	recorder     Recorder
	logger       *errors.Logger
	tracer       trace.Tracer
	now          func() time.Time
	currentYear  int
	textLimit    int
	headerChars  int
}

// Option configures a Runner.
type Option func(*Runner)

// WithCheckpointer persists progress through c.
func WithCheckpointer(c Checkpointer) Option {
	return func(r *Runner) { r.checkpointer = c }
}

// WithRecorder reports stage timings and outcomes to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithCurrentYear pins the year used by the timeline checker. Zero uses the clock.
func WithCurrentYear(year int) Option {
	return func(r *Runner) { r.currentYear = year }
}

// WithTextLimit caps how much extracted text is stored on the record.
func WithTextLimit(n int) Option {
	return func(r *Runner) { r.textLimit = n }
}

// WithHeaderChars sets how far into the text a PERSON entity may start to be
// taken as the candidate name.
func WithHeaderChars(n int) Option {
	return func(r *Runner) { r.headerChars = n }
}

// NewRunner creates a Runner.
func NewRunner(ingester *ingest.Ingester, parser nlp.Parser, embedder nlp.Embedder, logger *errors.Logger, opts ...Option) *Runner {
	r := &Runner{
		ingester:    ingester,
		parser:      parser,
		embedder:    embedder,
		logger:      logger,
		tracer:      otel.Tracer("resumescreen.pipeline"),
		now:         time.Now,
		textLimit:   5000,
		headerChars: 800,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ingests the file at path and screens it against profile.
func (r *Runner) Run(ctx context.Context, path string, profile *jd.Profile) *Outcome {
	var text string
	err := r.stage(ctx, "ingestion", func(ctx context.Context) error {
		var err error
		text, err = r.ingester.ExtractFile(ctx, path)
		return err
	})
	if err != nil {
		rec := r.newRecord(NewResumeID(""), path, profile)
		return r.fail(ctx, &Outcome{Detail: types.ResumeDetail{ResumeRecord: rec}}, err)
	}
	return r.RunText(ctx, path, text, profile)
}

// RunText screens already extracted text. path is recorded on the resume only.
func (r *Runner) RunText(ctx context.Context, path, text string, profile *jd.Profile) *Outcome {
	ctx, span := r.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	pc := NewContext()
	out := &Outcome{}

	var doc *nlp.Document
	parseErr := r.stage(ctx, "parse", func(ctx context.Context) error {
		var err error
		doc, err = r.parser.Parse(ctx, text)
		if err != nil {
			return errors.NewInternalError(errors.ErrCodeNLPParse, "parser failed", err)
		}
		return nil
	})

	name := UnknownCandidate
	if parseErr == nil {
		name = ExtractCandidateName(doc, text, r.headerChars)
	}
	rec := r.newRecord(NewResumeID(name), path, profile)
	rec.CandidateName = name
	rec.ExtractedText = truncateRunes(text, r.textLimit)
	out.Detail.ResumeRecord = rec
	span.SetAttributes(attribute.String("resume.id", rec.ID))

	if parseErr != nil {
		return r.fail(ctx, out, parseErr)
	}
	if err := commit(pc.rawText.put(text), pc.doc.put(doc)); err != nil {
		return r.fail(ctx, out, err)
	}
	r.checkpoint(ctx, PhaseIngested, out)

	if err := r.runQualityStages(ctx, pc); err != nil {
		return r.fail(ctx, out, err)
	}

	var gate GateResult
	err := r.stage(ctx, "quality_gate", func(context.Context) error {
		var err error
		gate, err = r.qualityGate(pc)
		return err
	})
	if err != nil {
		return r.fail(ctx, out, err)
	}
	out.Gate = &gate
	out.Detail.QualityScore = &gate.Score

	if !gate.Valid {
		return r.reject(ctx, pc, out, gate)
	}
	r.checkpoint(ctx, PhaseGated, out)

	if err := r.runScoringStages(ctx, pc, profile); err != nil {
		return r.fail(ctx, out, err)
	}
	return r.finish(ctx, pc, out, profile)
}

func (r *Runner) runQualityStages(ctx context.Context, pc *Context) error {
	stages := []struct {
		name string
		run  func(context.Context, *Context) error
	}{
		{"structure", r.structureStage},
		{"segmentation", r.segmentationStage},
		{"grammar", r.grammarStage},
		{"semantic_roles", r.semanticRoleStage},
		{"discourse", r.discourseStage},
		{"section_behavior", r.sectionBehaviorStage},
		{"consistency", r.consistencyStage},
	}
	for _, s := range stages {
		if err := r.stage(ctx, s.name, func(ctx context.Context) error { return s.run(ctx, pc) }); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runScoringStages(ctx context.Context, pc *Context, profile *jd.Profile) error {
	if err := r.stage(ctx, "ner", func(context.Context) error { return r.nerStage(pc) }); err != nil {
		return err
	}
	if err := r.stage(ctx, "skill_intelligence", func(context.Context) error { return r.skillStage(pc, profile) }); err != nil {
		return err
	}
	return r.stage(ctx, "matching", func(ctx context.Context) error { return r.matchingStage(ctx, pc) })
}

// stage runs fn inside a span named pipeline.<name> and reports its duration.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := r.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := r.now()
	err := fn(ctx)
	if r.recorder != nil {
		r.recorder.RecordStage(ctx, name, r.now().Sub(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *Runner) structureStage(_ context.Context, pc *Context) error {
	text, err := need(&pc.rawText, errors.ErrCodeStructure)
	if err != nil {
		return err
	}
	blocks, layout, err := AnalyzeStructure(text)
	if err != nil {
		return err
	}
	return commit(pc.blocks.put(blocks), pc.layout.put(layout))
}

func (r *Runner) segmentationStage(_ context.Context, pc *Context) error {
	doc, err := need(&pc.doc, errors.ErrCodeSegmentation)
	if err != nil {
		return err
	}
	units, fragments, err := Segment(doc)
	if err != nil {
		return err
	}
	return commit(pc.units.put(units), pc.fragmentRatio.put(fragments))
}

func (r *Runner) grammarStage(_ context.Context, pc *Context) error {
	doc, err := need(&pc.doc, errors.ErrCodeGrammar)
	if err != nil {
		return err
	}
	score, err := GrammarScore(doc)
	if err != nil {
		return err
	}
	return pc.grammarScore.put(score)
}

func (r *Runner) semanticRoleStage(_ context.Context, pc *Context) error {
	doc, err := need(&pc.doc, errors.ErrCodeSemanticRole)
	if err != nil {
		return err
	}
	score, err := SemanticRoleScore(doc)
	if err != nil {
		return err
	}
	return pc.semanticRoleScore.put(score)
}

func (r *Runner) discourseStage(ctx context.Context, pc *Context) error {
	units, err := need(&pc.units, errors.ErrCodeDiscourse)
	if err != nil {
		return err
	}
	score, err := DiscourseScore(ctx, r.embedder, units)
	if err != nil {
		return err
	}
	return pc.discourseScore.put(score)
}

func (r *Runner) sectionBehaviorStage(_ context.Context, pc *Context) error {
	units, err := need(&pc.units, errors.ErrCodeSectionBehavior)
	if err != nil {
		return err
	}
	score, err := SectionBehaviorScore(units)
	if err != nil {
		return err
	}
	return pc.sectionScore.put(score)
}

func (r *Runner) consistencyStage(_ context.Context, pc *Context) error {
	units, err := need(&pc.units, errors.ErrCodeConsistency)
	if err != nil {
		return err
	}
	year := r.currentYear
	if year == 0 {
		year = r.now().Year()
	}
	score, issues, err := CheckTimeline(units, year)
	if err != nil {
		return err
	}
	return commit(pc.timelineScore.put(score), pc.issues.put(issues))
}

func (r *Runner) qualityGate(pc *Context) (GateResult, error) {
	var in GateInputs
	var err error
	reads := []struct {
		dst *float64
		src *slot[float64]
	}{
		{&in.Grammar, &pc.grammarScore},
		{&in.SemanticRole, &pc.semanticRoleScore},
		{&in.SectionBehavior, &pc.sectionScore},
		{&in.Discourse, &pc.discourseScore},
		{&in.Timeline, &pc.timelineScore},
		{&in.FragmentRatio, &pc.fragmentRatio},
	}
	for _, rd := range reads {
		if *rd.dst, err = need(rd.src, errors.ErrCodeQualityGate); err != nil {
			return GateResult{}, err
		}
	}

	gate := EvaluateGate(in)
	return gate, pc.gate.put(gate)
}

func (r *Runner) nerStage(pc *Context) error {
	units, err := need(&pc.units, errors.ErrCodeNER)
	if err != nil {
		return err
	}
	doc, _ := pc.doc.get()
	ents, years, err := ExtractEntities(doc, units)
	if err != nil {
		return err
	}
	return commit(pc.entities.put(ents), pc.experienceYears.put(years))
}

func (r *Runner) skillStage(pc *Context, profile *jd.Profile) error {
	units, err := need(&pc.units, errors.ErrCodeSkill)
	if err != nil {
		return err
	}
	confidence, err := ScoreSkillEvidence(units, profile)
	if err != nil {
		return err
	}
	return commit(pc.profile.put(profile), pc.skillConfidence.put(confidence))
}

func (r *Runner) matchingStage(ctx context.Context, pc *Context) error {
	code := errors.ErrCodeMatching
	units, err := need(&pc.units, code)
	if err != nil {
		return err
	}
	confidence, err := need(&pc.skillConfidence, code)
	if err != nil {
		return err
	}
	profile, err := need(&pc.profile, code)
	if err != nil {
		return err
	}
	ents, err := need(&pc.entities, code)
	if err != nil {
		return err
	}
	years, err := need(&pc.experienceYears, code)
	if err != nil {
		return err
	}
	timeline, err := need(&pc.timelineScore, code)
	if err != nil {
		return err
	}

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return errors.NewPipelineError(code, "failed to embed resume sentences", err)
	}

	breakdown, err := Match(MatchInputs{
		SkillConfidence: confidence,
		Profile:         profile,
		ExperienceYears: years,
		Entities:        ents,
		UnitEmbeddings:  vectors,
		Timeline:        timeline,
	})
	if err != nil {
		return err
	}
	return pc.breakdown.put(breakdown)
}

func (r *Runner) reject(ctx context.Context, pc *Context, out *Outcome, gate GateResult) *Outcome {
	out.Status = types.StatusInvalidResume
	out.Signals = pc.Signals()
	out.Detail.Status = types.StatusInvalidResume
	out.Detail.Decision = types.DecisionRejected
	out.Detail.ErrorMessage = gate.FailureMessage()
	out.Detail.Explanations = r.explanations(out.Detail.ID, gate.Reasons, gate.FailureMessage())

	r.logger.Info("Resume failed quality gate",
		"resume_id", out.Detail.ID,
		"quality_score", gate.Score,
		"reasons", gate.Reasons)

	if r.recorder != nil {
		r.recorder.RecordGateFailure(ctx)
		r.recorder.RecordOutcome(ctx, out.Status, types.DecisionRejected, 0)
	}
	r.checkpoint(ctx, PhaseGated, out)
	return out
}

func (r *Runner) finish(ctx context.Context, pc *Context, out *Outcome, profile *jd.Profile) *Outcome {
	b, _ := pc.breakdown.get()
	confidence, _ := pc.skillConfidence.get()

	out.Status = types.StatusProcessed
	out.Breakdown = &b
	out.Signals = pc.Signals()

	d := &out.Detail
	d.Status = types.StatusProcessed
	d.FinalScore = &b.FinalScore
	d.Decision = b.Decision
	d.SkillData = BuildSkillData(profile, confidence)
	if names := out.Signals.Entities; d.CandidateName == UnknownCandidate && names != nil && len(names.Names) > 0 {
		d.CandidateName = names.Names[0]
	}
	d.EngineScores = r.engineScores(d.ID, b, *d.QualityScore)
	d.Explanations = r.explanations(d.ID, b.Reasons, DefaultExplanation)

	r.logger.Info("Resume screened",
		"resume_id", d.ID,
		"final_score", b.FinalScore,
		"decision", b.Decision)

	if r.recorder != nil {
		r.recorder.RecordOutcome(ctx, out.Status, b.Decision, b.FinalScore)
	}
	r.checkpoint(ctx, PhaseScored, out)
	return out
}

func (r *Runner) fail(ctx context.Context, out *Outcome, err error) *Outcome {
	out.Status = types.StatusError
	out.Err = err
	out.Detail.Status = types.StatusError
	out.Detail.ErrorMessage = UserMessage(err)

	r.logger.LogError(err, "Resume processing failed", "resume_id", out.Detail.ID)
	if r.recorder != nil {
		r.recorder.RecordOutcome(ctx, out.Status, "", 0)
	}
	r.checkpoint(context.WithoutCancel(ctx), PhaseFailed, out)
	return out
}

func (r *Runner) checkpoint(ctx context.Context, phase Phase, out *Outcome) {
	if r.checkpointer == nil {
		return
	}
	if err := r.checkpointer.Checkpoint(ctx, phase, &out.Detail); err != nil {
		r.logger.LogError(err, "Checkpoint failed", "resume_id", out.Detail.ID, "phase", string(phase))
	}
}

func (r *Runner) newRecord(id, path string, profile *jd.Profile) types.ResumeRecord {
	rec := types.ResumeRecord{
		ID:            id,
		CandidateName: UnknownCandidate,
		Status:        types.StatusProcessing,
		UploadTime:    r.now().UTC(),
		FilePath:      path,
	}
	if profile != nil {
		rec.JDHash = profile.Hash
	}
	return rec
}

func (r *Runner) engineScores(resumeID string, b ScoreBreakdown, quality float64) []types.EngineScore {
	scores := []struct {
		engine string
		value  float64
	}{
		{types.EngineSkillMatch, b.SkillScore},
		{types.EngineExperience, b.ExperienceScore},
		{types.EngineEducation, b.EducationScore},
		{types.EngineSemanticMatch, b.SemanticScore},
		{types.EngineQualityGate, quality},
	}
	out := make([]types.EngineScore, len(scores))
	for i, s := range scores {
		out[i] = types.EngineScore{
			ID:       newRowID(),
			ResumeID: resumeID,
			Engine:   s.engine,
			Score:    round2(s.value * 100),
		}
	}
	return out
}

func (r *Runner) explanations(resumeID string, reasons []string, fallback string) []types.Explanation {
	if len(reasons) == 0 {
		reasons = []string{fallback}
	}
	out := make([]types.Explanation, len(reasons))
	for i, reason := range reasons {
		out[i] = types.Explanation{ID: newRowID(), ResumeID: resumeID, Message: reason}
	}
	return out
}

// BuildSkillData splits the mandatory skills into matched and missing at a
// confidence of 0.3 and lists the mandatory skills plus the first five optional
// skills.
func BuildSkillData(profile *jd.Profile, confidence map[string]float64) *types.SkillData {
	sd := &types.SkillData{Matched: []string{}, Missing: []string{}}
	if profile == nil {
		return sd
	}
	for _, skill := range profile.MandatorySkills {
		if confidence[skill] > 0.3 {
			sd.Matched = append(sd.Matched, skill)
		} else {
			sd.Missing = append(sd.Missing, skill)
		}
	}
	optional := profile.OptionalSkills
	if len(optional) > 5 {
		optional = optional[:5]
	}
	sd.AllJDSkills = append(append([]string{}, profile.MandatorySkills...), optional...)
	return sd
}

// UserMessage turns a run failure into the message stored on the resume.
func UserMessage(err error) string {
	msg := err.Error()
	if appErr, ok := errors.AsAppError(err); ok {
		msg = appErr.Message
	}
	switch {
	case errors.HasCode(err, errors.ErrCodeIngestion):
		return "File processing failed: " + msg
	case errors.HasCode(err, errors.ErrCodeQualityGate):
		return "Quality check failed: " + msg
	case errors.HasCode(err, errors.ErrCodeNLPParse):
		return "Text analysis failed. Please ensure the resume contains readable text."
	default:
		return "Processing error: " + msg
	}
}

// commit returns the first error from a stage's slot writes.
func commit(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func newRowID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
