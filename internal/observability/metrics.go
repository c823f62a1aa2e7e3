package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"resumescreen/internal/ai"
	"resumescreen/internal/jd"
	"resumescreen/internal/pipeline"
	"resumescreen/internal/types"
	"resumescreen/internal/worker"
)

// Metrics holds the screening instruments. A nil *Metrics records nothing.
type Metrics struct {
	ResumesProcessed  metric.Int64Counter
	GateFailures      metric.Int64Counter
	StageDuration     metric.Float64Histogram
	FinalScore        metric.Float64Histogram
	EmbeddingRequests metric.Int64Counter
	EmbeddingErrors   metric.Int64Counter
	EmbeddingDuration metric.Float64Histogram
	JDCacheLookups    metric.Int64Counter
	InboxEvents       metric.Int64Counter
}

var (
	_ pipeline.Recorder    = (*Metrics)(nil)
	_ ai.EmbeddingRecorder = (*Metrics)(nil)
	_ jd.LookupRecorder    = (*Metrics)(nil)
	_ worker.EventRecorder = (*Metrics)(nil)
)

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.ResumesProcessed, err = meter.Int64Counter(
		"resumescreen_resumes_processed_total",
		metric.WithDescription("Resumes that finished the pipeline, by status and decision"),
	); err != nil {
		return nil, fmt.Errorf("failed to create resumes processed counter: %w", err)
	}

	if m.GateFailures, err = meter.Int64Counter(
		"resumescreen_quality_gate_failures_total",
		metric.WithDescription("Resumes rejected by the quality gate"),
	); err != nil {
		return nil, fmt.Errorf("failed to create gate failures counter: %w", err)
	}

	if m.StageDuration, err = meter.Float64Histogram(
		"resumescreen_stage_duration_seconds",
		metric.WithDescription("Duration of each pipeline stage"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	); err != nil {
		return nil, fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	if m.FinalScore, err = meter.Float64Histogram(
		"resumescreen_final_score",
		metric.WithDescription("Final match score of processed resumes"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create final score histogram: %w", err)
	}

	if m.EmbeddingRequests, err = meter.Int64Counter(
		"resumescreen_embedding_requests_total",
		metric.WithDescription("Embedding calls, by provider"),
	); err != nil {
		return nil, fmt.Errorf("failed to create embedding requests counter: %w", err)
	}

	if m.EmbeddingErrors, err = meter.Int64Counter(
		"resumescreen_embedding_errors_total",
		metric.WithDescription("Failed embedding calls, by provider"),
	); err != nil {
		return nil, fmt.Errorf("failed to create embedding errors counter: %w", err)
	}

	if m.EmbeddingDuration, err = meter.Float64Histogram(
		"resumescreen_embedding_duration_seconds",
		metric.WithDescription("Duration of embedding calls"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create embedding duration histogram: %w", err)
	}

	if m.JDCacheLookups, err = meter.Int64Counter(
		"resumescreen_jd_cache_lookups_total",
		metric.WithDescription("Job description profile cache lookups, by result"),
	); err != nil {
		return nil, fmt.Errorf("failed to create jd cache counter: %w", err)
	}

	if m.InboxEvents, err = meter.Int64Counter(
		"resumescreen_inbox_events_total",
		metric.WithDescription("Inbox directory events, by operation"),
	); err != nil {
		return nil, fmt.Errorf("failed to create inbox events counter: %w", err)
	}

	return &m, nil
}

// RecordStage records how long one pipeline stage took.
func (m *Metrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("success", err == nil),
	))
}

// RecordOutcome counts a finished run and, for processed resumes, its score.
func (m *Metrics) RecordOutcome(ctx context.Context, status, decision string, finalScore float64) {
	if m == nil {
		return
	}
	m.ResumesProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("decision", decision),
	))
	if status == types.StatusProcessed {
		m.FinalScore.Record(ctx, finalScore)
	}
}

func (m *Metrics) RecordGateFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.GateFailures.Add(ctx, 1)
}

func (m *Metrics) RecordEmbedding(ctx context.Context, provider string, texts int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	m.EmbeddingRequests.Add(ctx, 1, attrs)
	m.EmbeddingDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.EmbeddingErrors.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) RecordJDCacheLookup(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.JDCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) RecordInboxEvent(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.InboxEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
