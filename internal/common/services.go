package common

import (
	"context"
	stderrors "errors"
	"fmt"

	"resumescreen/internal/ai"
	"resumescreen/internal/config"
	"resumescreen/internal/errors"
	"resumescreen/internal/ingest"
	"resumescreen/internal/jd"
	"resumescreen/internal/nlp"
	"resumescreen/internal/observability"
	"resumescreen/internal/pipeline"
	"resumescreen/internal/store"
)

// Services bundles the long-lived collaborators of a screening command.
type Services struct {
	Config        *config.Config
	Logger        *errors.Logger
	Observability *observability.ObservabilityManager
	Metrics       *observability.Metrics
	Parser        nlp.Parser
	Embedder      nlp.Embedder
	JDCache       *jd.Cache
	Analyzer      *jd.Analyzer
	Store         store.Store
	Runner        *pipeline.Runner
}

// NewServices wires the pipeline from cfg. Callers must Close the result.
func NewServices(ctx context.Context, cfg *config.Config, logger *errors.Logger, version string) (*Services, error) {
	s := &Services{Config: cfg, Logger: logger}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	s.Observability = om
	s.Metrics = om.Metrics()

	if err := s.init(ctx); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Services) init(ctx context.Context) error {
	cfg := s.Config

	s.Parser = nlp.NewProseParser(s.Logger)

	embedder, err := ai.NewEmbedder(ctx, cfg.Embedding, s.Metrics, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	s.Embedder = embedder

	if cfg.Cache.JD.Enabled {
		s.JDCache = jd.NewCache(ctx, cfg.Cache.JD, s.Metrics, s.Logger)
	}
	s.Analyzer = jd.NewAnalyzer(s.Parser, s.Embedder, s.JDCache, s.Logger)

	st, err := store.Open(ctx, cfg.Store, s.Logger)
	if err != nil {
		return err
	}
	s.Store = st

	ingester := ingest.New(cfg.App.MaxFileSize, cfg.Pipeline.MinTextLength, s.Logger)
	s.Runner = pipeline.NewRunner(ingester, s.Parser, s.Embedder, s.Logger,
		pipeline.WithCheckpointer(store.NewCheckpointer(st, s.Logger)),
		pipeline.WithRecorder(s.Metrics),
		pipeline.WithCurrentYear(cfg.Pipeline.CurrentYear),
		pipeline.WithTextLimit(cfg.Pipeline.ExtractedTextLimit),
		pipeline.WithHeaderChars(cfg.Pipeline.NameHeaderChars),
	)
	return nil
}

// LoadProfile reads and analyses a job description. Exactly one of file and
// text must be set.
func (s *Services) LoadProfile(ctx context.Context, file, text string) (*jd.Profile, error) {
	if err := ValidateJDInput(file, text); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), nil)
	}
	if file != "" {
		var err error
		if text, err = ingest.ReadJobDescription(file, s.Config.App.MaxFileSize); err != nil {
			return nil, err
		}
	}
	return s.Analyzer.Analyze(ctx, text)
}

// Close releases the store, the cache and the telemetry exporters.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	if s.JDCache != nil {
		errs = append(errs, s.JDCache.Close())
	}
	if s.Observability != nil {
		errs = append(errs, s.Observability.Shutdown(ctx))
	}
	return stderrors.Join(errs...)
}
