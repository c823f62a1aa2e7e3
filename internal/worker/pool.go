// Package worker runs resumes through the pipeline concurrently and feeds it
// from a watched inbox directory.
package worker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"resumescreen/internal/errors"
	"resumescreen/internal/jd"
	"resumescreen/internal/pipeline"
)

// Processor screens one resume file.
type Processor interface {
	Process(ctx context.Context, path string) *pipeline.Outcome
}

// ScreenProcessor screens every file against a fixed job description profile.
type ScreenProcessor struct {
	runner  *pipeline.Runner
	profile *jd.Profile
}

// NewScreenProcessor binds runner to profile.
func NewScreenProcessor(runner *pipeline.Runner, profile *jd.Profile) *ScreenProcessor {
	return &ScreenProcessor{runner: runner, profile: profile}
}

func (p *ScreenProcessor) Process(ctx context.Context, path string) *pipeline.Outcome {
	return p.runner.Run(ctx, path, p.profile)
}

// Result pairs a submitted path with its outcome.
type Result struct {
	Path    string
	Outcome *pipeline.Outcome
}

// Pool runs at most concurrency resumes at once and publishes every outcome on
// Results. Results must be drained while submitting or Submit will block once
// the buffer fills.
type Pool struct {
	ctx     context.Context
	proc    Processor
	group   *errgroup.Group
	results chan Result
	logger  *errors.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool. queueSize buffers the results channel.
func NewPool(ctx context.Context, proc Processor, concurrency, queueSize int, logger *errors.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	return &Pool{
		ctx:     ctx,
		proc:    proc,
		group:   g,
		results: make(chan Result, queueSize),
		logger:  logger,
	}
}

// Submit queues path. It blocks while the pool is at its concurrency limit and
// fails once the pool is closed or its context is done.
func (p *Pool) Submit(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.NewInternalError(errors.ErrCodeInvalidRequest, fmt.Sprintf("pool closed, cannot submit %s", path), nil)
	}
	if err := p.ctx.Err(); err != nil {
		return err
	}

	p.group.Go(func() error {
		out := p.proc.Process(p.ctx, path)
		p.logger.Debug("Resume finished", "file", path, "status", out.Status, "resume_id", out.Detail.ID)
		p.results <- Result{Path: path, Outcome: out}
		return nil
	})
	return nil
}

// Results is closed by Close once every submitted resume has finished.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close stops accepting work, waits for in-flight resumes and closes Results.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.group.Wait()
	close(p.results)
	return err
}
