package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Runner drives a Pipeline over a set of local files.
type Runner struct {
	pipeline Pipeline
	config   PipelineConfig
}

func NewRunner(p Pipeline, cfg PipelineConfig) *Runner {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.Name == "" {
		cfg.Name = p.Name()
	}
	return &Runner{pipeline: p, config: cfg}
}

// Run processes every file with at most WorkerCount in flight. A failing
// file does not stop the others; all failures are returned together. Jobs
// come back in input order.
func (r *Runner) Run(ctx context.Context, files []string) ([]*FileJob, error) {
	jobs := make([]*FileJob, len(files))
	for i, f := range files {
		jobs[i] = &FileJob{FilePath: f, Status: FileStatusQueued}
	}
	if len(files) == 0 {
		return jobs, nil
	}

	log.Info().Str("pipeline", r.config.Name).Int("files", len(files)).Int("workers", r.config.WorkerCount).Msg("starting run")

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	sem := semaphore.NewWeighted(int64(r.config.WorkerCount))
	g, gctx := errgroup.WithContext(ctx)

	for _, job := range jobs {
		if err := sem.Acquire(gctx, 1); err != nil {
			job.Status = FileStatusFailed
			job.Err = err
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := r.processFile(gctx, job); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return jobs, err
	}
	if err := ctx.Err(); err != nil {
		return jobs, err
	}
	return jobs, result.ErrorOrNil()
}

func (r *Runner) processFile(ctx context.Context, job *FileJob) error {
	start := time.Now()
	job.Status = FileStatusProcessing
	defer func() { job.Duration = time.Since(start) }()

	if err := r.pipeline.Validate(job.FilePath); err != nil {
		return r.markJobFailed(job, fmt.Errorf("validation failed: %w", err))
	}

	out, err := r.pipeline.Transform(ctx, job.FilePath)
	if err != nil {
		return r.markJobFailed(job, fmt.Errorf("%s: %w", job.FilePath, err))
	}

	job.Status = FileStatusCompleted
	job.Rows = out.Rows
	job.Notices = out.Notices

	log.Info().
		Str("pipeline", r.config.Name).
		Str("file", job.FilePath).
		Int("rows", out.Rows).
		Dur("took", time.Since(start)).
		Msg("file completed")
	return nil
}

func (r *Runner) markJobFailed(job *FileJob, err error) error {
	job.Status = FileStatusFailed
	job.Err = err
	log.Warn().Err(err).Str("pipeline", r.config.Name).Str("file", job.FilePath).Msg("file failed")
	return err
}
