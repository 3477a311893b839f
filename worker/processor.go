// Package worker runs the background job loop: it claims pending jobs,
// executes the LLM workload, records progress, and moves each job to a
// terminal state. A cron sweep returns jobs abandoned by dead workers to
// the queue.
package worker

import (
	"context"
	"time"

	"algoitny-backend/application/ports"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/events"
	apperrors "algoitny-backend/pkg/errors"
	"algoitny-backend/pkg/observability"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Config carries the worker's tuning knobs.
type Config struct {
	WorkerID      string
	PollInterval  time.Duration
	BatchSize     int
	StaleDeadline time.Duration
}

// Processor is the job-processing loop.
type Processor struct {
	cfg       Config
	jobs      ports.JobRepository
	progress  ports.ProgressRepository
	problems  ports.ProblemRepository
	locker    ports.Locker
	generator ports.ScriptGenerator
	extractor ports.ProblemExtractor
	publisher ports.EventPublisher
	metrics   *observability.Metrics
	logger    *zap.Logger

	cron *cron.Cron
}

// NewProcessor creates a Processor.
func NewProcessor(
	cfg Config,
	jobs ports.JobRepository,
	progress ports.ProgressRepository,
	problems ports.ProblemRepository,
	locker ports.Locker,
	generator ports.ScriptGenerator,
	extractor ports.ProblemExtractor,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		cfg:       cfg,
		jobs:      jobs,
		progress:  progress,
		problems:  problems,
		locker:    locker,
		generator: generator,
		extractor: extractor,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run polls for pending jobs until the context is cancelled. The stale-job
// sweep runs on its own cron schedule.
func (p *Processor) Run(ctx context.Context) error {
	p.cron = cron.New()
	if _, err := p.cron.AddFunc("@every 5m", func() { p.sweepStale(ctx) }); err != nil {
		return err
	}
	p.cron.Start()
	defer func() {
		stopCtx := p.cron.Stop()
		<-stopCtx.Done()
	}()

	p.logger.Info("Worker started",
		zap.String("workerID", p.cfg.WorkerID),
		zap.Duration("pollInterval", p.cfg.PollInterval),
		zap.Int("batchSize", p.cfg.BatchSize),
	)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Worker stopping", zap.String("workerID", p.cfg.WorkerID))
			if p.metrics != nil {
				p.metrics.Flush(context.Background())
			}
			return ctx.Err()
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce claims and processes up to one batch of pending jobs.
func (p *Processor) pollOnce(ctx context.Context) {
	pending, _, err := p.jobs.List(ctx, ports.JobFilter{
		Status: entities.JobStatusPending,
		Limit:  p.cfg.BatchSize,
	})
	if err != nil {
		p.logger.Error("Failed to list pending jobs", zap.Error(err))
		return
	}

	for _, job := range pending {
		claimed, err := p.jobs.Claim(ctx, job.Kind, job.ID, p.cfg.WorkerID)
		if err != nil {
			if apperrors.IsConflict(err) {
				continue // another worker won
			}
			p.logger.Error("Failed to claim job",
				zap.String("jobID", job.ID),
				zap.Error(err),
			)
			continue
		}
		p.processJob(ctx, claimed)
	}
}

// processJob runs one claimed job to a terminal state.
func (p *Processor) processJob(ctx context.Context, job *entities.Job) {
	start := time.Now()
	recorder := p.progressRecorder(ctx, job)
	recorder("claim", "claimed by "+p.cfg.WorkerID)

	var runErr error
	switch job.Kind {
	case entities.JobKindScriptGeneration:
		runErr = p.runGeneration(ctx, job, recorder)
	case entities.JobKindProblemExtraction:
		runErr = p.runExtraction(ctx, job, recorder)
	default:
		runErr = apperrors.NewInternalError("unknown job kind " + string(job.Kind))
	}

	dims := map[string]string{"Kind": string(job.Kind)}
	if p.metrics != nil {
		p.metrics.Duration(ctx, "JobDuration", time.Since(start), dims)
	}

	if runErr != nil {
		recorder("failed", runErr.Error())
		if err := job.MarkFailed(runErr.Error()); err != nil {
			p.logger.Error("Illegal failure transition",
				zap.String("jobID", job.ID),
				zap.Error(err),
			)
			return
		}
		if err := p.jobs.UpdateStatus(ctx, job); err != nil {
			p.logger.Error("Failed to persist job failure",
				zap.String("jobID", job.ID),
				zap.Error(err),
			)
			return
		}
		if p.metrics != nil {
			p.metrics.Count(ctx, "JobFailed", 1, dims)
		}
		p.publishEvent(ctx, events.JobFailed, job)
		p.logger.Warn("Job failed",
			zap.String("jobID", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.Error(runErr),
		)
		return
	}

	if err := p.jobs.UpdateStatus(ctx, job); err != nil {
		p.logger.Error("Failed to persist job completion",
			zap.String("jobID", job.ID),
			zap.Error(err),
		)
		return
	}
	if p.metrics != nil {
		p.metrics.Count(ctx, "JobCompleted", 1, dims)
	}
	p.publishEvent(ctx, events.JobCompleted, job)
	p.logger.Info("Job completed",
		zap.String("jobID", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.Duration("took", time.Since(start)),
	)
}

// runGeneration produces a generator script and completes the job with it.
func (p *Processor) runGeneration(ctx context.Context, job *entities.Job, recorder func(step, message string)) error {
	code, err := p.generator.Generate(ctx, job, recorder)
	if err != nil {
		return err
	}
	recorder("complete", "generator script ready")
	return job.MarkCompleted(code)
}

// runExtraction extracts the problem, saves it for review, and releases
// the URL lock taken when the job was enqueued.
func (p *Processor) runExtraction(ctx context.Context, job *entities.Job, recorder func(step, message string)) error {
	defer func() {
		if err := p.locker.Release(ctx, "extract:"+job.ProblemURL, job.ID); err != nil {
			p.logger.Warn("Failed to release extraction lock",
				zap.String("jobID", job.ID),
				zap.Error(err),
			)
		}
	}()

	problem, err := p.extractor.Extract(ctx, job, recorder)
	if err != nil {
		return err
	}

	if err := p.problems.Save(ctx, problem); err != nil {
		return err
	}
	job.ProblemKey = problem.Key

	recorder("complete", "problem saved for review")
	return job.MarkCompleted("")
}

// progressRecorder returns a callback that appends numbered progress
// entries for the job. Failed appends are logged and dropped; progress is
// advisory.
func (p *Processor) progressRecorder(ctx context.Context, job *entities.Job) func(step, message string) {
	seq := 0
	return func(step, message string) {
		seq++
		entry := entities.ProgressEntry{
			JobID:     job.ID,
			Seq:       seq,
			Step:      step,
			Message:   message,
			CreatedAt: time.Now().UTC(),
		}
		if err := p.progress.Append(ctx, job.Kind, entry); err != nil {
			p.logger.Warn("Failed to append progress",
				zap.String("jobID", job.ID),
				zap.String("step", step),
				zap.Error(err),
			)
		}
	}
}

// sweepStale requeues PROCESSING jobs whose worker stopped updating them.
func (p *Processor) sweepStale(ctx context.Context) {
	deadline := time.Now().UTC().Add(-p.cfg.StaleDeadline)
	requeued, err := p.jobs.RequeueStale(ctx, deadline)
	if err != nil {
		p.logger.Error("Stale job sweep failed", zap.Error(err))
		return
	}
	if requeued > 0 {
		p.logger.Warn("Requeued stale jobs", zap.Int("count", requeued))
		if p.metrics != nil {
			p.metrics.Count(ctx, "JobsRequeued", float64(requeued), nil)
		}
	}
}

func (p *Processor) publishEvent(ctx context.Context, eventType string, job *entities.Job) {
	if err := p.publisher.PublishJobEvent(ctx, eventType, job); err != nil {
		p.logger.Warn("Failed to publish job event",
			zap.String("jobID", job.ID),
			zap.String("eventType", eventType),
			zap.Error(err),
		)
	}
}
