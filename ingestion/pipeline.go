package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docindex/storage"
)

const (
	DefaultPoolSize      = 2
	DefaultQueueCapacity = 100
)

// Pipeline is the indexing job controller. It runs
// enumerate → detect → normalize → split → assign → commit on a bounded
// worker pool, allows at most one run at a time, and publishes progress as
// immutable Status snapshots.
type Pipeline struct {
	enumerator Enumerator
	detector   *ChangeDetector
	normalizer Normalizer
	splitter   Splitter
	committer  *BatchCommitter
	index      storage.VectorIndex

	pool          *ants.Pool
	poolSize      int
	queueCapacity int
	batchSize     int
	pacing        time.Duration

	running atomic.Bool
	state   atomic.Pointer[Status]
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of pipeline workers. Default 2.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.poolSize = size
		return nil
	}
}

// WithQueueCapacity bounds the tasks waiting for a worker. Default 100.
func WithQueueCapacity(capacity int) Option {
	return func(p *Pipeline) error {
		if capacity < 1 {
			capacity = 1
		}
		p.queueCapacity = capacity
		return nil
	}
}

// WithBatchSize sets the number of chunks per vector index call. Default 20.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithPacing sets the minimum interval between batch commits. Default 50ms.
func WithPacing(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			d = 0
		}
		p.pacing = d
		return nil
	}
}

// WithNormalizer inserts a normalization step before splitting.
func WithNormalizer(n Normalizer) Option {
	return func(p *Pipeline) error {
		p.normalizer = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a job controller.
func NewPipeline(
	enumerator Enumerator,
	detector *ChangeDetector,
	splitter Splitter,
	index storage.VectorIndex,
	opts ...Option,
) (*Pipeline, error) {
	if enumerator == nil {
		return nil, ErrEnumeratorRequired
	}
	if detector == nil {
		return nil, ErrDetectorRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}

	p := &Pipeline{
		enumerator:    enumerator,
		detector:      detector,
		splitter:      splitter,
		index:         index,
		poolSize:      DefaultPoolSize,
		queueCapacity: DefaultQueueCapacity,
		batchSize:     DefaultBatchSize,
		pacing:        DefaultPacing,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	pool, err := ants.NewPool(p.poolSize, ants.WithMaxBlockingTasks(p.queueCapacity))
	if err != nil {
		return nil, err
	}
	p.pool = pool
	p.committer = NewBatchCommitter(index, p.batchSize, p.pacing, p.logger)
	p.state.Store(&Status{})

	return p, nil
}

// Start triggers a run and returns without waiting for it.
// If a run is already active it returns a completed Job that yields 0,
// together with ErrAlreadyRunning; the active run is not affected.
func (p *Pipeline) Start() (*Job, error) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Info("indexing already running, trigger ignored", "run_id", p.Status().RunID)
		return rejectedJob(), ErrAlreadyRunning
	}

	job := newJob(uuid.NewString())
	p.state.Store(&Status{
		Running:   true,
		RunID:     job.ID(),
		StartedAt: time.Now().UTC(),
	})

	if err := p.pool.Submit(func() { p.run(job) }); err != nil {
		err = fmt.Errorf("%w: submit: %w", ErrPipelineStage, err)
		p.finish(job, 0, err)
		return job, err
	}
	return job, nil
}

// Running reports whether a run is active.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Release stops the worker pool. The pipeline must not be used afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// ReleaseTimeout stops the worker pool and waits up to timeout for an
// active run to finish.
func (p *Pipeline) ReleaseTimeout(timeout time.Duration) error {
	if p.pool == nil {
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}

// finish publishes the final snapshot, then releases the run lock.
func (p *Pipeline) finish(job *Job, processed int, err error) {
	p.publish(func(s *Status) {
		s.Running = false
		s.FinishedAt = time.Now().UTC()
	})
	p.running.Store(false)
	job.complete(processed, err)
}

func (p *Pipeline) run(job *Job) {
	logger := p.logger.With("run_id", job.ID())
	stage := stageEnumerate
	processed := 0
	var runErr error

	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("%w: %s: panic: %v", ErrPipelineStage, stage, r)
		}
		if runErr != nil {
			logger.Error("indexing run failed", "stage", stage, "err", runErr)
		}
		p.finish(job, processed, runErr)
	}()

	ctx := context.Background()
	logger.Info("indexing run started")

	docs, err := enumerateStage(ctx, p.enumerator)
	if err != nil {
		runErr = err
		return
	}
	p.publish(func(s *Status) { s.TotalCount = len(docs) })

	stage = stageDetect
	assigner := NewIdentityAssigner()
	changed, verdicts := detectStage(ctx, p.detector, claimStage(assigner, docs, logger))
	p.publish(func(s *Status) { s.ChangedCount = len(changed) })
	logger.Info("change detection complete", "total", len(docs), "changed", len(changed))
	if len(changed) == 0 {
		logger.Info("no changed documents")
		return
	}

	stage = stageSplit
	chunks, err := splitStage(p.splitter, normalizeStage(p.normalizer, changed))
	if err != nil {
		runErr = err
		return
	}

	stage = stageAssign
	chunks, lost := assignStage(assigner, chunks, logger)

	stage = stageCommit
	result := commitStage(ctx, p.committer, chunks, func(r CommitResult) {
		p.publish(func(s *Status) {
			s.ProcessedCount = r.Committed
			s.FailedBatches = r.FailedBatches
		})
	})
	processed = result.Committed

	if p.detector.Deferred() {
		recordStage(ctx, p.detector, verdicts, lost, result.FailedParents)
	}

	logger.Info("indexing run complete",
		"chunks", len(chunks),
		"processed", result.Committed,
		"batches", result.Batches,
		"failed_batches", result.FailedBatches)
}
