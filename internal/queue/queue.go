package queue

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/pendo-cea/rag-pipeline/internal/model"
)

// ErrQueueFull is the backpressure signal, distinct from rate limiting.
var ErrQueueFull = errors.New("processing queue is full")

// JobStore is the slice of the job repository the queue needs: atomic,
// monotonic status transitions.
type JobStore interface {
	MarkProcessing(id uuid.UUID) (bool, error)
	MarkCompleted(id uuid.UUID, resultRef string) error
	MarkFailed(id uuid.UUID, kind model.ErrorKind, message string) error
	CancelQueued(id uuid.UUID) (bool, error)
}

// Processor runs the stage pipeline for one job and returns a result
// reference. It must honor ctx cancellation between stages.
type Processor interface {
	Process(ctx context.Context, job *model.Job) (string, error)
}

// Queue is a bounded FIFO feeding a fixed-size worker pool. Each job is
// dequeued exactly once; mutual exclusion over a job is by construction.
type Queue struct {
	tasks   chan *model.Job
	pool    *ants.Pool
	store   JobStore
	proc    Processor
	timeout time.Duration

	cancels sync.Map // uuid.UUID -> context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

func New(store JobStore, proc Processor, workers, size int, timeout time.Duration) (*Queue, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &Queue{
		tasks:   make(chan *model.Job, size),
		pool:    pool,
		store:   store,
		proc:    proc,
		timeout: timeout,
	}, nil
}

// Start launches the dispatcher that drains the queue into the worker pool.
// Submit blocks while all workers are busy, so the channel is the only
// waiting room.
func (q *Queue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for job := range q.tasks {
			j := job
			if err := q.pool.Submit(func() { q.run(j) }); err != nil {
				log.Printf("Worker pool rejected job %s: %v", j.ID, err)
				_, _ = q.store.MarkProcessing(j.ID)
				_ = q.store.MarkFailed(j.ID, model.ErrBackpressure, "worker pool unavailable")
			}
		}
	}()
}

// Full reports whether the waiting room is at capacity. Callers use it to
// reject a submission before persisting anything; Enqueue re-checks, so a
// race here only changes which rejection path runs.
func (q *Queue) Full() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed || len(q.tasks) == cap(q.tasks)
}

// Enqueue adds a validated job without blocking the caller.
func (q *Queue) Enqueue(job *model.Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueFull
	}
	select {
	case q.tasks <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Cancel stops a job: a queued job fails immediately with a cancelled error,
// a processing job has its context cancelled cooperatively.
func (q *Queue) Cancel(id uuid.UUID) (bool, error) {
	if done, err := q.store.CancelQueued(id); err != nil || done {
		return done, err
	}
	if cancel, ok := q.cancels.Load(id); ok {
		cancel.(context.CancelFunc)()
		return true, nil
	}
	return false, nil
}

func (q *Queue) run(job *model.Job) {
	claimed, err := q.store.MarkProcessing(job.ID)
	if err != nil {
		log.Printf("Failed to claim job %s: %v", job.ID, err)
		return
	}
	if !claimed {
		// Cancelled (or otherwise finalized) while queued.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	q.cancels.Store(job.ID, cancel)
	defer func() {
		q.cancels.Delete(job.ID)
		cancel()
	}()

	type outcome struct {
		resultRef string
		err       error
	}
	results := make(chan outcome, 1)
	go func() {
		ref, err := q.proc.Process(ctx, job)
		results <- outcome{ref, err}
	}()

	// Watchdog: on budget expiry the in-flight result is abandoned and the
	// worker is freed; the processor's ctx is already cancelled.
	select {
	case out := <-results:
		q.finish(job, out.resultRef, out.err)
	case <-ctx.Done():
		q.finishCtx(job, ctx.Err())
	}
}

func (q *Queue) finish(job *model.Job, resultRef string, err error) {
	if err == nil {
		if markErr := q.store.MarkCompleted(job.ID, resultRef); markErr != nil {
			log.Printf("Failed to complete job %s: %v", job.ID, markErr)
		}
		return
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		q.finishCtx(job, err)
		return
	}

	kind := model.ErrExtraction
	var pipeErr *model.PipelineError
	if errors.As(err, &pipeErr) {
		kind = pipeErr.Kind
	}
	if markErr := q.store.MarkFailed(job.ID, kind, err.Error()); markErr != nil {
		log.Printf("Failed to fail job %s: %v", job.ID, markErr)
	}
}

func (q *Queue) finishCtx(job *model.Job, err error) {
	kind := model.ErrTimeout
	message := "processing budget exceeded"
	if errors.Is(err, context.Canceled) {
		kind = model.ErrCancelled
		message = "cancelled during processing"
	}
	if markErr := q.store.MarkFailed(job.ID, kind, message); markErr != nil {
		log.Printf("Failed to fail job %s: %v", job.ID, markErr)
	}
}

// Shutdown stops accepting work and waits for the dispatcher; in-flight jobs
// finish on the pool before Release returns them.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()
	q.wg.Wait()
	q.pool.Release()
}
