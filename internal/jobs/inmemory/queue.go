package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ovoda/invoice-tracker/internal/jobs"
	"github.com/ovoda/invoice-tracker/internal/logger"
)

// Options configures a Queue. Zero values fall back to the defaults.
type Options struct {
	// BufferSize is how many jobs can wait before PublishParseDocument blocks.
	BufferSize int
	// WorkerCount is the number of concurrent handlers.
	WorkerCount int
	// MaxRetries applies to jobs published without their own limit.
	MaxRetries int
	// Backoff is multiplied by the retry number before a job is re-enqueued.
	Backoff time.Duration
	// JobTimeout bounds a single attempt. Zero means no limit.
	JobTimeout time.Duration
}

const (
	defaultBufferSize  = 100
	defaultWorkerCount = 5
	defaultBackoff     = time.Second
)

// Queue is a channel-backed Publisher and Consumer for one process. Queued
// jobs are lost on restart.
type Queue struct {
	jobChan   chan *jobs.ParseDocumentJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	opts      Options
	closed    bool
}

// NewQueue creates a new in-memory job queue.
func NewQueue(opts Options, store jobs.JobStore) *Queue {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = defaultWorkerCount
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = jobs.DefaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	return &Queue{
		jobChan:   make(chan *jobs.ParseDocumentJob, opts.BufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		opts:      opts,
	}
}

// PublishParseDocument implements the Publisher interface.
// It enqueues a document parsing job for asynchronous processing.
func (q *Queue) PublishParseDocument(ctx context.Context, job *jobs.ParseDocumentJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.opts.MaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements the Consumer interface.
// The handler is called concurrently, up to WorkerCount jobs at a time.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.opts.WorkerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs one attempt and decides between completion, retry and
// failure. Retries are re-published after RetryCount*Backoff.
func (q *Queue) processJob(ctx context.Context, job *jobs.ParseDocumentJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("document_id", job.DocumentID).
		Str("gcs_uri", job.GCSURI).
		Int("attempt", job.RetryCount+1).
		Logger()

	started := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &started
	job.CompletedAt = nil
	q.save(ctx, job)

	err := q.attempt(logger.WithContext(ctx, log), job, handler)

	completed := time.Now()
	job.CompletedAt = &completed

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Info().Str("invoice_id", job.InvoiceID).Dur("took", completed.Sub(started)).Msg("Job completed")
	case errors.Is(err, jobs.ErrPermanent) || job.RetryCount >= job.MaxRetries:
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
		log.Error().Err(err).Int("retries", job.RetryCount).Msg("Job failed")
	default:
		job.Status = jobs.JobStatusRetrying
		job.Error = err.Error()
		job.RetryCount++
		backoff := time.Duration(job.RetryCount) * q.opts.Backoff
		log.Warn().Err(err).Dur("backoff", backoff).Msg("Job failed, retrying")

		// Saved before the retry is scheduled so the store never moves
		// back from pending to retrying.
		q.save(ctx, job)
		retry := *job
		time.AfterFunc(backoff, func() {
			retry.Status = jobs.JobStatusPending
			retry.StartedAt = nil
			retry.CompletedAt = nil
			if perr := q.PublishParseDocument(ctx, &retry); perr != nil {
				log.Error().Err(perr).Msg("Failed to re-enqueue job")
			}
		})
		return
	}
	q.save(ctx, job)
}

func (q *Queue) attempt(ctx context.Context, job *jobs.ParseDocumentJob, handler jobs.JobHandler) error {
	if q.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.opts.JobTimeout)
		defer cancel()
	}
	return handler(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.ParseDocumentJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to save job state")
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
// It closes the queue and releases resources.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
