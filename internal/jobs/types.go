// Package jobs describes asynchronous invoice parsing work: the job record,
// the queue contracts and the job store.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovoda/invoice-tracker/internal/domain"
)

// ErrJobNotFound is returned by a JobStore for an unknown job ID.
var ErrJobNotFound = errors.New("job not found")

// ErrPermanent marks a handler error that retrying cannot fix. The queue
// fails such jobs on the first attempt.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err with ErrPermanent.
func Permanent(err error) error {
	if err == nil || errors.Is(err, ErrPermanent) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// DefaultMaxRetries applies when a published job does not set MaxRetries.
const DefaultMaxRetries = 3

// JobType names the kind of work a job carries.
type JobType string

const JobTypeParseDocument JobType = "parse_document"

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying is set between a failed attempt and its re-enqueue.
	JobStatusRetrying JobStatus = "retrying"
)

// Final reports whether no further attempt will be made for the job.
func (s JobStatus) Final() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ParseDocumentJob asks the pipeline to extract one invoice from a scan or
// text file in GCS. With DocumentID set the existing document is reparsed;
// otherwise a new document is created for Organization.
type ParseDocumentJob struct {
	JobID        string              `json:"job_id"`
	DocumentID   string              `json:"document_id,omitempty"`
	GCSURI       string              `json:"gcs_uri"`
	Organization domain.Organization `json:"organization,omitempty"`
	Filename     string              `json:"filename,omitempty"`

	// Filled in by the handler on success.
	ParsingRunID string `json:"parsing_run_id,omitempty"`
	InvoiceID    string `json:"invoice_id,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Job is what a JobHandler receives.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ParseDocumentJob) GetID() string        { return j.JobID }
func (j *ParseDocumentJob) GetType() JobType     { return JobTypeParseDocument }
func (j *ParseDocumentJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues parse jobs.
type Publisher interface {
	PublishParseDocument(ctx context.Context, job *ParseDocumentJob) error
	Close() error
}

// Consumer runs a JobHandler over queued jobs. Stop waits for in-flight
// jobs or for ctx to expire.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error counts as a failed attempt
// and is retried up to the job's MaxRetries unless it wraps ErrPermanent.
type JobHandler func(ctx context.Context, job Job) error

// JobStore keeps job state for the API and the worker.
type JobStore interface {
	// SaveJob inserts or replaces a job.
	SaveJob(ctx context.Context, job *ParseDocumentJob) error

	// GetJob returns a copy of the job or ErrJobNotFound.
	GetJob(ctx context.Context, jobID string) (*ParseDocumentJob, error)

	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ParseDocumentJob, error)

	// CountJobs returns the number of matching jobs per status. Limit and
	// Offset are ignored.
	CountJobs(ctx context.Context, filter JobFilter) (map[JobStatus]int, error)

	// UpdateJobStatus sets the status and, when non-empty, the error message.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error

	// PruneJobs drops final jobs completed before the cutoff and returns how
	// many were removed.
	PruneJobs(ctx context.Context, before time.Time) (int, error)
}

// JobFilter narrows ListJobs and CountJobs. Zero values match everything.
type JobFilter struct {
	DocumentID   string
	Organization domain.Organization
	Status       JobStatus
	Limit        int
	Offset       int
}
