package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ovoda/invoice-tracker/internal/jobs"
)

var _ jobs.JobStore = (*Store)(nil)

// Store keeps jobs in a map guarded by a RWMutex. Callers always get copies.
// Nothing survives a restart; documents still PENDING are picked up again by
// the worker's poll.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ParseDocumentJob
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.ParseDocumentJob)}
}

func (s *Store) SaveJob(ctx context.Context, job *jobs.ParseDocumentJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.JobID] = &cp
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ParseDocumentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob %s: %w", jobID, jobs.ErrJobNotFound)
	}
	cp := *job
	return &cp, nil
}

func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ParseDocumentJob, error) {
	s.mu.RLock()
	result := make([]*jobs.ParseDocumentJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if matches(job, filter) {
			cp := *job
			result = append(result, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].JobID < result[j].JobID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset >= len(result) {
		return []*jobs.ParseDocumentJob{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) CountJobs(ctx context.Context, filter jobs.JobFilter) (map[jobs.JobStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[jobs.JobStatus]int)
	for _, job := range s.jobs {
		if matches(job, filter) {
			counts[job.Status]++
		}
	}
	return counts, nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus %s: %w", jobID, jobs.ErrJobNotFound)
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

func (s *Store) PruneJobs(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.Status.Final() && job.CompletedAt != nil && job.CompletedAt.Before(before) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func matches(job *jobs.ParseDocumentJob, f jobs.JobFilter) bool {
	switch {
	case f.DocumentID != "" && job.DocumentID != f.DocumentID:
		return false
	case f.Organization != "" && job.Organization != f.Organization:
		return false
	case f.Status != "" && job.Status != f.Status:
		return false
	}
	return true
}
