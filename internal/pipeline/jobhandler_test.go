package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/gcsuploader"
	"github.com/ovoda/invoice-tracker/internal/jobs"
	"github.com/ovoda/invoice-tracker/internal/store"
)

type otherJob struct{}

func (otherJob) GetID() string             { return "x" }
func (otherJob) GetType() jobs.JobType     { return "other" }
func (otherJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }

func TestJobHandler_FillsResultIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockStorageService(ctrl)
	storage.EXPECT().FetchFromGCS(gomock.Any(), "gs://bucket/inv.txt").Return([]byte(invoiceText), nil)

	repo := newFakeRepository()
	job := &jobs.ParseDocumentJob{
		JobID:        "job-1",
		GCSURI:       "gs://bucket/inv.txt",
		Organization: domain.OrganizationKindergarten,
		Filename:     "march.txt",
	}

	err := NewJobHandler(testDeps(repo, storage))(context.Background(), job)
	require.NoError(t, err)

	assert.NotEmpty(t, job.DocumentID)
	assert.NotEmpty(t, job.ParsingRunID)
	assert.NotEmpty(t, job.InvoiceID)
	assert.Equal(t, "march.txt", repo.documents[job.DocumentID].OriginalFilename)
	require.Len(t, repo.invoices, 1)
	assert.Equal(t, domain.OrganizationKindergarten, repo.invoices[0].Organization)
}

func TestJobHandler_ReparsesUploadedDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockStorageService(ctrl)
	storage.EXPECT().FetchFromGCS(gomock.Any(), "gs://bucket/up.txt").Return([]byte(invoiceText), nil)

	repo := newFakeRepository()
	require.NoError(t, repo.InsertDocument(context.Background(), &store.DocumentRow{
		DocumentID:    "doc-up",
		GCSURI:        "gs://bucket/up.txt",
		Organization:  domain.OrganizationFoundation,
		ParsingStatus: store.StatusPending,
	}))

	job := &jobs.ParseDocumentJob{JobID: "job-2", DocumentID: "doc-up", GCSURI: "gs://bucket/up.txt"}
	require.NoError(t, NewJobHandler(testDeps(repo, storage))(context.Background(), job))

	assert.Equal(t, "doc-up", job.DocumentID)
	assert.Len(t, repo.documents, 1)
	assert.Equal(t, store.StatusSuccess, repo.documents["doc-up"].ParsingStatus)
}

func TestJobHandler_PropagatesFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockStorageService(ctrl)
	storage.EXPECT().FetchFromGCS(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	job := &jobs.ParseDocumentJob{JobID: "job-3", GCSURI: "gs://bucket/x.txt", Organization: domain.OrganizationFoundation}
	err := NewJobHandler(testDeps(newFakeRepository(), storage))(context.Background(), job)

	require.Error(t, err)
	assert.False(t, errors.Is(err, jobs.ErrPermanent), "storage errors are retried")
	assert.Empty(t, job.InvoiceID)
}

func TestJobHandler_RetryReparsesCreatedDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockStorageService(ctrl)
	gomock.InOrder(
		storage.EXPECT().FetchFromGCS(gomock.Any(), "gs://bucket/flaky.txt").Return(nil, errors.New("connection reset")),
		storage.EXPECT().FetchFromGCS(gomock.Any(), "gs://bucket/flaky.txt").Return([]byte(invoiceText), nil),
	)

	repo := newFakeRepository()
	handler := NewJobHandler(testDeps(repo, storage))
	job := &jobs.ParseDocumentJob{JobID: "job-6", GCSURI: "gs://bucket/flaky.txt", Organization: domain.OrganizationFoundation}

	require.Error(t, handler(context.Background(), job))
	require.NotEmpty(t, job.DocumentID)
	first := job.DocumentID

	retry := *job
	require.NoError(t, handler(context.Background(), &retry))

	assert.Equal(t, first, retry.DocumentID)
	assert.Len(t, repo.documents, 1)
	assert.Equal(t, store.StatusSuccess, repo.documents[first].ParsingStatus)
	require.Len(t, repo.invoices, 1)
	assert.Equal(t, first, repo.invoices[0].DocumentID)
}

func TestJobHandler_InvalidOrganizationIsPermanent(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockStorageService(ctrl)

	job := &jobs.ParseDocumentJob{JobID: "job-4", GCSURI: "gs://bucket/x.txt", Organization: "school"}
	err := NewJobHandler(testDeps(newFakeRepository(), storage))(context.Background(), job)

	assert.True(t, errors.Is(err, jobs.ErrPermanent))
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestJobHandler_MissingObjectIsPermanent(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockStorageService(ctrl)
	storage.EXPECT().FetchFromGCS(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("DownloadFile: open gs://bucket/gone.txt: %w", gcsuploader.ErrObjectNotFound))

	job := &jobs.ParseDocumentJob{JobID: "job-5", GCSURI: "gs://bucket/gone.txt", Organization: domain.OrganizationFoundation}
	err := NewJobHandler(testDeps(newFakeRepository(), storage))(context.Background(), job)

	assert.True(t, errors.Is(err, jobs.ErrPermanent))
}

func TestJobHandler_RejectsOtherJobTypes(t *testing.T) {
	err := NewJobHandler(&Deps{})(context.Background(), otherJob{})
	assert.ErrorContains(t, err, "unexpected job type")
	assert.True(t, errors.Is(err, jobs.ErrPermanent))
}
