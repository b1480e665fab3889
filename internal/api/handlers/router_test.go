package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ovoda/invoice-tracker/internal/domain"
	"github.com/ovoda/invoice-tracker/internal/export"
	"github.com/ovoda/invoice-tracker/internal/jobs"
	"github.com/ovoda/invoice-tracker/internal/jobs/inmemory"
	"github.com/ovoda/invoice-tracker/internal/store"
)

type testServer struct {
	handler   http.Handler
	repo      *fakeRepo
	publisher *fakePublisher
	uploader  *fakeUploader
	jobs      *inmemory.Store
}

func newTestServer(t *testing.T, bucket, token string) *testServer {
	t.Helper()
	log := zerolog.Nop()
	ts := &testServer{
		repo:      newFakeRepo(),
		publisher: &fakePublisher{},
		uploader:  &fakeUploader{},
		jobs:      inmemory.NewStore(),
	}
	docs := NewDocumentsHandler(ts.repo, ts.publisher, ts.uploader, bucket, "office", log)
	docs.now = func() time.Time { return time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC) }
	invoices := NewInvoicesHandler(ts.repo, log)
	invoices.now = func() time.Time { return time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC) }

	ts.handler = NewRouter(Handlers{
		Documents:  docs,
		Invoices:   invoices,
		Extract:    NewExtractHandler(nil),
		Categories: NewCategoriesHandler(ts.repo, log),
		Jobs:       NewJobsHandler(ts.jobs, log),
	}, token, log)
	return ts
}

func (ts *testServer) do(method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t, "docs", "secret")

	rec := ts.do(http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, "docs", "")

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/documents"},
		{http.MethodGet, "/api/documents/parse"},
		{http.MethodDelete, "/api/documents/upload/doc-1"},
		{http.MethodGet, "/api/extract"},
		{http.MethodPost, "/api/invoices"},
		{http.MethodPost, "/api/jobs/job-1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := ts.do(tt.method, tt.path, nil, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestRouter_Auth(t *testing.T) {
	ts := newTestServer(t, "docs", "secret")

	rec := ts.do(http.MethodGet, "/api/categories", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/categories", nil, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/categories", nil, map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateUploadURL(t *testing.T) {
	ts := newTestServer(t, "docs", "")

	rec := ts.do(http.MethodPost, "/api/documents/upload-url",
		[]byte(`{"filename":"scans/march invoice.jpg","organization":"foundation"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	objectName := body["object_name"].(string)
	assert.True(t, strings.HasPrefix(objectName, "uploads/2024/03/20/"), objectName)
	assert.True(t, strings.HasSuffix(objectName, "-march invoice.jpg"), objectName)
	assert.Equal(t, "gs://docs/"+objectName, body["gcs_uri"])
	assert.Contains(t, body["upload_url"], "/api/documents/upload/"+body["document_id"].(string))
	assert.Contains(t, body["upload_url"], "organization=foundation")
}

func TestCreateUploadURL_Validation(t *testing.T) {
	ts := newTestServer(t, "docs", "")

	for _, body := range []string{`not json`, `{"organization":"foundation"}`, `{"filename":"a.jpg","organization":"acme"}`} {
		rec := ts.do(http.MethodPost, "/api/documents/upload-url", []byte(body), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestUploadDocument(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	data := []byte("fake jpeg bytes")

	rec := ts.do(http.MethodPut, "/api/documents/upload/doc-1?object_name=uploads/a.jpg&filename=a.jpg&organization=kindergarten", data, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, data, ts.uploader.objects["docs/uploads/a.jpg"])

	doc := ts.repo.documents["doc-1"]
	require.NotNil(t, doc)
	assert.Equal(t, "gs://docs/uploads/a.jpg", doc.GCSURI)
	assert.Equal(t, domain.OrganizationKindergarten, doc.Organization)
	assert.Equal(t, store.StatusPending, doc.ParsingStatus)
	assert.Equal(t, "image/jpeg", doc.FileMimeType)
	assert.Len(t, doc.ChecksumSHA256, 64)
	assert.Equal(t, "office", doc.UserID)
}

func TestUploadDocument_DuplicateChecksum(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	data := []byte("same file")

	rec := ts.do(http.MethodPost, "/api/documents/upload/doc-1?object_name=uploads/a.txt&organization=foundation", data, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/documents/upload/doc-2?object_name=uploads/b.txt&organization=foundation", data, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "doc-1", decodeBody(t, rec)["document_id"])
	assert.NotContains(t, ts.repo.documents, "doc-2")
	assert.NotContains(t, ts.uploader.objects, "docs/uploads/b.txt")
}

func TestUploadDocument_Errors(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		target string
		body   []byte
		fail   bool
		want   int
	}{
		{"missing object", "docs", "/api/documents/upload/d?organization=foundation", []byte("x"), false, http.StatusBadRequest},
		{"bad organization", "docs", "/api/documents/upload/d?object_name=uploads/a&organization=acme", []byte("x"), false, http.StatusBadRequest},
		{"no bucket", "", "/api/documents/upload/d?object_name=uploads/a&organization=foundation", []byte("x"), false, http.StatusServiceUnavailable},
		{"empty body", "docs", "/api/documents/upload/d?object_name=uploads/a&organization=foundation", nil, false, http.StatusBadRequest},
		{"storage failure", "docs", "/api/documents/upload/d?object_name=uploads/a&organization=foundation", []byte("x"), true, http.StatusInternalServerError},
		{"missing id", "docs", "/api/documents/upload/", []byte("x"), false, http.StatusBadRequest},
		{"object outside uploads", "docs", "/api/documents/upload/d?object_name=invoices/a.pdf&organization=foundation", []byte("x"), false, http.StatusBadRequest},
		{"object escaping uploads", "docs", "/api/documents/upload/d?object_name=uploads/../a.pdf&organization=foundation", []byte("x"), false, http.StatusBadRequest},
		{"bare prefix", "docs", "/api/documents/upload/d?object_name=uploads/&organization=foundation", []byte("x"), false, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.bucket, "")
			ts.uploader.fail = tt.fail

			rec := ts.do(http.MethodPost, tt.target, tt.body, nil)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Empty(t, ts.repo.documents)
		})
	}
}

func TestUploadDocument_RejectsTakenDocumentID(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	ts.repo.documents["doc-1"] = &store.DocumentRow{DocumentID: "doc-1", GCSURI: "gs://docs/uploads/old.pdf"}

	rec := ts.do(http.MethodPut, "/api/documents/upload/doc-1?object_name=uploads/new.pdf&organization=foundation", []byte("%PDF"), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, ts.uploader.objects)
	assert.Equal(t, "gs://docs/uploads/old.pdf", ts.repo.documents["doc-1"].GCSURI)
}

func TestEnqueueParsing_ExistingDocument(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	ts.repo.documents["doc-1"] = &store.DocumentRow{
		DocumentID:       "doc-1",
		GCSURI:           "gs://docs/a.jpg",
		Organization:     domain.OrganizationFoundation,
		OriginalFilename: "a.jpg",
	}

	rec := ts.do(http.MethodPost, "/api/documents/parse", []byte(`{"document_id":"doc-1"}`), nil)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "job-1", decodeBody(t, rec)["job_id"])
	require.Len(t, ts.publisher.published, 1)
	job := ts.publisher.published[0]
	assert.Equal(t, "doc-1", job.DocumentID)
	assert.Equal(t, "gs://docs/a.jpg", job.GCSURI)
	assert.Equal(t, domain.OrganizationFoundation, job.Organization)
	assert.Equal(t, "a.jpg", job.Filename)
}

func TestEnqueueParsing_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown document", `{"document_id":"missing"}`, http.StatusNotFound},
		{"uri without organization", `{"gcs_uri":"gs://docs/a.jpg"}`, http.StatusBadRequest},
		{"malformed uri", `{"gcs_uri":"docs/a.jpg","organization":"foundation"}`, http.StatusBadRequest},
		{"nothing", `{}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "docs", "")

			rec := ts.do(http.MethodPost, "/api/documents/parse", []byte(tt.body), nil)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Empty(t, ts.publisher.published)
		})
	}
}

func TestEnqueueParsing_NewObject(t *testing.T) {
	ts := newTestServer(t, "docs", "")

	rec := ts.do(http.MethodPost, "/api/documents/parse",
		[]byte(`{"gcs_uri":"gs://docs/b.jpg","organization":"kindergarten"}`), nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, ts.publisher.published, 1)
	assert.Empty(t, ts.publisher.published[0].DocumentID)
	assert.Equal(t, domain.OrganizationKindergarten, ts.publisher.published[0].Organization)
}

func TestExtract(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	text := "Szállító:\nMinta Kft.\nFizetési mód: átutalás\nBankszámlaszám: 11773016-11111018-00000000\n"

	for name, req := range map[string]struct {
		body        []byte
		contentType string
	}{
		"json":  {mustJSON(t, map[string]string{"text": text}), "application/json"},
		"plain": {[]byte(text), "text/plain; charset=utf-8"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/extract", req.body, map[string]string{"Content-Type": req.contentType})

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			fields := body["fields"].(map[string]interface{})
			assert.Equal(t, "Minta Kft.", fields["partner"])
			assert.Equal(t, "bank_transfer", fields["invoice_type"])
			assert.Equal(t, "11773016-11111018-00000000", fields["bank_account"])
			assert.ElementsMatch(t, []interface{}{"amount", "invoice_date"}, body["missing_fields"])
		})
	}
}

func TestListInvoices_Filters(t *testing.T) {
	ts := newTestServer(t, "docs", "")

	rec := ts.do(http.MethodGet, "/api/invoices?organization=foundation&invoice_type=bank_transfer&start_date=2024-03-01&end_date=2024-03-31&limit=10", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, ts.repo.filters, 1)
	f := ts.repo.filters[0]
	assert.Equal(t, "foundation", f.Organization)
	assert.Equal(t, "bank_transfer", f.InvoiceType)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), f.UploadedFrom)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), f.UploadedTo)
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, float64(0), decodeBody(t, rec)["count"])
}

func TestListInvoices_DefaultLimitAndBadFilters(t *testing.T) {
	ts := newTestServer(t, "docs", "")

	rec := ts.do(http.MethodGet, "/api/invoices", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DefaultInvoiceLimit, ts.repo.filters[0].Limit)

	for _, q := range []string{"organization=acme", "invoice_type=cheque", "start_date=03/01/2024", "end_date=x", "limit=0", "limit=ten"} {
		rec := ts.do(http.MethodGet, "/api/invoices?"+q, nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetInvoice(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	ts.repo.invoices = []*store.InvoiceRow{{InvoiceID: "inv-1", Partner: "Minta Kft."}}

	rec := ts.do(http.MethodGet, "/api/invoices/inv-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Minta Kft.", decodeBody(t, rec)["partner"])

	rec = ts.do(http.MethodGet, "/api/invoices/inv-2", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func seedInvoices(ts *testServer) {
	ts.repo.invoices = []*store.InvoiceRow{
		{
			InvoiceID:    "inv-2",
			Organization: domain.OrganizationKindergarten,
			InvoiceType:  domain.InvoiceTypeCardCashAfterpay,
			Amount:       amount("500"),
			UploadedAt:   time.Date(2024, 3, 19, 9, 0, 0, 0, time.UTC),
		},
		{
			InvoiceID:    "inv-1",
			Organization: domain.OrganizationFoundation,
			InvoiceType:  domain.InvoiceTypeBankTransfer,
			Amount:       amount("12000"),
			UploadedAt:   time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	seedInvoices(ts)

	rec := ts.do(http.MethodGet, "/api/dashboard?now=2024-03-20T12:00:00Z", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2024), body["year"])
	total := body["total"].(map[string]interface{})
	assert.Equal(t, float64(2), total["count"])
	assert.Equal(t, "12500", total["amount"])
	thisMonth := body["this_month"].(map[string]interface{})
	assert.Equal(t, float64(1), thisMonth["count"])
}

func TestDashboard_OrganizationAndBadNow(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	seedInvoices(ts)

	rec := ts.do(http.MethodGet, "/api/dashboard?organization=foundation", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	total := decodeBody(t, rec)["total"].(map[string]interface{})
	assert.Equal(t, float64(1), total["count"])

	rec = ts.do(http.MethodGet, "/api/dashboard?now=yesterday", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportInvoices(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	seedInvoices(ts)

	rec := ts.do(http.MethodGet, "/api/invoices/export?organization=kindergarten", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "invoices-2024-03-20.xlsx")
	assert.Zero(t, ts.repo.filters[0].Limit)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.InvoicesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "inv-2", rows[1][0])
}

func TestListCategories(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	ts.repo.categories = []store.CategoryRow{{CategoryID: "c1", CategoryName: "Rezsi", IsActive: true}}

	rec := ts.do(http.MethodGet, "/api/categories", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
}

func TestJobsEndpoints(t *testing.T) {
	ts := newTestServer(t, "docs", "")
	ctx := context.Background()
	require.NoError(t, ts.jobs.SaveJob(ctx, &jobs.ParseDocumentJob{
		JobID:        "job-a",
		DocumentID:   "doc-1",
		Organization: domain.OrganizationFoundation,
		Status:       jobs.JobStatusCompleted,
		CreatedAt:    time.Now(),
	}))
	require.NoError(t, ts.jobs.SaveJob(ctx, &jobs.ParseDocumentJob{
		JobID:        "job-b",
		DocumentID:   "doc-2",
		Organization: domain.OrganizationKindergarten,
		Status:       jobs.JobStatusFailed,
		CreatedAt:    time.Now(),
	}))

	rec := ts.do(http.MethodGet, "/api/jobs?organization=kindergarten", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])

	rec = ts.do(http.MethodGet, "/api/jobs?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, map[string]interface{}{"completed": float64(1), "failed": float64(1)}, body["by_status"])

	rec = ts.do(http.MethodGet, "/api/jobs/job-a", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc-1", decodeBody(t, rec)["document_id"])

	rec = ts.do(http.MethodGet, "/api/jobs/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/jobs?limit=-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
