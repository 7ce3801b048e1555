package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

type fakeIngestionStorage struct {
	rows map[string]*models.IngestionRequest
}

var _ interfaces.IngestionStorage = (*fakeIngestionStorage)(nil)

func newFakeIngestionStorage() *fakeIngestionStorage {
	return &fakeIngestionStorage{rows: map[string]*models.IngestionRequest{}}
}

func (f *fakeIngestionStorage) Create(_ context.Context, req *models.IngestionRequest) error {
	f.rows[req.IngestionID] = req
	return nil
}

func (f *fakeIngestionStorage) Get(_ context.Context, ingestionID string) (*models.IngestionRequest, error) {
	return f.rows[ingestionID], nil
}

func (f *fakeIngestionStorage) MarkRunning(_ context.Context, ingestionID string) error {
	f.rows[ingestionID].Status = models.IngestionRunning
	return nil
}

func (f *fakeIngestionStorage) MarkCompleted(_ context.Context, ingestionID string) error {
	f.rows[ingestionID].Status = models.IngestionCompleted
	return nil
}

func (f *fakeIngestionStorage) MarkFailed(_ context.Context, ingestionID string, errMsg string) error {
	row := f.rows[ingestionID]
	row.Status = models.IngestionFailed
	if row.Metadata == nil {
		row.Metadata = map[string]interface{}{}
	}
	row.Metadata["error"] = errMsg
	return nil
}

func (f *fakeIngestionStorage) ListStuck(_ context.Context, _ int64) ([]*models.IngestionRequest, error) {
	return nil, nil
}

type fakeRepoFetcher struct {
	dir string
	err error
}

var _ interfaces.RepoFetcher = (*fakeRepoFetcher)(nil)

func (f *fakeRepoFetcher) Fetch(_ context.Context, _ string) (string, func(), error) {
	if f.err != nil {
		return "", func() {}, f.err
	}
	return f.dir, func() {}, nil
}

type fakeIngestService struct {
	repoCalls []string
	err       error
}

var _ interfaces.IngestService = (*fakeIngestService)(nil)

func (f *fakeIngestService) IngestText(context.Context, string, string, string, map[string]interface{}) error {
	return nil
}

func (f *fakeIngestService) IngestChunks(context.Context, string, string, []models.Chunk, map[string]interface{}) error {
	return nil
}

func (f *fakeIngestService) IngestSectioned(context.Context, string, string, string, string, map[string]interface{}) error {
	return nil
}

func (f *fakeIngestService) IngestRepo(_ context.Context, ingestionID, _, _, _ string) error {
	f.repoCalls = append(f.repoCalls, ingestionID)
	return f.err
}

type fakeSummaryService struct {
	summarized []string
}

var _ interfaces.SummaryService = (*fakeSummaryService)(nil)

func (f *fakeSummaryService) SummarizeIngestion(_ context.Context, ingestionID string) error {
	f.summarized = append(f.summarized, ingestionID)
	return nil
}

func (f *fakeSummaryService) ApplySummary(context.Context, string, string) error {
	return nil
}

func newStatusTestHandler(store *fakeIngestionStorage) *IngestHandler {
	return &IngestHandler{
		ingestions: store,
		logger:     common.GetLogger(),
	}
}

func TestStatusHandlerInvalidID(t *testing.T) {
	h := newStatusTestHandler(newFakeIngestionStorage())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/v1/ingest/not-an-id", nil)
	h.StatusHandler(w, r)

	assert.Equal(t, 400, w.Code)
	var envelope ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, ErrCodeInvalidRequest, envelope.ErrorCode)
	assert.Equal(t, "invalid ingestion ID format", envelope.Message)
}

func TestStatusHandlerUnknownID(t *testing.T) {
	h := newStatusTestHandler(newFakeIngestionStorage())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/v1/ingest/"+common.NewIngestionID(), nil)
	h.StatusHandler(w, r)

	assert.Equal(t, 404, w.Code)
	var envelope ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, ErrCodeNotFound, envelope.ErrorCode)
}

func TestStatusHandlerSurfacesWorkerError(t *testing.T) {
	store := newFakeIngestionStorage()
	id := common.NewIngestionID()
	store.rows[id] = &models.IngestionRequest{
		IngestionID: id,
		Status:      models.IngestionFailed,
		Metadata:    map[string]interface{}{"error": "PDF extraction failed"},
	}
	h := newStatusTestHandler(store)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/v1/ingest/"+id, nil)
	h.StatusHandler(w, r)

	assert.Equal(t, 200, w.Code)
	var resp models.IngestStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.IngestionID)
	assert.Equal(t, models.IngestionFailed, resp.Status)
	assert.Equal(t, "PDF extraction failed", resp.Error)
}

func TestRunRepoIngestionTriggersSummary(t *testing.T) {
	store := newFakeIngestionStorage()
	id := common.NewIngestionID()
	store.rows[id] = &models.IngestionRequest{IngestionID: id, Status: models.IngestionAccepted}

	cfg := common.NewDefaultConfig()
	cfg.Ingest.SummarizeOnDone = true
	pipeline := &fakeIngestService{}
	summaries := &fakeSummaryService{}
	h := &IngestHandler{
		config:     cfg,
		ingestions: store,
		pipeline:   pipeline,
		fetcher:    &fakeRepoFetcher{dir: t.TempDir()},
		summaries:  summaries,
		logger:     common.GetLogger(),
	}

	h.runRepoIngestion(context.Background(), id, "repo_a", "widgets", "https://github.com/acme/widgets")

	assert.Equal(t, models.IngestionCompleted, store.rows[id].Status)
	assert.Equal(t, []string{id}, pipeline.repoCalls)
	assert.Equal(t, []string{id}, summaries.summarized, "repo workers trigger summarization on success")
}

func TestRunRepoIngestionSkipsSummaryOnFailure(t *testing.T) {
	store := newFakeIngestionStorage()
	id := common.NewIngestionID()
	store.rows[id] = &models.IngestionRequest{IngestionID: id, Status: models.IngestionAccepted}

	cfg := common.NewDefaultConfig()
	cfg.Ingest.SummarizeOnDone = true
	summaries := &fakeSummaryService{}
	h := &IngestHandler{
		config:     cfg,
		ingestions: store,
		pipeline:   &fakeIngestService{err: assert.AnError},
		fetcher:    &fakeRepoFetcher{dir: t.TempDir()},
		summaries:  summaries,
		logger:     common.GetLogger(),
	}

	h.runRepoIngestion(context.Background(), id, "repo_a", "widgets", "https://github.com/acme/widgets")

	assert.Equal(t, models.IngestionFailed, store.rows[id].Status)
	assert.Empty(t, summaries.summarized)
}

func TestIngestRepoHandlerRequiresExactlyOneSource(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "Neither source", form: url.Values{}},
		{name: "Both sources", form: url.Values{
			"git_url":    {"https://github.com/acme/widgets"},
			"local_path": {"/srv/repos/widgets"},
		}},
	}

	h := newStatusTestHandler(newFakeIngestionStorage())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("POST", "/v1/ingest-repo", strings.NewReader(tt.form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			h.IngestRepoHandler(w, r)

			assert.Equal(t, 400, w.Code)
			var envelope ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			assert.Equal(t, "exactly one of git_url or local_path is required", envelope.Message)
		})
	}
}
