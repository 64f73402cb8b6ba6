package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog-sync-service/controllers"
	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	"catalog-sync-service/routes"
	"catalog-sync-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- mocks ----

type mockImports struct {
	catalogs   []models.Catalog
	step       *services.ImportStep
	err        error
	gotCatalog string
	stopped    bool
}

func (m *mockImports) ListCatalogs(ctx context.Context) ([]models.Catalog, error) {
	return m.catalogs, m.err
}

func (m *mockImports) ProcessNextPage(ctx context.Context, catalogID string) (*services.ImportStep, error) {
	m.gotCatalog = catalogID
	return m.step, m.err
}

func (m *mockImports) StopImport(ctx context.Context) error {
	m.stopped = true
	return nil
}

func (m *mockImports) Status(ctx context.Context) (*services.SyncStatus, error) {
	return &services.SyncStatus{Import: &models.ImportProgress{CatalogID: "77", CurrentPage: 3}}, nil
}

type mockRemoval struct {
	step *services.RemovalStep
	err  error
}

func (m *mockRemoval) RemoveNextPage(ctx context.Context) (*services.RemovalStep, error) {
	return m.step, m.err
}

type mockJobs struct {
	jobs map[string]*models.SyncJob
}

func (m *mockJobs) Enqueue(ctx context.Context, catalogID string) (*models.SyncJob, error) {
	job := &models.SyncJob{ID: "job-1", CatalogID: catalogID, Status: models.SyncJobPending}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *mockJobs) Get(ctx context.Context, id string) (*models.SyncJob, error) {
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrNotFound, "job not found")
}

// ---- helpers ----

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(imports *mockImports, removal *mockRemoval) (*gin.Engine, *mockJobs) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	jobs := &mockJobs{jobs: map[string]*models.SyncJob{}}
	routes.RegisterRoutes(r, controllers.NewSyncController(imports, removal, jobs))
	return r, jobs
}

func do(r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

// ---- tests ----

func TestListCatalogs_Success(t *testing.T) {
	r, _ := setupRouter(&mockImports{catalogs: []models.Catalog{{ID: "77", Name: "Acme"}}}, &mockRemoval{})

	w, env := do(r, http.MethodGet, "/api/sync/catalogs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"name":"Acme"`)
}

func TestListCatalogs_NotFound(t *testing.T) {
	r, _ := setupRouter(&mockImports{err: apperrors.WithMessage(apperrors.ErrNotFound, "No catalogs found")}, &mockRemoval{})

	w, env := do(r, http.MethodGet, "/api/sync/catalogs", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "No catalogs found", env.Message)
}

func TestProcessBatch_PassesCatalogID(t *testing.T) {
	imports := &mockImports{step: &services.ImportStep{Current: 2, Total: 1, Progress: 200, Message: "Processed 2 of 1 items"}}
	r, _ := setupRouter(imports, &mockRemoval{})

	w, env := do(r, http.MethodPost, "/api/sync/import/batch", map[string]string{"catalog_id": "77"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "77", imports.gotCatalog)

	var step services.ImportStep
	require.NoError(t, json.Unmarshal(env.Data, &step))
	assert.Equal(t, 2, step.Current)
}

func TestProcessBatch_EmptyChunkedBody(t *testing.T) {
	imports := &mockImports{step: &services.ImportStep{Current: 1, Total: 1}}
	r, _ := setupRouter(imports, &mockRemoval{})

	req := httptest.NewRequest(http.MethodPost, "/api/sync/import/batch", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", imports.gotCatalog)
}

func TestProcessBatch_MalformedBody(t *testing.T) {
	r, _ := setupRouter(&mockImports{}, &mockRemoval{})

	req := httptest.NewRequest(http.MethodPost, "/api/sync/import/batch", strings.NewReader(`{"catalog_id":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessBatch_TransportError(t *testing.T) {
	r, _ := setupRouter(&mockImports{err: apperrors.ErrTransport}, &mockRemoval{})

	w, env := do(r, http.MethodPost, "/api/sync/import/batch", map[string]string{})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, env.Success)
}

func TestProcessBatch_Stopped(t *testing.T) {
	r, _ := setupRouter(&mockImports{err: apperrors.ErrImportStopped}, &mockRemoval{})

	w, env := do(r, http.MethodPost, "/api/sync/import/batch", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Import stopped", env.Message)
}

func TestStopImport(t *testing.T) {
	imports := &mockImports{}
	r, _ := setupRouter(imports, &mockRemoval{})

	w, _ := do(r, http.MethodPost, "/api/sync/import/stop", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, imports.stopped)
}

func TestRemoveBatch(t *testing.T) {
	r, _ := setupRouter(&mockImports{}, &mockRemoval{step: &services.RemovalStep{Complete: true, Message: "Product cleanup completed!"}})

	w, env := do(r, http.MethodPost, "/api/sync/removal/batch", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Product cleanup completed!")
}

func TestRemoveBatch_NoParameters(t *testing.T) {
	r, _ := setupRouter(&mockImports{}, &mockRemoval{err: apperrors.WithMessage(apperrors.ErrNotFound, "No removal parameters found")})

	w, env := do(r, http.MethodPost, "/api/sync/removal/batch", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No removal parameters found", env.Message)
}

func TestStatus(t *testing.T) {
	r, _ := setupRouter(&mockImports{}, &mockRemoval{})

	w, env := do(r, http.MethodGet, "/api/sync/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"current_page":3`)
}

func TestJobs(t *testing.T) {
	r, _ := setupRouter(&mockImports{}, &mockRemoval{})

	w, _ := do(r, http.MethodPost, "/api/sync/jobs", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(r, http.MethodPost, "/api/sync/jobs", map[string]string{"catalog_id": "77"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, string(env.Data), `"status":"pending"`)

	w, _ = do(r, http.MethodGet, "/api/sync/jobs/job-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(r, http.MethodGet, "/api/sync/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(&mockImports{}, &mockRemoval{})

	w, _ := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
