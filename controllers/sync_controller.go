package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	"catalog-sync-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImportRunner is the import side of the sync.
type ImportRunner interface {
	ListCatalogs(ctx context.Context) ([]models.Catalog, error)
	ProcessNextPage(ctx context.Context, catalogID string) (*services.ImportStep, error)
	StopImport(ctx context.Context) error
	Status(ctx context.Context) (*services.SyncStatus, error)
}

type RemovalRunner interface {
	RemoveNextPage(ctx context.Context) (*services.RemovalStep, error)
}

type JobQueue interface {
	Enqueue(ctx context.Context, catalogID string) (*models.SyncJob, error)
	Get(ctx context.Context, id string) (*models.SyncJob, error)
}

// SyncController exposes the step-driven sync over HTTP.
type SyncController struct {
	imports ImportRunner
	removal RemovalRunner
	jobs    JobQueue
}

func NewSyncController(imports ImportRunner, removal RemovalRunner, jobs JobQueue) *SyncController {
	return &SyncController{imports: imports, removal: removal, jobs: jobs}
}

type ImportBatchRequest struct {
	CatalogID string `json:"catalog_id" binding:"omitempty,max=64"`
}

type SyncJobRequest struct {
	CatalogID string `json:"catalog_id" binding:"required,max=64"`
}

func respondError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("sync request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// ListCatalogs handles GET /api/sync/catalogs
func (sc *SyncController) ListCatalogs(c *gin.Context) {
	catalogs, err := sc.imports.ListCatalogs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, catalogs)
}

// ProcessBatch handles POST /api/sync/import/batch
func (sc *SyncController) ProcessBatch(c *gin.Context) {
	var req ImportBatchRequest
	// an empty body continues the import in progress
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apperrors.WithMessage(apperrors.ErrBadRequest, "Invalid request: "+err.Error()))
		return
	}

	step, err := sc.imports.ProcessNextPage(c.Request.Context(), req.CatalogID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, step)
}

// StopImport handles POST /api/sync/import/stop
func (sc *SyncController) StopImport(c *gin.Context) {
	if err := sc.imports.StopImport(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusAccepted, gin.H{"message": "Stop requested"})
}

// RemoveBatch handles POST /api/sync/removal/batch
func (sc *SyncController) RemoveBatch(c *gin.Context) {
	step, err := sc.removal.RemoveNextPage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, step)
}

// Status handles GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	status, err := sc.imports.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, status)
}

// EnqueueJob handles POST /api/sync/jobs
func (sc *SyncController) EnqueueJob(c *gin.Context) {
	var req SyncJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.WithMessage(apperrors.ErrBadRequest, "Invalid request: "+err.Error()))
		return
	}
	job, err := sc.jobs.Enqueue(c.Request.Context(), req.CatalogID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusAccepted, job)
}

// GetJob handles GET /api/sync/jobs/:id
func (sc *SyncController) GetJob(c *gin.Context) {
	job, err := sc.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, job)
}
