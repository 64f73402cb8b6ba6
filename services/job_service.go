package services

import (
	"context"
	"fmt"
	"time"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	"catalog-sync-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobService runs a full sync (import, then cleanup) in the background.
// Every job step goes through the same step functions as the HTTP API.
type JobService struct {
	store   repository.ProgressStore
	imports *ImportService
	removal *RemovalService
}

func NewJobService(store repository.ProgressStore, imports *ImportService, removal *RemovalService) *JobService {
	return &JobService{store: store, imports: imports, removal: removal}
}

func (j *JobService) Enqueue(ctx context.Context, catalogID string) (*models.SyncJob, error) {
	if catalogID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrBadRequest, "catalog_id is required")
	}
	now := time.Now().UTC()
	job := &models.SyncJob{
		ID:        uuid.NewString(),
		CatalogID: catalogID,
		Status:    models.SyncJobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := j.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	if err := j.store.EnqueueJob(ctx, job.ID); err != nil {
		return nil, err
	}
	zap.L().Info("Sync job queued", zap.String("job", job.ID), zap.String("catalog_id", catalogID))
	return job, nil
}

func (j *JobService) Get(ctx context.Context, id string) (*models.SyncJob, error) {
	return j.store.GetJob(ctx, id)
}

func (j *JobService) save(ctx context.Context, job *models.SyncJob) {
	job.UpdatedAt = time.Now().UTC()
	if err := j.store.SaveJob(ctx, job); err != nil {
		zap.L().Error("Failed to save job metadata", zap.String("job", job.ID), zap.Error(err))
	}
}

// Run executes a queued job to completion.
func (j *JobService) Run(ctx context.Context, id string) error {
	job, err := j.store.GetJob(ctx, id)
	if err != nil {
		return err
	}
	job.Status = models.SyncJobProcessing
	j.save(ctx, job)

	if err := j.run(ctx, job); err != nil {
		job.Status = models.SyncJobFailed
		job.Error = err.Error()
		j.save(ctx, job)
		zap.L().Error("Sync job failed", zap.String("job", job.ID), zap.Error(err))
		return err
	}
	job.Status = models.SyncJobDone
	j.save(ctx, job)
	zap.L().Info("Sync job finished", zap.String("job", job.ID),
		zap.Int("processed", job.Processed), zap.Int("removed", job.Removed))
	return nil
}

func (j *JobService) run(ctx context.Context, job *models.SyncJob) error {
	current, err := j.store.GetImport(ctx)
	if err != nil {
		return err
	}
	if current != nil && current.CatalogID != job.CatalogID {
		return fmt.Errorf("import of catalog %s already in progress", current.CatalogID)
	}

	var last *ImportStep
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		step, err := j.imports.ProcessNextPage(ctx, job.CatalogID)
		if err != nil {
			return err
		}
		last = step
		if step.Complete {
			break
		}
		job.Pages++
		job.Processed = step.Current
		if step.Batch != nil {
			job.Added += step.Batch.Added
			job.Updated += step.Batch.Updated
		}
		j.save(ctx, job)
	}
	job.Processed = last.Current

	if last.Stage != "removal" {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		step, err := j.removal.RemoveNextPage(ctx)
		if err != nil {
			return err
		}
		job.Removed = step.Removed
		if step.Complete {
			return nil
		}
		j.save(ctx, job)
	}
}
