package services

import (
	"context"
	"fmt"
	"time"

	"catalog-sync-service/clients"
	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	awspkg "catalog-sync-service/pkg/aws"
	"catalog-sync-service/repository"

	"go.uber.org/zap"
)

// ImportService drives a catalog import one page per call. State lives in
// the progress store, so calls may land on any process.
type ImportService struct {
	catalog    clients.CatalogClient
	reconciler BatchProcessor
	progress   repository.ProgressStore
	removal    *RemovalService
	events     EventPublisher
	metrics    MetricsRecorder
}

func NewImportService(catalog clients.CatalogClient, reconciler BatchProcessor, progress repository.ProgressStore, removal *RemovalService, events EventPublisher, metrics MetricsRecorder) *ImportService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ImportService{
		catalog:    catalog,
		reconciler: reconciler,
		progress:   progress,
		removal:    removal,
		events:     events,
		metrics:    metrics,
	}
}

// ListCatalogs returns the merchant catalogs available for import.
func (s *ImportService) ListCatalogs(ctx context.Context) ([]models.Catalog, error) {
	return s.catalog.ListCatalogs(ctx)
}

// ProcessNextPage fetches and applies the next page of the current import.
// catalogID starts a new import when none is in progress and is ignored otherwise.
func (s *ImportService) ProcessNextPage(ctx context.Context, catalogID string) (*ImportStep, error) {
	if err := s.checkStop(ctx); err != nil {
		return nil, err
	}

	p, err := s.progress.GetImport(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		if catalogID == "" {
			return nil, apperrors.WithMessage(apperrors.ErrBadRequest, "Catalog session expired. Please reselect the merchant and try again.")
		}
		p = &models.ImportProgress{
			CatalogID:   catalogID,
			CurrentPage: 1,
			TotalItems:  1,
			StartedAt:   time.Now().UTC(),
		}
		if err := s.progress.SaveImport(ctx, p); err != nil {
			return nil, err
		}
		zap.L().Info("Starting catalog import", zap.String("catalog_id", catalogID))
	}

	dims := map[string]string{"CatalogID": p.CatalogID}
	started := time.Now()
	fetched, err := s.catalog.FetchPage(ctx, p.CatalogID, p.CurrentPage)
	_ = s.metrics.RecordLatency(ctx, awspkg.MetricCatalogPageFetch, time.Since(started), dims)
	if err != nil {
		s.abort(ctx, p, err.Error())
		return nil, fmt.Errorf("API error: %w", err)
	}
	if fetched.Exhausted() {
		return s.complete(ctx, p)
	}
	items := fetched.Items

	stats := &BatchStats{}
	if len(items) > 0 {
		if stats, err = s.reconciler.ProcessBatch(ctx, items); err != nil {
			return nil, err
		}
	}
	stats.Failed += fetched.Skipped

	skus := make([]string, 0, len(items))
	for _, it := range items {
		skus = append(skus, it.ExternalID)
		if p.Manufacturer == "" && it.Manufacturer != "" {
			p.Manufacturer = it.Manufacturer
		}
	}
	if err := s.progress.AddImportedSKUs(ctx, skus...); err != nil {
		return nil, err
	}

	page := p.CurrentPage
	p.CurrentPage++
	p.Processed += len(items) + fetched.Skipped
	p.Added += stats.Added
	p.Updated += stats.Updated
	p.Failed += stats.Failed
	if err := s.progress.SaveImport(ctx, p); err != nil {
		return nil, err
	}
	s.recordBatch(ctx, stats, dims)

	zap.L().Info("Processed catalog page",
		zap.String("catalog_id", p.CatalogID), zap.Int("page", page), zap.Int("items", len(items)), zap.Int("skipped", fetched.Skipped),
		zap.Int("added", stats.Added), zap.Int("updated", stats.Updated), zap.Int("failed", stats.Failed))

	return &ImportStep{
		Progress: percent(int64(p.Processed), int64(p.TotalItems)),
		Current:  p.Processed,
		Total:    p.TotalItems,
		Page:     page,
		Batch:    stats,
		Message:  fmt.Sprintf("Processed %d of %d items", p.Processed, p.TotalItems),
	}, nil
}

func (s *ImportService) recordBatch(ctx context.Context, stats *BatchStats, dims map[string]string) {
	for name, v := range map[string]int{
		awspkg.MetricProductsAdded:   stats.Added,
		awspkg.MetricProductsUpdated: stats.Updated,
		awspkg.MetricProductsFailed:  stats.Failed,
		awspkg.MetricImagesFailed:    stats.ImagesFailed,
	} {
		if v == 0 {
			continue
		}
		if err := s.metrics.RecordCount(ctx, name, float64(v), dims); err != nil {
			zap.L().Debug("metric not recorded", zap.String("metric", name), zap.Error(err))
		}
	}
}

// complete ends the import and hands the seen SKUs to the removal pass.
func (s *ImportService) complete(ctx context.Context, p *models.ImportProgress) (*ImportStep, error) {
	skus, err := s.progress.ImportedSKUs(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.progress.ClearImport(ctx); err != nil {
		return nil, err
	}
	zap.L().Info("Catalog import completed",
		zap.String("catalog_id", p.CatalogID), zap.Int("processed", p.Processed), zap.String("manufacturer", p.Manufacturer))
	publishEvent(ctx, s.events, SyncEvent{
		Type:         EventImportCompleted,
		CatalogID:    p.CatalogID,
		Manufacturer: p.Manufacturer,
		Processed:    p.Processed,
		Added:        p.Added,
		Updated:      p.Updated,
		Failed:       p.Failed,
	})

	step := &ImportStep{
		Complete: true,
		Progress: percent(int64(p.Processed), int64(p.TotalItems)),
		Current:  p.Processed,
		Total:    p.TotalItems,
	}
	if p.Manufacturer == "" || s.removal == nil {
		zap.L().Warn("No manufacturer seen during import, skipping cleanup", zap.String("catalog_id", p.CatalogID))
		step.Stage = "done"
		step.Message = "Import completed, no manufacturer to clean up."
		return step, nil
	}

	total, err := s.removal.Start(ctx, p.Manufacturer, skus)
	if err != nil {
		return nil, err
	}
	step.Stage = "removal"
	step.TotalProducts = total
	step.Message = "Import completed, starting cleanup!"
	return step, nil
}

// abortCleanupTimeout bounds the cleanup after a failed step. The step's own
// context may already be cancelled, and the progress must be cleared anyway.
const abortCleanupTimeout = 5 * time.Second

func (s *ImportService) abort(ctx context.Context, p *models.ImportProgress, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortCleanupTimeout)
	defer cancel()

	if err := s.progress.ClearImport(ctx); err != nil {
		zap.L().Error("Failed to clear import progress", zap.Error(err))
	}
	zap.L().Error("Catalog import aborted", zap.String("catalog_id", p.CatalogID), zap.Int("page", p.CurrentPage), zap.String("reason", reason))
	publishEvent(ctx, s.events, SyncEvent{
		Type:      EventImportAborted,
		CatalogID: p.CatalogID,
		Processed: p.Processed,
		Reason:    reason,
	})
}

func (s *ImportService) checkStop(ctx context.Context) error {
	stop, err := s.progress.StopRequested(ctx)
	if err != nil {
		return err
	}
	if !stop {
		return nil
	}
	p, err := s.progress.GetImport(ctx)
	if err != nil {
		return err
	}
	zap.L().Warn("Stop requested, abandoning import")
	if p != nil {
		s.abort(ctx, p, "stopped")
	}
	if err := s.progress.ClearStop(ctx); err != nil {
		return err
	}
	return apperrors.ErrImportStopped
}

// StopImport asks the running import or cleanup to stop at its next step.
func (s *ImportService) StopImport(ctx context.Context) error {
	if err := s.progress.RequestStop(ctx); err != nil {
		return err
	}
	zap.L().Warn("Import stop requested")
	return nil
}

// Status reports what is currently persisted.
func (s *ImportService) Status(ctx context.Context) (*SyncStatus, error) {
	imp, err := s.progress.GetImport(ctx)
	if err != nil {
		return nil, err
	}
	rem, err := s.progress.GetRemoval(ctx)
	if err != nil {
		return nil, err
	}
	stop, err := s.progress.StopRequested(ctx)
	if err != nil {
		return nil, err
	}
	status := &SyncStatus{Import: imp, StopRequested: stop}
	if rem != nil {
		status.Removal = &RemovalStatus{
			Manufacturer: rem.Manufacturer,
			RemoteSKUs:   len(rem.RemoteSKUs),
			Offset:       rem.Offset,
			Scanned:      rem.Scanned,
			Total:        rem.Total,
			Removed:      rem.Removed,
			StartedAt:    rem.StartedAt,
		}
	}
	return status, nil
}
