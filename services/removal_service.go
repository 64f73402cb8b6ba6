package services

import (
	"context"
	"fmt"
	"time"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	awspkg "catalog-sync-service/pkg/aws"
	"catalog-sync-service/repository"

	"go.uber.org/zap"
)

// RemovalPageSize is the number of brand-tagged products scanned per step.
const RemovalPageSize = 100

// RemovalService deletes local products of a brand that the latest import
// did not see. Synthetic parents are never deleted.
type RemovalService struct {
	products repository.ProductRepo
	progress repository.ProgressStore
	events   EventPublisher
	metrics  MetricsRecorder
}

func NewRemovalService(products repository.ProductRepo, progress repository.ProgressStore, events EventPublisher, metrics MetricsRecorder) *RemovalService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &RemovalService{products: products, progress: progress, events: events, metrics: metrics}
}

// Start counts the brand's products and persists the initial removal state.
func (s *RemovalService) Start(ctx context.Context, manufacturer string, remoteSKUs []string) (int64, error) {
	total, err := s.products.CountByBrand(ctx, manufacturer)
	if err != nil {
		return 0, fmt.Errorf("count products for %s: %w", manufacturer, err)
	}
	p := &models.RemovalProgress{
		Manufacturer: manufacturer,
		RemoteSKUs:   remoteSKUs,
		Total:        total,
		StartedAt:    time.Now().UTC(),
	}
	if err := s.progress.SaveRemoval(ctx, p); err != nil {
		return 0, err
	}
	zap.L().Info("Starting product cleanup",
		zap.String("manufacturer", manufacturer), zap.Int64("total_products", total), zap.Int("remote_skus", len(remoteSKUs)))
	return total, nil
}

// RemoveNextPage scans one page and deletes the stale products in it.
// The offset only advances past kept products, so deletions never cause
// rows to be skipped.
func (s *RemovalService) RemoveNextPage(ctx context.Context) (*RemovalStep, error) {
	if err := s.checkStop(ctx); err != nil {
		return nil, err
	}

	p, err := s.progress.GetRemoval(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "No removal parameters found")
	}

	refs, err := s.products.FindByBrand(ctx, p.Manufacturer, p.Offset, RemovalPageSize)
	if err != nil {
		return nil, fmt.Errorf("list products for %s: %w", p.Manufacturer, err)
	}
	if len(refs) == 0 {
		return s.complete(ctx, p)
	}

	remote := make(map[string]struct{}, len(p.RemoteSKUs))
	for _, sku := range p.RemoteSKUs {
		remote[sku] = struct{}{}
	}

	deleted := 0
	for _, ref := range refs {
		if _, ok := remote[ref.SKU]; ok || models.IsSyntheticParentSKU(ref.SKU) {
			continue
		}
		if err := s.products.Delete(ctx, ref.ID); err != nil {
			zap.L().Error("Failed to remove product", zap.String("sku", ref.SKU), zap.Error(err))
			continue
		}
		deleted++
		zap.L().Info("Removed product", zap.String("sku", ref.SKU))
	}

	p.Offset += len(refs) - deleted
	p.Scanned += len(refs)
	p.Removed += deleted
	if err := s.progress.SaveRemoval(ctx, p); err != nil {
		return nil, err
	}
	if deleted > 0 {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricProductsRemoved, float64(deleted), map[string]string{"Manufacturer": p.Manufacturer})
	}

	progress := percent(int64(p.Scanned), p.Total)
	if progress > 100 {
		progress = 100
	}
	return &RemovalStep{
		Progress: progress,
		Current:  p.Scanned,
		Total:    p.Total,
		Removed:  p.Removed,
		Message:  fmt.Sprintf("Removed %d products...", p.Removed),
	}, nil
}

func (s *RemovalService) complete(ctx context.Context, p *models.RemovalProgress) (*RemovalStep, error) {
	if err := s.progress.ClearRemoval(ctx); err != nil {
		return nil, err
	}
	zap.L().Info("Product cleanup completed", zap.String("manufacturer", p.Manufacturer), zap.Int("removed", p.Removed))
	publishEvent(ctx, s.events, SyncEvent{Type: EventRemovalCompleted, Manufacturer: p.Manufacturer, Removed: p.Removed})

	progress := 0.0
	if p.Total > 0 {
		progress = 100
	}
	return &RemovalStep{
		Complete: true,
		Progress: progress,
		Current:  p.Scanned,
		Total:    p.Total,
		Removed:  p.Removed,
		Message:  "Product cleanup completed!",
	}, nil
}

func (s *RemovalService) checkStop(ctx context.Context) error {
	stop, err := s.progress.StopRequested(ctx)
	if err != nil {
		return err
	}
	if !stop {
		return nil
	}
	zap.L().Warn("Stop requested, abandoning product cleanup")
	if err := s.progress.ClearRemoval(ctx); err != nil {
		return err
	}
	if err := s.progress.ClearStop(ctx); err != nil {
		return err
	}
	return apperrors.ErrImportStopped
}
