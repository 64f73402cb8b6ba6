package repository

import (
	"context"
	"time"

	"catalog-sync-service/models"

	"github.com/google/uuid"
)

// ProductRepo is the local product store the sync writes into.
// Lookups that find nothing return an error matching apperrors.ErrNotFound.
type ProductRepo interface {
	FindIDBySKU(ctx context.Context, sku string) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByBrand pages brand-tagged products in a stable order.
	FindByBrand(ctx context.Context, brand string, offset, limit int) ([]models.ProductRef, error)
	CountByBrand(ctx context.Context, brand string) (int64, error)
}

// AttributeRepo stores global attribute taxonomies.
type AttributeRepo interface {
	FindByTaxonomy(ctx context.Context, taxonomy string) (*models.Attribute, error)
	Create(ctx context.Context, attr *models.Attribute) error
}

// AttachmentRepo stores downloaded images keyed by canonical source URL.
type AttachmentRepo interface {
	FindBySourceURL(ctx context.Context, sourceURL string) (*models.Attachment, error)
	Create(ctx context.Context, att *models.Attachment) error
}

// ProgressStore persists step state between sync calls. Getters return
// (nil, nil) when nothing is stored.
type ProgressStore interface {
	GetImport(ctx context.Context) (*models.ImportProgress, error)
	SaveImport(ctx context.Context, p *models.ImportProgress) error
	ClearImport(ctx context.Context) error
	AddImportedSKUs(ctx context.Context, skus ...string) error
	ImportedSKUs(ctx context.Context) ([]string, error)

	GetRemoval(ctx context.Context) (*models.RemovalProgress, error)
	SaveRemoval(ctx context.Context, p *models.RemovalProgress) error
	ClearRemoval(ctx context.Context) error

	RequestStop(ctx context.Context) error
	StopRequested(ctx context.Context) (bool, error)
	ClearStop(ctx context.Context) error

	SaveJob(ctx context.Context, job *models.SyncJob) error
	GetJob(ctx context.Context, id string) (*models.SyncJob, error)
	EnqueueJob(ctx context.Context, id string) error
	// DequeueJob blocks up to timeout (0 waits forever) and returns "" when nothing arrived.
	DequeueJob(ctx context.Context, timeout time.Duration) (string, error)
}
