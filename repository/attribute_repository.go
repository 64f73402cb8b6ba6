package repository

import (
	"context"

	"catalog-sync-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormAttributeRepository struct {
	db *gorm.DB
}

func NewGormAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

func (r *GormAttributeRepository) FindByTaxonomy(ctx context.Context, taxonomy string) (*models.Attribute, error) {
	var a models.Attribute
	if err := r.db.WithContext(ctx).Where("taxonomy = ?", taxonomy).Take(&a).Error; err != nil {
		return nil, notFound(err, "attribute")
	}
	return &a, nil
}

func (r *GormAttributeRepository) Create(ctx context.Context, attr *models.Attribute) error {
	if attr.ID == uuid.Nil {
		attr.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(attr).Error
}

// GormAttachmentRepository implements AttachmentRepo on Postgres.
type GormAttachmentRepository struct {
	db *gorm.DB
}

func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

func (r *GormAttachmentRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*models.Attachment, error) {
	var a models.Attachment
	if err := r.db.WithContext(ctx).Where("source_url = ?", sourceURL).Take(&a).Error; err != nil {
		return nil, notFound(err, "attachment")
	}
	return &a, nil
}

func (r *GormAttachmentRepository) Create(ctx context.Context, att *models.Attachment) error {
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(att).Error
}
