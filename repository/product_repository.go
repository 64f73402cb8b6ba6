package repository

import (
	"context"
	"errors"
	"time"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepo on Postgres.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.WithMessage(apperrors.ErrNotFound, what+" not found")
	}
	return err
}

func (r *GormProductRepository) FindIDBySKU(ctx context.Context, sku string) (uuid.UUID, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Select("id").
		Where("sku = ?", sku).
		Take(&p).Error
	if err != nil {
		return uuid.Nil, notFound(err, "product")
	}
	return p.ID, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product")
	}
	return &p, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) Save(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

func (r *GormProductRepository) FindByBrand(ctx context.Context, brand string, offset, limit int) ([]models.ProductRef, error) {
	var refs []models.ProductRef
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("id", "sku").
		Where("brand = ?", brand).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *GormProductRepository) CountByBrand(ctx context.Context, brand string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("brand = ?", brand).
		Count(&total).Error
	return total, err
}
