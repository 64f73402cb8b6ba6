package services

import (
	"context"

	"catalog-sync-service/repository"

	"github.com/google/uuid"
)

// EntityResolver finds local products by SKU. It does not cache: products
// created earlier in the same batch must be visible to the next lookup.
type EntityResolver struct {
	products repository.ProductRepo
}

func NewEntityResolver(products repository.ProductRepo) *EntityResolver {
	return &EntityResolver{products: products}
}

// FindBySKU returns the product id, or an error matching apperrors.ErrNotFound.
func (r *EntityResolver) FindBySKU(ctx context.Context, sku string) (uuid.UUID, error) {
	return r.products.FindIDBySKU(ctx, sku)
}
