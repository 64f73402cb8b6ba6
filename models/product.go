package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProductType string

const (
	ProductTypeSimple    ProductType = "simple"
	ProductTypeVariable  ProductType = "variable"
	ProductTypeVariation ProductType = "variation"
)

type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// ParentSKUSuffix marks the SKU of a synthetic family container.
const ParentSKUSuffix = "-P"

// ParentSKU returns the local SKU of the family keyed by externalID.
func ParentSKU(externalID string) string {
	return externalID + ParentSKUSuffix
}

// IsSyntheticParentSKU reports whether sku belongs to a synthetic family container.
func IsSyntheticParentSKU(sku string) bool {
	return strings.HasSuffix(sku, ParentSKUSuffix)
}

// NormalizeStockStatus maps the catalog's free-text availability onto the
// two stock states the store understands. Only "instock" (any case) is in stock.
func NormalizeStockStatus(raw string) StockStatus {
	if strings.EqualFold(strings.TrimSpace(raw), "instock") {
		return StockStatusInStock
	}
	return StockStatusOutOfStock
}

// ProductAttribute is a product-level attribute object.
type ProductAttribute struct {
	Taxonomy  string   `json:"taxonomy"`
	Options   []string `json:"options"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
}

// Product is a locally stored product of any of the three shapes.
type Product struct {
	ID                  uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	Type                ProductType        `json:"type" gorm:"size:16;not null;index"`
	SKU                 string             `json:"sku" gorm:"size:191;not null;uniqueIndex"`
	ParentID            *uuid.UUID         `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	Brand               string             `json:"brand" gorm:"size:191;index"`
	Attributes          []ProductAttribute `json:"attributes" gorm:"type:jsonb;serializer:json"`
	VariationAttributes map[string]string  `json:"variation_attributes,omitempty" gorm:"type:jsonb;serializer:json"`
	ExternalURL         string             `json:"external_url"`
	ExternalSKU         string             `json:"external_sku"`
	IsExternal          bool               `json:"is_external"`
	ButtonText          string             `json:"button_text"`
	StockStatus         StockStatus        `json:"stock_status" gorm:"size:16"`
	ImageID             *uuid.UUID         `json:"image_id,omitempty" gorm:"type:uuid"`
	GalleryImageIDs     []uuid.UUID        `json:"gallery_image_ids" gorm:"type:jsonb;serializer:json"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ProductRef is the minimal projection used when scanning products by brand.
type ProductRef struct {
	ID  uuid.UUID `json:"id"`
	SKU string    `json:"sku"`
}

// Attachment is a stored image keyed by its canonical source URL.
type Attachment struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	SourceURL string     `json:"source_url" gorm:"size:1024;not null;uniqueIndex"`
	ObjectKey string     `json:"object_key"`
	PublicURL string     `json:"public_url"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt time.Time  `json:"created_at"`
}
