package repository

import (
	"context"
	"fmt"
	"time"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

const (
	skuIndex   = "sku-index"
	brandIndex = "brand-index"
)

// DynamoAPI is the subset of *dynamodb.Client the product adapter uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoProductRepository stores products in a table keyed by `product_id`
// with GSIs on `sku` and `brand` (sort key `created_at`).
type DynamoProductRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoProductRepository(client DynamoAPI, table string) *DynamoProductRepository {
	return &DynamoProductRepository{client: client, table: table}
}

type ddbProduct struct {
	ProductID           string                    `dynamodbav:"product_id"`
	Type                string                    `dynamodbav:"type"`
	SKU                 string                    `dynamodbav:"sku"`
	ParentID            *string                   `dynamodbav:"parent_id,omitempty"`
	Name                string                    `dynamodbav:"name"`
	Description         string                    `dynamodbav:"description,omitempty"`
	Brand               *string                   `dynamodbav:"brand,omitempty"`
	Attributes          []models.ProductAttribute `dynamodbav:"attributes,omitempty"`
	VariationAttributes map[string]string         `dynamodbav:"variation_attributes,omitempty"`
	ExternalURL         string                    `dynamodbav:"external_url,omitempty"`
	ExternalSKU         string                    `dynamodbav:"external_sku,omitempty"`
	IsExternal          bool                      `dynamodbav:"is_external"`
	ButtonText          string                    `dynamodbav:"button_text,omitempty"`
	StockStatus         string                    `dynamodbav:"stock_status,omitempty"`
	ImageID             *string                   `dynamodbav:"image_id,omitempty"`
	GalleryImageIDs     []string                  `dynamodbav:"gallery_image_ids,omitempty"`
	CreatedAt           string                    `dynamodbav:"created_at"`
	UpdatedAt           string                    `dynamodbav:"updated_at"`
}

func toDDB(p *models.Product) ddbProduct {
	dp := ddbProduct{
		ProductID:           p.ID.String(),
		Type:                string(p.Type),
		SKU:                 p.SKU,
		Name:                p.Name,
		Description:         p.Description,
		Attributes:          p.Attributes,
		VariationAttributes: p.VariationAttributes,
		ExternalURL:         p.ExternalURL,
		ExternalSKU:         p.ExternalSKU,
		IsExternal:          p.IsExternal,
		ButtonText:          p.ButtonText,
		StockStatus:         string(p.StockStatus),
		CreatedAt:           p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:           p.UpdatedAt.Format(time.RFC3339Nano),
	}
	// brand is a GSI key and must be absent rather than empty
	if p.Brand != "" {
		dp.Brand = aws.String(p.Brand)
	}
	if p.ParentID != nil {
		dp.ParentID = aws.String(p.ParentID.String())
	}
	if p.ImageID != nil {
		dp.ImageID = aws.String(p.ImageID.String())
	}
	for _, id := range p.GalleryImageIDs {
		dp.GalleryImageIDs = append(dp.GalleryImageIDs, id.String())
	}
	return dp
}

func parseUUIDPtr(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	u, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &u
}

func fromDDB(dp ddbProduct) (*models.Product, error) {
	id, err := uuid.Parse(dp.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id %q: %w", dp.ProductID, err)
	}
	p := &models.Product{
		ID:                  id,
		Type:                models.ProductType(dp.Type),
		SKU:                 dp.SKU,
		ParentID:            parseUUIDPtr(dp.ParentID),
		Name:                dp.Name,
		Description:         dp.Description,
		Attributes:          dp.Attributes,
		VariationAttributes: dp.VariationAttributes,
		ExternalURL:         dp.ExternalURL,
		ExternalSKU:         dp.ExternalSKU,
		IsExternal:          dp.IsExternal,
		ButtonText:          dp.ButtonText,
		StockStatus:         models.StockStatus(dp.StockStatus),
		ImageID:             parseUUIDPtr(dp.ImageID),
	}
	if dp.Brand != nil {
		p.Brand = *dp.Brand
	}
	for _, s := range dp.GalleryImageIDs {
		if u, err := uuid.Parse(s); err == nil {
			p.GalleryImageIDs = append(p.GalleryImageIDs, u)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p, nil
}

func (d *DynamoProductRepository) FindIDBySKU(ctx context.Context, sku string) (uuid.UUID, error) {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &d.table,
		IndexName:              aws.String(skuIndex),
		KeyConditionExpression: aws.String("sku = :sku"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sku": &types.AttributeValueMemberS{Value: sku},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("dynamodb sku query failed: %w", err)
	}
	if len(out.Items) == 0 {
		return uuid.Nil, apperrors.WithMessage(apperrors.ErrNotFound, "product not found")
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Items[0], &dp); err != nil {
		return uuid.Nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return uuid.Parse(dp.ProductID)
}

func (d *DynamoProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "product not found")
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return fromDDB(dp)
}

func (d *DynamoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	return d.put(ctx, product)
}

// Save overwrites the whole item.
func (d *DynamoProductRepository) Save(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	return d.put(ctx, product)
}

func (d *DynamoProductRepository) put(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &d.table, Item: item}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id.String()})
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: &d.table, Key: key}); err != nil {
		return fmt.Errorf("delete item failed: %w", err)
	}
	return nil
}

func (d *DynamoProductRepository) brandQuery(brand string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              &d.table,
		IndexName:              aws.String(brandIndex),
		KeyConditionExpression: aws.String("brand = :brand"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":brand": &types.AttributeValueMemberS{Value: brand},
		},
	}
}

// FindByBrand walks the brand index in created_at order, skipping offset items.
func (d *DynamoProductRepository) FindByBrand(ctx context.Context, brand string, offset, limit int) ([]models.ProductRef, error) {
	paginator := dynamodb.NewQueryPaginator(d.client, d.brandQuery(brand))
	refs := make([]models.ProductRef, 0, limit)
	seen := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("brand query page failed: %w", err)
		}
		for _, it := range page.Items {
			if seen < offset {
				seen++
				continue
			}
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			id, err := uuid.Parse(dp.ProductID)
			if err != nil {
				continue
			}
			refs = append(refs, models.ProductRef{ID: id, SKU: dp.SKU})
			if limit > 0 && len(refs) >= limit {
				return refs, nil
			}
		}
	}
	return refs, nil
}

func (d *DynamoProductRepository) CountByBrand(ctx context.Context, brand string) (int64, error) {
	input := d.brandQuery(brand)
	input.Select = types.SelectCount
	paginator := dynamodb.NewQueryPaginator(d.client, input)
	var total int64
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("brand count failed: %w", err)
		}
		total += int64(page.Count)
	}
	return total, nil
}
