package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"catalog-sync-service/clients"
	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	"catalog-sync-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	labelSize  = "Size"
	labelColor = "Color"
	labelBrand = "Brand"
)

// Reconciler upserts catalog items into the local store as Simple,
// Variable and Variation products.
type Reconciler struct {
	products   repository.ProductRepo
	attributes repository.AttributeRepo
	images     clients.ImageFetcher
	resolver   *EntityResolver
}

func NewReconciler(products repository.ProductRepo, attributes repository.AttributeRepo, images clients.ImageFetcher) *Reconciler {
	return &Reconciler{
		products:   products,
		attributes: attributes,
		images:     images,
		resolver:   NewEntityResolver(products),
	}
}

// batchRun is the state of a single ProcessBatch call.
type batchRun struct {
	*Reconciler
	registry  *AttributeRegistry
	processed map[string]uuid.UUID // parent external id -> Variable id
	stats     *BatchStats
}

// ProcessBatch applies items in order. Item failures are logged and counted;
// only context cancellation aborts the batch.
func (r *Reconciler) ProcessBatch(ctx context.Context, items []models.RemoteItem) (*BatchStats, error) {
	run := &batchRun{
		Reconciler: r,
		registry:   NewAttributeRegistry(r.attributes),
		processed:  make(map[string]uuid.UUID),
		stats:      &BatchStats{},
	}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return run.stats, err
		}
		if err := run.apply(ctx, item); err != nil {
			run.stats.Failed++
			zap.L().Error("Failed to process catalog item",
				zap.String("external_id", item.ExternalID), zap.Error(err))
		}
	}
	return run.stats, nil
}

func (b *batchRun) apply(ctx context.Context, item models.RemoteItem) error {
	switch {
	case item.IsParentDefining():
		if _, err := b.upsertVariable(ctx, item); err != nil {
			return err
		}
		// an API parent that also names another family is a member of it
		if item.HasDeclaredParent() {
			return b.upsertVariation(ctx, item)
		}
		return nil
	case item.HasDeclaredParent():
		return b.upsertVariation(ctx, item)
	default:
		return b.upsertSimple(ctx, item)
	}
}

// load returns the product stored under sku, or a fresh one when none exists.
func (b *batchRun) load(ctx context.Context, sku string) (*models.Product, bool, error) {
	id, err := b.resolver.FindBySKU(ctx, sku)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &models.Product{ID: uuid.New(), SKU: sku}, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("resolve sku %s: %w", sku, err)
	}
	p, err := b.products.FindByID(ctx, id)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCorruptEntity, fmt.Errorf("sku %s resolves to %s: %w", sku, id, err))
	}
	return p, false, nil
}

func (b *batchRun) store(ctx context.Context, p *models.Product, created bool) error {
	if created {
		if err := b.products.Create(ctx, p); err != nil {
			return fmt.Errorf("create %s %s: %w", p.Type, p.SKU, err)
		}
		b.stats.Added++
		zap.L().Info("Created product", zap.String("type", string(p.Type)), zap.String("sku", p.SKU), zap.String("id", p.ID.String()))
		return nil
	}
	if err := b.products.Save(ctx, p); err != nil {
		return fmt.Errorf("save %s %s: %w", p.Type, p.SKU, err)
	}
	b.stats.Updated++
	zap.L().Info("Updated product", zap.String("type", string(p.Type)), zap.String("sku", p.SKU), zap.String("id", p.ID.String()))
	return nil
}

func (b *batchRun) fetchImage(ctx context.Context, url string, owner uuid.UUID) (uuid.UUID, bool) {
	if url == "" || b.images == nil {
		return uuid.Nil, false
	}
	id, err := b.images.FetchAndStore(ctx, url, owner)
	if err != nil {
		b.stats.ImagesFailed++
		zap.L().Warn("Skipping image", zap.String("url", url), zap.Error(err))
		return uuid.Nil, false
	}
	return id, true
}

// upsertVariable writes the family container for a parent-defining item.
func (b *batchRun) upsertVariable(ctx context.Context, item models.RemoteItem) (uuid.UUID, error) {
	p, created, err := b.load(ctx, models.ParentSKU(item.ExternalID))
	if err != nil {
		return uuid.Nil, err
	}
	if err := b.fillVariable(ctx, p, item); err != nil {
		return uuid.Nil, err
	}
	if err := b.store(ctx, p, created); err != nil {
		return uuid.Nil, err
	}
	b.processed[item.ExternalID] = p.ID
	return p.ID, nil
}

func (b *batchRun) fillVariable(ctx context.Context, p *models.Product, item models.RemoteItem) error {
	p.Type = models.ProductTypeVariable
	p.ParentID = nil
	p.Name = GenerateParentName(item.Name)
	p.Description = item.Description
	p.Brand = item.Manufacturer
	p.VariationAttributes = nil

	attrs, err := b.variableAttributes(ctx, p.Attributes, item)
	if err != nil {
		return err
	}
	p.Attributes = attrs

	// the first stored parent image is kept
	if p.ImageID == nil {
		if id, ok := b.fetchImage(ctx, item.ImageURL, p.ID); ok {
			p.ImageID = &id
		}
	}
	return nil
}

// parentFor returns the Variable a declared child belongs to, creating a
// placeholder from the child's own fields when the family does not exist yet.
func (b *batchRun) parentFor(ctx context.Context, item models.RemoteItem) (uuid.UUID, error) {
	if id, ok := b.processed[item.ParentExternalID]; ok {
		return id, nil
	}
	p, created, err := b.load(ctx, models.ParentSKU(item.ParentExternalID))
	if err != nil {
		return uuid.Nil, err
	}
	// Only a missing family gets a placeholder. An existing parent keeps its
	// own fields rather than being overwritten from one of its children.
	if created {
		if err := b.fillVariable(ctx, p, item); err != nil {
			return uuid.Nil, err
		}
		if err := b.store(ctx, p, true); err != nil {
			return uuid.Nil, err
		}
		zap.L().Info("Created placeholder parent", zap.String("sku", p.SKU), zap.String("child", item.ExternalID))
	}
	b.processed[item.ParentExternalID] = p.ID
	return p.ID, nil
}

func (b *batchRun) upsertVariation(ctx context.Context, item models.RemoteItem) error {
	parentID, err := b.parentFor(ctx, item)
	if err != nil {
		return err
	}
	if parentID == uuid.Nil {
		return apperrors.Wrap(apperrors.ErrOrphanVariation, fmt.Errorf("no parent %s for %s", models.ParentSKU(item.ParentExternalID), item.ExternalID))
	}

	p, created, err := b.load(ctx, item.ExternalID)
	if err != nil {
		return err
	}
	values, err := b.selectedValues(ctx, item)
	if err != nil {
		return err
	}

	p.Type = models.ProductTypeVariation
	p.ParentID = &parentID
	p.Name = item.Name
	p.Description = item.Description
	p.Brand = item.Manufacturer
	p.Attributes = nil
	p.VariationAttributes = values
	p.ExternalURL = item.PurchaseURL
	p.ExternalSKU = item.ExternalID
	p.IsExternal = item.PurchaseURL != ""
	p.ButtonText = ""
	p.StockStatus = models.NormalizeStockStatus(item.StockState)
	p.GalleryImageIDs = nil
	if id, ok := b.fetchImage(ctx, item.ImageURL, p.ID); ok {
		p.ImageID = &id
	}

	if err := b.store(ctx, p, created); err != nil {
		return err
	}
	return b.addParentOptions(ctx, parentID, values)
}

// addParentOptions makes the family offer every value its members use.
func (b *batchRun) addParentOptions(ctx context.Context, parentID uuid.UUID, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	parent, err := b.products.FindByID(ctx, parentID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCorruptEntity, fmt.Errorf("parent %s: %w", parentID, err))
	}
	changed := false
	for taxonomy, value := range values {
		attrs, added := withOption(parent.Attributes, taxonomy, value, true)
		parent.Attributes = attrs
		changed = changed || added
	}
	if !changed {
		return nil
	}
	sortAttributes(parent.Attributes)
	if err := b.products.Save(ctx, parent); err != nil {
		return fmt.Errorf("save parent options %s: %w", parent.SKU, err)
	}
	return nil
}

func (b *batchRun) upsertSimple(ctx context.Context, item models.RemoteItem) error {
	p, created, err := b.load(ctx, item.ExternalID)
	if err != nil {
		return err
	}

	var attrs []models.ProductAttribute
	for _, a := range []struct{ label, value string }{{labelSize, item.Size}, {labelColor, item.Color}} {
		if a.value == "" {
			continue
		}
		taxonomy, err := b.registry.Resolve(ctx, a.label)
		if err != nil {
			return err
		}
		attrs = append(attrs, models.ProductAttribute{Taxonomy: taxonomy, Options: []string{a.value}, Visible: true})
	}
	if item.Manufacturer != "" {
		taxonomy, err := b.registry.Resolve(ctx, labelBrand)
		if err != nil {
			return err
		}
		attrs = append(attrs, models.ProductAttribute{Taxonomy: taxonomy, Options: []string{item.Manufacturer}, Visible: true})
	}

	p.Type = models.ProductTypeSimple
	p.ParentID = nil
	p.Name = item.Name
	p.Description = item.Description
	p.Brand = item.Manufacturer
	p.Attributes = attrs
	p.VariationAttributes = nil
	p.ExternalURL = item.PurchaseURL
	p.ExternalSKU = item.ExternalID
	p.IsExternal = true
	p.ButtonText = buttonText(item.Manufacturer)
	p.StockStatus = models.NormalizeStockStatus(item.StockState)
	if id, ok := b.fetchImage(ctx, item.ImageURL, p.ID); ok {
		p.ImageID = &id
	}

	gallery := make([]uuid.UUID, 0, len(item.AdditionalImageURLs))
	for _, url := range item.AdditionalImageURLs {
		if id, ok := b.fetchImage(ctx, url, p.ID); ok {
			gallery = append(gallery, id)
		}
	}
	p.GalleryImageIDs = gallery

	return b.store(ctx, p, created)
}

func buttonText(manufacturer string) string {
	if manufacturer == "" {
		return "Buy now"
	}
	return "Buy now at " + manufacturer
}

// variableAttributes keeps the options already offered on variation
// attributes, adds the item's values, and replaces the brand.
func (b *batchRun) variableAttributes(ctx context.Context, existing []models.ProductAttribute, item models.RemoteItem) ([]models.ProductAttribute, error) {
	var attrs []models.ProductAttribute
	for _, a := range existing {
		if a.Variation {
			attrs = append(attrs, models.ProductAttribute{
				Taxonomy:  a.Taxonomy,
				Options:   append([]string(nil), a.Options...),
				Visible:   a.Visible,
				Variation: true,
			})
		}
	}

	values, err := b.selectedValues(ctx, item)
	if err != nil {
		return nil, err
	}
	for taxonomy, value := range values {
		attrs, _ = withOption(attrs, taxonomy, value, true)
	}

	if item.Manufacturer != "" {
		taxonomy, err := b.registry.Resolve(ctx, labelBrand)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, models.ProductAttribute{Taxonomy: taxonomy, Options: []string{item.Manufacturer}, Visible: true})
	}
	sortAttributes(attrs)
	return attrs, nil
}

// selectedValues maps the item's Size and Color to taxonomy -> value.
func (b *batchRun) selectedValues(ctx context.Context, item models.RemoteItem) (map[string]string, error) {
	values := make(map[string]string)
	for _, a := range []struct{ label, value string }{{labelSize, item.Size}, {labelColor, item.Color}} {
		if a.value == "" {
			continue
		}
		taxonomy, err := b.registry.Resolve(ctx, a.label)
		if err != nil {
			return nil, err
		}
		values[taxonomy] = a.value
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func withOption(attrs []models.ProductAttribute, taxonomy, value string, variation bool) ([]models.ProductAttribute, bool) {
	for i := range attrs {
		if attrs[i].Taxonomy != taxonomy {
			continue
		}
		for _, o := range attrs[i].Options {
			if o == value {
				return attrs, false
			}
		}
		attrs[i].Options = append(attrs[i].Options, value)
		return attrs, true
	}
	return append(attrs, models.ProductAttribute{Taxonomy: taxonomy, Options: []string{value}, Visible: true, Variation: variation}), true
}

func sortAttributes(attrs []models.ProductAttribute) {
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Taxonomy < attrs[j].Taxonomy })
}
