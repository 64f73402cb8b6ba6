package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"catalog-sync-service/clients"
	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	"catalog-sync-service/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type memProducts struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*models.Product
	order []uuid.UUID

	// onSave runs before every write, used to assert ordering
	onSave     func(p *models.Product)
	corruptIDs map[uuid.UUID]bool
	deleteErr  map[string]error
}

func newMemProducts() *memProducts {
	return &memProducts{byID: map[uuid.UUID]*models.Product{}, corruptIDs: map[uuid.UUID]bool{}, deleteErr: map[string]error{}}
}

func clone(p *models.Product) *models.Product {
	c := *p
	c.Attributes = nil
	for _, a := range p.Attributes {
		a.Options = append([]string(nil), a.Options...)
		c.Attributes = append(c.Attributes, a)
	}
	if p.VariationAttributes != nil {
		c.VariationAttributes = map[string]string{}
		for k, v := range p.VariationAttributes {
			c.VariationAttributes[k] = v
		}
	}
	c.GalleryImageIDs = append([]uuid.UUID(nil), p.GalleryImageIDs...)
	return &c
}

func (m *memProducts) FindIDBySKU(ctx context.Context, sku string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if p, ok := m.byID[id]; ok && p.SKU == sku {
			return id, nil
		}
	}
	return uuid.Nil, apperrors.WithMessage(apperrors.ErrNotFound, "product not found")
}

func (m *memProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.corruptIDs[id] {
		return nil, errors.New("unreadable row")
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "product not found")
	}
	return clone(p), nil
}

func (m *memProducts) Create(ctx context.Context, p *models.Product) error {
	if m.onSave != nil {
		m.onSave(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.byID[p.ID] = clone(p)
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memProducts) Save(ctx context.Context, p *models.Product) error {
	if m.onSave != nil {
		m.onSave(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.byID[p.ID] = clone(p)
	return nil
}

func (m *memProducts) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		if err := m.deleteErr[p.SKU]; err != nil {
			return err
		}
	}
	delete(m.byID, id)
	return nil
}

func (m *memProducts) FindByBrand(ctx context.Context, brand string, offset, limit int) ([]models.ProductRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var refs []models.ProductRef
	seen := 0
	for _, id := range m.order {
		p, ok := m.byID[id]
		if !ok || p.Brand != brand {
			continue
		}
		if seen < offset {
			seen++
			continue
		}
		refs = append(refs, models.ProductRef{ID: id, SKU: p.SKU})
		if len(refs) == limit {
			break
		}
	}
	return refs, nil
}

func (m *memProducts) CountByBrand(ctx context.Context, brand string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.byID {
		if p.Brand == brand {
			n++
		}
	}
	return n, nil
}

func (m *memProducts) bySKU(sku string) *models.Product {
	id, err := m.FindIDBySKU(context.Background(), sku)
	if err != nil {
		return nil
	}
	p, _ := m.FindByID(context.Background(), id)
	return p
}

func (m *memProducts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memProducts) add(p *models.Product) *models.Product {
	_ = m.Create(context.Background(), p)
	return p
}

type memAttributes struct {
	mu      sync.Mutex
	byTax   map[string]*models.Attribute
	creates int
}

func newMemAttributes() *memAttributes {
	return &memAttributes{byTax: map[string]*models.Attribute{}}
}

func (m *memAttributes) FindByTaxonomy(ctx context.Context, taxonomy string) (*models.Attribute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byTax[taxonomy]; ok {
		return a, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrNotFound, "attribute not found")
}

func (m *memAttributes) Create(ctx context.Context, a *models.Attribute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	m.byTax[a.Taxonomy] = a
	return nil
}

// memImages hands out one id per URL and fails for URLs in failing.
type memImages struct {
	mu      sync.Mutex
	ids     map[string]uuid.UUID
	failing map[string]bool
	calls   []string
}

func newMemImages(failing ...string) *memImages {
	f := map[string]bool{}
	for _, u := range failing {
		f[u] = true
	}
	return &memImages{ids: map[string]uuid.UUID{}, failing: f}
}

func (m *memImages) FetchAndStore(ctx context.Context, url string, owner uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	if m.failing[url] {
		return uuid.Nil, apperrors.Wrap(apperrors.ErrImageFetch, errors.New("404"))
	}
	if id, ok := m.ids[url]; ok {
		return id, nil
	}
	id := uuid.New()
	m.ids[url] = id
	return id, nil
}

var _ clients.ImageFetcher = (*memImages)(nil)

// pagedCatalog serves pages[catalogID][page-1]; missing pages are empty.
// skipped adds rows that failed validation upstream to a page.
type pagedCatalog struct {
	pages    map[string][][]models.RemoteItem
	skipped  map[int]int
	errAt    map[int]error
	onFetch  func(page int)
	requests []int
	catalogs []models.Catalog
}

func (c *pagedCatalog) FetchPage(ctx context.Context, catalogID string, page int) (*models.CatalogPage, error) {
	c.requests = append(c.requests, page)
	if c.onFetch != nil {
		c.onFetch(page)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransport, err)
	}
	if err := c.errAt[page]; err != nil {
		return nil, err
	}
	out := &models.CatalogPage{Skipped: c.skipped[page]}
	pages := c.pages[catalogID]
	if page-1 < len(pages) {
		out.Items = pages[page-1]
	}
	return out, nil
}

func (c *pagedCatalog) ListCatalogs(ctx context.Context) ([]models.Catalog, error) {
	if len(c.catalogs) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "No catalogs found")
	}
	return c.catalogs, nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []SyncEvent
}

func (r *recordedEvents) Publish(ctx context.Context, e SyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newProgressStore(t *testing.T) *repository.RedisProgressStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return repository.NewRedisProgressStore(rdb)
}
