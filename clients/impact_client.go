package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const impactBaseURL = "https://api.impact.com"

// CatalogClient fetches merchant catalogs from the affiliate network.
type CatalogClient interface {
	FetchPage(ctx context.Context, catalogID string, page int) (*models.CatalogPage, error)
	ListCatalogs(ctx context.Context) ([]models.Catalog, error)
}

// ImpactClient talks to the Impact Mediapartners API with Basic auth.
type ImpactClient struct {
	baseURL    string
	accountSID string
	authToken  string
	httpClient *http.Client
	limiter    *rate.Limiter
	validate   *validator.Validate
}

// ImpactOptions configures an ImpactClient. Zero values fall back to defaults.
type ImpactOptions struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	Timeout    time.Duration
	RatePerSec float64
}

func NewImpactClient(opts ImpactOptions) *ImpactClient {
	if opts.BaseURL == "" {
		opts.BaseURL = impactBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &ImpactClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		accountSID: opts.AccountSID,
		authToken:  opts.AuthToken,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		validate:   validator.New(),
	}
}

type impactCatalog struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type impactCatalogList struct {
	Catalogs []impactCatalog `json:"Catalogs"`
}

func (c *ImpactClient) get(ctx context.Context, path string, query url.Values, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrTransport, err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransport, err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.Wrap(apperrors.ErrTransport, fmt.Errorf("impact API returned %d: %s", resp.StatusCode, truncate(body, 200)))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Wrap(apperrors.ErrParse, err)
	}
	return nil
}

// FetchPage returns one page of catalog items. Items that fail validation are
// dropped and counted in Skipped, so only a page with no upstream rows is
// Exhausted.
func (c *ImpactClient) FetchPage(ctx context.Context, catalogID string, page int) (*models.CatalogPage, error) {
	path := fmt.Sprintf("/Mediapartners/%s/Catalogs/%s/Items", url.PathEscape(c.accountSID), url.PathEscape(catalogID))
	query := url.Values{"page": []string{fmt.Sprint(page)}}

	var body models.CatalogPage
	if err := c.get(ctx, path, query, &body); err != nil {
		zap.L().Error("Failed to retrieve catalog items",
			zap.String("catalog_id", catalogID), zap.Int("page", page), zap.Error(err))
		return nil, err
	}

	out := &models.CatalogPage{Items: make([]models.RemoteItem, 0, len(body.Items))}
	for _, it := range body.Items {
		if err := c.validate.Struct(it); err != nil {
			zap.L().Warn("Skipping invalid catalog item",
				zap.String("catalog_id", catalogID), zap.Int("page", page), zap.Error(err))
			out.Skipped++
			continue
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}

// ListCatalogs returns the merchant catalogs available to the account.
func (c *ImpactClient) ListCatalogs(ctx context.Context) ([]models.Catalog, error) {
	path := fmt.Sprintf("/Mediapartners/%s/Catalogs", url.PathEscape(c.accountSID))

	var body impactCatalogList
	if err := c.get(ctx, path, nil, &body); err != nil {
		zap.L().Error("Failed to retrieve catalogs", zap.Error(err))
		return nil, err
	}
	if len(body.Catalogs) == 0 {
		zap.L().Warn("No catalogs found")
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "No catalogs found")
	}

	out := make([]models.Catalog, 0, len(body.Catalogs))
	for _, c := range body.Catalogs {
		out = append(out, models.Catalog{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
