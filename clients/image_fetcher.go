package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	"catalog-sync-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxImageBytes = 20 << 20

// ImageFetcher downloads remote images into the media store.
type ImageFetcher interface {
	FetchAndStore(ctx context.Context, rawURL string, ownerID uuid.UUID) (uuid.UUID, error)
}

// ObjectPutter uploads a blob and returns its key and public URL.
type ObjectPutter interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, string, error)
}

// HTTPImageFetcher downloads over HTTP, uploads to object storage and records
// an attachment per canonical source URL.
type HTTPImageFetcher struct {
	httpClient  *http.Client
	store       ObjectPutter
	attachments repository.AttachmentRepo
	limiter     *rate.Limiter
}

func NewHTTPImageFetcher(store ObjectPutter, attachments repository.AttachmentRepo, timeout time.Duration, ratePerSec float64) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &HTTPImageFetcher{
		httpClient:  &http.Client{Timeout: timeout},
		store:       store,
		attachments: attachments,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

// SanitizeImageURL strips the query string and fragment so one image is
// stored once regardless of tracking parameters.
func SanitizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	return u.String()
}

func (f *HTTPImageFetcher) FetchAndStore(ctx context.Context, rawURL string, ownerID uuid.UUID) (uuid.UUID, error) {
	src := SanitizeImageURL(rawURL)
	if src == "" {
		return uuid.Nil, apperrors.WithMessage(apperrors.ErrImageFetch, "empty image URL")
	}

	existing, err := f.attachments.FindBySourceURL(ctx, src)
	if err == nil {
		zap.L().Info("Image already exists", zap.String("url", src), zap.String("attachment_id", existing.ID.String()))
		return existing.ID, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return uuid.Nil, err
	}

	data, contentType, err := f.download(ctx, src)
	if err != nil {
		zap.L().Error("Failed to download image", zap.String("url", src), zap.Error(err))
		return uuid.Nil, err
	}

	id := uuid.New()
	key, publicURL, err := f.store.Put(ctx, id.String()+imageExt(src, contentType), contentType, data)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.ErrImageFetch, err)
	}

	att := &models.Attachment{ID: id, SourceURL: src, ObjectKey: key, PublicURL: publicURL}
	if ownerID != uuid.Nil {
		att.OwnerID = &ownerID
	}
	if err := f.attachments.Create(ctx, att); err != nil {
		return uuid.Nil, fmt.Errorf("failed to record attachment: %w", err)
	}
	zap.L().Info("Downloaded image", zap.String("url", src), zap.String("attachment_id", id.String()))
	return id, nil
}

func (f *HTTPImageFetcher) download(ctx context.Context, src string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrImageFetch, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrImageFetch, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrImageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperrors.Wrap(apperrors.ErrImageFetch, fmt.Errorf("%d", resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrImageFetch, err)
	}
	if len(data) > maxImageBytes {
		return nil, "", apperrors.Wrap(apperrors.ErrImageFetch, errors.New("image too large"))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", apperrors.Wrap(apperrors.ErrImageFetch, fmt.Errorf("unexpected content type %s", contentType))
	}
	return data, contentType, nil
}

func imageExt(src, contentType string) string {
	if u, err := url.Parse(src); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
