package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"
	"catalog-sync-service/repository"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const taxonomyPrefix = "pa_"

// AttributeRegistry maps attribute labels to taxonomy keys, creating
// missing taxonomies. One registry serves one reconciliation batch; the
// mutex makes test-and-create atomic within it.
type AttributeRegistry struct {
	repo  repository.AttributeRepo
	mu    sync.Mutex
	cache map[string]string
}

func NewAttributeRegistry(repo repository.AttributeRepo) *AttributeRegistry {
	return &AttributeRegistry{repo: repo, cache: make(map[string]string)}
}

// Slugify lowercases label, strips accents and joins alphanumeric runs with '-'.
func Slugify(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, label)
	if err != nil {
		plain = label
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Resolve returns the taxonomy key for label.
func (r *AttributeRegistry) Resolve(ctx context.Context, label string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if taxonomy, ok := r.cache[label]; ok {
		return taxonomy, nil
	}

	slug := Slugify(label)
	if slug == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidItem, fmt.Sprintf("attribute label %q has no slug", label))
	}
	taxonomy := taxonomyPrefix + slug

	_, err := r.repo.FindByTaxonomy(ctx, taxonomy)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNotFound):
		attr := &models.Attribute{
			Name:         label,
			Slug:         slug,
			Taxonomy:     taxonomy,
			Type:         "select",
			OrderBy:      "menu_order",
			HasArchives:  false,
			Hierarchical: true,
			ShowUI:       false,
		}
		if err := r.repo.Create(ctx, attr); err != nil {
			zap.L().Error("Failed to create attribute", zap.String("name", label), zap.Error(err))
			return "", fmt.Errorf("create attribute %s: %w", label, err)
		}
		zap.L().Info("Created attribute", zap.String("name", label), zap.String("taxonomy", taxonomy))
	default:
		return "", err
	}

	r.cache[label] = taxonomy
	return taxonomy, nil
}
