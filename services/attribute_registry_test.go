package services

import (
	"context"
	"testing"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeRegistryCreatesOnce(t *testing.T) {
	repo := newMemAttributes()
	reg := NewAttributeRegistry(repo)

	tax, err := reg.Resolve(context.Background(), "Size")
	require.NoError(t, err)
	assert.Equal(t, "pa_size", tax)

	_, err = reg.Resolve(context.Background(), "Size")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.creates)

	a := repo.byTax["pa_size"]
	assert.Equal(t, "select", a.Type)
	assert.Equal(t, "menu_order", a.OrderBy)
	assert.True(t, a.Hierarchical)
	assert.False(t, a.ShowUI)
	assert.False(t, a.HasArchives)
}

func TestAttributeRegistryReusesExisting(t *testing.T) {
	repo := newMemAttributes()
	repo.byTax["pa_color"] = &models.Attribute{Name: "Color", Taxonomy: "pa_color"}

	// a fresh registry re-derives the key from the store
	tax, err := NewAttributeRegistry(repo).Resolve(context.Background(), "Color")
	require.NoError(t, err)
	assert.Equal(t, "pa_color", tax)
	assert.Equal(t, 0, repo.creates)
}

func TestAttributeRegistryRejectsEmptySlug(t *testing.T) {
	_, err := NewAttributeRegistry(newMemAttributes()).Resolve(context.Background(), "!!")
	assert.ErrorIs(t, err, apperrors.ErrInvalidItem)
}
