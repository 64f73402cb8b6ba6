package repository

import (
	"context"
	"testing"
	"time"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisProgressStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisProgressStore(rdb), mr
}

func TestImportProgressLifecycle(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	p, err := store.GetImport(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, store.SaveImport(ctx, &models.ImportProgress{CatalogID: "9", CurrentPage: 2, Processed: 100, TotalItems: 1}))
	require.NoError(t, store.AddImportedSKUs(ctx, "A1", "A1-V1", "A1"))

	p, err = store.GetImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, ImportTTL, mr.TTL(importProgressKey))
	assert.Equal(t, ImportTTL, mr.TTL(importSKUsKey))

	skus, err := store.ImportedSKUs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A1-V1"}, skus)

	require.NoError(t, store.ClearImport(ctx))
	p, _ = store.GetImport(ctx)
	assert.Nil(t, p)
	skus, _ = store.ImportedSKUs(ctx)
	assert.Empty(t, skus)
}

func TestImportProgressExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveImport(ctx, &models.ImportProgress{CatalogID: "9"}))
	mr.FastForward(ImportTTL + time.Second)

	p, err := store.GetImport(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRemovalProgress(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRemoval(ctx, &models.RemovalProgress{Manufacturer: "Acme", RemoteSKUs: []string{"A1"}, Total: 3}))
	assert.Equal(t, RemovalTTL, mr.TTL(removalProgressKey))

	p, err := store.GetRemoval(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, p.RemoteSKUs)

	require.NoError(t, store.ClearRemoval(ctx))
	p, _ = store.GetRemoval(ctx)
	assert.Nil(t, p)
}

func TestStopFlag(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	stop, err := store.StopRequested(ctx)
	require.NoError(t, err)
	assert.False(t, stop)

	require.NoError(t, store.RequestStop(ctx))
	stop, _ = store.StopRequested(ctx)
	assert.True(t, stop)

	mr.FastForward(StopTTL + time.Second)
	stop, _ = store.StopRequested(ctx)
	assert.False(t, stop)

	require.NoError(t, store.RequestStop(ctx))
	require.NoError(t, store.ClearStop(ctx))
	stop, _ = store.StopRequested(ctx)
	assert.False(t, stop)
}

func TestJobQueue(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	job := &models.SyncJob{ID: "j1", CatalogID: "9", Status: models.SyncJobPending}
	require.NoError(t, store.SaveJob(ctx, job))
	require.NoError(t, store.EnqueueJob(ctx, job.ID))

	id, err := store.DequeueJob(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "j1", id)

	got, err := store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncJobPending, got.Status)
}
