package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/models"

	"github.com/go-redis/redis/v8"
)

const (
	importProgressKey  = "catalog_sync:import:progress"
	importSKUsKey      = "catalog_sync:import:skus"
	removalProgressKey = "catalog_sync:removal:progress"
	stopFlagKey        = "catalog_sync:stop"
	jobQueueKey        = "catalog_sync:queue"
	jobKeyPrefix       = "catalog_sync:job:"

	ImportTTL  = 6 * time.Hour
	RemovalTTL = time.Hour
	StopTTL    = 5 * time.Minute
	JobTTL     = 24 * time.Hour
)

// RedisProgressStore keeps sync step state in Redis so steps survive restarts.
type RedisProgressStore struct {
	rdb *redis.Client
}

func NewRedisProgressStore(rdb *redis.Client) *RedisProgressStore {
	return &RedisProgressStore{rdb: rdb}
}

func (s *RedisProgressStore) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisProgressStore) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisProgressStore) GetImport(ctx context.Context) (*models.ImportProgress, error) {
	var p models.ImportProgress
	ok, err := s.getJSON(ctx, importProgressKey, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *RedisProgressStore) SaveImport(ctx context.Context, p *models.ImportProgress) error {
	return s.setJSON(ctx, importProgressKey, p, ImportTTL)
}

// ClearImport drops the progress record and the accumulated SKU set.
func (s *RedisProgressStore) ClearImport(ctx context.Context) error {
	return s.rdb.Del(ctx, importProgressKey, importSKUsKey).Err()
}

func (s *RedisProgressStore) AddImportedSKUs(ctx context.Context, skus ...string) error {
	if len(skus) == 0 {
		return nil
	}
	members := make([]interface{}, len(skus))
	for i, sku := range skus {
		members[i] = sku
	}
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, importSKUsKey, members...)
	pipe.Expire(ctx, importSKUsKey, ImportTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis sadd imported skus: %w", err)
	}
	return nil
}

func (s *RedisProgressStore) ImportedSKUs(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, importSKUsKey).Result()
}

func (s *RedisProgressStore) GetRemoval(ctx context.Context) (*models.RemovalProgress, error) {
	var p models.RemovalProgress
	ok, err := s.getJSON(ctx, removalProgressKey, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *RedisProgressStore) SaveRemoval(ctx context.Context, p *models.RemovalProgress) error {
	return s.setJSON(ctx, removalProgressKey, p, RemovalTTL)
}

func (s *RedisProgressStore) ClearRemoval(ctx context.Context) error {
	return s.rdb.Del(ctx, removalProgressKey).Err()
}

func (s *RedisProgressStore) RequestStop(ctx context.Context) error {
	return s.rdb.Set(ctx, stopFlagKey, "1", StopTTL).Err()
}

func (s *RedisProgressStore) StopRequested(ctx context.Context) (bool, error) {
	n, err := s.rdb.Exists(ctx, stopFlagKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists stop flag: %w", err)
	}
	return n > 0, nil
}

func (s *RedisProgressStore) ClearStop(ctx context.Context) error {
	return s.rdb.Del(ctx, stopFlagKey).Err()
}

func (s *RedisProgressStore) SaveJob(ctx context.Context, job *models.SyncJob) error {
	return s.setJSON(ctx, jobKeyPrefix+job.ID, job, JobTTL)
}

func (s *RedisProgressStore) GetJob(ctx context.Context, id string) (*models.SyncJob, error) {
	var job models.SyncJob
	ok, err := s.getJSON(ctx, jobKeyPrefix+id, &job)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "job not found")
	}
	return &job, nil
}

func (s *RedisProgressStore) EnqueueJob(ctx context.Context, id string) error {
	return s.rdb.RPush(ctx, jobQueueKey, id).Err()
}

func (s *RedisProgressStore) DequeueJob(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := s.rdb.BLPop(ctx, timeout, jobQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}
