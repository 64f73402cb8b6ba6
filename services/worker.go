package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// StartSyncWorker consumes job ids from the queue until ctx is cancelled.
func StartSyncWorker(ctx context.Context, jobs *JobService) {
	if jobs == nil || jobs.store == nil {
		zap.L().Warn("sync worker not started: missing dependencies")
		return
	}

	go func() {
		zap.L().Info("sync worker started")
		for {
			select {
			case <-ctx.Done():
				zap.L().Info("sync worker stopping")
				return
			default:
			}

			id, err := jobs.store.DequeueJob(ctx, 5*time.Second)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				zap.L().Error("redis BLPop failed", zap.Error(err))
				time.Sleep(500 * time.Millisecond)
				continue
			}
			if id == "" {
				continue
			}
			_ = jobs.Run(ctx, id)
		}
	}()
}
