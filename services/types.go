package services

import (
	"context"
	"time"

	"catalog-sync-service/models"
)

// BatchStats tallies what one reconciliation batch did.
type BatchStats struct {
	Added        int `json:"added"`
	Updated      int `json:"updated"`
	Failed       int `json:"failed"`
	ImagesFailed int `json:"images_failed"`
}

// BatchProcessor applies one page of catalog items to the local store.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, items []models.RemoteItem) (*BatchStats, error)
}

// ImportStep is the result of one import call.
type ImportStep struct {
	Complete      bool        `json:"complete"`
	Stage         string      `json:"stage,omitempty"`
	Progress      float64     `json:"progress"`
	Current       int         `json:"current"`
	Total         int         `json:"total"`
	Page          int         `json:"page,omitempty"`
	Message       string      `json:"message"`
	Batch         *BatchStats `json:"batch,omitempty"`
	TotalProducts int64       `json:"total_products,omitempty"`
}

// RemovalStep is the result of one removal call.
type RemovalStep struct {
	Complete bool    `json:"complete"`
	Progress float64 `json:"progress"`
	Current  int     `json:"current"`
	Total    int64   `json:"total"`
	Removed  int     `json:"removed"`
	Message  string  `json:"message"`
}

// SyncStatus reports persisted progress of both passes.
type SyncStatus struct {
	Import        *models.ImportProgress `json:"import,omitempty"`
	Removal       *RemovalStatus         `json:"removal,omitempty"`
	StopRequested bool                   `json:"stop_requested"`
}

type RemovalStatus struct {
	Manufacturer string    `json:"manufacturer"`
	RemoteSKUs   int       `json:"remote_skus"`
	Offset       int       `json:"offset"`
	Scanned      int       `json:"scanned"`
	Total        int64     `json:"total"`
	Removed      int       `json:"removed"`
	StartedAt    time.Time `json:"started_at"`
}

// MetricsRecorder is satisfied by the CloudWatch metrics client.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

type noopMetrics struct{}

func (noopMetrics) RecordCount(context.Context, string, float64, map[string]string) error {
	return nil
}

func (noopMetrics) RecordLatency(context.Context, string, time.Duration, map[string]string) error {
	return nil
}

func percent(n, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
