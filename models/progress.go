package models

import "time"

// ImportProgress is the persisted state of a paginated catalog import.
type ImportProgress struct {
	CatalogID    string    `json:"catalog_id"`
	CurrentPage  int       `json:"current_page"`
	Processed    int       `json:"processed"`
	TotalItems   int       `json:"total_items"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Added        int       `json:"added"`
	Updated      int       `json:"updated"`
	Failed       int       `json:"failed"`
	StartedAt    time.Time `json:"started_at"`
}

// RemovalProgress is the persisted state of a stale-product removal pass.
type RemovalProgress struct {
	Manufacturer string    `json:"manufacturer"`
	RemoteSKUs   []string  `json:"remote_skus"`
	Offset       int       `json:"offset"`
	Scanned      int       `json:"scanned"`
	Total        int64     `json:"total"`
	Removed      int       `json:"removed"`
	StartedAt    time.Time `json:"started_at"`
}

type SyncJobStatus string

const (
	SyncJobPending    SyncJobStatus = "pending"
	SyncJobProcessing SyncJobStatus = "processing"
	SyncJobDone       SyncJobStatus = "done"
	SyncJobFailed     SyncJobStatus = "failed"
)

// SyncJob is the metadata of a queued full sync run.
type SyncJob struct {
	ID        string        `json:"id"`
	CatalogID string        `json:"catalog_id"`
	Status    SyncJobStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
	Pages     int           `json:"pages"`
	Processed int           `json:"processed"`
	Added     int           `json:"added"`
	Updated   int           `json:"updated"`
	Removed   int           `json:"removed"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
