package models

import (
	"time"

	"github.com/google/uuid"
)

// Attribute is a global product attribute (Size, Color, Brand) registered
// under a stable taxonomy key.
type Attribute struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Slug         string    `json:"slug" gorm:"size:191;not null"`
	Taxonomy     string    `json:"taxonomy" gorm:"size:191;not null;uniqueIndex"`
	Type         string    `json:"type" gorm:"size:32"`
	OrderBy      string    `json:"order_by" gorm:"size:32"`
	HasArchives  bool      `json:"has_archives"`
	Hierarchical bool      `json:"hierarchical"`
	ShowUI       bool      `json:"show_ui"`
	CreatedAt    time.Time `json:"created_at"`
}
