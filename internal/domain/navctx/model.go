package navctx

import (
	"time"

	"diamond-app-go/internal/domain/projects"
)

// Snapshot is the dashboard state captured before navigating away and restored
// after an edit round-trip: filter selections, sort, pagination and scroll
// position.
type Snapshot struct {
	Filters   projects.Filters `json:"filters"`
	SortField string           `json:"sort_field"`
	SortDir   string           `json:"sort_dir"`
	Page      int              `json:"page"`
	PageSize  int              `json:"page_size"`
	ScrollY   int              `json:"scroll_y"`
}

// Record is the persisted snapshot, one row per user.
type Record struct {
	UserID    string    `gorm:"type:uuid;primaryKey"`
	Snapshot  []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Record) TableName() string { return "dashboard_contexts" }
