package tags

import "time"

// Tag is a user-scoped label attached to projects through the project_tags
// join table.
type Tag struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	Color     *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type CreateTagInput struct {
	UserID string
	Name   string
	Color  *string
}

type UpdateTagInput struct {
	ID     string
	UserID string
	Name   string
	Color  *string
}
