package notes

import "time"

// ProgressNote belongs to exactly one project. Notes are created, updated and
// deleted independently; deleting a project removes all of its notes first.
type ProgressNote struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ProjectID string    `gorm:"type:uuid;index;not null"`
	UserID    string    `gorm:"type:uuid;index;not null"`
	Date      time.Time `gorm:"type:date;not null"`
	Content   string    `gorm:"type:text;not null"`
	ImagePath *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ProgressNote) TableName() string { return "progress_notes" }

type CreateNoteInput struct {
	UserID    string
	ProjectID string
	Date      time.Time
	Content   string
	ImagePath *string
}

type UpdateNoteInput struct {
	ID        string
	UserID    string
	Date      time.Time
	Content   string
	ImagePath *string
}
