package notes

import (
	"context"
	"errors"

	notesdomain "diamond-app-go/internal/domain/notes"
	projectsdomain "diamond-app-go/internal/domain/projects"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByProject(ctx context.Context, userID, projectID string) ([]notesdomain.ProgressNote, error) {
	var rows []notesdomain.ProgressNote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Order("date desc, created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, noteID string) (*notesdomain.ProgressNote, error) {
	var note notesdomain.ProgressNote
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, noteID).
		First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notesdomain.ErrNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

func (r *PostgresRepository) Create(ctx context.Context, note *notesdomain.ProgressNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *PostgresRepository) Update(ctx context.Context, note *notesdomain.ProgressNote) error {
	return r.db.WithContext(ctx).
		Model(&notesdomain.ProgressNote{}).
		Where("id = ? AND user_id = ?", note.ID, note.UserID).
		Updates(map[string]interface{}{
			"date":       note.Date,
			"content":    note.Content,
			"image_path": note.ImagePath,
			"updated_at": note.UpdatedAt,
		}).Error
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, noteID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&notesdomain.ProgressNote{}, "user_id = ? AND id = ?", userID, noteID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ProjectOwned(ctx context.Context, userID, projectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&projectsdomain.Project{}).
		Where("id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}
