package tags

import (
	"context"
	"errors"

	projectsdomain "diamond-app-go/internal/domain/projects"
	tagsdomain "diamond-app-go/internal/domain/tags"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]tagsdomain.Tag, error) {
	var rows []tagsdomain.Tag
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("lower(name) asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, tagID string) (*tagsdomain.Tag, error) {
	var tag tagsdomain.Tag
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, tagID).
		First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tagsdomain.ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (r *PostgresRepository) Create(ctx context.Context, tag *tagsdomain.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *PostgresRepository) Update(ctx context.Context, tag *tagsdomain.Tag) error {
	return r.db.WithContext(ctx).
		Model(&tagsdomain.Tag{}).
		Where("id = ? AND user_id = ?", tag.ID, tag.UserID).
		Updates(map[string]interface{}{
			"name":       tag.Name,
			"color":      tag.Color,
			"updated_at": tag.UpdatedAt,
		}).Error
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, tagID string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tagID).Delete(&projectsdomain.ProjectTag{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&tagsdomain.Tag{}, "user_id = ? AND id = ?", userID, tagID)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *PostgresRepository) CountByName(ctx context.Context, userID, name, excludeID string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&tagsdomain.Tag{}).
		Where("user_id = ? AND lower(name) = lower(?)", userID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *PostgresRepository) Attach(ctx context.Context, projectID, tagID string) error {
	link := projectsdomain.ProjectTag{ProjectID: projectID, TagID: tagID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

func (r *PostgresRepository) Detach(ctx context.Context, projectID, tagID string) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND tag_id = ?", projectID, tagID).
		Delete(&projectsdomain.ProjectTag{}).Error
}

func (r *PostgresRepository) IsAttached(ctx context.Context, projectID, tagID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&projectsdomain.ProjectTag{}).
		Where("project_id = ? AND tag_id = ?", projectID, tagID).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) ProjectOwned(ctx context.Context, userID, projectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&projectsdomain.Project{}).
		Where("id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}
