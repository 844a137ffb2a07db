package projects

import (
	"context"
	"errors"
	"time"

	projectsdomain "diamond-app-go/internal/domain/projects"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, expr projectsdomain.Expression, orderBy string, limit, offset int) ([]projectsdomain.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&projectsdomain.Project{})
	if expr.SQL != "" {
		query = query.Where(expr.SQL, expr.Params)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []projectsdomain.Project
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context, expr projectsdomain.Expression, orderBy string) ([]projectsdomain.Project, error) {
	query := r.db.WithContext(ctx).Model(&projectsdomain.Project{})
	if expr.SQL != "" {
		query = query.Where(expr.SQL, expr.Params)
	}
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	var rows []projectsdomain.Project
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListStatuses projects only the status column and skips the count query
// entirely; the caller buckets the values in memory.
func (r *PostgresRepository) ListStatuses(ctx context.Context, expr projectsdomain.Expression, limit int) ([]projectsdomain.Status, error) {
	query := r.db.WithContext(ctx).Model(&projectsdomain.Project{})
	if expr.SQL != "" {
		query = query.Where(expr.SQL, expr.Params)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var values []string
	if err := query.Pluck("status", &values).Error; err != nil {
		return nil, err
	}

	statuses := make([]projectsdomain.Status, 0, len(values))
	for _, value := range values {
		statuses = append(statuses, projectsdomain.Status(value))
	}
	return statuses, nil
}

func (r *PostgresRepository) ListPageForUser(ctx context.Context, userID string, page, pageSize int) ([]projectsdomain.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&projectsdomain.Project{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []projectsdomain.Project
	if err := query.Order("created_at asc").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, projectID string) (*projectsdomain.Project, error) {
	var project projectsdomain.Project
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, projectID).
		First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, projectsdomain.ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *PostgresRepository) Create(ctx context.Context, project *projectsdomain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *PostgresRepository) Update(ctx context.Context, project *projectsdomain.Project) error {
	return r.db.WithContext(ctx).
		Model(&projectsdomain.Project{}).
		Where("id = ? AND user_id = ?", project.ID, project.UserID).
		Updates(map[string]interface{}{
			"title":          project.Title,
			"status":         project.Status,
			"company_id":     project.CompanyID,
			"artist_id":      project.ArtistID,
			"width":          project.Width,
			"height":         project.Height,
			"drill_shape":    project.DrillShape,
			"kit_category":   project.KitCategory,
			"date_purchased": project.DatePurchased,
			"date_received":  project.DateReceived,
			"date_started":   project.DateStarted,
			"date_completed": project.DateCompleted,
			"general_notes":  project.GeneralNotes,
			"source_url":     project.SourceURL,
			"total_diamonds": project.TotalDiamonds,
			"image_path":     project.ImagePath,
			"updated_at":     project.UpdatedAt,
		}).Error
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, userID, projectID string, status projectsdomain.Status, dateCompleted *time.Time) error {
	fields := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if dateCompleted != nil {
		fields["date_completed"] = *dateCompleted
	}

	result := r.db.WithContext(ctx).
		Model(&projectsdomain.Project{}).
		Where("id = ? AND user_id = ?", projectID, userID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return projectsdomain.ErrProjectNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, projectID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&projectsdomain.Project{}, "user_id = ? AND id = ?", userID, projectID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) FindCompanyByName(ctx context.Context, userID, name string) (*projectsdomain.Company, error) {
	var company projectsdomain.Company
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND lower(name) = lower(?)", userID, name).
		First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *PostgresRepository) CreateCompany(ctx context.Context, company *projectsdomain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *PostgresRepository) CompanyNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []projectsdomain.Company
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *PostgresRepository) FindArtistByName(ctx context.Context, userID, name string) (*projectsdomain.Artist, error) {
	var artist projectsdomain.Artist
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND lower(name) = lower(?)", userID, name).
		First(&artist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &artist, nil
}

func (r *PostgresRepository) CreateArtist(ctx context.Context, artist *projectsdomain.Artist) error {
	return r.db.WithContext(ctx).Create(artist).Error
}

func (r *PostgresRepository) ArtistNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []projectsdomain.Artist
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *PostgresRepository) TagIDsByProjectIDs(ctx context.Context, projectIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(projectIDs))
	if len(projectIDs) == 0 {
		return result, nil
	}

	var rows []projectsdomain.ProjectTag
	if err := r.db.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ProjectID] = append(result[row.ProjectID], row.TagID)
	}
	return result, nil
}

func (r *PostgresRepository) ReplaceProjectTags(ctx context.Context, projectID string, tagIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&projectsdomain.ProjectTag{}).Error; err != nil {
			return err
		}
		if len(tagIDs) == 0 {
			return nil
		}
		links := make([]projectsdomain.ProjectTag, 0, len(tagIDs))
		for _, tagID := range tagIDs {
			links = append(links, projectsdomain.ProjectTag{ProjectID: projectID, TagID: tagID})
		}
		return tx.Create(&links).Error
	})
}

func (r *PostgresRepository) CountNotesByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("progress_notes").
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) ListNoteIDs(ctx context.Context, projectID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("progress_notes").
		Where("project_id = ?", projectID).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *PostgresRepository) DeleteNoteByID(ctx context.Context, noteID string) error {
	return r.db.WithContext(ctx).
		Table("progress_notes").
		Where("id = ?", noteID).
		Delete(nil).Error
}

func (r *PostgresRepository) CountTagLinksByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&projectsdomain.ProjectTag{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) ListTagLinkIDs(ctx context.Context, projectID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&projectsdomain.ProjectTag{}).
		Where("project_id = ?", projectID).
		Order("tag_id").
		Limit(limit).
		Pluck("tag_id", &ids).Error
	return ids, err
}

func (r *PostgresRepository) DeleteTagLink(ctx context.Context, projectID, tagID string) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND tag_id = ?", projectID, tagID).
		Delete(&projectsdomain.ProjectTag{}).Error
}
