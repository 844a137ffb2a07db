package navctx

import (
	"context"
	"errors"

	navctxdomain "diamond-app-go/internal/domain/navctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, record *navctxdomain.Record) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"snapshot":   record.Snapshot,
				"updated_at": record.UpdatedAt,
			}),
		}).
		Create(record).Error
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*navctxdomain.Record, error) {
	var record navctxdomain.Record
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, navctxdomain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}
