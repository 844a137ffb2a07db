package stats

import (
	"context"
	"errors"

	statsdomain "diamond-app-go/internal/domain/stats"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string, year int) (*statsdomain.Record, error) {
	var record statsdomain.Record
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND year = ? AND stats_type = ?", userID, year, statsdomain.StatsTypeYearly).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, statsdomain.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Upsert keys on (user, year, stats type). The last_calculated guard keeps a
// slow recomputation from overwriting a newer row.
func (r *PostgresRepository) Upsert(ctx context.Context, record *statsdomain.Record) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "year"}, {Name: "stats_type"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"completed_count":   record.CompletedCount,
				"started_count":     record.StartedCount,
				"in_progress_count": record.InProgressCount,
				"total_diamonds":    record.TotalDiamonds,
				"status_breakdown":  record.StatusBreakdown,
				"last_calculated":   record.LastCalculated,
				"calculation_ms":    record.CalculationMs,
				"cache_version":     record.CacheVersion,
				"updated_at":        record.UpdatedAt,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Lte{Column: "user_yearly_stats.last_calculated", Value: record.LastCalculated},
			}},
		}).
		Create(record).Error
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string, year *int) error {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND stats_type = ?", userID, statsdomain.StatsTypeYearly)
	if year != nil {
		query = query.Where("year = ?", *year)
	}
	return query.Delete(&statsdomain.Record{}).Error
}
