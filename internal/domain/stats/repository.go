package stats

import (
	"context"

	"diamond-app-go/internal/domain/projects"
)

type Repository interface {
	Get(ctx context.Context, userID string, year int) (*Record, error)
	// Upsert updates the row for (user, year, type) or creates it. It must
	// never move LastCalculated backwards.
	Upsert(ctx context.Context, record *Record) error
	// Delete removes the row for one year, or every year when year is nil.
	Delete(ctx context.Context, userID string, year *int) error
}

// ProjectSource pages through a user's full project list for recomputation.
type ProjectSource interface {
	ListPageForUser(ctx context.Context, userID string, page, pageSize int) ([]projects.Project, int64, error)
}
