package navctx

import "context"

type Repository interface {
	Upsert(ctx context.Context, record *Record) error
	Get(ctx context.Context, userID string) (*Record, error)
}
