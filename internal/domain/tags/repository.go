package tags

import "context"

type Repository interface {
	List(ctx context.Context, userID string) ([]Tag, error)
	GetByID(ctx context.Context, userID, tagID string) (*Tag, error)
	Create(ctx context.Context, tag *Tag) error
	Update(ctx context.Context, tag *Tag) error
	Delete(ctx context.Context, userID, tagID string) (bool, error)
	CountByName(ctx context.Context, userID, name, excludeID string) (int64, error)

	// Attach and Detach are idempotent per (project, tag) pair.
	Attach(ctx context.Context, projectID, tagID string) error
	Detach(ctx context.Context, projectID, tagID string) error
	IsAttached(ctx context.Context, projectID, tagID string) (bool, error)

	// ProjectOwned reports whether the project row belongs to the user; link
	// writes are gated on it because the join table itself is not user-scoped.
	ProjectOwned(ctx context.Context, userID, projectID string) (bool, error)
}
