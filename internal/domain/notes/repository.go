package notes

import "context"

type Repository interface {
	ListByProject(ctx context.Context, userID, projectID string) ([]ProgressNote, error)
	GetByID(ctx context.Context, userID, noteID string) (*ProgressNote, error)
	Create(ctx context.Context, note *ProgressNote) error
	Update(ctx context.Context, note *ProgressNote) error
	Delete(ctx context.Context, userID, noteID string) (bool, error)

	// ProjectOwned reports whether the project row belongs to the user; Create
	// is gated on it so a note cannot be planted under a foreign project.
	ProjectOwned(ctx context.Context, userID, projectID string) (bool, error)
}
