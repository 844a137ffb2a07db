package projects

import (
	"context"
	"time"
)

type Repository interface {
	// List runs one paginated query under expr and also reports the total
	// match count.
	List(ctx context.Context, expr Expression, orderBy string, limit, offset int) ([]Project, int64, error)
	// ListAll fetches every match with pagination disabled; used by export.
	ListAll(ctx context.Context, expr Expression, orderBy string) ([]Project, error)
	// ListStatuses projects only the status column, capped at limit, with no
	// total-count computation.
	ListStatuses(ctx context.Context, expr Expression, limit int) ([]Status, error)
	// ListPageForUser pages through every project a user owns, unfiltered;
	// used by the stats recomputation.
	ListPageForUser(ctx context.Context, userID string, page, pageSize int) ([]Project, int64, error)

	GetByID(ctx context.Context, userID, projectID string) (*Project, error)
	Create(ctx context.Context, project *Project) error
	Update(ctx context.Context, project *Project) error
	UpdateStatus(ctx context.Context, userID, projectID string, status Status, dateCompleted *time.Time) error
	Delete(ctx context.Context, userID, projectID string) (bool, error)

	FindCompanyByName(ctx context.Context, userID, name string) (*Company, error)
	CreateCompany(ctx context.Context, company *Company) error
	CompanyNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
	FindArtistByName(ctx context.Context, userID, name string) (*Artist, error)
	CreateArtist(ctx context.Context, artist *Artist) error
	ArtistNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)

	TagIDsByProjectIDs(ctx context.Context, projectIDs []string) (map[string][]string, error)
	ReplaceProjectTags(ctx context.Context, projectID string, tagIDs []string) error

	// Cascade support: dependents are fetched id-only in fixed-size batches
	// and deleted one row at a time.
	CountNotesByProject(ctx context.Context, projectID string) (int64, error)
	ListNoteIDs(ctx context.Context, projectID string, limit int) ([]string, error)
	DeleteNoteByID(ctx context.Context, noteID string) error
	CountTagLinksByProject(ctx context.Context, projectID string) (int64, error)
	ListTagLinkIDs(ctx context.Context, projectID string, limit int) ([]string, error)
	DeleteTagLink(ctx context.Context, projectID, tagID string) error
}
