package projects

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"diamond-app-go/pkg/cache"
	"diamond-app-go/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	defaultStatusCountCap  = 2000
	defaultDeleteBatchSize = 50
	defaultDeleteChunkSize = 5
	defaultImageURLPrefix  = "/images/"
	exportOrderBy          = "title asc"
	defaultSortColumn      = "updated_at"
	defaultSortDirection   = "desc"
)

type Config struct {
	// StatusCountCap bounds the status-projection query. Hitting it exactly
	// means the histogram is truncated and a warning is logged.
	StatusCountCap int
	// DeleteBatchSize is the id-page size for cascading deletes.
	DeleteBatchSize int
	// DeleteChunkSize is how many deletes run concurrently within a batch.
	DeleteChunkSize int
	ImageURLPrefix  string
}

func (c Config) withDefaults() Config {
	if c.StatusCountCap <= 0 {
		c.StatusCountCap = defaultStatusCountCap
	}
	if c.DeleteBatchSize <= 0 {
		c.DeleteBatchSize = defaultDeleteBatchSize
	}
	if c.DeleteChunkSize <= 0 {
		c.DeleteChunkSize = defaultDeleteChunkSize
	}
	if c.ImageURLPrefix == "" {
		c.ImageURLPrefix = defaultImageURLPrefix
	}
	return c
}

// Service is the dashboard read and write path over the project record store.
type Service struct {
	repo      Repository
	filters   *FilterBuilder
	store     *cache.Store
	notifier  Notifier
	publisher ChangePublisher
	cfg       Config
	log       logger.Logger
	now       func() time.Time
	randIntN  func(n int) int
}

func NewService(repo Repository, store *cache.Store, cfg Config, notifier Notifier, publisher ChangePublisher, log logger.Logger) *Service {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Service{
		repo:      repo,
		filters:   NewFilterBuilder(log),
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		log:       log,
		now:       time.Now,
		randIntN:  rand.Intn,
	}
}

// FilterBuilder exposes the builder for callers that only need expressions.
func (s *Service) FilterBuilder() *FilterBuilder {
	return s.filters
}

// sortColumns maps the UI sort vocabulary onto record columns. Unknown fields
// fall back to the last-updated sort.
var sortColumns = map[string]string{
	"last_updated":   "updated_at",
	"alphabetical":   "title",
	"date_purchased": "date_purchased",
	"date_received":  "date_received",
	"date_started":   "date_started",
	"date_finished":  "date_completed",
	"kit_category":   "kit_category",
	"width":          "width",
	"height":         "height",
}

func (s *Service) orderBy(field, dir string) string {
	column, ok := sortColumns[field]
	if !ok {
		if field != "" {
			s.log.Debug("list: unknown sort field, using default", "field", field)
		}
		column = defaultSortColumn
		dir = defaultSortDirection
	}
	if dir != "asc" && dir != "desc" {
		dir = defaultSortDirection
	}
	return column + " " + dir
}

// ListProjects is the main dashboard read path: filter build, one paginated
// query, record transformation, optional sidebar status counts. Results are
// cached per (owner, filter, sort, page) and served from cache until a
// mutation edits or invalidates the partition.
func (s *Service) ListProjects(ctx context.Context, opts ListOptions) (*ListResult, error) {
	userID := strings.TrimSpace(opts.Filters.UserID)
	if userID == "" {
		return nil, ErrMissingOwner
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	expr := s.filters.Build(opts.Filters)
	if _, ok := expr.Params["owner_id"]; !ok {
		// Build already warned; refuse to run an unscoped dashboard query.
		return nil, ErrMissingOwner
	}

	orderBy := s.orderBy(opts.SortField, opts.SortDir)
	key := listKey(userID, expr.Fingerprint(), orderBy, page, pageSize, opts.IncludeStatusCounts)
	if value, ok := s.store.Get(key); ok {
		if result, ok := value.(*ListResult); ok {
			return cloneListResult(result), nil
		}
	}

	rows, total, err := s.repo.List(ctx, expr, orderBy, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, backendErr("list projects", err)
	}

	views, err := s.toViews(ctx, rows)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Projects:    views,
		TotalItems:  total,
		TotalPages:  int((total + int64(pageSize) - 1) / int64(pageSize)),
		CurrentPage: page,
		PageSize:    pageSize,
	}

	if opts.IncludeStatusCounts {
		counts, err := s.GetBatchStatusCounts(ctx, opts.Filters)
		if err != nil {
			return nil, err
		}
		result.StatusCounts = counts
	}

	s.store.Set(key, cloneListResult(result))
	return result, nil
}

func (s *Service) GetProject(ctx context.Context, userID, projectID string) (*ProjectView, error) {
	key := detailKey(userID, projectID)
	if value, ok := s.store.Get(key); ok {
		if view, ok := value.(*ProjectView); ok {
			cloned := cloneView(view)
			return &cloned, nil
		}
	}

	project, err := s.repo.GetByID(ctx, userID, projectID)
	if err != nil {
		if err == ErrProjectNotFound {
			return nil, err
		}
		return nil, backendErr("get project", err)
	}

	views, err := s.toViews(ctx, []Project{*project})
	if err != nil {
		return nil, err
	}
	view := views[0]

	stored := cloneView(&view)
	s.store.Set(key, &stored)
	return &view, nil
}

func (s *Service) CreateProject(ctx context.Context, input CreateProjectInput) (*ProjectView, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrMissingOwner
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	status := input.Status
	if status == "" {
		status = StatusWishlist
	}
	if !IsKnownStatus(status) {
		return nil, ErrInvalidStatus
	}

	project := Project{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         title,
		Status:        status,
		Width:         input.Width,
		Height:        input.Height,
		DrillShape:    input.DrillShape,
		KitCategory:   input.KitCategory,
		DatePurchased: input.DatePurchased,
		DateReceived:  input.DateReceived,
		DateStarted:   input.DateStarted,
		DateCompleted: input.DateCompleted,
		GeneralNotes:  input.GeneralNotes,
		SourceURL:     input.SourceURL,
		TotalDiamonds: input.TotalDiamonds,
		ImagePath:     input.ImagePath,
	}
	if status == StatusCompleted && project.DateCompleted == nil {
		today := dateOnly(s.now())
		project.DateCompleted = &today
	}

	// Company/artist rows are created on first sight of a new name. A failed
	// lookup or create is tolerated: the project is still created, just
	// without the reference.
	project.CompanyID = s.resolveCompany(ctx, userID, input.CompanyName)
	project.ArtistID = s.resolveArtist(ctx, userID, input.ArtistName)

	if err := s.repo.Create(ctx, &project); err != nil {
		s.notifier.Error(userID, "Failed to create project")
		return nil, backendErr("create project", err)
	}

	if len(input.TagIDs) > 0 {
		if err := s.repo.ReplaceProjectTags(ctx, project.ID, dedupe(input.TagIDs)); err != nil {
			s.log.Warn("create: attaching tags failed", "project_id", project.ID, "err", err)
		}
	}

	s.store.InvalidatePrefix(listPrefix(userID))
	s.notifier.Success(userID, "Project created")
	s.publisher.ProjectChanged(userID, s.statsYear(&project))

	views, err := s.toViews(ctx, []Project{project})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) UpdateProject(ctx context.Context, input UpdateProjectInput) (*ProjectView, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrMissingOwner
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !IsKnownStatus(input.Status) {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, userID, input.ID)
	if err != nil {
		if err == ErrProjectNotFound {
			return nil, err
		}
		return nil, backendErr("get project", err)
	}

	updated := *current
	updated.Title = title
	updated.Status = input.Status
	updated.CompanyID = input.CompanyID
	updated.ArtistID = input.ArtistID
	updated.Width = input.Width
	updated.Height = input.Height
	updated.DrillShape = input.DrillShape
	updated.KitCategory = input.KitCategory
	updated.DatePurchased = input.DatePurchased
	updated.DateReceived = input.DateReceived
	updated.DateStarted = input.DateStarted
	updated.DateCompleted = input.DateCompleted
	updated.GeneralNotes = input.GeneralNotes
	updated.SourceURL = input.SourceURL
	updated.TotalDiamonds = input.TotalDiamonds
	updated.ImagePath = input.ImagePath
	updated.UpdatedAt = s.now().UTC()

	// Entering completed stamps the completion date when the caller left it
	// blank.
	if updated.Status == StatusCompleted && current.Status != StatusCompleted && updated.DateCompleted == nil {
		today := dateOnly(s.now())
		updated.DateCompleted = &today
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		s.notifier.Error(userID, "Failed to update project")
		return nil, backendErr("update project", err)
	}

	s.store.Delete(detailKey(userID, updated.ID))
	s.store.InvalidatePrefix(listPrefix(userID))
	s.store.InvalidatePrefix(StatsCachePrefix(userID))
	s.notifier.Success(userID, "Project updated")
	s.publisher.ProjectChanged(userID, s.statsYear(&updated))

	views, err := s.toViews(ctx, []Project{updated})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// GetProjectsForExport fetches the complete collection: every status included,
// pagination disabled, company/artist/tags expanded.
func (s *Service) GetProjectsForExport(ctx context.Context, userID string) ([]ProjectView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingOwner
	}

	expr := s.filters.Build(exportFilters(userID))
	rows, err := s.repo.ListAll(ctx, expr, exportOrderBy)
	if err != nil {
		return nil, backendErr("export projects", err)
	}
	return s.toViews(ctx, rows)
}

// RandomPick selects one project at random from the current filtered set; the
// randomizer wheel on the dashboard spins to whatever this returns.
func (s *Service) RandomPick(ctx context.Context, f Filters) (*ProjectView, error) {
	if strings.TrimSpace(f.UserID) == "" {
		return nil, ErrMissingOwner
	}

	expr := s.filters.Build(f)
	rows, err := s.repo.ListAll(ctx, expr, defaultSortColumn+" "+defaultSortDirection)
	if err != nil {
		return nil, backendErr("randomizer pick", err)
	}
	if len(rows) == 0 {
		return nil, ErrProjectNotFound
	}

	picked := rows[s.randIntN(len(rows))]
	views, err := s.toViews(ctx, []Project{picked})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func exportFilters(userID string) Filters {
	return Filters{
		UserID:           userID,
		Status:           StatusFilterEverything,
		IncludeMiniKits:  true,
		IncludeWishlist:  true,
		IncludeOnHold:    true,
		IncludeArchived:  true,
		IncludeDestashed: true,
	}
}

// toViews resolves company/artist ids to names, flattens tag joins and builds
// image URLs for a batch of raw records.
func (s *Service) toViews(ctx context.Context, rows []Project) ([]ProjectView, error) {
	views := make([]ProjectView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	companyIDs := make([]string, 0)
	artistIDs := make([]string, 0)
	projectIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		projectIDs = append(projectIDs, row.ID)
		if row.CompanyID != nil {
			companyIDs = append(companyIDs, *row.CompanyID)
		}
		if row.ArtistID != nil {
			artistIDs = append(artistIDs, *row.ArtistID)
		}
	}

	companyNames, err := s.repo.CompanyNamesByIDs(ctx, dedupe(companyIDs))
	if err != nil {
		return nil, backendErr("resolve companies", err)
	}
	artistNames, err := s.repo.ArtistNamesByIDs(ctx, dedupe(artistIDs))
	if err != nil {
		return nil, backendErr("resolve artists", err)
	}
	tagsByProject, err := s.repo.TagIDsByProjectIDs(ctx, projectIDs)
	if err != nil {
		return nil, backendErr("resolve tags", err)
	}

	for _, row := range rows {
		view := ProjectView{Project: row, TagIDs: tagsByProject[row.ID]}
		if row.CompanyID != nil {
			view.CompanyName = companyNames[*row.CompanyID]
		}
		if row.ArtistID != nil {
			view.ArtistName = artistNames[*row.ArtistID]
		}
		if row.ImagePath != nil && *row.ImagePath != "" {
			view.ImageURL = s.cfg.ImageURLPrefix + *row.ImagePath
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) resolveCompany(ctx context.Context, userID, name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	existing, err := s.repo.FindCompanyByName(ctx, userID, name)
	if err == nil && existing != nil {
		return &existing.ID
	}
	company := Company{ID: uuid.NewString(), UserID: userID, Name: name}
	if err := s.repo.CreateCompany(ctx, &company); err != nil {
		s.log.Warn("create: company auto-create failed", "name", name, "err", err)
		return nil
	}
	return &company.ID
}

func (s *Service) resolveArtist(ctx context.Context, userID, name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	existing, err := s.repo.FindArtistByName(ctx, userID, name)
	if err == nil && existing != nil {
		return &existing.ID
	}
	artist := Artist{ID: uuid.NewString(), UserID: userID, Name: name}
	if err := s.repo.CreateArtist(ctx, &artist); err != nil {
		s.log.Warn("create: artist auto-create failed", "name", name, "err", err)
		return nil
	}
	return &artist.ID
}

// statsYear decides which yearly-stats partition a change touches: the
// completion year when set, else the start year, else the current year.
func (s *Service) statsYear(project *Project) int {
	if project.DateCompleted != nil {
		return project.DateCompleted.Year()
	}
	if project.DateStarted != nil {
		return project.DateStarted.Year()
	}
	return s.now().Year()
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func cloneListResult(result *ListResult) *ListResult {
	cloned := *result
	cloned.Projects = make([]ProjectView, len(result.Projects))
	for i := range result.Projects {
		cloned.Projects[i] = cloneView(&result.Projects[i])
	}
	if result.StatusCounts != nil {
		counts := NewStatusCounts()
		counts.Total = result.StatusCounts.Total
		for status, count := range result.StatusCounts.Counts {
			counts.Counts[status] = count
		}
		cloned.StatusCounts = counts
	}
	return &cloned
}

func cloneView(view *ProjectView) ProjectView {
	cloned := *view
	cloned.TagIDs = append([]string(nil), view.TagIDs...)
	return cloned
}
