package projects

import "time"

// Status is the project workflow state. Transitions are unconstrained; moving
// into StatusCompleted stamps the completion date when it is absent.
type Status string

const (
	StatusWishlist  Status = "wishlist"
	StatusPurchased Status = "purchased"
	StatusStash     Status = "stash"
	StatusProgress  Status = "progress"
	StatusOnHold    Status = "onhold"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
	StatusDestashed Status = "destashed"
)

// KnownStatuses returns the closed status enum in display order.
func KnownStatuses() []Status {
	return []Status{
		StatusWishlist,
		StatusPurchased,
		StatusStash,
		StatusProgress,
		StatusOnHold,
		StatusCompleted,
		StatusArchived,
		StatusDestashed,
	}
}

func IsKnownStatus(value Status) bool {
	for _, status := range KnownStatuses() {
		if status == value {
			return true
		}
	}
	return false
}

// activeStatuses backs the "active" meta-status filter.
var activeStatuses = []Status{StatusPurchased, StatusStash, StatusProgress, StatusOnHold}

const (
	DrillShapeRound  = "round"
	DrillShapeSquare = "square"

	KitCategoryFull = "full"
	KitCategoryMini = "mini"
)

type Project struct {
	ID            string     `gorm:"type:uuid;primaryKey"`
	UserID        string     `gorm:"type:uuid;index;not null"`
	Title         string     `gorm:"not null"`
	Status        Status     `gorm:"size:20;index;not null"`
	CompanyID     *string    `gorm:"type:uuid;index"`
	ArtistID      *string    `gorm:"type:uuid;index"`
	Width         *float64   `gorm:"type:numeric(8,2)"`
	Height        *float64   `gorm:"type:numeric(8,2)"`
	DrillShape    *string    `gorm:"size:10"`
	KitCategory   *string    `gorm:"size:10"`
	DatePurchased *time.Time `gorm:"type:date"`
	DateReceived  *time.Time `gorm:"type:date"`
	DateStarted   *time.Time `gorm:"type:date"`
	DateCompleted *time.Time `gorm:"type:date"`
	GeneralNotes  string     `gorm:"type:text"`
	SourceURL     *string    `gorm:"type:text"`
	TotalDiamonds *int64
	ImagePath     *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

type Company struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Company) TableName() string { return "companies" }

type Artist struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Artist) TableName() string { return "artists" }

// ProjectTag links a project to a tag. Attach/detach is idempotent per pair.
type ProjectTag struct {
	ProjectID string `gorm:"type:uuid;primaryKey"`
	TagID     string `gorm:"type:uuid;primaryKey"`
}

func (ProjectTag) TableName() string { return "project_tags" }

// ProjectView is the transformed shape handed to the dashboard: company and
// artist ids resolved to names, tag joins flattened, image path turned into a
// servable URL.
type ProjectView struct {
	Project
	CompanyName string   `json:"company_name"`
	ArtistName  string   `json:"artist_name"`
	ImageURL    string   `json:"image_url"`
	TagIDs      []string `json:"tag_ids"`
}

type CreateProjectInput struct {
	UserID        string
	Title         string
	Status        Status
	CompanyName   string
	ArtistName    string
	Width         *float64
	Height        *float64
	DrillShape    *string
	KitCategory   *string
	DatePurchased *time.Time
	DateReceived  *time.Time
	DateStarted   *time.Time
	DateCompleted *time.Time
	GeneralNotes  string
	SourceURL     *string
	TotalDiamonds *int64
	ImagePath     *string
	TagIDs        []string
}

type UpdateProjectInput struct {
	ID            string
	UserID        string
	Title         string
	Status        Status
	CompanyID     *string
	ArtistID      *string
	Width         *float64
	Height        *float64
	DrillShape    *string
	KitCategory   *string
	DatePurchased *time.Time
	DateReceived  *time.Time
	DateStarted   *time.Time
	DateCompleted *time.Time
	GeneralNotes  string
	SourceURL     *string
	TotalDiamonds *int64
	ImagePath     *string
}

// ListOptions drives one dashboard page load.
type ListOptions struct {
	Filters             Filters
	SortField           string
	SortDir             string
	Page                int
	PageSize            int
	IncludeStatusCounts bool
}

type ListResult struct {
	Projects     []ProjectView `json:"projects"`
	TotalItems   int64         `json:"total_items"`
	TotalPages   int           `json:"total_pages"`
	CurrentPage  int           `json:"current_page"`
	PageSize     int           `json:"page_size"`
	StatusCounts *StatusCounts `json:"status_counts,omitempty"`
}

// StatusCounts is a total function over the status enum: every known status
// has an entry even when its count is zero, so "missing" and "zero" are never
// conflated.
type StatusCounts struct {
	Counts map[Status]int `json:"counts"`
	Total  int            `json:"total"`
}

func NewStatusCounts() *StatusCounts {
	counts := make(map[Status]int, len(KnownStatuses()))
	for _, status := range KnownStatuses() {
		counts[status] = 0
	}
	return &StatusCounts{Counts: counts}
}
