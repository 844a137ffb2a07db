package stats

import (
	"time"

	"diamond-app-go/internal/domain/projects"
)

// CacheVersion tags the stored row format so a schema change can invalidate
// old rows wholesale.
const CacheVersion = "v1"

const StatsTypeYearly = "yearly"

// Record is one cached aggregate row per (user, year, stats type). Created
// lazily on first computation, updated in place afterwards; LastCalculated
// only ever moves forward.
type Record struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	UserID          string    `gorm:"type:uuid;not null;uniqueIndex:idx_stats_user_year_type"`
	Year            int       `gorm:"not null;uniqueIndex:idx_stats_user_year_type"`
	StatsType       string    `gorm:"size:20;not null;uniqueIndex:idx_stats_user_year_type"`
	CompletedCount  int       `gorm:"not null"`
	StartedCount    int       `gorm:"not null"`
	InProgressCount int       `gorm:"not null"`
	TotalDiamonds   int64     `gorm:"not null"`
	StatusBreakdown []byte    `gorm:"type:jsonb"`
	LastCalculated  time.Time `gorm:"not null"`
	CalculationMs   int64     `gorm:"not null"`
	CacheVersion    string    `gorm:"size:10;not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Record) TableName() string { return "user_yearly_stats" }

// Source says which tier produced a result: a fresh cache row, a real-time
// recomputation, or the degraded fallback (stale row or zeroed defaults).
type Source string

const (
	SourceCache    Source = "cache"
	SourceRealtime Source = "realtime"
	SourceFallback Source = "fallback"
)

type YearlyStats struct {
	CompletedCount  int                     `json:"completed_count"`
	StartedCount    int                     `json:"started_count"`
	InProgressCount int                     `json:"in_progress_count"`
	TotalDiamonds   int64                   `json:"total_diamonds"`
	StatusBreakdown map[projects.Status]int `json:"status_breakdown"`
}

func zeroStats() YearlyStats {
	breakdown := make(map[projects.Status]int, len(projects.KnownStatuses()))
	for _, status := range projects.KnownStatuses() {
		breakdown[status] = 0
	}
	return YearlyStats{StatusBreakdown: breakdown}
}

type Result struct {
	Stats             YearlyStats `json:"stats"`
	Source            Source      `json:"source"`
	CachedAt          *time.Time  `json:"cached_at,omitempty"`
	CalculationTimeMs int64       `json:"calculation_time_ms"`
}

// CacheStatus is the read-only diagnostics view of one cache row.
type CacheStatus struct {
	Exists         bool          `json:"exists"`
	Fresh          bool          `json:"fresh"`
	Age            time.Duration `json:"age_ns"`
	LastCalculated *time.Time    `json:"last_calculated,omitempty"`
	CacheVersion   string        `json:"cache_version,omitempty"`
}
