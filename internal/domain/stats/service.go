package stats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"diamond-app-go/internal/domain/projects"
	"diamond-app-go/pkg/cache"
	"diamond-app-go/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultFreshnessWindow = 5 * time.Minute
	defaultFetchPageSize   = 200
)

type Config struct {
	// FreshnessWindow is the maximum age at which a cached row is served
	// without recomputation. Runtime-configurable so operators can tune cache
	// lifetime without a rebuild.
	FreshnessWindow time.Duration
	// FetchPageSize is the page size for the full project fetch during
	// recomputation.
	FetchPageSize int
	Verbose       bool
}

func (c Config) withDefaults() Config {
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = defaultFreshnessWindow
	}
	if c.FetchPageSize <= 0 {
		c.FetchPageSize = defaultFetchPageSize
	}
	return c
}

// Service maintains the per-(user, year) cached aggregate statistics with a
// three-tier degradation path: fresh cache, real-time recompute-and-upsert,
// then stale cache or zeroed defaults. The dashboard stats card never sees an
// error from this service.
type Service struct {
	repo   Repository
	source ProjectSource
	memo   *cache.Store
	cfg    Config
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, source ProjectSource, memo *cache.Store, cfg Config, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		source: source,
		memo:   memo,
		cfg:    cfg.withDefaults(),
		log:    log,
		now:    time.Now,
	}
}

// GetYearlyStats resolves the statistics for one (user, year) pair.
//
//  1. A cached row younger than the freshness window is served as-is.
//  2. Otherwise the stats are recomputed from the raw project list and the
//     row is upserted with a fresh timestamp and the measured duration.
//  3. If recomputation fails but a row exists — however stale — that row is
//     served, tagged fallback rather than pretending to be fresh.
//  4. With no row and a failed recomputation, zeroed defaults are served.
//
// This method never fails; statistics degrade to zero rather than propagating
// an error to the dashboard.
func (s *Service) GetYearlyStats(ctx context.Context, userID string, year int) Result {
	memoKey := projects.StatsCacheKey(userID, year)
	if value, ok := s.memo.Get(memoKey); ok {
		if result, good := value.(Result); good {
			if result.CachedAt != nil && s.now().Sub(*result.CachedAt) < s.cfg.FreshnessWindow {
				// A memo hit is a cache hit regardless of which tier
				// originally produced the value.
				result.Source = SourceCache
				return result
			}
			s.memo.Delete(memoKey)
		}
	}

	result := s.resolve(ctx, userID, year)
	// Fallback results are not memoized: the next read should retry the
	// cache/recompute tiers instead of pinning degraded data.
	if result.Source != SourceFallback {
		s.memo.Set(memoKey, result)
	}
	return result
}

func (s *Service) resolve(ctx context.Context, userID string, year int) Result {
	cached, err := s.repo.Get(ctx, userID, year)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		s.log.Warn("stats: cache read failed", "user_id", userID, "year", year, "err", err)
		cached = nil
	}

	now := s.now()
	if cached != nil && now.Sub(cached.LastCalculated) < s.cfg.FreshnessWindow {
		if s.cfg.Verbose {
			s.log.Debug("stats: serving fresh cache row", "user_id", userID, "year", year)
		}
		return recordResult(cached, SourceCache)
	}

	computed, duration, err := s.recompute(ctx, userID, year)
	if err == nil {
		calculatedAt := s.now()
		if upsertErr := s.upsert(ctx, userID, year, computed, calculatedAt, duration); upsertErr != nil {
			s.log.Warn("stats: cache upsert failed after recompute", "user_id", userID, "year", year, "err", upsertErr)
		}
		return Result{
			Stats:             computed,
			Source:            SourceRealtime,
			CachedAt:          &calculatedAt,
			CalculationTimeMs: duration.Milliseconds(),
		}
	}

	s.log.Warn("stats: realtime recompute failed", "user_id", userID, "year", year, "err", err)
	if cached != nil {
		return recordResult(cached, SourceFallback)
	}
	return Result{Stats: zeroStats(), Source: SourceFallback}
}

// UpdateCacheAfterProjectChange proactively recomputes and upserts the row;
// mutation side effects call this through the background worker. If the
// recompute fails, the row is deleted outright so the next read recomputes
// instead of serving known-stale numbers.
func (s *Service) UpdateCacheAfterProjectChange(ctx context.Context, userID string, year int) {
	if year == 0 {
		year = s.now().Year()
	}
	s.memo.Delete(projects.StatsCacheKey(userID, year))

	computed, duration, err := s.recompute(ctx, userID, year)
	if err != nil {
		s.log.Warn("stats: post-change recompute failed, dropping cache row", "user_id", userID, "year", year, "err", err)
		if delErr := s.repo.Delete(ctx, userID, &year); delErr != nil {
			s.log.Warn("stats: cache row delete failed", "user_id", userID, "year", year, "err", delErr)
		}
		return
	}
	if err := s.upsert(ctx, userID, year, computed, s.now(), duration); err != nil {
		s.log.Warn("stats: post-change upsert failed", "user_id", userID, "year", year, "err", err)
	}
}

// InvalidateCache drops the cached row(s). Best effort: errors are logged and
// swallowed.
func (s *Service) InvalidateCache(ctx context.Context, userID string, year *int) {
	if year == nil {
		s.memo.InvalidatePrefix(projects.StatsCachePrefix(userID))
	} else {
		s.memo.Delete(projects.StatsCacheKey(userID, *year))
	}
	if err := s.repo.Delete(ctx, userID, year); err != nil {
		s.log.Warn("stats: invalidation failed", "user_id", userID, "err", err)
	}
}

// PreWarmCache computes the current year ahead of the first dashboard read.
// Errors are swallowed; warming is never load-bearing.
func (s *Service) PreWarmCache(ctx context.Context, userID string) {
	s.UpdateCacheAfterProjectChange(ctx, userID, s.now().Year())
}

// GetCacheStatus reports existence, freshness and age without mutating
// anything; used for diagnostics.
func (s *Service) GetCacheStatus(ctx context.Context, userID string, year int) (CacheStatus, error) {
	record, err := s.repo.Get(ctx, userID, year)
	if errors.Is(err, ErrRecordNotFound) {
		return CacheStatus{}, nil
	}
	if err != nil {
		return CacheStatus{}, err
	}

	age := s.now().Sub(record.LastCalculated)
	last := record.LastCalculated
	return CacheStatus{
		Exists:         true,
		Fresh:          age < s.cfg.FreshnessWindow,
		Age:            age,
		LastCalculated: &last,
		CacheVersion:   record.CacheVersion,
	}, nil
}

// recompute walks the user's full project list page by page and rebuilds the
// yearly aggregates from scratch. A project counts toward a year when it was
// started or completed in that year; diamonds are credited on completion.
func (s *Service) recompute(ctx context.Context, userID string, year int) (YearlyStats, time.Duration, error) {
	started := s.now()
	stats := zeroStats()

	page := 1
	var seen int64
	for {
		rows, total, err := s.source.ListPageForUser(ctx, userID, page, s.cfg.FetchPageSize)
		if err != nil {
			return YearlyStats{}, 0, err
		}

		for _, project := range rows {
			startedInYear := project.DateStarted != nil && project.DateStarted.Year() == year
			completedInYear := project.DateCompleted != nil && project.DateCompleted.Year() == year
			if !startedInYear && !completedInYear {
				continue
			}
			if startedInYear {
				stats.StartedCount++
				if project.Status == projects.StatusProgress {
					stats.InProgressCount++
				}
			}
			if completedInYear {
				stats.CompletedCount++
				if project.TotalDiamonds != nil {
					stats.TotalDiamonds += *project.TotalDiamonds
				}
			}
			if _, known := stats.StatusBreakdown[project.Status]; known {
				stats.StatusBreakdown[project.Status]++
			} else {
				s.log.Warn("stats: skipping unrecognized status value", "status", string(project.Status))
			}
		}

		seen += int64(len(rows))
		if len(rows) < s.cfg.FetchPageSize || seen >= total {
			break
		}
		page++
	}

	return stats, s.now().Sub(started), nil
}

func (s *Service) upsert(ctx context.Context, userID string, year int, stats YearlyStats, calculatedAt time.Time, duration time.Duration) error {
	breakdown, err := json.Marshal(stats.StatusBreakdown)
	if err != nil {
		return err
	}
	return s.repo.Upsert(ctx, &Record{
		ID:              uuid.NewString(),
		UserID:          userID,
		Year:            year,
		StatsType:       StatsTypeYearly,
		CompletedCount:  stats.CompletedCount,
		StartedCount:    stats.StartedCount,
		InProgressCount: stats.InProgressCount,
		TotalDiamonds:   stats.TotalDiamonds,
		StatusBreakdown: breakdown,
		LastCalculated:  calculatedAt,
		CalculationMs:   duration.Milliseconds(),
		CacheVersion:    CacheVersion,
	})
}

func recordResult(record *Record, source Source) Result {
	stats := zeroStats()
	stats.CompletedCount = record.CompletedCount
	stats.StartedCount = record.StartedCount
	stats.InProgressCount = record.InProgressCount
	stats.TotalDiamonds = record.TotalDiamonds
	if len(record.StatusBreakdown) > 0 {
		var breakdown map[projects.Status]int
		if err := json.Unmarshal(record.StatusBreakdown, &breakdown); err == nil {
			for status, count := range breakdown {
				stats.StatusBreakdown[status] = count
			}
		}
	}

	cachedAt := record.LastCalculated
	return Result{
		Stats:             stats,
		Source:            source,
		CachedAt:          &cachedAt,
		CalculationTimeMs: record.CalculationMs,
	}
}
