package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"diamond-app-go/internal/domain/projects"
	"diamond-app-go/pkg/cache"
	"diamond-app-go/pkg/logger"
)

type fakeStatsRepo struct {
	records map[string]*Record
	getErr  error
	upserts int
	deletes int
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{records: make(map[string]*Record)}
}

func statsKey(userID string, year int) string {
	return fmt.Sprintf("%s:%d", userID, year)
}

func (f *fakeStatsRepo) Get(ctx context.Context, userID string, year int) (*Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.records[statsKey(userID, year)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (f *fakeStatsRepo) Upsert(ctx context.Context, record *Record) error {
	f.upserts++
	copied := *record
	f.records[statsKey(record.UserID, record.Year)] = &copied
	return nil
}

func (f *fakeStatsRepo) Delete(ctx context.Context, userID string, year *int) error {
	f.deletes++
	if year != nil {
		delete(f.records, statsKey(userID, *year))
		return nil
	}
	for key := range f.records {
		delete(f.records, key)
	}
	return nil
}

type fakeProjectSource struct {
	rows    []projects.Project
	listErr error
	calls   int
}

func (f *fakeProjectSource) ListPageForUser(ctx context.Context, userID string, page, pageSize int) ([]projects.Project, int64, error) {
	f.calls++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	total := int64(len(f.rows))
	start := (page - 1) * pageSize
	if start >= len(f.rows) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[start:end], total, nil
}

func date(year, month, day int) *time.Time {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

func newStatsService(repo Repository, source ProjectSource, cfg Config) *Service {
	return NewService(repo, source, cache.NewStore(), cfg, logger.Noop())
}

func TestYearlyStatsComputesFromProjects(t *testing.T) {
	diamonds := int64(12000)
	source := &fakeProjectSource{rows: []projects.Project{
		{ID: "p1", Status: projects.StatusCompleted, DateStarted: date(2025, 2, 1), DateCompleted: date(2025, 8, 1), TotalDiamonds: &diamonds},
		{ID: "p2", Status: projects.StatusProgress, DateStarted: date(2025, 3, 1)},
		{ID: "p3", Status: projects.StatusStash, DateStarted: date(2024, 1, 1)},
	}}
	svc := newStatsService(newFakeStatsRepo(), source, Config{})

	result := svc.GetYearlyStats(context.Background(), "u1", 2025)
	if result.Source != SourceRealtime {
		t.Fatalf("expected realtime on first read, got %s", result.Source)
	}
	if result.Stats.CompletedCount != 1 || result.Stats.StartedCount != 2 {
		t.Fatalf("unexpected counts: %+v", result.Stats)
	}
	if result.Stats.InProgressCount != 1 {
		t.Fatalf("expected 1 in progress, got %d", result.Stats.InProgressCount)
	}
	if result.Stats.TotalDiamonds != 12000 {
		t.Fatalf("diamonds are credited on completion, got %d", result.Stats.TotalDiamonds)
	}
	if result.Stats.StatusBreakdown[projects.StatusStash] != 0 {
		t.Fatalf("projects outside the year must not appear in the breakdown")
	}
}

func TestYearlyStatsSecondReadWithinWindowIsCacheHit(t *testing.T) {
	repo := newFakeStatsRepo()
	source := &fakeProjectSource{}
	svc := newStatsService(repo, source, Config{FreshnessWindow: 5 * time.Minute})
	currentTime := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return currentTime }

	first := svc.GetYearlyStats(context.Background(), "u1", 2026)
	if first.Source != SourceRealtime {
		t.Fatalf("expected realtime, got %s", first.Source)
	}

	currentTime = currentTime.Add(time.Minute)
	second := svc.GetYearlyStats(context.Background(), "u1", 2026)
	if second.Source != SourceCache {
		t.Fatalf("expected cache within the freshness window, got %s", second.Source)
	}

	currentTime = currentTime.Add(10 * time.Minute)
	third := svc.GetYearlyStats(context.Background(), "u1", 2026)
	if third.Source != SourceRealtime {
		t.Fatalf("expected recompute after expiry, got %s", third.Source)
	}
}

func TestYearlyStatsFallsBackToStaleRow(t *testing.T) {
	repo := newFakeStatsRepo()
	staleCalculated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.records[statsKey("u1", 2026)] = &Record{
		UserID:         "u1",
		Year:           2026,
		StatsType:      StatsTypeYearly,
		CompletedCount: 7,
		LastCalculated: staleCalculated,
		CacheVersion:   CacheVersion,
	}
	source := &fakeProjectSource{listErr: fmt.Errorf("record store down")}
	svc := newStatsService(repo, source, Config{FreshnessWindow: 5 * time.Minute})
	svc.now = func() time.Time { return staleCalculated.Add(time.Hour) }

	result := svc.GetYearlyStats(context.Background(), "u1", 2026)
	if result.Source != SourceFallback {
		t.Fatalf("expected fallback, got %s", result.Source)
	}
	if result.Stats.CompletedCount != 7 {
		t.Fatalf("expected stale row served, got %+v", result.Stats)
	}
	if result.CachedAt == nil || !result.CachedAt.Equal(staleCalculated) {
		t.Fatalf("fallback must carry the stale timestamp, got %v", result.CachedAt)
	}
}

func TestYearlyStatsZeroedFallbackNeverFails(t *testing.T) {
	repo := newFakeStatsRepo()
	source := &fakeProjectSource{listErr: fmt.Errorf("record store down")}
	svc := newStatsService(repo, source, Config{})

	result := svc.GetYearlyStats(context.Background(), "u1", 2026)
	if result.Source != SourceFallback {
		t.Fatalf("expected fallback, got %s", result.Source)
	}
	if result.Stats.CompletedCount != 0 || result.Stats.TotalDiamonds != 0 {
		t.Fatalf("expected zeroed stats, got %+v", result.Stats)
	}
	if len(result.Stats.StatusBreakdown) != len(projects.KnownStatuses()) {
		t.Fatalf("zeroed breakdown must still cover every status")
	}

	// A fallback result is not memoized; once the source recovers the next
	// read recomputes.
	source.listErr = nil
	recovered := svc.GetYearlyStats(context.Background(), "u1", 2026)
	if recovered.Source != SourceRealtime {
		t.Fatalf("expected realtime after recovery, got %s", recovered.Source)
	}
}

func TestUpdateCacheAfterProjectChangeDropsRowOnFailure(t *testing.T) {
	repo := newFakeStatsRepo()
	repo.records[statsKey("u1", 2026)] = &Record{
		UserID:         "u1",
		Year:           2026,
		StatsType:      StatsTypeYearly,
		LastCalculated: time.Now(),
	}
	source := &fakeProjectSource{listErr: fmt.Errorf("record store down")}
	svc := newStatsService(repo, source, Config{})

	svc.UpdateCacheAfterProjectChange(context.Background(), "u1", 2026)
	if _, ok := repo.records[statsKey("u1", 2026)]; ok {
		t.Fatalf("expected row dropped after failed recompute")
	}
}

func TestGetCacheStatusReportsFreshness(t *testing.T) {
	repo := newFakeStatsRepo()
	calculated := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	repo.records[statsKey("u1", 2026)] = &Record{
		UserID:         "u1",
		Year:           2026,
		StatsType:      StatsTypeYearly,
		LastCalculated: calculated,
		CacheVersion:   CacheVersion,
	}
	svc := newStatsService(repo, &fakeProjectSource{}, Config{FreshnessWindow: 5 * time.Minute})
	svc.now = func() time.Time { return calculated.Add(time.Minute) }

	status, err := svc.GetCacheStatus(context.Background(), "u1", 2026)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !status.Exists || !status.Fresh {
		t.Fatalf("expected fresh row, got %+v", status)
	}

	svc.now = func() time.Time { return calculated.Add(time.Hour) }
	status, err = svc.GetCacheStatus(context.Background(), "u1", 2026)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !status.Exists || status.Fresh {
		t.Fatalf("expected stale row, got %+v", status)
	}

	missing, err := svc.GetCacheStatus(context.Background(), "u2", 2026)
	if err != nil {
		t.Fatalf("expected no error for missing row, got %v", err)
	}
	if missing.Exists {
		t.Fatalf("expected missing row report, got %+v", missing)
	}
}

func TestWorkerRefreshesCacheInBackground(t *testing.T) {
	repo := newFakeStatsRepo()
	source := &fakeProjectSource{rows: []projects.Project{
		{ID: "p1", Status: projects.StatusCompleted, DateCompleted: date(2026, 4, 1)},
	}}
	svc := newStatsService(repo, source, Config{})
	worker := NewWorker(svc, 8, logger.Noop())
	worker.Start()

	worker.ProjectChanged("u1", 2026)
	worker.Stop()

	record, ok := repo.records[statsKey("u1", 2026)]
	if !ok {
		t.Fatalf("expected worker to upsert the cache row")
	}
	if record.CompletedCount != 1 {
		t.Fatalf("expected recomputed counts, got %+v", record)
	}
}

func TestWorkerDropsEventsAfterStop(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := newStatsService(repo, &fakeProjectSource{}, Config{})
	worker := NewWorker(svc, 8, logger.Noop())
	worker.Start()
	worker.Stop()

	// Must not panic and must not enqueue.
	worker.ProjectChanged("u1", 2026)
	worker.Stop()

	if repo.upserts != 0 {
		t.Fatalf("expected no refresh after stop, got %d upserts", repo.upserts)
	}
}
