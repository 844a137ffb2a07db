package projects

import (
	"context"
	"testing"
)

func TestBatchStatusCountsBucketsEveryKnownStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.statuses = []Status{
		StatusProgress, StatusProgress, StatusProgress,
		StatusCompleted, StatusCompleted,
		StatusWishlist,
	}
	svc := newTestService(repo)

	counts, err := svc.GetBatchStatusCounts(context.Background(), Filters{UserID: "u1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(counts.Counts) != len(KnownStatuses()) {
		t.Fatalf("expected an entry per known status, got %d", len(counts.Counts))
	}
	if counts.Counts[StatusProgress] != 3 {
		t.Fatalf("expected 3 progress, got %d", counts.Counts[StatusProgress])
	}
	if counts.Counts[StatusCompleted] != 2 {
		t.Fatalf("expected 2 completed, got %d", counts.Counts[StatusCompleted])
	}
	if counts.Counts[StatusArchived] != 0 {
		t.Fatalf("expected explicit zero for archived, got %d", counts.Counts[StatusArchived])
	}

	sum := 0
	for _, count := range counts.Counts {
		sum += count
	}
	if sum != counts.Total || counts.Total != 6 {
		t.Fatalf("expected total 6 equal to sum %d, got %d", sum, counts.Total)
	}
}

func TestBatchStatusCountsSkipsUnknownStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.statuses = []Status{StatusStash, Status("limbo"), StatusStash}
	svc := newTestService(repo)

	counts, err := svc.GetBatchStatusCounts(context.Background(), Filters{UserID: "u1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if counts.Counts[StatusStash] != 2 {
		t.Fatalf("expected 2 stash, got %d", counts.Counts[StatusStash])
	}
	if counts.Total != 2 {
		t.Fatalf("unknown status must not count toward the total, got %d", counts.Total)
	}
	if _, ok := counts.Counts[Status("limbo")]; ok {
		t.Fatalf("unknown status must not appear in the histogram")
	}
}
