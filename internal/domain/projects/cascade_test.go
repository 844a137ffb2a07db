package projects

import (
	"context"
	"fmt"
	"testing"
)

func seedDependents(repo *fakeRepo, notes, links int) {
	for i := 0; i < notes; i++ {
		repo.noteIDs = append(repo.noteIDs, fmt.Sprintf("note-%03d", i))
	}
	for i := 0; i < links; i++ {
		repo.tagLinkIDs = append(repo.tagLinkIDs, fmt.Sprintf("tag-%03d", i))
	}
}

func TestDeleteProjectCascadesAllDependents(t *testing.T) {
	repo := newFakeRepo()
	repo.projects["p1"] = Project{ID: "p1", UserID: "u1", Title: "Big One", Status: StatusProgress}
	seedDependents(repo, 120, 30)
	svc := newTestService(repo)

	if err := svc.DeleteProject(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if repo.noteDeletes != 120 {
		t.Fatalf("expected 120 note deletes, got %d", repo.noteDeletes)
	}
	if repo.tagLinkDeletes != 30 {
		t.Fatalf("expected 30 tag link deletes, got %d", repo.tagLinkDeletes)
	}
	if repo.projectDeletes != 1 {
		t.Fatalf("expected exactly one parent delete, got %d", repo.projectDeletes)
	}
	if len(repo.noteIDs) != 0 || len(repo.tagLinkIDs) != 0 {
		t.Fatalf("expected dependents drained, %d notes and %d links remain", len(repo.noteIDs), len(repo.tagLinkIDs))
	}
	// 120 ids at a batch size of 50 is three pages.
	if repo.noteFetches != 3 {
		t.Fatalf("expected 3 note id pages, got %d", repo.noteFetches)
	}
}

func TestDeleteProjectRefusesForeignProject(t *testing.T) {
	repo := newFakeRepo()
	repo.projects["p1"] = Project{ID: "p1", UserID: "u2", Title: "Not Yours", Status: StatusProgress}
	seedDependents(repo, 7, 3)
	svc := newTestService(repo)

	if err := svc.DeleteProject(context.Background(), "u1", "p1"); err != ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound for another user's project, got %v", err)
	}
	if repo.noteDeletes != 0 || repo.tagLinkDeletes != 0 {
		t.Fatalf("foreign dependents must stay untouched, got %d note and %d link deletes", repo.noteDeletes, repo.tagLinkDeletes)
	}
	if repo.projectDeletes != 0 {
		t.Fatalf("expected no parent delete attempt, got %d", repo.projectDeletes)
	}
}

func TestDeleteProjectAbortsOnDependentFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.projects["p1"] = Project{ID: "p1", UserID: "u1", Title: "Doomed", Status: StatusProgress}
	seedDependents(repo, 20, 0)
	repo.deleteNoteErr = fmt.Errorf("backend refused")
	repo.deleteNoteErrAt = 10
	svc := newTestService(repo)

	err := svc.DeleteProject(context.Background(), "u1", "p1")
	if err == nil {
		t.Fatalf("expected cascade failure")
	}
	if !IsBackendError(err) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if repo.projectDeletes != 0 {
		t.Fatalf("parent must not be deleted after a failed cascade")
	}
	if _, ok := repo.projects["p1"]; !ok {
		t.Fatalf("expected project row to survive")
	}
}

func TestDeleteProjectRollsBackCacheOnFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.projects["p1"] = Project{ID: "p1", UserID: "u1", Title: "Kept", Status: StatusProgress}
	seedDependents(repo, 5, 0)
	repo.deleteNoteErr = fmt.Errorf("backend refused")
	svc := newTestService(repo)

	// Warm the detail cache, then fail the delete.
	if _, err := svc.GetProject(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if err := svc.DeleteProject(context.Background(), "u1", "p1"); err == nil {
		t.Fatalf("expected delete to fail")
	}

	view, err := svc.GetProject(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("expected cached detail restored, got %v", err)
	}
	if view.Title != "Kept" {
		t.Fatalf("expected restored view, got %+v", view)
	}
}
