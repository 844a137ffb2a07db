package notes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"diamond-app-go/internal/domain/projects"
	"diamond-app-go/pkg/cache"
	"diamond-app-go/pkg/logger"
)

type fakeNoteRepo struct {
	notes     map[string]ProgressNote
	projects  map[string]string
	listCalls int
	updateErr error
	deleteErr error
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{
		notes:    make(map[string]ProgressNote),
		projects: map[string]string{"p1": "u1"},
	}
}

func (f *fakeNoteRepo) ListByProject(ctx context.Context, userID, projectID string) ([]ProgressNote, error) {
	f.listCalls++
	var rows []ProgressNote
	for _, note := range f.notes {
		if note.UserID == userID && note.ProjectID == projectID {
			rows = append(rows, note)
		}
	}
	return rows, nil
}

func (f *fakeNoteRepo) GetByID(ctx context.Context, userID, noteID string) (*ProgressNote, error) {
	note, ok := f.notes[noteID]
	if !ok || note.UserID != userID {
		return nil, ErrNoteNotFound
	}
	copied := note
	return &copied, nil
}

func (f *fakeNoteRepo) Create(ctx context.Context, note *ProgressNote) error {
	f.notes[note.ID] = *note
	return nil
}

func (f *fakeNoteRepo) Update(ctx context.Context, note *ProgressNote) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.notes[note.ID] = *note
	return nil
}

func (f *fakeNoteRepo) ProjectOwned(ctx context.Context, userID, projectID string) (bool, error) {
	return f.projects[projectID] == userID, nil
}

func (f *fakeNoteRepo) Delete(ctx context.Context, userID, noteID string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	note, ok := f.notes[noteID]
	if !ok || note.UserID != userID {
		return false, nil
	}
	delete(f.notes, noteID)
	return true, nil
}

func newNoteService(repo Repository) *Service {
	return NewService(repo, cache.NewStore(), nil, logger.Noop())
}

func TestCreateNoteValidation(t *testing.T) {
	svc := newNoteService(newFakeNoteRepo())

	if _, err := svc.Create(context.Background(), CreateNoteInput{ProjectID: "p1", Content: "row 4 done"}); err != ErrMissingOwner {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateNoteInput{UserID: "u1", ProjectID: "p1", Content: "   "}); err != ErrContentRequired {
		t.Fatalf("expected ErrContentRequired, got %v", err)
	}
}

func TestCreateNoteRejectsForeignProject(t *testing.T) {
	repo := newFakeNoteRepo()
	repo.projects["p9"] = "u2"
	svc := newNoteService(repo)

	_, err := svc.Create(context.Background(), CreateNoteInput{UserID: "u1", ProjectID: "p9", Content: "not mine"})
	if err != projects.ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if len(repo.notes) != 0 {
		t.Fatalf("foreign project must gain no notes, got %d", len(repo.notes))
	}
}

func TestCreateNoteDefaultsDate(t *testing.T) {
	repo := newFakeNoteRepo()
	svc := newNoteService(repo)
	currentTime := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return currentTime }

	note, err := svc.Create(context.Background(), CreateNoteInput{UserID: "u1", ProjectID: "p1", Content: "row 4 done"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !note.Date.Equal(currentTime) {
		t.Fatalf("expected note dated now, got %v", note.Date)
	}
	if _, ok := repo.notes[note.ID]; !ok {
		t.Fatalf("expected note persisted")
	}
}

func TestCreateNotePrependsToCachedPartition(t *testing.T) {
	repo := newFakeNoteRepo()
	repo.notes["n1"] = ProgressNote{ID: "n1", ProjectID: "p1", UserID: "u1", Content: "older"}
	svc := newNoteService(repo)

	if _, err := svc.ListByProject(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("warm: %v", err)
	}

	created, err := svc.Create(context.Background(), CreateNoteInput{UserID: "u1", ProjectID: "p1", Content: "newest"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	listCallsBefore := repo.listCalls
	rows, err := svc.ListByProject(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.listCalls != listCallsBefore {
		t.Fatalf("expected list served from the patched cache")
	}
	if len(rows) != 2 || rows[0].ID != created.ID {
		t.Fatalf("expected new note prepended, got %+v", rows)
	}
}

func TestUpdateNoteRollsBackCachedPartition(t *testing.T) {
	repo := newFakeNoteRepo()
	repo.notes["n1"] = ProgressNote{ID: "n1", ProjectID: "p1", UserID: "u1", Content: "original"}
	svc := newNoteService(repo)

	if _, err := svc.ListByProject(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("warm: %v", err)
	}
	repo.updateErr = fmt.Errorf("record store down")

	if _, err := svc.Update(context.Background(), UpdateNoteInput{ID: "n1", UserID: "u1", Content: "edited"}); err == nil {
		t.Fatalf("expected update to fail")
	}

	rows, err := svc.ListByProject(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Content != "original" {
		t.Fatalf("expected rollback to restore the cached note, got %+v", rows)
	}
}

func TestUpdateNoteEditsCachedPartition(t *testing.T) {
	repo := newFakeNoteRepo()
	repo.notes["n1"] = ProgressNote{ID: "n1", ProjectID: "p1", UserID: "u1", Content: "original"}
	svc := newNoteService(repo)

	if _, err := svc.ListByProject(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("warm: %v", err)
	}

	if _, err := svc.Update(context.Background(), UpdateNoteInput{ID: "n1", UserID: "u1", Content: "edited"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	listCallsBefore := repo.listCalls
	rows, err := svc.ListByProject(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.listCalls != listCallsBefore {
		t.Fatalf("expected list served from the edited cache")
	}
	if rows[0].Content != "edited" {
		t.Fatalf("expected edit visible in cache, got %q", rows[0].Content)
	}
}

func TestDeleteNoteRollsBackWhenBackendRefuses(t *testing.T) {
	repo := newFakeNoteRepo()
	repo.notes["n1"] = ProgressNote{ID: "n1", ProjectID: "p1", UserID: "u1", Content: "kept"}
	svc := newNoteService(repo)

	if _, err := svc.ListByProject(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("warm: %v", err)
	}
	repo.deleteErr = fmt.Errorf("record store down")

	if err := svc.Delete(context.Background(), "u1", "n1"); err == nil {
		t.Fatalf("expected delete to fail")
	}

	rows, err := svc.ListByProject(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected rollback to restore the cached note, got %+v", rows)
	}
}

func TestDeleteNoteRemovesFromCachedPartition(t *testing.T) {
	repo := newFakeNoteRepo()
	repo.notes["n1"] = ProgressNote{ID: "n1", ProjectID: "p1", UserID: "u1", Content: "gone"}
	svc := newNoteService(repo)

	if _, err := svc.ListByProject(context.Background(), "u1", "p1"); err != nil {
		t.Fatalf("warm: %v", err)
	}

	if err := svc.Delete(context.Background(), "u1", "n1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	listCallsBefore := repo.listCalls
	rows, err := svc.ListByProject(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.listCalls != listCallsBefore {
		t.Fatalf("expected list served from the patched cache")
	}
	if len(rows) != 0 {
		t.Fatalf("expected note removed from cache, got %+v", rows)
	}
}
