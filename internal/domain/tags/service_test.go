package tags

import (
	"context"
	"errors"
	"strings"
	"testing"

	"diamond-app-go/internal/domain/projects"
	"diamond-app-go/pkg/cache"
	"diamond-app-go/pkg/logger"
)

type fakeTagRepo struct {
	tags      map[string]Tag
	links     map[string]bool
	projects  map[string]string
	listCalls int
	listErr   error
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{
		tags:     make(map[string]Tag),
		links:    make(map[string]bool),
		projects: map[string]string{"p1": "u1", "p2": "u1"},
	}
}

func linkKey(projectID, tagID string) string {
	return projectID + ":" + tagID
}

func (f *fakeTagRepo) List(ctx context.Context, userID string) ([]Tag, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var rows []Tag
	for _, tag := range f.tags {
		if tag.UserID == userID {
			rows = append(rows, tag)
		}
	}
	return rows, nil
}

func (f *fakeTagRepo) GetByID(ctx context.Context, userID, tagID string) (*Tag, error) {
	tag, ok := f.tags[tagID]
	if !ok || tag.UserID != userID {
		return nil, ErrTagNotFound
	}
	copied := tag
	return &copied, nil
}

func (f *fakeTagRepo) Create(ctx context.Context, tag *Tag) error {
	f.tags[tag.ID] = *tag
	return nil
}

func (f *fakeTagRepo) Update(ctx context.Context, tag *Tag) error {
	f.tags[tag.ID] = *tag
	return nil
}

func (f *fakeTagRepo) Delete(ctx context.Context, userID, tagID string) (bool, error) {
	tag, ok := f.tags[tagID]
	if !ok || tag.UserID != userID {
		return false, nil
	}
	delete(f.tags, tagID)
	for key := range f.links {
		if strings.HasSuffix(key, ":"+tagID) {
			delete(f.links, key)
		}
	}
	return true, nil
}

func (f *fakeTagRepo) CountByName(ctx context.Context, userID, name, excludeID string) (int64, error) {
	var count int64
	for _, tag := range f.tags {
		if tag.UserID != userID || tag.ID == excludeID {
			continue
		}
		if strings.EqualFold(tag.Name, name) {
			count++
		}
	}
	return count, nil
}

func (f *fakeTagRepo) Attach(ctx context.Context, projectID, tagID string) error {
	f.links[linkKey(projectID, tagID)] = true
	return nil
}

func (f *fakeTagRepo) Detach(ctx context.Context, projectID, tagID string) error {
	delete(f.links, linkKey(projectID, tagID))
	return nil
}

func (f *fakeTagRepo) IsAttached(ctx context.Context, projectID, tagID string) (bool, error) {
	return f.links[linkKey(projectID, tagID)], nil
}

func (f *fakeTagRepo) ProjectOwned(ctx context.Context, userID, projectID string) (bool, error) {
	return f.projects[projectID] == userID, nil
}

func newTagService(repo Repository) *Service {
	return NewService(repo, cache.NewStore(), logger.Noop())
}

func TestCreateTagValidation(t *testing.T) {
	svc := newTagService(newFakeTagRepo())

	if _, err := svc.Create(context.Background(), CreateTagInput{Name: "florals"}); err != ErrMissingOwner {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateTagInput{UserID: "u1", Name: "   "}); !errors.Is(err, ErrInvalidTagName) {
		t.Fatalf("expected ErrInvalidTagName for blank name, got %v", err)
	}
	long := strings.Repeat("x", maxTagNameLength+1)
	if _, err := svc.Create(context.Background(), CreateTagInput{UserID: "u1", Name: long}); !errors.Is(err, ErrInvalidTagName) {
		t.Fatalf("expected ErrInvalidTagName for oversized name, got %v", err)
	}

	bad := "teal"
	if _, err := svc.Create(context.Background(), CreateTagInput{UserID: "u1", Name: "florals", Color: &bad}); err != ErrInvalidTagColor {
		t.Fatalf("expected ErrInvalidTagColor, got %v", err)
	}
}

func TestCreateTagNormalizesColorAndName(t *testing.T) {
	repo := newFakeTagRepo()
	svc := newTagService(repo)

	color := " #A1B2C3 "
	tag, err := svc.Create(context.Background(), CreateTagInput{UserID: "u1", Name: "  Florals  ", Color: &color})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tag.Name != "Florals" {
		t.Fatalf("expected trimmed name, got %q", tag.Name)
	}
	if tag.Color == nil || *tag.Color != "#a1b2c3" {
		t.Fatalf("expected lowercased color, got %v", tag.Color)
	}
}

func TestCreateTagRejectsDuplicateName(t *testing.T) {
	repo := newFakeTagRepo()
	repo.tags["t1"] = Tag{ID: "t1", UserID: "u1", Name: "Florals"}
	svc := newTagService(repo)

	if _, err := svc.Create(context.Background(), CreateTagInput{UserID: "u1", Name: "florals"}); err != ErrTagNameTaken {
		t.Fatalf("expected ErrTagNameTaken on case-insensitive clash, got %v", err)
	}

	// Another user's tag of the same name does not collide.
	if _, err := svc.Create(context.Background(), CreateTagInput{UserID: "u2", Name: "florals"}); err != nil {
		t.Fatalf("expected cross-user create to pass, got %v", err)
	}
}

func TestUpdateTagKeepsOwnNameAvailable(t *testing.T) {
	repo := newFakeTagRepo()
	repo.tags["t1"] = Tag{ID: "t1", UserID: "u1", Name: "Florals"}
	svc := newTagService(repo)

	tag, err := svc.Update(context.Background(), UpdateTagInput{ID: "t1", UserID: "u1", Name: "florals"})
	if err != nil {
		t.Fatalf("renaming to its own name must not collide, got %v", err)
	}
	if tag.Name != "florals" {
		t.Fatalf("expected rename applied, got %q", tag.Name)
	}
}

func TestListTagsServesSecondCallFromCache(t *testing.T) {
	repo := newFakeTagRepo()
	repo.tags["t1"] = Tag{ID: "t1", UserID: "u1", Name: "Florals"}
	svc := newTagService(repo)

	if _, err := svc.List(context.Background(), "u1"); err != nil {
		t.Fatalf("first list: %v", err)
	}
	if _, err := svc.List(context.Background(), "u1"); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected one backend read, got %d", repo.listCalls)
	}

	// Mutations drop the cached partition.
	if _, err := svc.Create(context.Background(), CreateTagInput{UserID: "u1", Name: "animals"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rows, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("third list: %v", err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected refetch after create, got %d calls", repo.listCalls)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(rows))
	}
}

func TestToggleIsIdempotentBothWays(t *testing.T) {
	repo := newFakeTagRepo()
	repo.tags["t1"] = Tag{ID: "t1", UserID: "u1", Name: "Florals"}
	svc := newTagService(repo)

	attached, err := svc.Toggle(context.Background(), "u1", "p1", "t1")
	if err != nil || !attached {
		t.Fatalf("expected first toggle to attach, got %v %v", attached, err)
	}
	attached, err = svc.Toggle(context.Background(), "u1", "p1", "t1")
	if err != nil || attached {
		t.Fatalf("expected second toggle to detach, got %v %v", attached, err)
	}
	if repo.links[linkKey("p1", "t1")] {
		t.Fatalf("expected link removed after round trip")
	}
}

func TestLinkWritesRefuseForeignProject(t *testing.T) {
	repo := newFakeTagRepo()
	repo.tags["t1"] = Tag{ID: "t1", UserID: "u1", Name: "Florals"}
	repo.projects["p9"] = "u2"
	svc := newTagService(repo)

	if _, err := svc.Toggle(context.Background(), "u1", "p9", "t1"); err != projects.ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound on toggle, got %v", err)
	}
	if err := svc.Attach(context.Background(), "u1", "p9", "t1"); err != projects.ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound on attach, got %v", err)
	}
	if err := svc.Detach(context.Background(), "u1", "p9", "t1"); err != projects.ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound on detach, got %v", err)
	}
	if len(repo.links) != 0 {
		t.Fatalf("foreign project must gain no links, got %d", len(repo.links))
	}
}

func TestToggleUnknownTagFails(t *testing.T) {
	svc := newTagService(newFakeTagRepo())
	if _, err := svc.Toggle(context.Background(), "u1", "p1", "missing"); err != ErrTagNotFound {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}
}

func TestAttachTwiceIsANoOp(t *testing.T) {
	repo := newFakeTagRepo()
	repo.tags["t1"] = Tag{ID: "t1", UserID: "u1", Name: "Florals"}
	svc := newTagService(repo)

	if err := svc.Attach(context.Background(), "u1", "p1", "t1"); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	if err := svc.Attach(context.Background(), "u1", "p1", "t1"); err != nil {
		t.Fatalf("repeated attach must not fail, got %v", err)
	}
	if !repo.links[linkKey("p1", "t1")] {
		t.Fatalf("expected link present")
	}
}

func TestDeleteTagRemovesLinks(t *testing.T) {
	repo := newFakeTagRepo()
	repo.tags["t1"] = Tag{ID: "t1", UserID: "u1", Name: "Florals"}
	repo.links[linkKey("p1", "t1")] = true
	repo.links[linkKey("p2", "t1")] = true
	svc := newTagService(repo)

	if err := svc.Delete(context.Background(), "u1", "t1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.links) != 0 {
		t.Fatalf("expected links removed with the tag, %d remain", len(repo.links))
	}

	if err := svc.Delete(context.Background(), "u1", "t1"); err != ErrTagNotFound {
		t.Fatalf("expected ErrTagNotFound on second delete, got %v", err)
	}
}
