package tags

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"diamond-app-go/internal/domain/projects"
	"diamond-app-go/pkg/cache"
	"diamond-app-go/pkg/logger"
	"github.com/google/uuid"
)

const maxTagNameLength = 50

var tagColorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

type Service struct {
	repo  Repository
	store *cache.Store
	log   logger.Logger
}

func NewService(repo Repository, store *cache.Store, log logger.Logger) *Service {
	return &Service{repo: repo, store: store, log: log}
}

func listKey(userID string) string {
	return cache.Key("tags", "list", userID)
}

func (s *Service) List(ctx context.Context, userID string) ([]Tag, error) {
	key := listKey(userID)
	if value, ok := s.store.Get(key); ok {
		if cached, good := value.([]Tag); good {
			return append([]Tag(nil), cached...), nil
		}
	}

	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.store.Set(key, append([]Tag(nil), rows...))
	return rows, nil
}

func (s *Service) Create(ctx context.Context, input CreateTagInput) (*Tag, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrMissingOwner
	}
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	color, err := normalizeColor(input.Color)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.CountByName(ctx, userID, name, "")
	if err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, ErrTagNameTaken
	}

	tag := Tag{ID: uuid.NewString(), UserID: userID, Name: name, Color: color}
	if err := s.repo.Create(ctx, &tag); err != nil {
		return nil, err
	}

	s.store.Delete(listKey(userID))
	return &tag, nil
}

func (s *Service) Update(ctx context.Context, input UpdateTagInput) (*Tag, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrMissingOwner
	}
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	tag, err := s.repo.GetByID(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.CountByName(ctx, userID, name, tag.ID)
	if err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, ErrTagNameTaken
	}

	tag.Name = name
	if input.Color != nil {
		color, err := normalizeColor(input.Color)
		if err != nil {
			return nil, err
		}
		tag.Color = color
	}

	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, err
	}

	s.store.Delete(listKey(userID))
	return tag, nil
}

func (s *Service) Delete(ctx context.Context, userID, tagID string) error {
	deleted, err := s.repo.Delete(ctx, userID, tagID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTagNotFound
	}
	s.store.Delete(listKey(userID))
	return nil
}

// Toggle attaches the tag when detached and detaches it when attached,
// reporting the resulting state. Both directions are idempotent per
// (project, tag) pair: toggling twice lands back where it started, and a
// repeated attach is a no-op at the repository level.
func (s *Service) Toggle(ctx context.Context, userID, projectID, tagID string) (attached bool, err error) {
	if _, err := s.repo.GetByID(ctx, userID, tagID); err != nil {
		return false, err
	}
	if err := s.requireProject(ctx, userID, projectID); err != nil {
		return false, err
	}

	isAttached, err := s.repo.IsAttached(ctx, projectID, tagID)
	if err != nil {
		return false, err
	}

	if isAttached {
		if err := s.repo.Detach(ctx, projectID, tagID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.repo.Attach(ctx, projectID, tagID); err != nil {
		return false, err
	}
	return true, nil
}

// Attach is the explicit idempotent attach used by the project form.
func (s *Service) Attach(ctx context.Context, userID, projectID, tagID string) error {
	if _, err := s.repo.GetByID(ctx, userID, tagID); err != nil {
		return err
	}
	if err := s.requireProject(ctx, userID, projectID); err != nil {
		return err
	}
	return s.repo.Attach(ctx, projectID, tagID)
}

func (s *Service) Detach(ctx context.Context, userID, projectID, tagID string) error {
	if _, err := s.repo.GetByID(ctx, userID, tagID); err != nil {
		return err
	}
	if err := s.requireProject(ctx, userID, projectID); err != nil {
		return err
	}
	return s.repo.Detach(ctx, projectID, tagID)
}

// requireProject refuses link writes against a project the user does not own.
// A foreign project is indistinguishable from a missing one.
func (s *Service) requireProject(ctx context.Context, userID, projectID string) error {
	owned, err := s.repo.ProjectOwned(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !owned {
		return projects.ErrProjectNotFound
	}
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidTagName)
	}
	if len([]rune(name)) > maxTagNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrInvalidTagName, maxTagNameLength)
	}
	return name, nil
}

func normalizeColor(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	color := strings.ToLower(strings.TrimSpace(*value))
	if !tagColorPattern.MatchString(color) {
		return nil, ErrInvalidTagColor
	}
	return &color, nil
}
