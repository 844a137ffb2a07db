package notes

import (
	"context"
	"strings"
	"time"

	"diamond-app-go/internal/domain/projects"
	"diamond-app-go/pkg/cache"
	"diamond-app-go/pkg/logger"
	"github.com/google/uuid"
)

// Service owns progress-note CRUD. Note mutations go through the same
// optimistic cache discipline as project mutations: the per-project note
// partition is edited speculatively and rolled back when the write fails.
type Service struct {
	repo     Repository
	store    *cache.Store
	notifier projects.Notifier
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, store *cache.Store, notifier projects.Notifier, log logger.Logger) *Service {
	if notifier == nil {
		notifier = projects.NoopNotifier{}
	}
	return &Service{
		repo:     repo,
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func partitionKey(userID, projectID string) string {
	return cache.Key("notes", "project", userID, projectID)
}

func (s *Service) ListByProject(ctx context.Context, userID, projectID string) ([]ProgressNote, error) {
	key := partitionKey(userID, projectID)
	if value, ok := s.store.Get(key); ok {
		if cached, good := value.([]ProgressNote); good {
			return append([]ProgressNote(nil), cached...), nil
		}
	}

	rows, err := s.repo.ListByProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	s.store.Set(key, append([]ProgressNote(nil), rows...))
	return rows, nil
}

func (s *Service) Create(ctx context.Context, input CreateNoteInput) (*ProgressNote, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrMissingOwner
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	// The note row carries its own user id, but the project it hangs off must
	// belong to the same user.
	owned, err := s.repo.ProjectOwned(ctx, userID, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, projects.ErrProjectNotFound
	}

	date := input.Date
	if date.IsZero() {
		date = s.now().UTC()
	}

	note := ProgressNote{
		ID:        uuid.NewString(),
		ProjectID: input.ProjectID,
		UserID:    userID,
		Date:      date,
		Content:   content,
		ImagePath: input.ImagePath,
	}

	if err := s.repo.Create(ctx, &note); err != nil {
		s.notifier.Error(userID, "Failed to add progress note")
		return nil, err
	}

	s.store.Patch(partitionKey(userID, note.ProjectID), func(value any, ok bool) (any, bool) {
		if !ok {
			return value, ok
		}
		cached, good := value.([]ProgressNote)
		if !good {
			return value, true
		}
		return append([]ProgressNote{note}, cached...), true
	})
	s.notifier.Success(userID, "Progress note added")
	return &note, nil
}

func (s *Service) Update(ctx context.Context, input UpdateNoteInput) (*ProgressNote, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrMissingOwner
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	current, err := s.repo.GetByID(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Content = content
	if !input.Date.IsZero() {
		updated.Date = input.Date
	}
	updated.ImagePath = input.ImagePath
	updated.UpdatedAt = s.now().UTC()

	mutation := cache.NewMutation(s.store)
	if err := mutation.Begin(); err != nil {
		return nil, err
	}
	s.stageReplace(mutation, userID, current.ProjectID, updated)

	if err := s.repo.Update(ctx, &updated); err != nil {
		if rbErr := mutation.Rollback(); rbErr != nil {
			s.log.Error("notes: rollback failed", "err", rbErr)
		}
		s.notifier.Error(userID, "Failed to update progress note")
		return nil, err
	}
	if err := mutation.Commit(); err != nil {
		s.log.Error("notes: commit failed", "err", err)
	}
	s.notifier.Success(userID, "Progress note updated")
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, noteID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingOwner
	}

	current, err := s.repo.GetByID(ctx, userID, noteID)
	if err != nil {
		return err
	}

	mutation := cache.NewMutation(s.store)
	if err := mutation.Begin(); err != nil {
		return err
	}
	s.stageRemove(mutation, userID, current.ProjectID, noteID)

	deleted, err := s.repo.Delete(ctx, userID, noteID)
	if err != nil || !deleted {
		if rbErr := mutation.Rollback(); rbErr != nil {
			s.log.Error("notes: rollback failed", "err", rbErr)
		}
		s.notifier.Error(userID, "Failed to delete progress note")
		if err != nil {
			return err
		}
		return ErrNoteNotFound
	}

	if err := mutation.Commit(); err != nil {
		s.log.Error("notes: commit failed", "err", err)
	}
	s.notifier.Success(userID, "Progress note deleted")
	return nil
}

func (s *Service) stageReplace(mutation *cache.Mutation, userID, projectID string, note ProgressNote) {
	err := mutation.Stage(partitionKey(userID, projectID), func(value any, ok bool) (any, bool) {
		if !ok {
			return value, ok
		}
		cached, good := value.([]ProgressNote)
		if !good {
			return value, true
		}
		next := append([]ProgressNote(nil), cached...)
		for i := range next {
			if next[i].ID == note.ID {
				next[i] = note
			}
		}
		return next, true
	})
	if err != nil {
		s.log.Error("notes: stage failed", "err", err)
	}
}

func (s *Service) stageRemove(mutation *cache.Mutation, userID, projectID, noteID string) {
	err := mutation.Stage(partitionKey(userID, projectID), func(value any, ok bool) (any, bool) {
		if !ok {
			return value, ok
		}
		cached, good := value.([]ProgressNote)
		if !good {
			return value, true
		}
		next := make([]ProgressNote, 0, len(cached))
		for _, row := range cached {
			if row.ID != noteID {
				next = append(next, row)
			}
		}
		return next, true
	})
	if err != nil {
		s.log.Error("notes: stage failed", "err", err)
	}
}
