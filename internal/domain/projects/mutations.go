package projects

import (
	"context"
	"strings"
	"time"

	"diamond-app-go/pkg/cache"
)

// Optimistic mutation flows. Each one captures its own cache snapshots via a
// fresh cache.Mutation, applies the speculative edits before the backend write
// so the dashboard reflects the change immediately, then commits on success or
// rolls every touched partition back to its exact pre-mutation state on
// failure. The stats partition is only invalidated after a successful write;
// the background worker repopulates it.

// UpdateStatus moves a project to another workflow status. Entering completed
// stamps the completion date when absent.
func (s *Service) UpdateStatus(ctx context.Context, userID, projectID string, next Status) (*Project, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingOwner
	}
	if !IsKnownStatus(next) {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, userID, projectID)
	if err != nil {
		if err == ErrProjectNotFound {
			return nil, err
		}
		return nil, backendErr("get project", err)
	}

	updated := *current
	updated.Status = next
	updated.UpdatedAt = s.now().UTC()
	var stamp *time.Time
	if next == StatusCompleted && current.Status != StatusCompleted && current.DateCompleted == nil {
		today := dateOnly(s.now())
		updated.DateCompleted = &today
		stamp = &today
	}

	mutation := cache.NewMutation(s.store)
	if err := mutation.Begin(); err != nil {
		return nil, err
	}
	s.stageDetailEdit(mutation, userID, projectID, func(view *ProjectView) {
		view.Status = updated.Status
		view.DateCompleted = updated.DateCompleted
		view.UpdatedAt = updated.UpdatedAt
	})
	s.stageListEdits(mutation, userID, func(result *ListResult) {
		for i := range result.Projects {
			if result.Projects[i].ID == projectID {
				result.Projects[i].Status = updated.Status
				result.Projects[i].DateCompleted = updated.DateCompleted
				result.Projects[i].UpdatedAt = updated.UpdatedAt
			}
		}
	})

	if err := s.repo.UpdateStatus(ctx, userID, projectID, next, stamp); err != nil {
		if rbErr := mutation.Rollback(); rbErr != nil {
			s.log.Error("mutation: rollback failed", "err", rbErr)
		}
		s.notifier.Error(userID, "Failed to update project status")
		return nil, backendErr("update status", err)
	}

	if err := mutation.Commit(); err != nil {
		s.log.Error("mutation: commit failed", "err", err)
	}
	// The in-place list edit only holds while the write is in flight. A page
	// cached under a status-filtered key may no longer match its filter, and
	// embedded status counts are stale either way, so committed pages are
	// dropped for a refetch.
	s.store.InvalidatePrefix(listPrefix(userID))
	s.store.InvalidatePrefix(StatsCachePrefix(userID))
	s.notifier.Success(userID, "Project status updated")
	s.publisher.ProjectChanged(userID, s.statsYear(&updated))
	return &updated, nil
}

// ArchiveProject moves a project to archived and drops it from cached list
// pages, since archived projects are hidden from the dashboard by default.
func (s *Service) ArchiveProject(ctx context.Context, userID, projectID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingOwner
	}

	mutation := cache.NewMutation(s.store)
	if err := mutation.Begin(); err != nil {
		return err
	}
	s.stageDetailEdit(mutation, userID, projectID, func(view *ProjectView) {
		view.Status = StatusArchived
	})
	s.stageListEdits(mutation, userID, func(result *ListResult) {
		dropProject(result, projectID)
	})

	if err := s.repo.UpdateStatus(ctx, userID, projectID, StatusArchived, nil); err != nil {
		if rbErr := mutation.Rollback(); rbErr != nil {
			s.log.Error("mutation: rollback failed", "err", rbErr)
		}
		s.notifier.Error(userID, "Failed to archive project")
		return backendErr("archive project", err)
	}

	if err := mutation.Commit(); err != nil {
		s.log.Error("mutation: commit failed", "err", err)
	}
	s.store.InvalidatePrefix(listPrefix(userID))
	s.store.InvalidatePrefix(StatsCachePrefix(userID))
	s.notifier.Success(userID, "Project archived")
	s.publisher.ProjectChanged(userID, s.now().Year())
	return nil
}

// DeleteProject removes a project and all of its dependents (4.4 cascade). The
// cache edits are speculative; a failed cascade restores every partition.
func (s *Service) DeleteProject(ctx context.Context, userID, projectID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingOwner
	}

	// Ownership gate before any dependent row is touched: the dependent
	// queries are scoped by project id only, so a foreign id must be refused
	// here, not at the final user-scoped parent delete.
	if _, err := s.repo.GetByID(ctx, userID, projectID); err != nil {
		if err == ErrProjectNotFound {
			return err
		}
		return backendErr("get project", err)
	}

	mutation := cache.NewMutation(s.store)
	if err := mutation.Begin(); err != nil {
		return err
	}
	if err := mutation.StageDelete(detailKey(userID, projectID)); err != nil {
		s.log.Error("mutation: stage failed", "err", err)
	}
	s.stageListEdits(mutation, userID, func(result *ListResult) {
		if dropProject(result, projectID) {
			result.TotalItems--
		}
	})

	if err := s.deleteDependentsAndProject(ctx, userID, projectID); err != nil {
		if rbErr := mutation.Rollback(); rbErr != nil {
			s.log.Error("mutation: rollback failed", "err", rbErr)
		}
		s.notifier.Error(userID, "Failed to delete project")
		return err
	}

	if err := mutation.Commit(); err != nil {
		s.log.Error("mutation: commit failed", "err", err)
	}
	s.store.InvalidatePrefix(StatsCachePrefix(userID))
	s.notifier.Success(userID, "Project deleted")
	s.publisher.ProjectChanged(userID, s.now().Year())
	return nil
}

func (s *Service) stageDetailEdit(mutation *cache.Mutation, userID, projectID string, edit func(*ProjectView)) {
	err := mutation.Stage(detailKey(userID, projectID), func(value any, ok bool) (any, bool) {
		if !ok {
			return value, ok
		}
		view, good := value.(*ProjectView)
		if !good {
			return value, true
		}
		cloned := cloneView(view)
		edit(&cloned)
		return &cloned, true
	})
	if err != nil {
		s.log.Error("mutation: stage failed", "err", err)
	}
}

func (s *Service) stageListEdits(mutation *cache.Mutation, userID string, edit func(*ListResult)) {
	for _, key := range s.store.Keys(listPrefix(userID)) {
		err := mutation.Stage(key, func(value any, ok bool) (any, bool) {
			if !ok {
				return value, ok
			}
			result, good := value.(*ListResult)
			if !good {
				return value, true
			}
			cloned := cloneListResult(result)
			edit(cloned)
			return cloned, true
		})
		if err != nil {
			s.log.Error("mutation: stage failed", "err", err)
		}
	}
}

func dropProject(result *ListResult, projectID string) bool {
	for i := range result.Projects {
		if result.Projects[i].ID == projectID {
			result.Projects = append(result.Projects[:i], result.Projects[i+1:]...)
			return true
		}
	}
	return false
}
