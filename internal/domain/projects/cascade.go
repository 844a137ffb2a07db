package projects

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// deleteDependentsAndProject removes a project's progress notes and tag links
// before the project row itself. Dependents are fetched id-only in batches of
// Config.DeleteBatchSize and removed in chunks of Config.DeleteChunkSize
// concurrent deletes, each chunk awaited before the next starts: unbounded
// fan-out would trip backend rate limits, strictly sequential deletes are too
// slow once a project has hundreds of notes. The two dependent collections run
// concurrently with each other.
//
// All-or-nothing: any single failure aborts the cascade with an error naming
// the collection. Already-deleted dependents are not restored; the caller
// surfaces the failure as retryable.
func (s *Service) deleteDependentsAndProject(ctx context.Context, userID, projectID string) error {
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.deleteDependents(gctx, "progress notes",
			func() (int64, error) { return s.repo.CountNotesByProject(gctx, projectID) },
			func(limit int) ([]string, error) { return s.repo.ListNoteIDs(gctx, projectID, limit) },
			func(id string) error { return s.repo.DeleteNoteByID(gctx, id) },
		)
	})
	group.Go(func() error {
		return s.deleteDependents(gctx, "tag links",
			func() (int64, error) { return s.repo.CountTagLinksByProject(gctx, projectID) },
			func(limit int) ([]string, error) { return s.repo.ListTagLinkIDs(gctx, projectID, limit) },
			func(id string) error { return s.repo.DeleteTagLink(gctx, projectID, id) },
		)
	})
	if err := group.Wait(); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, userID, projectID)
	if err != nil {
		return backendErr("delete project", err)
	}
	if !deleted {
		return ErrProjectNotFound
	}
	return nil
}

func (s *Service) deleteDependents(ctx context.Context, collection string,
	count func() (int64, error),
	fetch func(limit int) ([]string, error),
	remove func(id string) error,
) error {
	total, err := count()
	if err != nil {
		return backendErr(fmt.Sprintf("count %s", collection), err)
	}

	var deleted int64
	for {
		ids, err := fetch(s.cfg.DeleteBatchSize)
		if err != nil {
			return backendErr(fmt.Sprintf("fetch %s batch", collection), err)
		}
		if len(ids) == 0 {
			break
		}

		for start := 0; start < len(ids); start += s.cfg.DeleteChunkSize {
			end := start + s.cfg.DeleteChunkSize
			if end > len(ids) {
				end = len(ids)
			}
			chunk, _ := errgroup.WithContext(ctx)
			for _, id := range ids[start:end] {
				id := id
				chunk.Go(func() error { return remove(id) })
			}
			if err := chunk.Wait(); err != nil {
				return backendErr(fmt.Sprintf("delete %s", collection), err)
			}
		}

		deleted += int64(len(ids))
		// A short page means the collection is drained; so does reaching the
		// total reported up front (guards against a backend that keeps
		// returning full pages).
		if len(ids) < s.cfg.DeleteBatchSize || deleted >= total {
			break
		}
	}

	s.log.Debug("cascade: dependent collection cleared", "collection", collection, "deleted", deleted)
	return nil
}
