package projects

import "context"

// GetBatchStatusCounts computes the sidebar status histogram in one query:
// build a status-agnostic filter (owner, company/artist/shape/year/search/tags
// — no status clause, no include/exclude flags), project only the status
// column with total-count computation disabled, and bucket the values in
// memory. The single-query strategy replaced a fan-out of one count query per
// status, whose per-request overhead dominated at collection sizes seen in
// practice.
//
// The projection is capped at Config.StatusCountCap rows (default 2000). A
// result that hits the cap exactly is almost certainly truncated, so that case
// logs a warning.
func (s *Service) GetBatchStatusCounts(ctx context.Context, f Filters) (*StatusCounts, error) {
	base := s.filters.BuildExcludingStatus(f, "", true)

	statuses, err := s.repo.ListStatuses(ctx, base, s.cfg.StatusCountCap)
	if err != nil {
		return nil, backendErr("status counts", err)
	}
	if len(statuses) == s.cfg.StatusCountCap {
		s.log.Warn("counts: projection hit the row cap, histogram may be truncated",
			"cap", s.cfg.StatusCountCap)
	}

	counts := NewStatusCounts()
	for _, status := range statuses {
		if _, ok := counts.Counts[status]; !ok {
			s.log.Warn("counts: skipping unrecognized status value", "status", string(status))
			continue
		}
		counts.Counts[status]++
		counts.Total++
	}
	return counts, nil
}
