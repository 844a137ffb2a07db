package navctx

import (
	"context"
	"encoding/json"
	"errors"

	"diamond-app-go/pkg/logger"
)

var ErrNotFound = errors.New("dashboard context not found")

// Service persists the dashboard navigation context. Saving is strictly best
// effort: a failure here is logged and swallowed, never surfaced as a
// user-facing error.
type Service struct {
	repo Repository
	log  logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Save(ctx context.Context, userID string, snapshot Snapshot) {
	if userID == "" {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Warn("navctx: snapshot marshal failed", "user_id", userID, "err", err)
		return
	}
	if err := s.repo.Upsert(ctx, &Record{UserID: userID, Snapshot: payload}); err != nil {
		s.log.Warn("navctx: snapshot save failed", "user_id", userID, "err", err)
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*Snapshot, error) {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(record.Snapshot, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
