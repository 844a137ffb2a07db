package user

import (
	"context"
	"fmt"
	"sync"
)

// StatsWarmer computes the current-year stats ahead of the first dashboard
// read. The auth middleware upserts a profile on every authenticated request,
// so warming is throttled to once per user per process.
type StatsWarmer interface {
	PreWarmCache(ctx context.Context, userID string)
}

type Service struct {
	repo   Repository
	warmer StatsWarmer

	mu     sync.Mutex
	warmed map[string]struct{}
}

func NewService(repo Repository, warmer StatsWarmer) *Service {
	return &Service{
		repo:   repo,
		warmer: warmer,
		warmed: make(map[string]struct{}),
	}
}

func (s *Service) UpsertProfile(ctx context.Context, userID, email, avatarURL string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	profile := Profile{UserID: userID}
	if email != "" {
		profile.Email = &email
	}
	if avatarURL != "" {
		profile.AvatarURL = &avatarURL
	}
	if err := s.repo.UpsertProfile(ctx, &profile); err != nil {
		return err
	}

	s.prewarm(userID)
	return nil
}

// prewarm kicks off the first-seen stats warmup in the background; the request
// that triggered it must not wait on a full recomputation.
func (s *Service) prewarm(userID string) {
	if s.warmer == nil {
		return
	}
	s.mu.Lock()
	_, seen := s.warmed[userID]
	if !seen {
		s.warmed[userID] = struct{}{}
	}
	s.mu.Unlock()
	if seen {
		return
	}
	go s.warmer.PreWarmCache(context.Background(), userID)
}
