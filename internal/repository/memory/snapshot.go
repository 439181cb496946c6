package memory

import (
	"context"

	"github.com/sakif/social-pulse/internal/model"
)

func (s *Store) CreateSnapshot(_ context.Context, snapshot *model.AnalyticsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	row := snapshot.Clone()
	row.Recompute()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.ID = s.snapshots.insert(&row)

	*snapshot = row.Clone()
	return nil
}

func (s *Store) ListSnapshotsByUser(_ context.Context, userID int64) ([]model.AnalyticsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.snapshots.filter(func(a *model.AnalyticsSnapshot) bool { return a.UserID == userID })
	return cloneAll(rows, model.AnalyticsSnapshot.Clone), nil
}

func (s *Store) ListSnapshotsByAccount(_ context.Context, accountID int64) ([]model.AnalyticsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.snapshots.filter(func(a *model.AnalyticsSnapshot) bool {
		return a.SocialAccountID != nil && *a.SocialAccountID == accountID
	})
	return cloneAll(rows, model.AnalyticsSnapshot.Clone), nil
}
