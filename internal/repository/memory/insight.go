package memory

import (
	"context"

	"github.com/sakif/social-pulse/internal/model"
)

func (s *Store) CreateInsight(_ context.Context, insight *model.AiInsight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	row := insight.Clone()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.ID = s.insights.insert(&row)

	*insight = row.Clone()
	return nil
}

func (s *Store) ListInsightsByUser(_ context.Context, userID int64) ([]model.AiInsight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.insights.filter(func(i *model.AiInsight) bool { return i.UserID == userID })
	return cloneAll(rows, model.AiInsight.Clone), nil
}
