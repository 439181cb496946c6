package memory

import (
	"context"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

func (s *Store) CreateLayout(_ context.Context, layout *model.DashboardLayout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	row := layout.Clone()
	if row.Name == "" {
		row.Name = model.DefaultLayoutName
	}
	row.CreatedAt = now
	row.UpdatedAt = now
	row.ID = s.layouts.insert(&row)

	*layout = row.Clone()
	return nil
}

func (s *Store) GetLayout(_ context.Context, id int64) (*model.DashboardLayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.layouts.get(id)
	if !ok {
		return nil, apperror.NotFound("dashboard layout", id)
	}
	l := row.Clone()
	return &l, nil
}

func (s *Store) ListLayoutsByUser(_ context.Context, userID int64) ([]model.DashboardLayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.layouts.filter(func(l *model.DashboardLayout) bool { return l.UserID == userID })
	return cloneAll(rows, model.DashboardLayout.Clone), nil
}

func (s *Store) UpdateLayout(_ context.Context, id int64, patch model.LayoutPatch) (*model.DashboardLayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.layouts.get(id)
	if !ok {
		return nil, apperror.NotFound("dashboard layout", id)
	}
	patch.Apply(row)
	row.UpdatedAt = s.now()

	l := row.Clone()
	return &l, nil
}

func (s *Store) DeleteLayout(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.layouts.remove(id) {
		return apperror.NotFound("dashboard layout", id)
	}
	return nil
}
