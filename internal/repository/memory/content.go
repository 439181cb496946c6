package memory

import (
	"context"
	"slices"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

func (s *Store) CreateContentItem(_ context.Context, item *model.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	row := item.Clone()
	row.IsBookmarked = false
	row.Recompute()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.ID = s.content.insert(&row)

	*item = row.Clone()
	return nil
}

func (s *Store) GetContentItem(_ context.Context, id int64) (*model.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.content.get(id)
	if !ok {
		return nil, apperror.NotFound("content item", id)
	}
	c := row.Clone()
	return &c, nil
}

func (s *Store) ListContentItemsByAccount(_ context.Context, accountID int64) ([]model.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.content.filter(func(c *model.ContentItem) bool { return c.SocialAccountID == accountID })
	return cloneAll(rows, model.ContentItem.Clone), nil
}

func (s *Store) ListContentItemsByAccounts(_ context.Context, accountIDs []int64) ([]model.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.content.filter(func(c *model.ContentItem) bool {
		return slices.Contains(accountIDs, c.SocialAccountID)
	})
	return cloneAll(rows, model.ContentItem.Clone), nil
}

func (s *Store) UpdateContentItem(_ context.Context, id int64, patch model.ContentItemPatch) (*model.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.content.get(id)
	if !ok {
		return nil, apperror.NotFound("content item", id)
	}
	patch.Apply(row) // Apply recomputes engagement
	row.UpdatedAt = s.now()

	c := row.Clone()
	return &c, nil
}
