package memory

import (
	"context"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

func (s *Store) CreateSocialAccount(_ context.Context, account *model.SocialAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	row := account.Clone()
	row.IsConnected = true
	row.CreatedAt = now
	row.UpdatedAt = now
	row.ID = s.accounts.insert(&row)

	*account = row.Clone()
	return nil
}

func (s *Store) GetSocialAccount(_ context.Context, id int64) (*model.SocialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.accounts.get(id)
	if !ok {
		return nil, apperror.NotFound("social account", id)
	}
	a := row.Clone()
	return &a, nil
}

func (s *Store) ListSocialAccountsByUser(_ context.Context, userID int64) ([]model.SocialAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.accounts.filter(func(a *model.SocialAccount) bool { return a.UserID == userID })
	return cloneAll(rows, model.SocialAccount.Clone), nil
}

func (s *Store) UpdateSocialAccount(_ context.Context, id int64, patch model.SocialAccountPatch) (*model.SocialAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.accounts.get(id)
	if !ok {
		return nil, apperror.NotFound("social account", id)
	}
	patch.Apply(row)
	row.UpdatedAt = s.now()

	a := row.Clone()
	return &a, nil
}

func (s *Store) DisconnectSocialAccount(ctx context.Context, id int64) (*model.SocialAccount, error) {
	return s.UpdateSocialAccount(ctx, id, model.SocialAccountPatch{IsConnected: model.Ptr(false)})
}
