package memory

import (
	"context"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUserUnique(0, user.Email, user.Username); err != nil {
		return err
	}

	now := s.now()
	row := user.Clone()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.ID = s.users.insert(&row)

	*user = row.Clone()
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.users.get(id)
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	u := row.Clone()
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.Email == email },
		apperror.NotFoundBy("user", "email", email))
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return u.Username == username },
		apperror.NotFoundBy("user", "username", username))
}

func (s *Store) GetUserByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool {
		return providerID != "" && u.Provider == provider && u.ProviderID == providerID
	}, apperror.NotFoundBy("user", provider+" id", providerID))
}

func (s *Store) UpdateUser(_ context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users.get(id)
	if !ok {
		return nil, apperror.NotFound("user", id)
	}

	updated := row.Clone()
	patch.Apply(&updated)
	if err := s.checkUserUnique(id, updated.Email, updated.Username); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()
	*row = updated

	u := row.Clone()
	return &u, nil
}

func (s *Store) findUser(pred func(*model.User) bool, notFound error) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.users.find(pred)
	if !ok {
		return nil, notFound
	}
	u := row.Clone()
	return &u, nil
}

// checkUserUnique must be called with the write lock held. self is the ID
// being updated (0 on create) and is excluded from the check.
func (s *Store) checkUserUnique(self int64, email, username string) error {
	if _, taken := s.users.find(func(u *model.User) bool { return u.ID != self && u.Email == email }); taken {
		return apperror.Conflict("email", "email already registered")
	}
	if _, taken := s.users.find(func(u *model.User) bool { return u.ID != self && u.Username == username }); taken {
		return apperror.Conflict("username", "username already taken")
	}
	return nil
}
