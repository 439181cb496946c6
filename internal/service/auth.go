// Package service holds the business rules that sit between the HTTP
// handlers and the entity store.
//
//	Handler (HTTP) → Service (rules, ownership, validation) → Repository
//
// Services take primitives and return domain errors from apperror. They
// never see an *http.Request, so the same rules serve the handlers, the seed
// loader and the tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/auth"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6

	// usernameAttempts is how many numeric suffixes SocialLogin tries before
	// falling back to a random one.
	usernameAttempts = 10
)

// AuthService handles registration, password login and social login.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

// AuthResult bundles the user with a freshly issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a password user.
func (s *AuthService) Register(ctx context.Context, email, username, password, fullName string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(username) < MinUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be at least %d characters", MinUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Provider:     model.ProviderEmail,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err // Conflict passes through untouched
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID), slog.String("username", user.Username))
	return s.issue(user)
}

// Login checks a password and stamps LastLogin. Every credential failure is
// the same Unauthorized error so callers cannot probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid email or password")

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if !user.UsesPassword() || user.PasswordHash == "" {
		return nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("verifying password", slog.Int64("userID", user.ID), slog.String("error", err.Error()))
		}
		return nil, invalid
	}

	user, err = s.touchLogin(ctx, user.ID, model.UserPatch{})
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// SocialIdentity is what a social provider tells us about the signed-in
// person.
type SocialIdentity struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// SocialLogin signs in a provider user, creating or linking the local
// record as needed:
//
//  1. a user with this (provider, providerID) signs in directly
//  2. a user with the same email gets the provider linked
//  3. otherwise a new user is created with a unique username
func (s *AuthService) SocialLogin(ctx context.Context, id SocialIdentity) (*AuthResult, error) {
	if id.Provider == "" || id.ProviderID == "" {
		return nil, apperror.ValidationFailed("provider", "provider and provider ID are required")
	}
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))

	user, err := s.users.GetUserByProviderID(ctx, id.Provider, id.ProviderID)
	switch {
	case err == nil:
		user, err = s.touchLogin(ctx, user.ID, model.UserPatch{AvatarURL: nonEmpty(id.AvatarURL)})
		if err != nil {
			return nil, err
		}
		return s.issue(user)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	if id.Email != "" {
		user, err = s.users.GetUserByEmail(ctx, id.Email)
		switch {
		case err == nil:
			user, err = s.touchLogin(ctx, user.ID, model.UserPatch{
				Provider:   &id.Provider,
				ProviderID: &id.ProviderID,
				AvatarURL:  nonEmpty(id.AvatarURL),
			})
			if err != nil {
				return nil, err
			}
			s.logger.Info("linked social provider", slog.Int64("userID", user.ID), slog.String("provider", id.Provider))
			return s.issue(user)
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, err
		}
	}

	username, err := s.uniqueUsername(ctx, usernameBase(id))
	if err != nil {
		return nil, err
	}
	email := id.Email
	if email == "" {
		email = fmt.Sprintf("%s@%s.users.noreply", id.ProviderID, id.Provider)
	}
	now := s.now()
	user = &model.User{
		Username:   username,
		Email:      email,
		FullName:   id.DisplayName,
		AvatarURL:  id.AvatarURL,
		Provider:   id.Provider,
		ProviderID: id.ProviderID,
		LastLogin:  &now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created via social login",
		slog.Int64("userID", user.ID),
		slog.String("provider", id.Provider),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

// GitHubLogin is SocialLogin for a GitHub profile.
func (s *AuthService) GitHubLogin(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	return s.SocialLogin(ctx, SocialIdentity{
		Provider:    "github",
		ProviderID:  gh.ProviderID(),
		Email:       gh.Email,
		DisplayName: gh.DisplayName(),
		AvatarURL:   gh.AvatarURL,
	})
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *AuthService) touchLogin(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	now := s.now()
	patch.LastLogin = &now
	return s.users.UpdateUser(ctx, id, patch)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// uniqueUsername tries base, base1 .. base10 and then base_<xid>.
func (s *AuthService) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 1; i <= usernameAttempts+1; i++ {
		_, err := s.users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, apperror.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = base + strconv.Itoa(i)
	}
	return base + "_" + xid.New().String(), nil
}

func usernameBase(id SocialIdentity) string {
	base := id.Email
	if at := strings.IndexByte(base, '@'); at > 0 {
		base = base[:at]
	}
	if base == "" {
		base = strings.ToLower(strings.ReplaceAll(id.DisplayName, " ", ""))
	}
	if len(base) < MinUsernameLength {
		base = id.Provider + "user"
	}
	return base
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
