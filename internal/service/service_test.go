package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository/memory"
)

// =========================================================================
// SHARED HELPERS
// =========================================================================

// fixedNow is a Wednesday noon, UTC.
var fixedNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore() *memory.Store {
	return memory.New(memory.WithClock(clock))
}

func newAggregator(s *memory.Store) *analytics.Aggregator {
	return analytics.New(s, analytics.WithClock(clock))
}

func mustUser(t *testing.T, s *memory.Store, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Provider: model.ProviderEmail}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func mustAccount(t *testing.T, s *memory.Store, userID int64, platform string, followers int64) *model.SocialAccount {
	t.Helper()
	a := &model.SocialAccount{UserID: userID, Platform: platform, Handle: "@" + platform, Followers: followers}
	if err := s.CreateSocialAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateSocialAccount: %v", err)
	}
	return a
}

func mustContent(t *testing.T, s *memory.Store, accountID int64, item model.ContentItem) *model.ContentItem {
	t.Helper()
	item.SocialAccountID = accountID
	if item.Platform == "" {
		item.Platform = "youtube"
	}
	if item.ContentType == "" {
		item.ContentType = "video"
	}
	if err := s.CreateContentItem(context.Background(), &item); err != nil {
		t.Fatalf("CreateContentItem: %v", err)
	}
	return &item
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

