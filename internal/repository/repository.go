// Package repository defines the storage contracts of the entity store.
//
// Two implementations exist:
//   - repository/memory: map-backed, the default
//   - repository/sqlite: SQL-backed via modernc.org/sqlite
//
// Both satisfy the same conformance suite in repository/repotest.
//
// CONTRACT SHARED BY EVERY METHOD:
//   - Create* assigns the next ID for that kind, stamps CreatedAt/UpdatedAt,
//     applies kind defaults, and writes the stored values back into the
//     argument.
//   - Update* merges a patch, re-stamps UpdatedAt and returns the record.
//   - Lists come back in insertion (ID) order; "nothing matched" is an empty
//     slice, never an error.
//   - A supplied ID that does not resolve yields apperror.ErrNotFound.
//   - Returned records are copies. Mutating them changes nothing stored.
package repository

import (
	"context"

	"github.com/sakif/social-pulse/internal/model"
)

type UserRepository interface {
	// CreateUser returns apperror.ErrConflict when the email or username is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
}

type SocialAccountRepository interface {
	// CreateSocialAccount sets IsConnected=true.
	CreateSocialAccount(ctx context.Context, account *model.SocialAccount) error
	GetSocialAccount(ctx context.Context, id int64) (*model.SocialAccount, error)
	ListSocialAccountsByUser(ctx context.Context, userID int64) ([]model.SocialAccount, error)
	UpdateSocialAccount(ctx context.Context, id int64, patch model.SocialAccountPatch) (*model.SocialAccount, error)
	// DisconnectSocialAccount sets IsConnected=false. The record is kept.
	DisconnectSocialAccount(ctx context.Context, id int64) (*model.SocialAccount, error)
}

type ContentRepository interface {
	// CreateContentItem sets IsBookmarked=false and derives engagement.
	CreateContentItem(ctx context.Context, item *model.ContentItem) error
	GetContentItem(ctx context.Context, id int64) (*model.ContentItem, error)
	ListContentItemsByAccount(ctx context.Context, accountID int64) ([]model.ContentItem, error)
	// ListContentItemsByAccounts returns the items of every listed account,
	// merged in ID order.
	ListContentItemsByAccounts(ctx context.Context, accountIDs []int64) ([]model.ContentItem, error)
	UpdateContentItem(ctx context.Context, id int64, patch model.ContentItemPatch) (*model.ContentItem, error)
}

type SnapshotRepository interface {
	CreateSnapshot(ctx context.Context, snapshot *model.AnalyticsSnapshot) error
	ListSnapshotsByUser(ctx context.Context, userID int64) ([]model.AnalyticsSnapshot, error)
	ListSnapshotsByAccount(ctx context.Context, accountID int64) ([]model.AnalyticsSnapshot, error)
}

type LayoutRepository interface {
	CreateLayout(ctx context.Context, layout *model.DashboardLayout) error
	GetLayout(ctx context.Context, id int64) (*model.DashboardLayout, error)
	ListLayoutsByUser(ctx context.Context, userID int64) ([]model.DashboardLayout, error)
	UpdateLayout(ctx context.Context, id int64, patch model.LayoutPatch) (*model.DashboardLayout, error)
	// DeleteLayout is the only hard delete in the store. It does not cascade.
	DeleteLayout(ctx context.Context, id int64) error
}

type InsightRepository interface {
	CreateInsight(ctx context.Context, insight *model.AiInsight) error
	ListInsightsByUser(ctx context.Context, userID int64) ([]model.AiInsight, error)
}

// Store is the full entity store, built once at startup and handed to every
// component that needs it.
type Store interface {
	UserRepository
	SocialAccountRepository
	ContentRepository
	SnapshotRepository
	LayoutRepository
	InsightRepository
	Close() error
}
