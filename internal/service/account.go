package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

// AccountStore is the slice of the store AccountService needs.
type AccountStore interface {
	repository.SocialAccountRepository
	repository.ContentRepository
	repository.SnapshotRepository
}

// AccountService manages a user's linked platform accounts.
type AccountService struct {
	store  AccountStore
	logger *slog.Logger
	now    func() time.Time
}

func NewAccountService(store AccountStore, logger *slog.Logger) *AccountService {
	return &AccountService{store: store, logger: logger, now: time.Now}
}

func (s *AccountService) List(ctx context.Context, userID int64) ([]model.SocialAccount, error) {
	return s.store.ListSocialAccountsByUser(ctx, userID)
}

// ConnectRequest carries the fields of an account link.
type ConnectRequest struct {
	Platform     string
	Handle       string
	DisplayName  string
	ProfileURL   string
	AccessToken  string
	RefreshToken string
}

// Connect links an account. Linking the same (platform, handle) again
// reconnects the existing record and refreshes its tokens.
func (s *AccountService) Connect(ctx context.Context, userID int64, req ConnectRequest) (*model.SocialAccount, error) {
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	req.Handle = strings.TrimSpace(req.Handle)

	if !model.IsKnownPlatform(req.Platform) {
		return nil, apperror.ValidationFailed("platform",
			"platform must be one of "+strings.Join(model.Platforms, ", "))
	}
	if req.Handle == "" {
		return nil, apperror.ValidationFailed("handle", "handle is required")
	}

	existing, err := s.store.ListSocialAccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, acc := range existing {
		if acc.Platform != req.Platform || acc.Handle != req.Handle {
			continue
		}
		updated, err := s.store.UpdateSocialAccount(ctx, acc.ID, model.SocialAccountPatch{
			DisplayName:  nonEmpty(req.DisplayName),
			ProfileURL:   nonEmpty(req.ProfileURL),
			AccessToken:  nonEmpty(req.AccessToken),
			RefreshToken: nonEmpty(req.RefreshToken),
			IsConnected:  model.Ptr(true),
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("account reconnected", slog.Int64("accountID", acc.ID), slog.String("platform", acc.Platform))
		return updated, nil
	}

	acc := &model.SocialAccount{
		UserID:       userID,
		Platform:     req.Platform,
		Handle:       req.Handle,
		DisplayName:  req.DisplayName,
		ProfileURL:   req.ProfileURL,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	}
	if err := s.store.CreateSocialAccount(ctx, acc); err != nil {
		return nil, err
	}
	s.logger.Info("account connected", slog.Int64("accountID", acc.ID), slog.String("platform", acc.Platform))
	return acc, nil
}

// Disconnect soft-deletes an account the user owns.
func (s *AccountService) Disconnect(ctx context.Context, userID, accountID int64) (*model.SocialAccount, error) {
	if _, err := s.owned(ctx, userID, accountID); err != nil {
		return nil, err
	}
	return s.store.DisconnectSocialAccount(ctx, accountID)
}

// SyncResult reports what a sync did.
type SyncResult struct {
	Account  *model.SocialAccount     `json:"account"`
	Snapshot *model.AnalyticsSnapshot `json:"snapshot,omitempty"`
	Created  bool                     `json:"created"`
}

// Sync records today's snapshot for the account. Snapshots hold one day of
// activity, so the snapshot gets the account's content totals minus what
// earlier snapshots already recorded, floored at zero. A second sync on the
// same day only touches the account.
//
// There is no platform API client yet, so the follower count is whatever
// the account already holds.
func (s *AccountService) Sync(ctx context.Context, userID, accountID int64) (*SyncResult, error) {
	acc, err := s.owned(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.IsConnected {
		return nil, apperror.Conflict("account", "account is disconnected")
	}

	today := model.DayOf(s.now())
	snaps, err := s.store.ListSnapshotsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	result := &SyncResult{}
	for i := range snaps {
		if snaps[i].Day().Equal(today) {
			result.Snapshot = &snaps[i]
			break
		}
	}

	if result.Snapshot == nil {
		items, err := s.store.ListContentItemsByAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		snap := &model.AnalyticsSnapshot{
			UserID:          userID,
			SocialAccountID: model.Ptr(accountID),
			Date:            today,
			Platform:        acc.Platform,
			Followers:       acc.Followers,
		}
		var lifetime, recorded activity
		for _, it := range items {
			lifetime.add(it.Views, it.Likes, it.Comments, it.Shares)
		}
		for _, prev := range snaps {
			recorded.add(prev.Views, prev.Likes, prev.Comments, prev.Shares)
		}
		snap.Views = delta(lifetime.views, recorded.views)
		snap.Likes = delta(lifetime.likes, recorded.likes)
		snap.Comments = delta(lifetime.comments, recorded.comments)
		snap.Shares = delta(lifetime.shares, recorded.shares)
		if err := s.store.CreateSnapshot(ctx, snap); err != nil {
			return nil, err
		}
		result.Snapshot, result.Created = snap, true
	}

	result.Account, err = s.store.UpdateSocialAccount(ctx, accountID, model.SocialAccountPatch{})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account synced",
		slog.Int64("accountID", accountID),
		slog.Bool("snapshotCreated", result.Created),
	)
	return result, nil
}

type activity struct {
	views, likes, comments, shares int64
}

func (a *activity) add(views, likes, comments, shares int64) {
	a.views += views
	a.likes += likes
	a.comments += comments
	a.shares += shares
}

// delta is the activity not yet recorded by any snapshot. Deleted content
// or a seeded history can put recorded above total; that counts as none.
func delta(total, recorded int64) int64 {
	return max(total-recorded, 0)
}

// AccountStatistics is the per-account stats card.
//
// Growth values are percentages against the latest snapshot at or before
// 7 and 30 days ago. Trends compare the last 7 days of snapshots with the 7
// before them: EngagementTrend in rate points, ViewsTrend in percent.
type AccountStatistics struct {
	AccountID       int64   `json:"accountId"`
	Platform        string  `json:"platform"`
	Followers       int64   `json:"followers"`
	WeeklyGrowth    float64 `json:"weeklyGrowth"`
	MonthlyGrowth   float64 `json:"monthlyGrowth"`
	EngagementRate  string  `json:"engagementRate"`
	EngagementTrend float64 `json:"engagementTrend"`
	Views           int64   `json:"views"`
	ViewsTrend      float64 `json:"viewsTrend"`
	ContentCount    int     `json:"contentCount"`
}

func (s *AccountService) Statistics(ctx context.Context, userID, accountID int64) (*AccountStatistics, error) {
	acc, err := s.owned(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListContentItemsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.store.ListSnapshotsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	stats := &AccountStatistics{
		AccountID:    acc.ID,
		Platform:     acc.Platform,
		Followers:    acc.Followers,
		ContentCount: len(items),
	}
	var engagement int64
	for _, it := range items {
		stats.Views += it.Views
		engagement += it.Engagement
	}
	stats.EngagementRate = model.FormatRate(engagement, stats.Views)

	now := s.now()
	day := 24 * time.Hour
	stats.WeeklyGrowth = percentChange(followersAt(snaps, now.Add(-7*day)), acc.Followers)
	stats.MonthlyGrowth = percentChange(followersAt(snaps, now.Add(-30*day)), acc.Followers)

	recent := windowTotals(snaps, now.Add(-7*day), now)
	earlier := windowTotals(snaps, now.Add(-14*day), now.Add(-7*day))
	stats.EngagementTrend = roundTenth(recent.rate() - earlier.rate())
	stats.ViewsTrend = percentChange(earlier.views, recent.views)
	return stats, nil
}

// owned returns the account when userID owns it. Someone else's account is
// reported as NotFound so IDs cannot be probed.
func (s *AccountService) owned(ctx context.Context, userID, accountID int64) (*model.SocialAccount, error) {
	acc, err := s.store.GetSocialAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.UserID != userID {
		return nil, apperror.NotFound("social account", accountID)
	}
	return acc, nil
}

// followersAt is the follower count of the latest snapshot on or before t,
// or -1 when there is none.
func followersAt(snaps []model.AnalyticsSnapshot, t time.Time) int64 {
	found := int64(-1)
	var best time.Time
	for _, sn := range snaps {
		if sn.Date.After(t) {
			continue
		}
		if found < 0 || !sn.Date.Before(best) {
			found, best = sn.Followers, sn.Date
		}
	}
	return found
}

type totals struct {
	views, engagement int64
}

func (t totals) rate() float64 {
	if t.views <= 0 {
		return 0
	}
	return float64(t.engagement) / float64(t.views) * 100
}

// windowTotals sums snapshots dated in (from, to].
func windowTotals(snaps []model.AnalyticsSnapshot, from, to time.Time) totals {
	var t totals
	for _, sn := range snaps {
		if sn.Date.After(from) && !sn.Date.After(to) {
			t.views += sn.Views
			t.engagement += sn.Engagement
		}
	}
	return t
}

// percentChange is 0 when there is no usable baseline.
func percentChange(before, after int64) float64 {
	if before <= 0 {
		return 0
	}
	return roundTenth(float64(after-before) / float64(before) * 100)
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}
