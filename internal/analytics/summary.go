package analytics

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sakif/social-pulse/internal/model"
)

// SummaryWindow is the look-back period of the summary cards.
const SummaryWindow = 30 * 24 * time.Hour

// Stat is one summary card: a display value and its change.
type Stat struct {
	Value  string  `json:"value"`
	Change float64 `json:"change"`
}

// Summary is the four headline cards of the dashboard.
//
// Change semantics differ per card:
//   - Followers: percent growth over the window
//   - Engagement: percentage-point delta between the two halves of the window
//   - Views: percent growth of the recent half over the earlier half
//   - ContentCount: number of items published in the window
type Summary struct {
	Followers    Stat `json:"followers"`
	Engagement   Stat `json:"engagement"`
	Views        Stat `json:"views"`
	ContentCount Stat `json:"contentCount"`
}

// Summary computes the headline cards for userID.
func (a *Aggregator) Summary(ctx context.Context, userID int64) (Summary, error) {
	u, err := a.load(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	snaps, err := a.store.ListSnapshotsByUser(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: listing snapshots: %w", err)
	}

	now := a.now()
	start := now.Add(-SummaryWindow)
	mid := now.Add(-SummaryWindow / 2)

	var followers int64
	for _, acc := range u.connected {
		followers += acc.Followers
	}

	var (
		series                = map[int64]*followerSeries{}
		views, engagement     int64
		earlyViews, lateViews int64
		earlyEng, lateEng     int64
	)
	for _, s := range snaps {
		if s.Date.Before(start) || s.Date.After(now) {
			continue
		}
		var key int64 // user-level snapshots share key 0
		if s.SocialAccountID != nil {
			key = *s.SocialAccountID
		}
		fs, ok := series[key]
		if !ok {
			fs = &followerSeries{}
			series[key] = fs
		}
		fs.observe(s.Date, s.Followers)

		views += s.Views
		engagement += s.Engagement
		if s.Date.Before(mid) {
			earlyViews += s.Views
			earlyEng += s.Engagement
		} else {
			lateViews += s.Views
			lateEng += s.Engagement
		}
	}

	// Each account is compared with itself, so an account that starts
	// reporting partway through the window adds no growth.
	var firstFollowers, lastFollowers int64
	for _, fs := range series {
		firstFollowers += fs.first
		lastFollowers += fs.last
	}

	var published int64
	for _, it := range u.items {
		t := it.SortTime()
		if !t.Before(start) && !t.After(now) {
			published++
		}
	}

	return Summary{
		Followers: Stat{
			Value:  FormatCount(followers),
			Change: round1(growth(firstFollowers, lastFollowers)),
		},
		Engagement: Stat{
			Value:  model.FormatRate(engagement, views),
			Change: round1(rate(lateEng, lateViews) - rate(earlyEng, earlyViews)),
		},
		Views: Stat{
			Value:  FormatCount(views),
			Change: round1(growth(earlyViews, lateViews)),
		},
		ContentCount: Stat{
			Value:  strconv.Itoa(len(u.items)),
			Change: float64(published),
		},
	}, nil
}

// FormatCount renders n with a one-decimal K or M suffix:
//
//	999      → "999"
//	158400   → "158.4K"
//	2300000  → "2.3M"
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// followerSeries keeps the earliest and latest follower counts of one
// account inside the summary window.
type followerSeries struct {
	firstAt, lastAt time.Time
	first, last     int64
	seen            bool
}

func (fs *followerSeries) observe(at time.Time, followers int64) {
	if !fs.seen || at.Before(fs.firstAt) {
		fs.firstAt, fs.first = at, followers
	}
	if !fs.seen || !at.Before(fs.lastAt) {
		fs.lastAt, fs.last = at, followers
	}
	fs.seen = true
}

// rate is part/whole as a percentage, 0 when whole is 0.
func rate(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// growth is the percent change from before to after, 0 when before is 0.
func growth(before, after int64) float64 {
	if before <= 0 {
		return 0
	}
	return float64(after-before) / float64(before) * 100
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
