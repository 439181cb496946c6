// Package repotest is the conformance suite every repository.Store backend
// must pass. Backends call Run from their own _test.go file:
//
//	func TestConformance(t *testing.T) {
//	    repotest.Run(t, func(t *testing.T, now func() time.Time) repository.Store {
//	        return memory.New(memory.WithClock(now))
//	    })
//	}
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

// Factory builds a fresh, empty store that stamps times with now.
type Factory func(t *testing.T, now func() time.Time) repository.Store

// Clock is a deterministic time source that advances one second per call.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock() *Clock {
	return &Clock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// Run executes the whole suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	open := func(t *testing.T) repository.Store {
		t.Helper()
		s := newStore(t, NewClock().Now)
		t.Cleanup(func() { s.Close() })
		return s
	}

	t.Run("IDsAreMonotonicPerKind", func(t *testing.T) { testIDsMonotonic(t, open(t)) })
	t.Run("LayoutIDsNotReusedAfterDelete", func(t *testing.T) { testLayoutIDsNotReused(t, open(t)) })
	t.Run("UserUniqueness", func(t *testing.T) { testUserUniqueness(t, open(t)) })
	t.Run("UserLookups", func(t *testing.T) { testUserLookups(t, open(t)) })
	t.Run("UpdateUserMergesPatch", func(t *testing.T) { testUpdateUser(t, open(t)) })
	t.Run("UnknownIDsAreNotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("EmptyListsAreNotErrors", func(t *testing.T) { testEmptyLists(t, open(t)) })
	t.Run("SoftDisconnect", func(t *testing.T) { testSoftDisconnect(t, open(t)) })
	t.Run("ContentDefaultsAndEngagement", func(t *testing.T) { testContentEngagement(t, open(t)) })
	t.Run("ContentListsInInsertionOrder", func(t *testing.T) { testContentOrder(t, open(t)) })
	t.Run("ReturnedRecordsAreCopies", func(t *testing.T) { testCopies(t, open(t)) })
	t.Run("Snapshots", func(t *testing.T) { testSnapshots(t, open(t)) })
	t.Run("DeleteLayoutLeavesOthers", func(t *testing.T) { testDeleteLayout(t, open(t)) })
	t.Run("InsightsInInsertionOrder", func(t *testing.T) { testInsights(t, open(t)) })
	t.Run("ConcurrentWrites", func(t *testing.T) { testConcurrentWrites(t, open(t)) })
}

// =========================================================================
// HELPERS
// =========================================================================

func mustUser(t *testing.T, s repository.Store, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Provider: model.ProviderEmail}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%q) error = %v", username, err)
	}
	return u
}

func mustAccount(t *testing.T, s repository.Store, userID int64, platform, handle string) *model.SocialAccount {
	t.Helper()
	a := &model.SocialAccount{UserID: userID, Platform: platform, Handle: handle, Followers: 1000}
	if err := s.CreateSocialAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateSocialAccount() error = %v", err)
	}
	return a
}

func mustContent(t *testing.T, s repository.Store, accountID int64, title string, likes int64) *model.ContentItem {
	t.Helper()
	c := &model.ContentItem{
		SocialAccountID: accountID,
		Title:           title,
		Platform:        "youtube",
		ContentType:     "video",
		Views:           1000,
		Likes:           likes,
		Tags:            []string{"tutorial"},
	}
	if err := s.CreateContentItem(context.Background(), c); err != nil {
		t.Fatalf("CreateContentItem() error = %v", err)
	}
	return c
}

func mustLayout(t *testing.T, s repository.Store, userID int64, name string, isDefault bool) *model.DashboardLayout {
	t.Helper()
	l := &model.DashboardLayout{
		UserID:    userID,
		Name:      name,
		IsDefault: isDefault,
		Layout: model.LayoutSpec{Widgets: []model.Widget{
			{ID: "w1", Type: "performance-graph", Position: model.Position{X: 0, Y: 0}, Size: model.Size{Width: 8, Height: 2}},
		}},
	}
	if err := s.CreateLayout(context.Background(), l); err != nil {
		t.Fatalf("CreateLayout() error = %v", err)
	}
	return l
}

func wantNotFound(t *testing.T, op string, err error) {
	t.Helper()
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("%s error = %v, want ErrNotFound", op, err)
	}
}

// =========================================================================
// TESTS
// =========================================================================

func testIDsMonotonic(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "first")
	if u.ID != 1 {
		t.Errorf("first user ID = %d, want 1", u.ID)
	}

	var last int64
	for i := 0; i < 5; i++ {
		a := mustAccount(t, s, u.ID, "youtube", "h")
		if a.ID <= last {
			t.Fatalf("account ID %d not greater than previous %d", a.ID, last)
		}
		last = a.ID
	}
	if last != 5 {
		t.Errorf("fifth account ID = %d, want 5 (counters are per kind)", last)
	}

	c := mustContent(t, s, 1, "x", 1)
	if c.ID != 1 {
		t.Errorf("first content ID = %d, want 1", c.ID)
	}

	snap := &model.AnalyticsSnapshot{UserID: u.ID, Date: time.Now()}
	if err := s.CreateSnapshot(ctx, snap); err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}
	if snap.ID != 1 {
		t.Errorf("first snapshot ID = %d, want 1", snap.ID)
	}
}

func testLayoutIDsNotReused(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "layouts")
	first := mustLayout(t, s, u.ID, "A", true)
	second := mustLayout(t, s, u.ID, "B", false)

	if err := s.DeleteLayout(ctx, second.ID); err != nil {
		t.Fatalf("DeleteLayout() error = %v", err)
	}
	third := mustLayout(t, s, u.ID, "C", false)

	if third.ID <= second.ID {
		t.Errorf("new layout ID = %d, want > deleted ID %d", third.ID, second.ID)
	}
	if third.ID == first.ID {
		t.Errorf("new layout reused ID %d", first.ID)
	}
}

func testUserUniqueness(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "alex")

	dupEmail := &model.User{Username: "other", Email: "alex@example.com"}
	if err := s.CreateUser(ctx, dupEmail); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser(duplicate email) error = %v, want ErrConflict", err)
	}

	dupName := &model.User{Username: "alex", Email: "new@example.com"}
	if err := s.CreateUser(ctx, dupName); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser(duplicate username) error = %v, want ErrConflict", err)
	}

	bob := mustUser(t, s, "bob")
	if _, err := s.UpdateUser(ctx, bob.ID, model.UserPatch{Email: model.Ptr("alex@example.com")}); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateUser(taken email) error = %v, want ErrConflict", err)
	}
}

func testUserLookups(t *testing.T, s repository.Store) {
	ctx := context.Background()
	social := &model.User{Username: "gh", Email: "gh@example.com", Provider: "github", ProviderID: "4242"}
	if err := s.CreateUser(ctx, social); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := s.GetUserByProviderID(ctx, "github", "4242")
	if err != nil {
		t.Fatalf("GetUserByProviderID() error = %v", err)
	}
	if got.ID != social.ID {
		t.Errorf("GetUserByProviderID() ID = %d, want %d", got.ID, social.ID)
	}

	_, err = s.GetUserByProviderID(ctx, "google", "4242")
	wantNotFound(t, "GetUserByProviderID(wrong provider)", err)

	byEmail, err := s.GetUserByEmail(ctx, "gh@example.com")
	if err != nil || byEmail.Username != "gh" {
		t.Errorf("GetUserByEmail() = %v, %v", byEmail, err)
	}
	byName, err := s.GetUserByUsername(ctx, "gh")
	if err != nil || byName.Email != "gh@example.com" {
		t.Errorf("GetUserByUsername() = %v, %v", byName, err)
	}

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	wantNotFound(t, "GetUserByEmail(unknown)", err)
}

func testUpdateUser(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "patchme")

	login := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	got, err := s.UpdateUser(ctx, u.ID, model.UserPatch{FullName: model.Ptr("Patch Me"), LastLogin: &login})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	if got.FullName != "Patch Me" {
		t.Errorf("FullName = %q, want %q", got.FullName, "Patch Me")
	}
	if got.Username != "patchme" {
		t.Errorf("Username changed to %q, patch should have kept it", got.Username)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(login) {
		t.Errorf("LastLogin = %v, want %v", got.LastLogin, login)
	}
	if got.ID != u.ID || !got.CreatedAt.Equal(u.CreatedAt) {
		t.Error("UpdateUser() changed ID or CreatedAt")
	}
	if !got.UpdatedAt.After(u.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", got.UpdatedAt, u.UpdatedAt)
	}
}

func testNotFound(t *testing.T, s repository.Store) {
	ctx := context.Background()

	_, err := s.GetUser(ctx, 99)
	wantNotFound(t, "GetUser", err)
	_, err = s.UpdateUser(ctx, 99, model.UserPatch{})
	wantNotFound(t, "UpdateUser", err)
	_, err = s.GetSocialAccount(ctx, 99)
	wantNotFound(t, "GetSocialAccount", err)
	_, err = s.UpdateSocialAccount(ctx, 99, model.SocialAccountPatch{})
	wantNotFound(t, "UpdateSocialAccount", err)
	_, err = s.DisconnectSocialAccount(ctx, 99)
	wantNotFound(t, "DisconnectSocialAccount", err)
	_, err = s.GetContentItem(ctx, 99)
	wantNotFound(t, "GetContentItem", err)
	_, err = s.UpdateContentItem(ctx, 99, model.ContentItemPatch{})
	wantNotFound(t, "UpdateContentItem", err)
	_, err = s.GetLayout(ctx, 99)
	wantNotFound(t, "GetLayout", err)
	_, err = s.UpdateLayout(ctx, 99, model.LayoutPatch{})
	wantNotFound(t, "UpdateLayout", err)
	wantNotFound(t, "DeleteLayout", s.DeleteLayout(ctx, 99))
}

func testEmptyLists(t *testing.T, s repository.Store) {
	ctx := context.Background()

	accounts, err := s.ListSocialAccountsByUser(ctx, 42)
	if err != nil || accounts == nil || len(accounts) != 0 {
		t.Errorf("ListSocialAccountsByUser() = %v, %v; want empty, nil", accounts, err)
	}
	items, err := s.ListContentItemsByAccounts(ctx, nil)
	if err != nil || items == nil || len(items) != 0 {
		t.Errorf("ListContentItemsByAccounts(nil) = %v, %v; want empty, nil", items, err)
	}
	snaps, err := s.ListSnapshotsByUser(ctx, 42)
	if err != nil || snaps == nil || len(snaps) != 0 {
		t.Errorf("ListSnapshotsByUser() = %v, %v; want empty, nil", snaps, err)
	}
	layouts, err := s.ListLayoutsByUser(ctx, 42)
	if err != nil || layouts == nil || len(layouts) != 0 {
		t.Errorf("ListLayoutsByUser() = %v, %v; want empty, nil", layouts, err)
	}
	insights, err := s.ListInsightsByUser(ctx, 42)
	if err != nil || insights == nil || len(insights) != 0 {
		t.Errorf("ListInsightsByUser() = %v, %v; want empty, nil", insights, err)
	}
}

func testSoftDisconnect(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "disc")
	a := mustAccount(t, s, u.ID, "instagram", "disc_ig")

	if !a.IsConnected {
		t.Fatal("new account IsConnected = false, want true")
	}

	got, err := s.DisconnectSocialAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("DisconnectSocialAccount() error = %v", err)
	}
	if got.IsConnected {
		t.Error("IsConnected = true after disconnect")
	}
	if !got.UpdatedAt.After(a.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", got.UpdatedAt, a.UpdatedAt)
	}

	again, err := s.GetSocialAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetSocialAccount() after disconnect error = %v", err)
	}
	if again.IsConnected {
		t.Error("stored account still connected")
	}

	list, err := s.ListSocialAccountsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListSocialAccountsByUser() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("ListSocialAccountsByUser() = %v, want the disconnected account", list)
	}
}

func testContentEngagement(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "eng")
	a := mustAccount(t, s, u.ID, "youtube", "eng_yt")

	c := &model.ContentItem{
		SocialAccountID: a.ID,
		Title:           "video",
		Views:           200,
		Likes:           10,
		Comments:        5,
		Shares:          5,
		Engagement:      999, // ignored: always derived
		IsBookmarked:    true,
	}
	if err := s.CreateContentItem(ctx, c); err != nil {
		t.Fatalf("CreateContentItem() error = %v", err)
	}
	if c.IsBookmarked {
		t.Error("new content IsBookmarked = true, want false")
	}
	if c.Engagement != 20 || c.EngagementRate != "10.0%" {
		t.Errorf("engagement = %d/%q, want 20/%q", c.Engagement, c.EngagementRate, "10.0%")
	}
	if c.Tags == nil {
		t.Error("Tags = nil, want empty slice")
	}

	updated, err := s.UpdateContentItem(ctx, c.ID, model.ContentItemPatch{Shares: model.Ptr[int64](25)})
	if err != nil {
		t.Fatalf("UpdateContentItem() error = %v", err)
	}
	if updated.Engagement != 40 {
		t.Errorf("Engagement after update = %d, want 40", updated.Engagement)
	}

	stored, err := s.GetContentItem(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetContentItem() error = %v", err)
	}
	if stored.Engagement != 40 || stored.EngagementRate != "20.0%" {
		t.Errorf("stored engagement = %d/%q, want 40/%q", stored.Engagement, stored.EngagementRate, "20.0%")
	}
}

func testContentOrder(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "order")
	yt := mustAccount(t, s, u.ID, "youtube", "o_yt")
	ig := mustAccount(t, s, u.ID, "instagram", "o_ig")
	other := mustAccount(t, s, 999, "twitter", "not_mine")

	c1 := mustContent(t, s, yt.ID, "one", 1)
	c2 := mustContent(t, s, ig.ID, "two", 2)
	mustContent(t, s, other.ID, "foreign", 3)
	c4 := mustContent(t, s, yt.ID, "four", 4)

	items, err := s.ListContentItemsByAccounts(ctx, []int64{ig.ID, yt.ID})
	if err != nil {
		t.Fatalf("ListContentItemsByAccounts() error = %v", err)
	}
	want := []int64{c1.ID, c2.ID, c4.ID}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %d, want %d", i, items[i].ID, id)
		}
	}

	ytItems, err := s.ListContentItemsByAccount(ctx, yt.ID)
	if err != nil {
		t.Fatalf("ListContentItemsByAccount() error = %v", err)
	}
	if len(ytItems) != 2 || ytItems[0].ID != c1.ID || ytItems[1].ID != c4.ID {
		t.Errorf("ListContentItemsByAccount() = %v, want [%d %d]", ytItems, c1.ID, c4.ID)
	}
}

func testCopies(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "copies")
	a := mustAccount(t, s, u.ID, "youtube", "c_yt")
	c := mustContent(t, s, a.ID, "orig", 1)

	got, err := s.GetContentItem(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetContentItem() error = %v", err)
	}
	got.Title = "mutated"
	got.Tags[0] = "mutated"

	again, err := s.GetContentItem(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetContentItem() error = %v", err)
	}
	if again.Title != "orig" || again.Tags[0] != "tutorial" {
		t.Errorf("store changed through a returned record: %+v", again)
	}

	l := mustLayout(t, s, u.ID, "L", true)
	l.Layout.Widgets[0].Type = "mutated"
	stored, err := s.GetLayout(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetLayout() error = %v", err)
	}
	if stored.Layout.Widgets[0].Type != "performance-graph" {
		t.Error("store changed through the created layout argument")
	}
}

func testSnapshots(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "snaps")
	a := mustAccount(t, s, u.ID, "youtube", "s_yt")

	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	withAccount := &model.AnalyticsSnapshot{
		UserID: u.ID, SocialAccountID: &a.ID, Date: day, Platform: "youtube",
		Followers: 100, Views: 1000, Likes: 40, Comments: 5, Shares: 5,
	}
	userLevel := &model.AnalyticsSnapshot{UserID: u.ID, Date: day.AddDate(0, 0, 1), Platform: "all"}
	for _, snap := range []*model.AnalyticsSnapshot{withAccount, userLevel} {
		if err := s.CreateSnapshot(ctx, snap); err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}
	}
	if withAccount.Engagement != 50 || withAccount.EngagementRate != "5.0%" {
		t.Errorf("snapshot engagement = %d/%q, want 50/%q", withAccount.Engagement, withAccount.EngagementRate, "5.0%")
	}

	byUser, err := s.ListSnapshotsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListSnapshotsByUser() error = %v", err)
	}
	if len(byUser) != 2 || byUser[0].ID != withAccount.ID {
		t.Errorf("ListSnapshotsByUser() = %v", byUser)
	}
	if !byUser[0].Date.Equal(day) {
		t.Errorf("Date = %v, want %v", byUser[0].Date, day)
	}

	byAccount, err := s.ListSnapshotsByAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListSnapshotsByAccount() error = %v", err)
	}
	if len(byAccount) != 1 || byAccount[0].SocialAccountID == nil || *byAccount[0].SocialAccountID != a.ID {
		t.Errorf("ListSnapshotsByAccount() = %v, want only the account snapshot", byAccount)
	}
}

func testDeleteLayout(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "del")
	def := mustLayout(t, s, u.ID, "Main", true)
	other := mustLayout(t, s, u.ID, "Alt", false)

	if err := s.DeleteLayout(ctx, def.ID); err != nil {
		t.Fatalf("DeleteLayout() error = %v", err)
	}

	remaining, err := s.ListLayoutsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListLayoutsByUser() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != other.ID {
		t.Errorf("remaining layouts = %v, want only %d", remaining, other.ID)
	}
	_, err = s.GetLayout(ctx, def.ID)
	wantNotFound(t, "GetLayout(deleted)", err)

	renamed, err := s.UpdateLayout(ctx, other.ID, model.LayoutPatch{Name: model.Ptr("Renamed"), IsDefault: model.Ptr(true)})
	if err != nil {
		t.Fatalf("UpdateLayout() error = %v", err)
	}
	if renamed.Name != "Renamed" || !renamed.IsDefault || len(renamed.Layout.Widgets) != 1 {
		t.Errorf("UpdateLayout() = %+v", renamed)
	}

	unnamed := &model.DashboardLayout{UserID: u.ID}
	if err := s.CreateLayout(ctx, unnamed); err != nil {
		t.Fatalf("CreateLayout() error = %v", err)
	}
	if unnamed.Name != model.DefaultLayoutName {
		t.Errorf("Name = %q, want %q", unnamed.Name, model.DefaultLayoutName)
	}
}

func testInsights(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "ins")

	for _, title := range []string{"first", "second", "third"} {
		in := &model.AiInsight{
			UserID:          u.ID,
			Title:           title,
			Summary:         "s",
			Details:         []string{"d"},
			Recommendations: []string{"r"},
			Metadata:        model.Metadata{"rawInsights": "{}"},
		}
		if err := s.CreateInsight(ctx, in); err != nil {
			t.Fatalf("CreateInsight() error = %v", err)
		}
		if in.CreatedAt.IsZero() {
			t.Error("CreateInsight() did not stamp CreatedAt")
		}
	}

	got, err := s.ListInsightsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListInsightsByUser() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d insights, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Title != want {
			t.Errorf("insight[%d].Title = %q, want %q", i, got[i].Title, want)
		}
	}
	if got[0].Metadata["rawInsights"] != "{}" {
		t.Errorf("Metadata = %v, want rawInsights preserved", got[0].Metadata)
	}
}

func testConcurrentWrites(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "busy")
	a := mustAccount(t, s, u.ID, "youtube", "busy")

	const writers = 20
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]bool, writers)
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item := &model.ContentItem{SocialAccountID: a.ID, Title: "post", Platform: "youtube", Views: 10}
			if err := s.CreateContentItem(ctx, item); err != nil {
				t.Errorf("CreateContentItem() error = %v", err)
				return
			}
			mu.Lock()
			ids[item.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != writers {
		t.Errorf("got %d distinct IDs, want %d", len(ids), writers)
	}
	items, err := s.ListContentItemsByAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListContentItemsByAccount() error = %v", err)
	}
	if len(items) != writers {
		t.Errorf("listed %d items, want %d", len(items), writers)
	}
}
