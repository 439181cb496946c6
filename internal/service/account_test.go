package service

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository/memory"
)

func newTestAccountService(s *memory.Store) *AccountService {
	svc := NewAccountService(s, discardLogger())
	svc.now = clock
	return svc
}

// =========================================================================
// Connect / Disconnect
// =========================================================================

func TestConnect_Validation(t *testing.T) {
	store := newStore()
	svc := newTestAccountService(store)
	u := mustUser(t, store, "alex")

	tests := []struct {
		name string
		req  ConnectRequest
	}{
		{"unknown platform", ConnectRequest{Platform: "myspace", Handle: "@a"}},
		{"missing handle", ConnectRequest{Platform: "youtube", Handle: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Connect(context.Background(), u.ID, tt.req)
			wantErr(t, err, apperror.ErrValidation)
		})
	}
}

func TestConnect_UpsertsOnPlatformAndHandle(t *testing.T) {
	store := newStore()
	svc := newTestAccountService(store)
	ctx := context.Background()
	u := mustUser(t, store, "alex")

	first, err := svc.Connect(ctx, u.ID, ConnectRequest{Platform: "YouTube", Handle: "@alex", AccessToken: "t1"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if first.Platform != "youtube" || !first.IsConnected {
		t.Fatalf("Connect() = %+v, want connected youtube account", first)
	}
	if _, err := svc.Disconnect(ctx, u.ID, first.ID); err != nil {
		t.Fatal(err)
	}

	again, err := svc.Connect(ctx, u.ID, ConnectRequest{Platform: "youtube", Handle: "@alex", AccessToken: "t2"})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID {
		t.Errorf("reconnect created account %d, want %d", again.ID, first.ID)
	}
	if !again.IsConnected || again.AccessToken != "t2" {
		t.Errorf("reconnect = connected:%v token:%q, want true/t2", again.IsConnected, again.AccessToken)
	}

	all, _ := svc.List(ctx, u.ID)
	if len(all) != 1 {
		t.Errorf("List() len = %d, want 1", len(all))
	}
}

func TestDisconnect_OtherUsersAccountIsNotFound(t *testing.T) {
	store := newStore()
	svc := newTestAccountService(store)
	owner := mustUser(t, store, "owner")
	other := mustUser(t, store, "other")
	acc := mustAccount(t, store, owner.ID, "youtube", 10)

	_, err := svc.Disconnect(context.Background(), other.ID, acc.ID)
	wantErr(t, err, apperror.ErrNotFound)

	stored, _ := store.GetSocialAccount(context.Background(), acc.ID)
	if !stored.IsConnected {
		t.Error("account was disconnected by a non-owner")
	}
}

// =========================================================================
// Sync
// =========================================================================

func TestSync_OneSnapshotPerDay(t *testing.T) {
	store := newStore()
	svc := newTestAccountService(store)
	ctx := context.Background()
	u := mustUser(t, store, "alex")
	acc := mustAccount(t, store, u.ID, "youtube", 500)
	mustContent(t, store, acc.ID, model.ContentItem{Title: "a", Views: 100, Likes: 5, Comments: 1})

	first, err := svc.Sync(ctx, u.ID, acc.ID)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !first.Created {
		t.Fatal("first Sync() did not create a snapshot")
	}
	snap := first.Snapshot
	if snap.Followers != 500 || snap.Views != 100 || snap.Engagement != 6 {
		t.Errorf("snapshot = followers %d views %d engagement %d, want 500/100/6",
			snap.Followers, snap.Views, snap.Engagement)
	}
	if !snap.Date.Equal(model.DayOf(fixedNow)) {
		t.Errorf("snapshot date = %v, want today", snap.Date)
	}

	second, err := svc.Sync(ctx, u.ID, acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second.Created || second.Snapshot.ID != snap.ID {
		t.Errorf("second Sync() created = %v snapshot %d, want reuse of %d", second.Created, second.Snapshot.ID, snap.ID)
	}
}

func TestSync_RecordsDailyActivity(t *testing.T) {
	store := newStore()
	svc := newTestAccountService(store)
	ctx := context.Background()
	u := mustUser(t, store, "alex")
	acc := mustAccount(t, store, u.ID, "youtube", 500)
	mustContent(t, store, acc.ID, model.ContentItem{Title: "a", Views: 10000, Likes: 100})

	wantViews := []int64{10000, 0, 500}
	for i, want := range wantViews {
		day := fixedNow.AddDate(0, 0, i-2)
		svc.now = func() time.Time { return day }
		if i == 2 {
			mustContent(t, store, acc.ID, model.ContentItem{Title: "b", Views: 500})
		}
		res, err := svc.Sync(ctx, u.ID, acc.ID)
		if err != nil {
			t.Fatalf("day %d: Sync() error = %v", i, err)
		}
		if res.Snapshot.Views != want {
			t.Errorf("day %d: snapshot views = %d, want %d", i, res.Snapshot.Views, want)
		}
	}

	summary, err := newAggregator(store).Summary(ctx, u.ID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Views.Value != "10.5K" {
		t.Errorf("summary views = %q, want 10.5K (lifetime total, counted once)", summary.Views.Value)
	}
}

func TestSync_DisconnectedAccount(t *testing.T) {
	store := newStore()
	svc := newTestAccountService(store)
	ctx := context.Background()
	u := mustUser(t, store, "alex")
	acc := mustAccount(t, store, u.ID, "youtube", 1)
	if _, err := store.DisconnectSocialAccount(ctx, acc.ID); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Sync(ctx, u.ID, acc.ID)
	wantErr(t, err, apperror.ErrConflict)
}

// =========================================================================
// Statistics
// =========================================================================

func TestStatistics(t *testing.T) {
	store := newStore()
	svc := newTestAccountService(store)
	ctx := context.Background()
	u := mustUser(t, store, "alex")
	acc := mustAccount(t, store, u.ID, "youtube", 1100)
	mustContent(t, store, acc.ID, model.ContentItem{Title: "a", Views: 400, Likes: 20})

	day := 24 * time.Hour
	for _, sn := range []model.AnalyticsSnapshot{
		{Date: fixedNow.Add(-10 * day), Followers: 1000, Views: 1000, Likes: 30},
		{Date: fixedNow.Add(-2 * day), Followers: 1050, Views: 2000, Likes: 80},
	} {
		sn.UserID, sn.SocialAccountID, sn.Platform = u.ID, model.Ptr(acc.ID), "youtube"
		if err := store.CreateSnapshot(ctx, &sn); err != nil {
			t.Fatal(err)
		}
	}

	got, err := svc.Statistics(ctx, u.ID, acc.ID)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	want := AccountStatistics{
		AccountID:       acc.ID,
		Platform:        "youtube",
		Followers:       1100,
		WeeklyGrowth:    10,
		MonthlyGrowth:   0, // no snapshot that old
		EngagementRate:  "5.0%",
		EngagementTrend: 1,
		Views:           400,
		ViewsTrend:      100,
		ContentCount:    1,
	}
	if *got != want {
		t.Errorf("Statistics() = %+v\nwant %+v", *got, want)
	}
}
