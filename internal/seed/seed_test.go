package seed

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/social-pulse/internal/auth"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository/memory"
)

var fixedNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func load(t *testing.T, seed uint64) (*memory.Store, *model.User) {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := memory.New(memory.WithClock(clock))
	user, err := Load(context.Background(), store, auth.NewPasswordService(bcrypt.MinCost), "password",
		WithClock(clock), WithSeed(seed))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return store, user
}

func TestLoad_Workspace(t *testing.T) {
	store, user := load(t, 1)
	ctx := context.Background()

	if user.Username != "alexmorgan" {
		t.Errorf("Username = %q", user.Username)
	}
	accounts, _ := store.ListSocialAccountsByUser(ctx, user.ID)
	if len(accounts) != 3 {
		t.Fatalf("accounts = %d, want 3", len(accounts))
	}
	ids := []int64{accounts[0].ID, accounts[1].ID, accounts[2].ID}
	items, _ := store.ListContentItemsByAccounts(ctx, ids)
	if len(items) != 4 {
		t.Errorf("content items = %d, want 4", len(items))
	}
	snaps, _ := store.ListSnapshotsByUser(ctx, user.ID)
	if len(snaps) != 3*HistoryDays {
		t.Errorf("snapshots = %d, want %d", len(snaps), 3*HistoryDays)
	}
	layouts, _ := store.ListLayoutsByUser(ctx, user.ID)
	if len(layouts) != 1 || !layouts[0].IsDefault || len(layouts[0].Layout.Widgets) != 7 {
		t.Errorf("layouts = %+v, want one default with 7 widgets", layouts)
	}
	insights, _ := store.ListInsightsByUser(ctx, user.ID)
	if len(insights) != 1 || insights[0].SocialAccountID == nil {
		t.Errorf("insights = %+v, want one tied to an account", insights)
	}
}

func TestLoad_PasswordWorks(t *testing.T) {
	store, user := load(t, 1)
	stored, err := store.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := auth.NewPasswordService(bcrypt.MinCost).Verify(stored.PasswordHash, "password"); err != nil {
		t.Errorf("seeded password does not verify: %v", err)
	}
}

func TestLoad_SameSeedSameHistory(t *testing.T) {
	followers := func(seed uint64) []int64 {
		store, user := load(t, seed)
		snaps, _ := store.ListSnapshotsByUser(context.Background(), user.ID)
		out := make([]int64, len(snaps))
		for i, s := range snaps {
			out[i] = s.Followers
		}
		return out
	}

	if diff := cmp.Diff(followers(7), followers(7)); diff != "" {
		t.Errorf("history differs for the same seed (-a +b):\n%s", diff)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	store, user := load(t, 1)
	again, err := Load(context.Background(), store, auth.NewPasswordService(bcrypt.MinCost), "password")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("second Load() returned user %d, want %d", again.ID, user.ID)
	}
	accounts, _ := store.ListSocialAccountsByUser(context.Background(), user.ID)
	if len(accounts) != 3 {
		t.Errorf("accounts after reload = %d, want 3", len(accounts))
	}
}

func TestDefaultLayout(t *testing.T) {
	spec, err := DefaultLayout()
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Widgets) != 7 || spec.Widgets[0].ID != "performance-graph" {
		t.Errorf("DefaultLayout() = %+v", spec.Widgets)
	}
}
