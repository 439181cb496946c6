package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository/memory"
)

type contentFixture struct {
	store *memory.Store
	svc   *ContentService
	user  *model.User
	items []*model.ContentItem
}

// newContentFixture creates one user with a youtube and an instagram
// account and four items published a day apart, oldest first.
func newContentFixture(t *testing.T) *contentFixture {
	t.Helper()
	store := newStore()
	f := &contentFixture{store: store, svc: NewContentService(store, newAggregator(store), discardLogger())}
	f.user = mustUser(t, store, "alex")
	yt := mustAccount(t, store, f.user.ID, "youtube", 100)
	ig := mustAccount(t, store, f.user.ID, "instagram", 100)

	day := 24 * time.Hour
	specs := []model.ContentItem{
		{Title: "tutorial", Platform: "youtube", ContentType: "video", Views: 1000, Likes: 50, Tags: []string{"howto"}},
		{Title: "reel", Platform: "instagram", ContentType: "reel", Views: 3000, Likes: 10, Tags: []string{"fun"}},
		{Title: "short", Platform: "youtube", ContentType: "short", Views: 500, Likes: 90, Tags: []string{"howto", "fun"}},
		{Title: "photo", Platform: "instagram", ContentType: "image", Views: 200, Likes: 5},
	}
	for i, spec := range specs {
		published := fixedNow.Add(time.Duration(i-len(specs)) * day)
		spec.PublishedAt = &published
		acc := yt.ID
		if spec.Platform == "instagram" {
			acc = ig.ID
		}
		f.items = append(f.items, mustContent(t, store, acc, spec))
	}
	return f
}

func titles(items []model.ContentItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

// =========================================================================
// List
// =========================================================================

func TestContentList_FiltersAndSorts(t *testing.T) {
	f := newContentFixture(t)

	tests := []struct {
		name   string
		filter ContentFilter
		want   []string
	}{
		{"default newest first", ContentFilter{}, []string{"photo", "short", "reel", "tutorial"}},
		{"oldest first", ContentFilter{SortOrder: "asc"}, []string{"tutorial", "reel", "short", "photo"}},
		{"by platform", ContentFilter{Platform: "youtube"}, []string{"short", "tutorial"}},
		{"by type", ContentFilter{ContentType: "reel"}, []string{"reel"}},
		{"any tag", ContentFilter{Tags: []string{"fun", "missing"}}, []string{"short", "reel"}},
		{"by engagement", ContentFilter{SortBy: SortByEngagement}, []string{"short", "tutorial", "reel", "photo"}},
		{"by views asc", ContentFilter{SortBy: SortByViews, SortOrder: "asc"}, []string{"photo", "short", "tutorial", "reel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.List(context.Background(), f.user.ID, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, titles(page.Items)); diff != "" {
				t.Errorf("List() titles mismatch (-want +got):\n%s", diff)
			}
			if page.Total != len(tt.want) {
				t.Errorf("Total = %d, want %d", page.Total, len(tt.want))
			}
		})
	}
}

func TestContentList_Pagination(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	page, err := f.svc.List(ctx, f.user.ID, ContentFilter{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"tutorial"}, titles(page.Items)); diff != "" {
		t.Errorf("page 2 mismatch (-want +got):\n%s", diff)
	}
	if page.Total != 4 {
		t.Errorf("Total = %d, want 4", page.Total)
	}

	page, err = f.svc.List(ctx, f.user.ID, ContentFilter{Page: 9})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 0 {
		t.Errorf("page past the end has %d items", len(page.Items))
	}
}

func TestContentList_BadSort(t *testing.T) {
	f := newContentFixture(t)
	_, err := f.svc.List(context.Background(), f.user.ID, ContentFilter{SortBy: "likes"})
	wantErr(t, err, apperror.ErrValidation)
}

// =========================================================================
// Get / ToggleBookmark / ByTag / Top
// =========================================================================

func TestContentGet_Ownership(t *testing.T) {
	f := newContentFixture(t)
	stranger := mustUser(t, f.store, "stranger")

	_, err := f.svc.Get(context.Background(), stranger.ID, f.items[0].ID)
	wantErr(t, err, apperror.ErrNotFound)

	got, err := f.svc.Get(context.Background(), f.user.ID, f.items[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "tutorial" {
		t.Errorf("Get() title = %q", got.Title)
	}
}

// brokenAccounts fails every account lookup.
type brokenAccounts struct {
	*memory.Store
	err error
}

func (b brokenAccounts) GetSocialAccount(context.Context, int64) (*model.SocialAccount, error) {
	return nil, b.err
}

func TestContentGet_StoreFailureIsNotNotFound(t *testing.T) {
	store := newStore()
	u := mustUser(t, store, "alex")
	acc := mustAccount(t, store, u.ID, "youtube", 10)
	item := mustContent(t, store, acc.ID, model.ContentItem{Title: "a", Views: 1})

	boom := errors.New("disk on fire")
	svc := NewContentService(brokenAccounts{Store: store, err: boom}, newAggregator(store), discardLogger())

	_, err := svc.Get(context.Background(), u.ID, item.ID)
	if !errors.Is(err, boom) {
		t.Fatalf("Get() error = %v, want the store error", err)
	}
	if errors.Is(err, apperror.ErrNotFound) {
		t.Error("store failure reported as NotFound")
	}
}

func TestToggleBookmark(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	id := f.items[1].ID

	on, err := f.svc.ToggleBookmark(ctx, f.user.ID, id)
	if err != nil {
		t.Fatal(err)
	}
	if !on.IsBookmarked {
		t.Fatal("first toggle did not bookmark")
	}
	off, err := f.svc.ToggleBookmark(ctx, f.user.ID, id)
	if err != nil {
		t.Fatal(err)
	}
	if off.IsBookmarked {
		t.Error("second toggle did not clear the bookmark")
	}
}

func TestContentByTagAndTop(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	tagged, err := f.svc.ByTag(ctx, f.user.ID, "howto")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"tutorial", "short"}, titles(tagged)); diff != "" {
		t.Errorf("ByTag() mismatch (-want +got):\n%s", diff)
	}

	_, err = f.svc.ByTag(ctx, f.user.ID, "")
	wantErr(t, err, apperror.ErrValidation)

	top, err := f.svc.Top(ctx, f.user.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"short", "tutorial"}, titles(top)); diff != "" {
		t.Errorf("Top() mismatch (-want +got):\n%s", diff)
	}

	n, err := f.svc.Count(ctx, f.user.ID)
	if err != nil || n != 4 {
		t.Errorf("Count() = %d, %v; want 4", n, err)
	}
}
