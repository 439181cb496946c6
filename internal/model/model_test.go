package model

import (
	"testing"
	"time"
)

func TestDeriveEngagement(t *testing.T) {
	tests := []struct {
		name                         string
		views, likes, comments, shar int64
		wantEngagement               int64
		wantRate                     string
	}{
		{"typical video", 28400, 2100, 324, 567, 2991, "10.5%"},
		{"no views", 0, 5, 0, 0, 5, "0.0%"},
		{"nothing at all", 0, 0, 0, 0, 0, "0.0%"},
		{"small rate", 1000, 3, 0, 1, 4, "0.4%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rate := DeriveEngagement(tt.views, tt.likes, tt.comments, tt.shar)
			if e != tt.wantEngagement {
				t.Errorf("engagement = %d, want %d", e, tt.wantEngagement)
			}
			if rate != tt.wantRate {
				t.Errorf("rate = %q, want %q", rate, tt.wantRate)
			}
		})
	}
}

func TestContentItemPatch_RecomputesEngagement(t *testing.T) {
	item := ContentItem{Views: 100, Likes: 1, Comments: 1, Shares: 1}
	item.Recompute()
	if item.Engagement != 3 {
		t.Fatalf("Engagement = %d, want 3", item.Engagement)
	}

	ContentItemPatch{Likes: Ptr[int64](10)}.Apply(&item)

	if item.Engagement != 12 {
		t.Errorf("Engagement after patch = %d, want 12", item.Engagement)
	}
	if item.EngagementRate != "12.0%" {
		t.Errorf("EngagementRate after patch = %q, want %q", item.EngagementRate, "12.0%")
	}
}

func TestContentItemPatch_NilTagsKeepExisting(t *testing.T) {
	item := ContentItem{Tags: []string{"a", "b"}}

	ContentItemPatch{Title: Ptr("new")}.Apply(&item)
	if len(item.Tags) != 2 {
		t.Errorf("Tags = %v, want unchanged", item.Tags)
	}

	ContentItemPatch{Tags: []string{}}.Apply(&item)
	if len(item.Tags) != 0 {
		t.Errorf("Tags = %v, want cleared", item.Tags)
	}
}

func TestContentItem_CloneIsIndependent(t *testing.T) {
	published := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := ContentItem{Tags: []string{"x"}, PublishedAt: &published, Metadata: Metadata{"k": "v"}}

	c := orig.Clone()
	c.Tags[0] = "changed"
	*c.PublishedAt = c.PublishedAt.Add(time.Hour)
	c.Metadata["k"] = "changed"

	if orig.Tags[0] != "x" {
		t.Error("Clone() shares the tags slice")
	}
	if !orig.PublishedAt.Equal(published) {
		t.Error("Clone() shares PublishedAt")
	}
	if orig.Metadata["k"] != "v" {
		t.Error("Clone() shares Metadata")
	}
}

func TestHasTag_IsCaseSensitive(t *testing.T) {
	item := ContentItem{Tags: []string{"Productivity"}}
	if item.HasTag("productivity") {
		t.Error("HasTag() matched a different case")
	}
	if !item.HasTag("Productivity") {
		t.Error("HasTag() missed an exact match")
	}
}

func TestUsesPassword(t *testing.T) {
	tests := []struct {
		provider string
		want     bool
	}{
		{"", true},
		{ProviderEmail, true},
		{"github", false},
		{"google", false},
	}
	for _, tt := range tests {
		u := User{Provider: tt.provider}
		if got := u.UsesPassword(); got != tt.want {
			t.Errorf("UsesPassword() with provider %q = %v, want %v", tt.provider, got, tt.want)
		}
	}
}

func TestSortTime_FallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	item := ContentItem{CreatedAt: created}
	if !item.SortTime().Equal(created) {
		t.Errorf("SortTime() = %v, want %v", item.SortTime(), created)
	}
}

func TestIsKnownPlatform(t *testing.T) {
	tests := []struct {
		platform string
		want     bool
	}{
		{"youtube", true},
		{"linkedin", true},
		{"YouTube", false}, // callers lowercase first
		{"myspace", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsKnownPlatform(tt.platform); got != tt.want {
			t.Errorf("IsKnownPlatform(%q) = %v, want %v", tt.platform, got, tt.want)
		}
	}
}
