package model

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Metadata is an opaque JSON object attached to several entities.
type Metadata map[string]any

// ContentItem is one published post, video or tweet.
//
// ENGAGEMENT INVARIANT:
// Engagement is always Likes+Comments+Shares and EngagementRate is derived
// from it and Views. The store calls Recompute on every create and update,
// and ContentItemPatch has no field for either, so the two cannot drift
// away from the counters.
type ContentItem struct {
	ID              int64      `json:"id"`
	SocialAccountID int64      `json:"socialAccountId"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	URL             string     `json:"url,omitempty"`
	ThumbnailURL    string     `json:"thumbnailUrl,omitempty"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	Platform        string     `json:"platform"`
	ContentType     string     `json:"contentType"`
	Views           int64      `json:"views"`
	Likes           int64      `json:"likes"`
	Comments        int64      `json:"comments"`
	Shares          int64      `json:"shares"`
	Engagement      int64      `json:"engagement"`
	EngagementRate  string     `json:"engagementRate"`
	IsBookmarked    bool       `json:"isBookmarked"`
	Tags            []string   `json:"tags"`
	Metadata        Metadata   `json:"metadata,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Recompute refreshes Engagement and EngagementRate from the counters.
func (c *ContentItem) Recompute() {
	c.Engagement, c.EngagementRate = DeriveEngagement(c.Views, c.Likes, c.Comments, c.Shares)
}

// HasTag reports whether tag is one of the item's tags. Matching is exact
// and case-sensitive.
func (c *ContentItem) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// SortTime is PublishedAt, or CreatedAt for items that were never published.
func (c *ContentItem) SortTime() time.Time {
	if c.PublishedAt != nil {
		return *c.PublishedAt
	}
	return c.CreatedAt
}

func (c ContentItem) Clone() ContentItem {
	if c.PublishedAt != nil {
		t := *c.PublishedAt
		c.PublishedAt = &t
	}
	c.Tags = cloneTags(c.Tags)
	c.Metadata = maps.Clone(c.Metadata)
	return c
}

// ContentItemPatch is a partial update. Engagement fields are derived and
// therefore absent.
type ContentItemPatch struct {
	Title        *string
	Description  *string
	URL          *string
	ThumbnailURL *string
	PublishedAt  *time.Time
	ContentType  *string
	Views        *int64
	Likes        *int64
	Comments     *int64
	Shares       *int64
	IsBookmarked *bool
	Tags         []string // nil keeps the current tags; an empty slice clears them
	Metadata     Metadata
}

func (p ContentItemPatch) Apply(c *ContentItem) {
	setIf(&c.Title, p.Title)
	setIf(&c.Description, p.Description)
	setIf(&c.URL, p.URL)
	setIf(&c.ThumbnailURL, p.ThumbnailURL)
	setIf(&c.ContentType, p.ContentType)
	setIf(&c.Views, p.Views)
	setIf(&c.Likes, p.Likes)
	setIf(&c.Comments, p.Comments)
	setIf(&c.Shares, p.Shares)
	setIf(&c.IsBookmarked, p.IsBookmarked)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	if p.Tags != nil {
		c.Tags = cloneTags(p.Tags)
	}
	if p.Metadata != nil {
		c.Metadata = maps.Clone(p.Metadata)
	}
	c.Recompute()
}

// DeriveEngagement returns likes+comments+shares and the rate against views
// formatted as a one-decimal percentage.
func DeriveEngagement(views, likes, comments, shares int64) (int64, string) {
	engagement := likes + comments + shares
	return engagement, FormatRate(engagement, views)
}

// FormatRate renders part/whole as "4.7%". A zero whole yields "0.0%".
func FormatRate(part, whole int64) string {
	if whole <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}
