package model

import (
	"maps"
	"time"
)

// AnalyticsSnapshot is one dated measurement in a user's time series.
// Snapshots are append-only; aggregation expects at most one per account
// per day.
type AnalyticsSnapshot struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	SocialAccountID *int64    `json:"socialAccountId,omitempty"`
	Date            time.Time `json:"date"`
	Platform        string    `json:"platform"`
	Followers       int64     `json:"followers"`
	Views           int64     `json:"views"`
	Likes           int64     `json:"likes"`
	Comments        int64     `json:"comments"`
	Shares          int64     `json:"shares"`
	Engagement      int64     `json:"engagement"`
	EngagementRate  string    `json:"engagementRate"`
	Metadata        Metadata  `json:"metadata,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (s *AnalyticsSnapshot) Recompute() {
	s.Engagement, s.EngagementRate = DeriveEngagement(s.Views, s.Likes, s.Comments, s.Shares)
}

// Day truncates Date to midnight UTC.
func (s *AnalyticsSnapshot) Day() time.Time {
	return DayOf(s.Date)
}

func (s AnalyticsSnapshot) Clone() AnalyticsSnapshot {
	if s.SocialAccountID != nil {
		id := *s.SocialAccountID
		s.SocialAccountID = &id
	}
	s.Metadata = maps.Clone(s.Metadata)
	return s
}

// DayOf truncates t to midnight UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
