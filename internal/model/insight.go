package model

import (
	"maps"
	"time"
)

// AiInsight records one generated analysis. Insights are never updated;
// each regeneration appends a new one.
type AiInsight struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	SocialAccountID *int64    `json:"socialAccountId,omitempty"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	Details         []string  `json:"details"`
	Recommendations []string  `json:"recommendations"`
	Metadata        Metadata  `json:"metadata,omitempty"` // raw provider response lives here
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (i AiInsight) Clone() AiInsight {
	if i.SocialAccountID != nil {
		id := *i.SocialAccountID
		i.SocialAccountID = &id
	}
	i.Details = cloneTags(i.Details)
	i.Recommendations = cloneTags(i.Recommendations)
	i.Metadata = maps.Clone(i.Metadata)
	return i
}

// Normalize replaces nil slices with empty ones so they serialize as [].
func (i *AiInsight) Normalize() {
	if i.Details == nil {
		i.Details = []string{}
	}
	if i.Recommendations == nil {
		i.Recommendations = []string{}
	}
}
