package model

import (
	"slices"
	"time"
)

// Platforms accepted when connecting an account.
var Platforms = []string{"youtube", "instagram", "twitter", "tiktok", "facebook", "linkedin"}

// IsKnownPlatform reports whether p is one of Platforms.
func IsKnownPlatform(p string) bool {
	return slices.Contains(Platforms, p)
}

// SocialAccount is an external platform handle owned by one user.
//
// Disconnecting is a soft delete: IsConnected flips to false and the record
// stays for history.
type SocialAccount struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"userId"`
	Platform     string     `json:"platform"`
	Handle       string     `json:"handle"`
	DisplayName  string     `json:"displayName,omitempty"`
	ProfileURL   string     `json:"profileUrl,omitempty"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	TokenExpiry  *time.Time `json:"tokenExpiry,omitempty"`
	IsConnected  bool       `json:"isConnected"`
	Followers    int64      `json:"followers"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type SocialAccountPatch struct {
	DisplayName  *string
	ProfileURL   *string
	AvatarURL    *string
	AccessToken  *string
	RefreshToken *string
	TokenExpiry  *time.Time
	IsConnected  *bool
	Followers    *int64
}

func (p SocialAccountPatch) Apply(a *SocialAccount) {
	setIf(&a.DisplayName, p.DisplayName)
	setIf(&a.ProfileURL, p.ProfileURL)
	setIf(&a.AvatarURL, p.AvatarURL)
	setIf(&a.AccessToken, p.AccessToken)
	setIf(&a.RefreshToken, p.RefreshToken)
	setIf(&a.IsConnected, p.IsConnected)
	setIf(&a.Followers, p.Followers)
	if p.TokenExpiry != nil {
		t := *p.TokenExpiry
		a.TokenExpiry = &t
	}
}

func (a SocialAccount) Clone() SocialAccount {
	if a.TokenExpiry != nil {
		t := *a.TokenExpiry
		a.TokenExpiry = &t
	}
	return a
}
