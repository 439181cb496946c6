// Package model defines the entities owned by the store and the patch types
// used to update them.
//
// OWNERSHIP TREE:
//
//	User ─┬─ SocialAccount ── ContentItem
//	      ├─ AnalyticsSnapshot
//	      ├─ DashboardLayout
//	      └─ AiInsight
//
// Every entity carries an int64 ID assigned by the store from a per-kind
// counter. IDs start at 1 and are never reused.
//
// OPTIONAL FIELDS:
// Optional text uses the empty string as "unset" (simpler to work with and
// safe to display). Optional references and instants use pointers because
// their zero values (0, year 1) would be misleading.
package model

import "time"

// ProviderEmail marks a user who signs in with email and password.
const ProviderEmail = "email"

// User is a registered account holder.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"fullName,omitempty"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	Provider     string     `json:"provider,omitempty"`   // "", "email", "github", "google", ...
	ProviderID   string     `json:"providerId,omitempty"` // the provider's stable user id
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UsesPassword reports whether the user logs in with a password rather than
// a social provider.
func (u *User) UsesPassword() bool {
	return u.Provider == "" || u.Provider == ProviderEmail
}

// UserPatch holds a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	FullName     *string
	AvatarURL    *string
	Provider     *string
	ProviderID   *string
	LastLogin    *time.Time
}

// Apply merges p into u. ID and CreatedAt are never touched.
func (p UserPatch) Apply(u *User) {
	setIf(&u.Username, p.Username)
	setIf(&u.Email, p.Email)
	setIf(&u.PasswordHash, p.PasswordHash)
	setIf(&u.FullName, p.FullName)
	setIf(&u.AvatarURL, p.AvatarURL)
	setIf(&u.Provider, p.Provider)
	setIf(&u.ProviderID, p.ProviderID)
	if p.LastLogin != nil {
		t := *p.LastLogin
		u.LastLogin = &t
	}
}

// Clone returns a copy that shares no mutable state with u.
func (u User) Clone() User {
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}

// Ptr returns a pointer to v. Handy for building patches:
//
//	model.ContentItemPatch{IsBookmarked: model.Ptr(true)}
func Ptr[T any](v T) *T {
	return &v
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
