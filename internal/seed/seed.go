// Package seed loads the demo workspace embedded in seed.yaml.
//
// The YAML holds the fixed part (user, accounts, content, layout, one
// insight). Thirty days of snapshots per account are generated on load from
// a seeded source, so a given seed always yields the same history.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/auth"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

//go:embed seed.yaml
var raw []byte

// HistoryDays is how many daily snapshots each account gets.
const HistoryDays = 30

type contentDoc struct {
	Title            string   `yaml:"title"`
	Description      string   `yaml:"description"`
	ThumbnailURL     string   `yaml:"thumbnailUrl"`
	ContentType      string   `yaml:"contentType"`
	PublishedDaysAgo int      `yaml:"publishedDaysAgo"`
	Views            int64    `yaml:"views"`
	Likes            int64    `yaml:"likes"`
	Comments         int64    `yaml:"comments"`
	Shares           int64    `yaml:"shares"`
	Tags             []string `yaml:"tags"`
}

type accountDoc struct {
	Platform    string       `yaml:"platform"`
	Handle      string       `yaml:"handle"`
	DisplayName string       `yaml:"displayName"`
	Followers   int64        `yaml:"followers"`
	Content     []contentDoc `yaml:"content"`
}

type document struct {
	User struct {
		Username  string `yaml:"username"`
		Email     string `yaml:"email"`
		FullName  string `yaml:"fullName"`
		AvatarURL string `yaml:"avatarUrl"`
	} `yaml:"user"`
	Accounts []accountDoc     `yaml:"accounts"`
	Layout   model.LayoutSpec `yaml:"layout"`
	Insight  struct {
		Title           string   `yaml:"title"`
		Summary         string   `yaml:"summary"`
		Details         []string `yaml:"details"`
		Recommendations []string `yaml:"recommendations"`
	} `yaml:"insight"`
}

func parse() (*document, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("seed: parsing seed.yaml: %w", err)
	}
	return &doc, nil
}

// DefaultLayout returns the widgets of the demo user's layout. New users get
// the same widgets for their first layout.
func DefaultLayout() (model.LayoutSpec, error) {
	doc, err := parse()
	if err != nil {
		return model.LayoutSpec{}, err
	}
	return doc.Layout.Clone(), nil
}

type options struct {
	now  func() time.Time
	seed uint64
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSeed changes the snapshot history. The default is 1.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// Load creates the demo workspace and returns the demo user. When the demo
// email is already registered nothing is written and that user is returned.
func Load(ctx context.Context, store repository.Store, passwords *auth.PasswordService, password string, opts ...Option) (*model.User, error) {
	o := options{now: time.Now, seed: 1}
	for _, opt := range opts {
		opt(&o)
	}
	doc, err := parse()
	if err != nil {
		return nil, err
	}

	existing, err := store.GetUserByEmail(ctx, doc.User.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("seed: looking up demo user: %w", err)
	}

	hash, err := passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	now := o.now()
	user := &model.User{
		Username:     doc.User.Username,
		Email:        doc.User.Email,
		PasswordHash: hash,
		FullName:     doc.User.FullName,
		AvatarURL:    doc.User.AvatarURL,
		Provider:     model.ProviderEmail,
		LastLogin:    &now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("seed: creating demo user: %w", err)
	}

	rng := rand.New(rand.NewPCG(o.seed, uint64(user.ID)))
	var firstAccount *int64
	for _, ad := range doc.Accounts {
		acc, err := loadAccount(ctx, store, user.ID, ad, now)
		if err != nil {
			return nil, err
		}
		if firstAccount == nil {
			firstAccount = model.Ptr(acc.ID)
		}
		if err := loadHistory(ctx, store, acc, now, rng); err != nil {
			return nil, err
		}
	}

	layout := &model.DashboardLayout{
		UserID:    user.ID,
		Name:      model.DefaultLayoutName,
		Layout:    doc.Layout,
		IsDefault: true,
	}
	if err := store.CreateLayout(ctx, layout); err != nil {
		return nil, fmt.Errorf("seed: creating layout: %w", err)
	}

	insight := &model.AiInsight{
		UserID:          user.ID,
		SocialAccountID: firstAccount,
		Title:           doc.Insight.Title,
		Summary:         doc.Insight.Summary,
		Details:         doc.Insight.Details,
		Recommendations: doc.Insight.Recommendations,
	}
	if err := store.CreateInsight(ctx, insight); err != nil {
		return nil, fmt.Errorf("seed: creating insight: %w", err)
	}
	return user, nil
}

func loadAccount(ctx context.Context, store repository.Store, userID int64, ad accountDoc, now time.Time) (*model.SocialAccount, error) {
	expiry := now.Add(HistoryDays * 24 * time.Hour)
	acc := &model.SocialAccount{
		UserID:       userID,
		Platform:     ad.Platform,
		Handle:       ad.Handle,
		DisplayName:  ad.DisplayName,
		ProfileURL:   fmt.Sprintf("https://%s.com/%s", ad.Platform, ad.Handle),
		AccessToken:  "sample-token",
		RefreshToken: "sample-refresh-token",
		TokenExpiry:  &expiry,
		Followers:    ad.Followers,
	}
	if err := store.CreateSocialAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("seed: creating %s account: %w", ad.Platform, err)
	}

	for i, cd := range ad.Content {
		published := now.AddDate(0, 0, -cd.PublishedDaysAgo)
		item := &model.ContentItem{
			SocialAccountID: acc.ID,
			Title:           cd.Title,
			Description:     cd.Description,
			URL:             fmt.Sprintf("https://%s.com/%s/post%d", ad.Platform, ad.Handle, i+1),
			ThumbnailURL:    cd.ThumbnailURL,
			PublishedAt:     &published,
			Platform:        ad.Platform,
			ContentType:     cd.ContentType,
			Views:           cd.Views,
			Likes:           cd.Likes,
			Comments:        cd.Comments,
			Shares:          cd.Shares,
			Tags:            cd.Tags,
		}
		if err := store.CreateContentItem(ctx, item); err != nil {
			return nil, fmt.Errorf("seed: creating content %q: %w", cd.Title, err)
		}
	}
	return acc, nil
}

// loadHistory writes one snapshot per day, newest first. Followers shrink
// going back in time so the history shows growth.
func loadHistory(ctx context.Context, store repository.Store, acc *model.SocialAccount, now time.Time, rng *rand.Rand) error {
	today := model.DayOf(now)
	for i := range HistoryDays {
		snap := &model.AnalyticsSnapshot{
			UserID:          acc.UserID,
			SocialAccountID: model.Ptr(acc.ID),
			Date:            today.AddDate(0, 0, -i),
			Platform:        acc.Platform,
			Followers:       max(acc.Followers-rng.Int64N(1000)*int64(i), 0),
			Views:           5000 + rng.Int64N(15000),
			Likes:           200 + rng.Int64N(800),
			Comments:        20 + rng.Int64N(100),
			Shares:          10 + rng.Int64N(50),
		}
		if err := store.CreateSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("seed: creating snapshot: %w", err)
		}
	}
	return nil
}
