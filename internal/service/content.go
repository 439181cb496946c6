package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort keys accepted by ContentFilter.SortBy.
const (
	SortByDate       = "date"
	SortByEngagement = "engagement"
	SortByViews      = "views"
)

// ContentFilter narrows and orders a content listing. Zero values mean "no
// filter": every platform, every type, newest first, page 1.
type ContentFilter struct {
	Platform    string
	ContentType string
	Tags        []string // an item matches when it carries any of them
	SortBy      string
	SortOrder   string // "asc" or "desc"
	Page        int
	PageSize    int
}

// ContentPage is one page of a listing plus the total before paging.
type ContentPage struct {
	Items    []model.ContentItem `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

type ContentStore interface {
	repository.SocialAccountRepository
	repository.ContentRepository
}

// ContentService lists and updates a user's content items.
type ContentService struct {
	store  ContentStore
	agg    *analytics.Aggregator
	logger *slog.Logger
}

func NewContentService(store ContentStore, agg *analytics.Aggregator, logger *slog.Logger) *ContentService {
	return &ContentService{store: store, agg: agg, logger: logger}
}

func (s *ContentService) List(ctx context.Context, userID int64, f ContentFilter) (*ContentPage, error) {
	if err := normalizeFilter(&f); err != nil {
		return nil, err
	}

	all, err := s.agg.ContentItemsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]model.ContentItem, 0, len(all))
	for _, it := range all {
		if f.Platform != "" && it.Platform != f.Platform {
			continue
		}
		if f.ContentType != "" && it.ContentType != f.ContentType {
			continue
		}
		if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, it.HasTag) {
			continue
		}
		items = append(items, it)
	}

	sortContent(items, f.SortBy, f.SortOrder == "asc")

	page := &ContentPage{Total: len(items), Page: f.Page, PageSize: f.PageSize}
	start := min((f.Page-1)*f.PageSize, len(items))
	end := min(start+f.PageSize, len(items))
	page.Items = items[start:end]
	return page, nil
}

func normalizeFilter(f *ContentFilter) error {
	switch f.SortBy {
	case "":
		f.SortBy = SortByDate
	case SortByDate, SortByEngagement, SortByViews:
	default:
		return apperror.ValidationFailed("sortBy", "sortBy must be date, engagement or views")
	}
	switch f.SortOrder {
	case "":
		f.SortOrder = "desc"
	case "asc", "desc":
	default:
		return apperror.ValidationFailed("sortOrder", "sortOrder must be asc or desc")
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return nil
}

// sortContent orders by key with ID as the tie-breaker, so equal keys keep
// a stable order in both directions.
func sortContent(items []model.ContentItem, key string, asc bool) {
	slices.SortFunc(items, func(a, b model.ContentItem) int {
		var c int
		switch key {
		case SortByEngagement:
			c = cmp.Compare(a.Engagement, b.Engagement)
		case SortByViews:
			c = cmp.Compare(a.Views, b.Views)
		default:
			c = a.SortTime().Compare(b.SortTime())
		}
		if !asc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})
}

func (s *ContentService) Count(ctx context.Context, userID int64) (int, error) {
	items, err := s.agg.ContentItemsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Get returns an item the user owns. Someone else's item is NotFound.
func (s *ContentService) Get(ctx context.Context, userID, contentID int64) (*model.ContentItem, error) {
	item, err := s.store.GetContentItem(ctx, contentID)
	if err != nil {
		return nil, err
	}
	acc, err := s.store.GetSocialAccount(ctx, item.SocialAccountID)
	if err != nil {
		return nil, err
	}
	if acc.UserID != userID {
		return nil, apperror.NotFound("content item", contentID)
	}
	return item, nil
}

// ToggleBookmark flips IsBookmarked and returns the stored item.
func (s *ContentService) ToggleBookmark(ctx context.Context, userID, contentID int64) (*model.ContentItem, error) {
	item, err := s.Get(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateContentItem(ctx, contentID, model.ContentItemPatch{
		IsBookmarked: model.Ptr(!item.IsBookmarked),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("bookmark toggled", slog.Int64("contentID", contentID), slog.Bool("bookmarked", updated.IsBookmarked))
	return updated, nil
}

func (s *ContentService) ByTag(ctx context.Context, userID int64, tag string) ([]model.ContentItem, error) {
	if tag == "" {
		return nil, apperror.ValidationFailed("tag", "tag is required")
	}
	return s.agg.ContentItemsByTag(ctx, userID, tag)
}

func (s *ContentService) Top(ctx context.Context, userID int64, limit int) ([]model.ContentItem, error) {
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.agg.TopPerformingContent(ctx, userID, limit)
}
