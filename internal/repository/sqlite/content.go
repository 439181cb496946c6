package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

const contentColumns = `id, social_account_id, title, description, url, thumbnail_url, published_at,
	platform, content_type, views, likes, comments, shares, engagement, engagement_rate,
	is_bookmarked, tags, metadata, created_at, updated_at`

func scanContent(row scanner) (*model.ContentItem, error) {
	var (
		c         model.ContentItem
		published sql.NullTime
		tags      string
		metadata  string
	)
	err := row.Scan(&c.ID, &c.SocialAccountID, &c.Title, &c.Description, &c.URL, &c.ThumbnailURL, &published,
		&c.Platform, &c.ContentType, &c.Views, &c.Likes, &c.Comments, &c.Shares, &c.Engagement, &c.EngagementRate,
		&c.IsBookmarked, &tags, &metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.PublishedAt = timePtr(published)
	if err := decodeJSON(tags, &c.Tags); err != nil {
		return nil, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if err := decodeJSON(metadata, &c.Metadata); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) CreateContentItem(ctx context.Context, item *model.ContentItem) error {
	if item.Tags == nil {
		item.Tags = []string{}
	}
	item.IsBookmarked = false
	item.Recompute()

	tags, err := encodeJSON(item.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: creating content item: %w", err)
	}
	metadata, err := encodeJSON(item.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: creating content item: %w", err)
	}

	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO content_items (social_account_id, title, description, url, thumbnail_url, published_at,
			platform, content_type, views, likes, comments, shares, engagement, engagement_rate,
			is_bookmarked, tags, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		item.SocialAccountID, item.Title, item.Description, item.URL, item.ThumbnailURL, nullTime(item.PublishedAt),
		item.Platform, item.ContentType, item.Views, item.Likes, item.Comments, item.Shares,
		item.Engagement, item.EngagementRate, tags, metadata, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating content item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading content item id: %w", err)
	}

	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetContentItem(ctx context.Context, id int64) (*model.ContentItem, error) {
	return getContentItem(ctx, db.conn, id)
}

func getContentItem(ctx context.Context, q queryer, id int64) (*model.ContentItem, error) {
	c, err := scanContent(q.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("content item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting content item %d: %w", id, err)
	}
	return c, nil
}

func (db *DB) ListContentItemsByAccount(ctx context.Context, accountID int64) ([]model.ContentItem, error) {
	return db.ListContentItemsByAccounts(ctx, []int64{accountID})
}

func (db *DB) ListContentItemsByAccounts(ctx context.Context, accountIDs []int64) ([]model.ContentItem, error) {
	if len(accountIDs) == 0 {
		return []model.ContentItem{}, nil
	}

	// One placeholder per ID: "?, ?, ?". The values still go through the
	// driver, only the placeholder count is formatted into the query.
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(accountIDs)), ", ")
	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM content_items
		 WHERE social_account_id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing content items: %w", err)
	}
	items, err := collect(rows, scanContent)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing content items: %w", err)
	}
	return items, nil
}

func (db *DB) UpdateContentItem(ctx context.Context, id int64, patch model.ContentItemPatch) (*model.ContentItem, error) {
	var updated *model.ContentItem
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		c, err := getContentItem(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(c) // recomputes engagement
		c.UpdatedAt = db.now()

		tags, err := encodeJSON(c.Tags)
		if err != nil {
			return fmt.Errorf("sqlite: updating content item %d: %w", id, err)
		}
		metadata, err := encodeJSON(c.Metadata)
		if err != nil {
			return fmt.Errorf("sqlite: updating content item %d: %w", id, err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE content_items SET title = ?, description = ?, url = ?, thumbnail_url = ?, published_at = ?,
				content_type = ?, views = ?, likes = ?, comments = ?, shares = ?, engagement = ?,
				engagement_rate = ?, is_bookmarked = ?, tags = ?, metadata = ?, updated_at = ?
			 WHERE id = ?`,
			c.Title, c.Description, c.URL, c.ThumbnailURL, nullTime(c.PublishedAt),
			c.ContentType, c.Views, c.Likes, c.Comments, c.Shares, c.Engagement,
			c.EngagementRate, c.IsBookmarked, tags, metadata, c.UpdatedAt, id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating content item %d: %w", id, err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
