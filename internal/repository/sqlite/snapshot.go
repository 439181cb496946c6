package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/social-pulse/internal/model"
)

const snapshotColumns = `id, user_id, social_account_id, date, platform, followers, views, likes,
	comments, shares, engagement, engagement_rate, metadata, created_at, updated_at`

func scanSnapshot(row scanner) (*model.AnalyticsSnapshot, error) {
	var (
		s         model.AnalyticsSnapshot
		accountID sql.NullInt64
		metadata  string
	)
	err := row.Scan(&s.ID, &s.UserID, &accountID, &s.Date, &s.Platform, &s.Followers, &s.Views, &s.Likes,
		&s.Comments, &s.Shares, &s.Engagement, &s.EngagementRate, &metadata, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.SocialAccountID = intPtr(accountID)
	if err := decodeJSON(metadata, &s.Metadata); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) CreateSnapshot(ctx context.Context, snapshot *model.AnalyticsSnapshot) error {
	snapshot.Recompute()
	metadata, err := encodeJSON(snapshot.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: creating snapshot: %w", err)
	}

	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (user_id, social_account_id, date, platform, followers, views,
			likes, comments, shares, engagement, engagement_rate, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.UserID, nullInt(snapshot.SocialAccountID), snapshot.Date, snapshot.Platform,
		snapshot.Followers, snapshot.Views, snapshot.Likes, snapshot.Comments, snapshot.Shares,
		snapshot.Engagement, snapshot.EngagementRate, metadata, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading snapshot id: %w", err)
	}

	snapshot.ID = id
	snapshot.CreatedAt = now
	snapshot.UpdatedAt = now
	return nil
}

func (db *DB) ListSnapshotsByUser(ctx context.Context, userID int64) ([]model.AnalyticsSnapshot, error) {
	return db.listSnapshots(ctx, `user_id = ?`, userID)
}

func (db *DB) ListSnapshotsByAccount(ctx context.Context, accountID int64) ([]model.AnalyticsSnapshot, error) {
	return db.listSnapshots(ctx, `social_account_id = ?`, accountID)
}

func (db *DB) listSnapshots(ctx context.Context, where string, arg int64) ([]model.AnalyticsSnapshot, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM analytics_snapshots WHERE `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snapshots: %w", err)
	}
	snaps, err := collect(rows, scanSnapshot)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snapshots: %w", err)
	}
	return snaps, nil
}
