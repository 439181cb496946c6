package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/social-pulse/internal/model"
)

const insightColumns = `id, user_id, social_account_id, title, summary, details, recommendations,
	metadata, created_at, updated_at`

func scanInsight(row scanner) (*model.AiInsight, error) {
	var (
		in                              model.AiInsight
		accountID                       sql.NullInt64
		details, recommendations, meta string
	)
	err := row.Scan(&in.ID, &in.UserID, &accountID, &in.Title, &in.Summary, &details, &recommendations,
		&meta, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	in.SocialAccountID = intPtr(accountID)
	if err := decodeJSON(details, &in.Details); err != nil {
		return nil, err
	}
	if err := decodeJSON(recommendations, &in.Recommendations); err != nil {
		return nil, err
	}
	if err := decodeJSON(meta, &in.Metadata); err != nil {
		return nil, err
	}
	in.Normalize()
	return &in, nil
}

func (db *DB) CreateInsight(ctx context.Context, insight *model.AiInsight) error {
	insight.Normalize()
	details, err := encodeJSON(insight.Details)
	if err != nil {
		return fmt.Errorf("sqlite: creating insight: %w", err)
	}
	recommendations, err := encodeJSON(insight.Recommendations)
	if err != nil {
		return fmt.Errorf("sqlite: creating insight: %w", err)
	}
	meta, err := encodeJSON(insight.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: creating insight: %w", err)
	}

	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO ai_insights (user_id, social_account_id, title, summary, details, recommendations,
			metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insight.UserID, nullInt(insight.SocialAccountID), insight.Title, insight.Summary,
		details, recommendations, meta, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating insight: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading insight id: %w", err)
	}

	insight.ID = id
	insight.CreatedAt = now
	insight.UpdatedAt = now
	return nil
}

func (db *DB) ListInsightsByUser(ctx context.Context, userID int64) ([]model.AiInsight, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+insightColumns+` FROM ai_insights WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing insights: %w", err)
	}
	insights, err := collect(rows, scanInsight)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing insights: %w", err)
	}
	return insights, nil
}
