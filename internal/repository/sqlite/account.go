package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

const accountColumns = `id, user_id, platform, handle, display_name, profile_url, avatar_url,
	access_token, refresh_token, token_expiry, is_connected, followers, created_at, updated_at`

func scanAccount(row scanner) (*model.SocialAccount, error) {
	var (
		a      model.SocialAccount
		expiry sql.NullTime
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.Handle, &a.DisplayName, &a.ProfileURL, &a.AvatarURL,
		&a.AccessToken, &a.RefreshToken, &expiry, &a.IsConnected, &a.Followers, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.TokenExpiry = timePtr(expiry)
	return &a, nil
}

func (db *DB) CreateSocialAccount(ctx context.Context, account *model.SocialAccount) error {
	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO social_accounts (user_id, platform, handle, display_name, profile_url, avatar_url,
			access_token, refresh_token, token_expiry, is_connected, followers, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		account.UserID, account.Platform, account.Handle, account.DisplayName, account.ProfileURL,
		account.AvatarURL, account.AccessToken, account.RefreshToken, nullTime(account.TokenExpiry),
		account.Followers, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating social account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading social account id: %w", err)
	}

	account.ID = id
	account.IsConnected = true
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (db *DB) GetSocialAccount(ctx context.Context, id int64) (*model.SocialAccount, error) {
	return getSocialAccount(ctx, db.conn, id)
}

func getSocialAccount(ctx context.Context, q queryer, id int64) (*model.SocialAccount, error) {
	a, err := scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM social_accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("social account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting social account %d: %w", id, err)
	}
	return a, nil
}

func (db *DB) ListSocialAccountsByUser(ctx context.Context, userID int64) ([]model.SocialAccount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM social_accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing social accounts: %w", err)
	}
	accounts, err := collect(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing social accounts: %w", err)
	}
	return accounts, nil
}

func (db *DB) UpdateSocialAccount(ctx context.Context, id int64, patch model.SocialAccountPatch) (*model.SocialAccount, error) {
	var updated *model.SocialAccount
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		a, err := getSocialAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(a)
		a.UpdatedAt = db.now()

		_, err = tx.ExecContext(ctx,
			`UPDATE social_accounts SET display_name = ?, profile_url = ?, avatar_url = ?,
				access_token = ?, refresh_token = ?, token_expiry = ?, is_connected = ?,
				followers = ?, updated_at = ?
			 WHERE id = ?`,
			a.DisplayName, a.ProfileURL, a.AvatarURL, a.AccessToken, a.RefreshToken,
			nullTime(a.TokenExpiry), a.IsConnected, a.Followers, a.UpdatedAt, id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating social account %d: %w", id, err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (db *DB) DisconnectSocialAccount(ctx context.Context, id int64) (*model.SocialAccount, error) {
	return db.UpdateSocialAccount(ctx, id, model.SocialAccountPatch{IsConnected: model.Ptr(false)})
}
