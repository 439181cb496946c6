package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

const userColumns = `id, username, email, password_hash, full_name, avatar_url,
	provider, provider_id, last_login, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.AvatarURL,
		&u.Provider, &u.ProviderID, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.LastLogin = timePtr(lastLogin)
	return &u, nil
}

// CreateUser inserts a user after checking email and username uniqueness in
// the same transaction. The UNIQUE constraints on the table back this up.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := db.now()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkUserUnique(ctx, tx, 0, user.Email, user.Username); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, email, password_hash, full_name, avatar_url,
				provider, provider_id, last_login, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user.Username, user.Email, user.PasswordHash, user.FullName, user.AvatarURL,
			user.Provider, user.ProviderID, nullTime(user.LastLogin), now, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading user id: %w", err)
		}

		user.ID = id
		user.CreatedAt = now
		user.UpdatedAt = now
		return nil
	})
}

func (db *DB) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.findUser(ctx, `email = ?`, apperror.NotFoundBy("user", "email", email), email)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.findUser(ctx, `username = ?`, apperror.NotFoundBy("user", "username", username), username)
}

func (db *DB) GetUserByProviderID(ctx context.Context, provider, providerID string) (*model.User, error) {
	notFound := apperror.NotFoundBy("user", provider+" id", providerID)
	if providerID == "" {
		return nil, notFound
	}
	return db.findUser(ctx, `provider = ? AND provider_id = ?`, notFound, provider, providerID)
}

func (db *DB) findUser(ctx context.Context, where string, notFound error, args ...any) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` ORDER BY id LIMIT 1`, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding user: %w", err)
	}
	return u, nil
}

// UpdateUser reads, patches and rewrites the row inside one transaction.
func (db *DB) UpdateUser(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	var updated *model.User
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("user", id)
		}
		if err != nil {
			return fmt.Errorf("sqlite: getting user %d: %w", id, err)
		}

		patch.Apply(u)
		if err := checkUserUnique(ctx, tx, id, u.Email, u.Username); err != nil {
			return err
		}
		u.UpdatedAt = db.now()

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET username = ?, email = ?, password_hash = ?, full_name = ?, avatar_url = ?,
				provider = ?, provider_id = ?, last_login = ?, updated_at = ?
			 WHERE id = ?`,
			u.Username, u.Email, u.PasswordHash, u.FullName, u.AvatarURL,
			u.Provider, u.ProviderID, nullTime(u.LastLogin), u.UpdatedAt, id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %d: %w", id, err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func checkUserUnique(ctx context.Context, q queryer, self int64, email, username string) error {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? AND id != ?`, email, self).Scan(&n); err != nil {
		return fmt.Errorf("sqlite: checking email: %w", err)
	}
	if n > 0 {
		return apperror.Conflict("email", "email already registered")
	}
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? AND id != ?`, username, self).Scan(&n); err != nil {
		return fmt.Errorf("sqlite: checking username: %w", err)
	}
	if n > 0 {
		return apperror.Conflict("username", "username already taken")
	}
	return nil
}
