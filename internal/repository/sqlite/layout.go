package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

const layoutColumns = `id, user_id, name, layout, is_default, created_at, updated_at`

func scanLayout(row scanner) (*model.DashboardLayout, error) {
	var (
		l    model.DashboardLayout
		spec string
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.Name, &spec, &l.IsDefault, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON(spec, &l.Layout); err != nil {
		return nil, err
	}
	l.Layout = l.Layout.Clone() // nil widgets become []
	return &l, nil
}

func (db *DB) CreateLayout(ctx context.Context, layout *model.DashboardLayout) error {
	if layout.Name == "" {
		layout.Name = model.DefaultLayoutName
	}
	layout.Layout = layout.Layout.Clone()
	spec, err := encodeJSON(layout.Layout)
	if err != nil {
		return fmt.Errorf("sqlite: creating layout: %w", err)
	}

	now := db.now()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO dashboard_layouts (user_id, name, layout, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		layout.UserID, layout.Name, spec, layout.IsDefault, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating layout: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading layout id: %w", err)
	}

	layout.ID = id
	layout.CreatedAt = now
	layout.UpdatedAt = now
	return nil
}

func (db *DB) GetLayout(ctx context.Context, id int64) (*model.DashboardLayout, error) {
	return getLayout(ctx, db.conn, id)
}

func getLayout(ctx context.Context, q queryer, id int64) (*model.DashboardLayout, error) {
	l, err := scanLayout(q.QueryRowContext(ctx,
		`SELECT `+layoutColumns+` FROM dashboard_layouts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("dashboard layout", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting layout %d: %w", id, err)
	}
	return l, nil
}

func (db *DB) ListLayoutsByUser(ctx context.Context, userID int64) ([]model.DashboardLayout, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+layoutColumns+` FROM dashboard_layouts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing layouts: %w", err)
	}
	layouts, err := collect(rows, scanLayout)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing layouts: %w", err)
	}
	return layouts, nil
}

func (db *DB) UpdateLayout(ctx context.Context, id int64, patch model.LayoutPatch) (*model.DashboardLayout, error) {
	var updated *model.DashboardLayout
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		l, err := getLayout(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(l)
		l.UpdatedAt = db.now()

		spec, err := encodeJSON(l.Layout)
		if err != nil {
			return fmt.Errorf("sqlite: updating layout %d: %w", id, err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE dashboard_layouts SET name = ?, layout = ?, is_default = ?, updated_at = ? WHERE id = ?`,
			l.Name, spec, l.IsDefault, l.UpdatedAt, id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating layout %d: %w", id, err)
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLayout removes one layout. RowsAffected == 0 means the ID did not
// resolve.
func (db *DB) DeleteLayout(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM dashboard_layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting layout %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete result: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("dashboard layout", id)
	}
	return nil
}
