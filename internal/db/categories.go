package db

import (
	"context"

	"github.com/dori/simplr/internal/model"
	"github.com/jmoiron/sqlx"
)

type categoryRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	ColorKey string `db:"color_key"`
	IsCustom bool   `db:"is_custom"`
	Position int    `db:"position"`
}

// LoadCategories returns every persisted category record in stored order.
// Records are returned as written; identity reconciliation is the caller's job.
func (db *DB) LoadCategories(ctx context.Context) ([]model.Category, error) {
	var rows []categoryRow
	err := db.SelectContext(ctx, &rows, `
		SELECT id, name, color_key, is_custom, position
		FROM categories
		ORDER BY position, name
	`)
	if err != nil {
		return nil, err
	}

	cats := make([]model.Category, 0, len(rows))
	for _, r := range rows {
		cats = append(cats, model.Category{
			ID:       r.ID,
			Name:     r.Name,
			ColorKey: r.ColorKey,
			IsCustom: r.IsCustom,
		})
	}
	return cats, nil
}

// ReplaceCategories rewrites the full category set, preserving ids verbatim
func (db *DB) ReplaceCategories(ctx context.Context, cats []model.Category) error {
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
			return err
		}

		for i, c := range cats {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO categories (id, name, color_key, is_custom, position)
				VALUES (:id, :name, :color_key, :is_custom, :position)
			`, categoryRow{
				ID:       c.ID,
				Name:     c.Name,
				ColorKey: c.ColorKey,
				IsCustom: c.IsCustom,
				Position: i,
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
}
