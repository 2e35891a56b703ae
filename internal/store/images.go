package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
)

// SetItemImage stores the photo of a medicine or equipment item.
func SetItemImage(ctx context.Context, db *sqlx.DB, kind model.Kind, id int64, image []byte, mime string) error {
	t := tableFor(kind)
	result, err := db.ExecContext(ctx,
		`UPDATE `+t.items+` SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting %s image: %w", kind, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItemImage returns the photo of an item and its MIME type. Items
// without a photo return nil data.
func GetItemImage(ctx context.Context, db *sqlx.DB, kind model.Kind, id int64) ([]byte, string, error) {
	t := tableFor(kind)
	var row struct {
		Image []byte `db:"image"`
		MIME  string `db:"image_mime"`
	}
	err := db.GetContext(ctx, &row, `SELECT image, image_mime FROM `+t.items+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting %s image: %w", kind, err)
	}
	return row.Image, row.MIME, nil
}
