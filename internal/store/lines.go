package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// lineTables hold order and utilization lines. Both reference items through
// medicine_id and equipment_id and keep a copy of the item name.
var lineTables = []string{"order_lines", "utilization_lines"}

// lineItemName returns the name of an item referenced by a new line, or
// ErrConstraint if the item does not exist.
func lineItemName(ctx context.Context, tx *sqlx.Tx, t itemTable, id int64) (string, error) {
	var name string
	err := tx.GetContext(ctx, &name, `SELECT name FROM `+t.items+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s %d does not exist", ErrConstraint, t.line, id)
	}
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", t.line, err)
	}
	return name, nil
}

// deleteItem deletes an item. Lines that referenced it keep the item's last
// name and lose the link, so closed orders and disposal records stay whole.
func deleteItem(ctx context.Context, tx *sqlx.Tx, t itemTable, id int64) error {
	for _, lines := range lineTables {
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+lines+` SET item_name = (SELECT name FROM `+t.items+` WHERE id = ?)
			 WHERE `+t.line+` = ?`, id, id); err != nil {
			return fmt.Errorf("detaching %s from %s %d: %w", lines, t.kind, id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.items+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting %s %d: %w", t.kind, id, constraintError(err))
	}
	return nil
}
