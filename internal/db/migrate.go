package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// mirrorPair names an item table and its minimum-list table.
type mirrorPair struct {
	items   string
	minimum string
	// Columns copied between the two tables when a missing side is created.
	shared string
}

var mirrorPairs = []mirrorPair{
	{
		items:   "medicines",
		minimum: "medicine_minimum",
		shared:  "name, packaging, category_id, subcategory_id, sub_subcategory_id, minimum_required, storage, kept_on_base_inventory",
	},
	{
		items:   "equipment",
		minimum: "equipment_minimum",
		shared:  "name, packaging, category_id, subcategory_id, minimum_required",
	},
}

// Migrate ensures the schema and links items to their minimum-list rows.
// Rows created before the link columns existed are paired by name once;
// after that the links are maintained by the store and names no longer matter.
func Migrate(db *sqlx.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	ctx := context.Background()
	for _, p := range mirrorPairs {
		if err := linkMirrors(ctx, db, p); err != nil {
			return fmt.Errorf("linking %s to %s: %w", p.items, p.minimum, err)
		}
	}
	return nil
}

func linkMirrors(ctx context.Context, db *sqlx.DB, p mirrorPair) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Pair unlinked rows by name, first come first served. Duplicate names
	// beyond the first pairing get their own mirror row below.
	var unlinked []struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	err = tx.SelectContext(ctx, &unlinked,
		`SELECT id, name FROM `+p.minimum+` WHERE item_id IS NULL ORDER BY id`)
	if err != nil {
		return fmt.Errorf("listing unlinked minimum rows: %w", err)
	}

	for _, m := range unlinked {
		var itemID int64
		err := tx.GetContext(ctx, &itemID,
			`SELECT id FROM `+p.items+` WHERE minimum_id IS NULL AND name = ? ORDER BY id LIMIT 1`, m.Name)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("finding item named %q: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+p.items+` SET minimum_id = ? WHERE id = ?`, m.ID, itemID); err != nil {
			return fmt.Errorf("linking item %d: %w", itemID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+p.minimum+` SET item_id = ? WHERE id = ?`, itemID, m.ID); err != nil {
			return fmt.Errorf("linking minimum row %d: %w", m.ID, err)
		}
	}

	// Items without a minimum row get one.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+p.minimum+` (item_id, `+p.shared+`)
		 SELECT id, `+p.shared+` FROM `+p.items+` WHERE minimum_id IS NULL`); err != nil {
		return fmt.Errorf("creating missing minimum rows: %w", err)
	}

	// Minimum rows without an item get an empty item.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+p.items+` (`+p.shared+`, minimum_id)
		 SELECT `+p.shared+`, id FROM `+p.minimum+` WHERE item_id IS NULL`); err != nil {
		return fmt.Errorf("creating missing items: %w", err)
	}

	// Close both directions of the links created above.
	if _, err := tx.ExecContext(ctx,
		`UPDATE `+p.items+` SET minimum_id = (SELECT m.id FROM `+p.minimum+` m WHERE m.item_id = `+p.items+`.id)
		 WHERE minimum_id IS NULL`); err != nil {
		return fmt.Errorf("back-linking items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE `+p.minimum+` SET item_id = (SELECT i.id FROM `+p.items+` i WHERE i.minimum_id = `+p.minimum+`.id)
		 WHERE item_id IS NULL`); err != nil {
		return fmt.Errorf("back-linking minimum rows: %w", err)
	}

	return tx.Commit()
}
