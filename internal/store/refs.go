package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ref is a category link supplied by the caller.
type ref struct {
	field string
	table string
	id    *int64
}

// checkRefs verifies that every supplied link points at an existing row.
// Links that were not supplied are not checked, so items whose category was
// deleted can still be edited.
func checkRefs(ctx context.Context, tx *sqlx.Tx, refs ...ref) error {
	for _, r := range refs {
		if r.id == nil {
			continue
		}
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+r.table+` WHERE id = ?`, *r.id); err != nil {
			return fmt.Errorf("checking %s: %w", r.field, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s %d does not exist", ErrConstraint, r.field, *r.id)
		}
	}
	return nil
}

// groupKey returns name, or fallback when the link is missing or dangling.
func groupKey(name *string, fallback string) string {
	if name == nil || *name == "" {
		return fallback
	}
	return *name
}
