package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/status"
)

// SettingLastRecompute records when RecomputeAll last finished.
const SettingLastRecompute = "last_recompute"

type itemState struct {
	ID                int64  `db:"id"`
	Quantity          int    `db:"quantity"`
	MinimumRequired   int    `db:"minimum_required"`
	ExpiryDate        string `db:"expiry_date"`
	ExpiryStatus      string `db:"expiry_status"`
	ProcurementStatus string `db:"procurement_status"`
	ProcurementOrder  string `db:"procurement_order"`
}

type membershipRow struct {
	ItemID      int64  `db:"item_id"`
	OrderID     int64  `db:"order_id"`
	OrderName   string `db:"order_name"`
	OrderStatus string `db:"order_status"`
}

// RecomputeAll re-derives the status of every item in a single transaction
// and returns the number of rows whose stored status changed. It is the
// authoritative pass: running it twice without intervening changes leaves
// the second pass with nothing to do.
func RecomputeAll(ctx context.Context, db *sqlx.DB) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	changed, err := recomputeAll(ctx, tx)
	if err != nil {
		return 0, err
	}

	at := now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		SettingLastRecompute, at.UTC().Format(time.RFC3339),
	); err != nil {
		return 0, fmt.Errorf("recording recompute time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing recompute: %w", err)
	}
	return changed, nil
}

func recomputeAll(ctx context.Context, tx *sqlx.Tx) (int, error) {
	total := 0
	for _, t := range itemTables {
		n, err := recompute(ctx, tx, t, nil)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// recompute re-derives the status of the given items of one kind. A nil
// ids slice means every item of that kind.
func recompute(ctx context.Context, tx *sqlx.Tx, t itemTable, ids []int64) (int, error) {
	if ids != nil && len(ids) == 0 {
		return 0, nil
	}

	itemsQuery := `SELECT id, ` + t.quantity + ` AS quantity, minimum_required, expiry_date,
	                      expiry_status, procurement_status, procurement_order
	               FROM ` + t.items
	memberQuery := `SELECT l.` + t.line + ` AS item_id, o.id AS order_id, o.name AS order_name, o.status AS order_status
	                FROM order_lines l
	                JOIN orders o ON o.id = l.order_id
	                WHERE l.` + t.line + ` IS NOT NULL
	                  AND o.status IN ('new', 'in_progress', 'ordered')`
	var itemArgs, memberArgs []any

	if ids != nil {
		var err error
		itemsQuery, itemArgs, err = sqlx.In(itemsQuery+` WHERE id IN (?)`, ids)
		if err != nil {
			return 0, fmt.Errorf("building item query: %w", err)
		}
		memberQuery, memberArgs, err = sqlx.In(memberQuery+` AND l.`+t.line+` IN (?)`, ids)
		if err != nil {
			return 0, fmt.Errorf("building membership query: %w", err)
		}
	}
	memberQuery += ` ORDER BY o.id, l.id`

	var items []itemState
	if err := tx.SelectContext(ctx, &items, tx.Rebind(itemsQuery), itemArgs...); err != nil {
		return 0, fmt.Errorf("loading %s for recompute: %w", t.items, err)
	}

	var members []membershipRow
	if err := tx.SelectContext(ctx, &members, tx.Rebind(memberQuery), memberArgs...); err != nil {
		return 0, fmt.Errorf("loading order membership for %s: %w", t.items, err)
	}
	byItem := make(map[int64][]status.Membership)
	for _, m := range members {
		byItem[m.ItemID] = append(byItem[m.ItemID], status.Membership{
			OrderID:     m.OrderID,
			OrderName:   m.OrderName,
			OrderStatus: m.OrderStatus,
		})
	}

	at := now()
	changed := 0
	for _, it := range items {
		expiry := status.ClassifyExpiry(it.ExpiryDate, it.Quantity, at)
		proc := status.ClassifyProcurement(status.Input{
			Quantity:     it.Quantity,
			Minimum:      it.MinimumRequired,
			ExpiryStatus: expiry,
			Orders:       byItem[it.ID],
		})
		if expiry == it.ExpiryStatus && proc.Status == it.ProcurementStatus && proc.Order == it.ProcurementOrder {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+t.items+` SET expiry_status = ?, procurement_status = ?, procurement_order = ? WHERE id = ?`,
			expiry, proc.Status, proc.Order, it.ID,
		); err != nil {
			return 0, fmt.Errorf("updating status of %s %d: %w", t.kind, it.ID, err)
		}
		changed++
	}
	return changed, nil
}
