package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/dates"
	"github.com/erazemk/ambulanta/internal/model"
)

const utilizationLineColumns = `l.id, l.utilization_id, l.kind, l.medicine_id, l.equipment_id, l.quantity,
	l.expiry_date, l.reason_for_disposal, COALESCE(m.name, e.name, l.item_name) AS item_name`

// CreateUtilization creates an empty disposal record in status new.
func CreateUtilization(ctx context.Context, db *sqlx.DB, name string) (*model.Utilization, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO utilizations (name, status) VALUES (?, ?)`, strings.TrimSpace(name), model.UtilizationNew)
	if err != nil {
		return nil, fmt.Errorf("creating utilization: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting utilization id: %w", err)
	}
	return GetUtilization(ctx, db, id)
}

// GetUtilization returns a utilization with its lines, or nil if it does
// not exist.
func GetUtilization(ctx context.Context, db *sqlx.DB, id int64) (*model.Utilization, error) {
	u, err := getUtilization(ctx, db, id)
	if err != nil || u == nil {
		return u, err
	}

	err = db.SelectContext(ctx, &u.Lines,
		`SELECT `+utilizationLineColumns+`
		 FROM utilization_lines l
		 LEFT JOIN medicines m ON m.id = l.medicine_id
		 LEFT JOIN equipment e ON e.id = l.equipment_id
		 WHERE l.utilization_id = ?
		 ORDER BY l.id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing utilization lines: %w", err)
	}
	return u, nil
}

func getUtilization(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Utilization, error) {
	u := &model.Utilization{}
	err := sqlx.GetContext(ctx, q, u, `SELECT id, name, status, created_at FROM utilizations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting utilization: %w", err)
	}
	return u, nil
}

// ListUtilizations returns all utilizations, newest first, without lines.
func ListUtilizations(ctx context.Context, db *sqlx.DB) ([]model.Utilization, error) {
	var out []model.Utilization
	err := db.SelectContext(ctx, &out,
		`SELECT id, name, status, created_at FROM utilizations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing utilizations: %w", err)
	}
	return out, nil
}

func openUtilization(ctx context.Context, tx *sqlx.Tx, id int64) error {
	u, err := getUtilization(ctx, tx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	if u.Status != model.UtilizationNew {
		return fmt.Errorf("%w: utilization is %s", ErrLocked, u.Status)
	}
	return nil
}

func applyUtilizationLine(l *model.UtilizationLine, f LineFields) {
	if f.Quantity != nil {
		l.Quantity = *f.Quantity
	}
	if f.ExpiryDate != nil {
		l.ExpiryDate = dates.Normalize(strings.TrimSpace(*f.ExpiryDate))
	}
	if f.ReasonForDisposal != nil {
		l.ReasonForDisposal = *f.ReasonForDisposal
	}
}

func getUtilizationLine(ctx context.Context, q sqlx.QueryerContext, utilizationID, lineID int64) (*model.UtilizationLine, error) {
	l := &model.UtilizationLine{}
	err := sqlx.GetContext(ctx, q, l,
		`SELECT `+utilizationLineColumns+`
		 FROM utilization_lines l
		 LEFT JOIN medicines m ON m.id = l.medicine_id
		 LEFT JOIN equipment e ON e.id = l.equipment_id
		 WHERE l.utilization_id = ? AND l.id = ?`, utilizationID, lineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting utilization line: %w", err)
	}
	return l, nil
}

// AddUtilizationLine records a disposed quantity of an item.
func AddUtilizationLine(ctx context.Context, db *sqlx.DB, utilizationID int64, f LineFields) (*model.UtilizationLine, error) {
	v := &ValidationError{}
	t, itemID := f.itemRef(v)
	if f.Quantity == nil || *f.Quantity <= 0 {
		v.add("quantity", "must be a positive number")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := openUtilization(ctx, tx, utilizationID); err != nil {
		return nil, err
	}
	name, err := lineItemName(ctx, tx, t, itemID)
	if err != nil {
		return nil, err
	}

	l := model.UtilizationLine{
		UtilizationID: utilizationID,
		ItemKind:      t.kind,
		MedicineID:    f.MedicineID,
		EquipmentID:   f.EquipmentID,
		ItemName:      name,
	}
	applyUtilizationLine(&l, f)

	result, err := tx.NamedExecContext(ctx,
		`INSERT INTO utilization_lines (utilization_id, kind, medicine_id, equipment_id, item_name, quantity,
		        expiry_date, reason_for_disposal)
		 VALUES (:utilization_id, :kind, :medicine_id, :equipment_id, :item_name, :quantity,
		        :expiry_date, :reason_for_disposal)`, &l)
	if err != nil {
		return nil, fmt.Errorf("adding utilization line: %w", constraintError(err))
	}
	if l.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting utilization line id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing utilization line: %w", err)
	}
	return getUtilizationLine(ctx, db, utilizationID, l.ID)
}

// UpdateUtilizationLine changes the quantity, expiry date or reason of a line.
func UpdateUtilizationLine(ctx context.Context, db *sqlx.DB, utilizationID, lineID int64, f LineFields) (*model.UtilizationLine, error) {
	v := &ValidationError{}
	if f.MedicineID != nil || f.EquipmentID != nil {
		v.add("medicine_id", "the item of a line cannot be changed")
	}
	if f.Quantity != nil && *f.Quantity <= 0 {
		v.add("quantity", "must be a positive number")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := openUtilization(ctx, tx, utilizationID); err != nil {
		return nil, err
	}
	l, err := getUtilizationLine(ctx, tx, utilizationID, lineID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}

	applyUtilizationLine(l, f)
	_, err = tx.NamedExecContext(ctx,
		`UPDATE utilization_lines SET quantity = :quantity, expiry_date = :expiry_date,
		        reason_for_disposal = :reason_for_disposal
		 WHERE id = :id`, l)
	if err != nil {
		return nil, fmt.Errorf("updating utilization line: %w", constraintError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing utilization line update: %w", err)
	}
	return getUtilizationLine(ctx, db, utilizationID, lineID)
}

// DeleteUtilizationLine removes a line from a utilization.
func DeleteUtilizationLine(ctx context.Context, db *sqlx.DB, utilizationID, lineID int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := openUtilization(ctx, tx, utilizationID); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx,
		`DELETE FROM utilization_lines WHERE utilization_id = ? AND id = ?`, utilizationID, lineID)
	if err != nil {
		return fmt.Errorf("deleting utilization line: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing utilization line deletion: %w", err)
	}
	return nil
}

// SetUtilizationStatus completes or cancels a utilization. Neither has any
// effect on stock.
func SetUtilizationStatus(ctx context.Context, db *sqlx.DB, id int64, to string) (*model.Utilization, error) {
	if !model.ValidUtilizationStatus(to) {
		v := &ValidationError{}
		v.add("status", "unknown utilization status")
		return nil, v
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	u, err := getUtilization(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	if !model.UtilizationTransitionAllowed(u.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, u.Status, to)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE utilizations SET status = ? WHERE id = ?`, to, id); err != nil {
		return nil, fmt.Errorf("updating utilization status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing utilization status: %w", err)
	}
	return GetUtilization(ctx, db, id)
}

// DeleteUtilization deletes a utilization and its lines.
func DeleteUtilization(ctx context.Context, db *sqlx.DB, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM utilization_lines WHERE utilization_id = ?`, id); err != nil {
		return fmt.Errorf("deleting utilization lines: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM utilizations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting utilization: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing utilization deletion: %w", err)
	}
	return nil
}
