package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/ambulanta/internal/dates"
	"github.com/erazemk/ambulanta/internal/model"
)

// LineFields is the input for adding or changing an order or utilization
// line. The item reference can only be set when the line is added.
type LineFields struct {
	MedicineID        *int64           `json:"medicine_id"`
	EquipmentID       *int64           `json:"equipment_id"`
	Quantity          *int             `json:"quantity"`
	Notes             *string          `json:"notes"`
	ExpiryDate        *string          `json:"expiry_date"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	ReasonForDisposal *string          `json:"reason_for_disposal"`
}

// itemRef validates the item reference of a new line and returns its table
// and id.
func (f LineFields) itemRef(v *ValidationError) (itemTable, int64) {
	switch {
	case f.MedicineID != nil && f.EquipmentID != nil:
		v.add("medicine_id", "only one of medicine_id and equipment_id may be set")
	case f.MedicineID != nil:
		return medicineTable, *f.MedicineID
	case f.EquipmentID != nil:
		return equipmentTable, *f.EquipmentID
	default:
		v.add("medicine_id", "one of medicine_id and equipment_id is required")
	}
	return itemTable{}, 0
}

const orderLineColumns = `l.id, l.order_id, l.kind, l.medicine_id, l.equipment_id, l.quantity, l.notes,
	l.expiry_date, l.unit_price, COALESCE(m.name, e.name, l.item_name) AS item_name`

// CreateOrder creates an empty order in status new.
func CreateOrder(ctx context.Context, db *sqlx.DB, name string) (*model.Order, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO orders (name, status) VALUES (?, ?)`, strings.TrimSpace(name), model.OrderNew)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting order id: %w", err)
	}
	return GetOrder(ctx, db, id)
}

// GetOrder returns an order with its lines and total, or nil if it does not
// exist.
func GetOrder(ctx context.Context, db *sqlx.DB, id int64) (*model.Order, error) {
	o, err := getOrder(ctx, db, id)
	if err != nil || o == nil {
		return o, err
	}

	o.Lines, err = orderLines(ctx, db, id)
	if err != nil {
		return nil, err
	}
	o.Total = OrderTotal(o.Lines)
	return o, nil
}

func getOrder(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Order, error) {
	o := &model.Order{}
	err := sqlx.GetContext(ctx, q, o, `SELECT id, name, status, created_at FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return o, nil
}

func orderLines(ctx context.Context, q sqlx.QueryerContext, orderID int64) ([]model.OrderLine, error) {
	var lines []model.OrderLine
	err := sqlx.SelectContext(ctx, q, &lines,
		`SELECT `+orderLineColumns+`
		 FROM order_lines l
		 LEFT JOIN medicines m ON m.id = l.medicine_id
		 LEFT JOIN equipment e ON e.id = l.equipment_id
		 WHERE l.order_id = ?
		 ORDER BY l.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing order lines: %w", err)
	}
	return lines, nil
}

// OrderTotal sums quantity times unit price over lines that carry a price.
func OrderTotal(lines []model.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.UnitPrice.Valid {
			total = total.Add(l.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}
	return total
}

// ListOrders returns all orders, newest first, without lines.
func ListOrders(ctx context.Context, db *sqlx.DB) ([]model.Order, error) {
	var orders []model.Order
	err := db.SelectContext(ctx, &orders,
		`SELECT id, name, status, created_at FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// lockedOrder loads an order inside tx and checks that its lines can still
// be edited.
func lockedOrder(ctx context.Context, tx *sqlx.Tx, orderID int64) error {
	o, err := getOrder(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrNotFound
	}
	if !model.OrderLinesEditable(o.Status) {
		return fmt.Errorf("%w: order is %s", ErrLocked, o.Status)
	}
	return nil
}

// AddOrderLine adds a line to an order and re-derives the status of the
// referenced item.
func AddOrderLine(ctx context.Context, db *sqlx.DB, orderID int64, f LineFields) (*model.OrderLine, error) {
	v := &ValidationError{}
	t, itemID := f.itemRef(v)
	if f.Quantity == nil || *f.Quantity <= 0 {
		v.add("quantity", "must be a positive number")
	}
	if f.UnitPrice != nil && f.UnitPrice.IsNegative() {
		v.add("unit_price", "must not be negative")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockedOrder(ctx, tx, orderID); err != nil {
		return nil, err
	}
	name, err := lineItemName(ctx, tx, t, itemID)
	if err != nil {
		return nil, err
	}

	l := model.OrderLine{
		OrderID:     orderID,
		ItemKind:    t.kind,
		MedicineID:  f.MedicineID,
		EquipmentID: f.EquipmentID,
		ItemName:    name,
		Quantity:    *f.Quantity,
	}
	applyOrderLine(&l, f)

	result, err := tx.NamedExecContext(ctx,
		`INSERT INTO order_lines (order_id, kind, medicine_id, equipment_id, item_name, quantity, notes,
		        expiry_date, unit_price)
		 VALUES (:order_id, :kind, :medicine_id, :equipment_id, :item_name, :quantity, :notes,
		        :expiry_date, :unit_price)`, &l)
	if err != nil {
		return nil, fmt.Errorf("adding order line: %w", constraintError(err))
	}
	if l.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting order line id: %w", err)
	}

	if _, err := recompute(ctx, tx, t, []int64{itemID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order line: %w", err)
	}
	return getOrderLine(ctx, db, orderID, l.ID)
}

func applyOrderLine(l *model.OrderLine, f LineFields) {
	if f.Quantity != nil {
		l.Quantity = *f.Quantity
	}
	if f.Notes != nil {
		l.Notes = *f.Notes
	}
	if f.ExpiryDate != nil {
		l.ExpiryDate = dates.Normalize(strings.TrimSpace(*f.ExpiryDate))
	}
	if f.UnitPrice != nil {
		l.UnitPrice = decimal.NewNullDecimal(*f.UnitPrice)
	}
}

func getOrderLine(ctx context.Context, q sqlx.QueryerContext, orderID, lineID int64) (*model.OrderLine, error) {
	l := &model.OrderLine{}
	err := sqlx.GetContext(ctx, q, l,
		`SELECT `+orderLineColumns+`
		 FROM order_lines l
		 LEFT JOIN medicines m ON m.id = l.medicine_id
		 LEFT JOIN equipment e ON e.id = l.equipment_id
		 WHERE l.order_id = ? AND l.id = ?`, orderID, lineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order line: %w", err)
	}
	return l, nil
}

// UpdateOrderLine changes the quantity, notes, expiry date or price of a
// line.
func UpdateOrderLine(ctx context.Context, db *sqlx.DB, orderID, lineID int64, f LineFields) (*model.OrderLine, error) {
	v := &ValidationError{}
	if f.MedicineID != nil || f.EquipmentID != nil {
		v.add("medicine_id", "the item of a line cannot be changed")
	}
	if f.Quantity != nil && *f.Quantity <= 0 {
		v.add("quantity", "must be a positive number")
	}
	if f.UnitPrice != nil && f.UnitPrice.IsNegative() {
		v.add("unit_price", "must not be negative")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockedOrder(ctx, tx, orderID); err != nil {
		return nil, err
	}
	l, err := getOrderLine(ctx, tx, orderID, lineID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}

	applyOrderLine(l, f)
	_, err = tx.NamedExecContext(ctx,
		`UPDATE order_lines SET quantity = :quantity, notes = :notes, expiry_date = :expiry_date,
		        unit_price = :unit_price
		 WHERE id = :id`, l)
	if err != nil {
		return nil, fmt.Errorf("updating order line: %w", constraintError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order line update: %w", err)
	}
	return getOrderLine(ctx, db, orderID, lineID)
}

// DeleteOrderLine removes a line from an order and re-derives the status of
// the item it referenced.
func DeleteOrderLine(ctx context.Context, db *sqlx.DB, orderID, lineID int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockedOrder(ctx, tx, orderID); err != nil {
		return err
	}
	l, err := getOrderLine(ctx, tx, orderID, lineID)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE id = ?`, lineID); err != nil {
		return fmt.Errorf("deleting order line: %w", err)
	}
	if err := recomputeLineItems(ctx, tx, []model.OrderLine{*l}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order line deletion: %w", err)
	}
	return nil
}

// recomputeLineItems re-derives the status of every item referenced by lines.
func recomputeLineItems(ctx context.Context, tx *sqlx.Tx, lines []model.OrderLine) error {
	ids := map[model.Kind][]int64{}
	for _, l := range lines {
		if l.MedicineID != nil {
			ids[model.KindMedicine] = append(ids[model.KindMedicine], *l.MedicineID)
		}
		if l.EquipmentID != nil {
			ids[model.KindEquipment] = append(ids[model.KindEquipment], *l.EquipmentID)
		}
	}
	for _, t := range itemTables {
		if _, err := recompute(ctx, tx, t, ids[t.kind]); err != nil {
			return err
		}
	}
	return nil
}

// SetOrderStatus moves an order to a new status. Receiving an order adds
// every line to stock in line order. The status of every referenced item is
// re-derived in the same transaction.
func SetOrderStatus(ctx context.Context, db *sqlx.DB, id int64, to string) (*model.Order, error) {
	if !model.ValidOrderStatus(to) {
		v := &ValidationError{}
		v.add("status", "unknown order status")
		return nil, v
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	o, err := getOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	if !model.OrderTransitionAllowed(o.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}

	lines, err := orderLines(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if to == model.OrderReceived {
		for _, l := range lines {
			if err := receiveLine(ctx, tx, l); err != nil {
				return nil, err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, to, id); err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}
	if err := recomputeLineItems(ctx, tx, lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order status: %w", err)
	}
	return GetOrder(ctx, db, id)
}

// receiveLine adds one line to the stock of its item. Lines whose item was
// deleted have nothing to stock.
func receiveLine(ctx context.Context, tx *sqlx.Tx, l model.OrderLine) error {
	t := tableFor(l.Kind())
	itemID := l.MedicineID
	if itemID == nil {
		itemID = l.EquipmentID
	}
	if itemID == nil {
		return nil
	}

	var item struct {
		Quantity   int    `db:"quantity"`
		ExpiryDate string `db:"expiry_date"`
		Note       string `db:"note"`
	}
	err := tx.GetContext(ctx, &item,
		`SELECT `+t.quantity+` AS quantity, expiry_date, `+t.note+` AS note FROM `+t.items+` WHERE id = ?`,
		*itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d referenced by order line %d", ErrConstraint, t.kind, *itemID, l.ID)
	}
	if err != nil {
		return fmt.Errorf("loading %s %d: %w", t.kind, *itemID, err)
	}

	expiry, note := MergeBatch(item.Quantity, item.ExpiryDate, item.Note, l.Quantity, l.ExpiryDate)
	if _, err := tx.ExecContext(ctx,
		`UPDATE `+t.items+` SET `+t.stock+` = `+t.stock+` + ?, expiry_date = ?, `+t.note+` = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		l.Quantity, expiry, note, *itemID,
	); err != nil {
		return fmt.Errorf("receiving into %s %d: %w", t.kind, *itemID, err)
	}
	return nil
}

// MergeBatch returns the expiry date and batch annotation of an item after
// receiving qty units that expire on lineExpiry. An item that was empty or
// had no expiry date takes the incoming expiry date. Otherwise the existing
// date is kept and batches with a different date are appended to the
// annotation as "{qty}x{date}", separated by semicolons. The first appended
// batch also records the stock that was already on hand.
func MergeBatch(before int, itemExpiry, note string, qty int, lineExpiry string) (string, string) {
	if before <= 0 || itemExpiry == "" {
		if lineExpiry == "" {
			lineExpiry = itemExpiry
		}
		if before <= 0 {
			note = ""
		}
		return lineExpiry, note
	}
	if lineExpiry == "" || lineExpiry == itemExpiry {
		return itemExpiry, note
	}

	if note == "" {
		note = fmt.Sprintf("%dx%s", before, itemExpiry)
	}
	return itemExpiry, note + fmt.Sprintf(";%dx%s", qty, lineExpiry)
}

// DeleteOrder deletes an order and its lines, then re-derives the status of
// every item.
func DeleteOrder(ctx context.Context, db *sqlx.DB, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("deleting order lines: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := recomputeAll(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order deletion: %w", err)
	}
	return nil
}
