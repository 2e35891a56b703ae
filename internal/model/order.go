package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a purchase order grouping lines of medicines and equipment.
type Order struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Status    string          `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	Lines     []OrderLine     `json:"lines,omitempty" db:"-"`
	Total     decimal.Decimal `json:"total" db:"-"`
}

// OrderLine references exactly one medicine or one equipment item.
// ExpiryDate is applied to the item when the order is received.
type OrderLine struct {
	ID          int64               `json:"id" db:"id"`
	OrderID     int64               `json:"order_id" db:"order_id"`
	MedicineID  *int64              `json:"medicine_id,omitempty" db:"medicine_id"`
	EquipmentID *int64              `json:"equipment_id,omitempty" db:"equipment_id"`
	Quantity    int                 `json:"quantity" db:"quantity"`
	Notes       string              `json:"notes,omitempty" db:"notes"`
	ExpiryDate  string              `json:"expiry_date,omitempty" db:"expiry_date"`
	UnitPrice   decimal.NullDecimal `json:"unit_price" db:"unit_price"`

	// ItemName is the current name of the item, or its last name if the
	// item was deleted and both ids are nil.
	ItemName string `json:"item_name,omitempty" db:"item_name"`
	ItemKind Kind   `json:"kind" db:"kind"`
}

// Kind reports which item family the line references.
func (l OrderLine) Kind() Kind {
	if l.ItemKind != "" {
		return l.ItemKind
	}
	if l.EquipmentID != nil {
		return KindEquipment
	}
	return KindMedicine
}

// Order statuses.
const (
	OrderNew        = "new"
	OrderInProgress = "in_progress"
	OrderOrdered    = "ordered"
	OrderReceived   = "received"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

var orderRank = map[string]int{
	OrderNew:        1,
	OrderInProgress: 2,
	OrderOrdered:    3,
	OrderReceived:   4,
	OrderCompleted:  5,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	return s == OrderCancelled || orderRank[s] > 0
}

// OrderTerminal reports whether no further transitions leave status s.
func OrderTerminal(s string) bool {
	return s == OrderCompleted || s == OrderCancelled
}

// OrderTransitionAllowed reports whether an order may move from one status to
// another. Transitions only move forward; cancelling is possible from any
// non-terminal status.
func OrderTransitionAllowed(from, to string) bool {
	if !ValidOrderStatus(from) || !ValidOrderStatus(to) || OrderTerminal(from) {
		return false
	}
	if to == OrderCancelled {
		return true
	}
	return orderRank[to] > orderRank[from]
}

// OrderLinesEditable reports whether lines can still be changed.
func OrderLinesEditable(s string) bool {
	return s == OrderNew || s == OrderInProgress || s == OrderOrdered
}
