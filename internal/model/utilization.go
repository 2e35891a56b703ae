package model

import "time"

// Utilization is a disposal record. Completing it has no effect on stock.
type Utilization struct {
	ID        int64             `json:"id" db:"id"`
	Name      string            `json:"name" db:"name"`
	Status    string            `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	Lines     []UtilizationLine `json:"lines,omitempty" db:"-"`
}

// UtilizationLine records a disposed quantity of one medicine or equipment item.
type UtilizationLine struct {
	ID                int64  `json:"id" db:"id"`
	UtilizationID     int64  `json:"utilization_id" db:"utilization_id"`
	MedicineID        *int64 `json:"medicine_id,omitempty" db:"medicine_id"`
	EquipmentID       *int64 `json:"equipment_id,omitempty" db:"equipment_id"`
	Quantity          int    `json:"quantity" db:"quantity"`
	ExpiryDate        string `json:"expiry_date,omitempty" db:"expiry_date"`
	ReasonForDisposal string `json:"reason_for_disposal,omitempty" db:"reason_for_disposal"`

	// ItemName is the current name of the item, or its last name if the
	// item was deleted and both ids are nil.
	ItemName string `json:"item_name,omitempty" db:"item_name"`
	ItemKind Kind   `json:"kind" db:"kind"`
}

// Kind reports which item family the line references.
func (l UtilizationLine) Kind() Kind {
	if l.ItemKind != "" {
		return l.ItemKind
	}
	if l.EquipmentID != nil {
		return KindEquipment
	}
	return KindMedicine
}

// Utilization statuses.
const (
	UtilizationNew       = "new"
	UtilizationCompleted = "completed"
	UtilizationCancelled = "cancelled"
)

// ValidUtilizationStatus reports whether s is a known utilization status.
func ValidUtilizationStatus(s string) bool {
	return s == UtilizationNew || s == UtilizationCompleted || s == UtilizationCancelled
}

// UtilizationTransitionAllowed reports whether a utilization may move from
// one status to another. Only new records can be closed.
func UtilizationTransitionAllowed(from, to string) bool {
	return from == UtilizationNew && (to == UtilizationCompleted || to == UtilizationCancelled)
}
