package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/ambulanta/internal/model"
)

// ReportRow is one flattened line of an order or utilization report.
type ReportRow struct {
	Kind              model.Kind          `json:"kind"`
	ItemID            int64               `json:"item_id"`
	Name              string              `json:"name"`
	Packaging         string              `json:"packaging,omitempty"`
	Category          string              `json:"category"`
	Subcategory       string              `json:"subcategory"`
	SubSubcategory    string              `json:"sub_subcategory,omitempty"`
	Quantity          int                 `json:"quantity"`
	ExpiryDate        string              `json:"expiry_date,omitempty"`
	Notes             string              `json:"notes,omitempty"`
	ReasonForDisposal string              `json:"reason_for_disposal,omitempty"`
	UnitPrice         decimal.NullDecimal `json:"unit_price"`
}

// Report is a printable snapshot of an order or utilization.
type Report struct {
	Title     string          `json:"title"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Rows      []ReportRow     `json:"rows"`
	Total     decimal.Decimal `json:"total"`
}

type reportLine struct {
	Kind              model.Kind          `db:"kind"`
	MedicineID        *int64              `db:"medicine_id"`
	EquipmentID       *int64              `db:"equipment_id"`
	Quantity          int                 `db:"quantity"`
	ExpiryDate        string              `db:"expiry_date"`
	Notes             string              `db:"notes"`
	ReasonForDisposal string              `db:"reason_for_disposal"`
	UnitPrice         decimal.NullDecimal `db:"unit_price"`
	Name              string              `db:"name"`
	Packaging         string              `db:"packaging"`
	CategoryID        *int64              `db:"category_id"`
	SubcategoryID     *int64              `db:"subcategory_id"`
	SubSubcategoryID  *int64              `db:"sub_subcategory_id"`
}

const reportItemColumns = `l.kind, COALESCE(m.name, e.name, l.item_name) AS name,
	COALESCE(m.packaging, e.packaging, '') AS packaging,
	COALESCE(m.category_id, e.category_id) AS category_id,
	COALESCE(m.subcategory_id, e.subcategory_id) AS subcategory_id,
	m.sub_subcategory_id`

// OrderReport builds the report of an order, or returns nil if the order
// does not exist.
func OrderReport(ctx context.Context, db *sqlx.DB, id int64) (*Report, error) {
	o, err := getOrder(ctx, db, id)
	if err != nil || o == nil {
		return nil, err
	}

	var lines []reportLine
	err = db.SelectContext(ctx, &lines,
		`SELECT l.medicine_id, l.equipment_id, l.quantity, l.expiry_date, l.notes,
		        '' AS reason_for_disposal, l.unit_price, `+reportItemColumns+`
		 FROM order_lines l
		 LEFT JOIN medicines m ON m.id = l.medicine_id
		 LEFT JOIN equipment e ON e.id = l.equipment_id
		 WHERE l.order_id = ?
		 ORDER BY l.id`, id)
	if err != nil {
		return nil, fmt.Errorf("loading order report lines: %w", err)
	}

	r := &Report{Title: o.Name, Status: o.Status, CreatedAt: o.CreatedAt, Total: decimal.Zero}
	if err := fillReport(ctx, db, r, lines); err != nil {
		return nil, err
	}
	for _, row := range r.Rows {
		if row.UnitPrice.Valid {
			r.Total = r.Total.Add(row.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(row.Quantity))))
		}
	}
	return r, nil
}

// UtilizationReport builds the report of a utilization, or returns nil if
// it does not exist.
func UtilizationReport(ctx context.Context, db *sqlx.DB, id int64) (*Report, error) {
	u, err := getUtilization(ctx, db, id)
	if err != nil || u == nil {
		return nil, err
	}

	var lines []reportLine
	err = db.SelectContext(ctx, &lines,
		`SELECT l.medicine_id, l.equipment_id, l.quantity, l.expiry_date, '' AS notes,
		        l.reason_for_disposal, NULL AS unit_price, `+reportItemColumns+`
		 FROM utilization_lines l
		 LEFT JOIN medicines m ON m.id = l.medicine_id
		 LEFT JOIN equipment e ON e.id = l.equipment_id
		 WHERE l.utilization_id = ?
		 ORDER BY l.id`, id)
	if err != nil {
		return nil, fmt.Errorf("loading utilization report lines: %w", err)
	}

	r := &Report{Title: u.Name, Status: u.Status, CreatedAt: u.CreatedAt, Total: decimal.Zero}
	if err := fillReport(ctx, db, r, lines); err != nil {
		return nil, err
	}
	return r, nil
}

func fillReport(ctx context.Context, db *sqlx.DB, r *Report, lines []reportLine) error {
	labels := map[model.Kind]*CategoryLabels{}
	for _, kind := range []model.Kind{model.KindMedicine, model.KindEquipment} {
		l, err := LoadCategoryLabels(ctx, db, kind)
		if err != nil {
			return err
		}
		labels[kind] = l
	}

	r.Rows = make([]ReportRow, 0, len(lines))
	for _, l := range lines {
		row := ReportRow{
			Kind:              l.Kind,
			Name:              l.Name,
			Packaging:         l.Packaging,
			Quantity:          l.Quantity,
			ExpiryDate:        l.ExpiryDate,
			Notes:             l.Notes,
			ReasonForDisposal: l.ReasonForDisposal,
			UnitPrice:         l.UnitPrice,
		}
		if l.MedicineID != nil {
			row.ItemID = *l.MedicineID
		} else if l.EquipmentID != nil {
			row.ItemID = *l.EquipmentID
		}

		lbl := labels[row.Kind]
		row.Category = label(lbl.Categories, l.CategoryID)
		row.Subcategory = label(lbl.Subcategories, l.SubcategoryID)
		if row.Kind == model.KindMedicine && l.SubSubcategoryID != nil {
			row.SubSubcategory = label(lbl.SubSubcategories, l.SubSubcategoryID)
		}
		r.Rows = append(r.Rows, row)
	}
	return nil
}

func label(labels map[int64]string, id *int64) string {
	if id == nil {
		return model.GroupUncategorized
	}
	if s, ok := labels[*id]; ok {
		return s
	}
	return model.GroupUncategorized
}
