package store

import (
	"time"

	"github.com/erazemk/ambulanta/internal/model"
)

// now is the clock used for status derivation. Tests replace it.
var now = time.Now

// itemTable describes where one item kind lives.
type itemTable struct {
	kind     model.Kind
	items    string
	minimum  string
	quantity string // quantity-on-hand expression
	stock    string // column incremented when an order is received
	note     string // free-text batch annotation column
	line     string // column referencing the item from order and utilization lines
}

var medicineTable = itemTable{
	kind:     model.KindMedicine,
	items:    "medicines",
	minimum:  "medicine_minimum",
	quantity: "initial_quantity - consumed_quantity",
	stock:    "initial_quantity",
	note:     "important_status",
	line:     "medicine_id",
}

var equipmentTable = itemTable{
	kind:     model.KindEquipment,
	items:    "equipment",
	minimum:  "equipment_minimum",
	quantity: "current_quantity",
	stock:    "current_quantity",
	note:     "status",
	line:     "equipment_id",
}

var itemTables = []itemTable{medicineTable, equipmentTable}

func tableFor(kind model.Kind) itemTable {
	if kind == model.KindEquipment {
		return equipmentTable
	}
	return medicineTable
}
