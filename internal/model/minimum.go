package model

// MedicineMinimum is a row of the medicine minimum-stock list. It is kept
// in sync with the linked Medicine.
type MedicineMinimum struct {
	ID                  int64  `json:"id" db:"id"`
	ItemID              *int64 `json:"item_id,omitempty" db:"item_id"`
	Name                string `json:"name" db:"name"`
	Packaging           string `json:"packaging,omitempty" db:"packaging"`
	CategoryID          *int64 `json:"category_id,omitempty" db:"category_id"`
	SubcategoryID       *int64 `json:"subcategory_id,omitempty" db:"subcategory_id"`
	SubSubcategoryID    *int64 `json:"sub_subcategory_id,omitempty" db:"sub_subcategory_id"`
	MinimumRequired     int    `json:"minimum_required" db:"minimum_required"`
	Storage             string `json:"storage" db:"storage"`
	KeptOnBaseInventory bool   `json:"kept_on_base_inventory" db:"kept_on_base_inventory"`
}

// EquipmentMinimum is a row of the equipment minimum-stock list.
type EquipmentMinimum struct {
	ID              int64  `json:"id" db:"id"`
	ItemID          *int64 `json:"item_id,omitempty" db:"item_id"`
	Name            string `json:"name" db:"name"`
	Packaging       string `json:"packaging,omitempty" db:"packaging"`
	CategoryID      *int64 `json:"category_id,omitempty" db:"category_id"`
	SubcategoryID   *int64 `json:"subcategory_id,omitempty" db:"subcategory_id"`
	MinimumRequired int    `json:"minimum_required" db:"minimum_required"`
}
