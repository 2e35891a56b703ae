package model

import "time"

// Medicine is a medicine record. Quantity on hand is InitialQuantity minus
// ConsumedQuantity and is returned precomputed in Quantity.
type Medicine struct {
	ID                  int64     `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Packaging           string    `json:"packaging,omitempty" db:"packaging"`
	CategoryID          *int64    `json:"category_id,omitempty" db:"category_id"`
	SubcategoryID       *int64    `json:"subcategory_id,omitempty" db:"subcategory_id"`
	SubSubcategoryID    *int64    `json:"sub_subcategory_id,omitempty" db:"sub_subcategory_id"`
	InitialQuantity     int       `json:"initial_quantity" db:"initial_quantity"`
	ConsumedQuantity    int       `json:"consumed_quantity" db:"consumed_quantity"`
	Quantity            int       `json:"quantity" db:"quantity"`
	MinimumRequired     int       `json:"minimum_required" db:"minimum_required"`
	ExpiryDate          string    `json:"expiry_date,omitempty" db:"expiry_date"`
	ExpiryStatus        string    `json:"expiry_status" db:"expiry_status"`
	ProcurementStatus   string    `json:"procurement_status" db:"procurement_status"`
	ProcurementOrder    string    `json:"procurement_order,omitempty" db:"procurement_order"`
	ImportantStatus     string    `json:"important_status,omitempty" db:"important_status"`
	Storage             string    `json:"storage" db:"storage"`
	KeptOnBaseInventory bool      `json:"kept_on_base_inventory" db:"kept_on_base_inventory"`
	LastModifiedBy      string    `json:"last_modified_by,omitempty" db:"last_modified_by"`
	MinimumID           *int64    `json:"minimum_id,omitempty" db:"minimum_id"`
	ImageMime           string    `json:"image_mime,omitempty" db:"image_mime"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Medicine storage locations.
const (
	StorageStandard        = "standard"
	StorageFreezer         = "freezer"
	StorageNarcoticCabinet = "narcotic_cabinet"
)

// ValidStorage reports whether s is a known storage location.
func ValidStorage(s string) bool {
	return s == StorageStandard || s == StorageFreezer || s == StorageNarcoticCabinet
}
