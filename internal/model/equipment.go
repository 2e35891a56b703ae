package model

import "time"

// Equipment is an equipment record. Status is a free-text annotation that
// collects incoming batches with differing expiry dates.
type Equipment struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Packaging         string    `json:"packaging,omitempty" db:"packaging"`
	CategoryID        *int64    `json:"category_id,omitempty" db:"category_id"`
	SubcategoryID     *int64    `json:"subcategory_id,omitempty" db:"subcategory_id"`
	CurrentQuantity   int       `json:"current_quantity" db:"current_quantity"`
	MinimumRequired   int       `json:"minimum_required" db:"minimum_required"`
	ExpiryDate        string    `json:"expiry_date,omitempty" db:"expiry_date"`
	ExpiryStatus      string    `json:"expiry_status" db:"expiry_status"`
	ProcurementStatus string    `json:"procurement_status" db:"procurement_status"`
	ProcurementOrder  string    `json:"procurement_order,omitempty" db:"procurement_order"`
	Status            string    `json:"status,omitempty" db:"status"`
	OnShip            bool      `json:"on_ship" db:"on_ship"`
	InRescueBag       bool      `json:"in_rescue_bag" db:"in_rescue_bag"`
	LastModifiedBy    string    `json:"last_modified_by,omitempty" db:"last_modified_by"`
	MinimumID         *int64    `json:"minimum_id,omitempty" db:"minimum_id"`
	ImageMime         string    `json:"image_mime,omitempty" db:"image_mime"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
