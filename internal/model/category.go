package model

// Category is a top-level classification node.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Subcategory belongs to a Category.
type Subcategory struct {
	ID         int64  `json:"id" db:"id"`
	CategoryID int64  `json:"category_id" db:"category_id"`
	Name       string `json:"name" db:"name"`
}

// SubSubcategory belongs to a medicine Subcategory.
type SubSubcategory struct {
	ID            int64  `json:"id" db:"id"`
	SubcategoryID int64  `json:"subcategory_id" db:"subcategory_id"`
	Name          string `json:"name" db:"name"`
}

// Sentinel keys used when grouping items with missing category links.
const (
	GroupUncategorized = "Uncategorized"
	GroupNone          = "null"
)
