package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
)

func categoryTable(kind model.Kind) string {
	if kind == model.KindEquipment {
		return "equipment_categories"
	}
	return "medicine_categories"
}

func subcategoryTable(kind model.Kind) string {
	if kind == model.KindEquipment {
		return "equipment_subcategories"
	}
	return "medicine_subcategories"
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		v := &ValidationError{}
		v.add("name", "required")
		return v
	}
	return nil
}

// CreateCategory creates a top-level category.
func CreateCategory(ctx context.Context, db *sqlx.DB, kind model.Kind, name string) (*model.Category, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	result, err := db.ExecContext(ctx, `INSERT INTO `+categoryTable(kind)+` (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", constraintError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}
	return &model.Category{ID: id, Name: name}, nil
}

// ListCategories returns all top-level categories of a kind ordered by id.
func ListCategories(ctx context.Context, db *sqlx.DB, kind model.Kind) ([]model.Category, error) {
	var categories []model.Category
	err := db.SelectContext(ctx, &categories, `SELECT id, name FROM `+categoryTable(kind)+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory deletes a category. Its subcategories and their
// sub-subcategories are removed by cascade; items keep their category ids.
func DeleteCategory(ctx context.Context, db *sqlx.DB, kind model.Kind, id int64) error {
	return deleteRow(ctx, db, categoryTable(kind), id)
}

// CreateSubcategory creates a subcategory under categoryID.
func CreateSubcategory(ctx context.Context, db *sqlx.DB, kind model.Kind, categoryID int64, name string) (*model.Subcategory, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkRefs(ctx, tx, ref{"category_id", categoryTable(kind), &categoryID}); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO `+subcategoryTable(kind)+` (category_id, name) VALUES (?, ?)`, categoryID, name)
	if err != nil {
		return nil, fmt.Errorf("creating subcategory: %w", constraintError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting subcategory id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing subcategory: %w", err)
	}
	return &model.Subcategory{ID: id, CategoryID: categoryID, Name: name}, nil
}

// ListSubcategories returns the subcategories of categoryID ordered by id.
func ListSubcategories(ctx context.Context, db *sqlx.DB, kind model.Kind, categoryID int64) ([]model.Subcategory, error) {
	var subcategories []model.Subcategory
	err := db.SelectContext(ctx, &subcategories,
		`SELECT id, category_id, name FROM `+subcategoryTable(kind)+` WHERE category_id = ? ORDER BY id`,
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing subcategories: %w", err)
	}
	return subcategories, nil
}

// DeleteSubcategory deletes a subcategory and, for medicines, its
// sub-subcategories.
func DeleteSubcategory(ctx context.Context, db *sqlx.DB, kind model.Kind, id int64) error {
	return deleteRow(ctx, db, subcategoryTable(kind), id)
}

// CreateSubSubcategory creates a medicine sub-subcategory under subcategoryID.
func CreateSubSubcategory(ctx context.Context, db *sqlx.DB, subcategoryID int64, name string) (*model.SubSubcategory, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkRefs(ctx, tx, ref{"subcategory_id", "medicine_subcategories", &subcategoryID}); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO medicine_subsubcategories (subcategory_id, name) VALUES (?, ?)`, subcategoryID, name)
	if err != nil {
		return nil, fmt.Errorf("creating sub-subcategory: %w", constraintError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting sub-subcategory id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sub-subcategory: %w", err)
	}
	return &model.SubSubcategory{ID: id, SubcategoryID: subcategoryID, Name: name}, nil
}

// ListSubSubcategories returns the sub-subcategories of subcategoryID.
func ListSubSubcategories(ctx context.Context, db *sqlx.DB, subcategoryID int64) ([]model.SubSubcategory, error) {
	var out []model.SubSubcategory
	err := db.SelectContext(ctx, &out,
		`SELECT id, subcategory_id, name FROM medicine_subsubcategories WHERE subcategory_id = ? ORDER BY id`,
		subcategoryID)
	if err != nil {
		return nil, fmt.Errorf("listing sub-subcategories: %w", err)
	}
	return out, nil
}

// DeleteSubSubcategory deletes a medicine sub-subcategory.
func DeleteSubSubcategory(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteRow(ctx, db, "medicine_subsubcategories", id)
}

func deleteRow(ctx context.Context, db *sqlx.DB, table string, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, constraintError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryLabels maps category ids to display labels numbered by position,
// such as "1 Analgesics", "1.2 Oral" and "1.2.3 Tablets".
type CategoryLabels struct {
	Categories       map[int64]string `json:"categories"`
	Subcategories    map[int64]string `json:"subcategories"`
	SubSubcategories map[int64]string `json:"sub_subcategories,omitempty"`
}

// LoadCategoryLabels builds numbered labels for every category of a kind.
// Numbering follows id order within each parent.
func LoadCategoryLabels(ctx context.Context, db *sqlx.DB, kind model.Kind) (*CategoryLabels, error) {
	labels := &CategoryLabels{
		Categories:       map[int64]string{},
		Subcategories:    map[int64]string{},
		SubSubcategories: map[int64]string{},
	}

	categories, err := ListCategories(ctx, db, kind)
	if err != nil {
		return nil, err
	}
	var subs []model.Subcategory
	if err := db.SelectContext(ctx, &subs,
		`SELECT id, category_id, name FROM `+subcategoryTable(kind)+` ORDER BY category_id, id`); err != nil {
		return nil, fmt.Errorf("listing subcategories: %w", err)
	}
	var subsubs []model.SubSubcategory
	if kind == model.KindMedicine {
		if err := db.SelectContext(ctx, &subsubs,
			`SELECT id, subcategory_id, name FROM medicine_subsubcategories ORDER BY subcategory_id, id`); err != nil {
			return nil, fmt.Errorf("listing sub-subcategories: %w", err)
		}
	}

	prefix := map[int64]string{}
	for i, c := range categories {
		p := fmt.Sprintf("%d", i+1)
		prefix[c.ID] = p
		labels.Categories[c.ID] = p + " " + c.Name
	}

	subPrefix := map[int64]string{}
	counters := map[int64]int{}
	for _, s := range subs {
		parent, ok := prefix[s.CategoryID]
		if !ok {
			continue
		}
		counters[s.CategoryID]++
		p := fmt.Sprintf("%s.%d", parent, counters[s.CategoryID])
		subPrefix[s.ID] = p
		labels.Subcategories[s.ID] = p + " " + s.Name
	}

	subCounters := map[int64]int{}
	for _, ss := range subsubs {
		parent, ok := subPrefix[ss.SubcategoryID]
		if !ok {
			continue
		}
		subCounters[ss.SubcategoryID]++
		labels.SubSubcategories[ss.ID] = fmt.Sprintf("%s.%d %s", parent, subCounters[ss.SubcategoryID], ss.Name)
	}

	return labels, nil
}
