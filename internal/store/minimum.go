package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
)

const medicineMinimumColumns = `id, item_id, name, packaging, category_id, subcategory_id, sub_subcategory_id,
	minimum_required, storage, kept_on_base_inventory`

const equipmentMinimumColumns = `id, item_id, name, packaging, category_id, subcategory_id, minimum_required`

func (f MedicineShared) applyMinimum(r *model.MedicineMinimum) {
	m := &model.Medicine{
		Name:                r.Name,
		Packaging:           r.Packaging,
		CategoryID:          r.CategoryID,
		SubcategoryID:       r.SubcategoryID,
		SubSubcategoryID:    r.SubSubcategoryID,
		MinimumRequired:     r.MinimumRequired,
		Storage:             r.Storage,
		KeptOnBaseInventory: r.KeptOnBaseInventory,
	}
	f.apply(m)
	r.Name = m.Name
	r.Packaging = m.Packaging
	r.CategoryID = m.CategoryID
	r.SubcategoryID = m.SubcategoryID
	r.SubSubcategoryID = m.SubSubcategoryID
	r.MinimumRequired = m.MinimumRequired
	r.Storage = m.Storage
	r.KeptOnBaseInventory = m.KeptOnBaseInventory
}

func validateMedicineMinimum(r *model.MedicineMinimum) error {
	v := &ValidationError{}
	if strings.TrimSpace(r.Name) == "" {
		v.add("name", "required")
	}
	if r.MinimumRequired < 0 {
		v.add("minimum_required", "must not be negative")
	}
	if !model.ValidStorage(r.Storage) {
		v.add("storage", "must be standard, freezer or narcotic_cabinet")
	}
	return v.err()
}

// ListMedicineMinimum returns the medicine minimum-stock list.
func ListMedicineMinimum(ctx context.Context, db *sqlx.DB) ([]model.MedicineMinimum, error) {
	var rows []model.MedicineMinimum
	err := db.SelectContext(ctx, &rows,
		`SELECT `+medicineMinimumColumns+` FROM medicine_minimum ORDER BY category_id, id`)
	if err != nil {
		return nil, fmt.Errorf("listing medicine minimum: %w", err)
	}
	return rows, nil
}

// GetMedicineMinimum returns a medicine minimum-list row, or nil if it does
// not exist.
func GetMedicineMinimum(ctx context.Context, db *sqlx.DB, id int64) (*model.MedicineMinimum, error) {
	return getMedicineMinimum(ctx, db, id)
}

func getMedicineMinimum(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.MedicineMinimum, error) {
	r := &model.MedicineMinimum{}
	err := sqlx.GetContext(ctx, q, r, `SELECT `+medicineMinimumColumns+` FROM medicine_minimum WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting medicine minimum row: %w", err)
	}
	return r, nil
}

// CreateMedicineMinimum adds a row to the medicine minimum list together
// with an empty medicine linked to it.
func CreateMedicineMinimum(ctx context.Context, db *sqlx.DB, f MedicineShared, user string) (*model.MedicineMinimum, error) {
	r := &model.MedicineMinimum{Storage: model.StorageStandard}
	f.applyMinimum(r)
	if err := validateMedicineMinimum(r); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkRefs(ctx, tx, f.refs()...); err != nil {
		return nil, err
	}

	result, err := tx.NamedExecContext(ctx,
		`INSERT INTO medicine_minimum (name, packaging, category_id, subcategory_id, sub_subcategory_id,
		                               minimum_required, storage, kept_on_base_inventory)
		 VALUES (:name, :packaging, :category_id, :subcategory_id, :sub_subcategory_id,
		         :minimum_required, :storage, :kept_on_base_inventory)`, r)
	if err != nil {
		return nil, fmt.Errorf("creating medicine minimum row: %w", constraintError(err))
	}
	if r.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting medicine minimum id: %w", err)
	}

	if err := syncMedicineFromMinimum(ctx, tx, r, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing medicine minimum row: %w", err)
	}
	return GetMedicineMinimum(ctx, db, r.ID)
}

// UpdateMedicineMinimum changes a minimum-list row and propagates the
// change to its medicine.
func UpdateMedicineMinimum(ctx context.Context, db *sqlx.DB, id int64, f MedicineShared, user string) (*model.MedicineMinimum, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := getMedicineMinimum(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}

	f.applyMinimum(r)
	if err := validateMedicineMinimum(r); err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, tx, f.refs()...); err != nil {
		return nil, err
	}

	_, err = tx.NamedExecContext(ctx,
		`UPDATE medicine_minimum SET name = :name, packaging = :packaging, category_id = :category_id,
		        subcategory_id = :subcategory_id, sub_subcategory_id = :sub_subcategory_id,
		        minimum_required = :minimum_required, storage = :storage,
		        kept_on_base_inventory = :kept_on_base_inventory
		 WHERE id = :id`, r)
	if err != nil {
		return nil, fmt.Errorf("updating medicine minimum row: %w", constraintError(err))
	}

	if err := syncMedicineFromMinimum(ctx, tx, r, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing medicine minimum update: %w", err)
	}
	return GetMedicineMinimum(ctx, db, id)
}

// DeleteMedicineMinimum removes a minimum-list row and its medicine.
func DeleteMedicineMinimum(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteMinimum(ctx, db, medicineTable, id)
}

// syncMedicineFromMinimum pushes the mirrored fields of r to its medicine,
// creating the medicine if r is not linked yet, and re-derives its status.
func syncMedicineFromMinimum(ctx context.Context, tx *sqlx.Tx, r *model.MedicineMinimum, user string) error {
	m := &model.Medicine{
		Name:                r.Name,
		Packaging:           r.Packaging,
		CategoryID:          r.CategoryID,
		SubcategoryID:       r.SubcategoryID,
		SubSubcategoryID:    r.SubSubcategoryID,
		MinimumRequired:     r.MinimumRequired,
		Storage:             r.Storage,
		KeptOnBaseInventory: r.KeptOnBaseInventory,
		LastModifiedBy:      user,
		MinimumID:           &r.ID,
	}

	if r.ItemID == nil {
		result, err := tx.NamedExecContext(ctx,
			`INSERT INTO medicines (name, packaging, category_id, subcategory_id, sub_subcategory_id,
			                        minimum_required, storage, kept_on_base_inventory, last_modified_by, minimum_id)
			 VALUES (:name, :packaging, :category_id, :subcategory_id, :sub_subcategory_id,
			         :minimum_required, :storage, :kept_on_base_inventory, :last_modified_by, :minimum_id)`, m)
		if err != nil {
			return fmt.Errorf("creating medicine for minimum row: %w", constraintError(err))
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting medicine id: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE medicine_minimum SET item_id = ? WHERE id = ?`, id, r.ID); err != nil {
			return fmt.Errorf("linking medicine minimum row: %w", err)
		}
		r.ItemID = &id
	} else {
		m.ID = *r.ItemID
		_, err := tx.NamedExecContext(ctx,
			`UPDATE medicines SET name = :name, packaging = :packaging, category_id = :category_id,
			        subcategory_id = :subcategory_id, sub_subcategory_id = :sub_subcategory_id,
			        minimum_required = :minimum_required, storage = :storage,
			        kept_on_base_inventory = :kept_on_base_inventory, last_modified_by = :last_modified_by,
			        updated_at = CURRENT_TIMESTAMP
			 WHERE id = :id`, m)
		if err != nil {
			return fmt.Errorf("syncing medicine from minimum row: %w", constraintError(err))
		}
	}

	_, err := recompute(ctx, tx, medicineTable, []int64{*r.ItemID})
	return err
}

func (f EquipmentShared) applyMinimum(r *model.EquipmentMinimum) {
	e := &model.Equipment{
		Name:            r.Name,
		Packaging:       r.Packaging,
		CategoryID:      r.CategoryID,
		SubcategoryID:   r.SubcategoryID,
		MinimumRequired: r.MinimumRequired,
	}
	f.apply(e)
	r.Name = e.Name
	r.Packaging = e.Packaging
	r.CategoryID = e.CategoryID
	r.SubcategoryID = e.SubcategoryID
	r.MinimumRequired = e.MinimumRequired
}

func validateEquipmentMinimum(r *model.EquipmentMinimum) error {
	v := &ValidationError{}
	if strings.TrimSpace(r.Name) == "" {
		v.add("name", "required")
	}
	if r.MinimumRequired < 0 {
		v.add("minimum_required", "must not be negative")
	}
	return v.err()
}

// ListEquipmentMinimum returns the equipment minimum-stock list.
func ListEquipmentMinimum(ctx context.Context, db *sqlx.DB) ([]model.EquipmentMinimum, error) {
	var rows []model.EquipmentMinimum
	err := db.SelectContext(ctx, &rows,
		`SELECT `+equipmentMinimumColumns+` FROM equipment_minimum ORDER BY category_id, id`)
	if err != nil {
		return nil, fmt.Errorf("listing equipment minimum: %w", err)
	}
	return rows, nil
}

// GetEquipmentMinimum returns an equipment minimum-list row, or nil if it
// does not exist.
func GetEquipmentMinimum(ctx context.Context, db *sqlx.DB, id int64) (*model.EquipmentMinimum, error) {
	return getEquipmentMinimum(ctx, db, id)
}

func getEquipmentMinimum(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.EquipmentMinimum, error) {
	r := &model.EquipmentMinimum{}
	err := sqlx.GetContext(ctx, q, r, `SELECT `+equipmentMinimumColumns+` FROM equipment_minimum WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment minimum row: %w", err)
	}
	return r, nil
}

// CreateEquipmentMinimum adds a row to the equipment minimum list together
// with an empty equipment item linked to it.
func CreateEquipmentMinimum(ctx context.Context, db *sqlx.DB, f EquipmentShared, user string) (*model.EquipmentMinimum, error) {
	r := &model.EquipmentMinimum{}
	f.applyMinimum(r)
	if err := validateEquipmentMinimum(r); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkRefs(ctx, tx, f.refs()...); err != nil {
		return nil, err
	}

	result, err := tx.NamedExecContext(ctx,
		`INSERT INTO equipment_minimum (name, packaging, category_id, subcategory_id, minimum_required)
		 VALUES (:name, :packaging, :category_id, :subcategory_id, :minimum_required)`, r)
	if err != nil {
		return nil, fmt.Errorf("creating equipment minimum row: %w", constraintError(err))
	}
	if r.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting equipment minimum id: %w", err)
	}

	if err := syncEquipmentFromMinimum(ctx, tx, r, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing equipment minimum row: %w", err)
	}
	return GetEquipmentMinimum(ctx, db, r.ID)
}

// UpdateEquipmentMinimum changes a minimum-list row and propagates the
// change to its equipment item.
func UpdateEquipmentMinimum(ctx context.Context, db *sqlx.DB, id int64, f EquipmentShared, user string) (*model.EquipmentMinimum, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := getEquipmentMinimum(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}

	f.applyMinimum(r)
	if err := validateEquipmentMinimum(r); err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, tx, f.refs()...); err != nil {
		return nil, err
	}

	_, err = tx.NamedExecContext(ctx,
		`UPDATE equipment_minimum SET name = :name, packaging = :packaging, category_id = :category_id,
		        subcategory_id = :subcategory_id, minimum_required = :minimum_required
		 WHERE id = :id`, r)
	if err != nil {
		return nil, fmt.Errorf("updating equipment minimum row: %w", constraintError(err))
	}

	if err := syncEquipmentFromMinimum(ctx, tx, r, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing equipment minimum update: %w", err)
	}
	return GetEquipmentMinimum(ctx, db, id)
}

// DeleteEquipmentMinimum removes a minimum-list row and its equipment item.
func DeleteEquipmentMinimum(ctx context.Context, db *sqlx.DB, id int64) error {
	return deleteMinimum(ctx, db, equipmentTable, id)
}

func syncEquipmentFromMinimum(ctx context.Context, tx *sqlx.Tx, r *model.EquipmentMinimum, user string) error {
	e := &model.Equipment{
		Name:            r.Name,
		Packaging:       r.Packaging,
		CategoryID:      r.CategoryID,
		SubcategoryID:   r.SubcategoryID,
		MinimumRequired: r.MinimumRequired,
		LastModifiedBy:  user,
		MinimumID:       &r.ID,
	}

	if r.ItemID == nil {
		result, err := tx.NamedExecContext(ctx,
			`INSERT INTO equipment (name, packaging, category_id, subcategory_id, minimum_required,
			                        last_modified_by, minimum_id)
			 VALUES (:name, :packaging, :category_id, :subcategory_id, :minimum_required,
			         :last_modified_by, :minimum_id)`, e)
		if err != nil {
			return fmt.Errorf("creating equipment for minimum row: %w", constraintError(err))
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting equipment id: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE equipment_minimum SET item_id = ? WHERE id = ?`, id, r.ID); err != nil {
			return fmt.Errorf("linking equipment minimum row: %w", err)
		}
		r.ItemID = &id
	} else {
		e.ID = *r.ItemID
		_, err := tx.NamedExecContext(ctx,
			`UPDATE equipment SET name = :name, packaging = :packaging, category_id = :category_id,
			        subcategory_id = :subcategory_id, minimum_required = :minimum_required,
			        last_modified_by = :last_modified_by, updated_at = CURRENT_TIMESTAMP
			 WHERE id = :id`, e)
		if err != nil {
			return fmt.Errorf("syncing equipment from minimum row: %w", constraintError(err))
		}
	}

	_, err := recompute(ctx, tx, equipmentTable, []int64{*r.ItemID})
	return err
}

func deleteMinimum(ctx context.Context, db *sqlx.DB, t itemTable, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID sql.NullInt64
	err = tx.GetContext(ctx, &itemID, `SELECT item_id FROM `+t.minimum+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting %s row: %w", t.minimum, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.minimum+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting %s row: %w", t.minimum, err)
	}
	if itemID.Valid {
		if err := deleteItem(ctx, tx, t, itemID.Int64); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s deletion: %w", t.minimum, err)
	}
	return nil
}
