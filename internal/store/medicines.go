package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/dates"
	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/status"
)

// MedicineShared holds the medicine fields mirrored on the minimum list.
// Nil fields keep their previous value on update.
type MedicineShared struct {
	Name                *string `json:"name"`
	Packaging           *string `json:"packaging"`
	CategoryID          *int64  `json:"category_id"`
	SubcategoryID       *int64  `json:"subcategory_id"`
	SubSubcategoryID    *int64  `json:"sub_subcategory_id"`
	MinimumRequired     *int    `json:"minimum_required"`
	Storage             *string `json:"storage"`
	KeptOnBaseInventory *bool   `json:"kept_on_base_inventory"`
}

// MedicineFields is the input for creating or updating a medicine.
type MedicineFields struct {
	MedicineShared
	InitialQuantity  *int    `json:"initial_quantity"`
	ConsumedQuantity *int    `json:"consumed_quantity"`
	ExpiryDate       *string `json:"expiry_date"`
	ImportantStatus  *string `json:"important_status"`
}

const medicineColumns = `m.id, m.name, m.packaging, m.category_id, m.subcategory_id, m.sub_subcategory_id,
	m.initial_quantity, m.consumed_quantity, m.initial_quantity - m.consumed_quantity AS quantity,
	m.minimum_required, m.expiry_date, m.expiry_status, m.procurement_status, m.procurement_order,
	m.important_status, m.storage, m.kept_on_base_inventory, m.last_modified_by, m.minimum_id,
	m.image_mime, m.updated_at`

func (f MedicineShared) apply(m *model.Medicine) {
	if f.Name != nil {
		m.Name = strings.TrimSpace(*f.Name)
	}
	if f.Packaging != nil {
		m.Packaging = *f.Packaging
	}
	if f.CategoryID != nil {
		m.CategoryID = f.CategoryID
	}
	if f.SubcategoryID != nil {
		m.SubcategoryID = f.SubcategoryID
	}
	if f.SubSubcategoryID != nil {
		m.SubSubcategoryID = f.SubSubcategoryID
	}
	if f.MinimumRequired != nil {
		m.MinimumRequired = *f.MinimumRequired
	}
	if f.Storage != nil {
		m.Storage = *f.Storage
	}
	if f.KeptOnBaseInventory != nil {
		m.KeptOnBaseInventory = *f.KeptOnBaseInventory
	}
}

func (f MedicineShared) refs() []ref {
	return []ref{
		{"category_id", "medicine_categories", f.CategoryID},
		{"subcategory_id", "medicine_subcategories", f.SubcategoryID},
		{"sub_subcategory_id", "medicine_subsubcategories", f.SubSubcategoryID},
	}
}

func (f MedicineFields) apply(m *model.Medicine) {
	f.MedicineShared.apply(m)
	if f.InitialQuantity != nil {
		m.InitialQuantity = *f.InitialQuantity
	}
	if f.ConsumedQuantity != nil {
		m.ConsumedQuantity = *f.ConsumedQuantity
	}
	if f.ExpiryDate != nil {
		m.ExpiryDate = dates.Normalize(strings.TrimSpace(*f.ExpiryDate))
	}
	if f.ImportantStatus != nil {
		m.ImportantStatus = *f.ImportantStatus
	}
}

func validateMedicine(m *model.Medicine) error {
	v := &ValidationError{}
	if m.Name == "" {
		v.add("name", "required")
	}
	if m.InitialQuantity < 0 {
		v.add("initial_quantity", "must not be negative")
	}
	if m.ConsumedQuantity < 0 {
		v.add("consumed_quantity", "must not be negative")
	}
	if m.MinimumRequired < 0 {
		v.add("minimum_required", "must not be negative")
	}
	if !model.ValidStorage(m.Storage) {
		v.add("storage", "must be standard, freezer or narcotic_cabinet")
	}
	return v.err()
}

// CreateMedicine creates a medicine, links it to a minimum-list row and
// derives its status, all in one transaction.
func CreateMedicine(ctx context.Context, db *sqlx.DB, f MedicineFields, user string) (*model.Medicine, error) {
	m := &model.Medicine{Storage: model.StorageStandard, LastModifiedBy: user}
	f.apply(m)
	if err := validateMedicine(m); err != nil {
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
		`INSERT INTO medicines (name, packaging, category_id, subcategory_id, sub_subcategory_id,
		                        initial_quantity, consumed_quantity, minimum_required, expiry_date,
		                        important_status, storage, kept_on_base_inventory, last_modified_by)
		 VALUES (:name, :packaging, :category_id, :subcategory_id, :sub_subcategory_id,
		         :initial_quantity, :consumed_quantity, :minimum_required, :expiry_date,
		         :important_status, :storage, :kept_on_base_inventory, :last_modified_by)`, m)
	if err != nil {
		return nil, fmt.Errorf("creating medicine: %w", constraintError(err))
	}
	m.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting medicine id: %w", err)
	}

	if err := syncMedicineMirror(ctx, tx, m); err != nil {
		return nil, err
	}
	if _, err := recompute(ctx, tx, medicineTable, []int64{m.ID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing medicine: %w", err)
	}
	return GetMedicine(ctx, db, m.ID)
}

// GetMedicine returns a medicine by ID, or nil if it does not exist.
func GetMedicine(ctx context.Context, db *sqlx.DB, id int64) (*model.Medicine, error) {
	return getMedicine(ctx, db, id)
}

func getMedicine(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Medicine, error) {
	m := &model.Medicine{}
	err := sqlx.GetContext(ctx, q, m, `SELECT `+medicineColumns+` FROM medicines m WHERE m.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting medicine: %w", err)
	}
	return m, nil
}

// ListMedicines returns all medicines ordered by category and id.
func ListMedicines(ctx context.Context, db *sqlx.DB) ([]model.Medicine, error) {
	var medicines []model.Medicine
	err := db.SelectContext(ctx, &medicines,
		`SELECT `+medicineColumns+` FROM medicines m ORDER BY m.category_id, m.id`)
	if err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}
	return medicines, nil
}

// UpdateMedicine applies a partial update. The linked minimum-list row and
// the medicine's status are updated in the same transaction.
func UpdateMedicine(ctx context.Context, db *sqlx.DB, id int64, f MedicineFields, user string) (*model.Medicine, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	m, err := getMedicine(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}

	f.apply(m)
	m.LastModifiedBy = user
	if err := validateMedicine(m); err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, tx, f.refs()...); err != nil {
		return nil, err
	}

	if err := writeMedicine(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := syncMedicineMirror(ctx, tx, m); err != nil {
		return nil, err
	}
	if _, err := recompute(ctx, tx, medicineTable, []int64{m.ID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing medicine update: %w", err)
	}
	return GetMedicine(ctx, db, id)
}

func writeMedicine(ctx context.Context, tx *sqlx.Tx, m *model.Medicine) error {
	_, err := tx.NamedExecContext(ctx,
		`UPDATE medicines SET name = :name, packaging = :packaging, category_id = :category_id,
		        subcategory_id = :subcategory_id, sub_subcategory_id = :sub_subcategory_id,
		        initial_quantity = :initial_quantity, consumed_quantity = :consumed_quantity,
		        minimum_required = :minimum_required, expiry_date = :expiry_date,
		        important_status = :important_status, storage = :storage,
		        kept_on_base_inventory = :kept_on_base_inventory, last_modified_by = :last_modified_by,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = :id`, m)
	if err != nil {
		return fmt.Errorf("updating medicine: %w", constraintError(err))
	}
	return nil
}

// DeleteMedicine deletes a medicine together with its minimum-list row.
// Order and utilization lines referencing it are removed by cascade.
func DeleteMedicine(ctx context.Context, db *sqlx.DB, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var minimumID sql.NullInt64
	err = tx.GetContext(ctx, &minimumID, `SELECT minimum_id FROM medicines WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting medicine: %w", err)
	}

	if err := deleteItem(ctx, tx, medicineTable, id); err != nil {
		return err
	}
	if minimumID.Valid {
		if _, err := tx.ExecContext(ctx, `DELETE FROM medicine_minimum WHERE id = ?`, minimumID.Int64); err != nil {
			return fmt.Errorf("deleting medicine minimum row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing medicine deletion: %w", err)
	}
	return nil
}

// syncMedicineMirror pushes the mirrored fields of m to its minimum-list
// row, adopting an unlinked row with the same name or creating one if m has
// no link yet.
func syncMedicineMirror(ctx context.Context, tx *sqlx.Tx, m *model.Medicine) error {
	if m.MinimumID == nil {
		minimumID, err := adoptOrCreateMinimum(ctx, tx, medicineTable, m.ID, m.Name)
		if err != nil {
			return err
		}
		m.MinimumID = &minimumID
	}

	_, err := tx.NamedExecContext(ctx,
		`UPDATE medicine_minimum SET name = :name, packaging = :packaging, category_id = :category_id,
		        subcategory_id = :subcategory_id, sub_subcategory_id = :sub_subcategory_id,
		        minimum_required = :minimum_required, storage = :storage,
		        kept_on_base_inventory = :kept_on_base_inventory
		 WHERE id = :minimum_id`, m)
	if err != nil {
		return fmt.Errorf("syncing medicine minimum row: %w", err)
	}
	return nil
}

// adoptOrCreateMinimum links item id to an unlinked minimum-list row named
// name, creating the row if there is none, and returns the row id.
func adoptOrCreateMinimum(ctx context.Context, tx *sqlx.Tx, t itemTable, id int64, name string) (int64, error) {
	var minimumID int64
	err := tx.GetContext(ctx, &minimumID,
		`SELECT id FROM `+t.minimum+` WHERE item_id IS NULL AND name = ? ORDER BY id LIMIT 1`, name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		result, err := tx.ExecContext(ctx,
			`INSERT INTO `+t.minimum+` (item_id, name) VALUES (?, ?)`, id, name)
		if err != nil {
			return 0, fmt.Errorf("creating %s row: %w", t.minimum, err)
		}
		if minimumID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("getting %s id: %w", t.minimum, err)
		}
	case err != nil:
		return 0, fmt.Errorf("finding %s row: %w", t.minimum, err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+t.minimum+` SET item_id = ? WHERE id = ?`, id, minimumID); err != nil {
			return 0, fmt.Errorf("adopting %s row: %w", t.minimum, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE `+t.items+` SET minimum_id = ? WHERE id = ?`, minimumID, id); err != nil {
		return 0, fmt.Errorf("linking %s %d: %w", t.kind, id, err)
	}
	return minimumID, nil
}

// MedicineGroups nests medicines by category, subcategory and
// sub-subcategory name, in category id then medicine id order.
type MedicineGroups = Groups[*Groups[*Groups[[]model.Medicine]]]

// ListMedicinesGrouped returns medicines grouped by category names. Missing
// or dangling category and subcategory links group under "Uncategorized";
// medicines without a sub-subcategory group under "null".
func ListMedicinesGrouped(ctx context.Context, db *sqlx.DB) (*MedicineGroups, error) {
	var rows []struct {
		model.Medicine
		CategoryName       *string `db:"category_name"`
		SubcategoryName    *string `db:"subcategory_name"`
		SubSubcategoryName *string `db:"sub_subcategory_name"`
	}
	err := db.SelectContext(ctx, &rows,
		`SELECT `+medicineColumns+`, c.name AS category_name, s.name AS subcategory_name,
		        ss.name AS sub_subcategory_name
		 FROM medicines m
		 LEFT JOIN medicine_categories c ON c.id = m.category_id
		 LEFT JOIN medicine_subcategories s ON s.id = m.subcategory_id
		 LEFT JOIN medicine_subsubcategories ss ON ss.id = m.sub_subcategory_id
		 ORDER BY m.category_id, m.id`)
	if err != nil {
		return nil, fmt.Errorf("listing medicines by category: %w", err)
	}

	groups := newGroups[*Groups[*Groups[[]model.Medicine]]]()
	for _, r := range rows {
		cat := groups.child(groupKey(r.CategoryName, model.GroupUncategorized),
			newGroups[*Groups[[]model.Medicine]])
		sub := cat.child(groupKey(r.SubcategoryName, model.GroupUncategorized),
			newGroups[[]model.Medicine])
		subsub := groupKey(r.SubSubcategoryName, model.GroupNone)
		sub.set(subsub, append(sub.Get(subsub), r.Medicine))
	}
	return groups, nil
}

// MedicineAttention is a medicine whose expiry status will differ from the
// stored one at a reference date.
type MedicineAttention struct {
	model.Medicine
	ProjectedExpiryStatus string `json:"projected_expiry_status"`
}

// ListMedicinesNeedingAttention returns medicines whose expiry status
// recomputed at the reference date differs from the stored status.
func ListMedicinesNeedingAttention(ctx context.Context, db *sqlx.DB, at time.Time) ([]MedicineAttention, error) {
	medicines, err := ListMedicines(ctx, db)
	if err != nil {
		return nil, err
	}

	var out []MedicineAttention
	for _, m := range medicines {
		projected := status.ClassifyExpiry(m.ExpiryDate, m.Quantity, at)
		if projected != m.ExpiryStatus {
			out = append(out, MedicineAttention{Medicine: m, ProjectedExpiryStatus: projected})
		}
	}
	return out, nil
}
