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

// EquipmentShared holds the equipment fields mirrored on the minimum list.
type EquipmentShared struct {
	Name            *string `json:"name"`
	Packaging       *string `json:"packaging"`
	CategoryID      *int64  `json:"category_id"`
	SubcategoryID   *int64  `json:"subcategory_id"`
	MinimumRequired *int    `json:"minimum_required"`
}

// EquipmentFields is the input for creating or updating equipment.
type EquipmentFields struct {
	EquipmentShared
	CurrentQuantity *int    `json:"current_quantity"`
	ExpiryDate      *string `json:"expiry_date"`
	Status          *string `json:"status"`
	OnShip          *bool   `json:"on_ship"`
	InRescueBag     *bool   `json:"in_rescue_bag"`
}

const equipmentColumns = `e.id, e.name, e.packaging, e.category_id, e.subcategory_id, e.current_quantity,
	e.minimum_required, e.expiry_date, e.expiry_status, e.procurement_status, e.procurement_order,
	e.status, e.on_ship, e.in_rescue_bag, e.last_modified_by, e.minimum_id, e.image_mime, e.updated_at`

func (f EquipmentShared) apply(e *model.Equipment) {
	if f.Name != nil {
		e.Name = strings.TrimSpace(*f.Name)
	}
	if f.Packaging != nil {
		e.Packaging = *f.Packaging
	}
	if f.CategoryID != nil {
		e.CategoryID = f.CategoryID
	}
	if f.SubcategoryID != nil {
		e.SubcategoryID = f.SubcategoryID
	}
	if f.MinimumRequired != nil {
		e.MinimumRequired = *f.MinimumRequired
	}
}

func (f EquipmentShared) refs() []ref {
	return []ref{
		{"category_id", "equipment_categories", f.CategoryID},
		{"subcategory_id", "equipment_subcategories", f.SubcategoryID},
	}
}

func (f EquipmentFields) apply(e *model.Equipment) {
	f.EquipmentShared.apply(e)
	if f.CurrentQuantity != nil {
		e.CurrentQuantity = *f.CurrentQuantity
	}
	if f.ExpiryDate != nil {
		e.ExpiryDate = dates.Normalize(strings.TrimSpace(*f.ExpiryDate))
	}
	if f.Status != nil {
		e.Status = *f.Status
	}
	if f.OnShip != nil {
		e.OnShip = *f.OnShip
	}
	if f.InRescueBag != nil {
		e.InRescueBag = *f.InRescueBag
	}
}

func validateEquipment(e *model.Equipment) error {
	v := &ValidationError{}
	if e.Name == "" {
		v.add("name", "required")
	}
	if e.CurrentQuantity < 0 {
		v.add("current_quantity", "must not be negative")
	}
	if e.MinimumRequired < 0 {
		v.add("minimum_required", "must not be negative")
	}
	return v.err()
}

// CreateEquipment creates an equipment item, links it to a minimum-list row
// and derives its status.
func CreateEquipment(ctx context.Context, db *sqlx.DB, f EquipmentFields, user string) (*model.Equipment, error) {
	e := &model.Equipment{LastModifiedBy: user}
	f.apply(e)
	if err := validateEquipment(e); err != nil {
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
		`INSERT INTO equipment (name, packaging, category_id, subcategory_id, current_quantity,
		                        minimum_required, expiry_date, status, on_ship, in_rescue_bag, last_modified_by)
		 VALUES (:name, :packaging, :category_id, :subcategory_id, :current_quantity,
		         :minimum_required, :expiry_date, :status, :on_ship, :in_rescue_bag, :last_modified_by)`, e)
	if err != nil {
		return nil, fmt.Errorf("creating equipment: %w", constraintError(err))
	}
	e.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting equipment id: %w", err)
	}

	if err := syncEquipmentMirror(ctx, tx, e); err != nil {
		return nil, err
	}
	if _, err := recompute(ctx, tx, equipmentTable, []int64{e.ID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing equipment: %w", err)
	}
	return GetEquipment(ctx, db, e.ID)
}

// GetEquipment returns an equipment item by ID, or nil if it does not exist.
func GetEquipment(ctx context.Context, db *sqlx.DB, id int64) (*model.Equipment, error) {
	return getEquipment(ctx, db, id)
}

func getEquipment(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Equipment, error) {
	e := &model.Equipment{}
	err := sqlx.GetContext(ctx, q, e, `SELECT `+equipmentColumns+` FROM equipment e WHERE e.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	return e, nil
}

// ListEquipment returns all equipment ordered by category and id.
func ListEquipment(ctx context.Context, db *sqlx.DB) ([]model.Equipment, error) {
	var equipment []model.Equipment
	err := db.SelectContext(ctx, &equipment,
		`SELECT `+equipmentColumns+` FROM equipment e ORDER BY e.category_id, e.id`)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	return equipment, nil
}

// UpdateEquipment applies a partial update, syncing the minimum list and
// status in the same transaction.
func UpdateEquipment(ctx context.Context, db *sqlx.DB, id int64, f EquipmentFields, user string) (*model.Equipment, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := getEquipment(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}

	f.apply(e)
	e.LastModifiedBy = user
	if err := validateEquipment(e); err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, tx, f.refs()...); err != nil {
		return nil, err
	}

	if err := writeEquipment(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := syncEquipmentMirror(ctx, tx, e); err != nil {
		return nil, err
	}
	if _, err := recompute(ctx, tx, equipmentTable, []int64{e.ID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing equipment update: %w", err)
	}
	return GetEquipment(ctx, db, id)
}

func writeEquipment(ctx context.Context, tx *sqlx.Tx, e *model.Equipment) error {
	_, err := tx.NamedExecContext(ctx,
		`UPDATE equipment SET name = :name, packaging = :packaging, category_id = :category_id,
		        subcategory_id = :subcategory_id, current_quantity = :current_quantity,
		        minimum_required = :minimum_required, expiry_date = :expiry_date, status = :status,
		        on_ship = :on_ship, in_rescue_bag = :in_rescue_bag, last_modified_by = :last_modified_by,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = :id`, e)
	if err != nil {
		return fmt.Errorf("updating equipment: %w", constraintError(err))
	}
	return nil
}

// DeleteEquipment deletes an equipment item together with its minimum-list row.
func DeleteEquipment(ctx context.Context, db *sqlx.DB, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var minimumID sql.NullInt64
	err = tx.GetContext(ctx, &minimumID, `SELECT minimum_id FROM equipment WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting equipment: %w", err)
	}

	if err := deleteItem(ctx, tx, equipmentTable, id); err != nil {
		return err
	}
	if minimumID.Valid {
		if _, err := tx.ExecContext(ctx, `DELETE FROM equipment_minimum WHERE id = ?`, minimumID.Int64); err != nil {
			return fmt.Errorf("deleting equipment minimum row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing equipment deletion: %w", err)
	}
	return nil
}

func syncEquipmentMirror(ctx context.Context, tx *sqlx.Tx, e *model.Equipment) error {
	if e.MinimumID == nil {
		minimumID, err := adoptOrCreateMinimum(ctx, tx, equipmentTable, e.ID, e.Name)
		if err != nil {
			return err
		}
		e.MinimumID = &minimumID
	}

	_, err := tx.NamedExecContext(ctx,
		`UPDATE equipment_minimum SET name = :name, packaging = :packaging, category_id = :category_id,
		        subcategory_id = :subcategory_id, minimum_required = :minimum_required
		 WHERE id = :minimum_id`, e)
	if err != nil {
		return fmt.Errorf("syncing equipment minimum row: %w", err)
	}
	return nil
}

// EquipmentGroups nests equipment by category and subcategory name, in
// category id then equipment id order.
type EquipmentGroups = Groups[*Groups[[]model.Equipment]]

// ListEquipmentGrouped returns equipment grouped by category names.
func ListEquipmentGrouped(ctx context.Context, db *sqlx.DB) (*EquipmentGroups, error) {
	var rows []struct {
		model.Equipment
		CategoryName    *string `db:"category_name"`
		SubcategoryName *string `db:"subcategory_name"`
	}
	err := db.SelectContext(ctx, &rows,
		`SELECT `+equipmentColumns+`, c.name AS category_name, s.name AS subcategory_name
		 FROM equipment e
		 LEFT JOIN equipment_categories c ON c.id = e.category_id
		 LEFT JOIN equipment_subcategories s ON s.id = e.subcategory_id
		 ORDER BY e.category_id, e.id`)
	if err != nil {
		return nil, fmt.Errorf("listing equipment by category: %w", err)
	}

	groups := newGroups[*Groups[[]model.Equipment]]()
	for _, r := range rows {
		cat := groups.child(groupKey(r.CategoryName, model.GroupUncategorized),
			newGroups[[]model.Equipment])
		sub := groupKey(r.SubcategoryName, model.GroupUncategorized)
		cat.set(sub, append(cat.Get(sub), r.Equipment))
	}
	return groups, nil
}

// EquipmentAttention is equipment whose expiry status will differ from the
// stored one at a reference date.
type EquipmentAttention struct {
	model.Equipment
	ProjectedExpiryStatus string `json:"projected_expiry_status"`
}

// ListEquipmentNeedingAttention returns equipment whose expiry status
// recomputed at the reference date differs from the stored status.
func ListEquipmentNeedingAttention(ctx context.Context, db *sqlx.DB, at time.Time) ([]EquipmentAttention, error) {
	equipment, err := ListEquipment(ctx, db)
	if err != nil {
		return nil, err
	}

	var out []EquipmentAttention
	for _, e := range equipment {
		projected := status.ClassifyExpiry(e.ExpiryDate, e.CurrentQuantity, at)
		if projected != e.ExpiryStatus {
			out = append(out, EquipmentAttention{Equipment: e, ProjectedExpiryStatus: projected})
		}
	}
	return out, nil
}
