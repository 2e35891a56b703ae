package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/ambulanta/internal/db"
	"github.com/erazemk/ambulanta/internal/model"
)

func TestMedicineMinimumCreatesMedicine(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, day0)

	r, err := CreateMedicineMinimum(ctx, database, MedicineShared{
		Name:            ptr("Ceftriaxone"),
		MinimumRequired: ptr(4),
		Storage:         ptr(model.StorageFreezer),
	}, "doc")
	if err != nil {
		t.Fatalf("CreateMedicineMinimum: %v", err)
	}
	if r.ItemID == nil {
		t.Fatal("expected minimum row to be linked to a medicine")
	}

	m, _ := GetMedicine(ctx, database, *r.ItemID)
	if m == nil || m.Name != "Ceftriaxone" || m.Storage != model.StorageFreezer || m.MinimumRequired != 4 {
		t.Fatalf("unexpected medicine: %+v", m)
	}
	if m.MinimumID == nil || *m.MinimumID != r.ID {
		t.Errorf("medicine not linked back to minimum row")
	}
	if m.ProcurementStatus != model.ProcurementNeedsOrder {
		t.Errorf("expected needs_order for an empty medicine, got %s", m.ProcurementStatus)
	}

	// A rename on the list reaches the medicine and keeps its other fields.
	if _, err := UpdateMedicineMinimum(ctx, database, r.ID, MedicineShared{Name: ptr("Ceftriaxone 1 g")}, "doc"); err != nil {
		t.Fatalf("UpdateMedicineMinimum: %v", err)
	}
	m, _ = GetMedicine(ctx, database, *r.ItemID)
	if m.Name != "Ceftriaxone 1 g" || m.MinimumRequired != 4 {
		t.Errorf("update not propagated: %+v", m)
	}

	if err := DeleteMedicineMinimum(ctx, database, r.ID); err != nil {
		t.Fatalf("DeleteMedicineMinimum: %v", err)
	}
	if m, _ := GetMedicine(ctx, database, *r.ItemID); m != nil {
		t.Error("expected medicine to be deleted with its minimum row")
	}
	if err := DeleteMedicineMinimum(ctx, database, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMinimumAdoptedByItemWithSameName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// A minimum row left unlinked, as after an import of an older database.
	database.MustExec(`INSERT INTO medicine_minimum (name, minimum_required) VALUES ('Atropine', 6)`)

	m, err := CreateMedicine(ctx, database, MedicineFields{
		MedicineShared: MedicineShared{Name: ptr("Atropine"), MinimumRequired: ptr(6)},
	}, "doc")
	if err != nil {
		t.Fatalf("CreateMedicine: %v", err)
	}

	rows, _ := ListMedicineMinimum(ctx, database)
	if len(rows) != 1 || rows[0].ItemID == nil || *rows[0].ItemID != m.ID {
		t.Errorf("expected the existing row to be adopted, got %+v", rows)
	}
}

func TestEquipmentMinimumRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r, err := CreateEquipmentMinimum(ctx, database, EquipmentShared{Name: ptr("Suction unit"), MinimumRequired: ptr(1)}, "doc")
	if err != nil {
		t.Fatalf("CreateEquipmentMinimum: %v", err)
	}

	r, err = UpdateEquipmentMinimum(ctx, database, r.ID, EquipmentShared{MinimumRequired: ptr(2)}, "doc")
	if err != nil {
		t.Fatalf("UpdateEquipmentMinimum: %v", err)
	}
	e, _ := GetEquipment(ctx, database, *r.ItemID)
	if e.MinimumRequired != 2 || e.Name != "Suction unit" {
		t.Errorf("update not propagated: %+v", e)
	}

	if _, err := UpdateEquipmentMinimum(ctx, database, r.ID, EquipmentShared{Name: ptr("")}, "doc"); err == nil {
		t.Error("expected validation error for empty name")
	}

	DeleteEquipmentMinimum(ctx, database, r.ID)
	all, _ := ListEquipment(ctx, database)
	if len(all) != 0 {
		t.Errorf("expected equipment to be deleted, got %+v", all)
	}
}
