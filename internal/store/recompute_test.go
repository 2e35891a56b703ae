package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/ambulanta/internal/db"
	"github.com/erazemk/ambulanta/internal/model"
)

var day0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// setClock pins the store clock for the duration of the test.
func setClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = orig })
}

func TestRecomputeAllIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, day0)

	m, err := CreateMedicine(ctx, database, MedicineFields{
		MedicineShared:  MedicineShared{Name: ptr("Amoxicillin"), MinimumRequired: ptr(5)},
		InitialQuantity: ptr(10),
		ExpiryDate:      ptr("15-03-2026"),
	}, "doc")
	if err != nil {
		t.Fatalf("CreateMedicine: %v", err)
	}
	if m.ExpiryStatus != model.ExpiryIn3Months {
		t.Fatalf("expected %s at creation, got %s", model.ExpiryIn3Months, m.ExpiryStatus)
	}

	changed, err := RecomputeAll(ctx, database)
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if changed != 0 {
		t.Errorf("expected nothing to change right after creation, got %d", changed)
	}

	// Time passes: the next pass moves the item to a new bucket, the one
	// after that has nothing left to do.
	setClock(t, day0.AddDate(0, 2, 0))
	changed, err = RecomputeAll(ctx, database)
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if changed != 1 {
		t.Errorf("expected 1 changed item, got %d", changed)
	}
	changed, _ = RecomputeAll(ctx, database)
	if changed != 0 {
		t.Errorf("second pass changed %d items, expected 0", changed)
	}

	got, _ := GetMedicine(ctx, database, m.ID)
	if got.ExpiryStatus != model.ExpiryIn1Month || got.ProcurementStatus != model.ProcurementNeedsOrder {
		t.Errorf("got %s/%s, want %s/%s", got.ExpiryStatus, got.ProcurementStatus,
			model.ExpiryIn1Month, model.ProcurementNeedsOrder)
	}

	last, err := GetSetting(ctx, database, SettingLastRecompute)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if last != day0.AddDate(0, 2, 0).Format(time.RFC3339) {
		t.Errorf("last recompute = %q", last)
	}
}

func TestRecomputeRepairsStaleRows(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, day0)

	e, err := CreateEquipment(ctx, database, EquipmentFields{
		EquipmentShared: EquipmentShared{Name: ptr("Stretcher"), MinimumRequired: ptr(1)},
		CurrentQuantity: ptr(2),
	}, "doc")
	if err != nil {
		t.Fatalf("CreateEquipment: %v", err)
	}

	// Simulate a write that bypassed the store.
	database.MustExec(`UPDATE equipment SET current_quantity = 0 WHERE id = ?`, e.ID)

	changed, err := RecomputeAll(ctx, database)
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if changed != 1 {
		t.Errorf("expected 1 repaired row, got %d", changed)
	}

	got, _ := GetEquipment(ctx, database, e.ID)
	if got.ExpiryStatus != model.ExpiryOutOfStock || got.ProcurementStatus != model.ProcurementNeedsOrder {
		t.Errorf("got %s/%s after repair", got.ExpiryStatus, got.ProcurementStatus)
	}
}
