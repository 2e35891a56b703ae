package store

import (
	"context"
	"testing"

	"github.com/erazemk/ambulanta/internal/db"
	"github.com/erazemk/ambulanta/internal/model"
)

func TestGetSummary(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	setClock(t, day0)

	s, err := GetSummary(ctx, database)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if s.LastRecompute != nil {
		t.Errorf("expected no recompute yet, got %v", s.LastRecompute)
	}
	if s.Items[model.KindMedicine].Total != 0 {
		t.Errorf("expected empty inventory, got %+v", s.Items)
	}

	for _, f := range []MedicineFields{
		{MedicineShared: MedicineShared{Name: ptr("Amoxicillin"), MinimumRequired: ptr(5)}, InitialQuantity: ptr(10), ExpiryDate: ptr("15-03-2026")},
		{MedicineShared: MedicineShared{Name: ptr("Ibuprofen"), MinimumRequired: ptr(5)}, InitialQuantity: ptr(10), ExpiryDate: ptr("20-01-2026")},
		{MedicineShared: MedicineShared{Name: ptr("Morphine"), MinimumRequired: ptr(2)}},
	} {
		if _, err := CreateMedicine(ctx, database, f, "doc"); err != nil {
			t.Fatalf("CreateMedicine: %v", err)
		}
	}
	if _, err := CreateEquipment(ctx, database, EquipmentFields{
		EquipmentShared: EquipmentShared{Name: ptr("Splint")},
		CurrentQuantity: ptr(3),
	}, "doc"); err != nil {
		t.Fatalf("CreateEquipment: %v", err)
	}

	if _, err := RecomputeAll(ctx, database); err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}

	s, err = GetSummary(ctx, database)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if s.LastRecompute == nil || !s.LastRecompute.Equal(day0) {
		t.Errorf("last recompute = %v, want %v", s.LastRecompute, day0)
	}

	meds := s.Items[model.KindMedicine]
	if meds.Total != 3 {
		t.Errorf("medicine total = %d, want 3", meds.Total)
	}
	if meds.Expiry[model.ExpiryIn3Months] != 1 || meds.Expiry[model.ExpiryIn1Month] != 1 || meds.Expiry[model.ExpiryOutOfStock] != 1 {
		t.Errorf("medicine expiry counts = %v", meds.Expiry)
	}
	if meds.Procurement[model.ProcurementNeedsOrder] != 3 {
		t.Errorf("medicine procurement counts = %v", meds.Procurement)
	}
	if s.Items[model.KindEquipment].Total != 1 {
		t.Errorf("equipment total = %d, want 1", s.Items[model.KindEquipment].Total)
	}
}
