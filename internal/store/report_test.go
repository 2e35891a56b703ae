package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/ambulanta/internal/db"
	"github.com/erazemk/ambulanta/internal/model"
)

func TestOrderReport(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cat, _ := CreateCategory(ctx, database, model.KindMedicine, "Analgesics")
	sub, _ := CreateSubcategory(ctx, database, model.KindMedicine, cat.ID, "Opioids")
	ecat, _ := CreateCategory(ctx, database, model.KindEquipment, "Airway")

	m, _ := CreateMedicine(ctx, database, MedicineFields{MedicineShared: MedicineShared{
		Name: ptr("Tramadol"), Packaging: ptr("50 mg"), CategoryID: &cat.ID, SubcategoryID: &sub.ID,
	}}, "doc")
	e, _ := CreateEquipment(ctx, database, EquipmentFields{EquipmentShared: EquipmentShared{
		Name: ptr("Guedel airway"), CategoryID: &ecat.ID,
	}}, "doc")

	o, _ := CreateOrder(ctx, database, "Report order")
	price := decimal.RequireFromString("4.20")
	AddOrderLine(ctx, database, o.ID, LineFields{MedicineID: &m.ID, Quantity: ptr(5), UnitPrice: &price, Notes: ptr("urgent")})
	AddOrderLine(ctx, database, o.ID, LineFields{EquipmentID: &e.ID, Quantity: ptr(2)})

	r, err := OrderReport(ctx, database, o.ID)
	if err != nil {
		t.Fatalf("OrderReport: %v", err)
	}
	if r.Title != "Report order" || len(r.Rows) != 2 {
		t.Fatalf("unexpected report: %+v", r)
	}

	med := r.Rows[0]
	if med.Kind != model.KindMedicine || med.Category != "1 Analgesics" || med.Subcategory != "1.1 Opioids" || med.SubSubcategory != "" {
		t.Errorf("medicine row = %+v", med)
	}
	if med.Notes != "urgent" || med.Packaging != "50 mg" {
		t.Errorf("medicine row = %+v", med)
	}

	eq := r.Rows[1]
	if eq.Kind != model.KindEquipment || eq.Category != "1 Airway" || eq.Subcategory != model.GroupUncategorized {
		t.Errorf("equipment row = %+v", eq)
	}
	if !r.Total.Equal(decimal.RequireFromString("21")) {
		t.Errorf("total = %s, want 21", r.Total)
	}

	missing, err := OrderReport(ctx, database, 999)
	if err != nil || missing != nil {
		t.Errorf("expected nil report for missing order, got %+v %v", missing, err)
	}
}

func TestUtilizationReport(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m, _ := CreateMedicine(ctx, database, MedicineFields{MedicineShared: MedicineShared{Name: ptr("Ketamine")}}, "doc")
	u, _ := CreateUtilization(ctx, database, "Broken vials")
	AddUtilizationLine(ctx, database, u.ID, LineFields{MedicineID: &m.ID, Quantity: ptr(1), ReasonForDisposal: ptr("broken")})

	r, err := UtilizationReport(ctx, database, u.ID)
	if err != nil {
		t.Fatalf("UtilizationReport: %v", err)
	}
	if len(r.Rows) != 1 || r.Rows[0].ReasonForDisposal != "broken" || r.Rows[0].Category != model.GroupUncategorized {
		t.Errorf("unexpected rows: %+v", r.Rows)
	}
	if r.Rows[0].UnitPrice.Valid {
		t.Error("utilization rows carry no price")
	}
}
