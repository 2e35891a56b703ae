package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/ambulanta/internal/db"
	"github.com/erazemk/ambulanta/internal/model"
)

func TestCategoryTree(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cat, err := CreateCategory(ctx, database, model.KindMedicine, "Cardiovascular")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	other, _ := CreateCategory(ctx, database, model.KindMedicine, "Respiratory")
	sub, err := CreateSubcategory(ctx, database, model.KindMedicine, cat.ID, "Antiarrhythmics")
	if err != nil {
		t.Fatalf("CreateSubcategory: %v", err)
	}
	CreateSubcategory(ctx, database, model.KindMedicine, other.ID, "Inhalers")
	if _, err := CreateSubSubcategory(ctx, database, sub.ID, "Injectables"); err != nil {
		t.Fatalf("CreateSubSubcategory: %v", err)
	}

	subs, _ := ListSubcategories(ctx, database, model.KindMedicine, cat.ID)
	if len(subs) != 1 || subs[0].Name != "Antiarrhythmics" {
		t.Errorf("subcategories scoped to parent = %+v", subs)
	}

	equipment, _ := ListCategories(ctx, database, model.KindEquipment)
	if len(equipment) != 0 {
		t.Errorf("medicine categories leaked into equipment: %+v", equipment)
	}

	if _, err := CreateSubcategory(ctx, database, model.KindMedicine, 999, "Orphan"); !errors.Is(err, ErrConstraint) {
		t.Errorf("expected ErrConstraint for missing parent, got %v", err)
	}
	if _, err := CreateCategory(ctx, database, model.KindMedicine, "  "); err == nil {
		t.Error("expected validation error for empty name")
	}
}

func TestDeleteCategoryCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cat, _ := CreateCategory(ctx, database, model.KindMedicine, "Antibiotics")
	sub, _ := CreateSubcategory(ctx, database, model.KindMedicine, cat.ID, "Penicillins")
	subsub, _ := CreateSubSubcategory(ctx, database, sub.ID, "Oral")

	m, err := CreateMedicine(ctx, database, MedicineFields{MedicineShared: MedicineShared{
		Name: ptr("Amoxicillin"), CategoryID: &cat.ID, SubcategoryID: &sub.ID, SubSubcategoryID: &subsub.ID,
	}}, "doc")
	if err != nil {
		t.Fatalf("CreateMedicine: %v", err)
	}

	if err := DeleteCategory(ctx, database, model.KindMedicine, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	subs, _ := ListSubcategories(ctx, database, model.KindMedicine, cat.ID)
	subsubs, _ := ListSubSubcategories(ctx, database, sub.ID)
	if len(subs) != 0 || len(subsubs) != 0 {
		t.Errorf("expected children to cascade, got %+v / %+v", subs, subsubs)
	}

	// The medicine keeps its now dangling links.
	got, _ := GetMedicine(ctx, database, m.ID)
	if got.SubcategoryID == nil || *got.SubcategoryID != sub.ID {
		t.Errorf("expected dangling subcategory id %d, got %v", sub.ID, got.SubcategoryID)
	}

	// It can still be edited without touching the dangling links.
	if _, err := UpdateMedicine(ctx, database, m.ID, MedicineFields{InitialQuantity: ptr(5)}, "doc"); err != nil {
		t.Errorf("UpdateMedicine with dangling links: %v", err)
	}

	groups, _ := ListMedicinesGrouped(ctx, database)
	if len(groups.Get(model.GroupUncategorized).Get(model.GroupUncategorized).Get(model.GroupNone)) != 1 {
		t.Errorf("expected dangling medicine under Uncategorized, got %+v", groups)
	}

	if err := DeleteCategory(ctx, database, model.KindMedicine, cat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadCategoryLabels(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateCategory(ctx, database, model.KindMedicine, "Analgesics")
	b, _ := CreateCategory(ctx, database, model.KindMedicine, "Antibiotics")
	CreateSubcategory(ctx, database, model.KindMedicine, b.ID, "Penicillins")
	sub, _ := CreateSubcategory(ctx, database, model.KindMedicine, b.ID, "Macrolides")
	ss, _ := CreateSubSubcategory(ctx, database, sub.ID, "Oral")

	labels, err := LoadCategoryLabels(ctx, database, model.KindMedicine)
	if err != nil {
		t.Fatalf("LoadCategoryLabels: %v", err)
	}
	if labels.Categories[a.ID] != "1 Analgesics" {
		t.Errorf("category label = %q", labels.Categories[a.ID])
	}
	if labels.Subcategories[sub.ID] != "2.2 Macrolides" {
		t.Errorf("subcategory label = %q", labels.Subcategories[sub.ID])
	}
	if labels.SubSubcategories[ss.ID] != "2.2.1 Oral" {
		t.Errorf("sub-subcategory label = %q", labels.SubSubcategories[ss.ID])
	}
}
