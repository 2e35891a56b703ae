package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/ambulanta/internal/db"
	"github.com/erazemk/ambulanta/internal/model"
)

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m, _ := CreateMedicine(ctx, database, MedicineFields{MedicineShared: MedicineShared{Name: ptr("Photo item")}}, "doc")

	data, mime, err := GetItemImage(ctx, database, model.KindMedicine, m.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if data != nil || mime != "" {
		t.Errorf("expected no image yet, got %d bytes %q", len(data), mime)
	}

	if err := SetItemImage(ctx, database, model.KindMedicine, m.ID, []byte("fake jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}
	data, mime, _ = GetItemImage(ctx, database, model.KindMedicine, m.ID)
	if string(data) != "fake jpeg" || mime != "image/jpeg" {
		t.Errorf("got %q %q", data, mime)
	}

	got, _ := GetMedicine(ctx, database, m.ID)
	if got.ImageMime != "image/jpeg" {
		t.Errorf("image_mime = %q", got.ImageMime)
	}

	if err := SetItemImage(ctx, database, model.KindEquipment, m.ID, []byte("x"), "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for equipment id, got %v", err)
	}
	if _, _, err := GetItemImage(ctx, database, model.KindEquipment, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
