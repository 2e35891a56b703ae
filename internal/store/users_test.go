package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/ambulanta/internal/db"
	"github.com/erazemk/ambulanta/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "nurse", "hash123", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "nurse" || user.Role != model.RoleUser {
		t.Errorf("got %q/%q, want nurse/user", user.Username, user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "nurse" {
		t.Errorf("expected username 'nurse', got %q", got.Username)
	}
}

func TestCreateUserValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, " ", "hash", "captain")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("expected 2 field errors, got %v", verr.Fields)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := CreateUser(ctx, database, "officer", "hash", model.RoleManager)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "officer", "hash", model.RoleUser); !errors.Is(err, ErrConstraint) {
		t.Fatalf("expected ErrConstraint for duplicate username, got %v", err)
	}

	// The name becomes free once the first account is deleted.
	if err := DeleteUser(ctx, database, first.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	second, err := CreateUser(ctx, database, "officer", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser after delete: %v", err)
	}

	got, err := GetUserByUsername(ctx, database, "officer")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("expected active user %d, got %d", second.ID, got.ID)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("expected alice, got %+v", user)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListAndDeleteUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "a", "hash", model.RoleUser)
	CreateUser(ctx, database, "b", "hash", model.RoleManager)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	if err := DeleteUser(ctx, database, a.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := DeleteUser(ctx, database, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteUser: expected ErrNotFound, got %v", err)
	}

	users, _ = ListUsers(ctx, database)
	if len(users) != 1 {
		t.Errorf("expected 1 user after delete, got %d", len(users))
	}
}

func TestUpdateUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleUser)
	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	if err := UpdateUser(ctx, database, user.ID, model.RoleManager); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" || got.Role != model.RoleManager {
		t.Errorf("got %q/%q, want newhash/manager", got.PasswordHash, got.Role)
	}

	if err := UpdateUser(ctx, database, 999, model.RoleUser); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}
