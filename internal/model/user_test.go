package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleManager, RoleUser} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false", role)
		}
	}
	for _, role := range []string{"", "Admin", "doctor", " user"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true", role)
		}
	}
}

// The router gates reads on user, inventory writes on manager, and account
// and database import endpoints on admin.
func TestRoleAtLeastRouteGates(t *testing.T) {
	gates := []struct {
		name    string
		minimum string
		allowed []string
		denied  []string
	}{
		{"read", RoleUser, []string{RoleUser, RoleManager, RoleAdmin}, nil},
		{"write", RoleManager, []string{RoleManager, RoleAdmin}, []string{RoleUser}},
		{"admin", RoleAdmin, []string{RoleAdmin}, []string{RoleUser, RoleManager}},
	}

	for _, g := range gates {
		for _, role := range g.allowed {
			if !RoleAtLeast(role, g.minimum) {
				t.Errorf("%s gate: %q denied", g.name, role)
			}
		}
		for _, role := range g.denied {
			if RoleAtLeast(role, g.minimum) {
				t.Errorf("%s gate: %q allowed", g.name, role)
			}
		}
	}
}

func TestRoleAtLeastUnknownRoles(t *testing.T) {
	tests := []struct {
		role    string
		minimum string
	}{
		{"unknown", RoleUser},
		{RoleAdmin, "unknown"},
		{"", ""},
		{"", RoleUser},
		{"ADMIN", RoleUser},
	}

	for _, tt := range tests {
		if RoleAtLeast(tt.role, tt.minimum) {
			t.Errorf("RoleAtLeast(%q, %q) = true, want false", tt.role, tt.minimum)
		}
	}
}

func TestValidatePasswordLength(t *testing.T) {
	short := strings.Repeat("x", MinPasswordLength-1)
	if err := ValidatePassword(short); err == nil {
		t.Errorf("expected %d-character password to be rejected", len(short))
	}
	exact := strings.Repeat("x", MinPasswordLength)
	if err := ValidatePassword(exact); err != nil {
		t.Errorf("ValidatePassword(%d chars): %v", len(exact), err)
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("expected empty password to be rejected")
	}
	if err := ValidatePassword("correct horse battery"); err != nil {
		t.Errorf("ValidatePassword(passphrase): %v", err)
	}
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	u := User{ID: 1, Username: "doctor", PasswordHash: "$2a$10$secret", Role: RoleManager}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "secret") || strings.Contains(string(data), "password") {
		t.Errorf("password hash leaked: %s", data)
	}
	if strings.Contains(string(data), "deleted_at") {
		t.Errorf("expected deleted_at to be omitted for active user: %s", data)
	}
}
