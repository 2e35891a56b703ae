package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/ambulanta/internal/model"
)

var officer = &model.User{ID: 7, Username: "officer", Role: model.RoleManager}

func TestGenerateAndValidateToken(t *testing.T) {
	token, issued, err := GenerateToken("test-secret", officer)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken("test-secret", token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "officer" || claims.Role != model.RoleManager {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Errorf("jti = %q, issued %q", claims.ID, issued.ID)
	}

	diff := time.Until(claims.ExpiresAt.Time) - TokenExpiry
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry off by %v", diff)
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	_, a, _ := GenerateToken("s", officer)
	_, b, _ := GenerateToken("s", officer)
	if a.ID == b.ID {
		t.Errorf("two tokens share jti %q", a.ID)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	good, _, _ := GenerateToken("secret1", officer)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret1"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "y",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte("secret1"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "secret2", good},
		{"garbage", "secret1", "not-a-token"},
		{"other issuer", "secret1", foreign},
		{"expired", "secret1", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.secret, tt.token); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword(correct): %v", err)
	}
	if err := CheckPassword(hash, "wrong horse"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("CheckPassword(wrong) = %v, want ErrBadCredentials", err)
	}
}
