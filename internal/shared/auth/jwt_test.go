package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifierRoundTrip(t *testing.T) {
	v, err := NewVerifier("s3cret", false)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	token, err := v.Sign(Claims{UserID: "user-7"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject() != "user-7" {
		t.Fatalf("expected subject from userId claim, got %q", claims.Subject())
	}
}

func TestVerifierRejects(t *testing.T) {
	v, _ := NewVerifier("s3cret", false)
	other, _ := NewVerifier("other", false)
	foreign, _ := other.Sign(Claims{Sub: "user-1"})

	expiredVerifier, _ := NewVerifier("s3cret", false)
	expiredVerifier.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _ := expiredVerifier.Sign(Claims{Sub: "user-1"})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("s3cret"))

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "alg none", token: unsigned},
		{name: "no subject", token: noSubject},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewVerifierRequiresSecretOutsideDev(t *testing.T) {
	if _, err := NewVerifier("", false); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := NewVerifier("", true); err != nil {
		t.Fatalf("dev verifier: %v", err)
	}
}

func TestVerifierKeepsEmailAndTimes(t *testing.T) {
	v, _ := NewVerifier("s3cret", false)
	fixed := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return fixed }

	token, err := v.Sign(Claims{Sub: "user-9", Email: "u9@example.com"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "u9@example.com" || claims.Iat != fixed.Unix() || claims.Exp != fixed.Add(24*time.Hour).Unix() {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifierAcceptsNumericUserID(t *testing.T) {
	v, _ := NewVerifier("s3cret", false)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": 7,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject() != "7" {
		t.Fatalf("expected subject 7, got %q", claims.Subject())
	}

	bad, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": []int{7}}).SignedString([]byte("s3cret"))
	if _, err := v.Verify(bad); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for list userId, got %v", err)
	}
}
