package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Helper to generate fresh keys for each test
func generateTestKeys(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("Failed to marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	})

	return privateKey, pubPEM
}

func signWith(t *testing.T, key any, method jwt.SigningMethod, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	return s
}

func validClaims(subject string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateToken(t *testing.T) {
	privateKey, pubPEM := generateTestKeys(t)
	verifier, err := NewVerifier(pubPEM, "test-issuer")
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}

	userID := uuid.New()
	claims := validClaims(userID.String())
	claims.Name = "Ada"

	got, err := verifier.ValidateToken(signWith(t, privateKey, jwt.SigningMethodRS256, claims))
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	id, err := got.UserID()
	if err != nil || id != userID {
		t.Errorf("got subject %v (%v), want %s", id, err, userID)
	}
	if got.Name != "Ada" {
		t.Errorf("got name %q, want Ada", got.Name)
	}
}

func TestSecurityScenarios(t *testing.T) {
	privateKey, pubPEM := generateTestKeys(t)
	verifier, _ := NewVerifier(pubPEM, "test-issuer")

	t.Run("Rejects Expired Token", func(t *testing.T) {
		claims := validClaims(uuid.New().String())
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

		if _, err := verifier.ValidateToken(signWith(t, privateKey, jwt.SigningMethodRS256, claims)); err == nil {
			t.Error("ValidateToken should have rejected expired token")
		}
	})

	t.Run("Rejects Token Without Expiry", func(t *testing.T) {
		claims := validClaims(uuid.New().String())
		claims.ExpiresAt = nil

		if _, err := verifier.ValidateToken(signWith(t, privateKey, jwt.SigningMethodRS256, claims)); err == nil {
			t.Error("ValidateToken should have rejected token without exp")
		}
	})

	t.Run("Rejects Foreign Issuer", func(t *testing.T) {
		claims := validClaims(uuid.New().String())
		claims.Issuer = "someone-else"

		if _, err := verifier.ValidateToken(signWith(t, privateKey, jwt.SigningMethodRS256, claims)); err == nil {
			t.Error("ValidateToken should have rejected foreign issuer")
		}
	})

	t.Run("Rejects Wrong Key Signature", func(t *testing.T) {
		attackerKey, _ := generateTestKeys(t)

		if _, err := verifier.ValidateToken(signWith(t, attackerKey, jwt.SigningMethodRS256, validClaims(uuid.New().String()))); err == nil {
			t.Error("ValidateToken should have rejected token signed by wrong key")
		}
	})

	t.Run("Rejects HMAC Algorithm Confusion", func(t *testing.T) {
		tokenString, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(uuid.New().String())).SignedString([]byte("some-secret"))

		_, err := verifier.ValidateToken(tokenString)
		if err == nil {
			t.Fatal("ValidateToken should have rejected HS256 algorithm")
		}
		expectedError := "unexpected signing method: HS256"
		if !strings.Contains(err.Error(), expectedError) {
			t.Errorf("Expected error containing %q, got: %v", expectedError, err)
		}
	})

	t.Run("Rejects Malformed Token", func(t *testing.T) {
		if _, err := verifier.ValidateToken("this.is.garbage"); err == nil {
			t.Error("Should reject malformed string")
		}
	})
}

func TestNewVerifierValidation(t *testing.T) {
	privateKey, _ := generateTestKeys(t)

	t.Run("Fails on garbage", func(t *testing.T) {
		if _, err := NewVerifier([]byte("not-a-pem"), "test-issuer"); err == nil {
			t.Error("Should fail on invalid PEM")
		}
	})

	t.Run("Fails on private key passed as public key", func(t *testing.T) {
		privPEM := pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
		})
		if _, err := NewVerifier(privPEM, "test-issuer"); err == nil {
			t.Error("Should fail when the PEM is not a PKIX public key")
		}
	})
}
