package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/floroz/tradepost/pkg/auth"
)

// TokenIssuer stands in for the identity provider in tests. It signs RS256
// access tokens that its Verifier accepts.
type TokenIssuer struct {
	Verifier *auth.Verifier

	key    *rsa.PrivateKey
	issuer string
}

func NewTokenIssuer(t *testing.T, issuer string) *TokenIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %s", err)
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("failed to marshal public key: %s", err)
	}
	verifier, err := auth.NewVerifier(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), issuer)
	if err != nil {
		t.Fatalf("failed to create verifier: %s", err)
	}

	return &TokenIssuer{Verifier: verifier, key: key, issuer: issuer}
}

// Issue signs a token for userID with the given display name, valid for ttl.
func (i *TokenIssuer) Issue(t *testing.T, userID uuid.UUID, name string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.key)
	if err != nil {
		t.Fatalf("failed to sign token: %s", err)
	}
	return signed
}
