package auth

import (
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	tokenIssuer   = "shelfmark-cloud"
	tokenAudience = "shelfmark-app"
)

// Verifier checks PASETO v4.public access tokens against the backend's
// signing key. The device never signs tokens itself.
type Verifier struct {
	publicKey paseto.V4AsymmetricPublicKey
}

// NewVerifier creates a verifier from the backend's hex-encoded Ed25519
// public key.
func NewVerifier(publicKeyHex string) (*Verifier, error) {
	key, err := paseto.NewV4AsymmetricPublicKeyFromHex(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse token public key: %w", err)
	}
	return &Verifier{publicKey: key}, nil
}

// Verify checks the token's signature and standard claims and returns the
// session claims.
func (v *Verifier) Verify(tokenString string) (*SessionClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Public(v.publicKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims SessionClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token missing user_id claim")
	}

	return &claims, nil
}
