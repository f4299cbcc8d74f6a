// Package auth verifies the session tokens issued by the Shelfmark cloud
// backend and tracks the device's current session.
package auth

import "time"

// SessionClaims are the claims carried in a PASETO access token issued by
// the backend. v4.public tokens are signed, not encrypted, so the device
// can read them but not forge them.
type SessionClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Premium bool   `json:"premium"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
