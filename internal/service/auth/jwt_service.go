// Package auth implements the principal resolver: it validates the signed
// tokens minted by the external identity provider and extracts the opaque
// user identifier that scopes every task operation. This service never
// issues credentials of its own.
package auth

import (
	"context"
	"time"
)

// JWTService validates JWT authentication tokens.
type JWTService interface {
	// ValidateToken validates the provided token string and extracts the
	// claims. Returns the claims containing the user identifier if the token
	// is valid, or an error if validation fails (expired, invalid signature,
	// etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims carries the validated token claims the application cares about.
type Claims struct {
	// UserID is the opaque identifier of the user the token was issued for.
	UserID string `json:"uid,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}
