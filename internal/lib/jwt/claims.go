// Package jwt implements generation and parsing of JWT tokens with custom
// claim fields.
//
// Maker is the interface the rest of the service depends on; MakerImpl is
// the HS256 implementation backed by a shared secret and a token TTL.
package jwt

import (
	"time"
)

// Maker describes the contract for issuing and verifying JWT tokens.
type Maker interface {
	// GenerateToken issues a token carrying username, role and user uid.
	GenerateToken(username, role, userUID string) (string, error)
	// ParseToken verifies a token and returns its CustomClaims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl implements Maker using a secret key and a token lifetime.
type MakerImpl struct {
	secretKey string        // secret used to sign tokens
	tokenTTL  time.Duration // token lifetime
}

// NewMaker creates a MakerImpl from a secret key and TTL.
func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
