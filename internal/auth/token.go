package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// identityClaims covers both token layouts the auth service has issued:
// the standard subject and the older "user" claim.
type identityClaims struct {
	User string `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// IdentityFromToken returns the identity a token issued by the auth service
// belongs to, preferring "sub" over "user". The signature is not checked
// here; the game server does that.
func IdentityFromToken(token string) (string, error) {
	claims := &identityClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	switch {
	case claims.Subject != "":
		return claims.Subject, nil
	case claims.User != "":
		return claims.User, nil
	default:
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
}
