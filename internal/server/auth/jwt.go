// Package auth verifies the signed tokens the hosting environment presents
// for federated logins.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/atlassist/internal/common"
)

// FederatedClaims is the claim set the host platform signs for an externally
// authenticated principal. Subject carries the user email.
type FederatedClaims struct {
	jwt.RegisteredClaims
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
}

// GenerateFederatedToken signs claims for the given principal. Used by the
// host platform integration and by tests.
func GenerateFederatedToken(userEmail, displayName string, isAdmin bool, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, FederatedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userEmail,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		DisplayName: displayName,
		IsAdmin:     isAdmin,
	})

	return token.SignedString(secretKey)
}

// VerifyFederatedToken parses and validates a federated token, returning its
// claims. Invalid, expired, or foreign-keyed tokens yield ErrInvalidToken.
func VerifyFederatedToken(tokenString string, secretKey []byte) (*FederatedClaims, error) {
	claims := &FederatedClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
