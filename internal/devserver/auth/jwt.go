// Package auth issues and verifies the development backend's session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the owning user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// GenerateToken signs an HS256 token for userID that expires after
// validityDuration.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// GetUserIDFromToken verifies tokenString and returns its user id.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
