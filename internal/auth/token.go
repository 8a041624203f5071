// Package auth validates access tokens issued by the identity provider
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skillacademy/backend/internal/models"
)

// Identity is the authenticated caller of a request
type Identity struct {
	UserID string
	Role   models.Role
}

// TokenValidator validates HS256 access tokens shared with the identity provider
type TokenValidator struct {
	secret string
}

// NewTokenValidator creates a new token validator
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: secret}
}

// GenerateAccessToken signs an access token for the identity.
// The academy does not issue tokens itself; this is used by tooling and tests.
func (tv *TokenValidator) GenerateAccessToken(identity Identity, expiry time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": identity.UserID,
		"role":    string(identity.Role),
		"exp":     time.Now().Add(expiry).Unix(),
		"iat":     time.Now().Unix(),
		"type":    "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tv.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns the caller identity
func (tv *TokenValidator) ValidateAccessToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tv.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return nil, fmt.Errorf("token is not an access token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("user_id not found in token")
	}

	role, ok := claims["role"].(string)
	if !ok || models.Role(role).Rank() == 0 {
		return nil, fmt.Errorf("role not found in token")
	}

	return &Identity{UserID: userID, Role: models.Role(role)}, nil
}
