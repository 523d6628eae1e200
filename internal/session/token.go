package session

import (
	"errors"
	"fmt"

	"invoicing/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify a session. The token alone grants nothing: the session it
// names must still exist in the store.
type Claims struct {
	SessionID uuid.UUID `json:"sid"`
	Role      string    `json:"role"`
	jwt.RegisteredClaims
}

// Sign issues an HS256 token for s that expires with it.
func Sign(s *Session, secret []byte) (string, error) {
	claims := Claims{
		SessionID: s.ID,
		Role:      string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.AgentID.String(),
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates the signature and expiry and returns the claims.
func Parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.SessionID == uuid.Nil || !model.Role(claims.Role).Valid() {
		return nil, fmt.Errorf("%w: missing session or role", ErrInvalidToken)
	}
	return claims, nil
}
