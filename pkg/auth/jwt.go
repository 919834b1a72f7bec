package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the API reads from a bearer token. Tokens
// are issued by the external identity provider; this service only
// validates signature and expiry.
type TokenClaims struct {
	Subject string
	Email   string
}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*TokenClaims, error)
}

type jwtValidator struct {
	secret []byte
}

func NewJWTValidator(secret string) TokenValidator {
	return &jwtValidator{secret: []byte(secret)}
}

func (v *jwtValidator) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	tc := &TokenClaims{}
	if sub, ok := claims["sub"].(string); ok {
		tc.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		tc.Email = email
	}
	return tc, nil
}
