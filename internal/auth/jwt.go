// Package auth verifies bearer credentials issued by the identity provider.
package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingEmail = errors.New("token has no email claim")
)

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier extracts a caller identity from a bearer credential.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

type JWTVerifier struct {
	secretKey []byte
}

func NewJWTVerifier(secretKey string) *JWTVerifier {
	return &JWTVerifier{secretKey: []byte(secretKey)}
}

func (j *JWTVerifier) Verify(tokenString string) (*Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, ErrMissingEmail
	}
	return claims, nil
}

// Sign issues an HS256 token for email. Used by tooling and tests.
func (j *JWTVerifier) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
}
