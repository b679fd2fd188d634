package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Actor types carried in token claims.
const (
	ActorBusiness = "business"
	ActorCustomer = "customer"
)

type authClaims struct {
	SubjectType string `json:"subject_type"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for the provided subject.
func GenerateToken(secret string, subjectID uuid.UUID, subjectType string, ttl time.Duration) (string, error) {
	claims := &authClaims{
		SubjectType: subjectType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the subject ID and type.
func ParseToken(secret, tokenString string) (uuid.UUID, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}

	if claims, ok := token.Claims.(*authClaims); ok && token.Valid {
		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			return uuid.Nil, "", jwt.ErrTokenInvalidClaims
		}
		return id, claims.SubjectType, nil
	}

	return uuid.Nil, "", jwt.ErrTokenInvalidClaims
}
