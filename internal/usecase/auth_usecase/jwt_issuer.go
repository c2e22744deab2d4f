package auth

import (
	"time"

	"tableorder/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

// HS256のアクセストークン発行
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

// DI
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *JWTIssuer) Issue(staffID string, restaurantID string, role model.Role, now time.Time) (string, time.Time, error) {
	exp := now.Add(i.ttl)

	claims := jwt.MapClaims{
		"sub":  staffID,
		"rid":  restaurantID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
