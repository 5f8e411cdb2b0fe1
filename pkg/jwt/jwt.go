package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and verifies HS256 tokens carrying a user ID in "sub".
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A zero ttl means seven days.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour * 24 * 7
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken creates a new JWT for a given user ID.
func (i *Issuer) GenerateToken(userID uint) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(i.ttl).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(i.secret)
}

// ParseToken validates tokenString and returns the user ID it was issued for.
func (i *Issuer) ParseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return uint(sub), nil
}
