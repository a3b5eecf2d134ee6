package jwtinfra

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/geooptima/backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Claims holds the JWT payload fields. Email is only present on tokens
// issued after profile completion.
type Claims struct {
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a shared secret supplied via
// configuration.
type Provider struct {
	secret []byte
	expiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	return &Provider{secret: cfg.JWTSecret, expiry: cfg.JWTTTL}, nil
}

// Sign issues a bearer token bound to the phone number. Each token carries
// a fresh ULID as its ID so tokens are individually traceable in logs.
func (p *Provider) Sign(phone, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		PhoneNumber: phone,
		Email:       email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.MustNew(ulid.Now(), rand.Reader).String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
