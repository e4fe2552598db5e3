// Package auth encodes and decodes the signed access tokens handed to
// clients.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// Codec issues and verifies HMAC-signed JWT access tokens whose subject is
// the user ID.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
}

// NewCodec returns a codec for one of HS256, HS384 or HS512.
func NewCodec(secret []byte, algorithm string, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret key")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: access token ttl must be positive")
	}

	var method *jwt.SigningMethodHMAC
	switch strings.ToUpper(algorithm) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", algorithm)
	}

	return &Codec{secret: secret, method: method, ttl: ttl}, nil
}

// TTL is the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue returns a token for userID valid from now for the codec TTL.
func (c *Codec) Issue(userID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(c.method, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	})

	s, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Decode verifies token and returns its subject. A leading "Bearer " is
// accepted. Every failure is reported as common.ErrInvalidToken.
func (c *Codec) Decode(token string) (string, error) {
	token = strings.TrimSpace(token)
	if len(token) >= len(bearerPrefix) && strings.EqualFold(token[:len(bearerPrefix)], bearerPrefix) {
		token = strings.TrimSpace(token[len(bearerPrefix):])
	}
	if token == "" {
		return "", common.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
