// Package token mints signed identity tokens for authenticated users.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jimdaga/apod-auth/internal/models"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 10 * 24 * time.Hour

// ErrSigningKeyMissing is returned when no signing secret is configured.
var ErrSigningKeyMissing = errors.New("token signing key is not configured")

// Claims binds a token to a user id. The `_id` claim name is what existing
// clients decode.
type Claims struct {
	UserID uint `json:"_id"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 tokens with a process-wide secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A non-positive ttl selects DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Configured reports whether Issue can sign tokens.
func (i *Issuer) Configured() bool {
	return len(i.secret) > 0
}

// Issue returns a signed token for user.
func (i *Issuer) Issue(user *models.User) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrSigningKeyMissing
	}
	if user == nil || user.ID == 0 {
		return "", errors.New("cannot issue token without a user id")
	}

	now := i.now()
	claims := &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token issued by this Issuer and returns its claims.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	if len(i.secret) == 0 {
		return nil, ErrSigningKeyMissing
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}

	if c, ok := token.Claims.(*Claims); ok && token.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}
