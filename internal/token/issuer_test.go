package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimdaga/apod-auth/internal/models"
)

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := NewIssuer("test-secret", 0)
	iss.now = func() time.Time { return now }

	tok, err := iss.Issue(&models.User{ID: 42})
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now.Add(DefaultTTL), claims.ExpiresAt.Time.UTC())
	assert.Equal(t, now, claims.IssuedAt.Time.UTC())
}

func TestIssueUniqueTokenIDs(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	a, err := iss.Issue(&models.User{ID: 1})
	require.NoError(t, err)
	b, err := iss.Issue(&models.User{ID: 1})
	require.NoError(t, err)

	ca, err := iss.Parse(a)
	require.NoError(t, err)
	cb, err := iss.Parse(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestIssueWithoutSecret(t *testing.T) {
	iss := NewIssuer("", time.Hour)
	assert.False(t, iss.Configured())

	_, err := iss.Issue(&models.User{ID: 1})
	assert.ErrorIs(t, err, ErrSigningKeyMissing)
}

func TestIssueWithoutUserID(t *testing.T) {
	_, err := NewIssuer("test-secret", time.Hour).Issue(&models.User{})
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	iss.now = func() time.Time { return issuedAt }

	tok, err := iss.Issue(&models.User{ID: 7})
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseWrongSecret(t *testing.T) {
	tok, err := NewIssuer("secret-a", time.Hour).Issue(&models.User{ID: 7})
	require.NoError(t, err)

	_, err = NewIssuer("secret-b", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}
