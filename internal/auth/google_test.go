package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

type stubValidator struct {
	payload  *idtoken.Payload
	err      error
	audience string
}

func (s *stubValidator) Validate(_ context.Context, _ string, audience string) (*idtoken.Payload, error) {
	s.audience = audience
	return s.payload, s.err
}

func googlePayload(now time.Time) *idtoken.Payload {
	return &idtoken.Payload{
		Issuer:   "https://accounts.google.com",
		Audience: "client-id",
		Expires:  now.Add(time.Hour).Unix(),
		IssuedAt: now.Unix(),
		Subject:  "ext-1",
		Claims: map[string]interface{}{
			"email":       "g@x.com",
			"given_name":  "Grace",
			"family_name": "Hopper",
			"picture":     "https://example.com/g.png",
		},
	}
}

func TestGoogleVerifierMapsClaims(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubValidator{payload: googlePayload(now)}
	v := newGoogleVerifier("client-id", stub)
	v.now = func() time.Time { return now }

	a, err := v.Verify(context.Background(), "raw-token")
	require.NoError(t, err)
	assert.Equal(t, "client-id", stub.audience)
	assert.Equal(t, &Assertion{
		ExternalID: "ext-1",
		Email:      "g@x.com",
		FirstName:  "Grace",
		LastName:   "Hopper",
		PictureURL: "https://example.com/g.png",
	}, a)
}

func TestGoogleVerifierMissingOptionalClaims(t *testing.T) {
	now := time.Now()
	p := googlePayload(now)
	p.Claims = map[string]interface{}{"email": "g@x.com", "given_name": 42}
	v := newGoogleVerifier("client-id", &stubValidator{payload: p})

	a, err := v.Verify(context.Background(), "raw-token")
	require.NoError(t, err)
	assert.Equal(t, "g@x.com", a.Email)
	assert.Empty(t, a.FirstName)
	assert.Empty(t, a.LastName)
	assert.Empty(t, a.PictureURL)
}

func TestGoogleVerifierUsedTooEarly(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("issued in the future", func(t *testing.T) {
		p := googlePayload(now)
		p.IssuedAt = now.Add(10 * time.Minute).Unix()
		v := newGoogleVerifier("client-id", &stubValidator{payload: p})
		v.now = func() time.Time { return now }

		_, err := v.Verify(context.Background(), "raw-token")
		assert.ErrorIs(t, err, ErrAssertionTooEarly)
	})

	t.Run("not yet valid", func(t *testing.T) {
		p := googlePayload(now)
		p.Claims["nbf"] = float64(now.Add(time.Hour).Unix())
		v := newGoogleVerifier("client-id", &stubValidator{payload: p})
		v.now = func() time.Time { return now }

		_, err := v.Verify(context.Background(), "raw-token")
		assert.ErrorIs(t, err, ErrAssertionTooEarly)
	})

	t.Run("within clock skew", func(t *testing.T) {
		p := googlePayload(now)
		p.IssuedAt = now.Add(2 * time.Minute).Unix()
		v := newGoogleVerifier("client-id", &stubValidator{payload: p})
		v.now = func() time.Time { return now }

		_, err := v.Verify(context.Background(), "raw-token")
		assert.NoError(t, err)
	})
}

func TestGoogleVerifierValidatorError(t *testing.T) {
	cause := errors.New("idtoken: audience provided does not match aud claim in the JWT")
	v := newGoogleVerifier("client-id", &stubValidator{err: cause})

	_, err := v.Verify(context.Background(), "raw-token")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrAssertionTooEarly)
}

func TestNewGoogleVerifierRequiresClientID(t *testing.T) {
	_, err := NewGoogleVerifier(context.Background(), "")
	assert.Error(t, err)
}
