package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/idtoken"
)

// DefaultClockSkew is how far in the future a token's iat/nbf may lie.
const DefaultClockSkew = 5 * time.Minute

// ErrAssertionTooEarly is returned when a token is used before it is valid,
// usually because of clock drift between the client and this server.
var ErrAssertionTooEarly = errors.New("token used too early")

// Assertion is a verified identity from an external provider.
type Assertion struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	PictureURL string
}

// payloadValidator is satisfied by *idtoken.Validator.
type payloadValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier verifies Google ID tokens issued for one OAuth client.
type GoogleVerifier struct {
	clientID  string
	validator payloadValidator
	clockSkew time.Duration
	now       func() time.Time
}

// NewGoogleVerifier creates a verifier for tokens whose audience is clientID.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}

	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create google token validator: %w", err)
	}

	return newGoogleVerifier(clientID, v), nil
}

func newGoogleVerifier(clientID string, v payloadValidator) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:  clientID,
		validator: v,
		clockSkew: DefaultClockSkew,
		now:       time.Now,
	}
}

// Verify checks the credential's signature, issuer, audience and validity
// window and maps its claims onto an Assertion.
func (g *GoogleVerifier) Verify(ctx context.Context, credential string) (*Assertion, error) {
	payload, err := g.validator.Validate(ctx, credential, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate google id token: %w", err)
	}

	latest := g.now().Add(g.clockSkew).Unix()
	if payload.IssuedAt > latest {
		return nil, fmt.Errorf("%w: iat=%d", ErrAssertionTooEarly, payload.IssuedAt)
	}
	if nbf, ok := numericClaim(payload.Claims, "nbf"); ok && nbf > latest {
		return nil, fmt.Errorf("%w: nbf=%d", ErrAssertionTooEarly, nbf)
	}

	return &Assertion{
		ExternalID: payload.Subject,
		Email:      stringClaim(payload.Claims, "email"),
		FirstName:  stringClaim(payload.Claims, "given_name"),
		LastName:   stringClaim(payload.Claims, "family_name"),
		PictureURL: stringClaim(payload.Claims, "picture"),
	}, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func numericClaim(claims map[string]interface{}, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
