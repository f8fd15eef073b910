package auth

import (
	"context"
	"errors"

	"github.com/jimdaga/apod-auth/internal/models"
)

// Placeholder names for Google accounts whose token carries none.
const (
	defaultFirstName = "User"
	defaultLastName  = ""
)

// Outcome says how an assertion was matched to an account.
type Outcome int

const (
	// OutcomeExisting means the email matched an already-linked account.
	OutcomeExisting Outcome = iota
	// OutcomeLinked means the assertion was linked to an existing account.
	OutcomeLinked
	// OutcomeCreated means a new Google account was created.
	OutcomeCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLinked:
		return "linked"
	case OutcomeCreated:
		return "created"
	default:
		return "existing"
	}
}

// IdentityResolver maps a verified external identity onto a user account.
// Email is the merge key: a Google login with the email of a local account
// links to that account instead of creating a second one.
type IdentityResolver struct {
	users UserStore
}

// NewIdentityResolver creates an IdentityResolver backed by users.
func NewIdentityResolver(users UserStore) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve finds, links or creates the account for a.
func (r *IdentityResolver) Resolve(ctx context.Context, a *Assertion) (*models.User, Outcome, error) {
	if a == nil || a.Email == "" {
		e := newError(KindInvalidAssertion, msgEmailMissing, nil)
		e.Code = CodeEmailMissing
		return nil, OutcomeExisting, e
	}
	if a.ExternalID == "" {
		return nil, OutcomeExisting, newError(KindInvalidAssertion, msgInvalidGoogleToken, errors.New("assertion has no subject"))
	}

	user, err := r.users.FindByEmail(ctx, a.Email)
	if err != nil {
		return nil, OutcomeExisting, resolutionFailed(err)
	}

	if user == nil {
		return r.create(ctx, a)
	}

	if user.IsLinked() {
		return user, OutcomeExisting, nil
	}

	return r.link(ctx, user, a)
}

func (r *IdentityResolver) link(ctx context.Context, user *models.User, a *Assertion) (*models.User, Outcome, error) {
	var picture *string
	if a.PictureURL != "" {
		picture = &a.PictureURL
	}

	linked, err := r.users.LinkGoogle(ctx, user.ID, a.ExternalID, picture)
	if err != nil {
		return nil, OutcomeExisting, resolutionFailed(err)
	}
	if linked != nil {
		return linked, OutcomeLinked, nil
	}

	// another request linked the account after it was read
	current, err := r.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, OutcomeExisting, resolutionFailed(err)
	}
	if current == nil || !current.IsLinked() {
		return nil, OutcomeExisting, resolutionFailed(errors.New("user changed while linking google account"))
	}
	return current, OutcomeExisting, nil
}

func (r *IdentityResolver) create(ctx context.Context, a *Assertion) (*models.User, Outcome, error) {
	user := &models.User{
		FirstName:    orDefault(a.FirstName, defaultFirstName),
		LastName:     orDefault(a.LastName, defaultLastName),
		Email:        a.Email,
		GoogleID:     &a.ExternalID,
		AuthProvider: models.ProviderGoogle,
	}
	if a.PictureURL != "" {
		user.Picture = &a.PictureURL
	}

	// a concurrent request may create the same email first; the unique
	// constraint rejects this insert and it is reported like any store failure
	if err := r.users.Create(ctx, user); err != nil {
		return nil, OutcomeExisting, resolutionFailed(err)
	}
	return user, OutcomeCreated, nil
}

func resolutionFailed(cause error) *Error {
	return newError(KindIdentityResolution, msgResolutionFailed, cause)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
