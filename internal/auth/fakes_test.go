package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jimdaga/apod-auth/internal/models"
	"github.com/jimdaga/apod-auth/internal/streams"
	"github.com/jimdaga/apod-auth/internal/users"
)

// memStore is an in-memory UserStore enforcing unique email and googleId.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.User

	findErr   error
	createErr error
	linkErr   error
	// raceEmail simulates a concurrent signup: FindByEmail misses, Create conflicts.
	raceEmail string

	// beforeLink runs at the start of LinkGoogle, outside the lock.
	beforeLink func()

	creates int
	links   int
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[uint]*models.User)}
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	if email == s.raceEmail {
		return nil, nil
	}
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	if user.Email == s.raceEmail {
		return &users.ConflictError{Constraint: "users_email_key"}
	}
	for _, u := range s.byID {
		if u.Email == user.Email {
			return &users.ConflictError{Constraint: "users_email_key"}
		}
		if user.GoogleID != nil && u.GoogleID != nil && *u.GoogleID == *user.GoogleID {
			return &users.ConflictError{Constraint: "users_googleId_key"}
		}
	}

	s.nextID++
	now := time.Now().UTC()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

func (s *memStore) LinkGoogle(_ context.Context, id uint, googleID string, picture *string) (*models.User, error) {
	if s.beforeLink != nil {
		s.beforeLink()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.links++
	if s.linkErr != nil {
		return nil, s.linkErr
	}
	u, ok := s.byID[id]
	if !ok || u.IsLinked() {
		return nil, nil
	}
	for _, other := range s.byID {
		if other.GoogleID != nil && *other.GoogleID == googleID {
			return nil, &users.ConflictError{Constraint: "users_googleId_key"}
		}
	}

	u.GoogleID = &googleID
	u.AuthProvider = models.ProviderGoogle
	if u.Picture == nil && picture != nil {
		u.Picture = picture
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// setGoogleID links a row directly, as a concurrent request would.
func (s *memStore) setGoogleID(id uint, googleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id].GoogleID = &googleID
	s.byID[id].AuthProvider = models.ProviderGoogle
}

// seed inserts u directly, bypassing the failure switches.
func (s *memStore) seed(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = &u
	cp := u
	return &cp
}

type fakeVerifier struct {
	assertion *Assertion
	err       error
	calls     int
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*Assertion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.assertion
	return &cp, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []streams.AuthEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev streams.AuthEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, ev)
	return "1-0", nil
}

func (p *recordingPublisher) types() []streams.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]streams.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

var errStoreDown = errors.New("connection refused")

func strPtr(s string) *string { return &s }

// countingHasher records how often Verify runs.
type countingHasher struct {
	PasswordHasher
	verifies int
}

func (h *countingHasher) Verify(plaintext, digest string) bool {
	h.verifies++
	return h.PasswordHasher.Verify(plaintext, digest)
}
