// Package users persists User records in Postgres through GORM.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jimdaga/apod-auth/internal/models"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

var (
	// ErrConflict matches any ConflictError via errors.Is.
	ErrConflict = errors.New("users: unique constraint violated")

	// ErrNoDatabase is returned by a Store built without a connection.
	ErrNoDatabase = errors.New("database connection not available")
)

// ConflictError reports a uniqueness violation on email or googleId.
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Constraint == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s (%s)", ErrConflict.Error(), e.Constraint)
}

// Is makes errors.Is(err, ErrConflict) true for every ConflictError.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConflictError) Unwrap() error { return e.Err }

// Field returns the user field the violated constraint covers, if known.
func (e *ConflictError) Field() string {
	c := strings.ToLower(e.Constraint)
	switch {
	case strings.Contains(c, "googleid"):
		return "googleId"
	case strings.Contains(c, "email"):
		return "email"
	default:
		return ""
	}
}

// Store reads and writes users. Rows are never deleted.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a Store. A nil db yields a Store whose calls fail with
// ErrNoDatabase, so the process can keep serving while the database is down.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// FindByEmail returns the user with the given email, or nil if none exists.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns the user with the given id, or nil if none exists.
func (s *Store) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts user and fills in its generated id and timestamps.
func (s *Store) Create(ctx context.Context, user *models.User) error {
	if s.db == nil {
		return ErrNoDatabase
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(fmt.Errorf("failed to create user: %w", err))
	}
	return nil
}

// Update applies the present fields of upd to the user with the given id and
// refreshes updatedAt. An empty update skips the write and returns the
// current row. A missing id yields nil.
func (s *Store) Update(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	if upd.IsEmpty() {
		return s.FindByID(ctx, id)
	}

	return s.updateWhere(ctx, id, updateColumns(upd, s.now()))
}

// LinkGoogle attaches googleID to the user with the given id and marks the
// account as google. The row is only written while it has no googleId, so a
// concurrent link is never overwritten; picture only fills an empty column.
// It returns nil when no unlinked row with that id exists.
func (s *Store) LinkGoogle(ctx context.Context, id uint, googleID string, picture *string) (*models.User, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}

	cols := map[string]interface{}{
		"googleId":     googleID,
		"authProvider": models.ProviderGoogle,
		"updatedAt":    s.now(),
	}
	if picture != nil {
		cols["picture"] = gorm.Expr(`COALESCE("picture", ?)`, *picture)
	}

	return s.updateWhere(ctx, id, cols, `("googleId" IS NULL OR "googleId" = '')`)
}

// updateWhere runs one UPDATE ... RETURNING against id plus any extra
// conditions. No matching row yields nil.
func (s *Store) updateWhere(ctx context.Context, id uint, cols map[string]interface{}, conds ...string) (*models.User, error) {
	var user models.User
	q := s.db.WithContext(ctx).
		Model(&user).
		Clauses(clause.Returning{}).
		Where("id = ?", id)
	for _, c := range conds {
		q = q.Where(c)
	}

	result := q.Updates(cols)
	if result.Error != nil {
		return nil, translateError(fmt.Errorf("failed to update user: %w", result.Error))
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &user, nil
}

// updateColumns turns an update into the column set for a single UPDATE.
func updateColumns(upd models.UserUpdate, now time.Time) map[string]interface{} {
	cols := upd.Columns()
	cols["updatedAt"] = now
	return cols
}

// translateError wraps unique violations in a ConflictError.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &ConflictError{Constraint: pgErr.ConstraintName, Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Err: err}
	}
	return err
}
