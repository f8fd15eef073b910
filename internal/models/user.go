package models

import (
	"time"
)

// User represents an application user. Column names match the camelCase
// identifiers of the existing users table.
type User struct {
	ID           uint         `gorm:"column:id;primaryKey;autoIncrement"`
	FirstName    string       `gorm:"column:firstName;size:255;not null"`
	LastName     string       `gorm:"column:lastName;size:255;not null"`
	Email        string       `gorm:"column:email;size:255;uniqueIndex;not null"`
	Password     *string      `gorm:"column:password;size:255"` // bcrypt digest, nil for Google-only accounts
	GoogleID     *string      `gorm:"column:googleId;size:255;uniqueIndex"`
	Picture      *string      `gorm:"column:picture;size:500"`
	AuthProvider AuthProvider `gorm:"column:authProvider;size:50;not null;default:'local'"`
	CreatedAt    time.Time    `gorm:"column:createdAt"`
	UpdatedAt    time.Time    `gorm:"column:updatedAt"`
}

// TableName pins the table name.
func (User) TableName() string { return "users" }

// HasPassword reports whether the user can log in with a local password.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// IsLinked reports whether a Google identity is attached to the account.
func (u *User) IsLinked() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// UserUpdate lists the fields a partial update may set. A nil field is left
// untouched.
type UserUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Password     *string
	GoogleID     *string
	Picture      *string
	AuthProvider *AuthProvider
}

// IsEmpty reports whether the update carries no fields.
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == nil &&
		u.LastName == nil &&
		u.Email == nil &&
		u.Password == nil &&
		u.GoogleID == nil &&
		u.Picture == nil &&
		u.AuthProvider == nil
}

// Columns returns the column/value pairs of the present fields.
func (u UserUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.FirstName != nil {
		cols["firstName"] = *u.FirstName
	}
	if u.LastName != nil {
		cols["lastName"] = *u.LastName
	}
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.Password != nil {
		cols["password"] = *u.Password
	}
	if u.GoogleID != nil {
		cols["googleId"] = *u.GoogleID
	}
	if u.Picture != nil {
		cols["picture"] = *u.Picture
	}
	if u.AuthProvider != nil {
		cols["authProvider"] = *u.AuthProvider
	}
	return cols
}
