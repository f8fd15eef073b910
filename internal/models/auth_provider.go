package models

import (
	"database/sql/driver"
	"fmt"
)

// AuthProvider records the provider a user last authenticated or linked with.
type AuthProvider string

// Supported providers. The set is closed: Scan and Value reject anything else.
const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

// ParseAuthProvider converts a stored value into an AuthProvider.
func ParseAuthProvider(s string) (AuthProvider, error) {
	switch p := AuthProvider(s); p {
	case ProviderLocal, ProviderGoogle:
		return p, nil
	default:
		return "", fmt.Errorf("unknown auth provider %q", s)
	}
}

// Valid reports whether p is one of the supported providers.
func (p AuthProvider) Valid() bool {
	_, err := ParseAuthProvider(string(p))
	return err == nil
}

func (p AuthProvider) String() string { return string(p) }

// Scan implements sql.Scanner.
func (p *AuthProvider) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		// column default
		*p = ProviderLocal
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into AuthProvider", src)
	}

	parsed, err := ParseAuthProvider(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer.
func (p AuthProvider) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown auth provider %q", string(p))
	}
	return string(p), nil
}
