package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jimdaga/apod-auth/internal/models"
	"github.com/jimdaga/apod-auth/internal/users"
)

// Development seed account.
const (
	DevUserEmail    = "dev@apod.local"
	DevUserPassword = "DevPassw0rd!"
)

// UserSeeder is the subset of the user store the seed needs.
type UserSeeder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Hasher produces password digests.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// SeedDevData creates a local development account.
// Idempotent: skips if the account already exists.
func SeedDevData(ctx context.Context, store UserSeeder, hasher Hasher) error {
	existing, err := store.FindByEmail(ctx, DevUserEmail)
	if err != nil {
		return fmt.Errorf("failed to look up seed user: %w", err)
	}
	if existing != nil {
		slog.Info("Seed data already exists, skipping", "user_id", existing.ID)
		return nil
	}

	digest, err := hasher.Hash(DevUserPassword)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	user := models.User{
		FirstName:    "Dev",
		LastName:     "User",
		Email:        DevUserEmail,
		Password:     &digest,
		AuthProvider: models.ProviderLocal,
	}
	if err := store.Create(ctx, &user); err != nil {
		if errors.Is(err, users.ErrConflict) {
			// another instance seeded concurrently
			return nil
		}
		return err
	}

	slog.Info("Seeded dev data: 1 local user", "user_id", user.ID, "email", DevUserEmail)
	return nil
}
