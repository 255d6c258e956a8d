package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/99minutos/authgate/internal/core/domain"
)

// SeedUser describes an account created at startup rather than through signup.
type SeedUser struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// DemoUsers are the accounts a development instance starts with.
var DemoUsers = []SeedUser{
	{Username: "AdminUser", Email: "admin@example.com", Password: "admin123", Role: domain.RoleAdmin},
	{Username: "RegularUser", Email: "user@example.com", Password: "user123", Role: domain.RoleUser},
	{Username: "AnotherUser", Email: "another@example.com", Password: "another123", Role: domain.RoleUser},
}

// Seed inserts each account whose username and email are both unused.
// Existing accounts are left alone, so seeding a persistent directory twice is
// harmless. It returns the number of accounts created.
func (s *AuthService) Seed(ctx context.Context, users []SeedUser) (int, error) {
	created := 0
	for _, su := range users {
		email := domain.NormalizeEmail(su.Email)
		if err := s.checkAvailable(ctx, su.Username, email); err != nil {
			if errors.Is(err, domain.ErrUsernameTaken) || errors.Is(err, domain.ErrEmailTaken) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", su.Username, err)
		}

		hash, err := s.hasher.Hash(su.Password)
		if err != nil {
			return created, fmt.Errorf("seed %s: hash password: %w", su.Username, err)
		}

		user, err := s.insertNew(ctx, su.Username, email, hash, su.Role)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", su.Username, err)
		}
		created++
		s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Str("role", string(user.Role)).Msg("seeded user")
	}
	return created, nil
}
