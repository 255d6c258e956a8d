package ports

import (
	"context"

	"github.com/99minutos/authgate/internal/core/domain"
)

// Directory is the authoritative store of user records. It is a pure store:
// uniqueness is validated by the auth service before Insert is called.
type Directory interface {
	// FindByEmail and FindByUsername match exactly and return
	// domain.ErrUserNotFound when nothing matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// NextID returns max(existing ids)+1, or 1 for an empty directory.
	NextID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, user *domain.User) error
	// List returns every user ordered by id.
	List(ctx context.Context) ([]*domain.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify fails closed: a malformed hash yields false.
	Verify(password, hash string) bool
}
