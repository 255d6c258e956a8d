package ports

import (
	"context"
	"time"

	"github.com/99minutos/authgate/internal/core/domain"
)

// SessionStore maps session ids to identities with an expiry.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	// Get returns domain.ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Delete removes the session; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// LandingView is the data the landing page is rendered with.
type LandingView struct {
	Anonymous bool
	Identity  *domain.Identity
	// Users is the full directory for admins and nil for everyone else.
	Users []domain.Identity
}

// SessionManager binds authenticated users to client sessions.
type SessionManager interface {
	Bind(ctx context.Context, previousToken string, user *domain.User) (string, error)
	Current(ctx context.Context, token string) (*domain.Identity, error)
	Clear(ctx context.Context, token string) error
	Landing(ctx context.Context, identity *domain.Identity) (LandingView, error)
	TTL() time.Duration
}
