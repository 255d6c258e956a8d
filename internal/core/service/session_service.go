package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/authgate/internal/core/domain"
	"github.com/99minutos/authgate/internal/core/ports"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 24 * time.Hour
)

// SessionService binds authenticated users to client tokens and decides what
// the landing page shows.
type SessionService struct {
	store ports.SessionStore
	dir   ports.Directory
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

func NewSessionService(store ports.SessionStore, dir ports.Directory, ttl time.Duration, log zerolog.Logger) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{store: store, dir: dir, ttl: ttl, now: time.Now, log: log}
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Bind issues a fresh token bound to user. Any data held under previousToken
// is discarded first so a login never reuses a pre-existing token.
func (s *SessionService) Bind(ctx context.Context, previousToken string, user *domain.User) (string, error) {
	if previousToken != "" {
		if err := s.store.Delete(ctx, sessionID(previousToken)); err != nil {
			s.log.Warn().Err(err).Msg("failed to drop previous session")
		}
	}

	token, err := newSessionToken()
	if err != nil {
		return "", fmt.Errorf("bind session: %w", err)
	}

	sess := &domain.Session{
		ID:        sessionID(token),
		Identity:  user.Identity(),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("bind session: %w", err)
	}
	return token, nil
}

// Current returns the identity bound to token, or nil when there is none.
func (s *SessionService) Current(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}

	sess, err := s.store.Get(ctx, sessionID(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.IsExpiredAt(s.now()) {
		if err := s.store.Delete(ctx, sess.ID); err != nil {
			s.log.Warn().Err(err).Msg("failed to drop expired session")
		}
		return nil, nil
	}

	identity := sess.Identity
	return &identity, nil
}

// Clear destroys everything stored for token.
func (s *SessionService) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID(token)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Landing selects the landing view: anonymous without an identity, the full
// directory for admins, no listing for everyone else.
func (s *SessionService) Landing(ctx context.Context, identity *domain.Identity) (ports.LandingView, error) {
	if identity == nil {
		return ports.LandingView{Anonymous: true}, nil
	}

	view := ports.LandingView{Identity: identity}
	if !identity.IsAdmin() {
		return view, nil
	}

	users, err := s.dir.List(ctx)
	if err != nil {
		return ports.LandingView{}, fmt.Errorf("landing: list users: %w", err)
	}
	view.Users = make([]domain.Identity, 0, len(users))
	for _, u := range users {
		view.Users = append(view.Users, u.Identity())
	}
	return view, nil
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// sessionID is the store key for a client token.
func sessionID(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
