package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/authgate/internal/core/domain"
	"github.com/99minutos/authgate/internal/core/ports"
)

// AuthService implements signup and login against a Directory.
type AuthService struct {
	dir    ports.Directory
	hasher ports.PasswordHasher
	log    zerolog.Logger

	// mu serialises the uniqueness re-check, NextID and Insert sequence.
	mu sync.Mutex

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(dir ports.Directory, hasher ports.PasswordHasher, log zerolog.Logger) *AuthService {
	return &AuthService{dir: dir, hasher: hasher, log: log}
}

// Signup registers a new account with role user. Checks run in order and the
// first failure wins: missing fields, username taken, email taken, password
// longer than bcrypt accepts.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if strings.TrimSpace(username) == "" || email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	// Fail fast before paying for the hash.
	if err := s.checkAvailable(ctx, username, email); err != nil {
		return nil, err
	}
	if len(password) > domain.MaxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}

	user, err := s.insertNew(ctx, username, email, hash, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user signed up")
	return user, nil
}

// Login returns the user owning email when password matches. Unknown emails
// and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.dir.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Pay the same hash cost as a real account.
			s.hasher.Verify(password, s.dummy())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Debug().Int64("user_id", user.ID).Msg("password mismatch")
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.dir.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// insertNew re-checks uniqueness under the lock, assigns the next id and
// appends the user.
func (s *AuthService) insertNew(ctx context.Context, username, email, hash string, role domain.Role) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	id, err := s.dir.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next user id: %w", err)
	}

	user := &domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.dir.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *AuthService) checkAvailable(ctx context.Context, username, email string) error {
	if _, err := s.dir.FindByUsername(ctx, username); err == nil {
		return domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("find by username: %w", err)
	}

	if _, err := s.dir.FindByEmail(ctx, email); err == nil {
		return domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("find by email: %w", err)
	}
	return nil
}

// dummy returns a real hash of a random secret, computed once, so that
// verifying against it costs the same as verifying a stored password.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		b := make([]byte, 16)
		if _, err := rand.Read(b); err != nil {
			s.log.Warn().Err(err).Msg("dummy hash: random source failed")
			return
		}
		h, err := s.hasher.Hash(hex.EncodeToString(b))
		if err != nil {
			s.log.Warn().Err(err).Msg("dummy hash: hashing failed")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
