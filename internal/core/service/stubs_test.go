package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/99minutos/authgate/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub directory
// ---------------------------------------------------------------------------

type stubDirectory struct {
	mu    sync.Mutex
	users []*domain.User

	findErr   error // if set, every Find returns this error
	insertErr error // if set, Insert returns this error
	inserts   int
}

func (d *stubDirectory) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return d.find(func(u *domain.User) bool { return u.Email == email })
}

func (d *stubDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return d.find(func(u *domain.User) bool { return u.Username == username })
}

func (d *stubDirectory) find(match func(*domain.User) bool) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.findErr != nil {
		return nil, d.findErr
	}
	for _, u := range d.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *stubDirectory) NextID(_ context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var max int64
	for _, u := range d.users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max + 1, nil
}

func (d *stubDirectory) Insert(_ context.Context, user *domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.insertErr != nil {
		return d.insertErr
	}
	clone := *user
	d.users = append(d.users, &clone)
	d.inserts++
	return nil
}

func (d *stubDirectory) List(_ context.Context) ([]*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.User, 0, len(d.users))
	for _, u := range d.users {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------------------------------------------------------------------------
// Fake hasher: salted, reversible, cheap
// ---------------------------------------------------------------------------

type fakeHasher struct {
	salt     atomic.Int64
	verifies atomic.Int64
	hashErr  error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return fmt.Sprintf("fake$%d$%s", h.salt.Add(1), password), nil
}

func (h *fakeHasher) Verify(password, hash string) bool {
	h.verifies.Add(1)
	parts := strings.SplitN(hash, "$", 3)
	return len(parts) == 3 && parts[0] == "fake" && parts[2] == password
}

// ---------------------------------------------------------------------------
// In-memory stub session store
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	getErr   error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *stubSessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var errBoom = errors.New("boom")

// fixedClock returns a now func that can be advanced by the test.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var mu sync.Mutex
	now := start
	return func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}, func(d time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(d)
		}
}
