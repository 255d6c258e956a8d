// Package memory provides process-local implementations of the directory and
// session store. Everything is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/99minutos/authgate/internal/core/domain"
)

// Directory implements ports.Directory with indexed maps over an id-ordered
// slice. Lookups are exact and case-sensitive.
type Directory struct {
	mu         sync.RWMutex
	users      []*domain.User
	byEmail    map[string]*domain.User
	byUsername map[string]*domain.User
	maxID      int64
}

func NewDirectory() *Directory {
	return &Directory{
		byEmail:    make(map[string]*domain.User),
		byUsername: make(map[string]*domain.User),
	}
}

func (d *Directory) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (d *Directory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// NextID returns one past the highest id ever inserted, so ids are never
// reused even if records were to disappear.
func (d *Directory) NextID(_ context.Context) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.maxID + 1, nil
}

// Insert appends user. The index maps are overwritten on key collision;
// callers check uniqueness first.
func (d *Directory) Insert(_ context.Context, user *domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u := cloneUser(user)
	d.users = append(d.users, u)
	d.byEmail[u.Email] = u
	d.byUsername[u.Username] = u
	if u.ID > d.maxID {
		d.maxID = u.ID
	}
	return nil
}

// List returns copies of every user in insertion order, which is id order
// because ids are assigned monotonically.
func (d *Directory) List(_ context.Context) ([]*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*domain.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}
