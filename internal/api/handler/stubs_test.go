package handler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/authgate/internal/core/domain"
	"github.com/99minutos/authgate/internal/core/ports"
)

type stubAuthService struct {
	signupFn func(ctx context.Context, username, email, password string) (*domain.User, error)
	loginFn  func(ctx context.Context, email, password string) (*domain.User, error)
	listFn   func(ctx context.Context) ([]*domain.User, error)
}

func (s *stubAuthService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.signupFn(ctx, username, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

type stubSessions struct {
	bound    map[string]domain.Identity
	next     int
	cleared  []string
	listing  []domain.Identity
	bindErr  error
	prevSeen []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{bound: make(map[string]domain.Identity)}
}

func (s *stubSessions) Bind(_ context.Context, prev string, user *domain.User) (string, error) {
	if s.bindErr != nil {
		return "", s.bindErr
	}
	s.prevSeen = append(s.prevSeen, prev)
	delete(s.bound, prev)
	s.next++
	token := fmt.Sprintf("tok-%d", s.next)
	s.bound[token] = user.Identity()
	return token, nil
}

func (s *stubSessions) Current(_ context.Context, token string) (*domain.Identity, error) {
	id, ok := s.bound[token]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (s *stubSessions) Clear(_ context.Context, token string) error {
	s.cleared = append(s.cleared, token)
	delete(s.bound, token)
	return nil
}

func (s *stubSessions) Landing(_ context.Context, identity *domain.Identity) (ports.LandingView, error) {
	if identity == nil {
		return ports.LandingView{Anonymous: true}, nil
	}
	view := ports.LandingView{Identity: identity}
	if identity.IsAdmin() {
		view.Users = s.listing
	}
	return view, nil
}

func (s *stubSessions) TTL() time.Duration { return time.Hour }

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (a *recordingAudit) Publish(e domain.AuthEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAudit) kinds() []domain.AuthEventKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuthEventKind, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Kind)
	}
	return out
}

// captureRenderer records the last page rendered instead of executing a
// template.
type captureRenderer struct {
	name string
	data interface{}
}

func (r *captureRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	r.name = name
	r.data = data
	_, err := io.WriteString(w, name)
	return err
}

type stubIssuer struct {
	err error
}

func (s stubIssuer) Issue(identity domain.Identity) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return fmt.Sprintf("jwt-%d", identity.ID), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}
