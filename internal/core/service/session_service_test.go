package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/authgate/internal/core/domain"
)

func newTestSessionService(dir *stubDirectory, ttl time.Duration) (*SessionService, *stubSessionStore, func(time.Duration)) {
	store := newStubSessionStore()
	svc := NewSessionService(store, dir, ttl, zerolog.Nop())
	now, advance := fixedClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc.now = now
	return svc, store, advance
}

var alice = &domain.User{ID: 7, Username: "alice", Email: "alice@x.com", PasswordHash: "secret-hash", Role: domain.RoleUser}

func TestSession_BindThenClear(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestSessionService(&stubDirectory{}, time.Hour)

	token, err := svc.Bind(ctx, "", alice)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(token) != 2*sessionTokenBytes {
		t.Fatalf("expected %d hex chars, got %d", 2*sessionTokenBytes, len(token))
	}

	identity, err := svc.Current(ctx, token)
	if err != nil || identity == nil {
		t.Fatalf("expected bound identity, got %v / %v", identity, err)
	}
	if identity.ID != 7 || identity.Username != "alice" || identity.Role != domain.RoleUser {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	if err := svc.Clear(ctx, token); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.len() != 0 {
		t.Fatalf("clear must delete stored data")
	}
	identity, err = svc.Current(ctx, token)
	if err != nil || identity != nil {
		t.Fatalf("expected no identity after clear, got %v / %v", identity, err)
	}
}

func TestSession_KeyedByTokenDigest(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestSessionService(&stubDirectory{}, time.Hour)

	token, err := svc.Bind(ctx, "", alice)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	for id, sess := range store.sessions {
		if id == token {
			t.Fatalf("raw token used as store key")
		}
		if strings.Contains(id, token) {
			t.Fatalf("store key leaks token")
		}
		if sess.Identity.Email != "alice@x.com" {
			t.Fatalf("unexpected stored identity: %+v", sess.Identity)
		}
	}
}

func TestSession_BindRotatesToken(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestSessionService(&stubDirectory{}, time.Hour)

	first, err := svc.Bind(ctx, "", alice)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	second, err := svc.Bind(ctx, first, alice)
	if err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if first == second {
		t.Fatalf("bind must issue a fresh token")
	}
	if identity, _ := svc.Current(ctx, first); identity != nil {
		t.Fatalf("previous token must be unbound after rotation")
	}
	if identity, _ := svc.Current(ctx, second); identity == nil {
		t.Fatalf("new token must be bound")
	}
	if store.len() != 1 {
		t.Fatalf("expected one stored session, got %d", store.len())
	}
}

func TestSession_CurrentUnbound(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestSessionService(&stubDirectory{}, time.Hour)

	for _, token := range []string{"", "deadbeef"} {
		identity, err := svc.Current(ctx, token)
		if err != nil || identity != nil {
			t.Fatalf("token %q: expected none, got %v / %v", token, identity, err)
		}
	}
}

func TestSession_Expiry(t *testing.T) {
	ctx := context.Background()
	svc, store, advance := newTestSessionService(&stubDirectory{}, time.Minute)

	token, err := svc.Bind(ctx, "", alice)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	advance(59 * time.Second)
	if identity, _ := svc.Current(ctx, token); identity == nil {
		t.Fatalf("session expired too early")
	}

	advance(time.Second)
	identity, err := svc.Current(ctx, token)
	if err != nil || identity != nil {
		t.Fatalf("expected expired session to be unbound, got %v / %v", identity, err)
	}
	if store.len() != 0 {
		t.Fatalf("expired session should be dropped")
	}
}

func TestSession_StoreErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestSessionService(&stubDirectory{}, time.Hour)
	store.getErr = errBoom

	_, err := svc.Current(ctx, "sometoken")
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSession_DefaultTTL(t *testing.T) {
	svc := NewSessionService(newStubSessionStore(), &stubDirectory{}, 0, zerolog.Nop())
	if svc.TTL() != defaultSessionTTL {
		t.Fatalf("expected default ttl %v, got %v", defaultSessionTTL, svc.TTL())
	}
}

// ---------------------------------------------------------------------------
// Landing
// ---------------------------------------------------------------------------

func TestLanding_Anonymous(t *testing.T) {
	svc, _, _ := newTestSessionService(&stubDirectory{}, time.Hour)

	view, err := svc.Landing(context.Background(), nil)
	if err != nil {
		t.Fatalf("landing: %v", err)
	}
	if !view.Anonymous || view.Identity != nil || view.Users != nil {
		t.Fatalf("expected anonymous view, got %+v", view)
	}
}

func TestLanding_AdminSeesEveryUser(t *testing.T) {
	auth, dir, _ := seededAuthService(t)
	svc, _, _ := newTestSessionService(dir, time.Hour)

	admin, err := auth.Login(context.Background(), "admin@example.com", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	identity := admin.Identity()

	view, err := svc.Landing(context.Background(), &identity)
	if err != nil {
		t.Fatalf("landing: %v", err)
	}
	if len(view.Users) != len(DemoUsers) {
		t.Fatalf("expected %d users, got %d", len(DemoUsers), len(view.Users))
	}
	for i, u := range view.Users {
		if u.ID != int64(i+1) {
			t.Fatalf("listing not ordered by id: %+v", view.Users)
		}
	}
}

func TestLanding_UserSeesNone(t *testing.T) {
	auth, dir, _ := seededAuthService(t)
	svc, _, _ := newTestSessionService(dir, time.Hour)

	user, err := auth.Login(context.Background(), "user@example.com", "user123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	identity := user.Identity()

	view, err := svc.Landing(context.Background(), &identity)
	if err != nil {
		t.Fatalf("landing: %v", err)
	}
	if view.Anonymous || view.Users != nil {
		t.Fatalf("expected no listing for role user, got %+v", view)
	}
}

// ---------------------------------------------------------------------------
// End to end: signup → login → landing → logout
// ---------------------------------------------------------------------------

func TestSignupLoginLandingLogout(t *testing.T) {
	ctx := context.Background()
	auth, dir, _ := seededAuthService(t)
	sessions, _, _ := newTestSessionService(dir, time.Hour)

	bob, err := auth.Signup(ctx, "Bob", "bob@x.com", "pw1234")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if bob.ID != 4 {
		t.Fatalf("expected id 4 after three seeded users, got %d", bob.ID)
	}

	user, err := auth.Login(ctx, "bob@x.com", "pw1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	token, err := sessions.Bind(ctx, "", user)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	identity, err := sessions.Current(ctx, token)
	if err != nil || identity == nil {
		t.Fatalf("expected bound session, got %v / %v", identity, err)
	}
	if identity.Username != "Bob" || identity.Role != domain.RoleUser {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	view, err := sessions.Landing(ctx, identity)
	if err != nil {
		t.Fatalf("landing: %v", err)
	}
	if view.Users != nil {
		t.Fatalf("role user must not see a listing")
	}

	if err := sessions.Clear(ctx, token); err != nil {
		t.Fatalf("clear: %v", err)
	}
	identity, _ = sessions.Current(ctx, token)
	view, _ = sessions.Landing(ctx, identity)
	if !view.Anonymous {
		t.Fatalf("expected anonymous after logout")
	}
}
