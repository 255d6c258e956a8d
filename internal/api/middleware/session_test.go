package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/authgate/internal/core/domain"
	"github.com/99minutos/authgate/internal/core/ports"
)

type stubSessionManager struct {
	identities map[string]*domain.Identity
	currentErr error
}

func (m *stubSessionManager) Bind(context.Context, string, *domain.User) (string, error) {
	return "", nil
}

func (m *stubSessionManager) Current(_ context.Context, token string) (*domain.Identity, error) {
	if m.currentErr != nil {
		return nil, m.currentErr
	}
	return m.identities[token], nil
}

func (m *stubSessionManager) Clear(context.Context, string) error { return nil }

func (m *stubSessionManager) Landing(context.Context, *domain.Identity) (ports.LandingView, error) {
	return ports.LandingView{}, nil
}

func (m *stubSessionManager) TTL() time.Duration { return time.Hour }

// newSessionEcho wires the cookie store, the Session middleware and three
// routes: /set stores token "tok", /expire drops the cookie, /who reports
// the resolved identity.
func newSessionEcho(m ports.SessionManager) *echo.Echo {
	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))))
	e.Use(Session(m, zerolog.Nop()))

	opts := CookieOptions{TTL: time.Hour}
	e.GET("/set", func(c echo.Context) error {
		if err := SaveSessionToken(c, "tok", opts); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/expire", func(c echo.Context) error {
		if err := ExpireSession(c, opts); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/who", func(c echo.Context) error {
		identity := IdentityFrom(c)
		if identity == nil {
			return c.String(http.StatusOK, "anonymous|"+TokenFrom(c))
		}
		return c.String(http.StatusOK, identity.Username+"|"+TokenFrom(c))
	})
	return e
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			return ck
		}
	}
	t.Fatalf("no %s cookie in response", SessionCookie)
	return nil
}

func TestSession_ResolvesIdentityFromCookie(t *testing.T) {
	m := &stubSessionManager{identities: map[string]*domain.Identity{
		"tok": {ID: 4, Username: "Bob", Role: domain.RoleUser},
	}}
	e := newSessionEcho(m)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/set", nil))
	ck := sessionCookie(t, rec)
	if !ck.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Body.String() != "Bob|tok" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestSession_AnonymousWithoutCookie(t *testing.T) {
	e := newSessionEcho(&stubSessionManager{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/who", nil))
	if rec.Body.String() != "anonymous|" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestSession_UnknownTokenIsAnonymous(t *testing.T) {
	e := newSessionEcho(&stubSessionManager{identities: map[string]*domain.Identity{}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/set", nil))
	ck := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Body.String() != "anonymous|tok" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestSession_TamperedCookieIsAnonymous(t *testing.T) {
	e := newSessionEcho(&stubSessionManager{})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous|" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestSession_StoreErrorAborts(t *testing.T) {
	e := newSessionEcho(&stubSessionManager{currentErr: errors.New("redis down")})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/set", nil))
	ck := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestExpireSession_DropsCookie(t *testing.T) {
	e := newSessionEcho(&stubSessionManager{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expire", nil))
	ck := sessionCookie(t, rec)
	if ck.MaxAge >= 0 {
		t.Fatalf("expected negative MaxAge, got %d", ck.MaxAge)
	}
}
