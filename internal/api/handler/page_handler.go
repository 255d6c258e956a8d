package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/authgate/internal/api/metrics"
	"github.com/99minutos/authgate/internal/api/middleware"
	"github.com/99minutos/authgate/internal/core/domain"
	"github.com/99minutos/authgate/internal/core/ports"
)

// Template names understood by the renderer.
const (
	pageIndex   = "index"
	pageLogin   = "login"
	pageSignup  = "signup"
	pageLanding = "landing"
)

// PageHandler serves the browser flow: index, signup, login, landing, logout.
type PageHandler struct {
	auth     ports.AuthService
	sessions ports.SessionManager
	audit    ports.AuditPublisher
	cookie   middleware.CookieOptions
	log      zerolog.Logger
}

func NewPageHandler(auth ports.AuthService, sessions ports.SessionManager, audit ports.AuditPublisher, cookie middleware.CookieOptions, log zerolog.Logger) *PageHandler {
	return &PageHandler{auth: auth, sessions: sessions, audit: audit, cookie: cookie, log: log}
}

// Form fields are passed to the auth service untouched; it owns every
// validation rule and their order.
type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type signupForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// LoginPage is the data of the login template.
type LoginPage struct {
	Error   string
	Success string
	Email   string
}

// SignupPage is the data of the signup template.
type SignupPage struct {
	Error    string
	Username string
	Email    string
}

// LandingPage is the data of the landing template. Users is nil unless the
// viewer is an admin.
type LandingPage struct {
	User  domain.Identity
	Users []domain.Identity
}

// Index redirects bound sessions to the landing page and renders the
// anonymous index otherwise.
func (h *PageHandler) Index(c echo.Context) error {
	if middleware.IdentityFrom(c) != nil {
		return c.Redirect(http.StatusFound, "/landing")
	}
	return c.Render(http.StatusOK, pageIndex, nil)
}

func (h *PageHandler) ShowLogin(c echo.Context) error {
	page := LoginPage{}
	if c.QueryParam("success") != "" {
		page.Success = msgSignedUp
	}
	return c.Render(http.StatusOK, pageLogin, page)
}

// Login verifies the credentials, binds a fresh session and redirects to the
// landing page. Failures re-render the form with one undifferentiated message.
func (h *PageHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return c.Render(http.StatusBadRequest, pageLogin, LoginPage{Error: msgInvalidCredentials})
	}

	ctx := c.Request().Context()
	user, err := h.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			h.publish(c, domain.EventLoginFailed, 0, form.Email)
			return c.Render(http.StatusUnauthorized, pageLogin, LoginPage{Error: msgInvalidCredentials, Email: form.Email})
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	token, err := h.sessions.Bind(ctx, middleware.TokenFrom(c), user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := middleware.SaveSessionToken(c, token, h.cookie); err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	h.publish(c, domain.EventLoginSucceeded, user.ID, user.Email)
	h.log.Info().Int64("user_id", user.ID).Msg("session bound")
	return c.Redirect(http.StatusFound, "/landing")
}

func (h *PageHandler) ShowSignup(c echo.Context) error {
	return c.Render(http.StatusOK, pageSignup, SignupPage{})
}

// Signup creates the account and redirects to the login form with a success
// flag. Rejections re-render the form with the message of the first failing
// check.
func (h *PageHandler) Signup(c echo.Context) error {
	var form signupForm
	if err := c.Bind(&form); err != nil {
		return c.Render(http.StatusBadRequest, pageSignup, SignupPage{Error: msgMissingFields})
	}

	user, err := h.auth.Signup(c.Request().Context(), form.Username, form.Email, form.Password)
	if err != nil {
		status, msg, result, ok := signupFailure(err)
		metrics.SignupsTotal.WithLabelValues(result).Inc()
		if !ok {
			return err
		}
		return c.Render(status, pageSignup, SignupPage{Error: msg, Username: form.Username, Email: form.Email})
	}

	metrics.SignupsTotal.WithLabelValues("ok").Inc()
	h.publish(c, domain.EventSignup, user.ID, user.Email)
	return c.Redirect(http.StatusFound, "/login?success=true")
}

// Landing renders the landing page for the bound identity: admins see every
// user, everyone else sees none. Anonymous visitors go back to the index.
func (h *PageHandler) Landing(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return c.Redirect(http.StatusFound, "/")
	}

	view, err := h.sessions.Landing(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, pageLanding, LandingPage{User: *view.Identity, Users: view.Users})
}

// Logout destroys the server-side session, expires the cookie and redirects
// to the index.
func (h *PageHandler) Logout(c echo.Context) error {
	if err := h.sessions.Clear(c.Request().Context(), middleware.TokenFrom(c)); err != nil {
		return err
	}
	if err := middleware.ExpireSession(c, h.cookie); err != nil {
		return err
	}

	if identity := middleware.IdentityFrom(c); identity != nil {
		metrics.LogoutsTotal.Inc()
		h.publish(c, domain.EventLogout, identity.ID, identity.Email)
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *PageHandler) publish(c echo.Context, kind domain.AuthEventKind, userID int64, email string) {
	h.audit.Publish(domain.AuthEvent{
		Kind:     kind,
		UserID:   userID,
		Email:    domain.NormalizeEmail(email),
		RemoteIP: c.RealIP(),
		At:       time.Now().UTC(),
	})
}
