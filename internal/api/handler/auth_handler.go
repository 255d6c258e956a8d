package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/authgate/internal/api/metrics"
	"github.com/99minutos/authgate/internal/core/domain"
	"github.com/99minutos/authgate/internal/core/ports"
)

// TokenIssuer signs bearer tokens for the JSON API.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, time.Time, error)
}

// AuthHandler exposes signup, token issuance and user listing as JSON.
type AuthHandler struct {
	authService ports.AuthService
	tokens      TokenIssuer
	audit       ports.AuditPublisher
}

func NewAuthHandler(authService ports.AuthService, tokens TokenIssuer, audit ports.AuditPublisher) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens, audit: audit}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.Identity `json:"user"`
}

type usersResponse struct {
	Users []domain.Identity `json:"users"`
}

// Signup creates a new account with role user.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  domain.Identity
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.authService.Signup(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		_, _, result, _ := signupFailure(err)
		metrics.SignupsTotal.WithLabelValues(result).Inc()
		return err
	}

	metrics.SignupsTotal.WithLabelValues("ok").Inc()
	h.publish(c, domain.EventSignup, user.ID, user.Email)
	return c.JSON(http.StatusCreated, user.Identity())
}

// Token exchanges credentials for a signed bearer token.
//
// @Summary      Issue token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			h.publish(c, domain.EventLoginFailed, 0, req.Email)
		} else {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	identity := user.Identity()
	token, expiresAt, err := h.tokens.Issue(identity)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	h.publish(c, domain.EventLoginSucceeded, user.ID, user.Email)
	return c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt, User: identity})
}

// Me returns the identity carried by the bearer token.
//
// @Summary      Current identity
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// Users lists every account. Admin only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /users [get]
func (h *AuthHandler) Users(c echo.Context) error {
	users, err := h.authService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	resp := usersResponse{Users: make([]domain.Identity, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, u.Identity())
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) publish(c echo.Context, kind domain.AuthEventKind, userID int64, email string) {
	h.audit.Publish(domain.AuthEvent{
		Kind:     kind,
		UserID:   userID,
		Email:    domain.NormalizeEmail(email),
		RemoteIP: c.RealIP(),
		At:       time.Now().UTC(),
	})
}
