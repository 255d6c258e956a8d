package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/authgate/internal/core/domain"
)

// Context keys shared by the auth and session middleware.
const (
	ContextIdentity = "identity"
	ContextRole     = "role"
	ContextToken    = "session_token"
)

// TokenParser verifies a bearer token and returns its identity.
type TokenParser interface {
	Parse(token string) (domain.Identity, error)
}

// Auth validates the bearer token and injects the identity into context.
func Auth(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			identity, err := parser.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			setIdentity(c, &identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity placed in context by Auth or Session.
func IdentityFrom(c echo.Context) *domain.Identity {
	identity, _ := c.Get(ContextIdentity).(*domain.Identity)
	return identity
}

func setIdentity(c echo.Context, identity *domain.Identity) {
	c.Set(ContextIdentity, identity)
	c.Set(ContextRole, string(identity.Role))
}
