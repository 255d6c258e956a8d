package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/authgate/internal/api/middleware"
	"github.com/99minutos/authgate/internal/core/domain"
)

// ctxIdentity returns the identity injected by the Auth middleware, failing
// with 401 when the middleware did not run or found nobody.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity := middleware.IdentityFrom(c)
	if identity == nil || identity.ID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return identity, nil
}
