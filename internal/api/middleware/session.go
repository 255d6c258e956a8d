package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/authgate/internal/core/ports"
)

// SessionCookie names the signed cookie that carries the session token.
const SessionCookie = "authgate_session"

const tokenValue = "token"

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

func (o CookieOptions) apply(sess *sessions.Session, maxAge int) {
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Session resolves the cookie's token into an identity. Requests without a
// valid token continue anonymously; store failures abort with an error.
func Session(manager ports.SessionManager, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := cookieToken(c, log)
			if token == "" {
				return next(c)
			}

			identity, err := manager.Current(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(ContextToken, token)
			if identity != nil {
				setIdentity(c, identity)
			}
			return next(c)
		}
	}
}

// TokenFrom returns the raw session token of the request, if any.
func TokenFrom(c echo.Context) string {
	token, _ := c.Get(ContextToken).(string)
	return token
}

// SaveSessionToken writes token into a fresh session cookie.
func SaveSessionToken(c echo.Context, token string, opts CookieOptions) error {
	sess, err := session.Get(SessionCookie, c)
	if sess == nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{tokenValue: token}
	opts.apply(sess, int(opts.TTL.Seconds()))
	return sess.Save(c.Request(), c.Response())
}

// ExpireSession empties the session cookie and tells the client to drop it.
func ExpireSession(c echo.Context, opts CookieOptions) error {
	sess, err := session.Get(SessionCookie, c)
	if sess == nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	opts.apply(sess, -1)
	return sess.Save(c.Request(), c.Response())
}

func cookieToken(c echo.Context, log zerolog.Logger) string {
	sess, err := session.Get(SessionCookie, c)
	if err != nil {
		// Tampered or stale cookies decode to an empty session.
		log.Debug().Err(err).Msg("unreadable session cookie")
	}
	if sess == nil {
		return ""
	}
	token, _ := sess.Values[tokenValue].(string)
	return token
}
