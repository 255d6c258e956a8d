package api

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/authgate/docs"
	"github.com/99minutos/authgate/internal/api/handler"
	"github.com/99minutos/authgate/internal/api/middleware"
	"github.com/99minutos/authgate/internal/api/view"
	"github.com/99minutos/authgate/internal/core/domain"
	"github.com/99minutos/authgate/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Auth     ports.AuthService
	Sessions ports.SessionManager
	Audit    ports.AuditPublisher
	Tokens   TokenService

	// SessionSecret signs the session cookie.
	SessionSecret []byte
	CookieSecure  bool

	// Checks are the readiness probes keyed by dependency name.
	Checks map[string]handler.Check

	// Registerer receives the HTTP request metrics. Defaults to the
	// process-wide Prometheus registry.
	Registerer prometheus.Registerer

	Log zerolog.Logger
}

// TokenService issues and verifies API bearer tokens.
type TokenService interface {
	handler.TokenIssuer
	middleware.TokenParser
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "authgate",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(session.Middleware(sessions.NewCookieStore(deps.SessionSecret)))

	// --- Browser flow ---
	cookie := middleware.CookieOptions{Secure: deps.CookieSecure, TTL: deps.Sessions.TTL()}
	pages := handler.NewPageHandler(deps.Auth, deps.Sessions, deps.Audit, cookie, deps.Log)
	web := e.Group("", middleware.Session(deps.Sessions, deps.Log))

	web.GET("/", pages.Index)
	web.GET("/login", pages.ShowLogin)
	web.POST("/login", pages.Login)
	web.GET("/signup", pages.ShowSignup)
	web.POST("/signup", pages.Signup)
	web.GET("/landing", pages.Landing)
	web.GET("/logout", pages.Logout)

	e.StaticFS("/static", view.Static())

	// --- JSON API ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Tokens, deps.Audit)
	authMiddleware := middleware.Auth(deps.Tokens)

	v1 := e.Group("/api/v1")
	v1.POST("/auth/signup", authHandler.Signup)
	v1.POST("/auth/token", authHandler.Token)
	v1.GET("/me", authHandler.Me, authMiddleware)
	v1.GET("/users", authHandler.Users, authMiddleware, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Checks)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// requestLogger feeds one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				event = log.Error().Err(v.Error)
			case v.Error != nil:
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
