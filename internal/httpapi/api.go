package httpapi

import (
	"net/http"

	"terrastore/internal/auth"
	"terrastore/internal/config"
	"terrastore/internal/extauth"
	"terrastore/internal/httpapi/handlers"
	"terrastore/internal/httpapi/middlewares"
	"terrastore/internal/service"
	"terrastore/internal/staging"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type API struct {
	cfg     config.Config
	auth    *auth.Authenticator
	handler *handlers.Handler
}

func New(cfg config.Config, svc *service.Service, authn *auth.Authenticator, ldapAuth *extauth.LDAPAuthenticator, stagingDir *staging.Dir) *API {
	return &API{
		cfg:     cfg,
		auth:    authn,
		handler: handlers.New(cfg, svc, ldapAuth, stagingDir),
	}
}

// requestValidator adapts go-playground/validator to echo's Validator hook.
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func (a *API) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: a.cfg.CORSAllowedOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderAccept,
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			"X-API-Token",
		},
		ExposeHeaders: []string{
			"RateLimit-Limit",
			"RateLimit-Remaining",
			"RateLimit-Reset",
			"Retry-After",
		},
		MaxAge: 600,
	}))
	e.Use(middlewares.NewRateLimitMiddleware(a.auth))

	a.registerRoutes(e)
	return e
}
