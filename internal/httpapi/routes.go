package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *API) registerRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"ok":        true,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := e.Group("/api")

	users := api.Group("/users")
	users.POST("/register", a.handler.Register)
	users.POST("/login", a.handler.Login)
	users.POST("/login/ldap", a.handler.LDAPLogin)
	users.GET("/auth/providers", a.handler.AuthProviders)
	users.GET("", a.handler.CurrentUser, a.auth.Middleware)

	upload := api.Group("/upload", a.auth.Middleware)
	upload.POST("", a.handler.Upload)
	upload.GET("", a.handler.ListUploads)
	upload.GET("/:fileId", a.handler.GetContent)
	upload.POST("/create", a.handler.CreateAnnotation)
}
