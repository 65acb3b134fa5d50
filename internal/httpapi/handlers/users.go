package handlers

import (
	"net/http"

	"terrastore/internal/auth"
	"terrastore/internal/extauth"

	"github.com/labstack/echo/v4"
)

func (h *Handler) Register(c echo.Context) error {
	var body struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	sess, err := h.svc.Register(c.Request().Context(), body.Name, body.Email, body.Password)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse(sess.Token, sess.User.ID.String(), sess.User.Name, sess.User.Email))
}

func (h *Handler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	sess, err := h.svc.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse(sess.Token, sess.User.ID.String(), sess.User.Name, sess.User.Email))
}

// LDAPLogin authenticates via the external directory and issues a session.
func (h *Handler) LDAPLogin(c echo.Context) error {
	if h.ldap == nil {
		return echo.NewHTTPError(http.StatusNotFound, "LDAP not enabled")
	}

	var body struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	identity, err := h.ldap.Authenticate(body.Username, body.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	sess, err := h.svc.ExternalLogin(c.Request().Context(), identity.DisplayName, identity.Email)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse(sess.Token, sess.User.ID.String(), sess.User.Name, sess.User.Email))
}

// AuthProviders returns the list of enabled login methods.
func (h *Handler) AuthProviders(c echo.Context) error {
	providers := []extauth.Provider{
		{ID: "standard", Name: "Standard", Type: "standard"},
	}
	if h.ldap != nil {
		providers = append(providers, extauth.Provider{ID: "ldap", Name: "LDAP", Type: "ldap"})
	}
	return c.JSON(http.StatusOK, map[string]any{"providers": providers})
}

func (h *Handler) CurrentUser(c echo.Context) error {
	claims, ok := auth.GetClaims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := h.svc.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":        user.ID.String(),
		"name":      user.Name,
		"email":     user.Email,
		"createdAt": toMillis(user.CreatedAt),
	})
}
