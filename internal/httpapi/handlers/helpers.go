package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"terrastore/internal/service"

	"github.com/labstack/echo/v4"
)

// mapServiceError translates service sentinels into HTTP statuses. Unknown
// errors are logged and returned as a generic 500: internal detail (driver
// errors, stack context) never reaches the client.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnsupportedType):
		return echo.NewHTTPError(http.StatusBadRequest, "file type not supported")
	case errors.Is(err, service.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "an error occurred while processing the request")
	}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func sessionResponse(token string, userID, name, email string) map[string]any {
	return map[string]any{
		"id":    userID,
		"name":  name,
		"email": email,
		"token": token,
	}
}
