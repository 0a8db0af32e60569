package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidstream/account-service/internal/api/middleware"
)

// ctxUserID extracts the user id injected by the Auth middleware. Its
// presence proves the middleware ran; a protected route reached without it
// is a wiring bug surfaced as 401, not 500.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.UserIDKey).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}
