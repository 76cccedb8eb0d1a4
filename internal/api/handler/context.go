package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crossfitlagos/member-portal/internal/api/middleware"
)

// deviceID extracts the device injected by the Device middleware. Its
// absence means the route was registered without the middleware.
func deviceID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.DeviceKey).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing device identity")
	}
	return id, nil
}
