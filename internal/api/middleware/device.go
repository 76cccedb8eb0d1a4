package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// DeviceCookie names the cookie that identifies a browser to the portal.
	DeviceCookie = "portal_device"
	// DeviceKey is the echo context key the device ID is stored under.
	DeviceKey = "device_id"
)

// DeviceConfig controls the device cookie.
type DeviceConfig struct {
	Secure bool
	MaxAge time.Duration
}

// Device reads the portal_device cookie, issuing a fresh one when it is
// missing or not a UUID, and injects the device ID into context.
func Device(cfg DeviceConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if ck, err := c.Cookie(DeviceCookie); err == nil {
				if parsed, err := uuid.Parse(ck.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			// Refreshed on every request so an active device keeps its view.
			c.SetCookie(&http.Cookie{
				Name:     DeviceCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(DeviceKey, id)

			return next(c)
		}
	}
}
