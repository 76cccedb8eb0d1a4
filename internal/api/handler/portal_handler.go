package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/portal"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

// PortalService is the per-device portal the handlers drive.
type PortalService interface {
	Start(ctx context.Context, device string) (portal.View, error)
	Login(ctx context.Context, device, phone, pin string) (portal.View, error)
	BeginReset(ctx context.Context, device, phone string) (portal.View, error)
	SetupPin(ctx context.Context, device, pin, confirm string) (portal.View, error)
	Back(ctx context.Context, device string) (portal.View, error)
	Cancel(ctx context.Context, device string) (portal.View, error)
	Logout(ctx context.Context, device string) (portal.View, error)
	SaveNotificationToken(ctx context.Context, device, token string) error
	PauseOverview(ctx context.Context, device string) (ports.PauseOverview, error)
	RequestPause(ctx context.Context, device string, in ports.PauseRequestInput) (domain.PauseStatus, error)
}

// AttemptLimiter throttles credential attempts per account.
type AttemptLimiter interface {
	Allow(key string) bool
	Reject(c echo.Context) error
}

// PortalHandler handles the portal screen actions.
type PortalHandler struct {
	portal   PortalService
	accounts AttemptLimiter
}

// PortalOption customises a PortalHandler.
type PortalOption func(*PortalHandler)

// WithAccountLimiter throttles login and reset attempts per phone number,
// whichever device or address they come from.
func WithAccountLimiter(l AttemptLimiter) PortalOption {
	return func(h *PortalHandler) { h.accounts = l }
}

func NewPortalHandler(svc PortalService, opts ...PortalOption) *PortalHandler {
	h := &PortalHandler{portal: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// throttled reports whether the phone has spent its attempt budget.
func (h *PortalHandler) throttled(phone string) bool {
	return h.accounts != nil && !h.accounts.Allow("phone:"+domain.NormalizePhone(phone))
}

// respond renders a view, or hands the error to the HTTP error handler,
// which attaches the view carried by a rejection.
func respond(c echo.Context, view portal.View, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewResponse{View: view})
}

// Start handles GET /api/v1/portal.
//
// @Summary      Current portal view
// @Description  Restores the device's session when it has no view yet or is on the dashboard.
// @Tags         portal
// @Produce      json
// @Success      200  {object}  viewResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/v1/portal [get]
func (h *PortalHandler) Start(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	view, err := h.portal.Start(c.Request().Context(), device)
	return respond(c, view, err)
}

// Login handles POST /api/v1/portal/login.
//
// @Summary      Log in with phone and PIN
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  viewResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/v1/portal/login [post]
func (h *PortalHandler) Login(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if h.throttled(req.Phone) {
		return h.accounts.Reject(c)
	}

	view, err := h.portal.Login(c.Request().Context(), device, req.Phone, req.Pin)
	return respond(c, view, err)
}

// Reset handles POST /api/v1/portal/reset.
//
// @Summary      Start the forgot-PIN flow
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequest  true  "Phone number"
// @Success      200   {object}  viewResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/v1/portal/reset [post]
func (h *PortalHandler) Reset(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if h.throttled(req.Phone) {
		return h.accounts.Reject(c)
	}

	view, err := h.portal.BeginReset(c.Request().Context(), device, req.Phone)
	return respond(c, view, err)
}

// Pin handles POST /api/v1/portal/pin.
//
// @Summary      Set up or reset the PIN
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        body  body      pinRequest  true  "New PIN and confirmation"
// @Success      200   {object}  viewResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/v1/portal/pin [post]
func (h *PortalHandler) Pin(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	var req pinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	view, err := h.portal.SetupPin(c.Request().Context(), device, req.Pin, req.ConfirmPin)
	return respond(c, view, err)
}

// Back handles POST /api/v1/portal/back.
//
// @Summary      Leave PIN setup for the login screen
// @Tags         portal
// @Produce      json
// @Success      200  {object}  viewResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/v1/portal/back [post]
func (h *PortalHandler) Back(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	view, err := h.portal.Back(c.Request().Context(), device)
	return respond(c, view, err)
}

// Cancel handles POST /api/v1/portal/cancel.
//
// @Summary      Abort the in-flight operation
// @Tags         portal
// @Produce      json
// @Success      200  {object}  viewResponse
// @Router       /api/v1/portal/cancel [post]
func (h *PortalHandler) Cancel(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	view, err := h.portal.Cancel(c.Request().Context(), device)
	return respond(c, view, err)
}

// Logout handles POST /api/v1/portal/logout.
//
// @Summary      Log out
// @Tags         portal
// @Produce      json
// @Success      200  {object}  viewResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/v1/portal/logout [post]
func (h *PortalHandler) Logout(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	view, err := h.portal.Logout(c.Request().Context(), device)
	return respond(c, view, err)
}

// Notifications handles POST /api/v1/portal/notifications.
//
// @Summary      Register a push notification token
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        body  body      notificationRequest  true  "Push token"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/v1/portal/notifications [post]
func (h *PortalHandler) Notifications(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	var req notificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.portal.SaveNotificationToken(c.Request().Context(), device, req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "notifications enabled"})
}
