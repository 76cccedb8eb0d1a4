package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

// PauseHandler handles membership pause requests for the signed-in member.
type PauseHandler struct {
	portal PortalService
}

func NewPauseHandler(svc PortalService) *PauseHandler {
	return &PauseHandler{portal: svc}
}

// Overview handles GET /api/v1/portal/pause.
//
// @Summary      Pause request status
// @Tags         pause
// @Produce      json
// @Success      200  {object}  pauseOverviewResponse
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/v1/portal/pause [get]
func (h *PauseHandler) Overview(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	overview, err := h.portal.PauseOverview(c.Request().Context(), device)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pauseOverviewResponse{
		Status:           overview.Status,
		Restricted:       overview.Restricted,
		DaysToExpiration: overview.DaysToExpiration,
		Reasons:          domain.PauseReasons,
	})
}

// Request handles POST /api/v1/portal/pause.
//
// @Summary      Request a membership pause
// @Tags         pause
// @Accept       json
// @Produce      json
// @Param        body  body      pauseRequest  true  "Pause dates and reason"
// @Success      202   {object}  pauseRequestResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/v1/portal/pause [post]
func (h *PauseHandler) Request(c echo.Context) error {
	device, err := deviceID(c)
	if err != nil {
		return err
	}
	var req pauseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	status, err := h.portal.RequestPause(c.Request().Context(), device, ports.PauseRequestInput{
		Start:  req.StartDate,
		End:    req.EndDate,
		Reason: req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, pauseRequestResponse{
		Status:  status,
		Message: "pause request submitted for review",
	})
}
