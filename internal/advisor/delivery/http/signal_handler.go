package http

import (
	"net/http"
	"strconv"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/service"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalHandler handles HTTP requests for exit signals.
type SignalHandler struct {
	positionService service.LivePositionService
	logger          *logger.Logger
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(positionService service.LivePositionService, logger *logger.Logger) *SignalHandler {
	return &SignalHandler{
		positionService: positionService,
		logger:          logger,
	}
}

// RegisterRoutes registers the signal routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetSignals)
	g.POST("/:id/resolve", h.ResolveSignal)
}

// GetSignals godoc
// @Summary List exit signals
// @Description List exit signals filtered by position and status
// @Tags signals
// @Produce  json
// @Param   position_id  query   int     false   "Position ID"
// @Param   status       query   string  false   "Signal status (pending, acted, ignored, expired)"
// @Success 200 {array} entity.ExitSignal
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /signals [get]
func (h *SignalHandler) GetSignals(c echo.Context) error {
	param := dto.GetExitSignalsParam{}
	if positionID := c.QueryParam("position_id"); positionID != "" {
		id, err := strconv.ParseUint(positionID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid position ID"})
		}
		param.PositionIDs = []uint{uint(id)}
	}
	if status := c.QueryParam("status"); status != "" {
		param.Statuses = []string{status}
	}
	if len(param.PositionIDs) == 0 && len(param.Statuses) == 0 {
		param.Statuses = []string{entity.SignalStatusPending}
	}

	signals, err := h.positionService.GetSignals(c.Request().Context(), param)
	if err != nil {
		h.logger.Error("Failed to get signals", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get signals"})
	}

	return c.JSON(http.StatusOK, signals)
}

// ResolveSignal godoc
// @Summary Resolve a pending exit signal
// @Description Mark a pending exit signal as acted or ignored
// @Tags signals
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Signal ID"
// @Param   action  body    dto.SignalActionRequest   true    "Resolution action"
// @Success 200 {object} dto.BaseResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /signals/{id}/resolve [post]
func (h *SignalHandler) ResolveSignal(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid signal ID"})
	}

	var req dto.SignalActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	if err := h.positionService.ResolveSignal(c.Request().Context(), uint(id), req.Action); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, dto.BaseResponse{Message: "signal " + req.Action})
}
