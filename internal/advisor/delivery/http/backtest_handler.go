package http

import (
	"net/http"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/service"
	"golang-stock-advisor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BacktestHandler handles HTTP requests for backtests.
type BacktestHandler struct {
	backtestService service.BacktestService
	logger          *logger.Logger
}

// NewBacktestHandler creates a new BacktestHandler.
func NewBacktestHandler(backtestService service.BacktestService, logger *logger.Logger) *BacktestHandler {
	return &BacktestHandler{backtestService: backtestService, logger: logger}
}

// RegisterRoutes registers the backtest routes to the Echo group.
func (h *BacktestHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/run", h.RunBacktest)
}

// RunBacktest godoc
// @Summary Run a backtest
// @Description Run a point-in-time backtest over stored price history and return performance metrics
// @Tags backtest
// @Accept  json
// @Produce  json
// @Param   backtest  body    dto.RunBacktestRequest   true    "Backtest window and parameters"
// @Success 200 {object} service.BacktestResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /backtest/run [post]
func (h *BacktestHandler) RunBacktest(c echo.Context) error {
	var req dto.RunBacktestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.StartDate == "" || req.EndDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date and end_date are required"})
	}

	result, err := h.backtestService.Run(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Backtest run failed", logger.ErrorField(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}
