package http

import (
	"net/http"
	"strconv"

	"golang-stock-advisor/internal/advisor/service"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"

	"github.com/labstack/echo/v4"
)

// PerformanceHandler handles HTTP requests for recommendation performance.
type PerformanceHandler struct {
	trackerService service.PerformanceTrackerService
	logger         *logger.Logger
}

// NewPerformanceHandler creates a new PerformanceHandler.
func NewPerformanceHandler(trackerService service.PerformanceTrackerService, logger *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{trackerService: trackerService, logger: logger}
}

// RegisterRoutes registers the performance routes to the Echo group.
func (h *PerformanceHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/stats", h.GetStats)
	g.POST("/update", h.RunUpdate)
}

// GetStats godoc
// @Summary Recommendation performance statistics
// @Description Aggregate win rate and returns at a tracking checkpoint
// @Tags performance
// @Produce  json
// @Param   checkpoint  query   string  true    "Checkpoint (1d, 5d, 10d, 30d)"
// @Param   days        query   int     false   "Lookback window in days"
// @Param   strategy    query   string  false   "Strategy type filter (momentum, dip)"
// @Success 200 {object} dto.CheckpointStats
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /performance/stats [get]
func (h *PerformanceHandler) GetStats(c echo.Context) error {
	checkpoint := c.QueryParam("checkpoint")
	if checkpoint == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "checkpoint is required"})
	}

	var strategyType *string
	if strategy := c.QueryParam("strategy"); strategy != "" {
		strategyType = &strategy
	}

	sinceTime := utils.TimeNowUTC().AddDate(0, 0, -90)
	if param := c.QueryParam("days"); param != "" {
		days, err := strconv.Atoi(param)
		if err != nil || days <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid days parameter"})
		}
		sinceTime = utils.TimeNowUTC().AddDate(0, 0, -days)
	}

	stats, err := h.trackerService.Stats(c.Request().Context(), checkpoint, &sinceTime, strategyType)
	if err != nil {
		h.logger.Error("Failed to compute performance stats", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute performance stats"})
	}

	return c.JSON(http.StatusOK, stats)
}

// RunUpdate godoc
// @Summary Run a tracker update pass
// @Description Refresh every active recommendation tracker with current prices
// @Tags performance
// @Produce  json
// @Success 200 {object} dto.TrackerUpdateStats
// @Router /performance/update [post]
func (h *PerformanceHandler) RunUpdate(c echo.Context) error {
	stats := h.trackerService.UpdateAll(c.Request().Context())
	return c.JSON(http.StatusOK, stats)
}
