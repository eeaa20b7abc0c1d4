package http

import (
	"net/http"
	"strconv"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/service"
	"golang-stock-advisor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PositionHandler handles HTTP requests for live positions.
type PositionHandler struct {
	positionService   service.LivePositionService
	monitoringService service.PositionMonitoringService
	logger            *logger.Logger
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(positionService service.LivePositionService,
	monitoringService service.PositionMonitoringService,
	logger *logger.Logger) *PositionHandler {
	return &PositionHandler{
		positionService:   positionService,
		monitoringService: monitoringService,
		logger:            logger,
	}
}

// RegisterRoutes registers the position routes to the Echo group.
func (h *PositionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreatePosition)
	g.GET("", h.GetPositions)
	g.GET("/:id", h.GetPositionByID)
	g.POST("/:id/close", h.ClosePosition)
	g.POST("/:id/check", h.EnqueueCheck)
}

// CreatePosition godoc
// @Summary Open a live position
// @Description Open a new live position to be monitored for exit signals
// @Tags positions
// @Accept  json
// @Produce  json
// @Param   position  body    dto.CreatePositionRequest   true    "Position to open"
// @Success 201 {object} entity.LivePosition
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /positions [post]
func (h *PositionHandler) CreatePosition(c echo.Context) error {
	var req dto.CreatePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.OwnerID == "" || req.StockCode == "" || req.EntryPrice <= 0 || req.Shares <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner_id, stock_code, entry_price and shares are required"})
	}

	position, err := h.positionService.Open(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, position)
}

// GetPositions godoc
// @Summary List live positions
// @Description List live positions filtered by owner and status
// @Tags positions
// @Produce  json
// @Param   owner_id  query   string  false   "Owner identifier"
// @Param   status    query   string  false   "Position status (open, alerted, closed)"
// @Success 200 {array} entity.LivePosition
// @Failure 500 {object} dto.ErrorResponse
// @Router /positions [get]
func (h *PositionHandler) GetPositions(c echo.Context) error {
	param := dto.GetLivePositionsParam{}
	if ownerID := c.QueryParam("owner_id"); ownerID != "" {
		param.OwnerID = &ownerID
	}
	if status := c.QueryParam("status"); status != "" {
		param.Statuses = []string{status}
	}
	if param.OwnerID == nil && len(param.Statuses) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner_id or status filter is required"})
	}

	positions, err := h.positionService.Get(c.Request().Context(), param)
	if err != nil {
		h.logger.Error("Failed to get positions", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get positions"})
	}

	return c.JSON(http.StatusOK, positions)
}

// GetPositionByID godoc
// @Summary Get a live position by ID
// @Description Get a single live position and its exit signals
// @Tags positions
// @Produce  json
// @Param   id  path    int true    "Position ID"
// @Success 200 {object} entity.LivePosition
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /positions/{id} [get]
func (h *PositionHandler) GetPositionByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid position ID"})
	}

	position, err := h.positionService.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, position)
}

// ClosePosition godoc
// @Summary Close a live position
// @Description Close a live position at the given exit price; pending signals expire
// @Tags positions
// @Accept  json
// @Produce  json
// @Param   id  path    int true    "Position ID"
// @Param   close  body    dto.ClosePositionRequest   true    "Exit details"
// @Success 200 {object} entity.LivePosition
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /positions/{id}/close [post]
func (h *PositionHandler) ClosePosition(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid position ID"})
	}

	var req dto.ClosePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.ExitPrice <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exit_price is required"})
	}

	position, err := h.positionService.Close(c.Request().Context(), uint(id), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, position)
}

// EnqueueCheck godoc
// @Summary Queue an on-demand position check
// @Description Queue a monitoring task for one position; the consumer evaluates it asynchronously
// @Tags positions
// @Produce  json
// @Param   id  path    int true    "Position ID"
// @Success 202 {object} dto.BaseResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /positions/{id}/check [post]
func (h *PositionHandler) EnqueueCheck(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid position ID"})
	}

	if err := h.monitoringService.EnqueueCheck(c.Request().Context(), uint(id), true); err != nil {
		h.logger.Error("Failed to enqueue position check", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to enqueue position check"})
	}

	return c.JSON(http.StatusAccepted, dto.BaseResponse{Message: "position check queued"})
}
