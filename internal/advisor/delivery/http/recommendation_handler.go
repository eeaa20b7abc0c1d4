package http

import (
	"net/http"
	"strconv"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/service"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"

	"github.com/labstack/echo/v4"
)

// RecommendationHandler handles HTTP requests for recommendations.
type RecommendationHandler struct {
	recommendationService service.RecommendationService
	logger                *logger.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(recommendationService service.RecommendationService, logger *logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// RegisterRoutes registers the recommendation routes to the Echo group.
func (h *RecommendationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateRecommendation)
	g.GET("", h.GetRecommendations)
	g.GET("/:id", h.GetRecommendationByID)
}

// CreateRecommendation godoc
// @Summary Record a recommendation
// @Description Record a stock recommendation and start tracking its performance
// @Tags recommendations
// @Accept  json
// @Produce  json
// @Param   recommendation  body    dto.CreateRecommendationRequest   true    "Recommendation to record"
// @Success 201 {object} entity.Recommendation
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /recommendations [post]
func (h *RecommendationHandler) CreateRecommendation(c echo.Context) error {
	var req dto.CreateRecommendationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.StockCode == "" || req.PriceAtRecommendation <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock_code and price_at_recommendation are required"})
	}
	if req.OverallScore < 0 || req.OverallScore > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "overall_score must be between 0 and 100"})
	}

	recommendation, err := h.recommendationService.Create(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, recommendation)
}

// GetRecommendations godoc
// @Summary List recommendations
// @Description List recommendations filtered by stock, strategy and lookback window
// @Tags recommendations
// @Produce  json
// @Param   stock_code  query   string  false   "Stock code"
// @Param   strategy    query   string  false   "Strategy type (momentum, dip)"
// @Param   days        query   int     false   "Lookback window in days (default 30)"
// @Success 200 {array} entity.Recommendation
// @Failure 500 {object} dto.ErrorResponse
// @Router /recommendations [get]
func (h *RecommendationHandler) GetRecommendations(c echo.Context) error {
	days := 30
	if v := c.QueryParam("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid days parameter"})
		}
		days = parsed
	}

	param := dto.GetRecommendationsParam{
		Since: utils.ToPointer(utils.TimeNowUTC().AddDate(0, 0, -days)),
	}
	if stockCode := c.QueryParam("stock_code"); stockCode != "" {
		param.StockCodes = []string{stockCode}
	}
	if strategy := c.QueryParam("strategy"); strategy != "" {
		param.StrategyType = &strategy
	}

	recommendations, err := h.recommendationService.Get(c.Request().Context(), param)
	if err != nil {
		h.logger.Error("Failed to get recommendations", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get recommendations"})
	}

	return c.JSON(http.StatusOK, recommendations)
}

// GetRecommendationByID godoc
// @Summary Get a recommendation by ID
// @Description Get a single recommendation with its performance tracker
// @Tags recommendations
// @Produce  json
// @Param   id  path    int true    "Recommendation ID"
// @Success 200 {object} entity.Recommendation
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /recommendations/{id} [get]
func (h *RecommendationHandler) GetRecommendationByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid recommendation ID"})
	}

	recommendation, err := h.recommendationService.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, recommendation)
}
