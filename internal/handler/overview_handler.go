package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/middleware"
	"github.com/dafibh/budget-tracker/budget-backend/internal/service"
	"github.com/dafibh/budget-tracker/budget-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// OverviewHandler serves the dashboard overview
type OverviewHandler struct {
	overviewService *service.OverviewService
}

// NewOverviewHandler creates a new OverviewHandler
func NewOverviewHandler(overviewService *service.OverviewService) *OverviewHandler {
	return &OverviewHandler{overviewService: overviewService}
}

// CategoryStatResponse is one category total
type CategoryStatResponse struct {
	Type         string `json:"type"`
	Category     string `json:"category"`
	CategoryIcon string `json:"categoryIcon"`
	Amount       string `json:"amount"`
}

// OverviewResponse represents the overview in API responses
type OverviewResponse struct {
	From       string                 `json:"from"`
	To         string                 `json:"to"`
	Income     string                 `json:"income"`
	Expense    string                 `json:"expense"`
	Balance    string                 `json:"balance"`
	Categories []CategoryStatResponse `json:"categories"`
}

// GetOverview godoc
// @Summary Get overview
// @Description Income, expense and per-category totals for a date range of at most 90 days
// @Tags overview
// @Produce json
// @Security BearerAuth
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} OverviewResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /overview [get]
func (h *OverviewHandler) GetOverview(c echo.Context) error {
	userID, err := middleware.RequireUserID(c)
	if err != nil {
		return NewUnauthorizedError(c, "User not authenticated")
	}

	from, to, err := util.ParseDateRange(c.QueryParam("from"), c.QueryParam("to"), time.Now())
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	overview, err := h.overviewService.GetOverview(c.Request().Context(), userID, from, to)
	if err != nil {
		return handleServiceError(c, err, "get overview")
	}

	return c.JSON(http.StatusOK, toOverviewResponse(overview))
}

func toOverviewResponse(o *domain.Overview) OverviewResponse {
	categories := make([]CategoryStatResponse, len(o.Categories))
	for i, s := range o.Categories {
		categories[i] = CategoryStatResponse{
			Type:         string(s.Type),
			Category:     s.Category,
			CategoryIcon: s.Icon,
			Amount:       s.Amount.StringFixed(2),
		}
	}
	return OverviewResponse{
		From:       o.From.Format(util.DateLayout),
		To:         o.To.Format(util.DateLayout),
		Income:     o.Balance.Income.StringFixed(2),
		Expense:    o.Balance.Expense.StringFixed(2),
		Balance:    o.Balance.Income.Sub(o.Balance.Expense).StringFixed(2),
		Categories: categories,
	}
}
