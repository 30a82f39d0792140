package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/middleware"
	"github.com/dafibh/budget-tracker/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
	Type string `json:"type"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Type      string `json:"type"`
	CreatedAt string `json:"createdAt"`
}

// CreateCategory godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "Category creation request"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID, err := middleware.RequireUserID(c)
	if err != nil {
		return NewUnauthorizedError(c, "User not authenticated")
	}

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), userID, domain.CreateCategoryPayload{
		Name: req.Name,
		Icon: req.Icon,
		Type: domain.TransactionType(req.Type),
	})
	if err != nil {
		return handleServiceError(c, err, "create category")
	}

	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// GetCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param type query string false "income or expense"
// @Success 200 {array} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Router /categories [get]
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	userID, err := middleware.RequireUserID(c)
	if err != nil {
		return NewUnauthorizedError(c, "User not authenticated")
	}

	var txType *domain.TransactionType
	if raw := c.QueryParam("type"); raw != "" {
		t := domain.TransactionType(raw)
		txType = &t
	}

	categories, err := h.categoryService.ListCategories(c.Request().Context(), userID, txType)
	if err != nil {
		return handleServiceError(c, err, "list categories")
	}

	response := make([]CategoryResponse, len(categories))
	for i, cat := range categories {
		response[i] = toCategoryResponse(cat)
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteCategory godoc
// @Summary Delete a category
// @Tags categories
// @Security BearerAuth
// @Param type path string true "income or expense"
// @Param name path string true "Category name"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /categories/{type}/{name} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID, err := middleware.RequireUserID(c)
	if err != nil {
		return NewUnauthorizedError(c, "User not authenticated")
	}

	err = h.categoryService.DeleteCategory(c.Request().Context(), userID, domain.TransactionType(c.Param("type")), c.Param("name"))
	if err != nil {
		return handleServiceError(c, err, "delete category")
	}
	return c.NoContent(http.StatusNoContent)
}

func toCategoryResponse(cat *domain.Category) CategoryResponse {
	return CategoryResponse{
		Name:      cat.Name,
		Icon:      cat.Icon,
		Type:      string(cat.Type),
		CreatedAt: cat.CreatedAt.Format(time.RFC3339),
	}
}
