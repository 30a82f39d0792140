package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/middleware"
	"github.com/dafibh/budget-tracker/budget-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// SettingsHandler handles user settings requests
type SettingsHandler struct {
	settingsService *service.SettingsService
	signInPath      string
}

// NewSettingsHandler creates a new SettingsHandler. Requests without an identity are sent to signInPath.
func NewSettingsHandler(settingsService *service.SettingsService, signInPath string) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		signInPath:      signInPath,
	}
}

// UpdateCurrencyRequest represents the update currency request body
type UpdateCurrencyRequest struct {
	Currency string `json:"currency"`
}

// SettingsResponse represents user settings in API responses
type SettingsResponse struct {
	Currency  string `json:"currency"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// GetSettings godoc
// @Summary Get user settings
// @Description Returns the user's settings, creating them with USD on first access
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SettingsResponse
// @Failure 303 "Redirect to sign-in"
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	settings, err := h.settingsService.GetSettings(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return h.handleError(c, err, "get settings")
	}
	return c.JSON(http.StatusOK, toSettingsResponse(settings))
}

// UpdateCurrency godoc
// @Summary Update preferred currency
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateCurrencyRequest true "Currency update"
// @Success 200 {object} SettingsResponse
// @Failure 303 "Redirect to sign-in"
// @Failure 400 {object} ProblemDetails
// @Router /settings/currency [put]
func (h *SettingsHandler) UpdateCurrency(c echo.Context) error {
	var req UpdateCurrencyRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	settings, err := h.settingsService.UpdateCurrency(c.Request().Context(), middleware.GetUserID(c), req.Currency)
	if err != nil {
		return h.handleError(c, err, "update currency")
	}
	return c.JSON(http.StatusOK, toSettingsResponse(settings))
}

// GetCurrencies godoc
// @Summary List supported currencies
// @Tags settings
// @Produce json
// @Success 200 {array} domain.Currency
// @Router /settings/currencies [get]
func (h *SettingsHandler) GetCurrencies(c echo.Context) error {
	return c.JSON(http.StatusOK, h.settingsService.ListCurrencies())
}

// handleError redirects anonymous callers to sign-in instead of answering 401
func (h *SettingsHandler) handleError(c echo.Context, err error, action string) error {
	if errors.Is(err, domain.ErrUnauthenticated) {
		return c.Redirect(http.StatusSeeOther, h.signInPath)
	}
	return handleServiceError(c, err, action)
}

func toSettingsResponse(s *domain.UserSettings) SettingsResponse {
	return SettingsResponse{
		Currency:  s.Currency,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}
