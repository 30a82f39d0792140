package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/dafibh/budget-tracker/budget-backend/internal/middleware"
	"github.com/dafibh/budget-tracker/budget-backend/internal/service"
	"github.com/dafibh/budget-tracker/budget-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount" swaggertype:"number"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
	Category     string `json:"category"`
	CategoryIcon string `json:"categoryIcon"`
	Date         string `json:"date"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// CreateTransaction godoc
// @Summary Create a transaction
// @Description Create a new income or expense transaction for the authenticated user
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "Transaction creation request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID, err := middleware.RequireUserID(c)
	if err != nil {
		return NewUnauthorizedError(c, "User not authenticated")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var fieldErrors []ValidationError
	amount, err := req.Amount.Float64()
	if err != nil {
		fieldErrors = append(fieldErrors, ValidationError{Field: "amount", Message: "must be a number"})
	}
	date, err := parseTransactionDate(req.Date)
	if err != nil {
		fieldErrors = append(fieldErrors, ValidationError{Field: "date", Message: "must be a date (YYYY-MM-DD or RFC 3339)"})
	}
	if len(fieldErrors) > 0 {
		return NewValidationError(c, "Validation failed", fieldErrors)
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request().Context(), userID, domain.CreateTransactionPayload{
		Type:        domain.TransactionType(req.Type),
		Description: req.Description,
		Amount:      amount,
		Category:    req.Category,
		Date:        date,
	})
	if err != nil {
		return handleServiceError(c, err, "create transaction")
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactions godoc
// @Summary List transactions
// @Description List the authenticated user's transactions within a date range (defaults to the current month)
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {array} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions [get]
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID, err := middleware.RequireUserID(c)
	if err != nil {
		return NewUnauthorizedError(c, "User not authenticated")
	}

	from, to, err := util.ParseDateRange(c.QueryParam("from"), c.QueryParam("to"), time.Now())
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	transactions, err := h.transactionService.ListTransactions(c.Request().Context(), userID, from, to)
	if err != nil {
		return handleServiceError(c, err, "list transactions")
	}

	response := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		response[i] = toTransactionResponse(t)
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Tags transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID, err := middleware.RequireUserID(c)
	if err != nil {
		return NewUnauthorizedError(c, "User not authenticated")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", []ValidationError{
			{Field: "id", Message: "must be a UUID"},
		})
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), userID, id); err != nil {
		return handleServiceError(c, err, "delete transaction")
	}
	return c.NoContent(http.StatusNoContent)
}

// parseTransactionDate accepts a calendar date or a full RFC 3339 timestamp
func parseTransactionDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return util.ParseDate(s)
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID.String(),
		Type:         string(t.Type),
		Description:  t.Description,
		Amount:       t.Amount.StringFixed(2),
		Category:     t.Category,
		CategoryIcon: t.CategoryIcon,
		Date:         t.Date.Format(util.DateLayout),
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    t.UpdatedAt.Format(time.RFC3339),
	}
}
