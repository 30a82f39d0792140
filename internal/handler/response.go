package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/budget-tracker/budget-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://budget-tracker.app/errors/validation"
	ErrorTypeNotFound     = "https://budget-tracker.app/errors/not-found"
	ErrorTypeUnauthorized = "https://budget-tracker.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://budget-tracker.app/errors/forbidden"
	ErrorTypeConflict     = "https://budget-tracker.app/errors/conflict"
	ErrorTypeInternal     = "https://budget-tracker.app/errors/internal"
)

func writeProblem(c echo.Context, status int, errorType, detail string, fields []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   fields,
	})
}

// NewValidationError writes a 400 with optional per-field messages
func NewValidationError(c echo.Context, detail string, fields []ValidationError) error {
	return writeProblem(c, http.StatusBadRequest, ErrorTypeValidation, detail, fields)
}

func NewNotFoundError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusNotFound, ErrorTypeNotFound, detail, nil)
}

func NewUnauthorizedError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, detail, nil)
}

func NewForbiddenError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusForbidden, ErrorTypeForbidden, detail, nil)
}

func NewConflictError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusConflict, ErrorTypeConflict, detail, nil)
}

func NewInternalError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusInternalServerError, ErrorTypeInternal, detail, nil)
}

// handleServiceError maps a domain error onto its problem details response
func handleServiceError(c echo.Context, err error, action string) error {
	if ve, ok := domain.AsValidationError(err); ok {
		fields := make([]ValidationError, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			fields = append(fields, ValidationError{Field: f.Field, Message: f.Message})
		}
		return NewValidationError(c, "Validation failed", fields)
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return NewUnauthorizedError(c, "User not authenticated")
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidDateRange), errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrSettingsNotFound),
		errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrCategoryAlreadyExists), errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, err.Error())
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}
