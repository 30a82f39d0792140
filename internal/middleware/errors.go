package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const problemBaseURL = "https://budget-tracker.app/errors/"

const (
	errorTypeUnauthorized = problemBaseURL + "unauthorized"
	errorTypeRateLimit    = problemBaseURL + "rate-limit"
)

// problem is the RFC 7807 body written by middleware that rejects a request
// before it reaches a handler
type problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeProblem(c echo.Context, status int, errorType, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, problem{
		Type:     errorType,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

func unauthorizedError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusUnauthorized, errorTypeUnauthorized, detail)
}

func rateLimitError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusTooManyRequests, errorTypeRateLimit, detail)
}
