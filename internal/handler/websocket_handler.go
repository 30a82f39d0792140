package handler

import (
	"context"
	"net/http"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/budget-tracker/budget-backend/internal/middleware"
	"github.com/dafibh/budget-tracker/budget-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TokenResolver validates a raw token and returns its claims
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*validator.ValidatedClaims, error)
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	resolver       TokenResolver
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, resolver TokenResolver, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		resolver:       resolver,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// resolveUserID takes the identity from the request context, the token query parameter, or the session
func (h *WebSocketHandler) resolveUserID(c echo.Context) (string, error) {
	if userID := middleware.GetUserID(c); userID != "" {
		return userID, nil
	}

	token := c.QueryParam("token")
	if token == "" {
		t, err := middleware.ExtractToken(c.Request())
		if err != nil {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}
		token = t
	}

	claims, err := h.resolver.ResolveToken(c.Request().Context(), token)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return claims.RegisteredClaims.Subject, nil
}

// HandleWS handles WebSocket connection requests at GET /ws.
// Clients receive "<entity>.<event>" messages, including "overview.invalidated" after their data changes.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	userID, err := h.resolveUserID(c)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected")
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, userID, h.hub)

	log.Info().
		Str("user_id", userID).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	go client.Serve()

	return nil
}
